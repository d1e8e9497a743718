package gologger

import (
	job "github.com/goliatone/go-job"
	glog "github.com/goliatone/go-logger/glog"
)

const (
	LoggerModule      = "quality_hooks"
	LoggerWebhooks    = "quality_hooks.webhooks"
	LoggerPostTask    = "quality_hooks.posttask"
	LoggerIssueChange = "quality_hooks.issuechange"
	LoggerJobs        = "quality_hooks.jobs"
)

// Loggers holds one named logger per pipeline component.
type Loggers struct {
	Provider    glog.LoggerProvider
	Module      glog.Logger
	Webhooks    glog.Logger
	PostTask    glog.Logger
	IssueChange glog.Logger
	Jobs        glog.Logger
	JobProvider job.LoggerProvider
}

// Resolve uses deterministic precedence provider > logger > nop.
func Resolve(name string, provider glog.LoggerProvider, logger glog.Logger) (glog.LoggerProvider, glog.Logger) {
	return glog.Resolve(name, provider, logger)
}

// ResolveLoggers resolves the module logger and derives the component
// loggers from the same provider.
func ResolveLoggers(provider glog.LoggerProvider, logger glog.Logger) Loggers {
	resolvedProvider, resolvedLogger := Resolve(LoggerModule, provider, logger)
	named := func(name string) glog.Logger {
		if resolvedProvider == nil {
			return glog.Ensure(resolvedLogger)
		}
		return glog.Ensure(resolvedProvider.GetLogger(name))
	}
	return Loggers{
		Provider:    resolvedProvider,
		Module:      glog.Ensure(resolvedLogger),
		Webhooks:    named(LoggerWebhooks),
		PostTask:    named(LoggerPostTask),
		IssueChange: named(LoggerIssueChange),
		Jobs:        named(LoggerJobs),
		JobProvider: ToJobProvider(resolvedProvider),
	}
}

// ToJobProvider maps a glog provider to the go-job logger provider contract.
func ToJobProvider(provider glog.LoggerProvider) job.LoggerProvider {
	if provider == nil {
		return nil
	}
	return job.GoLoggerProvider(provider)
}

// ToJobLogger maps a glog logger to the go-job logger contract.
func ToJobLogger(logger glog.Logger) job.Logger {
	if logger == nil {
		return nil
	}
	return job.GoLogger(logger)
}
