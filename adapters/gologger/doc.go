// Package gologger resolves the named go-logger loggers of the module and
// bridges them to go-job.
package gologger
