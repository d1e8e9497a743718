package core

import (
	"context"
	"sync"
	"testing"
)

type capturedLog struct {
	level  string
	msg    string
	fields map[string]any
}

type captureLogger struct {
	mu       *sync.Mutex
	records  *[]capturedLog
	defaults map[string]any
}

func newCaptureLogger() *captureLogger {
	records := []capturedLog{}
	return &captureLogger{mu: &sync.Mutex{}, records: &records, defaults: map[string]any{}}
}

func (l *captureLogger) WithFields(fields map[string]any) Logger {
	merged := cloneFields(l.defaults)
	for key, value := range fields {
		merged[key] = value
	}
	return &captureLogger{mu: l.mu, records: l.records, defaults: merged}
}

func (l *captureLogger) Trace(msg string, args ...any) { l.record("trace", msg, args...) }
func (l *captureLogger) Debug(msg string, args ...any) { l.record("debug", msg, args...) }
func (l *captureLogger) Info(msg string, args ...any)  { l.record("info", msg, args...) }
func (l *captureLogger) Warn(msg string, args ...any)  { l.record("warn", msg, args...) }
func (l *captureLogger) Error(msg string, args ...any) { l.record("error", msg, args...) }
func (l *captureLogger) Fatal(msg string, args ...any) { l.record("fatal", msg, args...) }

func (l *captureLogger) WithContext(context.Context) Logger {
	return &captureLogger{mu: l.mu, records: l.records, defaults: cloneFields(l.defaults)}
}

func (l *captureLogger) record(level string, msg string, args ...any) {
	fields := cloneFields(l.defaults)
	for index := 0; index+1 < len(args); index += 2 {
		key, ok := args[index].(string)
		if !ok {
			continue
		}
		fields[key] = args[index+1]
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	*l.records = append(*l.records, capturedLog{level: level, msg: msg, fields: fields})
}

func (l *captureLogger) snapshot() []capturedLog {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]capturedLog, len(*l.records))
	copy(out, *l.records)
	return out
}

// plainLogger has no WithFields, so LogFields must pass key/value args.
type plainLogger struct {
	args []any
	msg  string
}

func (l *plainLogger) Trace(string, ...any) {}
func (l *plainLogger) Debug(string, ...any) {}
func (l *plainLogger) Info(string, ...any)  {}
func (l *plainLogger) Error(string, ...any) {}
func (l *plainLogger) Fatal(string, ...any) {}

func (l *plainLogger) Warn(msg string, args ...any) {
	l.msg = msg
	l.args = append([]any(nil), args...)
}

func (l *plainLogger) WithContext(context.Context) Logger {
	return l
}

func TestLogFields_UsesLevelAndFields(t *testing.T) {
	logger := newCaptureLogger()
	LogFields(context.Background(), logger, LogLevelDebug, "Sent webhook", map[string]any{
		"webhook": "ci",
		"status":  200,
	})
	LogFields(context.Background(), logger, "", "defaulted", nil)
	LogFields(context.Background(), logger, " ERROR ", "failed", nil)

	records := logger.snapshot()
	if len(records) != 3 {
		t.Fatalf("expected three records, got %d", len(records))
	}
	if records[0].level != "debug" || records[0].fields["webhook"] != "ci" || records[0].fields["status"] != 200 {
		t.Fatalf("unexpected debug record %#v", records[0])
	}
	if records[1].level != "info" {
		t.Fatalf("expected info default level, got %q", records[1].level)
	}
	if records[2].level != "error" {
		t.Fatalf("expected normalized error level, got %q", records[2].level)
	}
}

func TestLogFields_SortsArgsForPlainLoggers(t *testing.T) {
	logger := &plainLogger{}
	LogFields(context.Background(), logger, LogLevelWarn, "Skipping webhooks", map[string]any{
		"project": "p1",
		"branch":  "feature",
	})
	if logger.msg != "Skipping webhooks" {
		t.Fatalf("unexpected message %q", logger.msg)
	}
	want := []any{"branch", "feature", "project", "p1"}
	if len(logger.args) != len(want) {
		t.Fatalf("unexpected args %#v", logger.args)
	}
	for i := range want {
		if logger.args[i] != want[i] {
			t.Fatalf("expected sorted args %#v, got %#v", want, logger.args)
		}
	}
}

func TestLogFields_NilLoggerIsNoop(t *testing.T) {
	LogFields(context.Background(), nil, LogLevelInfo, "ignored", map[string]any{"k": "v"})
}

func TestCloneTags(t *testing.T) {
	tags := map[string]string{"status": "success"}
	cloned := CloneTags(tags)
	cloned["status"] = "failure"
	if tags["status"] != "success" {
		t.Fatalf("expected tags copy")
	}
	if got := CloneTags(nil); got == nil {
		t.Fatalf("expected non-nil empty tags")
	}
	NopMetricsRecorder{}.IncCounter(context.Background(), MetricDeliveriesTotal, 1, nil)
}
