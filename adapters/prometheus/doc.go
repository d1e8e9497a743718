// Package prometheus adapts core.MetricsRecorder to prometheus collectors.
package prometheus
