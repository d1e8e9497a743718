// Package gojob queues and runs delivery maintenance jobs on go-job.
package gojob
