// Package webhooks builds analysis payloads, resolves configured endpoints
// from settings and delivers them.
//
// A dispatch batch is: load endpoints, build the payload once, call each
// endpoint, persist each delivery, then purge the project history.
package webhooks
