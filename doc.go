// Package qualityhooks wires the webhook delivery pipeline of finished
// analyses and issue changes on short-lived branches.
//
// NewModule resolves configuration, builds the bun backed stores and returns
// a Module exposing the post analysis executor, the issue change notifier
// and go-command handlers for both triggers and the delivery history.
package qualityhooks
