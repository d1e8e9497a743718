// Package command exposes the webhook triggers and delivery maintenance as
// go-command messages and handlers.
package command
