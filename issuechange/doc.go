// Package issuechange notifies webhooks when issues of a short-lived branch
// change type or are transitioned by a user.
package issuechange
