// Package transport performs outbound HTTP calls for webhook delivery.
package transport
