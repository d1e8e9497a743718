// Package query exposes delivery history as go-command queries.
package query
