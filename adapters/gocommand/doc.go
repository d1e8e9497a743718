// Package gocommand registers quality hooks commands and queries with
// go-command registries and dispatchers.
package gocommand
