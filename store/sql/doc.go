// Package sqlstore implements the delivery history, settings and analysis
// lookups on bun, for postgres and sqlite.
package sqlstore
