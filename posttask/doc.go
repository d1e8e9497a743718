// Package posttask runs the handlers registered to react to a finished
// analysis, each isolated from the failures of the others.
package posttask
