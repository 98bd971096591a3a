// Package app defines common runtime contracts shared by the executable
// entrypoints (API server, sync daemon, migration runner).
package app

// Runner represents a runnable application component.
type Runner interface {
	Run() error
}
