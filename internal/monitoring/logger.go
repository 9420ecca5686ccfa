// Package monitoring routes diagnostics from the observer, the trace store and
// the command-line host through one replaceable print function.
package monitoring

import "log"

// Logf receives every diagnostic line. Hosts embedding the library swap it
// with SetLogger; it starts out as log.Printf.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger installs f as Logf. A nil f discards all output.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		f = func(string, ...interface{}) {}
	}
	Logf = f
}

// Component tags diagnostics with a "[name] " prefix. It looks Logf up on
// every call, so SetLogger also affects loggers created earlier.
type Component string

// Printf logs through Logf with the component prefix.
func (c Component) Printf(format string, v ...interface{}) {
	Logf("["+string(c)+"] "+format, v...)
}
