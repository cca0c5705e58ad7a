// Package version contains information on the current version of the
// compiler. It is split from the main program for easy use.
package version

// Current is the string availc reports to --version and declares as its
// own compiler version when evaluating a module's Versions clause (§4.8).
const Current = "0.1.0"
