/*
Availc compiles Avail-style modules: splitting message names, expanding
their bundle tree, and running a module's outermost statements one at a
time against a committed runtime.

Usage:

	availc <command> [flags]

The commands are:

	compile   Compile one module and write its serialized byte stream.
	check     Compile a module without writing output; report errors only.
	repl      Compile top-level statements one at a time, interactively.
	serve     Run the diagnostics HTTP server.
	watch     Recompile a module whenever its source or dependencies change.
*/
package main

import (
	"fmt"
	"os"

	"github.com/dekarrin/avail/internal/version"
)

const (
	ExitSuccess = iota
	ExitUsageError
	ExitCompileError
	ExitInitError
)

var returnCode = ExitSuccess

func main() {
	defer func() {
		if panicErr := recover(); panicErr != nil {
			panic(fmt.Sprintf("unrecoverable panic occurred: %v", panicErr))
		} else {
			os.Exit(returnCode)
		}
	}()

	if len(os.Args) < 2 {
		printUsage()
		returnCode = ExitUsageError
		return
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "compile":
		err = runCompile(args)
	case "check":
		err = runCheck(args)
	case "repl":
		err = runRepl(args)
	case "serve":
		err = runServe(args)
	case "watch":
		err = runWatch(args)
	case "-v", "--version", "version":
		fmt.Printf("availc %s\n", version.Current)
		return
	default:
		fmt.Fprintf(os.Stderr, "ERROR: unknown command %q\n", cmd)
		printUsage()
		returnCode = ExitUsageError
		return
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		returnCode = ExitCompileError
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "Usage: availc <compile|check|repl|serve|watch> [flags]")
}
