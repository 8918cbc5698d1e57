// Package main hosts the subforge CLI entrypoint and command graph.
//
// The Cobra-based command tree resolves configuration, sets up structured
// logging, and drives the subtitle pipeline: library runs, single-file
// inspection, dependency checks, and configuration scaffolding. The heavy
// lifting lives in the internal packages; commands stay declarative.
package main
