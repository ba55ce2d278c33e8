// Package main hosts the clipforge CLI entrypoint and command graph.
//
// The Cobra-based command tree maps terminal invocations onto engine
// operations: probing, the media operation catalogue, chapter editing, job
// history maintenance, and configuration scaffolding. It centralizes
// configuration resolution and logging setup so subcommands can focus on
// flag handling.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
