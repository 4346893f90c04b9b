// Package main is the entry point for the objindent CLI.
package main

import "objindent.dev/pkg/objindent/cmd"

func main() {
	cmd.Execute()
}
