// Package main is the entry point of the bootstrap command line tool.
package main

import (
	"bootstrap/cmd"
)

func main() {
	cmd.Execute()
}
