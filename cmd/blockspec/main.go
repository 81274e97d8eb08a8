// blockspec is a CLI tool for block metadata validation, conversion and
// browsing.
package main

import (
	"fmt"
	"os"

	"github.com/nio-blocks/blockspec/cmd/blockspec/commands"
)

const (
	exitSuccess      = 0
	exitCommandError = 1
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(exitCommandError)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var exitCode int
	switch cmd {
	case "validate":
		exitCode = commands.RunValidate(args, os.Stdout, os.Stderr)
	case "show":
		exitCode = commands.RunShow(args, os.Stdout, os.Stderr)
	case "convert":
		exitCode = commands.RunConvert(args, os.Stdout, os.Stderr)
	case "docs":
		exitCode = commands.RunDocs(args, os.Stdout, os.Stderr)
	case "gen":
		exitCode = commands.RunGen(args, os.Stdout, os.Stderr)
	case "load":
		exitCode = commands.RunLoad(args, os.Stdout, os.Stderr)
	case "events":
		exitCode = commands.RunEvents(args, os.Stdout, os.Stderr)
	case "i2c":
		exitCode = commands.RunI2C(args, os.Stdout, os.Stderr)
	case "shell":
		exitCode = commands.RunShell(args, os.Stdout, os.Stderr)
	case "help", "-h", "--help":
		printUsage()
		exitCode = exitSuccess
	case "version", "-v", "--version":
		fmt.Printf("blockspec version %s\n", commands.Version)
		exitCode = exitSuccess
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		printUsage()
		exitCode = exitCommandError
	}

	os.Exit(exitCode)
}

func printUsage() {
	fmt.Println(`blockspec - block metadata validation and tooling

Usage:
  blockspec <command> [options] [files...]

Commands:
  validate   Check metadata documents for required keys and types
  show       Display the blocks of a metadata document
  convert    Convert a metadata document to JSON, YAML or CBOR
  docs       Render Markdown reference pages for blocks
  gen        Generate Go constants for block properties
  load       Load a catalog directory and print the load report
  events     Read a catalog event log
  i2c        Resolve I2C base block property values
  shell      Browse a block catalog interactively

Options:
  -h, --help     Show this help message
  -v, --version  Show version information

Environment:
  BLOCKSPEC_DIR  Default catalog directory for load and shell

Examples:
  blockspec validate blocks/*/spec.json
  blockspec show -format yaml spec.json nio/I2CBase
  blockspec convert -to yaml -o spec.yaml spec.json
  blockspec i2c platform=raspberry_pi I2C_address=0x40

For command-specific help, run:
  blockspec <command> --help`)
}
