package main

import (
	"fmt"
	"os"
	"strings"

	"go.jackforge.dev/compiler/internal/driver"

	"github.com/teris-io/cli"
)

var Description = strings.ReplaceAll(`
jackc compiles a Jack source file, or the top-level .jack files of a directory,
into Hack VM stack-machine code. The Jack language is a small, class-based,
Java-like language used across the Nand2Tetris curriculum; each compiled class
produces a sibling .vm file next to its source.
`, "\n", " ")

var Jackc = cli.New(Description).
	// 'AsOptional()' keeps the CLI layer permissive; the required-ness of a single
	// input is enforced by the handler below, same as the compiler this is adapted from.
	WithArg(cli.NewArg("input", "A .jack file, or a directory of .jack files").
		AsOptional().WithType(cli.TypeString)).
	WithAction(Handler)

func Handler(args []string, options map[string]string) int {
	if len(args) != 1 {
		fmt.Printf("ERROR: expected exactly one <input> argument, use --help\n")
		return -1
	}

	units, err := driver.Expand(args[0])
	if err != nil {
		fmt.Printf("ERROR: %s\n", err)
		return -1
	}
	if len(units) == 0 {
		fmt.Printf("ERROR: no .jack files found at %s\n", args[0])
		return -1
	}

	errs := driver.CompileBatch(units)
	for _, err := range errs {
		fmt.Printf("ERROR: %s\n", err)
	}
	if len(errs) > 0 {
		return -1
	}
	return 0
}

func main() { os.Exit(Jackc.Run(os.Args, os.Stdout)) }
