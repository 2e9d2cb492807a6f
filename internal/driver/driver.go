package driver

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.jackforge.dev/compiler/internal/jack"
	"go.jackforge.dev/compiler/internal/vm"
)

// Expand resolves the single positional CLI argument to the list of '.jack' files
// to compile. A file path is returned as-is (after an extension check); a directory
// contributes only its top-level '.jack' entries — subdirectories are not recursed
// into, unlike a generic file-tree walk.
func Expand(input string) ([]string, error) {
	info, err := os.Stat(input)
	if err != nil {
		return nil, fmt.Errorf("unable to stat input path: %w", err)
	}

	if !info.IsDir() {
		if filepath.Ext(input) != ".jack" {
			return nil, fmt.Errorf("%s is not a .jack file", input)
		}
		return []string{input}, nil
	}

	entries, err := os.ReadDir(input)
	if err != nil {
		return nil, fmt.Errorf("unable to read directory: %w", err)
	}

	var units []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".jack" {
			continue // subdirectories and non-Jack files are ignored, not recursed
		}
		units = append(units, filepath.Join(input, entry.Name()))
	}
	return units, nil
}

// CompileFile compiles a single translation unit end to end: tokenize, compile,
// generate VM text, write the sibling '.vm' file. Each call gets a brand new
// tokenizer/symbol table/writer; no state survives across files.
func CompileFile(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return (&jack.CompileError{Kind: jack.IOErrorKind, Detail: err.Error()}).WithFile(path)
	}

	tok, err := jack.NewTokenizer(strings.NewReader(string(content)))
	if err != nil {
		return attachFile(err, path)
	}

	module, err := jack.NewCompiler(tok).CompileClass()
	if err != nil {
		return attachFile(err, path)
	}

	lines, err := vm.Render(module)
	if err != nil {
		return attachFile(err, path)
	}

	outPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".vm"
	out, err := os.Create(outPath)
	if err != nil {
		return (&jack.CompileError{Kind: jack.IOErrorKind, Detail: err.Error()}).WithFile(path)
	}
	defer out.Close()

	for _, line := range lines {
		if _, err := fmt.Fprintf(out, "%s\n", line); err != nil {
			return (&jack.CompileError{Kind: jack.IOErrorKind, Detail: err.Error()}).WithFile(path)
		}
	}
	return nil
}

// CompileBatch compiles every unit independently. It does not stop at the first
// failure: every translation unit that can be compiled is, and every error is
// collected and reported before the caller decides the process exit code.
func CompileBatch(units []string) []error {
	var errs []error
	for _, unit := range units {
		if err := CompileFile(unit); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

func attachFile(err error, path string) error {
	if ce, ok := err.(*jack.CompileError); ok {
		return ce.WithFile(path)
	}
	return err
}
