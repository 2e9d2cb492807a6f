package jack

import "fmt"

// ErrorKind classifies a compile-time failure into one of the four buckets the
// compiler can produce. The outer driver uses it only for reporting; the engine
// treats every kind the same way (fatal to the current translation unit).
type ErrorKind string

const (
	LexErrorKind        ErrorKind = "lex"
	ParseErrorKind      ErrorKind = "parse"
	ResolutionErrorKind ErrorKind = "resolution"
	IOErrorKind         ErrorKind = "io"
)

// CompileError is the single error shape surfaced by the tokenizer, symbol table
// and compilation engine. 'File' is filled in by the driver once the error leaves
// a single translation unit; it is empty while still inside the engine.
type CompileError struct {
	File   string
	Line   int
	Kind   ErrorKind
	Detail string
}

func (e *CompileError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("line %d: %s error: %s", e.Line, e.Kind, e.Detail)
	}
	return fmt.Sprintf("%s:%d: %s error: %s", e.File, e.Line, e.Kind, e.Detail)
}

// WithFile returns a copy of the error with 'file' attached, used by the driver
// once it knows which translation unit produced the failure.
func (e *CompileError) WithFile(file string) *CompileError {
	cp := *e
	cp.File = file
	return &cp
}

func newLexError(line int, format string, args ...interface{}) *CompileError {
	return &CompileError{Line: line, Kind: LexErrorKind, Detail: fmt.Sprintf(format, args...)}
}

func newParseError(line int, format string, args ...interface{}) *CompileError {
	return &CompileError{Line: line, Kind: ParseErrorKind, Detail: fmt.Sprintf(format, args...)}
}

func newResolutionError(line int, format string, args ...interface{}) *CompileError {
	return &CompileError{Line: line, Kind: ResolutionErrorKind, Detail: fmt.Sprintf(format, args...)}
}
