package driver_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.jackforge.dev/compiler/internal/driver"
)

func TestExpandSingleFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Main.jack")
	if err := os.WriteFile(path, []byte(`class Main {}`), 0o644); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	units, err := driver.Expand(path)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if len(units) != 1 || units[0] != path {
		t.Fatalf("expected [%s], got %v", path, units)
	}
}

func TestExpandRejectsNonJackFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Main.txt")
	if err := os.WriteFile(path, []byte(`not jack`), 0o644); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	if _, err := driver.Expand(path); err == nil {
		t.Fatalf("expected an error for a non-.jack file")
	}
}

func TestExpandDirectoryIsNotRecursive(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "nested")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	top := filepath.Join(dir, "Main.jack")
	nested := filepath.Join(sub, "Hidden.jack")
	if err := os.WriteFile(top, []byte(`class Main {}`), 0o644); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if err := os.WriteFile(nested, []byte(`class Hidden {}`), 0o644); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	units, err := driver.Expand(dir)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if len(units) != 1 || units[0] != top {
		t.Fatalf("expected only the top-level file, got %v", units)
	}
}

func TestCompileFileWritesVM(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "A.jack")
	src := `class A { function void f() { return; } }`
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	if err := driver.CompileFile(path); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	out, err := os.ReadFile(filepath.Join(dir, "A.vm"))
	if err != nil {
		t.Fatalf("expected a .vm sibling file: %s", err)
	}

	expected := "function A.f 0\npush constant 0\nreturn\n"
	if string(out) != expected {
		t.Fatalf("expected %q, got %q", expected, string(out))
	}
}

func TestCompileBatchContinuesOnError(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "Good.jack")
	bad := filepath.Join(dir, "Bad.jack")

	if err := os.WriteFile(good, []byte(`class Good { function void f() { return; } }`), 0o644); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if err := os.WriteFile(bad, []byte(`class Bad { function void f() { return`), 0o644); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	errs := driver.CompileBatch([]string{good, bad})
	if len(errs) != 1 {
		t.Fatalf("expected exactly 1 error, got %d: %v", len(errs), errs)
	}
	if !strings.Contains(errs[0].Error(), "Bad.jack") {
		t.Fatalf("expected the error to name the failing file, got %q", errs[0].Error())
	}

	if _, err := os.Stat(filepath.Join(dir, "Good.vm")); err != nil {
		t.Fatalf("expected Good.vm to be written despite Bad.jack failing: %s", err)
	}
}
