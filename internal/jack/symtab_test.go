package jack_test

import (
	"testing"

	"go.jackforge.dev/compiler/internal/jack"
)

func TestSymbolTableClassScope(t *testing.T) {
	st := jack.NewSymbolTable()

	if err := st.Define("x", "int", jack.FieldKind); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if err := st.Define("y", "int", jack.FieldKind); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if err := st.Define("count", "int", jack.StaticKind); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	if idx, ok := st.IndexOf("x"); !ok || idx != 0 {
		t.Fatalf("expected x at index 0, got %d (%v)", idx, ok)
	}
	if idx, ok := st.IndexOf("y"); !ok || idx != 1 {
		t.Fatalf("expected y at index 1, got %d (%v)", idx, ok)
	}
	if st.VarCount(jack.FieldKind) != 2 {
		t.Fatalf("expected 2 fields, got %d", st.VarCount(jack.FieldKind))
	}
	if st.VarCount(jack.StaticKind) != 1 {
		t.Fatalf("expected 1 static, got %d", st.VarCount(jack.StaticKind))
	}
}

func TestSymbolTableSubroutineScopeResets(t *testing.T) {
	st := jack.NewSymbolTable()
	_ = st.Define("field1", "int", jack.FieldKind)

	st.StartSubroutine()
	_ = st.Define("a", "int", jack.ArgumentKind)
	_ = st.Define("b", "int", jack.ArgumentKind)
	_ = st.Define("total", "int", jack.LocalKind)

	if st.VarCount(jack.ArgumentKind) != 2 {
		t.Fatalf("expected 2 arguments, got %d", st.VarCount(jack.ArgumentKind))
	}
	if st.VarCount(jack.LocalKind) != 1 {
		t.Fatalf("expected 1 local, got %d", st.VarCount(jack.LocalKind))
	}

	st.StartSubroutine()
	if st.VarCount(jack.ArgumentKind) != 0 || st.VarCount(jack.LocalKind) != 0 {
		t.Fatalf("expected subroutine scope to reset, got args=%d locals=%d",
			st.VarCount(jack.ArgumentKind), st.VarCount(jack.LocalKind))
	}
	// Class scope survives subroutine resets
	if st.VarCount(jack.FieldKind) != 1 {
		t.Fatalf("expected field scope to persist, got %d", st.VarCount(jack.FieldKind))
	}
}

func TestSymbolTableShadowing(t *testing.T) {
	st := jack.NewSymbolTable()
	_ = st.Define("x", "int", jack.FieldKind)

	st.StartSubroutine()
	_ = st.Define("x", "boolean", jack.ArgumentKind)

	kind, ok := st.KindOf("x")
	if !ok || kind != jack.ArgumentKind {
		t.Fatalf("expected subroutine-scope shadow to win, got kind=%v ok=%v", kind, ok)
	}
	typ, _ := st.TypeOf("x")
	if typ != "boolean" {
		t.Fatalf("expected shadowed type 'boolean', got %q", typ)
	}
}

func TestSymbolTableRedefinitionError(t *testing.T) {
	st := jack.NewSymbolTable()
	if err := st.Define("x", "int", jack.FieldKind); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if err := st.Define("x", "int", jack.FieldKind); err == nil {
		t.Fatalf("expected a redefinition error")
	}
}

func TestSymbolTableUnresolvedName(t *testing.T) {
	st := jack.NewSymbolTable()
	if _, ok := st.KindOf("nonexistent"); ok {
		t.Fatalf("expected 'nonexistent' to be unresolved")
	}
}

func TestKindSegmentMapping(t *testing.T) {
	cases := map[jack.Kind]string{
		jack.StaticKind:   "static",
		jack.FieldKind:    "this",
		jack.ArgumentKind: "argument",
		jack.LocalKind:    "local",
	}
	for kind, want := range cases {
		if got := string(kind.Segment()); got != want {
			t.Fatalf("kind %v: expected segment %q, got %q", kind, want, got)
		}
	}
}
