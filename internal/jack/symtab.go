package jack

import "go.jackforge.dev/compiler/internal/vm"

// Kind enumerates the four identifier kinds Jack recognizes; each maps to exactly
// one VM memory segment.
type Kind int

const (
	StaticKind Kind = iota
	FieldKind
	ArgumentKind
	LocalKind
)

// Segment returns the VM memory segment backing identifiers of this kind.
func (k Kind) Segment() vm.SegmentType {
	switch k {
	case StaticKind:
		return vm.Static
	case FieldKind:
		return vm.This
	case ArgumentKind:
		return vm.Argument
	case LocalKind:
		return vm.Local
	default:
		panic("unreachable kind")
	}
}

func (k Kind) String() string {
	switch k {
	case StaticKind:
		return "static"
	case FieldKind:
		return "field"
	case ArgumentKind:
		return "argument"
	case LocalKind:
		return "local"
	default:
		return "unknown"
	}
}

// symbol is an immutable record of one declared identifier: its declared type,
// its kind and its dense, zero-based index within (scope, kind).
type symbol struct {
	varType string
	kind    Kind
	index   int
}

// SymbolTable scopes identifiers in two layers: class scope, which persists for
// the whole class, and subroutine scope, which is wiped at the start of every
// subroutine. Lookups try subroutine scope first, falling back to class scope.
type SymbolTable struct {
	class      map[string]symbol
	subroutine map[string]symbol

	nStatic, nField int // class-scope running counters
	nArg, nLocal    int // subroutine-scope running counters
}

// NewSymbolTable returns an empty table, ready for a new class.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		class:      map[string]symbol{},
		subroutine: map[string]symbol{},
	}
}

// StartSubroutine wipes subroutine scope and its counters; class scope is untouched.
func (s *SymbolTable) StartSubroutine() {
	s.subroutine = map[string]symbol{}
	s.nArg, s.nLocal = 0, 0
}

// Define registers 'name' with the given type and kind, assigning it the next free
// index for that kind in the appropriate scope. Redefining a name already bound in
// the same scope is a resolution error.
func (s *SymbolTable) Define(name, varType string, kind Kind) error {
	scope := s.scopeFor(kind)
	if _, exists := scope[name]; exists {
		return newResolutionError(0, "%q is already declared in this scope", name)
	}

	index := s.nextIndex(kind)
	scope[name] = symbol{varType: varType, kind: kind, index: index}
	s.bump(kind)
	return nil
}

// VarCount returns how many identifiers of 'kind' are currently defined in the
// scope that kind lives in (class scope for Static/Field, subroutine scope for
// Argument/Local).
func (s *SymbolTable) VarCount(kind Kind) int {
	switch kind {
	case StaticKind:
		return s.nStatic
	case FieldKind:
		return s.nField
	case ArgumentKind:
		return s.nArg
	case LocalKind:
		return s.nLocal
	default:
		return 0
	}
}

// KindOf, TypeOf and IndexOf resolve 'name' against subroutine scope first, then
// class scope. The boolean result is false when the name is unbound in either
// scope, which callers use to tell a variable reference from a bare class name.
func (s *SymbolTable) KindOf(name string) (Kind, bool) {
	sym, ok := s.lookup(name)
	return sym.kind, ok
}

func (s *SymbolTable) TypeOf(name string) (string, bool) {
	sym, ok := s.lookup(name)
	return sym.varType, ok
}

func (s *SymbolTable) IndexOf(name string) (int, bool) {
	sym, ok := s.lookup(name)
	return sym.index, ok
}

func (s *SymbolTable) lookup(name string) (symbol, bool) {
	if sym, ok := s.subroutine[name]; ok {
		return sym, true
	}
	if sym, ok := s.class[name]; ok {
		return sym, true
	}
	return symbol{}, false
}

func (s *SymbolTable) scopeFor(kind Kind) map[string]symbol {
	switch kind {
	case StaticKind, FieldKind:
		return s.class
	default:
		return s.subroutine
	}
}

func (s *SymbolTable) nextIndex(kind Kind) int {
	return s.VarCount(kind)
}

func (s *SymbolTable) bump(kind Kind) {
	switch kind {
	case StaticKind:
		s.nStatic++
	case FieldKind:
		s.nField++
	case ArgumentKind:
		s.nArg++
	case LocalKind:
		s.nLocal++
	}
}
