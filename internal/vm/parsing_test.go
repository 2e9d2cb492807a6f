package vm_test

import (
	"strings"
	"testing"

	"go.jackforge.dev/compiler/internal/vm"
)

// TestRoundTrip checks that every line form the VM writer can produce is re-parseable
// back into the same 'vm.Operation' value. This is the property the bundled parser
// exists for: the writer never emits a line shape the parser can't understand.
func TestRoundTrip(t *testing.T) {
	module := vm.Module{
		vm.MemoryOp{Operation: vm.Push, Segment: vm.Constant, Offset: 7},
		vm.MemoryOp{Operation: vm.Pop, Segment: vm.Local, Offset: 2},
		vm.ArithmeticOp{Operation: vm.Add},
		vm.LabelDecl{Name: "WHILE_EXP0"},
		vm.GotoOp{Jump: vm.Conditional, Label: "IF_TRUE0"},
		vm.GotoOp{Jump: vm.Unconditional, Label: "IF_END0"},
		vm.FuncDecl{Name: "Main.main", NLocal: 1},
		vm.FuncCallOp{Name: "Math.multiply", NArgs: 2},
		vm.ReturnOp{},
	}

	lines, err := vm.Render(module)
	if err != nil {
		t.Fatalf("unexpected render error: %s", err)
	}

	parser := vm.NewParser(strings.NewReader(strings.Join(lines, "\n") + "\n"))
	parsed, err := parser.Parse()
	if err != nil {
		t.Fatalf("unexpected parse error: %s", err)
	}

	if len(parsed) != len(module) {
		t.Fatalf("expected %d operations, got %d", len(module), len(parsed))
	}
	for i := range module {
		if parsed[i] != module[i] {
			t.Fatalf("operation %d: expected %#v, got %#v", i, module[i], parsed[i])
		}
	}
}
