package jack

import "go.jackforge.dev/compiler/internal/vm"

// VMWriter accumulates the 'vm.Operation' sequence the compilation engine produces
// for one class. It is a thin, stateless-per-call formatter: every method appends
// exactly one operation, mirroring the VM instruction it represents.
type VMWriter struct {
	module vm.Module
}

// NewVMWriter returns a writer with an empty module, ready to be fed by the engine.
func NewVMWriter() *VMWriter {
	return &VMWriter{module: vm.Module{}}
}

func (w *VMWriter) WritePush(segment vm.SegmentType, index int) {
	w.module = append(w.module, vm.MemoryOp{Operation: vm.Push, Segment: segment, Offset: uint16(index)})
}

func (w *VMWriter) WritePop(segment vm.SegmentType, index int) {
	w.module = append(w.module, vm.MemoryOp{Operation: vm.Pop, Segment: segment, Offset: uint16(index)})
}

func (w *VMWriter) WriteArithmetic(op vm.ArithOpType) {
	w.module = append(w.module, vm.ArithmeticOp{Operation: op})
}

func (w *VMWriter) WriteLabel(name string) {
	w.module = append(w.module, vm.LabelDecl{Name: name})
}

func (w *VMWriter) WriteGoto(label string) {
	w.module = append(w.module, vm.GotoOp{Jump: vm.Unconditional, Label: label})
}

func (w *VMWriter) WriteIf(label string) {
	w.module = append(w.module, vm.GotoOp{Jump: vm.Conditional, Label: label})
}

func (w *VMWriter) WriteCall(name string, nArgs int) {
	w.module = append(w.module, vm.FuncCallOp{Name: name, NArgs: nArgs})
}

func (w *VMWriter) WriteFunction(name string, nLocals int) {
	w.module = append(w.module, vm.FuncDecl{Name: name, NLocal: nLocals})
}

func (w *VMWriter) WriteReturn() {
	w.module = append(w.module, vm.ReturnOp{})
}

// Module returns the accumulated operations, in emission order.
func (w *VMWriter) Module() vm.Module {
	return w.module
}
