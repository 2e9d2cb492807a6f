package jack

import (
	"fmt"

	"go.jackforge.dev/compiler/internal/vm"
)

// Compiler is a hand-written recursive-descent parser over the Jack grammar that
// emits VM code as it goes: there is no intermediate AST, every production both
// consumes tokens and drives the symbol table and VM writer in lockstep. This
// mirrors the streaming architecture Jack's LL(1) grammar was designed for.
type Compiler struct {
	tok *Tokenizer
	sym *SymbolTable
	w   *VMWriter

	className string

	// Per-subroutine label counters; reset every time a new subroutine starts.
	ifCounter    int
	whileCounter int
}

// NewCompiler builds a fresh engine over 'tok'. One Compiler compiles exactly one
// class/file; all of its state (symbol table, label counters, writer) is scoped
// to that single translation unit.
func NewCompiler(tok *Tokenizer) *Compiler {
	return &Compiler{tok: tok, sym: NewSymbolTable(), w: NewVMWriter()}
}

// CompileClass parses a whole 'class ... { ... }' declaration and returns the VM
// operations emitted for it.
func (c *Compiler) CompileClass() (vm.Module, error) {
	if _, err := c.expectKeyword("class"); err != nil {
		return nil, err
	}
	name, err := c.expectIdentifier()
	if err != nil {
		return nil, err
	}
	c.className = name

	if err := c.expectSymbol("{"); err != nil {
		return nil, err
	}
	for c.isKeyword("static", "field") {
		if err := c.compileClassVarDec(); err != nil {
			return nil, err
		}
	}
	for c.isKeyword("constructor", "function", "method") {
		if err := c.compileSubroutineDec(); err != nil {
			return nil, err
		}
	}
	if err := c.expectSymbol("}"); err != nil {
		return nil, err
	}

	return c.w.Module(), nil
}

func (c *Compiler) compileClassVarDec() error {
	kindKw, err := c.expectKeyword("static", "field")
	if err != nil {
		return err
	}
	kind := FieldKind
	if kindKw == "static" {
		kind = StaticKind
	}

	varType, err := c.compileType()
	if err != nil {
		return err
	}

	for {
		name, err := c.expectIdentifier()
		if err != nil {
			return err
		}
		if err := c.sym.Define(name, varType, kind); err != nil {
			return c.locate(err)
		}
		if !c.isSymbol(",") {
			break
		}
		c.advance()
	}

	return c.expectSymbol(";")
}

func (c *Compiler) compileSubroutineDec() error {
	subKind, err := c.expectKeyword("constructor", "function", "method")
	if err != nil {
		return err
	}

	if c.isKeyword("void") {
		c.advance()
	} else if _, err := c.compileType(); err != nil {
		return err
	}

	name, err := c.expectIdentifier()
	if err != nil {
		return err
	}

	c.sym.StartSubroutine()
	c.ifCounter, c.whileCounter = 0, 0

	if subKind == "method" {
		if err := c.sym.Define("this", c.className, ArgumentKind); err != nil {
			return c.locate(err)
		}
	}

	if err := c.expectSymbol("("); err != nil {
		return err
	}
	if err := c.compileParameterList(); err != nil {
		return err
	}
	if err := c.expectSymbol(")"); err != nil {
		return err
	}

	if err := c.expectSymbol("{"); err != nil {
		return err
	}
	for c.isKeyword("var") {
		if err := c.compileVarDec(); err != nil {
			return err
		}
	}

	// Only now do we know how many locals the subroutine needs.
	c.w.WriteFunction(c.className+"."+name, c.sym.VarCount(LocalKind))

	switch subKind {
	case "method":
		c.w.WritePush(vm.Argument, 0)
		c.w.WritePop(vm.Pointer, 0)
	case "constructor":
		c.w.WritePush(vm.Constant, c.sym.VarCount(FieldKind))
		c.w.WriteCall("Memory.alloc", 1)
		c.w.WritePop(vm.Pointer, 0)
	}

	if err := c.compileStatements(); err != nil {
		return err
	}
	return c.expectSymbol("}")
}

func (c *Compiler) compileParameterList() error {
	if c.isSymbol(")") {
		return nil
	}
	for {
		varType, err := c.compileType()
		if err != nil {
			return err
		}
		name, err := c.expectIdentifier()
		if err != nil {
			return err
		}
		if err := c.sym.Define(name, varType, ArgumentKind); err != nil {
			return c.locate(err)
		}
		if !c.isSymbol(",") {
			return nil
		}
		c.advance()
	}
}

func (c *Compiler) compileVarDec() error {
	if _, err := c.expectKeyword("var"); err != nil {
		return err
	}
	varType, err := c.compileType()
	if err != nil {
		return err
	}
	for {
		name, err := c.expectIdentifier()
		if err != nil {
			return err
		}
		if err := c.sym.Define(name, varType, LocalKind); err != nil {
			return c.locate(err)
		}
		if !c.isSymbol(",") {
			break
		}
		c.advance()
	}
	return c.expectSymbol(";")
}

func (c *Compiler) compileType() (string, error) {
	if c.isKeyword("int", "char", "boolean") {
		t := c.cur().Lexeme
		c.advance()
		return t, nil
	}
	if c.atEnd() || c.cur().Kind != Identifier {
		return "", c.parseErrorf("expected a type, found %s", c.describeCurrent())
	}
	t := c.cur().Lexeme
	c.advance()
	return t, nil
}

func (c *Compiler) compileStatements() error {
	for {
		switch {
		case c.isKeyword("let"):
			if err := c.compileLet(); err != nil {
				return err
			}
		case c.isKeyword("if"):
			if err := c.compileIf(); err != nil {
				return err
			}
		case c.isKeyword("while"):
			if err := c.compileWhile(); err != nil {
				return err
			}
		case c.isKeyword("do"):
			if err := c.compileDo(); err != nil {
				return err
			}
		case c.isKeyword("return"):
			if err := c.compileReturn(); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

func (c *Compiler) compileLet() error {
	if _, err := c.expectKeyword("let"); err != nil {
		return err
	}
	name, err := c.expectIdentifier()
	if err != nil {
		return err
	}

	if c.isSymbol("[") {
		c.advance()
		if err := c.pushVar(name); err != nil {
			return err
		}
		if err := c.compileExpression(); err != nil {
			return err
		}
		c.w.WriteArithmetic(vm.Add)
		if err := c.expectSymbol("]"); err != nil {
			return err
		}
		if err := c.expectSymbol("="); err != nil {
			return err
		}
		if err := c.compileExpression(); err != nil {
			return err
		}
		if err := c.expectSymbol(";"); err != nil {
			return err
		}
		// Stage the destination address in temp 0: the RHS may itself have
		// clobbered 'that', so pointer 1 can only be set after it's evaluated.
		c.w.WritePop(vm.Temp, 0)
		c.w.WritePop(vm.Pointer, 1)
		c.w.WritePush(vm.Temp, 0)
		c.w.WritePop(vm.That, 0)
		return nil
	}

	if err := c.expectSymbol("="); err != nil {
		return err
	}
	if err := c.compileExpression(); err != nil {
		return err
	}
	if err := c.expectSymbol(";"); err != nil {
		return err
	}

	kind, ok := c.sym.KindOf(name)
	if !ok {
		return c.resolutionErrorf("undefined variable %q", name)
	}
	idx, _ := c.sym.IndexOf(name)
	c.w.WritePop(kind.Segment(), idx)
	return nil
}

func (c *Compiler) compileIf() error {
	if _, err := c.expectKeyword("if"); err != nil {
		return err
	}
	if err := c.expectSymbol("("); err != nil {
		return err
	}
	if err := c.compileExpression(); err != nil {
		return err
	}
	if err := c.expectSymbol(")"); err != nil {
		return err
	}

	k := c.ifCounter
	c.ifCounter++
	trueLabel := fmt.Sprintf("IF_TRUE%d", k)
	falseLabel := fmt.Sprintf("IF_FALSE%d", k)
	endLabel := fmt.Sprintf("IF_END%d", k)

	c.w.WriteIf(trueLabel)
	c.w.WriteGoto(falseLabel)
	c.w.WriteLabel(trueLabel)

	if err := c.expectSymbol("{"); err != nil {
		return err
	}
	if err := c.compileStatements(); err != nil {
		return err
	}
	if err := c.expectSymbol("}"); err != nil {
		return err
	}

	if c.isKeyword("else") {
		c.advance()
		c.w.WriteGoto(endLabel)
		c.w.WriteLabel(falseLabel)
		if err := c.expectSymbol("{"); err != nil {
			return err
		}
		if err := c.compileStatements(); err != nil {
			return err
		}
		if err := c.expectSymbol("}"); err != nil {
			return err
		}
		c.w.WriteLabel(endLabel)
		return nil
	}

	c.w.WriteLabel(falseLabel)
	return nil
}

func (c *Compiler) compileWhile() error {
	if _, err := c.expectKeyword("while"); err != nil {
		return err
	}

	k := c.whileCounter
	c.whileCounter++
	expLabel := fmt.Sprintf("WHILE_EXP%d", k)
	endLabel := fmt.Sprintf("WHILE_END%d", k)

	c.w.WriteLabel(expLabel)

	if err := c.expectSymbol("("); err != nil {
		return err
	}
	if err := c.compileExpression(); err != nil {
		return err
	}
	if err := c.expectSymbol(")"); err != nil {
		return err
	}

	c.w.WriteArithmetic(vm.Not)
	c.w.WriteIf(endLabel)

	if err := c.expectSymbol("{"); err != nil {
		return err
	}
	if err := c.compileStatements(); err != nil {
		return err
	}
	if err := c.expectSymbol("}"); err != nil {
		return err
	}

	c.w.WriteGoto(expLabel)
	c.w.WriteLabel(endLabel)
	return nil
}

func (c *Compiler) compileDo() error {
	if _, err := c.expectKeyword("do"); err != nil {
		return err
	}
	if err := c.compileSubroutineCall(); err != nil {
		return err
	}
	if err := c.expectSymbol(";"); err != nil {
		return err
	}
	// Every subroutine pushes exactly one return value; 'do' discards it.
	c.w.WritePop(vm.Temp, 0)
	return nil
}

func (c *Compiler) compileReturn() error {
	if _, err := c.expectKeyword("return"); err != nil {
		return err
	}
	if c.isSymbol(";") {
		c.w.WritePush(vm.Constant, 0)
	} else if err := c.compileExpression(); err != nil {
		return err
	}
	if err := c.expectSymbol(";"); err != nil {
		return err
	}
	c.w.WriteReturn()
	return nil
}

// compileSubroutineCall handles all three call forms named in the grammar. The
// callee identifier must not have been consumed yet when this is called.
func (c *Compiler) compileSubroutineCall() error {
	name, err := c.expectIdentifier()
	if err != nil {
		return err
	}

	switch {
	case c.isSymbol("("):
		c.advance()
		c.w.WritePush(vm.Pointer, 0) // self-method call: implicit receiver
		n, err := c.compileExpressionList()
		if err != nil {
			return err
		}
		if err := c.expectSymbol(")"); err != nil {
			return err
		}
		c.w.WriteCall(c.className+"."+name, n+1)
		return nil

	case c.isSymbol("."):
		c.advance()
		member, err := c.expectIdentifier()
		if err != nil {
			return err
		}
		if err := c.expectSymbol("("); err != nil {
			return err
		}

		if kind, ok := c.sym.KindOf(name); ok {
			idx, _ := c.sym.IndexOf(name)
			typ, _ := c.sym.TypeOf(name)
			c.w.WritePush(kind.Segment(), idx)
			n, err := c.compileExpressionList()
			if err != nil {
				return err
			}
			if err := c.expectSymbol(")"); err != nil {
				return err
			}
			c.w.WriteCall(typ+"."+member, n+1)
			return nil
		}

		// 'name' does not resolve: it is a class name, this is a static call.
		n, err := c.compileExpressionList()
		if err != nil {
			return err
		}
		if err := c.expectSymbol(")"); err != nil {
			return err
		}
		c.w.WriteCall(name+"."+member, n)
		return nil

	default:
		return c.parseErrorf("expected '(' or '.', found %s", c.describeCurrent())
	}
}

func (c *Compiler) compileExpressionList() (int, error) {
	if c.isSymbol(")") {
		return 0, nil
	}
	count := 1
	if err := c.compileExpression(); err != nil {
		return 0, err
	}
	for c.isSymbol(",") {
		c.advance()
		if err := c.compileExpression(); err != nil {
			return 0, err
		}
		count++
	}
	return count, nil
}

var binaryOps = map[string]func(*VMWriter){
	"+": func(w *VMWriter) { w.WriteArithmetic(vm.Add) },
	"-": func(w *VMWriter) { w.WriteArithmetic(vm.Sub) },
	"*": func(w *VMWriter) { w.WriteCall("Math.multiply", 2) },
	"/": func(w *VMWriter) { w.WriteCall("Math.divide", 2) },
	"&": func(w *VMWriter) { w.WriteArithmetic(vm.And) },
	"|": func(w *VMWriter) { w.WriteArithmetic(vm.Or) },
	"<": func(w *VMWriter) { w.WriteArithmetic(vm.Lt) },
	">": func(w *VMWriter) { w.WriteArithmetic(vm.Gt) },
	"=": func(w *VMWriter) { w.WriteArithmetic(vm.Eq) },
}

// compileExpression pushes every term first, then emits the buffered operators
// last-encountered first (a LIFO op stack), reproducing the required emission
// order for chained operators exactly.
func (c *Compiler) compileExpression() error {
	if err := c.compileTerm(); err != nil {
		return err
	}
	var ops []string
	for !c.atEnd() && c.cur().Kind == Symbol && binaryOps[c.cur().Lexeme] != nil {
		op := c.cur().Lexeme
		c.advance()
		if err := c.compileTerm(); err != nil {
			return err
		}
		ops = append(ops, op)
	}
	for i := len(ops) - 1; i >= 0; i-- {
		binaryOps[ops[i]](c.w)
	}
	return nil
}

func (c *Compiler) compileTerm() error {
	if c.atEnd() {
		return c.parseErrorf("unexpected end of input, expected a term")
	}

	tok := c.cur()
	switch tok.Kind {
	case IntConst:
		c.w.WritePush(vm.Constant, tok.IntVal)
		c.advance()
		return nil

	case StringConst:
		c.advance()
		c.w.WritePush(vm.Constant, len([]rune(tok.Lexeme)))
		c.w.WriteCall("String.new", 1)
		for _, ch := range tok.Lexeme {
			c.w.WritePush(vm.Constant, int(ch))
			c.w.WriteCall("String.appendChar", 2)
		}
		return nil

	case Keyword:
		switch tok.Lexeme {
		case "true":
			c.w.WritePush(vm.Constant, 0)
			c.w.WriteArithmetic(vm.Not)
			c.advance()
			return nil
		case "false", "null":
			c.w.WritePush(vm.Constant, 0)
			c.advance()
			return nil
		case "this":
			c.w.WritePush(vm.Pointer, 0)
			c.advance()
			return nil
		default:
			return c.parseErrorf("unexpected keyword %q in expression", tok.Lexeme)
		}

	case Symbol:
		switch tok.Lexeme {
		case "(":
			c.advance()
			if err := c.compileExpression(); err != nil {
				return err
			}
			return c.expectSymbol(")")
		case "-":
			c.advance()
			if err := c.compileTerm(); err != nil {
				return err
			}
			c.w.WriteArithmetic(vm.Neg)
			return nil
		case "~":
			c.advance()
			if err := c.compileTerm(); err != nil {
				return err
			}
			c.w.WriteArithmetic(vm.Not)
			return nil
		default:
			return c.parseErrorf("unexpected symbol %q in expression", tok.Lexeme)
		}

	case Identifier:
		peek := c.tok.Peek()
		if peek != nil && peek.Kind == Symbol && (peek.Lexeme == "(" || peek.Lexeme == ".") {
			return c.compileSubroutineCall()
		}
		if peek != nil && peek.Kind == Symbol && peek.Lexeme == "[" {
			name, err := c.expectIdentifier()
			if err != nil {
				return err
			}
			if err := c.pushVar(name); err != nil {
				return err
			}
			if err := c.expectSymbol("["); err != nil {
				return err
			}
			if err := c.compileExpression(); err != nil {
				return err
			}
			c.w.WriteArithmetic(vm.Add)
			if err := c.expectSymbol("]"); err != nil {
				return err
			}
			c.w.WritePop(vm.Pointer, 1)
			c.w.WritePush(vm.That, 0)
			return nil
		}

		name, err := c.expectIdentifier()
		if err != nil {
			return err
		}
		return c.pushVar(name)

	default:
		return c.parseErrorf("unexpected token %s in expression", c.describeCurrent())
	}
}

// pushVar resolves 'name' in the symbol table and emits a push of its value.
func (c *Compiler) pushVar(name string) error {
	kind, ok := c.sym.KindOf(name)
	if !ok {
		return c.resolutionErrorf("undefined variable %q", name)
	}
	idx, _ := c.sym.IndexOf(name)
	c.w.WritePush(kind.Segment(), idx)
	return nil
}

// ----------------------------------------------------------------------------
// Token stream helpers

func (c *Compiler) cur() Token  { return c.tok.Current() }
func (c *Compiler) atEnd() bool { return !c.tok.HasMore() }
func (c *Compiler) advance()    { _ = c.tok.Advance() }

func (c *Compiler) isKeyword(kws ...string) bool {
	if c.atEnd() || c.cur().Kind != Keyword {
		return false
	}
	for _, kw := range kws {
		if c.cur().Lexeme == kw {
			return true
		}
	}
	return false
}

func (c *Compiler) isSymbol(syms ...string) bool {
	if c.atEnd() || c.cur().Kind != Symbol {
		return false
	}
	for _, s := range syms {
		if c.cur().Lexeme == s {
			return true
		}
	}
	return false
}

func (c *Compiler) expectKeyword(kws ...string) (string, error) {
	if !c.isKeyword(kws...) {
		return "", c.parseErrorf("expected keyword %v, found %s", kws, c.describeCurrent())
	}
	lexeme := c.cur().Lexeme
	c.advance()
	return lexeme, nil
}

func (c *Compiler) expectSymbol(sym string) error {
	if !c.isSymbol(sym) {
		return c.parseErrorf("expected %q, found %s", sym, c.describeCurrent())
	}
	c.advance()
	return nil
}

func (c *Compiler) expectIdentifier() (string, error) {
	if c.atEnd() || c.cur().Kind != Identifier {
		return "", c.parseErrorf("expected an identifier, found %s", c.describeCurrent())
	}
	name := c.cur().Lexeme
	c.advance()
	return name, nil
}

func (c *Compiler) describeCurrent() string {
	if c.atEnd() {
		return "end of input"
	}
	return fmt.Sprintf("%q", c.cur().Lexeme)
}

func (c *Compiler) line() int {
	if c.atEnd() {
		return -1
	}
	return c.cur().Line
}

func (c *Compiler) parseErrorf(format string, args ...interface{}) *CompileError {
	return newParseError(c.line(), format, args...)
}

func (c *Compiler) resolutionErrorf(format string, args ...interface{}) *CompileError {
	return newResolutionError(c.line(), format, args...)
}

// locate attaches the current line to a resolution error raised deeper in the
// symbol table, which has no notion of token position.
func (c *Compiler) locate(err error) error {
	if ce, ok := err.(*CompileError); ok {
		ce.Line = c.line()
		return ce
	}
	return err
}
