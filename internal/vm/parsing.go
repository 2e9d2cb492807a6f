package vm

import (
	"fmt"
	"io"
	"os"
	"strconv"

	pc "github.com/prataprc/goparsec"
)

// ----------------------------------------------------------------------------
// Parser Combinator(s)
//
// Parser exists for exactly one reason: to check, in tests, that every line Render can
// produce is re-parseable back into the same Operation value. It is deliberately not a
// general-purpose VM assembler — its grammar covers only the operation shapes this
// package's own Render function emits, nothing a hand-edited '.vm' file might also
// contain (comments, directives, ...). If a future operation kind needs parsing support,
// add a combinator for it here; until then, a narrower grammar is easier to keep honest
// than a permissive one nothing exercises.

var ast = pc.NewAST("vm_module", 0)

var (
	pModule = ast.ManyUntil("module", nil, pOperation, pc.End())

	pOperation = ast.OrdChoice("operation", nil,
		pMemoryOp, pArithmeticOp, pLabelDecl, pGotoOp,
		pFuncDecl, pFuncCallOp, pReturnOp,
	)

	// "{push|pop} {segment} {index}"
	pMemoryOp = ast.And("memory_op", nil, pMemOpType, pSegment, pc.Int())
	// one of add/sub/neg/eq/gt/lt/and/or/not, standalone on its own line
	pArithmeticOp = ast.And("arithmetic_op", nil, pArithOpType)

	// "label {symbol}"
	pLabelDecl = ast.And("label_decl", nil, pc.Atom("label", "LABEL"), pIdent)
	// "{if-goto|goto} {symbol}"
	pGotoOp = ast.And("goto_op", nil, pJumpType, pIdent)

	// "function {name} {n_locals}"
	pFuncDecl = ast.And("func_decl", nil, pc.Atom("function", "FUNC"), pIdent, pc.Int())
	// "call {name} {n_args}"
	pFuncCallOp = ast.And("func_call", nil, pc.Atom("call", "CALL"), pIdent, pc.Int())
	// "return"
	pReturnOp = ast.And("return_op", nil, pc.Atom("return", "RETURN"))
)

var (
	// Subroutine and label names the compiler emits are always 'Class.member' or a bare
	// label; this accepts both without trying to be a general-purpose identifier grammar.
	pIdent = pc.Token(`[A-Za-z_.$:][0-9a-zA-Z_.$:]*`, "IDENT")

	pMemOpType = ast.OrdChoice("mem_op_type", nil, pc.Atom("push", "PUSH"), pc.Atom("pop", "POP"))

	pSegment = ast.OrdChoice("mem_segment", nil,
		pc.Atom("argument", "ARGUMENT"), pc.Atom("local", "LOCAL"),
		pc.Atom("static", "STATIC"), pc.Atom("constant", "CONSTANT"),
		pc.Atom("this", "THIS"), pc.Atom("that", "THAT"),
		pc.Atom("temp", "TEMP"), pc.Atom("pointer", "POINTER"),
	)

	pArithOpType = ast.OrdChoice("operations", nil,
		pc.Atom("eq", "EQ"), pc.Atom("gt", "GT"), pc.Atom("lt", "LT"),
		pc.Atom("add", "ADD"), pc.Atom("sub", "SUB"), pc.Atom("neg", "NEG"),
		pc.Atom("not", "NOT"), pc.Atom("and", "AND"), pc.Atom("or", "OR"),
	)

	pJumpType = ast.OrdChoice("jump_type", nil, pc.Atom("goto", "GOTO"), pc.Atom("if-goto", "IF-GOTO"))
)

// ----------------------------------------------------------------------------
// VM Parser

// Parser reads VM text back into Module values, round-tripping Render's own output.
// It honors two env-var debug flags: PARSEC_DEBUG for verbose combinator tracing,
// PRINT_AST to dump the parsed tree to stdout.
type Parser struct{ reader io.Reader }

func NewParser(r io.Reader) Parser {
	return Parser{reader: r}
}

// Parse reads the full input, builds the AST, then walks it into a Module.
func (p *Parser) Parse() (Module, error) {
	content, err := io.ReadAll(p.reader)
	if err != nil {
		return nil, fmt.Errorf("cannot read from 'io.Reader': %s", err)
	}

	root, ok := p.parseAST(content)
	if !ok {
		return nil, fmt.Errorf("failed to parse AST from input content")
	}

	return p.walk(root)
}

func (p *Parser) parseAST(source []byte) (pc.Queryable, bool) {
	if os.Getenv("PARSEC_DEBUG") != "" {
		ast.SetDebug()
	}

	root, _ := ast.Parsewith(pModule, pc.NewScanner(source))

	if os.Getenv("PRINT_AST") != "" {
		ast.Prettyprint()
	}

	return root, root != nil
}

// walk does a single DFS pass over the parsed tree, translating each recognized node
// directly into the Operation value Render would have had to produce it.
func (p *Parser) walk(root pc.Queryable) (Module, error) {
	if root.GetName() != "module" {
		return nil, fmt.Errorf("expected node 'module', found %s", root.GetName())
	}

	module := make(Module, 0, len(root.GetChildren()))
	for _, child := range root.GetChildren() {
		op, err := p.walkOperation(child)
		if err != nil {
			return nil, err
		}
		module = append(module, op)
	}
	return module, nil
}

func (p *Parser) walkOperation(node pc.Queryable) (Operation, error) {
	switch node.GetName() {
	case "memory_op":
		return handleMemoryOp(node)
	case "arithmetic_op":
		return handleArithmeticOp(node)
	case "label_decl":
		return handleLabelDecl(node)
	case "goto_op":
		return handleGotoOp(node)
	case "func_decl":
		return handleFuncDecl(node)
	case "func_call":
		return handleFuncCall(node)
	case "return_op":
		return handleReturnOp(node)
	default:
		return nil, fmt.Errorf("unrecognized node '%s'", node.GetName())
	}
}

func handleMemoryOp(node pc.Queryable) (Operation, error) {
	children := node.GetChildren()
	if len(children) != 3 {
		return nil, fmt.Errorf("expected node 'memory_op' with 3 leaves, got %d", len(children))
	}

	offset, err := strconv.ParseUint(children[2].GetValue(), 10, 16)
	if err != nil {
		return nil, fmt.Errorf("failed to parse memory op offset %q: %s", children[2].GetValue(), err)
	}

	return MemoryOp{
		Operation: OperationType(children[0].GetValue()),
		Segment:   SegmentType(children[1].GetValue()),
		Offset:    uint16(offset),
	}, nil
}

func handleArithmeticOp(node pc.Queryable) (Operation, error) {
	children := node.GetChildren()
	if len(children) != 1 {
		return nil, fmt.Errorf("expected node 'arithmetic_op' with 1 leaf, got %d", len(children))
	}
	return ArithmeticOp{Operation: ArithOpType(children[0].GetValue())}, nil
}

func handleLabelDecl(node pc.Queryable) (Operation, error) {
	children := node.GetChildren()
	if len(children) != 2 {
		return nil, fmt.Errorf("expected node 'label_decl' with 2 leaves, got %d", len(children))
	}
	return LabelDecl{Name: children[1].GetValue()}, nil
}

func handleGotoOp(node pc.Queryable) (Operation, error) {
	children := node.GetChildren()
	if len(children) != 2 {
		return nil, fmt.Errorf("expected node 'goto_op' with 2 leaves, got %d", len(children))
	}
	return GotoOp{Jump: JumpType(children[0].GetValue()), Label: children[1].GetValue()}, nil
}

func handleFuncDecl(node pc.Queryable) (Operation, error) {
	children := node.GetChildren()
	if len(children) != 3 {
		return nil, fmt.Errorf("expected node 'func_decl' with 3 leaves, got %d", len(children))
	}
	nLocal, err := strconv.Atoi(children[2].GetValue())
	if err != nil {
		return nil, fmt.Errorf("failed to parse function local count %q: %s", children[2].GetValue(), err)
	}
	return FuncDecl{Name: children[1].GetValue(), NLocal: nLocal}, nil
}

func handleFuncCall(node pc.Queryable) (Operation, error) {
	children := node.GetChildren()
	if len(children) != 3 {
		return nil, fmt.Errorf("expected node 'func_call' with 3 leaves, got %d", len(children))
	}
	nArgs, err := strconv.Atoi(children[2].GetValue())
	if err != nil {
		return nil, fmt.Errorf("failed to parse call argument count %q: %s", children[2].GetValue(), err)
	}
	return FuncCallOp{Name: children[1].GetValue(), NArgs: nArgs}, nil
}

func handleReturnOp(node pc.Queryable) (Operation, error) {
	children := node.GetChildren()
	if len(children) != 1 {
		return nil, fmt.Errorf("expected node 'return_op' with 1 leaf, got %d", len(children))
	}
	return ReturnOp{}, nil
}
