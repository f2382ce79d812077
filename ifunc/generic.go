package ifunc

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Generic is a scalar field defined by a small arithmetic expression
// over x, y, z, used by function files that don't fit the named
// primitive subtypes. There is no expression-evaluation library in
// this module's dependency corpus (see DESIGN.md), so Generic parses
// and evaluates its own minimal grammar: +, -, *, /, ^, unary -,
// parentheses, the variables x/y/z, numeric literals, and the
// functions sqrt/sin/cos/abs. The gradient is a central finite
// difference, since the expression's analytic derivative is not
// tracked.
type Generic struct {
	expr string
	ast  node
}

// NewGeneric parses expr and returns a Generic implicit function.
func NewGeneric(expr string) (*Generic, error) {
	p := &exprParser{src: expr}
	ast, err := p.parseExpr()
	if err != nil {
		return nil, fmt.Errorf("ifunc: NewGeneric: %w", err)
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, fmt.Errorf("ifunc: NewGeneric: unexpected trailing input at %d in %q", p.pos, expr)
	}
	return &Generic{expr: expr, ast: ast}, nil
}

// Evaluate returns the expression's value and a central-difference
// gradient at p.
func (g *Generic) Evaluate(p r3.Vec) Value {
	f := g.value(p)
	const h = 1e-6
	gx := (g.value(r3.Add(p, r3.Vec{X: h})) - g.value(r3.Sub(p, r3.Vec{X: h}))) / (2 * h)
	gy := (g.value(r3.Add(p, r3.Vec{Y: h})) - g.value(r3.Sub(p, r3.Vec{Y: h}))) / (2 * h)
	gz := (g.value(r3.Add(p, r3.Vec{Z: h})) - g.value(r3.Sub(p, r3.Vec{Z: h}))) / (2 * h)
	return Value{Val: f, Grad: r3.Vec{X: gx, Y: gy, Z: gz}}
}

func (g *Generic) value(p r3.Vec) float64 {
	return g.ast.eval(p)
}

//-----------------------------------------------------------------------------
// minimal expression grammar

type node interface {
	eval(p r3.Vec) float64
}

type numNode float64

func (n numNode) eval(r3.Vec) float64 { return float64(n) }

type varNode byte // 'x', 'y', or 'z'

func (v varNode) eval(p r3.Vec) float64 {
	switch v {
	case 'x':
		return p.X
	case 'y':
		return p.Y
	default:
		return p.Z
	}
}

type unaryNode struct {
	op  byte
	arg node
}

func (u unaryNode) eval(p r3.Vec) float64 {
	v := u.arg.eval(p)
	if u.op == '-' {
		return -v
	}
	return v
}

type binNode struct {
	op   byte
	l, r node
}

func (b binNode) eval(p r3.Vec) float64 {
	l, r := b.l.eval(p), b.r.eval(p)
	switch b.op {
	case '+':
		return l + r
	case '-':
		return l - r
	case '*':
		return l * r
	case '/':
		return l / r
	case '^':
		return math.Pow(l, r)
	}
	panic("ifunc: unreachable binary op")
}

type callNode struct {
	name string
	arg  node
}

func (c callNode) eval(p r3.Vec) float64 {
	v := c.arg.eval(p)
	switch c.name {
	case "sqrt":
		return math.Sqrt(v)
	case "sin":
		return math.Sin(v)
	case "cos":
		return math.Cos(v)
	case "abs":
		return math.Abs(v)
	}
	panic("ifunc: unreachable function call")
}

type exprParser struct {
	src string
	pos int
}

func (p *exprParser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func (p *exprParser) peek() byte {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *exprParser) parseExpr() (node, error) { return p.parseAddSub() }

func (p *exprParser) parseAddSub() (node, error) {
	l, err := p.parseMulDiv()
	if err != nil {
		return nil, err
	}
	for {
		c := p.peek()
		if c != '+' && c != '-' {
			return l, nil
		}
		p.pos++
		r, err := p.parseMulDiv()
		if err != nil {
			return nil, err
		}
		l = binNode{op: c, l: l, r: r}
	}
}

func (p *exprParser) parseMulDiv() (node, error) {
	l, err := p.parsePow()
	if err != nil {
		return nil, err
	}
	for {
		c := p.peek()
		if c != '*' && c != '/' {
			return l, nil
		}
		p.pos++
		r, err := p.parsePow()
		if err != nil {
			return nil, err
		}
		l = binNode{op: c, l: l, r: r}
	}
}

func (p *exprParser) parsePow() (node, error) {
	l, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	if p.peek() == '^' {
		p.pos++
		r, err := p.parsePow()
		if err != nil {
			return nil, err
		}
		return binNode{op: '^', l: l, r: r}, nil
	}
	return l, nil
}

func (p *exprParser) parseUnary() (node, error) {
	if p.peek() == '-' {
		p.pos++
		arg, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return unaryNode{op: '-', arg: arg}, nil
	}
	return p.parseAtom()
}

func (p *exprParser) parseAtom() (node, error) {
	c := p.peek()
	switch {
	case c == '(':
		p.pos++
		n, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if p.peek() != ')' {
			return nil, fmt.Errorf("expected ')' at %d", p.pos)
		}
		p.pos++
		return n, nil
	case c == 'x' || c == 'y' || c == 'z':
		p.pos++
		return varNode(c), nil
	case isDigit(c) || c == '.':
		return p.parseNumber()
	case isAlpha(c):
		return p.parseCall()
	default:
		return nil, fmt.Errorf("unexpected character %q at %d", c, p.pos)
	}
}

func (p *exprParser) parseNumber() (node, error) {
	start := p.pos
	for p.pos < len(p.src) && (isDigit(p.src[p.pos]) || p.src[p.pos] == '.') {
		p.pos++
	}
	var v float64
	if _, err := fmt.Sscanf(p.src[start:p.pos], "%g", &v); err != nil {
		return nil, fmt.Errorf("bad number %q: %w", p.src[start:p.pos], err)
	}
	return numNode(v), nil
}

func (p *exprParser) parseCall() (node, error) {
	start := p.pos
	for p.pos < len(p.src) && isAlpha(p.src[p.pos]) {
		p.pos++
	}
	name := p.src[start:p.pos]
	if p.peek() != '(' {
		return nil, fmt.Errorf("expected '(' after function name %q", name)
	}
	p.pos++
	arg, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.peek() != ')' {
		return nil, fmt.Errorf("expected ')' closing call to %q", name)
	}
	p.pos++
	return callNode{name: name, arg: arg}, nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
func isAlpha(c byte) bool { return c >= 'a' && c <= 'z' }
