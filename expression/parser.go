package expression

import (
	"strconv"
	"strings"
)

// BindingType selects the grammar entry point.
type BindingType uint8

const (
	// IsProperty parses a plain binding expression.
	IsProperty BindingType = iota
	// IsInterpolation parses text containing ${} expressions.
	IsInterpolation
	// IsFunction parses an event handler expression.
	IsFunction
	// IsIterator parses `declaration of iterable`.
	IsIterator
	// IsCustom keeps the raw text.
	IsCustom
)

func (t BindingType) String() string {
	switch t {
	case IsProperty:
		return "property"
	case IsInterpolation:
		return "interpolation"
	case IsFunction:
		return "function"
	case IsIterator:
		return "iterator"
	case IsCustom:
		return "custom"
	}
	return "BindingType(" + strconv.Itoa(int(t)) + ")"
}

var binaryPrecedence = map[string]int{
	"||": 1,
	"&&": 2,
	"==": 3, "!=": 3, "===": 3, "!==": 3,
	"<": 4, ">": 4, "<=": 4, ">=": 4, "in": 4, "instanceof": 4,
	"+": 5, "-": 5,
	"*": 6, "/": 6, "%": 6,
}

// ParseExpression parses input for the given binding type. For
// IsInterpolation it returns a nil expression when input contains no ${}.
func ParseExpression(input string, bt BindingType) (Expression, error) {
	switch bt {
	case IsCustom:
		return &Custom{Value: input}, nil
	case IsInterpolation:
		return parseInterpolation(input, 0)
	}
	p := &parser{lex: lexer{input: input}}
	if err := p.advance(); err != nil {
		return nil, err
	}
	var (
		e   Expression
		err error
	)
	if bt == IsIterator {
		e, err = p.parseForOf()
	} else {
		e, err = p.parseChain()
	}
	if err != nil {
		return nil, err
	}
	if p.tok.kind != tokEOF {
		return nil, p.unexpected()
	}
	return e, nil
}

func parseInterpolation(input string, base int) (Expression, error) {
	parts, sources, offsets, err := splitInterpolation(input)
	if err != nil {
		return nil, err
	}
	if len(sources) == 0 {
		return nil, nil
	}
	exprs := make([]Expression, len(sources))
	for i, src := range sources {
		e, err := ParseExpression(src, IsProperty)
		if err != nil {
			if pe, ok := err.(*ParseError); ok {
				pe.Input = input
				pe.Pos += base + offsets[i]
			}
			return nil, err
		}
		exprs[i] = e
	}
	return &Interpolation{Parts: parts, Expressions: exprs}, nil
}

type parser struct {
	lex lexer
	tok token
}

func (p *parser) advance() error {
	t, err := p.lex.next()
	if err != nil {
		return err
	}
	p.tok = t
	return nil
}

func (p *parser) is(text string) bool {
	return (p.tok.kind == tokPunct || p.tok.kind == tokIdent) && p.tok.text == text
}

func (p *parser) expect(text string) error {
	if !p.is(text) {
		return p.lex.errorf(p.tok.pos, "expected %q, got %s", text, p.tok)
	}
	return p.advance()
}

func (p *parser) unexpected() error {
	return p.lex.errorf(p.tok.pos, "unexpected %s", p.tok)
}

func (p *parser) parseForOf() (Expression, error) {
	if p.tok.kind != tokIdent {
		return nil, p.lex.errorf(p.tok.pos, "expected iterator declaration, got %s", p.tok)
	}
	decl := &BindingIdentifier{Name: p.tok.text}
	if err := p.advance(); err != nil {
		return nil, err
	}
	if err := p.expect("of"); err != nil {
		return nil, err
	}
	iterable, err := p.parseChain()
	if err != nil {
		return nil, err
	}
	return &ForOf{Declaration: decl, Iterable: iterable}, nil
}

// parseChain parses an expression followed by value converters and then
// binding behaviors.
func (p *parser) parseChain() (Expression, error) {
	e, err := p.parseAssign()
	if err != nil {
		return nil, err
	}
	for p.is("|") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		name, args, err := p.parseResource("value converter")
		if err != nil {
			return nil, err
		}
		e = &ValueConverterExpression{Expression: e, Name: name, Args: args}
	}
	for p.is("&") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		name, args, err := p.parseResource("binding behavior")
		if err != nil {
			return nil, err
		}
		e = &BindingBehaviorExpression{Expression: e, Name: name, Args: args}
	}
	return e, nil
}

func (p *parser) parseResource(what string) (string, []Expression, error) {
	if p.tok.kind != tokIdent {
		return "", nil, p.lex.errorf(p.tok.pos, "expected %s name, got %s", what, p.tok)
	}
	name := p.tok.text
	if err := p.advance(); err != nil {
		return "", nil, err
	}
	var args []Expression
	for p.is(":") {
		if err := p.advance(); err != nil {
			return "", nil, err
		}
		a, err := p.parseConditional()
		if err != nil {
			return "", nil, err
		}
		args = append(args, a)
	}
	return name, args, nil
}

func (p *parser) parseAssign() (Expression, error) {
	pos := p.tok.pos
	target, err := p.parseConditional()
	if err != nil {
		return nil, err
	}
	if !p.is("=") {
		return target, nil
	}
	if !IsAssignable(target) {
		return nil, p.lex.errorf(pos, "left side of = is not assignable")
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	value, err := p.parseAssign()
	if err != nil {
		return nil, err
	}
	return &Assign{Target: target, Value: value}, nil
}

func (p *parser) parseConditional() (Expression, error) {
	cond, err := p.parseBinary(1)
	if err != nil {
		return nil, err
	}
	if !p.is("?") {
		return cond, nil
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	yes, err := p.parseAssign()
	if err != nil {
		return nil, err
	}
	if err := p.expect(":"); err != nil {
		return nil, err
	}
	no, err := p.parseAssign()
	if err != nil {
		return nil, err
	}
	return &Conditional{Condition: cond, Yes: yes, No: no}, nil
}

func (p *parser) binaryOperator() (string, int) {
	if p.tok.kind != tokPunct && p.tok.kind != tokIdent {
		return "", 0
	}
	prec, ok := binaryPrecedence[p.tok.text]
	if !ok {
		return "", 0
	}
	return p.tok.text, prec
}

func (p *parser) parseBinary(minPrec int) (Expression, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		op, prec := p.binaryOperator()
		if prec < minPrec || prec == 0 {
			return left, nil
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseBinary(prec + 1)
		if err != nil {
			return nil, err
		}
		left = &Binary{Operation: op, Left: left, Right: right}
	}
}

func (p *parser) parseUnary() (Expression, error) {
	switch {
	case p.is("!"), p.is("-"), p.is("+"), p.is("typeof"), p.is("void"):
		op := p.tok.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Unary{Operation: op, Expression: operand}, nil
	}
	return p.parseLeftHandSide()
}

func (p *parser) parseLeftHandSide() (Expression, error) {
	e, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.is("."):
			if err := p.advance(); err != nil {
				return nil, err
			}
			if p.tok.kind != tokIdent {
				return nil, p.lex.errorf(p.tok.pos, "expected member name, got %s", p.tok)
			}
			name := p.tok.text
			if err := p.advance(); err != nil {
				return nil, err
			}
			e, err = p.member(e, name)
			if err != nil {
				return nil, err
			}
		case p.is("["):
			if err := p.advance(); err != nil {
				return nil, err
			}
			key, err := p.parseAssign()
			if err != nil {
				return nil, err
			}
			if err := p.expect("]"); err != nil {
				return nil, err
			}
			e = &AccessKeyed{Object: e, Key: key}
		case p.is("("):
			args, err := p.parseArguments()
			if err != nil {
				return nil, err
			}
			e = &CallFunction{Func: e, Args: args}
		case p.tok.kind == tokTemplate:
			return nil, p.lex.errorf(p.tok.pos, "tagged templates are not supported")
		default:
			return e, nil
		}
	}
}

// member builds the node for e.name, folding $parent chains into
// ancestor lookups.
func (p *parser) member(e Expression, name string) (Expression, error) {
	if this, ok := e.(*AccessThis); ok && this.Ancestor > 0 {
		if name == "$parent" {
			return &AccessThis{Ancestor: this.Ancestor + 1}, nil
		}
		if p.is("(") {
			args, err := p.parseArguments()
			if err != nil {
				return nil, err
			}
			return &CallScope{Name: name, Args: args, Ancestor: this.Ancestor}, nil
		}
		return &AccessScope{Name: name, Ancestor: this.Ancestor}, nil
	}
	if p.is("(") {
		args, err := p.parseArguments()
		if err != nil {
			return nil, err
		}
		return &CallMember{Object: e, Name: name, Args: args}, nil
	}
	return &AccessMember{Object: e, Name: name}, nil
}

func (p *parser) parseArguments() ([]Expression, error) {
	if err := p.expect("("); err != nil {
		return nil, err
	}
	var args []Expression
	for !p.is(")") {
		a, err := p.parseAssign()
		if err != nil {
			return nil, err
		}
		args = append(args, a)
		if !p.is(",") {
			break
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	if err := p.expect(")"); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *parser) parsePrimary() (Expression, error) {
	t := p.tok
	switch t.kind {
	case tokEOF:
		return nil, p.lex.errorf(t.pos, "unexpected end of expression")
	case tokNumber:
		f, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return nil, p.lex.errorf(t.pos, "invalid number %q", t.text)
		}
		return &PrimitiveLiteral{Value: f}, p.advance()
	case tokString:
		return &PrimitiveLiteral{Value: t.text}, p.advance()
	case tokTemplate:
		e, err := p.template(t)
		if err != nil {
			return nil, err
		}
		return e, p.advance()
	case tokIdent:
		return p.identifier(t)
	}
	switch t.text {
	case "(":
		if err := p.advance(); err != nil {
			return nil, err
		}
		e, err := p.parseAssign()
		if err != nil {
			return nil, err
		}
		return e, p.expect(")")
	case "[":
		return p.arrayLiteral()
	case "{":
		return p.objectLiteral()
	}
	return nil, p.unexpected()
}

func (p *parser) identifier(t token) (Expression, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	switch t.text {
	case "true":
		return &PrimitiveLiteral{Value: true}, nil
	case "false":
		return &PrimitiveLiteral{Value: false}, nil
	case "null", "undefined":
		return &PrimitiveLiteral{Value: nil}, nil
	case "$this", "this":
		return &AccessThis{}, nil
	case "$parent":
		return &AccessThis{Ancestor: 1}, nil
	}
	if p.is("(") {
		args, err := p.parseArguments()
		if err != nil {
			return nil, err
		}
		return &CallScope{Name: t.text, Args: args}, nil
	}
	return &AccessScope{Name: t.text}, nil
}

func (p *parser) template(t token) (Expression, error) {
	e, err := parseInterpolation(t.text, t.pos)
	if err != nil {
		if pe, ok := err.(*ParseError); ok {
			pe.Input = p.lex.input
		}
		return nil, err
	}
	if e == nil {
		parts, _, _, _ := splitInterpolation(t.text)
		return &Template{Cooked: parts}, nil
	}
	in := e.(*Interpolation)
	return &Template{Cooked: in.Parts, Expressions: in.Expressions}, nil
}

func (p *parser) arrayLiteral() (Expression, error) {
	if err := p.expect("["); err != nil {
		return nil, err
	}
	var elems []Expression
	for !p.is("]") {
		e, err := p.parseAssign()
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
		if !p.is(",") {
			break
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	return &ArrayLiteral{Elements: elems}, p.expect("]")
}

func (p *parser) objectLiteral() (Expression, error) {
	if err := p.expect("{"); err != nil {
		return nil, err
	}
	lit := &ObjectLiteral{}
	for !p.is("}") {
		t := p.tok
		var key string
		switch t.kind {
		case tokIdent, tokString:
			key = t.text
		case tokNumber:
			key = strings.TrimSuffix(t.text, ".0")
		default:
			return nil, p.lex.errorf(t.pos, "expected property name, got %s", t)
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		var value Expression
		if p.is(":") {
			if err := p.advance(); err != nil {
				return nil, err
			}
			v, err := p.parseAssign()
			if err != nil {
				return nil, err
			}
			value = v
		} else if t.kind == tokIdent {
			value = &AccessScope{Name: key}
		} else {
			return nil, p.lex.errorf(p.tok.pos, "expected ':', got %s", p.tok)
		}
		lit.Keys = append(lit.Keys, key)
		lit.Values = append(lit.Values, value)
		if !p.is(",") {
			break
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	return lit, p.expect("}")
}
