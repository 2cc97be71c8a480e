// Package typeparse parses type strings written in docblock syntax, such
// as "array{id: int, name?: string}|null" or "($x is int ? string : bool)",
// into typesystem unions.
package typeparse

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/funvibe/flowcheck/internal/config"
	"github.com/funvibe/flowcheck/internal/typesystem"
)

// TemplateScope describes a template name visible while parsing.
type TemplateScope struct {
	Entity string
	As     *typesystem.Union
}

// Options carry the naming context of the type string.
type Options struct {
	// Templates in scope, by template name.
	Templates map[string]TemplateScope
	// Self is the enclosing class, used for self, static and $this.
	Self string
	// Parent is the parent of the enclosing class.
	Parent string
}

// SyntaxError reports a malformed type string.
type SyntaxError struct {
	Input string
	Pos   int
	Msg   string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("invalid type %q at offset %d: %s", e.Input, e.Pos, e.Msg)
}

type Parser struct {
	l    *Lexer
	opts Options

	input     string
	curToken  Token
	peekToken Token
	errors    []*SyntaxError
}

// Parse parses a complete type string.
func Parse(input string, opts Options) (*typesystem.Union, error) {
	p := &Parser{l: NewLexer(input), input: input, opts: opts}
	p.nextToken()
	p.nextToken()

	u := p.parseUnion()
	if len(p.errors) == 0 && !p.curTokenIs(EOF) {
		p.errorf("unexpected %q", p.curToken.Literal)
	}
	if len(p.errors) > 0 {
		return nil, p.errors[0]
	}
	return u, nil
}

// MustParse is Parse for type strings known to be valid, such as built-in
// signatures. It panics on a syntax error.
func MustParse(input string, opts Options) *typesystem.Union {
	u, err := Parse(input, opts)
	if err != nil {
		panic(err)
	}
	return u
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

func (p *Parser) curTokenIs(t TokenType) bool  { return p.curToken.Type == t }
func (p *Parser) peekTokenIs(t TokenType) bool { return p.peekToken.Type == t }

func (p *Parser) curIdentIs(name string) bool {
	return p.curToken.Type == IDENT && strings.EqualFold(p.curToken.Literal, name)
}

func (p *Parser) errorf(format string, args ...any) {
	p.errors = append(p.errors, &SyntaxError{Input: p.input, Pos: p.curToken.Pos, Msg: fmt.Sprintf(format, args...)})
}

func (p *Parser) expect(t TokenType, what string) bool {
	if !p.curTokenIs(t) {
		p.errorf("expected %s, got %q", what, p.curToken.Literal)
		return false
	}
	p.nextToken()
	return true
}

func (p *Parser) failed() bool { return len(p.errors) > 0 }

// parseUnion parses A|B|C, or a conditional when the first member is
// followed by "is".
func (p *Parser) parseUnion() *typesystem.Union {
	first := p.parseIntersection()
	if p.failed() {
		return typesystem.Mixed()
	}
	if p.curIdentIs("is") {
		return p.parseConditional(first)
	}
	types := append([]typesystem.Atomic(nil), first.Types...)
	for p.curTokenIs(PIPE) {
		p.nextToken()
		next := p.parseIntersection()
		if p.failed() {
			return typesystem.Mixed()
		}
		types = append(types, next.Types...)
	}
	if len(types) == len(first.Types) {
		return first
	}
	return typesystem.NewUnion(typesystem.Combine(types, nil, false)...)
}

// parseConditional parses "is [not] Target ? Then : Otherwise" after the
// subject.
func (p *Parser) parseConditional(subject *typesystem.Union) *typesystem.Union {
	p.nextToken() // is
	negated := false
	if p.curIdentIs("not") {
		negated = true
		p.nextToken()
	}
	target := p.parseIntersection()
	if !p.expect(QUESTION, "'?'") {
		return typesystem.Mixed()
	}
	then := p.parseUnion()
	if !p.expect(COLON, "':'") {
		return typesystem.Mixed()
	}
	otherwise := p.parseUnion()
	return typesystem.NewUnion(typesystem.TConditional{
		Subject:   subject,
		Target:    target,
		Then:      then,
		Otherwise: otherwise,
		Negated:   negated,
	})
}

func (p *Parser) parseIntersection() *typesystem.Union {
	first := p.parseNullable()
	if !p.curTokenIs(AMP) || p.failed() {
		return first
	}
	base, ok := intersectionBase(first)
	if !ok {
		p.errorf("only object types can be intersected")
		return typesystem.Mixed()
	}
	for p.curTokenIs(AMP) {
		p.nextToken()
		next := p.parseNullable()
		if p.failed() {
			return typesystem.Mixed()
		}
		if !next.IsSingle() {
			p.errorf("only object types can be intersected")
			return typesystem.Mixed()
		}
		base.Intersections = append(base.Intersections, next.Single())
	}
	return typesystem.NewUnion(base)
}

func intersectionBase(u *typesystem.Union) (typesystem.TNamedObject, bool) {
	if !u.IsSingle() {
		return typesystem.TNamedObject{}, false
	}
	switch t := u.Single().(type) {
	case typesystem.TNamedObject:
		return t, true
	case typesystem.TReference:
		if t.Member == "" {
			return typesystem.TNamedObject{Name: t.Symbol, TypeParams: t.TypeParams}, true
		}
	}
	return typesystem.TNamedObject{}, false
}

func (p *Parser) parseNullable() *typesystem.Union {
	if p.curTokenIs(QUESTION) {
		p.nextToken()
		inner := p.parsePostfix()
		return typesystem.NewUnion(append(append([]typesystem.Atomic(nil), inner.Types...), typesystem.TNull{})...)
	}
	return p.parsePostfix()
}

// parsePostfix handles the T[] array suffix.
func (p *Parser) parsePostfix() *typesystem.Union {
	u := p.parsePrimary()
	for p.curTokenIs(LBRACKET) && p.peekTokenIs(RBRACKET) && !p.failed() {
		p.nextToken()
		p.nextToken()
		u = typesystem.NewUnion(typesystem.NewArray(typesystem.ArrayKeyType(), u))
	}
	return u
}

func (p *Parser) parsePrimary() *typesystem.Union {
	tok := p.curToken
	switch tok.Type {
	case LPAREN:
		p.nextToken()
		u := p.parseUnion()
		p.expect(RPAREN, "')'")
		return u
	case VARIABLE:
		p.nextToken()
		if tok.Literal == config.ThisVarName && p.opts.Self != "" && !p.curIdentIs("is") {
			return typesystem.NewUnion(typesystem.TNamedObject{Name: p.opts.Self, IsThis: true})
		}
		return typesystem.NewUnion(typesystem.TVariable{Name: tok.Literal})
	case INT:
		p.nextToken()
		v, err := strconv.ParseInt(strings.ReplaceAll(tok.Literal, "_", ""), 10, 64)
		if err != nil {
			p.errorf("bad integer %q", tok.Literal)
			return typesystem.Mixed()
		}
		return typesystem.LiteralInt(v)
	case FLOAT:
		p.nextToken()
		v, err := strconv.ParseFloat(tok.Literal, 64)
		if err != nil {
			p.errorf("bad float %q", tok.Literal)
			return typesystem.Mixed()
		}
		return typesystem.LiteralFloat(v)
	case STRING:
		p.nextToken()
		return typesystem.LiteralString(tok.Literal)
	case IDENT:
		return p.parseNamed()
	case EOF:
		p.errorf("unexpected end of type")
		return typesystem.Mixed()
	}
	p.errorf("unexpected %q", tok.Literal)
	return typesystem.Mixed()
}

var simpleTypes = map[string]func() typesystem.Atomic{
	"mixed":                      func() typesystem.Atomic { return typesystem.TMixed{} },
	"nonnull":                    func() typesystem.Atomic { return typesystem.TMixed{NonNull: true} },
	"never":                      func() typesystem.Atomic { return typesystem.TNever{} },
	"no-return":                  func() typesystem.Atomic { return typesystem.TNever{} },
	"never-return":               func() typesystem.Atomic { return typesystem.TNever{} },
	"void":                       func() typesystem.Atomic { return typesystem.TVoid{} },
	"null":                       func() typesystem.Atomic { return typesystem.TNull{} },
	"bool":                       func() typesystem.Atomic { return typesystem.TBool{} },
	"boolean":                    func() typesystem.Atomic { return typesystem.TBool{} },
	"true":                       func() typesystem.Atomic { return typesystem.TTrue{} },
	"false":                      func() typesystem.Atomic { return typesystem.TFalse{} },
	"integer":                    func() typesystem.Atomic { return typesystem.TInt{} },
	"positive-int":               func() typesystem.Atomic { return typesystem.TIntRange{Min: typesystem.IntPtr(1)} },
	"non-negative-int":           func() typesystem.Atomic { return typesystem.TIntRange{Min: typesystem.IntPtr(0)} },
	"negative-int":               func() typesystem.Atomic { return typesystem.TIntRange{Max: typesystem.IntPtr(-1)} },
	"non-positive-int":           func() typesystem.Atomic { return typesystem.TIntRange{Max: typesystem.IntPtr(0)} },
	"float":                      func() typesystem.Atomic { return typesystem.TFloat{} },
	"double":                     func() typesystem.Atomic { return typesystem.TFloat{} },
	"string":                     func() typesystem.Atomic { return typesystem.TString{} },
	"non-empty-string":           func() typesystem.Atomic { return typesystem.TString{NonEmpty: true} },
	"truthy-string":              func() typesystem.Atomic { return typesystem.TString{Truthy: true, NonEmpty: true} },
	"non-falsy-string":           func() typesystem.Atomic { return typesystem.TString{Truthy: true, NonEmpty: true} },
	"numeric-string":             func() typesystem.Atomic { return typesystem.TString{Numeric: true, NonEmpty: true} },
	"lowercase-string":           func() typesystem.Atomic { return typesystem.TString{Lowercase: true} },
	"non-empty-lowercase-string": func() typesystem.Atomic { return typesystem.TString{NonEmpty: true, Lowercase: true} },
	"class-string":               func() typesystem.Atomic { return typesystem.TString{NonEmpty: true} },
	"array-key":                  func() typesystem.Atomic { return typesystem.TArrayKey{} },
	"numeric":                    func() typesystem.Atomic { return typesystem.TNumeric{} },
	"scalar":                     func() typesystem.Atomic { return typesystem.TScalar{} },
	"object":                     func() typesystem.Atomic { return typesystem.TObject{} },
}

func (p *Parser) parseNamed() *typesystem.Union {
	tok := p.curToken
	name := tok.Literal
	lower := strings.ToLower(name)
	p.nextToken()

	if p.curTokenIs(DOUBLE_COLON) {
		return p.parseMemberReference(name)
	}

	switch lower {
	case "int":
		if p.curTokenIs(LT) {
			return p.parseIntRange()
		}
		return typesystem.Int()
	case "array", "non-empty-array", "iterable":
		nonEmpty := lower == "non-empty-array"
		if p.curTokenIs(LBRACE) {
			return p.parseShape(false, nonEmpty)
		}
		return p.parseArrayGeneric(nonEmpty)
	case "list", "non-empty-list":
		nonEmpty := lower == "non-empty-list"
		if p.curTokenIs(LBRACE) {
			return p.parseShape(true, nonEmpty)
		}
		elem := typesystem.Mixed()
		if p.curTokenIs(LT) {
			params := p.parseTypeArgs()
			if len(params) != 1 {
				p.errorf("list takes one type argument")
				return typesystem.Mixed()
			}
			elem = params[0]
		}
		l := typesystem.NewList(elem)
		l.NonEmpty = nonEmpty
		return typesystem.NewUnion(l)
	case "callable", "closure":
		return p.parseCallable(lower == "closure")
	case config.SelfKeyword, config.StaticKeyword:
		if p.opts.Self == "" {
			p.errorf("%s outside of a class", lower)
			return typesystem.Mixed()
		}
		return typesystem.NewUnion(typesystem.TNamedObject{
			Name:       p.opts.Self,
			IsThis:     lower == config.StaticKeyword,
			TypeParams: p.maybeTypeArgs(),
		})
	case config.ParentKeyword:
		if p.opts.Parent == "" {
			p.errorf("parent outside of a subclass")
			return typesystem.Mixed()
		}
		return typesystem.NewUnion(typesystem.TNamedObject{Name: p.opts.Parent})
	}

	if mk, ok := simpleTypes[lower]; ok {
		if lower == "class-string" && p.curTokenIs(LT) {
			p.parseTypeArgs()
		}
		return typesystem.NewUnion(mk())
	}

	if tmpl, ok := p.opts.Templates[name]; ok {
		return typesystem.NewUnion(typesystem.TGenericParam{Name: name, DefiningEntity: tmpl.Entity, As: orMixed(tmpl.As)})
	}

	return typesystem.NewUnion(typesystem.TReference{
		Symbol:     strings.TrimPrefix(name, `\`),
		TypeParams: p.maybeTypeArgs(),
	})
}

func orMixed(u *typesystem.Union) *typesystem.Union {
	if u == nil {
		return typesystem.Mixed()
	}
	return u
}

// parseMemberReference parses Foo::BAR, Foo::BAR_* and Foo::class.
func (p *Parser) parseMemberReference(symbol string) *typesystem.Union {
	p.nextToken() // ::
	var member strings.Builder
	for p.curTokenIs(IDENT) || p.curTokenIs(STAR) {
		member.WriteString(p.curToken.Literal)
		p.nextToken()
	}
	if member.Len() == 0 {
		p.errorf("expected member name after ::")
		return typesystem.Mixed()
	}
	symbol = strings.TrimPrefix(symbol, `\`)
	if strings.EqualFold(symbol, config.SelfKeyword) || strings.EqualFold(symbol, config.StaticKeyword) {
		symbol = p.opts.Self
	}
	if strings.EqualFold(member.String(), "class") {
		return typesystem.NewUnion(typesystem.TString{NonEmpty: true})
	}
	return typesystem.NewUnion(typesystem.TReference{Symbol: symbol, Member: member.String()})
}

func (p *Parser) maybeTypeArgs() []*typesystem.Union {
	if !p.curTokenIs(LT) {
		return nil
	}
	return p.parseTypeArgs()
}

// parseTypeArgs parses <A, B, ...>.
func (p *Parser) parseTypeArgs() []*typesystem.Union {
	p.nextToken() // <
	var args []*typesystem.Union
	for !p.curTokenIs(GT) {
		args = append(args, p.parseUnion())
		if p.failed() {
			return nil
		}
		if p.curTokenIs(COMMA) {
			p.nextToken()
			continue
		}
		if !p.curTokenIs(GT) {
			p.errorf("expected ',' or '>', got %q", p.curToken.Literal)
			return nil
		}
	}
	p.nextToken() // >
	return args
}

func (p *Parser) parseIntRange() *typesystem.Union {
	p.nextToken() // <
	lo, ok := p.parseRangeBound("min")
	if !ok || !p.expect(COMMA, "','") {
		return typesystem.Mixed()
	}
	hi, ok := p.parseRangeBound("max")
	if !ok || !p.expect(GT, "'>'") {
		return typesystem.Mixed()
	}
	r := typesystem.NewIntRange(lo, hi)
	if r.IsUnbounded() {
		return typesystem.Int()
	}
	if lo != nil && hi != nil && *lo > *hi {
		p.errorf("empty int range")
		return typesystem.Mixed()
	}
	return typesystem.NewUnion(r)
}

func (p *Parser) parseRangeBound(open string) (*int64, bool) {
	tok := p.curToken
	switch {
	case p.curIdentIs(open):
		p.nextToken()
		return nil, true
	case tok.Type == INT:
		p.nextToken()
		v, err := strconv.ParseInt(tok.Literal, 10, 64)
		if err != nil {
			p.errorf("bad range bound %q", tok.Literal)
			return nil, false
		}
		return &v, true
	}
	p.errorf("expected integer or %s, got %q", open, tok.Literal)
	return nil, false
}

func (p *Parser) parseArrayGeneric(nonEmpty bool) *typesystem.Union {
	key, value := typesystem.ArrayKeyType(), typesystem.Mixed()
	if p.curTokenIs(LT) {
		args := p.parseTypeArgs()
		switch len(args) {
		case 1:
			value = args[0]
		case 2:
			key, value = args[0], args[1]
		default:
			if !p.failed() {
				p.errorf("array takes one or two type arguments")
			}
			return typesystem.Mixed()
		}
	}
	arr := typesystem.NewArray(key, value)
	arr.NonEmpty = nonEmpty
	return typesystem.NewUnion(arr)
}

type shapeEntry struct {
	key      typesystem.ArrayKey
	keyed    bool
	typ      *typesystem.Union
	optional bool
}

// parseShape parses array{...} and list{...}.
func (p *Parser) parseShape(isList, nonEmpty bool) *typesystem.Union {
	p.nextToken() // {
	var entries []shapeEntry
	var tail *typesystem.KeyedParams
	unsealed := false
	for !p.curTokenIs(RBRACE) {
		if p.curTokenIs(ELLIPSIS) {
			p.nextToken()
			unsealed = true
			if p.curTokenIs(LT) {
				args := p.parseTypeArgs()
				switch len(args) {
				case 1:
					tail = &typesystem.KeyedParams{Key: typesystem.ArrayKeyType(), Value: args[0]}
				case 2:
					tail = &typesystem.KeyedParams{Key: args[0], Value: args[1]}
				default:
					p.errorf("unsealed shape takes one or two type arguments")
				}
			}
			if p.failed() {
				return typesystem.Mixed()
			}
			break
		}
		entry, ok := p.parseShapeEntry(len(entries))
		if !ok {
			return typesystem.Mixed()
		}
		entries = append(entries, entry)
		if p.curTokenIs(COMMA) {
			p.nextToken()
			continue
		}
		if !p.curTokenIs(RBRACE) {
			p.errorf("expected ',' or '}', got %q", p.curToken.Literal)
			return typesystem.Mixed()
		}
	}
	if !p.expect(RBRACE, "'}'") {
		return typesystem.Mixed()
	}

	if !isList && !unsealed && len(entries) == 0 {
		arr := typesystem.EmptyArray()
		return typesystem.NewUnion(arr)
	}

	positional := true
	for i, e := range entries {
		if e.keyed && (e.key.IsString || e.key.Int != int64(i)) {
			positional = false
		}
	}
	if isList || (positional && !unsealed) {
		if !positional {
			p.errorf("list shapes take sequential integer keys")
			return typesystem.Mixed()
		}
		l := typesystem.TList{Element: typesystem.Never(), NonEmpty: nonEmpty}
		if unsealed {
			l.Element = typesystem.Mixed()
			if tail != nil {
				l.Element = tail.Value
			}
		}
		if len(entries) > 0 {
			l.KnownElements = make(map[int]typesystem.ListElement, len(entries))
			for i, e := range entries {
				l.KnownElements[i] = typesystem.ListElement{Type: e.typ, Optional: e.optional}
			}
		}
		return typesystem.NewUnion(l)
	}

	arr := typesystem.TKeyedArray{NonEmpty: nonEmpty}
	for _, e := range entries {
		arr.KnownItems = append(arr.KnownItems, typesystem.KeyedItem{Key: e.key, Type: e.typ, Optional: e.optional})
	}
	if unsealed {
		arr.Params = tail
		if arr.Params == nil {
			arr.Params = &typesystem.KeyedParams{Key: typesystem.ArrayKeyType(), Value: typesystem.Mixed()}
		}
	}
	return typesystem.NewUnion(arr)
}

func (p *Parser) parseShapeEntry(index int) (shapeEntry, bool) {
	// a key is a name, integer or string followed by ':' or '?:'
	keyed := (p.curTokenIs(IDENT) || p.curTokenIs(INT) || p.curTokenIs(STRING)) &&
		(p.peekTokenIs(COLON) || p.peekTokenIs(QUESTION))
	if !keyed {
		typ := p.parseUnion()
		return shapeEntry{key: typesystem.IntKey(int64(index)), typ: typ}, !p.failed()
	}
	tok := p.curToken
	var key typesystem.ArrayKey
	if tok.Type == INT {
		v, err := strconv.ParseInt(tok.Literal, 10, 64)
		if err != nil {
			p.errorf("bad key %q", tok.Literal)
			return shapeEntry{}, false
		}
		key = typesystem.IntKey(v)
	} else if v, err := strconv.ParseInt(tok.Literal, 10, 64); err == nil && tok.Type == STRING && strconv.FormatInt(v, 10) == tok.Literal {
		// "1" is the integer key 1
		key = typesystem.IntKey(v)
	} else {
		key = typesystem.StringKey(tok.Literal)
	}
	p.nextToken()
	optional := false
	if p.curTokenIs(QUESTION) {
		optional = true
		p.nextToken()
	}
	if !p.expect(COLON, "':'") {
		return shapeEntry{}, false
	}
	typ := p.parseUnion()
	return shapeEntry{key: key, keyed: true, typ: typ, optional: optional}, !p.failed()
}

// parseCallable parses callable(A, B=, C...): R and the Closure form.
func (p *Parser) parseCallable(isClosure bool) *typesystem.Union {
	if !p.curTokenIs(LPAREN) {
		if isClosure {
			return typesystem.NewUnion(typesystem.TNamedObject{Name: config.ClosureClass})
		}
		return typesystem.NewUnion(typesystem.TCallable{})
	}
	p.nextToken() // (
	sig := &typesystem.CallableSignature{IsClosure: isClosure}
	for !p.curTokenIs(RPAREN) {
		param := typesystem.CallableParam{}
		if p.curTokenIs(ELLIPSIS) {
			param.Variadic = true
			p.nextToken()
		}
		param.Type = p.parseUnion()
		if p.failed() {
			return typesystem.Mixed()
		}
		if p.curTokenIs(AMP) {
			param.ByRef = true
			p.nextToken()
		}
		if p.curTokenIs(ELLIPSIS) {
			param.Variadic = true
			p.nextToken()
		}
		if p.curTokenIs(VARIABLE) {
			p.nextToken()
		}
		if p.curTokenIs(ASSIGN) {
			param.Optional = true
			p.nextToken()
		}
		sig.Params = append(sig.Params, param)
		if p.curTokenIs(COMMA) {
			p.nextToken()
			continue
		}
		if !p.curTokenIs(RPAREN) {
			p.errorf("expected ',' or ')', got %q", p.curToken.Literal)
			return typesystem.Mixed()
		}
	}
	p.nextToken() // )
	if p.curTokenIs(COLON) {
		p.nextToken()
		sig.Return = p.parseNullable()
	}
	return typesystem.NewUnion(typesystem.TCallable{Signature: sig})
}
