package codebase

import (
	"fmt"
	"strings"

	"github.com/funvibe/flowcheck/internal/ast"
	"github.com/funvibe/flowcheck/internal/config"
	"github.com/funvibe/flowcheck/internal/typesystem"
	"github.com/funvibe/flowcheck/internal/typesystem/typeparse"
)

// TypeError reports a signature type that could not be parsed. The
// affected type falls back to mixed.
type TypeError struct {
	Span ast.Span
	Err  error
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("%s: %v", e.Span, e.Err)
}

func (e *TypeError) Unwrap() error { return e.Err }

// Scan lifts the declarations of one unit into partial metadata.
// Unparsable signature types are reported and replaced by mixed; scanning
// never stops early. A duplicate declaration inside the unit is reported
// as a DuplicateSymbolError and the first declaration wins.
func Scan(prog *ast.Program) (*Metadata, []error) {
	s := &scanner{meta: New()}
	for _, stmt := range prog.Statements {
		switch d := stmt.(type) {
		case *ast.ClassDeclaration:
			s.class(d)
		case *ast.FunctionDeclaration:
			s.function(d)
		}
	}
	return s.meta, s.errs
}

type scanner struct {
	meta *Metadata
	errs []error
}

func (s *scanner) parseType(src string, span ast.Span, opts typeparse.Options) *typesystem.Union {
	if src == "" {
		return nil
	}
	u, err := typeparse.Parse(src, opts)
	if err != nil {
		s.errs = append(s.errs, &TypeError{Span: span, Err: err})
		return typesystem.Mixed()
	}
	return u
}

// templates parses template declarations and adds them to the scope.
func (s *scanner) templates(decls []*ast.TemplateDeclaration, entity string, span ast.Span, opts *typeparse.Options) []TemplateParam {
	if len(decls) == 0 {
		return nil
	}
	scope := make(map[string]typeparse.TemplateScope, len(opts.Templates)+len(decls))
	for k, v := range opts.Templates {
		scope[k] = v
	}
	out := make([]TemplateParam, 0, len(decls))
	for _, d := range decls {
		opts.Templates = scope
		as := typesystem.Mixed()
		if d.As != "" {
			as = s.parseType(d.As, span, *opts)
		}
		scope[d.Name] = typeparse.TemplateScope{Entity: entity, As: as}
		out = append(out, TemplateParam{Name: d.Name, As: as})
	}
	opts.Templates = scope
	return out
}

func (s *scanner) class(cd *ast.ClassDeclaration) {
	key := lower(cd.Name)
	if _, exists := s.meta.Classes[key]; exists {
		s.errs = append(s.errs, &DuplicateSymbolError{Kind: cd.Kind.String(), Name: cd.Name, Span: cd.Span})
		return
	}
	c := newClassLike(strings.TrimPrefix(cd.Name, `\`), cd.Kind, cd.Span)
	c.Final = cd.Final
	c.Abstract = cd.Abstract
	c.Readonly = cd.Readonly
	c.Traits = cd.Traits

	opts := typeparse.Options{Self: c.Name}
	c.Templates = s.templates(cd.Templates, c.Name, cd.Span, &opts)

	if cd.Parent != "" {
		if name, params, ok := s.ancestor(cd.Parent, cd.Span, opts); ok {
			c.Parent = name
			opts.Parent = name
			if len(params) > 0 {
				c.ExtendedParams[lower(name)] = params
			}
		}
	}
	for _, iface := range cd.Interfaces {
		if name, params, ok := s.ancestor(iface, cd.Span, opts); ok {
			c.Interfaces = append(c.Interfaces, name)
			if len(params) > 0 {
				c.ExtendedParams[lower(name)] = params
			}
		}
	}

	if cd.Kind == ast.KindEnum {
		s.enum(c, cd, opts)
	}
	for _, k := range cd.Constants {
		cc := &ClassConstant{Name: k.Name, Class: c.Name, Span: k.Span, Visibility: k.Visibility}
		cc.Type = s.parseType(k.Type, k.Span, opts)
		if cc.Type == nil {
			cc.Type = LiteralType(k.Value, c.Name)
		}
		if _, dup := c.Constants[k.Name]; !dup {
			c.ConstantOrder = append(c.ConstantOrder, k.Name)
		}
		c.Constants[k.Name] = cc
	}
	for _, p := range cd.Properties {
		c.Properties[p.Name] = &Property{
			Name:        p.Name,
			Class:       c.Name,
			Span:        p.Span,
			Type:        s.parseType(p.Type, p.Span, opts),
			DefaultType: defaultType(p.Default, c.Name),
			Visibility:  p.Visibility,
			Static:      p.Static,
			Readonly:    p.Readonly,
		}
	}
	for _, md := range cd.Methods {
		f := s.method(c, md, opts)
		c.Methods[lower(md.Name)] = f
		if lower(md.Name) != config.ConstructMethodName {
			continue
		}
		for _, p := range md.Params {
			if !p.Promoted {
				continue
			}
			param, _, _ := f.Param(p.Name)
			c.Properties[p.Name] = &Property{
				Name:       p.Name,
				Class:      c.Name,
				Span:       p.Span,
				Type:       param.Type,
				Visibility: p.Visibility,
				Readonly:   p.Readonly || cd.Readonly,
				Promoted:   true,
			}
		}
	}
	s.meta.Classes[key] = c
}

// ancestor parses an extends/implements entry such as "Base<int>".
func (s *scanner) ancestor(src string, span ast.Span, opts typeparse.Options) (string, []*typesystem.Union, bool) {
	u := s.parseType(src, span, opts)
	if u == nil || !u.IsSingle() {
		s.errs = append(s.errs, &TypeError{Span: span, Err: fmt.Errorf("ancestor %q is not a class name", src)})
		return "", nil, false
	}
	switch t := u.Single().(type) {
	case typesystem.TReference:
		if t.Member == "" {
			return t.Symbol, t.TypeParams, true
		}
	case typesystem.TNamedObject:
		if !t.IsThis {
			return t.Name, t.TypeParams, true
		}
	}
	s.errs = append(s.errs, &TypeError{Span: span, Err: fmt.Errorf("ancestor %q is not a class name", src)})
	return "", nil, false
}

func (s *scanner) enum(c *ClassLike, cd *ast.ClassDeclaration, opts typeparse.Options) {
	c.BackingType = s.parseType(cd.BackingType, cd.Span, opts)
	for _, ec := range cd.Cases {
		var value *typesystem.Union
		if ec.Value != nil {
			value = LiteralType(ec.Value, c.Name)
		}
		c.Cases = append(c.Cases, &EnumCase{Name: ec.Name, Span: ec.Span, Value: value})
	}
	nameType := typesystem.NewUnion(typesystem.TString{NonEmpty: true})
	c.Properties["name"] = &Property{Name: "name", Class: c.Name, Span: cd.Span, Type: nameType, Readonly: true}
	if c.BackingType != nil {
		c.Properties["value"] = &Property{Name: "value", Class: c.Name, Span: cd.Span, Type: c.BackingType, Readonly: true}
		c.Interfaces = append(c.Interfaces, "BackedEnum")
	} else {
		c.Interfaces = append(c.Interfaces, "UnitEnum")
	}
}

func (s *scanner) method(c *ClassLike, md *ast.MethodDeclaration, opts typeparse.Options) *Function {
	f := &Function{
		Name:       md.Name,
		Class:      c.Name,
		Span:       md.Span,
		Visibility: md.Visibility,
		Static:     md.Static,
		Abstract:   md.Abstract || c.IsInterface(),
		Final:      md.Final,
	}
	f.Templates = s.templates(md.Templates, f.Entity(), md.Span, &opts)
	f.Params = s.params(md.Params, opts)
	f.ReturnType = s.parseType(md.ReturnType, md.Span, opts)
	return f
}

func (s *scanner) function(fd *ast.FunctionDeclaration) {
	key := lower(fd.Name)
	if _, exists := s.meta.Functions[key]; exists {
		s.errs = append(s.errs, &DuplicateSymbolError{Kind: "function", Name: fd.Name, Span: fd.Span})
		return
	}
	f := &Function{Name: strings.TrimPrefix(fd.Name, `\`), Span: fd.Span}
	var opts typeparse.Options
	f.Templates = s.templates(fd.Templates, f.Entity(), fd.Span, &opts)
	f.Params = s.params(fd.Params, opts)
	f.ReturnType = s.parseType(fd.ReturnType, fd.Span, opts)
	s.meta.Functions[key] = f
}

func (s *scanner) params(decls []*ast.Parameter, opts typeparse.Options) []*Param {
	out := make([]*Param, 0, len(decls))
	for _, p := range decls {
		out = append(out, &Param{
			Name:       p.Name,
			Span:       p.Span,
			Type:       s.parseType(p.Type, p.Span, opts),
			OutType:    s.parseType(p.OutType, p.Span, opts),
			HasDefault: p.Default != nil,
			ByRef:      p.ByRef,
			Variadic:   p.Variadic,
		})
	}
	return out
}

// ScanParams parses closure and arrow function parameters. It is used by
// the analyzer, which knows the enclosing template scope.
func ScanParams(decls []*ast.Parameter, opts typeparse.Options) ([]*Param, []error) {
	s := &scanner{}
	ps := s.params(decls, opts)
	return ps, s.errs
}

func defaultType(e ast.Expression, self string) *typesystem.Union {
	if e == nil {
		return nil
	}
	return LiteralType(e, self)
}

// LiteralType infers the type of a constant expression: literals, arrays
// of literals and class constant references. Other expressions are mixed.
func LiteralType(e ast.Expression, self string) *typesystem.Union {
	switch v := e.(type) {
	case *ast.IntegerLiteral:
		return typesystem.LiteralInt(v.Value)
	case *ast.FloatLiteral:
		return typesystem.LiteralFloat(v.Value)
	case *ast.StringLiteral:
		return typesystem.LiteralString(v.Value)
	case *ast.BooleanLiteral:
		if v.Value {
			return typesystem.True()
		}
		return typesystem.False()
	case *ast.NullLiteral:
		return typesystem.Null()
	case *ast.UnaryExpression:
		if v.Operator == "-" {
			if i, ok := v.Operand.(*ast.IntegerLiteral); ok {
				return typesystem.LiteralInt(-i.Value)
			}
			if f, ok := v.Operand.(*ast.FloatLiteral); ok {
				return typesystem.LiteralFloat(-f.Value)
			}
		}
	case *ast.ClassConstantFetch:
		if strings.EqualFold(v.Constant, "class") {
			return typesystem.NewUnion(typesystem.TString{NonEmpty: true})
		}
		class := v.Class
		if strings.EqualFold(class, config.SelfKeyword) || strings.EqualFold(class, config.StaticKeyword) {
			class = self
		}
		return typesystem.NewUnion(typesystem.TReference{Symbol: strings.TrimPrefix(class, `\`), Member: v.Constant})
	case *ast.ArrayLiteral:
		return arrayLiteralType(v, self)
	}
	return typesystem.Mixed()
}

func arrayLiteralType(a *ast.ArrayLiteral, self string) *typesystem.Union {
	if len(a.Items) == 0 {
		return typesystem.NewUnion(typesystem.EmptyArray())
	}
	isList := true
	for _, it := range a.Items {
		if it.Key != nil || it.Spread {
			isList = false
			break
		}
	}
	if isList {
		l := typesystem.TList{Element: typesystem.Never(), KnownElements: map[int]typesystem.ListElement{}, NonEmpty: true}
		for i, it := range a.Items {
			l.KnownElements[i] = typesystem.ListElement{Type: LiteralType(it.Value, self)}
		}
		n := len(a.Items)
		l.KnownCount = &n
		return typesystem.NewUnion(l)
	}
	k := typesystem.TKeyedArray{NonEmpty: true}
	next := int64(0)
	for _, it := range a.Items {
		var key typesystem.ArrayKey
		switch kv := it.Key.(type) {
		case nil:
			if it.Spread {
				return typesystem.NewUnion(typesystem.NewNonEmptyArray(typesystem.ArrayKeyType(), typesystem.Mixed()))
			}
			key = typesystem.IntKey(next)
			next++
		case *ast.IntegerLiteral:
			key = typesystem.IntKey(kv.Value)
			if kv.Value >= next {
				next = kv.Value + 1
			}
		case *ast.StringLiteral:
			key = typesystem.StringKey(kv.Value)
		default:
			return typesystem.NewUnion(typesystem.NewNonEmptyArray(typesystem.ArrayKeyType(), typesystem.Mixed()))
		}
		k.KnownItems = setItem(k.KnownItems, typesystem.KeyedItem{Key: key, Type: LiteralType(it.Value, self)})
	}
	return typesystem.NewUnion(k)
}

func setItem(items []typesystem.KeyedItem, item typesystem.KeyedItem) []typesystem.KeyedItem {
	for i, it := range items {
		if it.Key == item.Key {
			items[i] = item
			return items
		}
	}
	return append(items, item)
}
