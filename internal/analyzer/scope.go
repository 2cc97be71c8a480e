package analyzer

import (
	"strings"

	"github.com/funvibe/flowcheck/internal/ast"
	"github.com/funvibe/flowcheck/internal/codebase"
	"github.com/funvibe/flowcheck/internal/config"
	"github.com/funvibe/flowcheck/internal/issue"
	"github.com/funvibe/flowcheck/internal/template"
	ts "github.com/funvibe/flowcheck/internal/typesystem"
	"github.com/funvibe/flowcheck/internal/typesystem/typeparse"
)

// scope is the declaration whose body is being walked.
type scope struct {
	self *codebase.ClassLike // nil outside a class
	fn   *codebase.Function  // nil for closures and top-level code
	// static is set in static methods and static closures: there is no $this.
	static bool

	// returnType is the declared return type, nil when undeclared.
	returnType *ts.Union
	// returns collects the returned types of a body without a declared type.
	returns []*ts.Union

	templates *template.Result
	typeOpts  typeparse.Options

	// referrer is the reference-graph key of the enclosing symbol.
	referrer string
	closure  bool
}

func (s *scope) selfName() string {
	if s.self == nil {
		return ""
	}
	return s.self.Name
}

func (s *scope) parentName() string {
	if s.self == nil {
		return ""
	}
	return s.self.Parent
}

// inConstructorOf reports whether the walker is inside the constructor
// declared by class.
func (s *scope) inConstructorOf(class string) bool {
	return s.fn != nil && !s.closure &&
		strings.EqualFold(s.fn.Class, class) &&
		strings.EqualFold(s.fn.Name, config.ConstructMethodName)
}

// thisType is the type of $this inside class: the class itself with its
// templates as parameters and the late static binding marker.
func thisType(c *codebase.ClassLike) ts.TNamedObject {
	t := ts.TNamedObject{Name: c.Name, IsThis: true}
	for _, tp := range c.Templates {
		t.TypeParams = append(t.TypeParams, ts.NewUnion(ts.TGenericParam{
			Name:           tp.Name,
			DefiningEntity: c.Name,
			As:             tp.As,
		}))
	}
	return t
}

// className resolves self, static and parent and checks that the class
// exists. It reports and returns false otherwise. isStatic is set for
// the static keyword.
func (w *walker) className(name string, span ast.Span) (resolved string, isStatic bool, ok bool) {
	switch strings.ToLower(name) {
	case config.SelfKeyword, config.StaticKeyword:
		if w.scope.self == nil {
			w.report(issue.New(issue.NonExistentClass, "%s used outside a class", name).
				At(span, "no enclosing class"))
			return "", false, false
		}
		return w.scope.self.Name, strings.EqualFold(name, config.StaticKeyword), true
	case config.ParentKeyword:
		if w.scope.parentName() == "" {
			w.report(issue.New(issue.InvalidParentReference, "parent used in a class without a parent").
				At(span, "no parent class"))
			return "", false, false
		}
		name = w.scope.parentName()
	}
	c, found := w.meta.Class(strings.TrimPrefix(name, `\`))
	if !found {
		w.report(issue.New(issue.NonExistentClass, "class %s does not exist", name).
			At(span, "unknown class"))
		return "", false, false
	}
	w.refs.AddClassReference(w.scope.referrer, c.Name)
	return c.Name, false, true
}

// canAccess reports whether a member declared in class with visibility v
// is visible from the current scope.
func (w *walker) canAccess(declaring string, v ast.Visibility) bool {
	self := w.scope.selfName()
	switch v {
	case ast.Public:
		return true
	case ast.Private:
		return self != "" && strings.EqualFold(self, declaring)
	default:
		return self != "" && (w.meta.IsInstanceOf(self, declaring) || w.meta.IsInstanceOf(declaring, self))
	}
}

// parseType parses a closure signature type in the current naming context.
func (w *walker) parseType(src string, span ast.Span) *ts.Union {
	if src == "" {
		return nil
	}
	u, err := typeparse.Parse(src, w.scope.typeOpts)
	if err != nil {
		w.report(issue.New(issue.InvalidTypeDeclaration, "invalid type %q", src).
			At(span, err.Error()))
		return ts.Mixed()
	}
	return u
}
