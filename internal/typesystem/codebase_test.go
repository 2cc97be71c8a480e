package typesystem

import (
	"strings"
	"testing"
)

// fakeCodebase is a minimal in-memory Codebase for comparator tests.
type fakeCodebase struct {
	parents    map[string][]string
	interfaces map[string]bool
	finals     map[string]bool
	enums      map[string][]string
	templates  map[string][]string
	extended   map[string][]*Union
	callables  map[string]*CallableSignature
}

func newFakeCodebase() *fakeCodebase {
	return &fakeCodebase{
		parents:    map[string][]string{},
		interfaces: map[string]bool{},
		finals:     map[string]bool{},
		enums:      map[string][]string{},
		templates:  map[string][]string{},
		extended:   map[string][]*Union{},
		callables:  map[string]*CallableSignature{},
	}
}

func (f *fakeCodebase) extends(child string, parents ...string) *fakeCodebase {
	key := strings.ToLower(child)
	for _, p := range parents {
		f.parents[key] = append(f.parents[key], strings.ToLower(p))
	}
	return f
}

func (f *fakeCodebase) ClassLikeExists(name string) bool {
	key := strings.ToLower(name)
	_, ok := f.parents[key]
	return ok || f.interfaces[key] || f.enums[key] != nil
}

func (f *fakeCodebase) IsInterface(name string) bool { return f.interfaces[strings.ToLower(name)] }
func (f *fakeCodebase) IsEnum(name string) bool      { return f.enums[strings.ToLower(name)] != nil }
func (f *fakeCodebase) IsFinalClass(name string) bool {
	return f.finals[strings.ToLower(name)]
}

func (f *fakeCodebase) IsInstanceOf(child, parent string) bool {
	child, parent = strings.ToLower(child), strings.ToLower(parent)
	if child == parent {
		return true
	}
	for _, p := range f.parents[child] {
		if f.IsInstanceOf(p, parent) {
			return true
		}
	}
	return false
}

func (f *fakeCodebase) EnumCases(name string) []string { return f.enums[strings.ToLower(name)] }

func (f *fakeCodebase) ClassTemplateNames(name string) []string {
	return f.templates[strings.ToLower(name)]
}

func (f *fakeCodebase) TemplateExtendedParams(child, ancestor string) ([]*Union, bool) {
	p, ok := f.extended[strings.ToLower(child)+">"+strings.ToLower(ancestor)]
	return p, ok
}

func (f *fakeCodebase) CallableForAlias(alias CallableAlias) (*CallableSignature, bool) {
	sig, ok := f.callables[strings.ToLower(alias.String())]
	return sig, ok
}

func TestObjectParamsFor(t *testing.T) {
	cb := newFakeCodebase()
	cb.templates["box"] = []string{"T"}
	cb.templates["pairbox"] = []string{"K", "V"}
	cb.extends("PairBox", "Box")
	// PairBox<K, V> extends Box<V>
	cb.extended["pairbox>box"] = []*Union{
		NewUnion(TGenericParam{Name: "V", DefiningEntity: "PairBox", As: Mixed()}),
	}

	obj := TNamedObject{Name: "PairBox", TypeParams: []*Union{String(), Int()}}
	params, ok := ObjectParamsFor(cb, obj, "Box")
	if !ok {
		t.Fatalf("ObjectParamsFor(PairBox<string, int>, Box) not found")
	}
	if len(params) != 1 || params[0].ID() != "int" {
		t.Errorf("ObjectParamsFor = %v, want [int]", params)
	}

	if _, ok := ObjectParamsFor(cb, TNamedObject{Name: "Other"}, "Box"); ok {
		t.Errorf("ObjectParamsFor(Other, Box) should fail")
	}

	same, ok := ObjectParamsFor(cb, TNamedObject{Name: "box", TypeParams: []*Union{Int()}}, "Box")
	if !ok || same[0].ID() != "int" {
		t.Errorf("ObjectParamsFor on the class itself = %v, %v", same, ok)
	}
}
