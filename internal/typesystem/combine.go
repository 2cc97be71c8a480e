package typesystem

import (
	"sort"
	"strings"

	"github.com/funvibe/flowcheck/internal/config"
)

// CombineUnionTypes returns the union of a and b.
//
// never is the identity: combining it with X yields X unchanged. When
// negotiateLiterals is set, literal scalars collapse into their general
// type once more distinct literals than the configured threshold would
// accumulate. Flags of the operands are or-ed.
func CombineUnionTypes(a, b *Union, cb Codebase, negotiateLiterals bool) *Union {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}

	// never is the identity for atomics; its flow flags still carry over.
	var res *Union
	switch {
	case a.IsNever():
		res = b.Clone()
	case b.IsNever():
		res = a.Clone()
	case a.ID() == b.ID():
		res = a.Clone()
	default:
		types := make([]Atomic, 0, len(a.Types)+len(b.Types))
		types = append(types, a.Types...)
		types = append(types, b.Types...)
		res = NewUnion(Combine(types, cb, negotiateLiterals)...)
	}
	res.IgnoreNullableIssues = a.IgnoreNullableIssues || b.IgnoreNullableIssues
	res.IgnoreFalsableIssues = a.IgnoreFalsableIssues || b.IgnoreFalsableIssues
	res.HadTemplate = a.HadTemplate || b.HadTemplate
	res.FromTemplateDefault = a.FromTemplateDefault || b.FromTemplateDefault
	res.PossiblyUndefined = a.PossiblyUndefined || b.PossiblyUndefined
	res.PossiblyUndefinedFromTry = a.PossiblyUndefinedFromTry || b.PossiblyUndefinedFromTry
	return res
}

// AddOptionalUnionType combines newType into an existing type that may be
// absent. An absent existing type behaves as never.
func AddOptionalUnionType(newType, existing *Union, cb Codebase) *Union {
	if existing == nil {
		return newType
	}
	return CombineUnionTypes(newType, existing, cb, true)
}

// CombineUnions folds CombineUnionTypes over several unions. Nil entries
// are skipped; no entries yield never.
func CombineUnions(cb Codebase, negotiateLiterals bool, unions ...*Union) *Union {
	var res *Union
	for _, u := range unions {
		if u == nil {
			continue
		}
		res = CombineUnionTypes(res, u, cb, negotiateLiterals)
	}
	if res == nil {
		return Never()
	}
	return res
}

type family int

const (
	famGeneric family = iota
	famMixed
	famNull
	famVoid
	famBool
	famInt
	famFloat
	famString
	famArrayKey
	famNumeric
	famScalar
	famArray
	famObject
	famNamed
	famEnum
	famOther
)

type enumEntry struct {
	name  string
	whole bool
	cases []string
	seen  map[string]bool
}

type combination struct {
	cb        Codebase
	negotiate bool

	order      []family
	seenFamily map[family]bool

	mixed         bool
	mixedNonNull  bool
	mixedTruth    Truthiness
	mixedMixedTr  bool
	issetFromLoop bool

	hasNull, hasVoid           bool
	hasBool, hasTrue, hasFalse bool

	generalInt bool
	intLits    []int64
	intLitSet  map[int64]bool
	intRanges  []TIntRange

	generalFloat bool
	floatLits    []float64
	floatLitSet  map[float64]bool

	generalStrings []TString
	stringLits     []string
	stringLitSet   map[string]bool

	arrayKey, numeric, scalar bool

	list  *TList
	keyed *TKeyedArray

	anyObject bool
	named     []TNamedObject
	namedIdx  map[string]int

	enums   []*enumEntry
	enumIdx map[string]*enumEntry

	generics   []TGenericParam
	genericIdx map[string]int

	others   []Atomic
	otherIdx map[string]bool
}

// Combine merges atomics into a minimal equivalent list, keeping the order
// in which the kinds of types first appeared.
func Combine(types []Atomic, cb Codebase, negotiateLiterals bool) []Atomic {
	if len(types) == 0 {
		return []Atomic{TNever{}}
	}
	if len(types) == 1 {
		return types
	}
	c := &combination{
		cb:           cb,
		negotiate:    negotiateLiterals,
		seenFamily:   make(map[family]bool),
		mixedNonNull: true,
		intLitSet:    make(map[int64]bool),
		floatLitSet:  make(map[float64]bool),
		stringLitSet: make(map[string]bool),
		namedIdx:     make(map[string]int),
		enumIdx:      make(map[string]*enumEntry),
		genericIdx:   make(map[string]int),
		otherIdx:     make(map[string]bool),
	}
	for _, t := range types {
		c.add(t)
	}
	return c.result()
}

func (c *combination) mark(f family) {
	if !c.seenFamily[f] {
		c.seenFamily[f] = true
		c.order = append(c.order, f)
	}
}

func (c *combination) add(t Atomic) {
	switch t := t.(type) {
	case TNever:
		// identity
	case TMixed:
		c.mark(famMixed)
		if c.mixed {
			if c.mixedTruth != t.Truthiness {
				c.mixedMixedTr = true
			}
		} else {
			c.mixedTruth = t.Truthiness
		}
		c.mixed = true
		if !t.NonNull && t.Truthiness != TruthinessTruthy {
			c.mixedNonNull = false
		}
		if t.IssetFromLoop {
			c.issetFromLoop = true
		}
	case TNull:
		c.mark(famNull)
		c.hasNull = true
	case TVoid:
		c.mark(famVoid)
		c.hasVoid = true
	case TBool:
		c.mark(famBool)
		c.hasBool = true
	case TTrue:
		c.mark(famBool)
		c.hasTrue = true
	case TFalse:
		c.mark(famBool)
		c.hasFalse = true
	case TInt:
		c.mark(famInt)
		c.generalInt = true
	case TLiteralInt:
		c.mark(famInt)
		if !c.intLitSet[t.Value] {
			c.intLitSet[t.Value] = true
			c.intLits = append(c.intLits, t.Value)
		}
	case TIntRange:
		c.mark(famInt)
		if t.IsUnbounded() {
			c.generalInt = true
		} else {
			c.intRanges = append(c.intRanges, t)
		}
	case TFloat:
		c.mark(famFloat)
		c.generalFloat = true
	case TLiteralFloat:
		c.mark(famFloat)
		if !c.floatLitSet[t.Value] {
			c.floatLitSet[t.Value] = true
			c.floatLits = append(c.floatLits, t.Value)
		}
	case TString:
		c.mark(famString)
		c.generalStrings = append(c.generalStrings, t.normalized())
	case TLiteralString:
		c.mark(famString)
		if !c.stringLitSet[t.Value] {
			c.stringLitSet[t.Value] = true
			c.stringLits = append(c.stringLits, t.Value)
		}
	case TArrayKey:
		c.mark(famArrayKey)
		c.arrayKey = true
	case TNumeric:
		c.mark(famNumeric)
		c.numeric = true
	case TScalar:
		c.mark(famScalar)
		c.scalar = true
	case TList:
		c.mark(famArray)
		c.addList(t)
	case TKeyedArray:
		c.mark(famArray)
		c.addKeyed(t)
	case TObject:
		c.mark(famObject)
		c.anyObject = true
	case TNamedObject:
		c.mark(famNamed)
		c.addNamed(t)
	case TEnum:
		c.mark(famEnum)
		c.addEnum(t)
	case TGenericParam:
		c.mark(famGeneric)
		key := t.Key()
		if idx, ok := c.genericIdx[key]; ok {
			existing := c.generics[idx]
			existing.As = CombineUnionTypes(existing.As, t.As, c.cb, c.negotiate)
			c.generics[idx] = existing
		} else {
			c.genericIdx[key] = len(c.generics)
			c.generics = append(c.generics, t)
		}
	default:
		c.mark(famOther)
		id := t.ID()
		if !c.otherIdx[id] {
			c.otherIdx[id] = true
			c.others = append(c.others, t)
		}
	}
}

func (c *combination) addList(l TList) {
	if c.keyed != nil {
		if c.keyed.IsEmpty() {
			merged := emptyIntoList(l)
			c.keyed = nil
			c.list = &merged
			return
		}
		merged := c.combineKeyed(*c.keyed, ListAsKeyed(l))
		c.keyed = &merged
		return
	}
	if c.list == nil {
		c.list = &l
		return
	}
	merged := c.combineLists(*c.list, l)
	c.list = &merged
}

func (c *combination) addKeyed(k TKeyedArray) {
	if c.list != nil {
		if k.IsEmpty() {
			merged := emptyIntoList(*c.list)
			c.list = &merged
			return
		}
		merged := c.combineKeyed(ListAsKeyed(*c.list), k)
		c.list = nil
		c.keyed = &merged
		return
	}
	if c.keyed == nil {
		c.keyed = &k
		return
	}
	merged := c.combineKeyed(*c.keyed, k)
	c.keyed = &merged
}

// emptyIntoList widens a list so it also admits the empty array.
func emptyIntoList(l TList) TList {
	out := TList{Element: l.Element}
	if len(l.KnownElements) > 0 {
		out.KnownElements = make(map[int]ListElement, len(l.KnownElements))
		for i, e := range l.KnownElements {
			out.KnownElements[i] = ListElement{Type: e.Type, Optional: true}
		}
	}
	return out
}

func orNever(u *Union) *Union {
	if u == nil {
		return Never()
	}
	return u
}

func (c *combination) combineLists(a, b TList) TList {
	out := TList{
		Element:  CombineUnionTypes(orNever(a.Element), orNever(b.Element), c.cb, c.negotiate),
		NonEmpty: a.IsNonEmpty() && b.IsNonEmpty(),
	}
	if a.KnownCount != nil && b.KnownCount != nil && *a.KnownCount == *b.KnownCount {
		out.KnownCount = a.KnownCount
	}
	if len(a.KnownElements) == 0 && len(b.KnownElements) == 0 {
		return out
	}
	out.KnownElements = make(map[int]ListElement)
	for i, ea := range a.KnownElements {
		if eb, ok := b.KnownElements[i]; ok {
			out.KnownElements[i] = ListElement{
				Type:     CombineUnionTypes(ea.Type, eb.Type, c.cb, c.negotiate),
				Optional: ea.Optional || eb.Optional,
			}
			continue
		}
		typ := ea.Type
		if !b.IsSealed() {
			typ = CombineUnionTypes(typ, b.Element, c.cb, c.negotiate)
		}
		out.KnownElements[i] = ListElement{Type: typ, Optional: true}
	}
	for i, eb := range b.KnownElements {
		if _, ok := a.KnownElements[i]; ok {
			continue
		}
		typ := eb.Type
		if !a.IsSealed() {
			typ = CombineUnionTypes(typ, a.Element, c.cb, c.negotiate)
		}
		out.KnownElements[i] = ListElement{Type: typ, Optional: true}
	}
	return out
}

func (c *combination) combineKeyed(a, b TKeyedArray) TKeyedArray {
	out := TKeyedArray{NonEmpty: a.IsNonEmpty() && b.IsNonEmpty()}
	for _, ia := range a.KnownItems {
		if ib, ok := b.Item(ia.Key); ok {
			out.KnownItems = append(out.KnownItems, KeyedItem{
				Key:      ia.Key,
				Type:     CombineUnionTypes(ia.Type, ib.Type, c.cb, c.negotiate),
				Optional: ia.Optional || ib.Optional,
			})
			continue
		}
		typ := ia.Type
		if b.Params != nil {
			typ = CombineUnionTypes(typ, b.Params.Value, c.cb, c.negotiate)
		}
		out.KnownItems = append(out.KnownItems, KeyedItem{Key: ia.Key, Type: typ, Optional: true})
	}
	for _, ib := range b.KnownItems {
		if _, ok := a.Item(ib.Key); ok {
			continue
		}
		typ := ib.Type
		if a.Params != nil {
			typ = CombineUnionTypes(typ, a.Params.Value, c.cb, c.negotiate)
		}
		out.KnownItems = append(out.KnownItems, KeyedItem{Key: ib.Key, Type: typ, Optional: true})
	}
	switch {
	case a.Params != nil && b.Params != nil:
		out.Params = &KeyedParams{
			Key:   CombineUnionTypes(a.Params.Key, b.Params.Key, c.cb, c.negotiate),
			Value: CombineUnionTypes(a.Params.Value, b.Params.Value, c.cb, c.negotiate),
		}
	case a.Params != nil:
		out.Params = a.Params
	case b.Params != nil:
		out.Params = b.Params
	}
	return out
}

func namedKey(n TNamedObject) string {
	var sb strings.Builder
	sb.WriteString(strings.ToLower(n.Name))
	if n.IsThis {
		sb.WriteString("&static")
	}
	for _, it := range n.Intersections {
		sb.WriteString("&")
		sb.WriteString(it.ID())
	}
	return sb.String()
}

func (c *combination) addNamed(n TNamedObject) {
	key := namedKey(n)
	idx, ok := c.namedIdx[key]
	if !ok {
		c.namedIdx[key] = len(c.named)
		c.named = append(c.named, n)
		return
	}
	existing := c.named[idx]
	switch {
	case len(existing.TypeParams) == 0 || len(n.TypeParams) == 0:
		// a raw generic class absorbs its parameterized forms
		existing.TypeParams = nil
	case len(existing.TypeParams) == len(n.TypeParams):
		params := make([]*Union, len(n.TypeParams))
		for i := range params {
			params[i] = CombineUnionTypes(existing.TypeParams[i], n.TypeParams[i], c.cb, c.negotiate)
		}
		existing.TypeParams = params
	}
	c.named[idx] = existing
}

func (c *combination) addEnum(e TEnum) {
	key := strings.ToLower(e.Name)
	entry, ok := c.enumIdx[key]
	if !ok {
		entry = &enumEntry{name: e.Name, seen: make(map[string]bool)}
		c.enumIdx[key] = entry
		c.enums = append(c.enums, entry)
	}
	if e.Case == "" {
		entry.whole = true
		return
	}
	if !entry.seen[e.Case] {
		entry.seen[e.Case] = true
		entry.cases = append(entry.cases, e.Case)
	}
}

func (c *combination) result() []Atomic {
	if c.mixed {
		m := TMixed{IssetFromLoop: c.issetFromLoop}
		onlyMixed := len(c.order) == 1
		m.NonNull = c.mixedNonNull && !c.hasNull && !c.hasVoid
		if onlyMixed && !c.mixedMixedTr {
			m.Truthiness = c.mixedTruth
		}
		if m.Truthiness == TruthinessFalsy {
			m.NonNull = false
		}
		return []Atomic{m}
	}

	onlyVoid := len(c.order) == 1 && c.hasVoid
	var out []Atomic
	for _, f := range c.order {
		switch f {
		case famGeneric:
			for _, g := range c.generics {
				out = append(out, g)
			}
		case famVoid:
			if onlyVoid {
				out = append(out, TVoid{})
			} else if !c.hasNull {
				out = append(out, TNull{})
			}
		case famNull:
			out = append(out, TNull{})
		case famBool:
			if c.scalar {
				continue
			}
			switch {
			case c.hasBool || (c.hasTrue && c.hasFalse):
				out = append(out, TBool{})
			case c.hasTrue:
				out = append(out, TTrue{})
			case c.hasFalse:
				out = append(out, TFalse{})
			}
		case famInt:
			if c.scalar || c.arrayKey || c.numeric {
				continue
			}
			out = append(out, c.intResult()...)
		case famFloat:
			if c.scalar || c.numeric {
				continue
			}
			if c.generalFloat || (c.negotiate && len(c.floatLits) > config.LiteralFloatThreshold) {
				out = append(out, TFloat{})
				continue
			}
			for _, v := range c.floatLits {
				out = append(out, TLiteralFloat{Value: v})
			}
		case famString:
			if c.scalar || c.arrayKey {
				continue
			}
			out = append(out, c.stringResult()...)
		case famArrayKey:
			if c.scalar {
				continue
			}
			out = append(out, TArrayKey{})
		case famNumeric:
			if c.scalar {
				continue
			}
			out = append(out, TNumeric{})
		case famScalar:
			out = append(out, TScalar{})
		case famArray:
			if c.list != nil {
				out = append(out, *c.list)
			} else if c.keyed != nil {
				out = append(out, *c.keyed)
			}
		case famObject:
			out = append(out, TObject{})
		case famNamed:
			if c.anyObject {
				continue
			}
			for _, n := range c.named {
				out = append(out, n)
			}
		case famEnum:
			if c.anyObject {
				continue
			}
			out = append(out, c.enumResult()...)
		case famOther:
			out = append(out, c.others...)
		}
	}
	if len(out) == 0 {
		return []Atomic{TNever{}}
	}
	return out
}

func (c *combination) intResult() []Atomic {
	if c.generalInt || (c.negotiate && len(c.intLits) > config.LiteralIntegerThreshold) {
		return []Atomic{TInt{}}
	}
	var out []Atomic
	var hull *TIntRange
	for _, r := range c.intRanges {
		if hull == nil {
			h := r
			hull = &h
			continue
		}
		if hull.Min != nil && (r.Min == nil || *r.Min < *hull.Min) {
			hull.Min = r.Min
		}
		if hull.Max != nil && (r.Max == nil || *r.Max > *hull.Max) {
			hull.Max = r.Max
		}
	}
	if hull != nil {
		if hull.IsUnbounded() {
			return []Atomic{TInt{}}
		}
		out = append(out, *hull)
	}
	for _, v := range c.intLits {
		if hull != nil && hull.Contains(v) {
			continue
		}
		out = append(out, TLiteralInt{Value: v})
	}
	return out
}

func (c *combination) stringResult() []Atomic {
	collapse := len(c.generalStrings) > 0 ||
		(c.negotiate && len(c.stringLits) > config.LiteralStringThreshold)
	if !collapse {
		out := make([]Atomic, len(c.stringLits))
		for i, v := range c.stringLits {
			out[i] = TLiteralString{Value: v}
		}
		return out
	}
	flags := TString{Numeric: true, Truthy: true, NonEmpty: true, Lowercase: true}
	and := func(o TString) {
		o = o.normalized()
		flags.Numeric = flags.Numeric && o.Numeric
		flags.Truthy = flags.Truthy && o.Truthy
		flags.NonEmpty = flags.NonEmpty && o.NonEmpty
		flags.Lowercase = flags.Lowercase && o.Lowercase
	}
	for _, s := range c.generalStrings {
		and(s)
	}
	for _, v := range c.stringLits {
		and(TLiteralString{Value: v}.Flags())
	}
	if flags.Numeric {
		// numeric-string does not carry the other refinements
		flags = TString{Numeric: true, NonEmpty: true}
	}
	return []Atomic{flags}
}

func (c *combination) enumResult() []Atomic {
	var out []Atomic
	for _, e := range c.enums {
		if e.whole || c.coversAllCases(e) {
			out = append(out, TEnum{Name: e.name})
			continue
		}
		for _, cs := range e.cases {
			out = append(out, TEnum{Name: e.name, Case: cs})
		}
	}
	return out
}

func (c *combination) coversAllCases(e *enumEntry) bool {
	if c.cb == nil {
		return false
	}
	all := c.cb.EnumCases(e.name)
	if len(all) == 0 || len(all) != len(e.cases) {
		return false
	}
	for _, cs := range all {
		if !e.seen[cs] {
			return false
		}
	}
	return true
}

// SortAtomicsByID sorts atomics in place by their ID. Used where output
// must not depend on insertion order.
func SortAtomicsByID(types []Atomic) {
	sort.Slice(types, func(i, j int) bool { return types[i].ID() < types[j].ID() })
}
