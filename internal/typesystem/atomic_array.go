package typesystem

import (
	"sort"
	"strconv"
	"strings"
)

// ArrayKey is a literal array key: an int or a string.
type ArrayKey struct {
	IsString bool
	Int      int64
	Str      string
}

// IntKey builds an integer key.
func IntKey(v int64) ArrayKey { return ArrayKey{Int: v} }

// StringKey builds a string key. Numeric-looking strings stay strings here;
// callers normalize "1" to 1 where the language does.
func StringKey(s string) ArrayKey { return ArrayKey{IsString: true, Str: s} }

func (k ArrayKey) String() string {
	if k.IsString {
		return strconv.Quote(k.Str)
	}
	return strconv.FormatInt(k.Int, 10)
}

// Atomic returns the literal type of the key.
func (k ArrayKey) Atomic() Atomic {
	if k.IsString {
		return TLiteralString{Value: k.Str}
	}
	return TLiteralInt{Value: k.Int}
}

// ListElement is a known element of a list shape.
type ListElement struct {
	Type     *Union
	Optional bool
}

// TList is a list (array with keys 0..n-1 in order).
//
// Element is the type of elements beyond the known ones; it is never when
// the list is exactly its known elements.
type TList struct {
	Element       *Union
	KnownElements map[int]ListElement
	// KnownCount is the exact number of elements when it is statically known.
	KnownCount *int
	NonEmpty   bool
}

// NewList returns list<element>.
func NewList(element *Union) TList {
	return TList{Element: element}
}

// NewNonEmptyList returns non-empty-list<element>.
func NewNonEmptyList(element *Union) TList {
	return TList{Element: element, NonEmpty: true}
}

// SortedIndexes returns the known element indexes in ascending order.
func (t TList) SortedIndexes() []int {
	idx := make([]int, 0, len(t.KnownElements))
	for i := range t.KnownElements {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	return idx
}

// HasRequiredElement reports whether some known element is not optional.
func (t TList) HasRequiredElement() bool {
	for _, e := range t.KnownElements {
		if !e.Optional {
			return true
		}
	}
	return false
}

// IsNonEmpty reports whether the list cannot be empty.
func (t TList) IsNonEmpty() bool {
	return t.NonEmpty || t.HasRequiredElement()
}

// IsSealed reports whether the list has no elements beyond the known ones.
func (t TList) IsSealed() bool {
	return t.Element == nil || t.Element.IsNever()
}

func (t TList) ID() string {
	if len(t.KnownElements) == 0 {
		elem := "never"
		if t.Element != nil {
			elem = t.Element.ID()
		}
		if t.NonEmpty {
			return "non-empty-list<" + elem + ">"
		}
		return "list<" + elem + ">"
	}
	idx := t.SortedIndexes()
	anyOptional := false
	for _, i := range idx {
		if t.KnownElements[i].Optional {
			anyOptional = true
		}
	}
	var sb strings.Builder
	if t.NonEmpty && !t.HasRequiredElement() {
		sb.WriteString("non-empty-")
	}
	sb.WriteString("list{")
	for n, i := range idx {
		if n > 0 {
			sb.WriteString(", ")
		}
		e := t.KnownElements[i]
		if anyOptional {
			sb.WriteString(strconv.Itoa(i))
			if e.Optional {
				sb.WriteString("?")
			}
			sb.WriteString(": ")
		}
		sb.WriteString(e.Type.ID())
	}
	if !t.IsSealed() {
		sb.WriteString(", ...<")
		sb.WriteString(t.Element.ID())
		sb.WriteString(">")
	}
	sb.WriteString("}")
	return sb.String()
}
func (TList) atomic() {}

// KeyedItem is a known entry of a keyed array shape.
type KeyedItem struct {
	Key      ArrayKey
	Type     *Union
	Optional bool
}

// KeyedParams are the generic key/value types of an unsealed keyed array.
type KeyedParams struct {
	Key   *Union
	Value *Union
}

// TKeyedArray is an array with arbitrary keys.
//
// KnownItems are kept in declaration order. Params is nil for a sealed
// shape, which has exactly its known items. A keyed array with neither
// known items nor params is the empty array.
type TKeyedArray struct {
	KnownItems []KeyedItem
	Params     *KeyedParams
	NonEmpty   bool
}

// NewArray returns array<key, value>.
func NewArray(key, value *Union) TKeyedArray {
	return TKeyedArray{Params: &KeyedParams{Key: key, Value: value}}
}

// NewNonEmptyArray returns non-empty-array<key, value>.
func NewNonEmptyArray(key, value *Union) TKeyedArray {
	return TKeyedArray{Params: &KeyedParams{Key: key, Value: value}, NonEmpty: true}
}

// EmptyArray returns the type of [].
func EmptyArray() TKeyedArray {
	return TKeyedArray{}
}

// Item returns the known item for key.
func (t TKeyedArray) Item(key ArrayKey) (KeyedItem, bool) {
	for _, it := range t.KnownItems {
		if it.Key == key {
			return it, true
		}
	}
	return KeyedItem{}, false
}

// IsSealed reports whether the shape has no entries beyond the known items.
func (t TKeyedArray) IsSealed() bool {
	return t.Params == nil
}

// IsEmpty reports whether the type is exactly the empty array.
func (t TKeyedArray) IsEmpty() bool {
	return len(t.KnownItems) == 0 && t.Params == nil
}

// HasRequiredItem reports whether some known item is not optional.
func (t TKeyedArray) HasRequiredItem() bool {
	for _, it := range t.KnownItems {
		if !it.Optional {
			return true
		}
	}
	return false
}

// IsNonEmpty reports whether the array cannot be empty.
func (t TKeyedArray) IsNonEmpty() bool {
	return t.NonEmpty || t.HasRequiredItem()
}

func (t TKeyedArray) ID() string {
	if len(t.KnownItems) == 0 {
		if t.Params == nil {
			return "array<never, never>"
		}
		prefix := "array<"
		if t.NonEmpty {
			prefix = "non-empty-array<"
		}
		return prefix + t.Params.Key.ID() + ", " + t.Params.Value.ID() + ">"
	}
	var sb strings.Builder
	if t.NonEmpty && !t.HasRequiredItem() {
		sb.WriteString("non-empty-")
	}
	sb.WriteString("array{")
	for i, it := range t.KnownItems {
		if i > 0 {
			sb.WriteString(", ")
		}
		if it.Key.IsString {
			sb.WriteString("'" + it.Key.Str + "'")
		} else {
			sb.WriteString(strconv.FormatInt(it.Key.Int, 10))
		}
		if it.Optional {
			sb.WriteString("?")
		}
		sb.WriteString(": ")
		sb.WriteString(it.Type.ID())
	}
	if t.Params != nil {
		sb.WriteString(", ...")
		if !(isArrayKeyUnion(t.Params.Key) && t.Params.Value.IsMixed()) {
			sb.WriteString("<")
			sb.WriteString(t.Params.Key.ID())
			sb.WriteString(", ")
			sb.WriteString(t.Params.Value.ID())
			sb.WriteString(">")
		}
	}
	sb.WriteString("}")
	return sb.String()
}
func (TKeyedArray) atomic() {}

func isArrayKeyUnion(u *Union) bool {
	if len(u.Types) != 1 {
		return false
	}
	_, ok := u.Types[0].(TArrayKey)
	return ok
}

// ListAsKeyed converts a list into the equivalent keyed array form.
func ListAsKeyed(l TList) TKeyedArray {
	out := TKeyedArray{NonEmpty: l.NonEmpty}
	for _, i := range l.SortedIndexes() {
		e := l.KnownElements[i]
		out.KnownItems = append(out.KnownItems, KeyedItem{Key: IntKey(int64(i)), Type: e.Type, Optional: e.Optional})
	}
	if !l.IsSealed() {
		out.Params = &KeyedParams{Key: NewUnion(TIntRange{Min: IntPtr(0)}), Value: l.Element}
	}
	return out
}

// KeyedAsList converts a keyed array into a list when its known keys are
// exactly 0..n-1 (optional keys only at the tail) and it has no generic
// tail. The second result is false when no list view exists.
func KeyedAsList(k TKeyedArray) (TList, bool) {
	if k.Params != nil {
		return TList{}, false
	}
	elems := make(map[int]ListElement, len(k.KnownItems))
	for _, it := range k.KnownItems {
		if it.Key.IsString || it.Key.Int < 0 || it.Key.Int >= int64(len(k.KnownItems)) {
			return TList{}, false
		}
		elems[int(it.Key.Int)] = ListElement{Type: it.Type, Optional: it.Optional}
	}
	if len(elems) != len(k.KnownItems) {
		return TList{}, false
	}
	seenOptional := false
	for i := 0; i < len(elems); i++ {
		e, ok := elems[i]
		if !ok {
			return TList{}, false
		}
		if e.Optional {
			seenOptional = true
		} else if seenOptional {
			return TList{}, false
		}
	}
	l := TList{Element: Never(), NonEmpty: k.NonEmpty}
	if len(elems) > 0 {
		l.KnownElements = elems
	}
	return l, true
}

// IsArrayAtomic reports whether the atomic is a list or keyed array.
func IsArrayAtomic(a Atomic) bool {
	switch a.(type) {
	case TList, TKeyedArray:
		return true
	}
	return false
}
