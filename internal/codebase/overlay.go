package codebase

import "github.com/funvibe/flowcheck/internal/typesystem"

// Overlay holds inferred facts learned while analyzing one unit: the
// types assigned to untyped properties and the return types of functions
// without a declared one. It is never shared, so the populated metadata
// underneath stays read-only.
type Overlay struct {
	meta          *Metadata
	propertyTypes map[string]*typesystem.Union // by PropertyKey
	returnTypes   map[string]*typesystem.Union // by Function.Key
}

// NewOverlay returns an empty overlay over meta.
func NewOverlay(meta *Metadata) *Overlay {
	return &Overlay{
		meta:          meta,
		propertyTypes: make(map[string]*typesystem.Union),
		returnTypes:   make(map[string]*typesystem.Union),
	}
}

// Metadata returns the shared metadata.
func (o *Overlay) Metadata() *Metadata { return o.meta }

// InferredPropertyType returns the union of the values assigned so far
// to an untyped property.
func (o *Overlay) InferredPropertyType(class, property string) (*typesystem.Union, bool) {
	u, ok := o.propertyTypes[PropertyKey(class, property)]
	return u, ok
}

// AddPropertyAssignment widens the inferred type of an untyped property.
func (o *Overlay) AddPropertyAssignment(class, property string, value *typesystem.Union) {
	key := PropertyKey(class, property)
	o.propertyTypes[key] = typesystem.AddOptionalUnionType(value, o.propertyTypes[key], o.meta)
}

// InferredReturnType returns the memoized return type of a function
// without a declared one.
func (o *Overlay) InferredReturnType(f *Function) (*typesystem.Union, bool) {
	u, ok := o.returnTypes[f.Key()]
	return u, ok
}

// SetInferredReturnType memoizes the return type inferred from a body.
func (o *Overlay) SetInferredReturnType(f *Function, u *typesystem.Union) {
	o.returnTypes[f.Key()] = u
}
