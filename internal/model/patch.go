package model

import "encoding/json"

// Patch is a JSON field in a partial-update payload.
//
// encoding/json cannot tell a missing key from an explicit null when the
// target is a plain pointer. Patch can, because UnmarshalJSON only runs when
// the key is present in the object (including when its value is null):
//
//	{}               → Set=false, Value=nil
//	{"nome": null}   → Set=true,  Value=nil
//	{"nome": "Ana"}  → Set=true,  Value=&"Ana"
type Patch[T any] struct {
	Set   bool
	Value *T
}

// Some returns a Patch that carries v.
func Some[T any](v T) Patch[T] {
	return Patch[T]{Set: true, Value: &v}
}

// Null returns a Patch that was sent as JSON null.
func Null[T any]() Patch[T] {
	return Patch[T]{Set: true}
}

func (p *Patch[T]) UnmarshalJSON(data []byte) error {
	p.Set = true
	if string(data) == "null" {
		p.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	p.Value = &v
	return nil
}

// IsNull reports whether the field was sent as null.
func (p Patch[T]) IsNull() bool {
	return p.Set && p.Value == nil
}
