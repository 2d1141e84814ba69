package domain

import (
	"encoding/json"
	"fmt"
	"reflect"

	"epages-rest-layer/internal/codec"
)

// IDAttribute is the wire name of a resource identifier.
const IDAttribute = "id"

// PatchOp is the JSON-Patch operation kind.
type PatchOp string

const (
	OpAdd     PatchOp = "add"
	OpReplace PatchOp = "replace"
)

// Change records one attribute modified since the last sync.
type Change struct {
	Name string
	Op   PatchOp
}

// Entity is the state every hydratable record embeds.
type Entity struct {
	ID string

	persisted bool
	deleted   bool
	changes   []Change
	extra     map[string]json.RawMessage
}

// IsNew reports whether the record has not been persisted yet.
func (e *Entity) IsNew() bool { return !e.persisted }

// IsActive is false once the record was deleted remotely.
func (e *Entity) IsActive() bool { return !e.deleted }

// MarkPersisted flags the record as existing on the server.
func (e *Entity) MarkPersisted() { e.persisted = true }

// MarkDeleted flags the record as deleted; it stays readable in memory.
func (e *Entity) MarkDeleted() { e.deleted = true }

// Extra returns an attribute the server sent that the schema does not map.
func (e *Entity) Extra(name string) (json.RawMessage, bool) {
	v, ok := e.extra[name]
	return v, ok
}

// Extras returns a copy of all unmapped attributes.
func (e *Entity) Extras() map[string]json.RawMessage {
	out := make(map[string]json.RawMessage, len(e.extra))
	for k, v := range e.extra {
		out[k] = v
	}
	return out
}

func (e *Entity) setExtra(name string, raw json.RawMessage) {
	if e.extra == nil {
		e.extra = make(map[string]json.RawMessage)
	}
	e.extra[name] = append(json.RawMessage(nil), raw...)
}

// Touch records a change of name. The first recorded op wins until the
// changes are cleared, so a field set twice keeps its original add/replace.
func (e *Entity) Touch(name string, wasEmpty bool) {
	for _, c := range e.changes {
		if c.Name == name {
			return
		}
	}
	op := OpReplace
	if wasEmpty {
		op = OpAdd
	}
	e.changes = append(e.changes, Change{Name: name, Op: op})
}

// Changes returns the attributes changed since the last sync, in order.
func (e *Entity) Changes() []Change {
	return append([]Change(nil), e.changes...)
}

// ClearChanges forgets pending changes.
func (e *Entity) ClearChanges() { e.changes = nil }

// assign sets *dst and records the change on e.
func assign[V any](e *Entity, name string, dst *V, v V) {
	wasEmpty := isZero(*dst)
	*dst = v
	e.Touch(name, wasEmpty)
}

func isZero(v any) bool {
	if v == nil {
		return true
	}
	return reflect.ValueOf(v).IsZero()
}

// Field maps one wire attribute onto a typed Go field.
type Field[T any] struct {
	Name      string
	Creatable bool

	get    func(*T) any
	decode func(json.RawMessage) (func(*T), error)
}

// Attr declares the attribute name stored at the field returned by ptr.
// Nested records and lists are decoded through their Go types; null clears
// the field.
func Attr[T, V any](name string, ptr func(*T) *V) Field[T] {
	return Field[T]{
		Name: name,
		get:  func(t *T) any { return *ptr(t) },
		decode: func(raw json.RawMessage) (func(*T), error) {
			var v V
			if string(raw) != "null" {
				if err := json.Unmarshal(raw, &v); err != nil {
					return nil, fmt.Errorf("attribute %q: %w", name, err)
				}
			}
			return func(t *T) { *ptr(t) = v }, nil
		},
	}
}

// AsCreatable marks the field as part of the creation payload.
func (f Field[T]) AsCreatable() Field[T] {
	f.Creatable = true
	return f
}

// Get returns the current field value.
func (f Field[T]) Get(t *T) any { return f.get(t) }

// Set decodes raw into the field. On error the field is left untouched.
func (f Field[T]) Set(t *T, raw json.RawMessage) error {
	apply, err := f.decode(raw)
	if err != nil {
		return err
	}
	apply(t)
	return nil
}

// IsEmpty reports whether the field holds its zero value.
func (f Field[T]) IsEmpty(t *T) bool { return isZero(f.get(t)) }

// Schema describes how a record type maps onto a REST resource.
type Schema[T any] struct {
	Path    string    // collection path, e.g. "products"
	Methods MethodSet // verbs the resource accepts
	Fields  []Field[T]
	New     func() *T
	Base    func(*T) *Entity
}

// Field looks up a field by wire name.
func (s *Schema[T]) Field(name string) (Field[T], bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field[T]{}, false
}

// Hydrate writes a JSON object onto obj. Mapped attributes go to their typed
// fields, "id" to the entity, everything else into the passthrough bag.
// Every value is decoded before obj is touched, so a failed hydrate leaves obj
// as it was. It returns the object's keys in wire order.
func (s *Schema[T]) Hydrate(obj *T, raw []byte) ([]string, error) {
	return s.hydrate(obj, raw, false)
}

// Replace is Hydrate for a complete server representation: passthrough
// attributes from earlier responses are dropped first.
func (s *Schema[T]) Replace(obj *T, raw []byte) ([]string, error) {
	return s.hydrate(obj, raw, true)
}

func (s *Schema[T]) hydrate(obj *T, raw []byte, replace bool) ([]string, error) {
	keys, err := codec.ObjectKeys(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s object: %w", s.Path, err)
	}
	var values map[string]json.RawMessage
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, fmt.Errorf("failed to decode %s object: %w", s.Path, err)
	}

	var (
		id      *string
		applies []func(*T)
		extras  []string
	)
	for _, key := range keys {
		value := values[key]
		if key == IDAttribute {
			v, err := decodeID(value)
			if err != nil {
				return nil, err
			}
			id = &v
			continue
		}
		if f, ok := s.Field(key); ok {
			apply, err := f.decode(value)
			if err != nil {
				return nil, err
			}
			applies = append(applies, apply)
			continue
		}
		extras = append(extras, key)
	}

	base := s.Base(obj)
	if replace {
		base.extra = nil
	}
	if id != nil {
		base.ID = *id
	}
	for _, apply := range applies {
		apply(obj)
	}
	for _, key := range extras {
		base.setExtra(key, values[key])
	}
	return keys, nil
}

// CreatePayload projects obj onto its creatable, non-empty fields.
func (s *Schema[T]) CreatePayload(obj *T) map[string]any {
	payload := make(map[string]any)
	for _, f := range s.Fields {
		if f.Creatable && !f.IsEmpty(obj) {
			payload[f.Name] = f.Get(obj)
		}
	}
	return payload
}

// Document renders obj back into its wire form: id, passthrough attributes
// and every non-empty mapped field.
func (s *Schema[T]) Document(obj *T) map[string]any {
	base := s.Base(obj)
	doc := make(map[string]any, len(s.Fields)+1)
	for k, v := range base.Extras() {
		doc[k] = v
	}
	if base.ID != "" {
		doc[IDAttribute] = base.ID
	}
	for _, f := range s.Fields {
		if !f.IsEmpty(obj) {
			doc[f.Name] = f.Get(obj)
		}
	}
	return doc
}

func decodeID(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("attribute %q: %w", IDAttribute, err)
	}
	return n.String(), nil
}
