package textutil

import (
	"bytes"
	"encoding/json"
)

// Object is a JSON object that keeps its keys in insertion order
type Object struct {
	Keys   []string
	Values map[string]any
}

// NewObject returns an empty object with room for n keys
func NewObject(n int) *Object {
	return &Object{
		Keys:   make([]string, 0, n),
		Values: make(map[string]any, n),
	}
}

// Set stores value under key. A new key goes last, an existing key keeps its place.
func (o *Object) Set(key string, value any) {
	if _, ok := o.Values[key]; !ok {
		o.Keys = append(o.Keys, key)
	}
	o.Values[key] = value
}

// Get returns the value stored under key
func (o *Object) Get(key string) (any, bool) {
	v, ok := o.Values[key]
	return v, ok
}

func (o *Object) Len() int {
	return len(o.Keys)
}

// MarshalJSON writes the keys in order
func (o *Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	buf.WriteByte('{')
	for i, key := range o.Keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := enc.Encode(key); err != nil {
			return nil, err
		}
		buf.Truncate(buf.Len() - 1)
		buf.WriteByte(':')
		if err := enc.Encode(o.Values[key]); err != nil {
			return nil, err
		}
		buf.Truncate(buf.Len() - 1)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// DeepCopy copies nested objects and arrays
func (o *Object) DeepCopy() interface{} {
	if o == nil {
		return (*Object)(nil)
	}
	cp := NewObject(len(o.Keys))
	for _, key := range o.Keys {
		cp.Set(key, copyValue(o.Values[key]))
	}
	return cp
}

func copyValue(v any) any {
	switch val := v.(type) {
	case *Object:
		return val.DeepCopy()
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = copyValue(item)
		}
		return out
	default:
		return v
	}
}
