// Package fields models the loosely-shaped post payload: a mapping from
// semantic keys (title, description, caption, link, tags, image variants) to
// string, array or object values of arbitrary nesting. Shapes are tolerated,
// never schema-enforced.
package fields

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Kind discriminates the value union.
type Kind int

const (
	// KindOther covers JSON numbers, booleans and null; walkers skip these.
	KindOther Kind = iota
	KindString
	KindList
	KindMap
)

// MaxDepth bounds recursive walks over nested values so pathological inputs
// cannot stack-overflow the evaluator.
const MaxDepth = 32

// Value is a tagged union over the JSON shapes a field may take. Map entries
// keep their encounter order in Keys so text concatenation is deterministic.
type Value struct {
	Kind Kind
	Str  string
	List []Value
	Keys []string
	Map  map[string]Value
}

// String wraps a plain string as a Value.
func String(s string) Value { return Value{Kind: KindString, Str: s} }

// UnmarshalJSON decodes any JSON shape, preserving object key order.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	val, err := decodeValue(dec)
	if err != nil {
		return err
	}
	*v = val
	return nil
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}
	switch t := tok.(type) {
	case string:
		return Value{Kind: KindString, Str: t}, nil
	case json.Delim:
		switch t {
		case '[':
			var list []Value
			for dec.More() {
				item, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				list = append(list, item)
			}
			if _, err := dec.Token(); err != nil { // closing ]
				return Value{}, err
			}
			return Value{Kind: KindList, List: list}, nil
		case '{':
			val := Value{Kind: KindMap, Map: map[string]Value{}}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Value{}, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return Value{}, fmt.Errorf("object key is not a string: %v", keyTok)
				}
				item, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				if _, seen := val.Map[key]; !seen {
					val.Keys = append(val.Keys, key)
				}
				val.Map[key] = item
			}
			if _, err := dec.Token(); err != nil { // closing }
				return Value{}, err
			}
			return val, nil
		}
	}
	// number, bool, null
	return Value{Kind: KindOther}, nil
}

// Fields is the top-level post payload.
type Fields struct {
	root Value
}

// Parse decodes a JSON object into Fields. A JSON null yields empty Fields;
// any other non-object shape is an error.
func Parse(raw []byte) (Fields, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return Fields{root: Value{Kind: KindMap, Map: map[string]Value{}}}, nil
	}
	var v Value
	if err := json.Unmarshal(raw, &v); err != nil {
		return Fields{}, fmt.Errorf("parse fields: %w", err)
	}
	if v.Kind == KindOther {
		v = Value{Kind: KindMap, Map: map[string]Value{}}
	}
	if v.Kind != KindMap {
		return Fields{}, fmt.Errorf("fields must be a JSON object")
	}
	return Fields{root: v}, nil
}

// FromMap builds Fields from key/value pairs, keeping the given order.
func FromMap(keys []string, values map[string]Value) Fields {
	m := make(map[string]Value, len(values))
	ks := make([]string, 0, len(keys))
	for _, k := range keys {
		if v, ok := values[k]; ok {
			m[k] = v
			ks = append(ks, k)
		}
	}
	return Fields{root: Value{Kind: KindMap, Keys: ks, Map: m}}
}

// Root exposes the underlying value for recursive walkers.
func (f Fields) Root() Value { return f.root }

// Keys returns the top-level keys in encounter order.
func (f Fields) Keys() []string { return f.root.Keys }

// Get returns the top-level value for key.
func (f Fields) Get(key string) (Value, bool) {
	v, ok := f.root.Map[key]
	return v, ok
}

// StringField returns the top-level value for key when it is a plain string.
func (f Fields) StringField(key string) (string, bool) {
	v, ok := f.root.Map[key]
	if !ok || v.Kind != KindString {
		return "", false
	}
	return v.Str, true
}

// WithField returns a shallow copy of f with the given key set to a string
// value, used to re-check a payload after applying a suggested fix.
func (f Fields) WithField(key, val string) Fields {
	m := make(map[string]Value, len(f.root.Map)+1)
	for k, v := range f.root.Map {
		m[k] = v
	}
	keys := append([]string(nil), f.root.Keys...)
	if _, ok := m[key]; !ok {
		keys = append(keys, key)
	}
	m[key] = String(val)
	return Fields{root: Value{Kind: KindMap, Keys: keys, Map: m}}
}

// primaryCandidates lists, in priority order, the keys whose string value
// receives suggested rewrites.
var primaryCandidates = []string{"description", "caption", "title"}

// PrimaryTextField returns the first of description, caption, title that
// holds a plain string, along with its value.
func (f Fields) PrimaryTextField() (key, val string, ok bool) {
	for _, k := range primaryCandidates {
		if s, found := f.StringField(k); found {
			return k, s, true
		}
	}
	return "", "", false
}

// SearchableText concatenates every string value in encounter order,
// space-joined, descending through lists and objects.
func (f Fields) SearchableText() string {
	var parts []string
	collectStrings(f.root, 0, &parts)
	return strings.Join(parts, " ")
}

func collectStrings(v Value, depth int, out *[]string) {
	if depth > MaxDepth {
		return
	}
	switch v.Kind {
	case KindString:
		if v.Str != "" {
			*out = append(*out, v.Str)
		}
	case KindList:
		for _, item := range v.List {
			collectStrings(item, depth+1, out)
		}
	case KindMap:
		for _, k := range v.Keys {
			collectStrings(v.Map[k], depth+1, out)
		}
	}
}

// StringItems returns the string members when v is a list, or the single
// string when v is one. Used for tag/hashtag counting.
func StringItems(v Value) []string {
	switch v.Kind {
	case KindString:
		return []string{v.Str}
	case KindList:
		var out []string
		for _, item := range v.List {
			if item.Kind == KindString {
				out = append(out, item.Str)
			}
		}
		return out
	}
	return nil
}
