// Package document loads board configuration documents (TOML or YAML) into
// order-preserving mappings. Key order matters: it decides the order of the
// generated statements.
package document

import "strings"

// Entry is a single key/value pair of a Mapping.
type Entry struct {
	Key   string
	Value any
}

// Mapping is an ordered key/value mapping. Values are one of:
// string, int64, float64, bool, nil, []any or Mapping.
type Mapping []Entry

// Get returns the value stored under key.
func (m Mapping) Get(key string) (any, bool) {
	for _, e := range m {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

// Has reports whether key is present.
func (m Mapping) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Keys returns the keys in document order.
func (m Mapping) Keys() []string {
	keys := make([]string, len(m))
	for i, e := range m {
		keys[i] = e.Key
	}
	return keys
}

// Clone returns a deep copy of the mapping.
func (m Mapping) Clone() Mapping {
	if m == nil {
		return nil
	}
	out := make(Mapping, len(m))
	for i, e := range m {
		out[i] = Entry{Key: e.Key, Value: cloneValue(e.Value)}
	}
	return out
}

// String renders the mapping in a compact, deterministic form for logs.
func (m Mapping) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, e := range m {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(e.Key)
		b.WriteString(": ")
		if sub, ok := e.Value.(Mapping); ok {
			b.WriteString(sub.String())
			continue
		}
		b.WriteString(FormatValue(e.Value))
	}
	b.WriteByte('}')
	return b.String()
}

// IsMappingList reports whether v is a non-empty list made only of mappings.
func IsMappingList(v any) ([]Mapping, bool) {
	list, ok := v.([]any)
	if !ok || len(list) == 0 {
		return nil, false
	}
	out := make([]Mapping, 0, len(list))
	for _, item := range list {
		m, ok := item.(Mapping)
		if !ok {
			return nil, false
		}
		out = append(out, m)
	}
	return out, true
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case Mapping:
		return val.Clone()
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}
