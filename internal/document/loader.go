package document

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Format identifies the syntax of a configuration document.
type Format string

// Supported document formats.
const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// DetectFormat picks the format from a file extension. JSON is parsed as YAML.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml", ".json":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported document extension %q (want .toml, .yaml, .yml or .json)", filepath.Ext(path))
	}
}

// Load reads and parses the document at path.
// Read failures are reported as *IOError, syntax failures as *ParseError.
func Load(path string) (Mapping, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path) //nolint:gosec // G304: path is the document the user asked to compile
	if err != nil {
		return nil, &IOError{Op: "read", Path: path, Err: err}
	}

	m, err := Parse(data, format)
	if err != nil {
		var perr *ParseError
		if errors.As(err, &perr) {
			perr.Path = path
		}
		return nil, err
	}
	return m, nil
}

// Parse decodes data in the given format into an ordered Mapping.
func Parse(data []byte, format Format) (Mapping, error) {
	switch format {
	case FormatTOML:
		return parseTOML(data)
	case FormatYAML:
		return parseYAML(data)
	default:
		return nil, fmt.Errorf("unknown document format %q", format)
	}
}

// --- TOML ---

const keySep = "\x1f"

func parseTOML(data []byte) (Mapping, error) {
	var raw map[string]any
	md, err := toml.Decode(string(data), &raw)
	if err != nil {
		return nil, &ParseError{Format: FormatTOML, Err: err}
	}

	// Go maps lose order; the metadata lists keys as they appear in the file.
	// Implicit tables ([a.b] without [a]) take the position of their first descendant.
	order := make(map[string]int)
	for i, key := range md.Keys() {
		for n := 1; n <= len(key); n++ {
			p := strings.Join(key[:n], keySep)
			if _, seen := order[p]; !seen {
				order[p] = i
			}
		}
	}

	return tomlMapping(raw, nil, order), nil
}

func tomlMapping(raw map[string]any, prefix []string, order map[string]int) Mapping {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}

	position := func(k string) int {
		path := append(append([]string{}, prefix...), k)
		if i, ok := order[strings.Join(path, keySep)]; ok {
			return i
		}
		return math.MaxInt
	}
	sort.SliceStable(keys, func(i, j int) bool {
		pi, pj := position(keys[i]), position(keys[j])
		if pi != pj {
			return pi < pj
		}
		return keys[i] < keys[j]
	})

	out := make(Mapping, 0, len(keys))
	for _, k := range keys {
		path := append(append([]string{}, prefix...), k)
		out = append(out, Entry{Key: k, Value: tomlValue(raw[k], path, order)})
	}
	return out
}

func tomlValue(v any, path []string, order map[string]int) any {
	switch val := v.(type) {
	case map[string]any:
		return tomlMapping(val, path, order)
	case []map[string]any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = tomlMapping(item, path, order)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = tomlValue(item, path, order)
		}
		return out
	case int64, float64, bool, string, nil:
		return val
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

// --- YAML ---

func parseYAML(data []byte) (Mapping, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, &ParseError{Format: FormatYAML, Err: err}
	}

	// An empty document decodes to a zero node.
	if root.Kind == 0 || len(root.Content) == 0 {
		return Mapping{}, nil
	}

	top := root.Content[0]
	if top.Kind == yaml.AliasNode {
		top = top.Alias
	}
	if top.Kind != yaml.MappingNode {
		return nil, &ParseError{Format: FormatYAML, Err: fmt.Errorf("line %d: top level must be a mapping", top.Line)}
	}

	v, err := yamlValue(top)
	if err != nil {
		return nil, &ParseError{Format: FormatYAML, Err: err}
	}
	return v.(Mapping), nil
}

func yamlValue(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.AliasNode:
		return yamlValue(n.Alias)

	case yaml.ScalarNode:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		switch val := v.(type) {
		case int:
			return int64(val), nil
		case uint64:
			if val <= math.MaxInt64 {
				return int64(val), nil
			}
			return val, nil
		default:
			return val, nil
		}

	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for _, item := range n.Content {
			v, err := yamlValue(item)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil

	case yaml.MappingNode:
		out := make(Mapping, 0, len(n.Content)/2)
		var merged []Mapping
		for i := 0; i+1 < len(n.Content); i += 2 {
			keyNode, valNode := n.Content[i], n.Content[i+1]
			v, err := yamlValue(valNode)
			if err != nil {
				return nil, err
			}
			if keyNode.Tag == "!!merge" || keyNode.Value == "<<" {
				switch mv := v.(type) {
				case Mapping:
					merged = append(merged, mv)
				case []any:
					for _, item := range mv {
						if m, ok := item.(Mapping); ok {
							merged = append(merged, m)
						}
					}
				}
				continue
			}
			if out.Has(keyNode.Value) {
				return nil, fmt.Errorf("line %d: duplicate key %q", keyNode.Line, keyNode.Value)
			}
			out = append(out, Entry{Key: keyNode.Value, Value: v})
		}
		for _, m := range merged {
			for _, e := range m {
				if !out.Has(e.Key) {
					out = append(out, Entry{Key: e.Key, Value: cloneValue(e.Value)})
				}
			}
		}
		return out, nil

	default:
		return nil, fmt.Errorf("line %d: unsupported YAML node", n.Line)
	}
}
