// Package tokens assembles the argument list handed to the firmware builder:
// the device command, its build arguments, and one DISPLAY=/INDEV=/EXPANDER=
// token per driver module the generated code imports.
package tokens

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/leapstack-labs/boardgen/internal/catalog"
	"github.com/leapstack-labs/boardgen/internal/document"
)

// ErrSemantic matches every FlagError via errors.Is.
var ErrSemantic = errors.New("semantic configuration error")

// FlagError reports an optionless build flag explicitly set to false.
// Such flags only mean something when enabled.
type FlagError struct {
	Device string
	Arg    string
}

func (e *FlagError) Error() string {
	return fmt.Sprintf("device %s: optionless build flag %q must be set to true when present (got false)", e.Device, e.Arg)
}

// Is makes errors.Is(err, ErrSemantic) true.
func (e *FlagError) Is(target error) bool { return target == ErrSemantic }

// Device is the descriptor found under the reserved MCU node.
type Device struct {
	Name string
	Args document.Mapping
}

// Assemble builds the ordered token list.
// dev may be nil when the document declares no device; imports is the
// deduplicated list of modules the generated source imports.
func Assemble(dev *Device, imports []string, cat *catalog.Catalog) ([]string, error) {
	var out []string
	seen := make(map[string]struct{})
	add := func(tok string) {
		if _, ok := seen[tok]; ok {
			return
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}

	if dev != nil {
		add(dev.Name)
		for _, arg := range dev.Args {
			tok, ok, err := buildArg(dev.Name, arg.Key, arg.Value)
			if err != nil {
				return nil, err
			}
			if ok {
				add(tok)
			}
		}
	}

	if cat == nil {
		return out, nil
	}
	for _, family := range catalog.Families {
		for _, mod := range imports {
			if f, ok := cat.Family(mod); ok && f == family {
				add(family.TokenPrefix() + "=" + strings.ToLower(mod))
			}
		}
	}
	return out, nil
}

// buildArg renders one build argument. Lowercase keys are long flags
// (flash_size = 8 -> --flash-size=8); other keys pass through verbatim
// (BOARD_VARIANT = "SPIRAM" -> BOARD_VARIANT=SPIRAM).
func buildArg(device, key string, value any) (string, bool, error) {
	b, isBool := value.(bool)

	if isLower(key) {
		flag := "--" + strings.ReplaceAll(key, "_", "-")
		if isBool {
			if !b {
				return "", false, &FlagError{Device: device, Arg: key}
			}
			return flag, true, nil
		}
		return flag + "=" + argValue(value), true, nil
	}

	if isBool {
		return key, b, nil
	}
	return key + "=" + argValue(value), true, nil
}

func argValue(v any) string {
	if list, ok := v.([]any); ok {
		parts := make([]string, len(list))
		for i, item := range list {
			parts[i] = argValue(item)
		}
		return strings.Join(parts, ",")
	}
	return document.FormatValue(v)
}

// isLower reports whether s has at least one cased letter and no upper-case ones.
func isLower(s string) bool {
	cased := false
	for _, r := range s {
		if unicode.IsUpper(r) || unicode.IsTitle(r) {
			return false
		}
		if unicode.IsLower(r) {
			cased = true
		}
	}
	return cased
}
