package shortcode

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/goliatone/go-snippet/pkg/interfaces"
)

var (
	// ErrUnknownParameter indicates a call used an attribute the shortcode does not declare.
	ErrUnknownParameter = errors.New("shortcode: unknown parameter")
	// ErrMissingParameter indicates a required attribute was not provided.
	ErrMissingParameter = errors.New("shortcode: missing required parameter")
	// ErrParameterType indicates an attribute value could not be read as the declared type.
	ErrParameterType = errors.New("shortcode: parameter type mismatch")
)

// ParamError reports which attribute of which call was rejected. Suggestion
// holds the closest declared attribute when an unknown one looks like a typo,
// for example sections instead of section.
type ParamError struct {
	Shortcode  string
	Param      string
	Suggestion string
	Err        error
}

func (e *ParamError) Error() string {
	msg := fmt.Sprintf("%s: parameter %q: %v", e.Shortcode, e.Param, e.Err)
	if e.Suggestion != "" {
		msg += fmt.Sprintf(" (did you mean %q?)", e.Suggestion)
	}
	return msg
}

func (e *ParamError) Unwrap() error {
	return e.Err
}

// binding is a definition checked once at registration. Render calls only
// bind attribute values against it.
type binding struct {
	def      interfaces.ShortcodeDefinition
	name     string
	params   map[string]interfaces.ShortcodeParam
	defaults map[string]any
	required []string
}

// compileDefinition validates def and indexes its attributes.
func compileDefinition(def interfaces.ShortcodeDefinition) (*binding, error) {
	name := normalizeName(def.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidDefinition)
	}
	if strings.ContainsAny(name, " \t\"'[]{}<>=/") {
		return nil, fmt.Errorf("%w: name %q cannot appear in a shortcode tag", ErrInvalidDefinition, def.Name)
	}

	b := &binding{
		def:      def,
		name:     name,
		params:   make(map[string]interfaces.ShortcodeParam, len(def.Schema.Params)),
		defaults: map[string]any{},
	}
	for _, param := range def.Schema.Params {
		key := strings.TrimSpace(param.Name)
		if key == "" {
			return nil, fmt.Errorf("%w: %s: attribute name required", ErrInvalidDefinition, name)
		}
		if _, dup := b.params[key]; dup {
			return nil, fmt.Errorf("%w: %s: duplicate attribute %q", ErrInvalidDefinition, name, key)
		}
		switch param.Type {
		case interfaces.ShortcodeParamString, interfaces.ShortcodeParamInt, interfaces.ShortcodeParamBool:
		default:
			return nil, fmt.Errorf("%w: %s: attribute %q has unknown type %q", ErrInvalidDefinition, name, key, param.Type)
		}
		param.Name = key
		b.params[key] = param
		if param.Default != nil {
			b.defaults[key] = param.Default
		}
		if param.Required {
			b.required = append(b.required, key)
		}
	}
	for key, value := range def.Schema.Defaults {
		if _, ok := b.params[key]; !ok {
			return nil, fmt.Errorf("%w: %s: default for undeclared attribute %q", ErrInvalidDefinition, name, key)
		}
		b.defaults[key] = value
	}
	return b, nil
}

// bind reads the attribute values of one call. Defaults are applied first so
// an explicit attribute always wins.
func (b *binding) bind(supplied map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(b.params))
	for key, value := range b.defaults {
		out[key] = value
	}

	keys := make([]string, 0, len(supplied))
	for key := range supplied {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		param, ok := b.params[key]
		if !ok {
			return nil, &ParamError{Shortcode: b.name, Param: key, Suggestion: b.closest(key), Err: ErrUnknownParameter}
		}
		value, err := coerceValue(param.Type, supplied[key])
		if err != nil {
			return nil, &ParamError{Shortcode: b.name, Param: key, Err: fmt.Errorf("%w: %v", ErrParameterType, err)}
		}
		if param.Validate != nil {
			if err := param.Validate(value); err != nil {
				return nil, &ParamError{Shortcode: b.name, Param: key, Err: err}
			}
		}
		out[key] = value
	}

	for _, key := range b.required {
		if _, ok := out[key]; !ok {
			return nil, &ParamError{Shortcode: b.name, Param: key, Err: ErrMissingParameter}
		}
	}
	return out, nil
}

// closest returns the declared attribute within two edits of key, if any.
func (b *binding) closest(key string) string {
	best, bestDistance := "", 3
	for name := range b.params {
		if d := editDistance(strings.ToLower(key), name); d < bestDistance || (d == bestDistance && name < best) {
			best, bestDistance = name, d
		}
	}
	return best
}

func editDistance(a, b string) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func coerceValue(paramType interfaces.ShortcodeParamType, value any) (any, error) {
	switch paramType {
	case interfaces.ShortcodeParamString:
		return coerceString(value), nil
	case interfaces.ShortcodeParamInt:
		return coerceInt(value)
	case interfaces.ShortcodeParamBool:
		return coerceBool(value)
	default:
		return nil, fmt.Errorf("unsupported parameter type %q", paramType)
	}
}

func coerceString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(value)
	}
}

func coerceInt(value any) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case string:
		return strconv.Atoi(strings.TrimSpace(v))
	default:
		return 0, fmt.Errorf("cannot convert %T to int", value)
	}
}

// coerceBool accepts the spellings authors use in tag attributes, so
// header="false", header=no and header=0 all disable the header.
func coerceBool(value any) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "t", "yes", "y", "on":
			return true, nil
		case "0", "false", "f", "no", "n", "off":
			return false, nil
		default:
			return false, fmt.Errorf("cannot convert %q to bool", v)
		}
	default:
		return false, fmt.Errorf("cannot convert %T to bool", value)
	}
}

// StringParam reads a bound string attribute, returning "" when absent.
func StringParam(params map[string]any, name string) string {
	value, _ := params[name].(string)
	return value
}

// BoolParam reads a bound bool attribute, returning fallback when absent.
func BoolParam(params map[string]any, name string, fallback bool) bool {
	value, ok := params[name].(bool)
	if !ok {
		return fallback
	}
	return value
}
