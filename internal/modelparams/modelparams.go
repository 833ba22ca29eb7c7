package modelparams

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
)

// Kind tags a parameter descriptor with the control that renders it and the
// value shape it accepts.
type Kind string

const (
	KindSlider Kind = "slider"
	KindText   Kind = "text"
	KindJSON   Kind = "json"
	KindToggle Kind = "toggle"
	KindSelect Kind = "select"
)

// Descriptor describes one generation parameter of a model family. One flat
// descriptor list per family replaces the per-family payload branching that
// different model APIs otherwise force on callers.
type Descriptor struct {
	Name    string   `json:"name"`
	Kind    Kind     `json:"kind"`
	Min     float64  `json:"min,omitempty"`
	Max     float64  `json:"max,omitempty"`
	Step    float64  `json:"step,omitempty"`
	Integer bool     `json:"integer,omitempty"`
	Default any      `json:"default,omitempty"`
	Options []string `json:"options,omitempty"`
}

// Registry maps model-family prefixes to their parameter descriptors.
type Registry struct {
	families map[string][]Descriptor
}

// ErrUnknownModel is returned when no family prefix matches a model id.
var ErrUnknownModel = fmt.Errorf("no parameter descriptors for model")

// ErrUnknownParam is returned when a request carries a parameter the model
// family does not declare.
var ErrUnknownParam = fmt.Errorf("unknown model parameter")

func commonDescriptors() []Descriptor {
	return []Descriptor{
		{Name: "temperature", Kind: KindSlider, Min: 0, Max: 1, Step: 0.01, Default: 0.7},
		{Name: "top_p", Kind: KindSlider, Min: 0, Max: 1, Step: 0.01, Default: 0.9},
		{Name: "top_k", Kind: KindSlider, Min: 0, Max: 100, Step: 1, Integer: true, Default: 40},
		{Name: "num_predict", Kind: KindSlider, Min: 1, Max: 4096, Step: 1, Integer: true, Default: 512},
		{Name: "repeat_penalty", Kind: KindSlider, Min: 0.5, Max: 2, Step: 0.01, Default: 1.1},
		{Name: "stop", Kind: KindJSON, Default: []string{}},
		{Name: "mirostat", Kind: KindSelect, Integer: true, Options: []string{"0", "1", "2"}, Default: 0},
		{Name: "json_mode", Kind: KindToggle, Default: false},
		{Name: "system", Kind: KindText, Default: ""},
	}
}

// DefaultRegistry returns the built-in parameter catalog. Families are keyed
// by model-id prefix; "default" matches anything without a closer prefix.
func DefaultRegistry() *Registry {
	return &Registry{families: map[string][]Descriptor{
		"default": commonDescriptors(),
		"llama":   commonDescriptors(),
		"qwen":    commonDescriptors(),
		"mistral": commonDescriptors(),
		"gemma":   commonDescriptors(),
	}}
}

// LoadFile reads a registry from a JSON file mapping family prefix to a
// descriptor list, merged over the built-in catalog.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model params: %w", err)
	}
	var families map[string][]Descriptor
	if err := json.Unmarshal(data, &families); err != nil {
		return nil, fmt.Errorf("failed to parse model params: %w", err)
	}
	r := DefaultRegistry()
	for family, descs := range families {
		r.families[family] = descs
	}
	return r, nil
}

// Families returns the registered family prefixes, sorted.
func (r *Registry) Families() []string {
	names := make([]string, 0, len(r.families))
	for name := range r.families {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Describe returns the descriptors for a model id, matched by the longest
// registered family prefix.
func (r *Registry) Describe(modelID string) ([]Descriptor, error) {
	family := strings.SplitN(modelID, ":", 2)[0]
	best := ""
	for prefix := range r.families {
		if prefix != "default" && strings.HasPrefix(family, prefix) && len(prefix) > len(best) {
			best = prefix
		}
	}
	if best == "" {
		if descs, ok := r.families["default"]; ok {
			return descs, nil
		}
		return nil, fmt.Errorf("%w %q", ErrUnknownModel, modelID)
	}
	return r.families[best], nil
}

// Assemble validates overrides against the model's descriptors and returns
// the full parameter map, defaults filled in. Unknown names, out-of-range
// sliders, and mistyped values are rejected rather than passed through.
func (r *Registry) Assemble(modelID string, overrides map[string]any) (map[string]any, error) {
	descs, err := r.Describe(modelID)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]Descriptor, len(descs))
	params := make(map[string]any, len(descs))
	for _, d := range descs {
		byName[d.Name] = d
		params[d.Name] = d.Default
	}

	for name, value := range overrides {
		d, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("%w %q for model %q", ErrUnknownParam, name, modelID)
		}
		checked, err := d.check(value)
		if err != nil {
			return nil, err
		}
		params[name] = checked
	}
	return params, nil
}

func (d Descriptor) check(value any) (any, error) {
	switch d.Kind {
	case KindSlider:
		f, ok := toFloat(value)
		if !ok {
			return nil, fmt.Errorf("parameter %q must be numeric", d.Name)
		}
		if f < d.Min || f > d.Max {
			return nil, fmt.Errorf("parameter %q out of range [%v, %v]", d.Name, d.Min, d.Max)
		}
		if d.Integer {
			return int(f), nil
		}
		return f, nil
	case KindToggle:
		b, ok := value.(bool)
		if !ok {
			return nil, fmt.Errorf("parameter %q must be a boolean", d.Name)
		}
		return b, nil
	case KindText:
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("parameter %q must be a string", d.Name)
		}
		return s, nil
	case KindSelect:
		s := fmt.Sprintf("%v", value)
		for _, opt := range d.Options {
			if s == opt {
				if d.Integer {
					n, err := strconv.Atoi(s)
					if err != nil {
						return nil, fmt.Errorf("parameter %q option %q is not an integer", d.Name, s)
					}
					return n, nil
				}
				return s, nil
			}
		}
		return nil, fmt.Errorf("parameter %q must be one of %v", d.Name, d.Options)
	case KindJSON:
		if _, err := json.Marshal(value); err != nil {
			return nil, fmt.Errorf("parameter %q is not valid JSON: %w", d.Name, err)
		}
		return value, nil
	default:
		return nil, fmt.Errorf("parameter %q has unknown kind %q", d.Name, d.Kind)
	}
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
