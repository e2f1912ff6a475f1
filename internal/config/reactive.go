package config

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	// ErrUnknownSetting is returned by Set for a path that is not a leaf of Style.
	ErrUnknownSetting = errors.New("unknown setting")
	// ErrInvalidSetting is returned when a value does not fit its setting.
	ErrInvalidSetting = errors.New("invalid setting value")
)

// Reactive wraps a Style so that every committed mutation triggers onChange
// exactly once. Construction never notifies.
type Reactive struct {
	style    Style
	onChange func()
	ready    bool
}

// NewReactive fills defaults into style and wraps it. onChange may be nil.
func NewReactive(style Style, onChange func()) (*Reactive, error) {
	if err := DefaultAndValidate(&style); err != nil {
		return nil, err
	}
	r := &Reactive{style: style, onChange: onChange}
	r.ready = true
	return r, nil
}

// Style returns a copy of the current settings.
func (r *Reactive) Style() Style { return r.style }

// OnChange replaces the change callback.
func (r *Reactive) OnChange(fn func()) { r.onChange = fn }

// Update applies fn to a working copy. The copy is committed and onChange
// fires only if the result validates.
func (r *Reactive) Update(fn func(*Style)) error {
	next := r.style
	fn(&next)
	if err := DefaultAndValidate(&next); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSetting, err)
	}
	r.style = next
	r.notify()
	return nil
}

// Replace swaps in a whole new tree as one mutation.
func (r *Reactive) Replace(s Style) error {
	return r.Update(func(cur *Style) { *cur = s })
}

func (r *Reactive) notify() {
	if r.ready && r.onChange != nil {
		r.onChange()
	}
}

// Set assigns a leaf by dotted yaml path, e.g. "constellations.lines.color".
// The value is parsed as a YAML scalar, so "false" and "1.5" work for
// booleans and numbers.
func (r *Reactive) Set(path, value string) error {
	if !IsLeaf(path) {
		return fmt.Errorf("%w: %s", ErrUnknownSetting, path)
	}

	var scalar any
	if err := yaml.Unmarshal([]byte(value), &scalar); err != nil || scalar == nil {
		scalar = value
	}

	doc := map[string]any{}
	cur := doc
	keys := strings.Split(path, ".")
	for _, k := range keys[:len(keys)-1] {
		next := map[string]any{}
		cur[k] = next
		cur = next
	}
	cur[keys[len(keys)-1]] = scalar

	b, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}

	next := r.style
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&next); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidSetting, path, err)
	}
	return r.Replace(next)
}

// Leaves lists every settable dotted path.
func Leaves() []string {
	var out []string
	walkLeaves(defaultTree(), "", func(path string, _ any) {
		out = append(out, path)
	})
	sort.Strings(out)
	return out
}

// IsLeaf reports whether path names a single setting.
func IsLeaf(path string) bool {
	for _, l := range Leaves() {
		if l == path {
			return true
		}
	}
	return false
}

// defaultTree is the generic map form of Default(), keyed by yaml tags.
func defaultTree() map[string]any {
	b, err := yaml.Marshal(Default())
	if err != nil {
		panic(err)
	}
	var m map[string]any
	if err := yaml.Unmarshal(b, &m); err != nil {
		panic(err)
	}
	return m
}

func walkLeaves(m map[string]any, prefix string, fn func(path string, v any)) {
	for k, v := range m {
		path := k
		if prefix != "" {
			path = prefix + "." + k
		}
		if sub, ok := v.(map[string]any); ok {
			walkLeaves(sub, path, fn)
			continue
		}
		fn(path, v)
	}
}
