// Package tag describes session tags: opaque labels of session-local state
// made of zero or more NAME=VALUE properties joined by ';'.
//
// Tags are compared literally. "A=1;B=2" and "B=2;A=1" are different tags
// even though they decompose to the same set of properties.
package tag

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ydb-platform/ydb-go-tagpool/internal/xerrors"
)

const (
	propertySeparator = ";"
	valueSeparator    = "="
)

// Tag is an immutable session tag. The zero value is the empty tag
// meaning "no special state".
type Tag string

type Property struct {
	Name  string
	Value string
}

func (p Property) String() string {
	return p.Name + valueSeparator + p.Value
}

func (t Tag) String() string {
	return string(t)
}

func (t Tag) IsEmpty() bool {
	return t == ""
}

// Validate checks that t is either empty or a ';'-joined list of
// NAME=VALUE properties with non-empty names and no control characters.
func (t Tag) Validate() error {
	if t == "" {
		return nil
	}
	if !utf8.ValidString(string(t)) {
		return xerrors.WithStackTrace(xerrors.Validation("tag", "%q is not a valid UTF-8 string", string(t)))
	}
	if i := strings.IndexFunc(string(t), unicode.IsControl); i >= 0 {
		return xerrors.WithStackTrace(xerrors.Validation("tag",
			"%q contains control character at position %d", string(t), i,
		))
	}
	for i, raw := range strings.Split(string(t), propertySeparator) {
		name, _, found := strings.Cut(raw, valueSeparator)
		if !found {
			return xerrors.WithStackTrace(xerrors.Validation("tag",
				"property #%d %q of %q has no '%s'", i, raw, string(t), valueSeparator,
			))
		}
		if strings.TrimSpace(name) == "" {
			return xerrors.WithStackTrace(xerrors.Validation("tag",
				"property #%d %q of %q has empty name", i, raw, string(t),
			))
		}
	}

	return nil
}

// Parse returns s as a Tag if s is well-formed
func Parse(s string) (Tag, error) {
	t := Tag(s)
	if err := t.Validate(); err != nil {
		return "", err
	}

	return t, nil
}

// From converts a dynamically typed value into a Tag.
// Only strings, Tags and fmt.Stringers are accepted.
func From(v interface{}) (Tag, error) {
	switch v := v.(type) {
	case Tag:
		return v, v.Validate()
	case string:
		return Parse(v)
	case fmt.Stringer:
		return Parse(v.String())
	case nil:
		return "", xerrors.WithStackTrace(xerrors.Validation("tag", "value is absent"))
	default:
		return "", xerrors.WithStackTrace(xerrors.Validation("tag", "unsupported type %T", v))
	}
}

// New joins properties in given order
func New(properties ...Property) Tag {
	parts := make([]string, 0, len(properties))
	for _, p := range properties {
		parts = append(parts, p.String())
	}

	return Tag(strings.Join(parts, propertySeparator))
}

// Properties decomposes t into its properties in order of appearance
func (t Tag) Properties() ([]Property, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if t == "" {
		return nil, nil
	}
	raw := strings.Split(string(t), propertySeparator)
	properties := make([]Property, 0, len(raw))
	for _, p := range raw {
		name, value, _ := strings.Cut(p, valueSeparator)
		properties = append(properties, Property{
			Name:  name,
			Value: value,
		})
	}

	return properties, nil
}

// Lookup returns the value of the last property with given name
func (t Tag) Lookup(name string) (value string, ok bool) {
	properties, err := t.Properties()
	if err != nil {
		return "", false
	}
	for _, p := range properties {
		if p.Name == name {
			value, ok = p.Value, true
		}
	}

	return value, ok
}

// Diff returns properties of requested which are missing in actual or have
// another value there. Reconciliation procedures use it to apply only the
// changed part of session state.
func Diff(requested, actual Tag) ([]Property, error) {
	want, err := requested.Properties()
	if err != nil {
		return nil, err
	}
	have, err := actual.Properties()
	if err != nil {
		return nil, err
	}
	current := make(map[string]string, len(have))
	for _, p := range have {
		current[p.Name] = p.Value
	}
	diff := make([]Property, 0, len(want))
	for _, p := range want {
		if v, has := current[p.Name]; !has || v != p.Value {
			diff = append(diff, p)
		}
	}

	return diff, nil
}
