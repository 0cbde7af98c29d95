package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	jsonpatch "github.com/evanphx/json-patch"
)

var (
	ErrNotObject       = errors.New("section is not an object")
	ErrNotList         = errors.New("section is not a list")
	ErrIndexOutOfRange = errors.New("list index out of range")
	ErrEmptyName       = errors.New("section and key must not be empty")
)

type patchOp struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Value any    `json:"value"`
}

// UpdateSection returns a copy of s with s[section][key] = value. A missing
// section is created; sibling keys and other sections are kept.
func UpdateSection(s Schema, section, key string, value any) (Schema, error) {
	if section == "" || key == "" {
		return s, ErrEmptyName
	}

	var ops []patchOp
	switch current := s.Map()[section].(type) {
	case nil:
		ops = append(ops, patchOp{Op: "add", Path: pointer(section), Value: map[string]any{}})
	case map[string]any:
	default:
		return s, fmt.Errorf("%s: %w (got %T)", section, ErrNotObject, current)
	}
	ops = append(ops, patchOp{Op: "add", Path: pointer(section, key), Value: value})
	return apply(s, ops)
}

// UpdateListItem returns a copy of s where element index of the list under
// section has key set to value. Other elements keep their content and order.
func UpdateListItem(s Schema, section string, index int, key string, value any) (Schema, error) {
	if section == "" || key == "" {
		return s, ErrEmptyName
	}
	items, err := listAt(s, section)
	if err != nil {
		return s, err
	}
	if index < 0 || index >= len(items) {
		return s, fmt.Errorf("%s[%d]: %w", section, index, ErrIndexOutOfRange)
	}
	if _, ok := items[index].(map[string]any); !ok {
		return s, fmt.Errorf("%s[%d]: %w", section, index, ErrNotObject)
	}
	return apply(s, []patchOp{{Op: "add", Path: pointer(section, strconv.Itoa(index), key), Value: value}})
}

// AppendListItem returns a copy of s with item added at the end of the list
// under section, creating the list when missing.
func AppendListItem(s Schema, section string, item map[string]any) (Schema, error) {
	if section == "" {
		return s, ErrEmptyName
	}
	if item == nil {
		item = map[string]any{}
	}

	var ops []patchOp
	switch current := s.Map()[section].(type) {
	case nil:
		ops = append(ops, patchOp{Op: "add", Path: pointer(section), Value: []any{}})
	case []any:
	default:
		return s, fmt.Errorf("%s: %w (got %T)", section, ErrNotList, current)
	}
	ops = append(ops, patchOp{Op: "add", Path: pointer(section) + "/-", Value: item})
	return apply(s, ops)
}

// RemoveListItem returns a copy of s without element index of section.
func RemoveListItem(s Schema, section string, index int) (Schema, error) {
	items, err := listAt(s, section)
	if err != nil {
		return s, err
	}
	if index < 0 || index >= len(items) {
		return s, fmt.Errorf("%s[%d]: %w", section, index, ErrIndexOutOfRange)
	}
	return apply(s, []patchOp{{Op: "remove", Path: pointer(section, strconv.Itoa(index))}})
}

func listAt(s Schema, section string) ([]any, error) {
	switch current := s.Map()[section].(type) {
	case []any:
		return current, nil
	case nil:
		return nil, fmt.Errorf("%s: %w", section, ErrIndexOutOfRange)
	default:
		return nil, fmt.Errorf("%s: %w (got %T)", section, ErrNotList, current)
	}
}

func apply(s Schema, ops []patchOp) (Schema, error) {
	raw, err := json.Marshal(ops)
	if err != nil {
		return s, err
	}
	patch, err := jsonpatch.DecodePatch(raw)
	if err != nil {
		return s, err
	}
	out, err := patch.Apply(s.Bytes())
	if err != nil {
		return s, err
	}
	return Parse(out)
}

// pointer builds an RFC 6901 JSON pointer from raw tokens.
func pointer(tokens ...string) string {
	var b strings.Builder
	for _, t := range tokens {
		b.WriteByte('/')
		t = strings.ReplaceAll(t, "~", "~0")
		b.WriteString(strings.ReplaceAll(t, "/", "~1"))
	}
	return b.String()
}
