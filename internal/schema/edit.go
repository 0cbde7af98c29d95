package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Op names an editor mutation.
type Op string

const (
	OpSet     Op = "set"
	OpSetItem Op = "set_item"
	OpAppend  Op = "append"
	OpRemove  Op = "remove"
)

// Edit is one mutation as sent by the editor page.
type Edit struct {
	Op      Op              `json:"op"`
	Section string          `json:"section"`
	Index   int             `json:"index,omitempty"`
	Key     string          `json:"key,omitempty"`
	Value   json.RawMessage `json:"value,omitempty"`
}

// Apply runs the edit against s and returns the new schema.
func (e Edit) Apply(s Schema) (Schema, error) {
	switch e.Op {
	case OpSet:
		v, err := e.value()
		if err != nil {
			return s, err
		}
		return UpdateSection(s, e.Section, e.Key, v)
	case OpSetItem:
		v, err := e.value()
		if err != nil {
			return s, err
		}
		return UpdateListItem(s, e.Section, e.Index, e.Key, v)
	case OpAppend:
		item := map[string]any{}
		if len(e.Value) > 0 {
			if err := json.Unmarshal(e.Value, &item); err != nil {
				return s, fmt.Errorf("append %s: item must be an object: %w", e.Section, err)
			}
		}
		return AppendListItem(s, e.Section, item)
	case OpRemove:
		return RemoveListItem(s, e.Section, e.Index)
	default:
		return s, fmt.Errorf("unknown edit op %q", e.Op)
	}
}

func (e Edit) value() (any, error) {
	if len(e.Value) == 0 {
		return "", nil
	}
	var v any
	if err := json.Unmarshal(e.Value, &v); err != nil {
		return nil, fmt.Errorf("edit value: %w", err)
	}
	return v, nil
}

// SetText builds an OpSet edit carrying a string value.
func SetText(section, key, value string) Edit {
	raw, _ := json.Marshal(value)
	return Edit{Op: OpSet, Section: section, Key: key, Value: raw}
}

// SetItemText builds an OpSetItem edit carrying a string value.
func SetItemText(section string, index int, key, value string) Edit {
	raw, _ := json.Marshal(value)
	return Edit{Op: OpSetItem, Section: section, Index: index, Key: key, Value: raw}
}

// boolKeys are checkbox fields; every other form field is text.
var boolKeys = map[string]bool{"enabled": true}

// EditsFromForm turns editor form fields into edits. Field names are
// "section.key" or "section.index.key"; anything else is ignored. When a field
// repeats, the last value wins. Edits come back in a stable order.
func EditsFromForm(form url.Values) []Edit {
	names := make([]string, 0, len(form))
	for name := range form {
		names = append(names, name)
	}
	sort.Strings(names)

	var edits []Edit
	for _, name := range names {
		values := form[name]
		if len(values) == 0 {
			continue
		}
		value := values[len(values)-1]
		parts := strings.Split(name, ".")
		switch len(parts) {
		case 2:
			if parts[0] == "" || parts[1] == "" {
				continue
			}
			if boolKeys[parts[1]] {
				b, _ := strconv.ParseBool(value)
				if value == "on" {
					b = true
				}
				raw, _ := json.Marshal(b)
				edits = append(edits, Edit{Op: OpSet, Section: parts[0], Key: parts[1], Value: raw})
				continue
			}
			edits = append(edits, SetText(parts[0], parts[1], value))
		case 3:
			idx, err := strconv.Atoi(parts[1])
			if err != nil || parts[0] == "" || parts[2] == "" {
				continue
			}
			edits = append(edits, SetItemText(parts[0], idx, parts[2], value))
		}
	}
	return edits
}

// ApplyAll applies edits in order and stops at the first failure, returning
// the schema as it was before that edit.
func ApplyAll(s Schema, edits []Edit) (Schema, error) {
	for _, e := range edits {
		next, err := e.Apply(s)
		if err != nil {
			return s, err
		}
		s = next
	}
	return s, nil
}

// ErrBadListOp reports a list button value ParseListOp does not know.
var ErrBadListOp = errors.New("unknown list operation")

// ListOp is an add or remove button pressed on the no-script editor form.
// The button value is "append:<section>" or "remove:<section>:<index>".
type ListOp struct {
	Op      Op
	Section string
	Index   int
}

func ParseListOp(value string) (ListOp, error) {
	parts := strings.Split(value, ":")
	switch {
	case len(parts) == 2 && parts[0] == string(OpAppend) && parts[1] != "":
		return ListOp{Op: OpAppend, Section: parts[1]}, nil
	case len(parts) == 3 && parts[0] == string(OpRemove) && parts[1] != "":
		idx, err := strconv.Atoi(parts[2])
		if err != nil || idx < 0 {
			return ListOp{}, ErrBadListOp
		}
		return ListOp{Op: OpRemove, Section: parts[1], Index: idx}, nil
	}
	return ListOp{}, ErrBadListOp
}

// Apply performs the operation on s.
func (o ListOp) Apply(s Schema) (Schema, error) {
	if o.Op == OpAppend {
		return AppendListItem(s, o.Section, nil)
	}
	return RemoveListItem(s, o.Section, o.Index)
}
