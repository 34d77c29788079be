package model

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Attr is a single order attribute as it arrives in an intake record. Intake
// events carry two shapes for the same field: a plain JSON value, or a
// single-key storage wrapper discriminating its representation ({"S": "450"},
// {"N": "3"}, {"BOOL": true}). Attr absorbs both at the boundary so the rest
// of the code only ever sees the unwrapped value.
type Attr struct {
	Value any
}

// storageWrapperKeys are the single-key discriminators recognized on intake.
var storageWrapperKeys = map[string]bool{
	"S":    true,
	"N":    true,
	"BOOL": true,
}

func (a *Attr) UnmarshalJSON(data []byte) error {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err == nil && len(probe) == 1 {
		for key, raw := range probe {
			if storageWrapperKeys[key] {
				var inner any
				if err := json.Unmarshal(raw, &inner); err != nil {
					return err
				}
				a.Value = inner
				return nil
			}
		}
	}

	var plain any
	if err := json.Unmarshal(data, &plain); err != nil {
		return err
	}
	a.Value = plain
	return nil
}

func (a Attr) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.Value)
}

// Present reports whether the attribute carries a non-nil value.
func (a Attr) Present() bool {
	return a.Value != nil
}

// String renders the attribute as a string. Numbers are formatted without a
// trailing ".0" so wrapped numeric strings round-trip cleanly.
func (a Attr) String() string {
	switch v := a.Value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// Bool interprets the attribute as a yes/no flag. Intake records encode prime
// membership as the literal "Yes"/"No".
func (a Attr) Bool() bool {
	switch v := a.Value.(type) {
	case bool:
		return v
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "yes", "true", "1":
			return true
		}
	}
	return false
}

// Record is a raw intake event: field name to attribute, wrapper shapes and
// all. Convert it once with OrderFromRecord; nothing downstream of the
// boundary inspects wrapper shape again.
type Record map[string]Attr

// Flatten returns the record with every storage wrapper unwrapped.
func (r Record) Flatten() map[string]any {
	out := make(map[string]any, len(r))
	for k, v := range r {
		out[k] = v.Value
	}
	return out
}
