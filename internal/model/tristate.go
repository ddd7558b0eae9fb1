package model

import (
	"database/sql/driver"
	"fmt"
)

// TriState is a three-valued attribute: explicitly true, explicitly
// false, or never answered. It maps to a nullable integer column so
// "false" and "unset" stay distinguishable.
type TriState int

const (
	TriStateUnset TriState = iota
	TriStateFalse
	TriStateTrue
)

// ParseTriState maps form input to a TriState: "1" -> true, "0" ->
// false, anything else (including blank) -> unset.
func ParseTriState(v string) TriState {
	switch v {
	case "1":
		return TriStateTrue
	case "0":
		return TriStateFalse
	default:
		return TriStateUnset
	}
}

func (t TriState) IsTrue() bool { return t == TriStateTrue }
func (t TriState) IsSet() bool  { return t != TriStateUnset }

// FormValue returns the wire encoding used by the edit form.
func (t TriState) FormValue() string {
	switch t {
	case TriStateTrue:
		return "1"
	case TriStateFalse:
		return "0"
	default:
		return ""
	}
}

func (t TriState) String() string {
	switch t {
	case TriStateTrue:
		return "true"
	case TriStateFalse:
		return "false"
	default:
		return "unset"
	}
}

// Value implements driver.Valuer. Unset persists as NULL.
func (t TriState) Value() (driver.Value, error) {
	switch t {
	case TriStateTrue:
		return int64(1), nil
	case TriStateFalse:
		return int64(0), nil
	default:
		return nil, nil
	}
}

// Scan implements sql.Scanner over the nullable integer column.
func (t *TriState) Scan(src any) error {
	if src == nil {
		*t = TriStateUnset
		return nil
	}

	var n int64
	switch v := src.(type) {
	case int64:
		n = v
	case bool:
		if v {
			n = 1
		}
	case []byte:
		if len(v) > 0 && v[0] == '1' {
			n = 1
		}
	default:
		return fmt.Errorf("cannot scan %T into TriState", src)
	}

	if n != 0 {
		*t = TriStateTrue
	} else {
		*t = TriStateFalse
	}
	return nil
}
