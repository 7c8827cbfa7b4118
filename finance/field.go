package finance

import (
	"encoding/json"

	"github.com/rotisserie/eris"
)

// ErrNotFound is recorded on a field whose element is missing from the page.
var ErrNotFound = eris.New("finance: element not found")

// Field is an optional scalar value. The zero value is absent.
type Field struct {
	Value string
	Valid bool
	// Err explains why the field is absent, when known.
	Err error
}

// Found returns a present field.
func Found(v string) Field {
	return Field{Value: v, Valid: true}
}

// Missing returns an absent field carrying the cause.
func Missing(err error) Field {
	return Field{Err: err}
}

// Present reports whether the field holds a value.
func (f Field) Present() bool { return f.Valid }

// String returns the value, or "" when absent.
func (f Field) String() string {
	if !f.Valid {
		return ""
	}
	return f.Value
}

// MarshalJSON encodes an absent field as null.
func (f Field) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}

// UnmarshalJSON decodes null as an absent field.
func (f *Field) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = Missing(ErrNotFound)
		return nil
	}
	var v string
	if err := json.Unmarshal(b, &v); err != nil {
		return eris.Wrap(err, "finance: decode field")
	}
	*f = Found(v)
	return nil
}

// capture runs fn and turns its error, or a panic inside it, into an absent field.
func capture(fn func() (string, error)) (f Field) {
	defer func() {
		if r := recover(); r != nil {
			f = Missing(eris.Errorf("finance: extraction panicked: %v", r))
		}
	}()

	v, err := fn()
	if err != nil {
		return Missing(err)
	}
	return Found(v)
}

// guard runs fn and converts a panic into an error.
func guard(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = eris.Errorf("finance: parse panicked: %v", r)
		}
	}()
	fn()
	return nil
}
