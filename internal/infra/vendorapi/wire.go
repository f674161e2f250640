package vendorapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// The vendor serialises empty columns as {} and mixes strings and numbers
// for the same field. The flex types below absorb that.

var jsonNull = []byte("null")

// isEmptyValue reports null, {} and [].
func isEmptyValue(b []byte) bool {
	return len(b) == 0 || bytes.Equal(b, jsonNull) || b[0] == '{' || b[0] == '['
}

type flexString string

func (s *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case isEmptyValue(b):
		*s = ""
	case b[0] == '"':
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = flexString(v)
	default:
		*s = flexString(b)
	}
	return nil
}

type flexDecimal decimal.Decimal

func (d *flexDecimal) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if isEmptyValue(b) {
		*d = flexDecimal(decimal.Zero)
		return nil
	}
	raw := string(b)
	if b[0] == '"' {
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			*d = flexDecimal(decimal.Zero)
			return nil
		}
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return fmt.Errorf("decode decimal %q: %w", raw, err)
	}
	*d = flexDecimal(v)
	return nil
}

func (d flexDecimal) Decimal() decimal.Decimal { return decimal.Decimal(d) }

type flexInt int64

func (i *flexInt) UnmarshalJSON(b []byte) error {
	var d flexDecimal
	if err := d.UnmarshalJSON(b); err != nil {
		return err
	}
	*i = flexInt(d.Decimal().IntPart())
	return nil
}

// optionalDecimal keeps the difference between a missing value and zero.
type optionalDecimal struct {
	value *decimal.Decimal
}

func (o *optionalDecimal) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if isEmptyValue(b) || bytes.Equal(b, []byte(`""`)) {
		o.value = nil
		return nil
	}
	var d flexDecimal
	if err := d.UnmarshalJSON(b); err != nil {
		return err
	}
	v := d.Decimal()
	o.value = &v
	return nil
}

// flexBool accepts "Y"/"N", booleans and 0/1.
type flexBool bool

func (f *flexBool) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if isEmptyValue(b) {
		*f = false
		return nil
	}
	var s flexString
	if err := s.UnmarshalJSON(b); err != nil {
		return err
	}
	switch strings.ToUpper(strings.TrimSpace(string(s))) {
	case "Y", "YES", "TRUE", "1":
		*f = true
	default:
		*f = false
	}
	return nil
}
