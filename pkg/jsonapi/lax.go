package jsonapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Int is an integer attribute decoded leniently: JSON integers, integral
// floats, booleans and numeric strings are all accepted. It encodes as a
// plain JSON number.
type Int int64

// UnmarshalJSON implements json.Unmarshaler
func (i *Int) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		return nil
	case bytes.Equal(data, []byte("true")):
		*i = 1
		return nil
	case bytes.Equal(data, []byte("false")):
		*i = 0
		return nil
	}

	text := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &text); err != nil {
			return fmt.Errorf("invalid integer %s: %w", data, err)
		}
		text = strings.TrimSpace(text)
	}

	n, err := parseInt(text)
	if err != nil {
		return fmt.Errorf("invalid integer %s", data)
	}
	*i = Int(n)
	return nil
}

func parseInt(text string) (int64, error) {
	if n, err := strconv.ParseInt(text, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return 0, fmt.Errorf("%s has a fractional part", text)
	}
	return int64(f), nil
}

// Bool is a boolean attribute decoded leniently: besides true and false it
// accepts the numbers 0 and 1 and the usual string spellings
// ("true", "0", "yes", "off", ...). It encodes as a plain JSON boolean.
type Bool bool

var boolStrings = map[string]bool{
	"true": true, "t": true, "yes": true, "y": true, "on": true, "1": true,
	"false": false, "f": false, "no": false, "n": false, "off": false, "0": false,
}

// UnmarshalJSON implements json.Unmarshaler
func (b *Bool) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	text := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &text); err != nil {
			return fmt.Errorf("invalid boolean %s: %w", data, err)
		}
		text = strings.ToLower(strings.TrimSpace(text))
	} else if f, err := strconv.ParseFloat(text, 64); err == nil {
		switch f {
		case 0:
			text = "false"
		case 1:
			text = "true"
		}
	}

	v, ok := boolStrings[text]
	if !ok {
		return fmt.Errorf("invalid boolean %s", data)
	}
	*b = Bool(v)
	return nil
}
