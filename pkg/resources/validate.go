package resources

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/platinummonkey/mockapi/pkg/apierrors"
)

// ParseCreate decodes a create request body. title, access_count and
// student_count are required. A missing or null id is replaced by a new UUID.
func ParseCreate(body []byte) (Resource, error) {
	fields, err := decodeObject(body)
	if err != nil {
		return Resource{}, err
	}

	var (
		res  Resource
		errs []apierrors.FieldError
	)

	if id, ferr := optionalString(fields, "id"); ferr != nil {
		errs = append(errs, *ferr)
	} else if id != nil {
		res.ID = *id
	} else {
		res.ID = uuid.NewString()
	}

	if title, ferr := requiredString(fields, "title"); ferr != nil {
		errs = append(errs, *ferr)
	} else {
		res.Title = title
	}

	if desc, ferr := optionalString(fields, "description"); ferr != nil {
		errs = append(errs, *ferr)
	} else {
		res.Description = desc
	}

	if n, ferr := requiredInt(fields, "access_count"); ferr != nil {
		errs = append(errs, *ferr)
	} else {
		res.AccessCount = n
	}

	if n, ferr := requiredInt(fields, "student_count"); ferr != nil {
		errs = append(errs, *ferr)
	} else {
		res.StudentCount = n
	}

	if len(errs) > 0 {
		return Resource{}, apierrors.Validation(errs...)
	}
	return res, nil
}

// ParseUpdate decodes an update request body. Every field is optional and
// null means "leave unchanged". An id in the body is ignored.
func ParseUpdate(body []byte) (Patch, error) {
	fields, err := decodeObject(body)
	if err != nil {
		return Patch{}, err
	}

	var (
		patch Patch
		errs  []apierrors.FieldError
	)

	if v, ferr := optionalString(fields, "title"); ferr != nil {
		errs = append(errs, *ferr)
	} else {
		patch.Title = v
	}
	if v, ferr := optionalString(fields, "description"); ferr != nil {
		errs = append(errs, *ferr)
	} else {
		patch.Description = v
	}
	if v, ferr := optionalInt(fields, "access_count"); ferr != nil {
		errs = append(errs, *ferr)
	} else {
		patch.AccessCount = v
	}
	if v, ferr := optionalInt(fields, "student_count"); ferr != nil {
		errs = append(errs, *ferr)
	} else {
		patch.StudentCount = v
	}

	if len(errs) > 0 {
		return Patch{}, apierrors.Validation(errs...)
	}
	return patch, nil
}

func decodeObject(body []byte) (map[string]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, apierrors.Validation(apierrors.FieldError{
			Loc:  []string{"body"},
			Msg:  "Field required",
			Type: "missing",
		})
	}
	if !json.Valid(trimmed) {
		return nil, apierrors.Validation(apierrors.FieldError{
			Loc:  []string{"body"},
			Msg:  "JSON decode error",
			Type: "json_invalid",
		})
	}
	var fields map[string]json.RawMessage
	if trimmed[0] != '{' || json.Unmarshal(trimmed, &fields) != nil {
		return nil, apierrors.Validation(apierrors.FieldError{
			Loc:  []string{"body"},
			Msg:  "Input should be a valid dictionary or object to extract fields from",
			Type: "model_attributes_type",
		})
	}
	return fields, nil
}

func bodyLoc(field string) []string {
	return []string{"body", field}
}

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}

func requiredString(fields map[string]json.RawMessage, name string) (string, *apierrors.FieldError) {
	raw, ok := fields[name]
	if !ok {
		return "", &apierrors.FieldError{Loc: bodyLoc(name), Msg: "Field required", Type: "missing"}
	}
	var s string
	if isNull(raw) || json.Unmarshal(raw, &s) != nil {
		return "", &apierrors.FieldError{Loc: bodyLoc(name), Msg: "Input should be a valid string", Type: "string_type"}
	}
	return s, nil
}

func optionalString(fields map[string]json.RawMessage, name string) (*string, *apierrors.FieldError) {
	raw, ok := fields[name]
	if !ok || isNull(raw) {
		return nil, nil
	}
	var s string
	if json.Unmarshal(raw, &s) != nil {
		return nil, &apierrors.FieldError{Loc: bodyLoc(name), Msg: "Input should be a valid string", Type: "string_type"}
	}
	return &s, nil
}

func requiredInt(fields map[string]json.RawMessage, name string) (int, *apierrors.FieldError) {
	raw, ok := fields[name]
	if !ok {
		return 0, &apierrors.FieldError{Loc: bodyLoc(name), Msg: "Field required", Type: "missing"}
	}
	if isNull(raw) {
		return 0, &apierrors.FieldError{Loc: bodyLoc(name), Msg: "Input should be a valid integer", Type: "int_type"}
	}
	return parseInt(raw, name)
}

func optionalInt(fields map[string]json.RawMessage, name string) (*int, *apierrors.FieldError) {
	raw, ok := fields[name]
	if !ok || isNull(raw) {
		return nil, nil
	}
	n, ferr := parseInt(raw, name)
	if ferr != nil {
		return nil, ferr
	}
	return &n, nil
}

// parseInt accepts JSON integers, integral floats and numeric strings
func parseInt(raw json.RawMessage, name string) (int, *apierrors.FieldError) {
	var v interface{}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return 0, &apierrors.FieldError{Loc: bodyLoc(name), Msg: "Input should be a valid integer", Type: "int_type"}
	}

	switch t := v.(type) {
	case json.Number:
		if n, err := strconv.Atoi(t.String()); err == nil {
			return n, nil
		}
		f, err := t.Float64()
		if err != nil || f != math.Trunc(f) || math.Abs(f) > 1<<53 {
			return 0, &apierrors.FieldError{
				Loc:  bodyLoc(name),
				Msg:  "Input should be a valid integer, got a number with a fractional part",
				Type: "int_from_float",
			}
		}
		return int(f), nil
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
			return n, nil
		}
		return 0, &apierrors.FieldError{
			Loc:  bodyLoc(name),
			Msg:  "Input should be a valid integer, unable to parse string as an integer",
			Type: "int_parsing",
		}
	default:
		return 0, &apierrors.FieldError{Loc: bodyLoc(name), Msg: "Input should be a valid integer", Type: "int_type"}
	}
}
