package movies

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		return name
	})
	return v
}

// input is the wire shape of a request body. Pointer fields let the
// validator tell an absent or null field from an empty one.
type input struct {
	Year  *Year `json:"year" validate:"required"`
	Title *text `json:"title" validate:"required"`
	ID    *text `json:"id" validate:"required"`
}

// text decodes a JSON string as-is and any other scalar as its literal text.
type text string

func (t *text) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = text(s)
		return nil
	}

	switch data[0] {
	case '{', '[':
		return errors.New("expected a string")
	}
	*t = text(data)
	return nil
}

// DecodePayload decodes a request body into a generic JSON object. Numbers
// keep their original text. Data after the object is an error.
func DecodePayload(body []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var payload map[string]any
	if err := dec.Decode(&payload); err != nil {
		return nil, &DecodeError{Err: err}
	}
	if payload == nil {
		return nil, &DecodeError{Err: errors.New("body is not a JSON object")}
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, &DecodeError{Err: errors.New("unexpected data after JSON object")}
	}
	return payload, nil
}

// ParseMovie extracts the year, title and id from a request body. Keys must
// match exactly. It fails with a *DecodeError for malformed JSON, a
// *MissingFieldError when any of the fields is absent and an
// *InvalidFieldError when the year is not numeric.
func ParseMovie(body []byte) (Movie, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return Movie{}, &DecodeError{Err: err}
	}
	if fields == nil {
		return Movie{}, &DecodeError{Err: errors.New("body is not a JSON object")}
	}

	var in input
	targets := []struct {
		key string
		dst any
	}{
		{"year", &in.Year},
		{"title", &in.Title},
		{"id", &in.ID},
	}
	for _, t := range targets {
		raw, ok := fields[t.key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, t.dst); err != nil {
			var invalid *InvalidFieldError
			if errors.As(err, &invalid) {
				return Movie{}, invalid
			}
			return Movie{}, &DecodeError{Err: fmt.Errorf("%s: %w", t.key, err)}
		}
	}

	if err := validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return Movie{}, err
		}
		missing := &MissingFieldError{}
		for _, fe := range verrs {
			missing.Fields = append(missing.Fields, fe.Field())
		}
		return Movie{}, missing
	}

	return Movie{
		ID:    string(*in.ID),
		Title: string(*in.Title),
		Year:  *in.Year,
	}, nil
}
