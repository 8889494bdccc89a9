package movies

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"github.com/segmentio/ksuid"
)

const (
	// DefaultYear and DefaultTitle describe the record inserted when a
	// request arrives without a payload.
	DefaultYear  Year = "2012"
	DefaultTitle      = "The Amazing Spider-Man 2"
)

type Movie struct {
	ID    string `json:"id" dynamodbav:"id"`
	Title string `json:"title" dynamodbav:"title"`
	Year  Year   `json:"year" dynamodbav:"year"`
}

// Default returns the movie stored for requests without a body.
func Default(id string) Movie {
	return Movie{
		ID:    id,
		Title: DefaultTitle,
		Year:  DefaultYear,
	}
}

// NewID returns a random UUIDv4.
func NewID() string {
	return uuid.NewString()
}

// NewKSUID returns a K-sortable id.
func NewKSUID() string {
	return ksuid.New().String()
}

var numberRE = regexp.MustCompile(`^-?[0-9]+(\.[0-9]+)?([eE][+-]?[0-9]+)?$`)

// Year holds the textual form of a numeric year. It decodes from a JSON
// number or a numeric JSON string and is stored as a DynamoDB number.
type Year string

func (y Year) MarshalJSON() ([]byte, error) {
	if !numberRE.MatchString(string(y)) {
		return nil, fmt.Errorf("year %q is not a number", string(y))
	}
	return []byte(y), nil
}

func (y *Year) UnmarshalJSON(data []byte) error {
	var v any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return err
	}

	var s string
	switch v := v.(type) {
	case json.Number:
		s = v.String()
	case string:
		s = v
	default:
		return &InvalidFieldError{Field: "year", Value: string(data)}
	}

	if !numberRE.MatchString(s) {
		return &InvalidFieldError{Field: "year", Value: string(data)}
	}

	*y = Year(s)
	return nil
}

// MarshalDynamoDBAttributeValue stores the year as an N attribute.
func (y Year) MarshalDynamoDBAttributeValue() (types.AttributeValue, error) {
	return &types.AttributeValueMemberN{Value: string(y)}, nil
}
