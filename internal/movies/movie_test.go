package movies

import (
	"encoding/json"
	"testing"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"github.com/segmentio/ksuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMovie_MarshalMap(t *testing.T) {
	item, err := attributevalue.MarshalMap(Movie{ID: "abc-1", Title: "Dune", Year: "2020"})
	require.NoError(t, err)

	assert.Equal(t, map[string]types.AttributeValue{
		"id":    &types.AttributeValueMemberS{Value: "abc-1"},
		"title": &types.AttributeValueMemberS{Value: "Dune"},
		"year":  &types.AttributeValueMemberN{Value: "2020"},
	}, item)
}

func TestMovie_JSON(t *testing.T) {
	data, err := json.Marshal(Movie{ID: "abc-1", Title: "Dune", Year: "2020"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id": "abc-1", "title": "Dune", "year": 2020}`, string(data))
}

func TestDefault(t *testing.T) {
	m := Default("some-id")
	assert.Equal(t, Movie{ID: "some-id", Title: "The Amazing Spider-Man 2", Year: "2012"}, m)
}

func TestNewID(t *testing.T) {
	a, b := NewID(), NewID()
	assert.NotEqual(t, a, b)

	parsed, err := uuid.Parse(a)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(4), parsed.Version())
}

func TestNewKSUID(t *testing.T) {
	_, err := ksuid.Parse(NewKSUID())
	require.NoError(t, err)
}

func TestRedact(t *testing.T) {
	payload := map[string]any{
		"title":       "Dune",
		"password":    "hunter2",
		"ssn":         "123-45-6789",
		"credit_card": "4111111111111111",
	}

	redacted := Redact(payload)

	assert.Equal(t, map[string]any{
		"title":       "Dune",
		"password":    Mask,
		"ssn":         Mask,
		"credit_card": Mask,
	}, redacted)
	assert.Equal(t, "hunter2", payload["password"])
}
