package copilot

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func unsetenv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestServiceName(t *testing.T) {
	unsetenv(t, "COPILOT_APPLICATION_NAME", "COPILOT_ENVIRONMENT_NAME", "COPILOT_SERVICE_NAME")
	assert.Equal(t, "movies", ServiceName("movies"))
	assert.Equal(t, "", QueueName())

	t.Setenv("COPILOT_APPLICATION_NAME", "films")
	t.Setenv("COPILOT_ENVIRONMENT_NAME", "test")
	assert.Equal(t, "movies", ServiceName("movies"))

	t.Setenv("COPILOT_SERVICE_NAME", "processor")
	assert.Equal(t, "films-test-processor", ServiceName("movies"))
	assert.Equal(t, "films-test-createMovie", QueueName())
}
