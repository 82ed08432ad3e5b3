package providers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseHTTPErrorMessage(t *testing.T) {
	assert.Equal(t, "invalid_request_error: bad model",
		ParseHTTPErrorMessage(400, []byte(`{"error":{"type":"invalid_request_error","message":"bad model"}}`)))
	assert.Equal(t, "bad model",
		ParseHTTPErrorMessage(400, []byte(`{"error":{"message":"bad model"}}`)))
	assert.Equal(t, "invalid_request_error",
		ParseHTTPErrorMessage(400, []byte(`{"error":{"type":"invalid_request_error"}}`)))
	assert.Equal(t, "HTTP 500", ParseHTTPErrorMessage(500, []byte(`not json`)))
}

func TestParseRetryAfter_Seconds(t *testing.T) {
	assert.Equal(t, 30*time.Second, ParseRetryAfter("30"))
}

func TestParseRetryAfter_Empty(t *testing.T) {
	assert.Equal(t, time.Duration(0), ParseRetryAfter(""))
}

func TestHTTPError_Error(t *testing.T) {
	e := &HTTPError{Status: 429, Body: "rate_limit_error: slow down"}
	assert.Contains(t, e.Error(), "429")
	assert.Contains(t, e.Error(), "slow down")
}
