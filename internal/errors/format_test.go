package errors

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatForUserIncludesSuggestionAndCode(t *testing.T) {
	err := StoreError("index corrupt", nil).WithSuggestion("run a full reindex")
	out := FormatForUser(err, false)
	assert.Contains(t, out, "index corrupt")
	assert.Contains(t, out, "run a full reindex")
	assert.Contains(t, out, CodeStoreError)
}

func TestFormatForUserPlainError(t *testing.T) {
	out := FormatForUser(errors.New("boom"), false)
	assert.Equal(t, "boom", out)
}

func TestFormatForUserNil(t *testing.T) {
	assert.Equal(t, "", FormatForUser(nil, false))
}

func TestFormatForCLIWrapsPlainErrors(t *testing.T) {
	out := FormatForCLI(errors.New("boom"))
	assert.Contains(t, out, "boom")
	assert.Contains(t, out, CodeInternal)
}

func TestFormatJSONRoundTrips(t *testing.T) {
	err := ProviderError("embedding timed out", errors.New("dial tcp: timeout")).
		WithDetail("model", "static-768")

	raw, marshalErr := FormatJSON(err)
	require.NoError(t, marshalErr)

	var je jsonError
	require.NoError(t, json.Unmarshal(raw, &je))
	assert.Equal(t, CodeProviderError, je.Code)
	assert.Equal(t, string(CategoryProvider), je.Category)
	assert.True(t, je.Retryable)
	assert.Equal(t, "static-768", je.Details["model"])
	assert.Contains(t, je.Cause, "timeout")
}

func TestFormatForLogIncludesDetailsAndCause(t *testing.T) {
	err := GitError("log walk failed", errors.New("repository not found")).
		WithDetail("path", "/repo")

	fields := FormatForLog(err)
	assert.Equal(t, CodeTransientGitError, fields["error_code"])
	assert.Equal(t, string(CategoryGit), fields["category"])
	assert.Equal(t, "repository not found", fields["cause"])
	assert.Equal(t, "/repo", fields["detail_path"])
}

func TestFormatForLogNil(t *testing.T) {
	assert.Nil(t, FormatForLog(nil))
}
