package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDerivesCategoryAndSeverity(t *testing.T) {
	err := New(CodeStoreError, "store broke", nil)
	assert.Equal(t, CodeStoreError, err.Code)
	assert.Equal(t, CategoryStore, err.Category)
	assert.Equal(t, SeverityError, err.Severity)
	assert.False(t, err.Retryable)

	fatal := New(CodeNotInitialized, "not opened", nil)
	assert.Equal(t, SeverityFatal, fatal.Severity)

	transient := New(CodeProviderError, "timeout", nil)
	assert.Equal(t, SeverityWarning, transient.Severity)
	assert.True(t, transient.Retryable)
}

func TestWrapNilReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(CodeInternal, nil))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("disk full")
	wrapped := Wrap(CodeStoreError, cause)
	require.NotNil(t, wrapped)
	assert.Equal(t, cause, wrapped.Unwrap())
	assert.Contains(t, wrapped.Error(), "disk full")
}

func TestIsMatchesByCode(t *testing.T) {
	a := New(CodeNotFound, "symbol missing", nil)
	b := New(CodeNotFound, "different message", nil)
	c := New(CodeStoreError, "symbol missing", nil)

	assert.True(t, a.Is(b))
	assert.False(t, a.Is(c))
}

func TestWithDetailAndSuggestionChain(t *testing.T) {
	err := New(CodeInvalidInput, "bad path", nil).
		WithDetail("path", "../escape").
		WithSuggestion("use a path inside the repo root")

	assert.Equal(t, "../escape", err.Details["path"])
	assert.Equal(t, "use a path inside the repo root", err.Suggestion)
}

func TestConstructorHelpers(t *testing.T) {
	cases := []struct {
		name string
		err  *CoreError
		code string
	}{
		{"NotInitialized", NotInitialized("x", nil), CodeNotInitialized},
		{"StoreError", StoreError("x", nil), CodeStoreError},
		{"ProviderError", ProviderError("x", nil), CodeProviderError},
		{"GitError", GitError("x", nil), CodeTransientGitError},
		{"ValidationError", ValidationError("x", nil), CodeInvalidInput},
		{"InternalError", InternalError("x", nil), CodeInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.code, tc.err.Code)
		})
	}
}

func TestIsRetryableAndIsFatal(t *testing.T) {
	assert.True(t, IsRetryable(ProviderError("flaky", nil)))
	assert.False(t, IsRetryable(StoreError("broke", nil)))
	assert.False(t, IsRetryable(nil))

	assert.True(t, IsFatal(NotInitialized("x", nil)))
	assert.False(t, IsFatal(StoreError("x", nil)))
	assert.False(t, IsFatal(nil))

	plain := errors.New("plain")
	assert.False(t, IsRetryable(plain))
	assert.False(t, IsFatal(plain))
}

func TestGetCodeAndCategory(t *testing.T) {
	err := StoreError("x", nil)
	assert.Equal(t, CodeStoreError, GetCode(err))
	assert.Equal(t, CategoryStore, GetCategory(err))

	plain := errors.New("plain")
	assert.Equal(t, "", GetCode(plain))
	assert.Equal(t, Category(""), GetCategory(plain))
}
