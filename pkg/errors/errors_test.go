package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWrapAndCode(t *testing.T) {
	base := fmt.Errorf("dial tcp: refused")
	err := Wrap(CodeBackendError, "autocomplete request failed", base)

	require.True(t, IsCode(err, CodeBackendError))
	require.ErrorIs(t, err, base)
	require.Equal(t, "autocomplete request failed: dial tcp: refused", err.Error())

	wrapped := fmt.Errorf("submit: %w", err)
	require.Equal(t, CodeBackendError, CodeOf(wrapped))
	require.Equal(t, "", CodeOf(base))
}
