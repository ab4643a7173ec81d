package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew_FiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, "warn")
	require.NoError(t, err)

	logger.Info("composed test assets")
	require.Empty(t, buf.String())

	logger.Warn("link failed", "module", "A")
	require.Contains(t, buf.String(), "gah-e2e")
	require.Contains(t, buf.String(), "link failed")
	require.Contains(t, buf.String(), "module=A")
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(&bytes.Buffer{}, "loud")
	require.Error(t, err)
}
