package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/roomcast/internal/config"
)

func TestProcessIDGeneratedWhenUnset(t *testing.T) {
	t.Setenv("PROCESS_ID", "")

	cfg := config.New()
	require.NotEmpty(t, cfg.ProcessID)
	assert.True(t, cfg.ProcessIDGenerated,
		"a per-boot id must be flagged so broker queues named after it are declared ephemeral")
}

func TestProcessIDPinned(t *testing.T) {
	t.Setenv("PROCESS_ID", "chat-1")

	cfg := config.New()
	assert.Equal(t, "chat-1", cfg.ProcessID)
	assert.False(t, cfg.ProcessIDGenerated)
}
