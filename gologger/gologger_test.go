package gologger

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestLevelFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("DEBUG", "")
	assert.Equal(t, zerolog.InfoLevel, LevelFromEnv())

	t.Setenv("DEBUG", "1")
	assert.Equal(t, zerolog.DebugLevel, LevelFromEnv())

	t.Setenv("LOG_LEVEL", "warn")
	assert.Equal(t, zerolog.WarnLevel, LevelFromEnv())

	// unparseable levels fall back to DEBUG
	t.Setenv("LOG_LEVEL", "loud")
	assert.Equal(t, zerolog.DebugLevel, LevelFromEnv())
}
