package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEnvHelpers(t *testing.T) {
	t.Setenv("X_STR", "value")
	t.Setenv("X_BOOL_ON", "yes")
	t.Setenv("X_BOOL_OFF", "0")
	t.Setenv("X_BOOL_JUNK", "maybe")
	t.Setenv("X_INT", "42")
	t.Setenv("X_INT_JUNK", "forty-two")
	t.Setenv("X_DUR", "250ms")
	t.Setenv("X_DUR_JUNK", "soon")

	assert.Equal(t, "value", envStr("X_STR", "def"))
	assert.Equal(t, "def", envStr("X_STR_UNSET", "def"))

	assert.True(t, envBool("X_BOOL_ON", false))
	assert.False(t, envBool("X_BOOL_OFF", true))
	assert.True(t, envBool("X_BOOL_JUNK", true)) // unparsable keeps the default
	assert.False(t, envBool("X_BOOL_UNSET", false))

	assert.Equal(t, 42, envInt("X_INT", 7))
	assert.Equal(t, 7, envInt("X_INT_JUNK", 7))
	assert.Equal(t, 7, envInt("X_INT_UNSET", 7))

	assert.Equal(t, 250*time.Millisecond, envDur("X_DUR", time.Second))
	assert.Equal(t, time.Second, envDur("X_DUR_JUNK", time.Second))

	t.Setenv("X_MUST_INT", "120")
	assert.Equal(t, 120, mustInt("X_MUST_INT"))
}

func TestParseMethods(t *testing.T) {
	t.Parallel()
	m := parseMethods("get, head ,POST")
	assert.True(t, m["GET"])
	assert.True(t, m["HEAD"])
	assert.True(t, m["POST"])
	assert.False(t, m["DELETE"])

	assert.Empty(t, parseMethods(""))
	assert.Empty(t, parseMethods(" , ,"))
}

func TestLoad(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("APP_PORT", "8080")
	t.Setenv("DB_USER", "cinema")
	t.Setenv("DB_PASS", "")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", "3306")
	t.Setenv("DB_NAME", "cinema")

	cfg := Load()
	assert.Equal(t, "test", cfg.Env)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "cinema", cfg.DBUser)
	assert.Empty(t, cfg.DBPass)
	assert.Equal(t, "cinema", cfg.DBName)
}
