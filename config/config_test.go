package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetEnv(t *testing.T) {
	t.Setenv("TRYON_TEST_STRING", "value")
	assert.Equal(t, "value", GetEnv("TRYON_TEST_STRING", "fallback"))
	assert.Equal(t, "fallback", GetEnv("TRYON_TEST_STRING_UNSET", "fallback"))

	// An explicitly empty variable is still "set"
	t.Setenv("TRYON_TEST_EMPTY", "")
	assert.Equal(t, "", GetEnv("TRYON_TEST_EMPTY", "fallback"))
}

func TestTypedGetters(t *testing.T) {
	t.Setenv("TRYON_TEST_INT", "42")
	t.Setenv("TRYON_TEST_BAD_INT", "forty-two")
	t.Setenv("TRYON_TEST_INT64", "10485760")
	t.Setenv("TRYON_TEST_BOOL", "true")
	t.Setenv("TRYON_TEST_DURATION", "90s")
	t.Setenv("TRYON_TEST_BAD_DURATION", "soon")

	assert.Equal(t, 42, GetEnvInt("TRYON_TEST_INT", 1))
	assert.Equal(t, 1, GetEnvInt("TRYON_TEST_BAD_INT", 1))
	assert.Equal(t, 7, GetEnvInt("TRYON_TEST_INT_UNSET", 7))
	assert.Equal(t, int64(10485760), GetEnvInt64("TRYON_TEST_INT64", 0))
	assert.True(t, GetEnvBool("TRYON_TEST_BOOL", false))
	assert.True(t, GetEnvBool("TRYON_TEST_BOOL_UNSET", true))
	assert.Equal(t, 90*time.Second, GetEnvDuration("TRYON_TEST_DURATION", time.Second))
	assert.Equal(t, time.Second, GetEnvDuration("TRYON_TEST_BAD_DURATION", time.Second))
}
