package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCSV(t *testing.T) {
	assert.Nil(t, CSV(""))
	assert.Equal(t, []string{"a:9092", "b:9092"}, CSV(" a:9092, ,b:9092 "))
}

func TestEnvDefaults(t *testing.T) {
	t.Setenv("ANIMERCH_TEST_INT", "42")
	t.Setenv("ANIMERCH_TEST_BAD_INT", "x")
	t.Setenv("ANIMERCH_TEST_BOOL", "true")
	t.Setenv("ANIMERCH_TEST_DUR", "90m")

	assert.Equal(t, 42, EnvIntDefault("ANIMERCH_TEST_INT", 1))
	assert.Equal(t, 1, EnvIntDefault("ANIMERCH_TEST_BAD_INT", 1))
	assert.Equal(t, 7, EnvIntDefault("ANIMERCH_TEST_MISSING", 7))
	assert.True(t, EnvBoolDefault("ANIMERCH_TEST_BOOL", false))
	assert.Equal(t, 90*time.Minute, EnvDurationDefault("ANIMERCH_TEST_DUR", time.Hour))
	assert.Equal(t, "def", EnvDefault("ANIMERCH_TEST_MISSING", "def"))
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SERVER_PORT", "")
	t.Setenv("TOKEN_TTL", "")
	t.Setenv("ORDER_STRICT_TRANSITIONS", "")
	t.Setenv("ORDER_CREATE_RETRIES", "")
	t.Setenv("ES_INDEX", "")

	cfg := Load()
	assert.Equal(t, 5001, cfg.ServerPort)
	assert.Equal(t, 30*24*time.Hour, cfg.TokenTTL)
	assert.False(t, cfg.StrictOrderTransitions)
	assert.Equal(t, 3, cfg.OrderCreateRetries)
	assert.Equal(t, "products", cfg.ESIndex)
}
