package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{})
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "console", cfg.LogFormat)
	assert.Equal(t, 1, cfg.Shards)
	assert.Equal(t, 256, cfg.ShardBuffer)
	assert.Equal(t, MalformedSkip, cfg.MalformedPolicy)
	assert.False(t, cfg.StrictDisputes)
	assert.Equal(t, "payments.accounts", cfg.NATSSubject)
	assert.Equal(t, 5*time.Second, cfg.NATSConnectTimeout)
	assert.Equal(t, "payments:account:", cfg.RedisKeyPrefix)
	assert.False(t, cfg.NATSEnabled())
	assert.False(t, cfg.RedisEnabled())
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{
		"PAYMENTS_LOG_LEVEL":        "debug",
		"PAYMENTS_LOG_FORMAT":       "json",
		"PAYMENTS_SHARDS":           "8",
		"PAYMENTS_MALFORMED_POLICY": "abort",
		"PAYMENTS_STRICT_DISPUTES":  "true",
		"NATS_URL":                  "nats://localhost:4222",
		"REDIS_ADDR":                "localhost:6379",
	})
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 8, cfg.Shards)
	assert.Equal(t, MalformedAbort, cfg.MalformedPolicy)
	assert.True(t, cfg.StrictDisputes)
	assert.True(t, cfg.NATSEnabled())
	assert.True(t, cfg.RedisEnabled())
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]map[string]string{
		"policy":       {"PAYMENTS_MALFORMED_POLICY": "retry"},
		"format":       {"PAYMENTS_LOG_FORMAT": "xml"},
		"level":        {"PAYMENTS_LOG_LEVEL": "loud"},
		"shards":       {"PAYMENTS_SHARDS": "-1"},
		"buffer":       {"PAYMENTS_SHARD_BUFFER": "-5"},
		"non-integer":  {"PAYMENTS_SHARDS": "many"},
		"non-duration": {"NATS_CONNECT_TIMEOUT": "soon"},
	}
	for name, environ := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadFrom(environ)
			assert.Error(t, err)
		})
	}
}
