package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridlinecompany/LetsEcrypt/core/config"
)

type sampleConfig struct {
	Addr    string        `env:"CFG_TEST_ADDR" envDefault:":3000"`
	Retries int           `env:"CFG_TEST_RETRIES" envDefault:"2"`
	Delay   time.Duration `env:"CFG_TEST_DELAY" envDefault:"3s"`
}

type requiredConfig struct {
	Secret string `env:"CFG_TEST_REQUIRED_SECRET,required"`
}

func TestLoadDefaultsAndOverrides(t *testing.T) {
	config.Reset()
	t.Setenv("CFG_TEST_RETRIES", "5")

	var cfg sampleConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, ":3000", cfg.Addr)
	assert.Equal(t, 5, cfg.Retries)
	assert.Equal(t, 3*time.Second, cfg.Delay)
}

func TestLoadCachesPerType(t *testing.T) {
	config.Reset()
	t.Setenv("CFG_TEST_ADDR", ":8080")

	var first sampleConfig
	require.NoError(t, config.Load(&first))

	t.Setenv("CFG_TEST_ADDR", ":9090")
	var second sampleConfig
	require.NoError(t, config.Load(&second))

	assert.Equal(t, ":8080", second.Addr)
}

func TestLoadRequiredMissing(t *testing.T) {
	config.Reset()

	var cfg requiredConfig
	err := config.Load(&cfg)
	require.Error(t, err)
	assert.Panics(t, func() { config.MustLoad(&requiredConfig{}) })
}
