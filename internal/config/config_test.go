package config

import (
	"os"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func TestLoad_DefaultsForDevelopment(t *testing.T) {
	resetViper(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "./dist", cfg.OutDir)
	assert.True(t, cfg.Watch)
	assert.True(t, cfg.Cache)
	assert.False(t, cfg.Minify)
	assert.True(t, cfg.HMR)
	assert.False(t, cfg.Production)
	assert.Equal(t, "/dist", cfg.PublicURL)
}

func TestLoad_ProductionDisablesWatchAndEnablesMinify(t *testing.T) {
	resetViper(t)
	viper.Set("production", true)

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.Production)
	assert.False(t, cfg.Watch)
	assert.True(t, cfg.Minify)
	assert.False(t, cfg.HMR)
}

func TestLoad_NodeEnvProductionIsHonoredLikeTheFlag(t *testing.T) {
	resetViper(t)
	require.NoError(t, os.Setenv("NODE_ENV", "production"))
	t.Cleanup(func() { os.Unsetenv("NODE_ENV") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Production)
}

func TestLoad_ExplicitWatchOverridesProductionDefault(t *testing.T) {
	resetViper(t)
	viper.Set("production", true)
	viper.Set("watch", true)

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Watch)
}

func TestLoad_RejectsOutOfRangeLogLevel(t *testing.T) {
	resetViper(t)
	viper.Set("log_level", 9)

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log_level")
}

func TestLoad_RejectsPathTraversalInOutDir(t *testing.T) {
	resetViper(t)
	viper.Set("out_dir", "../../etc")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out_dir")
}

func TestValidatePath_RejectsEmptyAndDangerousInputs(t *testing.T) {
	cases := []string{"", "../escape", "dist;rm -rf /", "dist`whoami`", "dist$HOME"}
	for _, c := range cases {
		assert.Error(t, validatePath(c), "expected error for %q", c)
	}
}

func TestValidatePath_AcceptsOrdinaryRelativePath(t *testing.T) {
	assert.NoError(t, validatePath("./dist"))
	assert.NoError(t, validatePath("build/output"))
}
