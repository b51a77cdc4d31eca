package core

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfigTOML(t *testing.T) {
	data := []byte(`
[window]
width = 800
height = 600

[engine]
parallel_shader_compile = true
max_simultaneous_textures = 8

[log]
level = "debug"
format = "json"
`)
	config, err := ParseConfig(data, ".toml")
	require.NoError(t, err)

	assert.Equal(t, 800, config.Window.Width)
	assert.Equal(t, 600, config.Window.Height)
	assert.Equal(t, "Render Core", config.Window.Title, "unset keys keep defaults")
	assert.True(t, config.Engine.ParallelShaderCompile)
	assert.Equal(t, 8, config.Engine.MaxSimultaneousTextures)
	assert.Equal(t, 16, config.Engine.MaxVertexAttribs)
	assert.Equal(t, "json", config.Log.Format)
}

func TestParseConfigYAML(t *testing.T) {
	data := []byte(`
shaders:
  repository: assets/shaders
  hot_reload: true
engine:
  prevent_cache_wipe_between_frames: true
`)
	config, err := ParseConfig(data, ".yml")
	require.NoError(t, err)

	assert.Equal(t, "assets/shaders", config.Shaders.Repository)
	assert.True(t, config.Shaders.HotReload)
	assert.True(t, config.Engine.PreventCacheWipeBetweenFrames)
	assert.Equal(t, 1280, config.Window.Width)
}

func TestParseConfigErrors(t *testing.T) {
	_, err := ParseConfig([]byte("{}"), ".json")
	assert.True(t, errors.Is(err, ErrUnknownConfigFormat))

	_, err = ParseConfig([]byte("[window]\nwidth = -1\n"), ".toml")
	assert.Error(t, err)

	_, err = ParseConfig([]byte("log:\n  level: loud\n"), ".yaml")
	assert.Error(t, err)
}

func TestConfigSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	config := DefaultConfig()
	config.Window.Title = "round trip"
	config.Engine.ValidateShaderPrograms = true

	for _, name := range []string{"config.toml", "config.yaml"} {
		path := filepath.Join(dir, name)
		require.NoError(t, config.Save(path))

		loaded, err := LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, config, loaded, name)
	}
}
