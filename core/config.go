package core

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

var ErrUnknownConfigFormat = errors.New("unknown config format")

type EngineConfig struct {
	MaxSimultaneousTextures       int  `toml:"max_simultaneous_textures" yaml:"max_simultaneous_textures"`
	MaxVertexAttribs              int  `toml:"max_vertex_attribs" yaml:"max_vertex_attribs"`
	PreventCacheWipeBetweenFrames bool `toml:"prevent_cache_wipe_between_frames" yaml:"prevent_cache_wipe_between_frames"`
	ValidateShaderPrograms        bool `toml:"validate_shader_programs" yaml:"validate_shader_programs"`
	ParallelShaderCompile         bool `toml:"parallel_shader_compile" yaml:"parallel_shader_compile"`
	DisableVertexArrayObjects     bool `toml:"disable_vertex_array_objects" yaml:"disable_vertex_array_objects"`
}

func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		MaxSimultaneousTextures: 16,
		MaxVertexAttribs:        16,
	}
}

type ShaderConfig struct {
	Repository string `toml:"repository" yaml:"repository"`
	HotReload  bool   `toml:"hot_reload" yaml:"hot_reload"`
}

func DefaultShaderConfig() ShaderConfig {
	return ShaderConfig{Repository: "shaders"}
}

type Config struct {
	Window  WindowConfig `toml:"window" yaml:"window"`
	Engine  EngineConfig `toml:"engine" yaml:"engine"`
	Shaders ShaderConfig `toml:"shaders" yaml:"shaders"`
	Log     LogConfig    `toml:"log" yaml:"log"`
}

func DefaultConfig() Config {
	return Config{
		Window:  DefaultWindowConfig(),
		Engine:  DefaultEngineConfig(),
		Shaders: DefaultShaderConfig(),
		Log:     DefaultLogConfig(),
	}
}

// LoadConfig reads a TOML or YAML file over DefaultConfig. Keys missing from the
// file keep their default values.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return ParseConfig(data, filepath.Ext(path))
}

// ParseConfig decodes data according to ext (".toml", ".yaml" or ".yml").
func ParseConfig(data []byte, ext string) (Config, error) {
	config := DefaultConfig()

	switch strings.ToLower(ext) {
	case ".toml":
		if err := toml.Unmarshal(data, &config); err != nil {
			return Config{}, fmt.Errorf("decode toml config: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &config); err != nil {
			return Config{}, fmt.Errorf("decode yaml config: %w", err)
		}
	default:
		return Config{}, fmt.Errorf("%w: %q", ErrUnknownConfigFormat, ext)
	}

	if err := config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

func (c Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("invalid window size %dx%d", c.Window.Width, c.Window.Height)
	}
	if c.Engine.MaxSimultaneousTextures <= 0 {
		return fmt.Errorf("max_simultaneous_textures must be positive, got %d", c.Engine.MaxSimultaneousTextures)
	}
	if c.Engine.MaxVertexAttribs <= 0 {
		return fmt.Errorf("max_vertex_attribs must be positive, got %d", c.Engine.MaxVertexAttribs)
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// Save writes the config as TOML or YAML according to the path extension.
func (c Config) Save(path string) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		data, err = toml.Marshal(c)
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownConfigFormat, filepath.Ext(path))
	}
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
