package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config is the process configuration. The audio format is fixed at
// load time and never changes for the process lifetime.
type Config struct {
	Audio     AudioConfig     `mapstructure:"audio" yaml:"audio"`
	Recording RecordingConfig `mapstructure:"recording" yaml:"recording"`
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
}

type AudioConfig struct {
	SampleRate   int `mapstructure:"sample_rate" yaml:"sample_rate"`
	BitDepth     int `mapstructure:"bit_depth" yaml:"bit_depth"`
	Channels     int `mapstructure:"channels" yaml:"channels"`
	SafetyFactor int `mapstructure:"safety_factor" yaml:"safety_factor"`
}

type RecordingConfig struct {
	// File is the working file: headerless raw PCM, overwritten at the
	// start of each recording.
	File string `mapstructure:"file" yaml:"file"`

	// AllowMicrophone is the hosting environment's capture permission
	// signal. When false, start requests are refused before any device
	// work happens.
	AllowMicrophone bool `mapstructure:"allow_microphone" yaml:"allow_microphone"`
}

type ServerConfig struct {
	Address string `mapstructure:"address" yaml:"address"`
	Port    int    `mapstructure:"port" yaml:"port"`
}

var defaultConfig = Config{
	Audio: AudioConfig{
		SampleRate:   44100,
		BitDepth:     16,
		Channels:     1,
		SafetyFactor: 2,
	},
	Recording: RecordingConfig{
		File:            filepath.Join(os.Getenv("HOME"), "Audio", "EchoNote", "recording.pcm"),
		AllowMicrophone: true,
	},
	Server: ServerConfig{
		Address: "127.0.0.1",
		Port:    8080,
	},
}

// Default returns a copy of the built-in configuration.
func Default() *Config {
	cfg := defaultConfig
	return &cfg
}

// Load reads the configuration file, layering it over the defaults.
// An empty path returns the defaults unchanged.
func Load(configFile string) (*Config, error) {
	cfg := Default()
	if configFile == "" {
		return cfg, nil
	}

	v := viper.New()
	v.SetConfigFile(configFile)
	v.SetEnvPrefix("ECHONOTE")
	v.AutomaticEnv()

	v.SetDefault("audio.sample_rate", defaultConfig.Audio.SampleRate)
	v.SetDefault("audio.bit_depth", defaultConfig.Audio.BitDepth)
	v.SetDefault("audio.channels", defaultConfig.Audio.Channels)
	v.SetDefault("audio.safety_factor", defaultConfig.Audio.SafetyFactor)
	v.SetDefault("recording.file", defaultConfig.Recording.File)
	v.SetDefault("recording.allow_microphone", defaultConfig.Recording.AllowMicrophone)
	v.SetDefault("server.address", defaultConfig.Server.Address)
	v.SetDefault("server.port", defaultConfig.Server.Port)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	cfg.Recording.File = expandPath(cfg.Recording.File)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// validate rejects configurations the streaming engine cannot honor.
func validate(cfg *Config) error {
	if cfg.Audio.SampleRate <= 0 {
		return fmt.Errorf("audio.sample_rate must be positive, got %d", cfg.Audio.SampleRate)
	}
	if cfg.Audio.BitDepth != 16 {
		return fmt.Errorf("audio.bit_depth must be 16 (raw s16le PCM), got %d", cfg.Audio.BitDepth)
	}
	if cfg.Audio.Channels != 1 {
		return fmt.Errorf("audio.channels must be 1 (mono), got %d", cfg.Audio.Channels)
	}
	if cfg.Audio.SafetyFactor < 1 {
		return fmt.Errorf("audio.safety_factor must be >= 1, got %d", cfg.Audio.SafetyFactor)
	}
	if strings.TrimSpace(cfg.Recording.File) == "" {
		return fmt.Errorf("recording.file is required")
	}
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535, got %d", cfg.Server.Port)
	}
	return nil
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, path[2:])
	}
	return path
}
