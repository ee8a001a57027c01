package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/example/go-narration/internal/audio"
)

type Config struct {
	Speech   SpeechConfig `mapstructure:"speech"`
	Audio    AudioConfig  `mapstructure:"audio"`
	Server   ServerConfig `mapstructure:"server"`
	LogLevel string       `mapstructure:"log_level"`
}

type SpeechConfig struct {
	Provider    string `mapstructure:"provider"`
	APIKey      string `mapstructure:"api_key"`
	Model       string `mapstructure:"model"`
	Voice       string `mapstructure:"voice"`
	Concurrency int    `mapstructure:"concurrency"`
	// Timeout is the per-segment synthesis deadline in seconds.
	Timeout int `mapstructure:"timeout"`
}

type AudioConfig struct {
	SampleRate int `mapstructure:"sample_rate"`
	Channels   int `mapstructure:"channels"`
}

type ServerConfig struct {
	ListenAddr      string `mapstructure:"listen_addr"`
	Workers         int    `mapstructure:"workers"`
	MaxBodyBytes    int64  `mapstructure:"max_body_bytes"`
	MaxSegments     int    `mapstructure:"max_segments"`
	RequestTimeout  int    `mapstructure:"request_timeout"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"`
}

type LoadOptions struct {
	Cmd        flagBinder
	ConfigFile string
	Defaults   Config
}

type flagBinder interface {
	Flags() *pflag.FlagSet
}

func DefaultConfig() Config {
	return Config{
		Speech: SpeechConfig{
			Provider:    ProviderGemini,
			APIKey:      "",
			Model:       "",
			Voice:       "",
			Concurrency: 4,
			Timeout:     60,
		},
		Audio: AudioConfig{
			SampleRate: 24000,
			Channels:   1,
		},
		Server: ServerConfig{
			ListenAddr:      ":8080",
			Workers:         2,
			MaxBodyBytes:    32 << 20,
			MaxSegments:     64,
			RequestTimeout:  120,
			ShutdownTimeout: 30,
		},
		LogLevel: "info",
	}
}

// flagKeys maps each command-line flag onto its configuration key.
var flagKeys = map[string]string{
	"speech-provider":         "speech.provider",
	"speech-api-key":          "speech.api_key",
	"speech-model":            "speech.model",
	"speech-voice":            "speech.voice",
	"speech-concurrency":      "speech.concurrency",
	"speech-timeout":          "speech.timeout",
	"audio-sample-rate":       "audio.sample_rate",
	"audio-channels":          "audio.channels",
	"server-listen-addr":      "server.listen_addr",
	"workers":                 "server.workers",
	"server-max-body-bytes":   "server.max_body_bytes",
	"server-max-segments":     "server.max_segments",
	"server-request-timeout":  "server.request_timeout",
	"server-shutdown-timeout": "server.shutdown_timeout",
	"log-level":               "log_level",
}

// flagAliases maps shorthand flags onto the canonical flag they override.
var flagAliases = map[string]string{
	"provider": "speech-provider",
}

func RegisterFlags(fs *pflag.FlagSet, defaults Config) {
	fs.String("speech-provider", defaults.Speech.Provider, "Speech provider (gemini|openai)")
	fs.String("provider", defaults.Speech.Provider, "Speech provider (alias for --speech-provider)")
	fs.String("speech-api-key", defaults.Speech.APIKey, "API key for the speech provider")
	fs.String("speech-model", defaults.Speech.Model, "Speech model override (provider default if empty)")
	fs.String("speech-voice", defaults.Speech.Voice, "Prebuilt voice name (provider default if empty)")
	fs.Int("speech-concurrency", defaults.Speech.Concurrency, "Max concurrent segment synthesis calls")
	fs.Int("speech-timeout", defaults.Speech.Timeout, "Per-segment synthesis timeout in seconds")
	fs.Int("audio-sample-rate", defaults.Audio.SampleRate, "Sample rate written into combined WAV headers")
	fs.Int("audio-channels", defaults.Audio.Channels, "Channel count written into combined WAV headers")
	fs.String("server-listen-addr", defaults.Server.ListenAddr, "HTTP listen address")
	fs.Int("workers", defaults.Server.Workers, "Max concurrent narration requests")
	fs.Int64("server-max-body-bytes", defaults.Server.MaxBodyBytes, "Max request body size in bytes")
	fs.Int("server-max-segments", defaults.Server.MaxSegments, "Max clips or segments per request")
	fs.Int("server-request-timeout", defaults.Server.RequestTimeout, "Per-request timeout in seconds")
	fs.Int("server-shutdown-timeout", defaults.Server.ShutdownTimeout, "Graceful shutdown drain period in seconds")
	fs.String("log-level", defaults.LogLevel, "Log level (debug|info|warn|error)")
}

func Load(opts LoadOptions) (Config, error) {
	v := viper.New()

	setDefaults(v, opts.Defaults)
	if opts.Cmd != nil {
		if err := bindFlags(v, opts.Cmd.Flags()); err != nil {
			return Config{}, err
		}
	}

	v.SetEnvPrefix("NARRATOR")
	replacer := strings.NewReplacer("-", "_", ".", "_")
	v.SetEnvKeyReplacer(replacer)
	if err := v.BindEnv("speech.api_key", "NARRATOR_SPEECH_API_KEY", "NARRATOR_API_KEY"); err != nil {
		return Config{}, fmt.Errorf("bind api key env vars: %w", err)
	}
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("narrator")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	provider, err := NormalizeProvider(cfg.Speech.Provider)
	if err != nil {
		return Config{}, err
	}
	cfg.Speech.Provider = provider

	if err := audio.ValidateFormat(cfg.Audio.SampleRate, cfg.Audio.Channels); err != nil {
		return Config{}, fmt.Errorf("audio config: %w", err)
	}

	return cfg, nil
}

// bindFlags binds every known flag present in fs. An alias flag replaces its
// canonical binding only when it was set explicitly.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	var bindErr error
	fs.VisitAll(func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok || bindErr != nil {
			return
		}
		if err := v.BindPFlag(key, f); err != nil {
			bindErr = fmt.Errorf("bind flag %q: %w", f.Name, err)
		}
	})
	if bindErr != nil {
		return bindErr
	}

	for alias, canonical := range flagAliases {
		f := fs.Lookup(alias)
		if f == nil || !f.Changed {
			continue
		}
		if err := v.BindPFlag(flagKeys[canonical], f); err != nil {
			return fmt.Errorf("bind flag %q: %w", alias, err)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("speech.provider", c.Speech.Provider)
	v.SetDefault("speech.api_key", c.Speech.APIKey)
	v.SetDefault("speech.model", c.Speech.Model)
	v.SetDefault("speech.voice", c.Speech.Voice)
	v.SetDefault("speech.concurrency", c.Speech.Concurrency)
	v.SetDefault("speech.timeout", c.Speech.Timeout)
	v.SetDefault("audio.sample_rate", c.Audio.SampleRate)
	v.SetDefault("audio.channels", c.Audio.Channels)
	v.SetDefault("server.listen_addr", c.Server.ListenAddr)
	v.SetDefault("server.workers", c.Server.Workers)
	v.SetDefault("server.max_body_bytes", c.Server.MaxBodyBytes)
	v.SetDefault("server.max_segments", c.Server.MaxSegments)
	v.SetDefault("server.request_timeout", c.Server.RequestTimeout)
	v.SetDefault("server.shutdown_timeout", c.Server.ShutdownTimeout)
	v.SetDefault("log_level", c.LogLevel)
}
