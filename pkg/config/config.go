package config

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	App struct {
		Env       string `env:"APP_ENV" env-default:"development"`
		Port      int    `env:"APP_PORT" env-default:"8000"`
		SentryURL string `env:"SENTRY_URL"`
	}
	Video struct {
		PreviewMode       bool    `env:"VIDEO_PREVIEW_MODE" env-default:"true"`
		TransitionSeconds float64 `env:"VIDEO_TRANSITION_SECONDS" env-default:"0.5"`
		FPS               int     `env:"VIDEO_FPS" env-default:"30"`
		OutputDir         string  `env:"VIDEO_OUTPUT_DIR" env-default:"outputs"`
		UploadDir         string  `env:"VIDEO_UPLOAD_DIR" env-default:"uploads"`
	}
	OpenAI struct {
		APIKey     string  `env:"OPENAI_API_KEY"`
		ChatModel  string  `env:"OPENAI_CHAT_MODEL" env-default:"gpt-4.1"`
		TTSModel   string  `env:"OPENAI_TTS_MODEL" env-default:"tts-1"`
		TTSVoice   string  `env:"OPENAI_TTS_VOICE" env-default:"alloy"`
		TTSSpeed   float64 `env:"OPENAI_TTS_SPEED" env-default:"1.2"`
		ImageModel string  `env:"OPENAI_IMAGE_MODEL" env-default:"dall-e-3"`
		ImageSize  string  `env:"OPENAI_IMAGE_SIZE" env-default:"1024x1792"`
	}
	Newswire struct {
		APIKey  string `env:"RAPIDAPI_KEY"`
		Country string `env:"NEWSWIRE_COUNTRY" env-default:"IT"`
		Lang    string `env:"NEWSWIRE_LANG" env-default:"it"`
		Topic   string `env:"NEWSWIRE_TOPIC" env-default:"WORLD"`
		Limit   int    `env:"NEWSWIRE_LIMIT" env-default:"15"`
	}
	Pipeline struct {
		Enabled   bool          `env:"PIPELINE_ENABLED" env-default:"true"`
		Interval  time.Duration `env:"PIPELINE_INTERVAL" env-default:"30m"`
		Workers   int           `env:"PIPELINE_WORKERS" env-default:"5"`
		Retention time.Duration `env:"PIPELINE_HISTORY_RETENTION" env-default:"720h"`
	}
	Cache struct {
		Dir string        `env:"CACHE_DIR" env-default:"cache"`
		TTL time.Duration `env:"CACHE_TTL" env-default:"168h"`
	}
	Prompts struct {
		Dir string `env:"PROMPTS_DIR" env-default:"prompts"`
	}
	Postgres struct {
		Port     int    `env:"POSTGRES_PORT"`
		Host     string `env:"POSTGRES_HOST"`
		User     string `env:"POSTGRES_USER"`
		Pass     string `env:"POSTGRES_PASS"`
		Name     string `env:"POSTGRES_NAME"`
		SslMode  string `env:"POSTGRES_SSL_MODE" env-default:"disable"`
		MaxConns int32  `env:"POSTGRES_MAX_CONNS" env-default:"4"`
	}
	Telegram struct {
		User    int64  `env:"TELEGRAM_USER"`
		Token   string `env:"TELEGRAM_TOKEN"`
		Channel string `env:"TELEGRAM_CHANNEL"`
	}
}

var (
	once sync.Once
	cfg  *Config
)

func New() (*Config, error) {
	once.Do(func() {
		cfg = &Config{}
		if err := cleanenv.ReadEnv(cfg); err != nil {
			help, _ := cleanenv.GetDescription(cfg, nil)
			log.Fatalf("Failed to read configuration: %v\n%v", err, help)
		}
	})
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the process cannot run with. Content
// generation needs both API keys, so a pipeline-enabled service refuses to
// start without them rather than failing on the first scheduled run.
func (c *Config) Validate() error {
	if c.Pipeline.Enabled {
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY must be set when PIPELINE_ENABLED is true")
		}
		if c.Newswire.APIKey == "" {
			return fmt.Errorf("RAPIDAPI_KEY must be set when PIPELINE_ENABLED is true")
		}
		if c.Pipeline.Workers <= 0 {
			return fmt.Errorf("PIPELINE_WORKERS must be positive, got %d", c.Pipeline.Workers)
		}
	}
	if c.Video.TransitionSeconds < 0 {
		return fmt.Errorf("VIDEO_TRANSITION_SECONDS must not be negative, got %v", c.Video.TransitionSeconds)
	}
	if c.Video.FPS <= 0 {
		return fmt.Errorf("VIDEO_FPS must be positive, got %d", c.Video.FPS)
	}
	return nil
}

// GetDSN returns the postgres connection string in key/value form.
func (c *Config) GetDSN() string {
	return fmt.Sprintf("dbname=%s user=%s password=%s host=%s port=%d sslmode=%s",
		c.Postgres.Name, c.Postgres.User, c.Postgres.Pass, c.Postgres.Host, c.Postgres.Port, c.Postgres.SslMode)
}
