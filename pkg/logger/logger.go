package logger

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog"
	slogmulti "github.com/samber/slog-multi"
	slogsentry "github.com/samber/slog-sentry/v2"
	slogzerolog "github.com/samber/slog-zerolog/v2"
)

type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	WithComponent(component string) Logger
}

type Opts struct {
	Env       string
	SentryURL string
}

type Impl struct {
	slog *slog.Logger
}

// New builds the application logger: zerolog behind a slog front, with a
// colored console writer in development and JSON output in production. When
// a Sentry DSN is configured, error records are also forwarded there.
func New(opts Opts) *Impl {
	level := slog.LevelDebug
	if opts.Env == "production" {
		level = slog.LevelInfo
	}

	var zl zerolog.Logger
	if opts.Env == "production" {
		zl = zerolog.New(os.Stderr).With().Timestamp().Logger()
	} else {
		zl = zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger()
	}

	handlers := []slog.Handler{
		slogzerolog.Option{Level: level, Logger: &zl}.NewZerologHandler(),
	}

	if opts.SentryURL != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              opts.SentryURL,
			Environment:      opts.Env,
			AttachStacktrace: true,
		})
		if err != nil {
			zl.Warn().Err(err).Msg("Failed to initialize sentry, continuing without it")
		} else {
			handlers = append(handlers, slogsentry.Option{Level: slog.LevelError}.NewSentryHandler())
		}
	}

	return &Impl{slog: slog.New(slogmulti.Fanout(handlers...))}
}

func (l *Impl) Debug(msg string, args ...any) {
	l.slog.Debug(msg, args...)
}

func (l *Impl) Info(msg string, args ...any) {
	l.slog.Info(msg, args...)
}

func (l *Impl) Warn(msg string, args ...any) {
	l.slog.Warn(msg, args...)
}

func (l *Impl) Error(msg string, args ...any) {
	l.slog.Error(msg, args...)
}

func (l *Impl) WithComponent(component string) Logger {
	return &Impl{slog: l.slog.With("component", component)}
}

// Printf lets the Impl act as an fx.Printer for framework logs.
func (l *Impl) Printf(format string, args ...any) {
	l.slog.Info(fmt.Sprintf(format, args...))
}

var _ Logger = (*Impl)(nil)
