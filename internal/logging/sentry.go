package logging

import (
	"context"
	"log/slog"
	"time"

	"github.com/getsentry/sentry-go"
	sentryslog "github.com/getsentry/sentry-go/slog"
)

// SentryOptions configures error forwarding to Sentry.
type SentryOptions struct {
	DSN         string
	Environment string
	Release     string
}

// NewWithSentry creates a logger that writes locally and forwards warnings
// and errors to Sentry. With an empty DSN it degrades to local-only logging,
// so development setups work without a Sentry project. The returned flush
// function drains buffered events and should run before process exit.
func NewWithSentry(config *LoggerConfig, options SentryOptions) (*FymoLogger, func()) {
	if config == nil {
		config = DefaultConfig()
	}
	base := NewLogger(config)
	if options.DSN == "" {
		return base, func() {}
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:         options.DSN,
		Environment: options.Environment,
		Release:     options.Release,
		EnableLogs:  true,
	})
	if err != nil {
		base.Error(context.Background(), err, "Sentry initialization failed, continuing with local logging")
		return base, func() {}
	}

	sentryHandler := sentryslog.Option{
		EventLevel: []slog.Level{slog.LevelError},                 // errors create Sentry issues
		LogLevel:   []slog.Level{slog.LevelWarn, slog.LevelError}, // kept as searchable logs
	}.NewSentryHandler(context.Background())

	combined := newMultiHandler(base.logger.Handler(), sentryHandler)
	flush := func() { sentry.Flush(2 * time.Second) }

	return newFromHandler(combined, config.Level, config.Component), flush
}

// multiHandler forwards log records to multiple handlers.
type multiHandler struct {
	handlers []slog.Handler
}

func newMultiHandler(handlers ...slog.Handler) slog.Handler {
	return &multiHandler{handlers: handlers}
}

func (h *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *multiHandler) Handle(ctx context.Context, rec slog.Record) error {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, rec.Level) {
			if err := handler.Handle(ctx, rec.Clone()); err != nil {
				return err
			}
		}
	}
	return nil
}

func (h *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithAttrs(attrs)
	}
	return newMultiHandler(handlers...)
}

func (h *multiHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithGroup(name)
	}
	return newMultiHandler(handlers...)
}
