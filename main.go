package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v9"

	"github.com/dskvich/chatgpt-line-bot/pkg/api"
	"github.com/dskvich/chatgpt-line-bot/pkg/api/handler"
	"github.com/dskvich/chatgpt-line-bot/pkg/auth"
	"github.com/dskvich/chatgpt-line-bot/pkg/chatgpt"
	"github.com/dskvich/chatgpt-line-bot/pkg/command"
	"github.com/dskvich/chatgpt-line-bot/pkg/converter"
	"github.com/dskvich/chatgpt-line-bot/pkg/database"
	"github.com/dskvich/chatgpt-line-bot/pkg/line"
	"github.com/dskvich/chatgpt-line-bot/pkg/logger"
	"github.com/dskvich/chatgpt-line-bot/pkg/repository"
	"github.com/dskvich/chatgpt-line-bot/pkg/signer"
	"github.com/dskvich/chatgpt-line-bot/pkg/telegram"
	"github.com/dskvich/chatgpt-line-bot/pkg/workers"
)

type Config struct {
	ChannelAccessToken        string        `env:"CHANNEL_ACCESS_TOKEN,required"`
	ChannelSecret             string        `env:"CHANNEL_SECRET,required"`
	OpenAIToken               string        `env:"OPENAI_API_KEY,required"`
	OpenAIMode                chatgpt.Mode  `env:"OPENAI_MODE" envDefault:"chat"`
	OpenAIBaseURL             string        `env:"OPENAI_BASE_URL"`
	RedisURL                  string        `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	SessionTTL                time.Duration `env:"SESSION_TTL" envDefault:"1h"`
	BaseURL                   string        `env:"BASE_URL,required"`
	AppKey                    string        `env:"APP_KEY,required"`
	Port                      string        `env:"PORT" envDefault:"3000"`
	ImageCount                int           `env:"IMAGE_COUNT" envDefault:"1"`
	TelegramBotToken          string        `env:"TELEGRAM_BOT_TOKEN"`
	TelegramWebhookSecret     string        `env:"TELEGRAM_WEBHOOK_SECRET"`
	TelegramAuthorizedUserIDs []int64       `env:"TELEGRAM_AUTHORIZED_USER_IDS" envSeparator:" "`
	PgURL                     string        `env:"DATABASE_URL"`
	LogNoColor                bool          `env:"LOG_NO_COLOR" envDefault:"false"`
}

const telegramCallbackPath = "/telegram/callback"

func parseConfig(opts env.Options) (Config, error) {
	cfg := Config{}
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parsing env config: %w", err)
	}
	return cfg, nil
}

func main() {
	cfg, err := parseConfig(env.Options{})
	if err != nil {
		slog.Error("shutting down due to error", logger.Err(err))
		os.Exit(1)
	}

	logOpts := *logger.DefaultOptions
	logOpts.NoColor = cfg.LogNoColor
	slog.SetDefault(slog.New(logger.NewHandler(os.Stderr, &logOpts)))

	if err := runMain(cfg); err != nil {
		slog.Error("shutting down due to error", logger.Err(err))
		os.Exit(1)
	}
	slog.Info("shutdown complete")
}

func runMain(cfg Config) error {
	ctx, cancelFn := context.WithCancel(context.Background())
	defer cancelFn()

	workerGroup, cleanup, err := setupWorkers(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		select {
		case s := <-sigCh:
			slog.Info("shutting down due to signal", "signal", s.String())
			cancelFn()
		case <-ctx.Done():
		}
	}()

	return workerGroup.Start(ctx)
}

func setupWorkers(ctx context.Context, cfg Config) (workers.Group, func(), error) {
	var closers []func() error
	cleanup := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				slog.Warn("closing resource", logger.Err(err))
			}
		}
	}
	fail := func(err error) (workers.Group, func(), error) {
		cleanup()
		return nil, nil, err
	}

	rdb, err := repository.NewRedis(ctx, cfg.RedisURL)
	if err != nil {
		return fail(fmt.Errorf("creating redis client: %w", err))
	}
	closers = append(closers, rdb.Close)
	sessionRepository := repository.NewSessionRepository(rdb, cfg.SessionTTL)

	var promptSaver command.PromptSaver
	if cfg.PgURL != "" {
		db, err := database.NewPostgres(ctx, cfg.PgURL)
		if err != nil {
			return fail(fmt.Errorf("creating db: %w", err))
		}
		closers = append(closers, db.Close)
		promptSaver = repository.NewPromptsRepository(db)
	}

	openAIClient, err := chatgpt.NewClient(cfg.OpenAIToken, cfg.OpenAIBaseURL, cfg.OpenAIMode, cfg.ImageCount)
	if err != nil {
		return fail(fmt.Errorf("creating open ai client: %w", err))
	}

	lineClient, err := line.NewClient(cfg.ChannelAccessToken, cfg.ChannelSecret)
	if err != nil {
		return fail(fmt.Errorf("creating line client: %w", err))
	}

	voiceToText := converter.NewVoiceToText(openAIClient)
	voiceToText.Register(line.ChannelName, lineClient)

	urlSigner := signer.New(cfg.AppKey)

	router := command.NewRouter(
		sessionRepository,
		openAIClient,
		voiceToText,
		urlSigner,
		promptSaver,
		cfg.BaseURL,
	)

	handlers := api.Handlers{
		Health:   handler.NewHealth().Handle,
		Preview:  handler.NewPreview(urlSigner, nil).Handle,
		Callback: handler.NewCallback(lineClient, router).Handle,
		Channels: map[string]http.HandlerFunc{},
	}

	if cfg.TelegramBotToken != "" {
		telegramClient, err := telegram.NewClient(
			cfg.TelegramBotToken,
			cfg.TelegramWebhookSecret,
			auth.NewAuthenticator(cfg.TelegramAuthorizedUserIDs),
		)
		if err != nil {
			return fail(fmt.Errorf("creating telegram client: %w", err))
		}
		voiceToText.Register(telegram.ChannelName, telegramClient)
		handlers.Channels[telegramCallbackPath] = handler.NewCallback(telegramClient, router).Handle
	}

	workerGroup := workers.Group{
		workers.NewHTTPServer(cfg.Port, api.NewMux(handlers)),
	}

	return workerGroup, cleanup, nil
}
