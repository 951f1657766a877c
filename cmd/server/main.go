package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/npezzotti/studyroom/internal/api"
	"github.com/npezzotti/studyroom/internal/config"
	"github.com/npezzotti/studyroom/internal/llm"
	applog "github.com/npezzotti/studyroom/internal/logger"
	"github.com/npezzotti/studyroom/internal/server"
	"github.com/npezzotti/studyroom/internal/stats"
	"github.com/rs/zerolog/log"
)

type stringSliceFlag []string

func (s *stringSliceFlag) String() string {
	return strings.Join(*s, ",")
}

func (s *stringSliceFlag) Set(value string) error {
	*s = append(*s, strings.Split(value, ",")...)
	return nil
}

var (
	addr           string
	allowedOrigins stringSliceFlag
	openAIKey      string
	openAIModel    string
	openAIBaseURL  string
	llmTimeout     time.Duration
	logLevel       string
	logPretty      bool
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func defaultAddr() string {
	if port := os.Getenv("PORT"); port != "" {
		return ":" + port
	}
	return getEnv("ADDR", ":4000")
}

func main() {
	flag.StringVar(&addr, "addr", defaultAddr(), "server address")
	flag.Var(&allowedOrigins, "allowed-origins", "comma-separated list of allowed origins for CORS")
	flag.StringVar(&openAIKey, "openai-api-key", os.Getenv("OPENAI_API_KEY"), "api key for the chat completion service")
	flag.StringVar(&openAIModel, "openai-model", getEnv("OPENAI_MODEL", llm.DefaultModel), "chat completion model")
	flag.StringVar(&openAIBaseURL, "openai-base-url", getEnv("OPENAI_BASE_URL", llm.DefaultBaseURL), "chat completion service base url")
	flag.DurationVar(&llmTimeout, "llm-timeout", llm.DefaultTimeout, "timeout for a single chat completion request")
	flag.StringVar(&logLevel, "log-level", getEnv("LOG_LEVEL", "info"), "log level")
	flag.BoolVar(&logPretty, "log-pretty", false, "human readable console logs")
	flag.Parse()

	if len(allowedOrigins) == 0 {
		allowedOrigins = strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ",")
	}

	logger, err := applog.New(os.Stderr, logLevel, logPretty)
	if err != nil {
		log.Fatal().Err(err).Msg("logger")
	}

	cfg, err := config.NewConfig(addr, allowedOrigins, openAIKey, openAIModel, openAIBaseURL, llmTimeout, logLevel)
	if err != nil {
		logger.Fatal().Err(err).Msg("config")
	}

	if cfg.OpenAIKey == "" {
		logger.Warn().Msg("OPENAI_API_KEY is not set, /api/llm/chat will reject requests")
	}

	mux := http.NewServeMux()

	statsUpdater := stats.NewStatsUpdater(mux, logger)

	chatServer, err := server.NewChatServer(logger, server.NewRegistry(), statsUpdater)
	if err != nil {
		logger.Fatal().Err(err).Msg("new chat server")
	}

	llmClient := llm.NewClient(llm.Config{
		APIKey:  cfg.OpenAIKey,
		Model:   cfg.OpenAIModel,
		BaseURL: cfg.OpenAIBaseURL,
		Timeout: cfg.LLMTimeout,
	}, &http.Client{}, logger)

	srv := api.NewStudyRoomApp(mux, logger, chatServer, llmClient, cfg)

	statsUpdater.Run()
	defer statsUpdater.Stop()

	go chatServer.Run()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigs:
		logger.Info().Str("signal", sig.String()).Msg("received signal")
	case err := <-errCh:
		logger.Error().Err(err).Msg("server")
	}

	shutDownCtx, cancel := context.WithTimeout(
		context.Background(),
		10*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutDownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown")
	}

	logger.Info().Msg("shutting down chat server...")
	if err := chatServer.Shutdown(shutDownCtx); err != nil {
		logger.Error().Err(err).Msg("chat server shutdown")
	}

	logger.Info().Msg("shutdown complete")
}
