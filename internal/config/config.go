package config

import (
	"fmt"
	"net/url"
	"time"
)

type Config struct {
	ServerAddr     string
	AllowedOrigins []string
	OpenAIKey      string
	OpenAIModel    string
	OpenAIBaseURL  string
	LLMTimeout     time.Duration
	LogLevel       string
}

// NewConfig validates the settings the server needs to start. An empty
// OpenAI key is allowed: the LLM endpoint then reports the missing key.
func NewConfig(serverAddr string, allowedOrigins []string, openAIKey, openAIModel, openAIBaseURL string, llmTimeout time.Duration, logLevel string) (*Config, error) {
	if serverAddr == "" {
		return nil, fmt.Errorf("server address cannot be empty")
	}
	if openAIModel == "" {
		return nil, fmt.Errorf("openai model cannot be empty")
	}
	if llmTimeout <= 0 {
		return nil, fmt.Errorf("llm timeout must be positive, got %s", llmTimeout)
	}

	if _, err := parseBaseURL(openAIBaseURL); err != nil {
		return nil, fmt.Errorf("openai base url: %w", err)
	}

	return &Config{
		ServerAddr:     serverAddr,
		AllowedOrigins: allowedOrigins,
		OpenAIKey:      openAIKey,
		OpenAIModel:    openAIModel,
		OpenAIBaseURL:  openAIBaseURL,
		LLMTimeout:     llmTimeout,
		LogLevel:       logLevel,
	}, nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("missing host")
	}
	return u, nil
}
