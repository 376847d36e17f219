package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/wolfman30/salestracker/pkg/logging"
)

type config struct {
	apiBaseURL  string
	secretToken string
	timeout     time.Duration
}

type sweepResponse struct {
	Message   string `json:"message"`
	Processed int    `json:"processed"`
	Sent      int    `json:"sent"`
	Failed    int    `json:"failed"`
	Error     string `json:"error"`
}

func loadConfig() (config, error) {
	baseURL := strings.TrimSpace(os.Getenv("API_BASE_URL"))
	if baseURL == "" {
		return config{}, errors.New("API_BASE_URL is required")
	}
	secret := strings.TrimSpace(os.Getenv("REMINDER_SECRET_TOKEN"))
	if secret == "" {
		return config{}, errors.New("REMINDER_SECRET_TOKEN is required")
	}

	timeout := 55 * time.Second
	if raw := strings.TrimSpace(os.Getenv("REMINDER_TIMEOUT")); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return config{}, fmt.Errorf("invalid REMINDER_TIMEOUT: %w", err)
		}
		timeout = parsed
	}

	return config{
		apiBaseURL:  strings.TrimRight(baseURL, "/"),
		secretToken: secret,
		timeout:     timeout,
	}, nil
}

func main() {
	logger := logging.New(os.Getenv("LOG_LEVEL"))
	cfg, err := loadConfig()
	if err != nil {
		panic(err)
	}

	client := &http.Client{Timeout: cfg.timeout}
	lambda.Start(func(ctx context.Context, evt events.CloudWatchEvent) (sweepResponse, error) {
		return handle(ctx, cfg, client, logger, evt)
	})
}

// handle triggers one reminder sweep on the API. Sweep failures are returned
// as errors so the scheduler records the invocation as failed.
func handle(ctx context.Context, cfg config, client *http.Client, logger *logging.Logger, evt events.CloudWatchEvent) (sweepResponse, error) {
	reqCtx, cancel := context.WithTimeout(ctx, cfg.timeout)
	defer cancel()

	target := cfg.apiBaseURL + "/appointments/reminders?secret=" + url.QueryEscape(cfg.secretToken)
	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, target, nil)
	if err != nil {
		return sweepResponse{}, fmt.Errorf("reminder-lambda: build request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return sweepResponse{}, fmt.Errorf("reminder-lambda: call api: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	var out sweepResponse
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			return sweepResponse{}, fmt.Errorf("reminder-lambda: decode response (status %d): %w", resp.StatusCode, err)
		}
	}
	if resp.StatusCode != http.StatusOK {
		return out, fmt.Errorf("reminder-lambda: api returned %d: %s", resp.StatusCode, out.Error)
	}

	logger.Info("reminder sweep finished",
		"event_id", evt.ID,
		"message", out.Message,
		"processed", out.Processed,
		"sent", out.Sent,
		"failed", out.Failed,
	)
	return out, nil
}
