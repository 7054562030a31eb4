package tools

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"go.opentelemetry.io/otel/attribute"

	"github.com/walletroast/walletroast/internal/logging"
	"github.com/walletroast/walletroast/internal/metrics"
	"github.com/walletroast/walletroast/internal/tracing"
)

const generatorProvider = "generator"

// LLMRetryConfig configures the timeout and retry behavior of generator calls
type LLMRetryConfig struct {
	MaxRetries      int           `json:"max_retries"`
	InitialDelay    time.Duration `json:"initial_delay"`
	MaxDelay        time.Duration `json:"max_delay"`
	BackoffFactor   float64       `json:"backoff_factor"`
	TimeoutPerRetry time.Duration `json:"timeout_per_retry"`
}

// DefaultLLMRetryConfig bounds each call by a timeout and does not retry
func DefaultLLMRetryConfig() LLMRetryConfig {
	return LLMRetryConfig{
		MaxRetries:      0,
		InitialDelay:    1 * time.Second,
		MaxDelay:        30 * time.Second,
		BackoffFactor:   2.0,
		TimeoutPerRetry: 60 * time.Second,
	}
}

// LLMRetryWrapper wraps a model with a per-call timeout, optional transport
// retries, metrics and spans. Output is never inspected here, so malformed
// output is never retried.
type LLMRetryWrapper struct {
	llm    llms.Model
	config LLMRetryConfig
}

// NewLLMRetryWrapper creates a new wrapper for a model
func NewLLMRetryWrapper(llm llms.Model, config LLMRetryConfig) *LLMRetryWrapper {
	return &LLMRetryWrapper{
		llm:    llm,
		config: config,
	}
}

// GenerateText sends messages and returns the first choice's text
func (w *LLMRetryWrapper) GenerateText(ctx context.Context, useCase string, messages []llms.MessageContent, options ...llms.CallOption) (text string, err error) {
	start := time.Now()
	ctx, span := tracing.Tracer("generator").Start(ctx, "generate."+useCase)
	span.SetAttributes(attribute.String("generator.use_case", useCase))
	defer func() {
		metrics.ObserveProviderCall(generatorProvider, useCase, start, err)
		tracing.End(span, err)
	}()

	resp, err := w.GenerateContent(ctx, messages, options...)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty response from generator")
	}
	return resp.Choices[0].Content, nil
}

// GenerateContent calls the model, retrying transient transport failures
// up to MaxRetries times
func (w *LLMRetryWrapper) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	var lastErr error
	delay := w.config.InitialDelay

	for attempt := 0; attempt <= w.config.MaxRetries; attempt++ {
		callCtx, cancel := ctx, context.CancelFunc(func() {})
		if w.config.TimeoutPerRetry > 0 {
			callCtx, cancel = context.WithTimeout(ctx, w.config.TimeoutPerRetry)
		}

		response, err := w.llm.GenerateContent(callCtx, messages, options...)
		cancel()

		if err == nil {
			return response, nil
		}

		lastErr = err

		if attempt >= w.config.MaxRetries {
			break
		}

		// The caller's own deadline is not ours to retry
		if ctx.Err() != nil || !isRetryableError(err) {
			break
		}

		logging.L(ctx).Warn().
			Err(err).
			Int("attempt", attempt+1).
			Dur("retry_in", delay).
			Msg("generator call failed, retrying")

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled during retry delay: %w", ctx.Err())
		case <-time.After(delay):
		}

		delay = time.Duration(float64(delay) * w.config.BackoffFactor)
		if delay > w.config.MaxDelay {
			delay = w.config.MaxDelay
		}
	}

	if w.config.MaxRetries == 0 {
		return nil, fmt.Errorf("generator call failed: %w", lastErr)
	}
	return nil, fmt.Errorf("generator call failed after %d attempts: %w", w.config.MaxRetries+1, lastErr)
}

// isRetryableError reports transport-level failures worth another attempt
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	errStr := strings.ToLower(err.Error())
	for _, marker := range []string{
		"connection refused",
		"connection reset",
		"timeout",
		"no such host",
		"network is unreachable",
		"temporary failure",
		"429",
		"500",
		"502",
		"503",
		"504",
		"rate limit",
		"overloaded",
		"service unavailable",
	} {
		if strings.Contains(errStr, marker) {
			return true
		}
	}

	return false
}
