package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/healthbot/knowledge-core/internal/core/domain"
	"github.com/healthbot/knowledge-core/internal/infrastructure/resilience"
)

// Embedder calls an embedding endpoint, one shared client per process.
// When the primary endpoint stops responding it permanently switches to
// the configured degraded endpoint (typically a CPU-only instance) and
// keeps serving rather than aborting ingestion.
type Embedder struct {
	primaryURL  string
	fallbackURL string
	model       string
	httpClient  *http.Client
	limiter     *rate.Limiter
	executor    *resilience.Executor

	mu       sync.Mutex
	degraded bool
}

type Options struct {
	FallbackURL        string
	RequestsPerSecond  float64
	ResilienceExecutor *resilience.Executor
}

func NewEmbedder(baseURL, model string, options Options) *Embedder {
	rps := options.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}
	return &Embedder{
		primaryURL:  strings.TrimRight(baseURL, "/"),
		fallbackURL: strings.TrimRight(options.FallbackURL, "/"),
		model:       model,
		httpClient:  &http.Client{Timeout: 120 * time.Second},
		limiter:     rate.NewLimiter(rate.Limit(rps), 1),
		executor:    options.ResilienceExecutor,
	}
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("embedding rate limit: %w", err)
	}

	vectors, err := e.embedAt(ctx, e.currentURL(), texts)
	if err != nil && e.canFallback(err) {
		slog.Warn("embedding endpoint unavailable, switching to degraded endpoint",
			"primary", e.primaryURL,
			"fallback", e.fallbackURL,
			"error", err,
		)
		e.markDegraded()
		vectors, err = e.embedAt(ctx, e.fallbackURL, texts)
	}
	if err != nil {
		return nil, domain.WrapError(domain.ErrEmbedding, "embed chunks", err)
	}
	if len(vectors) != len(texts) {
		return nil, domain.WrapError(
			domain.ErrEmbedding,
			"embed chunks",
			fmt.Errorf("vectors/texts mismatch: %d/%d", len(vectors), len(texts)),
		)
	}
	return vectors, nil
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, domain.WrapError(domain.ErrEmbedding, "embed query", errors.New("empty embedding result"))
	}
	return vectors[0], nil
}

func (e *Embedder) currentURL() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.degraded && e.fallbackURL != "" {
		return e.fallbackURL
	}
	return e.primaryURL
}

func (e *Embedder) markDegraded() {
	e.mu.Lock()
	e.degraded = true
	e.mu.Unlock()
}

func (e *Embedder) canFallback(err error) bool {
	if e.fallbackURL == "" || e.fallbackURL == e.primaryURL {
		return false
	}
	e.mu.Lock()
	alreadyDegraded := e.degraded
	e.mu.Unlock()
	if alreadyDegraded {
		return false
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

func (e *Embedder) embedAt(ctx context.Context, baseURL string, texts []string) ([][]float32, error) {
	request := map[string]any{
		"model": e.model,
		"input": texts,
	}
	var response struct {
		Embeddings [][]float32 `json:"embeddings"`
	}

	call := func(callCtx context.Context) error {
		return e.postJSON(callCtx, baseURL+"/api/embed", request, &response)
	}
	if e.executor != nil {
		if err := e.executor.Execute(ctx, "ollama.embed", call, classifyEmbedError); err != nil {
			return nil, err
		}
	} else if err := call(ctx); err != nil {
		return nil, err
	}
	return response.Embeddings, nil
}

func (e *Embedder) postJSON(ctx context.Context, url string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("embed request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		responseBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &embedStatusError{
			statusCode: resp.StatusCode,
			status:     resp.Status,
			body:       strings.TrimSpace(string(responseBody)),
		}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode embed response: %w", err)
	}
	return nil
}

type embedStatusError struct {
	statusCode int
	status     string
	body       string
}

func (e *embedStatusError) Error() string {
	if e.body == "" {
		return fmt.Sprintf("embed status: %s", e.status)
	}
	return fmt.Sprintf("embed status: %s: %s", e.status, e.body)
}

func classifyEmbedError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{}
	}

	var statusErr *embedStatusError
	if errors.As(err, &statusErr) {
		retryable := statusErr.statusCode == http.StatusTooManyRequests || statusErr.statusCode >= 500
		return resilience.ErrorClassification{Retryable: retryable, RecordFailure: retryable}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}
	return resilience.ErrorClassification{RecordFailure: true}
}
