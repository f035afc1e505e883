package shotgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/shotline/internal/domain/model"
	"github.com/okian/shotline/pkg/logger"
)

// submitOutcome classifies one POST /shots exchange.
type submitOutcome int

const (
	outcomeAccepted submitOutcome = iota
	outcomeDuplicate
	outcomeFailed
)

// HTTPClient wraps http.Client with a per-request timeout.
type HTTPClient struct {
	client *http.Client
}

func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{client: &http.Client{Timeout: timeout}}
}

// Get performs a GET request.
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with a JSON body.
func (c *HTTPClient) Post(ctx context.Context, url string, body any) (*http.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// getJSON decodes a 200 response into v and returns the status code.
func (c *HTTPClient) getJSON(ctx context.Context, url string, v any) (int, error) {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return resp.StatusCode, fmt.Errorf("HTTP %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
	if err := json.Unmarshal(body, v); err != nil {
		return resp.StatusCode, fmt.Errorf("failed to parse response: %w", err)
	}
	return resp.StatusCode, nil
}

// submitShots posts jobs concurrently and returns the IDs the service
// accepted or already knew.
func submitShots(ctx context.Context, cfg *Config, jobs []model.Job, stats *Stats) []int64 {
	log := logger.Get()
	log.Info(ctx, "submitting shots", logger.Int("count", len(jobs)), logger.Int("workers", cfg.Workers))

	client := newHTTPClient(cfg.Timeout)
	url := cfg.BaseURL + "/shots"

	var accepted, duplicate, failed, submitted atomic.Int64
	var (
		mu    sync.Mutex
		known = make([]int64, 0, len(jobs))
	)

	jobChan := make(chan model.Job, cfg.Workers*workerChanMultiple)
	var wg sync.WaitGroup
	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobChan {
				outcome := submitSingleShot(ctx, client, url, job)
				submitted.Add(1)
				switch outcome {
				case outcomeAccepted:
					accepted.Add(1)
				case outcomeDuplicate:
					duplicate.Add(1)
				default:
					failed.Add(1)
					if cfg.Verbose {
						log.Warn(ctx, "shot submission failed", logger.Int64("shot_id", job.Shot.ID))
					}
					continue
				}
				mu.Lock()
				known = append(known, job.Shot.ID)
				mu.Unlock()
			}
		}()
	}

	go func() {
		defer close(jobChan)
		for _, job := range jobs {
			select {
			case <-ctx.Done():
				return
			case jobChan <- job:
			}
		}
	}()

	wg.Wait()

	stats.ShotsSubmitted = int(submitted.Load())
	stats.ShotsAccepted = int(accepted.Load())
	stats.ShotsDuplicate = int(duplicate.Load())
	stats.ShotsFailed = int(failed.Load())

	log.Info(ctx, "shot submission completed",
		logger.Int("accepted", stats.ShotsAccepted),
		logger.Int("duplicate", stats.ShotsDuplicate),
		logger.Int("failed", stats.ShotsFailed),
	)
	return known
}

// submitSingleShot posts one job, retrying while the service reports
// backpressure.
func submitSingleShot(ctx context.Context, client *HTTPClient, url string, job model.Job) submitOutcome {
	for attempt := 0; attempt <= maxSubmitRetries; attempt++ {
		resp, err := client.Post(ctx, url, job)
		if err != nil {
			return outcomeFailed
		}
		var ack AckResponse
		decodeErr := json.NewDecoder(resp.Body).Decode(&ack)
		_ = resp.Body.Close()

		switch resp.StatusCode {
		case http.StatusAccepted:
			return outcomeAccepted
		case http.StatusOK:
			if decodeErr == nil && ack.Duplicate {
				return outcomeDuplicate
			}
			return outcomeFailed
		case http.StatusTooManyRequests:
			select {
			case <-ctx.Done():
				return outcomeFailed
			case <-time.After(retryBackoff):
			}
		default:
			return outcomeFailed
		}
	}
	return outcomeFailed
}
