package loadgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// HTTPClient wraps http.Client with a timeout.
type HTTPClient struct {
	client *http.Client
}

func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{Timeout: timeout},
	}
}

// Get performs a GET request.
func (c *HTTPClient) Get(url string) (*http.Response, error) {
	return c.client.Get(url)
}

// Post performs a POST request with a JSON body.
func (c *HTTPClient) Post(url string, body any) (*http.Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// readResponseBody reads and closes the response body.
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// registerSinglePlayer creates one profile and returns its id.
func registerSinglePlayer(client *HTTPClient, baseURL, username string) (string, error) {
	resp, err := client.Post(baseURL+"/players", map[string]string{"username": username})
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != StatusCreated {
		return "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var player struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &player); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if player.ID == "" {
		return "", fmt.Errorf("response carried no player id")
	}
	return player.ID, nil
}

// submitSessions submits sessions concurrently using a worker pool.
func submitSessions(ctx context.Context, config *Config, client *HTTPClient, sessions []Session, stats *Stats) error {
	log.Printf("submitting %d sessions with %d workers...", len(sessions), config.Workers)

	url := config.BaseURL + "/sessions"

	var (
		successful int64
		duplicate  int64
		throttled  int64
		failed     int64
		submitted  int64
	)

	var lastReport atomic.Int64
	reportInterval := int64(time.Second)

	sessionChan := make(chan Session, config.Workers*workerChannelMultiplier)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for session := range sessionChan {
				select {
				case <-ctx.Done():
					return
				default:
				}

				switch submitSingleSession(client, url, session) {
				case submitAccepted:
					atomic.AddInt64(&successful, 1)
				case submitDuplicate:
					atomic.AddInt64(&duplicate, 1)
				case submitThrottled:
					atomic.AddInt64(&throttled, 1)
				case submitFailed:
					atomic.AddInt64(&failed, 1)
				}
				total := atomic.AddInt64(&submitted, 1)

				now := time.Now().UnixNano()
				last := lastReport.Load()
				if now-last >= reportInterval && lastReport.CompareAndSwap(last, now) {
					log.Printf("progress: %d/%d submitted (accepted: %d, duplicate: %d, throttled: %d, failed: %d)",
						total, len(sessions),
						atomic.LoadInt64(&successful), atomic.LoadInt64(&duplicate),
						atomic.LoadInt64(&throttled), atomic.LoadInt64(&failed))
				}
			}
		}()
	}

	go func() {
		defer close(sessionChan)
		for _, session := range sessions {
			select {
			case <-ctx.Done():
				return
			case sessionChan <- session:
			}
		}
	}()

	wg.Wait()

	stats.SessionsSubmitted = int(atomic.LoadInt64(&submitted))
	stats.SessionsSuccessful = int(atomic.LoadInt64(&successful))
	stats.SessionsDuplicate = int(atomic.LoadInt64(&duplicate))
	stats.SessionsThrottled = int(atomic.LoadInt64(&throttled))
	stats.SessionsFailed = int(atomic.LoadInt64(&failed))

	log.Printf(`session submission completed:
   Accepted: %d
   Duplicate: %d
   Throttled: %d
   Failed: %d
`, stats.SessionsSuccessful, stats.SessionsDuplicate, stats.SessionsThrottled, stats.SessionsFailed)

	return nil
}

type submitResult int

const (
	submitAccepted submitResult = iota
	submitDuplicate
	submitThrottled
	submitFailed
)

// submitSingleSession submits one session and classifies the outcome.
func submitSingleSession(client *HTTPClient, url string, session Session) submitResult {
	resp, err := client.Post(url, session)
	if err != nil {
		return submitFailed
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return submitFailed
	}

	switch resp.StatusCode {
	case StatusAccepted:
		return submitAccepted
	case StatusOK:
		var ack AckResponse
		if err := json.Unmarshal(body, &ack); err == nil && ack.Duplicate {
			return submitDuplicate
		}
		return submitDuplicate
	case StatusTooManyRequests:
		// Queue backpressure. The submission was rolled back server-side and
		// can be retried with the same session id.
		return submitThrottled
	default:
		return submitFailed
	}
}
