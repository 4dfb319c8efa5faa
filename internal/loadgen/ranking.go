package loadgen

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
)

// retrieveRanks fetches the rank of every registered player concurrently.
// Players whose sessions were all throttled may legitimately be unranked.
func retrieveRanks(ctx context.Context, config *Config, client *HTTPClient, playerIDs []string, stats *Stats) ([]RankResponse, error) {
	log.Printf("retrieving ranks for %d players with %d workers...", len(playerIDs), config.Workers)

	ranks := make([]RankResponse, len(playerIDs))
	var (
		retrieved int64
		failed    int64
	)

	indexChan := make(chan int, config.Workers*workerChannelMultiplier)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for index := range indexChan {
				select {
				case <-ctx.Done():
					return
				default:
				}

				playerID := playerIDs[index]
				rank, err := retrieveSingleRank(client, config.BaseURL, playerID)
				if err != nil {
					atomic.AddInt64(&failed, 1)
					if config.Verbose {
						log.Printf("failed to get rank for %s: %v", playerID, err)
					}
					continue
				}
				ranks[index] = rank
				atomic.AddInt64(&retrieved, 1)
			}
		}()
	}

	go func() {
		defer close(indexChan)
		for i := range playerIDs {
			select {
			case <-ctx.Done():
				return
			case indexChan <- i:
			}
		}
	}()

	wg.Wait()

	valid := make([]RankResponse, 0, len(ranks))
	for _, rank := range ranks {
		if rank.PlayerID != "" {
			valid = append(valid, rank)
		}
	}

	stats.RanksRetrieved = len(valid)
	log.Printf(`rank retrieval completed:
   Retrieved: %d
   Failed: %d
`, len(valid), int(atomic.LoadInt64(&failed)))

	return valid, nil
}

// retrieveSingleRank fetches one player's rank.
func retrieveSingleRank(client *HTTPClient, baseURL, playerID string) (RankResponse, error) {
	resp, err := client.Get(fmt.Sprintf("%s/rank/%s", baseURL, playerID))
	if err != nil {
		return RankResponse{}, fmt.Errorf("request failed: %w", err)
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return RankResponse{}, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != StatusOK {
		return RankResponse{}, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var rank RankResponse
	if err := json.Unmarshal(body, &rank); err != nil {
		return RankResponse{}, fmt.Errorf("failed to parse response: %w", err)
	}
	return rank, nil
}

// getLeaderboard fetches the top N leaderboard entries.
func getLeaderboard(ctx context.Context, config *Config, client *HTTPClient, stats *Stats) ([]Entry, error) {
	log.Printf("getting top %d leaderboard entries...", config.TopN)

	resp, err := client.Get(fmt.Sprintf("%s/leaderboard?limit=%d", config.BaseURL, config.TopN))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var leaderboard []Entry
	if err := json.Unmarshal(body, &leaderboard); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	stats.LeaderboardEntries = len(leaderboard)
	log.Printf("retrieved %d leaderboard entries", len(leaderboard))
	return leaderboard, nil
}

// retrieveStatistics fetches aggregated totals for one player.
func retrieveStatistics(client *HTTPClient, baseURL, playerID string) (Statistics, error) {
	resp, err := client.Get(fmt.Sprintf("%s/statistics/%s", baseURL, playerID))
	if err != nil {
		return Statistics{}, fmt.Errorf("request failed: %w", err)
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return Statistics{}, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != StatusOK {
		return Statistics{}, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var st Statistics
	if err := json.Unmarshal(body, &st); err != nil {
		return Statistics{}, fmt.Errorf("failed to parse response: %w", err)
	}
	return st, nil
}
