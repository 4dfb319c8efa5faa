package loadgen

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/slitherlab/slither/pkg/logger"
)

// Score distribution tiers. Most players land in the casual band; a thin
// tail posts the runs that decide the top of the board.
const (
	tierCount = 5

	casualScoreMax   = 150
	regularScoreMin  = 100
	regularScoreMax  = 400
	skilledScoreMin  = 300
	skilledScoreMax  = 800
	expertScoreMin   = 700
	expertScoreMax   = 1500
	eliteScoreMin    = 1400
	eliteScoreMax    = 3000
	minimumSnakeSize = 3
)

var endReasons = []string{"wall_collision", "self_collision", "quit"}

// registerPlayers creates the requested number of profiles concurrently and
// returns their server-assigned ids.
func registerPlayers(ctx context.Context, config *Config, client *HTTPClient, stats *Stats) ([]string, error) {
	logger.Get().Info(ctx, "registering players", logger.Int("numPlayers", config.NumPlayers))

	playerIDs := make([]string, config.NumPlayers)
	var registered int64

	indexChan := make(chan int, config.Workers*workerChannelMultiplier)
	var wg sync.WaitGroup

	// First failure wins; the remaining indices are drained without work so
	// the feeder never blocks.
	var failed atomic.Bool
	var firstErr error
	var errOnce sync.Once

	runID := strconv.FormatInt(time.Now().Unix(), 10)
	for w := 0; w < config.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexChan {
				if failed.Load() || ctx.Err() != nil {
					continue
				}
				username := "load_" + runID + "_" + strconv.Itoa(i)
				id, err := registerSinglePlayer(client, config.BaseURL, username)
				if err != nil {
					errOnce.Do(func() {
						firstErr = fmt.Errorf("register player %s: %w", username, err)
						failed.Store(true)
					})
					continue
				}
				playerIDs[i] = id
				atomic.AddInt64(&registered, 1)
			}
		}()
	}

	go func() {
		defer close(indexChan)
		for i := 0; i < config.NumPlayers; i++ {
			select {
			case <-ctx.Done():
				return
			case indexChan <- i:
			}
		}
	}()

	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}

	stats.PlayersRegistered = int(atomic.LoadInt64(&registered))
	logger.Get().Info(ctx, "players registered", logger.Int("count", stats.PlayersRegistered))
	return playerIDs, nil
}

// generateSessions creates sessions spread across the registered players.
func generateSessions(ctx context.Context, config *Config, playerIDs []string, stats *Stats) ([]Session, error) {
	logger.Get().Info(ctx, "generating sessions", logger.Int("numSessions", config.NumSessions))

	if len(playerIDs) == 0 {
		return nil, fmt.Errorf("no players to generate sessions for")
	}

	sessions := make([]Session, config.NumSessions)
	for i := range sessions {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled during session generation: %w", ctx.Err())
		default:
		}
		sessions[i] = generateSingleSession(playerIDs[rand.IntN(len(playerIDs))])
	}

	stats.SessionsGenerated = len(sessions)
	logger.Get().Info(ctx, "generated sessions successfully", logger.Int("count", len(sessions)))
	return sessions, nil
}

// generateSingleSession produces one plausible finished game.
func generateSingleSession(playerID string) Session {
	score := generateTieredScore()

	// Longer games roughly track higher scores.
	snakeLength := minimumSnakeSize + score/25 + rand.IntN(5)
	duration := 20 + score/5 + rand.IntN(60)
	foodEaten := snakeLength - minimumSnakeSize + rand.IntN(3)
	boosts := rand.IntN(1 + score/100)

	return Session{
		SessionID:       uuid.NewString(),
		PlayerID:        playerID,
		Score:           score,
		SnakeLength:     snakeLength,
		DurationSeconds: duration,
		FoodEaten:       foodEaten,
		SpeedBoostsUsed: boosts,
		EndReason:       endReasons[rand.IntN(len(endReasons))],
	}
}

// generateTieredScore draws a score from one of five skill tiers.
func generateTieredScore() int {
	switch rand.IntN(tierCount) {
	case 0, 1:
		// Casual games make up the bulk of traffic.
		return rand.IntN(casualScoreMax)
	case 2:
		return regularScoreMin + rand.IntN(regularScoreMax-regularScoreMin)
	case 3:
		return skilledScoreMin + rand.IntN(skilledScoreMax-skilledScoreMin)
	default:
		if rand.IntN(4) == 0 {
			return eliteScoreMin + rand.IntN(eliteScoreMax-eliteScoreMin)
		}
		return expertScoreMin + rand.IntN(expertScoreMax-expertScoreMin)
	}
}
