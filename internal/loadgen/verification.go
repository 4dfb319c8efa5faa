package loadgen

import (
	"fmt"
	"log"
	"sort"
)

// sessionExpectation is what the aggregated numbers should add up to for one
// player, folded from the accepted submissions.
type sessionExpectation struct {
	games     int
	bestScore int
}

// verifyResults cross-checks the leaderboard, individual ranks and
// aggregated statistics against the submitted sessions.
func verifyResults(config *Config, client *HTTPClient, sessions []Session, ranks []RankResponse, leaderboard []Entry) error {
	log.Println("verifying results...")

	if err := verifyLeaderboardOrdering(leaderboard); err != nil {
		return fmt.Errorf("leaderboard ordering: %w", err)
	}
	log.Println("leaderboard ordering verified")

	expectations := foldExpectations(sessions)

	if err := verifyLeaderboardScores(leaderboard, expectations); err != nil {
		log.Printf("leaderboard score warning: %v", err)
	} else {
		log.Println("leaderboard scores match submitted personal bests")
	}

	if err := verifyRanksAgainstBoard(ranks, leaderboard); err != nil {
		log.Printf("rank consistency warning: %v", err)
	} else {
		log.Println("individual ranks consistent with the leaderboard")
	}

	if err := spotCheckStatistics(config, client, leaderboard, expectations); err != nil {
		return fmt.Errorf("statistics spot check: %w", err)
	}
	log.Println("statistics spot check passed")

	displayTopPerformers(leaderboard, config.Verbose)
	log.Println("result verification completed")
	return nil
}

// foldExpectations reduces the submitted sessions per player.
func foldExpectations(sessions []Session) map[string]sessionExpectation {
	out := make(map[string]sessionExpectation)
	for _, s := range sessions {
		exp := out[s.PlayerID]
		exp.games++
		if s.Score > exp.bestScore {
			exp.bestScore = s.Score
		}
		out[s.PlayerID] = exp
	}
	return out
}

// verifyLeaderboardOrdering checks the board is sorted and ranks are dense.
func verifyLeaderboardOrdering(leaderboard []Entry) error {
	for i, entry := range leaderboard {
		if entry.Rank != i+1 {
			return fmt.Errorf("entry %d carries rank %d", i, entry.Rank)
		}
		if i > 0 && entry.Score > leaderboard[i-1].Score {
			return fmt.Errorf("entry %d outscores entry %d", i, i-1)
		}
	}
	return nil
}

// verifyLeaderboardScores checks each board entry is the player's submitted
// personal best. Throttled submissions can legitimately leave a lower score.
func verifyLeaderboardScores(leaderboard []Entry, expectations map[string]sessionExpectation) error {
	for _, entry := range leaderboard {
		exp, ok := expectations[entry.PlayerID]
		if !ok {
			return fmt.Errorf("player %s on the board but never submitted", entry.PlayerID)
		}
		if entry.Score > exp.bestScore {
			return fmt.Errorf("player %s shows %d, best submission was %d",
				entry.PlayerID, entry.Score, exp.bestScore)
		}
	}
	return nil
}

// verifyRanksAgainstBoard checks individually queried ranks agree with the
// board positions for the players the board shows.
func verifyRanksAgainstBoard(ranks []RankResponse, leaderboard []Entry) error {
	byPlayer := make(map[string]RankResponse, len(ranks))
	for _, r := range ranks {
		byPlayer[r.PlayerID] = r
	}

	for _, entry := range leaderboard {
		rank, ok := byPlayer[entry.PlayerID]
		if !ok {
			continue
		}
		if rank.Rank == nil {
			return fmt.Errorf("player %s is on the board but reported unranked", entry.PlayerID)
		}
		// Tied scores share a rank, so the individually reported rank can be
		// lower than the board position but never higher.
		if *rank.Rank > entry.Rank {
			return fmt.Errorf("player %s reported rank %d behind board position %d",
				entry.PlayerID, *rank.Rank, entry.Rank)
		}
		if rank.Score != nil && *rank.Score != entry.Score {
			return fmt.Errorf("player %s reported score %d, board shows %d",
				entry.PlayerID, *rank.Score, entry.Score)
		}
	}
	return nil
}

// spotCheckStatistics fetches aggregated totals for the board leaders and
// checks them against the submitted sessions.
func spotCheckStatistics(config *Config, client *HTTPClient, leaderboard []Entry, expectations map[string]sessionExpectation) error {
	checks := len(leaderboard)
	if checks > 10 {
		checks = 10
	}

	for i := 0; i < checks; i++ {
		entry := leaderboard[i]
		st, err := retrieveStatistics(client, config.BaseURL, entry.PlayerID)
		if err != nil {
			return fmt.Errorf("fetch statistics for %s: %w", entry.PlayerID, err)
		}

		exp := expectations[entry.PlayerID]
		// Throttled submissions make exact equality too strict.
		if st.TotalGames > exp.games {
			return fmt.Errorf("player %s counted %d games, only %d submitted",
				entry.PlayerID, st.TotalGames, exp.games)
		}
		if st.HighestScore != entry.Score {
			return fmt.Errorf("player %s highest score %d disagrees with board score %d",
				entry.PlayerID, st.HighestScore, entry.Score)
		}
	}
	return nil
}

// displayTopPerformers shows the leading entries.
func displayTopPerformers(leaderboard []Entry, verbose bool) {
	topN := 10
	if len(leaderboard) < topN {
		topN = len(leaderboard)
	}

	log.Printf("top %d performers:", topN)
	for i := 0; i < topN; i++ {
		entry := leaderboard[i]
		log.Printf("   %d. %s - Score: %d", entry.Rank, entry.Username, entry.Score)
	}

	if verbose && len(leaderboard) > 0 {
		scores := make([]int, len(leaderboard))
		sum := 0
		for i, entry := range leaderboard {
			scores[i] = entry.Score
			sum += entry.Score
		}
		sort.Ints(scores)

		log.Printf(`score statistics across the board:
   Average: %.1f
   Maximum: %d
   Minimum: %d
`, float64(sum)/float64(len(scores)), scores[len(scores)-1], scores[0])
	}
}
