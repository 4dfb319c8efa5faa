package model

import (
	"errors"
	"testing"
)

func TestParseImportAccepts(t *testing.T) {
	raw := []byte(`{
		"player_id": "p1",
		"username": "viper",
		"statistics": {"player_id": "p1", "total_games": 2, "total_score": 60, "average_score": 30, "highest_score": 40, "longest_snake": 6, "total_food_eaten": 10, "total_play_time_seconds": 200, "speed_boosts_used": 1, "last_updated": "2026-03-01T12:00:00Z"},
		"recent_sessions": [{"id": "s1", "player_id": "p1", "score": 40, "snake_length": 6, "duration_seconds": 100, "food_eaten": 5, "speed_boosts_used": 1, "game_ended_reason": "quit", "timestamp": "2026-03-01T11:00:00Z"}],
		"export_timestamp": "2026-03-01T12:00:00Z",
		"version": "1.0.0"
	}`)

	exp, err := ParseImport(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exp.PlayerID != "p1" || exp.Username != "viper" {
		t.Errorf("unexpected envelope: %+v", exp)
	}
	if len(exp.RecentSessions) != 1 || exp.RecentSessions[0].Score != 40 {
		t.Errorf("unexpected sessions: %+v", exp.RecentSessions)
	}
}

func TestParseImportRejects(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"not json", `{{`},
		{"unknown field", `{"player_id": "p1", "version": "1.0.0", "bogus": 1}`},
		{"wrong version", `{"player_id": "p1", "version": "2.0.0"}`},
		{"missing version", `{"player_id": "p1"}`},
		{"missing player id", `{"version": "1.0.0"}`},
		{"bad end reason", `{"player_id": "p1", "version": "1.0.0", "recent_sessions": [{"id": "s", "player_id": "p1", "score": 1, "snake_length": 4, "duration_seconds": 1, "food_eaten": 0, "speed_boosts_used": 0, "game_ended_reason": "meteor", "timestamp": "2026-03-01T11:00:00Z"}]}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseImport([]byte(tc.raw))
			if err == nil {
				t.Fatal("expected rejection")
			}
			if !errors.Is(err, ErrInvalidImport) {
				t.Errorf("expected ErrInvalidImport, got %v", err)
			}
		})
	}
}
