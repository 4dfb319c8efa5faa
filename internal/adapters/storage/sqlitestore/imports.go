package sqlitestore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/slitherlab/slither/internal/domain/model"
)

// ArchiveImport stores an accepted import payload immutably.
func (s *Store) ArchiveImport(ctx context.Context, rec model.ImportRecord) error {
	const op = "imports.archive"
	defer observe(op, time.Now())

	payload, err := json.Marshal(rec.Payload)
	if err != nil {
		return fmt.Errorf("%s: marshal payload: %w", op, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO game_imports (id, player_id, payload, imported_at)
		VALUES (?, ?, ?, ?)`,
		rec.ID, rec.PlayerID, string(payload), toMillis(rec.ImportedAt),
	)
	return classify(op, err)
}
