package persist

import (
	"context"
	"fmt"
)

// LeaderboardRow is one persisted ranking entry.
type LeaderboardRow struct {
	Rank     int32
	PlayerID int64
	Name     string
	Level    int16
	Exp      int64
	Job      string
}

type LeaderboardRepo struct {
	db *DB
}

func NewLeaderboardRepo(db *DB) *LeaderboardRepo {
	return &LeaderboardRepo{db: db}
}

// Replace swaps the persisted snapshot for the new one in a single
// transaction. The table only ever holds the latest refresh.
func (r *LeaderboardRepo) Replace(ctx context.Context, entries []LeaderboardRow) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM leaderboard`); err != nil {
		return fmt.Errorf("clear leaderboard: %w", err)
	}
	for _, e := range entries {
		if _, err := tx.Exec(ctx,
			`INSERT INTO leaderboard (rank, player_id, name, level, exp, job, taken_at)
			 VALUES ($1,$2,$3,$4,$5,$6,NOW())`,
			e.Rank, e.PlayerID, e.Name, e.Level, e.Exp, e.Job,
		); err != nil {
			return fmt.Errorf("insert rank %d: %w", e.Rank, err)
		}
	}
	return tx.Commit(ctx)
}
