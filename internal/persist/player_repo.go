package persist

import (
	"context"
	"fmt"
)

// PlayerRow is the persisted shape of a player character.
type PlayerRow struct {
	ID     int64
	Name   string
	X      float64
	Y      float64
	HP     int32
	MaxHP  int32
	MP     int32
	MaxMP  int32
	Level  int16
	Exp    int64
	JobID  int16
	Banned bool
}

type PlayerRepo struct {
	db *DB
}

func NewPlayerRepo(db *DB) *PlayerRepo {
	return &PlayerRepo{db: db}
}

// LoadAll returns every persisted player, ID-ascending. Called once at boot
// to seed the world store.
func (r *PlayerRepo) LoadAll(ctx context.Context) ([]PlayerRow, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT id, name, x, y, hp, max_hp, mp, max_mp, level, exp, job_id, banned
		 FROM players
		 ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []PlayerRow
	for rows.Next() {
		var p PlayerRow
		if err := rows.Scan(
			&p.ID, &p.Name, &p.X, &p.Y, &p.HP, &p.MaxHP, &p.MP, &p.MaxMP,
			&p.Level, &p.Exp, &p.JobID, &p.Banned,
		); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// Upsert writes one player row.
func (r *PlayerRepo) Upsert(ctx context.Context, p PlayerRow) error {
	_, err := r.db.Pool.Exec(ctx, upsertPlayerSQL,
		p.ID, p.Name, p.X, p.Y, p.HP, p.MaxHP, p.MP, p.MaxMP,
		p.Level, p.Exp, p.JobID, p.Banned,
	)
	return err
}

// UpsertBatch writes all rows in one transaction; either every row lands or
// none do, so a mid-save crash cannot leave a half-flushed autosave.
func (r *PlayerRepo) UpsertBatch(ctx context.Context, players []PlayerRow) error {
	if len(players) == 0 {
		return nil
	}
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, p := range players {
		if _, err := tx.Exec(ctx, upsertPlayerSQL,
			p.ID, p.Name, p.X, p.Y, p.HP, p.MaxHP, p.MP, p.MaxMP,
			p.Level, p.Exp, p.JobID, p.Banned,
		); err != nil {
			return fmt.Errorf("upsert player %d: %w", p.ID, err)
		}
	}
	return tx.Commit(ctx)
}

const upsertPlayerSQL = `
	INSERT INTO players (id, name, x, y, hp, max_hp, mp, max_mp, level, exp, job_id, banned, updated_at)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,NOW())
	ON CONFLICT (id) DO UPDATE SET
		name = EXCLUDED.name,
		x = EXCLUDED.x,
		y = EXCLUDED.y,
		hp = EXCLUDED.hp,
		max_hp = EXCLUDED.max_hp,
		mp = EXCLUDED.mp,
		max_mp = EXCLUDED.max_mp,
		level = EXCLUDED.level,
		exp = EXCLUDED.exp,
		job_id = EXCLUDED.job_id,
		banned = EXCLUDED.banned,
		updated_at = NOW()`
