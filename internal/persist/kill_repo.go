package persist

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// KillRecord is one row of the kill log.
type KillRecord struct {
	Turn     uint32
	Victim   uint32
	Template string
	Killer   uint32
	Source   uint32
	X, Y     float64
}

type KillRepo struct {
	db *DB
}

func NewKillRepo(db *DB) *KillRepo {
	return &KillRepo{db: db}
}

// StartMatch registers a new match and returns its id.
func (r *KillRepo) StartMatch(ctx context.Context, worldFile string, seed uint64) (uuid.UUID, error) {
	id := uuid.New()
	if _, err := r.db.Pool.Exec(ctx,
		`INSERT INTO matches (id, world_file, seed) VALUES ($1, $2, $3)`,
		id, worldFile, int64(seed),
	); err != nil {
		return uuid.Nil, fmt.Errorf("start match: %w", err)
	}
	return id, nil
}

// EndMatch stamps the end time of a match.
func (r *KillRepo) EndMatch(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.Pool.Exec(ctx,
		`UPDATE matches SET ended_at = now() WHERE id = $1`, id,
	); err != nil {
		return fmt.Errorf("end match: %w", err)
	}
	return nil
}

// WriteKills inserts a batch of kills in a single transaction.
func (r *KillRepo) WriteKills(ctx context.Context, match uuid.UUID, kills []KillRecord) error {
	if len(kills) == 0 {
		return nil
	}
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("kills begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, k := range kills {
		if _, err := tx.Exec(ctx,
			`INSERT INTO kills (match_id, turn, victim, template, killer, source, x, y)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			match, int64(k.Turn), int64(k.Victim), k.Template, int64(k.Killer), int64(k.Source), k.X, k.Y,
		); err != nil {
			return fmt.Errorf("kills insert: %w", err)
		}
	}
	return tx.Commit(ctx)
}

// KillCount sums a match's kills per killer.
func (r *KillRepo) KillCount(ctx context.Context, match uuid.UUID) (map[uint32]int, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT killer, count(*) FROM kills WHERE match_id = $1 AND killer <> 0 GROUP BY killer`, match,
	)
	if err != nil {
		return nil, fmt.Errorf("kill count: %w", err)
	}
	defer rows.Close()

	out := make(map[uint32]int)
	for rows.Next() {
		var killer int64
		var n int
		if err := rows.Scan(&killer, &n); err != nil {
			return nil, fmt.Errorf("kill count scan: %w", err)
		}
		out[uint32(killer)] = n
	}
	return out, rows.Err()
}
