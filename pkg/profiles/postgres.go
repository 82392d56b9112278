package profiles

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"cpwidget/pkg/db"
)

// pgStore keeps profiles in user_profiles (see content.EnsureSchema).
type pgStore struct {
	dbPool *pgxpool.Pool
}

func NewPostgresStore(dbPool *pgxpool.Pool) Store {
	return &pgStore{dbPool: dbPool}
}

func (s *pgStore) Get(ctx context.Context, userID string) (map[string]string, error) {
	var email *string
	var raw []byte
	err := s.dbPool.QueryRow(ctx, `SELECT email, props FROM user_profiles WHERE user_id=$1`, userID).Scan(&email, &raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("profiles: pg get: %w", err)
	}
	out := map[string]string{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, fmt.Errorf("profiles: pg decode: %w", err)
		}
	}
	if email != nil {
		out[EmailField] = *email
	}
	return out, nil
}

// Set merges fields into the jsonb bag with one UPDATE statement.
func (s *pgStore) Set(ctx context.Context, userID string, fields map[string]string) error {
	b, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	return db.WithTx(ctx, s.dbPool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE user_profiles SET props = props || $2::jsonb, updated_at = NOW() WHERE user_id=$1`, userID, string(b))
		if err != nil {
			return fmt.Errorf("profiles: pg set: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// SeedPostgres upserts profiles for the given users (id -> email).
func SeedPostgres(ctx context.Context, dbPool *pgxpool.Pool, emails map[string]string) error {
	return db.WithTx(ctx, dbPool, func(tx pgx.Tx) error {
		for id, email := range emails {
			if _, err := tx.Exec(ctx, `
INSERT INTO user_profiles (user_id, email) VALUES ($1, $2)
ON CONFLICT (user_id) DO UPDATE SET email = EXCLUDED.email, updated_at = NOW()`, id, email); err != nil {
				return err
			}
		}
		return nil
	})
}
