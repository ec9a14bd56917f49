package storage

import (
	"context"
	"errors"
	"fmt"
	"partyrelay/domain"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const queryTimeout = 2 * time.Second

type PostgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresRepo(ctx context.Context, connString string) (*PostgresRepo, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: %w", domain.UnexpectedDatabaseError, err)
	}
	return &PostgresRepo{pool: pool}, nil
}

func (pgr *PostgresRepo) Close() {
	pgr.pool.Close()
}

// Generate fetches count random words from the words table.
// Returns an empty slice if the query fails.
func (pgr *PostgresRepo) Generate(count int) []string {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	words, err := pgr.RandomWords(ctx, count)
	if err != nil {
		return []string{}
	}
	return words
}

func (pgr *PostgresRepo) RandomWords(ctx context.Context, count int) ([]string, error) {
	rows, err := pgr.pool.Query(ctx, `SELECT word FROM words ORDER BY RANDOM() LIMIT $1`, count)
	if err != nil {
		return nil, wrapDBError(err)
	}

	words, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, wrapDBError(err)
	}
	return words, nil
}

// AddWords inserts words, skipping ones already present, and returns how
// many were new.
func (pgr *PostgresRepo) AddWords(ctx context.Context, words ...string) (int64, error) {
	batch := &pgx.Batch{}
	for _, w := range words {
		batch.Queue(`INSERT INTO words (word) VALUES ($1) ON CONFLICT (word) DO NOTHING`, w)
	}

	results := pgr.pool.SendBatch(ctx, batch)
	defer results.Close()

	var inserted int64
	for range words {
		tag, err := results.Exec()
		if err != nil {
			return inserted, wrapDBError(err)
		}
		inserted += tag.RowsAffected()
	}
	return inserted, nil
}

func (pgr *PostgresRepo) CountWords(ctx context.Context) (int, error) {
	var n int
	if err := pgr.pool.QueryRow(ctx, `SELECT COUNT(*) FROM words`).Scan(&n); err != nil {
		return 0, wrapDBError(err)
	}
	return n, nil
}

func wrapDBError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.UnexpectedDatabaseError, err)
}
