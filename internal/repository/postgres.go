package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lineclash/lineclash-server/internal/recorder"
	"go.uber.org/zap"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS game_sessions (
	id            BIGSERIAL PRIMARY KEY,
	start_time    TIMESTAMPTZ NOT NULL,
	end_time      TIMESTAMPTZ,
	player1_name  TEXT NOT NULL,
	player2_name  TEXT NOT NULL,
	winner        TEXT,
	duration_sec  INTEGER,
	rounds_played INTEGER
);

CREATE TABLE IF NOT EXISTS player_actions (
	id           BIGSERIAL PRIMARY KEY,
	session_id   BIGINT NOT NULL REFERENCES game_sessions(id),
	timestamp    TIMESTAMPTZ NOT NULL,
	player       TEXT NOT NULL,
	action_type  TEXT NOT NULL,
	card_name    TEXT,
	card_power   INTEGER,
	line_key     TEXT,
	result_state JSONB NOT NULL,
	round        INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_player_actions_session ON player_actions(session_id);

CREATE TABLE IF NOT EXISTS card_statistics (
	id                  BIGSERIAL PRIMARY KEY,
	card_name           TEXT UNIQUE NOT NULL,
	times_used          INTEGER NOT NULL DEFAULT 0,
	avg_power           DOUBLE PRECISION NOT NULL DEFAULT 0,
	ability_activations INTEGER NOT NULL DEFAULT 0,
	win_rate            DOUBLE PRECISION NOT NULL DEFAULT 0
);
`

// pgxPool is the part of *pgxpool.Pool the store uses.
type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

// Postgres is a recorder.Store backed by a pgx connection pool.
type Postgres struct {
	pool   pgxPool
	logger *zap.Logger
}

// NewPostgres connects, pings and creates the schema.
func NewPostgres(ctx context.Context, dsn string, logger *zap.Logger) (*Postgres, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	stats := pool.Stat()
	logger.Info("database connection pool initialized",
		zap.String("driver", "postgres"),
		zap.Int32("total_conns", stats.TotalConns()),
		zap.Int32("idle_conns", stats.IdleConns()),
	)
	return newPostgres(pool, logger), nil
}

func newPostgres(pool pgxPool, logger *zap.Logger) *Postgres {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Postgres{pool: pool, logger: logger}
}

func (p *Postgres) CreateSession(ctx context.Context, start time.Time, player1, player2 string) (int64, error) {
	var id int64
	err := p.pool.QueryRow(ctx, `
		INSERT INTO game_sessions (start_time, player1_name, player2_name)
		VALUES ($1, $2, $3)
		RETURNING id
	`, start, player1, player2).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert session: %w", err)
	}
	return id, nil
}

func (p *Postgres) FinishSession(ctx context.Context, id int64, s recorder.Summary) error {
	tag, err := p.pool.Exec(ctx, `
		UPDATE game_sessions
		SET end_time = $1, winner = $2, rounds_played = $3, duration_sec = $4
		WHERE id = $5
	`, s.EndedAt, s.Winner, s.Rounds, int(s.Duration.Seconds()), id)
	if err != nil {
		return fmt.Errorf("update session %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("session %d not found", id)
	}
	return nil
}

func (p *Postgres) InsertAction(ctx context.Context, session int64, a recorder.Action) error {
	state, err := encodeState(a.State)
	if err != nil {
		return err
	}
	name, power, zone := cardColumns(a)
	_, err = p.pool.Exec(ctx, `
		INSERT INTO player_actions
			(session_id, timestamp, player, action_type, card_name, card_power, line_key, result_state, round)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, session, a.At, a.Player, string(a.Type), name, power, zone, state, a.Round)
	if err != nil {
		return fmt.Errorf("insert action: %w", err)
	}
	return nil
}

func (p *Postgres) UpdateCardStatistics(ctx context.Context, u recorder.CardUsage) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var prev *recorder.CardStats
	row := recorder.CardStats{Name: u.Name}
	err = tx.QueryRow(ctx, `
		SELECT times_used, avg_power, ability_activations, win_rate
		FROM card_statistics WHERE card_name = $1 FOR UPDATE
	`, u.Name).Scan(&row.TimesUsed, &row.AvgPower, &row.AbilityActivations, &row.WinRate)
	switch {
	case err == nil:
		prev = &row
	case errors.Is(err, pgx.ErrNoRows):
	default:
		return fmt.Errorf("select card statistics: %w", err)
	}

	next := recorder.Accumulate(prev, u)
	_, err = tx.Exec(ctx, `
		INSERT INTO card_statistics (card_name, times_used, avg_power, ability_activations, win_rate)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (card_name) DO UPDATE SET
			times_used = EXCLUDED.times_used,
			avg_power = EXCLUDED.avg_power,
			ability_activations = EXCLUDED.ability_activations,
			win_rate = EXCLUDED.win_rate
	`, next.Name, next.TimesUsed, next.AvgPower, next.AbilityActivations, next.WinRate)
	if err != nil {
		return fmt.Errorf("upsert card statistics: %w", err)
	}
	return tx.Commit(ctx)
}

func (p *Postgres) TopCards(ctx context.Context, order recorder.StatsOrder, limit int) ([]recorder.CardStats, error) {
	clause, err := orderClause(order)
	if err != nil {
		return nil, err
	}
	rows, err := p.pool.Query(ctx, `
		SELECT card_name, times_used, avg_power, ability_activations, win_rate
		FROM card_statistics ORDER BY `+clause+` LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query card statistics: %w", err)
	}
	defer rows.Close()

	var out []recorder.CardStats
	for rows.Next() {
		var s recorder.CardStats
		if err := rows.Scan(&s.Name, &s.TimesUsed, &s.AvgPower, &s.AbilityActivations, &s.WinRate); err != nil {
			return nil, fmt.Errorf("scan card statistics: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
