package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lineclash/lineclash-server/internal/recorder"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS game_sessions (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	start_time    DATETIME,
	end_time      DATETIME,
	player1_name  TEXT,
	player2_name  TEXT,
	winner        TEXT,
	duration_sec  INTEGER,
	rounds_played INTEGER
);

CREATE TABLE IF NOT EXISTS player_actions (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id   INTEGER,
	timestamp    DATETIME,
	player       TEXT,
	action_type  TEXT,
	card_name    TEXT,
	card_power   INTEGER,
	line_key     TEXT,
	result_state TEXT,
	round        INTEGER,
	FOREIGN KEY (session_id) REFERENCES game_sessions(id)
);

CREATE TABLE IF NOT EXISTS card_statistics (
	id                  INTEGER PRIMARY KEY AUTOINCREMENT,
	card_name           TEXT UNIQUE,
	times_used          INTEGER DEFAULT 0,
	avg_power           REAL DEFAULT 0,
	ability_activations INTEGER DEFAULT 0,
	win_rate            REAL DEFAULT 0
);
`

// SQLite is a recorder.Store backed by a single sqlite file.
type SQLite struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLite opens dsn (a file path or ":memory:") and creates the schema.
func NewSQLite(ctx context.Context, dsn string, logger *zap.Logger) (*SQLite, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// sqlite allows one writer; a single connection also keeps ":memory:"
	// databases alive across calls.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	logger.Info("database opened", zap.String("driver", "sqlite"), zap.String("dsn", dsn))
	return &SQLite{db: db, logger: logger}, nil
}

func (s *SQLite) CreateSession(ctx context.Context, start time.Time, player1, player2 string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO game_sessions (start_time, player1_name, player2_name)
		VALUES (?, ?, ?)
	`, start.UTC(), player1, player2)
	if err != nil {
		return 0, fmt.Errorf("insert session: %w", err)
	}
	return res.LastInsertId()
}

func (s *SQLite) FinishSession(ctx context.Context, id int64, sum recorder.Summary) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE game_sessions
		SET end_time = ?, winner = ?, rounds_played = ?, duration_sec = ?
		WHERE id = ?
	`, sum.EndedAt.UTC(), sum.Winner, sum.Rounds, int(sum.Duration.Seconds()), id)
	if err != nil {
		return fmt.Errorf("update session %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("session %d not found", id)
	}
	return nil
}

func (s *SQLite) InsertAction(ctx context.Context, session int64, a recorder.Action) error {
	state, err := encodeState(a.State)
	if err != nil {
		return err
	}
	name, power, zone := cardColumns(a)
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO player_actions
			(session_id, timestamp, player, action_type, card_name, card_power, line_key, result_state, round)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, session, a.At.UTC(), a.Player, string(a.Type), name, power, zone, state, a.Round)
	if err != nil {
		return fmt.Errorf("insert action: %w", err)
	}
	return nil
}

func (s *SQLite) UpdateCardStatistics(ctx context.Context, u recorder.CardUsage) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var prev *recorder.CardStats
	row := recorder.CardStats{Name: u.Name}
	err = tx.QueryRowContext(ctx, `
		SELECT times_used, avg_power, ability_activations, win_rate
		FROM card_statistics WHERE card_name = ?
	`, u.Name).Scan(&row.TimesUsed, &row.AvgPower, &row.AbilityActivations, &row.WinRate)
	switch {
	case err == nil:
		prev = &row
	case errors.Is(err, sql.ErrNoRows):
	default:
		return fmt.Errorf("select card statistics: %w", err)
	}

	next := recorder.Accumulate(prev, u)
	_, err = tx.ExecContext(ctx, `
		INSERT INTO card_statistics (card_name, times_used, avg_power, ability_activations, win_rate)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (card_name) DO UPDATE SET
			times_used = excluded.times_used,
			avg_power = excluded.avg_power,
			ability_activations = excluded.ability_activations,
			win_rate = excluded.win_rate
	`, next.Name, next.TimesUsed, next.AvgPower, next.AbilityActivations, next.WinRate)
	if err != nil {
		return fmt.Errorf("upsert card statistics: %w", err)
	}
	return tx.Commit()
}

func (s *SQLite) TopCards(ctx context.Context, order recorder.StatsOrder, limit int) ([]recorder.CardStats, error) {
	clause, err := orderClause(order)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT card_name, times_used, avg_power, ability_activations, win_rate
		FROM card_statistics ORDER BY `+clause+` LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query card statistics: %w", err)
	}
	defer rows.Close()

	var out []recorder.CardStats
	for rows.Next() {
		var st recorder.CardStats
		if err := rows.Scan(&st.Name, &st.TimesUsed, &st.AvgPower, &st.AbilityActivations, &st.WinRate); err != nil {
			return nil, fmt.Errorf("scan card statistics: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
