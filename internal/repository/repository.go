// Package repository implements recorder.Store on top of postgres (pgx) and
// sqlite (modernc). Both backends use the same three tables: game_sessions,
// player_actions and card_statistics.
package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lineclash/lineclash-server/internal/recorder"
	"go.uber.org/zap"
)

// Open returns the store for driver ("postgres" or "sqlite").
func Open(ctx context.Context, driver, dsn string, logger *zap.Logger) (recorder.Store, error) {
	switch driver {
	case "postgres":
		return NewPostgres(ctx, dsn, logger)
	case "sqlite":
		return NewSQLite(ctx, dsn, logger)
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}

func encodeState(state any) (string, error) {
	if state == nil {
		return "{}", nil
	}
	raw, err := json.Marshal(state)
	if err != nil {
		return "", fmt.Errorf("encode state: %w", err)
	}
	return string(raw), nil
}

// cardColumns returns the nullable card columns of an action row.
func cardColumns(a recorder.Action) (name, power, zone any) {
	if !a.HasCard() {
		return nil, nil, nil
	}
	return a.CardName, a.CardPower, a.ZoneKey
}

func orderClause(order recorder.StatsOrder) (string, error) {
	switch order {
	case recorder.OrderByUsage, "":
		return "times_used DESC, card_name", nil
	case recorder.OrderByWinRate:
		return "win_rate DESC, times_used DESC, card_name", nil
	case recorder.OrderByPower:
		return "avg_power DESC, card_name", nil
	default:
		return "", fmt.Errorf("unknown stats order %q", order)
	}
}
