package storage

import (
	"context"
	"database/sql"
	"fmt"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/fullcount-labs/fullcount/pkg/types"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS trades (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    market_id   TEXT    NOT NULL,
    bettor      TEXT    NOT NULL,
    outcome     TEXT    NOT NULL,
    share_delta REAL    NOT NULL,
    cost        REAL    NOT NULL,
    p_ball      REAL    NOT NULL,
    p_strike    REAL    NOT NULL,
    executed_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS resolutions (
    id           TEXT PRIMARY KEY,
    market_id    TEXT NOT NULL,
    outcome      TEXT NOT NULL,
    winners      TEXT NOT NULL,
    losers       TEXT NOT NULL,
    total_payout REAL NOT NULL,
    resolved_at  DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_market      ON trades(market_id);
CREATE INDEX IF NOT EXISTS idx_resolutions_market ON resolutions(market_id);
`

// SQLiteStorage implements Storage on an embedded SQLite file (pure Go, no
// CGo). Useful for single-node deployments and the offline simulator.
type SQLiteStorage struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteStorage opens (or creates) the database at the given path and
// applies the schema.
func NewSQLiteStorage(path string, logger *zap.Logger) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}
	// SQLite is single-writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply sqlite schema: %w", err)
	}

	logger.Info("sqlite-storage-opened", zap.String("path", path))

	return &SQLiteStorage{db: db, logger: logger}, nil
}

// StoreTrade records a trade receipt.
func (s *SQLiteStorage) StoreTrade(ctx context.Context, receipt *types.TradeReceipt) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO trades (market_id, bettor, outcome, share_delta, cost, p_ball, p_strike, executed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		receipt.MarketID,
		receipt.Bettor.Hex(),
		string(receipt.Outcome),
		receipt.ShareDelta,
		receipt.Cost,
		receipt.PBall,
		receipt.PStrike,
		receipt.ExecutedAt,
	)
	if err != nil {
		return fmt.Errorf("insert trade: %w", err)
	}
	return nil
}

// StoreResolution records a resolution. Replays carry the same deterministic
// id, so a duplicate insert is ignored rather than duplicated.
func (s *SQLiteStorage) StoreResolution(ctx context.Context, result *types.ResolutionResult) error {
	winners, err := json.Marshal(result.Winners)
	if err != nil {
		return fmt.Errorf("encode winners: %w", err)
	}
	losers, err := json.Marshal(result.Losers)
	if err != nil {
		return fmt.Errorf("encode losers: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO resolutions (id, market_id, outcome, winners, losers, total_payout, resolved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		result.ID,
		result.MarketID,
		string(result.Outcome),
		string(winners),
		string(losers),
		result.TotalPayout,
		result.ResolvedAt,
	)
	if err != nil {
		return fmt.Errorf("insert resolution: %w", err)
	}
	return nil
}

// TradeCount returns the number of stored trades for a market.
func (s *SQLiteStorage) TradeCount(ctx context.Context, marketID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM trades WHERE market_id = ?`, marketID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count trades: %w", err)
	}
	return n, nil
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	s.logger.Info("closing-sqlite-storage")
	return s.db.Close()
}
