package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"solswing/internal/models"
)

// DefaultUserID is the single-tenant owner every row is scoped to. The
// schema carries a user_id column for forward compatibility with
// multi-tenancy, but nothing here reads it from request context.
const DefaultUserID = "default"

// RelationalStore persists positions and tracked tokens in Postgres.
// Monetary fields cross the wire as decimal.Decimal, round-tripped through
// their string form so float64 rounding never touches a stored balance;
// they are converted back to float64 only once loaded into a Position, which
// is an in-memory working value.
type RelationalStore struct {
	pool *pgxpool.Pool
}

// NewRelationalStore connects to Postgres and runs startup migrations.
func NewRelationalStore(ctx context.Context, dsn string) (*RelationalStore, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(connectCtx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := pool.Ping(connectCtx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	store := &RelationalStore{pool: pool}
	if err := store.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return store, nil
}

func (s *RelationalStore) migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS positions (
	id                 UUID PRIMARY KEY,
	user_id            TEXT NOT NULL,
	token              TEXT NOT NULL,
	entry_price        NUMERIC NOT NULL,
	quantity           NUMERIC NOT NULL,
	entry_time         TIMESTAMPTZ NOT NULL,
	stop_loss          NUMERIC NOT NULL,
	take_profit        NUMERIC,
	trailing_high      NUMERIC NOT NULL,
	status             TEXT NOT NULL,
	realized_pnl       NUMERIC,
	exit_price         NUMERIC,
	exit_time          TIMESTAMPTZ,
	exit_reason        TEXT,
	allow_accumulation BOOLEAN NOT NULL DEFAULT FALSE,
	total_cost_basis   NUMERIC NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_positions_user_status ON positions (user_id, status);
CREATE TABLE IF NOT EXISTS tracked_tokens (
	symbol       TEXT NOT NULL,
	user_id      TEXT NOT NULL,
	mint_address TEXT NOT NULL,
	name         TEXT NOT NULL,
	decimals     INT NOT NULL,
	PRIMARY KEY (user_id, symbol)
);
`)
	if err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func toDecimal(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

func toDecimalPtr(f *float64) *decimal.Decimal {
	if f == nil {
		return nil
	}
	d := decimal.NewFromFloat(*f)
	return &d
}

func fromDecimalPtr(d *decimal.Decimal) *float64 {
	if d == nil {
		return nil
	}
	f, _ := d.Float64()
	return &f
}

// SavePosition upserts a position, keeping its identity fields fixed on
// conflict and overwriting only the fields the position manager mutates
// over a position's lifetime.
func (s *RelationalStore) SavePosition(ctx context.Context, p models.Position) error {
	var exitReason *string
	if p.ExitReason != nil {
		r := string(*p.ExitReason)
		exitReason = &r
	}

	_, err := s.pool.Exec(ctx, `
INSERT INTO positions (
	id, user_id, token, entry_price, quantity, entry_time, stop_loss,
	take_profit, trailing_high, status, realized_pnl, exit_price, exit_time,
	exit_reason, allow_accumulation, total_cost_basis
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
ON CONFLICT (id) DO UPDATE SET
	entry_price        = EXCLUDED.entry_price,
	quantity           = EXCLUDED.quantity,
	stop_loss          = EXCLUDED.stop_loss,
	take_profit        = EXCLUDED.take_profit,
	trailing_high      = EXCLUDED.trailing_high,
	status             = EXCLUDED.status,
	realized_pnl       = EXCLUDED.realized_pnl,
	exit_price         = EXCLUDED.exit_price,
	exit_time          = EXCLUDED.exit_time,
	exit_reason        = EXCLUDED.exit_reason,
	total_cost_basis   = EXCLUDED.total_cost_basis
`,
		p.ID, DefaultUserID, p.Token, toDecimal(p.EntryPrice), toDecimal(p.Quantity),
		p.EntryTime, toDecimal(p.StopLoss), toDecimalPtr(p.TakeProfit), toDecimal(p.TrailingHigh),
		string(p.Status), toDecimalPtr(p.RealizedPnL), toDecimalPtr(p.ExitPrice), p.ExitTime,
		exitReason, p.AllowAccumulation, toDecimal(p.TotalCostBasis),
	)
	if err != nil {
		return fmt.Errorf("save position %s: %w", p.ID, err)
	}
	return nil
}

const positionColumns = `id, token, entry_price, quantity, entry_time, stop_loss,
	take_profit, trailing_high, status, realized_pnl, exit_price, exit_time,
	exit_reason, allow_accumulation, total_cost_basis`

func scanPosition(row pgx.Row) (models.Position, error) {
	var (
		p                               models.Position
		entryPrice, quantity, stopLoss  decimal.Decimal
		trailingHigh, totalCostBasis    decimal.Decimal
		status                          string
		takeProfit, realizedPnL         *decimal.Decimal
		exitPrice                       *decimal.Decimal
		exitTime                        *time.Time
		exitReason                      *string
	)
	if err := row.Scan(
		&p.ID, &p.Token, &entryPrice, &quantity, &p.EntryTime, &stopLoss,
		&takeProfit, &trailingHigh, &status, &realizedPnL, &exitPrice, &exitTime,
		&exitReason, &p.AllowAccumulation, &totalCostBasis,
	); err != nil {
		return models.Position{}, err
	}

	p.EntryPrice, _ = entryPrice.Float64()
	p.Quantity, _ = quantity.Float64()
	p.StopLoss, _ = stopLoss.Float64()
	p.TrailingHigh, _ = trailingHigh.Float64()
	p.TotalCostBasis, _ = totalCostBasis.Float64()
	p.Status = models.Status(status)
	p.TakeProfit = fromDecimalPtr(takeProfit)
	p.RealizedPnL = fromDecimalPtr(realizedPnL)
	p.ExitPrice = fromDecimalPtr(exitPrice)
	p.ExitTime = exitTime
	if exitReason != nil {
		r := models.ExitReason(*exitReason)
		p.ExitReason = &r
	}
	return p, nil
}

// LoadPositions returns every position owned by the default user.
func (s *RelationalStore) LoadPositions(ctx context.Context) ([]models.Position, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+positionColumns+` FROM positions WHERE user_id = $1 ORDER BY entry_time`, DefaultUserID)
	if err != nil {
		return nil, fmt.Errorf("load positions: %w", err)
	}
	defer rows.Close()
	return collectPositions(rows)
}

// LoadRecentPositions returns closed positions from the last n days, newest
// first, for rolling-window metrics (consecutive losses, daily P&L).
func (s *RelationalStore) LoadRecentPositions(ctx context.Context, days int) ([]models.Position, error) {
	cutoff := time.Now().AddDate(0, 0, -days)
	rows, err := s.pool.Query(ctx, `
SELECT `+positionColumns+` FROM positions
WHERE user_id = $1 AND status = $2 AND exit_time >= $3
ORDER BY exit_time DESC
`, DefaultUserID, string(models.StatusClosed), cutoff)
	if err != nil {
		return nil, fmt.Errorf("load recent positions: %w", err)
	}
	defer rows.Close()
	return collectPositions(rows)
}

func collectPositions(rows pgx.Rows) ([]models.Position, error) {
	var out []models.Position
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("scan position: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetTotalPnL sums realized P&L across every closed position.
func (s *RelationalStore) GetTotalPnL(ctx context.Context) (float64, error) {
	var total decimal.Decimal
	err := s.pool.QueryRow(ctx, `
SELECT COALESCE(SUM(realized_pnl), 0) FROM positions WHERE user_id = $1 AND status = $2
`, DefaultUserID, string(models.StatusClosed)).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum total pnl: %w", err)
	}
	f, _ := total.Float64()
	return f, nil
}

// SaveTrackedToken registers or updates a token under watch.
func (s *RelationalStore) SaveTrackedToken(ctx context.Context, t models.Token) error {
	_, err := s.pool.Exec(ctx, `
INSERT INTO tracked_tokens (symbol, user_id, mint_address, name, decimals)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (user_id, symbol) DO UPDATE SET
	mint_address = EXCLUDED.mint_address,
	name         = EXCLUDED.name,
	decimals     = EXCLUDED.decimals
`, t.Symbol, DefaultUserID, t.MintAddress, t.Name, t.Decimals)
	if err != nil {
		return fmt.Errorf("save tracked token %s: %w", t.Symbol, err)
	}
	return nil
}

// LoadTrackedTokens returns every token currently under watch.
func (s *RelationalStore) LoadTrackedTokens(ctx context.Context) ([]models.Token, error) {
	rows, err := s.pool.Query(ctx, `
SELECT symbol, mint_address, name, decimals FROM tracked_tokens WHERE user_id = $1
`, DefaultUserID)
	if err != nil {
		return nil, fmt.Errorf("load tracked tokens: %w", err)
	}
	defer rows.Close()

	var out []models.Token
	for rows.Next() {
		var tok models.Token
		if err := rows.Scan(&tok.Symbol, &tok.MintAddress, &tok.Name, &tok.Decimals); err != nil {
			return nil, fmt.Errorf("scan tracked token: %w", err)
		}
		out = append(out, tok)
	}
	return out, rows.Err()
}

// NewPositionID generates a fresh position identity.
func NewPositionID() uuid.UUID {
	return uuid.New()
}

// Close releases the underlying connection pool.
func (s *RelationalStore) Close() {
	s.pool.Close()
}
