package store

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/traderwatch/hl-monitor/internal/config"
	"github.com/traderwatch/hl-monitor/internal/model"
)

//go:embed schema.sql
var schemaSQL string

const (
	insertSnapshotSQL = `
		INSERT INTO position_snapshots (address, ts, received_at, positions, margin, source, client_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	upsertCurrentStateSQL = `
		INSERT INTO current_state (address, ts, position_count, positions, margin, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (address) DO UPDATE
		SET ts = EXCLUDED.ts,
		    position_count = EXCLUDED.position_count,
		    positions = EXCLUDED.positions,
		    margin = EXCLUDED.margin,
		    updated_at = now()
		WHERE EXCLUDED.ts >= current_state.ts`

	upsertTargetSQL = `
		INSERT INTO tracked_targets (address, reason, score, client_id, cycle_id, active, updated_at)
		VALUES ($1, $2, $3, $4, $5, TRUE, now())
		ON CONFLICT (address) DO UPDATE
		SET reason = EXCLUDED.reason,
		    score = EXCLUDED.score,
		    client_id = EXCLUDED.client_id,
		    cycle_id = EXCLUDED.cycle_id,
		    active = TRUE,
		    updated_at = now()`
)

// Postgres is the PositionStore implementation.
type Postgres struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

// Connect creates a connection pool and wraps it in a Postgres store.
func Connect(ctx context.Context, cfg config.DBConfig, logger *slog.Logger) (*Postgres, error) {
	connStr := BuildConnString(cfg)

	poolCfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}
	poolCfg.MinConns = int32(cfg.MinConns)
	poolCfg.MaxConns = int32(cfg.MaxConns)

	db, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return New(db, logger), nil
}

// New wraps an existing pool.
func New(db *pgxpool.Pool, logger *slog.Logger) *Postgres {
	if logger == nil {
		logger = slog.Default()
	}
	return &Postgres{db: db, logger: logger}
}

// Close releases the underlying connection pool.
func (p *Postgres) Close() {
	p.db.Close()
}

// Ping verifies the connection is healthy.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.Ping(ctx)
}

// EnsureSchema creates the tables and indexes if they do not exist.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// ActiveTargets returns the current tracked target set, active only,
// highest score first.
func (p *Postgres) ActiveTargets(ctx context.Context) ([]model.TrackedTarget, error) {
	rows, err := p.db.Query(ctx, `
		SELECT address, reason, score, client_id, cycle_id, active, updated_at
		FROM tracked_targets
		WHERE active
		ORDER BY score DESC`)
	if err != nil {
		return nil, fmt.Errorf("query tracked targets: %w", err)
	}
	defer rows.Close()

	var targets []model.TrackedTarget
	for rows.Next() {
		var t model.TrackedTarget
		if err := rows.Scan(&t.Address, &t.Reason, &t.Score, &t.ClientID, &t.CycleID, &t.Active, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan tracked target: %w", err)
		}
		targets = append(targets, t)
	}
	return targets, rows.Err()
}

// ReplaceTrackedTargets installs a new selection cycle: every existing row
// is marked inactive, then the new set is upserted active. Addresses absent
// from the new cycle keep their row (inactive) to preserve history.
func (p *Postgres) ReplaceTrackedTargets(ctx context.Context, cycleID uuid.UUID, targets []model.TrackedTarget) error {
	tx, err := p.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin replace cycle: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `UPDATE tracked_targets SET active = FALSE WHERE active`); err != nil {
		return fmt.Errorf("deactivate previous cycle: %w", err)
	}

	batch := &pgx.Batch{}
	for _, t := range targets {
		batch.Queue(upsertTargetSQL, t.Address, t.Reason, t.Score, t.ClientID, cycleID)
	}

	results := tx.SendBatch(ctx, batch)
	for range targets {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("upsert tracked target: %w", err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("close target batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit replace cycle: %w", err)
	}

	p.logger.Info("tracked target cycle installed",
		"cycle_id", cycleID,
		"targets", len(targets),
	)
	return nil
}

// InsertSnapshots appends snapshots to the position history. The batch path
// is tried first; if it fails, rows are retried individually so one bad
// record does not drop the rest, with failures logged per address.
func (p *Postgres) InsertSnapshots(ctx context.Context, snaps []model.PositionSnapshot) error {
	if len(snaps) == 0 {
		return nil
	}

	err := p.batchInsertSnapshots(ctx, snaps)
	if err == nil {
		return nil
	}
	p.logger.Warn("snapshot batch insert failed, retrying individually",
		"count", len(snaps),
		"error", err,
	)

	failed := 0
	for _, s := range snaps {
		positions, margin, err := marshalSnapshot(s)
		if err != nil {
			p.logger.Error("snapshot encode failed", "address", s.Address, "error", err)
			failed++
			continue
		}
		_, err = p.db.Exec(ctx, insertSnapshotSQL,
			s.Address, s.Timestamp, s.ReceivedAt, positions, margin, s.Source, s.ClientID)
		if err != nil {
			p.logger.Error("snapshot insert failed", "address", s.Address, "error", err)
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d snapshot writes failed", failed, len(snaps))
	}
	return nil
}

func (p *Postgres) batchInsertSnapshots(ctx context.Context, snaps []model.PositionSnapshot) error {
	batch := &pgx.Batch{}
	for _, s := range snaps {
		positions, margin, err := marshalSnapshot(s)
		if err != nil {
			return err
		}
		batch.Queue(insertSnapshotSQL,
			s.Address, s.Timestamp, s.ReceivedAt, positions, margin, s.Source, s.ClientID)
	}

	results := p.db.SendBatch(ctx, batch)
	defer results.Close()

	for range snaps {
		if _, err := results.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// UpsertCurrentStates overwrites the latest-state row for each address.
// The upsert condition keys on the snapshot timestamp, so delivery
// reordering across clients cannot regress an address's state.
func (p *Postgres) UpsertCurrentStates(ctx context.Context, snaps []model.PositionSnapshot) error {
	if len(snaps) == 0 {
		return nil
	}

	failed := 0
	for _, s := range snaps {
		positions, margin, err := marshalSnapshot(s)
		if err != nil {
			p.logger.Error("current state encode failed", "address", s.Address, "error", err)
			failed++
			continue
		}
		_, err = p.db.Exec(ctx, upsertCurrentStateSQL,
			s.Address, s.Timestamp, len(s.Positions), positions, margin)
		if err != nil {
			p.logger.Error("current state upsert failed", "address", s.Address, "error", err)
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d current state upserts failed", failed, len(snaps))
	}
	return nil
}

// CurrentState returns the latest-known state for one address, or nil if
// the address has never been observed.
func (p *Postgres) CurrentState(ctx context.Context, address string) (*model.CurrentState, error) {
	var (
		cs        model.CurrentState
		positions []byte
		margin    []byte
	)
	err := p.db.QueryRow(ctx, `
		SELECT address, ts, position_count, positions, margin, updated_at
		FROM current_state
		WHERE address = $1`, address).
		Scan(&cs.Address, &cs.Timestamp, &cs.PositionCount, &positions, &margin, &cs.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query current state: %w", err)
	}

	if err := json.Unmarshal(positions, &cs.Positions); err != nil {
		return nil, fmt.Errorf("decode positions: %w", err)
	}
	if err := json.Unmarshal(margin, &cs.Margin); err != nil {
		return nil, fmt.Errorf("decode margin: %w", err)
	}
	return &cs, nil
}

func marshalSnapshot(s model.PositionSnapshot) (positions, margin []byte, err error) {
	positions, err = json.Marshal(s.Positions)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal positions: %w", err)
	}
	margin, err = json.Marshal(s.Margin)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal margin: %w", err)
	}
	return positions, margin, nil
}
