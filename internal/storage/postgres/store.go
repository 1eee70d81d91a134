package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"stableswapDeployer/internal/model"
)

// Store provides Postgres persistence for deployment runs.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Record upserts the run row and the step row in one batch.
func (s *Store) Record(ctx context.Context, record model.StepRecord) error {
	return s.UpsertSteps(ctx, []model.StepRecord{record})
}

// UpsertSteps inserts or updates step records and their deployments.
func (s *Store) UpsertSteps(ctx context.Context, records []model.StepRecord) error {
	if len(records) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, r := range records {
		if r.RunID == "" || r.Step == "" {
			return fmt.Errorf("step record requires run id and step")
		}
		outputs, err := json.Marshal(r.Outputs)
		if err != nil {
			return fmt.Errorf("marshal outputs: %w", err)
		}

		batch.Queue(`
			INSERT INTO deployments (
				run_id, chain_id, status, last_step, created_at, updated_at
			) VALUES ($1, $2, $3, $4, now(), now())
			ON CONFLICT (run_id)
			DO UPDATE SET
				status = EXCLUDED.status,
				last_step = EXCLUDED.last_step,
				updated_at = now()
		`,
			r.RunID,
			r.ChainID,
			string(r.Status),
			r.Step,
		)
		batch.Queue(`
			INSERT INTO deployment_steps (
				run_id, step, status, kind, tx_hash, height, outputs, attempts, error,
				started_at, finished_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,now())
			ON CONFLICT (run_id, step)
			DO UPDATE SET
				status = EXCLUDED.status,
				kind = EXCLUDED.kind,
				tx_hash = CASE WHEN EXCLUDED.tx_hash = '' THEN deployment_steps.tx_hash ELSE EXCLUDED.tx_hash END,
				height = EXCLUDED.height,
				outputs = EXCLUDED.outputs,
				attempts = deployment_steps.attempts + EXCLUDED.attempts,
				error = EXCLUDED.error,
				started_at = LEAST(deployment_steps.started_at, EXCLUDED.started_at),
				finished_at = EXCLUDED.finished_at,
				updated_at = now()
		`,
			r.RunID,
			r.Step,
			string(r.Status),
			r.Kind,
			r.TxHash,
			r.Height,
			outputs,
			r.Attempts,
			r.Error,
			r.StartedAt,
			r.FinishedAt,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// LoadSteps returns the recorded steps of runID ordered by start time.
func (s *Store) LoadSteps(ctx context.Context, runID string) ([]model.StepRecord, error) {
	if runID == "" {
		return nil, fmt.Errorf("run id required")
	}
	rows, err := s.pool.Query(ctx, `
		SELECT d.chain_id, s.step, s.status, s.kind, s.tx_hash, s.height, s.outputs,
			s.attempts, s.error, s.started_at, s.finished_at
		FROM deployment_steps s
		JOIN deployments d ON d.run_id = s.run_id
		WHERE s.run_id = $1
		ORDER BY s.started_at, s.step
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.StepRecord
	for rows.Next() {
		r := model.StepRecord{RunID: runID}
		var status string
		var outputs []byte
		if err := rows.Scan(&r.ChainID, &r.Step, &status, &r.Kind, &r.TxHash, &r.Height, &outputs,
			&r.Attempts, &r.Error, &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, err
		}
		r.Status = model.StepStatus(status)
		if len(outputs) > 0 {
			if err := json.Unmarshal(outputs, &r.Outputs); err != nil {
				return nil, fmt.Errorf("decode outputs of %s: %w", r.Step, err)
			}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// LatestRun returns the most recently updated run id for chainID.
func (s *Store) LatestRun(ctx context.Context, chainID string) (string, bool, error) {
	if chainID == "" {
		return "", false, fmt.Errorf("chain id required")
	}
	var runID string
	row := s.pool.QueryRow(ctx, `SELECT run_id FROM deployments WHERE chain_id=$1 ORDER BY updated_at DESC LIMIT 1`, chainID)
	if err := row.Scan(&runID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return runID, true, nil
}
