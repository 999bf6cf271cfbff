package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrRunNotFound is returned by Get and Delete for an unknown run ID.
var ErrRunNotFound = errors.New("run not found")

// Run is one persisted analysis run.
type Run struct {
	RunID                string          `json:"run_id"`
	CreatedAt            int64           `json:"created_at"`
	Inputs               []string        `json:"inputs"`
	ConfigJSON           json.RawMessage `json:"config_json,omitempty"`
	TightPhotonEtaMode   string          `json:"tight_photon_eta_mode"`
	PreselectionCounting string          `json:"preselection_counting"`
	DegenerateEvents     string          `json:"degenerate_events"`
	Workers              int             `json:"workers"`
	Events               int             `json:"events"`
	Skipped              int             `json:"skipped"`
	SumWeights           float64         `json:"sum_weights"`
	DurationMs           int64           `json:"duration_ms"`

	// Populated by Get; List leaves them empty.
	Yields   []RegionYield `json:"yields,omitempty"`
	CutFlows []CutFlowStep `json:"cut_flows,omitempty"`
}

// RegionYield is one line of a run summary.
type RegionYield struct {
	Region      string  `json:"region"`
	Count       float64 `json:"count"`
	Uncertainty float64 `json:"uncertainty"`
}

// CutFlowStep is one step of one region's cut flow. Step counts from 1.
type CutFlowStep struct {
	Region string  `json:"region"`
	Step   int     `json:"step"`
	Label  string  `json:"label"`
	SumW   float64 `json:"sum_w"`
	SumW2  float64 `json:"sum_w2"`
}

// RunStore provides persistence for analysis runs.
type RunStore struct {
	db *sql.DB
}

// NewRunStore creates a RunStore on a migrated database.
func NewRunStore(db *sql.DB) *RunStore {
	return &RunStore{db: db}
}

// Insert persists a run with its yields and cut flows in one transaction.
// An empty RunID gets a UUID and a zero CreatedAt gets the current time.
func (s *RunStore) Insert(run *Run) error {
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.CreatedAt == 0 {
		run.CreatedAt = time.Now().UnixNano()
	}
	inputs := run.Inputs
	if inputs == nil {
		inputs = []string{}
	}
	inputsJSON, err := json.Marshal(inputs)
	if err != nil {
		return fmt.Errorf("marshal inputs: %w", err)
	}
	var configStr interface{}
	if len(run.ConfigJSON) > 0 {
		configStr = string(run.ConfigJSON)
	}

	return retryOnBusy(func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		defer tx.Rollback()

		if _, err := tx.Exec(`
			INSERT INTO runs (
				run_id, created_at, inputs_json, config_json,
				tight_photon_eta_mode, preselection_counting, degenerate_events,
				workers, events, skipped, sum_weights, duration_ms
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.RunID, run.CreatedAt, string(inputsJSON), configStr,
			run.TightPhotonEtaMode, run.PreselectionCounting, run.DegenerateEvents,
			run.Workers, run.Events, run.Skipped, run.SumWeights, run.DurationMs,
		); err != nil {
			return fmt.Errorf("insert run: %w", err)
		}

		for i, y := range run.Yields {
			if _, err := tx.Exec(`
				INSERT INTO region_yields (run_id, position, region, count, uncertainty)
				VALUES (?, ?, ?, ?, ?)`,
				run.RunID, i, y.Region, y.Count, y.Uncertainty,
			); err != nil {
				return fmt.Errorf("insert yield %s: %w", y.Region, err)
			}
		}
		for _, st := range run.CutFlows {
			if _, err := tx.Exec(`
				INSERT INTO cutflow_steps (run_id, region, step, label, sum_w, sum_w2)
				VALUES (?, ?, ?, ?, ?, ?)`,
				run.RunID, st.Region, st.Step, st.Label, st.SumW, st.SumW2,
			); err != nil {
				return fmt.Errorf("insert cut flow %s/%d: %w", st.Region, st.Step, err)
			}
		}
		return tx.Commit()
	})
}

const runColumns = `run_id, created_at, inputs_json, config_json,
	tight_photon_eta_mode, preselection_counting, degenerate_events,
	workers, events, skipped, sum_weights, duration_ms`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*Run, error) {
	var (
		r          Run
		inputsJSON string
		configStr  sql.NullString
	)
	if err := row.Scan(
		&r.RunID, &r.CreatedAt, &inputsJSON, &configStr,
		&r.TightPhotonEtaMode, &r.PreselectionCounting, &r.DegenerateEvents,
		&r.Workers, &r.Events, &r.Skipped, &r.SumWeights, &r.DurationMs,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(inputsJSON), &r.Inputs); err != nil {
		return nil, fmt.Errorf("decode inputs of run %s: %w", r.RunID, err)
	}
	if configStr.Valid {
		r.ConfigJSON = json.RawMessage(configStr.String)
	}
	return &r, nil
}

// List returns every run, newest first, without yields or cut flows.
func (s *RunStore) List() ([]*Run, error) {
	rows, err := s.db.Query(`SELECT ` + runColumns + ` FROM runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Get returns a run with its yields (in summary order) and cut flows.
func (s *RunStore) Get(runID string) (*Run, error) {
	r, err := scanRun(s.db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE run_id = ?`, runID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}

	yrows, err := s.db.Query(`
		SELECT region, count, uncertainty FROM region_yields
		WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("query yields: %w", err)
	}
	defer yrows.Close()
	for yrows.Next() {
		var y RegionYield
		if err := yrows.Scan(&y.Region, &y.Count, &y.Uncertainty); err != nil {
			return nil, fmt.Errorf("scan yield: %w", err)
		}
		r.Yields = append(r.Yields, y)
	}
	if err := yrows.Err(); err != nil {
		return nil, err
	}

	crows, err := s.db.Query(`
		SELECT c.region, c.step, c.label, c.sum_w, c.sum_w2
		FROM cutflow_steps c
		LEFT JOIN region_yields y ON y.run_id = c.run_id AND y.region = c.region
		WHERE c.run_id = ?
		ORDER BY y.position, c.region, c.step`, runID)
	if err != nil {
		return nil, fmt.Errorf("query cut flows: %w", err)
	}
	defer crows.Close()
	for crows.Next() {
		var st CutFlowStep
		if err := crows.Scan(&st.Region, &st.Step, &st.Label, &st.SumW, &st.SumW2); err != nil {
			return nil, fmt.Errorf("scan cut flow: %w", err)
		}
		r.CutFlows = append(r.CutFlows, st)
	}
	return r, crows.Err()
}

// Delete removes a run and everything recorded for it.
func (s *RunStore) Delete(runID string) error {
	return retryOnBusy(func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		defer tx.Rollback()
		for _, q := range []string{
			`DELETE FROM cutflow_steps WHERE run_id = ?`,
			`DELETE FROM region_yields WHERE run_id = ?`,
		} {
			if _, err := tx.Exec(q, runID); err != nil {
				return fmt.Errorf("delete run %s: %w", runID, err)
			}
		}
		result, err := tx.Exec(`DELETE FROM runs WHERE run_id = ?`, runID)
		if err != nil {
			return fmt.Errorf("delete run %s: %w", runID, err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return tx.Commit()
	})
}
