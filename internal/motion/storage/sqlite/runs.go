package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/mvscript/internal/motion/l2frames"
	"github.com/banshee-data/mvscript/internal/motion/l3rules"
)

// ErrNotFound is returned when a run or ruleset does not exist.
var ErrNotFound = errors.New("not found")

// Ruleset kinds stored per run.
const (
	KindCoarse  = "coarse"
	KindPeaks   = "peaks"
	KindValleys = "valleys"
)

// TrainingRun is one training pass over a motion-vector file.
type TrainingRun struct {
	RunID          string          `json:"run_id"`
	SourcePath     string          `json:"source_path"`
	ReferencePath  string          `json:"reference_path"`
	Layout         l2frames.Layout `json:"layout"`
	FramesSeen     int             `json:"frames_seen"`
	FramesUsed     int             `json:"frames_used"`
	ConfigJSON     json.RawMessage `json:"config_json,omitempty"`
	EvaluationJSON json.RawMessage `json:"evaluation_json,omitempty"`
	CreatedAt      int64           `json:"created_at"`
}

// RunStore persists training runs and their rulesets.
type RunStore struct {
	db *sql.DB
}

// NewRunStore creates a RunStore over a migrated database.
func NewRunStore(db *sql.DB) *RunStore {
	return &RunStore{db: db}
}

// InsertRun persists run. If RunID is empty, a UUID is generated.
func (s *RunStore) InsertRun(run *TrainingRun) error {
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.CreatedAt == 0 {
		run.CreatedAt = time.Now().UnixNano()
	}

	return retryOnBusy(func() error {
		_, err := s.db.Exec(`
			INSERT INTO training_runs (
				run_id, source_path, reference_path, width, height, grid_columns, grid_rows,
				frames_seen, frames_used, config_json, evaluation_json, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.RunID, run.SourcePath, run.ReferencePath,
			run.Layout.Width, run.Layout.Height, run.Layout.Columns, run.Layout.Rows,
			run.FramesSeen, run.FramesUsed,
			nullableJSON(run.ConfigJSON), nullableJSON(run.EvaluationJSON), run.CreatedAt,
		)
		return err
	})
}

// SetEvaluation attaches an evaluation report to an existing run.
func (s *RunStore) SetEvaluation(runID string, evaluation json.RawMessage) error {
	return retryOnBusy(func() error {
		res, err := s.db.Exec(`UPDATE training_runs SET evaluation_json = ? WHERE run_id = ?`,
			nullableJSON(evaluation), runID)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return fmt.Errorf("run %s: %w", runID, ErrNotFound)
		}
		return nil
	})
}

const runColumns = `run_id, source_path, reference_path, width, height, grid_columns, grid_rows,
	frames_seen, frames_used, config_json, evaluation_json, created_at`

// GetRun returns the run with the given ID.
func (s *RunStore) GetRun(runID string) (*TrainingRun, error) {
	row := s.db.QueryRow(`SELECT `+runColumns+` FROM training_runs WHERE run_id = ?`, runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	return run, err
}

// LatestRun returns the most recent run trained on sourcePath.
func (s *RunStore) LatestRun(sourcePath string) (*TrainingRun, error) {
	row := s.db.QueryRow(`SELECT `+runColumns+` FROM training_runs
		WHERE source_path = ? ORDER BY created_at DESC LIMIT 1`, sourcePath)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("no run for %s: %w", sourcePath, ErrNotFound)
	}
	return run, err
}

// ListRuns returns up to limit runs, newest first. A limit of 0 or less
// returns every run.
func (s *RunStore) ListRuns(limit int) ([]*TrainingRun, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(`SELECT `+runColumns+` FROM training_runs
		ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*TrainingRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (*TrainingRun, error) {
	var run TrainingRun
	var configJSON, evalJSON sql.NullString
	err := sc.Scan(&run.RunID, &run.SourcePath, &run.ReferencePath,
		&run.Layout.Width, &run.Layout.Height, &run.Layout.Columns, &run.Layout.Rows,
		&run.FramesSeen, &run.FramesUsed, &configJSON, &evalJSON, &run.CreatedAt)
	if err != nil {
		return nil, err
	}
	if run.Layout.Columns > 0 && run.Layout.Rows > 0 {
		run.Layout.CellWidth = run.Layout.Width / run.Layout.Columns
		run.Layout.CellHeight = run.Layout.Height / run.Layout.Rows
	}
	if configJSON.Valid {
		run.ConfigJSON = json.RawMessage(configJSON.String)
	}
	if evalJSON.Valid {
		run.EvaluationJSON = json.RawMessage(evalJSON.String)
	}
	return &run, nil
}

// InsertRuleSet stores rs under (runID, kind), replacing any earlier set.
func (s *RunStore) InsertRuleSet(runID, kind string, rs *l3rules.RuleSet) error {
	blob, err := rs.MarshalBlob()
	if err != nil {
		return fmt.Errorf("encode %s ruleset: %w", kind, err)
	}
	summary, err := rs.SummaryJSON()
	if err != nil {
		return fmt.Errorf("summarise %s ruleset: %w", kind, err)
	}
	return retryOnBusy(func() error {
		_, err := s.db.Exec(`
			INSERT OR REPLACE INTO rule_sets (run_id, kind, rule_count, blob, summary_json, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			runID, kind, rs.Len(), blob, summary, time.Now().UnixNano())
		return err
	})
}

// GetRuleSet loads the ruleset stored under (runID, kind).
func (s *RunStore) GetRuleSet(runID, kind string) (*l3rules.RuleSet, error) {
	var blob []byte
	err := s.db.QueryRow(`SELECT blob FROM rule_sets WHERE run_id = ? AND kind = ?`, runID, kind).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s ruleset for run %s: %w", kind, runID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return l3rules.UnmarshalBlob(blob)
}

// RuleSetSummary returns the stored JSON summary of a ruleset.
func (s *RunStore) RuleSetSummary(runID, kind string) (json.RawMessage, error) {
	var summary string
	err := s.db.QueryRow(`SELECT summary_json FROM rule_sets WHERE run_id = ? AND kind = ?`, runID, kind).Scan(&summary)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s ruleset for run %s: %w", kind, runID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return json.RawMessage(summary), nil
}

func nullableJSON(raw json.RawMessage) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
