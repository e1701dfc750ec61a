// Package tracestore persists evaluation traces (forward samples and
// log-probability evaluations keyed by model ID) in a SQLite database.
//
// The model core itself keeps no persisted state; this store exists for
// external inference drivers that want a durable record of the evaluations
// they performed.
package tracestore

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS samples (
	model_id   TEXT NOT NULL,
	name       TEXT NOT NULL,
	value      REAL NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS samples_model ON samples(model_id);

CREATE TABLE IF NOT EXISTS log_probs (
	model_id   TEXT NOT NULL,
	vals       TEXT NOT NULL,
	log_prob   REAL NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS log_probs_model ON log_probs(model_id);
`

// Store is a handle to one trace database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the trace database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening trace store: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing trace store: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// RecordSamples stores one forward-sample map for a model.
func (s *Store) RecordSamples(modelID uuid.UUID, samples map[string]float64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("recording samples: %w", err)
	}
	now := time.Now().UnixNano()
	for name, value := range samples {
		if _, err := tx.Exec(
			`INSERT INTO samples (model_id, name, value, created_at) VALUES (?, ?, ?, ?)`,
			modelID.String(), name, value, now,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording sample %s: %w", name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("recording samples: %w", err)
	}
	return nil
}

// RecordLogProb stores one log-probability evaluation: the value tuple, in
// the model's capture order, and the resulting summed log-probability.
func (s *Store) RecordLogProb(modelID uuid.UUID, values []float64, logProb float64) error {
	if _, err := s.db.Exec(
		`INSERT INTO log_probs (model_id, vals, log_prob, created_at) VALUES (?, ?, ?, ?)`,
		modelID.String(), encodeValues(values), logProb, time.Now().UnixNano(),
	); err != nil {
		return fmt.Errorf("recording log prob: %w", err)
	}
	return nil
}

// Samples returns the most recently recorded value for each variable name
// of a model.
func (s *Store) Samples(modelID uuid.UUID) (map[string]float64, error) {
	rows, err := s.db.Query(
		`SELECT name, value FROM samples WHERE model_id = ? ORDER BY created_at, rowid`,
		modelID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("loading samples: %w", err)
	}
	defer rows.Close()

	samples := make(map[string]float64)
	for rows.Next() {
		var name string
		var value float64
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("loading samples: %w", err)
		}
		samples[name] = value
	}
	return samples, rows.Err()
}

// Evaluation is one recorded log-probability evaluation.
type Evaluation struct {
	Values  []float64
	LogProb float64
}

// LogProbs returns a model's recorded evaluations in insertion order.
func (s *Store) LogProbs(modelID uuid.UUID) ([]Evaluation, error) {
	rows, err := s.db.Query(
		`SELECT vals, log_prob FROM log_probs WHERE model_id = ? ORDER BY created_at, rowid`,
		modelID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("loading log probs: %w", err)
	}
	defer rows.Close()

	var evals []Evaluation
	for rows.Next() {
		var encoded string
		var ev Evaluation
		if err := rows.Scan(&encoded, &ev.LogProb); err != nil {
			return nil, fmt.Errorf("loading log probs: %w", err)
		}
		if ev.Values, err = decodeValues(encoded); err != nil {
			return nil, fmt.Errorf("loading log probs: %w", err)
		}
		evals = append(evals, ev)
	}
	return evals, rows.Err()
}

func encodeValues(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(parts, ",")
}

func decodeValues(encoded string) ([]float64, error) {
	if encoded == "" {
		return nil, nil
	}
	parts := strings.Split(encoded, ",")
	values := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}
