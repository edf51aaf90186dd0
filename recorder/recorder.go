// Package recorder persists per-cycle control samples to SQLite so drive
// cycles can be replayed offline when fitting torque-response models.
package recorder

import (
	"database/sql"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"
)

// defaultFlushEvery batches one second of samples at the 100 Hz cycle rate.
const defaultFlushEvery = 100

// Sample is one control cycle worth of signals.
type Sample struct {
	TMono            float64
	VEgoMPS          float64
	AEgoMPS2         float64
	SteeringAngleDeg float64
	RollRad          float64
	DesiredLatAccel  float64
	ActualLatAccel   float64
	LookaheadJerk    float64
	Feedforward      float64
	TorqueCmd        float64
	Saturated        bool
}

// Recorder buffers samples and writes them to the database in batches.
type Recorder struct {
	db         *sql.DB
	entropy    *rand.Rand
	sessionID  string
	buf        []Sample
	flushEvery int
}

// Open creates or opens the drive log database and starts a new session.
func Open(dbPath, car string) (*Recorder, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	r := &Recorder{
		db:         db,
		entropy:    rand.New(rand.NewSource(time.Now().UnixNano())),
		flushEvery: defaultFlushEvery,
		buf:        make([]Sample, 0, defaultFlushEvery),
	}

	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	r.sessionID = ulid.MustNew(ulid.Timestamp(time.Now()), r.entropy).String()
	_, err = db.Exec(`INSERT INTO sessions (id, car, started_at) VALUES (?, ?, ?)`,
		r.sessionID, car, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("insert session: %w", err)
	}

	return r, nil
}

func (r *Recorder) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id          TEXT PRIMARY KEY,
		car         TEXT NOT NULL,
		started_at  TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS samples (
		session_id         TEXT NOT NULL REFERENCES sessions(id),
		t_mono             REAL NOT NULL,
		v_ego              REAL NOT NULL,
		a_ego              REAL NOT NULL,
		steering_angle_deg REAL NOT NULL,
		roll_rad           REAL NOT NULL,
		desired_lat_accel  REAL NOT NULL,
		actual_lat_accel   REAL NOT NULL,
		lookahead_jerk     REAL NOT NULL,
		feedforward        REAL NOT NULL,
		torque_cmd         REAL NOT NULL,
		saturated          INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_samples_session ON samples(session_id, t_mono);
	`
	_, err := r.db.Exec(schema)
	return err
}

// SessionID returns the ULID of the session opened by Open.
func (r *Recorder) SessionID() string {
	return r.sessionID
}

// Record buffers one sample, flushing when a full batch has accumulated.
func (r *Recorder) Record(s Sample) error {
	r.buf = append(r.buf, s)
	if len(r.buf) >= r.flushEvery {
		return r.Flush()
	}
	return nil
}

// Flush writes the buffered samples in one transaction.
func (r *Recorder) Flush() error {
	if len(r.buf) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO samples
		(session_id, t_mono, v_ego, a_ego, steering_angle_deg, roll_rad,
		 desired_lat_accel, actual_lat_accel, lookahead_jerk, feedforward,
		 torque_cmd, saturated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, s := range r.buf {
		sat := 0
		if s.Saturated {
			sat = 1
		}
		if _, err := stmt.Exec(r.sessionID, s.TMono, s.VEgoMPS, s.AEgoMPS2,
			s.SteeringAngleDeg, s.RollRad, s.DesiredLatAccel, s.ActualLatAccel,
			s.LookaheadJerk, s.Feedforward, s.TorqueCmd, sat); err != nil {
			return fmt.Errorf("insert sample: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	r.buf = r.buf[:0]
	return nil
}

// SampleCount returns how many samples of this session have been persisted.
func (r *Recorder) SampleCount() (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM samples WHERE session_id = ?`, r.sessionID).Scan(&n)
	return n, err
}

// Close flushes any remaining samples and closes the database.
func (r *Recorder) Close() error {
	flushErr := r.Flush()
	closeErr := r.db.Close()
	if flushErr != nil {
		return flushErr
	}
	return closeErr
}
