// Package persistence provides SQLite-based storage of per-step metrics.
package persistence

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/landform/internal/engine"
	"github.com/talgya/landform/internal/relief"
)

// DB wraps a SQLite connection for metrics persistence.
type DB struct {
	conn *sqlx.DB
}

// StepRecord is one row of the ErosionLog table. HackSlope and Concavity
// are NULL when the regression was undefined.
type StepRecord struct {
	Step       int             `db:"Step" json:"step"`
	Rain       float64         `db:"Rain" json:"rain"`
	ErodeK     float64         `db:"ErodeK" json:"erode_k"`
	DepositD   float64         `db:"DepositD" json:"deposit_d"`
	ThresholdT float64         `db:"ThresholdT" json:"threshold_t"`
	UpliftU    float64         `db:"UpliftU" json:"uplift_u"`
	MaxRelief  float64         `db:"MaxRelief" json:"max_relief"`
	MeanElev   float64         `db:"MeanElev" json:"mean_elev"`
	DrainDen   float64         `db:"DrainDen" json:"drain_den"`
	HackSlope  sql.NullFloat64 `db:"HackSlope" json:"-"`
	Concavity  sql.NullFloat64 `db:"Concavity" json:"-"`
}

// NewStepRecord builds a record from a snapshot.
func NewStepRecord(snap engine.Snapshot) StepRecord {
	return StepRecord{
		Step:       snap.Step,
		Rain:       snap.Params.Rain,
		ErodeK:     snap.Params.Erode,
		DepositD:   snap.Params.Deposit,
		ThresholdT: snap.Params.Threshold,
		UpliftU:    snap.Params.Uplift,
		MaxRelief:  snap.Stats.MaxRelief,
		MeanElev:   snap.Stats.MeanElevation,
		DrainDen:   snap.Stats.DrainageDensity,
		HackSlope:  exponent(snap.Stats.HackSlope, snap.Stats.HackErr),
		Concavity:  exponent(snap.Stats.Concavity, snap.Stats.ConcavityErr),
	}
}

// exponent stores an undefined regression as NULL. Too few samples keeps
// the 0 the statistics report.
func exponent(v float64, err error) sql.NullFloat64 {
	if errors.Is(err, relief.ErrUndefinedSlope) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS ErosionLog (
		Step        INTEGER PRIMARY KEY,
		Rain        REAL NOT NULL,
		ErodeK      REAL NOT NULL,
		DepositD    REAL NOT NULL,
		ThresholdT  REAL NOT NULL,
		UpliftU     REAL NOT NULL,
		MaxRelief   REAL NOT NULL,
		MeanElev    REAL NOT NULL,
		DrainDen    REAL NOT NULL,
		HackSlope   REAL,
		Concavity   REAL
	);

	CREATE TABLE IF NOT EXISTS RunMeta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// LogStep upserts the row keyed by rec.Step.
func (db *DB) LogStep(rec StepRecord) error {
	_, err := db.conn.NamedExec(`INSERT INTO ErosionLog
		(Step, Rain, ErodeK, DepositD, ThresholdT, UpliftU,
		 MaxRelief, MeanElev, DrainDen, HackSlope, Concavity)
		VALUES (:Step, :Rain, :ErodeK, :DepositD, :ThresholdT, :UpliftU,
		 :MaxRelief, :MeanElev, :DrainDen, :HackSlope, :Concavity)
		ON CONFLICT(Step) DO UPDATE SET
			Rain = excluded.Rain, ErodeK = excluded.ErodeK, DepositD = excluded.DepositD,
			ThresholdT = excluded.ThresholdT, UpliftU = excluded.UpliftU,
			MaxRelief = excluded.MaxRelief, MeanElev = excluded.MeanElev,
			DrainDen = excluded.DrainDen, HackSlope = excluded.HackSlope,
			Concavity = excluded.Concavity`, rec)
	if err != nil {
		return fmt.Errorf("log step %d: %w", rec.Step, err)
	}
	return nil
}

// LogSnapshot is LogStep for an engine snapshot.
func (db *DB) LogSnapshot(snap engine.Snapshot) error {
	return db.LogStep(NewStepRecord(snap))
}

// Step returns the stored row for one step.
func (db *DB) Step(step int) (StepRecord, error) {
	var rec StepRecord
	err := db.conn.Get(&rec, "SELECT * FROM ErosionLog WHERE Step = ?", step)
	return rec, err
}

// RecentSteps returns up to limit rows, newest first.
func (db *DB) RecentSteps(limit int) ([]StepRecord, error) {
	var recs []StepRecord
	err := db.conn.Select(&recs,
		"SELECT * FROM ErosionLog ORDER BY Step DESC LIMIT ?",
		limit,
	)
	return recs, err
}

// SaveMeta stores a key-value pair in run metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO RunMeta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM RunMeta WHERE key = ?", key)
	return value, err
}

// RunInfo identifies the run whose steps are being logged.
type RunInfo struct {
	ID        string
	Seed      int64
	Width     int
	Height    int
	Preset    string
	Diffusion bool
}

// SaveRun records the run's identity in RunMeta.
func (db *DB) SaveRun(run RunInfo) error {
	slog.Info("saving run metadata", "run_id", run.ID, "seed", run.Seed)

	meta := map[string]string{
		"run_id":    run.ID,
		"seed":      strconv.FormatInt(run.Seed, 10),
		"width":     strconv.Itoa(run.Width),
		"height":    strconv.Itoa(run.Height),
		"preset":    run.Preset,
		"diffusion": strconv.FormatBool(run.Diffusion),
	}
	for k, v := range meta {
		if err := db.SaveMeta(k, v); err != nil {
			return fmt.Errorf("save meta %s: %w", k, err)
		}
	}
	return nil
}
