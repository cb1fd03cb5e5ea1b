// Package storage persists station series and reconstruction runs in an
// embedded SQLite database so batch runs can be stored and re-read.
package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/agroclim/tempseries/internal/reconstruct"
	"github.com/agroclim/tempseries/internal/timeseries"
)

// Store holds the connection to a SQLite database.
type Store struct {
	db     *sql.DB
	logger *zap.SugaredLogger
}

// Open opens (creating if necessary) the database at path and ensures the
// schema exists.
func Open(path string, logger *zap.SugaredLogger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	s := &Store{db: db, logger: logger}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS stations (
			name TEXT PRIMARY KEY,
			latitude REAL NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS hourly (
			station TEXT NOT NULL,
			year INTEGER NOT NULL,
			month INTEGER NOT NULL,
			day INTEGER NOT NULL,
			hour INTEGER NOT NULL,
			temp REAL,
			PRIMARY KEY (station, year, month, day, hour)
		)`,
		`CREATE TABLE IF NOT EXISTS daily (
			station TEXT NOT NULL,
			year INTEGER NOT NULL,
			month INTEGER NOT NULL,
			day INTEGER NOT NULL,
			tmin REAL,
			tmax REAL,
			PRIMARY KEY (station, year, month, day)
		)`,
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			station TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			solved INTEGER NOT NULL,
			deferred INTEGER NOT NULL,
			report BLOB NOT NULL,
			sources BLOB NOT NULL
		)`,
	}
	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// SaveStation upserts a station's metadata.
func (s *Store) SaveStation(name string, latitude float64) error {
	_, err := s.db.Exec(
		`INSERT INTO stations (name, latitude) VALUES (?, ?)
		 ON CONFLICT(name) DO UPDATE SET latitude = excluded.latitude`,
		name, latitude)
	if err != nil {
		return fmt.Errorf("failed to save station %s: %w", name, err)
	}
	return nil
}

// SaveHourly replaces the stored hourly series for a station.
func (s *Store) SaveHourly(station string, records []timeseries.HourlyRecord) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM hourly WHERE station = ?`, station); err != nil {
		return fmt.Errorf("failed to clear hourly rows: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO hourly (station, year, month, day, hour, temp) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.Exec(station, r.Year, r.Month, r.Day, r.Hour, nullTemp(r.Temp)); err != nil {
			return fmt.Errorf("failed to insert hourly row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	s.logger.Debugf("stored %d hourly rows for %s", len(records), station)
	return nil
}

// LoadHourly loads a station's hourly series in calendar order.
func (s *Store) LoadHourly(station string) ([]timeseries.HourlyRecord, error) {
	rows, err := s.db.Query(
		`SELECT year, month, day, hour, temp FROM hourly
		 WHERE station = ? ORDER BY year, month, day, hour`, station)
	if err != nil {
		return nil, fmt.Errorf("failed to query hourly rows: %w", err)
	}
	defer rows.Close()

	var records []timeseries.HourlyRecord
	for rows.Next() {
		var r timeseries.HourlyRecord
		var temp sql.NullFloat64
		if err := rows.Scan(&r.Year, &r.Month, &r.Day, &r.Hour, &temp); err != nil {
			return nil, fmt.Errorf("failed to scan hourly row: %w", err)
		}
		r.Temp = fromNull(temp)
		records = append(records, r)
	}
	return records, rows.Err()
}

// SaveDaily replaces the stored daily series for a station.
func (s *Store) SaveDaily(station string, records []timeseries.DailyRecord) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM daily WHERE station = ?`, station); err != nil {
		return fmt.Errorf("failed to clear daily rows: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO daily (station, year, month, day, tmin, tmax) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.Exec(station, r.Year, r.Month, r.Day, nullTemp(r.Tmin), nullTemp(r.Tmax)); err != nil {
			return fmt.Errorf("failed to insert daily row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	s.logger.Debugf("stored %d daily rows for %s", len(records), station)
	return nil
}

// LoadDaily loads a station's daily series in calendar order.
func (s *Store) LoadDaily(station string) ([]timeseries.DailyRecord, error) {
	rows, err := s.db.Query(
		`SELECT year, month, day, tmin, tmax FROM daily
		 WHERE station = ? ORDER BY year, month, day`, station)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily rows: %w", err)
	}
	defer rows.Close()

	var records []timeseries.DailyRecord
	for rows.Next() {
		var r timeseries.DailyRecord
		var tmin, tmax sql.NullFloat64
		if err := rows.Scan(&r.Year, &r.Month, &r.Day, &tmin, &tmax); err != nil {
			return nil, fmt.Errorf("failed to scan daily row: %w", err)
		}
		r.Tmin = fromNull(tmin)
		r.Tmax = fromNull(tmax)
		records = append(records, r)
	}
	return records, rows.Err()
}

// SaveRun persists a reconstruction result's provenance report and
// per-hour source map, returning the new run ID. The report and source
// map are stored as MessagePack blobs.
func (s *Store) SaveRun(station string, result *reconstruct.Result) (string, error) {
	id := uuid.New().String()

	report, err := msgpack.Marshal(result.Report)
	if err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}
	sources, err := msgpack.Marshal(result.Sources)
	if err != nil {
		return "", fmt.Errorf("failed to encode source map: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO runs (id, station, created_at, solved, deferred, report, sources)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, station, time.Now().UTC(),
		result.SolverStats.Solved, result.SolverStats.Deferred,
		report, sources)
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	s.logger.Infof("saved reconstruction run %s for %s", id, station)
	return id, nil
}

// LoadRunSources reads back the per-hour source map of a stored run.
func (s *Store) LoadRunSources(id string) ([]reconstruct.HourSource, error) {
	var blob []byte
	err := s.db.QueryRow(`SELECT sources FROM runs WHERE id = ?`, id).Scan(&blob)
	if err != nil {
		return nil, fmt.Errorf("failed to load run %s: %w", id, err)
	}
	var sources []reconstruct.HourSource
	if err := msgpack.Unmarshal(blob, &sources); err != nil {
		return nil, fmt.Errorf("failed to decode source map: %w", err)
	}
	return sources, nil
}

func nullTemp(v float64) sql.NullFloat64 {
	if timeseries.IsMissing(v) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func fromNull(v sql.NullFloat64) float64 {
	if !v.Valid {
		return timeseries.Missing()
	}
	return v.Float64
}
