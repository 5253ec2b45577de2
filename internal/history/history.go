// Package history keeps a SQLite log of every producer period: the reading
// (or the failure to get one) and the resulting actuator command. An offline
// recommender reads it back to suggest new thresholds.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/sweeney/greenhouse-bridge/internal/logic"
)

// Record is one producer period.
type Record struct {
	Timestamp time.Time
	Reading   logic.Reading
	ReadOK    bool
	Command   logic.Command
	BusWord   uint16
}

const schema = `
CREATE TABLE IF NOT EXISTS readings (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp   TEXT    NOT NULL,
	read_ok     INTEGER NOT NULL,
	moisture    INTEGER,
	humidity    INTEGER,
	temperature REAL,
	pump        INTEGER NOT NULL,
	fan         INTEGER NOT NULL,
	bus_word    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_readings_timestamp ON readings(timestamp);
`

const timeLayout = "2006-01-02 15:04:05.000"

// Store is a SQLite-backed history.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the history database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history %s: %w", path, err)
	}
	// One writer; avoids SQLITE_BUSY between the loop and HTTP readers.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate history: %w", err)
	}
	return &Store{db: db}, nil
}

// Append stores one record.
func (s *Store) Append(ctx context.Context, r Record) error {
	var moisture, humidity sql.NullInt64
	var temperature sql.NullFloat64
	if r.ReadOK {
		moisture = sql.NullInt64{Int64: int64(r.Reading.Moisture), Valid: true}
		humidity = sql.NullInt64{Int64: int64(r.Reading.Humidity), Valid: true}
		temperature = sql.NullFloat64{Float64: r.Reading.Temperature, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO readings(timestamp, read_ok, moisture, humidity, temperature, pump, fan, bus_word)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Timestamp.UTC().Format(timeLayout), boolInt(r.ReadOK), moisture, humidity, temperature,
		boolInt(r.Command.PumpOn), boolInt(r.Command.FanOn), int64(r.BusWord))
	if err != nil {
		return fmt.Errorf("insert reading: %w", err)
	}
	return nil
}

// Recent returns up to limit records, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT timestamp, read_ok, moisture, humidity, temperature, pump, fan, bus_word
		FROM readings
		ORDER BY id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query readings: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			ts                 string
			readOK, pump, fan  int
			moisture, humidity sql.NullInt64
			temperature        sql.NullFloat64
			word               int64
		)
		if err := rows.Scan(&ts, &readOK, &moisture, &humidity, &temperature, &pump, &fan, &word); err != nil {
			return nil, fmt.Errorf("scan reading: %w", err)
		}
		t, err := time.Parse(timeLayout, ts)
		if err != nil {
			return nil, fmt.Errorf("parse timestamp %q: %w", ts, err)
		}
		out = append(out, Record{
			Timestamp: t,
			ReadOK:    readOK != 0,
			Reading: logic.Reading{
				Moisture:    uint16(moisture.Int64),
				Humidity:    int(humidity.Int64),
				Temperature: temperature.Float64,
			},
			Command: logic.Command{PumpOn: pump != 0, FanOn: fan != 0},
			BusWord: uint16(word),
		})
	}
	return out, rows.Err()
}

// Summary aggregates the stored history.
type Summary struct {
	Periods      int
	ReadFailures int
	PumpPeriods  int
	FanPeriods   int
	MinMoisture  uint16
	MaxHumidity  int
}

// Summarize aggregates every record since the given time.
func (s *Store) Summarize(ctx context.Context, since time.Time) (Summary, error) {
	var (
		sum        Summary
		minM, maxH sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(1 - read_ok), 0),
		       COALESCE(SUM(pump), 0),
		       COALESCE(SUM(fan), 0),
		       MIN(moisture),
		       MAX(humidity)
		FROM readings
		WHERE timestamp >= ?`, since.UTC().Format(timeLayout)).
		Scan(&sum.Periods, &sum.ReadFailures, &sum.PumpPeriods, &sum.FanPeriods, &minM, &maxH)
	if err != nil {
		return Summary{}, fmt.Errorf("summarize readings: %w", err)
	}
	sum.MinMoisture = uint16(minM.Int64)
	sum.MaxHumidity = int(maxH.Int64)
	return sum, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
