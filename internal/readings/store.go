package readings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/farmtech/irrigation/pkg/models"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// timeLayout is fixed-width so lexical order in SQLite equals time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

const readingColumns = `id, timestamp, humidity, ph, phosphorus_present, potassium_present,
	temperature, pump_on, decision_reason, is_emergency`

// ReadingStore provides database access for sensor readings.
type ReadingStore struct {
	db *sql.DB
}

// NewStore creates a ReadingStore on db. Migrations must already be applied.
func NewStore(db *sql.DB) *ReadingStore {
	return &ReadingStore{db: db}
}

// Add validates and inserts r and fills in its ID. A zero timestamp
// becomes now (UTC).
func (s *ReadingStore) Add(ctx context.Context, r *models.SensorReading) error {
	if err := r.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now().UTC()
	}
	r.Timestamp = r.Timestamp.UTC()

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO sensor_readings (
			timestamp, humidity, ph, phosphorus_present, potassium_present,
			temperature, pump_on, decision_reason, is_emergency
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		formatTime(r.Timestamp), r.Humidity, r.PH, r.PhosphorusPresent, r.PotassiumPresent,
		nullFloat(r.Temperature), r.PumpOn, r.DecisionReason, r.IsEmergency,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("add reading at %s: %w", r.Timestamp.Format(time.RFC3339), ErrDuplicateTimestamp)
		}
		return fmt.Errorf("add reading: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("add reading: last insert id: %w", err)
	}
	r.ID = id
	return nil
}

// Get returns the reading with id, or ErrNotFound.
func (s *ReadingStore) Get(ctx context.Context, id int64) (*models.SensorReading, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+readingColumns+" FROM sensor_readings WHERE id = ?", id)
	r, err := scanReading(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("reading %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get reading %d: %w", id, err)
	}
	return r, nil
}

// Recent returns up to limit readings, newest first. limit <= 0 returns all.
func (s *ReadingStore) Recent(ctx context.Context, limit int) ([]models.SensorReading, error) {
	query := "SELECT " + readingColumns + " FROM sensor_readings ORDER BY timestamp DESC, id DESC"
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	return s.query(ctx, query, args...)
}

// Between returns readings with from <= timestamp < to, oldest first.
func (s *ReadingStore) Between(ctx context.Context, from, to time.Time) ([]models.SensorReading, error) {
	return s.query(ctx,
		"SELECT "+readingColumns+" FROM sensor_readings WHERE timestamp >= ? AND timestamp < ? ORDER BY timestamp ASC, id ASC",
		formatTime(from), formatTime(to))
}

// Count returns the number of stored readings.
func (s *ReadingStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sensor_readings").Scan(&n); err != nil {
		return 0, fmt.Errorf("count readings: %w", err)
	}
	return n, nil
}

// UpdateField sets one column of one reading. value is the raw decoded
// JSON value; it is coerced and range-checked by the field.
func (s *ReadingStore) UpdateField(ctx context.Context, id int64, field Field, value any) (*models.SensorReading, error) {
	dbValue, err := field.Coerce(value)
	if err != nil {
		return nil, err
	}

	// field is a member of the closed set, so it is safe to splice.
	res, err := s.db.ExecContext(ctx,
		"UPDATE sensor_readings SET "+string(field)+" = ? WHERE id = ?", dbValue, id)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("update reading %d: %w", id, ErrDuplicateTimestamp)
		}
		return nil, fmt.Errorf("update reading %d %s: %w", id, field, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update reading %d: %w", id, err)
	}
	if n == 0 {
		return nil, fmt.Errorf("reading %d: %w", id, ErrNotFound)
	}
	return s.Get(ctx, id)
}

// Delete removes the reading with id.
func (s *ReadingStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM sensor_readings WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete reading %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete reading %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("reading %d: %w", id, ErrNotFound)
	}
	return nil
}

func (s *ReadingStore) query(ctx context.Context, query string, args ...any) ([]models.SensorReading, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query readings: %w", err)
	}
	defer rows.Close()

	out := []models.SensorReading{}
	for rows.Next() {
		r, err := scanReading(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reading row: %w", err)
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReading(sc rowScanner) (*models.SensorReading, error) {
	var (
		r    models.SensorReading
		ts   dbTime
		temp sql.NullFloat64
	)
	err := sc.Scan(&r.ID, &ts, &r.Humidity, &r.PH, &r.PhosphorusPresent, &r.PotassiumPresent,
		&temp, &r.PumpOn, &r.DecisionReason, &r.IsEmergency)
	if err != nil {
		return nil, err
	}
	r.Timestamp = ts.Time
	if temp.Valid {
		r.Temperature = models.Float(temp.Float64)
	}
	return &r, nil
}

// dbTime scans a timestamp the driver may hand back as time.Time or text.
type dbTime struct {
	time.Time
}

func (t *dbTime) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		t.Time = v.UTC()
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	case nil:
		t.Time = time.Time{}
		return nil
	}
	return fmt.Errorf("unsupported timestamp type %T", src)
}

func (t *dbTime) parse(s string) error {
	for _, layout := range []string{timeLayout, time.RFC3339Nano, "2006-01-02 15:04:05"} {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("unparseable timestamp %q", s)
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		code := se.Code()
		if code == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
			return true
		}
		if code&0xff == sqlite3.SQLITE_CONSTRAINT {
			return strings.Contains(se.Error(), "UNIQUE")
		}
	}
	return false
}
