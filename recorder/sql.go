package recorder

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/meenmo/credlib/logging"
	"github.com/meenmo/credlib/measure"
	"github.com/meenmo/credlib/utils"
)

// ErrUnknownDriver is returned for drivers other than sqlite and postgres.
var ErrUnknownDriver = errors.New("unknown recorder driver")

// SQLRecorder writes one row per measure into the valuations table.
type SQLRecorder struct {
	db     *sql.DB
	driver string
	mu     sync.Mutex
}

// NewSQLRecorder opens the database and runs migrations.
// driver is "sqlite" (modernc) or "postgres" (lib/pq).
func NewSQLRecorder(driver, dsn string) (*SQLRecorder, error) {
	switch driver {
	case "sqlite", "postgres":
	default:
		return nil, fmt.Errorf("NewSQLRecorder: %q: %w", driver, ErrUnknownDriver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("NewSQLRecorder: open %s: %w", driver, err)
	}

	if driver == "sqlite" {
		// an in-memory database lives and dies with its connection
		db.SetMaxOpenConns(1)
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("NewSQLRecorder: set WAL mode: %w", err)
		}
	}

	r := &SQLRecorder{db: db, driver: driver}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("NewSQLRecorder: migrate: %w", err)
	}

	logging.Get().Info("recorder opened", "driver", driver)
	return r, nil
}

func (r *SQLRecorder) migrate() error {
	id := "id INTEGER PRIMARY KEY AUTOINCREMENT"
	if r.driver == "postgres" {
		id = "id BIGSERIAL PRIMARY KEY"
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS valuations (
			` + id + `,
			run_at         BIGINT NOT NULL,
			instrument     TEXT NOT NULL,
			valuation_date TEXT NOT NULL,
			measure        TEXT NOT NULL,
			value          DOUBLE PRECISION
		)`,
		`CREATE INDEX IF NOT EXISTS idx_valuations_instrument ON valuations(instrument, valuation_date)`,
	}
	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", strings.TrimSpace(s)[:40], err)
		}
	}
	return nil
}

// placeholders renders n bind parameters in the driver's syntax.
func (r *SQLRecorder) placeholders(n int) string {
	ps := make([]string, n)
	for i := range ps {
		ps[i] = ph(r.driver, i+1)
	}
	return strings.Join(ps, ",")
}

// Record writes every measure of v in one transaction.
func (r *SQLRecorder) Record(ctx context.Context, v *Valuation) error {
	if v == nil || v.Measures == nil {
		return fmt.Errorf("Record: empty valuation")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	runAt := v.RunAt
	if runAt.IsZero() {
		runAt = time.Now()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("Record: begin: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO valuations
		(run_at, instrument, valuation_date, measure, value)
		VALUES (`+r.placeholders(5)+`)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("Record: prepare: %w", err)
	}
	defer stmt.Close()

	valDate := utils.FormatDate(v.ValuationDate)
	for _, name := range v.Measures.Names() {
		value, _ := v.Measures.Get(name)
		if _, err := stmt.ExecContext(ctx, runAt.Unix(), v.Instrument, valDate, name, value); err != nil {
			tx.Rollback()
			return fmt.Errorf("Record: %s %s: %w", v.Instrument, name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("Record: commit: %w", err)
	}
	return nil
}

// Load returns the most recently recorded measures of instrument on valuationDate.
func (r *SQLRecorder) Load(ctx context.Context, instrument string, valuationDate time.Time) (*measure.Set, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.QueryContext(ctx, `SELECT measure, value FROM valuations
		WHERE instrument = `+ph(r.driver, 1)+` AND valuation_date = `+ph(r.driver, 2)+`
		AND run_at = (SELECT MAX(run_at) FROM valuations WHERE instrument = `+ph(r.driver, 3)+` AND valuation_date = `+ph(r.driver, 4)+`)
		ORDER BY id`,
		instrument, utils.FormatDate(valuationDate), instrument, utils.FormatDate(valuationDate))
	if err != nil {
		return nil, fmt.Errorf("Load: %w", err)
	}
	defer rows.Close()

	out := measure.NewSet()
	for rows.Next() {
		var name string
		var value float64
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("Load: scan: %w", err)
		}
		out.Set(name, value)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("Load: %w", err)
	}
	return out, nil
}

func ph(driver string, i int) string {
	if driver == "postgres" {
		return "$" + strconv.Itoa(i)
	}
	return "?"
}

func (r *SQLRecorder) Close() error {
	logging.Get().Info("closing recorder", "driver", r.driver)
	return r.db.Close()
}
