// Package store persists normalized records in the applicants table.
//
// Postgres (lib/pq) and SQLite (modernc, no cgo) are both supported. The
// schema is created by embedded migrations when the store is opened, and
// the url column carries the uniqueness constraint that makes re-ingestion
// idempotent.
package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/jmylchreest/gradfetch/internal/logger"
	"github.com/jmylchreest/gradfetch/pkg/record"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationFS embed.FS

// BatchSize is the number of rows inserted per transaction.
const BatchSize = 1000

// Nationality labels stored in us_or_international.
const (
	International = "International"
	American      = "American"
	Other         = "Other"
)

// ErrUnsupportedDSN is returned by Open for a DSN that names no known driver.
var ErrUnsupportedDSN = errors.New("unsupported database DSN")

// Dialect identifies the SQL backend.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// Store is a handle on the applicants table.
type Store struct {
	db      *sql.DB
	dialect Dialect
}

// ParseDSN picks the driver and driver-specific data source name.
// postgres:// and postgresql:// URLs select Postgres; sqlite:// URLs and
// bare paths ending in .db or .sqlite select SQLite.
func ParseDSN(dsn string) (Dialect, string, error) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return Postgres, dsn, nil
	case strings.HasPrefix(dsn, "sqlite://"):
		path := strings.TrimPrefix(dsn, "sqlite://")
		if path == "" {
			return "", "", fmt.Errorf("%w: empty sqlite path", ErrUnsupportedDSN)
		}
		return SQLite, path, nil
	case strings.HasSuffix(dsn, ".db"), strings.HasSuffix(dsn, ".sqlite"):
		return SQLite, dsn, nil
	default:
		return "", "", fmt.Errorf("%w: %q", ErrUnsupportedDSN, dsn)
	}
}

// Open connects to dsn and applies pending migrations.
func Open(ctx context.Context, dsn string) (*Store, error) {
	dialect, source, err := ParseDSN(dsn)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(string(dialect), source)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", dialect, err)
	}
	if dialect == SQLite {
		// One writer at a time; avoids SQLITE_BUSY across pooled connections.
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to %s database: %w", dialect, err)
	}

	s := &Store{db: db, dialect: dialect}
	version, err := s.migrate()
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Component("store").Debug("database ready", "dialect", dialect, "schema_version", version)
	return s, nil
}

// migrate applies all pending migrations and returns the schema version.
func (s *Store) migrate() (uint, error) {
	var (
		driver database.Driver
		err    error
	)
	switch s.dialect {
	case Postgres:
		driver, err = postgres.WithInstance(s.db, &postgres.Config{})
	case SQLite:
		driver, err = sqlite.WithInstance(s.db, &sqlite.Config{})
	}
	if err != nil {
		return 0, fmt.Errorf("failed to create %s migration driver: %w", s.dialect, err)
	}

	source, err := iofs.New(migrationFS, "migrations/"+string(s.dialect))
	if err != nil {
		return 0, fmt.Errorf("failed to create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, string(s.dialect), driver)
	if err != nil {
		return 0, fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, fmt.Errorf("failed to run migrations: %w", err)
	}

	version, _, err := m.Version()
	if err != nil {
		return 0, fmt.Errorf("failed to get migration version: %w", err)
	}
	return version, nil
}

// Dialect reports the backend in use.
func (s *Store) Dialect() Dialect { return s.dialect }

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

const insertSQL = `
	INSERT INTO applicants (
		program, university, comments, date_added, url, status, term,
		us_or_international, gpa, gre_q, gre_v, gre_aw, degree,
		llm_generated_program, llm_generated_university
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (url) DO NOTHING`

// InsertRecords stores recs in transactions of BatchSize rows. Records
// without a url or entry_link are skipped, and rows whose url is already
// present are ignored. It returns the number of rows actually inserted.
func (s *Store) InsertRecords(ctx context.Context, recs []record.NormalizedRecord) (int, error) {
	log := logger.Component("store")

	rows := make([]row, 0, len(recs))
	for i := range recs {
		r, ok := rowFrom(&recs[i])
		if !ok {
			log.Debug("record without url skipped", "index", i)
			continue
		}
		rows = append(rows, r)
	}

	inserted := 0
	for start := 0; start < len(rows); start += BatchSize {
		end := min(start+BatchSize, len(rows))
		n, err := s.insertBatch(ctx, rows[start:end])
		if err != nil {
			return inserted, fmt.Errorf("insert batch at row %d: %w", start, err)
		}
		inserted += n
	}

	log.Info("records stored", "offered", len(recs), "inserted", inserted, "duplicates", len(rows)-inserted)
	return inserted, nil
}

func (s *Store) insertBatch(ctx context.Context, rows []row) (n int, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, s.rebind(insertSQL))
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, r := range rows {
		res, err := stmt.ExecContext(ctx, r.args()...)
		if err != nil {
			return 0, fmt.Errorf("failed to insert %s: %w", r.url, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		n += int(affected)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}
	return n, nil
}

// Count returns the number of stored rows.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM applicants").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count applicants: %w", err)
	}
	return n, nil
}

// rebind rewrites ? placeholders into $n for Postgres.
func (s *Store) rebind(query string) string {
	if s.dialect != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 16)
	n := 0
	for _, c := range query {
		if c == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

// row is one applicants row ready for insertion.
type row struct {
	program, university, comments, dateAdded *string
	url                                      string
	status, term                             *string
	nationality                              string
	gpa, greQ, greV, greAW                   *float64
	degree, llmProgram, llmUniversity        *string
}

func (r row) args() []any {
	return []any{
		r.program, r.university, r.comments, r.dateAdded, r.url, r.status, r.term,
		r.nationality, r.gpa, r.greQ, r.greV, r.greAW, r.degree,
		r.llmProgram, r.llmUniversity,
	}
}

func rowFrom(n *record.NormalizedRecord) (row, bool) {
	url := record.Value(n.URL)
	if url == "" {
		url = record.Value(n.EntryLink)
	}
	if url == "" {
		return row{}, false
	}
	return row{
		program:       n.Program,
		university:    n.University,
		comments:      n.Comments,
		dateAdded:     n.DateAdded,
		url:           url,
		status:        n.Status,
		term:          n.SemesterYear,
		nationality:   NationalityLabel(n.International),
		gpa:           parseFloat(n.GPA),
		greQ:          parseFloat(n.GREQuantitative),
		greV:          parseFloat(n.GREVerbal),
		greAW:         parseFloat(n.GREAW),
		degree:        n.Degree,
		llmProgram:    n.LLMGeneratedProgram,
		llmUniversity: n.LLMGeneratedUniversity,
	}, true
}

// NationalityLabel maps the international flag to its stored label.
func NationalityLabel(international *bool) string {
	switch {
	case international == nil:
		return Other
	case *international:
		return International
	default:
		return American
	}
}

func parseFloat(p *string) *float64 {
	if p == nil {
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(*p), 64)
	if err != nil {
		return nil
	}
	return &f
}
