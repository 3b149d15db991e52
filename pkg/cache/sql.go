package cache

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx"
	_ "modernc.org/sqlite"             // registers "sqlite"

	"github.com/matzehuels/ctabridge/pkg/errors"
)

// SQL drivers understood by SQLStore.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

// timeLayout is fixed width so stored times also sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// legacyTimeLayout is the local DATETIME form found in older cache files.
const legacyTimeLayout = "2006-01-02 15:04:05"

// timeColumn reads the time column as text. Older tables declare it DATETIME,
// which some drivers would otherwise hand back as a time.Time.
const timeColumn = "CAST(time AS TEXT)"

// SQLStore keeps entries in the apiCache table:
//
//	apiCache(id auto-increment primary key, url text unique, data text, time text)
//
// Tables created by older writers with a DATETIME time column are read as is.
type SQLStore struct {
	db     *sql.DB
	driver string
	path   string
}

// OpenSQLite opens (creating if needed) a SQLite cache database at path and
// migrates it.
func OpenSQLite(ctx context.Context, path string) (*SQLStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "create cache directory")
	}
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_txlock=immediate"
	db, err := sql.Open(DriverSQLite, dsn)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "open sqlite cache %s", path)
	}
	// SQLite allows one writer; a single connection avoids SQLITE_BUSY inside
	// one process.
	db.SetMaxOpenConns(1)

	s := NewSQLStore(db, DriverSQLite)
	s.path = path
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// OpenPostgres connects to a PostgreSQL cache database and migrates it.
func OpenPostgres(ctx context.Context, dsn string) (*SQLStore, error) {
	db, err := sql.Open(DriverPostgres, dsn)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "open postgres cache")
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "connect postgres cache")
	}
	s := NewSQLStore(db, DriverPostgres)
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLStore wraps an open database. The schema is not touched; call
// Migrate before use on a fresh database.
func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

// Migrate creates the table, removes duplicate rows left by older writers
// (keeping the newest per URL) and enforces uniqueness on url.
func (s *SQLStore) Migrate(ctx context.Context) error {
	idColumn := "id INTEGER PRIMARY KEY AUTOINCREMENT"
	if s.driver == DriverPostgres {
		idColumn = "id BIGSERIAL PRIMARY KEY"
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS apiCache (` + idColumn + `, url TEXT NOT NULL, data TEXT NOT NULL, time TEXT NOT NULL)`,
		`DELETE FROM apiCache WHERE id NOT IN (SELECT MAX(id) FROM apiCache GROUP BY url)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS apiCache_url ON apiCache (url)`,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "migrate cache")
	}
	defer tx.Rollback()
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "migrate cache")
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "migrate cache")
	}
	return nil
}

// Load implements Store. The select and the eviction of a stale row run in
// one transaction; on PostgreSQL the row is locked with FOR UPDATE.
func (s *SQLStore) Load(ctx context.Context, url string, cutoff time.Time) (*Entry, error) {
	q := `SELECT id, data, ` + timeColumn + ` FROM apiCache WHERE url = ?`
	if s.driver == DriverPostgres {
		q += ` FOR UPDATE`
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "cache load %s", url)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, s.rebind(q), url)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "cache load %s", url)
	}
	var (
		entries []Entry
		ids     []int64
	)
	for rows.Next() {
		var (
			id   int64
			data string
			when storedTime
		)
		if err := rows.Scan(&id, &data, &when); err != nil {
			rows.Close()
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "cache load %s", url)
		}
		ids = append(ids, id)
		entries = append(entries, Entry{URL: url, Payload: data, StoredAt: time.Time(when)})
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "cache load %s", url)
	}
	rows.Close()

	e, stale, err := pick(url, entries, cutoff)
	if err != nil {
		return nil, err
	}
	if stale {
		if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM apiCache WHERE id = ?`), ids[0]); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "cache evict %s", url)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "cache load %s", url)
	}
	if stale {
		evicted(ctx, s.Name(), entries[0].StoredAt, cutoff)
	}
	return e, nil
}

// Save implements Store with an upsert on the unique url index.
func (s *SQLStore) Save(ctx context.Context, e Entry) error {
	q := `INSERT INTO apiCache (url, data, time) VALUES (?, ?, ?)
		ON CONFLICT (url) DO UPDATE SET data = excluded.data, time = excluded.time`
	if _, err := s.db.ExecContext(ctx, s.rebind(q), e.URL, e.Payload, formatTime(e.StoredAt)); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "cache save %s", e.URL)
	}
	return nil
}

// Delete implements Store.
func (s *SQLStore) Delete(ctx context.Context, url string) error {
	if _, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM apiCache WHERE url = ?`), url); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "cache delete %s", url)
	}
	return nil
}

// Purge implements Store. Times are compared after parsing so rows written
// in the legacy layout are handled too.
func (s *SQLStore) Purge(ctx context.Context, cutoff time.Time) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeInternal, err, "cache purge")
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `SELECT id, `+timeColumn+` FROM apiCache`)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeInternal, err, "cache purge")
	}
	var stale []int64
	for rows.Next() {
		var (
			id   int64
			when storedTime
		)
		if err := rows.Scan(&id, &when); err != nil {
			rows.Close()
			return 0, errors.Wrap(errors.ErrCodeInternal, err, "cache purge")
		}
		if time.Time(when).Before(cutoff) {
			stale = append(stale, id)
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, errors.Wrap(errors.ErrCodeInternal, err, "cache purge")
	}
	rows.Close()

	del := s.rebind(`DELETE FROM apiCache WHERE id = ?`)
	for _, id := range stale {
		if _, err := tx.ExecContext(ctx, del, id); err != nil {
			return 0, errors.Wrap(errors.ErrCodeInternal, err, "cache purge")
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(errors.ErrCodeInternal, err, "cache purge")
	}
	return len(stale), nil
}

// Clear implements Store.
func (s *SQLStore) Clear(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM apiCache`)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeInternal, err, "cache clear")
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// Name implements Store.
func (s *SQLStore) Name() string {
	if s.driver == DriverPostgres {
		return "postgres"
	}
	return "sqlite"
}

// Path returns the SQLite database file, or "" for other drivers.
func (s *SQLStore) Path() string { return s.path }

// Close closes the database.
func (s *SQLStore) Close() error { return s.db.Close() }

// rebind rewrites '?' placeholders to '$n' for PostgreSQL.
func (s *SQLStore) rebind(q string) string {
	if s.driver != DriverPostgres {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime reads a stored time. Unreadable values yield the zero time, which
// is always stale. Legacy values without a zone are local time; a fractional
// second after the seconds field is accepted by every layout.
func parseTime(s string) time.Time {
	for _, layout := range []string{timeLayout, time.RFC3339Nano} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	if t, err := time.ParseInLocation(legacyTimeLayout, s, time.Local); err == nil {
		return t
	}
	return time.Time{}
}

// storedTime scans the time column whether the driver returns text or a
// time.Time.
type storedTime time.Time

// Scan implements sql.Scanner.
func (t *storedTime) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*t = storedTime(v)
	case string:
		*t = storedTime(parseTime(v))
	case []byte:
		*t = storedTime(parseTime(string(v)))
	case nil:
		*t = storedTime(time.Time{})
	default:
		return fmt.Errorf("unsupported time value %T", src)
	}
	return nil
}

var _ Store = (*SQLStore)(nil)
