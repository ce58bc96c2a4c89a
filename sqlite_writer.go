package outbreaksim

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
	"github.com/segmentio/ksuid"
)

// SQLiteCTWriter is an optional contact-tracing backend, an
// alternative to the binary CT log (writer.go/WriteCTEntries) for
// interactive inspection (§4.E, SPEC_FULL §11). Grounded on the
// teacher's SQLiteLogger (sqlite_logger.go): one table, created once,
// populated via a prepared statement inside one transaction per path.
// database/sql's *sql.DB is itself safe for concurrent use, so unlike
// the binary writers this one needs no caller-side lock.
type SQLiteCTWriter struct {
	db    *sql.DB
	runID ksuid.KSUID
}

// OpenSQLiteCTWriter opens (creating if necessary) the database at
// path and its ContactTrace table, tagging every row written during
// this writer's lifetime with one fresh run ID.
func OpenSQLiteCTWriter(path string) (*SQLiteCTWriter, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	const stmt = `create table if not exists ContactTrace (
		id integer not null primary key,
		runid text,
		pathid text,
		postesttime integer,
		presymtime integer,
		frameid integer,
		parentid integer,
		ntracedcts integer
	);`
	if _, err := db.Exec(stmt); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteCTWriter{db: db, runID: ksuid.New()}, nil
}

// WritePath inserts one path's contact-tracing entries inside a
// single transaction, tagging them with a fresh path ID.
func (w *SQLiteCTWriter) WritePath(entries []ctEntry) error {
	pathID := ksuid.New()
	tx, err := w.db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(`insert into ContactTrace
		(runid, pathid, postesttime, presymtime, frameid, parentid, ntracedcts)
		values (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, e := range entries {
		_, err := stmt.Exec(w.runID.String(), pathID.String(),
			int64(e.PostestTime), int64(e.PresymTime), e.ID, e.PID, e.NTracedCts)
		if err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// Close closes the underlying database handle.
func (w *SQLiteCTWriter) Close() error {
	return w.db.Close()
}
