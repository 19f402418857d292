// Package record stores branch resolutions in a SQLite database so that runs
// can be analyzed after the fact.
package record

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/xid"
	"github.com/sarchlab/akita/v4/sim"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/m2bp/runner"
)

// Recorder is a hook that writes every resolved branch of a run into SQLite.
type Recorder struct {
	*sql.DB
	statement *sql.Stmt

	path      string
	runID     string
	batchSize int
	toWrite   []runner.Resolution
	closed    bool
}

// New creates the database at path. An empty path picks a unique name in the
// working directory. The file must not exist yet.
func New(path string) (*Recorder, error) {
	if path == "" {
		path = "m2bp_" + xid.New().String()
	}
	if filepath.Ext(path) == "" {
		path += ".sqlite3"
	}

	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("file %s already exists", path)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	r := &Recorder{
		DB:        db,
		path:      path,
		runID:     xid.New().String(),
		batchSize: 100000,
	}

	if err := r.createTables(); err != nil {
		db.Close()
		return nil, err
	}

	r.statement, err = db.Prepare(`INSERT INTO resolution VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare insert: %w", err)
	}

	atexit.Register(func() { r.Flush() })

	return r, nil
}

func (r *Recorder) createTables() error {
	stmts := []string{
		`CREATE TABLE run (
			run_id     TEXT PRIMARY KEY,
			predictor  TEXT,
			config     TEXT,
			start_time TEXT
		)`,
		`CREATE TABLE resolution (
			run_id      TEXT,
			seq         INTEGER,
			core        INTEGER,
			pc          INTEGER,
			kind        TEXT,
			taken       INTEGER,
			predicted   INTEGER,
			speculative INTEGER,
			assumed     INTEGER
		)`,
		`CREATE INDEX resolution_pc ON resolution (run_id, pc)`,
	}

	for _, s := range stmts {
		if _, err := r.Exec(s); err != nil {
			return fmt.Errorf("failed to create tables: %w", err)
		}
	}

	return nil
}

// Path returns the database file name.
func (r *Recorder) Path() string {
	return r.path
}

// RunID returns the identifier of the run rows are written under.
func (r *Recorder) RunID() string {
	return r.runID
}

// RecordRun stores the description of the run.
func (r *Recorder) RecordRun(predictor, config string) error {
	_, err := r.Exec(`INSERT INTO run VALUES (?, ?, ?, ?)`,
		r.runID, predictor, config, time.Now().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

// Func buffers a resolution. It implements sim.Hook.
func (r *Recorder) Func(ctx sim.HookCtx) {
	if ctx.Pos != runner.HookPosBranchResolved {
		return
	}

	res, ok := ctx.Item.(runner.Resolution)
	if !ok {
		return
	}

	r.toWrite = append(r.toWrite, res)
	if len(r.toWrite) >= r.batchSize {
		r.Flush()
	}
}

// Flush writes all the buffered resolutions to the database.
func (r *Recorder) Flush() {
	if r.closed || len(r.toWrite) == 0 {
		return
	}

	r.mustExecute("BEGIN TRANSACTION")
	defer r.mustExecute("COMMIT TRANSACTION")

	for _, res := range r.toWrite {
		b := res.Branch
		_, err := r.statement.Exec(
			r.runID,
			res.Seq,
			b.Core,
			int64(b.PC),
			b.Kind.String(),
			b.Taken,
			res.Predicted,
			res.Speculative,
			res.SpeculativePrediction,
		)
		if err != nil {
			panic(fmt.Errorf("failed to insert resolution %d: %w", res.Seq, err))
		}
	}

	r.toWrite = nil
}

// Close flushes and closes the database.
func (r *Recorder) Close() error {
	if r.closed {
		return nil
	}

	r.Flush()
	r.closed = true

	if err := r.statement.Close(); err != nil {
		return err
	}

	return r.DB.Close()
}

func (r *Recorder) mustExecute(query string) sql.Result {
	res, err := r.Exec(query)
	if err != nil {
		panic(fmt.Errorf("failed to execute %q: %w", query, err))
	}
	return res
}
