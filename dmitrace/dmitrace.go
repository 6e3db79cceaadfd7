// Package dmitrace records every DMI transaction to a SQLite database,
// buffering entries in memory and flushing them in batched transactions.
package dmitrace

import (
	"database/sql"
	"fmt"
	"os"

	// Registers the sqlite3 driver.
	_ "github.com/mattn/go-sqlite3"

	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// batchSize bounds how many transactions are buffered before an
// automatic Flush.
const batchSize = 10000

// entry is a single completed DMI transaction.
type entry struct {
	id      string
	write   bool
	address uint64
	data    uint32
	simTime uint64
}

// Tracer buffers DMI transactions and periodically flushes them to a
// SQLite database.
type Tracer struct {
	db        *sql.DB
	statement *sql.Stmt

	sessionID string
	pending   []entry
}

// Open creates (or truncates) the SQLite database at path and prepares
// it to receive DMI transactions. It registers an atexit hook so a trace
// is flushed even if the process terminates before Close runs.
func Open(path string) (*Tracer, error) {
	if _, err := os.Stat(path); err == nil {
		if err := os.Remove(path); err != nil {
			return nil, fmt.Errorf("dmitrace: removing stale database %s: %w", path, err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("dmitrace: opening %s: %w", path, err)
	}

	t := &Tracer{db: db, sessionID: xid.New().String()}
	if err := t.createTable(); err != nil {
		db.Close()
		return nil, err
	}
	if err := t.prepareStatement(); err != nil {
		db.Close()
		return nil, err
	}

	atexit.Register(func() { t.Flush() })

	return t, nil
}

func (t *Tracer) createTable() error {
	_, err := t.db.Exec(`
		create table if not exists dmi_transaction
		(
			id         varchar(200) not null,
			session_id varchar(200) not null,
			write      integer      not null,
			address    integer      not null,
			data       integer      not null,
			sim_time_ns integer     not null
		);
	`)
	if err != nil {
		return fmt.Errorf("dmitrace: creating table: %w", err)
	}
	if _, err := t.db.Exec(`create index if not exists dmi_transaction_address_index on dmi_transaction (address);`); err != nil {
		return fmt.Errorf("dmitrace: creating index: %w", err)
	}
	return nil
}

func (t *Tracer) prepareStatement() error {
	stmt, err := t.db.Prepare(`insert into dmi_transaction values (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("dmitrace: preparing insert: %w", err)
	}
	t.statement = stmt
	return nil
}

// Record buffers a completed DMI transaction, flushing automatically
// once batchSize entries have accumulated.
func (t *Tracer) Record(write bool, address uint64, data uint32, simTimeNs uint64) {
	t.pending = append(t.pending, entry{
		id:      xid.New().String(),
		write:   write,
		address: address,
		data:    data,
		simTime: simTimeNs,
	})
	if len(t.pending) >= batchSize {
		t.Flush()
	}
}

// Flush writes all buffered transactions to the database in a single
// transaction. Errors are not returned: a trace sink must never be able
// to fail the simulation it is observing.
func (t *Tracer) Flush() {
	if len(t.pending) == 0 {
		return
	}

	tx, err := t.db.Begin()
	if err != nil {
		return
	}
	stmt := tx.Stmt(t.statement)
	for _, e := range t.pending {
		_, _ = stmt.Exec(e.id, t.sessionID, boolToInt(e.write), e.address, e.data, e.simTime)
	}
	tx.Commit()

	t.pending = nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Close flushes any buffered transactions and closes the database.
func (t *Tracer) Close() error {
	t.Flush()
	if t.statement != nil {
		t.statement.Close()
	}
	return t.db.Close()
}
