// Package journal keeps a SQLite activity log of learner exchanges and
// tracker outcomes. It is observational only: the chat path works the
// same whether or not a journal is attached.
package journal

import (
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Exchange is one recorded learner interaction. TrackerOutcome is
// "pending" until the detached tracker invocation finishes, then one of
// "ok", "timeout", "spawn_failed", or "exit_error".
type Exchange struct {
	ID             string    `json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	Language       string    `json:"language"`
	Message        string    `json:"message"`
	Reply          string    `json:"reply"`
	ResponderMS    int64     `json:"responder_ms"`
	TrackerOutcome string    `json:"tracker_outcome"`
}

// Store wraps a SQLite database holding the exchange journal.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the journal database in dataDir and runs
// pending migrations. Pass ":memory:" as dataDir for an in-memory
// database (used by tests).
func Open(dataDir string) (*Store, error) {
	var dsn string
	if dataDir == ":memory:" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = filepath.Join(dataDir, "lango.db")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Limit to single connection to avoid "database is locked" errors.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		version, err := parseMigrationVersion(entry.Name())
		if err != nil {
			return err
		}

		var exists int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_version WHERE version = ?", version).Scan(&exists); err != nil {
			return fmt.Errorf("checking migration %d: %w", version, err)
		}
		if exists > 0 {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning transaction for migration %d: %w", version, err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration %d: %w", version, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", version, err)
		}
	}
	return nil
}

func parseMigrationVersion(filename string) (int, error) {
	var version int
	if _, err := fmt.Sscanf(filename, "%d_", &version); err != nil {
		return 0, fmt.Errorf("parsing migration version from %q: %w", filename, err)
	}
	return version, nil
}

// AppliedMigrations returns the applied migration versions in ascending order.
func (s *Store) AppliedMigrations() ([]int, error) {
	rows, err := s.db.Query("SELECT version FROM schema_version ORDER BY version ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// SaveExchange upserts an exchange row. The tracker outcome column is
// left alone so a tracker that finished before the responder's save does
// not get its outcome clobbered back to pending.
func (s *Store) SaveExchange(e Exchange) error {
	_, err := s.db.Exec(`
		INSERT INTO exchanges (id, created_at, language, message, reply, responder_ms)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			created_at = excluded.created_at,
			language = excluded.language,
			message = excluded.message,
			reply = excluded.reply,
			responder_ms = excluded.responder_ms`,
		e.ID, e.CreatedAt.UTC().Format(time.RFC3339), e.Language, e.Message, e.Reply, e.ResponderMS,
	)
	return err
}

// SetTrackerOutcome upserts the tracker outcome for an exchange. Either
// side of the exchange may land first; both orders converge on the same
// row.
func (s *Store) SetTrackerOutcome(id, outcome string) error {
	_, err := s.db.Exec(`
		INSERT INTO exchanges (id, tracker_outcome)
		VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET tracker_outcome = excluded.tracker_outcome`,
		id, outcome,
	)
	return err
}

// RecentExchanges returns up to limit exchanges, newest first.
func (s *Store) RecentExchanges(limit int) ([]Exchange, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`
		SELECT id, created_at, language, message, reply, responder_ms, tracker_outcome
		FROM exchanges
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exchanges []Exchange
	for rows.Next() {
		var e Exchange
		var createdAt string
		if err := rows.Scan(&e.ID, &createdAt, &e.Language, &e.Message, &e.Reply, &e.ResponderMS, &e.TrackerOutcome); err != nil {
			return nil, err
		}
		if createdAt != "" {
			t, err := time.Parse(time.RFC3339, createdAt)
			if err != nil {
				return nil, fmt.Errorf("parsing created_at for exchange %s: %w", e.ID, err)
			}
			e.CreatedAt = t
		}
		exchanges = append(exchanges, e)
	}
	return exchanges, rows.Err()
}
