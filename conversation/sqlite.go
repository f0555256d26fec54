package conversation

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/deskmesh/deskmesh/core"
)

// SQLiteStore is a durable Store backed by an SQLite database file. Messages
// survive process restart; the sliding window is enforced inside the append
// transaction so the table never holds more than window rows per
// (worker, session) pair.
type SQLiteStore struct {
	conn *sql.DB
	path string
}

// OpenSQLite opens (creating if necessary) an SQLite store at the given
// path. Parent directories are created and WAL mode is enabled for
// concurrent readers.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	s := &SQLiteStore{conn: conn, path: path}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error { return s.conn.Close() }

// Path returns the database file path.
func (s *SQLiteStore) Path() string { return s.path }

func (s *SQLiteStore) migrate() error {
	_, err := s.conn.Exec(`
		CREATE TABLE IF NOT EXISTS messages (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL,
			worker_id TEXT NOT NULL,
			session_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			capability TEXT,
			action TEXT,
			attempts INTEGER,
			invocation_error TEXT,
			created_at TIMESTAMP NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_messages_log ON messages(worker_id, session_id, seq);
	`)
	if err != nil {
		return fmt.Errorf("create messages table: %w", err)
	}
	return nil
}

// Append inserts the message and deletes rows older than the window within
// one transaction.
func (s *SQLiteStore) Append(ctx context.Context, workerID, sessionID string, msg core.Message, window int) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append: %w", err)
	}
	defer tx.Rollback()

	var capName, action, invErr sql.NullString
	var attempts sql.NullInt64
	if msg.Invocation != nil {
		capName = sql.NullString{String: msg.Invocation.Capability, Valid: true}
		action = sql.NullString{String: msg.Invocation.Action, Valid: true}
		attempts = sql.NullInt64{Int64: int64(msg.Invocation.Attempts), Valid: true}
		if msg.Invocation.Error != "" {
			invErr = sql.NullString{String: msg.Invocation.Error, Valid: true}
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO messages (id, worker_id, session_id, role, content, capability, action, attempts, invocation_error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		msg.ID, workerID, sessionID, string(msg.Role), msg.Content,
		capName, action, attempts, invErr, msg.Timestamp.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}

	if window > 0 {
		_, err = tx.ExecContext(ctx, `
			DELETE FROM messages
			WHERE worker_id = ? AND session_id = ?
			AND seq NOT IN (
				SELECT seq FROM messages
				WHERE worker_id = ? AND session_id = ?
				ORDER BY seq DESC LIMIT ?
			)`,
			workerID, sessionID, workerID, sessionID, window,
		)
		if err != nil {
			return fmt.Errorf("trim log: %w", err)
		}
	}

	return tx.Commit()
}

// Read returns the most recent window messages for the pair, oldest first.
func (s *SQLiteStore) Read(ctx context.Context, workerID, sessionID string, window int) ([]core.Message, error) {
	query := `
		SELECT id, role, content, capability, action, attempts, invocation_error, created_at
		FROM messages
		WHERE worker_id = ? AND session_id = ?
		ORDER BY seq DESC`
	args := []any{workerID, sessionID}
	if window > 0 {
		query += " LIMIT ?"
		args = append(args, window)
	}

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}
	defer rows.Close()

	var out []core.Message
	for rows.Next() {
		var (
			msg                     core.Message
			role, createdAt         string
			capName, action, invErr sql.NullString
			attempts                sql.NullInt64
		)
		if err := rows.Scan(&msg.ID, &role, &msg.Content, &capName, &action, &attempts, &invErr, &createdAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msg.Role = core.Role(role)
		if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			msg.Timestamp = ts
		}
		if capName.Valid {
			msg.Invocation = &core.InvocationRef{
				Capability: capName.String,
				Action:     action.String,
				Attempts:   int(attempts.Int64),
				Error:      invErr.String,
			}
		}
		out = append(out, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	// Rows were fetched newest first; reverse into original order.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}

	return out, nil
}
