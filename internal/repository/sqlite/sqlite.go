// Package sqlite implements the repository interfaces on an embedded SQLite
// database (modernc.org/sqlite, pure Go, no CGo).
//
// It is the default backend for local development and the backend every
// non-integration test runs against (":memory:").
//
// DATABASE/SQL OVERVIEW:
//   - sql.DB  : a connection pool (NOT a single connection!)
//   - sql.Row : a single result row
//   - sql.Rows: multiple result rows (must be closed!)
//
// ONE CONNECTION:
// The pool is capped at one open connection. SQLite serialises writers
// anyway, and ":memory:" databases exist per connection, so a second pooled
// connection would see an empty database. PRAGMAs are per connection too.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sakif/plantando/internal/repository"
)

// DB wraps a sql.DB connection pool and hands out the per-table repositories.
type DB struct {
	conn *sql.DB
}

var _ repository.Store = (*DB)(nil)

// New opens (or creates) the database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/plantando.db" → file-based database (persistent)
//   - ":memory:"          → in-memory database (tests)
func New(dbPath string) (*DB, error) {
	// "sqlite" is the driver name registered by modernc.org/sqlite's init().
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets readers proceed while a write is in progress. It is a no-op
	// for in-memory databases.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are OFF by default in SQLite. Cascading activity records
	// on user deletion depends on them.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

func (db *DB) Users() repository.UserRepository {
	return &UserRepo{conn: db.conn}
}

func (db *DB) Actions() repository.ActionRepository {
	return &ActionRepo{conn: db.conn}
}

func (db *DB) Tips() repository.TipRepository {
	return &TipRepo{conn: db.conn}
}

func (db *DB) Activities() repository.ActivityRepository {
	return &ActivityRepo{conn: db.conn}
}

// migrate creates the schema. CREATE ... IF NOT EXISTS makes it safe to run
// on every start.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS usuarios (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			nome            TEXT NOT NULL,
			email           TEXT NOT NULL UNIQUE,
			id_registro     TEXT UNIQUE,
			senha_hash      TEXT NOT NULL,
			pontuacao_total INTEGER NOT NULL DEFAULT 0,
			nivel           INTEGER NOT NULL DEFAULT 1,
			created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_usuarios_nome ON usuarios(nome);
	`)
	if err != nil {
		return fmt.Errorf("creating usuarios table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS acoes_sustentaveis (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			nome       TEXT NOT NULL,
			descricao  TEXT,
			pontos     INTEGER NOT NULL,
			categoria  TEXT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating acoes_sustentaveis table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS dicas (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			titulo         TEXT NOT NULL,
			conteudo       TEXT NOT NULL,
			categoria_dica TEXT,
			created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating dicas table: %w", err)
	}

	// usuario_id cascades: deleting a user removes their history.
	// acao_id restricts: a catalog entry with history cannot be deleted.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS registros_atividade (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			usuario_id INTEGER NOT NULL REFERENCES usuarios(id) ON DELETE CASCADE,
			acao_id    INTEGER NOT NULL REFERENCES acoes_sustentaveis(id) ON DELETE RESTRICT,
			data_hora  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			observacao TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_registros_usuario ON registros_atividade(usuario_id, data_hora);
		CREATE INDEX IF NOT EXISTS idx_registros_acao ON registros_atividade(acao_id);
	`)
	if err != nil {
		return fmt.Errorf("creating registros_atividade table: %w", err)
	}

	return nil
}

// now is the timestamp written to created_at/updated_at. SQLite stores it as
// text, so it is normalised to UTC and truncated to microseconds to round-trip
// identically through both backends.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// update runs `UPDATE table SET a = ?, b = ? WHERE id = ?` for the given
// assignments and reports whether a row matched. touch adds updated_at.
func update(ctx context.Context, conn *sql.DB, table string, id int64, sets []repository.Assignment, touch bool) (bool, error) {
	if len(sets) == 0 {
		return true, nil
	}
	if touch {
		sets = append(sets, repository.Assignment{Column: "updated_at", Value: now()})
	}

	clauses := make([]string, 0, len(sets))
	args := make([]any, 0, len(sets)+1)
	for _, s := range sets {
		clauses = append(clauses, s.Column+" = ?")
		args = append(args, s.Value)
	}
	args = append(args, id)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = ?", table, strings.Join(clauses, ", "))
	result, err := conn.ExecContext(ctx, query, args...)
	if err != nil {
		if cerr := constraintError(err); cerr != nil {
			return false, cerr
		}
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking rows affected: %w", err)
	}
	return rows > 0, nil
}

// constraintError maps SQLite constraint failures onto the repository
// contract. It returns nil for any other error.
func constraintError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case isConstraint(err, sqlite3.SQLITE_CONSTRAINT_UNIQUE, "UNIQUE constraint failed"):
		return repository.UniqueViolation(uniqueColumn(err.Error()))
	case isConstraint(err, sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY, "FOREIGN KEY constraint failed"):
		return repository.ErrReferenced
	}
	return nil
}

func isConstraint(err error, code int, text string) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code() == code {
		return true
	}
	return strings.Contains(err.Error(), text)
}

// uniqueColumn extracts "email" from "UNIQUE constraint failed: usuarios.email".
func uniqueColumn(msg string) string {
	_, after, found := strings.Cut(msg, "UNIQUE constraint failed: ")
	if !found {
		return "desconhecido"
	}
	// Composite constraints list several columns; the first one is enough.
	// The driver appends the result code: "usuarios.email (2067)".
	after, _, _ = strings.Cut(after, ",")
	after, _, _ = strings.Cut(strings.TrimSpace(after), " ")
	if i := strings.LastIndex(after, "."); i >= 0 {
		after = after[i+1:]
	}
	return after
}
