// Package postgres implements the repository interfaces on PostgreSQL through
// a pgx connection pool. It is selected when DATABASE_URL is a postgres:// URL.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sakif/plantando/internal/repository"
)

// SQLSTATE codes the repositories translate.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// DB owns the pool and hands out the per-table repositories.
type DB struct {
	pool *pgxpool.Pool
}

var _ repository.Store = (*DB)(nil)

// New connects to databaseURL, verifies the connection and applies the schema.
func New(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres: creating pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: pinging database: %w", err)
	}
	db := &DB{pool: pool}
	if err := db.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: running migrations: %w", err)
	}
	return db, nil
}

func (db *DB) Close() error {
	db.pool.Close()
	return nil
}

func (db *DB) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

func (db *DB) Users() repository.UserRepository {
	return &UserRepo{pool: db.pool}
}

func (db *DB) Actions() repository.ActionRepository {
	return &ActionRepo{pool: db.pool}
}

func (db *DB) Tips() repository.TipRepository {
	return &TipRepo{pool: db.pool}
}

func (db *DB) Activities() repository.ActivityRepository {
	return &ActivityRepo{pool: db.pool}
}

// schema mirrors the SQLite one. Without arguments pgx sends it over the
// simple protocol, which accepts several statements at once.
const schema = `
CREATE TABLE IF NOT EXISTS usuarios (
    id              BIGSERIAL PRIMARY KEY,
    nome            TEXT NOT NULL,
    email           TEXT NOT NULL UNIQUE,
    id_registro     TEXT UNIQUE,
    senha_hash      TEXT NOT NULL,
    pontuacao_total INTEGER NOT NULL DEFAULT 0,
    nivel           INTEGER NOT NULL DEFAULT 1,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_usuarios_nome ON usuarios(nome);

CREATE TABLE IF NOT EXISTS acoes_sustentaveis (
    id         BIGSERIAL PRIMARY KEY,
    nome       TEXT NOT NULL,
    descricao  TEXT,
    pontos     INTEGER NOT NULL,
    categoria  TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS dicas (
    id             BIGSERIAL PRIMARY KEY,
    titulo         TEXT NOT NULL,
    conteudo       TEXT NOT NULL,
    categoria_dica TEXT,
    created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS registros_atividade (
    id         BIGSERIAL PRIMARY KEY,
    usuario_id BIGINT NOT NULL REFERENCES usuarios(id) ON DELETE CASCADE,
    acao_id    BIGINT NOT NULL REFERENCES acoes_sustentaveis(id) ON DELETE RESTRICT,
    data_hora  TIMESTAMPTZ NOT NULL DEFAULT now(),
    observacao TEXT
);
CREATE INDEX IF NOT EXISTS idx_registros_usuario ON registros_atividade(usuario_id, data_hora);
CREATE INDEX IF NOT EXISTS idx_registros_acao ON registros_atividade(acao_id);
`

func (db *DB) migrate(ctx context.Context) error {
	_, err := db.pool.Exec(ctx, schema)
	return err
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// update runs `UPDATE table SET a = $1, b = $2 WHERE id = $n` and reports
// whether a row matched. touch adds updated_at.
func update(ctx context.Context, pool *pgxpool.Pool, table string, id int64, sets []repository.Assignment, touch bool) (bool, error) {
	if len(sets) == 0 {
		return true, nil
	}
	if touch {
		sets = append(sets, repository.Assignment{Column: "updated_at", Value: now()})
	}

	clauses := make([]string, 0, len(sets))
	args := make([]any, 0, len(sets)+1)
	for i, s := range sets {
		clauses = append(clauses, fmt.Sprintf("%s = $%d", s.Column, i+1))
		args = append(args, s.Value)
	}
	args = append(args, id)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d", table, strings.Join(clauses, ", "), len(args))
	tag, err := pool.Exec(ctx, query, args...)
	if err != nil {
		if cerr := constraintError(err); cerr != nil {
			return false, cerr
		}
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// constraintError maps integrity violations onto the repository contract and
// returns nil for anything else.
func constraintError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return nil
	}
	switch pgErr.Code {
	case codeUniqueViolation:
		return repository.UniqueViolation(constraintColumn(pgErr.TableName, pgErr.ConstraintName))
	case codeForeignKeyViolation:
		return repository.ErrReferenced
	}
	return nil
}

// constraintColumn turns the default constraint name "usuarios_email_key"
// into "email".
func constraintColumn(table, constraint string) string {
	if constraint == "" {
		return "desconhecido"
	}
	col := strings.TrimSuffix(constraint, "_key")
	if table != "" {
		col = strings.TrimPrefix(col, table+"_")
	} else if _, after, ok := strings.Cut(col, "_"); ok {
		col = after
	}
	return col
}
