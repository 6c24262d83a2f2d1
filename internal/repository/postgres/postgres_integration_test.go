//go:build integration

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	postgrescontainer "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/sakif/plantando/internal/apperror"
	"github.com/sakif/plantando/internal/model"
	"github.com/sakif/plantando/internal/repository"
)

func newIntegrationDB(t *testing.T) *DB {
	t.Helper()
	ctx := context.Background()

	pg, err := postgrescontainer.RunContainer(ctx,
		postgrescontainer.WithDatabase("plantando"),
		postgrescontainer.WithUsername("plantando"),
		postgrescontainer.WithPassword("plantando"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(ctx) })

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	require.NoError(t, waitForDatabase(ctx, connStr))

	db, err := New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestPostgresStore(t *testing.T) {
	ctx := context.Background()
	db := newIntegrationDB(t)

	// Applying the schema twice must be harmless.
	require.NoError(t, db.migrate(ctx))

	users := db.Users()
	ana := &model.User{Name: "Ana", Email: "ana@x.com", PasswordHash: "digest"}
	require.NoError(t, users.Create(ctx, ana))
	require.NotZero(t, ana.ID)

	err := users.Create(ctx, &model.User{Name: "Outra", Email: "ana@x.com", PasswordHash: "digest"})
	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr), "got %v", err)
	require.Equal(t, "email", appErr.Field)

	loaded, err := users.GetByEmail(ctx, "ana@x.com")
	require.NoError(t, err)
	require.Equal(t, "digest", loaded.PasswordHash)

	byID, err := users.GetByID(ctx, ana.ID)
	require.NoError(t, err)
	require.Empty(t, byID.PasswordHash)

	updated, err := users.Update(ctx, ana.ID, repository.UserUpdate{ExternalID: model.Some("R-1")})
	require.NoError(t, err)
	require.NotNil(t, updated.ExternalID)

	action := &model.SustainableAction{Name: "Usar bicicleta", Points: 20}
	require.NoError(t, db.Actions().Create(ctx, action))

	older := &model.ActivityRecord{UserID: ana.ID, ActionID: action.ID, OccurredAt: time.Now().Add(-time.Hour)}
	newer := &model.ActivityRecord{UserID: ana.ID, ActionID: action.ID}
	require.NoError(t, db.Activities().Create(ctx, older))
	require.NoError(t, db.Activities().Create(ctx, newer))

	list, err := db.Activities().ListByUser(ctx, ana.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, newer.ID, list[0].ID)

	err = db.Activities().Create(ctx, &model.ActivityRecord{UserID: ana.ID, ActionID: 9999})
	require.True(t, errors.Is(err, repository.ErrReferenced), "got %v", err)

	require.True(t, errors.Is(db.Actions().Delete(ctx, action.ID), apperror.ErrConflict))

	require.NoError(t, users.Delete(ctx, ana.ID))
	_, err = db.Activities().GetByID(ctx, older.ID)
	require.True(t, errors.Is(err, apperror.ErrNotFound))
	require.NoError(t, db.Actions().Delete(ctx, action.ID))
}

func waitForDatabase(ctx context.Context, connStr string) error {
	deadline := time.Now().Add(30 * time.Second)
	for {
		pool, err := pgxpool.New(ctx, connStr)
		if err == nil {
			err = pool.Ping(ctx)
			pool.Close()
			if err == nil {
				return nil
			}
		}
		if time.Now().After(deadline) {
			return err
		}
		time.Sleep(time.Second)
	}
}
