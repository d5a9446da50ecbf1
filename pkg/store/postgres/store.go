package postgres

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"

	// register the pgx stdlib driver for the task queue connection
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/upliftai/uplift/internal"
	"github.com/upliftai/uplift/pkg/models"
	"github.com/upliftai/uplift/pkg/store"
	"github.com/uptrace/bun"
)

var log = internal.GetLogger()

// InitStores connects the appState stores to Postgres-backed DAOs and ensures
// the schema is in place.
func InitStores(ctx context.Context, appState *models.AppState, db *bun.DB) error {
	if appState == nil {
		return store.NewStorageError("nil appState received", nil)
	}

	if err := CreateSchema(ctx, appState, db); err != nil {
		return store.NewStorageError("failed to ensure postgres schema setup", err)
	}

	appState.UserStore = NewUserStoreDAO(db)
	appState.ConversationStore = NewConversationDAO(db)
	appState.SubscriptionStore = NewSubscriptionStoreDAO(db)
	appState.DonationStore = NewDonationStoreDAO(db)
	appState.DashboardStore = NewDashboardDAO(db)

	return nil
}

// NewPostgresConnForQueue creates a plain database/sql connection for the
// task queue. bun's pgdriver runs at an isolation level that is incompatible
// with watermill's SQL subscriber, so the queue gets its own pgx connection.
func NewPostgresConnForQueue(appState *models.AppState) (*sql.DB, error) {
	db, err := sql.Open("pgx", appState.Config.Store.Postgres.DSN)
	if err != nil {
		return nil, err
	}

	return db, nil
}

func generateLockID(key string) uint64 {
	hasher := sha256.New()
	hasher.Write([]byte(key))
	hash := hasher.Sum(nil)
	return binary.BigEndian.Uint64(hash[:8])
}

// tryAcquireAdvisoryLock attempts to acquire a PostgreSQL advisory lock using pg_try_advisory_lock.
// This function will fail if it's unable to immediately acquire a lock.
// Accepts a bun.IDB, which can be either a *bun.DB or *bun.Tx.
// Returns the lock ID and a boolean indicating if the lock was successfully acquired.
func tryAcquireAdvisoryLock(ctx context.Context, db bun.IDB, key string) (uint64, error) {
	lockID := generateLockID(key)

	var acquired bool
	if err := db.QueryRowContext(ctx, "SELECT pg_try_advisory_lock(?)", lockID).Scan(&acquired); err != nil {
		return 0, fmt.Errorf("tryAcquireAdvisoryLock: %w", err)
	}
	if !acquired {
		return 0, models.NewAdvisoryLockError(fmt.Errorf("failed to acquire advisory lock for %s", key))
	}
	return lockID, nil
}

// releaseAdvisoryLock releases a PostgreSQL advisory lock for the given key.
// Accepts a bun.IDB, which can be either a *bun.DB or *bun.Tx.
func releaseAdvisoryLock(ctx context.Context, db bun.IDB, lockID uint64) error {
	if _, err := db.ExecContext(ctx, "SELECT pg_advisory_unlock(?)", lockID); err != nil {
		return store.NewStorageError("failed to release advisory lock", err)
	}

	return nil
}

// rollbackOnError rolls back the transaction if an error is encountered.
// If the error is sql.ErrTxDone, the transaction has already been committed or rolled back
// and we ignore the error.
func rollbackOnError(tx bun.Tx) {
	if rollBackErr := tx.Rollback(); rollBackErr != nil && !errors.Is(rollBackErr, sql.ErrTxDone) {
		log.Error("failed to rollback transaction", rollBackErr)
	}
}
