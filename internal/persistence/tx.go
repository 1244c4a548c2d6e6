package persistence

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/spec-kit/aftersales-service/internal/repository"
	apperrors "github.com/spec-kit/aftersales-service/pkg/util"
)

// TxManager runs units of work inside serializable transactions. A
// serialization failure is retried once; a second failure surfaces as a
// generic transient conflict rather than one of the typed domain errors.
type TxManager struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewTxManager builds a TxManager over the pool.
func NewTxManager(pool *pgxpool.Pool, logger *zap.Logger) *TxManager {
	return &TxManager{pool: pool, logger: logger}
}

// InTx implements repository.TxRunner.
func (m *TxManager) InTx(ctx context.Context, fn func(repository.Repositories) error) error {
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		err = m.runOnce(ctx, fn)
		if err == nil || !isSerializationFailure(err) {
			return err
		}
		m.logger.Warn("serialization conflict, retrying transaction", zap.Int("attempt", attempt+1))
	}
	return apperrors.NewConflict("transient store conflict", nil)
}

func (m *TxManager) runOnce(ctx context.Context, fn func(repository.Repositories) error) error {
	tx, err := m.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := fn(repository.New(tx)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	// 40001 serialization_failure, 40P01 deadlock_detected
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}
