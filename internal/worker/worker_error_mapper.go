package worker

import (
	"errors"
	"strings"

	"go-idcard/internal/shared/apperror"
	workererrors "go-idcard/internal/worker/errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

func mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return workererrors.ErrWorkerNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		if pgErr.ConstraintName == "uq_workers_aadhar_number" {
			return workererrors.ErrDuplicateAadhar
		}
	}

	// sqlite and drivers that do not surface a PgError
	errMsg := strings.ToLower(err.Error())
	isUnique := strings.Contains(errMsg, "duplicate key value") || strings.Contains(errMsg, "unique constraint")
	if isUnique && strings.Contains(errMsg, "aadhar_number") {
		return workererrors.ErrDuplicateAadhar
	}

	return workererrors.ErrStore.WithCause(err)
}
