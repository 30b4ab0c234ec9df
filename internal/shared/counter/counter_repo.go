package counter

import (
	"context"
	"regexp"

	"gorm.io/gorm"
)

//go:generate mockgen -destination=mock/counter_repo_mock.go -package=mock . Repository
type Repository interface {
	// NextValue atomically advances the counter for prefix and returns the new value.
	NextValue(ctx context.Context, prefix string) (int64, error)
	// PeekValue returns the value NextValue would hand out, without advancing.
	PeekValue(ctx context.Context, prefix string) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// suffixPattern matches identifiers made of prefix followed only by digits,
// so hand-seeded rows with foreign formats never poison the maximum.
func suffixPattern(prefix string) string {
	return "^" + regexp.QuoteMeta(prefix) + "[0-9]+$"
}

func (r *repository) NextValue(ctx context.Context, prefix string) (int64, error) {
	var nextValue int64

	// The counter row serializes concurrent allocations. GREATEST keeps the
	// sequence ahead of identifiers inserted without going through the counter.
	// The start offset is cast to int, otherwise Postgres resolves the regex
	// overload substring(text, text).
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO worker_id_counters (prefix, last_value, updated_at)
		VALUES (?, (
			SELECT COALESCE(MAX(CAST(SUBSTRING(worker_id FROM ?::int) AS BIGINT)), 0)
			FROM workers
			WHERE worker_id ~ ?::text
		) + 1, now())
		ON CONFLICT (prefix) DO UPDATE
		SET last_value = GREATEST(worker_id_counters.last_value, EXCLUDED.last_value - 1) + 1,
			updated_at = now()
		RETURNING last_value
	`, prefix, len(prefix)+1, suffixPattern(prefix)).Scan(&nextValue).Error

	if err != nil {
		return 0, err
	}

	return nextValue, nil
}

func (r *repository) PeekValue(ctx context.Context, prefix string) (int64, error) {
	var current int64

	err := r.db.WithContext(ctx).Raw(`
		SELECT GREATEST(
			COALESCE((SELECT last_value FROM worker_id_counters WHERE prefix = ?), 0),
			COALESCE((
				SELECT MAX(CAST(SUBSTRING(worker_id FROM ?::int) AS BIGINT))
				FROM workers
				WHERE worker_id ~ ?::text
			), 0)
		)
	`, prefix, len(prefix)+1, suffixPattern(prefix)).Scan(&current).Error

	if err != nil {
		return 0, err
	}

	return current + 1, nil
}
