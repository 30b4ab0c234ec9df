package stats_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"go-idcard/internal/stats"
	"go-idcard/internal/worker"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&worker.Worker{}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

func seed(t *testing.T, db *gorm.DB, n int, dept string, createdAt time.Time) {
	t.Helper()
	require.NoError(t, db.Create(&worker.Worker{
		WorkerID:     fmt.Sprintf("JRCW%d", n),
		Name:         fmt.Sprintf("Worker %d", n),
		Department:   dept,
		AadharNumber: fmt.Sprintf("%012d", n),
		CreatedAt:    createdAt,
	}).Error)
}

func TestStatsRepository(t *testing.T) {
	db := newTestDB(t)
	repo := stats.NewRepository(db)
	ctx := context.Background()

	now := time.Now()
	yesterday := now.Add(-36 * time.Hour)
	seed(t, db, 1, "Civil", yesterday)
	seed(t, db, 2, "Civil", now)
	seed(t, db, 3, "", now.Add(-time.Minute))

	total, err := repo.CountWorkers(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	today, err := repo.CountCreatedSince(ctx, now.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), today)

	rows, err := repo.CountByDepartment(ctx)
	require.NoError(t, err)
	byDept := map[string]int64{}
	for _, r := range rows {
		byDept[r.Department] = r.Count
	}
	assert.Equal(t, map[string]int64{"Civil": 2, "": 1}, byDept)
}
