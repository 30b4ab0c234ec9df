package stats

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type DepartmentCount struct {
	Department string
	Count      int64
}

//go:generate mockgen -source=stats_repo.go -destination=mock/stats_repo_mock.go -package=mock
type Repository interface {
	CountWorkers(ctx context.Context) (int64, error)
	CountCreatedSince(ctx context.Context, since time.Time) (int64, error)
	CountByDepartment(ctx context.Context) ([]DepartmentCount, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CountWorkers(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Table("workers").
		Count(&total).Error
	return total, err
}

func (r *repository) CountCreatedSince(ctx context.Context, since time.Time) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Table("workers").
		Where("created_at >= ?", since).
		Count(&total).Error
	return total, err
}

// CountByDepartment groups on the raw column; blank departments are folded
// together by the service.
func (r *repository) CountByDepartment(ctx context.Context) ([]DepartmentCount, error) {
	var rows []DepartmentCount
	err := r.db.WithContext(ctx).
		Table("workers").
		Select("COALESCE(department, '') AS department, COUNT(*) AS count").
		Group("department").
		Scan(&rows).Error
	return rows, err
}
