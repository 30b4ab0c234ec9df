package worker

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Filter is a conjunction; empty fields are ignored. Name matches a
// case-insensitive substring, the rest match exactly.
type Filter struct {
	Name         string
	AadharNumber string
	MobileNumber string
	Department   string
	Designation  string
	Site         string
}

//go:generate mockgen -source=worker_repo.go -destination=mock/worker_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, w *Worker) error
	ExistsByAadhar(ctx context.Context, aadharNumber string) (bool, error)
	FindByID(ctx context.Context, workerID string) (*Worker, error)
	FindByIDs(ctx context.Context, workerIDs []string) ([]Worker, error)
	FindAll(ctx context.Context, filter Filter) ([]Worker, error)
	// UpdateFields writes already-allowlisted columns and reports matched rows.
	UpdateFields(ctx context.Context, workerID string, columns map[string]any) (int64, error)
	Delete(ctx context.Context, workerID string) (int64, error)
	ListIDs(ctx context.Context) ([]string, error)
}

type repository struct {
	db *gorm.DB
	tx *sql.Tx
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{
		db: r.db,
		tx: tx,
	}
}

// conn routes statements through the bound transaction when there is one.
func (r *repository) conn(ctx context.Context) *gorm.DB {
	db := r.db.WithContext(ctx)
	if r.tx != nil {
		db = db.Session(&gorm.Session{NewDB: true})
		db.Statement.ConnPool = r.tx
	}
	return db
}

func (r *repository) Create(ctx context.Context, w *Worker) error {
	return r.conn(ctx).Create(w).Error
}

func (r *repository) ExistsByAadhar(ctx context.Context, aadharNumber string) (bool, error) {
	var count int64
	err := r.conn(ctx).
		Model(&Worker{}).
		Where("aadhar_number = ?", aadharNumber).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) FindByID(ctx context.Context, workerID string) (*Worker, error) {
	var w Worker
	err := r.conn(ctx).
		First(&w, "worker_id = ?", workerID).Error
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *repository) FindByIDs(ctx context.Context, workerIDs []string) ([]Worker, error) {
	var workers []Worker
	if len(workerIDs) == 0 {
		return workers, nil
	}
	err := r.conn(ctx).
		Where("worker_id IN ?", workerIDs).
		Order("seq ASC").
		Find(&workers).Error
	return workers, err
}

func (r *repository) FindAll(ctx context.Context, filter Filter) ([]Worker, error) {
	var workers []Worker
	err := r.conn(ctx).
		Scopes(filterScope(filter)).
		Order("seq ASC").
		Find(&workers).Error
	return workers, err
}

func filterScope(f Filter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if f.Name != "" {
			db = db.Where(`LOWER(name) LIKE LOWER(?) ESCAPE '\'`, "%"+escapeLike(f.Name)+"%")
		}
		if f.AadharNumber != "" {
			db = db.Where("aadhar_number = ?", f.AadharNumber)
		}
		if f.MobileNumber != "" {
			db = db.Where("mobile_number = ?", f.MobileNumber)
		}
		if f.Department != "" {
			db = db.Where("department = ?", f.Department)
		}
		if f.Designation != "" {
			db = db.Where("designation = ?", f.Designation)
		}
		if f.Site != "" {
			db = db.Where("site = ?", f.Site)
		}
		return db
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes user input match literally inside a LIKE pattern.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func (r *repository) UpdateFields(ctx context.Context, workerID string, columns map[string]any) (int64, error) {
	values := make(map[string]any, len(columns)+1)
	for k, v := range columns {
		values[k] = v
	}
	values["updated_at"] = time.Now()

	res := r.conn(ctx).
		Model(&Worker{}).
		Where("worker_id = ?", workerID).
		Updates(values)
	return res.RowsAffected, res.Error
}

func (r *repository) Delete(ctx context.Context, workerID string) (int64, error) {
	res := r.conn(ctx).
		Where("worker_id = ?", workerID).
		Delete(&Worker{})
	return res.RowsAffected, res.Error
}

func (r *repository) ListIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.conn(ctx).
		Model(&Worker{}).
		Order("seq ASC").
		Pluck("worker_id", &ids).Error
	return ids, err
}
