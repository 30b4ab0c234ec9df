package worker

import (
	"sort"
	"strings"
	"time"

	"go-idcard/internal/idalloc"
	workererrors "go-idcard/internal/worker/errors"
)

const (
	DefaultPageSize = 25
	MaxPageSize     = 100
	DefaultSortBy   = "workerID"
)

type lessFunc func(a, b *Worker) int

func byText(get func(*Worker) string) lessFunc {
	return func(a, b *Worker) int {
		return strings.Compare(strings.ToLower(get(a)), strings.ToLower(get(b)))
	}
}

// nil dates sort before set ones
func byDate(get func(*Worker) *time.Time) lessFunc {
	return func(a, b *Worker) int {
		da, db := get(a), get(b)
		switch {
		case da == nil && db == nil:
			return 0
		case da == nil:
			return -1
		case db == nil:
			return 1
		}
		return da.Compare(*db)
	}
}

var sortKeys = map[string]lessFunc{
	"workerID":      func(a, b *Worker) int { return idalloc.Compare(a.WorkerID, b.WorkerID) },
	"name":          byText(func(w *Worker) string { return w.Name }),
	"fatherName":    byText(func(w *Worker) string { return w.FatherName }),
	"holderName":    byText(func(w *Worker) string { return w.HolderName }),
	"maritalStatus": byText(func(w *Worker) string { return w.MaritalStatus }),
	"gender":        byText(func(w *Worker) string { return w.Gender }),
	"dateOfBirth":   byDate(func(w *Worker) *time.Time { return w.DateOfBirth }),
	"dateOfJoining": byDate(func(w *Worker) *time.Time { return w.DateOfJoining }),
	"department":    byText(func(w *Worker) string { return w.Department }),
	"designation":   byText(func(w *Worker) string { return w.Designation }),
	"site":          byText(func(w *Worker) string { return w.Site }),
	"mobileNumber":  byText(func(w *Worker) string { return w.MobileNumber }),
	"aadharNumber":  byText(func(w *Worker) string { return w.AadharNumber }),
	"accountNumber": byText(func(w *Worker) string { return w.AccountNumber }),
	"ifsc":          byText(func(w *Worker) string { return w.IFSC }),
	"bankName":      byText(func(w *Worker) string { return w.BankName }),
	"remarks":       byText(func(w *Worker) string { return w.Remarks }),
	"createdAt":     func(a, b *Worker) int { return a.CreatedAt.Compare(b.CreatedAt) },
}

// sortWorkers orders in place. Without a key it falls back to newest
// workerID first; ties keep insertion order.
func sortWorkers(workers []Worker, sortBy, sortDir string) error {
	if sortBy == "" {
		sortBy = DefaultSortBy
		if sortDir == "" {
			sortDir = "desc"
		}
	}
	cmp, ok := sortKeys[sortBy]
	if !ok {
		return workererrors.ErrInvalidSort.WithDetails(sortBy)
	}
	desc := strings.EqualFold(sortDir, "desc")

	sort.SliceStable(workers, func(i, j int) bool {
		c := cmp(&workers[i], &workers[j])
		if desc {
			return c > 0
		}
		return c < 0
	})
	return nil
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}

func paginate(workers []Worker, page, pageSize int) []Worker {
	start := (page - 1) * pageSize
	if start > len(workers) {
		start = len(workers)
	}
	end := start + pageSize
	if end > len(workers) {
		end = len(workers)
	}
	return workers[start:end]
}
