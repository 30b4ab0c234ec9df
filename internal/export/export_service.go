package export

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"go-idcard/internal/shared/apperror"
	"go-idcard/internal/worker"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const (
	SheetName   = "Workers"
	FileName    = "workers.xlsx"
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	dateLayout = "2006-01-02"
)

var ErrNoIDs = apperror.New(
	apperror.CodeInvalidInput,
	"At least one worker ID is required",
	http.StatusBadRequest,
)

var ErrWorkbook = apperror.New(
	apperror.CodeInternalError,
	"Failed to build spreadsheet",
	http.StatusInternalServerError,
)

var Header = []string{
	"Worker ID", "Name", "Father Name", "Holder Name", "Marital Status", "Gender",
	"Date of Birth", "Date of Joining", "Department", "Designation", "Site",
	"Mobile Number", "Aadhar Number", "Account Number", "IFSC", "Bank Name", "Remarks",
	"Registered At",
}

//go:generate mockgen -source=export_service.go -destination=mock/export_service_mock.go -package=mock
type Service interface {
	// Workbook renders the listed workers in request order. Unknown ids are skipped.
	Workbook(ctx context.Context, ids []string) (*bytes.Buffer, error)
}

type service struct {
	repo   worker.Repository
	logger *zap.Logger
}

func NewService(repo worker.Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("export.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("export.service")
	}
	return &service{repo: repo, logger: l}
}

func (s *service) Workbook(ctx context.Context, ids []string) (*bytes.Buffer, error) {
	ids = dedupe(ids)
	if len(ids) == 0 {
		return nil, ErrNoIDs
	}

	found, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		s.logger.Error("export lookup failed", zap.Int("ids", len(ids)), zap.Error(err))
		return nil, apperror.ErrInternal.WithCause(err)
	}

	byID := make(map[string]worker.Worker, len(found))
	for _, w := range found {
		byID[w.WorkerID] = w
	}
	ordered := make([]worker.Worker, 0, len(found))
	for _, id := range ids {
		if w, ok := byID[id]; ok {
			ordered = append(ordered, w)
		}
	}

	buf, err := render(ordered)
	if err != nil {
		s.logger.Error("export render failed", zap.Error(err))
		return nil, ErrWorkbook.WithCause(err)
	}

	s.logger.Info("export workbook built",
		zap.Int("requested", len(ids)),
		zap.Int("rows", len(ordered)),
	)
	return buf, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func render(workers []worker.Worker) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, err
	}

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return nil, err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	header := make([]any, len(Header))
	for i, h := range Header {
		header[i] = excelize.Cell{StyleID: bold, Value: h}
	}
	if err := sw.SetRow("A1", header); err != nil {
		return nil, err
	}

	for i, w := range workers {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := sw.SetRow(cell, row(w)); err != nil {
			return nil, err
		}
	}
	if err := sw.Flush(); err != nil {
		return nil, err
	}

	return f.WriteToBuffer()
}

// row keeps identifiers and numbers as text so leading zeros survive.
func row(w worker.Worker) []any {
	return []any{
		w.WorkerID, w.Name, w.FatherName, w.HolderName, w.MaritalStatus, w.Gender,
		formatDate(w.DateOfBirth), formatDate(w.DateOfJoining),
		w.Department, w.Designation, w.Site,
		w.MobileNumber, w.AadharNumber, w.AccountNumber, w.IFSC, w.BankName, w.Remarks,
		w.CreatedAt.Format(time.DateTime),
	}
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateLayout)
}
