package export_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"go-idcard/internal/export"
	"go-idcard/internal/shared/apperror"
	"go-idcard/internal/worker"
	workerMock "go-idcard/internal/worker/mock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/mock/gomock"
)

func readRows(t *testing.T, buf *bytes.Buffer) [][]string {
	t.Helper()
	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(export.SheetName)
	require.NoError(t, err)
	return rows
}

func TestExportService_Workbook(t *testing.T) {
	ctx := context.Background()
	dob := time.Date(1990, 4, 12, 0, 0, 0, 0, time.UTC)

	t.Run("rows follow the requested order", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := workerMock.NewMockRepository(ctrl)
		svc := export.NewService(repo)

		repo.EXPECT().FindByIDs(gomock.Any(), []string{"JRCW3", "JRCW1", "JRCW9"}).Return([]worker.Worker{
			{WorkerID: "JRCW1", Name: "Ravi Kumar", AadharNumber: "012345678901", DateOfBirth: &dob},
			{WorkerID: "JRCW3", Name: "Anita Devi", AadharNumber: "123412341234"},
		}, nil)

		buf, err := svc.Workbook(ctx, []string{"JRCW3", "JRCW1", "JRCW3", "JRCW9"})
		require.NoError(t, err)

		rows := readRows(t, buf)
		require.Len(t, rows, 3)
		assert.Equal(t, export.Header, rows[0])
		assert.Equal(t, "JRCW3", rows[1][0])
		assert.Equal(t, "Anita Devi", rows[1][1])
		assert.Equal(t, "JRCW1", rows[2][0])
		assert.Equal(t, "1990-04-12", rows[2][6])
		assert.Equal(t, "012345678901", rows[2][12])
	})

	t.Run("empty ids", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		svc := export.NewService(workerMock.NewMockRepository(ctrl))

		_, err := svc.Workbook(ctx, nil)
		assert.ErrorIs(t, err, export.ErrNoIDs)

		_, err = svc.Workbook(ctx, []string{""})
		assert.ErrorIs(t, err, export.ErrNoIDs)
	})

	t.Run("no matches still yields a header", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := workerMock.NewMockRepository(ctrl)
		svc := export.NewService(repo)
		repo.EXPECT().FindByIDs(gomock.Any(), gomock.Any()).Return(nil, nil)

		buf, err := svc.Workbook(ctx, []string{"JRCW404"})
		require.NoError(t, err)
		assert.Len(t, readRows(t, buf), 1)
	})

	t.Run("store failure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := workerMock.NewMockRepository(ctrl)
		svc := export.NewService(repo)
		repo.EXPECT().FindByIDs(gomock.Any(), gomock.Any()).Return(nil, errors.New("db down"))

		_, err := svc.Workbook(ctx, []string{"JRCW1"})
		assert.ErrorIs(t, err, apperror.ErrInternal)
	})
}
