package idcard_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"io"
	"strings"
	"testing"
	"time"

	"go-idcard/internal/document"
	"go-idcard/internal/idcard"
	"go-idcard/internal/storage"
	"go-idcard/internal/worker"
	workererrors "go-idcard/internal/worker/errors"
	workerMock "go-idcard/internal/worker/mock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"gorm.io/gorm"
)

type serviceDeps struct {
	service idcard.Service
	repo    *workerMock.MockRepository
	store   storage.Storage
}

func setupServiceTest(t *testing.T) *serviceDeps {
	ctrl := gomock.NewController(t)
	store, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)
	repo := workerMock.NewMockRepository(ctrl)
	return &serviceDeps{
		service: idcard.NewService(repo, store),
		repo:    repo,
		store:   store,
	}
}

func sampleWorker(photo *string) *worker.Worker {
	dob := time.Date(1990, 4, 12, 0, 0, 0, 0, time.UTC)
	return &worker.Worker{
		WorkerID:    "JRCW7",
		Name:        "Ravi Kumar",
		FatherName:  "Suresh Kumar",
		Department:  "Civil",
		Designation: "Mason",
		DateOfBirth: &dob,
		PhotoFront:  photo,
	}
}

func putPhoto(t *testing.T, store storage.Storage, key string) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 30, 40))))
	require.NoError(t, store.Put(context.Background(), key, &buf, int64(buf.Len()), "image/png"))
}

func readKey(t *testing.T, store storage.Storage, key string) []byte {
	t.Helper()
	rc, err := store.Open(context.Background(), key)
	require.NoError(t, err)
	defer rc.Close()
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	return b
}

func TestIDCardService_View(t *testing.T) {
	ctx := context.Background()

	t.Run("formats display dates and photo url", func(t *testing.T) {
		deps := setupServiceTest(t)
		photo := "JRCW7/JRCW7_photoFront.png"
		deps.repo.EXPECT().FindByID(gomock.Any(), "JRCW7").Return(sampleWorker(&photo), nil)

		view, err := deps.service.View(ctx, "JRCW7")
		require.NoError(t, err)
		assert.Equal(t, "12 Apr 1990", view.DateOfBirth)
		assert.Equal(t, "", view.DateOfJoining)
		assert.Equal(t, "/uploads/JRCW7/JRCW7_photoFront.png", *view.PhotoURL)
	})

	t.Run("not found", func(t *testing.T) {
		deps := setupServiceTest(t)
		deps.repo.EXPECT().FindByID(gomock.Any(), "JRCW404").Return(nil, gorm.ErrRecordNotFound)

		_, err := deps.service.View(ctx, "JRCW404")
		assert.ErrorIs(t, err, workererrors.ErrWorkerNotFound)
	})

	t.Run("store failure", func(t *testing.T) {
		deps := setupServiceTest(t)
		deps.repo.EXPECT().FindByID(gomock.Any(), gomock.Any()).Return(nil, errors.New("db down"))

		_, err := deps.service.View(ctx, "JRCW1")
		assert.ErrorIs(t, err, workererrors.ErrStore)
	})
}

func TestIDCardService_PDF(t *testing.T) {
	ctx := context.Background()

	t.Run("renders on demand with photo", func(t *testing.T) {
		deps := setupServiceTest(t)
		photo := "JRCW7/JRCW7_photoFront.png"
		putPhoto(t, deps.store, photo)
		deps.repo.EXPECT().FindByID(gomock.Any(), "JRCW7").Return(sampleWorker(&photo), nil)

		pdf, err := deps.service.PDF(ctx, "JRCW7")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(pdf), "%PDF-"))
		assert.Contains(t, string(pdf), "/Subtype /Image")
	})

	t.Run("missing photo falls back to placeholder", func(t *testing.T) {
		deps := setupServiceTest(t)
		photo := "JRCW7/JRCW7_photoFront.png"
		deps.repo.EXPECT().FindByID(gomock.Any(), "JRCW7").Return(sampleWorker(&photo), nil)

		pdf, err := deps.service.PDF(ctx, "JRCW7")
		require.NoError(t, err)
		assert.NotContains(t, string(pdf), "/Subtype /Image")
	})

	t.Run("serves the pre-rendered card", func(t *testing.T) {
		deps := setupServiceTest(t)
		require.NoError(t, deps.store.Put(ctx, document.CardKey("JRCW7"), strings.NewReader("%PDF-stored"), 11, "application/pdf"))
		deps.repo.EXPECT().FindByID(gomock.Any(), "JRCW7").Return(sampleWorker(nil), nil)

		pdf, err := deps.service.PDF(ctx, "JRCW7")
		require.NoError(t, err)
		assert.Equal(t, "%PDF-stored", string(pdf))
	})

	t.Run("unknown worker", func(t *testing.T) {
		deps := setupServiceTest(t)
		deps.repo.EXPECT().FindByID(gomock.Any(), "JRCW404").Return(nil, gorm.ErrRecordNotFound)

		_, err := deps.service.PDF(ctx, "JRCW404")
		assert.ErrorIs(t, err, workererrors.ErrWorkerNotFound)
	})
}

func TestIDCardService_Prerender(t *testing.T) {
	deps := setupServiceTest(t)
	ctx := context.Background()
	deps.repo.EXPECT().FindByID(gomock.Any(), "JRCW7").Return(sampleWorker(nil), nil)

	key, err := deps.service.Prerender(ctx, "JRCW7")
	require.NoError(t, err)
	assert.Equal(t, "JRCW7/JRCW7_IDCard.pdf", key)
	assert.True(t, strings.HasPrefix(string(readKey(t, deps.store, key)), "%PDF-"))
}
