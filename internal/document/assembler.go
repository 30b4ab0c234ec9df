package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"go-idcard/internal/storage"

	"github.com/go-pdf/fpdf"
	"go.uber.org/zap"
)

//go:generate mockgen -source=assembler.go -destination=mock/assembler_mock.go -package=mock
type Assembler interface {
	// Assemble merges images into one PDF, one page per readable image, and
	// stores it under the namespace. No readable image yields a nil key.
	Assemble(ctx context.Context, category Category, images []string, namespace string) (*string, error)
	// SavePhoto moves a photo capture into the namespace unchanged.
	SavePhoto(ctx context.Context, src, namespace, label string) (*string, error)
}

type assembler struct {
	store  storage.Storage
	logger *zap.Logger
}

func NewAssembler(store storage.Storage, logger ...*zap.Logger) Assembler {
	l := zap.L().Named("document.assembler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("document.assembler")
	}
	return &assembler{store: store, logger: l}
}

func (a *assembler) Assemble(ctx context.Context, category Category, images []string, namespace string) (*string, error) {
	if !category.Valid() {
		return nil, ErrAssembly.WithCause(fmt.Errorf("unknown category %q", category))
	}
	if len(images) == 0 {
		return nil, nil
	}

	var buf bytes.Buffer
	rendered, err := a.renderPages(&buf, category, images)
	if err != nil {
		a.logger.Error("render pdf failed", zap.String("category", string(category)), zap.Error(err))
		return nil, ErrAssembly.WithCause(err)
	}
	if len(rendered) == 0 {
		a.logger.Warn("no readable images, artifact not produced", zap.String("category", string(category)))
		return nil, nil
	}

	key := DocumentKey(namespace, category)
	if err := a.store.Put(ctx, key, &buf, int64(buf.Len()), "application/pdf"); err != nil {
		a.logger.Error("store pdf failed", zap.String("key", key), zap.Error(err))
		return nil, ErrAssembly.WithCause(err)
	}

	for _, img := range rendered {
		if err := os.Remove(img); err != nil && !errors.Is(err, fs.ErrNotExist) {
			a.logger.Warn("remove source image failed", zap.String("path", img), zap.Error(err))
		}
	}

	a.logger.Info("document assembled",
		zap.String("key", key),
		zap.Int("pages", len(rendered)),
	)
	return &key, nil
}

func (a *assembler) SavePhoto(ctx context.Context, src, namespace, label string) (*string, error) {
	if src == "" {
		return nil, nil
	}
	if _, err := os.Stat(src); err != nil {
		a.logger.Warn("skipping unreadable photo", zap.String("label", label), zap.Error(err))
		return nil, nil
	}

	key := PhotoKey(namespace, label, strings.ToLower(filepath.Ext(src)))
	if err := a.store.PutFile(ctx, key, src); err != nil {
		a.logger.Error("store photo failed", zap.String("key", key), zap.Error(err))
		return nil, ErrAssembly.WithCause(err)
	}
	return &key, nil
}

// renderPages writes one A4 page per decodable image, each scaled to fit the
// content box and centered on the page. Images that are missing or not JPEG
// or PNG are skipped. It returns the images that made it into the document
// and writes nothing when there are none.
func (a *assembler) renderPages(out io.Writer, category Category, images []string) ([]string, error) {
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pageW, pageH := pdf.GetPageSize()

	skip := func(img, reason string, err error) {
		a.logger.Warn("skipping unreadable image",
			zap.String("category", string(category)),
			zap.String("path", img),
			zap.String("reason", reason),
			zap.Error(err),
		)
	}

	rendered := make([]string, 0, len(images))
	for i, img := range images {
		data, err := os.ReadFile(img)
		if err != nil {
			skip(img, "read", err)
			continue
		}
		tp := sniffImageType(data)
		if tp == "" {
			skip(img, "unsupported format", nil)
			continue
		}

		name := fmt.Sprintf("page-%d", i)
		opts := fpdf.ImageOptions{ImageType: tp}
		info := pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
		if pdf.Err() {
			skip(img, "decode", pdf.Error())
			pdf.ClearError()
			continue
		}

		w, h := fitBox(info.Width(), info.Height())
		pdf.AddPage()
		pdf.ImageOptions(name, (pageW-w)/2, (pageH-h)/2, w, h, false, opts, 0, "")
		rendered = append(rendered, img)
	}

	if len(rendered) == 0 {
		return nil, nil
	}
	if err := pdf.Output(out); err != nil {
		return nil, err
	}
	return rendered, nil
}

// fitBox scales (w, h) to the largest size inside the content box that keeps
// the aspect ratio.
func fitBox(w, h float64) (float64, float64) {
	if w <= 0 || h <= 0 {
		return boxWidth, boxHeight
	}
	scale := boxWidth / w
	if s := boxHeight / h; s < scale {
		scale = s
	}
	return w * scale, h * scale
}

// sniffImageType names the fpdf image type from the content, not the file
// name, so a JPEG uploaded as .png still renders.
func sniffImageType(data []byte) string {
	switch http.DetectContentType(data) {
	case "image/jpeg":
		return "JPG"
	case "image/png":
		return "PNG"
	default:
		return ""
	}
}
