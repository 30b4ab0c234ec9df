package document

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go-idcard/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.Gray{Y: 200})
	}
	p := filepath.Join(dir, name)
	f, err := os.Create(p)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return p
}

func writeJPEG(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	p := filepath.Join(dir, name)
	f, err := os.Create(p)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, jpeg.Encode(f, img, nil))
	return p
}

func setup(t *testing.T) (Assembler, string, string) {
	t.Helper()
	root := t.TempDir()
	store, err := storage.NewLocal(root)
	require.NoError(t, err)
	return NewAssembler(store), root, t.TempDir()
}

func pageCount(t *testing.T, path string) int {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(b, []byte("%PDF-")))
	return strings.Count(string(b), "/Type /Page\n")
}

func TestAssemble_NoImages(t *testing.T) {
	a, root, _ := setup(t)

	key, err := a.Assemble(context.Background(), CategoryTax, nil, "JRCW1")
	require.NoError(t, err)
	assert.Nil(t, key)

	_, err = os.Stat(filepath.Join(root, "JRCW1"))
	assert.True(t, os.IsNotExist(err))
}

func TestAssemble_SingleImage(t *testing.T) {
	a, root, staging := setup(t)
	src := writePNG(t, staging, "front.png", 40, 20)

	key, err := a.Assemble(context.Background(), CategoryIdentity, []string{src}, "JRCW1")
	require.NoError(t, err)
	require.NotNil(t, key)
	assert.Equal(t, "JRCW1/JRCW1_Aadhar.pdf", *key)
	assert.Equal(t, 1, pageCount(t, filepath.Join(root, "JRCW1", "JRCW1_Aadhar.pdf")))

	_, err = os.Stat(src)
	assert.True(t, os.IsNotExist(err), "source image should be removed")
}

func TestAssemble_MultipleImagesMixedFormats(t *testing.T) {
	a, root, staging := setup(t)
	front := writePNG(t, staging, "front.png", 30, 60)
	back := writeJPEG(t, staging, "back.JPG", 60, 30)

	key, err := a.Assemble(context.Background(), CategoryBank, []string{front, back}, "JRCW7")
	require.NoError(t, err)
	require.NotNil(t, key)
	assert.Equal(t, 2, pageCount(t, filepath.Join(root, "JRCW7", "JRCW7_Bank.pdf")))
}

func TestAssemble_MissingInputSkipped(t *testing.T) {
	a, root, staging := setup(t)
	front := writePNG(t, staging, "front.png", 10, 10)
	missing := filepath.Join(staging, "gone.png")

	key, err := a.Assemble(context.Background(), CategoryIdentity, []string{front, missing}, "JRCW2")
	require.NoError(t, err)
	require.NotNil(t, key)
	assert.Equal(t, 1, pageCount(t, filepath.Join(root, "JRCW2", "JRCW2_Aadhar.pdf")))
}

func TestAssemble_AllInputsMissing(t *testing.T) {
	a, _, staging := setup(t)

	key, err := a.Assemble(context.Background(), CategoryIdentity,
		[]string{filepath.Join(staging, "a.png"), filepath.Join(staging, "b.png")}, "JRCW3")
	require.NoError(t, err)
	assert.Nil(t, key)
}

func TestAssemble_ContentDecidesFormat(t *testing.T) {
	a, root, staging := setup(t)
	jpegNamedPNG := writeJPEG(t, staging, "front.png", 40, 20)
	pngNamedJPG := writePNG(t, staging, "back.jpg", 20, 40)

	key, err := a.Assemble(context.Background(), CategoryIdentity, []string{jpegNamedPNG, pngNamedJPG}, "JRCW5")
	require.NoError(t, err)
	require.NotNil(t, key)
	assert.Equal(t, 2, pageCount(t, filepath.Join(root, "JRCW5", "JRCW5_Aadhar.pdf")))
}

func TestAssemble_UndecodableImagesSkipped(t *testing.T) {
	t.Run("bad page is dropped, rest kept", func(t *testing.T) {
		a, root, staging := setup(t)
		good := writePNG(t, staging, "good.png", 10, 10)
		bmp := filepath.Join(staging, "scan.bmp")
		require.NoError(t, os.WriteFile(bmp, []byte("BM"), 0o644))
		truncated := filepath.Join(staging, "cut.png")
		require.NoError(t, os.WriteFile(truncated, []byte("\x89PNG\r\n\x1a\nnot really"), 0o644))

		key, err := a.Assemble(context.Background(), CategoryTax, []string{bmp, good, truncated}, "JRCW4")
		require.NoError(t, err)
		require.NotNil(t, key)
		assert.Equal(t, 1, pageCount(t, filepath.Join(root, "JRCW4", "JRCW4_PAN.pdf")))

		_, err = os.Stat(good)
		assert.True(t, os.IsNotExist(err), "rendered source should be removed")
		_, err = os.Stat(bmp)
		assert.NoError(t, err, "skipped source is left for staging cleanup")
	})

	t.Run("nothing decodable yields no artifact", func(t *testing.T) {
		a, root, staging := setup(t)
		p := filepath.Join(staging, "scan.png")
		require.NoError(t, os.WriteFile(p, []byte("not a png"), 0o644))

		key, err := a.Assemble(context.Background(), CategoryTax, []string{p}, "JRCW6")
		require.NoError(t, err)
		assert.Nil(t, key)
		_, err = os.Stat(filepath.Join(root, "JRCW6"))
		assert.True(t, os.IsNotExist(err))
	})
}

func TestAssemble_Failures(t *testing.T) {
	t.Run("unknown category", func(t *testing.T) {
		a, _, staging := setup(t)
		p := writePNG(t, staging, "x.png", 5, 5)

		_, err := a.Assemble(context.Background(), Category("Passport"), []string{p}, "JRCW4")
		assert.ErrorIs(t, err, ErrAssembly)
	})
}

func TestSavePhoto(t *testing.T) {
	a, root, staging := setup(t)
	src := writeJPEG(t, staging, "upload.JPEG", 8, 8)

	key, err := a.SavePhoto(context.Background(), src, "JRCW9", PhotoLeft)
	require.NoError(t, err)
	require.NotNil(t, key)
	assert.Equal(t, "JRCW9/JRCW9_photoLeft.jpeg", *key)

	_, err = os.Stat(filepath.Join(root, "JRCW9", "JRCW9_photoLeft.jpeg"))
	assert.NoError(t, err)

	t.Run("empty source", func(t *testing.T) {
		key, err := a.SavePhoto(context.Background(), "", "JRCW9", PhotoRight)
		assert.NoError(t, err)
		assert.Nil(t, key)
	})
}

func TestFitBox(t *testing.T) {
	tests := []struct {
		name         string
		w, h         float64
		wantW, wantH float64
	}{
		{name: "tall", w: 100, h: 280, wantW: 250, wantH: 700},
		{name: "wide", w: 1000, h: 500, wantW: 500, wantH: 250},
		{name: "exact", w: 500, h: 700, wantW: 500, wantH: 700},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := fitBox(tt.w, tt.h)
			assert.InDelta(t, tt.wantW, w, 0.001)
			assert.InDelta(t, tt.wantH, h, 0.001)
		})
	}
}
