package idcard

import (
	"bytes"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/go-pdf/fpdf"
)

const (
	cardWidthMM  = 85.6
	cardHeightMM = 54.0

	photoX = 4.0
	photoY = 13.0
	photoW = 22.0
	photoH = 28.0
	textX  = 30.0
)

// Photo is an image to place on the card. Type is "JPG" or "PNG".
type Photo struct {
	Data []byte
	Type string
}

// PhotoType maps a stored key to the fpdf image type, "" when unsupported.
func PhotoType(key string) string {
	switch strings.ToLower(path.Ext(key)) {
	case ".jpg", ".jpeg":
		return "JPG"
	case ".png":
		return "PNG"
	}
	return ""
}

// Render draws a single landscape card. photo may be nil.
func Render(out io.Writer, card CardView, photo *Photo) error {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: cardWidthMM, Ht: cardHeightMM},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle("ID Card "+card.WorkerID, true)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	// header band
	pdf.SetFillColor(22, 62, 120)
	pdf.Rect(0, 0, cardWidthMM, 10, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetXY(0, 2.5)
	pdf.CellFormat(cardWidthMM, 5, "WORKER IDENTITY CARD", "", 0, "C", false, 0, "")

	pdf.SetDrawColor(160, 160, 160)
	pdf.Rect(photoX, photoY, photoW, photoH, "D")
	if photo != nil && len(photo.Data) > 0 {
		opts := fpdf.ImageOptions{ImageType: photo.Type}
		name := "photo-" + card.WorkerID
		pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(photo.Data))
		if pdf.Err() {
			return fmt.Errorf("register photo: %w", pdf.Error())
		}
		pdf.ImageOptions(name, photoX, photoY, photoW, photoH, false, opts, 0, "")
	} else {
		pdf.SetTextColor(150, 150, 150)
		pdf.SetFont("Helvetica", "", 6)
		pdf.SetXY(photoX, photoY+photoH/2-2)
		pdf.CellFormat(photoW, 4, "NO PHOTO", "", 0, "C", false, 0, "")
	}

	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetXY(textX, photoY)
	pdf.CellFormat(cardWidthMM-textX-3, 5, tr(card.Name), "", 1, "L", false, 0, "")

	lines := [][2]string{
		{"ID", card.WorkerID},
		{"Father", card.FatherName},
		{"Dept", card.Department},
		{"Role", card.Designation},
		{"Site", card.Site},
		{"Mobile", card.MobileNumber},
		{"DOB", card.DateOfBirth},
		{"DOJ", card.DateOfJoining},
	}
	y := photoY + 5.5
	for _, l := range lines {
		if l[1] == "" {
			continue
		}
		pdf.SetXY(textX, y)
		pdf.SetFont("Helvetica", "B", 6.5)
		pdf.CellFormat(11, 3.6, l[0], "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 6.5)
		pdf.CellFormat(cardWidthMM-textX-14, 3.6, tr(l[1]), "", 0, "L", false, 0, "")
		y += 3.9
	}

	pdf.SetFillColor(22, 62, 120)
	pdf.Rect(0, cardHeightMM-4, cardWidthMM, 4, "F")

	return pdf.Output(out)
}
