// Package document turns uploaded scans into one PDF per proof category and
// relocates photo captures into a worker's storage namespace.
package document

import (
	"net/http"

	"go-idcard/internal/shared/apperror"
)

// Category names double as the output file suffix.
type Category string

const (
	CategoryIdentity Category = "Aadhar"
	CategoryTax      Category = "PAN"
	CategoryBank     Category = "Bank"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryIdentity, CategoryTax, CategoryBank:
		return true
	}
	return false
}

const (
	PhotoFront = "photoFront"
	PhotoLeft  = "photoLeft"
	PhotoRight = "photoRight"
)

var ErrAssembly = apperror.New(
	apperror.CodeInternalError,
	"Failed to process uploaded documents",
	http.StatusInternalServerError,
)

// content box every page image is fitted into, in points
const (
	boxWidth  = 500.0
	boxHeight = 700.0
)

// DocumentKey is the deterministic key of an assembled category PDF.
func DocumentKey(namespace string, category Category) string {
	return namespace + "/" + namespace + "_" + string(category) + ".pdf"
}

// PhotoKey keeps the upload's extension.
func PhotoKey(namespace, label, ext string) string {
	return namespace + "/" + namespace + "_" + label + ext
}

// CardKey is where pre-rendered ID cards live.
func CardKey(namespace string) string {
	return namespace + "/" + namespace + "_IDCard.pdf"
}
