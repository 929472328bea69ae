package documents

import (
	"errors"

	pdf "rsc.io/pdf"
)

// SniffPDF opens the uploaded file and returns its page count. Proof
// documents that parse to zero pages are rejected at upload time instead of
// surfacing later in the admin review.
func SniffPDF(filePath string) (int, error) {
	r, err := pdf.Open(filePath)
	if err != nil {
		return 0, err
	}
	total := r.NumPage()
	if total == 0 {
		return 0, errors.New("pdf sem páginas legíveis")
	}
	return total, nil
}
