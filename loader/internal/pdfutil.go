package internal

import (
	"errors"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// ErrInvalidPDF marks files that pdfcpu cannot parse as PDF.
var ErrInvalidPDF = errors.New("invalid pdf")

// ValidatePDF проверяет структуру PDF в нестрогом режиме.
func ValidatePDF(path string) error {
	conf := api.LoadConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	if err := api.ValidateFile(path, conf); err != nil {
		return fmt.Errorf("%s: %w: %v", path, ErrInvalidPDF, err)
	}
	return nil
}
