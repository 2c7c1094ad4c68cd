package document

import (
	"fmt"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/rs/zerolog/log"
)

// ProbeResult is what pdfcpu can tell about a PDF without rendering it.
type ProbeResult struct {
	PageCount int    `json:"page_count"`
	Valid     bool   `json:"valid"`
	Locked    bool   `json:"locked"`
	Problem   string `json:"problem,omitempty"`
}

// Prober inspects a file structurally.
type Prober interface {
	Probe(path string) (ProbeResult, error)
}

// PDFProber checks PDF structure with pdfcpu.
type PDFProber struct{}

// Probe reads the cross-reference table and page tree of the PDF at path.
// A file pdfcpu cannot read is reported through the result, not as an error;
// the error return is reserved for the file being unreadable.
func (PDFProber) Probe(path string) (ProbeResult, error) {
	var res ProbeResult
	if _, err := os.Stat(path); err != nil {
		return res, err
	}

	n, err := api.PageCountFile(path)
	if err != nil {
		res.Problem = err.Error()
		res.Locked = looksLocked(err)
		log.Debug().Err(err).Str("path", path).Bool("locked", res.Locked).Msg("pdfcpu could not count pages")
		return res, nil
	}
	res.PageCount = n

	conf := model.NewDefaultConfiguration()
	if err := api.ValidateFile(path, conf); err != nil {
		res.Problem = fmt.Sprintf("validation: %v", err)
		res.Locked = looksLocked(err)
		return res, nil
	}
	res.Valid = true
	return res, nil
}
