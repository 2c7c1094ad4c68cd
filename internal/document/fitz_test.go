package document_test

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/local/pageviewer/internal/document"
	"github.com/local/pageviewer/internal/zoom"
)

// minimalPDF builds a one-page PDF with the given media box and a valid xref.
func minimalPDF(width, height int) []byte {
	objs := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %d %d] >>", width, height),
	}
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, o := range objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, o)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objs)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)
	return buf.Bytes()
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, data, 0o644))
	return p
}

func TestFitzDecoderRendersAtZoom(t *testing.T) {
	p := writeFile(t, "page.pdf", minimalPDF(200, 100))

	doc, err := document.NewFitzDecoder().Open(p)
	require.NoError(t, err)
	defer doc.Close()
	require.Equal(t, 1, doc.NumPage())

	page, err := doc.Page(0)
	require.NoError(t, err)
	defer page.Close()

	img, err := page.Rasterize(zoom.DPI(1.0))
	require.NoError(t, err)
	require.NotNil(t, img)
	assert.InDelta(t, 200, img.Bounds().Dx(), 1)
	assert.InDelta(t, 100, img.Bounds().Dy(), 1)

	img, err = page.Rasterize(zoom.DPI(1.2 * 1.2))
	require.NoError(t, err)
	assert.InDelta(t, 288, img.Bounds().Dx(), 1)
	assert.InDelta(t, 144, img.Bounds().Dy(), 1)
}

func TestFitzDecoderPageRange(t *testing.T) {
	p := writeFile(t, "page.pdf", minimalPDF(200, 100))

	doc, err := document.NewFitzDecoder().Open(p)
	require.NoError(t, err)
	defer doc.Close()

	for _, i := range []int{-1, 1, 5} {
		_, err := doc.Page(i)
		assert.ErrorContains(t, err, "out of range", "page %d", i)
	}
}

func TestFitzSessionCorruptFile(t *testing.T) {
	p := writeFile(t, "broken.pdf", []byte("this is not a document at all"))

	s := document.NewSession(document.Options{Decoder: document.NewFitzDecoder()})
	_, err := s.Open(p)
	requireReason(t, err, document.ReasonCorrupt)
	assert.False(t, s.Loaded())
}

func TestFitzSessionMissingFile(t *testing.T) {
	s := document.NewSession(document.Options{Decoder: document.NewFitzDecoder()})
	_, err := s.Open(filepath.Join(t.TempDir(), "absent.pdf"))
	requireReason(t, err, document.ReasonNotFound)
}
