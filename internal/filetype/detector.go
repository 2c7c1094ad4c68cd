package filetype

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog/log"
)

// FileTypeInfo contains detected file type information
type FileTypeInfo struct {
	MIMEType    string
	Extension   string
	IsPDF       bool
	Supported   bool
	Description string
}

// Detector handles file type detection using magic bytes
type Detector struct{}

// New creates a new file type detector
func New() *Detector {
	return &Detector{}
}

// Detect detects the actual file type using magic bytes, not filename
func (d *Detector) Detect(filePath string) (*FileTypeInfo, error) {
	mtype, err := mimetype.DetectFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to detect file type: %w", err)
	}

	mimeType := mtype.String()
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = mimeType[:i]
	}
	extension := mtype.Extension()

	log.Debug().Str("mime", mimeType).Str("ext", extension).Str("file", filePath).Msg("detected file type")

	// EPUB and CBZ are ZIP containers; mimetype only recognises EPUB by its
	// mimetype entry, so fall back to the extension for comic archives.
	if mimeType == "application/zip" {
		ext := strings.ToLower(filepath.Ext(filePath))
		switch ext {
		case ".cbz":
			mimeType = "application/vnd.comicbook+zip"
			extension = ".cbz"
		case ".epub":
			mimeType = "application/epub+zip"
			extension = ".epub"
		case ".xps", ".oxps":
			mimeType = "application/oxps"
			extension = ext
		default:
			log.Warn().Str("ext", ext).Msg("ZIP file with unrecognized extension")
		}
	}

	info := &FileTypeInfo{
		MIMEType:  mimeType,
		Extension: extension,
	}
	d.classify(info)

	return info, nil
}

// classify marks which types the MuPDF decoder can page through
func (d *Detector) classify(info *FileTypeInfo) {
	mimeType := info.MIMEType

	switch {
	case mimeType == "application/pdf":
		info.IsPDF = true
		info.Supported = true
		info.Description = "PDF document"

	case mimeType == "application/epub+zip":
		info.Supported = true
		info.Description = "EPUB e-book"

	case mimeType == "application/oxps", mimeType == "application/vnd.ms-xpsdocument":
		info.Supported = true
		info.Description = "XPS document"

	case mimeType == "application/vnd.comicbook+zip":
		info.Supported = true
		info.Description = "Comic book archive"

	case mimeType == "application/x-fictionbook+xml":
		info.Supported = true
		info.Description = "FictionBook"

	case mimeType == "application/x-mobipocket-ebook":
		info.Supported = true
		info.Description = "Mobipocket e-book"

	case mimeType == "image/png", mimeType == "image/jpeg", mimeType == "image/gif",
		mimeType == "image/bmp", mimeType == "image/tiff", mimeType == "image/x-portable-pixmap":
		info.Supported = true
		info.Description = "Image file"

	default:
		info.Supported = false
		info.Description = fmt.Sprintf("Unsupported file type: %s", mimeType)
	}
}
