package document

import (
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/local/pageviewer/internal/filetype"
)

// TypeDetector checks a file before it reaches the decoder.
type TypeDetector interface {
	Detect(path string) (*filetype.FileTypeInfo, error)
}

// Options configures a Session.
type Options struct {
	Decoder Decoder
	// Detector rejects unsupported files up front. Nil skips detection.
	Detector TypeDetector
	// Prober refines the failure reason for PDFs MuPDF rejected. Nil skips it.
	Prober Prober
	// KeepOnFailedOpen defers releasing the current document until a new one
	// decodes. When false the current document is released before decoding,
	// so a failed open leaves the session empty.
	KeepOnFailedOpen bool
}

// OpenOption tunes a single Open call.
type OpenOption func(*openOptions)

type openOptions struct {
	cleanup func()
}

// WithCleanup registers fn to run when the document opened by this call is
// released, or immediately if the open fails.
func WithCleanup(fn func()) OpenOption {
	return func(o *openOptions) { o.cleanup = fn }
}

// Session holds zero or one open document.
type Session struct {
	opts Options

	doc     Document
	info    Info
	cleanup func()
}

// NewSession returns an empty session. A nil decoder defaults to MuPDF.
func NewSession(opts Options) *Session {
	if opts.Decoder == nil {
		opts.Decoder = NewFitzDecoder()
	}
	return &Session{opts: opts}
}

// Open replaces the current document with the one at path. On failure the
// returned error is a *LoadError and no new document is held.
func (s *Session) Open(path string, options ...OpenOption) (Info, error) {
	var o openOptions
	for _, fn := range options {
		fn(&o)
	}

	if !s.opts.KeepOnFailedOpen {
		s.release()
	}

	doc, info, err := s.decode(path)
	if err != nil {
		if o.cleanup != nil {
			o.cleanup()
		}
		log.Warn().Err(err).Str("path", path).Bool("kept_previous", s.doc != nil).Msg("document open failed")
		return Info{}, err
	}

	s.release()
	s.doc = doc
	s.info = info
	s.cleanup = o.cleanup

	log.Info().Str("path", path).Str("doc_id", info.ID).Int("pages", info.PageCount).Msg("document opened")
	return info, nil
}

func (s *Session) decode(path string) (Document, Info, error) {
	info := Info{Path: path}
	isPDF := false

	if s.opts.Detector != nil {
		ft, err := s.opts.Detector.Detect(path)
		if err != nil {
			return nil, Info{}, &LoadError{Path: path, Reason: classifyOpenError(err), Err: err}
		}
		if !ft.Supported {
			return nil, Info{}, &LoadError{Path: path, Reason: ReasonUnsupported, Err: errors.New(ft.Description)}
		}
		info.MIMEType = ft.MIMEType
		isPDF = ft.IsPDF
	}

	doc, err := s.opts.Decoder.Open(path)
	if err != nil {
		reason := classifyOpenError(err)
		if reason == ReasonCorrupt && isPDF && s.opts.Prober != nil {
			if res, perr := s.opts.Prober.Probe(path); perr == nil && res.Locked {
				reason = ReasonLocked
			}
		}
		return nil, Info{}, &LoadError{Path: path, Reason: reason, Err: err}
	}
	if doc == nil {
		return nil, Info{}, &LoadError{Path: path, Reason: ReasonCorrupt, Err: errors.New("decoder returned no document")}
	}

	n := doc.NumPage()
	if n < 0 {
		_ = doc.Close()
		return nil, Info{}, &LoadError{Path: path, Reason: ReasonCorrupt, Err: errors.New("negative page count")}
	}

	info.ID = uuid.NewString()
	info.PageCount = n
	return doc, info, nil
}

// release closes the held document, if any.
func (s *Session) release() {
	if s.doc == nil {
		return
	}
	if err := s.doc.Close(); err != nil {
		log.Warn().Err(err).Str("doc_id", s.info.ID).Msg("closing document")
	}
	if s.cleanup != nil {
		s.cleanup()
	}
	log.Debug().Str("doc_id", s.info.ID).Msg("document released")
	s.doc = nil
	s.info = Info{}
	s.cleanup = nil
}

// Close releases the held document. Used on shutdown.
func (s *Session) Close() {
	s.release()
}

// Loaded reports whether a document is open.
func (s *Session) Loaded() bool { return s.doc != nil }

// Document returns the open document, or nil.
func (s *Session) Document() Document { return s.doc }

// Info describes the open document; zero when nothing is open.
func (s *Session) Info() Info { return s.info }
