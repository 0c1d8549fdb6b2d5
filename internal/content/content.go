// Package content turns pasted text and uploaded documents into plain text.
package content

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

var (
	// ErrInput is the parent of every error caused by unusable caller input.
	ErrInput = errors.New("invalid input")

	ErrEmptyInput        = fmt.Errorf("%w: no text provided", ErrInput)
	ErrMissingInput      = fmt.Errorf("%w: no payload supplied", ErrInput)
	ErrUnsupportedFormat = fmt.Errorf("%w: unsupported file type, only .txt and .pdf are supported", ErrInput)
	ErrDecode            = fmt.Errorf("%w: file could not be decoded", ErrInput)
	ErrTooLarge          = fmt.Errorf("%w: file is too large", ErrInput)
)

const DefaultMaxUploadBytes = 10 << 20

type SourceKind int

const (
	DirectPaste SourceKind = iota
	FileUpload
)

func (k SourceKind) String() string {
	switch k {
	case DirectPaste:
		return "direct_paste"
	case FileUpload:
		return "file_upload"
	default:
		return fmt.Sprintf("SourceKind(%d)", int(k))
	}
}

// Payload carries either pasted text or an uploaded file.
type Payload struct {
	Text     string
	FileName string
	Body     io.Reader
}

// PageExtractor returns the text of each page of a PDF document, in order.
type PageExtractor interface {
	ExtractPages(data []byte) ([]string, error)
}

type Normalizer struct {
	pdf            PageExtractor
	maxUploadBytes int64
}

type Option func(*Normalizer)

func WithPageExtractor(pdf PageExtractor) Option {
	return func(n *Normalizer) {
		n.pdf = pdf
	}
}

func WithMaxUploadBytes(limit int64) Option {
	return func(n *Normalizer) {
		if limit > 0 {
			n.maxUploadBytes = limit
		}
	}
}

func NewNormalizer(opts ...Option) *Normalizer {
	n := &Normalizer{
		pdf:            PDFExtractor{},
		maxUploadBytes: DefaultMaxUploadBytes,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize returns the plain text of the payload.
func (n *Normalizer) Normalize(kind SourceKind, payload *Payload) (string, error) {
	if payload == nil {
		return "", ErrMissingInput
	}

	switch kind {
	case DirectPaste:
		if strings.TrimSpace(payload.Text) == "" {
			return "", ErrEmptyInput
		}
		return payload.Text, nil

	case FileUpload:
		if payload.Body == nil || payload.FileName == "" {
			return "", ErrMissingInput
		}
		return n.normalizeFile(payload.FileName, payload.Body)

	default:
		return "", fmt.Errorf("%w: unknown source kind %s", ErrInput, kind)
	}
}

func (n *Normalizer) normalizeFile(fileName string, body io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	if ext != ".txt" && ext != ".pdf" {
		return "", ErrUnsupportedFormat
	}

	data, err := io.ReadAll(io.LimitReader(body, n.maxUploadBytes+1))
	if err != nil {
		return "", fmt.Errorf("error reading %s: %w", fileName, err)
	}

	if int64(len(data)) > n.maxUploadBytes {
		return "", ErrTooLarge
	}

	if ext == ".txt" {
		return decodeText(data)
	}

	pages, err := n.pdf.ExtractPages(data)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecode, err)
	}

	return strings.Join(pages, "\n"), nil
}

func decodeText(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: invalid UTF-8 at byte %d", ErrDecode, invalidOffset(data))
	}
	return string(data), nil
}

func invalidOffset(data []byte) int {
	for i := 0; i < len(data); {
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size == 1 {
			return i
		}
		i += size
	}
	return len(data)
}

// IsSupportedFile reports whether the file name has an extension Normalize accepts.
func IsSupportedFile(fileName string) bool {
	ext := strings.ToLower(filepath.Ext(fileName))
	return ext == ".txt" || ext == ".pdf"
}
