package validation

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"strings"
)

// Kind classifies why an upload was rejected. Callers only ever show a single
// "invalid file" message; the kind is kept for logs and metrics.
type Kind string

const (
	KindMissingExtension     Kind = "missing_extension"
	KindUnsupportedExtension Kind = "unsupported_extension"
	KindCorrupt              Kind = "corrupt"
	KindUnsupportedFormat    Kind = "unsupported_format"
	KindTooLarge             Kind = "too_large"
	KindUnreadable           Kind = "unreadable"
)

// ErrInvalidImage matches every *Error via errors.Is
var ErrInvalidImage = errors.New("invalid image")

// Error is returned for any rejected upload
type Error struct {
	Kind     Kind
	Filename string
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid image %q (%s): %v", e.Filename, e.Kind, e.Err)
	}
	return fmt.Sprintf("invalid image %q (%s)", e.Filename, e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	return target == ErrInvalidImage
}

// KindOf returns the rejection kind of err, or "" if err is not a validation error
func KindOf(err error) Kind {
	var vErr *Error
	if errors.As(err, &vErr) {
		return vErr.Kind
	}
	return ""
}

// Upload is a named, seekable byte stream. multipart.File satisfies io.ReadSeeker.
type Upload struct {
	Filename string
	Content  io.ReadSeeker
}

// Result describes an upload that passed validation
type Result struct {
	Extension string
	Format    string
	MIMEType  string
	Width     int
	Height    int
	Image     image.Image
}

// DefaultAllowedExtensions are the suffixes accepted for uploads
var DefaultAllowedExtensions = []string{"png", "jpg", "jpeg", "gif"}

// DefaultMaxPixels bounds width*height before a full decode is attempted
const DefaultMaxPixels int64 = 40_000_000

// extensionFormats maps a file suffix to the name image.Decode reports
var extensionFormats = map[string]string{
	"png":  "png",
	"jpg":  "jpeg",
	"jpeg": "jpeg",
	"gif":  "gif",
}

// ImageValidator checks that an upload is nominally and structurally a supported image
type ImageValidator struct {
	allowedExtensions map[string]struct{}
	allowedFormats    map[string]struct{}
	maxPixels         int64
}

// NewImageValidator creates a validator with the default extension set and pixel limit
func NewImageValidator() *ImageValidator {
	return NewImageValidatorWithOptions(DefaultAllowedExtensions, DefaultMaxPixels)
}

// NewImageValidatorWithOptions creates a validator with custom options.
// Extensions without a registered decoder are ignored.
func NewImageValidatorWithOptions(extensions []string, maxPixels int64) *ImageValidator {
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}
	v := &ImageValidator{
		allowedExtensions: make(map[string]struct{}, len(extensions)),
		allowedFormats:    make(map[string]struct{}, len(extensions)),
		maxPixels:         maxPixels,
	}
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		format, ok := extensionFormats[ext]
		if !ok {
			continue
		}
		v.allowedExtensions[ext] = struct{}{}
		v.allowedFormats[format] = struct{}{}
	}
	return v
}

// Extension returns the lowercased suffix after the last '.', and false if the name has no '.'
func Extension(filename string) (string, bool) {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 {
		return "", false
	}
	return strings.ToLower(filename[idx+1:]), true
}

// IsValid reports whether the upload passes every check
func (v *ImageValidator) IsValid(upload Upload) bool {
	_, err := v.Validate(upload)
	return err == nil
}

// Validate runs the extension check, then decodes and verifies the content.
// On success the stream is rewound to its start so it can be read again in full.
func (v *ImageValidator) Validate(upload Upload) (*Result, error) {
	ext, err := v.checkExtension(upload.Filename)
	if err != nil {
		return nil, err
	}

	if upload.Content == nil {
		return nil, v.reject(upload, KindUnreadable, errors.New("no content"))
	}
	if _, err := upload.Content.Seek(0, io.SeekStart); err != nil {
		return nil, v.reject(upload, KindUnreadable, err)
	}

	cfg, _, err := image.DecodeConfig(upload.Content)
	if err != nil {
		return nil, v.reject(upload, KindCorrupt, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, v.reject(upload, KindCorrupt, fmt.Errorf("invalid dimensions %dx%d", cfg.Width, cfg.Height))
	}
	if int64(cfg.Width)*int64(cfg.Height) > v.maxPixels {
		return nil, v.reject(upload, KindTooLarge,
			fmt.Errorf("%dx%d exceeds %d pixels", cfg.Width, cfg.Height, v.maxPixels))
	}

	if _, err := upload.Content.Seek(0, io.SeekStart); err != nil {
		return nil, v.reject(upload, KindUnreadable, err)
	}

	// A full decode is the integrity pass: truncated or damaged pixel data fails here.
	img, format, err := image.Decode(upload.Content)
	if err != nil {
		return nil, v.reject(upload, KindCorrupt, err)
	}
	if _, ok := v.allowedFormats[format]; !ok {
		return nil, v.reject(upload, KindUnsupportedFormat, fmt.Errorf("decoded format %q", format))
	}

	if _, err := upload.Content.Seek(0, io.SeekStart); err != nil {
		return nil, v.reject(upload, KindUnreadable, err)
	}

	bounds := img.Bounds()
	return &Result{
		Extension: ext,
		Format:    format,
		MIMEType:  "image/" + format,
		Width:     bounds.Dx(),
		Height:    bounds.Dy(),
		Image:     img,
	}, nil
}

func (v *ImageValidator) checkExtension(filename string) (string, error) {
	ext, ok := Extension(filename)
	if !ok {
		return "", &Error{Kind: KindMissingExtension, Filename: filename}
	}
	if _, allowed := v.allowedExtensions[ext]; !allowed {
		return "", &Error{Kind: KindUnsupportedExtension, Filename: filename, Err: fmt.Errorf("extension %q", ext)}
	}
	return ext, nil
}

func (v *ImageValidator) reject(upload Upload, kind Kind, cause error) error {
	return &Error{Kind: kind, Filename: upload.Filename, Err: cause}
}
