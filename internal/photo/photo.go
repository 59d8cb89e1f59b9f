// Package photo captures and encodes proof photos.
//
// A proof photo accompanies each journey start and end capture. The image
// content is never interpreted — it is evidence for a human reviewer, not for
// an algorithm. Photos travel inside JSON request bodies, so the portable
// representation is standard base64.
package photo

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
)

// DefaultMaxBytes is the raw-image size ceiling. A few MB covers any phone
// camera proof shot; anything larger is a misconfigured client.
const DefaultMaxBytes int64 = 3 << 20

// Sentinel errors for photo capture and validation failures. All of them
// block the journey transition request from being sent at all.
var (
	ErrMissing    = errors.New("photo is required")
	ErrTooLarge   = errors.New("photo exceeds size limit")
	ErrUnreadable = errors.New("photo could not be read")
)

// Ref is an opaque, JSON-safe reference to a captured photo: the base64
// encoding of the raw image bytes.
type Ref string

// Source is the camera facility. Read blocks until the user has taken (or
// picked) an image and returns its raw bytes.
type Source interface {
	Read(ctx context.Context) ([]byte, error)
}

// Capturer acquires exactly one photo from a Source and encodes it.
type Capturer struct {
	src      Source
	maxBytes int64
}

// NewCapturer constructs a Capturer. maxBytes <= 0 falls back to
// DefaultMaxBytes.
func NewCapturer(src Source, maxBytes int64) *Capturer {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Capturer{src: src, maxBytes: maxBytes}
}

// Capture reads one image and returns its encoded reference.
// Fails with ErrMissing when the source produces no bytes, ErrTooLarge above
// the ceiling, and ErrUnreadable when the source itself errors.
func (c *Capturer) Capture(ctx context.Context) (Ref, error) {
	if c.src == nil {
		return "", ErrUnreadable
	}
	raw, err := c.src.Read(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	if len(raw) == 0 {
		return "", ErrMissing
	}
	if int64(len(raw)) > c.maxBytes {
		return "", fmt.Errorf("%w: %d bytes, limit %d", ErrTooLarge, len(raw), c.maxBytes)
	}
	return Ref(base64.StdEncoding.EncodeToString(raw)), nil
}

// ValidateEncoded checks an already-encoded photo string as received in a
// request body: present, decodable, and within the raw-size ceiling.
// The server never looks at the decoded bytes beyond counting them.
func ValidateEncoded(encoded string, maxBytes int64) error {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if encoded == "" {
		return ErrMissing
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return fmt.Errorf("%w: invalid base64", ErrUnreadable)
	}
	if int64(len(raw)) > maxBytes {
		return fmt.Errorf("%w: %d bytes, limit %d", ErrTooLarge, len(raw), maxBytes)
	}
	return nil
}
