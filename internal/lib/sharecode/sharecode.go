// Package sharecode renders task references as scannable QR code images.
package sharecode

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/makiuchi-d/gozxing"
	zxingqr "github.com/makiuchi-d/gozxing/qrcode"
	qrcode "github.com/skip2/go-qrcode"
)

var (
	// ErrEmptyPayload is returned when asked to encode an empty string
	ErrEmptyPayload = errors.New("share code payload is empty")

	// ErrNotFound is returned when an image holds no readable QR code
	ErrNotFound = errors.New("no share code found in image")
)

// DefaultSize is the default image width and height in pixels
const DefaultSize = 256

// RecoveryLevel is the fixed error correction level, enough to survive
// small print reproduction
const RecoveryLevel = qrcode.Medium

// Encoding is a payload plus its rendering parameters
type Encoding struct {
	Payload string
	Size    int
}

// New returns an Encoding for payload, using DefaultSize when size is not positive
func New(payload string, size int) Encoding {
	if size <= 0 {
		size = DefaultSize
	}
	return Encoding{Payload: payload, Size: size}
}

// PNG renders the encoding as PNG bytes
func (e Encoding) PNG() ([]byte, error) {
	if e.Payload == "" {
		return nil, ErrEmptyPayload
	}
	size := e.Size
	if size <= 0 {
		size = DefaultSize
	}
	png, err := qrcode.Encode(e.Payload, RecoveryLevel, size)
	if err != nil {
		return nil, fmt.Errorf("failed to encode share code: %w", err)
	}
	return png, nil
}

// Encode renders payload as a PNG QR code of the given size
func Encode(payload string, size int) ([]byte, error) {
	return New(payload, size).PNG()
}

// Decode reads the QR code in a PNG or JPEG image and returns its text
func Decode(data []byte) (string, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}
	result, err := zxingqr.NewQRCodeReader().Decode(bmp, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return result.GetText(), nil
}
