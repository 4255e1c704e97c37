// Package ocr extracts text from puzzle screenshots. The bot never
// inspects image content itself; whatever text comes back is run through
// the sentinel-anchored time grammar.
package ocr

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
)

// Extractor turns image bytes into text
type Extractor interface {
	Extract(ctx context.Context, image []byte) (string, error)
}

// Tesseract shells out to the tesseract binary, reading the image from
// stdin and writing text to stdout
type Tesseract struct {
	Binary string
}

// NewTesseract creates an Extractor using the given binary name or path
func NewTesseract(binary string) *Tesseract {
	if binary == "" {
		binary = "tesseract"
	}
	return &Tesseract{Binary: binary}
}

func (t *Tesseract) Extract(ctx context.Context, image []byte) (string, error) {
	cmd := exec.CommandContext(ctx, t.Binary, "stdin", "stdout")
	cmd.Stdin = bytes.NewReader(image)

	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("tesseract: %w: %s", err, stderr.String())
	}
	return out.String(), nil
}
