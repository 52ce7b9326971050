package pii

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
)

// OCR extracts text from an image file.
type OCR interface {
	// Available reports whether the capability can be invoked at all.
	Available() bool
	// ExtractText returns the raw recognized text for the image at path.
	ExtractText(ctx context.Context, path string) (string, error)
}

// Tesseract invokes the tesseract binary as an external process.
type Tesseract struct {
	bin string
}

// NewTesseract resolves the tesseract binary. The returned OCR reports
// unavailable when the binary is not on PATH, which makes the screener
// fail closed.
func NewTesseract(bin string) *Tesseract {
	resolved, err := exec.LookPath(bin)
	if err != nil {
		return &Tesseract{}
	}
	return &Tesseract{bin: resolved}
}

func (t *Tesseract) Available() bool {
	return t.bin != ""
}

func (t *Tesseract) ExtractText(ctx context.Context, path string) (string, error) {
	if t.bin == "" {
		return "", fmt.Errorf("tesseract binary not available")
	}

	cmd := exec.CommandContext(ctx, t.bin, path, "stdout")
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = io.Discard
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("tesseract %s: %w", path, err)
	}
	return out.String(), nil
}
