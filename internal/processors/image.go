package processors

import (
	"bytes"
	"fmt"
	"image"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

// imageExtractor validates image files and records their dimensions.
// There is no OCR: images contribute metadata, not text, and carry a
// warning saying so.
type imageExtractor struct{}

func (imageExtractor) Extract(data []byte) (Extraction, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Extraction{}, &ExtractionError{Format: FormatImage, Reason: "unreadable or truncated image"}
	}
	return Extraction{
		Text: "",
		Structured: map[string]any{
			"image_format": format,
			"width":        cfg.Width,
			"height":       cfg.Height,
		},
		Warnings: []string{
			fmt.Sprintf("%s image (%dx%d): no text extraction available", format, cfg.Width, cfg.Height),
		},
	}, nil
}
