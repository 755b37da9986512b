// Package receipt turns receipt images into candidate bill items through an
// external extraction service.
package receipt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// DefaultMaxUploadBytes is the largest image accepted for scanning.
const DefaultMaxUploadBytes = 10 << 20

var (
	ErrEmptyUpload     = errors.New("image is empty")
	ErrUploadTooLarge  = errors.New("image is too large")
	ErrUnsupportedType = errors.New("unsupported image type")
	ErrNoItems         = errors.New("no items could be extracted")
)

var contentTypes = map[string]string{
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"webp": "image/webp",
}

// Candidate is an item read off a receipt. It has no ID until it is added to a session.
type Candidate struct {
	Name      string
	Quantity  float64
	UnitPrice float64
}

// Extractor reads candidate items from image bytes.
type Extractor interface {
	Extract(ctx context.Context, image []byte, contentType string) ([]Candidate, error)
}

// ExtractorFunc adapts a function to the Extractor interface.
type ExtractorFunc func(ctx context.Context, image []byte, contentType string) ([]Candidate, error)

func (f ExtractorFunc) Extract(ctx context.Context, image []byte, contentType string) ([]Candidate, error) {
	return f(ctx, image, contentType)
}

// ValidateUpload checks size and extension and returns the image content type.
func ValidateUpload(filename string, size, maxBytes int) (string, error) {
	if size == 0 {
		return "", ErrEmptyUpload
	}
	if size > maxBytes {
		return "", fmt.Errorf("%w: %d bytes, max %d MB", ErrUploadTooLarge, size, maxBytes>>20)
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	contentType, ok := contentTypes[ext]
	if !ok {
		return "", fmt.Errorf("%w: %q (accepted: png, jpg, jpeg, webp)", ErrUnsupportedType, ext)
	}
	return contentType, nil
}

// rawItem accepts both the English and the Portuguese field names the
// extraction prompt has used.
type rawItem struct {
	Name         *string  `json:"name"`
	Item         *string  `json:"item"`
	Quantity     *float64 `json:"quantity"`
	Quantidade   *float64 `json:"quantidade"`
	UnitPrice    *float64 `json:"unit_price"`
	PrecoUnitari *float64 `json:"preco_unitario"`
}

type rawResponse struct {
	Items []rawItem `json:"items"`
	Itens []rawItem `json:"itens"`
}

// ParseCandidates decodes model output into candidates. Markdown code fences
// around the JSON are ignored. A missing quantity means one unit; a missing
// name becomes "N/A"; negative numbers are clamped to zero.
func ParseCandidates(raw []byte) ([]Candidate, error) {
	text := strings.TrimSpace(string(raw))
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	var resp rawResponse
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &resp); err != nil {
		return nil, fmt.Errorf("decode extraction output: %w", err)
	}
	items := resp.Items
	if len(items) == 0 {
		items = resp.Itens
	}
	if len(items) == 0 {
		return nil, ErrNoItems
	}

	out := make([]Candidate, 0, len(items))
	for _, it := range items {
		c := Candidate{Name: "N/A", Quantity: 1}
		if name := firstString(it.Name, it.Item); name != "" {
			c.Name = name
		}
		if q := firstFloat(it.Quantity, it.Quantidade); q != nil {
			c.Quantity = max(*q, 0)
		}
		if p := firstFloat(it.UnitPrice, it.PrecoUnitari); p != nil {
			c.UnitPrice = max(*p, 0)
		}
		out = append(out, c)
	}
	return out, nil
}

func firstString(values ...*string) string {
	for _, v := range values {
		if v != nil && strings.TrimSpace(*v) != "" {
			return strings.TrimSpace(*v)
		}
	}
	return ""
}

func firstFloat(values ...*float64) *float64 {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}
