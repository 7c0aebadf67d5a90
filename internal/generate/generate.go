// Package generate produces OBJ meshes from text prompts and derives the
// modifiers offered for them.
package generate

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/procgen3d/internal/logger"
)

// Styles accepted in Request.Style.
const (
	StyleRealistic = "realistic"
	StyleLowPoly   = "low-poly"
	StyleStylized  = "stylized"

	DefaultStyle = StyleLowPoly
)

// ErrNotOBJ is returned when a provider reply does not look like OBJ text.
var ErrNotOBJ = errors.New("reply is not OBJ content")

// ValidStyle reports whether style is one of the known styles.
func ValidStyle(style string) bool {
	switch style {
	case StyleRealistic, StyleLowPoly, StyleStylized:
		return true
	}
	return false
}

// Request describes a model to generate.
type Request struct {
	Prompt string
	Style  string
	Image  []byte // Optional reference image
}

// Provider generates OBJ text for a request.
type Provider interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Fallback tries Primary first; if it returns an error, tries Secondary.
type Fallback struct {
	Primary   Provider
	Secondary Provider
	Log       *zap.Logger
}

// Generate calls Primary.Generate; on any error, calls Secondary.Generate.
func (f *Fallback) Generate(ctx context.Context, req Request) (string, error) {
	text, err := f.Primary.Generate(ctx, req)
	if err != nil && f.Secondary != nil {
		log := f.Log
		if log == nil {
			log = logger.Named("generate")
		}
		log.Warn("primary provider failed, using fallback", zap.Error(err))
		return f.Secondary.Generate(ctx, req)
	}
	return text, err
}

// StripFences returns the body of the first markdown code fence in text,
// without its language tag. Text without a fence is returned trimmed.
func StripFences(text string) string {
	text = strings.TrimSpace(text)
	_, after, found := strings.Cut(text, "```")
	if !found {
		return text
	}
	body, _, _ := strings.Cut(after, "```")

	// Drop a language tag such as "obj" or "json" on the opening line.
	if tag, rest, ok := strings.Cut(body, "\n"); ok && !strings.ContainsAny(strings.TrimSpace(tag), " \t{[") {
		body = rest
	}
	return strings.TrimSpace(body)
}

// looksLikeOBJ is a cheap check that text starts like an OBJ file and
// declares at least one vertex.
func looksLikeOBJ(text string) bool {
	if !strings.HasPrefix(text, "#") && !strings.HasPrefix(text, "o ") && !strings.HasPrefix(text, "v ") {
		return false
	}
	return strings.HasPrefix(text, "v ") || strings.Contains(text, "\nv ")
}
