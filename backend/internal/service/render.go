package service

import (
	"bytes"
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/ebrain/board/shared/errors"
)

// Sanitizer cleans user text before storage and renders post content for display.
type Sanitizer struct {
	strict *bluemonday.Policy
	ugc    *bluemonday.Policy
	md     goldmark.Markdown
}

func NewSanitizer() *Sanitizer {
	return &Sanitizer{
		strict: bluemonday.StrictPolicy(),
		ugc:    bluemonday.UGCPolicy(),
		md:     goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

// PlainText drops every tag and returns the trimmed text.
func (s *Sanitizer) PlainText(in string) string {
	return strings.TrimSpace(html.UnescapeString(s.strict.Sanitize(in)))
}

// RenderHTML renders markdown and keeps only user-content safe HTML.
func (s *Sanitizer) RenderHTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := s.md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return s.ugc.Sanitize(buf.String()), nil
}

// CheckText keeps in as written and checks it is not blank and within max characters.
// Markup in it is only neutralised when rendered.
func (s *Sanitizer) CheckText(field, in string, max int) (string, error) {
	if strings.TrimSpace(in) == "" {
		return "", errors.Validation(errors.CodeIllegalBoardData, field+" is required")
	}
	if utf8.RuneCountInString(in) > max {
		return "", errors.Validation(errors.CodeIllegalBoardData, fmt.Sprintf("%s exceeds %d characters", field, max))
	}
	return in, nil
}

// CleanField sanitises in and checks it is non-empty and within max characters.
func (s *Sanitizer) CleanField(field, in string, max int) (string, error) {
	out := s.PlainText(in)
	if out == "" {
		return "", errors.Validation(errors.CodeIllegalBoardData, field+" is required")
	}
	if utf8.RuneCountInString(out) > max {
		return "", errors.Validation(errors.CodeIllegalBoardData, fmt.Sprintf("%s exceeds %d characters", field, max))
	}
	return out, nil
}
