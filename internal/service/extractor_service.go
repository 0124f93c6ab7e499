package service

import (
	"edu_ai_backend/internal/util"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	htmlTagRe    = regexp.MustCompile(`(?s)<(script|style)\b.*?</(script|style)>|<[^>]+>`)
	mdMarkupRe   = regexp.MustCompile("(?m)^#{1,6}\\s+|[*_`~]{1,3}|^>\\s?|^[-+]\\s+|\\!\\[[^\\]]*\\]\\([^)]*\\)")
	mdLinkRe     = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	whitespaceRe = regexp.MustCompile(`[ \t]+`)
	blankLinesRe = regexp.MustCompile(`\n{3,}`)
)

// ExtractorService recovers plain lesson text from uploaded documents.
// Plain text, markdown and HTML are handled here; PDF and scanned
// documents are converted upstream before reaching this service.
type ExtractorService struct{}

func NewExtractorService() *ExtractorService {
	return &ExtractorService{}
}

// ExtractFile reads and extracts a document from disk, guarding
// against oversized files.
func (s *ExtractorService) ExtractFile(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if info.Size() > util.MaxDocumentBytes {
		return "", util.ErrDocumentTooLarge
	}

	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	return s.Extract(f, filepath.Base(path))
}

// Extract converts document content to normalized plain text based on
// the filename extension.
func (s *ExtractorService) Extract(reader io.Reader, filename string) (string, error) {
	raw, err := io.ReadAll(io.LimitReader(reader, util.MaxDocumentBytes+1))
	if err != nil {
		return "", err
	}
	if len(raw) > util.MaxDocumentBytes {
		return "", util.ErrDocumentTooLarge
	}

	content := string(raw)
	if !utf8.ValidString(content) {
		return "", util.ErrUnsupportedFormat
	}

	var text string
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt", "":
		text = content
	case ".md", ".markdown":
		text = stripMarkdown(content)
	case ".html", ".htm":
		text = stripHTML(content)
	default:
		return "", util.ErrUnsupportedFormat
	}

	text = normalizeWhitespace(text)
	if text == "" {
		return "", util.ErrEmptyDocument
	}
	return text, nil
}

func stripMarkdown(content string) string {
	content = mdLinkRe.ReplaceAllString(content, "$1")
	return mdMarkupRe.ReplaceAllString(content, "")
}

func stripHTML(content string) string {
	text := htmlTagRe.ReplaceAllString(content, " ")
	replacer := strings.NewReplacer(
		"&nbsp;", " ",
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#39;", "'",
	)
	return replacer.Replace(text)
}

func normalizeWhitespace(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = whitespaceRe.ReplaceAllString(text, " ")
	text = blankLinesRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
