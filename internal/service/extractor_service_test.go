package service

import (
	"edu_ai_backend/internal/util"
	"errors"
	"strings"
	"testing"
)

func TestExtractPlainText(t *testing.T) {
	s := NewExtractorService()
	text, err := s.Extract(strings.NewReader("Line one.\r\nLine two.\n\n\n\nLine three.  Extra   spaces."), "lesson.txt")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	want := "Line one.\nLine two.\n\nLine three. Extra spaces."
	if text != want {
		t.Fatalf("got %q, want %q", text, want)
	}
}

func TestExtractMarkdown(t *testing.T) {
	s := NewExtractorService()
	md := "# Heading\n\nSome **bold** text with a [link](https://example.com) inside.\n\n> a quote\n"
	text, err := s.Extract(strings.NewReader(md), "lesson.md")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	for _, banned := range []string{"#", "**", "](", "https://example.com", ">"} {
		if strings.Contains(text, banned) {
			t.Fatalf("markdown markup %q leaked into %q", banned, text)
		}
	}
	if !strings.Contains(text, "link") {
		t.Fatalf("link label lost: %q", text)
	}
}

func TestExtractHTML(t *testing.T) {
	s := NewExtractorService()
	html := `<html><head><style>body { color: red }</style></head>
<body><h1>Title</h1><p>Fish &amp; chips &lt;cheap&gt;</p>
<script>alert("x")</script></body></html>`
	text, err := s.Extract(strings.NewReader(html), "lesson.html")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	for _, banned := range []string{"<h1>", "<p>", "<body>", "<script>"} {
		if strings.Contains(text, banned) {
			t.Fatalf("tag %q leaked into %q", banned, text)
		}
	}
	if strings.Contains(text, "color: red") || strings.Contains(text, "alert") {
		t.Fatalf("style/script content leaked into %q", text)
	}
	if !strings.Contains(text, "Fish & chips <cheap>") {
		t.Fatalf("entities not decoded: %q", text)
	}
}

func TestExtractUnsupportedFormat(t *testing.T) {
	s := NewExtractorService()
	_, err := s.Extract(strings.NewReader("%PDF-1.4"), "lesson.pdf")
	if !errors.Is(err, util.ErrUnsupportedFormat) {
		t.Fatalf("got %v, want ErrUnsupportedFormat", err)
	}
}

func TestExtractOversizedDocument(t *testing.T) {
	s := NewExtractorService()
	big := strings.NewReader(strings.Repeat("a", util.MaxDocumentBytes+1))
	_, err := s.Extract(big, "lesson.txt")
	if !errors.Is(err, util.ErrDocumentTooLarge) {
		t.Fatalf("got %v, want ErrDocumentTooLarge", err)
	}
}

func TestExtractInvalidUTF8(t *testing.T) {
	s := NewExtractorService()
	_, err := s.Extract(strings.NewReader("ok \xff\xfe broken"), "lesson.txt")
	if !errors.Is(err, util.ErrUnsupportedFormat) {
		t.Fatalf("got %v, want ErrUnsupportedFormat", err)
	}
}

func TestExtractEmptyDocument(t *testing.T) {
	s := NewExtractorService()
	_, err := s.Extract(strings.NewReader("   \n\n  "), "lesson.txt")
	if !errors.Is(err, util.ErrEmptyDocument) {
		t.Fatalf("got %v, want ErrEmptyDocument", err)
	}
}
