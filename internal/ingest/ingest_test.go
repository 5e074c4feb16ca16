package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDetectDocType(t *testing.T) {
	cases := []struct {
		path string
		want DocType
	}{
		{"notes.pdf", DocPDF},
		{"NOTES.PDF", DocPDF},
		{"paper.docx", DocText},
		{"plain.txt", DocText},
		{"old.rtf", DocText},
		{"open.odt", DocText},
		{"image.png", DocUnknown},
		{"noextension", DocUnknown},
	}
	for _, tc := range cases {
		if got := DetectDocType(tc.path); got != tc.want {
			t.Errorf("DetectDocType(%q) = %s, want %s", tc.path, got, tc.want)
		}
	}
}

func TestExtractFile_PlainText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.txt")
	content := "Q1. What is 2+2?\nAnswer: 4"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	pages, err := NewExtractor().ExtractFile(path)
	if err != nil {
		t.Fatalf("ExtractFile failed: %v", err)
	}
	if len(pages) != 1 || pages[0].PageNumber != 1 {
		t.Fatalf("pages = %+v, want one page", pages)
	}
	if !strings.Contains(pages[0].Text, "What is 2+2?") {
		t.Errorf("text = %q", pages[0].Text)
	}
}

func TestExtractFile_UnsupportedType(t *testing.T) {
	_, err := NewExtractor().ExtractFile("picture.png")
	if err == nil || !strings.Contains(err.Error(), "unsupported document type") {
		t.Errorf("err = %v, want unsupported type", err)
	}
}

func TestExtractFile_MissingPDF(t *testing.T) {
	_, err := NewExtractor().ExtractFile(filepath.Join(t.TempDir(), "missing.pdf"))
	if err == nil {
		t.Error("expected error for missing file")
	}
}
