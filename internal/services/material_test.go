package services

import (
	"strings"
	"testing"
)

func TestChunkTextRespectsLimit(t *testing.T) {
	text := strings.Repeat("word ", 2000)
	chunks := chunkText(text, 1200)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if len(chunk) > 1200 {
			t.Fatalf("chunk %d exceeds limit: %d chars", i, len(chunk))
		}
		if strings.TrimSpace(chunk) == "" {
			t.Fatalf("chunk %d is blank", i)
		}
	}
}

func TestChunkTextKeepsParagraphsTogether(t *testing.T) {
	text := "first paragraph\n\nsecond paragraph\n\nthird paragraph"
	chunks := chunkText(text, 1200)
	if len(chunks) != 1 {
		t.Fatalf("small paragraphs should fit one chunk, got %d", len(chunks))
	}
	if !strings.Contains(chunks[0], "first paragraph") || !strings.Contains(chunks[0], "third paragraph") {
		t.Fatalf("chunk lost content: %q", chunks[0])
	}
}

func TestChunkTextSplitsOnParagraphBoundary(t *testing.T) {
	a := strings.Repeat("a", 700)
	b := strings.Repeat("b", 700)
	chunks := chunkText(a+"\n\n"+b, 1200)
	if len(chunks) != 2 {
		t.Fatalf("expected split into 2 chunks, got %d", len(chunks))
	}
	if chunks[0] != a || chunks[1] != b {
		t.Fatalf("paragraphs should not be mixed across chunks")
	}
}

func TestChunkTextEmptyInput(t *testing.T) {
	if chunks := chunkText("   \n\n  ", 1200); len(chunks) != 0 {
		t.Fatalf("expected no chunks for blank input, got %d", len(chunks))
	}
}

func TestSupportedMaterialType(t *testing.T) {
	for _, ok := range []string{"application/pdf", "text/plain", "text/markdown"} {
		if !supportedMaterialType(ok) {
			t.Fatalf("%s should be supported", ok)
		}
	}
	for _, bad := range []string{"image/png", "application/zip", ""} {
		if supportedMaterialType(bad) {
			t.Fatalf("%s should be rejected", bad)
		}
	}
}
