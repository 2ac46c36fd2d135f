package storage

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/pagesift/pagesift/internal/types"
)

func TestWriteJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "result.json")
	result := &types.CrawlResult{
		TotalPagesCrawled: 2,
		CrawlTimestamp:    "1700000000",
		Results: []types.DomainResult{
			{URL: "https://example.com", PagesCrawled: 2, Matches: []types.KeywordMatch{}},
		},
	}

	if err := WriteJSON(path, result); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}

	var decoded types.CrawlResult
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.TotalPagesCrawled != 2 {
		t.Errorf("pages = %d", decoded.TotalPagesCrawled)
	}
	if len(decoded.Results) != 1 || decoded.Results[0].URL != "https://example.com" {
		t.Errorf("results = %+v", decoded.Results)
	}

	// Indented output spans multiple lines.
	if !bytes.Contains(raw, []byte("\n  ")) {
		t.Error("output is not indented")
	}
}
