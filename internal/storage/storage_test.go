package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/tinygambit/tinygambit/internal/board"
)

func TestBookCacheStoreAndLoad(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "tinygambit-bookcache-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	cache, err := NewBookCache(filepath.Join(tmpDir, "db"))
	if err != nil {
		t.Fatalf("NewBookCache failed: %v", err)
	}
	defer cache.Close()

	source := "book.bin"
	entries := map[uint64][]BookEntry{
		0x1234: {{Move: board.NewMove(board.E2, board.E4), Weight: 10}},
		0x5678: {
			{Move: board.NewMove(board.D2, board.D4), Weight: 5},
			{Move: board.NewMove(board.G1, board.F3), Weight: 1},
		},
	}

	if cache.Fresh(source, 100, 1) {
		t.Error("expected empty cache to report stale")
	}

	if err := cache.Store(source, 100, 1, entries); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	if !cache.Fresh(source, 100, 1) {
		t.Error("expected cache to be fresh after Store with matching stat")
	}
	if cache.Fresh(source, 200, 1) {
		t.Error("expected cache to be stale when size differs")
	}

	loaded, err := cache.Load(source)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("expected 2 cached positions, got %d", len(loaded))
	}
	if len(loaded[0x5678]) != 2 {
		t.Fatalf("expected 2 entries for key 0x5678, got %d", len(loaded[0x5678]))
	}
	if loaded[0x1234][0].Move != board.NewMove(board.E2, board.E4) {
		t.Error("round-tripped move mismatch")
	}
}

func TestDataPaths(t *testing.T) {
	dataDir, err := GetDataDir()
	if err != nil {
		t.Fatalf("GetDataDir failed: %v", err)
	}
	if dataDir == "" {
		t.Error("GetDataDir returned empty path")
	}
	if _, err := os.Stat(dataDir); os.IsNotExist(err) {
		t.Errorf("Data directory was not created: %s", dataDir)
	}
}
