package converter

import (
	"runtime"
	"testing"
	"time"
)

func TestGetConfigDefaults(t *testing.T) {
	cfg, err := GetConfig()
	if err != nil {
		t.Fatalf("GetConfig failed: %v", err)
	}

	if cfg.CompressionLevel != 3 || cfg.DataVersion != 1343 || cfg.Backend != "sqlite" {
		t.Errorf("Unexpected defaults %+v", cfg)
	}
	if cfg.ProgressInterval != time.Second || cfg.RegionCompression != "zlib" {
		t.Errorf("Unexpected defaults %+v", cfg)
	}
	if cfg.WorkerCount() != runtime.NumCPU() {
		t.Errorf("Expected %d workers, got %d", runtime.NumCPU(), cfg.WorkerCount())
	}
}

func TestGetConfigFromEnv(t *testing.T) {
	t.Setenv("CHUNKFMT_WORKERS", "3")
	t.Setenv("CHUNKFMT_COMPRESSION_LEVEL", "19")
	t.Setenv("CHUNKFMT_BACKEND", "leveldb")
	t.Setenv("CHUNKFMT_PROGRESS_INTERVAL", "250ms")

	cfg, err := GetConfig()
	if err != nil {
		t.Fatalf("GetConfig failed: %v", err)
	}

	if cfg.WorkerCount() != 3 || cfg.CompressionLevel != 19 || cfg.Backend != "leveldb" {
		t.Errorf("Unexpected config %+v", cfg)
	}
	if cfg.ProgressInterval != 250*time.Millisecond {
		t.Errorf("Expected 250ms interval, got %s", cfg.ProgressInterval)
	}
}
