package scanner

import (
	"testing"
)

func TestDefaultScanOptions(t *testing.T) {
	opts := DefaultScanOptions()

	if opts.ResolveConcurrency != 64 {
		t.Errorf("Expected resolve concurrency to be 64, got %d", opts.ResolveConcurrency)
	}

	if opts.FetchConcurrency != 200 {
		t.Errorf("Expected fetch concurrency to be 200, got %d", opts.FetchConcurrency)
	}

	if opts.FlushEvery != 1000 {
		t.Errorf("Expected flush every to be 1000, got %d", opts.FlushEvery)
	}
}

func TestScanOptions_With(t *testing.T) {
	opts := DefaultScanOptions()

	WithResolveConcurrency(8)(opts)
	WithFetchConcurrency(16)(opts)
	WithFlushEvery(10)(opts)

	if opts.ResolveConcurrency != 8 {
		t.Errorf("Expected resolve concurrency to be 8, got %d", opts.ResolveConcurrency)
	}

	if opts.FetchConcurrency != 16 {
		t.Errorf("Expected fetch concurrency to be 16, got %d", opts.FetchConcurrency)
	}

	if opts.FlushEvery != 10 {
		t.Errorf("Expected flush every to be 10, got %d", opts.FlushEvery)
	}
}

func TestScanOptions_IgnoresNonPositive(t *testing.T) {
	opts := DefaultScanOptions()

	WithResolveConcurrency(0)(opts)
	WithFetchConcurrency(-1)(opts)
	WithFlushEvery(0)(opts)

	if *opts != *DefaultScanOptions() {
		t.Errorf("Expected non-positive values to be ignored, got %+v", *opts)
	}
}
