package scanner

// ScanOptions configures the scan orchestrator
type ScanOptions struct {
	// ResolveConcurrency caps concurrent host resolutions
	ResolveConcurrency int
	// FetchConcurrency caps concurrent manifest fetches
	FetchConcurrency int
	// FlushEvery is the number of completed records written per chunk
	FlushEvery int
}

// ScanOption is a functional option for configuring scanner
type ScanOption func(*ScanOptions)

// DefaultScanOptions returns default scanner options
func DefaultScanOptions() *ScanOptions {
	return &ScanOptions{
		ResolveConcurrency: 64,
		FetchConcurrency:   200,
		FlushEvery:         1000,
	}
}

// WithResolveConcurrency sets the resolution gate size
func WithResolveConcurrency(n int) ScanOption {
	return func(o *ScanOptions) {
		if n > 0 {
			o.ResolveConcurrency = n
		}
	}
}

// WithFetchConcurrency sets the fetch gate size
func WithFetchConcurrency(n int) ScanOption {
	return func(o *ScanOptions) {
		if n > 0 {
			o.FetchConcurrency = n
		}
	}
}

// WithFlushEvery sets the flush chunk size
func WithFlushEvery(n int) ScanOption {
	return func(o *ScanOptions) {
		if n > 0 {
			o.FlushEvery = n
		}
	}
}
