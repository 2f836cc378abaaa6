// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

// Pagination constants
const (
	// DefaultPageSize is the default number of items to fetch per API page
	DefaultPageSize = 1000
)

// Sampling constants
const (
	// QualitySampleSize is the bounding box (width and height) of the sample
	// used for sharpness scoring
	QualitySampleSize = 300

	// FingerprintSampleWidth is one pixel wider than the height so that every
	// row yields eight horizontal comparisons
	FingerprintSampleWidth = 9

	// FingerprintSampleHeight is the number of rows in the fingerprint sample
	FingerprintSampleHeight = 8

	// FallbackBytesPerPixel is used to estimate an asset's size when the store
	// cannot report it
	FallbackBytesPerPixel = 4
)

// Duplicate detection constants
const (
	// FingerprintBits is the length of a difference hash
	FingerprintBits = 64

	// DuplicateThreshold is the maximum Hamming distance between two
	// fingerprints for the photos to be considered near-duplicates
	DuplicateThreshold = 5
)

// Quality tier breakpoints. Each is the inclusive lower bound of the tier above it.
const (
	PoorMinSharpness      = 0.15
	FairMinSharpness      = 0.30
	GoodMinSharpness      = 0.50
	ExcellentMinSharpness = 0.70
)

// Progress weights for the phases of an analysis run
const (
	ImagePhaseWeight = 0.5
	VideoPhaseWeight = 0.3

	// ClusteringProgress is published when clustering starts
	ClusteringProgress = 0.8

	// AggregationProgress is published once clustering has finished
	AggregationProgress = 0.9
)

// Processing constants
const (
	// WorkerPoolSize is the default number of parallel workers for per-asset analysis
	WorkerPoolSize = 8

	// EventChannelBuffer is the buffer size of engine event subscriber channels
	EventChannelBuffer = 100
)
