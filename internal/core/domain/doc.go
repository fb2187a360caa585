// Package domain defines the core business entities for OceanAI.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Profile: One vertical sweep of pressure, temperature and salinity from a float cycle
//   - RawProfile: Parser output before normalisation
//   - EmbeddingDocument: Descriptive text and vector for one float
//   - IndexSnapshot: A published nearest-neighbour index and its id mapping
//   - QueryIntent / QueryTemplate / QueryResult: Router classification and typed context
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
