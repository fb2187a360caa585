package driving

import (
	"context"

	"github.com/custodia-labs/oceanai-cli/internal/core/domain"
)

// IngestionService loads profile files into the store exactly once per file.
type IngestionService interface {
	// Run processes every unrecorded file in the source directory.
	// Concurrent calls share a single execution.
	Run(ctx context.Context) (domain.IngestReport, error)

	// IngestFile processes one file, honouring the ledger.
	IngestFile(ctx context.Context, path string) (domain.IngestReport, error)

	// SourceDir returns the directory scanned by Run.
	SourceDir() string
}

// IndexService builds and inspects the float embedding index.
type IndexService interface {
	// Build embeds every float's latest position and publishes a new generation.
	Build(ctx context.Context) (domain.IndexMeta, error)

	// Status returns the active generation's metadata.
	Status(ctx context.Context) (domain.IndexMeta, error)
}
