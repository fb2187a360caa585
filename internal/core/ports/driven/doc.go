// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - ProfileParser: Decodes binary profile files into raw records
//   - ProfileStore / ProfileQueries: Relational + geospatial profile persistence
//   - Ledger: Append-only record of successfully processed files
//   - IndexArtifactStore: Publishes and opens index generations
//   - ConfigStore: Application configuration
//   - SchedulerStore: Scheduler state and history
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - EmbeddingService: Generates vector embeddings. Without it, semantic search is disabled.
//   - LLMService: Language model operations. Without it, answers use deterministic templates.
//   - PromptStore: User-editable prompts. Without it, embedded defaults are used.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
