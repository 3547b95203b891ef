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
//   - PostProcessor: Splits document text into chunks
//   - VectorIndex: Stores unit vectors and answers top-k inner-product queries
//   - AnswerExtractor: Extracts an answer and evidence spans from a context
//   - NormaliserRegistry: Extracts text from uploaded files by extension
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - EmbeddingService: Without it retrieval is disabled and answers use the full context.
//   - EntityExtractor: Without it answers carry no entities.
//   - EmbeddingCache: Without it every chunk is embedded on ingestion.
//   - LLMService: Only needed when answers come from a generative model.
//   - PromptStore: Without it adapters use built-in prompts.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or normaliser package
package driven
