// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The retrieval core lives here: ChunkIndex keeps chunks and vectors in
// positional lockstep, Retriever embeds queries against one index,
// SessionStore owns per-session documents and indexes, and AnswerService
// assembles answers from retrieved or full context.
//
// Services are pure Go with no CGO or external dependencies.
package services
