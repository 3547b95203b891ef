package services

import (
	"context"
	"fmt"
	"hash/fnv"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure SessionStore implements the interface.
var _ driving.SessionService = (*SessionStore)(nil)

// defaultShards is the number of independently locked session map shards.
const defaultShards = 32

// IndexFactory builds an empty vector backend for a new session.
type IndexFactory func() (driven.VectorIndex, error)

// session is the live record behind a domain.Session snapshot.
type session struct {
	id        string
	createdAt time.Time

	// ingestMu serialises ingestion for this id so chunks land in upload order.
	ingestMu sync.Mutex

	// mu guards the fields below.
	mu        sync.RWMutex
	documents []domain.Document
	retriever *Retriever
	updatedAt time.Time
}

type shard struct {
	mu       sync.RWMutex
	sessions map[string]*session
}

// SessionStore owns every session's documents and retrieval index.
// Sessions live for the lifetime of the store; nothing is evicted.
type SessionStore struct {
	shards    []*shard
	chunker   driven.PostProcessor
	embedder  driven.EmbeddingService
	newIndex  IndexFactory
	ragEnable bool
	batchSize int
	now       func() time.Time
}

// SessionStoreOption configures a SessionStore.
type SessionStoreOption func(*SessionStore)

// WithRAG enables or disables retrieval indexing of ingested documents.
func WithRAG(enabled bool) SessionStoreOption {
	return func(s *SessionStore) {
		s.ragEnable = enabled
	}
}

// WithEmbedBatchSize bounds how many chunks are embedded per request.
func WithEmbedBatchSize(n int) SessionStoreOption {
	return func(s *SessionStore) {
		s.batchSize = n
	}
}

// WithShards sets the number of session map shards.
func WithShards(n int) SessionStoreOption {
	return func(s *SessionStore) {
		if n > 0 {
			s.shards = newShards(n)
		}
	}
}

// WithClock replaces the time source.
func WithClock(now func() time.Time) SessionStoreOption {
	return func(s *SessionStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewSessionStore creates an empty store.
// The embedder and newIndex parameters are optional (can be nil); without
// either, documents are kept for full-context answers but not indexed.
func NewSessionStore(
	chunker driven.PostProcessor,
	embedder driven.EmbeddingService,
	newIndex IndexFactory,
	opts ...SessionStoreOption,
) *SessionStore {
	s := &SessionStore{
		shards:    newShards(defaultShards),
		chunker:   chunker,
		embedder:  embedder,
		newIndex:  newIndex,
		ragEnable: true,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func newShards(n int) []*shard {
	shards := make([]*shard, n)
	for i := range shards {
		shards[i] = &shard{sessions: make(map[string]*session)}
	}
	return shards
}

// RAGReady reports whether ingested documents are indexed for retrieval.
func (s *SessionStore) RAGReady() bool {
	return s.ragEnable && s.embedder != nil && s.newIndex != nil
}

func (s *SessionStore) shardFor(id string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return s.shards[h.Sum32()%uint32(len(s.shards))]
}

func (s *SessionStore) lookup(id string) *session {
	if id == "" {
		return nil
	}
	sh := s.shardFor(id)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	return sh.sessions[id]
}

// create allocates a session under a fresh id.
func (s *SessionStore) create() *session {
	now := s.now()
	sess := &session{
		id:        uuid.New().String(),
		createdAt: now,
		updatedAt: now,
	}

	sh := s.shardFor(sess.id)
	sh.mu.Lock()
	sh.sessions[sess.id] = sess
	sh.mu.Unlock()

	logger.Debug("session %s created", sess.id)
	return sess
}

// Ingest appends docs to the session and indexes their chunks.
// An empty or unknown sessionID allocates a session under a freshly
// generated id; caller-chosen ids are never adopted, so ids always come from
// the store. Callers continue with the id in the returned result. A document
// whose chunks fail to index is still appended and its failure is reported
// in Failed.
func (s *SessionStore) Ingest(ctx context.Context, sessionID string, docs []domain.Document) (*domain.IngestResult, error) {
	sess := s.lookup(sessionID)
	if sess == nil {
		if sessionID != "" {
			logger.Debug("session %s unknown, allocating a new one", sessionID)
		}
		sess = s.create()
	}

	sess.ingestMu.Lock()
	defer sess.ingestMu.Unlock()

	result := &domain.IngestResult{
		SessionID: sess.id,
		Uploaded:  make([]domain.UploadedFile, 0, len(docs)),
		RAGReady:  s.RAGReady(),
	}

	for i := range docs {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		doc := docs[i]
		uploaded := domain.UploadedFile{Filename: doc.Filename, Chars: doc.Chars()}

		if s.RAGReady() {
			added, err := s.index(ctx, sess, &doc)
			uploaded.Chunks = added
			if err != nil {
				logger.Warn("indexing %s in session %s: %v", doc.Filename, sess.id, err)
				result.Failed = append(result.Failed, domain.FileError{
					Filename: doc.Filename,
					Err:      fmt.Errorf("indexed %d chunks: %w", added, err),
				})
			}
		}

		sess.mu.Lock()
		sess.documents = append(sess.documents, doc)
		sess.updatedAt = s.now()
		sess.mu.Unlock()

		result.Uploaded = append(result.Uploaded, uploaded)
	}

	logger.Debug("session %s ingested %d documents", sess.id, len(docs))
	return result, nil
}

// index chunks one document into the session's retriever, creating it on
// first use. Embedding runs without holding the session state lock.
func (s *SessionStore) index(ctx context.Context, sess *session, doc *domain.Document) (int, error) {
	chunks, err := s.chunker.Process(ctx, doc)
	if err != nil {
		return 0, fmt.Errorf("chunk: %w", err)
	}
	if len(chunks) == 0 {
		return 0, nil
	}

	sess.mu.Lock()
	retriever := sess.retriever
	if retriever == nil {
		backend, err := s.newIndex()
		if err != nil {
			sess.mu.Unlock()
			return 0, fmt.Errorf("create index: %w", err)
		}
		retriever = NewRetriever(NewChunkIndex(backend), s.embedder, WithBatchSize(s.batchSize))
		sess.retriever = retriever
	}
	sess.mu.Unlock()

	return retriever.Index(ctx, chunks)
}

// Get returns a snapshot of the session.
func (s *SessionStore) Get(_ context.Context, id string) (*domain.Session, error) {
	sess := s.lookup(id)
	if sess == nil {
		return nil, fmt.Errorf("session %q: %w", id, domain.ErrSessionNotFound)
	}
	return sess.snapshot(), nil
}

func (sess *session) snapshot() *domain.Session {
	sess.mu.RLock()
	defer sess.mu.RUnlock()

	docs := make([]domain.Document, len(sess.documents))
	copy(docs, sess.documents)

	size := 0
	if sess.retriever != nil {
		size = sess.retriever.Size()
	}

	return &domain.Session{
		ID:        sess.id,
		Documents: docs,
		IndexSize: size,
		CreatedAt: sess.createdAt,
		UpdatedAt: sess.updatedAt,
	}
}

// Documents returns the session's documents in upload order.
func (s *SessionStore) Documents(id string) ([]domain.Document, error) {
	sess := s.lookup(id)
	if sess == nil {
		return nil, fmt.Errorf("session %q: %w", id, domain.ErrSessionNotFound)
	}

	sess.mu.RLock()
	defer sess.mu.RUnlock()
	docs := make([]domain.Document, len(sess.documents))
	copy(docs, sess.documents)
	return docs, nil
}

// Retriever returns the session's retriever, or nil when nothing is indexed.
func (s *SessionStore) Retriever(id string) *Retriever {
	sess := s.lookup(id)
	if sess == nil {
		return nil
	}
	sess.mu.RLock()
	defer sess.mu.RUnlock()
	return sess.retriever
}

// List returns snapshots of all sessions ordered by creation time.
func (s *SessionStore) List(_ context.Context) ([]domain.Session, error) {
	var out []domain.Session
	for _, sh := range s.shards {
		sh.mu.RLock()
		for _, sess := range sh.sessions {
			out = append(out, *sess.snapshot())
		}
		sh.mu.RUnlock()
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// IDs returns all session ids in sorted order.
func (s *SessionStore) IDs() []string {
	var ids []string
	for _, sh := range s.shards {
		sh.mu.RLock()
		for id := range sh.sessions {
			ids = append(ids, id)
		}
		sh.mu.RUnlock()
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of sessions.
func (s *SessionStore) Len() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		n += len(sh.sessions)
		sh.mu.RUnlock()
	}
	return n
}

// Close releases every session's index.
func (s *SessionStore) Close() error {
	for _, sh := range s.shards {
		sh.mu.RLock()
		for _, sess := range sh.sessions {
			sess.mu.RLock()
			if sess.retriever != nil {
				if err := sess.retriever.Close(); err != nil {
					logger.Warn("closing index for session %s: %v", sess.id, err)
				}
			}
			sess.mu.RUnlock()
		}
		sh.mu.RUnlock()
	}
	return nil
}
