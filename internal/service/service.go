package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/menusearch-mcp/internal/embedder"
	"github.com/dshills/menusearch-mcp/internal/indexer"
	"github.com/dshills/menusearch-mcp/internal/searcher"
	"github.com/dshills/menusearch-mcp/internal/storage"
	"github.com/dshills/menusearch-mcp/pkg/types"
)

var (
	// ErrNotReady is returned when searching before an index is ready
	ErrNotReady = errors.New("search index is not ready")
	// ErrIndexingInProgress is returned when a build is already running
	ErrIndexingInProgress = errors.New("indexing already in progress")
	// ErrIncompatibleSnapshot is returned when a persisted index was built by a different embedder
	ErrIncompatibleSnapshot = errors.New("persisted index is incompatible with the embedder")
)

// Options configures a Service
type Options struct {
	// Embedder defaults to the hash provider with the default cache
	Embedder embedder.Embedder
	// Storage is optional; without it the index lives only in memory
	Storage storage.Storage
	// InstanceID keys the persisted index; a random one is generated when empty
	InstanceID string

	Workers        int
	TopK           int
	ContextMatches int
	CacheSize      int
	CacheTTL       time.Duration
	// UseCache turns on response caching for Search
	UseCache bool
}

// Status is a point-in-time view of the service
type Status struct {
	InstanceID string
	State      State
	Err        error
	Progress   Progress
	ItemCount  int
	BuiltAt    time.Time
	Restored   bool
	LastBuild  *indexer.Statistics
}

// Service owns one menu index and its lifecycle
type Service struct {
	instanceID string
	embedder   embedder.Embedder
	storage    storage.Storage
	indexer    *indexer.Indexer
	searcher   *searcher.Searcher
	useCache   bool
	cacheTTL   time.Duration

	buildLock buildLock
	listeners listenerSet
	// notifyMu orders state updates with listener delivery so a
	// registration replay never follows a newer notification
	notifyMu sync.Mutex

	mu        sync.RWMutex
	state     State
	lastErr   error
	progress  Progress
	itemCount int
	builtAt   time.Time
	restored  bool
	lastBuild *indexer.Statistics
}

// New creates a Service in StateUninitialized
func New(opts Options) (*Service, error) {
	emb := opts.Embedder
	if emb == nil {
		var err error
		emb, err = embedder.New(embedder.Config{Provider: embedder.ProviderHash, CacheSize: embedder.DefaultCacheSize})
		if err != nil {
			return nil, fmt.Errorf("failed to create embedder: %w", err)
		}
	}

	instanceID := strings.TrimSpace(opts.InstanceID)
	if instanceID == "" {
		instanceID = uuid.NewString()
	}

	return &Service{
		instanceID: instanceID,
		embedder:   emb,
		storage:    opts.Storage,
		indexer:    indexer.New(emb, &indexer.Config{Workers: opts.Workers}),
		searcher: searcher.New(emb, &searcher.Config{
			TopK:           opts.TopK,
			ContextMatches: opts.ContextMatches,
			CacheSize:      opts.CacheSize,
		}),
		useCache: opts.UseCache,
		cacheTTL: opts.CacheTTL,
		state:    StateUninitialized,
	}, nil
}

// InstanceID returns the key under which the index is persisted
func (s *Service) InstanceID() string {
	return s.instanceID
}

// Embedder returns the embedder used for items and queries
func (s *Service) Embedder() embedder.Embedder {
	return s.embedder
}

// State returns the current lifecycle state
func (s *Service) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Status returns a snapshot of the service state
func (s *Service) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Status{
		InstanceID: s.instanceID,
		State:      s.state,
		Err:        s.lastErr,
		Progress:   s.progress,
		ItemCount:  s.itemCount,
		BuiltAt:    s.builtAt,
		Restored:   s.restored,
	}
	if s.lastBuild != nil {
		stats := *s.lastBuild
		st.LastBuild = &stats
	}
	return st
}

// InitializeIndex builds the index from menu and makes it searchable.
// On failure the service enters StateError and the error is returned.
// A call made while another build runs returns ErrIndexingInProgress.
func (s *Service) InitializeIndex(ctx context.Context, menu *types.Menu) error {
	if !s.buildLock.TryAcquire() {
		return ErrIndexingInProgress
	}
	defer s.buildLock.Release()

	total := 0
	if menu != nil {
		total = len(menu.Items)
	}
	s.transition(StateLoading, nil, Progress{Total: total})

	result, err := s.indexer.Build(ctx, menu, s.reportProgress)
	if err != nil {
		s.fail(fmt.Errorf("failed to build index: %w", err))
		return err
	}

	corpus, err := searcher.FromResult(ctx, s.embedder.Dimension(), result)
	if err != nil {
		s.fail(err)
		return err
	}
	s.swapCorpus(corpus)

	s.persist(ctx, result)

	s.mu.Lock()
	s.itemCount = corpus.Len()
	s.builtAt = time.Now().UTC()
	s.restored = false
	stats := result.Stats
	s.lastBuild = &stats
	s.mu.Unlock()

	log.Printf("Indexed %d menu items (%d skipped, %d duplicates) in %v",
		stats.ItemsIndexed, stats.ItemsSkipped, stats.Duplicates, stats.Duration)

	s.transition(StateReady, nil, Progress{Done: total, Total: total})
	return nil
}

// Restore loads the persisted index for this instance without re-embedding.
// Returns false when nothing is persisted.
func (s *Service) Restore(ctx context.Context) (bool, error) {
	if s.storage == nil {
		return false, nil
	}
	if !s.buildLock.TryAcquire() {
		return false, ErrIndexingInProgress
	}
	defer s.buildLock.Release()

	snap, err := s.storage.LoadIndex(ctx, s.instanceID)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load persisted index: %w", err)
	}

	if snap.Info.Dimension != s.embedder.Dimension() ||
		snap.Info.Provider != s.embedder.Provider() ||
		snap.Info.Model != s.embedder.Model() {
		return false, fmt.Errorf("%w: stored %s/%s/%d, embedder %s/%s/%d", ErrIncompatibleSnapshot,
			snap.Info.Provider, snap.Info.Model, snap.Info.Dimension,
			s.embedder.Provider(), s.embedder.Model(), s.embedder.Dimension())
	}
	if len(snap.Items) == 0 {
		return false, nil
	}

	total := len(snap.Items)
	s.transition(StateLoading, nil, Progress{Total: total})

	embeddings := make([]*indexer.Embedding, 0, total)
	for _, it := range snap.Items {
		embeddings = append(embeddings, &indexer.Embedding{Vector: it.Vector, Item: it.Item})
	}

	corpus, err := searcher.NewCorpus(ctx, s.embedder.Dimension(), embeddings)
	if err != nil {
		err = fmt.Errorf("failed to rebuild vector index: %w", err)
		s.fail(err)
		return false, err
	}
	s.swapCorpus(corpus)

	s.mu.Lock()
	s.itemCount = corpus.Len()
	s.builtAt = snap.Info.BuiltAt
	s.restored = true
	s.lastBuild = nil
	s.mu.Unlock()

	log.Printf("Restored %d menu items for instance %s", corpus.Len(), s.instanceID)

	s.transition(StateReady, nil, Progress{Done: total, Total: total})
	return true, nil
}

// Search runs a hybrid search for query. An empty query returns empty
// results in any state.
func (s *Service) Search(ctx context.Context, query string) (*searcher.SearchResponse, error) {
	return s.SearchWith(ctx, searcher.SearchRequest{Query: query})
}

// SearchWith runs a search with explicit options
func (s *Service) SearchWith(ctx context.Context, req searcher.SearchRequest) (*searcher.SearchResponse, error) {
	if strings.TrimSpace(req.Query) == "" {
		return s.searcher.Search(ctx, req)
	}

	if state := s.State(); state != StateReady {
		return nil, fmt.Errorf("%w (state: %s)", ErrNotReady, state)
	}

	if s.useCache && !req.UseCache {
		req.UseCache = true
		if req.CacheTTL == 0 {
			req.CacheTTL = s.cacheTTL
		}
	}

	return s.searcher.Search(ctx, req)
}

// Cleanup drops the in-memory index, deletes the persisted one and returns
// the service to StateUninitialized. Safe to call repeatedly.
func (s *Service) Cleanup(ctx context.Context) error {
	resetErr := s.searcher.Reset()

	if s.storage != nil {
		if err := s.storage.DeleteIndex(ctx, s.instanceID); err != nil {
			log.Printf("warning: failed to delete persisted index %s: %v", s.instanceID, err)
		}
	}

	s.mu.Lock()
	s.itemCount = 0
	s.builtAt = time.Time{}
	s.restored = false
	s.lastBuild = nil
	s.mu.Unlock()

	s.transition(StateUninitialized, nil, Progress{})

	if resetErr != nil {
		return fmt.Errorf("failed to reset vector index: %w", resetErr)
	}
	return nil
}

// Close releases the in-memory index. The persisted index is kept.
func (s *Service) Close() error {
	return s.searcher.Reset()
}

// AddStateListener registers fn and immediately calls it with the current
// state. fn is then called on every transition and on build progress.
// fn must not register listeners or start a build.
func (s *Service) AddStateListener(fn Listener) ListenerID {
	if fn == nil {
		return 0
	}
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	id := s.listeners.add(fn)

	s.mu.RLock()
	state, err, progress := s.state, s.lastErr, s.progress
	s.mu.RUnlock()

	fn(state, err, progress)
	return id
}

// RemoveStateListener unregisters a listener. Returns false if id is unknown.
func (s *Service) RemoveStateListener(id ListenerID) bool {
	return s.listeners.remove(id)
}

// transition updates state and notifies listeners when anything changed
func (s *Service) transition(state State, err error, progress Progress) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	changed := s.state != state || s.progress != progress || err != nil || s.lastErr != nil
	s.state = state
	s.lastErr = err
	s.progress = progress
	s.mu.Unlock()

	if changed {
		s.notify(state, err, progress)
	}
}

func (s *Service) fail(err error) {
	log.Printf("Index build failed for instance %s: %v", s.instanceID, err)
	s.mu.RLock()
	progress := s.progress
	s.mu.RUnlock()
	s.transition(StateError, err, progress)
}

// reportProgress is the indexer progress callback
func (s *Service) reportProgress(done, total int) {
	s.transition(StateLoading, nil, Progress{Done: done, Total: total})
}

func (s *Service) notify(state State, err error, progress Progress) {
	for _, fn := range s.listeners.snapshot() {
		fn(state, err, progress)
	}
}

func (s *Service) swapCorpus(c *searcher.Corpus) {
	if old := s.searcher.Load(c); old != nil {
		if err := old.Release(); err != nil {
			log.Printf("warning: failed to release previous vector index: %v", err)
		}
	}
}

// persist saves the built index. Failures are logged and otherwise ignored.
func (s *Service) persist(ctx context.Context, result *indexer.Result) {
	if s.storage == nil {
		return
	}

	snap := &storage.Snapshot{
		Info: storage.IndexInfo{
			InstanceID: s.instanceID,
			Dimension:  s.embedder.Dimension(),
			Provider:   s.embedder.Provider(),
			Model:      s.embedder.Model(),
			BuiltAt:    time.Now().UTC(),
		},
		Items: make([]storage.StoredItem, 0, len(result.Order)),
	}
	for _, id := range result.Order {
		emb := result.Embeddings[id]
		snap.Items = append(snap.Items, storage.StoredItem{Item: emb.Item, Vector: emb.Vector})
	}

	if err := s.storage.SaveIndex(ctx, snap); err != nil {
		log.Printf("warning: failed to persist index %s: %v", s.instanceID, err)
	}
}
