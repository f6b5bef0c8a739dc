package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/menusearch-mcp/internal/embedder"
	"github.com/dshills/menusearch-mcp/internal/searcher"
	"github.com/dshills/menusearch-mcp/internal/storage"
	"github.com/dshills/menusearch-mcp/pkg/types"
)

// failingStorage fails every write
type failingStorage struct {
	storage.Storage
	saves   int
	deletes int
}

func (f *failingStorage) SaveIndex(ctx context.Context, snap *storage.Snapshot) error {
	f.saves++
	return errors.New("disk full")
}

func (f *failingStorage) DeleteIndex(ctx context.Context, instanceID string) error {
	f.deletes++
	return errors.New("read-only filesystem")
}

type recorded struct {
	state    State
	err      error
	progress Progress
}

type recorder struct {
	mu     sync.Mutex
	events []recorded
}

func (r *recorder) listen(state State, err error, progress Progress) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recorded{state, err, progress})
}

func (r *recorder) states() []State {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []State
	for _, e := range r.events {
		if len(out) == 0 || out[len(out)-1] != e.state {
			out = append(out, e.state)
		}
	}
	return out
}

func testMenu() *types.Menu {
	return &types.Menu{Items: []types.MenuItem{
		{
			ID:          "1",
			Name:        "Veggie Wrap",
			Category:    "lunch",
			Dietary:     types.Dietary{IsVegetarian: true},
			Ingredients: []string{"tortilla", "lettuce", "tomato"},
		},
		{
			ID:          "2",
			Name:        "Steak Sandwich",
			Category:    "lunch",
			Ingredients: []string{"steak", "bread"},
		},
		{ID: "3", Name: "Lemon Tart", Category: "dessert", Price: 7},
	}}
}

func newTestService(t *testing.T, store storage.Storage) *Service {
	t.Helper()
	svc, err := New(Options{Storage: store, InstanceID: "test-instance", Workers: 2})
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func newStore(t *testing.T) *storage.SQLiteStorage {
	t.Helper()
	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestNewGeneratesInstanceID(t *testing.T) {
	a, err := New(Options{})
	require.NoError(t, err)
	b, err := New(Options{})
	require.NoError(t, err)

	assert.NotEmpty(t, a.InstanceID())
	assert.NotEqual(t, a.InstanceID(), b.InstanceID())
	assert.Equal(t, StateUninitialized, a.State())
	assert.Equal(t, embedder.Dimension, a.Embedder().Dimension())
}

func TestSearchBeforeReady(t *testing.T) {
	svc := newTestService(t, nil)

	_, err := svc.Search(context.Background(), "wrap")
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestInitializeIndexThenSearch(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	require.NoError(t, svc.InitializeIndex(ctx, testMenu()))
	assert.Equal(t, StateReady, svc.State())

	status := svc.Status()
	assert.Equal(t, 3, status.ItemCount)
	assert.False(t, status.BuiltAt.IsZero())
	require.NotNil(t, status.LastBuild)
	assert.Equal(t, 3, status.LastBuild.ItemsIndexed)

	resp, err := svc.Search(ctx, "vegetarian")
	require.NoError(t, err)
	require.NotEmpty(t, resp.Results)
	assert.Equal(t, "1", resp.Results[0].Item.ID)
	assert.Len(t, resp.Grouped["lunch"], 2)
}

func TestIndexCompletenessExcludesInvalidItems(t *testing.T) {
	svc := newTestService(t, nil)
	menu := testMenu()
	menu.Items = append(menu.Items,
		types.MenuItem{ID: "4", Category: "lunch"},
		types.MenuItem{ID: "5", Name: "Orphan"},
	)

	require.NoError(t, svc.InitializeIndex(context.Background(), menu))
	assert.Equal(t, 3, svc.Status().ItemCount)
	assert.Equal(t, 3, svc.searcher.Corpus().Len())
}

func TestEmptyQueryInAnyState(t *testing.T) {
	svc := newTestService(t, nil)

	resp, err := svc.Search(context.Background(), "   ")
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
	assert.Empty(t, resp.Grouped)
	assert.Nil(t, svc.searcher.Corpus(), "index untouched")
}

func TestInitializeIndexFailure(t *testing.T) {
	svc := newTestService(t, nil)
	rec := &recorder{}
	svc.AddStateListener(rec.listen)

	err := svc.InitializeIndex(context.Background(), &types.Menu{})
	require.Error(t, err)

	status := svc.Status()
	assert.Equal(t, StateError, status.State)
	assert.ErrorIs(t, status.Err, err)
	assert.Equal(t, []State{StateUninitialized, StateLoading, StateError}, rec.states())

	_, err = svc.Search(context.Background(), "wrap")
	assert.ErrorIs(t, err, ErrNotReady)

	// Fixing the data and retrying recovers
	require.NoError(t, svc.InitializeIndex(context.Background(), testMenu()))
	assert.Equal(t, StateReady, svc.State())
	assert.NoError(t, svc.Status().Err)
}

func TestListenerReplayAndTransitions(t *testing.T) {
	svc := newTestService(t, nil)
	rec := &recorder{}

	id := svc.AddStateListener(rec.listen)
	require.Len(t, rec.events, 1, "current state is replayed on registration")
	assert.Equal(t, StateUninitialized, rec.events[0].state)

	require.NoError(t, svc.InitializeIndex(context.Background(), testMenu()))
	assert.Equal(t, []State{StateUninitialized, StateLoading, StateReady}, rec.states())

	// Progress while loading climbs to the total
	var last Progress
	for _, e := range rec.events {
		if e.state == StateLoading {
			assert.GreaterOrEqual(t, e.progress.Done, last.Done)
			last = e.progress
		}
	}
	assert.Equal(t, Progress{Done: 3, Total: 3}, last)

	late := &recorder{}
	svc.AddStateListener(late.listen)
	require.Len(t, late.events, 1)
	assert.Equal(t, StateReady, late.events[0].state)
	assert.Equal(t, 100.0, late.events[0].progress.Percent())

	assert.True(t, svc.RemoveStateListener(id))
	assert.False(t, svc.RemoveStateListener(id))

	before := len(rec.events)
	require.NoError(t, svc.Cleanup(context.Background()))
	assert.Len(t, rec.events, before, "removed listeners hear nothing")
	assert.Equal(t, StateUninitialized, late.events[len(late.events)-1].state)

	assert.Equal(t, ListenerID(0), svc.AddStateListener(nil))
}

func TestListenersSeeStatesInOrder(t *testing.T) {
	svc := newTestService(t, nil)
	rank := map[State]int{StateUninitialized: 0, StateLoading: 1, StateReady: 2}

	const n = 32
	recs := make([]*recorder, n)
	var wg sync.WaitGroup
	build := make(chan error, 1)
	go func() { build <- svc.InitializeIndex(context.Background(), testMenu()) }()
	for i := range recs {
		recs[i] = &recorder{}
		wg.Add(1)
		go func(r *recorder) {
			defer wg.Done()
			svc.AddStateListener(r.listen)
		}(recs[i])
	}
	wg.Wait()
	require.NoError(t, <-build)

	for i, r := range recs {
		r.mu.Lock()
		events := append([]recorded(nil), r.events...)
		r.mu.Unlock()

		require.NotEmpty(t, events, "listener %d", i)
		for j := 1; j < len(events); j++ {
			prev, cur := events[j-1], events[j]
			assert.GreaterOrEqual(t, rank[cur.state], rank[prev.state], "listener %d event %d", i, j)
			if prev.state == StateLoading && cur.state == StateLoading {
				assert.GreaterOrEqual(t, cur.progress.Done, prev.progress.Done, "listener %d event %d", i, j)
			}
		}
		assert.Equal(t, StateReady, events[len(events)-1].state, "listener %d ends on the latest state", i)
	}
}

func TestInitializeIndexRejectsConcurrentBuild(t *testing.T) {
	svc := newTestService(t, nil)

	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	svc.AddStateListener(func(state State, err error, progress Progress) {
		if state == StateLoading {
			once.Do(func() {
				close(entered)
				<-release
			})
		}
	})

	done := make(chan error, 1)
	go func() { done <- svc.InitializeIndex(context.Background(), testMenu()) }()

	<-entered
	err := svc.InitializeIndex(context.Background(), testMenu())
	assert.ErrorIs(t, err, ErrIndexingInProgress)
	_, err = svc.Restore(context.Background())
	assert.NoError(t, err, "restore without storage is a no-op")
	close(release)

	require.NoError(t, <-done)
	assert.Equal(t, StateReady, svc.State())
}

func TestCleanup(t *testing.T) {
	store := newStore(t)
	svc := newTestService(t, store)
	ctx := context.Background()

	require.NoError(t, svc.InitializeIndex(ctx, testMenu()))
	_, err := store.GetIndexInfo(ctx, svc.InstanceID())
	require.NoError(t, err)

	require.NoError(t, svc.Cleanup(ctx))
	require.NoError(t, svc.Cleanup(ctx), "cleanup is idempotent")

	assert.Equal(t, StateUninitialized, svc.State())
	assert.Zero(t, svc.Status().ItemCount)
	assert.Nil(t, svc.searcher.Corpus())

	_, err = store.GetIndexInfo(ctx, svc.InstanceID())
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = svc.Search(ctx, "wrap")
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestCleanupBeforeInitialize(t *testing.T) {
	svc := newTestService(t, nil)
	require.NoError(t, svc.Cleanup(context.Background()))
	require.NoError(t, svc.Cleanup(context.Background()))
	assert.Equal(t, StateUninitialized, svc.State())
}

func TestPersistenceFailuresAreNotFatal(t *testing.T) {
	store := &failingStorage{}
	svc := newTestService(t, store)
	ctx := context.Background()

	require.NoError(t, svc.InitializeIndex(ctx, testMenu()))
	assert.Equal(t, 1, store.saves)
	assert.Equal(t, StateReady, svc.State())

	_, err := svc.Search(ctx, "tart")
	require.NoError(t, err)

	require.NoError(t, svc.Cleanup(ctx))
	assert.Equal(t, 1, store.deletes)
}

func TestRestore(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	first := newTestService(t, store)
	restored, err := first.Restore(ctx)
	require.NoError(t, err)
	assert.False(t, restored, "nothing persisted yet")
	assert.Equal(t, StateUninitialized, first.State())

	require.NoError(t, first.InitializeIndex(ctx, testMenu()))
	want, err := first.Search(ctx, "steak")
	require.NoError(t, err)

	second := newTestService(t, store)
	restored, err = second.Restore(ctx)
	require.NoError(t, err)
	assert.True(t, restored)

	status := second.Status()
	assert.Equal(t, StateReady, status.State)
	assert.True(t, status.Restored)
	assert.Equal(t, 3, status.ItemCount)

	got, err := second.Search(ctx, "steak")
	require.NoError(t, err)
	require.Equal(t, len(want.Results), len(got.Results))
	for i := range want.Results {
		assert.Equal(t, want.Results[i].Item, got.Results[i].Item)
		assert.InDelta(t, want.Results[i].Similarity, got.Results[i].Similarity, 1e-6)
	}
}

// otherEmbedder reports a different model than the hash provider
type otherEmbedder struct {
	embedder.Embedder
}

func (otherEmbedder) Model() string { return "other-model" }

func TestRestoreRejectsIncompatibleSnapshot(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	require.NoError(t, newTestService(t, store).InitializeIndex(ctx, testMenu()))

	base, err := embedder.New(embedder.Config{})
	require.NoError(t, err)
	svc, err := New(Options{Storage: store, InstanceID: "test-instance", Embedder: otherEmbedder{base}})
	require.NoError(t, err)

	restored, err := svc.Restore(ctx)
	assert.False(t, restored)
	assert.ErrorIs(t, err, ErrIncompatibleSnapshot)
	assert.Equal(t, StateUninitialized, svc.State())
}

func TestReindexReplacesIndex(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	require.NoError(t, svc.InitializeIndex(ctx, testMenu()))
	require.NoError(t, svc.InitializeIndex(ctx, &types.Menu{Items: []types.MenuItem{
		{ID: "9", Name: "Miso Soup", Category: "starters"},
	}}))

	resp, err := svc.Search(ctx, "steak")
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "9", resp.Results[0].Item.ID)
}

func TestServiceCache(t *testing.T) {
	svc, err := New(Options{UseCache: true, CacheTTL: time.Minute})
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, svc.InitializeIndex(ctx, testMenu()))

	first, err := svc.Search(ctx, "lemon")
	require.NoError(t, err)
	assert.False(t, first.CacheHit)

	second, err := svc.SearchWith(ctx, searcher.SearchRequest{Query: "lemon"})
	require.NoError(t, err)
	assert.True(t, second.CacheHit)

	require.NoError(t, svc.InitializeIndex(ctx, testMenu()))
	third, err := svc.Search(ctx, "lemon")
	require.NoError(t, err)
	assert.False(t, third.CacheHit, "rebuild invalidates cached responses")
}
