package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"bookcatalog/internal/models"
	"bookcatalog/internal/storage/stubs"
)

var testTime = time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

// newTestStore creates a Store over a fresh mock backend with deterministic ids and clock
func newTestStore(t *testing.T, opts ...Option) (*Store, *stubs.MockKV) {
	t.Helper()

	kv := stubs.NewMockKV()
	seq := 0
	base := []Option{
		WithClock(func() time.Time { return testTime }),
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("book-%d", seq)
		}),
	}
	store := New(kv, append(base, opts...)...)
	require.NoError(t, store.Load(context.Background()))
	return store, kv
}

func titles(books []models.Book) []string {
	out := make([]string, len(books))
	for i, b := range books {
		out[i] = b.Title
	}
	return out
}

func TestStore_AddAppends(t *testing.T) {
	store, kv := newTestStore(t)
	ctx := context.Background()

	first, err := store.Add(ctx, "Dune", "Frank Herbert")
	require.NoError(t, err)
	second, err := store.Add(ctx, "Foundation", "Isaac Asimov")
	require.NoError(t, err)

	assert.Equal(t, "book-1", first.ID)
	assert.Equal(t, "book-2", second.ID)
	assert.Equal(t, testTime, first.DateAdded)

	all := store.Filter("")
	assert.Equal(t, []string{"Dune", "Foundation"}, titles(all))
	assert.Equal(t, second, all[len(all)-1])
	assert.Equal(t, 2, kv.Writes(), "every add persists exactly once")
}

func TestStore_AddTrims(t *testing.T) {
	store, _ := newTestStore(t)

	book, err := store.Add(context.Background(), "  Dune \t", "\nFrank Herbert  ")
	require.NoError(t, err)
	assert.Equal(t, "Dune", book.Title)
	assert.Equal(t, "Frank Herbert", book.Author)
}

func TestStore_AddValidation(t *testing.T) {
	tests := []struct {
		name   string
		title  string
		author string
		field  string
	}{
		{"empty title", "", "Someone", "title"},
		{"blank title", "   ", "Someone", "title"},
		{"empty author", "Dune", "", "author"},
		{"blank author", "Dune", " \t ", "author"},
		{"both empty", "", "", "title"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, kv := newTestStore(t)

			_, err := store.Add(context.Background(), tt.title, tt.author)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation))
			assert.True(t, IsValidation(err))

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)

			assert.Equal(t, 0, store.Len())
			assert.Equal(t, 0, kv.Writes(), "rejected add must not persist")
		})
	}
}

func TestStore_AddUniqueIDs(t *testing.T) {
	ids := []string{"dup", "dup", "", "other"}
	next := 0
	store, _ := newTestStore(t, WithIDGenerator(func() string {
		id := ids[next]
		next++
		return id
	}))
	ctx := context.Background()

	first, err := store.Add(ctx, "Dune", "Frank Herbert")
	require.NoError(t, err)
	second, err := store.Add(ctx, "Emma", "Jane Austen")
	require.NoError(t, err)

	assert.Equal(t, "dup", first.ID)
	assert.Equal(t, "other", second.ID)
}

func TestStore_DefaultIDsAreUUIDs(t *testing.T) {
	store := New(stubs.NewMockKV())
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		book, err := store.Add(ctx, fmt.Sprintf("Book %d", i), "Author")
		require.NoError(t, err)
		assert.Len(t, book.ID, 36)
		assert.False(t, seen[book.ID], "duplicate id %s", book.ID)
		seen[book.ID] = true
	}
}

func TestStore_AddRollsBackOnPersistFailure(t *testing.T) {
	store, kv := newTestStore(t)
	ctx := context.Background()

	_, err := store.Add(ctx, "Dune", "Frank Herbert")
	require.NoError(t, err)

	kv.FailWrites(true)
	_, err = store.Add(ctx, "Foundation", "Isaac Asimov")
	require.Error(t, err)
	assert.True(t, errors.Is(err, stubs.ErrWriteFailed))
	assert.False(t, IsValidation(err))

	assert.Equal(t, []string{"Dune"}, titles(store.Filter("")))
}

func TestStore_Remove(t *testing.T) {
	store, kv := newTestStore(t)
	ctx := context.Background()

	dune, _ := store.Add(ctx, "Dune", "Frank Herbert")
	_, _ = store.Add(ctx, "Foundation", "Isaac Asimov")
	_, _ = store.Add(ctx, "Emma", "Jane Austen")
	writes := kv.Writes()

	removed, err := store.Remove(ctx, dune.ID)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Equal(t, []string{"Foundation", "Emma"}, titles(store.Filter("")))
	assert.Equal(t, writes+1, kv.Writes())

	_, ok := store.Get(dune.ID)
	assert.False(t, ok)
}

func TestStore_RemoveUnknown(t *testing.T) {
	store, kv := newTestStore(t)
	ctx := context.Background()

	_, _ = store.Add(ctx, "Dune", "Frank Herbert")
	before := store.Filter("")
	writes := kv.Writes()

	removed, err := store.Remove(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, removed)
	assert.Equal(t, before, store.Filter(""))
	assert.Equal(t, writes+1, kv.Writes(), "remove persists even when nothing matched")
}

func TestStore_RemoveRollsBackOnPersistFailure(t *testing.T) {
	store, kv := newTestStore(t)
	ctx := context.Background()

	dune, _ := store.Add(ctx, "Dune", "Frank Herbert")

	kv.FailWrites(true)
	removed, err := store.Remove(ctx, dune.ID)
	require.Error(t, err)
	assert.False(t, removed)

	_, ok := store.Get(dune.ID)
	assert.True(t, ok)
}

func TestStore_Filter(t *testing.T) {
	store, kv := newTestStore(t)
	ctx := context.Background()

	_, _ = store.Add(ctx, "Dune", "Frank Herbert")
	_, _ = store.Add(ctx, "Foundation", "Isaac Asimov")
	_, _ = store.Add(ctx, "Children of Dune", "Frank Herbert")
	_, _ = store.Add(ctx, "I, Robot", "Isaac Asimov")
	_, _ = store.Add(ctx, "Der Prozess", "Franz Kafka")
	_, _ = store.Add(ctx, "Die Verwandlung", "Straße Autor")
	writes := kv.Writes()

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"Dune", "Foundation", "Children of Dune", "I, Robot", "Der Prozess", "Die Verwandlung"}},
		{"   ", []string{"Dune", "Foundation", "Children of Dune", "I, Robot", "Der Prozess", "Die Verwandlung"}},
		{"herbert", []string{"Dune", "Children of Dune"}},
		{"HERBERT", []string{"Dune", "Children of Dune"}},
		{"  asimov ", []string{"Foundation", "I, Robot"}},
		{"fran", []string{"Dune", "Children of Dune", "Der Prozess"}},
		{"STRASSE", []string{"Die Verwandlung"}},
		{"tolkien", []string{}},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.query), func(t *testing.T) {
			assert.Equal(t, tt.want, titles(store.Filter(tt.query)))
		})
	}

	assert.Equal(t, writes, kv.Writes(), "filter must not persist")
}

func TestStore_FilterPartitionsCatalog(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	authors := []string{"Frank Herbert", "Isaac Asimov", "Ursula K. Le Guin", "Arthur C. Clarke", "Herbert George Wells"}
	for i, a := range authors {
		_, err := store.Add(ctx, fmt.Sprintf("Book %d", i), a)
		require.NoError(t, err)
	}

	for _, q := range []string{"herb", "AR", "le", "c.", "x"} {
		matched := store.Filter(q)
		inResult := make(map[string]bool)
		for _, b := range matched {
			inResult[b.ID] = true
			assert.Contains(t, strings.ToLower(b.Author), strings.ToLower(q))
		}
		for _, b := range store.Filter("") {
			if !inResult[b.ID] {
				assert.NotContains(t, strings.ToLower(b.Author), strings.ToLower(q))
			}
		}
	}
}

func TestStore_FilterReturnsCopy(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	_, _ = store.Add(ctx, "Dune", "Frank Herbert")

	books := store.Filter("")
	books[0].Title = "Changed"

	assert.Equal(t, "Dune", store.Filter("")[0].Title)
}

func TestStore_PersistLoadRoundTrip(t *testing.T) {
	store, kv := newTestStore(t, WithKey("home"))
	ctx := context.Background()

	_, _ = store.Add(ctx, "Dune", "Frank Herbert")
	_, _ = store.Add(ctx, "Foundation", "Isaac Asimov")
	_, _ = store.Add(ctx, "Emma", "Jane Austen")
	require.NoError(t, store.Persist(ctx))

	reloaded := New(kv, WithKey("home"))
	require.NoError(t, reloaded.Load(ctx))

	assert.Equal(t, store.Filter(""), reloaded.Filter(""))

	// A store over a different key shares nothing
	other := New(kv, WithKey("office"))
	require.NoError(t, other.Load(ctx))
	assert.Equal(t, 0, other.Len())
}

func TestStore_LoadLegacyRecordsWithoutDate(t *testing.T) {
	kv := stubs.NewMockKV()
	kv.Seed(DefaultKey, `[{"id":"lx1","title":"Dune","author":"Frank Herbert"}]`)

	store := New(kv)
	require.NoError(t, store.Load(context.Background()))

	books := store.Filter("")
	require.Len(t, books, 1)
	assert.Equal(t, "lx1", books[0].ID)
	assert.True(t, books[0].DateAdded.IsZero())
}

func TestStore_LoadCorruptSnapshot(t *testing.T) {
	snapshots := []string{
		"{not json",
		`{"id":"a"}`,
		`"books"`,
		`[1, 2, 3]`,
		`[{"id":"a","title":"Dune"}]`,
		`[{"title":"Dune","author":"Frank Herbert"}]`,
		`[{"id":"a","title":"Dune","author":"Frank Herbert"},{"id":"a","title":"Emma","author":"Jane Austen"}]`,
	}

	for _, snapshot := range snapshots {
		t.Run(snapshot, func(t *testing.T) {
			kv := stubs.NewMockKV()
			kv.Seed(DefaultKey, snapshot)

			core, logs := observer.New(zapcore.WarnLevel)
			store := New(kv, WithLogger(zap.New(core)))

			err := store.Load(context.Background())
			require.NoError(t, err)
			assert.Equal(t, 0, store.Len())
			assert.Empty(t, store.Filter(""))

			require.Equal(t, 1, logs.Len())
			entry := logs.All()[0]
			assert.Equal(t, "Discarding unreadable catalog snapshot", entry.Message)
			assert.Equal(t, DefaultKey, entry.ContextMap()["key"])
		})
	}
}

func TestStore_LoadNullSnapshot(t *testing.T) {
	kv := stubs.NewMockKV()
	kv.Seed(DefaultKey, "null")

	core, logs := observer.New(zapcore.WarnLevel)
	store := New(kv, WithLogger(zap.New(core)))

	require.NoError(t, store.Load(context.Background()))
	assert.Equal(t, 0, store.Len())
	assert.Equal(t, 0, logs.Len())
}

func TestStore_LoadReplacesCatalog(t *testing.T) {
	store, kv := newTestStore(t)
	ctx := context.Background()

	_, _ = store.Add(ctx, "Dune", "Frank Herbert")
	kv.Seed(DefaultKey, "{not json")

	require.NoError(t, store.Load(ctx))
	assert.Equal(t, 0, store.Len())

	// The store stays usable after recovering
	_, err := store.Add(ctx, "Emma", "Jane Austen")
	require.NoError(t, err)
	assert.Equal(t, 1, store.Len())
}

// failingKV is a backend whose reads fail
type failingKV struct {
	*stubs.MockKV
}

func (f failingKV) Get(ctx context.Context, key string) (string, bool, error) {
	return "", false, errors.New("connection refused")
}

func TestStore_LoadBackendFailure(t *testing.T) {
	store := New(failingKV{stubs.NewMockKV()})

	err := store.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	assert.False(t, errors.Is(err, ErrCorruptSnapshot))
	assert.Equal(t, 0, store.Len())
}

func TestStore_DuneScenario(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	_, err := store.Add(ctx, "Dune", "Frank Herbert")
	require.NoError(t, err)
	_, err = store.Add(ctx, "Foundation", "Isaac Asimov")
	require.NoError(t, err)

	result := store.Filter("herbert")
	require.Len(t, result, 1)
	assert.Equal(t, "Dune", result[0].Title)
	assert.Equal(t, "Frank Herbert", result[0].Author)
}

func TestStore_ConcurrentAdds(t *testing.T) {
	store := New(stubs.NewMockKV())
	ctx := context.Background()

	done := make(chan struct{})
	for i := 0; i < 20; i++ {
		go func(i int) {
			defer func() { done <- struct{}{} }()
			_, _ = store.Add(ctx, fmt.Sprintf("Book %d", i), "Author")
			_ = store.Filter("auth")
		}(i)
	}
	for i := 0; i < 20; i++ {
		<-done
	}

	assert.Equal(t, 20, store.Len())
}

func TestStore_SharedKeyKeepsOtherWriters(t *testing.T) {
	kv := stubs.NewMockKV()
	ctx := context.Background()

	server := New(kv)
	require.NoError(t, server.Load(ctx))
	tool := New(kv)
	require.NoError(t, tool.Load(ctx))

	_, err := tool.Add(ctx, "Dune", "Frank Herbert")
	require.NoError(t, err)
	_, err = server.Add(ctx, "Foundation", "Isaac Asimov")
	require.NoError(t, err)

	assert.Equal(t, []string{"Dune", "Foundation"}, titles(server.Filter("")))

	fresh := New(kv)
	require.NoError(t, fresh.Load(ctx))
	assert.Equal(t, []string{"Dune", "Foundation"}, titles(fresh.Filter("")))
}

func TestStore_RemoveSeesOtherWriters(t *testing.T) {
	kv := stubs.NewMockKV()
	ctx := context.Background()

	server := New(kv)
	require.NoError(t, server.Load(ctx))
	tool := New(kv)

	book, err := tool.Add(ctx, "Dune", "Frank Herbert")
	require.NoError(t, err)

	removed, err := server.Remove(ctx, book.ID)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Equal(t, 0, server.Len())

	_, err = tool.Add(ctx, "Emma", "Jane Austen")
	require.NoError(t, err)
	assert.Equal(t, []string{"Emma"}, titles(tool.Filter("")))
}

func TestStore_MutationFailsWhenSnapshotUnreadable(t *testing.T) {
	kv := stubs.NewMockKV()
	store := New(failingKV{kv})
	ctx := context.Background()

	_, err := store.Add(ctx, "Dune", "Frank Herbert")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")

	_, err = store.Remove(ctx, "any")
	require.Error(t, err)

	assert.Equal(t, 0, kv.Writes())
	assert.Equal(t, 0, store.Len())
}

func TestStore_AddRepairsCorruptSnapshot(t *testing.T) {
	store, kv := newTestStore(t)
	ctx := context.Background()

	_, err := store.Add(ctx, "Dune", "Frank Herbert")
	require.NoError(t, err)
	kv.Seed(DefaultKey, "{not json")

	_, err = store.Add(ctx, "Emma", "Jane Austen")
	require.NoError(t, err)

	fresh := New(kv)
	require.NoError(t, fresh.Load(ctx))
	assert.Equal(t, []string{"Dune", "Emma"}, titles(fresh.Filter("")))
}
