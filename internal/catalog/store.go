// Package catalog owns the in-memory book catalog and keeps its persisted
// snapshot consistent with it.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/text/cases"

	"bookcatalog/internal/models"
	"bookcatalog/internal/storage"
)

// DefaultKey is the key the snapshot is stored under unless WithKey is given
const DefaultKey = "bookLibrary"

// Store holds an ordered list of books backed by a key-value snapshot.
// Every mutation re-reads the snapshot, applies the change and persists the
// full catalog before returning, so Stores in different processes sharing a
// key do not overwrite each other's completed writes.
type Store struct {
	mu     sync.RWMutex
	books  []models.Book
	kv     storage.KV
	key    string
	logger *zap.Logger
	now    func() time.Time
	newID  func() string
}

// Option configures a Store
type Option func(*Store)

// WithKey sets the key the snapshot is stored under
func WithKey(key string) Option {
	return func(s *Store) {
		s.key = key
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithClock sets the clock used to stamp DateAdded
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithIDGenerator sets the id source. Ids that collide with an existing
// record are discarded and regenerated.
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) {
		s.newID = newID
	}
}

// New creates an empty Store. Call Load to read the persisted snapshot.
func New(kv storage.KV, opts ...Option) *Store {
	s := &Store{
		books:  []models.Book{},
		kv:     kv,
		key:    DefaultKey,
		logger: zap.NewNop(),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key returns the key the snapshot is stored under
func (s *Store) Key() string {
	return s.key
}

// Load replaces the in-memory catalog with the persisted snapshot.
//
// A missing snapshot yields an empty catalog. A malformed one is logged and
// also yields an empty catalog; the corruption is never returned. Only a
// failing backend read is returned, and the catalog is left empty then too.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.books = []models.Book{}

	text, ok, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return fmt.Errorf("failed to read catalog snapshot: %w", err)
	}
	if !ok {
		s.logger.Info("No catalog snapshot found, starting empty", zap.String("key", s.key))
		return nil
	}

	books, err := DecodeSnapshot(text)
	if err != nil {
		s.logger.Warn("Discarding unreadable catalog snapshot",
			zap.String("key", s.key),
			zap.Int("bytes", len(text)),
			zap.Error(err),
		)
		return nil
	}

	s.books = books
	s.logger.Info("Catalog loaded", zap.String("key", s.key), zap.Int("books", len(books)))
	return nil
}

// Add appends a new book and persists the catalog.
// It returns a *ValidationError when title or author is empty after trimming.
func (s *Store) Add(ctx context.Context, title, author string) (models.Book, error) {
	title = strings.TrimSpace(title)
	author = strings.TrimSpace(author)

	if title == "" {
		return models.Book{}, &ValidationError{Field: "title"}
	}
	if author == "" {
		return models.Book{}, &ValidationError{Field: "author"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.syncLocked(ctx); err != nil {
		return models.Book{}, err
	}

	book := models.Book{
		ID:        s.uniqueID(),
		Title:     title,
		Author:    author,
		DateAdded: s.now().UTC().Round(0),
	}

	prev := s.books
	s.books = append(slices.Clip(prev), book)
	if err := s.persistLocked(ctx); err != nil {
		s.books = prev
		return models.Book{}, err
	}

	s.logger.Info("Book added",
		zap.String("id", book.ID),
		zap.String("title", book.Title),
		zap.String("author", book.Author),
	)
	return book, nil
}

// Remove deletes the book with the given id and persists the catalog.
// Removing an unknown id is not an error; the returned bool reports whether
// a book was actually removed. The catalog is persisted either way.
func (s *Store) Remove(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.syncLocked(ctx); err != nil {
		return false, err
	}

	prev := s.books
	idx := slices.IndexFunc(prev, func(b models.Book) bool { return b.ID == id })

	removed := idx >= 0
	if removed {
		s.books = slices.Delete(slices.Clone(prev), idx, idx+1)
	}

	if err := s.persistLocked(ctx); err != nil {
		s.books = prev
		return false, err
	}

	if removed {
		s.logger.Info("Book removed", zap.String("id", id))
	} else {
		s.logger.Debug("Remove of unknown book ignored", zap.String("id", id))
	}
	return removed, nil
}

// Filter returns the books whose author contains query, ignoring case and
// surrounding whitespace, in catalog order. An empty query returns every book.
// The result is a copy.
func (s *Store) Filter(query string) []models.Book {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return filterBooks(s.books, query)
}

// View returns the filtered books together with their counts
func (s *Store) View(query string) View {
	s.mu.RLock()
	defer s.mu.RUnlock()

	books := filterBooks(s.books, query)
	return View{
		Books:   books,
		Query:   strings.TrimSpace(query),
		Total:   len(s.books),
		Matched: len(books),
	}
}

// Get returns the book with the given id
func (s *Store) Get(id string) (models.Book, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, book := range s.books {
		if book.ID == id {
			return book, true
		}
	}
	return models.Book{}, false
}

// Len returns the number of books in the catalog
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.books)
}

// Persist writes the full catalog to the backend as a single replace
func (s *Store) Persist(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.persistLocked(ctx)
}

// syncLocked re-reads the snapshot so a mutation applies to what other
// processes sharing the key have written since Load. An unreadable snapshot
// keeps the in-memory catalog, which the following persist then repairs.
func (s *Store) syncLocked(ctx context.Context) error {
	text, ok, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return fmt.Errorf("failed to read catalog snapshot: %w", err)
	}
	if !ok {
		s.books = []models.Book{}
		return nil
	}

	books, err := DecodeSnapshot(text)
	if err != nil {
		s.logger.Warn("Catalog snapshot unreadable, keeping in-memory copy",
			zap.String("key", s.key),
			zap.Error(err),
		)
		return nil
	}
	s.books = books
	return nil
}

func (s *Store) persistLocked(ctx context.Context) error {
	text, err := EncodeSnapshot(s.books)
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, s.key, text); err != nil {
		s.logger.Error("Failed to persist catalog", zap.String("key", s.key), zap.Error(err))
		return fmt.Errorf("failed to persist catalog: %w", err)
	}
	return nil
}

func (s *Store) uniqueID() string {
	for {
		id := s.newID()
		if id == "" {
			continue
		}
		if !slices.ContainsFunc(s.books, func(b models.Book) bool { return b.ID == id }) {
			return id
		}
	}
}

func filterBooks(books []models.Book, query string) []models.Book {
	query = strings.TrimSpace(query)
	if query == "" {
		return slices.Clone(books)
	}

	fold := cases.Fold()
	needle := fold.String(query)

	matched := make([]models.Book, 0, len(books))
	for _, book := range books {
		if strings.Contains(fold.String(book.Author), needle) {
			matched = append(matched, book)
		}
	}
	return matched
}

// IsValidation reports whether err is a rejected add
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}
