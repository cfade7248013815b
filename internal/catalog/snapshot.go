package catalog

import (
	"encoding/json"
	"fmt"
	"strings"

	"bookcatalog/internal/models"
)

// EncodeSnapshot serializes books as a JSON array in catalog order
func EncodeSnapshot(books []models.Book) (string, error) {
	if books == nil {
		books = []models.Book{}
	}
	data, err := json.Marshal(books)
	if err != nil {
		return "", fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return string(data), nil
}

// DecodeSnapshot parses a snapshot produced by EncodeSnapshot.
//
// Every record must carry a non-empty id, title and author, and ids must be
// unique. Title and author are trimmed. A JSON null decodes to an empty catalog.
// Any other deviation is reported as a *CorruptionError.
func DecodeSnapshot(text string) ([]models.Book, error) {
	var books []models.Book
	if err := json.Unmarshal([]byte(text), &books); err != nil {
		return nil, &CorruptionError{Reason: "not a JSON list of books", Err: err}
	}

	seen := make(map[string]struct{}, len(books))
	for i := range books {
		book := &books[i]
		book.Title = strings.TrimSpace(book.Title)
		book.Author = strings.TrimSpace(book.Author)

		switch {
		case book.ID == "":
			return nil, &CorruptionError{Reason: fmt.Sprintf("record %d has no id", i)}
		case book.Title == "":
			return nil, &CorruptionError{Reason: fmt.Sprintf("record %d (%s) has no title", i, book.ID)}
		case book.Author == "":
			return nil, &CorruptionError{Reason: fmt.Sprintf("record %d (%s) has no author", i, book.ID)}
		}

		if _, dup := seen[book.ID]; dup {
			return nil, &CorruptionError{Reason: fmt.Sprintf("duplicate id %s", book.ID)}
		}
		seen[book.ID] = struct{}{}
	}

	if books == nil {
		books = []models.Book{}
	}
	return books, nil
}
