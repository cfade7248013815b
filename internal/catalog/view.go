package catalog

import (
	"fmt"

	"bookcatalog/internal/models"
)

// View is what a presentation layer renders: the books matching the current
// filter plus the counts shown next to them.
type View struct {
	Books   []models.Book `json:"books"`
	Query   string        `json:"query"`
	Total   int           `json:"total"`
	Matched int           `json:"matched"`
}

// Filtered reports whether the view was computed with a non-empty query
func (v View) Filtered() bool {
	return v.Query != ""
}

// Summary renders the count line, e.g. "(1 of 3 books)" or "(3 books)"
func (v View) Summary() string {
	if v.Filtered() {
		return fmt.Sprintf("(%d of %d books)", v.Matched, v.Total)
	}
	if v.Total == 1 {
		return "(1 book)"
	}
	return fmt.Sprintf("(%d books)", v.Total)
}

// EmptyMessage explains an empty view. It is empty when there are books to show.
func (v View) EmptyMessage() string {
	switch {
	case v.Matched > 0:
		return ""
	case v.Total == 0:
		return "No books in the library yet. Add your first book!"
	default:
		return fmt.Sprintf("No books found by author %q", v.Query)
	}
}
