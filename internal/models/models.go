package models

import "time"

// Book represents a book in the catalog
type Book struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	DateAdded time.Time `json:"dateAdded,omitzero"`
}
