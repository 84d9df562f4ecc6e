// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data, much like classes in other languages,
// but without inheritance. Go favours composition over inheritance.
package model

// Posting is a job listing. It is immutable once created: there is no update
// operation, only create and (owner-only) delete.
//
// The `json:"..."` tags control the wire shape, for example:
//
//	{"id":0,"title":"Go developer","description":"...","contact":"jobs@example.com"}
type Posting struct {
	ID          uint32 `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Contact     string `json:"contact"`
}

// PostingEntry is one element of a postings page: the posting's key in the
// store paired with the stored record.
type PostingEntry struct {
	ID      uint32  `json:"id"`
	Posting Posting `json:"posting"`
}
