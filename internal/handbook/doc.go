// Package handbook defines the error handbook's data model and the pure
// browsing helpers the presentation layer uses.
//
// An Entry is one catalogued error: a category, the error message as users
// see it, a description, and a resolution. Categories are free-text tags; an
// entry's category is expected, but not guaranteed, to name an existing
// category.
//
// JSON tags follow the column names of the hosted tables (kategorie,
// fehlermeldung, beschreibung, loesung) so rows decode without mapping.
//
// The helpers in browse.go are linear scans. The handbook holds dozens to
// low hundreds of entries, so nothing here indexes or caches.
package handbook
