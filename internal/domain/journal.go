package domain

// Journal is a normalized journal record, unique by (Code, Collection).
type Journal struct {
	Code       ISSNList
	Collection string

	// Metadata holds the source ISIS fields of the journal.
	Metadata Metadata
}

// JournalIdentifier is the minimal projection returned by journal listings.
type JournalIdentifier struct {
	Code       ISSNList
	Collection string
}

// Collection describes a publishing collection (e.g. a national network).
// Collections are read-only from the broker's point of view.
type Collection struct {
	Code     string
	Acronym  string
	Name     string
	Metadata Metadata
}
