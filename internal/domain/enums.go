package domain

// Kind identifies a record family tracked by the broker.
type Kind string

const (
	KindArticle Kind = "article"
	KindJournal Kind = "journal"
)

func (k Kind) String() string { return string(k) }

func (k Kind) IsValid() bool {
	switch k {
	case KindArticle, KindJournal:
		return true
	}
	return false
}

// HistoryCollection returns the name of the history log that stores events
// for this kind, e.g. "historychanges_article".
func (k Kind) HistoryCollection() string {
	return "historychanges_" + string(k)
}

// Event is the kind of mutation written to a history log.
type Event string

const (
	EventAdd    Event = "add"
	EventUpdate Event = "update"
	EventDelete Event = "delete"
)

func (e Event) String() string { return string(e) }

func (e Event) IsValid() bool {
	switch e {
	case EventAdd, EventUpdate, EventDelete:
		return true
	}
	return false
}

// Flag is a boolean status stored in its string form ("True" / "False"),
// which is how downstream consumers of article records read it.
type Flag string

const (
	FlagFalse Flag = "False"
	FlagTrue  Flag = "True"
)

// FlagOf converts b into its stored string form.
func FlagOf(b bool) Flag {
	if b {
		return FlagTrue
	}
	return FlagFalse
}

func (f Flag) String() string { return string(f) }

// Bool reports whether f is FlagTrue. Anything else reads as false.
func (f Flag) Bool() bool { return f == FlagTrue }

// ISSNPriority selects which ISSN variant is preferred when a journal
// carries both.
type ISSNPriority string

const (
	ISSNElectronic ISSNPriority = "electronic"
	ISSNPrint      ISSNPriority = "print"
)

// DocumentTypePressRelease is the document type of press-release articles.
const DocumentTypePressRelease = "press-release"
