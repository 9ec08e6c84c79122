package domain

import "testing"

func TestKind_IsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind Kind
		want bool
	}{
		{KindArticle, true},
		{KindJournal, true},
		{Kind("issue"), false},
		{Kind(""), false},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			t.Parallel()
			if got := tt.kind.IsValid(); got != tt.want {
				t.Errorf("Kind(%q).IsValid() = %v, want %v", tt.kind, got, tt.want)
			}
		})
	}
}

func TestKind_HistoryCollection(t *testing.T) {
	t.Parallel()

	if got := KindArticle.HistoryCollection(); got != "historychanges_article" {
		t.Errorf("got %q, want historychanges_article", got)
	}
	if got := KindJournal.HistoryCollection(); got != "historychanges_journal" {
		t.Errorf("got %q, want historychanges_journal", got)
	}
}

func TestEvent_IsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		event Event
		want  bool
	}{
		{EventAdd, true},
		{EventUpdate, true},
		{EventDelete, true},
		{Event("ADD"), false},
		{Event(""), false},
	}
	for _, tt := range tests {
		t.Run(string(tt.event), func(t *testing.T) {
			t.Parallel()
			if got := tt.event.IsValid(); got != tt.want {
				t.Errorf("Event(%q).IsValid() = %v, want %v", tt.event, got, tt.want)
			}
		})
	}
}

func TestFlagOf(t *testing.T) {
	t.Parallel()

	if got := FlagOf(true); got != FlagTrue || got.String() != "True" {
		t.Errorf("FlagOf(true) = %q, want True", got)
	}
	if got := FlagOf(false); got != FlagFalse || got.String() != "False" {
		t.Errorf("FlagOf(false) = %q, want False", got)
	}
	if Flag("true").Bool() {
		t.Error(`Flag("true").Bool() should be false, only "True" reads as set`)
	}
}
