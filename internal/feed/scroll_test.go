package feed

import (
	"testing"
	"time"
)

func TestScrollStoreSaveLoadDelete(t *testing.T) {
	s := NewScrollStore()

	if _, ok := s.Load("work"); ok {
		t.Fatal("empty store returned an anchor")
	}

	anchor := Anchor{ItemPath: "notes/a.md", Offset: 12, ViewportWidth: 80, ViewportHeight: 24}
	s.Save("work", anchor)

	got, ok := s.Load("work")
	if !ok || got != anchor {
		t.Fatalf("Load = %+v, %v; want %+v", got, ok, anchor)
	}

	// Anchors are per deck.
	if _, ok := s.Load("inbox"); ok {
		t.Error("anchor leaked across decks")
	}

	s.Delete("work")
	if _, ok := s.Load("work"); ok {
		t.Error("anchor survived Delete")
	}
}

func TestScrollStoreOverwrite(t *testing.T) {
	s := NewScrollStore()
	s.Save("work", Anchor{ItemPath: "notes/a.md"})
	s.Save("work", Anchor{ItemPath: "notes/b.md", Offset: 3})

	got, _ := s.Load("work")
	if got.ItemPath != "notes/b.md" || got.Offset != 3 {
		t.Errorf("expected latest anchor, got %+v", got)
	}
}

func TestScrollStoreSuppression(t *testing.T) {
	now := time.Unix(1000, 0)
	s := NewScrollStore()
	s.now = func() time.Time { return now }

	s.Save("work", Anchor{ItemPath: "notes/a.md", Offset: 42})
	s.SuppressWrites(400 * time.Millisecond)

	// A reset-to-zero save inside the grace window is dropped.
	s.Save("work", Anchor{ItemPath: "notes/a.md", Offset: 0})
	got, _ := s.Load("work")
	if got.Offset != 42 {
		t.Fatalf("suppressed save went through: %+v", got)
	}

	// A shorter overlapping window must not cut the grace period short.
	now = now.Add(200 * time.Millisecond)
	s.SuppressWrites(100 * time.Millisecond)
	now = now.Add(150 * time.Millisecond)
	s.Save("work", Anchor{ItemPath: "notes/a.md", Offset: 0})
	if got, _ := s.Load("work"); got.Offset != 42 {
		t.Fatal("overlapping shorter window shrank the suppression")
	}

	now = now.Add(100 * time.Millisecond)
	s.Save("work", Anchor{ItemPath: "notes/a.md", Offset: 7})
	if got, _ := s.Load("work"); got.Offset != 7 {
		t.Errorf("save after the window dropped: %+v", got)
	}
}
