package feed

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"notedeck/internal/domain"
	"notedeck/internal/ports"
)

// fakeViewport is the injected measurer: tests set its fields directly.
type fakeViewport struct {
	width, height int
	scrollTop     int
	maxScroll     int
	tops          map[string]int

	anchorPath   string
	anchorOffset int
	anchorOK     bool
}

func (v *fakeViewport) Size() (int, int)   { return v.width, v.height }
func (v *fakeViewport) ScrollTop() int     { return v.scrollTop }
func (v *fakeViewport) MaxScroll() int     { return v.maxScroll }
func (v *fakeViewport) SetScrollTop(t int) { v.scrollTop = t }
func (v *fakeViewport) ItemTop(path string) (int, bool) {
	top, ok := v.tops[path]
	return top, ok
}
func (v *fakeViewport) AnchorItem() (string, int, bool) {
	return v.anchorPath, v.anchorOffset, v.anchorOK
}

// fakeRenderer materializes committed groups so tests can inspect the feed.
type fakeRenderer struct {
	groups      []ports.CardGroup
	rebuilds    int
	appendKeys  []string
	startKeys   []string
	hides       int
	shows       int
	keyMismatch bool
}

func (r *fakeRenderer) Rebuild(groups []ports.CardGroup) {
	r.rebuilds++
	r.groups = append([]ports.CardGroup(nil), groups...)
}

func (r *fakeRenderer) StartGroup(group ports.CardGroup) {
	r.startKeys = append(r.startKeys, group.Key)
	r.groups = append(r.groups, group)
}

func (r *fakeRenderer) AppendToGroup(key string, cards []ports.Card) {
	r.appendKeys = append(r.appendKeys, key)
	if len(r.groups) == 0 || r.groups[len(r.groups)-1].Key != key {
		r.keyMismatch = true
		return
	}
	last := &r.groups[len(r.groups)-1]
	last.Cards = append(last.Cards, cards...)
}

func (r *fakeRenderer) CardCount() int {
	n := 0
	for _, g := range r.groups {
		n += len(g.Cards)
	}
	return n
}

func (r *fakeRenderer) HasContent() bool { return len(r.groups) > 0 }

func (r *fakeRenderer) SetScrollIndicator(visible bool) {
	if visible {
		r.shows++
	} else {
		r.hides++
	}
}

// syncScheduler runs everything inline.
type syncScheduler struct{}

func (syncScheduler) Dispatch(fn func()) { fn() }
func (syncScheduler) Frame(fn func())    { fn() }

// frameScheduler queues Frame callbacks so tests control layout boundaries.
type frameScheduler struct {
	mu     sync.Mutex
	frames []func()
}

func (s *frameScheduler) Dispatch(fn func()) { fn() }

func (s *frameScheduler) Frame(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = append(s.frames, fn)
}

func (s *frameScheduler) runFrame() bool {
	s.mu.Lock()
	if len(s.frames) == 0 {
		s.mu.Unlock()
		return false
	}
	fn := s.frames[0]
	s.frames = s.frames[1:]
	s.mu.Unlock()
	fn()
	return true
}

// fakeProvider serves canned previews, optionally failing some paths or
// blocking until released.
type fakeProvider struct {
	mu    sync.Mutex
	errs  map[string]error
	gate  chan struct{}
	calls []string
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{errs: make(map[string]error)}
}

func (p *fakeProvider) failPath(path string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.errs[path] = fmt.Errorf("boom: %s", path)
}

func (p *fakeProvider) TextPreview(ctx context.Context, item domain.Item, _ ports.ContentSettings) (string, error) {
	if p.gate != nil {
		select {
		case <-p.gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, item.Path)
	if err := p.errs[item.Path]; err != nil {
		return "", err
	}
	return "preview of " + item.Path, nil
}

func (p *fakeProvider) ImageRefs(ctx context.Context, item domain.Item, _ ports.ContentSettings) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.errs[item.Path]; err != nil {
		return nil, err
	}
	return nil, nil
}

func waitIdle(t *testing.T, c *Coordinator) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if c.CurrentPhase() == PhaseIdle {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("coordinator did not settle, phase=%d", c.CurrentPhase())
}

func snapshotOfGroups(sizes map[string]int, order ...string) domain.Snapshot {
	groups := make([]domain.Group, 0, len(order))
	for _, key := range order {
		g := domain.Group{Key: key, Label: key}
		for i := 0; i < sizes[key]; i++ {
			path := fmt.Sprintf("%s/note-%03d.md", key, i)
			g.Items = append(g.Items, domain.Item{Path: path, Name: path})
		}
		groups = append(groups, g)
	}
	return domain.Snapshot{Deck: "test", Groups: groups}
}

func testSettings() Settings {
	return Settings{
		Content:           ports.ContentSettings{TextPreview: true, ImagePreview: true},
		CardWidth:         10,
		CardHeight:        10,
		Gutter:            0,
		RowsPerBatch:      10,
		MaxBatch:          50,
		TriggerMultiplier: 2.0,
		ScrollCooldown:    0,
		LayoutGap:         2,
	}
}

func newTestCoordinator(settings Settings, vp *fakeViewport, r *fakeRenderer, p ports.ContentProvider, sched ports.Scheduler) (*Coordinator, *ScrollStore) {
	store := NewScrollStore()
	c := NewCoordinator(Options{
		DeckID:    "deck-1",
		Settings:  settings,
		Renderer:  r,
		Viewport:  vp,
		Scheduler: sched,
		Provider:  p,
		Cache:     NewContentCache(),
		Store:     store,
		Logger:    zerolog.Nop(),
	})
	return c, store
}
