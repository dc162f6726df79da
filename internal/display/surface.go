// Package display holds the server-side model of the operator page: a set of
// named elements whose changes are streamed to every connected browser.
package display

import (
	"sort"
	"sync"
	"sync/atomic"
)

const subscriberBuffer = 256

// Patch is a change to one element. Nil fields are left untouched.
type Patch struct {
	ID     string  `json:"id"`
	Text   *string `json:"text,omitempty"`
	HTML   *string `json:"html,omitempty"`
	Color  *string `json:"color,omitempty"`
	Src    *string `json:"src,omitempty"`
	Active *bool   `json:"active,omitempty"`
}

func (p *Patch) merge(o Patch) {
	if o.Text != nil {
		p.Text = o.Text
	}
	if o.HTML != nil {
		p.HTML = o.HTML
	}
	if o.Color != nil {
		p.Color = o.Color
	}
	if o.Src != nil {
		p.Src = o.Src
	}
	if o.Active != nil {
		p.Active = o.Active
	}
}

// Surface is the element store. It is safe for concurrent use.
type Surface struct {
	mu       sync.RWMutex
	elements map[string]*Patch
	subs     map[int]*Subscription
	nextSub  int
}

// NewSurface creates an empty surface
func NewSurface() *Surface {
	return &Surface{
		elements: make(map[string]*Patch),
		subs:     make(map[int]*Subscription),
	}
}

// Element returns a handle for id. Handles are cheap; asking twice for the
// same id yields handles onto the same state.
func (s *Surface) Element(id string) *Element {
	return &Element{id: id, surface: s}
}

// State returns the merged state of id.
func (s *Surface) State(id string) (Patch, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.elements[id]
	if !ok {
		return Patch{}, false
	}
	return *p, true
}

// Snapshot returns the state of every element that has been written, by id.
func (s *Surface) Snapshot() []Patch {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]Patch, 0, len(s.elements))
	for _, p := range s.elements {
		result = append(result, *p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// Subscription is a stream of patches for one consumer
type Subscription struct {
	ch      chan Patch
	dropped atomic.Bool
	cancel  func()
}

// C delivers patches in the order they were applied. It is closed by Cancel.
func (sub *Subscription) C() <-chan Patch { return sub.ch }

// Dropped reports whether patches were lost since the last call. A consumer
// that sees true must discard what is buffered and start again from a fresh
// Snapshot; see Resync.
func (sub *Subscription) Dropped() bool { return sub.dropped.Swap(false) }

// Resync empties the buffer and returns the current surface state. Patches
// applied while resyncing may be delivered again afterwards; applying them
// twice is harmless.
func (sub *Subscription) Resync(s *Surface) []Patch {
	for {
		select {
		case _, ok := <-sub.ch:
			if !ok {
				return s.Snapshot()
			}
		default:
			return s.Snapshot()
		}
	}
}

// Cancel releases the subscription and closes C. Safe to call twice.
func (sub *Subscription) Cancel() { sub.cancel() }

// Subscribe streams every subsequent patch. A subscriber that falls behind
// loses patches and is flagged through Dropped.
func (s *Surface) Subscribe() *Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	sub := &Subscription{ch: make(chan Patch, subscriberBuffer)}
	s.subs[id] = sub

	var once sync.Once
	sub.cancel = func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
			close(sub.ch)
		})
	}
	return sub
}

func (s *Surface) apply(p Patch) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.elements[p.ID]
	if !ok {
		cur = &Patch{ID: p.ID}
		s.elements[p.ID] = cur
	}
	cur.merge(p)

	for _, sub := range s.subs {
		select {
		case sub.ch <- p:
		default:
			sub.dropped.Store(true)
		}
	}
}

// Element is a handle onto one named element
type Element struct {
	id      string
	surface *Surface
}

// ID returns the element id
func (e *Element) ID() string { return e.id }

// SetText replaces the text content
func (e *Element) SetText(text string) {
	e.surface.apply(Patch{ID: e.id, Text: &text})
}

// SetHTML replaces the inner markup
func (e *Element) SetHTML(html string) {
	e.surface.apply(Patch{ID: e.id, HTML: &html})
}

// SetColor sets the element's foreground or indicator colour
func (e *Element) SetColor(color string) {
	e.surface.apply(Patch{ID: e.id, Color: &color})
}

// SetSource sets an image source
func (e *Element) SetSource(src string) {
	e.surface.apply(Patch{ID: e.id, Src: &src})
}

// SetActive toggles the element's active state
func (e *Element) SetActive(active bool) {
	e.surface.apply(Patch{ID: e.id, Active: &active})
}
