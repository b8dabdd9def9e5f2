package intake

import (
	"sync"
	"time"

	"github.com/NikiShestakov/tg/internal/bus"
)

// Session buffers one sender's submission burst until the quiet period
// elapses. It exists in the store only while it holds at least one
// unconsumed event and has not yet been claimed for finalization.
type Session struct {
	SenderID    string
	ChatID      string
	DisplayName string // captured from the first event, fixed for the session's lifetime

	TextFragments []string // append-only, arrival order
	PhotoRefs     []string
	VideoRefs     []string

	Created time.Time

	// epoch is bumped on every append. A debounce fire must present the
	// epoch it was armed with to claim the session; a stale fire (one that
	// was superseded by a later event) fails the claim and aborts.
	epoch uint64
}

// Empty reports whether the session holds no content at all.
// Such sessions are discarded without any external calls.
func (s *Session) Empty() bool {
	return len(s.TextFragments) == 0 && len(s.PhotoRefs) == 0 && len(s.VideoRefs) == 0
}

// Store maps sender IDs to live sessions. A single mutex guards the whole
// map: per-sender cardinality is small and every operation is a short
// in-memory mutation, so finer locking buys nothing.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// Get returns the live session for a sender, if any.
func (st *Store) Get(senderID string) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[senderID]
	return s, ok
}

// Append adds one normalized event to the sender's session, creating the
// session on first contact. DisplayName and ChatID are captured at creation
// and not refreshed by later events. Returns the epoch a debounce fire must
// present to Claim this session; every append supersedes earlier epochs.
func (st *Store) Append(ev bus.InboundEvent) uint64 {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[ev.SenderID]
	if !ok {
		s = &Session{
			SenderID:    ev.SenderID,
			ChatID:      ev.ChatID,
			DisplayName: ev.DisplayName,
			Created:     time.Now(),
		}
		st.sessions[ev.SenderID] = s
	}

	switch ev.Kind {
	case bus.KindText:
		s.TextFragments = append(s.TextFragments, ev.Text)
	case bus.KindPhoto:
		s.PhotoRefs = append(s.PhotoRefs, ev.MediaRef)
	case bus.KindVideo:
		s.VideoRefs = append(s.VideoRefs, ev.MediaRef)
	}

	s.epoch++
	return s.epoch
}

// Claim atomically detaches the sender's session iff epoch matches the
// session's current epoch. A mismatch means a newer event re-armed the
// debounce after this fire was scheduled; the caller must abort silently.
// At most one caller can ever receive a given Session instance.
func (st *Store) Claim(senderID string, epoch uint64) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[senderID]
	if !ok || s.epoch != epoch {
		return nil, false
	}
	delete(st.sessions, senderID)
	return s, true
}

// Remove unconditionally detaches the sender's session.
func (st *Store) Remove(senderID string) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[senderID]
	if !ok {
		return nil, false
	}
	delete(st.sessions, senderID)
	return s, true
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}
