package intake

import (
	"sync"
	"testing"

	"github.com/NikiShestakov/tg/internal/bus"
)

func textEvent(sender, text string) bus.InboundEvent {
	return bus.InboundEvent{SenderID: sender, ChatID: sender, DisplayName: sender, Kind: bus.KindText, Text: text}
}

func photoEvent(sender, ref string) bus.InboundEvent {
	return bus.InboundEvent{SenderID: sender, ChatID: sender, DisplayName: sender, Kind: bus.KindPhoto, MediaRef: ref}
}

func videoEvent(sender, ref string) bus.InboundEvent {
	return bus.InboundEvent{SenderID: sender, ChatID: sender, DisplayName: sender, Kind: bus.KindVideo, MediaRef: ref}
}

func TestAppendPreservesArrivalOrder(t *testing.T) {
	st := NewStore()

	st.Append(textEvent("u1", "first"))
	st.Append(photoEvent("u1", "p1"))
	st.Append(textEvent("u1", "second"))
	st.Append(videoEvent("u1", "v1"))
	epoch := st.Append(photoEvent("u1", "p2"))

	s, ok := st.Get("u1")
	if !ok {
		t.Fatal("session missing")
	}
	if got := s.TextFragments; len(got) != 2 || got[0] != "first" || got[1] != "second" {
		t.Errorf("text fragments = %v", got)
	}
	if got := s.PhotoRefs; len(got) != 2 || got[0] != "p1" || got[1] != "p2" {
		t.Errorf("photo refs = %v", got)
	}
	if got := s.VideoRefs; len(got) != 1 || got[0] != "v1" {
		t.Errorf("video refs = %v", got)
	}
	if epoch != 5 {
		t.Errorf("epoch = %d, want 5", epoch)
	}
}

func TestDisplayNameFixedAtCreation(t *testing.T) {
	st := NewStore()

	first := textEvent("u1", "hi")
	first.DisplayName = "original"
	st.Append(first)

	second := textEvent("u1", "more")
	second.DisplayName = "renamed"
	st.Append(second)

	s, _ := st.Get("u1")
	if s.DisplayName != "original" {
		t.Errorf("display name = %q, want original (fixed at creation)", s.DisplayName)
	}
}

func TestClaimRejectsStaleEpoch(t *testing.T) {
	st := NewStore()

	stale := st.Append(textEvent("u1", "a"))
	current := st.Append(textEvent("u1", "b"))

	if _, ok := st.Claim("u1", stale); ok {
		t.Fatal("stale epoch claimed the session")
	}
	s, ok := st.Claim("u1", current)
	if !ok {
		t.Fatal("current epoch failed to claim")
	}
	if len(s.TextFragments) != 2 {
		t.Errorf("claimed session has %d fragments, want 2", len(s.TextFragments))
	}
	if st.Len() != 0 {
		t.Errorf("store len = %d after claim, want 0", st.Len())
	}
}

func TestClaimHandsSessionToExactlyOneCaller(t *testing.T) {
	st := NewStore()
	epoch := st.Append(textEvent("u1", "a"))

	const callers = 16
	var wins int32
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := st.Claim("u1", epoch); ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Errorf("claim winners = %d, want exactly 1", wins)
	}
}

func TestRemoveIdempotent(t *testing.T) {
	st := NewStore()
	st.Append(textEvent("u1", "a"))

	const callers = 8
	var wins int32
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := st.Remove("u1"); ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Errorf("remove winners = %d, want exactly 1", wins)
	}
	if _, ok := st.Remove("u1"); ok {
		t.Error("remove after remove returned a session")
	}
}

func TestCombinedText(t *testing.T) {
	tests := []struct {
		name string
		sess Session
		want string
	}{
		{
			name: "text only",
			sess: Session{TextFragments: []string{"Маша", "21 год"}},
			want: "Маша\n21 год",
		},
		{
			name: "text with photo marker",
			sess: Session{TextFragments: []string{"Маша", "21 год, рост 177"}, PhotoRefs: []string{"p1"}},
			want: "Маша\n21 год, рост 177\n" + PhotoMarker,
		},
		{
			name: "both markers once each",
			sess: Session{TextFragments: []string{"a"}, PhotoRefs: []string{"p1", "p2"}, VideoRefs: []string{"v1"}},
			want: "a\n" + PhotoMarker + "\n" + VideoMarker,
		},
		{
			name: "media only",
			sess: Session{VideoRefs: []string{"v1"}},
			want: VideoMarker,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.sess.CombinedText(); got != tt.want {
				t.Errorf("CombinedText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEmpty(t *testing.T) {
	if !(&Session{}).Empty() {
		t.Error("zero session should be empty")
	}
	if (&Session{PhotoRefs: []string{"p"}}).Empty() {
		t.Error("session with a photo should not be empty")
	}
}
