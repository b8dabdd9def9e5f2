package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryProfileStore is an in-memory ProfileStore used by tests and as the
// reference for the Postgres implementation's contract.
type MemoryProfileStore struct {
	mu       sync.RWMutex
	profiles map[uuid.UUID]*Profile
}

// NewMemoryProfileStore creates an empty in-memory store.
func NewMemoryProfileStore() *MemoryProfileStore {
	return &MemoryProfileStore{profiles: make(map[uuid.UUID]*Profile)}
}

func (s *MemoryProfileStore) Create(_ context.Context, p NewProfile) (*Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	profile := &Profile{
		ID:            uuid.Must(uuid.NewV7()),
		CreatedAt:     time.Now().UTC(),
		Username:      p.Username,
		ProfileFields: p.ProfileFields,
		PhotoURLs:     p.PhotoURLs,
		VideoURLs:     p.VideoURLs,
	}
	s.profiles[profile.ID] = profile

	out := *profile
	return &out, nil
}

func (s *MemoryProfileStore) Get(_ context.Context, id uuid.UUID) (*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *p
	return &out, nil
}

func (s *MemoryProfileStore) List(_ context.Context) ([]*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		cp := *p
		out = append(out, &cp)
	}
	// Newest first, matching the admin listing order.
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryProfileStore) Update(_ context.Context, id uuid.UUID, p UpdateProfile) (*Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.profiles[id]
	if !ok {
		return nil, ErrNotFound
	}
	existing.ProfileFields = p.ProfileFields
	existing.PhotoURLs = p.PhotoURLs
	existing.VideoURLs = p.VideoURLs
	existing.AdminNotes = p.AdminNotes

	out := *existing
	return &out, nil
}

func (s *MemoryProfileStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.profiles[id]; !ok {
		return ErrNotFound
	}
	delete(s.profiles, id)
	return nil
}

func (s *MemoryProfileStore) Analytics(_ context.Context) (*Analytics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a := &Analytics{DailyCounts: []DailyCount{}}
	var ageSum, ageCount int
	daily := make(map[string]int)
	cutoff := time.Now().UTC().AddDate(0, 0, -7)

	for _, p := range s.profiles {
		a.TotalProfiles++
		if p.Age != nil {
			ageSum += *p.Age
			ageCount++
		}
		if len(p.PhotoURLs) > 0 {
			a.ProfilesWithPhoto++
		}
		if len(p.VideoURLs) > 0 {
			a.ProfilesWithVideo++
		}
		if p.CreatedAt.After(cutoff) {
			daily[p.CreatedAt.Format("2006-01-02")]++
		}
	}

	if ageCount > 0 {
		avg := float64(ageSum) / float64(ageCount)
		a.AvgAge = &avg
	}

	days := make([]string, 0, len(daily))
	for d := range daily {
		days = append(days, d)
	}
	sort.Strings(days)
	for _, d := range days {
		a.DailyCounts = append(a.DailyCounts, DailyCount{Date: d, Count: daily[d]})
	}
	return a, nil
}
