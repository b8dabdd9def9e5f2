package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/NikiShestakov/tg/internal/store"
)

// PGProfileStore implements store.ProfileStore backed by Postgres.
type PGProfileStore struct {
	db *sql.DB
}

// NewPGProfileStore creates a Postgres-backed profile store.
func NewPGProfileStore(db *sql.DB) *PGProfileStore {
	return &PGProfileStore{db: db}
}

const profileColumns = `id, created_at, username, name, age, height, weight, measurements, about, photo_urls, video_urls, admin_notes`

func scanProfile(row interface{ Scan(...any) error }) (*store.Profile, error) {
	var p store.Profile
	var photos, videos pq.StringArray
	err := row.Scan(
		&p.ID, &p.CreatedAt, &p.Username,
		&p.Name, &p.Age, &p.Height, &p.Weight, &p.Measurements, &p.About,
		&photos, &videos, &p.AdminNotes,
	)
	if err != nil {
		return nil, err
	}
	if photos != nil {
		p.PhotoURLs = []string(photos)
	}
	if videos != nil {
		p.VideoURLs = []string(videos)
	}
	return &p, nil
}

// urlArray maps a nil slice to SQL NULL so "no media" is distinguishable
// from "empty list" in the table.
func urlArray(urls []string) any {
	if urls == nil {
		return nil
	}
	return pq.Array(urls)
}

func (s *PGProfileStore) Create(ctx context.Context, p store.NewProfile) (*store.Profile, error) {
	id := uuid.Must(uuid.NewV7())
	row := s.db.QueryRowContext(ctx,
		`INSERT INTO profiles (id, created_at, username, name, age, height, weight, measurements, about, photo_urls, video_urls)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING `+profileColumns,
		id, time.Now().UTC(), p.Username,
		p.Name, p.Age, p.Height, p.Weight, p.Measurements, p.About,
		urlArray(p.PhotoURLs), urlArray(p.VideoURLs),
	)
	profile, err := scanProfile(row)
	if err != nil {
		return nil, fmt.Errorf("insert profile: %w", err)
	}
	return profile, nil
}

func (s *PGProfileStore) Get(ctx context.Context, id uuid.UUID) (*store.Profile, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id)
	profile, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return profile, nil
}

func (s *PGProfileStore) List(ctx context.Context) ([]*store.Profile, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+profileColumns+` FROM profiles ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var out []*store.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *PGProfileStore) Update(ctx context.Context, id uuid.UUID, p store.UpdateProfile) (*store.Profile, error) {
	row := s.db.QueryRowContext(ctx,
		`UPDATE profiles
		 SET name = $1, age = $2, height = $3, weight = $4, measurements = $5, about = $6,
		     photo_urls = $7, video_urls = $8, admin_notes = $9
		 WHERE id = $10
		 RETURNING `+profileColumns,
		p.Name, p.Age, p.Height, p.Weight, p.Measurements, p.About,
		urlArray(p.PhotoURLs), urlArray(p.VideoURLs), p.AdminNotes, id,
	)
	profile, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return profile, nil
}

func (s *PGProfileStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM profiles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *PGProfileStore) Analytics(ctx context.Context) (*store.Analytics, error) {
	a := &store.Analytics{DailyCounts: []store.DailyCount{}}

	row := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			AVG(age),
			COUNT(*) FILTER (WHERE photo_urls IS NOT NULL AND array_length(photo_urls, 1) > 0),
			COUNT(*) FILTER (WHERE video_urls IS NOT NULL AND array_length(video_urls, 1) > 0)
		FROM profiles`)
	if err := row.Scan(&a.TotalProfiles, &a.AvgAge, &a.ProfilesWithPhoto, &a.ProfilesWithVideo); err != nil {
		return nil, fmt.Errorf("analytics totals: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT DATE(created_at)::text, COUNT(*)
		FROM profiles
		WHERE created_at >= NOW() - INTERVAL '7 days'
		GROUP BY DATE(created_at)
		ORDER BY DATE(created_at)`)
	if err != nil {
		return nil, fmt.Errorf("analytics daily counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var dc store.DailyCount
		if err := rows.Scan(&dc.Date, &dc.Count); err != nil {
			return nil, fmt.Errorf("scan daily count: %w", err)
		}
		a.DailyCounts = append(a.DailyCounts, dc)
	}
	return a, rows.Err()
}
