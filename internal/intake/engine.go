package intake

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/NikiShestakov/tg/internal/bus"
	"github.com/NikiShestakov/tg/internal/config"
	"github.com/NikiShestakov/tg/internal/store"
)

// Markers appended to the combined text so the extraction model knows media
// was attached even though it never sees the files.
const (
	PhotoMarker = "[ФОТО ПРИКРЕПЛЕНО]"
	VideoMarker = "[ВИДЕО ПРИКРЕПЛЕНО]"
)

// Status notices sent back to the sender.
const (
	NoticeProcessing = "Обрабатываю вашу анкету..."
	NoticeSuccess    = "Спасибо! Ваша анкета принята и сохранена."
	NoticeFailure    = "Произошла ошибка при обработке вашей анкеты. Попробуйте еще раз."
)

// finalizeTimeout bounds one finalization's external calls. The session is
// already detached when the clock starts, so a timeout never blocks ingestion.
const finalizeTimeout = 3 * time.Minute

// MediaResolver turns an opaque transport media reference into a durable URL.
type MediaResolver interface {
	ResolveURL(ctx context.Context, ref string) (string, error)
}

// Extractor parses free-form submission text into structured profile fields.
type Extractor interface {
	Extract(ctx context.Context, text string) (*store.ProfileFields, error)
}

// ProfileCreator persists one enriched profile.
type ProfileCreator interface {
	Create(ctx context.Context, p store.NewProfile) (*store.Profile, error)
}

// Notifier delivers a plain-text status message to a chat. Delivery is
// best-effort; implementations log failures instead of returning them.
type Notifier interface {
	Notify(chatID, text string)
}

// Engine is the session-aggregation core: it buffers each sender's burst of
// events, waits out the quiet period, and runs the finalization pipeline
// exactly once per burst.
type Engine struct {
	store     *Store
	sched     *Scheduler
	bus       *bus.MessageBus
	resolver  MediaResolver
	extractor Extractor
	profiles  ProfileCreator
	notifier  Notifier

	debounce   time.Duration
	mediaLimit int
}

// NewEngine wires the intake core to its collaborators.
func NewEngine(cfg config.IntakeConfig, msgBus *bus.MessageBus, resolver MediaResolver, extractor Extractor, profiles ProfileCreator, notifier Notifier) *Engine {
	mediaLimit := cfg.MediaConcurrency
	if mediaLimit <= 0 {
		mediaLimit = 4
	}
	debounce := cfg.Debounce()
	if debounce <= 0 {
		debounce = 3 * time.Minute
	}
	return &Engine{
		store:      NewStore(),
		sched:      NewScheduler(),
		bus:        msgBus,
		resolver:   resolver,
		extractor:  extractor,
		profiles:   profiles,
		notifier:   notifier,
		debounce:   debounce,
		mediaLimit: mediaLimit,
	}
}

// Store exposes the session store (tests and diagnostics).
func (e *Engine) Store() *Store { return e.store }

// Run consumes inbound events until ctx is cancelled, then cancels all
// pending debounce actions. Sessions still buffering at shutdown are dropped.
func (e *Engine) Run(ctx context.Context) {
	slog.Info("intake engine started", "debounce", e.debounce)
	for {
		ev, ok := e.bus.ConsumeInbound(ctx)
		if !ok {
			e.sched.StopAll()
			slog.Info("intake engine stopped")
			return
		}
		e.Ingest(ev)
	}
}

// Ingest appends one event to the sender's session and re-arms the debounce
// timer. It never blocks on external I/O.
func (e *Engine) Ingest(ev bus.InboundEvent) {
	if ev.SenderID == "" || ev.Kind == bus.KindCommand {
		return
	}

	epoch := e.store.Append(ev)

	senderID := ev.SenderID
	e.sched.Arm(senderID, e.debounce, func() {
		e.finalize(senderID, epoch)
	})
}

// finalize runs once per non-superseded debounce fire. The claim detaches
// the session before any external call, so an event arriving mid-pipeline
// starts a fresh session instead of joining this one.
func (e *Engine) finalize(senderID string, epoch uint64) {
	sess, ok := e.store.Claim(senderID, epoch)
	if !ok {
		// Superseded by a newer event or already consumed. Normal outcome
		// of the detach race, not an error.
		return
	}
	if sess.Empty() {
		slog.Debug("discarding empty session", "sender", senderID)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), finalizeTimeout)
	defer cancel()

	slog.Info("finalizing session",
		"sender", senderID,
		"fragments", len(sess.TextFragments),
		"photos", len(sess.PhotoRefs),
		"videos", len(sess.VideoRefs),
	)

	e.notifier.Notify(sess.ChatID, NoticeProcessing)

	if err := e.process(ctx, sess); err != nil {
		slog.Error("session finalization failed", "sender", senderID, "error", err)
		e.notifier.Notify(sess.ChatID, NoticeFailure)
		return
	}

	e.notifier.Notify(sess.ChatID, NoticeSuccess)
}

// process runs the enrichment pipeline for a detached session: resolve media
// URLs, extract structured fields, merge and persist. The session content is
// discarded on any error; there is no retry queue.
func (e *Engine) process(ctx context.Context, sess *Session) error {
	photoURLs, videoURLs, err := e.resolveMedia(ctx, sess.PhotoRefs, sess.VideoRefs)
	if err != nil {
		return err
	}

	fields, err := e.extractor.Extract(ctx, sess.CombinedText())
	if err != nil {
		return fmt.Errorf("extract fields: %w", err)
	}

	profile := store.NewProfile{
		Username:      sess.DisplayName,
		ProfileFields: *fields,
		PhotoURLs:     photoURLs,
		VideoURLs:     videoURLs,
	}

	if _, err := e.profiles.Create(ctx, profile); err != nil {
		return fmt.Errorf("persist profile: %w", err)
	}
	return nil
}

// resolveMedia resolves both reference lists concurrently, bounded by the
// configured limit, preserving each list's original order. One failed
// reference fails the whole resolution; partial results are discarded.
func (e *Engine) resolveMedia(ctx context.Context, photoRefs, videoRefs []string) (photoURLs, videoURLs []string, err error) {
	if len(photoRefs) == 0 && len(videoRefs) == 0 {
		return nil, nil, nil
	}

	if len(photoRefs) > 0 {
		photoURLs = make([]string, len(photoRefs))
	}
	if len(videoRefs) > 0 {
		videoURLs = make([]string, len(videoRefs))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.mediaLimit)

	for i, ref := range photoRefs {
		g.Go(func() error {
			url, rerr := e.resolver.ResolveURL(gctx, ref)
			if rerr != nil {
				return fmt.Errorf("resolve photo %q: %w", ref, rerr)
			}
			photoURLs[i] = url
			return nil
		})
	}
	for i, ref := range videoRefs {
		g.Go(func() error {
			url, rerr := e.resolver.ResolveURL(gctx, ref)
			if rerr != nil {
				return fmt.Errorf("resolve video %q: %w", ref, rerr)
			}
			videoURLs[i] = url
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return photoURLs, videoURLs, nil
}

// CombinedText joins the session's text fragments in arrival order and
// appends one marker per media kind present.
func (s *Session) CombinedText() string {
	parts := make([]string, 0, len(s.TextFragments)+2)
	parts = append(parts, s.TextFragments...)
	if len(s.PhotoRefs) > 0 {
		parts = append(parts, PhotoMarker)
	}
	if len(s.VideoRefs) > 0 {
		parts = append(parts, VideoMarker)
	}
	return strings.Join(parts, "\n")
}
