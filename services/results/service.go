// Package results orchestrates a full transcript scrape: both portals
// are fetched concurrently, reconciled into one record set, and the
// outcome is persisted for the caller's session.
package results

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"uaftools-backend/lib/cache"
	"uaftools-backend/lib/resultstore"
	"uaftools-backend/lib/scrapers/attendance"
	"uaftools-backend/lib/scrapers/lms"
	"uaftools-backend/lib/sessionstore"
	"uaftools-backend/lib/transcript"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/results")

type Options struct {
	// per-branch budgets; a hung portal must not stall the other branch
	LmsTimeout        time.Duration
	AttendanceTimeout time.Duration

	// when set, merged outcomes are cached by registration number so
	// repeat lookups within the TTL skip both portals
	ResponseCache *cache.Cache
	ResponseTTL   time.Duration

	BulkWorkers int
}

func (o *Options) defaults() {
	if o.LmsTimeout == 0 {
		o.LmsTimeout = time.Second * 40
	}
	if o.AttendanceTimeout == 0 {
		o.AttendanceTimeout = time.Second * 25
	}
	if o.ResponseTTL == 0 {
		o.ResponseTTL = time.Minute * 10
	}
	if o.BulkWorkers == 0 {
		o.BulkWorkers = 2
	}
}

type Service struct {
	lms        *lms.Client
	attendance *attendance.Client
	sessions   *sessionstore.Store
	saved      resultstore.Store
	opts       Options
	bulk       *bulkTracker
}

func NewService(
	lmsClient *lms.Client,
	attendanceClient *attendance.Client,
	sessions *sessionstore.Store,
	saved resultstore.Store,
	opts Options,
) Service {
	opts.defaults()
	return Service{
		lms:        lmsClient,
		attendance: attendanceClient,
		sessions:   sessions,
		saved:      saved,
		opts:       opts,
		bulk:       newBulkTracker(),
	}
}

func cacheKey(registration string) string {
	return "scrape " + strings.ToLower(strings.TrimSpace(registration))
}

// Scrape fetches both portals concurrently, merges the outcomes with
// the lms as the authoritative source, and appends the merged records
// to the caller's session when one is given.
func (s Service) Scrape(ctx context.Context, registration, sessionID string) transcript.Outcome {
	ctx, span := tracer.Start(ctx, "Scrape")
	defer span.End()
	span.SetAttributes(attribute.String("registration", registration))

	if s.opts.ResponseCache != nil {
		if raw, ok := s.opts.ResponseCache.Get(cacheKey(registration)); ok {
			var cached transcript.Outcome
			if err := json.Unmarshal([]byte(raw), &cached); err == nil {
				span.SetAttributes(attribute.Bool("cache_hit", true))
				s.appendSession(ctx, sessionID, cached)
				return cached
			}
		}
	}

	var lmsOut, attOut transcript.Outcome
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		lmsOut = s.fetchLms(ctx, registration)
	}()
	go func() {
		defer wg.Done()
		attOut = s.fetchAttendance(ctx, registration)
	}()
	wg.Wait()

	merged := transcript.Merge(lmsOut, attOut)
	if !merged.Success {
		span.SetStatus(codes.Error, merged.Message)
		return merged
	}
	span.SetAttributes(attribute.Int("record_count", len(merged.Records)))

	if s.opts.ResponseCache != nil {
		raw, err := json.Marshal(merged)
		if err == nil {
			s.opts.ResponseCache.Set(cacheKey(registration), string(raw), s.opts.ResponseTTL)
		}
	}

	s.appendSession(ctx, sessionID, merged)
	return merged
}

// a panicking branch must degrade to a failure outcome instead of
// taking the other branch down with it
func (s Service) fetchLms(ctx context.Context, registration string) (out transcript.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "lms scrape panicked", "registration", registration, "panic", r)
			out = transcript.Failure(fmt.Sprintf("unexpected error during lms scrape: %v", r))
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, s.opts.LmsTimeout)
	defer cancel()
	return s.lms.FetchTranscript(ctx, registration)
}

func (s Service) fetchAttendance(ctx context.Context, registration string) (out transcript.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "attendance scrape panicked", "registration", registration, "panic", r)
			out = transcript.Failure(fmt.Sprintf("unexpected error during attendance scrape: %v", r))
		}
	}()

	if s.attendance == nil {
		return transcript.Failure("attendance portal is not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.AttendanceTimeout)
	defer cancel()
	return s.attendance.FetchAttendance(ctx, registration)
}

func (s Service) appendSession(ctx context.Context, sessionID string, out transcript.Outcome) {
	if sessionID == "" || !out.Success || s.sessions == nil {
		return
	}
	if err := s.sessions.Append(sessionID, out.Records); err != nil {
		slog.WarnContext(ctx, "failed to persist scrape to session", "session", sessionID, "err", err)
	}
}

// PingLms probes the lms login page so health checks can report portal
// connectivity without running a full scrape.
func (s Service) PingLms(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "PingLms")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := s.lms.Ping(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "lms unreachable")
	}
	return err
}

// SessionRecords returns the live records for a session, nil when the
// session does not exist or has fully expired.
func (s Service) SessionRecords(ctx context.Context, sessionID string) ([]transcript.CourseRecord, error) {
	_, span := tracer.Start(ctx, "SessionRecords")
	defer span.End()

	return s.sessions.Load(sessionID)
}

func (s Service) ClearSession(ctx context.Context, sessionID string) error {
	_, span := tracer.Start(ctx, "ClearSession")
	defer span.End()

	return s.sessions.Delete(sessionID)
}

// SaveResult snapshots a record set under the registration number so it
// survives session expiry.
func (s Service) SaveResult(ctx context.Context, registration string, records []transcript.CourseRecord) (string, error) {
	ctx, span := tracer.Start(ctx, "SaveResult")
	defer span.End()
	span.SetAttributes(attribute.String("registration", registration))

	id, err := s.saved.Save(ctx, registration, records, time.Now().UTC().Truncate(time.Second))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	return id, nil
}

func (s Service) SavedResults(ctx context.Context, registration string) ([]resultstore.SavedResult, error) {
	ctx, span := tracer.Start(ctx, "SavedResults")
	defer span.End()
	span.SetAttributes(attribute.String("registration", registration))

	return s.saved.List(ctx, registration)
}

func (s Service) DeleteSavedResult(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "DeleteSavedResult")
	defer span.End()

	return s.saved.Delete(ctx, id)
}
