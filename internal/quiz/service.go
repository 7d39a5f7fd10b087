package quiz

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/sansudrill/drill-backend/internal/authz"
	"github.com/sansudrill/drill-backend/internal/sheet"
)

const (
	defaultLimit = 5
	maxLimit     = 50
)

// Options tune the service. Zero values fall back to the defaults the
// system shipped with.
type Options struct {
	Gate     authz.Gate
	TimeZone *time.Location
	Locale   language.Tag
	Version  string

	CacheTTL      time.Duration // fast-path dedup key lifetime
	LockWait      time.Duration // bounded wait for the append lock
	ScanRows      int           // durable-scan window, in rows
	RecencyWindow time.Duration // durable-scan window, in time

	OverlayCols int
	OverlayRows int

	Now  func() time.Time
	Intn func(int) int
}

// Service implements the quiz-delivery operations over a tabular
// store: ordered question delivery, at-most-once answer logging, and
// the daily summary/progress views.
type Service struct {
	store sheet.Store
	gate  authz.Gate
	cache *ttlCache
	lock  *timedLock
	opts  Options
}

func NewService(store sheet.Store, opts Options) *Service {
	if opts.Gate == nil {
		opts.Gate = authz.AllowAll()
	}
	if opts.TimeZone == nil {
		opts.TimeZone = time.FixedZone("JST", 9*60*60)
	}
	if opts.Locale == (language.Tag{}) {
		opts.Locale = language.Japanese
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}
	if opts.CacheTTL == 0 {
		opts.CacheTTL = 2 * time.Second
	}
	if opts.LockWait == 0 {
		opts.LockWait = 5 * time.Second
	}
	if opts.ScanRows == 0 {
		opts.ScanRows = 200
	}
	if opts.RecencyWindow == 0 {
		opts.RecencyWindow = 5000 * time.Millisecond
	}
	if opts.OverlayCols == 0 {
		opts.OverlayCols = 16
	}
	if opts.OverlayRows == 0 {
		opts.OverlayRows = 15
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Intn == nil {
		opts.Intn = rand.Intn
	}
	return &Service{
		store: store,
		gate:  opts.Gate,
		cache: newTTLCache(opts.Now),
		lock:  newTimedLock(),
		opts:  opts,
	}
}

// Domains lists the distinct domain labels, collated for the
// configured locale. No authorization: it backs the public picker.
func (s *Service) Domains(ctx context.Context) ([]string, error) {
	rows, err := s.store.ReadAll(ctx, sheet.TableQuestions)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: Questions table not found", ErrSchema)
	}
	idx, err := sheet.HeaderIndex(rows[0], "domain")
	if err != nil {
		return nil, fmt.Errorf("%w: Questions %v", ErrSchema, err)
	}

	set := map[string]struct{}{}
	for _, row := range rows[1:] {
		if d := strings.TrimSpace(sheet.Cell(row, idx["domain"])); d != "" {
			set[d] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for d := range set {
		out = append(out, d)
	}
	// A Collator keeps sort state, so build one per call rather than
	// sharing it across requests.
	collate.New(s.opts.Locale).SortStrings(out)
	return out, nil
}

// Questions returns an ordered slice of eligible questions. The pool
// is fully loaded and ordered before the limit is applied.
func (s *Service) Questions(ctx context.Context, q QuestionQuery) ([]Question, error) {
	if !s.gate(q.UserID) {
		return nil, ErrForbidden
	}

	limit := q.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	rows, err := s.store.ReadAll(ctx, sheet.TableQuestions)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: Questions table not found", ErrSchema)
	}
	pool, err := buildPool(rows, q.Domain)
	if err != nil {
		return nil, err
	}

	if q.Order == "sequential" {
		sortSequential(pool)
	} else {
		shufflePool(pool, s.opts.Intn)
	}

	if len(pool) > limit {
		pool = pool[:limit]
	}
	return pool, nil
}

// LogResponse appends at most one durable row per logical submission.
// Cache tier first (no lock), then the locked durable scan that is the
// actual correctness guarantee.
func (s *Service) LogResponse(ctx context.Context, ev Event) (LogResult, error) {
	if !s.gate(ev.UserID) {
		return LogResult{}, ErrForbidden
	}

	ts := ev.At
	if ts.IsZero() {
		ts = s.opts.Now()
	}

	fp := fingerprint(ev.UserID, ev.QID, ev.Chosen)
	if s.cache.Get(fp) {
		return LogResult{OK: true, Deduped: true, Via: "cache"}, nil
	}

	if err := s.lock.Acquire(ctx, s.opts.LockWait); err != nil {
		return LogResult{}, err
	}
	defer s.lock.Release()

	if err := sheet.EnsureHeader(ctx, s.store, sheet.TableResponses, sheet.ResponsesHeader); err != nil {
		return LogResult{}, err
	}

	dup, err := s.hasRecentDuplicate(ctx, ev, ts)
	if err != nil {
		return LogResult{}, err
	}
	if dup {
		return LogResult{OK: true, Deduped: true, Via: "store"}, nil
	}

	elapsed := ""
	if ev.ElapsedMS > 0 {
		elapsed = strconv.FormatInt(ev.ElapsedMS, 10)
	}
	row := []string{
		formatRowTime(ts),
		ev.UserID,
		ev.QID,
		ev.Chosen,
		strconv.FormatBool(ev.Correct),
		elapsed,
		ev.Device,
	}
	if err := s.store.Append(ctx, sheet.TableResponses, row); err != nil {
		return LogResult{}, err
	}

	s.cache.Put(fp, s.opts.CacheTTL)
	return LogResult{OK: true}, nil
}

// hasRecentDuplicate scans the newest ScanRows rows for an exact
// fingerprint match within the recency window. Older matches are not
// duplicates; the same question may be re-answered later.
func (s *Service) hasRecentDuplicate(ctx context.Context, ev Event, ts time.Time) (bool, error) {
	header, err := s.store.Header(ctx, sheet.TableResponses)
	if err != nil {
		return false, err
	}
	idx, err := sheet.HeaderIndex(header, "timestamp", "user_id", "qid", "chosen")
	if err != nil {
		return false, fmt.Errorf("%w: Responses %v", ErrSchema, err)
	}

	recent, err := s.store.Tail(ctx, sheet.TableResponses, s.opts.ScanRows)
	if err != nil {
		return false, err
	}
	for _, row := range recent {
		if sheet.Cell(row, idx["user_id"]) != ev.UserID {
			continue
		}
		if sheet.Cell(row, idx["qid"]) != ev.QID {
			continue
		}
		if sheet.Cell(row, idx["chosen"]) != ev.Chosen {
			continue
		}
		t, ok := parseRowTime(sheet.Cell(row, idx["timestamp"]))
		if ok && ts.Sub(t) <= s.opts.RecencyWindow {
			return true, nil
		}
		// An out-of-window match is not recent; keep scanning.
	}
	return false, nil
}

// TodaySummary counts the user's rows whose timestamp falls on the
// current calendar day in the fixed zone. Full-table scan by design.
func (s *Service) TodaySummary(ctx context.Context, userID string) (Summary, error) {
	if !s.gate(userID) {
		return Summary{}, ErrForbidden
	}

	today := s.opts.Now().In(s.opts.TimeZone).Format("2006-01-02")

	rows, err := s.store.ReadAll(ctx, sheet.TableResponses)
	if err != nil {
		return Summary{}, err
	}
	if len(rows) == 0 {
		return Summary{}, fmt.Errorf("%w: Responses table not found", ErrSchema)
	}
	idx, err := sheet.HeaderIndex(rows[0], "timestamp", "user_id", "correct")
	if err != nil {
		return Summary{}, fmt.Errorf("%w: Responses %v", ErrSchema, err)
	}

	sum := Summary{Date: today}
	for _, row := range rows[1:] {
		if sheet.Cell(row, idx["user_id"]) != userID {
			continue
		}
		t, ok := parseRowTime(sheet.Cell(row, idx["timestamp"]))
		if !ok || t.In(s.opts.TimeZone).Format("2006-01-02") != today {
			continue
		}
		sum.Done++
		if truthy(sheet.Cell(row, idx["correct"])) {
			sum.Corrects++
		}
	}
	return sum, nil
}

// OverlayToday builds the fixed-size progress grid: cell i is the i-th
// question by lexical qid order, marked when the user attempted it
// today. Binary, not graded.
func (s *Service) OverlayToday(ctx context.Context, userID string) (Overlay, error) {
	if !s.gate(userID) {
		return Overlay{}, ErrForbidden
	}

	qRows, err := s.store.ReadAll(ctx, sheet.TableQuestions)
	if err != nil {
		return Overlay{}, err
	}
	if len(qRows) == 0 {
		return Overlay{}, fmt.Errorf("%w: Questions table not found", ErrSchema)
	}
	qIdx, err := sheet.HeaderIndex(qRows[0], "qid")
	if err != nil {
		return Overlay{}, fmt.Errorf("%w: Questions %v", ErrSchema, err)
	}
	var qids []string
	for _, row := range qRows[1:] {
		if qid := sheet.Cell(row, qIdx["qid"]); qid != "" {
			qids = append(qids, qid)
		}
	}
	sort.Strings(qids)
	pos := make(map[string]int, len(qids))
	for i, qid := range qids {
		pos[qid] = i
	}

	cols, rowsN := s.opts.OverlayCols, s.opts.OverlayRows
	levels := make([]int, cols*rowsN)

	rRows, err := s.store.ReadAll(ctx, sheet.TableResponses)
	if err != nil {
		return Overlay{}, err
	}
	if len(rRows) == 0 {
		return Overlay{}, fmt.Errorf("%w: Responses table not found", ErrSchema)
	}
	rIdx, err := sheet.HeaderIndex(rRows[0], "timestamp", "user_id", "qid")
	if err != nil {
		return Overlay{}, fmt.Errorf("%w: Responses %v", ErrSchema, err)
	}

	today := s.opts.Now().In(s.opts.TimeZone).Format("20060102")
	for _, row := range rRows[1:] {
		if sheet.Cell(row, rIdx["user_id"]) != userID {
			continue
		}
		t, ok := parseRowTime(sheet.Cell(row, rIdx["timestamp"]))
		if !ok || t.In(s.opts.TimeZone).Format("20060102") != today {
			continue
		}
		qid := sheet.Cell(row, rIdx["qid"])
		p, known := pos[qid]
		if !known || p >= len(levels) {
			// Beyond grid capacity or unknown qid: dropped, not an error.
			continue
		}
		levels[p] = 1
	}

	return Overlay{OK: true, Cols: cols, Rows: rowsN, Levels: levels}, nil
}

// Health self-heals the Responses header and reports table presence.
// No authorization: it is a liveness probe.
func (s *Service) Health(ctx context.Context) (Health, error) {
	if err := sheet.EnsureHeader(ctx, s.store, sheet.TableResponses, sheet.ResponsesHeader); err != nil {
		return Health{}, err
	}
	qHeader, err := s.store.Header(ctx, sheet.TableQuestions)
	if err != nil {
		return Health{}, err
	}
	rHeader, err := s.store.Header(ctx, sheet.TableResponses)
	if err != nil {
		return Health{}, err
	}
	return Health{
		OK:           true,
		HasQuestions: qHeader != nil,
		HasResponses: rHeader != nil,
		TimeZone:     s.opts.TimeZone.String(),
		Version:      s.opts.Version,
		ServerNow:    s.opts.Now(),
	}, nil
}

func formatRowTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseRowTime(cell string) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339Nano, cell); err == nil {
		return t, true
	}
	// Rows written by other tooling sometimes carry unix milliseconds.
	if ms, err := strconv.ParseInt(cell, 10, 64); err == nil {
		return time.UnixMilli(ms), true
	}
	return time.Time{}, false
}

func truthy(cell string) bool {
	switch strings.ToUpper(cell) {
	case "TRUE", "1":
		return true
	}
	return false
}
