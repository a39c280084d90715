package mapview

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/radar-map/pkg/geocode"
)

// DefaultDebounce is the quiet period before a typed query is sent.
const DefaultDebounce = 500 * time.Millisecond

// SearchResult is delivered once per query that survives debouncing and is
// still the latest when its response arrives. Short queries deliver an empty
// result without contacting the geocoder.
type SearchResult struct {
	Seq    uint64
	Query  string
	Places []geocode.Place
	Err    error
}

// Searcher debounces address queries. Each call to Type supersedes the
// previous one: its timer is stopped, its in-flight request is cancelled and
// any response it still produces is dropped.
type Searcher struct {
	client   geocode.Client
	debounce time.Duration
	deliver  func(SearchResult)

	ctx    context.Context
	stop   context.CancelFunc
	mu     sync.Mutex
	seq    uint64
	timer  *time.Timer
	cancel context.CancelFunc

	// deliverMu serializes deliver calls with the latest-query check.
	deliverMu sync.Mutex
}

// NewSearcher creates a Searcher. deliver is called from background
// goroutines, one call at a time, and only for the query that is the latest
// when the call starts. The Searcher stops when ctx is cancelled or Close is
// called.
func NewSearcher(ctx context.Context, client geocode.Client, debounce time.Duration, deliver func(SearchResult)) *Searcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	sctx, stop := context.WithCancel(ctx)
	return &Searcher{
		client:   client,
		debounce: debounce,
		deliver:  deliver,
		ctx:      sctx,
		stop:     stop,
	}
}

// Type records the current query text and returns its sequence number.
func (s *Searcher) Type(query string) uint64 {
	s.mu.Lock()
	s.seq++
	seq := s.seq
	s.supersedeLocked()

	if len([]rune(strings.TrimSpace(query))) < geocode.MinQueryLength {
		s.mu.Unlock()
		go s.emit(SearchResult{Seq: seq, Query: query, Places: []geocode.Place{}})
		return seq
	}

	s.timer = time.AfterFunc(s.debounce, func() { s.run(seq, query) })
	s.mu.Unlock()
	return seq
}

// Latest returns the sequence number of the most recent query.
func (s *Searcher) Latest() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}

// Close cancels pending and in-flight queries.
func (s *Searcher) Close() {
	s.mu.Lock()
	s.seq++
	s.supersedeLocked()
	s.mu.Unlock()
	s.stop()
}

// supersedeLocked stops the pending timer and cancels the in-flight request.
func (s *Searcher) supersedeLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *Searcher) run(seq uint64, query string) {
	s.mu.Lock()
	if seq != s.seq || s.ctx.Err() != nil {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(s.ctx)
	s.cancel = cancel
	s.mu.Unlock()
	defer cancel()

	places, err := s.client.Search(ctx, query)
	s.emit(SearchResult{Seq: seq, Query: query, Places: places, Err: err})
}

// emit delivers res unless a newer query was typed or the Searcher stopped.
func (s *Searcher) emit(res SearchResult) {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()

	s.mu.Lock()
	current := res.Seq == s.seq && s.ctx.Err() == nil
	s.mu.Unlock()
	if !current {
		zap.L().Debug("mapview: dropping superseded search", zap.Uint64("seq", res.Seq), zap.String("query", res.Query))
		return
	}
	s.deliver(res)
}
