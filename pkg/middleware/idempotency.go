package middleware

import (
	"bytes"
	"net/http"
	"sync"
	"time"
)

const (
	IdempotencyKeyHeader = "Idempotency-Key"
	ReplayedHeader       = "Idempotent-Replayed"
)

type recordedResponse struct {
	status int
	header http.Header
	body   []byte
}

// replayEntry is one attempt key. done closes when the first request holding
// the key finishes; resp stays nil unless that request succeeded.
type replayEntry struct {
	done    chan struct{}
	resp    *recordedResponse
	expires time.Time
}

// ReplayCache remembers successful responses per attempt key so a resent
// reservation is answered from the first outcome instead of running twice.
// A resend that arrives while the first is still running waits for it.
type ReplayCache struct {
	mu      sync.Mutex
	entries map[string]*replayEntry
	ttl     time.Duration
	now     func() time.Time
	stopCh  chan struct{}
	once    sync.Once
}

func NewReplayCache(ttl time.Duration) *ReplayCache {
	c := &ReplayCache{
		entries: make(map[string]*replayEntry),
		ttl:     ttl,
		now:     time.Now,
		stopCh:  make(chan struct{}),
	}
	go c.sweep(ttl)
	return c
}

// acquire returns the entry for key and whether the caller owns it.
func (c *ReplayCache) acquire(key string) (*replayEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok && (e.resp == nil || c.now().Before(e.expires)) {
		return e, false
	}
	e := &replayEntry{done: make(chan struct{})}
	c.entries[key] = e
	return e, true
}

// release publishes the owner's outcome. Failures are forgotten so the client
// can retry with the same key.
func (c *ReplayCache) release(key string, e *replayEntry, resp *recordedResponse) {
	c.mu.Lock()
	if resp != nil {
		e.resp = resp
		e.expires = c.now().Add(c.ttl)
	} else if c.entries[key] == e {
		delete(c.entries, key)
	}
	c.mu.Unlock()
	close(e.done)
}

func (c *ReplayCache) sweep(every time.Duration) {
	if every <= 0 || every > time.Hour {
		every = time.Hour
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.mu.Lock()
			now := c.now()
			for key, e := range c.entries {
				if e.resp != nil && now.After(e.expires) {
					delete(c.entries, key)
				}
			}
			c.mu.Unlock()
		case <-c.stopCh:
			return
		}
	}
}

func (c *ReplayCache) Stop() {
	c.once.Do(func() { close(c.stopCh) })
}

type recorder struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (rw *recorder) WriteHeader(status int) {
	rw.status = status
	rw.ResponseWriter.WriteHeader(status)
}

func (rw *recorder) Write(b []byte) (int, error) {
	if rw.status == 0 {
		rw.status = http.StatusOK
	}
	rw.body.Write(b)
	return rw.ResponseWriter.Write(b)
}

func (rw *recorder) recorded() *recordedResponse {
	if rw.status < 200 || rw.status >= 300 {
		return nil
	}
	return &recordedResponse{
		status: rw.status,
		header: rw.Header().Clone(),
		body:   bytes.Clone(rw.body.Bytes()),
	}
}

// Idempotency answers a request that repeats the Idempotency-Key of an
// earlier successful one with the earlier response. Keys are scoped to the
// caller's credential and the route.
func Idempotency(cache *ReplayCache) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := replayKey(r)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			for {
				entry, owner := cache.acquire(key)
				if owner {
					rw := &recorder{ResponseWriter: w}
					var resp *recordedResponse
					defer func() { cache.release(key, entry, resp) }()
					next.ServeHTTP(rw, r)
					resp = rw.recorded()
					return
				}

				select {
				case <-entry.done:
				case <-r.Context().Done():
					return
				}
				if entry.resp != nil {
					replay(w, entry.resp)
					return
				}
			}
		})
	}
}

func replayKey(r *http.Request) string {
	key := r.Header.Get(IdempotencyKeyHeader)
	if key == "" {
		return ""
	}
	return r.Header.Get("Authorization") + "|" + r.Method + " " + r.URL.Path + "|" + key
}

func replay(w http.ResponseWriter, resp *recordedResponse) {
	for name, values := range resp.header {
		for _, v := range values {
			w.Header().Add(name, v)
		}
	}
	w.Header().Set(ReplayedHeader, "true")
	w.WriteHeader(resp.status)
	_, _ = w.Write(resp.body)
}
