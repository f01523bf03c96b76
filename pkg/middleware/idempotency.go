package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	apperrors "djagency/pkg/errors"
	httputil "djagency/pkg/http"
	"djagency/pkg/logger"
)

const IdempotencyHeader = "Idempotency-Key"

// IdempotencyLockTTL bounds how long an in-flight reservation survives a
// crashed request.
const IdempotencyLockTTL = time.Minute

type IdempotencyStore interface {
	Get(ctx context.Context, key string) (*CachedResponse, bool, error)
	Set(ctx context.Context, key string, response *CachedResponse) error
	// Reserve marks key as in flight. It reports false when another request
	// already holds it.
	Reserve(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
	Stop()
}

type CachedResponse struct {
	StatusCode  int         `json:"status_code"`
	Headers     http.Header `json:"headers"`
	Body        []byte      `json:"body"`
	Fingerprint string      `json:"fingerprint"`
	CreatedAt   time.Time   `json:"created_at"`
}

type InMemoryIdempotencyStore struct {
	mu       sync.RWMutex
	store    map[string]*CachedResponse
	pending  map[string]time.Time
	ttl      time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
}

func NewInMemoryIdempotencyStore(ttl time.Duration) *InMemoryIdempotencyStore {
	store := &InMemoryIdempotencyStore{
		store:   make(map[string]*CachedResponse),
		pending: make(map[string]time.Time),
		ttl:     ttl,
		stopCh:  make(chan struct{}),
	}

	go store.cleanup(time.Hour)

	return store
}

func (s *InMemoryIdempotencyStore) Get(_ context.Context, key string) (*CachedResponse, bool, error) {
	s.mu.RLock()
	response, exists := s.store[key]
	s.mu.RUnlock()

	if !exists {
		return nil, false, nil
	}

	if time.Since(response.CreatedAt) > s.ttl {
		s.mu.Lock()
		delete(s.store, key)
		s.mu.Unlock()
		return nil, false, nil
	}

	return response, true, nil
}

func (s *InMemoryIdempotencyStore) Set(_ context.Context, key string, response *CachedResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	response.CreatedAt = time.Now()
	s.store[key] = response
	return nil
}

func (s *InMemoryIdempotencyStore) Reserve(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if since, held := s.pending[key]; held && time.Since(since) < IdempotencyLockTTL {
		return false, nil
	}
	s.pending[key] = time.Now()
	return true, nil
}

func (s *InMemoryIdempotencyStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.pending, key)
	return nil
}

func (s *InMemoryIdempotencyStore) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.mu.Lock()
			for key, response := range s.store {
				if time.Since(response.CreatedAt) > s.ttl {
					delete(s.store, key)
				}
			}
			for key, since := range s.pending {
				if time.Since(since) > IdempotencyLockTTL {
					delete(s.pending, key)
				}
			}
			s.mu.Unlock()
		case <-s.stopCh:
			return
		}
	}
}

func (s *InMemoryIdempotencyStore) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

type responseCapture struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
}

func (rc *responseCapture) WriteHeader(statusCode int) {
	rc.statusCode = statusCode
	rc.ResponseWriter.WriteHeader(statusCode)
}

func (rc *responseCapture) Write(b []byte) (int, error) {
	rc.body.Write(b)
	return rc.ResponseWriter.Write(b)
}

// Idempotency replays the stored 2xx response for a repeated
// Idempotency-Key on the same method and path. A key is reserved while its
// first request runs, and reusing it with a different body is rejected.
// Store failures degrade to normal processing.
func Idempotency(store IdempotencyStore, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get(IdempotencyHeader)
			if header == "" || r.Method == http.MethodGet {
				next.ServeHTTP(w, r)
				return
			}
			key := r.Method + " " + r.URL.Path + " " + header

			body, err := io.ReadAll(r.Body)
			if err != nil {
				_ = httputil.WriteError(w, bodyReadError(err))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))
			fingerprint := fingerprintBody(body)

			if replayed := replayIfCached(w, r, store, key, fingerprint, log); replayed {
				return
			}

			reserved, err := store.Reserve(r.Context(), key)
			if err != nil {
				log.Warn("idempotency reservation failed", "request_id", RequestID(r.Context()), "error", err)
			} else if !reserved {
				w.Header().Set("Retry-After", "1")
				_ = httputil.WriteError(w, apperrors.Conflict("A request with this Idempotency-Key is still being processed"))
				return
			} else {
				defer func() {
					if err := store.Release(context.WithoutCancel(r.Context()), key); err != nil {
						log.Warn("idempotency release failed", "request_id", RequestID(r.Context()), "error", err)
					}
				}()
				// The first request may have finished between lookup and reservation.
				if replayed := replayIfCached(w, r, store, key, fingerprint, log); replayed {
					return
				}
			}

			capture := &responseCapture{ResponseWriter: w, statusCode: http.StatusOK, body: &bytes.Buffer{}}
			next.ServeHTTP(capture, r)

			if capture.statusCode < 200 || capture.statusCode >= 300 {
				return
			}
			response := &CachedResponse{
				StatusCode:  capture.statusCode,
				Headers:     w.Header().Clone(),
				Body:        capture.body.Bytes(),
				Fingerprint: fingerprint,
			}
			response.Headers.Del(RequestIDHeader)
			if err := store.Set(context.WithoutCancel(r.Context()), key, response); err != nil {
				log.Warn("idempotency store failed", "request_id", RequestID(r.Context()), "error", err)
			}
		})
	}
}

func replayIfCached(w http.ResponseWriter, r *http.Request, store IdempotencyStore, key, fingerprint string, log *logger.Logger) bool {
	cached, found, err := store.Get(r.Context(), key)
	if err != nil {
		log.Warn("idempotency lookup failed", "request_id", RequestID(r.Context()), "error", err)
		return false
	}
	if !found {
		return false
	}
	if cached.Fingerprint != "" && cached.Fingerprint != fingerprint {
		_ = httputil.WriteError(w, apperrors.Conflict("Idempotency-Key was already used with a different request body"))
		return true
	}
	replayCachedResponse(w, cached)
	return true
}

func fingerprintBody(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

func bodyReadError(err error) error {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return apperrors.Wrap(err, apperrors.CodeBadRequest, "Request body too large", http.StatusRequestEntityTooLarge)
	}
	return apperrors.Wrap(err, apperrors.CodeInvalidInput, "Failed to read request body", http.StatusBadRequest)
}

func replayCachedResponse(w http.ResponseWriter, cached *CachedResponse) {
	for key, values := range cached.Headers {
		for _, value := range values {
			w.Header().Add(key, value)
		}
	}
	w.Header().Set("Idempotent-Replayed", "true")
	w.WriteHeader(cached.StatusCode)
	_, _ = w.Write(cached.Body)
}
