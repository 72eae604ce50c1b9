package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Kwakusharp7/fleet-managment/api/responses"
	pkgerrors "github.com/Kwakusharp7/fleet-managment/pkg/errors"
	"github.com/Kwakusharp7/fleet-managment/pkg/logger"
	pkgredis "github.com/Kwakusharp7/fleet-managment/pkg/redis"
)

const (
	idempotencyHeader       = "Idempotency-Key"
	idempotencyReplayHeader = "Idempotency-Replayed"
	defaultIdempotencyTTL   = 24 * time.Hour
	// A claimed key that never completes frees itself after this long.
	idempotencyPendingTTL = 2 * time.Minute
)

// Replaying these requests would duplicate skids or projects, so clients must
// send an Idempotency-Key.
var idempotentRoutes = []string{
	"/api/v1/projects",
	"/api/v1/projects/{projectCode}/inventory/skids",
	"/api/v1/projects/{projectCode}/inventory/skids/batch",
	"/api/v1/projects/{projectCode}/inventory/import",
	"/api/v1/projects/{projectCode}/truck-loads/{loadId}/skids",
	"/api/v1/projects/{projectCode}/truck-loads/{loadId}/pull",
}

// storedResponse is what a completed request leaves behind under its key.
// A record with Status 0 marks a request still in flight.
type storedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body,omitempty"`
	RequestHash string `json:"request_hash"`
}

func (s storedResponse) pending() bool { return s.Status == 0 }

// Idempotency replays the first completed response for a repeated key. A
// concurrent duplicate gets a conflict while the first request runs, and 5xx
// outcomes release the key so the client may retry.
func Idempotency(store pkgredis.IdempotencyStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ttl, ok := routeTTL(r.Method, r.URL.Path)
			if !ok || store == nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()
			fail := func(err error) { responses.WriteError(ctx, logg, w, err) }

			clientKey := strings.TrimSpace(r.Header.Get(idempotencyHeader))
			if clientKey == "" {
				fail(pkgerrors.New(pkgerrors.CodeValidation, idempotencyHeader+" header required"))
				return
			}
			body, err := io.ReadAll(r.Body)
			if err != nil {
				fail(pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			sum := sha256.Sum256(body)
			hash := hex.EncodeToString(sum[:])
			key := store.IdempotencyKey(UserIDFromContext(ctx)+"|"+r.Method+"|"+r.URL.Path, clientKey)

			claimed, err := claim(r, store, key, hash)
			if err != nil {
				fail(pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency key"))
				return
			}
			if !claimed {
				existing, err := lookup(r, store, key)
				switch {
				case err != nil:
					fail(pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read idempotency key"))
				case existing == nil:
					// expired between claim and read; let the client retry
					fail(pkgerrors.New(pkgerrors.CodeConflict, "idempotent request state changed; retry"))
				case existing.RequestHash != hash:
					fail(pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body"))
				case existing.pending():
					fail(pkgerrors.New(pkgerrors.CodeIdempotency, "a request with this idempotency key is still in progress"))
				default:
					replay(w, existing)
				}
				return
			}

			rec := &responseCapture{ResponseWriter: w}
			next.ServeHTTP(rec, r)

			status := rec.statusOrOK()
			if err := store.Del(ctx, key); err != nil && logg != nil {
				logg.Error(ctx, "release idempotency key", err)
			}
			if status >= http.StatusInternalServerError {
				return
			}
			done, _ := json.Marshal(storedResponse{
				Status:      status,
				ContentType: rec.Header().Get("Content-Type"),
				Body:        rec.body.Bytes(),
				RequestHash: hash,
			})
			if _, err := store.SetNX(ctx, key, string(done), ttl); err != nil && logg != nil {
				logg.Error(ctx, "persist idempotency record", err)
			}
		})
	}
}

func claim(r *http.Request, store pkgredis.IdempotencyStore, key, hash string) (bool, error) {
	marker, _ := json.Marshal(storedResponse{RequestHash: hash})
	return store.SetNX(r.Context(), key, string(marker), idempotencyPendingTTL)
}

func lookup(r *http.Request, store pkgredis.IdempotencyStore, key string) (*storedResponse, error) {
	raw, err := store.Get(r.Context(), key)
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var rec storedResponse
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func replay(w http.ResponseWriter, rec *storedResponse) {
	if rec.ContentType != "" {
		w.Header().Set("Content-Type", rec.ContentType)
	}
	w.Header().Set(idempotencyReplayHeader, "true")
	w.WriteHeader(rec.Status)
	_, _ = w.Write(rec.Body)
}

func routeTTL(method, path string) (time.Duration, bool) {
	if method != http.MethodPost || path == "" {
		return 0, false
	}
	for _, tmpl := range idempotentRoutes {
		if matchTemplate(tmpl, path) {
			return defaultIdempotencyTTL, true
		}
	}
	return 0, false
}

// matchTemplate compares segment by segment. A {name} segment accepts any
// non-empty value.
func matchTemplate(template, path string) bool {
	want := strings.Split(strings.Trim(template, "/"), "/")
	got := strings.Split(strings.Trim(path, "/"), "/")
	if len(got) != len(want) {
		return false
	}
	for i, seg := range want {
		if strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}") {
			if got[i] == "" {
				return false
			}
			continue
		}
		if got[i] != seg {
			return false
		}
	}
	return true
}

type responseCapture struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (r *responseCapture) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseCapture) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r *responseCapture) statusOrOK() int {
	if r.status == 0 {
		return http.StatusOK
	}
	return r.status
}
