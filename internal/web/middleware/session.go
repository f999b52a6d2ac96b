package middleware

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/kozaktomas/facefit/internal/acquisition"
	"github.com/kozaktomas/facefit/internal/analysis"
	"github.com/kozaktomas/facefit/internal/camera"
	"github.com/kozaktomas/facefit/internal/constants"
)

const sessionCookieName = "facefit_session"

type contextKey string

const sessionContextKey contextKey = "session"

// Session is the state of one browser. Every session starts Idle with the
// upload prompt showing.
type Session struct {
	ID        string
	Machine   *analysis.Machine
	Tracker   *acquisition.Tracker[*camera.Session]
	Limiter   *rate.Limiter
	CreatedAt time.Time

	mu       sync.Mutex
	lastSeen time.Time
	notice   string
}

// SetNotice stores a one-shot message for the next page render.
func (s *Session) SetNotice(notice string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notice = notice
}

// TakeNotice returns the pending notice and clears it.
func (s *Session) TakeNotice() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	notice := s.notice
	s.notice = ""
	return notice
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) expired(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastSeen) > constants.SessionDuration
}

// SessionManager handles session creation, lookup and expiry.
type SessionManager struct {
	secret    []byte
	sessions  map[string]*Session
	mu        sync.RWMutex
	rateLimit rate.Limit
	rateBurst int
	stopOnce  sync.Once
	stopSweep chan struct{}
	sweepDone chan struct{}
	nowFunc   func() time.Time
}

// NewSessionManager creates a session manager and starts the expiry sweep.
// rps and burst configure each session's analyze limiter.
func NewSessionManager(secret string, rps, burst int) *SessionManager {
	// Use a default secret if none provided (for development)
	if secret == "" {
		secret = "facefit-dev-secret-change-in-production"
	}
	if rps <= 0 {
		rps = constants.DefaultAnalyzeRPS
	}
	if burst <= 0 {
		burst = constants.DefaultAnalyzeBurst
	}
	sm := &SessionManager{
		secret:    []byte(secret),
		sessions:  make(map[string]*Session),
		rateLimit: rate.Limit(rps),
		rateBurst: burst,
		stopSweep: make(chan struct{}),
		sweepDone: make(chan struct{}),
		nowFunc:   time.Now,
	}
	go sm.sweepLoop()
	return sm
}

// CreateSession creates a new idle session.
func (sm *SessionManager) CreateSession() *Session {
	now := sm.nowFunc()
	session := &Session{
		ID:        uuid.NewString(),
		Machine:   analysis.NewMachine(),
		Tracker:   acquisition.NewTracker[*camera.Session](),
		Limiter:   rate.NewLimiter(sm.rateLimit, sm.rateBurst),
		CreatedAt: now,
		lastSeen:  now,
	}

	sm.mu.Lock()
	sm.sessions[session.ID] = session
	sm.mu.Unlock()

	return session
}

// GetSession retrieves a live session by ID.
func (sm *SessionManager) GetSession(sessionID string) *Session {
	sm.mu.RLock()
	session, ok := sm.sessions[sessionID]
	sm.mu.RUnlock()

	if !ok || session.expired(sm.nowFunc()) {
		return nil
	}
	return session
}

// DeleteSession removes a session and releases its camera.
func (sm *SessionManager) DeleteSession(sessionID string) {
	sm.mu.Lock()
	session, ok := sm.sessions[sessionID]
	delete(sm.sessions, sessionID)
	sm.mu.Unlock()

	if ok {
		session.Tracker.Release()
	}
}

// Count returns the number of tracked sessions.
func (sm *SessionManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

// SetSessionCookie sets the signed session cookie on the response.
func (sm *SessionManager) SetSessionCookie(w http.ResponseWriter, session *Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    session.ID + "." + sm.signData(session.ID),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(constants.SessionDuration.Seconds()),
	})
}

// GetSessionFromRequest extracts the session from the request cookie.
func (sm *SessionManager) GetSessionFromRequest(r *http.Request) *Session {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return nil
	}
	sessionID, signature, ok := strings.Cut(cookie.Value, ".")
	if !ok || !sm.verifySignature(sessionID, signature) {
		return nil
	}
	return sm.GetSession(sessionID)
}

// Stop ends the expiry sweep and releases every session's camera.
func (sm *SessionManager) Stop() {
	sm.stopOnce.Do(func() {
		close(sm.stopSweep)
		<-sm.sweepDone

		sm.mu.Lock()
		sessions := sm.sessions
		sm.sessions = make(map[string]*Session)
		sm.mu.Unlock()

		for _, session := range sessions {
			session.Tracker.Release()
		}
	})
}

func (sm *SessionManager) sweepLoop() {
	defer close(sm.sweepDone)
	ticker := time.NewTicker(constants.SessionCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-sm.stopSweep:
			return
		case <-ticker.C:
			sm.sweep()
		}
	}
}

// sweep removes expired sessions.
func (sm *SessionManager) sweep() int {
	now := sm.nowFunc()

	sm.mu.RLock()
	var expired []string
	for id, session := range sm.sessions {
		if session.expired(now) {
			expired = append(expired, id)
		}
	}
	sm.mu.RUnlock()

	for _, id := range expired {
		sm.DeleteSession(id)
	}
	return len(expired)
}

// signData creates an HMAC signature for data
func (sm *SessionManager) signData(data string) string {
	h := hmac.New(sha256.New, sm.secret)
	h.Write([]byte(data))
	return base64.URLEncoding.EncodeToString(h.Sum(nil))
}

// verifySignature verifies an HMAC signature
func (sm *SessionManager) verifySignature(data, signature string) bool {
	expected := sm.signData(data)
	return hmac.Equal([]byte(signature), []byte(expected))
}

// Sessions attaches the browser's session to the request context, creating
// one and setting its cookie when the request carries none.
func Sessions(sm *SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := sm.GetSessionFromRequest(r)
			if session == nil {
				session = sm.CreateSession()
				sm.SetSessionCookie(w, session)
			}
			session.touch(sm.nowFunc())

			next.ServeHTTP(w, r.WithContext(SetSessionInContext(r.Context(), session)))
		})
	}
}

// GetSessionFromContext retrieves the session from the request context
func GetSessionFromContext(ctx context.Context) *Session {
	session, ok := ctx.Value(sessionContextKey).(*Session)
	if !ok {
		return nil
	}
	return session
}

// SetSessionInContext adds a session to the context.
func SetSessionInContext(ctx context.Context, session *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, session)
}
