package httpserver

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/argon2"

	"github.com/fairyhunter13/ai-resume-screener/internal/config"
	"github.com/fairyhunter13/ai-resume-screener/internal/domain"
)

// Argon2Params tunes argon2id hashing.
type Argon2Params struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLen     uint32
	KeyLen      uint32
}

// DefaultArgon2Params is used for every new hash.
var DefaultArgon2Params = Argon2Params{
	Memory:      64 * 1024,
	Iterations:  3,
	Parallelism: 2,
	SaltLen:     16,
	KeyLen:      32,
}

// HashPassword returns an argon2id hash in the form
// argon2id$iterations$memory$parallelism$salt$hash with base64 salt and hash.
func HashPassword(password string, p Argon2Params) (string, error) {
	salt := make([]byte, p.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("op=httpserver.HashPassword: %w", err)
	}
	key := argon2.IDKey([]byte(password), salt, p.Iterations, p.Memory, p.Parallelism, p.KeyLen)
	return fmt.Sprintf("argon2id$%d$%d$%d$%s$%s",
		p.Iterations, p.Memory, p.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key)), nil
}

func decodeArgon2(encoded string) (p Argon2Params, salt, key []byte, err error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "argon2id" {
		return p, nil, nil, fmt.Errorf("bad hash format")
	}
	nums := make([]uint64, 3)
	for i, s := range parts[1:4] {
		if nums[i], err = strconv.ParseUint(s, 10, 32); err != nil {
			return p, nil, nil, fmt.Errorf("bad hash params")
		}
	}
	if nums[2] > 255 {
		return p, nil, nil, fmt.Errorf("bad hash params")
	}
	p.Iterations, p.Memory, p.Parallelism = uint32(nums[0]), uint32(nums[1]), uint8(nums[2])
	if salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return p, nil, nil, fmt.Errorf("bad salt encoding")
	}
	if key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil {
		return p, nil, nil, fmt.Errorf("bad key encoding")
	}
	return p, salt, key, nil
}

// VerifyPassword reports whether password matches the stored argon2id hash.
func VerifyPassword(password, encoded string) bool {
	p, salt, want, err := decodeArgon2(encoded)
	if err != nil {
		return false
	}
	got := argon2.IDKey([]byte(password), salt, p.Iterations, p.Memory, p.Parallelism, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1
}

// SessionData is the validated content of a session cookie.
type SessionData struct {
	Username  string
	ExpiresAt time.Time
}

const sessionTTL = 24 * time.Hour

// SessionManager issues and checks HMAC-signed session cookies. The cookie
// value is "<base64 username>:<expiry unix>.<base64 signature>"; state lives
// entirely in the cookie, so there is nothing to store or revoke server-side.
type SessionManager struct {
	secret []byte
	cfg    config.Config
}

// NewSessionManager builds a manager keyed by the configured session secret.
func NewSessionManager(cfg config.Config) *SessionManager {
	return &SessionManager{secret: []byte(cfg.AdminSessionSecret), cfg: cfg}
}

func (sm *SessionManager) sign(payload string) string {
	mac := hmac.New(sha256.New, sm.secret)
	mac.Write([]byte(payload))
	return base64.URLEncoding.EncodeToString(mac.Sum(nil))
}

// CreateSession returns a signed cookie value for username.
func (sm *SessionManager) CreateSession(username string) (string, error) {
	payload := fmt.Sprintf("%s:%d",
		base64.RawURLEncoding.EncodeToString([]byte(username)),
		time.Now().Add(sessionTTL).Unix())
	return payload + "." + sm.sign(payload), nil
}

// ValidateSession checks the signature and expiry of a cookie value.
func (sm *SessionManager) ValidateSession(value string) (*SessionData, error) {
	payload, sig, ok := strings.Cut(value, ".")
	if !ok || payload == "" {
		return nil, fmt.Errorf("malformed session")
	}
	if subtle.ConstantTimeCompare([]byte(sig), []byte(sm.sign(payload))) != 1 {
		return nil, fmt.Errorf("bad session signature")
	}
	user64, expStr, ok := strings.Cut(payload, ":")
	if !ok {
		return nil, fmt.Errorf("malformed session payload")
	}
	user, err := base64.RawURLEncoding.DecodeString(user64)
	if err != nil {
		return nil, fmt.Errorf("malformed session payload")
	}
	exp, err := strconv.ParseInt(expStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("malformed session payload")
	}
	expiresAt := time.Unix(exp, 0)
	if time.Now().After(expiresAt) {
		return nil, fmt.Errorf("session expired")
	}
	return &SessionData{Username: string(user), ExpiresAt: expiresAt}, nil
}

func (sm *SessionManager) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     "session",
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   sm.cfg.IsProd(),
		SameSite: http.SameSiteStrictMode,
		MaxAge:   maxAge,
	}
}

// SetSessionCookie attaches the session cookie to the response.
func (sm *SessionManager) SetSessionCookie(w http.ResponseWriter, value string) {
	http.SetCookie(w, sm.cookie(value, int(sessionTTL.Seconds())))
}

// ClearSessionCookie expires the session cookie.
func (sm *SessionManager) ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, sm.cookie("", -1))
}

type sessionKey struct{}

// SessionFromContext returns the session attached by AuthRequired, if any.
func SessionFromContext(ctx context.Context) (*SessionData, bool) {
	sd, ok := ctx.Value(sessionKey{}).(*SessionData)
	return sd, ok
}

// AuthRequired guards API routes. This is a JSON API, so a missing or
// invalid session yields 401 rather than a redirect.
func (sm *SessionManager) AuthRequired(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie("session")
		if err != nil || cookie.Value == "" {
			writeJSON(w, http.StatusUnauthorized, errorEnvelope{Error: apiError{Code: "UNAUTHENTICATED", Message: "login required"}})
			return
		}
		sd, err := sm.ValidateSession(cookie.Value)
		if err != nil {
			sm.ClearSessionCookie(w)
			writeJSON(w, http.StatusUnauthorized, errorEnvelope{Error: apiError{Code: "UNAUTHENTICATED", Message: "invalid session"}})
			return
		}
		ctx := context.WithValue(r.Context(), sessionKey{}, sd)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SeedAdmin hashes the configured bootstrap password and inserts the admin
// record if it does not exist yet.
func SeedAdmin(ctx context.Context, cfg config.Config, repo domain.AdminRepository) error {
	if !cfg.AdminEnabled() {
		return nil
	}
	hash, err := HashPassword(cfg.AdminPassword, DefaultArgon2Params)
	if err != nil {
		return fmt.Errorf("op=httpserver.SeedAdmin: %w", err)
	}
	return repo.EnsureDefault(ctx, domain.Admin{Username: cfg.AdminUsername, PasswordHash: hash})
}
