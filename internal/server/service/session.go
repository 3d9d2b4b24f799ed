package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"jshell/internal/core"
	"jshell/internal/server/config"
	"jshell/internal/server/database"
	"jshell/internal/server/metrics"
	"jshell/internal/server/storage"
	"jshell/internal/shell"

	"golang.org/x/crypto/bcrypt"
)

// Sentinel errors for the service layer.
var (
	ErrNotFound           = errors.New("session not found")
	ErrExpired            = errors.New("session has expired")
	ErrInvalidToken       = errors.New("invalid session token")
	ErrPasswordRequired   = errors.New("password required")
	ErrInvalidPassword    = errors.New("invalid password")
	ErrNoPassword         = errors.New("session has no password")
	ErrTooManySessions    = errors.New("session limit reached")
	ErrCommandTooLong     = errors.New("command exceeds maximum allowed length")
	ErrHistoryUnavailable = errors.New("command history is not enabled")
)

const defaultHistoryLimit = 100

// AuditLog stores session and command history. The database repository
// implements it.
type AuditLog interface {
	CreateSession(ctx context.Context, s *database.Session) error
	CloseSession(ctx context.Context, id string, reason string) error
	RecordCommand(ctx context.Context, c *database.Command) error
	GetHistory(ctx context.Context, sessionID string, limit int) ([]*database.Command, error)
	GetStats(ctx context.Context) (*database.Stats, error)
}

// SessionResult is returned when a session is created.
type SessionResult struct {
	ID             string    `json:"id"`
	Token          string    `json:"token"`
	TokenExpiresAt time.Time `json:"token_expires_at"`
	ExpiresAt      time.Time `json:"expires_at"`
	Prompt         string    `json:"prompt"`
}

// TokenResult is returned when a token is re-issued.
type TokenResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ExecResult is the outcome of one command line.
type ExecResult struct {
	Output string `json:"output"`
	Error  string `json:"error,omitempty"`
	Cwd    string `json:"cwd"`
	Prompt string `json:"prompt"`
	Exit   bool   `json:"exit"`
}

// Stats combines live and audited statistics.
type Stats struct {
	ActiveSessions int             `json:"active_sessions"`
	Audit          *database.Stats `json:"audit,omitempty"`
}

// SessionService owns the live shell sessions.
type SessionService struct {
	store  storage.Store
	audit  AuditLog
	tokens *TokenIssuer
	cfg    *config.Config
	now    func() time.Time
}

// NewSessionService creates a session service. audit may be nil, which
// disables command history.
func NewSessionService(store storage.Store, audit AuditLog, tokens *TokenIssuer, cfg *config.Config) *SessionService {
	return &SessionService{
		store:  store,
		audit:  audit,
		tokens: tokens,
		cfg:    cfg,
		now:    time.Now,
	}
}

// CreateSession starts a shell on an empty namespace. A non-empty password
// allows fresh tokens to be issued later.
func (s *SessionService) CreateSession(ctx context.Context, password string) (*SessionResult, error) {
	id, err := generateSecureToken(20)
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	var passwordHash []byte
	if password != "" {
		passwordHash, err = bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
	}

	sh := shell.New(core.New())
	sh.SetRecorder(s.recorderFor(id))

	now := s.now().UTC()
	session := storage.NewSession(id, sh, passwordHash, now, s.cfg.SessionTTL)
	if err := s.store.Save(session); err != nil {
		if errors.Is(err, storage.ErrStoreFull) {
			return nil, ErrTooManySessions
		}
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	if s.audit != nil {
		record := &database.Session{ID: id, CreatedAt: now, ExpiresAt: session.ExpiresAt()}
		if err := s.audit.CreateSession(ctx, record); err != nil {
			s.store.Delete(id)
			return nil, fmt.Errorf("failed to create session record: %w", err)
		}
	}

	token, tokenExpiry, err := s.tokens.Issue(id)
	if err != nil {
		s.closeSession(ctx, id, "error")
		return nil, err
	}

	metrics.RecordSessionCreated()
	metrics.SetActiveSessions(s.store.Len())
	slog.Info("session created", "session_id", id, "has_password", passwordHash != nil)

	return &SessionResult{
		ID:             id,
		Token:          token,
		TokenExpiresAt: tokenExpiry,
		ExpiresAt:      session.ExpiresAt(),
		Prompt:         sh.Prompt(),
	}, nil
}

// IssueToken returns a fresh token for a password-protected session.
func (s *SessionService) IssueToken(ctx context.Context, id, password string) (*TokenResult, error) {
	session, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	if session.PasswordHash == nil {
		return nil, ErrNoPassword
	}
	if password == "" {
		return nil, ErrPasswordRequired
	}
	if err := bcrypt.CompareHashAndPassword(session.PasswordHash, []byte(password)); err != nil {
		metrics.RecordAuthAttempt(false)
		return nil, ErrInvalidPassword
	}
	metrics.RecordAuthAttempt(true)

	token, expiresAt, err := s.tokens.Issue(id)
	if err != nil {
		return nil, err
	}
	return &TokenResult{Token: token, ExpiresAt: expiresAt}, nil
}

// Exec runs one command line in the session. An "exit" closes it.
func (s *SessionService) Exec(ctx context.Context, id, token, line string) (*ExecResult, error) {
	if len(line) > s.cfg.MaxCommandLength {
		return nil, ErrCommandTooLong
	}

	session, err := s.authorize(id, token)
	if err != nil {
		return nil, err
	}

	result := &ExecResult{}
	session.Do(s.now(), s.cfg.SessionTTL, func(sh *shell.Shell) {
		res := sh.Execute(ctx, line)
		result.Output = res.Output
		if res.Err != nil {
			result.Error = res.Err.Error()
		}
		result.Exit = res.Exit
		result.Cwd = sh.Namespace().Pwd()
		result.Prompt = sh.Prompt()
	})

	if result.Exit {
		s.closeSession(ctx, id, "exit")
	}
	return result, nil
}

// Snapshot returns the session's namespace as a tree.
func (s *SessionService) Snapshot(ctx context.Context, id, token string) (*core.Snapshot, error) {
	session, err := s.authorize(id, token)
	if err != nil {
		return nil, err
	}

	var snap *core.Snapshot
	session.View(func(sh *shell.Shell) {
		snap = core.NewSnapshot(sh.Namespace())
	})
	return snap, nil
}

// Archive returns the session's namespace as zip bytes.
func (s *SessionService) Archive(ctx context.Context, id, token string) ([]byte, error) {
	session, err := s.authorize(id, token)
	if err != nil {
		return nil, err
	}

	var data []byte
	session.View(func(sh *shell.Shell) {
		data, err = sh.Namespace().ToZipBytes()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to archive session: %w", err)
	}
	return data, nil
}

// History returns up to limit recent commands from the audit log.
func (s *SessionService) History(ctx context.Context, id, token string, limit int) ([]*database.Command, error) {
	if s.audit == nil {
		return nil, ErrHistoryUnavailable
	}
	if _, err := s.authorize(id, token); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > defaultHistoryLimit {
		limit = defaultHistoryLimit
	}
	return s.audit.GetHistory(ctx, id, limit)
}

// DeleteSession closes the session and discards its namespace.
func (s *SessionService) DeleteSession(ctx context.Context, id, token string) error {
	if _, err := s.authorize(id, token); err != nil {
		return err
	}
	s.closeSession(ctx, id, "deleted")
	return nil
}

// GetStats returns live counts, plus audit totals when enabled.
func (s *SessionService) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{ActiveSessions: s.store.Len()}
	if s.audit != nil {
		audit, err := s.audit.GetStats(ctx)
		if err != nil {
			return nil, err
		}
		stats.Audit = audit
	}
	return stats, nil
}

func (s *SessionService) lookup(id string) (*storage.Session, error) {
	session, err := s.store.Get(id)
	if err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if session.Expired(s.now()) {
		return nil, ErrExpired
	}
	return session, nil
}

func (s *SessionService) authorize(id, token string) (*storage.Session, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil || claims.SessionID != id {
		metrics.RecordAuthAttempt(false)
		return nil, ErrInvalidToken
	}
	metrics.RecordAuthAttempt(true)
	return s.lookup(id)
}

func (s *SessionService) closeSession(ctx context.Context, id, reason string) {
	s.store.Delete(id)
	metrics.RecordSessionClosed(reason)
	metrics.SetActiveSessions(s.store.Len())

	if s.audit != nil {
		if err := s.audit.CloseSession(ctx, id, reason); err != nil {
			slog.Error("failed to record session close", "session_id", id, "error", err)
		}
	}
	slog.Info("session closed", "session_id", id, "reason", reason)
}

func (s *SessionService) recorderFor(id string) shell.Recorder {
	recorders := shell.Recorders{
		shell.LogRecorder{Logger: slog.Default().With("session_id", id)},
		metricsRecorder{},
	}
	if s.audit != nil {
		recorders = append(recorders, auditRecorder{audit: s.audit, sessionID: id})
	}
	return recorders
}

type metricsRecorder struct{}

func (metricsRecorder) Record(_ context.Context, res shell.Result, elapsed time.Duration) {
	metrics.RecordCommand(res.Command, elapsed, res.Err == nil)
}

// auditRecorder writes commands to the audit log. Failures are logged and
// never fail the command.
type auditRecorder struct {
	audit     AuditLog
	sessionID string
}

func (r auditRecorder) Record(ctx context.Context, res shell.Result, elapsed time.Duration) {
	record := &database.Command{
		SessionID:  r.sessionID,
		Line:       res.Line,
		Command:    res.Command,
		Output:     res.Output,
		DurationUS: elapsed.Microseconds(),
		ExecutedAt: time.Now().UTC(),
	}
	if res.Err != nil {
		msg := res.Err.Error()
		record.Error = &msg
	}

	err := r.audit.RecordCommand(context.WithoutCancel(ctx), record)
	metrics.RecordAuditWrite(err == nil)
	if err != nil {
		slog.Error("failed to record command", "session_id", r.sessionID, "error", err)
	}
}

// generateSecureToken produces a cryptographically secure, URL-safe random string.
func generateSecureToken(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	result := make([]byte, length)
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", fmt.Errorf("crypto/rand failure: %w", err)
		}
		result[i] = charset[n.Int64()]
	}
	return string(result), nil
}
