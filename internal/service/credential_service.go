package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/noah-isme/tutor-billing/internal/models"
	appErrors "github.com/noah-isme/tutor-billing/pkg/errors"
)

// Credential keys kept in the credential namespace of the mirror backend.
const (
	CredentialKeyGrant     = "drive_grant"
	CredentialKeySignedOut = "drive_signed_out"
)

// Drive scopes requested at consent.
var DriveScopes = []string{
	"https://www.googleapis.com/auth/drive.appdata",
	"https://www.googleapis.com/auth/drive.file",
}

type credentialStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// CredentialConfig configures the OAuth client and token lifecycle.
type CredentialConfig struct {
	ClientID             string
	ClientSecret         string
	RedirectURL          string
	AuthURL              string
	TokenURL             string
	StateSecret          string
	StateTTL             time.Duration
	ExpiryMargin         time.Duration
	DefaultLifetime      time.Duration
	SilentRefreshTimeout time.Duration
}

type storedGrant struct {
	RefreshToken string    `json:"refreshToken"`
	GrantedAt    time.Time `json:"grantedAt"`
}

// CredentialService owns the bearer token used for Drive calls. Interactive
// consent goes through AuthCodeURL/CompleteSignIn; renewals use the stored
// refresh grant without user interaction.
type CredentialService struct {
	oauth   *oauth2.Config
	store   credentialStore
	states  *StateSigner
	cfg     CredentialConfig
	logger  *zap.Logger
	metrics *MetricsService
	now     func() time.Time

	mu           sync.Mutex
	accessToken  string
	expiresAt    time.Time
	refreshToken string
	signedOut    bool

	lmu       sync.RWMutex
	listeners []func(models.AuthStatus)
}

// NewCredentialService constructs the service. Call Bootstrap to restore a
// previous grant.
func NewCredentialService(store credentialStore, cfg CredentialConfig, logger *zap.Logger, metrics *MetricsService) *CredentialService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ExpiryMargin < 0 {
		cfg.ExpiryMargin = 0
	}
	if cfg.DefaultLifetime <= 0 {
		cfg.DefaultLifetime = time.Hour
	}
	if cfg.SilentRefreshTimeout <= 0 {
		cfg.SilentRefreshTimeout = 5 * time.Second
	}
	endpoint := oauth2.Endpoint{
		AuthURL:   cfg.AuthURL,
		TokenURL:  cfg.TokenURL,
		AuthStyle: oauth2.AuthStyleInParams,
	}
	return &CredentialService{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     endpoint,
			Scopes:       DriveScopes,
		},
		store:   store,
		states:  NewStateSigner(cfg.StateSecret, cfg.StateTTL),
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
		now:     time.Now,
	}
}

// OnChange registers a listener for sign-in state changes.
func (s *CredentialService) OnChange(fn func(models.AuthStatus)) {
	s.lmu.Lock()
	defer s.lmu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// AuthCodeURL returns the consent URL. Consent is always re-prompted.
func (s *CredentialService) AuthCodeURL() (string, error) {
	state, err := s.states.Issue()
	if err != nil {
		return "", err
	}
	return s.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce), nil
}

// CompleteSignIn exchanges the authorization code and clears the signed-out flag.
func (s *CredentialService) CompleteSignIn(ctx context.Context, code, state string) error {
	if err := s.states.Verify(state); err != nil {
		return err
	}
	if code == "" {
		return appErrors.Clone(appErrors.ErrValidation, "authorization code required")
	}
	tok, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrNotAuthenticated.Code, appErrors.ErrNotAuthenticated.Status, "authorization code exchange failed")
	}

	s.mu.Lock()
	s.adoptLocked(tok)
	s.signedOut = false
	refresh := s.refreshToken
	s.mu.Unlock()

	if err := s.store.Delete(ctx, CredentialKeySignedOut); err != nil {
		s.logger.Warn("failed to clear signed-out flag", zap.Error(err))
	}
	if refresh != "" {
		s.persistGrant(ctx, refresh)
	}
	s.logger.Info("drive sign-in completed", zap.Bool("has_grant", refresh != ""))
	s.notify()
	return nil
}

// Bootstrap restores the stored grant and renews silently unless the user
// signed out explicitly. It reports whether a token is available.
func (s *CredentialService) Bootstrap(ctx context.Context) (bool, error) {
	signedOut, err := s.loadSignedOut(ctx)
	if err != nil {
		return false, err
	}
	grant, err := s.loadGrant(ctx)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	s.signedOut = signedOut
	s.refreshToken = grant
	s.mu.Unlock()

	if signedOut {
		s.logger.Info("silent sign-in suppressed after explicit sign-out")
		return false, nil
	}
	if grant == "" {
		return false, nil
	}
	if _, err := s.RequireFreshToken(ctx); err != nil {
		s.logger.Warn("silent sign-in failed", zap.Error(err))
		return false, nil
	}
	return true, nil
}

// Current returns the cached token when it is still inside its expiry estimate.
func (s *CredentialService) Current() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.accessToken == "" || !s.now().Before(s.expiresAt) {
		return "", false
	}
	return s.accessToken, true
}

// SignedIn reports whether a usable token or grant exists.
func (s *CredentialService) SignedIn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.signedOut && (s.accessToken != "" || s.refreshToken != "")
}

// Status describes the credential state.
func (s *CredentialService) Status() models.AuthStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	status := models.AuthStatus{
		SignedIn:  !s.signedOut && (s.accessToken != "" || s.refreshToken != ""),
		SignedOut: s.signedOut,
		HasGrant:  s.refreshToken != "",
	}
	if s.accessToken != "" {
		expires := s.expiresAt
		status.ExpiresAt = &expires
	}
	return status
}

// RequireFreshToken returns the cached token or renews it silently when it
// is missing or past its expiry estimate.
func (s *CredentialService) RequireFreshToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.signedOut {
		return "", appErrors.ErrNotAuthenticated
	}
	if s.accessToken != "" && s.now().Before(s.expiresAt) {
		return s.accessToken, nil
	}
	return s.refreshLocked(ctx)
}

// ForceRefresh renews the token even when the cached one looks valid.
func (s *CredentialService) ForceRefresh(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.signedOut {
		return "", appErrors.ErrNotAuthenticated
	}
	return s.refreshLocked(ctx)
}

// SignOut drops the token and the grant and suppresses silent sign-in until
// the next interactive sign-in.
func (s *CredentialService) SignOut(ctx context.Context) error {
	s.mu.Lock()
	s.accessToken = ""
	s.expiresAt = time.Time{}
	s.refreshToken = ""
	s.signedOut = true
	s.mu.Unlock()

	var errs []error
	if err := s.store.Set(ctx, CredentialKeySignedOut, []byte("true")); err != nil {
		errs = append(errs, fmt.Errorf("persist signed-out flag: %w", err))
	}
	if err := s.store.Delete(ctx, CredentialKeyGrant); err != nil {
		errs = append(errs, fmt.Errorf("drop grant: %w", err))
	}
	s.logger.Info("drive sign-out")
	s.notify()
	return errors.Join(errs...)
}

func (s *CredentialService) refreshLocked(ctx context.Context) (string, error) {
	if s.refreshToken == "" {
		return "", appErrors.ErrNotAuthenticated
	}
	refreshCtx, cancel := context.WithTimeout(ctx, s.cfg.SilentRefreshTimeout)
	defer cancel()

	tok, err := s.oauth.TokenSource(refreshCtx, &oauth2.Token{RefreshToken: s.refreshToken}).Token()
	if err != nil {
		s.metrics.RecordTokenRefresh(false)
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.ErrorCode == "invalid_grant" {
			s.logger.Warn("stored grant was revoked")
			s.refreshToken = ""
			s.accessToken = ""
			go s.dropGrant()
		}
		return "", appErrors.Wrap(err, appErrors.ErrNotAuthenticated.Code, appErrors.ErrNotAuthenticated.Status, "silent token renewal failed")
	}
	s.metrics.RecordTokenRefresh(true)
	previous := s.refreshToken
	s.adoptLocked(tok)
	if s.refreshToken != previous {
		s.persistGrant(ctx, s.refreshToken)
	}
	return s.accessToken, nil
}

// adoptLocked caches tok with an expiry estimate reduced by the safety margin.
func (s *CredentialService) adoptLocked(tok *oauth2.Token) {
	expiry := tok.Expiry
	if expiry.IsZero() {
		expiry = s.now().Add(s.cfg.DefaultLifetime)
	}
	s.accessToken = tok.AccessToken
	s.expiresAt = expiry.Add(-s.cfg.ExpiryMargin)
	if tok.RefreshToken != "" {
		s.refreshToken = tok.RefreshToken
	}
}

func (s *CredentialService) persistGrant(ctx context.Context, refreshToken string) {
	payload, err := json.Marshal(storedGrant{RefreshToken: refreshToken, GrantedAt: s.now().UTC()})
	if err != nil {
		s.logger.Error("failed to encode grant", zap.Error(err))
		return
	}
	if err := s.store.Set(ctx, CredentialKeyGrant, payload); err != nil {
		s.logger.Warn("failed to persist grant", zap.Error(err))
	}
}

func (s *CredentialService) dropGrant() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.store.Delete(ctx, CredentialKeyGrant); err != nil {
		s.logger.Warn("failed to drop revoked grant", zap.Error(err))
	}
	s.notify()
}

func (s *CredentialService) loadGrant(ctx context.Context) (string, error) {
	raw, err := s.store.Get(ctx, CredentialKeyGrant)
	if err != nil {
		if errors.Is(err, appErrors.ErrMirrorMiss) {
			return "", nil
		}
		return "", fmt.Errorf("load grant: %w", err)
	}
	var grant storedGrant
	if err := json.Unmarshal(raw, &grant); err != nil {
		s.logger.Warn("ignoring unreadable grant", zap.Error(err))
		return "", nil
	}
	return grant.RefreshToken, nil
}

func (s *CredentialService) loadSignedOut(ctx context.Context) (bool, error) {
	raw, err := s.store.Get(ctx, CredentialKeySignedOut)
	if err != nil {
		if errors.Is(err, appErrors.ErrMirrorMiss) {
			return false, nil
		}
		return false, fmt.Errorf("load signed-out flag: %w", err)
	}
	var flag bool
	if err := json.Unmarshal(raw, &flag); err != nil {
		return false, nil
	}
	return flag, nil
}

func (s *CredentialService) notify() {
	status := s.Status()
	s.lmu.RLock()
	listeners := append(([]func(models.AuthStatus))(nil), s.listeners...)
	s.lmu.RUnlock()
	for _, fn := range listeners {
		fn(status)
	}
}
