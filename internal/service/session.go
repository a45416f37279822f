package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	domainauth "github.com/foliohq/folio-auth/internal/domain/auth"
	apperrors "github.com/foliohq/folio-auth/internal/errors"
	"github.com/foliohq/folio-auth/internal/ports"
)

// DefaultCallTimeout bounds every remote auth call so bootstrap, login and
// logout cannot hang on a stalled transport.
const DefaultCallTimeout = 10 * time.Second

// SessionManagerOptions groups dependencies for SessionManager.
type SessionManagerOptions struct {
	API ports.AuthAPI

	// Primary is the durable credential tier. Session is an optional
	// second, session-scoped tier mirrored on writes and purged in
	// lockstep on logout.
	Primary ports.CredentialStore
	Session ports.CredentialStore

	Notifier ports.Notifier
	Logger   *slog.Logger

	// Timeout applies per remote call; zero means DefaultCallTimeout.
	Timeout time.Duration
}

// SessionManager owns the authentication lifecycle: it is the sole writer of
// session state and the sole legitimate writer of the credential stores.
// Mutating operations are serialized; later callers queue rather than fail.
type SessionManager struct {
	api      ports.AuthAPI
	primary  ports.CredentialStore
	session  ports.CredentialStore
	notifier ports.Notifier
	logger   *slog.Logger
	timeout  time.Duration

	// opMu is the single-flight guard around session-mutating operations.
	opMu sync.Mutex

	bootstrapOnce sync.Once
	refreshGroup  singleflight.Group

	// background tracks the fire-and-forget server logout call.
	background sync.WaitGroup

	stateMu   sync.RWMutex
	state     domainauth.Snapshot
	subs      map[int]func(domainauth.Snapshot)
	nextSubID int
}

// Result is the outcome of login, signup and profile updates.
type Result struct {
	Success      bool
	User         *domainauth.User
	ErrorMessage string
}

// RefreshResult is the outcome of an explicit token refresh.
type RefreshResult struct {
	Success      bool
	ErrorMessage string
}

// LogoutResult always reports success; Message describes how logout resolved.
type LogoutResult struct {
	Success bool
	Message string
}

// SignupInput carries raw signup fields. Name is split into first/last
// components at the first whitespace boundary before it reaches the API.
type SignupInput struct {
	Name     string
	Email    string
	Password string
}

// NewSessionManager constructs a SessionManager.
func NewSessionManager(opts SessionManagerOptions) (*SessionManager, error) {
	if opts.API == nil {
		return nil, errors.New("session manager: API is required")
	}
	if opts.Primary == nil {
		return nil, errors.New("session manager: primary credential store is required")
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = ports.NotifierFunc(nil)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	return &SessionManager{
		api:      opts.API,
		primary:  opts.Primary,
		session:  opts.Session,
		notifier: notifier,
		logger:   logger,
		timeout:  timeout,
		subs:     make(map[int]func(domainauth.Snapshot)),
	}, nil
}

// Snapshot returns a copy of the current session state.
func (m *SessionManager) Snapshot() domainauth.Snapshot {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.state
}

// Subscribe registers fn to receive every subsequent state change, starting
// with the current snapshot. The returned cancel func unregisters it.
func (m *SessionManager) Subscribe(fn func(domainauth.Snapshot)) (cancel func()) {
	m.stateMu.Lock()
	id := m.nextSubID
	m.nextSubID++
	m.subs[id] = fn
	current := m.state
	m.stateMu.Unlock()

	fn(current)
	return func() {
		m.stateMu.Lock()
		delete(m.subs, id)
		m.stateMu.Unlock()
	}
}

// Bootstrap resolves the session exactly once per process lifetime: validate
// any stored access token against the server, refreshing at most once, and
// settle on authenticated or anonymous. It never fails; every error path
// resolves to anonymous with LastError set. Later calls return the settled
// snapshot.
func (m *SessionManager) Bootstrap(ctx context.Context) domainauth.Snapshot {
	m.bootstrapOnce.Do(func() {
		m.opMu.Lock()
		defer m.opMu.Unlock()
		m.runBootstrap(ctx)
	})
	return m.Snapshot()
}

func (m *SessionManager) runBootstrap(ctx context.Context) {
	m.setState(func(s *domainauth.Snapshot) {
		s.Loading = true
		s.LastError = ""
	})
	defer m.setState(func(s *domainauth.Snapshot) { s.Loading = false })

	accessToken, err := m.readToken(ctx, ports.KeyAccessToken)
	if errors.Is(err, ports.ErrNotFound) {
		// No stored token: anonymous, zero network calls.
		m.setState(func(s *domainauth.Snapshot) { s.User = nil })
		return
	}
	if err != nil {
		// The store itself failed; anonymous, but the failure must surface.
		m.logger.ErrorContext(ctx, "bootstrap credential read failed", "error", err)
		m.setState(func(s *domainauth.Snapshot) {
			s.User = nil
			s.LastError = apperrors.UserMessage(err, apperrors.MsgServerError)
		})
		return
	}

	user, err := m.fetchProfile(ctx, accessToken)
	if err != nil && apperrors.IsAuthDenied(err) {
		// Exactly one refresh cycle, then one retried fetch.
		var newToken string
		if newToken, err = m.refreshCycle(ctx); err == nil {
			user, err = m.fetchProfile(ctx, newToken)
		}
	}
	if err != nil {
		m.logger.WarnContext(ctx, "bootstrap resolved anonymous",
			"error", err, "code", apperrors.CodeOf(err))
		m.purgeTokens(ctx)
		m.setState(func(s *domainauth.Snapshot) {
			s.User = nil
			s.LastError = apperrors.UserMessage(err, apperrors.MsgSessionExpired)
		})
		return
	}

	m.setState(func(s *domainauth.Snapshot) { s.User = user })
	m.logger.InfoContext(ctx, "bootstrap resolved authenticated", "user_id", user.ID)
}

// Login authenticates with the remote service and persists the issued token
// pair. A failed login never mutates an existing session; only LastError
// changes.
func (m *SessionManager) Login(ctx context.Context, in ports.LoginInput) (res Result) {
	m.opMu.Lock()
	defer m.opMu.Unlock()
	defer m.containPanic(ctx, apperrors.OpLogin, &res)

	m.beginOperation()
	defer m.endOperation()

	callCtx, cancel := m.callContext(ctx)
	grant, err := m.api.Login(callCtx, in)
	cancel()
	if err != nil {
		return m.fail(ctx, apperrors.OpLogin, err)
	}

	if err := m.storeGrant(ctx, grant); err != nil {
		m.logger.ErrorContext(ctx, "persist credentials failed", "error", err)
		return m.fail(ctx, apperrors.OpLogin, err)
	}

	m.setState(func(s *domainauth.Snapshot) { s.User = grant.User })
	m.logger.InfoContext(ctx, "login succeeded", "user_id", grant.User.ID)
	return Result{Success: true, User: grant.User}
}

// Signup registers a new account. The issued session carries an access token
// only; the server does not grant a refresh token on registration.
func (m *SessionManager) Signup(ctx context.Context, in SignupInput) (res Result) {
	m.opMu.Lock()
	defer m.opMu.Unlock()
	defer m.containPanic(ctx, apperrors.OpSignup, &res)

	m.beginOperation()
	defer m.endOperation()

	first, last := domainauth.SplitDisplayName(in.Name)
	callCtx, cancel := m.callContext(ctx)
	grant, err := m.api.Register(callCtx, ports.RegisterInput{
		Email:     in.Email,
		Password:  in.Password,
		FirstName: first,
		LastName:  last,
	})
	cancel()
	if err != nil {
		return m.fail(ctx, apperrors.OpSignup, err)
	}

	if err := m.storeGrant(ctx, grant); err != nil {
		m.logger.ErrorContext(ctx, "persist credentials failed", "error", err)
		return m.fail(ctx, apperrors.OpSignup, err)
	}

	m.setState(func(s *domainauth.Snapshot) { s.User = grant.User })
	m.logger.InfoContext(ctx, "signup succeeded", "user_id", grant.User.ID)
	return Result{Success: true, User: grant.User}
}

// Refresh mints a new access token from the stored refresh token. Concurrent
// callers collapse into a single in-flight refresh. A rejected refresh is a
// hard invalidation: both tiers are purged, the user is cleared, and a
// session-expired notification fires exactly once.
func (m *SessionManager) Refresh(ctx context.Context) RefreshResult {
	v, _, _ := m.refreshGroup.Do("refresh", func() (any, error) {
		m.opMu.Lock()
		defer m.opMu.Unlock()
		return m.runRefresh(ctx), nil
	})
	return v.(RefreshResult)
}

func (m *SessionManager) runRefresh(ctx context.Context) (res RefreshResult) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.ErrorContext(ctx, "panic during refresh", "panic", r)
			res = RefreshResult{ErrorMessage: apperrors.DefaultMessage(apperrors.OpRefresh)}
		}
	}()

	m.beginOperation()
	defer m.endOperation()

	if _, err := m.readToken(ctx, ports.KeyRefreshToken); err != nil {
		// No refresh token: immediate failure, no network call.
		msg := apperrors.MsgSessionExpired
		m.setState(func(s *domainauth.Snapshot) { s.LastError = msg })
		return RefreshResult{ErrorMessage: msg}
	}

	if _, err := m.refreshCycle(ctx); err != nil {
		m.logger.WarnContext(ctx, "refresh rejected, invalidating session",
			"error", err, "code", apperrors.CodeOf(err))
		m.purgeTokens(ctx)
		m.setState(func(s *domainauth.Snapshot) {
			s.User = nil
			s.LastError = apperrors.MsgSessionExpired
		})
		m.notifier.Error(ctx, apperrors.MsgSessionExpired)
		return RefreshResult{ErrorMessage: apperrors.MsgSessionExpired}
	}
	return RefreshResult{Success: true}
}

// refreshCycle performs one network refresh and persists the new access
// token. The refresh token itself is not rotated; the server never reissues
// it. Invalidation policy belongs to the caller.
func (m *SessionManager) refreshCycle(ctx context.Context) (string, error) {
	refreshToken, err := m.readToken(ctx, ports.KeyRefreshToken)
	if err != nil {
		return "", apperrors.TokenExpired(apperrors.MsgSessionExpired)
	}

	callCtx, cancel := m.callContext(ctx)
	defer cancel()
	accessToken, err := m.api.RefreshToken(callCtx, refreshToken)
	if err != nil {
		return "", err
	}
	if err := m.writeToken(ctx, ports.KeyAccessToken, accessToken); err != nil {
		return "", err
	}
	return accessToken, nil
}

// Logout tears the session down. It always reports success: the local purge
// is the operation's real contract, and the server call is a best-effort
// courtesy whose outcome only drives notifications and logs.
func (m *SessionManager) Logout(ctx context.Context) (res LogoutResult) {
	m.opMu.Lock()
	defer m.opMu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			m.logger.ErrorContext(ctx, "panic during logout, forcing local logout", "panic", r)
			m.ForceLogout()
			m.notifier.Success(ctx, "You have been logged out on this device.")
			res = LogoutResult{Success: true, Message: "logged out locally"}
		}
	}()

	// Grab the access token for the server call before it is purged.
	accessToken, tokenErr := m.readToken(ctx, ports.KeyAccessToken)

	// The local purge is deliberately non-cancellable.
	purgeCtx := context.WithoutCancel(ctx)
	if err := m.clearStores(purgeCtx); err != nil {
		m.logger.ErrorContext(ctx, "credential purge failed, forcing local logout", "error", err)
		m.ForceLogout()
		m.notifier.Success(ctx, "You have been logged out on this device.")
		return LogoutResult{Success: true, Message: "logged out locally"}
	}

	// The client is logged out from this instant, whatever the server says.
	m.setState(func(s *domainauth.Snapshot) {
		s.User = nil
		s.LastError = ""
	})

	// Single try, no retry, and the caller does not wait on it: the server
	// call is dispatched in the background and only drives notifications.
	if tokenErr == nil {
		serverCtx := context.WithoutCancel(ctx)
		m.background.Add(1)
		go func() {
			defer m.background.Done()
			defer func() {
				if r := recover(); r != nil {
					m.logger.Error("panic during server-side logout", "panic", r)
				}
			}()
			callCtx, cancel := m.callContext(serverCtx)
			defer cancel()
			if err := m.api.Logout(callCtx, accessToken); err != nil {
				m.logger.WarnContext(serverCtx, "server-side logout failed", "error", err)
			} else {
				m.notifier.Success(serverCtx, "You have been logged out.")
			}
		}()
	}
	return LogoutResult{Success: true, Message: "logged out"}
}

// Wait blocks until any in-flight background work dispatched by Logout has
// finished. Call before process exit so the server-side revocation gets its
// chance to land.
func (m *SessionManager) Wait() {
	m.background.Wait()
}

// ForceLogout synchronously purges every credential key in both tiers and
// resets session state. No network call is made; errors are logged and
// swallowed. Safe to call repeatedly.
func (m *SessionManager) ForceLogout() {
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	if err := m.clearStores(ctx); err != nil {
		m.logger.Error("force logout: credential purge incomplete", "error", err)
	}
	m.setState(func(s *domainauth.Snapshot) {
		s.User = nil
		s.Loading = false
		s.LastError = ""
	})
}

// UpdateProfile applies sparse profile changes and publishes the refreshed
// user. Same loading and error discipline as login.
func (m *SessionManager) UpdateProfile(ctx context.Context, changes ports.ProfileUpdate) (res Result) {
	m.opMu.Lock()
	defer m.opMu.Unlock()
	defer m.containPanic(ctx, apperrors.OpUpdate, &res)

	m.beginOperation()
	defer m.endOperation()

	accessToken, err := m.readToken(ctx, ports.KeyAccessToken)
	if err != nil {
		return m.fail(ctx, apperrors.OpUpdate, apperrors.TokenExpired(apperrors.MsgSessionExpired))
	}

	callCtx, cancel := m.callContext(ctx)
	user, err := m.api.UpdateProfile(callCtx, accessToken, changes)
	cancel()
	if err != nil {
		return m.fail(ctx, apperrors.OpUpdate, err)
	}

	m.setState(func(s *domainauth.Snapshot) { s.User = user })
	return Result{Success: true, User: user}
}

// --- internals ---

func (m *SessionManager) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, m.timeout)
}

func (m *SessionManager) fetchProfile(ctx context.Context, accessToken string) (*domainauth.User, error) {
	callCtx, cancel := m.callContext(ctx)
	defer cancel()
	return m.api.GetProfile(callCtx, accessToken)
}

// beginOperation marks an operation in flight and clears the previous error.
func (m *SessionManager) beginOperation() {
	m.setState(func(s *domainauth.Snapshot) {
		s.Loading = true
		s.LastError = ""
	})
}

// endOperation releases the loading flag on every exit path.
func (m *SessionManager) endOperation() {
	m.setState(func(s *domainauth.Snapshot) { s.Loading = false })
}

// fail records the operation failure without touching user state.
func (m *SessionManager) fail(ctx context.Context, op apperrors.Operation, err error) Result {
	msg := apperrors.UserMessage(err, apperrors.DefaultMessage(op))
	m.logger.WarnContext(ctx, "auth operation failed",
		"operation", string(op), "error_type", apperrors.Classify(err), "error", err)
	m.setState(func(s *domainauth.Snapshot) { s.LastError = msg })
	return Result{ErrorMessage: msg}
}

// containPanic converts a panic into a generic failure result, keeping the
// contract that public operations never propagate faults.
func (m *SessionManager) containPanic(ctx context.Context, op apperrors.Operation, res *Result) {
	if r := recover(); r != nil {
		m.logger.ErrorContext(ctx, "panic during auth operation",
			"operation", string(op), "panic", r)
		msg := apperrors.DefaultMessage(op)
		m.setState(func(s *domainauth.Snapshot) {
			s.Loading = false
			s.LastError = msg
		})
		*res = Result{ErrorMessage: msg}
	}
}

// storeGrant writes the issued tokens to both tiers. Both tokens are written
// together; a partial write is rolled back so one token never lingers alone.
func (m *SessionManager) storeGrant(ctx context.Context, grant *ports.AuthGrant) error {
	if err := m.writeToken(ctx, ports.KeyAccessToken, grant.AccessToken); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, apperrors.MsgServerError)
	}
	if grant.RefreshToken == "" {
		return nil
	}
	if err := m.writeToken(ctx, ports.KeyRefreshToken, grant.RefreshToken); err != nil {
		m.purgeTokens(ctx)
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, apperrors.MsgServerError)
	}
	return nil
}

// readToken reads from the primary tier, falling back to the session tier.
func (m *SessionManager) readToken(ctx context.Context, key string) (string, error) {
	v, err := m.primary.Get(ctx, key)
	if err == nil {
		return v, nil
	}
	if m.session != nil && errors.Is(err, ports.ErrNotFound) {
		return m.session.Get(ctx, key)
	}
	return "", err
}

// writeToken mirrors the write into the session tier when one is configured.
func (m *SessionManager) writeToken(ctx context.Context, key, value string) error {
	if err := m.primary.Set(ctx, key, value); err != nil {
		return err
	}
	if m.session != nil {
		if err := m.session.Set(ctx, key, value); err != nil {
			return err
		}
	}
	return nil
}

// purgeTokens removes the token pair from both tiers, best effort.
func (m *SessionManager) purgeTokens(ctx context.Context) {
	for _, key := range []string{ports.KeyAccessToken, ports.KeyRefreshToken} {
		if err := m.primary.Delete(ctx, key); err != nil && !errors.Is(err, ports.ErrNotFound) {
			m.logger.ErrorContext(ctx, "token purge failed", "key", key, "error", err)
		}
		if m.session != nil {
			if err := m.session.Delete(ctx, key); err != nil && !errors.Is(err, ports.ErrNotFound) {
				m.logger.ErrorContext(ctx, "token purge failed", "key", key, "error", err)
			}
		}
	}
}

// clearStores purges every credential key, legacy aliases included, from
// both tiers.
func (m *SessionManager) clearStores(ctx context.Context) error {
	err := m.primary.Clear(ctx)
	if m.session != nil {
		err = errors.Join(err, m.session.Clear(ctx))
	}
	return err
}

// setState applies fn to a copy of the state, derives LoggedIn, and fans the
// new snapshot out to subscribers outside the lock.
func (m *SessionManager) setState(fn func(*domainauth.Snapshot)) {
	m.stateMu.Lock()
	next := m.state
	fn(&next)
	next.LoggedIn = next.User != nil
	m.state = next
	subs := make([]func(domainauth.Snapshot), 0, len(m.subs))
	for _, sub := range m.subs {
		subs = append(subs, sub)
	}
	m.stateMu.Unlock()

	for _, sub := range subs {
		sub(next)
	}
}
