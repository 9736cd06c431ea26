package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/dtroode/authflow/internal/apierror"
	"github.com/dtroode/authflow/internal/logger"
	"github.com/dtroode/authflow/internal/model"
	"github.com/dtroode/authflow/internal/token"
)

// ErrAlreadyAuthenticated is returned by Login while a session is active.
var ErrAlreadyAuthenticated = errors.New("already authenticated")

// Manager owns the current State. Transitions run one at a time; persistence
// is best effort and never fails a transition.
type Manager struct {
	client   model.AuthClient
	durable  model.KeyValueStore
	volatile model.KeyValueStore
	logger   *logger.Logger
	now      func() time.Time

	// op serializes transitions; mu guards state and subscribers.
	op          sync.Mutex
	mu          sync.RWMutex
	state       State
	subscribers map[int]func(State)
	nextSub     int
}

// NewManager returns a manager in the Anonymous state. Call Restore to pick
// up a persisted session.
func NewManager(client model.AuthClient, durable, volatile model.KeyValueStore, logger *logger.Logger) *Manager {
	return &Manager{
		client:      client,
		durable:     durable,
		volatile:    volatile,
		logger:      logger,
		now:         time.Now,
		state:       Anonymous{},
		subscribers: make(map[int]func(State)),
	}
}

// State returns the current state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Subscribe registers fn to be called after every state change.
func (m *Manager) Subscribe(fn func(State)) (unsubscribe func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextSub
	m.nextSub++
	m.subscribers[id] = fn

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subscribers, id)
	}
}

// Restore rebuilds the state from storage. A durable token with a readable
// user record wins; otherwise a volatile temporary token; otherwise Anonymous.
// Unreadable entries are removed.
func (m *Manager) Restore(ctx context.Context) State {
	m.op.Lock()
	defer m.op.Unlock()

	next := m.restore(ctx)
	m.set(next)
	return next
}

func (m *Manager) restore(ctx context.Context) State {
	authToken, err := m.durable.Get(ctx, KeyAuthToken)
	switch {
	case err == nil && authToken != "":
		user, userErr := m.loadUser(ctx)
		if userErr != nil {
			m.logger.Info("Session manager: dropping session with unreadable user",
				"error", userErr.Error())
			m.clearDurable(ctx)
			return Anonymous{}
		}
		m.remove(ctx, m.volatile, KeyTempToken)
		m.logger.Debug("Session manager: restored authenticated session",
			"user_id", user.ID)
		return Authenticated{User: user, Token: authToken}
	case err != nil && !errors.Is(err, model.ErrNotFound):
		m.logger.Error("Session manager: failed to read auth token",
			"error", err.Error())
	}

	// A user record without a token is an orphan.
	m.remove(ctx, m.durable, KeyUser)

	tempToken, err := m.volatile.Get(ctx, KeyTempToken)
	if err != nil {
		if !errors.Is(err, model.ErrNotFound) {
			m.logger.Error("Session manager: failed to read temp token",
				"error", err.Error())
		}
		return Anonymous{}
	}

	issuedAt, err := token.PeekIssuedAt(tempToken)
	if err != nil {
		m.logger.Info("Session manager: dropping malformed temp token",
			"error", err.Error())
		m.remove(ctx, m.volatile, KeyTempToken)
		return Anonymous{}
	}

	m.logger.Debug("Session manager: restored pending second factor")
	return PendingTwoFactor{TempToken: tempToken, IssuedAt: issuedAt}
}

func (m *Manager) loadUser(ctx context.Context) (model.User, error) {
	blob, err := m.durable.Get(ctx, KeyUser)
	if err != nil {
		return model.User{}, err
	}

	var user model.User
	if err := json.Unmarshal([]byte(blob), &user); err != nil {
		return model.User{}, err
	}
	if user.ID == uuid.Nil {
		return model.User{}, errors.New("user record has no id")
	}
	return user, nil
}

// Login submits credentials. On success the state becomes PendingTwoFactor
// or Authenticated; on failure it is unchanged.
func (m *Manager) Login(ctx context.Context, creds model.Credentials) (State, error) {
	m.op.Lock()
	defer m.op.Unlock()

	if _, ok := m.State().(Authenticated); ok {
		return m.State(), ErrAlreadyAuthenticated
	}

	res, err := m.client.Login(ctx, creds)
	if err != nil {
		return m.State(), apierror.From(err)
	}

	if res.RequiresTwoFactor {
		next := m.pending(ctx, res.TempToken)
		m.set(next)
		return next, nil
	}

	next := m.authenticated(ctx, res.User, res.Token)
	m.set(next)
	return next, nil
}

// VerifyTwoFactor redeems the pending temporary token with code. A failure
// that leaves the token unusable drops the session back to Anonymous.
func (m *Manager) VerifyTwoFactor(ctx context.Context, code string) (State, error) {
	m.op.Lock()
	defer m.op.Unlock()

	pending, ok := m.State().(PendingTwoFactor)
	if !ok {
		return m.State(), apierror.NewErrInvalidSession()
	}

	res, err := m.client.VerifyTwoFactor(ctx, pending.TempToken, model.TwoFactorCode{Code: code})
	if err != nil {
		apiErr := apierror.From(err)
		if challengeGone(apiErr) {
			next := m.anonymous(ctx)
			m.set(next)
			return next, apiErr
		}
		return m.State(), apiErr
	}

	next := m.authenticated(ctx, res.User, res.Token)
	m.set(next)
	return next, nil
}

// RequestNewCode asks for a fresh code for the pending challenge.
func (m *Manager) RequestNewCode(ctx context.Context) (model.CodeResent, error) {
	m.op.Lock()
	defer m.op.Unlock()

	pending, ok := m.State().(PendingTwoFactor)
	if !ok {
		return model.CodeResent{}, apierror.NewErrInvalidSession()
	}

	resent, err := m.client.RequestNewCode(ctx, pending.TempToken)
	if err != nil {
		apiErr := apierror.From(err)
		if challengeGone(apiErr) {
			m.set(m.anonymous(ctx))
		}
		return model.CodeResent{}, apiErr
	}
	return resent, nil
}

// Resolver confirms an auth token with the backend.
type Resolver interface {
	Authenticate(ctx context.Context, authToken string) (model.User, error)
}

// Revalidate asks the backend whether the stored auth token is still good.
// A rejected token ends the session; a transport failure keeps it, since the
// backend may simply be unreachable. A confirmed session picks up the
// backend's current view of the user.
func (m *Manager) Revalidate(ctx context.Context, resolver Resolver) (State, error) {
	m.op.Lock()
	defer m.op.Unlock()

	auth, ok := m.State().(Authenticated)
	if !ok {
		return m.State(), nil
	}

	user, err := resolver.Authenticate(ctx, auth.Token)
	if err != nil {
		apiErr := apierror.From(err)
		if apiErr.Code != apierror.CodeInvalidCredentials {
			return auth, apiErr
		}
		m.logger.Info("Session manager: stored session rejected by backend")
		next := m.anonymous(ctx)
		m.set(next)
		return next, apiErr
	}

	next := m.authenticated(ctx, user, auth.Token)
	m.set(next)
	return next, nil
}

// Back abandons a pending second factor.
func (m *Manager) Back(ctx context.Context) State {
	m.op.Lock()
	defer m.op.Unlock()

	if _, ok := m.State().(PendingTwoFactor); !ok {
		return m.State()
	}

	next := m.anonymous(ctx)
	m.set(next)
	return next
}

// Logout forgets everything stored for the session and asks the backend to
// revoke the token. A failed revocation does not keep the session alive.
func (m *Manager) Logout(ctx context.Context) State {
	m.op.Lock()
	defer m.op.Unlock()

	if auth, ok := m.State().(Authenticated); ok {
		if err := m.client.Logout(ctx, auth.Token); err != nil {
			m.logger.Info("Session manager: server-side logout failed",
				"error", err.Error())
		}
	}

	next := m.anonymous(ctx)
	m.set(next)
	return next
}

func (m *Manager) authenticated(ctx context.Context, user model.User, authToken string) State {
	blob, err := json.Marshal(user)
	if err != nil {
		m.logger.Error("Session manager: failed to encode user",
			"error", err.Error())
	} else {
		m.store(ctx, m.durable, KeyAuthToken, authToken)
		m.store(ctx, m.durable, KeyUser, string(blob))
	}
	m.remove(ctx, m.volatile, KeyTempToken)

	m.logger.Info("Session manager: authenticated",
		"user_id", user.ID)
	return Authenticated{User: user, Token: authToken}
}

func (m *Manager) pending(ctx context.Context, tempToken string) State {
	issuedAt, err := token.PeekIssuedAt(tempToken)
	if err != nil {
		issuedAt = m.now()
	}

	m.clearDurable(ctx)
	m.store(ctx, m.volatile, KeyTempToken, tempToken)

	m.logger.Info("Session manager: waiting for second factor")
	return PendingTwoFactor{TempToken: tempToken, IssuedAt: issuedAt}
}

func (m *Manager) anonymous(ctx context.Context) State {
	m.clearDurable(ctx)
	m.remove(ctx, m.volatile, KeyTempToken)
	return Anonymous{}
}

func (m *Manager) clearDurable(ctx context.Context) {
	m.remove(ctx, m.durable, KeyAuthToken)
	m.remove(ctx, m.durable, KeyUser)
}

func (m *Manager) store(ctx context.Context, kv model.KeyValueStore, key, value string) {
	if err := kv.Set(ctx, key, value); err != nil {
		m.logger.Error("Session manager: failed to persist",
			"key", key,
			"error", err.Error())
	}
}

func (m *Manager) remove(ctx context.Context, kv model.KeyValueStore, key string) {
	if err := kv.Delete(ctx, key); err != nil {
		m.logger.Error("Session manager: failed to delete",
			"key", key,
			"error", err.Error())
	}
}

func (m *Manager) set(next State) {
	m.mu.Lock()
	m.state = next
	subs := make([]func(State), 0, len(m.subscribers))
	for _, fn := range m.subscribers {
		subs = append(subs, fn)
	}
	m.mu.Unlock()

	for _, fn := range subs {
		fn(next)
	}
}

// challengeGone reports failures after which the temporary token can never
// succeed: an unusable session or a burned challenge.
func challengeGone(err *apierror.APIError) bool {
	switch err.Code {
	case apierror.CodeTooManyAttempts:
		return true
	case apierror.CodeInvalid2FACode:
		return err.Field == ""
	}
	return false
}
