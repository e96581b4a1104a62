// Package connection owns the platform connection lifecycle: requesting
// health-store authorization, registering the server connection, wiring the
// data-change observer, and tracking the visible connection state.
package connection

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/vitalbridge/vitalbridge/internal/api"
	"github.com/vitalbridge/vitalbridge/internal/catalog"
	"github.com/vitalbridge/vitalbridge/internal/healthstore"
	"github.com/vitalbridge/vitalbridge/internal/state"
)

// State is the observable connection state.
type State int

const (
	// StateNotConnected means no active platform connection.
	StateNotConnected State = iota
	// StateSyncing means a connection attempt or sync is in progress.
	StateSyncing
	// StateConnected means the platform is connected and observing.
	StateConnected
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateNotConnected:
		return "not_connected"
	case StateSyncing:
		return "syncing"
	case StateConnected:
		return "connected"
	default:
		return "unknown"
	}
}

var (
	// ErrPermissionDenied is returned when the user declines health data
	// read access.
	ErrPermissionDenied = errors.New("health data read permission denied")

	// ErrUnavailable is returned when the host has no readable health
	// store.
	ErrUnavailable = errors.New("health store not available")
)

// Syncer runs sync operations on behalf of the manager.
type Syncer interface {
	Sync(ctx context.Context) error
	TrySync(ctx context.Context) (bool, error)
}

// Config holds the manager's collaborators and identity.
type Config struct {
	API    *api.Client
	Health healthstore.Store
	State  *state.Store
	Syncer Syncer

	// APIKey and UserUUID are the server credentials persisted on a
	// successful connect.
	APIKey   string
	UserUUID string

	// ReadKeys are the data types read authorization is requested for.
	ReadKeys []catalog.Key
	// TriggerKey is the observed data type whose changes trigger syncs.
	TriggerKey catalog.Key

	// Logger for lifecycle events. If nil, a default logger writing to
	// stderr is used.
	Logger *log.Logger
}

// Manager drives connect, disconnect, and observer-triggered syncs.
type Manager struct {
	api         *api.Client
	health      healthstore.Store
	state       *state.Store
	syncer      Syncer
	apiKey      string
	userUUID    string
	readTypes   []catalog.PlatformType
	triggerType catalog.PlatformType
	logger      *log.Logger

	// ctx scopes observer-triggered syncs; Close cancels it.
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	current State
	reg     *healthstore.Registration
	subs    map[int]chan State
	nextSub int
}

// NewManager creates a Manager from cfg.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.API == nil {
		return nil, fmt.Errorf("api client cannot be nil")
	}
	if cfg.Health == nil {
		return nil, fmt.Errorf("health store cannot be nil")
	}
	if cfg.State == nil {
		return nil, fmt.Errorf("state store cannot be nil")
	}
	if cfg.Syncer == nil {
		return nil, fmt.Errorf("syncer cannot be nil")
	}
	if len(cfg.ReadKeys) == 0 {
		return nil, fmt.Errorf("at least one read key is required")
	}
	trigger, err := catalog.Lookup(cfg.TriggerKey)
	if err != nil {
		return nil, fmt.Errorf("invalid trigger key: %w", err)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "[connection] ", log.LstdFlags)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		api:         cfg.API,
		health:      cfg.Health,
		state:       cfg.State,
		syncer:      cfg.Syncer,
		apiKey:      cfg.APIKey,
		userUUID:    cfg.UserUUID,
		readTypes:   catalog.ReadTypes(cfg.ReadKeys),
		triggerType: trigger.PlatformType,
		logger:      logger,
		ctx:         ctx,
		cancel:      cancel,
		current:     StateNotConnected,
		subs:        make(map[int]chan State),
	}, nil
}

// Close cancels the manager's trigger context so in-flight
// observer-triggered syncs observe cancellation during shutdown. The
// observer registration itself is left to the health store's Close.
func (m *Manager) Close() {
	m.cancel()
}

// Current returns the current connection state.
func (m *Manager) Current() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Subscribe returns a channel receiving state changes and a cancel
// function. Sends are non-blocking; a slow subscriber misses intermediate
// states, never blocks the manager.
func (m *Manager) Subscribe() (<-chan State, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextSub
	m.nextSub++
	ch := make(chan State, 4)
	m.subs[id] = ch

	return ch, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs, id)
	}
}

// Connect establishes the platform connection: request read authorization,
// register the connection with the server, persist credentials, start the
// data-change observer, and run the first sync. A denied permission or a
// failed server call leaves the manager not connected.
func (m *Manager) Connect(ctx context.Context, opts api.ConnectOptions) error {
	if !m.health.Available() {
		return ErrUnavailable
	}

	granted, err := m.health.RequestAuthorization(ctx, m.readTypes)
	if err != nil {
		m.setState(StateNotConnected)
		return fmt.Errorf("authorization request failed: %w", err)
	}
	if !granted {
		m.setState(StateNotConnected)
		return ErrPermissionDenied
	}

	m.setState(StateSyncing)

	if _, err := m.api.Connect(ctx, opts); err != nil {
		m.setState(StateNotConnected)
		return fmt.Errorf("server connect failed: %w", err)
	}
	if err := m.state.MarkConnected(m.apiKey, m.userUUID); err != nil {
		m.setState(StateNotConnected)
		return fmt.Errorf("failed to persist connection: %w", err)
	}

	if err := m.startObserving(); err != nil {
		// The connection stands; data flows on the next explicit sync
		// even without change triggers.
		m.logger.Printf("WARNING: failed to start observing: %v", err)
	}

	if err := m.syncer.Sync(ctx); err != nil {
		m.setState(StateNotConnected)
		return fmt.Errorf("initial sync failed: %w", err)
	}

	m.setState(StateConnected)
	m.logger.Println("Platform connected")
	return nil
}

// Disconnect tears the connection down: notify the server, stop the
// observer, and clear persisted credentials. A failed server call leaves
// the connection fully intact so the user can retry.
func (m *Manager) Disconnect(ctx context.Context) error {
	if _, err := m.api.Disconnect(ctx); err != nil {
		return fmt.Errorf("server disconnect failed: %w", err)
	}

	m.stopObserving()

	if err := m.state.MarkDisconnected(); err != nil {
		return fmt.Errorf("failed to persist disconnection: %w", err)
	}

	m.setState(StateNotConnected)
	m.logger.Println("Platform disconnected")
	return nil
}

// Refresh reconciles the local state with the server's view of the
// connection. An unreachable server or a malformed response falls back to
// the persisted flag; a definite server answer wins over it.
func (m *Manager) Refresh(ctx context.Context) (State, error) {
	persisted, err := m.state.Load()
	if err != nil {
		return StateNotConnected, fmt.Errorf("failed to load sync state: %w", err)
	}

	conn, err := m.api.CheckConnection(ctx)
	switch {
	case errors.Is(err, api.ErrNotFound):
		// The server has no record for this user; the local flag is
		// stale.
		if persisted.Connected {
			m.logger.Println("Server reports no connection, clearing local state")
			if err := m.state.MarkDisconnected(); err != nil {
				return StateNotConnected, fmt.Errorf("failed to persist disconnection: %w", err)
			}
		}
		m.setState(StateNotConnected)
		return StateNotConnected, nil

	case err != nil:
		m.logger.Printf("WARNING: connection check failed, trusting local state: %v", err)
		st := StateNotConnected
		if persisted.Connected {
			st = StateConnected
		}
		m.setState(st)
		return st, nil
	}

	st := StateNotConnected
	if conn.IsConnected(api.PlatformAppleHealthKit) {
		st = StateConnected
		if !persisted.Connected {
			if err := m.state.MarkConnected(m.apiKey, m.userUUID); err != nil {
				return StateNotConnected, fmt.Errorf("failed to persist connection: %w", err)
			}
		}
	} else if persisted.Connected {
		m.logger.Println("Server reports platform logged out, clearing local state")
		if err := m.state.MarkDisconnected(); err != nil {
			return StateNotConnected, fmt.Errorf("failed to persist disconnection: %w", err)
		}
	}
	m.setState(st)
	return st, nil
}

// Resume restores the observer after a process restart when the persisted
// state says the platform is connected. It does not talk to the server;
// use Refresh for reconciliation.
func (m *Manager) Resume(ctx context.Context) error {
	persisted, err := m.state.Load()
	if err != nil {
		return fmt.Errorf("failed to load sync state: %w", err)
	}
	if !persisted.Connected {
		return nil
	}

	if err := m.startObserving(); err != nil {
		return fmt.Errorf("failed to resume observing: %w", err)
	}
	m.setState(StateConnected)
	m.logger.Println("Resumed connected session")
	return nil
}

// startObserving registers the data-change observer and asks for
// background delivery. Registration is idempotent; resuming over an
// existing registration is a no-op.
func (m *Manager) startObserving() error {
	reg, err := m.health.RegisterObserver(m.triggerType, m.onTrigger)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.reg = &reg
	m.mu.Unlock()

	// Best effort: some hosts reject background delivery but still
	// deliver foreground triggers.
	if err := m.health.EnableBackgroundDelivery(m.triggerType, healthstore.FrequencyImmediate); err != nil {
		m.logger.Printf("WARNING: background delivery unavailable: %v", err)
	}
	return nil
}

// stopObserving removes the observer registration, if any.
func (m *Manager) stopObserving() {
	m.mu.Lock()
	reg := m.reg
	m.reg = nil
	m.mu.Unlock()

	if reg == nil {
		return
	}
	if err := m.health.Unregister(*reg); err != nil {
		m.logger.Printf("WARNING: failed to unregister observer: %v", err)
	}
}

// onTrigger handles a data-change notification from the health store.
func (m *Manager) onTrigger() {
	go m.handleTrigger(m.ctx)
}

func (m *Manager) handleTrigger(ctx context.Context) {
	if !m.transition(StateConnected, StateSyncing) {
		m.logger.Printf("Ignoring data change trigger in state %s", m.Current())
		return
	}
	defer m.transition(StateSyncing, StateConnected)

	if _, err := m.syncer.TrySync(ctx); err != nil {
		m.logger.Printf("WARNING: triggered sync failed: %v", err)
	}
}

// setState updates the current state and notifies subscribers.
func (m *Manager) setState(st State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setStateLocked(st)
}

// transition moves from one expected state to another atomically,
// reporting whether the move happened.
func (m *Manager) transition(from, to State) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != from {
		return false
	}
	m.setStateLocked(to)
	return true
}

func (m *Manager) setStateLocked(st State) {
	if m.current == st {
		return
	}
	m.current = st
	for _, ch := range m.subs {
		select {
		case ch <- st:
		default:
		}
	}
}
