package database

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/singleflight"

	"github.com/trackadmission/go-services/pkg/logger"
	"github.com/trackadmission/go-services/pkg/metrics"
)

// Conn is a live database handle owned by the Manager.
type Conn interface {
	Ping(ctx context.Context) error
	Disconnect(ctx context.Context) error
	Database(name string) *mongo.Database
}

// Dialer establishes a new Conn. MongoDialer is the production implementation.
type Dialer interface {
	Dial(ctx context.Context) (Conn, error)
}

// Options tune retry and keep-alive behaviour. Zero values fall back to defaults.
type Options struct {
	MaxRetries     int           // total connect attempts per establishment
	BaseDelay      time.Duration // first backoff delay, doubled per attempt
	MaxDelay       time.Duration
	AttemptTimeout time.Duration // per-dial deadline
	PingInterval   time.Duration
	PingTimeout    time.Duration
	StalePingAfter time.Duration
}

func (o Options) withDefaults() Options {
	if o.MaxRetries < 1 {
		o.MaxRetries = 3
	}
	if o.BaseDelay <= 0 {
		o.BaseDelay = time.Second
	}
	if o.MaxDelay <= 0 {
		o.MaxDelay = 30 * time.Second
	}
	if o.AttemptTimeout <= 0 {
		o.AttemptTimeout = 30 * time.Second
	}
	if o.PingInterval <= 0 {
		o.PingInterval = 60 * time.Second
	}
	if o.PingTimeout <= 0 {
		o.PingTimeout = 5 * time.Second
	}
	if o.StalePingAfter <= 0 {
		o.StalePingAfter = 10 * time.Minute
	}
	return o
}

const establishKey = "establish"

// Manager owns the process-wide database handle. It connects lazily, coalesces
// concurrent connects into one attempt, keeps the handle alive with periodic
// pings and reconnects after drops. Build one in main and share it.
type Manager struct {
	dialer Dialer
	opts   Options

	ctx    context.Context
	cancel context.CancelFunc

	group singleflight.Group

	mu         sync.RWMutex
	conn       Conn
	connecting bool
	lastPing   time.Time
	closed     bool

	// set while a stale-handle check is in flight
	checking atomic.Bool

	keepAlive sync.Once
	pingDone  chan struct{}

	// timer drives backoff waits; nil uses real time
	timer backoff.Timer
	now   func() time.Time
}

func NewManager(dialer Dialer, opts Options) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		dialer:   dialer,
		opts:     opts.withDefaults(),
		ctx:      ctx,
		cancel:   cancel,
		pingDone: make(chan struct{}),
		now:      time.Now,
	}
}

// EnsureConnected returns the live handle, establishing one when needed.
// Callers arriving while an establishment is in flight wait for that attempt.
func (m *Manager) EnsureConnected(ctx context.Context) (Conn, error) {
	if c, stale := m.current(); c != nil {
		if stale && m.checking.CompareAndSwap(false, true) {
			go func() {
				defer m.checking.Store(false)
				m.ping()
			}()
		}
		return c, nil
	}
	if m.isClosed() {
		return nil, ErrClosed
	}

	ch := m.group.DoChan(establishKey, func() (interface{}, error) {
		if c, _ := m.current(); c != nil {
			return c, nil
		}
		return m.establish()
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(Conn), nil
	}
}

// WithConnection runs op against a live connection. When op fails because the
// connection was lost mid-flight, the state is reset and op runs exactly once
// more on a fresh connection. Other errors are returned unchanged.
func (m *Manager) WithConnection(ctx context.Context, op func(ctx context.Context, conn Conn) error) error {
	conn, err := m.EnsureConnected(ctx)
	if err != nil {
		return err
	}
	err = op(ctx, conn)
	if !IsConnectionLost(err) {
		return err
	}

	logger.Warnf("database connection lost during operation, reconnecting: %v", err)
	metrics.DBResets.WithLabelValues("operation").Inc()
	m.reset(conn)

	conn, err = m.EnsureConnected(ctx)
	if err != nil {
		return err
	}
	return op(ctx, conn)
}

// Ping checks the current handle without reconnecting. Used by readiness probes.
func (m *Manager) Ping(ctx context.Context) error {
	c, _ := m.current()
	if c == nil {
		return ErrNotConnected
	}
	if err := c.Ping(ctx); err != nil {
		return err
	}
	m.markPinged()
	return nil
}

// Connected reports whether a handle is currently held.
func (m *Manager) Connected() bool {
	c, _ := m.current()
	return c != nil
}

// Connecting reports whether an establishment attempt is running.
func (m *Manager) Connecting() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connecting
}

// LastPing returns the time of the last successful health check.
func (m *Manager) LastPing() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastPing
}

// Close stops the keep-alive loop and disconnects. Further calls fail with ErrClosed.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	conn := m.conn
	m.conn = nil
	m.mu.Unlock()

	m.cancel()
	// no loop was started: close the channel ourselves
	m.keepAlive.Do(func() { close(m.pingDone) })
	select {
	case <-m.pingDone:
	case <-ctx.Done():
	}

	if conn == nil {
		return nil
	}
	if err := conn.Disconnect(ctx); err != nil {
		logger.Errorf("error during database disconnect: %v", err)
		return err
	}
	logger.Infof("database disconnected through app termination")
	return nil
}

func (m *Manager) current() (Conn, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.conn == nil {
		return nil, false
	}
	return m.conn, m.now().Sub(m.lastPing) > m.opts.StalePingAfter
}

func (m *Manager) isClosed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.closed
}

func (m *Manager) markPinged() {
	m.mu.Lock()
	m.lastPing = m.now()
	m.mu.Unlock()
}

func (m *Manager) setConnecting(v bool) {
	m.mu.Lock()
	m.connecting = v
	m.mu.Unlock()
}

func (m *Manager) newBackOff() backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = m.opts.BaseDelay
	exp.RandomizationFactor = 0
	exp.Multiplier = 2
	exp.MaxInterval = m.opts.MaxDelay
	exp.MaxElapsedTime = 0
	exp.Reset()
	// WithMaxRetries counts retries, not attempts
	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(m.opts.MaxRetries-1)), m.ctx)
}

// establish dials with exponential backoff. It only runs inside the singleflight group.
func (m *Manager) establish() (Conn, error) {
	m.setConnecting(true)
	defer m.setConnecting(false)

	logger.Infof("creating new database connection")
	attempts := 0
	var conn Conn
	op := func() error {
		attempts++
		dctx, cancel := context.WithTimeout(m.ctx, m.opts.AttemptTimeout)
		defer cancel()
		c, err := m.dialer.Dial(dctx)
		if err != nil {
			metrics.DBConnectAttempts.WithLabelValues("error").Inc()
			return err
		}
		metrics.DBConnectAttempts.WithLabelValues("ok").Inc()
		conn = c
		return nil
	}
	notify := func(err error, wait time.Duration) {
		logger.Warnf("database connect attempt %d/%d failed: %v; retrying in %s", attempts, m.opts.MaxRetries, err, wait)
	}
	if err := backoff.RetryNotifyWithTimer(op, m.newBackOff(), notify, m.timer); err != nil {
		logger.Errorf("database connection failed after %d attempt(s): %v", attempts, err)
		return nil, &ConnectionError{Attempts: attempts, Err: err}
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		_ = conn.Disconnect(context.Background())
		return nil, ErrClosed
	}
	m.conn = conn
	m.lastPing = m.now()
	m.mu.Unlock()

	m.keepAlive.Do(func() { go m.keepAliveLoop() })
	logger.Infof("database connected after %d attempt(s)", attempts)
	return conn, nil
}

// reset drops stale if it is still the current handle.
func (m *Manager) reset(stale Conn) {
	m.mu.Lock()
	if m.conn != stale {
		m.mu.Unlock()
		return
	}
	m.conn = nil
	m.mu.Unlock()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), m.opts.PingTimeout)
		defer cancel()
		_ = stale.Disconnect(ctx)
	}()
}

func (m *Manager) keepAliveLoop() {
	defer close(m.pingDone)
	ticker := time.NewTicker(m.opts.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.ping()
		}
	}
}

// ping checks the current handle and reconnects proactively when it fails.
func (m *Manager) ping() {
	conn, _ := m.current()
	if conn == nil {
		return
	}
	ctx, cancel := context.WithTimeout(m.ctx, m.opts.PingTimeout)
	err := conn.Ping(ctx)
	cancel()
	if err == nil {
		m.markPinged()
		return
	}
	if m.ctx.Err() != nil {
		return
	}

	logger.Warnf("database ping failed, connection might be down: %v", err)
	metrics.DBPingFailures.Inc()
	metrics.DBResets.WithLabelValues("ping").Inc()
	m.reset(conn)
	if _, err := m.EnsureConnected(m.ctx); err != nil {
		logger.Errorf("failed to reconnect after ping failure: %v", err)
	}
}
