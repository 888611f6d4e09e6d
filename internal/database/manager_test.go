package database

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
)

type fakeConn struct {
	id           int
	pingErr      atomic.Value
	disconnected atomic.Bool
	pings        atomic.Int32
	pingGate     chan struct{} // when set, pings block until closed
}

func (c *fakeConn) Ping(ctx context.Context) error {
	c.pings.Add(1)
	if c.pingGate != nil {
		select {
		case <-c.pingGate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if v := c.pingErr.Load(); v != nil {
		return v.(error)
	}
	return nil
}

func (c *fakeConn) Disconnect(ctx context.Context) error {
	c.disconnected.Store(true)
	return nil
}

func (c *fakeConn) Database(name string) *mongo.Database { return nil }

type fakeDialer struct {
	mu     sync.Mutex
	calls  int
	fails  int // first n dials fail
	gate   chan struct{}
	conns  []*fakeConn
	dialEr error
}

func (d *fakeDialer) Dial(ctx context.Context) (Conn, error) {
	if d.gate != nil {
		select {
		case <-d.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	if d.calls <= d.fails {
		if d.dialEr != nil {
			return nil, d.dialEr
		}
		return nil, errors.New("connection refused")
	}
	c := &fakeConn{id: d.calls}
	d.conns = append(d.conns, c)
	return c, nil
}

func (d *fakeDialer) Calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

// instantTimer fires immediately and records the requested waits.
type instantTimer struct {
	mu    sync.Mutex
	waits []time.Duration
	c     chan time.Time
}

func newInstantTimer() *instantTimer { return &instantTimer{c: make(chan time.Time, 1)} }

func (t *instantTimer) Start(d time.Duration) {
	t.mu.Lock()
	t.waits = append(t.waits, d)
	t.mu.Unlock()
	t.c <- time.Now()
}

func (t *instantTimer) Stop() {}

func (t *instantTimer) C() <-chan time.Time { return t.c }

func (t *instantTimer) Waits() []time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]time.Duration(nil), t.waits...)
}

func newTestManager(d Dialer, opts Options) (*Manager, *instantTimer) {
	m := NewManager(d, opts)
	tm := newInstantTimer()
	m.timer = tm
	return m, tm
}

func TestEnsureConnected_CoalescesConcurrentCallers(t *testing.T) {
	d := &fakeDialer{gate: make(chan struct{})}
	m, _ := newTestManager(d, Options{})
	defer m.Close(context.Background())

	const n = 20
	var wg sync.WaitGroup
	results := make([]Conn, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = m.EnsureConnected(context.Background())
		}(i)
	}
	require.Eventually(t, m.Connecting, time.Second, time.Millisecond)
	close(d.gate)
	wg.Wait()

	require.Equal(t, 1, d.Calls())
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		require.Same(t, results[0], results[i])
	}
	require.True(t, m.Connected())
	require.False(t, m.LastPing().IsZero())
}

func TestEnsureConnected_ReusesLiveHandle(t *testing.T) {
	d := &fakeDialer{}
	m, _ := newTestManager(d, Options{})
	defer m.Close(context.Background())

	first, err := m.EnsureConnected(context.Background())
	require.NoError(t, err)
	second, err := m.EnsureConnected(context.Background())
	require.NoError(t, err)
	require.Same(t, first, second)
	require.Equal(t, 1, d.Calls())
}

func TestEnsureConnected_RetriesWithDoublingDelay(t *testing.T) {
	d := &fakeDialer{fails: 2}
	m, tm := newTestManager(d, Options{MaxRetries: 3, BaseDelay: 100 * time.Millisecond})
	defer m.Close(context.Background())

	conn, err := m.EnsureConnected(context.Background())
	require.NoError(t, err)
	require.NotNil(t, conn)
	require.Equal(t, 3, d.Calls())
	require.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}, tm.Waits())
}

func TestEnsureConnected_GivesUpAfterMaxRetries(t *testing.T) {
	dialErr := errors.New("server selection timeout")
	d := &fakeDialer{fails: 10, dialEr: dialErr}
	m, tm := newTestManager(d, Options{MaxRetries: 3, BaseDelay: time.Second})
	defer m.Close(context.Background())

	_, err := m.EnsureConnected(context.Background())
	require.Error(t, err)
	var ce *ConnectionError
	require.ErrorAs(t, err, &ce)
	require.Equal(t, 3, ce.Attempts)
	require.ErrorIs(t, err, dialErr)
	require.True(t, IsConnectionError(err))
	require.Equal(t, 3, d.Calls())
	require.Equal(t, []time.Duration{time.Second, 2 * time.Second}, tm.Waits())
	require.False(t, m.Connected())

	// a later call starts a fresh establishment
	d.mu.Lock()
	d.fails = 0
	d.mu.Unlock()
	_, err = m.EnsureConnected(context.Background())
	require.NoError(t, err)
}

func TestEnsureConnected_CallerContext(t *testing.T) {
	d := &fakeDialer{gate: make(chan struct{})}
	m, _ := newTestManager(d, Options{})
	defer m.Close(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := m.EnsureConnected(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	close(d.gate)
}

func TestWithConnection_RetriesOnceAfterConnectionLoss(t *testing.T) {
	d := &fakeDialer{}
	m, _ := newTestManager(d, Options{})
	defer m.Close(context.Background())

	var seen []Conn
	err := m.WithConnection(context.Background(), func(ctx context.Context, c Conn) error {
		seen = append(seen, c)
		if len(seen) == 1 {
			return errors.New("server selection error: topology is closed")
		}
		return nil
	})
	require.NoError(t, err)
	require.Len(t, seen, 2)
	require.NotSame(t, seen[0], seen[1])
	require.Equal(t, 2, d.Calls())
	require.Eventually(t, func() bool { return seen[0].(*fakeConn).disconnected.Load() }, time.Second, time.Millisecond)
}

func TestWithConnection_SecondLossPropagates(t *testing.T) {
	d := &fakeDialer{}
	m, _ := newTestManager(d, Options{})
	defer m.Close(context.Background())

	calls := 0
	err := m.WithConnection(context.Background(), func(ctx context.Context, c Conn) error {
		calls++
		return mongo.ErrClientDisconnected
	})
	require.ErrorIs(t, err, mongo.ErrClientDisconnected)
	require.Equal(t, 2, calls)
}

func TestWithConnection_OtherErrorsAreNotRetried(t *testing.T) {
	d := &fakeDialer{}
	m, _ := newTestManager(d, Options{})
	defer m.Close(context.Background())

	boom := errors.New("duplicate key")
	calls := 0
	err := m.WithConnection(context.Background(), func(ctx context.Context, c Conn) error {
		calls++
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.Equal(t, 1, calls)
	require.Equal(t, 1, d.Calls())
	require.True(t, m.Connected())
}

func TestKeepAlive_ReconnectsAfterPingFailure(t *testing.T) {
	d := &fakeDialer{}
	m, _ := newTestManager(d, Options{PingInterval: 10 * time.Millisecond, PingTimeout: 10 * time.Millisecond})
	defer m.Close(context.Background())

	c, err := m.EnsureConnected(context.Background())
	require.NoError(t, err)
	c.(*fakeConn).pingErr.Store(errors.New("connection reset by peer"))

	require.Eventually(t, func() bool { return d.Calls() >= 2 && m.Connected() }, 2*time.Second, 5*time.Millisecond)
	next, err := m.EnsureConnected(context.Background())
	require.NoError(t, err)
	require.NotSame(t, c, next)
}

func TestEnsureConnected_StalePingTriggersCheck(t *testing.T) {
	d := &fakeDialer{}
	m, _ := newTestManager(d, Options{StalePingAfter: time.Minute})
	defer m.Close(context.Background())

	_, err := m.EnsureConnected(context.Background())
	require.NoError(t, err)
	before := m.LastPing()

	m.mu.Lock()
	m.now = func() time.Time { return before.Add(2 * time.Minute) }
	m.mu.Unlock()

	_, err = m.EnsureConnected(context.Background())
	require.NoError(t, err)
	require.Eventually(t, func() bool { return m.LastPing().After(before) }, time.Second, time.Millisecond)
}

func TestEnsureConnected_StaleCheckIsCoalesced(t *testing.T) {
	d := &fakeDialer{}
	m, _ := newTestManager(d, Options{StalePingAfter: time.Minute, PingTimeout: 5 * time.Second})
	defer m.Close(context.Background())

	c, err := m.EnsureConnected(context.Background())
	require.NoError(t, err)
	conn := c.(*fakeConn)
	gate := make(chan struct{})
	conn.pingGate = gate
	before := m.LastPing()

	m.mu.Lock()
	m.now = func() time.Time { return before.Add(2 * time.Minute) }
	m.mu.Unlock()

	const n = 200
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = m.EnsureConnected(context.Background())
		}(i)
	}
	wg.Wait()
	close(gate)
	for _, err := range errs {
		require.NoError(t, err)
	}

	require.Eventually(t, func() bool { return m.LastPing().After(before) }, time.Second, time.Millisecond)
	require.Equal(t, int32(1), conn.pings.Load())
	require.Equal(t, 1, d.Calls())
}

func TestPing(t *testing.T) {
	d := &fakeDialer{}
	m, _ := newTestManager(d, Options{})
	defer m.Close(context.Background())

	require.ErrorIs(t, m.Ping(context.Background()), ErrNotConnected)
	_, err := m.EnsureConnected(context.Background())
	require.NoError(t, err)
	require.NoError(t, m.Ping(context.Background()))
}

func TestClose(t *testing.T) {
	d := &fakeDialer{}
	m, _ := newTestManager(d, Options{})

	c, err := m.EnsureConnected(context.Background())
	require.NoError(t, err)
	require.NoError(t, m.Close(context.Background()))
	require.True(t, c.(*fakeConn).disconnected.Load())
	require.False(t, m.Connected())

	_, err = m.EnsureConnected(context.Background())
	require.ErrorIs(t, err, ErrClosed)
	require.NoError(t, m.Close(context.Background()))
}

func TestIsConnectionLost(t *testing.T) {
	require.False(t, IsConnectionLost(nil))
	require.True(t, IsConnectionLost(ErrNotConnected))
	require.True(t, IsConnectionLost(mongo.ErrClientDisconnected))
	require.True(t, IsConnectionLost(errors.New("Topology is closed")))
	require.False(t, IsConnectionLost(errors.New("E11000 duplicate key error")))
	require.False(t, IsConnectionLost(context.DeadlineExceeded))
}
