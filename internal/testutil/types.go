package testutil

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pombredanne/godine"
)

// Common test errors
var (
	ErrTest            = errors.New("test error")
	ErrIntentional     = errors.New("intentional error")
	ErrFactory         = errors.New("factory error")
	ErrDisposal        = errors.New("disposal error")
	ErrAlreadyDisposed = errors.New("already disposed")
	ErrAlreadyClosed   = errors.New("already closed")
)

// TestService is a basic test service
type TestService struct {
	ID        string
	CreatedAt time.Time
	Data      string
}

// NewTestService creates a new test service
func NewTestService() *TestService {
	return &TestService{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
		Data:      "test",
	}
}

// TestLogger is a test logger interface
type TestLogger interface {
	Log(msg string)
	GetLogs() []string
}

// TestLoggerImpl implements TestLogger
type TestLoggerImpl struct {
	logs []string
	mu   sync.Mutex
}

func NewTestLogger() TestLogger {
	return &TestLoggerImpl{}
}

func (l *TestLoggerImpl) Log(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logs = append(l.logs, msg)
}

func (l *TestLoggerImpl) GetLogs() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	result := make([]string, len(l.logs))
	copy(result, l.logs)
	return result
}

// TestDatabase is a test database interface
type TestDatabase interface {
	Query(sql string) string
	Close() error
}

// TestDatabaseImpl implements TestDatabase
type TestDatabaseImpl struct {
	name     string
	closed   bool
	closeMu  sync.Mutex
	closeErr error
}

func NewTestDatabase() TestDatabase {
	return &TestDatabaseImpl{name: "testdb"}
}

func NewTestDatabaseNamed(name string) TestDatabase {
	return &TestDatabaseImpl{name: name}
}

func (d *TestDatabaseImpl) Query(sql string) string {
	return fmt.Sprintf("%s: %s", d.name, sql)
}

func (d *TestDatabaseImpl) Close() error {
	d.closeMu.Lock()
	defer d.closeMu.Unlock()

	if d.closed {
		return ErrAlreadyClosed
	}
	d.closed = true
	return d.closeErr
}

// TestCache is a test cache interface
type TestCache interface {
	Get(key string) (string, bool)
	Set(key string, value string)
}

// TestCacheImpl implements TestCache
type TestCacheImpl struct {
	data map[string]string
	mu   sync.RWMutex
}

func NewTestCache() TestCache {
	return &TestCacheImpl{data: make(map[string]string)}
}

func (c *TestCacheImpl) Get(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	val, ok := c.data[key]
	return val, ok
}

func (c *TestCacheImpl) Set(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.data == nil {
		c.data = make(map[string]string)
	}
	c.data[key] = value
}

// TestDisposable is a test type that implements godine.Disposable
type TestDisposable struct {
	ID           string
	disposed     bool
	disposeError error
	mu           sync.Mutex
}

func NewTestDisposable() *TestDisposable {
	return &TestDisposable{
		ID: uuid.NewString(),
	}
}

func NewTestDisposableWithError(err error) *TestDisposable {
	return &TestDisposable{
		ID:           uuid.NewString(),
		disposeError: err,
	}
}

func (s *TestDisposable) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disposed {
		return ErrAlreadyDisposed
	}

	s.disposed = true
	return s.disposeError
}

func (s *TestDisposable) IsDisposed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disposed
}

// TestContextDisposable implements godine.DisposableWithContext
type TestContextDisposable struct {
	ID          string
	disposed    bool
	ctx         context.Context
	disposeErr  error
	disposeTime time.Duration
	mu          sync.Mutex
}

func NewTestContextDisposable() *TestContextDisposable {
	return &TestContextDisposable{
		ID: uuid.NewString(),
	}
}

func (s *TestContextDisposable) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disposed {
		return ErrAlreadyDisposed
	}

	s.ctx = ctx

	if s.disposeTime > 0 {
		select {
		case <-time.After(s.disposeTime):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	s.disposed = true
	return s.disposeErr
}

func (s *TestContextDisposable) SetDisposeTime(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disposeTime = d
}

func (s *TestContextDisposable) SetDisposeError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disposeErr = err
}

func (s *TestContextDisposable) WasDisposedWithContext() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctx != nil
}

func (s *TestContextDisposable) IsDisposed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disposed
}

// TestServiceWithDeps is a service wired from other test providers
type TestServiceWithDeps struct {
	Logger   TestLogger
	Database TestDatabase
	Cache    TestCache
	ID       string
}

func NewTestServiceWithDeps(logger TestLogger, db TestDatabase, cache TestCache) *TestServiceWithDeps {
	return &TestServiceWithDeps{
		Logger:   logger,
		Database: db,
		Cache:    cache,
		ID:       uuid.NewString(),
	}
}

// CloserFunc is a helper type to wrap a function as a Disposable
type CloserFunc func() error

func (f CloserFunc) Close() error {
	return f()
}

// TeardownRecorder records the order teardowns run in
type TeardownRecorder struct {
	mu    sync.Mutex
	order []string
}

func NewTeardownRecorder() *TeardownRecorder {
	return &TeardownRecorder{}
}

func (r *TeardownRecorder) Record(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.order = append(r.order, name)
}

// Order returns the recorded names in teardown order
func (r *TeardownRecorder) Order() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]string, len(r.order))
	copy(result, r.order)
	return result
}

// CallCounter counts factory invocations across goroutines
type CallCounter struct {
	mu    sync.Mutex
	count int
}

func (c *CallCounter) Inc() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count++
	return c.count
}

// Count returns the number of invocations so far
func (c *CallCounter) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

// StaticFactory returns a factory that yields value every time
func StaticFactory(value any) godine.Factory {
	return func(ctx context.Context, deps godine.Deps) (any, error) {
		return value, nil
	}
}

// FreshFactory returns a factory that yields a new TestService per call
func FreshFactory() godine.Factory {
	return func(ctx context.Context, deps godine.Deps) (any, error) {
		return NewTestService(), nil
	}
}

// FailingFactory returns a factory that always fails with err
func FailingFactory(err error) godine.Factory {
	return func(ctx context.Context, deps godine.Deps) (any, error) {
		return nil, err
	}
}

// CountingFactory returns a factory that increments counter and
// yields a new TestService per call
func CountingFactory(counter *CallCounter) godine.Factory {
	return func(ctx context.Context, deps godine.Deps) (any, error) {
		counter.Inc()
		return NewTestService(), nil
	}
}

// RecordedFactory returns a factory whose value's teardown records
// name with rec when it runs
func RecordedFactory(name string, rec *TeardownRecorder) godine.Factory {
	return func(ctx context.Context, deps godine.Deps) (any, error) {
		return godine.NewResource(NewTestService(), func(ctx context.Context) error {
			rec.Record(name)
			return nil
		}), nil
	}
}
