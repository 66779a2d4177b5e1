// Package testutil provides an in-memory session backend for tests of code
// built on tagpool.
package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ydb-platform/ydb-go-tagpool/session"
	"github.com/ydb-platform/ydb-go-tagpool/tag"
)

// Handler serves in-band procedure calls on a fake session
type Handler func(ctx context.Context, s *Session, args ...interface{}) error

type BackendOption func(b *Backend)

// WithCreateDelay delays every session creation
func WithCreateDelay(d time.Duration) BackendOption {
	return func(b *Backend) {
		b.createDelay = d
	}
}

// WithHandler registers handler of procedure
func WithHandler(procedure string, h Handler) BackendOption {
	return func(b *Backend) {
		b.handlers[procedure] = h
	}
}

// Backend creates fake sessions and keeps track of them
type Backend struct {
	mu          sync.Mutex
	sessions    []*Session
	handlers    map[string]Handler
	createDelay time.Duration
	createErrs  []error
}

func NewBackend(opts ...BackendOption) *Backend {
	b := &Backend{
		handlers: make(map[string]Handler),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}

	return b
}

// Factory returns session factory for the pool
func (b *Backend) Factory() session.Factory {
	return func(ctx context.Context) (session.Session, error) {
		return b.Create(ctx)
	}
}

func (b *Backend) Create(ctx context.Context) (*Session, error) {
	b.mu.Lock()
	delay := b.createDelay
	var err error
	if len(b.createErrs) > 0 {
		err, b.createErrs = b.createErrs[0], b.createErrs[1:]
	}
	b.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}

	s := &Session{
		id:         uuid.NewString(),
		backend:    b,
		properties: make(map[string]string),
	}

	b.mu.Lock()
	b.sessions = append(b.sessions, s)
	b.mu.Unlock()

	return s, nil
}

// FailCreate makes next len(errs) creations fail with given errors
func (b *Backend) FailCreate(errs ...error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.createErrs = append(b.createErrs, errs...)
}

// Handle registers handler of procedure
func (b *Backend) Handle(procedure string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[procedure] = h
}

// Sessions returns all sessions created by b in creation order
func (b *Backend) Sessions() []*Session {
	b.mu.Lock()
	defer b.mu.Unlock()

	return append([]*Session(nil), b.sessions...)
}

func (b *Backend) Created() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.sessions)
}

// Alive returns number of not closed sessions
func (b *Backend) Alive() (n int) {
	for _, s := range b.Sessions() {
		if !s.IsClosed() {
			n++
		}
	}

	return n
}

func (b *Backend) handler(procedure string) (Handler, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	h, ok := b.handlers[procedure]

	return h, ok
}

// ApplyTag is a Handler which sets session properties from the requested
// tag passed as the first argument
func ApplyTag(ctx context.Context, s *Session, args ...interface{}) error {
	if len(args) == 0 {
		return fmt.Errorf("testutil: no requested tag")
	}
	requested, err := tag.From(args[0])
	if err != nil {
		return err
	}
	properties, err := requested.Properties()
	if err != nil {
		return err
	}
	for _, p := range properties {
		s.Set(p.Name, p.Value)
	}

	return nil
}

type Call struct {
	Procedure string
	Args      []interface{}
}

var _ session.Session = (*Session)(nil)

// Session is a fake backend session with session-local properties
type Session struct {
	id      string
	backend *Backend

	mu         sync.Mutex
	properties map[string]string
	calls      []Call
	pings      int
	pingErr    error
	closes     int
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Ping(ctx context.Context) error {
	s.mu.Lock()
	s.pings++
	err := s.pingErr
	closed := s.closes > 0
	s.mu.Unlock()

	if err != nil {
		return err
	}
	if closed {
		return fmt.Errorf("testutil: session %s is closed", s.id)
	}

	return ctx.Err()
}

func (s *Session) Call(ctx context.Context, procedure string, args ...interface{}) error {
	s.mu.Lock()
	s.calls = append(s.calls, Call{Procedure: procedure, Args: args})
	s.mu.Unlock()

	h, ok := s.backend.handler(procedure)
	if !ok {
		return fmt.Errorf("testutil: unknown procedure %q", procedure)
	}

	return h(ctx, s, args...)
}

func (s *Session) Close(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closes++

	return nil
}

// FailPing makes following pings fail with err. Nil err restores pings.
func (s *Session) FailPing(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pingErr = err
}

func (s *Session) Set(name, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.properties[name] = value
}

func (s *Session) Get(name string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.properties[name]

	return v, ok
}

// State returns session properties as a tag with sorted property names
func (s *Session) State() tag.Tag {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.properties))
	for name := range s.properties {
		names = append(names, name)
	}
	sort.Strings(names)

	properties := make([]tag.Property, 0, len(names))
	for _, name := range names {
		properties = append(properties, tag.Property{Name: name, Value: s.properties[name]})
	}

	return tag.New(properties...)
}

func (s *Session) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]Call(nil), s.calls...)
}

func (s *Session) Pings() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.pings
}

func (s *Session) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.closes > 0
}

// Closes returns number of Close calls
func (s *Session) Closes() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.closes
}
