package pool

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ydb-platform/ydb-go-tagpool/fixup"
	"github.com/ydb-platform/ydb-go-tagpool/internal/xcontext"
	"github.com/ydb-platform/ydb-go-tagpool/internal/xerrors"
	"github.com/ydb-platform/ydb-go-tagpool/session"
	"github.com/ydb-platform/ydb-go-tagpool/tag"
)

var _ fixup.Target = (*Session)(nil)

// Session is a pooled session handed out by Acquire.
// A Session must be returned to the pool with Release exactly once.
type Session struct {
	id        string
	s         session.Session
	pool      *Pool
	createdAt time.Time

	// guarded by pool.mu
	state          State
	tag            tag.Tag
	tagSet         bool
	fresh          bool
	lastReleasedAt time.Time
	idle           *list.Element

	closeOnce sync.Once
}

func newSession(p *Pool, s session.Session, now time.Time) *Session {
	return &Session{
		id:             uuid.NewString(),
		s:              s,
		pool:           p,
		createdAt:      now,
		state:          StateInUse,
		fresh:          true,
		lastReleasedAt: now,
	}
}

func (s *Session) ID() string {
	return s.id
}

// Session returns underlying session for work and in-band reconciliation steps
func (s *Session) Session() session.Session {
	return s.s
}

// Tag returns the tag which will be recorded on plain Release
func (s *Session) Tag() tag.Tag {
	s.pool.mu.Lock()
	defer s.pool.mu.Unlock()

	return s.tag
}

// SetTag sets the tag recorded on plain Release. It is allowed only while
// the session is checked out. An explicit tag of Release supersedes it.
func (s *Session) SetTag(t tag.Tag) error {
	if err := t.Validate(); err != nil {
		return xerrors.WithStackTrace(err)
	}

	s.pool.mu.Lock()
	defer s.pool.mu.Unlock()

	if s.state != StateInUse {
		return xerrors.WithStackTrace(ErrSessionNotInUse)
	}
	s.tag = t
	s.tagSet = true

	return nil
}

// SetTagValue is a SetTag for dynamically typed values, see tag.From
func (s *Session) SetTagValue(v interface{}) error {
	t, err := tag.From(v)
	if err != nil {
		return xerrors.WithStackTrace(err)
	}

	return s.SetTag(t)
}

func (s *Session) State() State {
	s.pool.mu.Lock()
	defer s.pool.mu.Unlock()

	return s.state
}

func (s *Session) CreatedAt() time.Time {
	return s.createdAt
}

func (s *Session) LastReleasedAt() time.Time {
	s.pool.mu.Lock()
	defer s.pool.mu.Unlock()

	return s.lastReleasedAt
}

// Release returns session to its pool, see Pool.Release
func (s *Session) Release(ctx context.Context, opts ...ReleaseOption) error {
	return s.pool.Release(ctx, s, opts...)
}

// terminate closes underlying session once with close timeout
func (s *Session) terminate(ctx context.Context, timeout time.Duration) {
	s.closeOnce.Do(func() {
		closeCtx, cancel := xcontext.WithTimeout(ctx, timeout)
		defer cancel()

		_ = s.s.Close(closeCtx)
	})
}
