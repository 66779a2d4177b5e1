package pool

import (
	"github.com/ydb-platform/ydb-go-tagpool/internal/xerrors"
	"github.com/ydb-platform/ydb-go-tagpool/tag"
)

type (
	acquireOptions struct {
		tag         tag.Tag
		hasTag      bool
		matchAnyTag bool
	}
	AcquireOption func(o *acquireOptions)
)

// WithTag requests a session in state described by t. Without WithTag the
// pool hands out untagged sessions and reconciles new sessions only.
func WithTag(t tag.Tag) AcquireOption {
	return func(o *acquireOptions) {
		o.tag = t
		o.hasTag = true
	}
}

// WithMatchAnyTag allows any free session to be a reconciliation base for
// the requested tag
func WithMatchAnyTag(matchAnyTag bool) AcquireOption {
	return func(o *acquireOptions) {
		o.matchAnyTag = matchAnyTag
	}
}

// acceptable reports that a free session with actual tag may serve o.
// Exact match needs no reconciliation, other acceptable sessions are bases.
func (o *acquireOptions) acceptable(actual tag.Tag) (ok, exact bool) {
	switch {
	case actual == o.tag:
		return true, true
	case o.tag.IsEmpty():
		return false, false
	case o.matchAnyTag || actual.IsEmpty():
		return true, false
	default:
		return false, false
	}
}

type (
	releaseOptions struct {
		tag    tag.Tag
		hasTag bool
		drop   bool
		err    error
	}
	ReleaseOption func(o *releaseOptions)
)

// WithReleaseTag records t as the session's actual tag without reconciliation.
// The caller asserts the session is already in state t.
func WithReleaseTag(t tag.Tag) ReleaseOption {
	return func(o *releaseOptions) {
		o.tag = t
		o.hasTag = true
	}
}

// WithReleaseTagValue is a WithReleaseTag for dynamically typed values, see tag.From
func WithReleaseTagValue(v interface{}) ReleaseOption {
	return func(o *releaseOptions) {
		t, err := tag.From(v)
		if err != nil {
			o.err = xerrors.Join(o.err, err)

			return
		}
		o.tag = t
		o.hasTag = true
	}
}

// WithDrop terminates the session instead of returning it to the pool
func WithDrop(drop bool) ReleaseOption {
	return func(o *releaseOptions) {
		o.drop = drop
	}
}

func (o *releaseOptions) validate() error {
	if o.err != nil {
		return o.err
	}
	if o.hasTag {
		return o.tag.Validate()
	}

	return nil
}
