package trace

import (
	"regexp"
	"sort"
	"strings"
)

type Detailer interface {
	Details() Details
}

var _ Detailer = Details(0)

type Details uint64

func (d Details) Details() Details {
	return d
}

func (d Details) String() string {
	ss := make([]string, 0)
	for bit, name := range detailsMap {
		if d&bit != 0 {
			ss = append(ss, name)
		}
	}
	sort.Strings(ss)

	return strings.Join(ss, "|")
}

const (
	PoolLifeCycleEvents Details = 1 << iota // for bitmask: 1, 2, 4, 8, 16, 32, ...
	PoolSessionLifeCycleEvents
	PoolAPIEvents
	PoolWaitEvents
	PoolReconcileEvents
	PoolLivenessEvents
	PoolStateEvents

	PoolEvents = PoolLifeCycleEvents |
		PoolSessionLifeCycleEvents |
		PoolAPIEvents |
		PoolWaitEvents |
		PoolReconcileEvents |
		PoolLivenessEvents |
		PoolStateEvents

	DetailsAll = ^Details(0) // All bits enabled
)

var detailsMap = map[Details]string{
	PoolLifeCycleEvents:        "ydb.tagpool.lifecycle",
	PoolSessionLifeCycleEvents: "ydb.tagpool.session",
	PoolAPIEvents:              "ydb.tagpool.api",
	PoolWaitEvents:             "ydb.tagpool.wait",
	PoolReconcileEvents:        "ydb.tagpool.reconcile",
	PoolLivenessEvents:         "ydb.tagpool.liveness",
	PoolStateEvents:            "ydb.tagpool.state",
}

const defaultDetails = PoolLifeCycleEvents | PoolAPIEvents | PoolReconcileEvents

type matchDetailsOptionsHolder struct {
	defaultDetails Details
	posixMatch     bool
}

type matchDetailsOption func(h *matchDetailsOptionsHolder)

func WithDefaultDetails(defaultDetails Details) matchDetailsOption {
	return func(h *matchDetailsOptionsHolder) {
		h.defaultDetails = defaultDetails
	}
}

func WithPOSIXMatch() matchDetailsOption {
	return func(h *matchDetailsOptionsHolder) {
		h.posixMatch = true
	}
}

// MatchDetails returns details with names matched by pattern, for example
// `ydb\.tagpool\.(api|wait)`. Invalid or not matching pattern gives default details.
func MatchDetails(pattern string, opts ...matchDetailsOption) (d Details) {
	h := &matchDetailsOptionsHolder{
		defaultDetails: defaultDetails,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}

	var (
		re  *regexp.Regexp
		err error
	)
	if h.posixMatch {
		re, err = regexp.CompilePOSIX(pattern)
	} else {
		re, err = regexp.Compile(pattern)
	}
	if err != nil {
		return h.defaultDetails
	}
	for bit, name := range detailsMap {
		if re.MatchString(name) {
			d |= bit
		}
	}
	if d == 0 {
		return h.defaultDetails
	}

	return d
}
