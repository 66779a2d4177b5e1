package pool

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ydb-platform/ydb-go-tagpool/tag"
)

func TestAcceptable(t *testing.T) {
	for _, tt := range []struct {
		name        string
		requested   tag.Tag
		matchAnyTag bool
		actual      tag.Tag
		ok          bool
		exact       bool
	}{
		{name: "Exact", requested: "L=FR", actual: "L=FR", ok: true, exact: true},
		{name: "UntaggedBase", requested: "L=FR", actual: "", ok: true},
		{name: "Mismatch", requested: "L=FR", actual: "L=DE"},
		{name: "MatchAnyTag", requested: "L=FR", matchAnyTag: true, actual: "L=DE", ok: true},
		{name: "EmptyExact", requested: "", actual: "", ok: true, exact: true},
		{name: "EmptyTagged", requested: "", actual: "L=DE"},
		{name: "EmptyTaggedMatchAnyTag", requested: "", matchAnyTag: true, actual: "L=DE"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			o := acquireOptions{tag: tt.requested, hasTag: true, matchAnyTag: tt.matchAnyTag}
			ok, exact := o.acceptable(tt.actual)
			require.Equal(t, tt.ok, ok)
			require.Equal(t, tt.exact, exact)
		})
	}
}

func TestReleaseOptions(t *testing.T) {
	var o releaseOptions
	for _, opt := range []ReleaseOption{
		WithReleaseTagValue(tag.Tag("A=1")),
		WithDrop(true),
	} {
		opt(&o)
	}
	require.NoError(t, o.validate())
	require.True(t, o.hasTag)
	require.True(t, o.drop)
	require.Equal(t, tag.Tag("A=1"), o.tag)

	o = releaseOptions{}
	WithReleaseTagValue(struct{}{})(&o)
	require.Error(t, o.validate())
	require.False(t, o.hasTag)
}
