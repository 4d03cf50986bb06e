package loader

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveRelativeToNetworkParent(t *testing.T) {
	r := require.New(t)
	l, err := New(Options{Mode: ModeLive, Fetcher: &stubFetcher{}})
	r.NoError(err)

	cases := map[string]string{
		"./dep.mjs":                  "https://unpkg.com/histar@0.4.1/src/dep.mjs",
		"../lib/x.js":                "https://unpkg.com/histar@0.4.1/lib/x.js",
		"/abs.mjs":                   "https://unpkg.com/abs.mjs",
		"https://cdn.test/other.mjs": "https://cdn.test/other.mjs",
	}
	for specifier, want := range cases {
		res, err := l.Resolve(context.Background(), specifier, "https://unpkg.com/histar@0.4.1/src/index.mjs", nil)
		r.NoError(err)
		r.Equal(want, res.URL)
		r.True(res.ShortCircuit)
	}
}

func TestResolveDelegatesWithoutNetworkParent(t *testing.T) {
	r := require.New(t)
	l, err := New(Options{Mode: ModeLive, Fetcher: &stubFetcher{}})
	r.NoError(err)

	for _, parent := range []string{"", "file:///project/main.mjs"} {
		var gotSpecifier, gotParent string
		next := func(_ context.Context, specifier, parentURL string) (*Resolution, error) {
			gotSpecifier, gotParent = specifier, parentURL
			return &Resolution{URL: "file:///resolved.mjs"}, nil
		}
		res, err := l.Resolve(context.Background(), "./dep.mjs", parent, next)
		r.NoError(err)
		r.Equal("file:///resolved.mjs", res.URL)
		r.Equal("./dep.mjs", gotSpecifier)
		r.Equal(parent, gotParent)
	}

	_, err = l.Resolve(context.Background(), "lodash", "", nil)
	r.ErrorIs(err, ErrNotHandled)
}
