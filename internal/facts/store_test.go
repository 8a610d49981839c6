package facts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProposeConfidenceOrdering(t *testing.T) {
	tests := []struct {
		name    string
		first   Fact
		second  Fact
		want    string
		wantOut Outcome
		wantSrc string
	}{
		{
			name:    "higher confidence replaces",
			first:   Fact{Key: "project.name", Value: String("from-readme"), Confidence: Low, Source: "README.md"},
			second:  Fact{Key: "project.name", Value: String("from-manifest"), Confidence: High, Source: "package.json"},
			want:    "from-manifest",
			wantOut: Replaced,
			wantSrc: "package.json",
		},
		{
			name:    "lower confidence is kept out",
			first:   Fact{Key: "project.name", Value: String("from-manifest"), Confidence: High, Source: "package.json"},
			second:  Fact{Key: "project.name", Value: String("from-readme"), Confidence: Low, Source: "README.md"},
			want:    "from-manifest",
			wantOut: Kept,
			wantSrc: "package.json",
		},
		{
			name:    "tie keeps first writer",
			first:   Fact{Key: "commands.test", Value: String("npm test"), Confidence: High, Source: "package.json"},
			second:  Fact{Key: "commands.test", Value: String("make test"), Confidence: High, Source: "Makefile"},
			want:    "npm test",
			wantOut: Kept,
			wantSrc: "package.json",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore()
			out, err := s.Propose(tt.first)
			require.NoError(t, err)
			assert.Equal(t, Added, out)

			out, err = s.Propose(tt.second)
			require.NoError(t, err)
			assert.Equal(t, tt.wantOut, out)

			got, ok := s.Get(tt.first.Key)
			require.True(t, ok)
			assert.Equal(t, tt.want, got.Value.Str())
			assert.Equal(t, tt.wantSrc, got.Source)
		})
	}
}

func TestFrozenStoreRejectsWrites(t *testing.T) {
	s := NewStore()
	s.Freeze()
	_, err := s.Propose(Fact{Key: "language.primary", Value: String("go"), Confidence: High})
	assert.ErrorIs(t, err, ErrFrozen)
	assert.Equal(t, 0, s.Len())
}

func TestProposeRejectsBadKeys(t *testing.T) {
	s := NewStore()
	for _, key := range []string{"", "name", "Project.name", "project..name", ".x"} {
		_, err := s.Propose(Fact{Key: key, Value: String("x")})
		assert.ErrorIs(t, err, ErrInvalidKey, "key %q", key)
	}
}

func TestTruthy(t *testing.T) {
	s := NewStore()
	add := func(key string, v Value) {
		_, err := s.Propose(Fact{Key: key, Value: v, Confidence: High})
		require.NoError(t, err)
	}
	add("a.str", String("x"))
	add("a.empty", String(""))
	add("a.yes", Bool(true))
	add("a.no", Bool(false))
	add("a.list", List("x"))
	add("a.nolist", List())
	add("a.null", Null())

	assert.True(t, Truthy(s, "a.str"))
	assert.False(t, Truthy(s, "a.empty"))
	assert.True(t, Truthy(s, "a.yes"))
	assert.False(t, Truthy(s, "a.no"))
	assert.True(t, Truthy(s, "a.list"))
	assert.False(t, Truthy(s, "a.nolist"))
	assert.False(t, Truthy(s, "a.null"))
	assert.False(t, Truthy(s, "a.missing"))
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := NewStore()
	_, _ = s.Propose(Fact{Key: "commands.test", Value: String("run-tests"), Confidence: High, Source: "package.json"})
	_, _ = s.Propose(Fact{Key: "framework.all", Value: List("react", "next"), Confidence: Medium, Source: "framework"})
	_, _ = s.Propose(Fact{Key: "vcs.git", Value: Bool(true), Confidence: High, Source: ".git"})

	data, err := s.MarshalSnapshot()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"confidence": "high"`)

	loaded, err := LoadSnapshot(data)
	require.NoError(t, err)
	assert.True(t, loaded.Frozen())
	assert.Equal(t, s.Keys(), loaded.Keys())

	f, ok := loaded.Get("framework.all")
	require.True(t, ok)
	assert.Equal(t, []string{"react", "next"}, f.Value.Items())
	assert.Equal(t, Medium, f.Confidence)
}

func TestValueRender(t *testing.T) {
	s, ok := List("a", "b").Render()
	assert.True(t, ok)
	assert.Equal(t, "a, b", s)

	s, ok = Bool(false).Render()
	assert.True(t, ok)
	assert.Equal(t, "false", s)

	_, ok = Null().Render()
	assert.False(t, ok)
}
