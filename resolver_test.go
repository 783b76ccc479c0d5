// FILE: lixenwraith/layered/resolver_test.go
package layered

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestResolverCreation tests construction defaults and options
func TestResolverCreation(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		r := New()
		require.NotNil(t, r)
		assert.Equal(t, 0, r.Len())
		assert.Equal(t, PositionAppend, r.Position())
		_, set := r.Anchor()
		assert.False(t, set)
		assert.False(t, r.Reporter().Fatal())
		assert.False(t, r.Reporter().Strict())
		assert.Empty(t, r.View())
	})

	t.Run("WithOptions", func(t *testing.T) {
		defaults := Source{"a": 1}
		user := Source{"a": 2}
		r := New(
			WithFatal(true),
			WithStrict(true),
			WithPosition(0),
			WithSources(defaults, user),
		)
		assert.True(t, r.Reporter().Fatal())
		assert.True(t, r.Reporter().Strict())
		assert.Equal(t, 0, r.Position())

		// Construction sources go through Add at the configured position
		sources := r.Sources()
		require.Len(t, sources, 2)
		assert.True(t, sameSource(user, sources[0]))
		assert.True(t, sameSource(defaults, sources[1]))

		v, err := r.Get("a")
		require.NoError(t, err)
		assert.Equal(t, 1, v)
	})

	t.Run("NilInitialSourceSkipped", func(t *testing.T) {
		var buf bytes.Buffer
		r := New(
			WithFatal(true),
			WithLogger(NewLogger("DEBUG", &buf)),
			WithSources(nil, Source{"a": 1}),
		)
		assert.Equal(t, 1, r.Len())
		assert.NotContains(t, buf.String(), "initial sources rejected")
	})
}

// TestMergeOrder tests that later sources override earlier ones
func TestMergeOrder(t *testing.T) {
	t.Run("LastSourceWins", func(t *testing.T) {
		r := New()
		require.NoError(t, r.Add(Source{"a": 1, "b": 2}, Source{"b": 3, "c": 4}))

		assert.Equal(t, map[string]any{"a": 1, "b": 3, "c": 4}, r.View())

		b, err := r.Get("b")
		require.NoError(t, err)
		assert.Equal(t, 3, b)

		a, err := r.Get("a")
		require.NoError(t, err)
		assert.Equal(t, 1, a)
	})

	t.Run("ShallowMerge", func(t *testing.T) {
		r := New()
		require.NoError(t, r.Add(
			Source{"server": map[string]any{"host": "localhost", "port": 8080}},
			Source{"server": map[string]any{"port": 9090}},
		))

		_, err := r.Get("server.host")
		assert.ErrorIs(t, err, ErrNotFound, "nested maps are replaced, not merged")

		port, err := r.Get("server.port")
		require.NoError(t, err)
		assert.Equal(t, 9090, port)
	})

	t.Run("DuplicateSource", func(t *testing.T) {
		shared := Source{"k": "shared"}
		r := New()
		require.NoError(t, r.Add(shared, Source{"k": "middle"}, shared))
		assert.Equal(t, 3, r.Len())

		v, err := r.Get("k")
		require.NoError(t, err)
		assert.Equal(t, "shared", v)
	})

	t.Run("NilItemsSkipped", func(t *testing.T) {
		r := New()
		var nilMap map[string]any
		require.NoError(t, r.Add(nil, nilMap, Source{"x": 1}))
		assert.Equal(t, 1, r.Len())
	})
}

// TestCompile tests view recomputation
func TestCompile(t *testing.T) {
	t.Run("Idempotent", func(t *testing.T) {
		r := New(WithSources(Source{"a": 1}, Source{"b": 2}))
		r.Compile()
		first := r.View()
		r.Compile()
		assert.Equal(t, first, r.View())
	})

	t.Run("ExternalMutationNeedsCompile", func(t *testing.T) {
		src := Source{"a": 1}
		r := New(WithSources(src))

		src["a"] = 2
		src["b"] = 3
		v, _ := r.Get("a")
		assert.Equal(t, 1, v, "view is a snapshot until recompiled")
		_, err := r.Get("b")
		assert.ErrorIs(t, err, ErrNotFound)

		r.Compile()
		v, _ = r.Get("a")
		assert.Equal(t, 2, v)
		v, _ = r.Get("b")
		assert.Equal(t, 3, v)
	})

	t.Run("ViewIsACopy", func(t *testing.T) {
		r := New(WithSources(Source{"a": 1}))
		view := r.View()
		view["a"] = 99
		v, _ := r.Get("a")
		assert.Equal(t, 1, v)
	})
}

// TestRemoveAndClear tests source list removal
func TestRemoveAndClear(t *testing.T) {
	t.Run("RemoveRestoresByNewPosition", func(t *testing.T) {
		low := Source{"k": "low"}
		high := Source{"k": "high"}
		r := New(WithSources(low, high))

		v, _ := r.Get("k")
		assert.Equal(t, "high", v)

		r.Remove(low)
		require.NoError(t, r.Add(low))
		v, _ = r.Get("k")
		assert.Equal(t, "low", v, "re-added source now sits last")
	})

	t.Run("RemoveFirstOccurrenceOnly", func(t *testing.T) {
		shared := Source{"k": "shared"}
		other := Source{"k": "other"}
		r := New(WithSources(shared, other, shared))

		r.Remove(shared)
		sources := r.Sources()
		require.Len(t, sources, 2)
		assert.True(t, sameSource(other, sources[0]))
		assert.True(t, sameSource(shared, sources[1]))
	})

	t.Run("RemoveByIdentityNotEquality", func(t *testing.T) {
		src := Source{"k": 1}
		r := New(WithSources(src))

		r.Remove(Source{"k": 1})
		assert.Equal(t, 1, r.Len())

		r.Remove(src)
		assert.Equal(t, 0, r.Len())
		_, err := r.Get("k")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Clear", func(t *testing.T) {
		r := New(WithSources(Source{"a": 1}, Source{"b": 2}))
		r.Clear()
		assert.Equal(t, 0, r.Len())
		assert.Empty(t, r.View())
	})
}

// TestAddNested tests adding sub-sources by property name
func TestAddNested(t *testing.T) {
	t.Run("AnchorInitialisedFromView", func(t *testing.T) {
		r := New(WithSources(Source{"nested": map[string]any{"x": 5}}))

		require.NoError(t, r.Add("nested"))
		assert.Equal(t, 2, r.Len())

		x, err := r.Get("x")
		require.NoError(t, err)
		assert.Equal(t, 5, x)

		_, set := r.Anchor()
		assert.True(t, set)
	})

	t.Run("DotPath", func(t *testing.T) {
		r := New(WithSources(Source{
			"env": map[string]any{
				"prod": map[string]any{"replicas": 3},
			},
		}))
		require.NoError(t, r.Add("env.prod"))

		v, err := r.Get("replicas")
		require.NoError(t, err)
		assert.Equal(t, 3, v)
	})

	t.Run("MissingNonStrictSkips", func(t *testing.T) {
		r := New(WithSources(Source{"a": 1}))
		require.NoError(t, r.Add("missing"))
		assert.Equal(t, 1, r.Len())
	})

	t.Run("MissingStrictNonFatalLogs", func(t *testing.T) {
		var buf bytes.Buffer
		r := New(WithLogger(NewLogger("INFO", &buf)), WithStrict(true))

		require.NoError(t, r.Add("missing"))
		assert.Equal(t, 0, r.Len())
		assert.Contains(t, buf.String(), "property not found")
	})

	t.Run("MissingStrictFatalReturns", func(t *testing.T) {
		r := New(WithStrict(true), WithFatal(true))

		err := r.Add("missing")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrPropertyNotFound)
		assert.Equal(t, 0, r.Len())
	})

	t.Run("NonObjectProperty", func(t *testing.T) {
		r := New(WithSources(Source{"scalar": 42}), WithFatal(true))

		err := r.Add("scalar")
		assert.ErrorIs(t, err, ErrInvalidSource)
		assert.Equal(t, 1, r.Len())
	})
}

// TestAddInvalid tests reporting of invalid source values
func TestAddInvalid(t *testing.T) {
	t.Run("NonFatalContinues", func(t *testing.T) {
		var buf bytes.Buffer
		r := New(WithLogger(NewLogger("WARN", &buf)))

		require.NoError(t, r.Add(42, Source{"k": 1}, []string{"nope"}))
		assert.Equal(t, 1, r.Len())
		assert.Contains(t, buf.String(), "invalid source value")

		v, err := r.Get("k")
		require.NoError(t, err)
		assert.Equal(t, 1, v)
	})

	t.Run("FatalAbortsButKeepsViewConsistent", func(t *testing.T) {
		r := New(WithFatal(true))

		err := r.Add(Source{"a": 1}, 42, Source{"b": 2})
		require.Error(t, err)

		var reported *Error
		require.True(t, errors.As(err, &reported))
		assert.Equal(t, ErrInvalidSource, reported.Kind)
		assert.Equal(t, "int", reported.Info["type"])

		// Items before the failure were added and compiled
		a, err := r.Get("a")
		require.NoError(t, err)
		assert.Equal(t, 1, a)

		_, err = r.Get("b")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

// TestOrigin tests provenance of merged keys
func TestOrigin(t *testing.T) {
	r := New(WithSources(
		Source{"a": 1, "b": 1},
		Source{"b": 2},
	))

	idx, ok := r.Origin("a")
	assert.True(t, ok)
	assert.Equal(t, 0, idx)

	idx, ok = r.Origin("b")
	assert.True(t, ok)
	assert.Equal(t, 1, idx)

	idx, ok = r.Origin("missing")
	assert.False(t, ok)
	assert.Equal(t, -1, idx)
}
