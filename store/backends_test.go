package store_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/adaptgo/core/transform"
	"github.com/YuminosukeSato/adaptgo/store"
	"github.com/YuminosukeSato/adaptgo/store/memstore"
	"github.com/YuminosukeSato/adaptgo/store/sqlite"
)

// openBackends opens one instance of every Store implementation.
// The conformance test below runs the same scenario against each so the
// backends cannot drift apart behaviorally.
func openBackends(t *testing.T) map[string]store.Store {
	t.Helper()
	ctx := context.Background()

	sq, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "states.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sq.Close() })

	ms := memstore.New()
	t.Cleanup(func() { _ = ms.Close() })

	return map[string]store.Store{"sqlite": sq, "memstore": ms}
}

func hashingEnvelope(t *testing.T, numBins int, salt int64) *transform.StateEnvelope {
	t.Helper()
	env := &transform.StateEnvelope{
		TransformType: "hashing",
		Version:       "1",
		Config: map[string]interface{}{
			"num_bins": numBins,
			"salt":     salt,
		},
	}
	require.NoError(t, env.SetState(map[string]interface{}{
		"num_bins": numBins,
		"salt":     salt,
	}))
	return env
}

func TestBackendConformance(t *testing.T) {
	for name, st := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			// Absent name fails with the shared sentinel.
			_, err := st.Get(ctx, "buckets")
			require.ErrorIs(t, err, store.ErrNotFound)

			// Two Puts under one name are two versions in creation order.
			first, err := st.Put(ctx, "buckets", hashingEnvelope(t, 16, 7))
			require.NoError(t, err)
			second, err := st.Put(ctx, "buckets", hashingEnvelope(t, 64, 7))
			require.NoError(t, err)
			assert.Less(t, first.ID, second.ID)

			latest, err := st.Get(ctx, "buckets")
			require.NoError(t, err)
			assert.Equal(t, second.ID, latest.ID)
			assert.Equal(t, "hashing", latest.Kind)

			old, err := st.GetVersion(ctx, "buckets", first.ID)
			require.NoError(t, err)
			assert.EqualValues(t, 16, old.Envelope.Config["num_bins"])

			// Kind filtering sees both versions, newest first.
			snaps, err := st.List(ctx, "hashing")
			require.NoError(t, err)
			require.Len(t, snaps, 2)
			assert.Equal(t, second.ID, snaps[0].ID)

			snaps, err = st.List(ctx, "discretization")
			require.NoError(t, err)
			assert.Empty(t, snaps)

			// Delete removes every version and reports a second attempt.
			require.NoError(t, st.Delete(ctx, "buckets"))
			_, err = st.Get(ctx, "buckets")
			assert.ErrorIs(t, err, store.ErrNotFound)
			assert.ErrorIs(t, st.Delete(ctx, "buckets"), store.ErrNotFound)
		})
	}
}
