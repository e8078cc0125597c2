package snapshot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSink_WriteRead_RoundTrip(t *testing.T) {
	dir := t.TempDir()

	sink, err := Open(dir, zap.NewNop())
	require.NoError(t, err)
	defer sink.Close()

	docs := map[string][]byte{
		"users":    []byte(`[{"id":1}]`),
		"channels": []byte(`[]`),
	}
	require.NoError(t, sink.WriteTables(docs))

	got, err := sink.ReadTables()
	require.NoError(t, err)
	assert.Equal(t, docs, got)
}

func TestSink_ReadEmpty(t *testing.T) {
	sink, err := Open(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	defer sink.Close()

	got, err := sink.ReadTables()
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSink_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	sink, err := Open(dir, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, sink.WriteTables(map[string][]byte{"users": []byte(`[]`)}))
	require.NoError(t, sink.Close())

	reopened, err := Open(dir, zap.NewNop())
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.ReadTables()
	require.NoError(t, err)
	assert.Equal(t, []byte(`[]`), got["users"])
}

func TestSink_OverwriteKeepsLatest(t *testing.T) {
	sink, err := Open(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	defer sink.Close()

	require.NoError(t, sink.WriteTables(map[string][]byte{"users": []byte(`["old"]`)}))
	require.NoError(t, sink.WriteTables(map[string][]byte{"users": []byte(`["new"]`)}))

	got, err := sink.ReadTables()
	require.NoError(t, err)
	assert.Equal(t, []byte(`["new"]`), got["users"])
}
