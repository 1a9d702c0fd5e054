package blob

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenSelectsDriver(t *testing.T) {
	ctx := context.Background()

	fsStore, err := Open(ctx, Options{FSRoot: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, DriverFilesystem, fsStore.Driver())

	mem, err := Open(ctx, Options{Driver: DriverMemory})
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, mem.Driver())

	_, err = Open(ctx, Options{Driver: DriverS3})
	assert.Error(t, err, "s3 without bucket must fail")

	_, err = Open(ctx, Options{Driver: "ftp"})
	assert.EqualError(t, err, "unknown blob driver ftp")
}

func TestSlotRoundTripOverBlobStore(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, Options{Driver: DriverMemory})
	require.NoError(t, err)
	slot := NewSlot(store)

	got, err := slot.Load(ctx, "chv_offline_data")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, slot.Save(ctx, "chv_offline_data", []byte(`{"v":1}`)))
	require.NoError(t, slot.Save(ctx, "chv_offline_data", []byte(`{"v":2}`)))
	got, err = slot.Load(ctx, "chv_offline_data")
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":2}`, string(got))

	info, err := store.Head(ctx, "snapshots/chv_offline_data.json")
	require.NoError(t, err)
	assert.Equal(t, "application/json", info.ContentType)
}
