package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeKV struct {
	data    map[string]string
	failSet error
	failGet error
	lastTTL time.Duration
}

func newFakeKV() *fakeKV { return &fakeKV{data: map[string]string{}} }

func (f *fakeKV) Get(_ context.Context, key string) *redis.StringCmd {
	if f.failGet != nil {
		return redis.NewStringResult("", f.failGet)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeKV) Set(_ context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	if f.failSet != nil {
		return redis.NewStatusResult("", f.failSet)
	}
	f.lastTTL = expiration
	f.data[key] = string(value.([]byte))
	return redis.NewStatusResult("OK", nil)
}

func TestSlotRoundTripUsesPrefix(t *testing.T) {
	ctx := context.Background()
	kv := newFakeKV()
	s := New(kv, WithPrefix("test:"))

	require.NoError(t, s.Save(ctx, "chv_offline_data", []byte(`{"v":1}`)))
	assert.Contains(t, kv.data, "test:chv_offline_data")
	assert.Zero(t, kv.lastTTL)

	got, err := s.Load(ctx, "chv_offline_data")
	require.NoError(t, err)
	assert.Equal(t, `{"v":1}`, string(got))
}

func TestLoadMissingKeyReturnsNil(t *testing.T) {
	s := New(newFakeKV())
	got, err := s.Load(context.Background(), "absent")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestErrorsAreWrapped(t *testing.T) {
	kv := newFakeKV()
	kv.failSet = errors.New("READONLY")
	kv.failGet = errors.New("LOADING")
	s := New(kv)

	err := s.Save(context.Background(), "k", []byte("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis set k")

	_, err = s.Load(context.Background(), "k")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LOADING")
	assert.NoError(t, s.Close())
}

func TestOpenRejectsBadURL(t *testing.T) {
	_, err := Open(context.Background(), "")
	require.Error(t, err)
	_, err = Open(context.Background(), "not-a-url://")
	require.Error(t, err)
}
