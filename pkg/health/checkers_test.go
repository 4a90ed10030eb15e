package health

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePinger struct {
	err error
}

func (f *fakePinger) Ping(_ context.Context) error { return f.err }

func TestDatabasePingCheck(t *testing.T) {
	check := DatabasePingCheck(&fakePinger{})
	require.NoError(t, check(context.Background()))
}

func TestDatabasePingCheck_Error(t *testing.T) {
	check := DatabasePingCheck(&fakePinger{err: errors.New("connection refused")})

	err := check(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ping database")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestGoroutineCountCheck(t *testing.T) {
	require.NoError(t, GoroutineCountCheck(1_000_000)(context.Background()))
	require.Error(t, GoroutineCountCheck(0)(context.Background()))
}

func TestGCMaxPauseCheck(t *testing.T) {
	require.NoError(t, GCMaxPauseCheck(time.Hour)(context.Background()))
}
