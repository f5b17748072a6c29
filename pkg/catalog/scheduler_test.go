package catalog

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingSource serves a fixed document and counts fetches
type countingSource struct {
	fetches atomic.Int32
}

func (s *countingSource) Fetch(ctx context.Context) ([]byte, error) {
	s.fetches.Add(1)
	return []byte(`{"schools":[{"id":1,"name":"Scheduled"}]}`), nil
}

func (s *countingSource) String() string {
	return "counting"
}

func TestNewSchedulerRejectsBadSpec(t *testing.T) {
	store, err := NewStore(context.Background(), &countingSource{}, WithStoreLogger(quietLogger()))
	require.NoError(t, err)

	for _, spec := range []string{"", "every minute", "* * *", "@every soon"} {
		_, err := NewScheduler(store, spec, quietLogger())
		assert.Error(t, err, spec)
	}

	_, err = NewScheduler(store, "*/5 * * * *", quietLogger())
	assert.NoError(t, err)
}

func TestSchedulerReloads(t *testing.T) {
	src := &countingSource{}
	store, err := NewStore(context.Background(), src, WithStoreLogger(quietLogger()))
	require.NoError(t, err)
	require.Equal(t, int32(1), src.fetches.Load())

	scheduler, err := NewScheduler(store, "@every 1s", quietLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- scheduler.Run(ctx) }()

	assert.Eventually(t, func() bool {
		return src.fetches.Load() >= 2
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}
