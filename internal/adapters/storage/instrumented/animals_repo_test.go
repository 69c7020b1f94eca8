package instrumented

import (
	"context"
	"errors"
	"testing"
	"time"

	"companion-connect/internal/adapters/storage/memory"
	"companion-connect/internal/domain/animals"
	"companion-connect/internal/platform/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type slowRepo struct {
	animals.Repository
}

func (slowRepo) Get(ctx context.Context, _ int64) (animals.Record, error) {
	<-ctx.Done()
	return animals.Record{}, animals.Unavailable(ctx.Err())
}

func TestAnimalsRepo_CountsOperations(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := metrics.NewStoreMetrics(reg, "memory")
	require.NoError(t, err)

	repo := New(memory.NewAnimalRepo(0), m, nil, 0)
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, animals.Record{ID: 1, Name: "Toby"}))
	_, err = repo.Get(ctx, 1)
	require.NoError(t, err)

	// not found no cuenta como error
	_, err = repo.Get(ctx, 2)
	assert.ErrorIs(t, err, animals.ErrNotFound)

	err = repo.Put(ctx, animals.Record{ID: 0})
	assert.ErrorIs(t, err, animals.ErrWriteRejected)

	count, err := testutil.GatherAndCount(reg, "animals_store_operations_total")
	require.NoError(t, err)
	assert.Equal(t, 3, count) // put/success, get/success, put/error
}

func TestAnimalsRepo_AppliesTimeout(t *testing.T) {
	repo := New(slowRepo{}, nil, nil, 10*time.Millisecond)

	_, err := repo.Get(context.Background(), 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, animals.ErrStoreUnavailable)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}
