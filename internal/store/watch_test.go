package store

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pcubed/gradeboard/internal/models"
	"github.com/pcubed/gradeboard/pkg/logger"
)

type scriptedSource struct {
	emissions []func() (models.Snapshot, error)
	i         int
	stopped   bool
}

func (s *scriptedSource) Next() (models.Snapshot, error) {
	if s.i >= len(s.emissions) {
		return nil, errors.New("listener closed")
	}
	next := s.emissions[s.i]
	s.i++
	return next()
}

func (s *scriptedSource) Stop() { s.stopped = true }

func emit(snap models.Snapshot) func() (models.Snapshot, error) {
	return func() (models.Snapshot, error) { return snap, nil }
}

func fail(err error) func() (models.Snapshot, error) {
	return func() (models.Snapshot, error) { return nil, err }
}

func TestWatchSurvivesSnapshotReadFailure(t *testing.T) {
	src := &scriptedSource{emissions: []func() (models.Snapshot, error){
		emit(models.Snapshot{{ID: "d1", Status: models.StatusUploaded}}),
		fail(fmt.Errorf("%w: transient backend error", errSnapshotRead)),
		emit(models.Snapshot{
			{ID: "d1", Status: models.StatusExtracted},
			{ID: "d2", Status: models.StatusUploaded},
		}),
	}}
	s := &Store{log: logger.NewTestLogger()}
	out := make(chan models.Snapshot, 1)

	s.watch(context.Background(), "users/u1/documents", src, out)

	// The emission after the read failure was still delivered; latest-wins
	// keeps only the most recent one.
	snap, ok := <-out
	require.True(t, ok)
	assert.Len(t, snap, 2)

	_, ok = <-out
	assert.False(t, ok)
	assert.True(t, src.stopped)
}

func TestWatchClosesOnListenerFailure(t *testing.T) {
	src := &scriptedSource{emissions: []func() (models.Snapshot, error){
		fail(errors.New("rpc error")),
	}}
	s := &Store{log: logger.NewTestLogger()}
	out := make(chan models.Snapshot, 1)

	s.watch(context.Background(), "users/u1/documents", src, out)

	_, ok := <-out
	assert.False(t, ok)
	assert.True(t, src.stopped)
}

func TestWatchDropsStaleSnapshot(t *testing.T) {
	src := &scriptedSource{emissions: []func() (models.Snapshot, error){
		emit(models.Snapshot{{ID: "d1", Status: models.StatusUploaded}}),
		emit(models.Snapshot{{ID: "d1", Status: models.StatusProcessed}}),
	}}
	s := &Store{log: logger.NewTestLogger()}
	out := make(chan models.Snapshot, 1)

	s.watch(context.Background(), "users/u1/documents", src, out)

	snap := <-out
	require.Len(t, snap, 1)
	assert.Equal(t, models.StatusProcessed, snap[0].Status)
}
