package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-proxy-api/internal/models"
	"github.com/noah-isme/sma-proxy-api/pkg/jobs"
)

type flakyAuditStore struct {
	mu       sync.Mutex
	failures int
	attempts int
	written  []models.AuditLog
}

func (s *flakyAuditStore) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts++
	if s.failures > 0 {
		s.failures--
		return errors.New("connection reset")
	}
	s.written = append(s.written, *log)
	return nil
}

func (s *flakyAuditStore) snapshot() ([]models.AuditLog, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.AuditLog(nil), s.written...), s.attempts
}

func TestAuditDispatcherRetriesUntilWritten(t *testing.T) {
	store := &flakyAuditStore{failures: 2}
	dispatcher := NewAuditDispatcher(store, jobs.QueueConfig{Workers: 1, BufferSize: 4, MaxRetries: 3, RetryDelay: 5 * time.Millisecond})
	dispatcher.Start(context.Background())
	defer dispatcher.Stop()

	entry := &models.AuditLog{Action: models.AuditActionProxyCommit, Resource: proxyResource}
	require.NoError(t, dispatcher.CreateAuditLog(context.Background(), entry))
	assert.NotEmpty(t, entry.ID)
	assert.False(t, entry.CreatedAt.IsZero())

	require.Eventually(t, func() bool {
		written, _ := store.snapshot()
		return len(written) == 1
	}, time.Second, 5*time.Millisecond)

	written, attempts := store.snapshot()
	assert.Equal(t, entry.ID, written[0].ID)
	assert.Equal(t, 3, attempts)
}

func TestAuditDispatcherWritesInlineWhenStopped(t *testing.T) {
	store := &flakyAuditStore{}
	dispatcher := NewAuditDispatcher(store, jobs.QueueConfig{})

	require.NoError(t, dispatcher.CreateAuditLog(context.Background(), &models.AuditLog{Action: models.AuditActionProxyDelete}))

	written, _ := store.snapshot()
	require.Len(t, written, 1)
	assert.Equal(t, models.AuditActionProxyDelete, written[0].Action)
}

func TestAuditDispatcherStopFlushesBuffer(t *testing.T) {
	store := &flakyAuditStore{}
	dispatcher := NewAuditDispatcher(store, jobs.QueueConfig{Workers: 1, BufferSize: 8})
	dispatcher.Start(context.Background())

	for i := 0; i < 5; i++ {
		require.NoError(t, dispatcher.CreateAuditLog(context.Background(), &models.AuditLog{Action: models.AuditActionProxyCommit}))
	}
	dispatcher.Stop()

	written, _ := store.snapshot()
	assert.Len(t, written, 5)
}
