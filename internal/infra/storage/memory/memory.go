package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/seqgate/internal/core/domain"
	"github.com/vietddude/seqgate/internal/infra/storage"
)

// MemoryStorage is an in-process journal. Entries are lost on exit.
type MemoryStorage struct {
	submissions map[string]*domain.Submission
	mu          sync.RWMutex
	now         func() time.Time
}

var _ storage.SubmissionRepository = (*MemoryStorage)(nil)

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		submissions: make(map[string]*domain.Submission),
		now:         time.Now,
	}
}

func key(network string, hash domain.TxHash) string {
	return network + "/" + string(hash)
}

func (m *MemoryStorage) Save(ctx context.Context, s *domain.Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now().UTC()
	cp := *s
	if existing, ok := m.submissions[key(s.Network, s.TxHash)]; ok {
		cp.ID = existing.ID
		cp.SubmittedAt = existing.SubmittedAt
	}
	if cp.ID == "" {
		cp.ID = uuid.NewString()
	}
	if cp.SubmittedAt.IsZero() {
		cp.SubmittedAt = now
	}
	cp.UpdatedAt = now
	m.submissions[key(s.Network, s.TxHash)] = &cp

	s.ID, s.SubmittedAt, s.UpdatedAt = cp.ID, cp.SubmittedAt, cp.UpdatedAt
	return nil
}

func (m *MemoryStorage) UpdateStatus(
	ctx context.Context,
	network string,
	hash domain.TxHash,
	status domain.TxStatus,
	reason string,
) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.submissions[key(network, hash)]
	if !ok {
		return storage.ErrSubmissionNotFound
	}
	s.Status = status
	s.FailureReason = reason
	s.UpdatedAt = m.now().UTC()
	return nil
}

func (m *MemoryStorage) GetByHash(
	ctx context.Context,
	network string,
	hash domain.TxHash,
) (*domain.Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.submissions[key(network, hash)]
	if !ok {
		return nil, storage.ErrSubmissionNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *MemoryStorage) List(ctx context.Context, network string, limit int) ([]*domain.Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if limit <= 0 {
		limit = storage.DefaultListLimit
	}
	out := make([]*domain.Submission, 0, len(m.submissions))
	for _, s := range m.submissions {
		if network != "" && s.Network != network {
			continue
		}
		cp := *s
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].SubmittedAt.After(out[j].SubmittedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStorage) Close() error {
	return nil
}
