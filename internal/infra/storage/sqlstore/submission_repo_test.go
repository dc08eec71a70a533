package sqlstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vietddude/seqgate/internal/core/domain"
	"github.com/vietddude/seqgate/internal/infra/storage"
)

func newTestRepo(t *testing.T) (*SubmissionRepo, *time.Time) {
	t.Helper()
	clock := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	repo := NewSubmissionRepo(openTestDB(t))
	repo.now = func() time.Time { return clock }
	return repo, &clock
}

func TestSubmissionRepo_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)

	s := &domain.Submission{
		Network:         "devnet",
		Kind:            domain.SubmissionKindDeploy,
		TxHash:          "0x6d1e",
		ContractAddress: "0x4a2",
		Status:          domain.TxStatusReceived,
	}
	if err := repo.Save(ctx, s); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if s.ID == "" {
		t.Fatal("Save should assign an id")
	}

	got, err := repo.GetByHash(ctx, "devnet", "0x6d1e")
	if err != nil {
		t.Fatalf("GetByHash: %v", err)
	}
	if got.ID != s.ID || got.Kind != domain.SubmissionKindDeploy || got.ContractAddress != "0x4a2" {
		t.Errorf("unexpected row %+v", got)
	}
	if got.Status != domain.TxStatusReceived {
		t.Errorf("expected RECEIVED, got %s", got.Status)
	}
	if got.SubmittedAt.IsZero() {
		t.Error("submitted_at not stored")
	}
}

func TestSubmissionRepo_GetMissing(t *testing.T) {
	repo, _ := newTestRepo(t)
	_, err := repo.GetByHash(context.Background(), "devnet", "0xdead")
	if !errors.Is(err, storage.ErrSubmissionNotFound) {
		t.Errorf("expected ErrSubmissionNotFound, got %v", err)
	}
}

func TestSubmissionRepo_UpsertKeepsIdentity(t *testing.T) {
	ctx := context.Background()
	repo, clock := newTestRepo(t)

	first := &domain.Submission{Network: "devnet", Kind: domain.SubmissionKindInvoke, TxHash: "0x1", Status: domain.TxStatusReceived}
	if err := repo.Save(ctx, first); err != nil {
		t.Fatal(err)
	}
	*clock = clock.Add(time.Minute)

	second := &domain.Submission{
		Network:    "devnet",
		Kind:       domain.SubmissionKindInvoke,
		TxHash:     "0x1",
		EntryPoint: "transfer",
		Status:     domain.TxStatusPending,
	}
	if err := repo.Save(ctx, second); err != nil {
		t.Fatal(err)
	}
	if second.ID != first.ID {
		t.Errorf("expected id %s to survive upsert, got %s", first.ID, second.ID)
	}

	got, _ := repo.GetByHash(ctx, "devnet", "0x1")
	if got.Status != domain.TxStatusPending || got.EntryPoint != "transfer" {
		t.Errorf("upsert did not update row: %+v", got)
	}
	if !got.UpdatedAt.After(got.SubmittedAt) {
		t.Errorf("updated_at %v should be after submitted_at %v", got.UpdatedAt, got.SubmittedAt)
	}
}

func TestSubmissionRepo_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)

	err := repo.UpdateStatus(ctx, "devnet", "0x2", domain.TxStatusAcceptedOnL2, "")
	if !errors.Is(err, storage.ErrSubmissionNotFound) {
		t.Fatalf("expected ErrSubmissionNotFound, got %v", err)
	}

	_ = repo.Save(ctx, &domain.Submission{Network: "devnet", Kind: domain.SubmissionKindInvoke, TxHash: "0x2", Status: domain.TxStatusReceived})
	if err := repo.UpdateStatus(ctx, "devnet", "0x2", domain.TxStatusRejected, "ENTRY_POINT_NOT_FOUND_IN_CONTRACT"); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	got, _ := repo.GetByHash(ctx, "devnet", "0x2")
	if got.Status != domain.TxStatusRejected || got.FailureReason != "ENTRY_POINT_NOT_FOUND_IN_CONTRACT" {
		t.Errorf("status not recorded: %+v", got)
	}
}

func TestSubmissionRepo_List(t *testing.T) {
	ctx := context.Background()
	repo, clock := newTestRepo(t)

	entries := []struct {
		network string
		hash    domain.TxHash
	}{
		{"devnet", "0xa"},
		{"goerli-alpha", "0xb"},
		{"devnet", "0xc"},
	}
	for _, e := range entries {
		if err := repo.Save(ctx, &domain.Submission{Network: e.network, Kind: domain.SubmissionKindInvoke, TxHash: e.hash, Status: domain.TxStatusReceived}); err != nil {
			t.Fatal(err)
		}
		*clock = clock.Add(time.Second)
	}

	all, err := repo.List(ctx, "", 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 || all[0].TxHash != "0xc" || all[2].TxHash != "0xa" {
		t.Fatalf("expected newest first, got %v", hashes(all))
	}

	devnet, _ := repo.List(ctx, "devnet", 10)
	if len(devnet) != 2 {
		t.Errorf("expected 2 devnet rows, got %v", hashes(devnet))
	}

	one, _ := repo.List(ctx, "", 1)
	if len(one) != 1 || one[0].TxHash != "0xc" {
		t.Errorf("limit not applied: %v", hashes(one))
	}
}

func hashes(subs []*domain.Submission) []domain.TxHash {
	out := make([]domain.TxHash, len(subs))
	for i, s := range subs {
		out[i] = s.TxHash
	}
	return out
}
