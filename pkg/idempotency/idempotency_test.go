package idempotency

import (
	"context"
	"errors"
	"testing"

	"github.com/hushnetwork-social/hush-node/pkg/ids"
)

type fakeStorage struct {
	existing map[ids.FeedMessageId]bool
	err      error
}

func (f *fakeStorage) MessageExists(_ context.Context, id ids.FeedMessageId) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.existing[id], nil
}

func TestGate_Check_AcceptsUnknownMessage(t *testing.T) {
	g := New(&fakeStorage{existing: map[ids.FeedMessageId]bool{}}, nil)
	id := ids.NewFeedMessageId()

	if got := g.Check(context.Background(), id); got != Accepted {
		t.Errorf("expected Accepted, got %s", got)
	}
}

func TestGate_Check_AlreadyExistsWhenStorageHasIt(t *testing.T) {
	id := ids.NewFeedMessageId()
	g := New(&fakeStorage{existing: map[ids.FeedMessageId]bool{id: true}}, nil)

	if got := g.Check(context.Background(), id); got != AlreadyExists {
		t.Errorf("expected AlreadyExists, got %s", got)
	}
}

func TestGate_Check_PendingWhileInFlight(t *testing.T) {
	id := ids.NewFeedMessageId()
	g := New(&fakeStorage{existing: map[ids.FeedMessageId]bool{}}, nil)

	if !g.TryTrack(id) {
		t.Fatal("expected TryTrack to succeed for an untracked id")
	}
	if got := g.Check(context.Background(), id); got != Pending {
		t.Errorf("expected Pending for an in-flight id, got %s", got)
	}
}

func TestGate_Check_RejectedOnStorageFailure(t *testing.T) {
	g := New(&fakeStorage{err: errors.New("connection refused")}, nil)
	id := ids.NewFeedMessageId()

	if got := g.Check(context.Background(), id); got != Rejected {
		t.Errorf("expected Rejected on storage failure (fail-closed), got %s", got)
	}
}

func TestGate_TryTrack_SecondCallerLoses(t *testing.T) {
	g := New(&fakeStorage{existing: map[ids.FeedMessageId]bool{}}, nil)
	id := ids.NewFeedMessageId()

	if !g.TryTrack(id) {
		t.Fatal("expected first TryTrack to succeed")
	}
	if g.TryTrack(id) {
		t.Error("expected second TryTrack for the same id to fail")
	}
}

func TestGate_RemoveFromTracking_AllowsReacquisition(t *testing.T) {
	g := New(&fakeStorage{existing: map[ids.FeedMessageId]bool{}}, nil)
	id := ids.NewFeedMessageId()

	g.TryTrack(id)
	g.RemoveFromTracking([]ids.FeedMessageId{id})

	if !g.TryTrack(id) {
		t.Error("expected TryTrack to succeed again after RemoveFromTracking")
	}
}
