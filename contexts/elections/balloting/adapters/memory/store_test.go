package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"agora/contexts/elections/balloting/domain/entities"
	domainerrors "agora/contexts/elections/balloting/domain/errors"
)

func newStore() *Store {
	return NewStore(Seed{
		Voters: []entities.Voter{
			{VoterID: "voter-1", Verified: true},
			{VoterID: "voter-2", Verified: false},
		},
		Candidates: []entities.Candidate{{CandidateID: "c1", FullName: "Ada", Position: "President"}},
	})
}

func TestClaimVoterIsOneShot(t *testing.T) {
	store := newStore()
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	claimed, err := store.ClaimVoter(ctx, "voter-1", now)
	if err != nil || !claimed {
		t.Fatalf("expected first claim to win, got claimed=%v err=%v", claimed, err)
	}
	claimed, err = store.ClaimVoter(ctx, "voter-1", now)
	if err != nil || claimed {
		t.Fatalf("expected second claim to lose, got claimed=%v err=%v", claimed, err)
	}
	claimed, _ = store.ClaimVoter(ctx, "voter-2", now)
	if claimed {
		t.Fatalf("unverified voter must not be claimable")
	}
}

func TestEnqueueIsIdempotentWhileOpen(t *testing.T) {
	store := newStore()
	ctx := context.Background()

	first, created, err := store.EnqueueReconciliation(ctx, entities.ReconciliationItem{
		ItemID: "item-1", VoterID: "voter-1", Status: entities.ReconciliationPending,
	})
	if err != nil || !created {
		t.Fatalf("expected item to be created, got created=%v err=%v", created, err)
	}
	again, created, err := store.EnqueueReconciliation(ctx, entities.ReconciliationItem{
		ItemID: "item-2", VoterID: "voter-1", Status: entities.ReconciliationPending,
	})
	if err != nil || created {
		t.Fatalf("expected existing item, got created=%v err=%v", created, err)
	}
	if again.ItemID != first.ItemID {
		t.Fatalf("expected open item %s, got %s", first.ItemID, again.ItemID)
	}
}

func TestClaimRecoverySerializes(t *testing.T) {
	store := newStore()
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	if _, err := store.ClaimRecovery(ctx, "voter-1", now, now.Add(-time.Minute)); !errors.Is(err, domainerrors.ErrNoClaimedBallot) {
		t.Fatalf("expected ErrNoClaimedBallot without an item, got %v", err)
	}
	_, _, _ = store.EnqueueReconciliation(ctx, entities.ReconciliationItem{
		ItemID: "item-1", VoterID: "voter-1", Status: entities.ReconciliationPending,
	})

	item, err := store.ClaimRecovery(ctx, "voter-1", now, now.Add(-time.Minute))
	if err != nil {
		t.Fatalf("claim recovery: %v", err)
	}
	if item.Status != entities.ReconciliationInProgress {
		t.Fatalf("expected in_progress, got %s", item.Status)
	}
	if _, err := store.ClaimRecovery(ctx, "voter-1", now, now.Add(-time.Minute)); !errors.Is(err, domainerrors.ErrRecoveryInProgress) {
		t.Fatalf("expected ErrRecoveryInProgress, got %v", err)
	}

	if err := store.ReleaseRecovery(ctx, item.ItemID, now); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, err := store.ClaimRecovery(ctx, "voter-1", now, now.Add(-time.Minute)); err != nil {
		t.Fatalf("expected released item to be claimable again, got %v", err)
	}
}

func TestClaimRecoveryTakesOverStaleClaim(t *testing.T) {
	store := newStore()
	ctx := context.Background()
	claimedAt := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	_, _, _ = store.EnqueueReconciliation(ctx, entities.ReconciliationItem{
		ItemID: "item-1", VoterID: "voter-1", Status: entities.ReconciliationPending,
	})
	if _, err := store.ClaimRecovery(ctx, "voter-1", claimedAt, claimedAt.Add(-time.Minute)); err != nil {
		t.Fatalf("claim recovery: %v", err)
	}

	later := claimedAt.Add(30 * time.Second)
	if _, err := store.ClaimRecovery(ctx, "voter-1", later, later.Add(-time.Minute)); !errors.Is(err, domainerrors.ErrRecoveryInProgress) {
		t.Fatalf("expected a live claim to be honoured, got %v", err)
	}

	later = claimedAt.Add(time.Hour)
	item, err := store.ClaimRecovery(ctx, "voter-1", later, later.Add(-time.Minute))
	if err != nil {
		t.Fatalf("expected stale claim to be taken over, got %v", err)
	}
	if item.ItemID != "item-1" || item.Status != entities.ReconciliationInProgress || !item.UpdatedAt.Equal(later) {
		t.Fatalf("unexpected taken over item %+v", item)
	}
}

func TestPersistBallotLinksThroughIssuanceOnly(t *testing.T) {
	store := newStore()
	ctx := context.Background()

	err := store.PersistBallot(ctx,
		entities.IssuanceRecord{Token: "tok", VoterID: "voter-1", IssuedAt: time.Now()},
		[]entities.Vote{{VoteID: "v1", IssuanceToken: "tok", CandidateID: "c1", Position: "President"}},
	)
	if err != nil {
		t.Fatalf("persist ballot: %v", err)
	}
	cast, err := store.HasCastBallot(ctx, "voter-1")
	if err != nil || !cast {
		t.Fatalf("expected ballot to be found via issuance log, got cast=%v err=%v", cast, err)
	}
	counts, _ := store.CountVotesByCandidate(ctx)
	if counts["c1"] != 1 {
		t.Fatalf("expected one vote row for c1, got %d", counts["c1"])
	}
}

func TestFaultInjectionBlocksPersistence(t *testing.T) {
	store := newStore()
	boom := errors.New("boom")
	store.Fail(OpPersistBallot, boom)

	err := store.PersistBallot(context.Background(),
		entities.IssuanceRecord{Token: "tok", VoterID: "voter-1"},
		[]entities.Vote{{VoteID: "v1", IssuanceToken: "tok", CandidateID: "c1"}},
	)
	if !errors.Is(err, boom) {
		t.Fatalf("expected injected fault, got %v", err)
	}
	if len(store.Votes()) != 0 || len(store.IssuanceRecords()) != 0 {
		t.Fatalf("expected nothing persisted")
	}
}
