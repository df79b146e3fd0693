package submission_test

import (
	"context"
	"testing"
	"time"

	"github.com/flammafex/rendezvous/internal/clock"
	"github.com/flammafex/rendezvous/internal/crypto"
	"github.com/flammafex/rendezvous/internal/store/memory"
	"github.com/flammafex/rendezvous/internal/submission"

	types "github.com/flammafex/rendezvous/internal/domain/types"
)

func openPool(t *testing.T, st *memory.Store, now time.Time) types.Pool {
	t.Helper()
	var id types.PoolID
	id[0] = 1
	p := types.Pool{
		ID:             id,
		Name:           "test pool",
		RevealDeadline: now.Add(time.Hour),
		Status:         types.PoolStatusOpen,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := st.InsertPool(context.Background(), p); err != nil {
		t.Fatalf("InsertPool: %v", err)
	}
	return p
}

func TestSubmit_DirectPhaseStoresRevealedTokensPlusDecoys(t *testing.T) {
	now := time.Unix(1700000000, 0)
	st := memory.New()
	p := openPool(t, st, now)
	mgr := submission.New(st, clock.Fixed{At: now})

	tok, _ := crypto.RandomMatchToken()
	var nullifier types.Nullifier
	nullifier[0] = 9

	err := mgr.Submit(context.Background(), types.SubmitRequest{
		PoolID:    p.ID,
		Tokens:    []types.MatchToken{tok},
		Nullifier: nullifier,
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	prefs, err := st.ListByNullifier(context.Background(), p.ID, nullifier)
	if err != nil {
		t.Fatalf("ListByNullifier: %v", err)
	}
	if len(prefs) < 1+3 || len(prefs) > 1+8 {
		t.Fatalf("want 1 real + [3,8] decoys, got %d preferences", len(prefs))
	}
	for _, pref := range prefs {
		if !pref.Revealed {
			t.Fatal("direct-phase preferences must be stored revealed=true")
		}
	}
}

func TestSubmit_RejectsDuplicateNullifier(t *testing.T) {
	now := time.Unix(1700000000, 0)
	st := memory.New()
	p := openPool(t, st, now)
	mgr := submission.New(st, clock.Fixed{At: now})

	tok, _ := crypto.RandomMatchToken()
	var nullifier types.Nullifier
	nullifier[0] = 3

	req := types.SubmitRequest{PoolID: p.ID, Tokens: []types.MatchToken{tok}, Nullifier: nullifier}
	if err := mgr.Submit(context.Background(), req); err != nil {
		t.Fatalf("first Submit: %v", err)
	}
	if err := mgr.Submit(context.Background(), req); err == nil {
		t.Fatal("expected duplicate-nullifier rejection on second submission")
	}
}

func TestSubmit_RejectsOverPreferenceLimit(t *testing.T) {
	now := time.Unix(1700000000, 0)
	st := memory.New()
	p := openPool(t, st, now)
	limit := 1
	p.MaxPreferences = &limit
	if err := st.UpdatePool(context.Background(), p); err != nil {
		t.Fatalf("UpdatePool: %v", err)
	}
	mgr := submission.New(st, clock.Fixed{At: now})

	tokA, _ := crypto.RandomMatchToken()
	tokB, _ := crypto.RandomMatchToken()
	var nullifier types.Nullifier
	nullifier[0] = 4

	err := mgr.Submit(context.Background(), types.SubmitRequest{
		PoolID:    p.ID,
		Tokens:    []types.MatchToken{tokA, tokB},
		Nullifier: nullifier,
	})
	if err == nil {
		t.Fatal("expected preference-limit rejection")
	}
}

func TestSubmitReveal_CommitPhaseRoundTrip(t *testing.T) {
	now := time.Unix(1700000000, 0)
	st := memory.New()

	var id types.PoolID
	id[0] = 2
	commitDeadline := now.Add(30 * time.Minute)
	p := types.Pool{
		ID:             id,
		Name:           "commit pool",
		CommitDeadline: &commitDeadline,
		RevealDeadline: now.Add(time.Hour),
		Status:         types.PoolStatusCommit,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := st.InsertPool(context.Background(), p); err != nil {
		t.Fatalf("InsertPool: %v", err)
	}

	tok, _ := crypto.RandomMatchToken()
	var nullifier types.Nullifier
	nullifier[0] = 5

	mgrAtCommit := submission.New(st, clock.Fixed{At: now})
	err := mgrAtCommit.Submit(context.Background(), types.SubmitRequest{
		PoolID:    p.ID,
		Tokens:    []types.MatchToken{tok},
		Nullifier: nullifier,
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	prefs, _ := st.ListByNullifier(context.Background(), p.ID, nullifier)
	for _, pref := range prefs {
		if pref.Revealed {
			t.Fatal("commit-phase preferences must start unrevealed")
		}
	}

	revealTime := now.Add(45 * time.Minute)
	mgrAtReveal := submission.New(st, clock.Fixed{At: revealTime})
	err = mgrAtReveal.Reveal(context.Background(), types.RevealRequest{
		PoolID:    p.ID,
		Tokens:    []types.MatchToken{tok},
		Nullifier: nullifier,
	})
	if err != nil {
		t.Fatalf("Reveal: %v", err)
	}

	prefs, _ = st.ListByNullifier(context.Background(), p.ID, nullifier)
	for _, pref := range prefs {
		if !pref.Revealed {
			t.Fatal("every preference, including decoys, must be revealed after Reveal")
		}
	}
}

func TestReveal_RejectsTokenWithNoMatchingCommitment(t *testing.T) {
	now := time.Unix(1700000000, 0)
	st := memory.New()

	var id types.PoolID
	id[0] = 6
	commitDeadline := now.Add(30 * time.Minute)
	p := types.Pool{
		ID:             id,
		Name:           "commit pool",
		CommitDeadline: &commitDeadline,
		RevealDeadline: now.Add(time.Hour),
		Status:         types.PoolStatusCommit,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := st.InsertPool(context.Background(), p); err != nil {
		t.Fatalf("InsertPool: %v", err)
	}

	tok, _ := crypto.RandomMatchToken()
	other, _ := crypto.RandomMatchToken()
	var nullifier types.Nullifier
	nullifier[0] = 7

	mgr := submission.New(st, clock.Fixed{At: now})
	if err := mgr.Submit(context.Background(), types.SubmitRequest{
		PoolID:    p.ID,
		Tokens:    []types.MatchToken{tok},
		Nullifier: nullifier,
	}); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	mgrAtReveal := submission.New(st, clock.Fixed{At: now.Add(45 * time.Minute)})
	err := mgrAtReveal.Reveal(context.Background(), types.RevealRequest{
		PoolID:    p.ID,
		Tokens:    []types.MatchToken{other},
		Nullifier: nullifier,
	})
	if err == nil {
		t.Fatal("expected commitment-mismatch rejection")
	}
}
