package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/flammafex/rendezvous/internal/store/memory"

	types "github.com/flammafex/rendezvous/internal/domain/types"
)

func TestInsertPreferences_RejectsDuplicateNullifier(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	var poolID types.PoolID
	poolID[0] = 1
	var nullifier types.Nullifier
	nullifier[0] = 2

	prefs := []types.Preference{{PoolID: poolID, Nullifier: nullifier, SubmittedAt: time.Now()}}
	if err := s.InsertPreferences(ctx, poolID, nullifier, prefs); err != nil {
		t.Fatalf("first InsertPreferences: %v", err)
	}
	if err := s.InsertPreferences(ctx, poolID, nullifier, prefs); err == nil {
		t.Fatal("expected duplicate nullifier rejection")
	}
}

func TestCountTokenOccurrences_OnlyCountsRevealed(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	var poolID types.PoolID
	poolID[0] = 3
	var tok types.MatchToken
	tok[0] = 9

	var n1, n2 types.Nullifier
	n1[0], n2[0] = 4, 5

	if err := s.InsertPreferences(ctx, poolID, n1, []types.Preference{
		{PoolID: poolID, Nullifier: n1, Token: tok, SubmittedAt: time.Now()},
	}); err != nil {
		t.Fatalf("insert n1: %v", err)
	}
	if err := s.InsertPreferences(ctx, poolID, n2, []types.Preference{
		{PoolID: poolID, Nullifier: n2, Token: tok, SubmittedAt: time.Now()},
	}); err != nil {
		t.Fatalf("insert n2: %v", err)
	}

	counts, err := s.CountTokenOccurrences(ctx, poolID)
	if err != nil {
		t.Fatalf("CountTokenOccurrences: %v", err)
	}
	if counts[tok] != 0 {
		t.Fatalf("unrevealed tokens must not be counted, got %d", counts[tok])
	}

	if err := s.MarkRevealed(ctx, poolID, n1, tok, nil); err != nil {
		t.Fatalf("MarkRevealed n1: %v", err)
	}
	if err := s.MarkRevealed(ctx, poolID, n2, tok, nil); err != nil {
		t.Fatalf("MarkRevealed n2: %v", err)
	}

	counts, err = s.CountTokenOccurrences(ctx, poolID)
	if err != nil {
		t.Fatalf("CountTokenOccurrences after reveal: %v", err)
	}
	if counts[tok] != 2 {
		t.Fatalf("want 2 occurrences after both reveal, got %d", counts[tok])
	}
}

func TestInsertMatchResult_IdempotentUpsertIfAbsent(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	var poolID types.PoolID
	poolID[0] = 6

	first := types.MatchResult{PoolID: poolID, TotalSubmissions: 4}
	got, inserted, err := s.InsertMatchResult(ctx, first)
	if err != nil {
		t.Fatalf("InsertMatchResult first: %v", err)
	}
	if !inserted || got.TotalSubmissions != 4 {
		t.Fatalf("first insert should report inserted=true, got inserted=%v result=%+v", inserted, got)
	}

	second := types.MatchResult{PoolID: poolID, TotalSubmissions: 99}
	got, inserted, err = s.InsertMatchResult(ctx, second)
	if err != nil {
		t.Fatalf("InsertMatchResult second: %v", err)
	}
	if inserted {
		t.Fatal("second insert for the same pool must report inserted=false")
	}
	if got.TotalSubmissions != 4 {
		t.Fatalf("second insert must not overwrite; got %+v", got)
	}
}
