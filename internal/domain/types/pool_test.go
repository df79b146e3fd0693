package types

import (
	"testing"
	"time"
)

func TestEffectiveStatus_ClosedIsAbsorbing(t *testing.T) {
	now := time.Now()
	p := Pool{Status: PoolStatusOpen, RevealDeadline: now.Add(time.Hour)}
	p.Status = PoolStatusClosed
	if got := p.EffectiveStatus(now); got != PoolStatusClosed {
		t.Fatalf("want closed, got %s", got)
	}
	// Closed stays closed even if now somehow precedes the reveal deadline.
	if got := p.EffectiveStatus(now.Add(-time.Hour)); got != PoolStatusClosed {
		t.Fatalf("want closed regardless of now, got %s", got)
	}
}

func TestEffectiveStatus_ClosesPastRevealDeadlineRegardlessOfStoredStatus(t *testing.T) {
	now := time.Now()
	p := Pool{Status: PoolStatusOpen, RevealDeadline: now.Add(-time.Minute)}
	if got := p.EffectiveStatus(now); got != PoolStatusClosed {
		t.Fatalf("want closed past reveal deadline, got %s", got)
	}
}

func TestEffectiveStatus_NoCommitDeadlineIsOpenUntilReveal(t *testing.T) {
	now := time.Now()
	p := Pool{Status: PoolStatusOpen, RevealDeadline: now.Add(time.Hour)}
	if got := p.EffectiveStatus(now); got != PoolStatusOpen {
		t.Fatalf("want open, got %s", got)
	}
}

func TestEffectiveStatus_CommitThenRevealThenClosed(t *testing.T) {
	now := time.Now()
	commit := now.Add(30 * time.Minute)
	reveal := now.Add(time.Hour)
	p := Pool{Status: PoolStatusCommit, CommitDeadline: &commit, RevealDeadline: reveal}

	if got := p.EffectiveStatus(now); got != PoolStatusCommit {
		t.Fatalf("before commit deadline: want commit, got %s", got)
	}
	if got := p.EffectiveStatus(now.Add(45 * time.Minute)); got != PoolStatusReveal {
		t.Fatalf("between deadlines: want reveal, got %s", got)
	}
	if got := p.EffectiveStatus(now.Add(2 * time.Hour)); got != PoolStatusClosed {
		t.Fatalf("past reveal deadline: want closed, got %s", got)
	}
}

func TestEffectiveStatus_IsPureFunctionOfInputs(t *testing.T) {
	commit := time.Now().Add(30 * time.Minute)
	reveal := time.Now().Add(time.Hour)
	p := Pool{Status: PoolStatusCommit, CommitDeadline: &commit, RevealDeadline: reveal}
	at := time.Now().Add(10 * time.Minute)

	first := p.EffectiveStatus(at)
	second := p.EffectiveStatus(at)
	if first != second {
		t.Fatalf("EffectiveStatus must be deterministic for identical inputs, got %s then %s", first, second)
	}
}
