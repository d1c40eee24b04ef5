package membackend

import (
	"context"
	"testing"
	"time"
)

func TestStringRoundTrip(t *testing.T) {
	b := New()
	ctx := context.Background()

	if err := b.SetWithTTL(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("SetWithTTL: %v", err)
	}
	value, ok, err := b.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok || value != "v" {
		t.Fatalf("got (%q, %v), want (%q, true)", value, ok, "v")
	}
}

func TestStringExpires(t *testing.T) {
	b := New()
	ctx := context.Background()

	if err := b.SetWithTTL(ctx, "k", "v", -time.Second); err != nil {
		t.Fatalf("SetWithTTL: %v", err)
	}
	_, ok, err := b.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Fatal("expected expired key to be absent")
	}
}

func TestListPushAndRange(t *testing.T) {
	b := New()
	ctx := context.Background()

	for _, v := range []string{"a", "b", "c"} {
		if err := b.ListPushRight(ctx, "l", v); err != nil {
			t.Fatalf("ListPushRight: %v", err)
		}
	}

	got, err := b.ListRange(ctx, "l", 0, -1)
	if err != nil {
		t.Fatalf("ListRange: %v", err)
	}
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestSetOperations(t *testing.T) {
	b := New()
	ctx := context.Background()

	if err := b.SetAdd(ctx, "s", "x"); err != nil {
		t.Fatalf("SetAdd: %v", err)
	}
	if err := b.SetAdd(ctx, "s", "y"); err != nil {
		t.Fatalf("SetAdd: %v", err)
	}

	card, err := b.SetCardinality(ctx, "s")
	if err != nil {
		t.Fatalf("SetCardinality: %v", err)
	}
	if card != 2 {
		t.Fatalf("got cardinality %d, want 2", card)
	}

	contains, err := b.SetContains(ctx, "s", "x")
	if err != nil {
		t.Fatalf("SetContains: %v", err)
	}
	if !contains {
		t.Fatal("expected set to contain x")
	}

	contains, err = b.SetContains(ctx, "s", "z")
	if err != nil {
		t.Fatalf("SetContains: %v", err)
	}
	if contains {
		t.Fatal("expected set to not contain z")
	}
}

func TestSortedSetRanking(t *testing.T) {
	b := New()
	ctx := context.Background()

	if err := b.SortedSetAdd(ctx, "z", "first", 1); err != nil {
		t.Fatalf("SortedSetAdd: %v", err)
	}
	if err := b.SortedSetAdd(ctx, "z", "second", 2); err != nil {
		t.Fatalf("SortedSetAdd: %v", err)
	}
	if err := b.SortedSetAdd(ctx, "z", "third", 3); err != nil {
		t.Fatalf("SortedSetAdd: %v", err)
	}

	top, err := b.SortedSetRangeByRankDesc(ctx, "z", 0, 0)
	if err != nil {
		t.Fatalf("SortedSetRangeByRankDesc: %v", err)
	}
	if len(top) != 1 || top[0] != "third" {
		t.Fatalf("got %v, want [third]", top)
	}

	byScore, err := b.SortedSetRangeByScore(ctx, "z", 1, 2)
	if err != nil {
		t.Fatalf("SortedSetRangeByScore: %v", err)
	}
	if len(byScore) != 2 || byScore[0] != "first" || byScore[1] != "second" {
		t.Fatalf("got %v, want [first second]", byScore)
	}
}

func TestIncrement(t *testing.T) {
	b := New()
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		n, err := b.Increment(ctx, "c")
		if err != nil {
			t.Fatalf("Increment: %v", err)
		}
		if n != int64(i) {
			t.Fatalf("got %d, want %d", n, i)
		}
	}
}

func TestIncrementAfterExpiryRestartsUnexpired(t *testing.T) {
	b := New()
	ctx := context.Background()

	if err := b.SetWithTTL(ctx, "c", "41", -time.Second); err != nil {
		t.Fatalf("SetWithTTL: %v", err)
	}

	n, err := b.Increment(ctx, "c")
	if err != nil {
		t.Fatalf("Increment: %v", err)
	}
	if n != 1 {
		t.Fatalf("got %d, want 1 (expired counter should restart from zero)", n)
	}

	value, ok, err := b.Get(ctx, "c")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok || value != "1" {
		t.Fatalf("got (%q, %v), want (\"1\", true): incremented key must not carry over the stale expiry", value, ok)
	}
}
