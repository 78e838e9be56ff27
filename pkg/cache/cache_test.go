package cache

import (
	"testing"
	"time"
)

func TestSetGet(t *testing.T) {
	s := New(time.Minute)
	defer s.Stop()

	if _, ok := s.Get(DomainProducts, "all"); ok {
		t.Fatal("hit on empty cache")
	}

	s.Set(DomainProducts, "all", "listing")
	got, ok := s.Get(DomainProducts, "all")
	if !ok {
		t.Fatal("miss after set")
	}
	if got != "listing" {
		t.Fatalf("got %v, want listing", got)
	}
}

func TestKeysAreScopedByDomain(t *testing.T) {
	s := New(time.Minute)
	defer s.Stop()

	s.Set(DomainProducts, "limito-snap", "product view")
	s.Set(DomainReservations, "limito-snap", "stock view")

	if got, _ := s.Get(DomainProducts, "limito-snap"); got != "product view" {
		t.Fatalf("products domain returned %v", got)
	}
	if got, _ := s.Get(DomainReservations, "limito-snap"); got != "stock view" {
		t.Fatalf("reservations domain returned %v", got)
	}
}

func TestInvalidateDropsWholeDomainsOnly(t *testing.T) {
	s := New(time.Minute)
	defer s.Stop()

	s.Set(DomainProducts, "all", 1)
	s.Set(DomainProducts, "limito-snap", 2)
	s.Set(DomainReservations, "limito-snap", 3)
	s.Set(DomainStoreConfig, "drop", 4)

	s.Invalidate(DomainProducts, DomainReservations)

	if _, ok := s.Get(DomainProducts, "all"); ok {
		t.Fatal("products entry survived invalidation")
	}
	if _, ok := s.Get(DomainProducts, "limito-snap"); ok {
		t.Fatal("products entry survived invalidation")
	}
	if _, ok := s.Get(DomainReservations, "limito-snap"); ok {
		t.Fatal("reservations entry survived invalidation")
	}
	if _, ok := s.Get(DomainStoreConfig, "drop"); !ok {
		t.Fatal("untouched domain was invalidated")
	}
}

func TestEntriesExpire(t *testing.T) {
	s := New(20 * time.Millisecond)
	defer s.Stop()

	s.Set(DomainProducts, "all", "listing")
	if _, ok := s.Get(DomainProducts, "all"); !ok {
		t.Fatal("miss before TTL")
	}

	time.Sleep(30 * time.Millisecond)

	if _, ok := s.Get(DomainProducts, "all"); ok {
		t.Fatal("hit after TTL")
	}
}

func TestSetRefreshesTTL(t *testing.T) {
	s := New(40 * time.Millisecond)
	defer s.Stop()

	s.Set(DomainProducts, "all", "v1")
	time.Sleep(25 * time.Millisecond)
	s.Set(DomainProducts, "all", "v2")
	time.Sleep(25 * time.Millisecond)

	got, ok := s.Get(DomainProducts, "all")
	if !ok {
		t.Fatal("rewritten entry expired on the old clock")
	}
	if got != "v2" {
		t.Fatalf("got %v, want v2", got)
	}
}

func TestStopIsSafeWithPendingEntries(t *testing.T) {
	s := New(time.Minute)
	s.Set(DomainProducts, "all", "listing")
	s.Stop()

	// Reads still work after Stop; only the janitor is gone.
	if _, ok := s.Get(DomainProducts, "all"); !ok {
		t.Fatal("entry lost on Stop")
	}
}
