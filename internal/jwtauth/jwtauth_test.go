package jwtauth

import (
	"testing"
	"time"
)

func TestLoad_KeySet(t *testing.T) {
	p := Load("k1:aaa, k2:bbb,broken", "k2", nil)
	if p.CurrentKID() != "k2" {
		t.Fatalf("current %q", p.CurrentKID())
	}
	if s, ok := p.SecretFor("k1"); !ok || string(s) != "aaa" {
		t.Fatal("k1 missing")
	}
	if _, ok := p.SecretFor("broken"); ok {
		t.Fatal("malformed entry must be ignored")
	}
}

func TestLoad_SecretFallback(t *testing.T) {
	p := Load("", "", []byte("s3cret"))
	if p.CurrentKID() != "key1" || p.Empty() {
		t.Fatalf("fallback provider %+v", p)
	}
	if !Load("", "", nil).Empty() {
		t.Fatal("no keys should be empty")
	}
}

func TestLoad_UnknownCurrentPicksExisting(t *testing.T) {
	p := Load("b:1,a:2", "zzz", nil)
	if p.CurrentKID() != "a" {
		t.Fatalf("current %q", p.CurrentKID())
	}
}

func TestSign_NoKey(t *testing.T) {
	if _, err := Sign(EnvProvider{}, "ops", time.Minute); err != ErrNoKey {
		t.Fatalf("want ErrNoKey, got %v", err)
	}
}
