package core

import (
	"errors"
	"testing"
)

func TestCanonicalizeOrderIndependent(t *testing.T) {
	forward, err := Canonicalize(39, 40)
	if err != nil {
		t.Fatalf("canonicalize(39, 40): %v", err)
	}
	reversed, err := Canonicalize(40, 39)
	if err != nil {
		t.Fatalf("canonicalize(40, 39): %v", err)
	}

	if forward != reversed {
		t.Fatalf("expected identical keys, got %+v and %+v", forward, reversed)
	}
	if forward.Low != 39 || forward.High != 40 {
		t.Fatalf("expected low=39 high=40, got %+v", forward)
	}
	if forward.Topic() != "conv:39-40" {
		t.Fatalf("unexpected topic: %s", forward.Topic())
	}
	if forward.String() != "39-40" {
		t.Fatalf("unexpected key string: %s", forward.String())
	}
}

func TestCanonicalizeRejectsInvalidPairs(t *testing.T) {
	tests := []struct {
		name string
		a, b int64
	}{
		{"self pair", 7, 7},
		{"zero participant", 0, 5},
		{"negative participant", -1, 5},
		{"both invalid", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Canonicalize(tt.a, tt.b)
			if err == nil {
				t.Fatalf("expected error for pair (%d, %d)", tt.a, tt.b)
			}
			var ce *CoreError
			if !errors.As(err, &ce) || ce.Code != ErrCodeInvalidPair {
				t.Fatalf("expected invalid_pair error, got %v", err)
			}
		})
	}
}

func TestResolveSubscribeKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		want    string
		wantErr bool
	}{
		{"pair key", "39-40", "conv:39-40", false},
		{"reversed pair key", "40-39", "conv:39-40", false},
		{"legacy user id", "39", "user:39", false},
		{"whitespace trimmed", " 39-40 ", "conv:39-40", false},
		{"empty", "", "", true},
		{"self pair", "7-7", "", true},
		{"zero in pair", "0-5", "", true},
		{"garbage", "abc", "", true},
		{"negative user id", "-3", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveSubscribeKey(tt.key)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for key %q, got topic %q", tt.key, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("resolve %q: %v", tt.key, err)
			}
			if got != tt.want {
				t.Fatalf("resolve %q: expected %q, got %q", tt.key, tt.want, got)
			}
		})
	}
}

func TestUserTopic(t *testing.T) {
	if got := UserTopic(42); got != "user:42" {
		t.Fatalf("unexpected user topic: %s", got)
	}
}
