package cache

import (
	"testing"
	"time"
)

func TestEntry_IsExpired(t *testing.T) {
	tests := []struct {
		name    string
		expires time.Time
		want    bool
	}{
		{"future", time.Now().Add(time.Minute), false},
		{"past", time.Now().Add(-time.Minute), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &Entry{Expires: tt.expires}
			if got := e.IsExpired(); got != tt.want {
				t.Errorf("IsExpired() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEntry_TTL(t *testing.T) {
	e := &Entry{Expires: time.Now().Add(-time.Hour)}
	if ttl := e.TTL(); ttl != 0 {
		t.Errorf("TTL() of expired entry = %v, want 0", ttl)
	}

	e = &Entry{Expires: time.Now().Add(time.Hour)}
	if ttl := e.TTL(); ttl <= 59*time.Minute || ttl > time.Hour {
		t.Errorf("TTL() = %v, want about 1h", ttl)
	}
}

func TestEntry_Servable(t *testing.T) {
	fresh := &Entry{Expires: time.Now().Add(time.Minute)}
	stale := &Entry{Expires: time.Now().Add(-time.Minute)}

	if !fresh.Servable(false) || !fresh.Servable(true) {
		t.Error("fresh entry should always be servable")
	}
	if stale.Servable(false) {
		t.Error("stale entry served without force-cache")
	}
	if !stale.Servable(true) {
		t.Error("stale entry should be servable under force-cache")
	}
}

func TestEntry_StoreTTL(t *testing.T) {
	stale := &Entry{Expires: time.Now().Add(-time.Minute)}
	if got := stale.StoreTTL(0); got != 0 {
		t.Errorf("StoreTTL(0) of stale entry = %v, want 0", got)
	}
	if got := stale.StoreTTL(time.Hour); got != time.Hour {
		t.Errorf("StoreTTL(1h) of stale entry = %v, want 1h", got)
	}

	fresh := &Entry{Expires: time.Now().Add(2 * time.Hour)}
	if got := fresh.StoreTTL(time.Hour); got <= time.Hour {
		t.Errorf("StoreTTL(1h) of 2h entry = %v, want freshness to win", got)
	}
}

func TestEntry_Age(t *testing.T) {
	if age := (&Entry{}).Age(); age != 0 {
		t.Errorf("Age() without CachedAt = %v, want 0", age)
	}
	e := &Entry{CachedAt: time.Now().Add(-time.Minute)}
	if age := e.Age(); age < time.Minute {
		t.Errorf("Age() = %v, want at least 1m", age)
	}
}
