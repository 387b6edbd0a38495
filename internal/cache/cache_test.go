package cache

import (
	"testing"
	"time"
)

func TestGetSetExpiry(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	c := &Cache{byKey: make(map[string]response), enabled: true, now: func() time.Time { return now }}

	etag := c.Set("history:1:30", []byte(`[]`), TTLHistory)
	data, got, ok := c.Get("history:1:30")
	if !ok || string(data) != `[]` || got != etag {
		t.Fatalf("Get() = %q, %q, %v", data, got, ok)
	}

	now = now.Add(TTLHistory + time.Second)
	if _, _, ok := c.Get("history:1:30"); ok {
		t.Fatal("Get() after TTL ok = true, want false")
	}
	if s := c.Stats(); s.Keys != 1 || s.Expired != 1 {
		t.Fatalf("Stats() before drop = %+v, want 1 expired key", s)
	}
	c.dropExpired()
	if n := c.Stats().Keys; n != 0 {
		t.Fatalf("keys after dropExpired = %d, want 0", n)
	}
}

func TestDisabledCache(t *testing.T) {
	c := New(false)
	etag := c.Set("k", []byte("v"), time.Hour)
	if etag != ComputeETag([]byte("v")) {
		t.Fatalf("Set() etag = %q", etag)
	}
	if _, _, ok := c.Get("k"); ok {
		t.Fatal("disabled cache returned a hit")
	}
}

func TestInvalidatePrefix(t *testing.T) {
	c := &Cache{byKey: make(map[string]response), enabled: true, now: time.Now}
	c.Set("product:1:history:30", []byte("a"), time.Hour)
	c.Set("product:1:trend", []byte("b"), time.Hour)
	c.Set("product:12:trend", []byte("c"), time.Hour)

	if n := c.InvalidatePrefix("product:1:"); n != 2 {
		t.Fatalf("InvalidatePrefix() = %d, want 2", n)
	}
	if _, _, ok := c.Get("product:12:trend"); !ok {
		t.Fatal("unrelated key was invalidated")
	}
}

func TestCheckETagMatch(t *testing.T) {
	etag := ComputeETag([]byte("payload"))
	tests := []struct {
		header string
		want   bool
	}{
		{"", false},
		{"*", true},
		{etag, true},
		{`W/"other", ` + etag, true},
		{`W/"other"`, false},
	}
	for _, tt := range tests {
		if got := CheckETagMatch(tt.header, etag); got != tt.want {
			t.Errorf("CheckETagMatch(%q) = %v, want %v", tt.header, got, tt.want)
		}
	}
}
