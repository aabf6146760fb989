package cache

import (
	"net/http"
	"testing"
	"time"
)

func TestNewEntry(t *testing.T) {
	lastMod := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	header := http.Header{
		"Etag":          []string{`"abc123"`},
		"Last-Modified": []string{lastMod.Format(http.TimeFormat)},
		"Cache-Control": []string{"public, max-age=86400, s-maxage=86400"},
		"Content-Type":  []string{"application/json"},
	}

	entry := NewEntry(http.StatusOK, header, []byte(`{"count":1}`))

	if entry.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d", entry.StatusCode)
	}
	if entry.ETag != `"abc123"` {
		t.Errorf("ETag = %q", entry.ETag)
	}
	if !entry.LastModified.Equal(lastMod) {
		t.Errorf("LastModified = %v, want %v", entry.LastModified, lastMod)
	}
	if ttl := entry.TTL(); ttl < 23*time.Hour {
		t.Errorf("TTL = %v, want about 24h from max-age", ttl)
	}
	if string(entry.Data) != `{"count":1}` {
		t.Errorf("Data = %s", entry.Data)
	}

	// The stored headers must not alias the caller's map.
	header.Set("Etag", "changed")
	if entry.Headers.Get("Etag") != `"abc123"` {
		t.Error("entry headers alias the response headers")
	}
}

func TestParseExpires(t *testing.T) {
	now := time.Now()
	futureTime := now.Add(1 * time.Hour)
	pastTime := now.Add(-1 * time.Hour)

	tests := []struct {
		name    string
		headers http.Header
		want    time.Time
	}{
		{
			name:    "valid expires header",
			headers: http.Header{"Expires": []string{futureTime.Format(http.TimeFormat)}},
			want:    futureTime,
		},
		{
			name:    "no expires header",
			headers: http.Header{},
			want:    now.Add(DefaultTTL),
		},
		{
			name:    "invalid expires header",
			headers: http.Header{"Expires": []string{"not a valid date"}},
			want:    now.Add(DefaultTTL),
		},
		{
			name:    "expires in the past",
			headers: http.Header{"Expires": []string{pastTime.Format(http.TimeFormat)}},
			want:    now,
		},
		{
			name: "max-age wins over expires",
			headers: http.Header{
				"Cache-Control": []string{"max-age=60"},
				"Expires":       []string{futureTime.Format(http.TimeFormat)},
			},
			want: now.Add(time.Minute),
		},
		{
			name:    "malformed max-age falls back",
			headers: http.Header{"Cache-Control": []string{"max-age=soon"}},
			want:    now.Add(DefaultTTL),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseExpires(tt.headers)
			diff := got.Sub(tt.want)
			if diff < -2*time.Second || diff > 2*time.Second {
				t.Errorf("parseExpires() = %v, want approximately %v (diff: %v)", got, tt.want, diff)
			}
		})
	}
}

func TestShouldMakeConditionalRequest(t *testing.T) {
	tests := []struct {
		name  string
		entry *Entry
		want  bool
	}{
		{"nil entry", nil, false},
		{"entry with ETag", &Entry{ETag: `"abc123"`}, true},
		{"entry with Last-Modified", &Entry{LastModified: time.Now()}, true},
		{"entry without validators", &Entry{Data: []byte("data")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldMakeConditionalRequest(tt.entry); got != tt.want {
				t.Errorf("ShouldMakeConditionalRequest() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConditionalHeaders(t *testing.T) {
	lastMod := time.Date(2023, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		entry      *Entry
		wantHeader string
		wantValue  string
	}{
		{
			name:       "If-None-Match with ETag",
			entry:      &Entry{ETag: `"abc123"`},
			wantHeader: "If-None-Match",
			wantValue:  `"abc123"`,
		},
		{
			name:       "If-Modified-Since with Last-Modified",
			entry:      &Entry{LastModified: lastMod},
			wantHeader: "If-Modified-Since",
			wantValue:  "Sun, 01 Jan 2023 12:00:00 GMT",
		},
		{
			name:       "prefer ETag over Last-Modified",
			entry:      &Entry{ETag: `"abc123"`, LastModified: lastMod},
			wantHeader: "If-None-Match",
			wantValue:  `"abc123"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := ConditionalHeaders(tt.entry)
			if len(headers) != 1 {
				t.Fatalf("expected exactly one header, got %v", headers)
			}
			if got := headers[tt.wantHeader]; got != tt.wantValue {
				t.Errorf("Header %s = %v, want %v", tt.wantHeader, got, tt.wantValue)
			}
		})
	}

	if h := ConditionalHeaders(nil); h != nil {
		t.Errorf("ConditionalHeaders(nil) = %v, want nil", h)
	}
	if h := ConditionalHeaders(&Entry{}); h != nil {
		t.Errorf("ConditionalHeaders(empty) = %v, want nil", h)
	}
}
