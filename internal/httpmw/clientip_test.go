package httpmw

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestExtractRealClientAddr(t *testing.T) {
	tests := []struct {
		name   string
		remote string
		xff    string
		hops   int
		want   string
		strip  bool
	}{
		{"public peer ignores xff", "203.0.113.9:443", "1.2.3.4", 1, "203.0.113.9", true},
		{"private peer no hops", "10.0.0.2:80", "1.2.3.4", 0, "10.0.0.2", true},
		{"single alb", "10.0.0.2:80", "198.51.100.7", 1, "198.51.100.7", false},
		{"single alb spoofed prefix", "10.0.0.2:80", "6.6.6.6, 198.51.100.7", 1, "198.51.100.7", false},
		{"cdn plus alb", "10.0.0.2:80", "198.51.100.7, 192.0.2.10", 2, "198.51.100.7", false},
		{"too few entries", "10.0.0.2:80", "198.51.100.7", 2, "10.0.0.2", true},
		{"garbage entry", "10.0.0.2:80", "not-an-ip", 1, "10.0.0.2", false},
		{"no xff", "10.0.0.2:80", "", 1, "10.0.0.2", false},
		{"no port", "10.0.0.2", "", 0, "10.0.0.2", false},
		{"empty remote", "", "", 0, "0.0.0.0", false},
		{"bad ip", "nope:80", "", 0, "0.0.0.0", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/projects/", http.NoBody)
			r.RemoteAddr = tt.remote
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
				r.Header.Set("X-Forwarded-Proto", "https")
			}
			if got := extractRealClientAddr(r, tt.hops); got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
			if tt.strip && (r.Header.Get("X-Forwarded-For") != "" || r.Header.Get("X-Forwarded-Proto") != "") {
				t.Fatal("untrusted forwarded headers not stripped")
			}
		})
	}
}

func TestClientIPMiddleware(t *testing.T) {
	var got string
	h := ClientIPWithOptions(ClientIPOptions{TrustedHops: 1})(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = ClientIPFromContext(r.Context())
	}))
	r := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	r.RemoteAddr = "10.1.2.3:5555"
	r.Header.Set("X-Forwarded-For", "198.51.100.7")
	h.ServeHTTP(httptest.NewRecorder(), r)
	if got != "198.51.100.7" {
		t.Fatalf("client ip = %q", got)
	}

	ClientIPWithOptions(ClientIPOptions{})(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = ClientIPFromContext(r.Context())
	})).ServeHTTP(httptest.NewRecorder(), r)
	if got != "10.1.2.3" {
		t.Fatalf("default options client ip = %q", got)
	}
}

func TestWithClientIP_Empty(t *testing.T) {
	ctx := WithClientIP(t.Context(), "")
	if ClientIPFromContext(ctx) != "" {
		t.Fatal("empty ip should not be stored")
	}
}

func FuzzExtractRealClientAddr(f *testing.F) {
	f.Add("10.0.0.1:80", "1.2.3.4, 5.6.7.8", 1)
	f.Add("8.8.8.8:1", "", 0)
	f.Add("[::1]:1", ",,,", 3)
	f.Fuzz(func(t *testing.T, remote, xff string, hops int) {
		r := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
		r.RemoteAddr = remote
		r.Header.Set("X-Forwarded-For", xff)
		if extractRealClientAddr(r, hops%8) == "" && remote != "" {
			t.Fatalf("empty client address for remote %q", remote)
		}
	})
}
