package security

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDetector_ExtractClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{
			name:       "direct connection",
			remoteAddr: "203.0.113.9:51234",
			want:       "203.0.113.9",
		},
		{
			name:       "forwarded header from trusted proxy",
			remoteAddr: "10.0.0.5:8080",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.9, 10.0.0.5"},
			want:       "203.0.113.9",
		},
		{
			name:       "forwarded header from untrusted peer is ignored",
			remoteAddr: "203.0.113.9:51234",
			headers:    map[string]string{"X-Forwarded-For": "198.51.100.1"},
			want:       "203.0.113.9",
		},
		{
			name:       "x-real-ip from trusted proxy",
			remoteAddr: "127.0.0.1:9000",
			headers:    map[string]string{"X-Real-IP": "198.51.100.1"},
			want:       "198.51.100.1",
		},
		{
			name:       "garbage forwarded value falls back to direct ip",
			remoteAddr: "192.168.1.10:1234",
			headers:    map[string]string{"X-Forwarded-For": "not-an-ip"},
			want:       "192.168.1.10",
		},
	}

	d := NewDetector()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}

			if got := d.ExtractClientIP(r); got != tt.want {
				t.Errorf("ExtractClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDetector_DetectSuspiciousRequest(t *testing.T) {
	d := NewDetector()

	tests := []struct {
		name   string
		target string
		method string
		want   bool
	}{
		{"normal api call", "/api/transactions?type=expense", http.MethodGet, false},
		{"path traversal", "/api/../etc/passwd", http.MethodGet, true},
		{"code injection in query", "/api/transactions?cb=eval(alert)", http.MethodGet, true},
		{"env probe", "/.env", http.MethodGet, true},
		{"trace method", "/api/transactions", "TRACE", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(tt.method, tt.target, nil)
			if got := d.DetectSuspiciousRequest(r); got != tt.want {
				t.Errorf("DetectSuspiciousRequest(%s %s) = %v, want %v", tt.method, tt.target, got, tt.want)
			}
		})
	}

	if d.GetMetrics().SuspiciousRequests == 0 {
		t.Error("suspicious requests should be counted")
	}
}
