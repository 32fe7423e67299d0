package archive

import (
	"strings"
	"testing"
)

func TestS3Storage_ImplementsStorage(t *testing.T) {
	var _ Storage = (*S3Storage)(nil)
}

func TestS3Storage_Key(t *testing.T) {
	tests := []struct {
		prefix string
		path   string
		want   string
	}{
		{"", "results/BTCUSDT/run.json", "results/BTCUSDT/run.json"},
		{"marlin", "run.json", "marlin/run.json"},
		{"marlin/", "run.json", "marlin/run.json"},
	}

	for _, tt := range tests {
		s := &S3Storage{prefix: strings.TrimSuffix(tt.prefix, "/")}
		got := s.key(tt.path)
		if got != tt.want {
			t.Errorf("key(%q) with prefix %q = %q, want %q", tt.path, tt.prefix, got, tt.want)
		}
	}
}

func TestNewS3_PathStyleForEndpoint(t *testing.T) {
	s, err := NewS3(S3Config{
		Bucket:   "backtests",
		Endpoint: "http://localhost:9000",
		Region:   "us-east-1",
		Prefix:   "marlin",
	})
	if err != nil {
		t.Fatalf("NewS3: %v", err)
	}
	if s.bucket != "backtests" {
		t.Errorf("bucket = %q, want backtests", s.bucket)
	}
	if s.prefix != "marlin" {
		t.Errorf("prefix = %q, want marlin", s.prefix)
	}
}
