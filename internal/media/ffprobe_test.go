package media

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestProberProbe(t *testing.T) {
	var gotBinary string
	var gotArgs []string
	prober := NewProber("ffprobe", time.Second)
	prober.Run = func(_ context.Context, binary string, args ...string) ([]byte, error) {
		gotBinary = binary
		gotArgs = args
		return []byte(`{"format":{"duration":"312.500000"}}`), nil
	}

	duration, err := prober.Probe(context.Background(), "/tmp/lecture.mp4")
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	if duration != 312.5 {
		t.Fatalf("expected duration 312.5, got %v", duration)
	}
	if gotBinary != "ffprobe" {
		t.Fatalf("expected ffprobe binary, got %q", gotBinary)
	}
	if len(gotArgs) == 0 || gotArgs[len(gotArgs)-1] != "/tmp/lecture.mp4" {
		t.Fatalf("expected file path as final argument, got %v", gotArgs)
	}
}

func TestProberProbeFailures(t *testing.T) {
	cases := []struct {
		name   string
		output []byte
		err    error
	}{
		{name: "command error", err: errors.New("exit status 1")},
		{name: "invalid json", output: []byte("not json")},
		{name: "missing duration", output: []byte(`{"format":{}}`)},
		{name: "unparseable duration", output: []byte(`{"format":{"duration":"n/a"}}`)},
	}

	for _, tc := range cases {
		prober := NewProber("", 0)
		prober.Run = func(context.Context, string, ...string) ([]byte, error) {
			return tc.output, tc.err
		}

		if _, err := prober.Probe(context.Background(), "/tmp/file.mp4"); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}

func TestNewProberDefaults(t *testing.T) {
	prober := NewProber("  ", -1)
	if prober.Binary != "ffprobe" {
		t.Fatalf("expected default binary, got %q", prober.Binary)
	}
	if prober.Timeout != 30*time.Second {
		t.Fatalf("expected default timeout, got %v", prober.Timeout)
	}
}
