package logging

import "testing"

func TestNewProgressSamplerDefaults(t *testing.T) {
	tests := []struct {
		name       string
		bucketSize float64
		wantSize   float64
	}{
		{"default bucket size for zero", 0, 10},
		{"default bucket size for negative", -1, 10},
		{"custom bucket size", 25, 25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewProgressSampler(tt.bucketSize)
			if s.bucketSize != tt.wantSize {
				t.Errorf("bucketSize = %v, want %v", s.bucketSize, tt.wantSize)
			}
			if s.lastBucket != -1 {
				t.Errorf("lastBucket = %d, want -1", s.lastBucket)
			}
		})
	}
}

func TestProgressSamplerNil(t *testing.T) {
	var s *ProgressSampler
	if !s.ShouldLog(50, "a.mp3") {
		t.Error("nil sampler should always log")
	}
	s.Reset()
}

func TestProgressSamplerBuckets(t *testing.T) {
	s := NewProgressSampler(25)
	steps := []struct {
		percent float64
		subject string
		want    bool
	}{
		{0, "a.mp3", true},
		{10, "a.mp3", false},
		{25, "a.mp3", true},
		{30, "a.mp3", false},
		{100, "a.mp3", true},
		{100, "a.mp3", false},
		{5, "b.mp3", true},
		{-1, "b.mp3", false},
	}
	for i, step := range steps {
		if got := s.ShouldLog(step.percent, step.subject); got != step.want {
			t.Fatalf("step %d: ShouldLog(%v, %q) = %v, want %v", i, step.percent, step.subject, got, step.want)
		}
	}
	s.Reset()
	if !s.ShouldLog(0, "b.mp3") {
		t.Fatal("expected emit after reset")
	}
}
