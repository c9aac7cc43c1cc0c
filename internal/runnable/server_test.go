package runnable

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestNewServer(t *testing.T) {
	t.Setenv("ADDRESS", "127.0.0.1:9999")
	t.Setenv("RETENTION", "72h")
	t.Setenv("GRAYSCALE_THRESHOLD", "300")
	t.Setenv("ALPHA", "0.5")
	t.Setenv("SEQUENCE_DURATION", "500ms")
	t.Setenv("SEQUENCE_DITHER", "not-a-bool")

	s := NewServer(nil)

	if s.address != "127.0.0.1:9999" {
		t.Errorf("Expected address from env, got %s", s.address)
	}
	if s.retention != 72*time.Hour {
		t.Errorf("Expected retention 72h, got %s", s.retention)
	}
	if s.compareConfig.GrayscaleThreshold != 255 {
		t.Errorf("Expected threshold to be clamped to 255, got %d", s.compareConfig.GrayscaleThreshold)
	}
	if s.compareConfig.Alpha != 0.5 {
		t.Errorf("Expected alpha 0.5, got %v", s.compareConfig.Alpha)
	}
	if s.sequenceOptions.Duration != 500*time.Millisecond {
		t.Errorf("Expected duration 500ms, got %s", s.sequenceOptions.Duration)
	}
	if s.sequenceOptions.Dither {
		t.Error("Expected an unparsable bool to keep the default")
	}
}

func TestEnvOrDefaultValue(t *testing.T) {
	t.Setenv("TEST_INT", "42")
	t.Setenv("TEST_BAD_INT", "forty-two")

	got := []int{
		envOrDefaultValue("TEST_INT", 1),
		envOrDefaultValue("TEST_BAD_INT", 1),
		envOrDefaultValue("TEST_UNSET_INT", 1),
	}
	if diff := cmp.Diff([]int{42, 1, 1}, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}
