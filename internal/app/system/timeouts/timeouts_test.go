package timeouts_test

import (
	"testing"
	"time"

	"github.com/pulsemesh/pulsemesh/internal/app/system/timeouts"
)

func TestConfigure_ZeroValuesKeepDefaults(t *testing.T) {
	timeouts.Reset()
	t.Cleanup(timeouts.Reset)

	timeouts.Configure(timeouts.Config{Short: 9 * time.Second})

	if got := timeouts.Short(); got != 9*time.Second {
		t.Errorf("Short: got %v, want 9s", got)
	}
	if got := timeouts.Medium(); got != timeouts.DefaultMedium {
		t.Errorf("Medium changed by zero-value config: got %v", got)
	}
	if got := timeouts.Ping(); got != timeouts.DefaultPing {
		t.Errorf("Ping changed by zero-value config: got %v", got)
	}
}
