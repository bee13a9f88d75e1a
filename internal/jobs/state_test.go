package jobs

import "testing"

func TestStatus_Terminal(t *testing.T) {
	terminal := map[Status]bool{
		StatusPending:     false,
		StatusMatching:    false,
		StatusAggregating: false,
		StatusVerified:    true,
		StatusFailed:      true,
		StatusSuperseded:  true,
	}
	for status, want := range terminal {
		if got := status.Terminal(); got != want {
			t.Errorf("%s.Terminal() = %v, want %v", status, got, want)
		}
	}
}

func TestCanTransition(t *testing.T) {
	allowed := []struct{ from, to Status }{
		{StatusPending, StatusMatching},
		{StatusPending, StatusSuperseded},
		{StatusMatching, StatusAggregating},
		{StatusMatching, StatusMatching}, // retry re-entry
		{StatusMatching, StatusFailed},
		{StatusMatching, StatusSuperseded},
		{StatusAggregating, StatusVerified},
		{StatusAggregating, StatusMatching}, // retry re-entry
		{StatusAggregating, StatusFailed},
		{StatusAggregating, StatusSuperseded},
	}
	for _, tr := range allowed {
		if !CanTransition(tr.from, tr.to) {
			t.Errorf("CanTransition(%s, %s) = false, want true", tr.from, tr.to)
		}
	}

	denied := []struct{ from, to Status }{
		{StatusPending, StatusAggregating}, // cannot skip matching
		{StatusPending, StatusVerified},
		{StatusPending, StatusFailed},
		{StatusMatching, StatusVerified}, // cannot skip aggregating
		{StatusMatching, StatusPending},
		{StatusAggregating, StatusPending},
		{StatusVerified, StatusMatching}, // terminal states are final
		{StatusVerified, StatusFailed},
		{StatusFailed, StatusMatching},
		{StatusSuperseded, StatusMatching},
	}
	for _, tr := range denied {
		if CanTransition(tr.from, tr.to) {
			t.Errorf("CanTransition(%s, %s) = true, want false", tr.from, tr.to)
		}
	}
}

func TestBackoff_Delay(t *testing.T) {
	b := Backoff{Base: 100, Multiplier: 2.0}
	for attempt, want := range []int64{100, 200, 400, 800} {
		if got := b.Delay(attempt); int64(got) != want {
			t.Errorf("Delay(%d) = %d, want %d", attempt, got, want)
		}
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "negative retries", mutate: func(c *Config) { c.MaxRetries = -1 }, wantErr: true},
		{name: "negative backoff base", mutate: func(c *Config) { c.Backoff.Base = -1 }, wantErr: true},
		{name: "multiplier below one", mutate: func(c *Config) { c.Backoff.Multiplier = 0.5 }, wantErr: true},
		{name: "zero workers", mutate: func(c *Config) { c.Workers = 0 }, wantErr: true},
		{name: "zero boundary timeout", mutate: func(c *Config) { c.BoundaryTimeout = 0 }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("Validate() = nil, want error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
		})
	}
}
