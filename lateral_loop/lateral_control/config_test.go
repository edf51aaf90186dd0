package control

import (
	"strings"
	"testing"
)

func TestDefaultConfig_Valid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("expected default config to validate, got %v", err)
	}
}

func TestConfigValidate_Rejections(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		errPart string
	}{
		{"zero dt", func(c *Config) { c.CycleDtS = 0 }, "cycle_dt_s"},
		{"negative delay", func(c *Config) { c.SteerActuatorDelayS = -0.1 }, "steer_actuator_delay_s"},
		{"breakpoint mismatch", func(c *Config) { c.LookaheadTimeV = []float64{1.4} }, "lookahead"},
		{"unsorted breakpoints", func(c *Config) { c.LookaheadSpeedBP = []float64{30.0, 9.0} }, "increasing"},
		{"jerk factor range", func(c *Config) { c.LatJerkFrictionFactor = 3.5 }, "lat_jerk_friction_factor"},
		{"accel factor range", func(c *Config) { c.LatAccelFrictionFactor = -0.1 }, "lat_accel_friction_factor"},
		{"empty future times", func(c *Config) { c.FutureTimesS = nil }, "future_times_s"},
		{"negative future time", func(c *Config) { c.FutureTimesS = []float64{-0.3, 0.6} }, "future_times_s"},
		{"positive past time", func(c *Config) { c.PastTimesS = []float64{-0.3, 0.2} }, "past_times_s"},
		{"unsorted past times", func(c *Config) { c.PastTimesS = []float64{-0.1, -0.2} }, "past_times_s"},
		{"zero filter rc", func(c *Config) { c.PitchFilterRC = 0 }, "pitch_filter_rc"},
	}
	for _, tc := range cases {
		cfg := DefaultConfig()
		tc.mutate(&cfg)
		err := cfg.Validate()
		if err == nil {
			t.Errorf("%s: expected validation error", tc.name)
			continue
		}
		if !strings.Contains(err.Error(), tc.errPart) {
			t.Errorf("%s: error %q does not mention %q", tc.name, err, tc.errPart)
		}
	}
}

func TestNewController_ModeSelection(t *testing.T) {
	params := TorqueParams{LatAccelFactor: 2.0, Friction: 0.1}

	stock, err := NewController(DefaultConfig(), nil, params)
	if err != nil {
		t.Fatalf("stock controller: %v", err)
	}
	if stock.Mode() != ModeStock {
		t.Errorf("expected stock mode, got %v", stock.Mode())
	}

	cfg := DefaultConfig()
	cfg.UseLateralJerk = true
	jerk, err := NewController(cfg, nil, params)
	if err != nil {
		t.Fatalf("jerk controller: %v", err)
	}
	if jerk.Mode() != ModeLateralJerk {
		t.Errorf("expected lateral_jerk mode, got %v", jerk.Mode())
	}

	cfg = DefaultConfig()
	cfg.UseTorqueModel = true
	nn, err := NewController(cfg, constModel(0.5), params)
	if err != nil {
		t.Fatalf("nn controller: %v", err)
	}
	if nn.Mode() != ModeNeuralFeedforward {
		t.Errorf("expected neural_feedforward mode, got %v", nn.Mode())
	}
}

func TestNewController_ModelRequiredForTorqueModelMode(t *testing.T) {
	cfg := DefaultConfig()
	cfg.UseTorqueModel = true
	if _, err := NewController(cfg, nil, TorqueParams{LatAccelFactor: 2.0}); err == nil {
		t.Fatal("expected error when torque model mode has no model")
	}
}

func TestNewController_FeatureVectorLength(t *testing.T) {
	cfg := DefaultConfig()
	cfg.UseTorqueModel = true
	c, err := NewController(cfg, constModel(0.0), TorqueParams{LatAccelFactor: 2.0})
	if err != nil {
		t.Fatalf("controller: %v", err)
	}
	// 4 scalars + 7 lateral accel slots + 3 past rolls + 4 future rolls
	if got := c.FeatureLen(); got != 18 {
		t.Fatalf("expected feature length 18, got %d", got)
	}
}

func TestModeString(t *testing.T) {
	cases := map[Mode]string{
		ModeStock:             "stock",
		ModeLateralJerk:       "lateral_jerk",
		ModeNeuralFeedforward: "neural_feedforward",
		Mode(99):              "unknown",
	}
	for mode, want := range cases {
		if got := mode.String(); got != want {
			t.Errorf("Mode(%d).String() = %q, want %q", int(mode), got, want)
		}
	}
}
