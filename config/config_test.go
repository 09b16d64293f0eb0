package config

import (
	"errors"
	"testing"

	"timerhal/core"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig([]byte(`{
		"timers": [{"block": "TIM2"}],
		"pwm": [{"oid": 3, "timer": "TIM2", "channel": 1}],
		"encoders": [{"oid": 0, "timer": "TIM2"}]
	}`))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Name != "timerhal" {
		t.Errorf("name = %q", cfg.Name)
	}
	if cfg.Clock.Kind != ClockAPB || cfg.Clock.PCLK1Hz != defaultAPBHz || cfg.Clock.PCLK2Hz != defaultAPBHz {
		t.Errorf("clock defaults not applied: %+v", cfg.Clock)
	}
	if cfg.PWM[0].FrequencyHz != defaultPWMFrequencyHz {
		t.Errorf("pwm frequency = %d", cfg.PWM[0].FrequencyHz)
	}
	if cfg.Encoders[0].MaxCount != 0xFFFF {
		t.Errorf("encoder max count = %d", cfg.Encoders[0].MaxCount)
	}
}

func TestLoadConfigBadJSON(t *testing.T) {
	if _, err := LoadConfig([]byte(`{"timers": [`)); err == nil {
		t.Error("expected JSON error")
	}
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name string
		json string
	}{
		{"unknown block", `{"timers": [{"block": "TIM99"}]}`},
		{"duplicate block", `{"timers": [{"block": "TIM2"}, {"block": "TIM2"}]}`},
		{"unknown clock", `{"clock": {"kind": "pll"}}`},
		{"undeclared timer", `{"timers": [{"block": "TIM2"}], "pwm": [{"oid": 0, "timer": "TIM3", "channel": 1}]}`},
		{"channel zero", `{"timers": [{"block": "TIM2"}], "pwm": [{"oid": 0, "timer": "TIM2", "channel": 0}]}`},
		{"channel seven", `{"timers": [{"block": "TIM1"}], "pwm": [{"oid": 0, "timer": "TIM1", "channel": 7}]}`},
		{"duplicate pwm oid", `{"timers": [{"block": "TIM2"}], "pwm": [{"oid": 1, "timer": "TIM2", "channel": 1}, {"oid": 1, "timer": "TIM2", "channel": 2}]}`},
		{"motor same channel", `{"timers": [{"block": "TIM1"}], "motors": [{"oid": 0, "timer": "TIM1", "channel_a": 1, "channel_b": 1}]}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadConfig([]byte(tc.json))
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestLargeFilterAccepted(t *testing.T) {
	cfg, err := LoadConfig([]byte(`{"timers": [{"block": "TIM2"}], "encoders": [{"oid": 0, "timer": "TIM2", "filter": 40}]}`))
	if err != nil {
		t.Fatalf("filter above the hardware maximum rejected: %v", err)
	}
	if cfg.Encoders[0].Filter != 40 {
		t.Errorf("filter rewritten to %d", cfg.Encoders[0].Filter)
	}
}

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestClockSource(t *testing.T) {
	cfg := &BoardConfig{Clock: ClockConfig{Kind: ClockFixed, FixedHz: 125000000}}
	if got := cfg.ClockSource().SourceFrequencyHz(core.RP2PWM0); got != 125000000 {
		t.Errorf("fixed clock = %d", got)
	}

	cfg = &BoardConfig{Clock: ClockConfig{Kind: ClockAPB, PCLK1Hz: 100, PCLK2Hz: 200}}
	src := cfg.ClockSource()
	if got := src.SourceFrequencyHz(core.TIM1); got != 200 {
		t.Errorf("TIM1 clock = %d, want PCLK2", got)
	}
	if got := src.SourceFrequencyHz(core.TIM2); got != 100 {
		t.Errorf("TIM2 clock = %d, want PCLK1", got)
	}
}
