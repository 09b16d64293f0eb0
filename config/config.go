// Package config describes which timer blocks a board exposes and how their
// channels are assigned to PWM outputs, encoders and motors.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"timerhal/core"
)

// Clock kinds
const (
	ClockFixed = "fixed"
	ClockAPB   = "apb"
)

const (
	defaultAPBHz          = 250000000
	defaultFixedHz        = 125000000
	defaultPWMFrequencyHz = 20000
	defaultMotorHz        = 20000
	defaultEncoderMax     = 0xFFFF
)

var ErrInvalidConfig = errors.New("invalid board config")

// BoardConfig is the top-level board description
type BoardConfig struct {
	Name     string          `json:"name"`
	Clock    ClockConfig     `json:"clock"`
	Timers   []TimerConfig   `json:"timers"`
	PWM      []PWMConfig     `json:"pwm"`
	Encoders []EncoderConfig `json:"encoders"`
	Motors   []MotorConfig   `json:"motors"`
}

// ClockConfig selects the timer input clock. "fixed" feeds every block the
// same frequency; "apb" routes TIM1/TIM8 to PCLK2 and the rest to PCLK1.
type ClockConfig struct {
	Kind    string `json:"kind"`
	FixedHz uint32 `json:"fixed_hz,omitempty"`
	PCLK1Hz uint32 `json:"pclk1_hz,omitempty"`
	PCLK2Hz uint32 `json:"pclk2_hz,omitempty"`
}

// TimerConfig declares one timer block. Lock guards the block's registers
// with a shared mutex when several tasks drive it.
type TimerConfig struct {
	Block string `json:"block"`
	Lock  bool   `json:"lock"`
}

// PWMConfig binds an output-compare channel to an object id
type PWMConfig struct {
	OID          uint8  `json:"oid"`
	Timer        string `json:"timer"`
	Channel      uint8  `json:"channel"` // one-based
	FrequencyHz  uint32 `json:"frequency_hz"`
	DutyTenthPct uint16 `json:"duty"`
}

// EncoderConfig binds a quadrature-capable block to an object id
type EncoderConfig struct {
	OID      uint8  `json:"oid"`
	Timer    string `json:"timer"`
	MaxCount uint16 `json:"max_count"`
	Filter   uint8  `json:"filter"`
}

// MotorConfig binds a pair of output channels on one block to a DRV8870
type MotorConfig struct {
	OID         uint8  `json:"oid"`
	Timer       string `json:"timer"`
	ChannelA    uint8  `json:"channel_a"`
	ChannelB    uint8  `json:"channel_b"`
	FrequencyHz uint32 `json:"frequency_hz"`
}

// LoadConfig parses a JSON board description, applies defaults and validates
// the result
func LoadConfig(jsonData []byte) (*BoardConfig, error) {
	var config BoardConfig

	err := json.Unmarshal(jsonData, &config)
	if err != nil {
		return nil, err
	}

	applyDefaults(&config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// LoadFile reads and parses a board description from disk
func LoadFile(path string) (*BoardConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return LoadConfig(data)
}

// applyDefaults fills in missing configuration values
func applyDefaults(config *BoardConfig) {
	if config.Name == "" {
		config.Name = "timerhal"
	}

	if config.Clock.Kind == "" {
		config.Clock.Kind = ClockAPB
	}
	switch config.Clock.Kind {
	case ClockFixed:
		if config.Clock.FixedHz == 0 {
			config.Clock.FixedHz = defaultFixedHz
		}
	case ClockAPB:
		if config.Clock.PCLK1Hz == 0 {
			config.Clock.PCLK1Hz = defaultAPBHz
		}
		if config.Clock.PCLK2Hz == 0 {
			config.Clock.PCLK2Hz = defaultAPBHz
		}
	}

	for i := range config.PWM {
		if config.PWM[i].FrequencyHz == 0 {
			config.PWM[i].FrequencyHz = defaultPWMFrequencyHz
		}
	}
	for i := range config.Encoders {
		if config.Encoders[i].MaxCount == 0 {
			config.Encoders[i].MaxCount = defaultEncoderMax
		}
	}
	for i := range config.Motors {
		if config.Motors[i].FrequencyHz == 0 {
			config.Motors[i].FrequencyHz = defaultMotorHz
		}
	}
}

// Validate checks names, channel numbers and object ids. Channel claim
// conflicts are left to the timer resource, which reports them at build
// time.
func (c *BoardConfig) Validate() error {
	switch c.Clock.Kind {
	case ClockFixed, ClockAPB:
	default:
		return invalid("unknown clock kind %q", c.Clock.Kind)
	}

	timers := make(map[string]bool)
	for _, t := range c.Timers {
		if _, ok := core.BlockByName(t.Block); !ok {
			return invalid("unknown timer block %q", t.Block)
		}
		if timers[t.Block] {
			return invalid("timer block %q declared twice", t.Block)
		}
		timers[t.Block] = true
	}

	oids := make(map[uint8]bool)
	for _, p := range c.PWM {
		if !timers[p.Timer] {
			return invalid("pwm oid %d: undeclared timer %q", p.OID, p.Timer)
		}
		if err := checkChannel(p.Channel); err != nil {
			return fmt.Errorf("pwm oid %d: %w", p.OID, err)
		}
		if oids[p.OID] {
			return invalid("pwm oid %d used twice", p.OID)
		}
		oids[p.OID] = true
	}

	oids = make(map[uint8]bool)
	for _, e := range c.Encoders {
		if !timers[e.Timer] {
			return invalid("encoder oid %d: undeclared timer %q", e.OID, e.Timer)
		}
		if oids[e.OID] {
			return invalid("encoder oid %d used twice", e.OID)
		}
		oids[e.OID] = true
	}

	oids = make(map[uint8]bool)
	for _, m := range c.Motors {
		if !timers[m.Timer] {
			return invalid("motor oid %d: undeclared timer %q", m.OID, m.Timer)
		}
		if err := checkChannel(m.ChannelA); err != nil {
			return fmt.Errorf("motor oid %d: %w", m.OID, err)
		}
		if err := checkChannel(m.ChannelB); err != nil {
			return fmt.Errorf("motor oid %d: %w", m.OID, err)
		}
		if m.ChannelA == m.ChannelB {
			return invalid("motor oid %d: both inputs on channel %d", m.OID, m.ChannelA)
		}
		if oids[m.OID] {
			return invalid("motor oid %d used twice", m.OID)
		}
		oids[m.OID] = true
	}
	return nil
}

// ClockSource builds the clock described by the config
func (c *BoardConfig) ClockSource() core.ClockSource {
	if c.Clock.Kind == ClockFixed {
		return core.FixedClock(c.Clock.FixedHz)
	}
	return core.APBClock{PCLK1Hz: c.Clock.PCLK1Hz, PCLK2Hz: c.Clock.PCLK2Hz}
}

func checkChannel(number uint8) error {
	if number < 1 || number > core.MaxChannels {
		return invalid("channel %d out of range 1..%d", number, core.MaxChannels)
	}
	return nil
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrInvalidConfig}, args...)...)
}

// DefaultConfig returns a board with one advanced-control timer driving a
// motor on CH1/CH2 and a general-purpose timer decoding an encoder
func DefaultConfig() *BoardConfig {
	config := &BoardConfig{
		Name:  "timerhal-h5",
		Clock: ClockConfig{Kind: ClockAPB, PCLK1Hz: 250000000, PCLK2Hz: 250000000},
		Timers: []TimerConfig{
			{Block: "TIM1", Lock: true},
			{Block: "TIM2", Lock: true},
			{Block: "TIM3"},
		},
		PWM: []PWMConfig{
			{OID: 0, Timer: "TIM3", Channel: 1, FrequencyHz: 20000, DutyTenthPct: 0},
			{OID: 1, Timer: "TIM3", Channel: 2, FrequencyHz: 20000, DutyTenthPct: 0},
		},
		Encoders: []EncoderConfig{
			{OID: 0, Timer: "TIM2", MaxCount: 0xFFFF, Filter: 4},
		},
		Motors: []MotorConfig{
			{OID: 0, Timer: "TIM1", ChannelA: 1, ChannelB: 2, FrequencyHz: 20000},
		},
	}
	return config
}
