package core

import "errors"

var errMockFault = errors.New("mock register fault")

// mockRegisters is an in-memory TimerRegisters used by the core tests
type mockRegisters struct {
	block    BlockID
	divider  uint32
	period   uint32
	compare  [MaxChannels]uint32
	outputs  [MaxChannels]bool
	counter  uint32
	counting bool
	encoder  bool
	filter   uint8

	failOp string
}

func newMockRegisters(block BlockID) *mockRegisters {
	return &mockRegisters{block: block}
}

func (m *mockRegisters) fail(op string) error {
	if m.failOp == op {
		return errMockFault
	}
	return nil
}

func (m *mockRegisters) Block() BlockID { return m.block }

func (m *mockRegisters) SetDivider(value uint32) error {
	if err := m.fail("divider"); err != nil {
		return err
	}
	m.divider = value
	return nil
}

func (m *mockRegisters) Divider() uint32 { return m.divider }

func (m *mockRegisters) SetPeriod(value uint32) error {
	if err := m.fail("period"); err != nil {
		return err
	}
	m.period = value
	return nil
}

func (m *mockRegisters) Period() uint32 { return m.period }

func (m *mockRegisters) SetCompare(ch Channel, value uint32) error {
	if err := m.fail("compare"); err != nil {
		return err
	}
	m.compare[ch.index] = value
	return nil
}

func (m *mockRegisters) Compare(ch Channel) uint32 { return m.compare[ch.index] }

func (m *mockRegisters) EnableOutput(ch Channel) error {
	if err := m.fail("enable"); err != nil {
		return err
	}
	m.outputs[ch.index] = true
	return nil
}

func (m *mockRegisters) DisableOutput(ch Channel) error {
	if err := m.fail("disable"); err != nil {
		return err
	}
	m.outputs[ch.index] = false
	return nil
}

func (m *mockRegisters) ConfigureEncoder(filter uint8) error {
	if err := m.fail("encoder"); err != nil {
		return err
	}
	m.encoder = true
	m.filter = filter
	return nil
}

func (m *mockRegisters) EnableCounter() error {
	if err := m.fail("counter_on"); err != nil {
		return err
	}
	m.counting = true
	return nil
}

func (m *mockRegisters) DisableCounter() error {
	if err := m.fail("counter_off"); err != nil {
		return err
	}
	m.counting = false
	return nil
}

func (m *mockRegisters) Counter() uint32 { return m.counter }

func (m *mockRegisters) SetCounter(value uint32) error {
	if err := m.fail("set_counter"); err != nil {
		return err
	}
	m.counter = value
	return nil
}

// heldMutex returns a Mutex that is already taken
func heldMutex() *Mutex {
	m := NewMutex()
	m.Acquire(0)
	return m
}
