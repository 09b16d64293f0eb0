package core

// MaxChannels is the largest number of channels any timer block exposes
const MaxChannels = 6

// Channel identifies one channel of a timer block. The set of values is
// closed: only Channel1..Channel6 exist outside this package, and the only
// runtime conversion is ChannelFromIndex.
type Channel struct {
	index uint8
}

var (
	Channel1 = Channel{0}
	Channel2 = Channel{1}
	Channel3 = Channel{2}
	Channel4 = Channel{3}
	Channel5 = Channel{4}
	Channel6 = Channel{5}
)

// ChannelFromIndex converts a zero-based channel index (0 = Channel1)
func ChannelFromIndex(index uint8) (Channel, error) {
	if index >= MaxChannels {
		return Channel{}, ErrInvalidParameter
	}
	return Channel{index}, nil
}

// Index returns the zero-based channel index
func (c Channel) Index() uint8 {
	return c.index
}

// Number returns the one-based channel number used in datasheets
func (c Channel) Number() uint8 {
	return c.index + 1
}

func (c Channel) String() string {
	return "CH" + utoa(uint32(c.Number()))
}

func (c Channel) mask() uint8 {
	return 1 << c.index
}

// ChannelMode is the role a channel has been claimed for
type ChannelMode uint8

const (
	ModeUnclaimed ChannelMode = iota
	ModeOutputCompare
	ModeQuadrature
)

func (m ChannelMode) String() string {
	switch m {
	case ModeUnclaimed:
		return "unclaimed"
	case ModeOutputCompare:
		return "output-compare"
	case ModeQuadrature:
		return "quadrature"
	default:
		return "mode(" + utoa(uint32(m)) + ")"
	}
}
