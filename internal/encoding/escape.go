package encoding

// scanState tracks position within a possible control/escape sequence while
// walking a byte stream. Ground is the only state in which bytes are text.
type scanState int

const (
	stateGround scanState = iota
	stateEsc              // saw ESC
	stateCsi              // ESC [ or lone 0x9B
	stateOsc              // ESC ] ... terminated by BEL or ESC \
	stateOscEsc           // ESC inside OSC, waiting for \
	stateDcs              // ESC P ... terminated by ESC \
	stateDcsEsc           // ESC inside DCS, waiting for \
)

const (
	esc = 0x1b
	bel = 0x07
	csi = 0x9b // single-byte CSI introducer
)

// advanceEscape returns the scan state after consuming one byte of an
// in-progress sequence. It is never called for Ground; the caller handles
// sequence starts via beginEscape.
func advanceEscape(state scanState, b byte) scanState {
	switch state {
	case stateEsc:
		switch {
		case b == '[':
			return stateCsi
		case b == ']':
			return stateOsc
		case b == 'P':
			return stateDcs
		case b >= 0x40 && b <= 0x7e:
			// Two-byte escape such as ESC M or ESC c.
			return stateGround
		default:
			// Intermediate bytes (ESC ( B and friends).
			return stateEsc
		}
	case stateCsi:
		if b >= 0x40 && b <= 0x7e {
			return stateGround
		}
		return stateCsi
	case stateOsc:
		switch b {
		case bel:
			return stateGround
		case esc:
			return stateOscEsc
		default:
			return stateOsc
		}
	case stateOscEsc:
		if b == '\\' {
			return stateGround
		}
		return stateOsc
	case stateDcs:
		if b == esc {
			return stateDcsEsc
		}
		return stateDcs
	case stateDcsEsc:
		if b == '\\' {
			return stateGround
		}
		return stateDcs
	}
	return stateGround
}

// beginEscape starts accumulating a sequence from its introducer byte.
// 0x9B opens a CSI sequence directly; ESC waits for the next byte.
func beginEscape(state *scanState, escapeBytes *[]byte, b byte) {
	*escapeBytes = (*escapeBytes)[:0]
	*escapeBytes = append(*escapeBytes, b)
	if b == csi {
		*state = stateCsi
	} else {
		*state = stateEsc
	}
}
