// Package hidkey models the USB side of the bridge: boot-protocol HID
// keyboard state, usage-code constants, and the wire format snapshots
// travel in between a feed client and the bridge daemon.
package hidkey

import (
	"errors"
	"io"
)

// MaxKeys is the number of regular key slots in a boot-protocol report.
const MaxKeys = 6

// ErrOversizedFrame marks a wire frame whose key count exceeds MaxKeys.
var ErrOversizedFrame = errors.New("hidkey: key count exceeds boot protocol limit")

// Snapshot is one poll of the keyboard: the 8 modifier flags plus the
// regular usage codes currently held. Absence from Keys means released;
// duplicates are harmless. A Snapshot is sampled, never mutated in place
// by the bridge.
type Snapshot struct {
	Modifiers uint8
	Keys      []uint8
}

// Press builds a snapshot holding the given regular keys with no modifiers.
func Press(keys ...uint8) Snapshot {
	return Snapshot{Keys: keys}
}

// PressWith builds a snapshot holding the given keys under the given
// modifier flags.
func PressWith(modifiers uint8, keys ...uint8) Snapshot {
	return Snapshot{Modifiers: modifiers, Keys: keys}
}

// Released is the empty snapshot: nothing held.
func Released() Snapshot {
	return Snapshot{}
}

// Holds reports whether code appears in the snapshot's regular key list.
func (s Snapshot) Holds(code uint8) bool {
	for _, k := range s.Keys {
		if k == code {
			return true
		}
	}
	return false
}

// MarshalBinary encodes the snapshot to its wire format.
//
// Wire format:
//
//	Byte 0: Modifiers
//	Byte 1: Key count
//	Bytes 2+: pressed regular usage codes
func (s Snapshot) MarshalBinary() ([]byte, error) {
	n := len(s.Keys)
	if n > MaxKeys {
		n = MaxKeys
	}
	b := make([]byte, 2+n)
	b[0] = s.Modifiers
	b[1] = uint8(n)
	copy(b[2:], s.Keys[:n])
	return b, nil
}

// UnmarshalBinary decodes the wire format produced by MarshalBinary.
// Key counts above MaxKeys are rejected as malformed.
func (s *Snapshot) UnmarshalBinary(data []byte) error {
	if len(data) < 2 {
		return io.ErrUnexpectedEOF
	}
	count := int(data[1])
	if count > MaxKeys {
		return ErrOversizedFrame
	}
	if len(data) < 2+count {
		return io.ErrUnexpectedEOF
	}
	s.Modifiers = data[0]
	s.Keys = append(s.Keys[:0], data[2:2+count]...)
	return nil
}
