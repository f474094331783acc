package tpk

import (
	"github.com/keyfold/keyfold/packet"
)

// A Validator is the incremental form of Check: it consumes structural
// classes one at a time and tracks whether the sequence so far could still
// be a transferable key. It never materializes packets, which makes it
// cheap enough to run ahead of a full parse, e.g. to probe whether a
// stream is worth assembling at all.
//
// The zero value is ready for use.
type Validator struct {
	sawPrimary bool
	bad        bool
}

// Push feeds the next structural class to the validator.
func (v *Validator) Push(c Class) {
	if v.bad {
		return
	}
	switch {
	case !v.sawPrimary:
		if c == ClassPrimaryPublicKey || c == ClassPrimarySecretKey {
			v.sawPrimary = true
		} else {
			v.bad = true
		}
	case c == ClassPrimaryPublicKey || c == ClassPrimarySecretKey:
		// A second primary key never fits a single certificate.
		v.bad = true
	default:
		// Signatures, trust annotations and components all fit after
		// the primary key.
	}
}

// PushPacket classifies p and feeds it to the validator.
func (v *Validator) PushPacket(p packet.Packet) {
	v.Push(Classify(p))
}

// OK reports whether the classes pushed so far form a valid transferable
// key. Pushing further classes may still invalidate the sequence.
func (v *Validator) OK() bool {
	return v.sawPrimary && !v.bad
}
