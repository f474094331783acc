package tpk

import (
	"fmt"

	"github.com/keyfold/keyfold/errors"
	"github.com/keyfold/keyfold/packet"
)

// The token grammar, one token of lookahead throughout:
//
//	TPK        := Primary Component*
//	Primary    := PrimaryKey Signature*
//	PrimaryKey := PUBLIC_KEY | SECRET_KEY
//	Component  := (Subkey | UserID | UserAttribute | Unknown) Signature*
//	Subkey     := PUBLIC_SUBKEY | SECRET_SUBKEY
//
// Trust tokens may appear anywhere a signature may and are discarded.
// There is no recovery: a token that fits no production ends the parse.

type parseState int

const (
	statePrimarySignatures parseState = iota
	stateComponentSignatures
)

// FromTokens folds a token stream into a certificate.
//
// Three outcomes are possible. (t, nil) is a certificate. (nil, nil) means
// the stream does not encode a certificate: it is empty, does not open
// with a primary key, holds more than one primary key, or was given in
// validation mode. A non-nil error is returned only when the stream
// clearly began a certificate whose primary key packet the decoder could
// not interpret; the error is an errors.UnsupportedTPKError naming the
// packet's tag.
func FromTokens(tokens []Token) (*TPK, error) {
	cert, _, err := run(tokens)
	return cert, err
}

// FromPackets assembles a certificate from decoded packets. The outcomes
// are those of FromTokens.
func FromPackets(ps []packet.Packet) (*TPK, error) {
	return FromTokens(Tokenize(ps))
}

// Check reports whether a sequence of structural classes has the shape of
// a transferable key. It is the validation-mode probe: no packet payloads
// are needed and no certificate is built.
func Check(classes []Class) bool {
	_, matched, err := run(TokenizeClasses(classes))
	return matched && err == nil
}

// run drives the recognizer over the tokens and accumulates the
// certificate. matched reports whether the stream has the shape of a
// transferable key; cert is non-nil only if it additionally carried
// interpretable payloads throughout.
func run(tokens []Token) (cert *TPK, matched bool, err error) {
	if len(tokens) == 0 {
		return nil, false, nil
	}

	first := tokens[0]
	indeterminate := false

	switch first.Class {
	case ClassPrimaryPublicKey, ClassPrimarySecretKey:
	case ClassUnknown:
		// The stream opens with a packet the decoder gave up on. In
		// validation mode there is nothing further to say; with a
		// payload this is a certificate we cannot support, not a
		// non-certificate.
		if first.Packet != nil {
			return nil, false, unsupportedPrimary(first.Packet)
		}
		return nil, false, nil
	default:
		return nil, false, nil
	}

	cert = new(TPK)
	switch key := first.Packet.(type) {
	case *packet.PublicKey:
		cert.PrimaryKey = key
	case *packet.PrivateKey:
		cert.PrivateKey = key
		cert.PrimaryKey = &key.PublicKey
	case *packet.Unknown:
		// Tagged as a primary key, body undecodable.
		return nil, false, unsupportedPrimary(key)
	case nil:
		indeterminate = true
	default:
		return nil, false, errors.StructuralError(
			fmt.Sprintf("primary key token carries a %T", first.Packet))
	}

	state := statePrimarySignatures
	var pending *Binding
	var pendingClass Class

	flush := func() {
		if pending == nil {
			return
		}
		switch pendingClass {
		case ClassPublicSubkey, ClassSecretSubkey:
			cert.Subkeys = append(cert.Subkeys, *pending)
		case ClassUserID:
			cert.UserIDs = append(cert.UserIDs, *pending)
		case ClassUserAttribute:
			cert.UserAttributes = append(cert.UserAttributes, *pending)
		default:
			cert.Unknowns = append(cert.Unknowns, *pending)
		}
		pending = nil
	}

	for _, t := range tokens[1:] {
		switch t.Class {
		case ClassTrust:
			// Legal wherever a signature is; never retained.

		case ClassSignature:
			if t.Packet == nil {
				indeterminate = true
				continue
			}
			sig, ok := t.Packet.(*packet.Signature)
			if !ok {
				// The decoder saw the signature tag but could not parse
				// the body. Dropping just this signature keeps the rest
				// of the certificate usable.
				continue
			}
			if state == statePrimarySignatures {
				cert.PrimarySignatures = append(cert.PrimarySignatures, sig)
			} else {
				pending.Signatures = append(pending.Signatures, sig)
			}

		case ClassPrimaryPublicKey, ClassPrimarySecretKey:
			// A second primary key: the stream is a keyring, not a
			// single certificate.
			return nil, false, nil

		default:
			// Subkey, user ID, user attribute or unknown: a new
			// component begins.
			flush()
			if t.Packet == nil {
				indeterminate = true
			}
			pending = &Binding{Component: t.Packet}
			pendingClass = t.Class
			state = stateComponentSignatures
		}
	}
	flush()

	if indeterminate {
		return nil, true, nil
	}
	return cert, true, nil
}

func unsupportedPrimary(p packet.Packet) error {
	u, ok := p.(*packet.Unknown)
	if !ok {
		return errors.UnsupportedTPKError("unparsable primary key")
	}
	reason := fmt.Sprintf("tag %d", u.PacketTag)
	if u.Err != nil {
		reason += ": " + u.Err.Error()
	}
	return errors.UnsupportedTPKError(reason)
}
