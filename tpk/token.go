package tpk

import (
	"github.com/keyfold/keyfold/packet"
)

// Class is the structural class of a packet, as far as certificate
// assembly is concerned. Two packets of the same OpenPGP tag can classify
// differently: a key packet is a primary key or a subkey depending on its
// tag, and an undecodable packet classifies by what its tag claimed it to
// be only when tolerance demands it (a malformed signature is still a
// signature to the grammar, so that it can be dropped without rejecting
// the certificate).
type Class uint8

const (
	ClassUnknown Class = iota
	ClassPrimaryPublicKey
	ClassPrimarySecretKey
	ClassPublicSubkey
	ClassSecretSubkey
	ClassUserID
	ClassUserAttribute
	ClassSignature
	ClassTrust
)

func (c Class) String() string {
	switch c {
	case ClassPrimaryPublicKey:
		return "public key"
	case ClassPrimarySecretKey:
		return "secret key"
	case ClassPublicSubkey:
		return "public subkey"
	case ClassSecretSubkey:
		return "secret subkey"
	case ClassUserID:
		return "user id"
	case ClassUserAttribute:
		return "user attribute"
	case ClassSignature:
		return "signature"
	case ClassTrust:
		return "trust"
	default:
		return "unknown"
	}
}

// A Token pairs a packet's structural class with an optional payload.
//
// A nil Packet puts the token in validation mode: the grammar can still
// recognize the stream's shape, but no certificate is materialized and the
// parse outcome degrades to "not a certificate". There is no separate mode
// switch to keep consistent; each token carries everything the grammar
// needs.
type Token struct {
	Class  Class
	Packet packet.Packet
}

// Tokenize adapts decoded packets into construction-mode tokens, one per
// packet, preserving order.
func Tokenize(ps []packet.Packet) []Token {
	tokens := make([]Token, len(ps))
	for i, p := range ps {
		tokens[i] = Token{Class: Classify(p), Packet: p}
	}
	return tokens
}

// TokenizeClasses adapts bare structural classes into validation-mode
// tokens.
func TokenizeClasses(cs []Class) []Token {
	tokens := make([]Token, len(cs))
	for i, c := range cs {
		tokens[i] = Token{Class: c}
	}
	return tokens
}

// Classify returns the structural class of a packet. Undecodable packets
// classify as signatures when their tag claimed to be one, so that the
// grammar can drop them from a signature run; any other undecodable
// packet is an unknown component.
func Classify(p packet.Packet) Class {
	switch pkt := p.(type) {
	case *packet.PublicKey:
		if pkt.IsSubkey {
			return ClassPublicSubkey
		}
		return ClassPrimaryPublicKey
	case *packet.PrivateKey:
		if pkt.IsSubkey {
			return ClassSecretSubkey
		}
		return ClassPrimarySecretKey
	case *packet.UserID:
		return ClassUserID
	case *packet.UserAttribute:
		return ClassUserAttribute
	case *packet.Signature:
		return ClassSignature
	case *packet.Trust:
		return ClassTrust
	case *packet.Unknown:
		if pkt.PacketTag == packet.TagSignature {
			return ClassSignature
		}
		return ClassUnknown
	default:
		return ClassUnknown
	}
}
