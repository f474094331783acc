// Package tpk assembles OpenPGP transferable keys (certificates) from
// flat packet streams.
//
// A certificate is transmitted as a sequence of packets whose grouping is
// implied by their order: a primary key, the signatures on it, and then
// components (subkeys, user IDs, user attributes) each followed by its own
// signatures. This package recognizes that shape with one token of
// lookahead and folds it into a TPK value, tolerating packets it cannot
// interpret: unreadable signatures are dropped, unrecognized components
// are preserved, and only an unreadable primary key rejects the whole
// certificate. See RFC 4880, section 11.1.
package tpk

import (
	"encoding/hex"
	"io"
	"strings"

	"github.com/keyfold/keyfold/packet"
)

// A Binding pairs a component packet with the signature packets that
// immediately followed it in the stream, in stream order. Which of the
// signatures are self-signatures, third-party certifications or
// revocations is not decided here; that classification requires
// cryptographic verification and belongs to a later pass.
type Binding struct {
	Component  packet.Packet
	Signatures []*packet.Signature
}

// A TPK is a transferable key: exactly one primary key and the components
// bound to it. Insertion order within each list is stream order, which is
// semantically meaningful (the first user ID is conventionally the primary
// one).
//
// Trust packets are never retained, and a signature packet that could not
// be parsed is dropped from its run; everything else the stream carried is
// preserved, including components of unrecognized types.
type TPK struct {
	PrimaryKey *packet.PublicKey
	// PrivateKey is non-nil when the certificate was assembled from a
	// secret key. PrimaryKey then aliases its public part.
	PrivateKey *packet.PrivateKey

	// PrimarySignatures are the signatures that directly follow the
	// primary key, before any component.
	PrimarySignatures []*packet.Signature

	Subkeys        []Binding
	UserIDs        []Binding
	UserAttributes []Binding
	Unknowns       []Binding
}

// Fingerprint returns the primary key's fingerprint.
func (t *TPK) Fingerprint() []byte {
	return t.PrimaryKey.Fingerprint
}

// FingerprintHex returns the primary key's fingerprint as an uppercase
// hex string, the form used for keyserver and store lookups.
func (t *TPK) FingerprintHex() string {
	return toUpperHex(t.PrimaryKey.Fingerprint)
}

// KeyID returns the primary key's 64-bit key ID.
func (t *TPK) KeyID() uint64 {
	return t.PrimaryKey.KeyId
}

// PrimaryUserID returns the certificate's first user ID, or nil if it has
// none.
func (t *TPK) PrimaryUserID() *packet.UserID {
	for _, b := range t.UserIDs {
		if uid, ok := b.Component.(*packet.UserID); ok {
			return uid
		}
	}
	return nil
}

// KeyIDs returns the key IDs of the primary key and of every subkey that
// was decodable. Used for store indexing.
func (t *TPK) KeyIDs() []uint64 {
	ids := []uint64{t.PrimaryKey.KeyId}
	for _, b := range t.Subkeys {
		switch k := b.Component.(type) {
		case *packet.PublicKey:
			ids = append(ids, k.KeyId)
		case *packet.PrivateKey:
			ids = append(ids, k.KeyId)
		}
	}
	return ids
}

// Serialize writes the certificate to w as a public key packet sequence:
// primary key, its signatures, then user IDs, user attributes, subkeys and
// unrecognized components, each with its signature run. Secret key
// material is not written; see SerializePrivate.
func (t *TPK) Serialize(w io.Writer) error {
	if err := t.PrimaryKey.Serialize(w); err != nil {
		return err
	}
	return t.serializeRest(w, false)
}

// SerializePrivate is like Serialize but writes secret key packets where
// the certificate holds them.
func (t *TPK) SerializePrivate(w io.Writer) error {
	if t.PrivateKey != nil {
		if err := t.PrivateKey.Serialize(w); err != nil {
			return err
		}
	} else {
		if err := t.PrimaryKey.Serialize(w); err != nil {
			return err
		}
	}
	return t.serializeRest(w, true)
}

func (t *TPK) serializeRest(w io.Writer, private bool) error {
	for _, sig := range t.PrimarySignatures {
		if err := sig.Serialize(w); err != nil {
			return err
		}
	}
	for _, group := range [][]Binding{t.UserIDs, t.UserAttributes, t.Subkeys, t.Unknowns} {
		for _, b := range group {
			component := b.Component
			if !private {
				// Emit the public part of a secret subkey.
				if priv, ok := component.(*packet.PrivateKey); ok {
					component = &priv.PublicKey
				}
			}
			if err := component.Serialize(w); err != nil {
				return err
			}
			for _, sig := range b.Signatures {
				if err := sig.Serialize(w); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func toUpperHex(b []byte) string {
	return strings.ToUpper(hex.EncodeToString(b))
}
