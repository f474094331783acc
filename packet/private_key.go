// Copyright 2011 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package packet

import (
	"encoding/binary"
	"io"

	"github.com/keyfold/keyfold/errors"
)

// PrivateKey represents an OpenPGP secret key packet. The public part is
// decoded as a PublicKey; the secret key material (everything after the
// public fields) is kept opaque. See RFC 4880, section 5.5.3.
type PrivateKey struct {
	PublicKey

	body []byte
}

func (pk *PrivateKey) Tag() Tag {
	if pk.IsSubkey {
		return TagSecretSubkey
	}
	return TagSecretKey
}

func (pk *PrivateKey) parse(body []byte) error {
	// The public key fields lead the packet; the fingerprint is computed
	// over them alone, so the public prefix has to be split out. Versions
	// 5 and 6 carry an explicit octet count, version 4 requires walking
	// the algorithm-specific fields.
	if len(body) < 6 {
		return errors.StructuralError("private key packet too short")
	}
	var pub []byte
	if body[0] >= 5 {
		if len(body) < 10 {
			return errors.StructuralError("private key packet too short")
		}
		material := int(binary.BigEndian.Uint32(body[6:10]))
		if 10+material > len(body) {
			return errors.StructuralError("private key material length mismatch")
		}
		pub = body[:10+material]
	} else {
		n, err := publicKeyMaterialLength(PublicKeyAlgorithm(body[5]), body[6:])
		if err != nil {
			return err
		}
		pub = body[:6+n]
	}
	if err := pk.PublicKey.parse(pub); err != nil {
		return err
	}
	pk.body = body
	return nil
}

// Serialize writes the secret key packet, including the opaque secret key
// material, with a new-format header.
func (pk *PrivateKey) Serialize(w io.Writer) error {
	return serializeBody(w, pk.Tag(), pk.body)
}
