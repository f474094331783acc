// Copyright 2011 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package packet

import (
	"crypto/sha1"
	"crypto/sha256"
	"encoding/binary"
	"io"
	"strconv"
	"time"

	"github.com/keyfold/keyfold/errors"
)

// PublicKeyAlgorithm is the numeric identifier of a public key algorithm.
// See RFC 4880, section 9.1.
type PublicKeyAlgorithm uint8

const (
	PubKeyAlgoRSA     PublicKeyAlgorithm = 1
	PubKeyAlgoElGamal PublicKeyAlgorithm = 16
	PubKeyAlgoDSA     PublicKeyAlgorithm = 17
	PubKeyAlgoECDH    PublicKeyAlgorithm = 18
	PubKeyAlgoECDSA   PublicKeyAlgorithm = 19
	PubKeyAlgoEdDSA   PublicKeyAlgorithm = 22
	PubKeyAlgoX25519  PublicKeyAlgorithm = 25
	PubKeyAlgoX448    PublicKeyAlgorithm = 26
	PubKeyAlgoEd25519 PublicKeyAlgorithm = 27
	PubKeyAlgoEd448   PublicKeyAlgorithm = 28
)

// PublicKey represents an OpenPGP public key packet, decoded structurally:
// the version, creation time and algorithm are interpreted, the key
// material itself is preserved as opaque bytes. See RFC 4880, section
// 5.5.2.
type PublicKey struct {
	Version      int
	CreationTime time.Time
	PubKeyAlgo   PublicKeyAlgorithm
	Fingerprint  []byte
	KeyId        uint64
	IsSubkey     bool

	body []byte
}

func (pk *PublicKey) Tag() Tag {
	if pk.IsSubkey {
		return TagPublicSubkey
	}
	return TagPublicKey
}

func (pk *PublicKey) parse(body []byte) error {
	if len(body) < 6 {
		return errors.StructuralError("public key packet too short")
	}
	pk.Version = int(body[0])
	switch pk.Version {
	case 4, 5, 6:
	default:
		return errors.UnsupportedError("public key version " + strconv.Itoa(pk.Version))
	}
	pk.CreationTime = time.Unix(int64(binary.BigEndian.Uint32(body[1:5])), 0).UTC()
	pk.PubKeyAlgo = PublicKeyAlgorithm(body[5])
	if pk.Version >= 5 {
		// Versions 5 and 6 carry a four-octet count of the key material.
		if len(body) < 10 {
			return errors.StructuralError("public key packet too short")
		}
		material := binary.BigEndian.Uint32(body[6:10])
		if uint32(len(body)-10) != material {
			return errors.StructuralError("public key material length mismatch")
		}
	} else {
		n, err := publicKeyMaterialLength(pk.PubKeyAlgo, body[6:])
		if err != nil {
			return err
		}
		if len(body) != 6+n {
			return errors.StructuralError("public key material length mismatch")
		}
	}
	pk.body = body
	pk.setFingerprintAndKeyId()
	return nil
}

// publicKeyMaterialLength walks the algorithm-specific public key fields
// and returns the number of octets they occupy. The fields are not
// interpreted. See RFC 4880, section 5.5.2 and RFC 9580, section 5.5.5.
func publicKeyMaterialLength(algo PublicKeyAlgorithm, d []byte) (int, error) {
	switch algo {
	case PubKeyAlgoRSA:
		return mpiSpanLength(d, 2)
	case PubKeyAlgoElGamal:
		return mpiSpanLength(d, 3)
	case PubKeyAlgoDSA:
		return mpiSpanLength(d, 4)
	case PubKeyAlgoECDSA, PubKeyAlgoEdDSA, PubKeyAlgoECDH:
		n, err := oidLength(d)
		if err != nil {
			return 0, err
		}
		m, err := mpiSpanLength(d[n:], 1)
		if err != nil {
			return 0, err
		}
		if algo == PubKeyAlgoECDH {
			// KDF parameters trail the point, framed like the OID.
			k, err := oidLength(d[n+m:])
			if err != nil {
				return 0, err
			}
			return n + m + k, nil
		}
		return n + m, nil
	case PubKeyAlgoX25519, PubKeyAlgoEd25519:
		return checkedLength(d, 32)
	case PubKeyAlgoX448:
		return checkedLength(d, 56)
	case PubKeyAlgoEd448:
		return checkedLength(d, 57)
	default:
		return 0, errors.UnsupportedError("public key algorithm " + strconv.Itoa(int(algo)))
	}
}

// mpiSpanLength returns the octet length of count consecutive MPIs.
func mpiSpanLength(d []byte, count int) (int, error) {
	var total int
	for i := 0; i < count; i++ {
		if len(d) < total+2 {
			return 0, errors.StructuralError("truncated MPI")
		}
		bits := int(binary.BigEndian.Uint16(d[total : total+2]))
		n := 2 + (bits+7)/8
		if len(d) < total+n {
			return 0, errors.StructuralError("truncated MPI")
		}
		total += n
	}
	return total, nil
}

// oidLength returns the octet length of a one-octet-framed field (curve
// OID or KDF parameters).
func oidLength(d []byte) (int, error) {
	if len(d) < 1 {
		return 0, errors.StructuralError("truncated curve OID")
	}
	n := 1 + int(d[0])
	if len(d) < n {
		return 0, errors.StructuralError("truncated curve OID")
	}
	return n, nil
}

func checkedLength(d []byte, n int) (int, error) {
	if len(d) < n {
		return 0, errors.StructuralError("truncated key material")
	}
	return n, nil
}

// setFingerprintAndKeyId computes the fingerprint over the serialized
// packet body, per the key version's hash and framing. See RFC 4880,
// section 12.2 and the crypto-refresh section 5.5.4.
func (pk *PublicKey) setFingerprintAndKeyId() {
	switch pk.Version {
	case 4:
		h := sha1.New()
		h.Write([]byte{0x99, byte(len(pk.body) >> 8), byte(len(pk.body))})
		h.Write(pk.body)
		pk.Fingerprint = h.Sum(nil)
		pk.KeyId = binary.BigEndian.Uint64(pk.Fingerprint[12:20])
	case 5:
		h := sha256.New()
		var length [4]byte
		binary.BigEndian.PutUint32(length[:], uint32(len(pk.body)))
		h.Write([]byte{0x9a})
		h.Write(length[:])
		h.Write(pk.body)
		pk.Fingerprint = h.Sum(nil)
		pk.KeyId = binary.BigEndian.Uint64(pk.Fingerprint[:8])
	case 6:
		h := sha256.New()
		var length [4]byte
		binary.BigEndian.PutUint32(length[:], uint32(len(pk.body)))
		h.Write([]byte{0x9b})
		h.Write(length[:])
		h.Write(pk.body)
		pk.Fingerprint = h.Sum(nil)
		pk.KeyId = binary.BigEndian.Uint64(pk.Fingerprint[:8])
	}
}

// Serialize writes the public key packet, with a new-format header, to w.
func (pk *PublicKey) Serialize(w io.Writer) error {
	return serializeBody(w, pk.Tag(), pk.body)
}

// KeyIdMatches reports whether the given key ID matches this key.
func (pk *PublicKey) KeyIdMatches(id uint64) bool {
	return pk.KeyId == id
}
