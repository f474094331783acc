// Copyright 2011 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package packet

import (
	"encoding/binary"
	"io"
	"strconv"
	"time"

	"github.com/keyfold/keyfold/errors"
)

// SignatureType is the type of a signature. See RFC 4880, section 5.2.1.
type SignatureType uint8

const (
	SigTypeBinary                  SignatureType = 0x00
	SigTypeText                    SignatureType = 0x01
	SigTypeGenericCert             SignatureType = 0x10
	SigTypePersonaCert             SignatureType = 0x11
	SigTypeCasualCert              SignatureType = 0x12
	SigTypePositiveCert            SignatureType = 0x13
	SigTypeSubkeyBinding           SignatureType = 0x18
	SigTypePrimaryKeyBinding       SignatureType = 0x19
	SigTypeDirectSignature         SignatureType = 0x1f
	SigTypeKeyRevocation           SignatureType = 0x20
	SigTypeSubkeyRevocation        SignatureType = 0x28
	SigTypeCertificationRevocation SignatureType = 0x30
)

const (
	creationTimeSubpacket      = 2
	issuerSubpacket            = 16
	issuerFingerprintSubpacket = 33
)

// Signature represents a signature packet, decoded structurally. The
// version, type, algorithms and the creation-time and issuer subpackets
// are interpreted; the signature material is kept opaque and never
// verified here. See RFC 4880, section 5.2.
type Signature struct {
	Version      int
	SigType      SignatureType
	PubKeyAlgo   PublicKeyAlgorithm
	HashAlgo     uint8
	CreationTime time.Time

	// IssuerKeyId is nil when the signature carries no issuer subpacket.
	IssuerKeyId       *uint64
	IssuerFingerprint []byte

	body []byte
}

func (sig *Signature) Tag() Tag {
	return TagSignature
}

func (sig *Signature) parse(body []byte) error {
	if len(body) < 1 {
		return errors.StructuralError("signature packet too short")
	}
	sig.Version = int(body[0])
	switch sig.Version {
	case 3:
		return sig.parseV3(body)
	case 4, 6:
		return sig.parseV4(body)
	default:
		return errors.UnsupportedError("signature packet version " + strconv.Itoa(sig.Version))
	}
}

func (sig *Signature) parseV3(body []byte) error {
	// version | 0x05 | type | time | key id | pk algo | hash algo | left16
	if len(body) < 19 || body[1] != 5 {
		return errors.StructuralError("v3 signature packet malformed")
	}
	sig.SigType = SignatureType(body[2])
	sig.CreationTime = time.Unix(int64(binary.BigEndian.Uint32(body[3:7])), 0).UTC()
	keyId := binary.BigEndian.Uint64(body[7:15])
	sig.IssuerKeyId = &keyId
	sig.PubKeyAlgo = PublicKeyAlgorithm(body[15])
	sig.HashAlgo = body[16]
	sig.body = body
	return nil
}

func (sig *Signature) parseV4(body []byte) error {
	// version | type | pk algo | hash algo | hashed area | unhashed area
	lengthSize := 2
	if sig.Version == 6 {
		lengthSize = 4
	}
	if len(body) < 4+lengthSize {
		return errors.StructuralError("signature packet too short")
	}
	sig.SigType = SignatureType(body[1])
	sig.PubKeyAlgo = PublicKeyAlgorithm(body[2])
	sig.HashAlgo = body[3]

	rest := body[4:]
	hashed, rest, err := readSubpacketArea(rest, lengthSize)
	if err != nil {
		return err
	}
	unhashed, rest, err := readSubpacketArea(rest, lengthSize)
	if err != nil {
		return err
	}
	if len(rest) < 2 {
		return errors.StructuralError("signature packet missing hash prefix")
	}
	if err := sig.parseSubpackets(hashed); err != nil {
		return err
	}
	// The issuer subpacket conventionally lives in the unhashed area.
	if err := sig.parseSubpackets(unhashed); err != nil {
		return err
	}
	sig.body = body
	return nil
}

// readSubpacketArea splits off one subpacket area, prefixed by its octet
// count, and returns it along with the remainder of the packet.
func readSubpacketArea(d []byte, lengthSize int) (area, rest []byte, err error) {
	if len(d) < lengthSize {
		return nil, nil, errors.StructuralError("signature subpacket area truncated")
	}
	var n int
	if lengthSize == 2 {
		n = int(binary.BigEndian.Uint16(d[:2]))
	} else {
		n = int(binary.BigEndian.Uint32(d[:4]))
	}
	d = d[lengthSize:]
	if n > len(d) {
		return nil, nil, errors.StructuralError("signature subpacket area truncated")
	}
	return d[:n], d[n:], nil
}

func (sig *Signature) parseSubpackets(area []byte) error {
	for len(area) > 0 {
		length, advance, err := subpacketLength(area)
		if err != nil {
			return err
		}
		area = area[advance:]
		if length == 0 || int(length) > len(area) {
			return errors.StructuralError("signature subpacket truncated")
		}
		// The high bit of the type octet marks the subpacket critical;
		// criticality does not matter at the structural level.
		packetType := area[0] & 0x7f
		contents := area[1:length]
		area = area[length:]

		switch packetType {
		case creationTimeSubpacket:
			if len(contents) != 4 {
				return errors.StructuralError("signature creation time of wrong length")
			}
			sig.CreationTime = time.Unix(int64(binary.BigEndian.Uint32(contents)), 0).UTC()
		case issuerSubpacket:
			if len(contents) != 8 {
				return errors.StructuralError("issuer subpacket of wrong length")
			}
			keyId := binary.BigEndian.Uint64(contents)
			sig.IssuerKeyId = &keyId
		case issuerFingerprintSubpacket:
			if len(contents) < 1 {
				return errors.StructuralError("issuer fingerprint subpacket of wrong length")
			}
			sig.IssuerFingerprint = contents[1:] // leading octet is the key version
			if len(contents) >= 9 {
				var keyId uint64
				if contents[0] >= 5 {
					keyId = binary.BigEndian.Uint64(contents[1:9])
				} else {
					keyId = binary.BigEndian.Uint64(contents[len(contents)-8:])
				}
				sig.IssuerKeyId = &keyId
			}
		}
	}
	return nil
}

// Serialize writes the signature packet, with a new-format header, to w.
func (sig *Signature) Serialize(w io.Writer) error {
	return serializeBody(w, TagSignature, sig.body)
}
