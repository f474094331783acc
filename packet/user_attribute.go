// Copyright 2011 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package packet

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/keyfold/keyfold/errors"
)

const UserAttrImageSubpacket = 1

// UserAttribute is capable of storing other types of data about a user
// beyond name, email and a text comment. In practice, user attributes are
// typically used to store a signed thumbnail photo JPEG image of the user.
// See RFC 4880, section 5.12.
type UserAttribute struct {
	Contents []*Subpacket
}

// Subpacket is a user attribute subpacket: a typed, opaque blob of bytes.
type Subpacket struct {
	SubType  uint8
	Contents []byte
}

func (uat *UserAttribute) Tag() Tag {
	return TagUserAttribute
}

func (uat *UserAttribute) parse(body []byte) error {
	for len(body) > 0 {
		length, advance, err := subpacketLength(body)
		if err != nil {
			return err
		}
		body = body[advance:]
		if length == 0 || int(length) > len(body) {
			return errors.StructuralError("user attribute subpacket truncated")
		}
		uat.Contents = append(uat.Contents, &Subpacket{
			SubType:  body[0],
			Contents: body[1:length],
		})
		body = body[length:]
	}
	return nil
}

// Serialize marshals the user attribute to w in the form of an OpenPGP
// packet, including header.
func (uat *UserAttribute) Serialize(w io.Writer) error {
	var buf bytes.Buffer
	for _, sp := range uat.Contents {
		writeSubpacketLength(&buf, uint32(1+len(sp.Contents)))
		buf.WriteByte(sp.SubType)
		buf.Write(sp.Contents)
	}
	return serializeBody(w, TagUserAttribute, buf.Bytes())
}

// ImageData returns zero or more byte slices, each containing JPEG File
// Interchange Format (JFIF), for each photo in the user attribute packet.
func (uat *UserAttribute) ImageData() (imageData [][]byte) {
	for _, sp := range uat.Contents {
		if sp.SubType == UserAttrImageSubpacket && len(sp.Contents) > 16 {
			// The first 16 bytes are an image header.
			imageData = append(imageData, sp.Contents[16:])
		}
	}
	return
}

// subpacketLength parses a subpacket length prefix and returns the length
// and the number of octets the prefix occupies. The encoding is shared
// with signature subpackets. See RFC 4880, section 5.2.3.1.
func subpacketLength(d []byte) (length uint32, advance int, err error) {
	switch {
	case len(d) == 0:
		return 0, 0, errors.StructuralError("truncated subpacket length")
	case d[0] < 192:
		return uint32(d[0]), 1, nil
	case d[0] < 255:
		if len(d) < 2 {
			return 0, 0, errors.StructuralError("truncated subpacket length")
		}
		return (uint32(d[0])-192)<<8 + uint32(d[1]) + 192, 2, nil
	default:
		if len(d) < 5 {
			return 0, 0, errors.StructuralError("truncated subpacket length")
		}
		return binary.BigEndian.Uint32(d[1:5]), 5, nil
	}
}

func writeSubpacketLength(buf *bytes.Buffer, length uint32) {
	switch {
	case length < 192:
		buf.WriteByte(byte(length))
	case length < 8384:
		length -= 192
		buf.WriteByte(192 + byte(length>>8))
		buf.WriteByte(byte(length))
	default:
		buf.WriteByte(255)
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], length)
		buf.Write(b[:])
	}
}
