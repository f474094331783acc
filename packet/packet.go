// Copyright 2011 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package packet implements a structural decoder for OpenPGP packets as
// described in RFC 4880. It decodes packet framing and the fields needed to
// assemble transferable keys; key material and signature material are kept
// opaque. See RFC 4880, section 4.
package packet

import (
	"encoding/binary"
	"io"

	"github.com/keyfold/keyfold/errors"
)

// Packet is a single unit of an OpenPGP stream, decoded at the structural
// level.
type Packet interface {
	// Tag returns the packet's OpenPGP tag.
	Tag() Tag
	// Serialize writes the packet, with a new-format header, to w.
	Serialize(w io.Writer) error

	// parse decodes the packet from its framed body. Failure does not
	// discard the packet; the Reader wraps it into an Unknown instead.
	parse(body []byte) error
}

// readHeader parses a packet header, in either the old or the new format,
// and returns the tag and the complete (de-chunked) body. Partial body
// lengths are concatenated transparently. See RFC 4880, section 4.2.
func readHeader(r io.Reader) (tag Tag, body []byte, err error) {
	var buf [4]byte
	if _, err = io.ReadFull(r, buf[:1]); err != nil {
		return 0, nil, err
	}
	ctb := buf[0]
	if ctb&0x80 == 0 {
		return 0, nil, errors.StructuralError("tag byte does not have MSB set")
	}

	if ctb&0x40 == 0 {
		// Old format: tag in bits 2-5, length type in bits 0-1.
		tag = Tag((ctb & 0x3f) >> 2)
		var length uint32
		switch ctb & 0x03 {
		case 0:
			if _, err = io.ReadFull(r, buf[:1]); err != nil {
				return 0, nil, err
			}
			length = uint32(buf[0])
		case 1:
			if _, err = io.ReadFull(r, buf[:2]); err != nil {
				return 0, nil, err
			}
			length = uint32(binary.BigEndian.Uint16(buf[:2]))
		case 2:
			if _, err = io.ReadFull(r, buf[:4]); err != nil {
				return 0, nil, err
			}
			length = binary.BigEndian.Uint32(buf[:4])
		case 3:
			// Indeterminate: the body extends to the end of the stream.
			body, err = io.ReadAll(r)
			return tag, body, err
		}
		body = make([]byte, length)
		if _, err = io.ReadFull(r, body); err != nil {
			return 0, nil, err
		}
		return tag, body, nil
	}

	// New format: tag in bits 0-5.
	tag = Tag(ctb & 0x3f)
	for {
		var n uint32
		var partial bool
		n, partial, err = readLength(r)
		if err != nil {
			return 0, nil, err
		}
		chunk := make([]byte, n)
		if _, err = io.ReadFull(r, chunk); err != nil {
			return 0, nil, err
		}
		body = append(body, chunk...)
		if !partial {
			return tag, body, nil
		}
	}
}

// readLength parses a new-format body length octet sequence. partial is
// true if the length is a partial body length, in which case further
// lengths follow the chunk. See RFC 4880, section 4.2.2.
func readLength(r io.Reader) (length uint32, partial bool, err error) {
	var buf [4]byte
	if _, err = io.ReadFull(r, buf[:1]); err != nil {
		return 0, false, err
	}
	switch {
	case buf[0] < 192:
		return uint32(buf[0]), false, nil
	case buf[0] < 224:
		if _, err = io.ReadFull(r, buf[1:2]); err != nil {
			return 0, false, err
		}
		return (uint32(buf[0])-192)<<8 + uint32(buf[1]) + 192, false, nil
	case buf[0] < 255:
		return uint32(1) << (buf[0] & 0x1f), true, nil
	default:
		if _, err = io.ReadFull(r, buf[:4]); err != nil {
			return 0, false, err
		}
		return binary.BigEndian.Uint32(buf[:4]), false, nil
	}
}

// serializeHeader writes a new-format packet header for a packet of the
// given tag and body length.
func serializeHeader(w io.Writer, tag Tag, length int) error {
	var buf [6]byte
	buf[0] = 0xc0 | byte(tag)
	var n int
	switch {
	case length < 192:
		buf[1] = byte(length)
		n = 2
	case length < 8384:
		length -= 192
		buf[1] = 192 + byte(length>>8)
		buf[2] = byte(length)
		n = 3
	default:
		buf[1] = 255
		binary.BigEndian.PutUint32(buf[2:6], uint32(length))
		n = 6
	}
	_, err := w.Write(buf[:n])
	return err
}

// serializeBody writes a full packet (header and body) to w.
func serializeBody(w io.Writer, tag Tag, body []byte) error {
	if err := serializeHeader(w, tag, len(body)); err != nil {
		return err
	}
	_, err := w.Write(body)
	return err
}
