// Copyright 2011 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package packet

import (
	"io"
)

// Reader reads packets from an io.Reader and allows packets to be
// 'unread' so that they result from the next call to Next.
//
// Next never fails on a packet it cannot interpret: an unimplemented tag
// or an unparsable body yields an *Unknown carrying the original tag and
// raw contents. Only framing-level failures (a truncated or corrupt
// header) are reported as errors.
type Reader struct {
	q []Packet
	r io.Reader
}

// NewReader returns a Reader that reads packets from r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// Next returns the next packet in the stream, or io.EOF at its end.
func (r *Reader) Next() (Packet, error) {
	if len(r.q) > 0 {
		p := r.q[len(r.q)-1]
		r.q = r.q[:len(r.q)-1]
		return p, nil
	}

	tag, body, err := readHeader(r.r)
	if err != nil {
		return nil, err
	}

	p := newPacket(tag)
	if p == nil {
		return &Unknown{PacketTag: tag, Contents: body}, nil
	}
	if err := p.parse(body); err != nil {
		return &Unknown{PacketTag: tag, Contents: body, Err: err}, nil
	}
	return p, nil
}

// Unread causes the given packet to be returned from the next call to
// Next.
func (r *Reader) Unread(p Packet) {
	r.q = append(r.q, p)
}

// ReadAll drains the reader and returns all remaining packets.
func (r *Reader) ReadAll() ([]Packet, error) {
	var ps []Packet
	for {
		p, err := r.Next()
		if err == io.EOF {
			return ps, nil
		} else if err != nil {
			return nil, err
		}
		ps = append(ps, p)
	}
}

// newPacket returns a zero value of the packet type for tag, or nil if
// the tag is not implemented.
func newPacket(tag Tag) Packet {
	switch tag {
	case TagSignature:
		return new(Signature)
	case TagSecretKey:
		return new(PrivateKey)
	case TagPublicKey:
		return new(PublicKey)
	case TagSecretSubkey:
		return &PrivateKey{PublicKey: PublicKey{IsSubkey: true}}
	case TagTrust:
		return new(Trust)
	case TagUserID:
		return new(UserID)
	case TagPublicSubkey:
		return &PublicKey{IsSubkey: true}
	case TagUserAttribute:
		return new(UserAttribute)
	default:
		return nil
	}
}
