package tpk

import (
	"io"

	"github.com/keyfold/keyfold/errors"
	"github.com/keyfold/keyfold/packet"
)

// A TPKList is an ordered set of certificates, e.g. a keyring.
type TPKList []*TPK

// ByKeyID returns the certificates holding a key (primary or subkey) with
// the given key ID.
func (l TPKList) ByKeyID(id uint64) TPKList {
	var out TPKList
	for _, t := range l {
		for _, kid := range t.KeyIDs() {
			if kid == id {
				out = append(out, t)
				break
			}
		}
	}
	return out
}

// FromReader decodes all packets from r and assembles them into a single
// certificate. The outcomes are those of FromTokens.
func FromReader(r io.Reader) (*TPK, error) {
	ps, err := packet.NewReader(r).ReadAll()
	if err != nil {
		return nil, err
	}
	return FromPackets(ps)
}

// ReadTPK reads one certificate's packet run from the reader and
// assembles it. Reading stops before the packet that begins the next
// certificate, which is left unread, or at the end of the stream. io.EOF
// is returned once the reader is exhausted.
func ReadTPK(packets *packet.Reader) (*TPK, error) {
	p, err := packets.Next()
	if err != nil {
		return nil, err
	}
	ps := []packet.Packet{p}
	for {
		p, err = packets.Next()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, err
		}
		if beginsCertificate(p) {
			packets.Unread(p)
			break
		}
		ps = append(ps, p)
	}
	return FromPackets(ps)
}

// ReadKeyring reads zero or more certificates from r. Unsupported and
// non-certificate packet runs are skipped, as long as at least one
// certificate is found; otherwise the last unsupported-certificate error
// is surfaced.
func ReadKeyring(r io.Reader) (TPKList, error) {
	packets := packet.NewReader(r)
	var list TPKList
	var lastUnsupported error

	for {
		t, err := ReadTPK(packets)
		if err == io.EOF {
			break
		} else if err != nil {
			if _, ok := err.(errors.UnsupportedTPKError); ok {
				lastUnsupported = err
				continue
			}
			return nil, err
		}
		if t != nil {
			list = append(list, t)
		}
	}

	if len(list) == 0 && lastUnsupported != nil {
		return nil, lastUnsupported
	}
	return list, nil
}

// beginsCertificate reports whether the packet can only be the start of a
// new certificate: a non-subkey key packet, decodable or not.
func beginsCertificate(p packet.Packet) bool {
	switch pkt := p.(type) {
	case *packet.PublicKey:
		return !pkt.IsSubkey
	case *packet.PrivateKey:
		return !pkt.IsSubkey
	case *packet.Unknown:
		return pkt.PacketTag == packet.TagPublicKey || pkt.PacketTag == packet.TagSecretKey
	}
	return false
}
