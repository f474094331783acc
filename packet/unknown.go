package packet

import "io"

// Unknown holds a packet the decoder could not interpret: either its tag
// is not implemented, or its body failed to parse. The original tag and
// the raw body are preserved so that the packet can be carried through
// and re-serialized instead of being silently dropped.
type Unknown struct {
	PacketTag Tag
	Contents  []byte

	// Err is the parse failure, or nil if the tag itself is unsupported.
	Err error
}

func (u *Unknown) Tag() Tag {
	return u.PacketTag
}

func (u *Unknown) parse(body []byte) error {
	u.Contents = body
	return nil
}

// Serialize writes the packet back out, with a new-format header, exactly
// as it was read.
func (u *Unknown) Serialize(w io.Writer) error {
	return serializeBody(w, u.PacketTag, u.Contents)
}
