package packet

import "io"

// Trust is a local annotation packet emitted by some keyring
// implementations. It carries no certificate data and is discarded during
// certificate assembly; the contents are implementation-defined and kept
// opaque. See RFC 4880, section 5.10.
type Trust struct {
	Contents []byte
}

func (t *Trust) Tag() Tag {
	return TagTrust
}

func (t *Trust) parse(body []byte) error {
	t.Contents = body
	return nil
}

// Serialize writes the trust packet, with a new-format header, to w.
func (t *Trust) Serialize(w io.Writer) error {
	return serializeBody(w, TagTrust, t.Contents)
}
