package packet

import "strconv"

// Tag is an OpenPGP packet tag. See RFC 4880, section 4.3.
type Tag uint8

const (
	TagReserved      Tag = 0
	TagSignature     Tag = 2
	TagSecretKey     Tag = 5
	TagPublicKey     Tag = 6
	TagSecretSubkey  Tag = 7
	TagTrust         Tag = 12
	TagUserID        Tag = 13
	TagPublicSubkey  Tag = 14
	TagUserAttribute Tag = 17
)

func (t Tag) String() string {
	switch t {
	case TagSignature:
		return "Signature"
	case TagSecretKey:
		return "Secret-Key"
	case TagPublicKey:
		return "Public-Key"
	case TagSecretSubkey:
		return "Secret-Subkey"
	case TagTrust:
		return "Trust"
	case TagUserID:
		return "User ID"
	case TagPublicSubkey:
		return "Public-Subkey"
	case TagUserAttribute:
		return "User Attribute"
	default:
		return "Unknown(tag " + strconv.Itoa(int(t)) + ")"
	}
}
