// Package errors contains common error types for the keyfold packages.
package errors

// A StructuralError is returned when OpenPGP data is found to be
// syntactically invalid.
type StructuralError string

func (s StructuralError) Error() string {
	return "keyfold: invalid data: " + string(s)
}

// UnsupportedError indicates that, although the OpenPGP data is valid, it
// makes use of currently unimplemented features.
type UnsupportedError string

func (s UnsupportedError) Error() string {
	return "keyfold: unsupported feature: " + string(s)
}

// InvalidArgumentError indicates that the caller is in error and passed an
// incorrect value.
type InvalidArgumentError string

func (i InvalidArgumentError) Error() string {
	return "keyfold: invalid argument: " + string(i)
}

// UnsupportedTPKError indicates that a packet stream began a certificate,
// but its primary key packet could not be interpreted. The message names
// the offending packet's original tag.
type UnsupportedTPKError string

func (u UnsupportedTPKError) Error() string {
	return "keyfold: unsupported certificate: " + string(u)
}
