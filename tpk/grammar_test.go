package tpk

import (
	"bytes"
	"encoding/binary"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/keyfold/keyfold/errors"
	"github.com/keyfold/keyfold/packet"
)

// Test streams are built from raw packet bytes and run through the real
// decoder, so the fixtures exercise the same path as production input.

func frame(tag packet.Tag, body []byte) []byte {
	if len(body) >= 192 {
		panic("test body too large for a one-octet length")
	}
	return append([]byte{0xc0 | byte(tag), byte(len(body))}, body...)
}

func keyBody(ctime uint32) []byte {
	body := []byte{4}
	body = binary.BigEndian.AppendUint32(body, ctime)
	body = append(body, byte(packet.PubKeyAlgoEd25519))
	return append(body, make([]byte, 32)...)
}

func secretKeyBody(ctime uint32) []byte {
	return append(keyBody(ctime), 0, 1, 2, 3)
}

func sigBody(ctime uint32) []byte {
	hashed := []byte{5, 2} // creation time subpacket
	hashed = binary.BigEndian.AppendUint32(hashed, ctime)

	body := []byte{4, byte(packet.SigTypePositiveCert), byte(packet.PubKeyAlgoEdDSA), 8}
	body = binary.BigEndian.AppendUint16(body, uint16(len(hashed)))
	body = append(body, hashed...)
	body = binary.BigEndian.AppendUint16(body, 0)
	body = append(body, 0xbe, 0xef)
	return body
}

func uidBody(id string) []byte {
	return []byte(id)
}

// stream concatenates framed packets.
func stream(chunks ...[]byte) []byte {
	var out []byte
	for _, c := range chunks {
		out = append(out, c...)
	}
	return out
}

func mustPackets(t *testing.T, raw []byte) []packet.Packet {
	t.Helper()
	ps, err := packet.NewReader(bytes.NewReader(raw)).ReadAll()
	if err != nil {
		t.Fatalf("decoding fixture: %v", err)
	}
	return ps
}

func mustTPK(t *testing.T, raw []byte) *TPK {
	t.Helper()
	cert, err := FromPackets(mustPackets(t, raw))
	if err != nil {
		t.Fatalf("FromPackets: %v", err)
	}
	if cert == nil {
		t.Fatal("FromPackets: stream was not recognized as a certificate")
	}
	return cert
}

// shape summarizes a certificate for comparisons.
type shape struct {
	PrimarySigs    int
	Subkeys        []int
	UserIDs        []int
	UserAttributes []int
	Unknowns       []int
}

func shapeOf(t *TPK) shape {
	s := shape{PrimarySigs: len(t.PrimarySignatures)}
	for _, b := range t.Subkeys {
		s.Subkeys = append(s.Subkeys, len(b.Signatures))
	}
	for _, b := range t.UserIDs {
		s.UserIDs = append(s.UserIDs, len(b.Signatures))
	}
	for _, b := range t.UserAttributes {
		s.UserAttributes = append(s.UserAttributes, len(b.Signatures))
	}
	for _, b := range t.Unknowns {
		s.Unknowns = append(s.Unknowns, len(b.Signatures))
	}
	return s
}

func TestAssembleBasic(t *testing.T) {
	// [PublicKey, Signature, Signature, UserID, Signature]
	cert := mustTPK(t, stream(
		frame(packet.TagPublicKey, keyBody(1)),
		frame(packet.TagSignature, sigBody(10)),
		frame(packet.TagSignature, sigBody(11)),
		frame(packet.TagUserID, uidBody("Testy McTestface <testy@example.org>")),
		frame(packet.TagSignature, sigBody(12)),
	))

	want := shape{PrimarySigs: 2, UserIDs: []int{1}}
	if diff := cmp.Diff(want, shapeOf(cert)); diff != "" {
		t.Errorf("certificate shape mismatch (-want +got):\n%s", diff)
	}
	uid := cert.PrimaryUserID()
	if uid == nil || uid.Email != "testy@example.org" {
		t.Errorf("primary user id = %+v", uid)
	}
}

func TestEmptyStream(t *testing.T) {
	cert, err := FromPackets(nil)
	if cert != nil || err != nil {
		t.Errorf("got (%v, %v), want (nil, nil)", cert, err)
	}
}

func TestNotACertificate(t *testing.T) {
	streams := map[string][]byte{
		"leading user id":   frame(packet.TagUserID, uidBody("x")),
		"leading signature": frame(packet.TagSignature, sigBody(1)),
		"leading trust":     frame(packet.TagTrust, []byte{1}),
		"leading subkey":    frame(packet.TagPublicSubkey, keyBody(1)),
	}
	for name, raw := range streams {
		cert, err := FromPackets(mustPackets(t, raw))
		if cert != nil || err != nil {
			t.Errorf("%s: got (%v, %v), want (nil, nil)", name, cert, err)
		}
	}
}

func TestUnknownPrimaryRejected(t *testing.T) {
	cert, err := FromPackets([]packet.Packet{&packet.Unknown{PacketTag: 99}})
	if cert != nil {
		t.Fatal("no certificate should be built around an unknown primary")
	}
	if _, ok := err.(errors.UnsupportedTPKError); !ok {
		t.Fatalf("got %T (%v), want UnsupportedTPKError", err, err)
	}
	if !strings.Contains(err.Error(), "tag 99") {
		t.Errorf("error should name the tag: %v", err)
	}
}

func TestUnparsablePrimaryKeyRejected(t *testing.T) {
	// A packet tagged as a public key whose body the decoder rejects.
	raw := stream(
		frame(packet.TagPublicKey, []byte{9, 9, 9}),
		frame(packet.TagUserID, uidBody("x")),
	)
	cert, err := FromPackets(mustPackets(t, raw))
	if cert != nil {
		t.Fatal("no certificate should be built around an unparsable primary")
	}
	if _, ok := err.(errors.UnsupportedTPKError); !ok {
		t.Fatalf("got %T (%v), want UnsupportedTPKError", err, err)
	}
	if !strings.Contains(err.Error(), "tag 6") {
		t.Errorf("error should name the tag: %v", err)
	}
}

func TestTrustTransparency(t *testing.T) {
	trust := frame(packet.TagTrust, []byte{1, 2, 3})
	plain := stream(
		frame(packet.TagPublicKey, keyBody(1)),
		frame(packet.TagSignature, sigBody(10)),
		frame(packet.TagUserID, uidBody("a")),
		frame(packet.TagSignature, sigBody(11)),
	)
	sprinkled := stream(
		frame(packet.TagPublicKey, keyBody(1)),
		trust,
		frame(packet.TagSignature, sigBody(10)),
		trust,
		frame(packet.TagUserID, uidBody("a")),
		trust,
		frame(packet.TagSignature, sigBody(11)),
		trust,
	)
	if diff := cmp.Diff(shapeOf(mustTPK(t, plain)), shapeOf(mustTPK(t, sprinkled))); diff != "" {
		t.Errorf("trust packets changed the certificate (-plain +sprinkled):\n%s", diff)
	}
}

func TestMalformedSignatureTolerated(t *testing.T) {
	good := stream(
		frame(packet.TagPublicKey, keyBody(1)),
		frame(packet.TagUserID, uidBody("a")),
		frame(packet.TagSignature, sigBody(10)),
		frame(packet.TagSignature, sigBody(11)),
	)
	// The second signature's body is garbage; the decoder keeps its tag.
	degraded := stream(
		frame(packet.TagPublicKey, keyBody(1)),
		frame(packet.TagUserID, uidBody("a")),
		frame(packet.TagSignature, sigBody(10)),
		frame(packet.TagSignature, []byte{0xff}),
	)

	g := mustTPK(t, good)
	d := mustTPK(t, degraded)
	if len(g.UserIDs[0].Signatures) != 2 {
		t.Fatalf("good binding has %d signatures, want 2", len(g.UserIDs[0].Signatures))
	}
	if len(d.UserIDs[0].Signatures) != 1 {
		t.Fatalf("degraded binding has %d signatures, want 1", len(d.UserIDs[0].Signatures))
	}
	gs, ds := shapeOf(g), shapeOf(d)
	gs.UserIDs, ds.UserIDs = nil, nil
	if diff := cmp.Diff(gs, ds); diff != "" {
		t.Errorf("dropping a malformed signature changed more than its run:\n%s", diff)
	}
}

func TestUnknownComponentPreserved(t *testing.T) {
	cert := mustTPK(t, stream(
		frame(packet.TagPublicKey, keyBody(1)),
		frame(packet.Tag(39), []byte{1, 2, 3}),
		frame(packet.TagSignature, sigBody(10)),
	))
	if len(cert.Unknowns) != 1 {
		t.Fatalf("got %d unknown bindings, want 1", len(cert.Unknowns))
	}
	b := cert.Unknowns[0]
	u, ok := b.Component.(*packet.Unknown)
	if !ok {
		t.Fatalf("component is %T, want *packet.Unknown", b.Component)
	}
	if u.PacketTag != 39 || !bytes.Equal(u.Contents, []byte{1, 2, 3}) {
		t.Errorf("unknown component not preserved: tag %d contents %v", u.PacketTag, u.Contents)
	}
	if len(b.Signatures) != 1 {
		t.Errorf("got %d signatures on the unknown binding, want 1", len(b.Signatures))
	}
}

func TestSecondPrimaryKey(t *testing.T) {
	raw := stream(
		frame(packet.TagPublicKey, keyBody(1)),
		frame(packet.TagPublicKey, keyBody(2)),
	)
	cert, err := FromPackets(mustPackets(t, raw))
	if cert != nil || err != nil {
		t.Errorf("got (%v, %v), want (nil, nil) for a keyring", cert, err)
	}
}

func TestSecretKeyPrimary(t *testing.T) {
	cert := mustTPK(t, stream(
		frame(packet.TagSecretKey, secretKeyBody(5)),
		frame(packet.TagUserID, uidBody("a")),
		frame(packet.TagSignature, sigBody(10)),
		frame(packet.TagSecretSubkey, secretKeyBody(6)),
		frame(packet.TagSignature, sigBody(11)),
	))
	if cert.PrivateKey == nil {
		t.Fatal("PrivateKey should be set for a secret key certificate")
	}
	if cert.PrimaryKey != &cert.PrivateKey.PublicKey {
		t.Error("PrimaryKey should alias the private key's public part")
	}
	if len(cert.Subkeys) != 1 {
		t.Fatalf("got %d subkeys, want 1", len(cert.Subkeys))
	}
	if _, ok := cert.Subkeys[0].Component.(*packet.PrivateKey); !ok {
		t.Errorf("subkey component is %T, want *packet.PrivateKey", cert.Subkeys[0].Component)
	}
}

func TestComponentDistribution(t *testing.T) {
	cert := mustTPK(t, stream(
		frame(packet.TagPublicKey, keyBody(1)),
		frame(packet.TagUserID, uidBody("first")),
		frame(packet.TagSignature, sigBody(10)),
		frame(packet.TagUserID, uidBody("second")),
		frame(packet.TagUserAttribute, []byte{3, 1, 0, 0}),
		frame(packet.TagPublicSubkey, keyBody(2)),
		frame(packet.TagSignature, sigBody(11)),
		frame(packet.TagSignature, sigBody(12)),
	))

	want := shape{
		UserIDs:        []int{1, 0},
		UserAttributes: []int{0},
		Subkeys:        []int{2},
	}
	if diff := cmp.Diff(want, shapeOf(cert)); diff != "" {
		t.Errorf("component distribution mismatch (-want +got):\n%s", diff)
	}
	if uid := cert.PrimaryUserID(); uid == nil || uid.Id != "first" {
		t.Errorf("primary user id should be the first one, got %+v", uid)
	}
}

func TestValidationModeBuildsNothing(t *testing.T) {
	cert, err := FromTokens(TokenizeClasses([]Class{
		ClassPrimaryPublicKey, ClassSignature, ClassUserID, ClassSignature,
	}))
	if cert != nil || err != nil {
		t.Errorf("got (%v, %v), want (nil, nil) in validation mode", cert, err)
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	raw := stream(
		frame(packet.TagPublicKey, keyBody(1)),
		frame(packet.TagSignature, sigBody(10)),
		frame(packet.TagUserID, uidBody("a")),
		frame(packet.TagSignature, sigBody(11)),
		frame(packet.TagPublicSubkey, keyBody(2)),
		frame(packet.TagSignature, sigBody(12)),
	)
	cert := mustTPK(t, raw)

	var buf bytes.Buffer
	if err := cert.Serialize(&buf); err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	again, err := FromReader(&buf)
	if err != nil {
		t.Fatalf("FromReader: %v", err)
	}
	if again == nil {
		t.Fatal("serialized certificate did not parse back")
	}
	if !bytes.Equal(cert.Fingerprint(), again.Fingerprint()) {
		t.Error("fingerprint changed across the round trip")
	}
	if diff := cmp.Diff(shapeOf(cert), shapeOf(again)); diff != "" {
		t.Errorf("shape changed across the round trip:\n%s", diff)
	}
}
