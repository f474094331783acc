package packet

import (
	"bytes"
	"encoding/binary"
	"testing"
	"time"
)

// v4Sig builds a version 4 signature body with a hashed creation-time
// subpacket and an unhashed issuer subpacket.
func v4Sig(sigType SignatureType, ctime uint32, issuer uint64) []byte {
	hashed := []byte{5, creationTimeSubpacket}
	hashed = binary.BigEndian.AppendUint32(hashed, ctime)

	unhashed := []byte{9, issuerSubpacket}
	unhashed = binary.BigEndian.AppendUint64(unhashed, issuer)

	body := []byte{4, byte(sigType), byte(PubKeyAlgoEdDSA), 8}
	body = binary.BigEndian.AppendUint16(body, uint16(len(hashed)))
	body = append(body, hashed...)
	body = binary.BigEndian.AppendUint16(body, uint16(len(unhashed)))
	body = append(body, unhashed...)
	body = append(body, 0xde, 0xad)       // hash prefix
	body = append(body, 0, 8, 0xff, 0xee) // opaque signature material
	return body
}

func TestParseV4Signature(t *testing.T) {
	p := readOne(t, newFormat(TagSignature, v4Sig(SigTypePositiveCert, 1500000000, 0x1122334455667788)))
	sig, ok := p.(*Signature)
	if !ok {
		t.Fatalf("got %T, want *Signature", p)
	}
	if sig.Version != 4 || sig.SigType != SigTypePositiveCert {
		t.Errorf("got version %d type %x", sig.Version, sig.SigType)
	}
	if want := time.Unix(1500000000, 0).UTC(); !sig.CreationTime.Equal(want) {
		t.Errorf("creation time = %v, want %v", sig.CreationTime, want)
	}
	if sig.IssuerKeyId == nil || *sig.IssuerKeyId != 0x1122334455667788 {
		t.Errorf("issuer = %v, want 1122334455667788", sig.IssuerKeyId)
	}
}

func TestParseV3Signature(t *testing.T) {
	body := []byte{3, 5, byte(SigTypeGenericCert)}
	body = binary.BigEndian.AppendUint32(body, 1000)
	body = binary.BigEndian.AppendUint64(body, 0xcafe)
	body = append(body, byte(PubKeyAlgoRSA), 2, 0xaa, 0xbb)

	p := readOne(t, newFormat(TagSignature, body))
	sig, ok := p.(*Signature)
	if !ok {
		t.Fatalf("got %T, want *Signature", p)
	}
	if sig.Version != 3 || sig.SigType != SigTypeGenericCert {
		t.Errorf("got version %d type %x", sig.Version, sig.SigType)
	}
	if sig.IssuerKeyId == nil || *sig.IssuerKeyId != 0xcafe {
		t.Errorf("issuer = %v, want cafe", sig.IssuerKeyId)
	}
}

func TestCriticalSubpacket(t *testing.T) {
	// Creation time subpacket with the critical bit set.
	hashed := []byte{5, creationTimeSubpacket | 0x80}
	hashed = binary.BigEndian.AppendUint32(hashed, 99)

	body := []byte{4, byte(SigTypeBinary), byte(PubKeyAlgoEdDSA), 8}
	body = binary.BigEndian.AppendUint16(body, uint16(len(hashed)))
	body = append(body, hashed...)
	body = binary.BigEndian.AppendUint16(body, 0)
	body = append(body, 0, 0)

	p := readOne(t, newFormat(TagSignature, body))
	sig, ok := p.(*Signature)
	if !ok {
		t.Fatalf("got %T, want *Signature", p)
	}
	if !sig.CreationTime.Equal(time.Unix(99, 0).UTC()) {
		t.Errorf("creation time = %v", sig.CreationTime)
	}
}

func TestIssuerFingerprintSubpacket(t *testing.T) {
	fp := bytes.Repeat([]byte{0xab}, 20)
	sub := []byte{22, issuerFingerprintSubpacket, 4}
	sub = append(sub, fp...)

	body := []byte{4, byte(SigTypeBinary), byte(PubKeyAlgoEdDSA), 8}
	body = binary.BigEndian.AppendUint16(body, uint16(len(sub)))
	body = append(body, sub...)
	body = binary.BigEndian.AppendUint16(body, 0)
	body = append(body, 0, 0)

	p := readOne(t, newFormat(TagSignature, body))
	sig, ok := p.(*Signature)
	if !ok {
		t.Fatalf("got %T, want *Signature", p)
	}
	if !bytes.Equal(sig.IssuerFingerprint, fp) {
		t.Errorf("issuer fingerprint = %x", sig.IssuerFingerprint)
	}
	if sig.IssuerKeyId == nil || *sig.IssuerKeyId != binary.BigEndian.Uint64(fp[12:20]) {
		t.Errorf("issuer key id not derived from v4 fingerprint")
	}
}

func TestSignatureSerializeRoundTrip(t *testing.T) {
	raw := newFormat(TagSignature, v4Sig(SigTypeSubkeyBinding, 7, 9))
	sig := readOne(t, raw).(*Signature)

	var buf bytes.Buffer
	if err := sig.Serialize(&buf); err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if !bytes.Equal(buf.Bytes(), raw) {
		t.Error("serialization did not round-trip")
	}
}

func TestTruncatedSubpacketArea(t *testing.T) {
	body := []byte{4, byte(SigTypeBinary), byte(PubKeyAlgoEdDSA), 8, 0xff, 0xff}
	sig := new(Signature)
	if err := sig.parse(body); err == nil {
		t.Fatal("expected an error for a truncated subpacket area")
	}
}
