package packet

import (
	"bytes"
	"testing"
)

// uatBody builds a user attribute body holding one image subpacket with
// the given JPEG bytes.
func uatBody(jpeg []byte) []byte {
	contents := make([]byte, 16, 16+len(jpeg)) // image header
	contents[0] = 0x10                         // header length, little endian
	contents[2] = 1                            // header version
	contents[3] = 1                            // JPEG
	contents = append(contents, jpeg...)

	body := []byte{byte(1 + len(contents)), UserAttrImageSubpacket}
	return append(body, contents...)
}

func TestUserAttributeImage(t *testing.T) {
	jpeg := []byte{0xff, 0xd8, 0xff, 0xe0, 1, 2, 3}
	p := readOne(t, newFormat(TagUserAttribute, uatBody(jpeg)))
	uat, ok := p.(*UserAttribute)
	if !ok {
		t.Fatalf("got %T, want *UserAttribute", p)
	}
	if len(uat.Contents) != 1 || uat.Contents[0].SubType != UserAttrImageSubpacket {
		t.Fatalf("unexpected subpackets: %+v", uat.Contents)
	}
	images := uat.ImageData()
	if len(images) != 1 || !bytes.Equal(images[0], jpeg) {
		t.Errorf("ImageData = %v, want %v", images, jpeg)
	}
}

func TestUserAttributeRoundTrip(t *testing.T) {
	raw := newFormat(TagUserAttribute, uatBody([]byte{0xff, 0xd8, 0xff}))
	uat := readOne(t, raw).(*UserAttribute)

	var buf bytes.Buffer
	if err := uat.Serialize(&buf); err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if !bytes.Equal(buf.Bytes(), raw) {
		t.Error("serialization did not round-trip")
	}
}

func TestUserAttributeTruncated(t *testing.T) {
	uat := new(UserAttribute)
	if err := uat.parse([]byte{200}); err == nil {
		t.Fatal("expected an error for a truncated subpacket")
	}
}
