package dataurl

import (
	"bytes"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	payload := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a}
	uri := Encode("image/png", payload)

	mime, data, err := Decode(uri)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if mime != "image/png" {
		t.Fatalf("mime = %q, want image/png", mime)
	}
	if !bytes.Equal(data, payload) {
		t.Fatalf("payload mismatch")
	}
}

func TestEncodeDefaultsMimeType(t *testing.T) {
	uri := Encode("  ", []byte("x"))
	mime, _, err := Decode(uri)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if mime != "application/octet-stream" {
		t.Fatalf("mime = %q", mime)
	}
}

func TestDecodeRejectsMalformedInput(t *testing.T) {
	cases := []string{
		"",
		"https://example.com/image.png",
		"data:image/png;base64",
		"data:image/png,plainpayload",
		"data:image/png;base64,not-base64!!",
	}
	for _, in := range cases {
		if _, _, err := Decode(in); err == nil {
			t.Errorf("Decode(%q) succeeded, want error", in)
		}
	}
}
