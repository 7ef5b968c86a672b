package asset

import (
	"bytes"
	"encoding/base64"
	"errors"
	"testing"
)

func TestDataURIRoundTrip(t *testing.T) {
	payload := []byte{0xFF, 0xFB, 0x90, 0x00, 0x12, 0x34}
	uri := EncodeDataURI("audio/mp3", payload)

	mimeType, decoded, err := ParseDataURI(uri)
	if err != nil {
		t.Fatalf("ParseDataURI failed: %v", err)
	}
	if mimeType != "audio/mp3" {
		t.Errorf("expected audio/mp3, got %q", mimeType)
	}
	if !bytes.Equal(decoded, payload) {
		t.Errorf("payload mangled: %x != %x", decoded, payload)
	}
}

func TestDataURIFromSound(t *testing.T) {
	s := Sound{
		ID:       "snd-1",
		MIMEType: "audio/mp3",
		Data:     base64.StdEncoding.EncodeToString([]byte("hello")),
	}
	want := "data:audio/mp3;base64," + s.Data
	if got := DataURI(s); got != want {
		t.Errorf("DataURI = %q, want %q", got, want)
	}
}

func TestParseDataURIRejectsMalformedInput(t *testing.T) {
	cases := map[string]string{
		"missing scheme":    "audio/mp3;base64,aGk=",
		"missing separator": "data:audio/mp3;base64",
		"not base64 form":   "data:audio/mp3,plain-text",
		"empty mime type":   "data:;base64,aGk=",
		"bad base64":        "data:audio/mp3;base64,!!!!",
	}
	for name, uri := range cases {
		if _, _, err := ParseDataURI(uri); !errors.Is(err, ErrBadDataURI) {
			t.Errorf("%s: expected ErrBadDataURI, got %v", name, err)
		}
	}
}
