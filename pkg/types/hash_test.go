package types

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestHash_IsZero(t *testing.T) {
	var zero Hash
	if !zero.IsZero() {
		t.Error("zero hash should be zero")
	}

	h := Hash{0x01}
	if h.IsZero() {
		t.Error("non-zero hash should not be zero")
	}
}

func TestHash_String(t *testing.T) {
	h := Hash{0xAB, 0xCD}
	s := h.String()
	if len(s) != HashSize*2 {
		t.Errorf("String() length = %d, want %d", len(s), HashSize*2)
	}
	if !strings.HasPrefix(s, "abcd") {
		t.Errorf("String() = %s, want abcd... prefix", s)
	}
}

func TestHash_JSONRoundTrip(t *testing.T) {
	h := Hash{0x01, 0x02, 0x03}

	data, err := json.Marshal(h)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded Hash
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded != h {
		t.Errorf("round trip mismatch: got %s, want %s", decoded, h)
	}
}

func TestHexToHash(t *testing.T) {
	h := Hash{0xFF, 0xEE}
	parsed, err := HexToHash(h.String())
	if err != nil {
		t.Fatalf("HexToHash: %v", err)
	}
	if parsed != h {
		t.Errorf("round trip mismatch")
	}

	if _, err := HexToHash("abcd"); err == nil {
		t.Error("HexToHash should reject wrong length")
	}
	if _, err := HexToHash("zz"); err == nil {
		t.Error("HexToHash should reject non-hex")
	}
}
