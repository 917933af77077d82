package types

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestAddress_IsZero(t *testing.T) {
	var zero Address
	if !zero.IsZero() {
		t.Error("zero address should be zero")
	}

	addr := Address{0x01}
	if addr.IsZero() {
		t.Error("non-zero address should not be zero")
	}
}

func TestAddress_String_Mainnet(t *testing.T) {
	SetAddressHRP(MainnetHRP)
	addr := Address{0xAB, 0xCD}
	s := addr.String()
	if !strings.HasPrefix(s, "rps1") {
		t.Errorf("String() should start with 'rps1', got %s", s)
	}
}

func TestAddress_String_Testnet(t *testing.T) {
	SetAddressHRP(TestnetHRP)
	defer SetAddressHRP(MainnetHRP)

	addr := Address{0xAB, 0xCD}
	s := addr.String()
	if !strings.HasPrefix(s, "trps1") {
		t.Errorf("String() should start with 'trps1', got %s", s)
	}
}

func TestParseAddress_RoundTrip(t *testing.T) {
	SetAddressHRP(MainnetHRP)
	addr := Address{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0A,
		0x0B, 0x0C, 0x0D, 0x0E, 0x0F, 0x10, 0x11, 0x12, 0x13, 0x14}

	parsed, err := ParseAddress(addr.String())
	if err != nil {
		t.Fatalf("ParseAddress: %v", err)
	}
	if parsed != addr {
		t.Errorf("round trip mismatch: got %x, want %x", parsed, addr)
	}
}

func TestParseAddress_RawHex(t *testing.T) {
	rawHex := "0102030405060708090a0b0c0d0e0f1011121314"
	parsed, err := ParseAddress(rawHex)
	if err != nil {
		t.Fatalf("ParseAddress: %v", err)
	}
	if parsed.Hex() != rawHex {
		t.Errorf("Hex() = %s, want %s", parsed.Hex(), rawHex)
	}
}

func TestParseAddress_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"invalid bech32", "rps1invalid!!!"},
		{"short hex", "abcd"},
		{"bad chars", "zzzz"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseAddress(tt.input); err == nil {
				t.Errorf("ParseAddress(%q) should fail", tt.input)
			}
		})
	}
}

func TestHexToAddress(t *testing.T) {
	rawHex := "0102030405060708090a0b0c0d0e0f1011121314"
	addr, err := HexToAddress(rawHex)
	if err != nil {
		t.Fatalf("HexToAddress: %v", err)
	}
	if addr.Hex() != rawHex {
		t.Errorf("Hex() = %s, want %s", addr.Hex(), rawHex)
	}

	if _, err := HexToAddress("abcd"); err == nil {
		t.Error("HexToAddress should reject wrong length")
	}
}

func TestAddress_JSONRoundTrip(t *testing.T) {
	SetAddressHRP(MainnetHRP)
	addr := Address{0xAA, 0xBB, 0xCC}

	data, err := json.Marshal(addr)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(data), "rps1") {
		t.Errorf("JSON should contain bech32 address, got %s", data)
	}

	var decoded Address
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded != addr {
		t.Errorf("round trip mismatch: got %x, want %x", decoded, addr)
	}
}

func TestAddress_JSONEmptyString(t *testing.T) {
	var addr Address
	if err := json.Unmarshal([]byte(`""`), &addr); err != nil {
		t.Fatalf("Unmarshal empty: %v", err)
	}
	if !addr.IsZero() {
		t.Error("empty string should decode to zero address")
	}
}
