package crypto

import (
	"errors"
	"testing"
)

func TestKnownDigests(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"md5", "", "d41d8cd98f00b204e9800998ecf8427e"},
		{"md5", "0000", "4a7d1ed414474e4033ac29ccb8653d9b"},
		{"md5", "fe8b5b0b5dd14b495f75ec4ec33ba619", "ddfeb4973fbe79b616ae1d29a0c3f8fb"},
		{"sha256", "", "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"},
		{"keccak256", "", "c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470"},
		{"sha3-256", "", "a7ffc6f8bf1ed76651c14756a061d662f580ff4de43b49fa82d80a4b80f8434a"},
		{"blake2b-256", "", "0e5751c026e543b2e8ab2eb06099daa1d1e5df47778f7787faab45cdf12fe3a8"},
	}

	for _, tt := range tests {
		t.Run(tt.name+"/"+tt.input, func(t *testing.T) {
			h, err := Lookup(tt.name)
			if err != nil {
				t.Fatalf("Lookup(%q) error: %v", tt.name, err)
			}
			if got := h([]byte(tt.input)); got != tt.want {
				t.Errorf("%s(%q) = %s, want %s", tt.name, tt.input, got, tt.want)
			}
		})
	}
}

func TestLookup(t *testing.T) {
	if _, err := Lookup(" MD5 "); err != nil {
		t.Errorf("Lookup should ignore case and spaces: %v", err)
	}
	if _, err := Lookup("crc32"); !errors.Is(err, ErrUnknownHash) {
		t.Errorf("Lookup(crc32) error = %v, want %v", err, ErrUnknownHash)
	}
}

func TestDigestLen(t *testing.T) {
	if got := DigestLen(MD5Hex); got != 32 {
		t.Errorf("DigestLen(md5) = %d, want 32", got)
	}
	if got := DigestLen(SHA256Hex); got != 64 {
		t.Errorf("DigestLen(sha256) = %d, want 64", got)
	}
}

func TestNamesSorted(t *testing.T) {
	names := Names()
	if len(names) != 5 {
		t.Fatalf("Names() returned %d entries, want 5", len(names))
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] > names[i] {
			t.Errorf("Names() not sorted: %v", names)
		}
	}
}
