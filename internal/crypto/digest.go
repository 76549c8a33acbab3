package crypto

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"

	"github.com/screa/doorman-solver/pkg/types"
)

// DefaultHash is the digest the doorman puzzle page uses
const DefaultHash = "md5"

// ErrUnknownHash is returned by Lookup for unsupported names
var ErrUnknownHash = errors.New("unknown hash function")

var hashes = map[string]types.HashFunc{
	"md5":         MD5Hex,
	"sha256":      SHA256Hex,
	"keccak256":   Keccak256Hex,
	"sha3-256":    SHA3256Hex,
	"blake2b-256": Blake2b256Hex,
}

// Lookup returns the hash function registered under name (case-insensitive)
func Lookup(name string) (types.HashFunc, error) {
	h, ok := hashes[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: %q (supported: %s)", ErrUnknownHash, name, strings.Join(Names(), ", "))
	}
	return h, nil
}

// Names lists the supported hash names in sorted order
func Names() []string {
	names := make([]string, 0, len(hashes))
	for name := range hashes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DigestLen returns the number of hex characters h produces
func DigestLen(h types.HashFunc) int {
	return len(h(nil))
}

// MD5Hex returns the lowercase hex md5 digest of data
func MD5Hex(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

// SHA256Hex returns the lowercase hex sha256 digest of data
func SHA256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Keccak256Hex returns the legacy keccak256 digest used by Ethereum
func Keccak256Hex(data []byte) string {
	h := sha3.NewLegacyKeccak256()
	_, _ = h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// SHA3256Hex returns the FIPS-202 sha3-256 digest of data
func SHA3256Hex(data []byte) string {
	sum := sha3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Blake2b256Hex returns the unkeyed blake2b-256 digest of data
func Blake2b256Hex(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}
