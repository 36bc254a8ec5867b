package crypto

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// DigestSize is the length in bytes of every content digest.
const DigestSize = 16

// Digest is a fixed-length content digest of a whole payload.
type Digest [DigestSize]byte

// ErrUnknownAlgorithm indicates an Algorithm value or name this package cannot hash with.
var ErrUnknownAlgorithm = errors.New("unknown hash algorithm")

// Algorithm selects the hash used to produce a Digest. Both algorithms
// produce exactly DigestSize bytes so the wire layout never changes.
type Algorithm uint8

const (
	// MD5 is the default content hash.
	MD5 Algorithm = iota
	// BLAKE2b128 is BLAKE2b truncated to a 128-bit output.
	BLAKE2b128
)

// String returns the configuration name of the algorithm.
func (a Algorithm) String() string {
	switch a {
	case MD5:
		return "md5"
	case BLAKE2b128:
		return "blake2b-128"
	default:
		return fmt.Sprintf("algorithm(%d)", uint8(a))
	}
}

// ParseAlgorithm maps a configuration name to an Algorithm.
// The empty string selects MD5.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "md5":
		return MD5, nil
	case "blake2b-128", "blake2b128", "blake2b":
		return BLAKE2b128, nil
	default:
		return MD5, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
	}
}

// New returns a fresh hash.Hash for the algorithm.
func (a Algorithm) New() (hash.Hash, error) {
	switch a {
	case MD5:
		return md5.New(), nil
	case BLAKE2b128:
		return blake2b.New(DigestSize, nil)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownAlgorithm, uint8(a))
	}
}

// HashReader streams r through the algorithm and returns the digest.
func HashReader(r io.Reader, alg Algorithm) (Digest, error) {
	var d Digest
	h, err := alg.New()
	if err != nil {
		return d, err
	}
	if _, err := io.Copy(h, r); err != nil {
		return d, err
	}
	copy(d[:], h.Sum(nil))
	return d, nil
}

// HashBytes returns the digest of b.
func HashBytes(b []byte, alg Algorithm) (Digest, error) {
	return HashReader(bytes.NewReader(b), alg)
}

// HashFile returns the digest of the file at path.
func HashFile(path string, alg Algorithm) (Digest, error) {
	f, err := os.Open(path)
	if err != nil {
		return Digest{}, err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			newLogger("HashFile").WithField("path", path).WithError(cerr, "close", "hash_file").Warn("Failed to close file after hashing")
		}
	}()

	d, err := HashReader(f, alg)
	if err != nil {
		newLogger("HashFile").
			WithFields(map[string]interface{}{"path": path, "algorithm": alg.String()}).
			WithError(err, "io", "hash_file").
			Error("Failed to hash file")
		return Digest{}, err
	}
	return d, nil
}

// String renders the digest as uppercase hex with no separators.
func (d Digest) String() string {
	return strings.ToUpper(hex.EncodeToString(d[:]))
}

// IsZero reports whether no digest has been computed.
func (d Digest) IsZero() bool {
	return d == Digest{}
}

// ParseDigest parses the hex form produced by String (case-insensitive).
func ParseDigest(s string) (Digest, error) {
	var d Digest
	b, err := hex.DecodeString(s)
	if err != nil {
		return d, err
	}
	if len(b) != DigestSize {
		return d, fmt.Errorf("digest must be %d bytes, got %d", DigestSize, len(b))
	}
	copy(d[:], b)
	return d, nil
}
