// Package integrity parses Subresource-Integrity style digests
// (`<algorithm>-<base64 digest>`) and checks content against them.
package integrity

import (
	"crypto"
	_ "crypto/md5"
	_ "crypto/sha1"
	_ "crypto/sha256"
	_ "crypto/sha512"
	"encoding/base64"
	"errors"
	"fmt"
	"hash"
	"regexp"

	"github.com/opencontainers/go-digest"
)

var specPattern = regexp.MustCompile(`^([^-]*)-(.*)$`)

// legacyHashes 是 go-digest 未注册、但历史 integrity 字符串仍在使用的算法。
var legacyHashes = map[string]crypto.Hash{
	"md5":    crypto.MD5,
	"sha1":   crypto.SHA1,
	"sha224": crypto.SHA224,
}

var (
	// ErrInvalidFormat is returned when an integrity string does not look like
	// `<algorithm>-<base64 hash>`.
	ErrInvalidFormat = errors.New("Invalid integrity format, expected <algorithm>-<base64 hash>")

	// ErrUnsupportedAlgorithm is returned when no hash primitive is registered
	// under the requested algorithm name.
	ErrUnsupportedAlgorithm = errors.New("unsupported integrity algorithm")

	// ErrMismatch is matched by every *MismatchError.
	ErrMismatch = errors.New("integrity check failed")
)

// Spec is a parsed integrity string.
type Spec struct {
	Algorithm string
	Digest    string
}

// String renders the spec back into its wire form.
func (s Spec) String() string {
	return s.Algorithm + "-" + s.Digest
}

// MismatchError reports both the digest the caller expected and the one
// computed from the content.
type MismatchError struct {
	Algorithm string
	Expected  string
	Actual    string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("Integrity check failed: expected %s, got %s", e.Expected, e.Actual)
}

// Is lets errors.Is(err, ErrMismatch) match any mismatch.
func (e *MismatchError) Is(target error) bool {
	return target == ErrMismatch
}

// Parse splits raw at its first hyphen. The algorithm must name a registered
// hash primitive (sha256, sha384, sha512, or one of md5, sha1, sha224); the
// digest part is kept verbatim.
func Parse(raw string) (Spec, error) {
	match := specPattern.FindStringSubmatch(raw)
	if match == nil {
		return Spec{}, ErrInvalidFormat
	}
	spec := Spec{Algorithm: match[1], Digest: match[2]}
	if _, ok := newHash(spec.Algorithm); !ok {
		return Spec{}, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, spec.Algorithm)
	}
	return spec, nil
}

// Compute hashes content with the named algorithm and returns the standard
// base64 encoding of the sum.
func Compute(algorithm string, content []byte) (string, error) {
	h, ok := newHash(algorithm)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, algorithm)
	}
	h.Write(content)
	return base64.StdEncoding.EncodeToString(h.Sum(nil)), nil
}

// newHash 优先使用 go-digest 注册的算法，其次回退到 legacyHashes。名称大小写敏感。
func newHash(name string) (hash.Hash, bool) {
	if alg := digest.Algorithm(name); alg.Available() {
		return alg.Hash(), true
	}
	if h, ok := legacyHashes[name]; ok && h.Available() {
		return h.New(), true
	}
	return nil, false
}

// Format builds the integrity string for content under algorithm.
func Format(algorithm string, content []byte) (string, error) {
	sum, err := Compute(algorithm, content)
	if err != nil {
		return "", err
	}
	return Spec{Algorithm: algorithm, Digest: sum}.String(), nil
}

// Verify compares the digest of content against spec. The comparison is an
// exact, case-sensitive match of the base64 text.
func Verify(content []byte, spec Spec) error {
	actual, err := Compute(spec.Algorithm, content)
	if err != nil {
		return err
	}
	if actual != spec.Digest {
		return &MismatchError{
			Algorithm: spec.Algorithm,
			Expected:  spec.Digest,
			Actual:    actual,
		}
	}
	return nil
}

// Check parses raw and verifies content against it. An empty raw string
// means no integrity was requested and always succeeds.
func Check(content []byte, raw string) error {
	if raw == "" {
		return nil
	}
	spec, err := Parse(raw)
	if err != nil {
		return err
	}
	return Verify(content, spec)
}
