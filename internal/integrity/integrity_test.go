package integrity

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

const source = "console.log('Hello, world!')"

func TestParse(t *testing.T) {
	r := require.New(t)

	spec, err := Parse("sha256-abc-def+/=")
	r.NoError(err)
	r.Equal("sha256", spec.Algorithm)
	r.Equal("abc-def+/=", spec.Digest)
	r.Equal("sha256-abc-def+/=", spec.String())
}

func TestParseRejectsMalformed(t *testing.T) {
	for _, raw := range []string{"invalid", "sha256", ""} {
		t.Run(raw, func(t *testing.T) {
			_, err := Parse(raw)
			require.ErrorIs(t, err, ErrInvalidFormat)
		})
	}
}

func TestParseRejectsUnknownAlgorithm(t *testing.T) {
	_, err := Parse("md4-AAAA")
	require.ErrorIs(t, err, ErrUnsupportedAlgorithm)

	_, err = Parse("-AAAA")
	require.ErrorIs(t, err, ErrUnsupportedAlgorithm)
}

func TestVerifySupportedAlgorithms(t *testing.T) {
	sums := map[string][]byte{}
	s256 := sha256.Sum256([]byte(source))
	sums["sha256"] = s256[:]
	s384 := sha512.Sum384([]byte(source))
	sums["sha384"] = s384[:]
	s512 := sha512.Sum512([]byte(source))
	sums["sha512"] = s512[:]

	for alg, sum := range sums {
		t.Run(alg, func(t *testing.T) {
			r := require.New(t)
			raw := alg + "-" + base64.StdEncoding.EncodeToString(sum)
			r.NoError(Check([]byte(source), raw))

			formatted, err := Format(alg, []byte(source))
			r.NoError(err)
			r.Equal(raw, formatted)
		})
	}
}

func TestVerifyDetectsSingleByteChange(t *testing.T) {
	r := require.New(t)
	raw, err := Format("sha384", []byte(source))
	r.NoError(err)

	for i := range len(source) {
		mutated := []byte(source)
		mutated[i] ^= 0x01
		err := Check(mutated, raw)
		r.ErrorIs(err, ErrMismatch, "byte %d", i)
	}
}

func TestMismatchReportsBothDigests(t *testing.T) {
	r := require.New(t)
	expected, err := Compute("sha256", []byte("x=1"))
	r.NoError(err)
	actual, err := Compute("sha256", []byte("y=2"))
	r.NoError(err)

	err = Verify([]byte("y=2"), Spec{Algorithm: "sha256", Digest: expected})
	var mismatch *MismatchError
	r.True(errors.As(err, &mismatch))
	r.Equal(expected, mismatch.Expected)
	r.Equal(actual, mismatch.Actual)
	r.NotEmpty(mismatch.Actual)
	r.Contains(err.Error(), expected)
	r.Contains(err.Error(), actual)
}

func TestCheckWithoutIntegrityIsNoop(t *testing.T) {
	require.NoError(t, Check([]byte("anything"), ""))
}

func TestDigestComparisonIsCaseSensitive(t *testing.T) {
	r := require.New(t)
	sum, err := Compute("sha256", []byte(source))
	r.NoError(err)

	flipped := []byte(sum)
	for i, c := range flipped {
		if c >= 'a' && c <= 'z' {
			flipped[i] = c - 'a' + 'A'
			break
		}
	}
	r.ErrorIs(Verify([]byte(source), Spec{Algorithm: "sha256", Digest: string(flipped)}), ErrMismatch)
}

func TestLegacyAlgorithms(t *testing.T) {
	r := require.New(t)

	r.NoError(Check([]byte{}, "sha1-2jmj7l5rSw0yVb/vlWAYkK/YBwk="))
	r.NoError(Check([]byte{}, "md5-1B2M2Y8AsgTpgAmY7PhCfg=="))
	r.ErrorIs(Check([]byte("x"), "sha1-2jmj7l5rSw0yVb/vlWAYkK/YBwk="), ErrMismatch)

	raw, err := Format("sha224", []byte(source))
	r.NoError(err)
	r.NoError(Check([]byte(source), raw))

	_, err = Parse("SHA1-2jmj7l5rSw0yVb/vlWAYkK/YBwk=")
	r.ErrorIs(err, ErrUnsupportedAlgorithm)
}
