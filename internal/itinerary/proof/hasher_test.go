package proof

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDerive_Deterministic(t *testing.T) {
	for _, alg := range []Algorithm{AlgorithmSHA256, AlgorithmSHA3_256, AlgorithmKeccak256} {
		for _, enc := range []Encoding{EncodingLengthPrefixed, EncodingDelimited} {
			h, err := NewHasher(enc, alg)
			require.NoError(t, err)

			first, err := h.Derive("T1", "Alice", "2024-01-01", "2024-01-05")
			require.NoError(t, err)
			second, err := h.Derive("T1", "Alice", "2024-01-01", "2024-01-05")
			require.NoError(t, err)

			assert.Equal(t, first, second, "%s/%s", enc, alg)
			assert.True(t, Valid(first), "%s/%s produced %q", enc, alg, first)
		}
	}
}

func TestDerive_AnyFieldChangesProof(t *testing.T) {
	h := Default()
	base := [4]string{"T1", "Alice", "2024-01-01", "2024-01-05"}
	corpus := [][4]string{
		base,
		{"T2", "Alice", "2024-01-01", "2024-01-05"},
		{"T1", "Alicia", "2024-01-01", "2024-01-05"},
		{"T1", "Alice", "2024-01-02", "2024-01-05"},
		{"T1", "Alice", "2024-01-01", "2024-01-06"},
		{"T1", "Alice", "", "2024-01-05"},
		{"T1", "Alice", "2024-01-01", ""},
		{"T1", "Alice", "", ""},
	}

	seen := map[string][4]string{}
	for _, in := range corpus {
		v, err := h.Derive(in[0], in[1], in[2], in[3])
		require.NoError(t, err)
		if prev, dup := seen[v]; dup {
			t.Fatalf("collision between %v and %v", prev, in)
		}
		seen[v] = in
	}
}

func TestDerive_DelimitedMatchesLegacyProofs(t *testing.T) {
	h, err := NewHasher(EncodingDelimited, AlgorithmSHA256)
	require.NoError(t, err)

	got, err := h.Derive("T1", "Alice", "2024-01-01", "2024-01-05")
	require.NoError(t, err)

	sum := sha256.Sum256([]byte("T1|Alice|2024-01-01|2024-01-05"))
	assert.Equal(t, hex.EncodeToString(sum[:]), got)
}

func TestDerive_DelimitedEmptyDatesHashAsEmptyFields(t *testing.T) {
	h, err := NewHasher(EncodingDelimited, AlgorithmSHA256)
	require.NoError(t, err)

	got, err := h.Derive("T1", "Alice", "", "")
	require.NoError(t, err)

	empty := sha256.Sum256([]byte("T1|Alice||"))
	assert.Equal(t, hex.EncodeToString(empty[:]), got)
	legacy := sha256.Sum256([]byte("T1|Alice|undefined|undefined"))
	assert.NotEqual(t, hex.EncodeToString(legacy[:]), got)
}

func TestDerive_LengthPrefixAvoidsDelimiterCollisions(t *testing.T) {
	delimited, err := NewHasher(EncodingDelimited, AlgorithmSHA256)
	require.NoError(t, err)
	a, _ := delimited.Derive("T1", "Al|ice", "", "")
	b, _ := delimited.Derive("T1|Al", "ice", "", "")
	assert.Equal(t, a, b)

	prefixed := Default()
	a, _ = prefixed.Derive("T1", "Al|ice", "", "")
	b, _ = prefixed.Derive("T1|Al", "ice", "", "")
	assert.NotEqual(t, a, b)
}

func TestDerive_KnownLengthPrefixedDigest(t *testing.T) {
	got, err := Default().Derive("T1", "Alice", "2024-01-01", "2024-01-05")
	require.NoError(t, err)

	sum := sha256.Sum256([]byte("2:T15:Alice10:2024-01-0110:2024-01-05"))
	assert.Equal(t, hex.EncodeToString(sum[:]), got)
}

func TestDerive_RequiresSubjectAndName(t *testing.T) {
	h := Default()
	_, err := h.Derive("  ", "Alice", "", "")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = h.Derive("T1", "", "", "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestParse(t *testing.T) {
	enc, err := ParseEncoding("")
	require.NoError(t, err)
	assert.Equal(t, EncodingLengthPrefixed, enc)

	enc, err = ParseEncoding(" Delimited ")
	require.NoError(t, err)
	assert.Equal(t, EncodingDelimited, enc)

	_, err = ParseEncoding("base64")
	assert.Error(t, err)

	alg, err := ParseAlgorithm("KECCAK256")
	require.NoError(t, err)
	assert.Equal(t, AlgorithmKeccak256, alg)

	_, err = ParseAlgorithm("md5")
	assert.Error(t, err)

	_, err = NewHasher("csv", AlgorithmSHA256)
	assert.Error(t, err)
}

func TestValid(t *testing.T) {
	assert.True(t, Valid("e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"))
	assert.False(t, Valid("E3B0C44298FC1C149AFBF4C8996FB92427AE41E4649B934CA495991B7852B855"))
	assert.False(t, Valid("abc"))
}
