package hashutil_test

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/rohmanhakim/canonurl/pkg/hashutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lukechampine.com/blake3"
)

func TestHashBytes(t *testing.T) {
	inputs := []string{
		"",
		"http://example.com/",
		"http://youtube.com/watch?v=abc",
		"http://stackoverflow.com/questions/42",
		"other:javascript:alert(1)",
	}

	for _, input := range inputs {
		t.Run("sha256 "+input, func(t *testing.T) {
			got, err := hashutil.HashBytes([]byte(input), hashutil.HashAlgoSHA256)
			require.NoError(t, err)

			sum := sha256.Sum256([]byte(input))
			assert.Equal(t, hex.EncodeToString(sum[:]), got)
		})
		t.Run("blake3 "+input, func(t *testing.T) {
			got, err := hashutil.HashBytes([]byte(input), hashutil.HashAlgoBLAKE3)
			require.NoError(t, err)

			sum := blake3.Sum256([]byte(input))
			assert.Equal(t, hex.EncodeToString(sum[:]), got)
		})
	}
}

func TestHashBytes_KnownDigests(t *testing.T) {
	got, err := hashutil.HashBytes(nil, hashutil.HashAlgoSHA256)
	require.NoError(t, err)
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", got)

	got, err = hashutil.HashBytes(nil, hashutil.HashAlgoBLAKE3)
	require.NoError(t, err)
	assert.Equal(t, "af1349b9f5f9a1a6a0404dea36dcc9499bcb25c9adc112b7cc9a93cae41f3262", got)
}

func TestHashBytes_UnsupportedAlgorithm(t *testing.T) {
	result, err := hashutil.HashBytes([]byte("http://example.com/"), "unsupported")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported hash algorithm")
	assert.Empty(t, result)
}

func TestHashBytes_CanonicalFormsStayApart(t *testing.T) {
	// A learned offender splits one canonical form into two; their IDs must split too.
	before, err := hashutil.HashBytes([]byte("http://shop.com/item"), hashutil.HashAlgoBLAKE3)
	require.NoError(t, err)
	after, err := hashutil.HashBytes([]byte("http://shop.com/item?id=2"), hashutil.HashAlgoBLAKE3)
	require.NoError(t, err)

	assert.NotEqual(t, before, after)
	assert.Len(t, before, 64)
	assert.Len(t, after, 64)
}

func TestParseAlgo(t *testing.T) {
	algo, err := hashutil.ParseAlgo("blake3")
	require.NoError(t, err)
	assert.Equal(t, hashutil.HashAlgoBLAKE3, algo)

	algo, err = hashutil.ParseAlgo("sha256")
	require.NoError(t, err)
	assert.Equal(t, hashutil.HashAlgoSHA256, algo)

	_, err = hashutil.ParseAlgo("md5")
	assert.Error(t, err)
}

func TestTagged(t *testing.T) {
	tagged, err := hashutil.Tagged("abc", hashutil.HashAlgoSHA256)
	require.NoError(t, err)
	assert.Equal(t, "sha256:ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", tagged)

	tagged, err = hashutil.Tagged("", hashutil.HashAlgoBLAKE3)
	require.NoError(t, err)
	assert.Equal(t, "blake3:af1349b9f5f9a1a6a0404dea36dcc9499bcb25c9adc112b7cc9a93cae41f3262", tagged)

	_, err = hashutil.Tagged("abc", "crc32")
	assert.Error(t, err)
}

func TestTagged_AlgorithmsDoNotCollide(t *testing.T) {
	sha, err := hashutil.Tagged("http://example.com/", hashutil.HashAlgoSHA256)
	require.NoError(t, err)
	b3, err := hashutil.Tagged("http://example.com/", hashutil.HashAlgoBLAKE3)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(sha, "sha256:"))
	assert.True(t, strings.HasPrefix(b3, "blake3:"))
	assert.NotEqual(t, strings.TrimPrefix(sha, "sha256:"), strings.TrimPrefix(b3, "blake3:"))
}
