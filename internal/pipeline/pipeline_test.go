package pipeline

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zarniwp/cuba-go/internal/ppath"
)

func TestGzipRoundTrip(t *testing.T) {
	plain := []byte("hello, cuba")
	dest := ppath.MustRel[ppath.File]("a.txt")

	encoded, err := GzipEncode(bytes.NewReader(plain), &dest)
	require.NoError(t, err)
	assert.Equal(t, "a.txt.gz", dest.String())

	compressed, err := io.ReadAll(encoded)
	require.NoError(t, err)
	require.NoError(t, encoded.Close())

	decoded, err := GzipDecode(bytes.NewReader(compressed), &dest)
	require.NoError(t, err)
	out, err := io.ReadAll(decoded)
	require.NoError(t, err)
	assert.Equal(t, plain, out)
	assert.Equal(t, "a.txt", dest.String())
}

func TestAgeRoundTrip(t *testing.T) {
	plain := []byte("top secret backup bytes")
	dest := ppath.MustRel[ppath.File]("a.txt")

	encrypt, err := AEADEncrypt("correct horse battery staple")
	require.NoError(t, err)
	encoded, err := encrypt(bytes.NewReader(plain), &dest)
	require.NoError(t, err)
	assert.Equal(t, "a.txt.age", dest.String())

	ciphertext, err := io.ReadAll(encoded)
	require.NoError(t, err)
	require.NoError(t, encoded.Close())

	decrypt, err := AEADDecrypt("correct horse battery staple")
	require.NoError(t, err)
	decoded, err := decrypt(bytes.NewReader(ciphertext), &dest)
	require.NoError(t, err)
	out, err := io.ReadAll(decoded)
	require.NoError(t, err)
	assert.Equal(t, plain, out)
	assert.Equal(t, "a.txt", dest.String())
}

func TestAgeWrongPassphraseFails(t *testing.T) {
	plain := []byte("secret")
	dest := ppath.MustRel[ppath.File]("a.txt")

	encrypt, err := AEADEncrypt("right-password")
	require.NoError(t, err)
	encoded, err := encrypt(bytes.NewReader(plain), &dest)
	require.NoError(t, err)
	ciphertext, err := io.ReadAll(encoded)
	require.NoError(t, err)

	decrypt, err := AEADDecrypt("wrong-password")
	require.NoError(t, err)
	_, err = decrypt(bytes.NewReader(ciphertext), &dest)
	assert.Error(t, err)
}

func TestSignatureTapPublishesOnClose(t *testing.T) {
	plain := []byte("hash me")
	var digest [32]byte

	tap := SignatureTap(&digest)
	r, err := tap(bytes.NewReader(plain), nil)
	require.NoError(t, err)

	zeroBefore := digest
	_, err = io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, zeroBefore, digest, "digest must not be published before Close")

	require.NoError(t, r.Close())
	assert.NotEqual(t, zeroBefore, digest, "digest must be published after Close")
}

func TestComposeGzipThenSignature(t *testing.T) {
	plain := []byte("compose me")
	dest := ppath.MustRel[ppath.File]("a.txt")
	var digest [32]byte

	chain, err := Compose([]Processor{GzipEncode, SignatureTap(&digest)}, bytes.NewReader(plain), &dest)
	require.NoError(t, err)
	_, err = io.ReadAll(chain)
	require.NoError(t, err)
	require.NoError(t, chain.Close())

	assert.Equal(t, "a.txt.gz", dest.String())
	assert.NotEqual(t, [32]byte{}, digest)
}
