package codec_test

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/shelter/pkg/codec"
	"github.com/aretw0/shelter/pkg/core"
)

func TestBulkStream_RoundTrip(t *testing.T) {
	s := codec.NewBulkStream(newCodec(t))

	sizes := []int{0, 1, 15, 16, codec.ChunkSize - 1, codec.ChunkSize, codec.ChunkSize + 1, 3*codec.ChunkSize + 5}
	for _, size := range sizes {
		payload := make([]byte, size)
		_, err := rand.Read(payload)
		require.NoError(t, err)

		var sealed bytes.Buffer
		require.NoError(t, s.EncryptStream(bytes.NewReader(payload), &sealed), "size %d", size)

		var opened bytes.Buffer
		require.NoError(t, s.DecryptStream(&sealed, &opened), "size %d", size)
		assert.Equal(t, payload, opened.Bytes(), "size %d", size)
	}
}

func TestBulkStream_Header(t *testing.T) {
	c := newCodec(t)
	s := codec.NewBulkStream(c)

	var sealed bytes.Buffer
	require.NoError(t, s.EncryptStream(bytes.NewReader([]byte("payload")), &sealed))

	assert.Equal(t, c.IV(), sealed.Bytes()[:codec.IVSize])
	assert.Len(t, sealed.Bytes(), codec.IVSize+16)
}

func TestBulkStream_ChunksAreIndependent(t *testing.T) {
	s := codec.NewBulkStream(newCodec(t))

	payload := bytes.Repeat([]byte{'a'}, 2*codec.ChunkSize)
	var sealed bytes.Buffer
	require.NoError(t, s.EncryptStream(bytes.NewReader(payload), &sealed))

	body := sealed.Bytes()[codec.IVSize:]
	chunk := codec.ChunkSize + 16
	require.Len(t, body, 2*chunk)
	// Same key and IV for every chunk: equal plaintext leaks as equal ciphertext.
	assert.Equal(t, body[:chunk], body[chunk:])
}

func TestBulkStream_ShortHeader(t *testing.T) {
	s := codec.NewBulkStream(newCodec(t))

	err := s.DecryptStream(bytes.NewReader([]byte("too short")), &bytes.Buffer{})
	assert.ErrorIs(t, err, core.ErrInvalidStream)

	err = s.DecryptStream(bytes.NewReader(nil), &bytes.Buffer{})
	assert.ErrorIs(t, err, core.ErrInvalidStream)
}

func TestBulkStream_TruncatedChunk(t *testing.T) {
	s := codec.NewBulkStream(newCodec(t))

	var sealed bytes.Buffer
	require.NoError(t, s.EncryptStream(bytes.NewReader([]byte("some bulk payload")), &sealed))

	truncated := sealed.Bytes()[:sealed.Len()-3]
	err := s.DecryptStream(bytes.NewReader(truncated), &bytes.Buffer{})
	assert.ErrorIs(t, err, core.ErrDecryption)
}
