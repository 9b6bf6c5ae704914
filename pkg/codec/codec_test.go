package codec_test

import (
	"encoding/base64"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/shelter/pkg/codec"
	"github.com/aretw0/shelter/pkg/core"
)

func newCodec(t *testing.T) *codec.Codec {
	t.Helper()
	c, err := codec.New("top-secret-key", "top-secret-iv")
	require.NoError(t, err)
	return c
}

func TestNew_RejectsEmptySecrets(t *testing.T) {
	_, err := codec.New("", "iv")
	assert.ErrorIs(t, err, core.ErrValidation)

	_, err = codec.New("key", "")
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestRoundTrip(t *testing.T) {
	c := newCodec(t)

	values := map[string]any{
		"string": "héllo wörld",
		"number": 42,
		"float":  3.25,
		"bool":   true,
		"null":   nil,
		"array":  []any{1, "two", false, nil},
		"record": core.NewRecord(
			"id", 7,
			"name", "alice",
			"tags", []any{"a", "b"},
			"address", core.NewRecord("city", "Lisbon", "zip", "1000"),
		),
		"records": []core.Record{
			core.NewRecord("id", 1, "name", "a"),
			core.NewRecord("id", 2, "name", "b"),
		},
	}

	for name, v := range values {
		t.Run(name, func(t *testing.T) {
			text, err := c.Encrypt(v)
			require.NoError(t, err)

			got, err := c.Decrypt(text)
			require.NoError(t, err)

			if recs, ok := v.([]core.Record); ok {
				decoded, err := core.AsRecords(got)
				require.NoError(t, err)
				require.Len(t, decoded, len(recs))
				for i := range recs {
					assert.True(t, core.Equal(recs[i], decoded[i]), "record %d differs", i)
				}
				return
			}
			assert.True(t, core.Equal(v, got), "want %v, got %v", v, got)
		})
	}
}

func TestRoundTrip_PreservesKeyOrder(t *testing.T) {
	c := newCodec(t)
	rec := core.NewRecord("zeta", 1, "alpha", 2, "mid", 3)

	text, err := c.Encrypt(rec)
	require.NoError(t, err)

	got, err := c.Decrypt(text)
	require.NoError(t, err)
	decoded, ok := got.(core.Record)
	require.True(t, ok)
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, decoded.Keys())
}

func TestEncrypt_IsDeterministic(t *testing.T) {
	c := newCodec(t)

	a, err := c.Encrypt(core.NewRecord("name", "a"))
	require.NoError(t, err)
	b, err := c.Encrypt(core.NewRecord("name", "a"))
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestEncrypt_HidesPlaintext(t *testing.T) {
	c := newCodec(t)

	text, err := c.Encrypt(core.NewRecord("password_field", "hunter2"))
	require.NoError(t, err)

	assert.NotContains(t, text, "password_field")
	assert.NotContains(t, text, "hunter2")
	_, err = base64.StdEncoding.DecodeString(text)
	assert.NoError(t, err, "output must be plain base64")
}

func TestEncrypt_RejectsUnrepresentableValues(t *testing.T) {
	c := newCodec(t)

	cyclic := map[string]any{}
	cyclic["self"] = cyclic

	cases := map[string]any{
		"nan":     math.NaN(),
		"inf":     math.Inf(1),
		"channel": make(chan int),
		"func":    func() {},
		"cyclic":  cyclic,
		"nested":  core.NewRecord("bad", math.NaN()),
	}

	for name, v := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := c.Encrypt(v)
			assert.ErrorIs(t, err, core.ErrSerialization)
		})
	}
}

func TestDecrypt_InvalidEncoding(t *testing.T) {
	c := newCodec(t)

	_, err := c.Decrypt("this is not base64!")
	assert.ErrorIs(t, err, core.ErrInvalidEncoding)
}

func TestDecrypt_ForeignCiphertext(t *testing.T) {
	c := newCodec(t)

	_, err := c.Decrypt(base64.StdEncoding.EncodeToString([]byte(strings.Repeat("x", 64))))
	assert.ErrorIs(t, err, core.ErrDecryption)

	_, err = c.Decrypt(base64.StdEncoding.EncodeToString([]byte("short")))
	assert.ErrorIs(t, err, core.ErrDecryption)
}

func TestDecrypt_WrongKeys(t *testing.T) {
	c := newCodec(t)
	other, err := codec.New("another-key", "top-secret-iv")
	require.NoError(t, err)

	text, err := c.Encrypt([]any{core.NewRecord("id", 1)})
	require.NoError(t, err)

	_, err = other.Decrypt(text)
	assert.ErrorIs(t, err, core.ErrDecryption)
}

func TestDecrypt_DetectsTampering(t *testing.T) {
	c := newCodec(t)

	text, err := c.Encrypt([]any{
		core.NewRecord("id", 1, "name", "alice", "role", "admin"),
		core.NewRecord("id", 2, "name", "bob", "role", "user"),
	})
	require.NoError(t, err)

	for i := 0; i < len(text); i++ {
		tampered := []byte(text)
		tampered[i] ^= 0x01

		_, err := c.Decrypt(string(tampered))
		require.Error(t, err, "flipping byte %d went unnoticed", i)
		assert.True(t,
			errors.Is(err, core.ErrDecryption) || errors.Is(err, core.ErrInvalidEncoding),
			"byte %d: unexpected error %v", i, err)
	}
}

func TestDecryptRecords(t *testing.T) {
	c := newCodec(t)

	text, err := c.Encrypt([]core.Record{core.NewRecord("id", 1)})
	require.NoError(t, err)

	recs, err := c.DecryptRecords(text)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	id, ok := recs[0].ID()
	assert.True(t, ok)
	assert.Equal(t, int64(1), id)

	text, err = c.Encrypt("not a table")
	require.NoError(t, err)
	_, err = c.DecryptRecords(text)
	assert.ErrorIs(t, err, core.ErrSerialization)
}
