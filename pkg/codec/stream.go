package codec

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/shelter/pkg/core"
)

// ChunkSize is the plaintext size of each independently encrypted chunk.
const ChunkSize = 8 << 10

// BulkStream moves large payloads through the codec's key in a degraded mode.
//
// Layout: the raw 16-byte IV, then one CBC ciphertext per plaintext chunk of
// up to ChunkSize bytes. Every chunk restarts CBC with the same key and IV and
// there is no authentication tag, so identical chunks produce identical
// ciphertext and tampering is only caught when it breaks the padding. Use it
// for best-effort bulk transfer only; table files never go through it.
type BulkStream struct {
	block cipher.Block
	iv    []byte
}

// NewBulkStream shares the key material of c.
func NewBulkStream(c *Codec) *BulkStream {
	return &BulkStream{block: c.block, iv: c.IV()}
}

// EncryptStream writes the IV header followed by the encrypted chunks of src.
func (s *BulkStream) EncryptStream(src io.Reader, dst io.Writer) error {
	if _, err := dst.Write(s.iv); err != nil {
		return fmt.Errorf("%w: write stream header: %v", core.ErrIO, err)
	}

	buf := make([]byte, ChunkSize)
	for {
		n, err := io.ReadFull(src, buf)
		if n > 0 {
			padded := pad(buf[:n], aes.BlockSize)
			out := make([]byte, len(padded))
			cipher.NewCBCEncrypter(s.block, s.iv).CryptBlocks(out, padded)
			if _, werr := dst.Write(out); werr != nil {
				return fmt.Errorf("%w: write chunk: %v", core.ErrIO, werr)
			}
		}
		switch {
		case err == nil:
			continue
		case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
			return nil
		default:
			return fmt.Errorf("%w: read source: %v", core.ErrIO, err)
		}
	}
}

// DecryptStream reads the IV header and writes the decrypted chunks to dst.
func (s *BulkStream) DecryptStream(src io.Reader, dst io.Writer) error {
	iv := make([]byte, IVSize)
	if _, err := io.ReadFull(src, iv); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return fmt.Errorf("%w: missing %d-byte iv header", core.ErrInvalidStream, IVSize)
		}
		return fmt.Errorf("%w: read stream header: %v", core.ErrIO, err)
	}

	buf := make([]byte, ChunkSize+aes.BlockSize)
	for index := 0; ; index++ {
		n, err := io.ReadFull(src, buf)
		if n > 0 {
			if n%aes.BlockSize != 0 {
				return fmt.Errorf("%w: chunk %d is not a multiple of the block size", core.ErrDecryption, index)
			}
			out := make([]byte, n)
			cipher.NewCBCDecrypter(s.block, iv).CryptBlocks(out, buf[:n])
			plain, perr := unpad(out, aes.BlockSize)
			if perr != nil {
				return fmt.Errorf("%w: chunk %d: %v", core.ErrDecryption, index, perr)
			}
			if _, werr := dst.Write(plain); werr != nil {
				return fmt.Errorf("%w: write chunk: %v", core.ErrIO, werr)
			}
		}
		switch {
		case err == nil:
			continue
		case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
			return nil
		default:
			return fmt.Errorf("%w: read stream: %v", core.ErrIO, err)
		}
	}
}
