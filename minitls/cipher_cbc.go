package minitls

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"fmt"
	"hash"
	"io"
)

// CBCCipher seals records with AES-CBC and HMAC-SHA1 (MAC-then-encrypt,
// RFC 5246 Section 6.2.3.2).
//
// Below TLS 1.1 the IV is the last ciphertext block of the previous record,
// which is what makes the first byte of a record predictable to an observer.
// From TLS 1.1 every record starts with a fresh random IV.
type CBCCipher struct {
	version  uint16
	block    cipher.Block
	mac      hash.Hash
	chained  cipher.BlockMode // TLS 1.0 only
	rand     io.Reader
	seq      seqNum
	explicit []byte
}

// NewCBCCipher creates a CBC write state. iv is required for TLS 1.0 and
// must be empty otherwise.
func NewCBCCipher(version, suite uint16, key, macKey, iv []byte) (*CBCCipher, error) {
	if version < VersionTLS10 {
		return nil, fmt.Errorf("CBC record protection for %s is not supported", VersionName(version))
	}
	info, err := LookupCipherSuite(suite, version)
	if err != nil {
		return nil, err
	}
	if info.Kind != CipherBlock {
		return nil, fmt.Errorf("cipher suite %s is not a CBC suite", info.Name)
	}
	if len(key) != info.KeyLength {
		return nil, fmt.Errorf("invalid write key length: got %d, expected %d", len(key), info.KeyLength)
	}
	if len(macKey) != info.MACLength {
		return nil, fmt.Errorf("invalid MAC key length: got %d, expected %d", len(macKey), info.MACLength)
	}
	if want := info.fixedIVLength(version); len(iv) != want {
		return nil, fmt.Errorf("invalid write IV length: got %d, expected %d", len(iv), want)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}
	c := &CBCCipher{
		version: version,
		block:   block,
		mac:     hmac.New(sha1.New, macKey),
		rand:    rand.Reader,
	}
	if version < VersionTLS11 {
		c.chained = cipher.NewCBCEncrypter(block, iv)
	} else {
		c.explicit = make([]byte, block.BlockSize())
	}
	return c, nil
}

// SetRand replaces the source of explicit IVs.
func (c *CBCCipher) SetRand(r io.Reader) { c.rand = r }

func (c *CBCCipher) Kind() CipherKind { return CipherBlock }

func (c *CBCCipher) ivLen() int { return len(c.explicit) }

func (c *CBCCipher) MaxPlaintext(fragment int) int {
	bs := c.block.BlockSize()
	n := ((fragment - c.ivLen()) &^ (bs - 1)) - 1 - c.mac.Size()
	if n < 0 {
		return 0
	}
	return n
}

func (c *CBCCipher) SealedLen(n int) int {
	bs := c.block.BlockSize()
	body := n + c.mac.Size() + 1
	return c.ivLen() + (body+bs-1)/bs*bs
}

func (c *CBCCipher) SealRecord(dst []byte, typ RecordType, version uint16, payload []byte) ([]byte, error) {
	seq, err := c.seq.next()
	if err != nil {
		return nil, err
	}

	dst = appendHeader(dst, typ, version, c.SealedLen(len(payload)))

	mode := c.chained
	if mode == nil {
		if _, err := io.ReadFull(c.rand, c.explicit); err != nil {
			return nil, fmt.Errorf("failed to generate record IV: %w", err)
		}
		dst = append(dst, c.explicit...)
		mode = cipher.NewCBCEncrypter(c.block, c.explicit)
	}

	// MAC(seq_num + type + version + length + fragment)
	hdr := macHeader(seq, typ, version, len(payload))
	c.mac.Reset()
	c.mac.Write(hdr[:])
	c.mac.Write(payload)

	body := len(dst)
	dst = append(dst, payload...)
	dst = c.mac.Sum(dst)

	// padLen+1 bytes, each holding padLen
	bs := c.block.BlockSize()
	padLen := bs - 1 - (len(dst)-body)%bs
	for i := 0; i <= padLen; i++ {
		dst = append(dst, byte(padLen))
	}

	mode.CryptBlocks(dst[body:], dst[body:])
	return dst, nil
}

// Sequence returns the next write sequence number.
func (c *CBCCipher) Sequence() uint64 { return uint64(c.seq) }
