package minitls

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// TLS 1.2 AEAD record protection (RFC 5246 Section 6.2.3.3).
// AES-GCM carries an 8-byte explicit nonce (RFC 5288), ChaCha20-Poly1305
// XORs the sequence number into a 12-byte IV (RFC 7905).

// AEADCipher seals TLS 1.2 records with an AEAD.
type AEADCipher struct {
	aead          cipher.AEAD
	iv            []byte
	explicitNonce bool
	seq           seqNum
	nonce         [12]byte
}

// newAEAD selects the AEAD for a suite from its algorithm
func newAEAD(info *CipherSuiteInfo, key []byte) (cipher.AEAD, error) {
	if len(key) != info.KeyLength {
		return nil, fmt.Errorf("invalid write key length: got %d, expected %d", len(key), info.KeyLength)
	}
	switch info.Algorithm {
	case "AES-128-GCM", "AES-256-GCM":
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, fmt.Errorf("failed to create AES cipher: %w", err)
		}
		aead, err := cipher.NewGCM(block)
		if err != nil {
			return nil, fmt.Errorf("failed to create GCM: %w", err)
		}
		return aead, nil
	case "ChaCha20-Poly1305":
		aead, err := chacha20poly1305.New(key)
		if err != nil {
			return nil, fmt.Errorf("failed to create ChaCha20-Poly1305: %w", err)
		}
		return aead, nil
	default:
		return nil, fmt.Errorf("unsupported AEAD algorithm %s for cipher suite 0x%04x", info.Algorithm, info.ID)
	}
}

// NewAEADCipher creates a TLS 1.2 AEAD write state for suite.
func NewAEADCipher(suite uint16, key, iv []byte) (*AEADCipher, error) {
	info, err := LookupCipherSuite(suite, VersionTLS12)
	if err != nil {
		return nil, err
	}
	if info.Kind != CipherAEAD {
		return nil, fmt.Errorf("cipher suite %s is not an AEAD suite", info.Name)
	}
	if len(iv) != info.IVLength {
		return nil, fmt.Errorf("invalid write IV length: got %d, expected %d", len(iv), info.IVLength)
	}
	aead, err := newAEAD(info, key)
	if err != nil {
		return nil, err
	}
	return &AEADCipher{
		aead:          aead,
		iv:            append([]byte(nil), iv...),
		explicitNonce: info.IVLength == 4,
	}, nil
}

func (c *AEADCipher) Kind() CipherKind { return CipherAEAD }

func (c *AEADCipher) explicitLen() int {
	if c.explicitNonce {
		return 8
	}
	return 0
}

func (c *AEADCipher) MaxPlaintext(fragment int) int {
	n := fragment - c.explicitLen() - c.aead.Overhead()
	if n < 0 {
		return 0
	}
	return n
}

func (c *AEADCipher) SealedLen(n int) int {
	return c.explicitLen() + n + c.aead.Overhead()
}

func (c *AEADCipher) SealRecord(dst []byte, typ RecordType, version uint16, payload []byte) ([]byte, error) {
	seq, err := c.seq.next()
	if err != nil {
		return nil, err
	}

	dst = appendHeader(dst, typ, version, c.SealedLen(len(payload)))

	nonce := c.nonce[:]
	if c.explicitNonce {
		// 12-byte nonce = implicit_iv(4) || explicit_nonce(8), explicit_nonce = seq
		copy(nonce[:4], c.iv)
		binary.BigEndian.PutUint64(nonce[4:], seq)
		dst = append(dst, nonce[4:]...)
	} else {
		copy(nonce, c.iv)
		for i := 0; i < 8; i++ {
			nonce[len(nonce)-1-i] ^= byte(seq >> (8 * i))
		}
	}

	// additional_data = seq_num + type + version + plaintext length
	ad := macHeader(seq, typ, version, len(payload))
	return c.aead.Seal(dst, nonce, payload, ad[:]), nil
}

// Sequence returns the next write sequence number.
func (c *AEADCipher) Sequence() uint64 { return uint64(c.seq) }
