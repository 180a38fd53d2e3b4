package minitls

import (
	"crypto/cipher"
	"fmt"
	"hash"

	"golang.org/x/crypto/hkdf"
)

// TLS13Cipher seals TLS 1.3 records (RFC 8446 Section 5.2). The real content
// type travels inside the encrypted fragment; the outer header always says
// application_data with legacy version 0x0303.
type TLS13Cipher struct {
	aead  cipher.AEAD
	iv    []byte
	seq   seqNum
	nonce []byte
}

// hkdfExpandLabel is HKDF-Expand-Label from RFC 8446 Section 7.1
func hkdfExpandLabel(hashFunc func() hash.Hash, secret []byte, label string, context []byte, length int) ([]byte, error) {
	hkdfLabel := make([]byte, 0, 2+1+len("tls13 ")+len(label)+1+len(context))
	hkdfLabel = append(hkdfLabel, byte(length>>8), byte(length))
	hkdfLabel = append(hkdfLabel, byte(len("tls13 ")+len(label)))
	hkdfLabel = append(hkdfLabel, "tls13 "...)
	hkdfLabel = append(hkdfLabel, label...)
	hkdfLabel = append(hkdfLabel, byte(len(context)))
	hkdfLabel = append(hkdfLabel, context...)

	reader := hkdf.Expand(hashFunc, secret, hkdfLabel)
	result := make([]byte, length)
	if _, err := reader.Read(result); err != nil {
		return nil, fmt.Errorf("hkdf expand %q: %w", label, err)
	}
	return result, nil
}

// NewTLS13Cipher derives the write key and IV from a traffic secret.
func NewTLS13Cipher(suite uint16, trafficSecret []byte) (*TLS13Cipher, error) {
	info, err := LookupCipherSuite(suite, VersionTLS13)
	if err != nil {
		return nil, err
	}
	key, err := hkdfExpandLabel(info.Hash, trafficSecret, "key", nil, info.KeyLength)
	if err != nil {
		return nil, err
	}
	iv, err := hkdfExpandLabel(info.Hash, trafficSecret, "iv", nil, info.IVLength)
	if err != nil {
		return nil, err
	}
	return newTLS13Cipher(info, key, iv)
}

func newTLS13Cipher(info *CipherSuiteInfo, key, iv []byte) (*TLS13Cipher, error) {
	aead, err := newAEAD(info, key)
	if err != nil {
		return nil, err
	}
	if len(iv) != aead.NonceSize() {
		return nil, fmt.Errorf("invalid write IV length: got %d, expected %d", len(iv), aead.NonceSize())
	}
	return &TLS13Cipher{
		aead:  aead,
		iv:    iv,
		nonce: make([]byte, len(iv)),
	}, nil
}

func (c *TLS13Cipher) Kind() CipherKind { return CipherAEAD }

func (c *TLS13Cipher) MaxPlaintext(fragment int) int {
	n := fragment - 1 - c.aead.Overhead()
	if n < 0 {
		return 0
	}
	return n
}

func (c *TLS13Cipher) SealedLen(n int) int {
	return n + 1 + c.aead.Overhead()
}

func (c *TLS13Cipher) SealRecord(dst []byte, typ RecordType, _ uint16, payload []byte) ([]byte, error) {
	seq, err := c.seq.next()
	if err != nil {
		return nil, err
	}

	start := len(dst)
	dst = appendHeader(dst, RecordTypeApplicationData, VersionTLS12, c.SealedLen(len(payload)))
	var header [RecordHeaderLen]byte
	copy(header[:], dst[start:])

	// TLSInnerPlaintext = content || type, sealed in place
	body := len(dst)
	dst = append(dst, payload...)
	dst = append(dst, byte(typ))

	copy(c.nonce, c.iv)
	for i := 0; i < 8; i++ {
		c.nonce[len(c.nonce)-1-i] ^= byte(seq >> (8 * i))
	}

	sealed := c.aead.Seal(dst[body:body], c.nonce, dst[body:], header[:])
	return append(dst[:body], sealed...), nil
}

// Sequence returns the next write sequence number.
func (c *TLS13Cipher) Sequence() uint64 { return uint64(c.seq) }
