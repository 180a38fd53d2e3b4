package minitls

import (
	"encoding/binary"
	"fmt"
	"math"
)

// CipherKind classifies how a cipher state protects record fragments.
type CipherKind int

const (
	CipherNull CipherKind = iota
	CipherBlock
	CipherAEAD
)

func (k CipherKind) String() string {
	switch k {
	case CipherNull:
		return "null"
	case CipherBlock:
		return "cbc"
	case CipherAEAD:
		return "aead"
	default:
		return fmt.Sprintf("cipher_kind(%d)", int(k))
	}
}

// CipherState protects outgoing records for one direction of a connection.
type CipherState interface {
	Kind() CipherKind

	// MaxPlaintext returns the largest plaintext whose protected fragment
	// fits in fragment bytes.
	MaxPlaintext(fragment int) int

	// SealedLen returns the protected fragment length for n plaintext bytes.
	SealedLen(n int) int

	// SealRecord appends a complete record (header and protected fragment)
	// to dst. When cap(dst)-len(dst) covers RecordHeaderLen+SealedLen the
	// record is written into dst's backing array.
	SealRecord(dst []byte, typ RecordType, version uint16, payload []byte) ([]byte, error)
}

// appendHeader appends a record header announcing a fragment of length n.
func appendHeader(dst []byte, typ RecordType, version uint16, n int) []byte {
	return append(dst, byte(typ), byte(version>>8), byte(version), byte(n>>8), byte(n))
}

// seqNum is a 64-bit record sequence number that refuses to wrap.
type seqNum uint64

func (s *seqNum) next() (uint64, error) {
	if *s == math.MaxUint64 {
		return 0, ErrSequenceOverflow
	}
	n := uint64(*s)
	*s++
	return n, nil
}

// macHeader builds seq_num || type || version || length, the prefix shared
// by the TLS 1.2 AEAD additional data and the CBC MAC input.
func macHeader(seq uint64, typ RecordType, version uint16, n int) [13]byte {
	var b [13]byte
	binary.BigEndian.PutUint64(b[:8], seq)
	b[8] = byte(typ)
	binary.BigEndian.PutUint16(b[9:11], version)
	binary.BigEndian.PutUint16(b[11:13], uint16(n))
	return b
}

// NullCipher sends records unprotected, as before the first
// ChangeCipherSpec.
type NullCipher struct{}

func (NullCipher) Kind() CipherKind { return CipherNull }

func (NullCipher) MaxPlaintext(fragment int) int { return fragment }

func (NullCipher) SealedLen(n int) int { return n }

func (NullCipher) SealRecord(dst []byte, typ RecordType, version uint16, payload []byte) ([]byte, error) {
	dst = appendHeader(dst, typ, version, len(payload))
	return append(dst, payload...), nil
}
