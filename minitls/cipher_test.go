package minitls

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/chacha20poly1305"
)

func sealOne(t *testing.T, cs CipherState, typ RecordType, version uint16, payload []byte) *Record {
	t.Helper()
	out, err := NewOutputBuffer(64, nil)
	require.NoError(t, err)
	w := NewRecordWriter(version, cs)
	require.NoError(t, w.WriteRecord(out, typ, payload))
	records := readRecords(t, out.Bytes())
	require.Len(t, records, 1)
	return records[0]
}

func aeadAD(seq uint64, typ RecordType, version uint16, n int) []byte {
	ad := make([]byte, 13)
	binary.BigEndian.PutUint64(ad, seq)
	ad[8] = byte(typ)
	binary.BigEndian.PutUint16(ad[9:], version)
	binary.BigEndian.PutUint16(ad[11:], uint16(n))
	return ad
}

func TestAEADCipherGCMRoundTrip(t *testing.T) {
	key := bytes.Repeat([]byte{0x11}, 16)
	iv := []byte{1, 2, 3, 4}
	cs, err := NewAEADCipher(TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256, key, iv)
	require.NoError(t, err)

	block, _ := aes.NewCipher(key)
	gcm, _ := cipher.NewGCM(block)

	for seq, msg := range []string{"first record", "second record"} {
		rec := sealOne(t, cs, RecordTypeApplicationData, VersionTLS12, []byte(msg))
		require.Len(t, rec.Fragment, cs.SealedLen(len(msg)))

		explicit := rec.Fragment[:8]
		assert.Equal(t, uint64(seq), binary.BigEndian.Uint64(explicit))
		nonce := append(append([]byte{}, iv...), explicit...)
		plain, err := gcm.Open(nil, nonce, rec.Fragment[8:], aeadAD(uint64(seq), RecordTypeApplicationData, VersionTLS12, len(msg)))
		require.NoError(t, err)
		assert.Equal(t, msg, string(plain))
	}
	assert.Equal(t, uint64(2), cs.Sequence())
}

func TestAEADCipherChaChaRoundTrip(t *testing.T) {
	key := bytes.Repeat([]byte{0x22}, 32)
	iv := bytes.Repeat([]byte{0x33}, 12)
	cs, err := NewAEADCipher(TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305_SHA256, key, iv)
	require.NoError(t, err)
	aead, _ := chacha20poly1305.New(key)

	for seq := uint64(0); seq < 3; seq++ {
		msg := []byte{byte(seq), 0xff}
		rec := sealOne(t, cs, RecordTypeAlert, VersionTLS12, msg)
		require.Len(t, rec.Fragment, len(msg)+16)

		nonce := append([]byte{}, iv...)
		for i := 0; i < 8; i++ {
			nonce[11-i] ^= byte(seq >> (8 * i))
		}
		plain, err := aead.Open(nil, nonce, rec.Fragment, aeadAD(seq, RecordTypeAlert, VersionTLS12, len(msg)))
		require.NoError(t, err)
		assert.Equal(t, msg, plain)
	}
}

func TestTLS13CipherRoundTrip(t *testing.T) {
	secret := bytes.Repeat([]byte{0x44}, 32)
	cs, err := NewTLS13Cipher(TLS_CHACHA20_POLY1305_SHA256, secret)
	require.NoError(t, err)

	key, err := hkdfExpandLabel(sha256.New, secret, "key", nil, 32)
	require.NoError(t, err)
	iv, err := hkdfExpandLabel(sha256.New, secret, "iv", nil, 12)
	require.NoError(t, err)
	aead, _ := chacha20poly1305.New(key)

	out, err := NewOutputBuffer(64, nil)
	require.NoError(t, err)
	w := NewRecordWriter(VersionTLS13, cs)
	require.NoError(t, w.WriteRecord(out, RecordTypeApplicationData, []byte("data")))
	require.NoError(t, w.WriteRecord(out, RecordTypeAlert, []byte{1, 0}))
	stream := append([]byte{}, out.Bytes()...)

	wantTypes := []RecordType{RecordTypeApplicationData, RecordTypeAlert}
	wantPlain := [][]byte{[]byte("data"), {1, 0}}
	offset := 0
	for seq, rec := range readRecords(t, stream) {
		header := stream[offset : offset+RecordHeaderLen]
		offset += RecordHeaderLen + len(rec.Fragment)

		nonce := append([]byte{}, iv...)
		nonce[11] ^= byte(seq)
		inner, err := aead.Open(nil, nonce, rec.Fragment, header)
		require.NoError(t, err)
		assert.Equal(t, byte(wantTypes[seq]), inner[len(inner)-1])
		assert.Equal(t, wantPlain[seq], inner[:len(inner)-1])
	}
}

func TestTLS13CipherRejectsOtherSuites(t *testing.T) {
	_, err := NewTLS13Cipher(TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256, make([]byte, 32))
	require.Error(t, err)
}

// openCBC decrypts and checks one CBC record, returning the plaintext.
func openCBC(t *testing.T, mode cipher.BlockMode, macKey []byte, seq uint64, typ RecordType, version uint16, body []byte) []byte {
	t.Helper()
	require.Zero(t, len(body)%aes.BlockSize)
	plain := make([]byte, len(body))
	mode.CryptBlocks(plain, body)

	padLen := int(plain[len(plain)-1])
	for _, b := range plain[len(plain)-1-padLen:] {
		require.Equal(t, byte(padLen), b, "padding byte")
	}
	plain = plain[:len(plain)-1-padLen]
	data, mac := plain[:len(plain)-sha1.Size], plain[len(plain)-sha1.Size:]

	h := hmac.New(sha1.New, macKey)
	h.Write(aeadAD(seq, typ, version, len(data)))
	h.Write(data)
	require.True(t, hmac.Equal(h.Sum(nil), mac), "record MAC")
	return data
}

func TestCBCCipherTLS10ChainsIV(t *testing.T) {
	key := bytes.Repeat([]byte{0x55}, 16)
	macKey := bytes.Repeat([]byte{0x66}, 20)
	iv := bytes.Repeat([]byte{0x77}, 16)
	cs, err := NewCBCCipher(VersionTLS10, TLS_RSA_WITH_AES_128_CBC_SHA, key, macKey, iv)
	require.NoError(t, err)

	block, _ := aes.NewCipher(key)
	dec := cipher.NewCBCDecrypter(block, iv)

	var prevLast []byte
	for seq, msg := range []string{"a", "the rest of the message, longer than a block"} {
		rec := sealOne(t, cs, RecordTypeApplicationData, VersionTLS10, []byte(msg))
		require.Len(t, rec.Fragment, cs.SealedLen(len(msg)))
		if prevLast != nil {
			// A fresh decrypter seeded with the previous ciphertext block
			// must agree with the running one.
			fresh := cipher.NewCBCDecrypter(block, prevLast)
			check := make([]byte, aes.BlockSize)
			fresh.CryptBlocks(check, rec.Fragment[:aes.BlockSize])
			assert.Equal(t, []byte(msg)[:aes.BlockSize], check)
		}
		prevLast = append([]byte{}, rec.Fragment[len(rec.Fragment)-aes.BlockSize:]...)

		got := openCBC(t, dec, macKey, uint64(seq), RecordTypeApplicationData, VersionTLS10, rec.Fragment)
		assert.Equal(t, msg, string(got))
	}
}

func TestCBCCipherExplicitIV(t *testing.T) {
	key := bytes.Repeat([]byte{0x88}, 32)
	macKey := bytes.Repeat([]byte{0x99}, 20)
	cs, err := NewCBCCipher(VersionTLS12, TLS_ECDHE_RSA_WITH_AES_256_CBC_SHA, key, macKey, nil)
	require.NoError(t, err)
	ivs := bytes.Repeat([]byte{0xaa}, 16)
	ivs = append(ivs, bytes.Repeat([]byte{0xbb}, 16)...)
	cs.SetRand(bytes.NewReader(ivs))

	block, _ := aes.NewCipher(key)
	for seq, msg := range []string{"sixteen byte msg", ""} {
		rec := sealOne(t, cs, RecordTypeApplicationData, VersionTLS12, []byte(msg))
		require.Len(t, rec.Fragment, cs.SealedLen(len(msg)))
		iv := rec.Fragment[:aes.BlockSize]
		assert.Equal(t, ivs[seq*16:(seq+1)*16], iv)

		got := openCBC(t, cipher.NewCBCDecrypter(block, iv), macKey, uint64(seq), RecordTypeApplicationData, VersionTLS12, rec.Fragment[aes.BlockSize:])
		assert.Equal(t, msg, string(got))
	}

	// IV source exhausted
	_, err = cs.SealRecord(nil, RecordTypeApplicationData, VersionTLS12, []byte("x"))
	require.Error(t, err)
}

func TestCBCCipherValidation(t *testing.T) {
	key := make([]byte, 16)
	macKey := make([]byte, 20)

	_, err := NewCBCCipher(VersionSSL30, TLS_RSA_WITH_AES_128_CBC_SHA, key, macKey, make([]byte, 16))
	require.Error(t, err)
	_, err = NewCBCCipher(VersionTLS10, TLS_RSA_WITH_AES_128_CBC_SHA, key, macKey, nil)
	require.Error(t, err, "TLS 1.0 needs a fixed IV")
	_, err = NewCBCCipher(VersionTLS11, TLS_RSA_WITH_AES_128_CBC_SHA, key, macKey, make([]byte, 16))
	require.Error(t, err, "TLS 1.1 takes no fixed IV")
	_, err = NewCBCCipher(VersionTLS12, TLS_RSA_WITH_AES_128_CBC_SHA, key, macKey[:10], nil)
	require.Error(t, err)
	_, err = NewCBCCipher(VersionTLS12, TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256, key, macKey, nil)
	require.Error(t, err)
	_, err = NewCBCCipher(VersionTLS13, TLS_RSA_WITH_AES_128_CBC_SHA, key, macKey, nil)
	require.Error(t, err)
}

func TestMaxPlaintextFitsFragment(t *testing.T) {
	gcm, err := NewAEADCipher(TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384, make([]byte, 32), make([]byte, 4))
	require.NoError(t, err)
	chacha, err := NewAEADCipher(TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305_SHA256, make([]byte, 32), make([]byte, 12))
	require.NoError(t, err)
	tls13, err := NewTLS13Cipher(TLS_AES_256_GCM_SHA384, make([]byte, 48))
	require.NoError(t, err)
	cbc10, err := NewCBCCipher(VersionTLS10, TLS_RSA_WITH_AES_256_CBC_SHA, make([]byte, 32), make([]byte, 20), make([]byte, 16))
	require.NoError(t, err)
	cbc12, err := NewCBCCipher(VersionTLS12, TLS_RSA_WITH_AES_128_CBC_SHA, make([]byte, 16), make([]byte, 20), nil)
	require.NoError(t, err)

	ciphers := map[string]CipherState{
		"null":   NullCipher{},
		"gcm":    gcm,
		"chacha": chacha,
		"tls13":  tls13,
		"cbc10":  cbc10,
		"cbc12":  cbc12,
	}
	for name, cs := range ciphers {
		for _, frag := range []int{512, DefaultFragmentLength, 4096, MaxFragmentLength} {
			n := cs.MaxPlaintext(frag)
			require.Positive(t, n, "%s/%d", name, frag)
			assert.LessOrEqual(t, cs.SealedLen(n), frag, "%s/%d", name, frag)
			assert.Greater(t, cs.SealedLen(n+1), frag, "%s/%d", name, frag)
		}
	}

	assert.Zero(t, gcm.MaxPlaintext(10))
	assert.Zero(t, cbc12.MaxPlaintext(16))
}

func TestRecordWriterRejectsOversizedPayload(t *testing.T) {
	out, err := NewOutputBuffer(RecordLength(MaxFragmentLength), nil)
	require.NoError(t, err)
	w := NewRecordWriter(VersionTLS12, nil)

	err = w.WriteRecord(out, RecordTypeApplicationData, make([]byte, MaxFragmentLength+1))
	require.ErrorIs(t, err, ErrRecordTooLarge)
	assert.Zero(t, out.Len())

	require.NoError(t, w.WriteRecord(out, RecordTypeApplicationData, make([]byte, MaxFragmentLength)))
	assert.Equal(t, RecordHeaderLen+MaxFragmentLength, out.Len())
}

func TestRecordWriterGrowsSmallBuffer(t *testing.T) {
	out, err := NewOutputBuffer(8, nil)
	require.NoError(t, err)
	w := NewRecordWriter(VersionTLS11, nil)
	require.NoError(t, w.WriteRecord(out, RecordTypeHandshake, testPayload(100)))
	assert.Equal(t, 105, out.Cap())

	// Growing beyond what the allocator allows is an error, not a fallback.
	out, err = NewOutputBuffer(8, func(size int) ([]byte, error) {
		if size > 8 {
			return nil, ErrBufferAlloc
		}
		return make([]byte, size), nil
	})
	require.NoError(t, err)
	err = w.WriteRecord(out, RecordTypeHandshake, testPayload(100))
	require.ErrorIs(t, err, ErrBufferAlloc)
}

func TestRecordWriterSetCipher(t *testing.T) {
	w := NewRecordWriter(VersionTLS12, nil)
	assert.Equal(t, CipherNull, w.CipherKind())
	cs, err := NewAEADCipher(TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256, make([]byte, 16), make([]byte, 4))
	require.NoError(t, err)
	w.SetCipher(cs)
	assert.Equal(t, CipherAEAD, w.CipherKind())
	assert.Equal(t, 1398-24, w.MaxPayloadSize(DefaultFragmentLength))
	w.SetCipher(nil)
	assert.Equal(t, MaxFragmentLength, w.MaxPayloadSize(MaxFragmentLength))
}
