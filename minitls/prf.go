package minitls

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha1"
	"fmt"
	"hash"
)

// pHash implements the P_hash function from RFC 5246
// P_hash(secret, seed) = HMAC_hash(secret, A(1) + seed) +
//
//	HMAC_hash(secret, A(2) + seed) +
//	HMAC_hash(secret, A(3) + seed) + ...
//
// where A(0) = seed
//
//	A(i) = HMAC_hash(secret, A(i-1))
func pHash(hashFunc func() hash.Hash, secret, seed []byte, length int) []byte {
	h := hmac.New(hashFunc, secret)
	h.Write(seed)
	a := h.Sum(nil) // A(1)

	result := make([]byte, 0, length)
	for len(result) < length {
		h.Reset()
		h.Write(a)
		h.Write(seed)
		b := h.Sum(nil)

		todo := len(b)
		if len(result)+todo > length {
			todo = length - len(result)
		}
		result = append(result, b[:todo]...)

		// Calculate A(i+1)
		h.Reset()
		h.Write(a)
		a = h.Sum(nil)
	}

	return result
}

// prf10 is the TLS 1.0/1.1 PRF (RFC 2246 Section 5):
// P_MD5(S1, label + seed) XOR P_SHA-1(S2, label + seed), where S1 and S2
// are the two halves of the secret, sharing the middle byte when its
// length is odd.
func prf10(secret []byte, label string, seed []byte, length int) []byte {
	labelSeed := append([]byte(label), seed...)
	half := (len(secret) + 1) / 2
	s1 := secret[:half]
	s2 := secret[len(secret)-half:]

	result := pHash(md5.New, s1, labelSeed, length)
	sha := pHash(sha1.New, s2, labelSeed, length)
	for i := range result {
		result[i] ^= sha[i]
	}
	return result
}

// prf12 implements the TLS 1.2 PRF function
// PRF(secret, label, seed) = P_<hash>(secret, label + seed)
func prf12(hashFunc func() hash.Hash, secret []byte, label string, seed []byte, length int) []byte {
	labelSeed := make([]byte, len(label)+len(seed))
	copy(labelSeed, label)
	copy(labelSeed[len(label):], seed)

	return pHash(hashFunc, secret, labelSeed, length)
}

func prfForVersion(version uint16, info *CipherSuiteInfo) func(secret []byte, label string, seed []byte, length int) []byte {
	if version >= VersionTLS12 {
		hashFunc := info.prfHash()
		return func(secret []byte, label string, seed []byte, length int) []byte {
			return prf12(hashFunc, secret, label, seed, length)
		}
	}
	return prf10
}

// DeriveMasterSecret derives the master secret from the pre-master secret
// master_secret = PRF(pre_master_secret, "master secret", ClientHello.random + ServerHello.random)[0..47]
func DeriveMasterSecret(version, suite uint16, preMasterSecret, clientRandom, serverRandom []byte) ([]byte, error) {
	info, err := LookupCipherSuite(suite, version)
	if err != nil {
		return nil, err
	}
	if version >= VersionTLS13 {
		return nil, fmt.Errorf("master secret is not defined for %s", VersionName(version))
	}
	seed := make([]byte, 0, len(clientRandom)+len(serverRandom))
	seed = append(seed, clientRandom...)
	seed = append(seed, serverRandom...)
	return prfForVersion(version, info)(preMasterSecret, "master secret", seed, 48), nil
}

// keyBlockLayout returns the per-direction MAC key, key and IV lengths.
func keyBlockLayout(version uint16, info *CipherSuiteInfo) (macLen, keyLen, ivLen int) {
	return info.MACLength, info.KeyLength, info.fixedIVLength(version)
}

// DeriveKeyBlock derives the key block for encryption keys and IVs
// key_block = PRF(SecurityParameters.master_secret, "key expansion",
//
//	SecurityParameters.server_random + SecurityParameters.client_random)
func DeriveKeyBlock(version, suite uint16, masterSecret, serverRandom, clientRandom []byte) ([]byte, error) {
	info, err := LookupCipherSuite(suite, version)
	if err != nil {
		return nil, err
	}
	if version >= VersionTLS13 {
		return nil, fmt.Errorf("key block is not defined for %s", VersionName(version))
	}
	macLen, keyLen, ivLen := keyBlockLayout(version, info)

	// Note: for key derivation, we use server_random + client_random (opposite order from master secret)
	seed := make([]byte, 0, len(serverRandom)+len(clientRandom))
	seed = append(seed, serverRandom...)
	seed = append(seed, clientRandom...)
	return prfForVersion(version, info)(masterSecret, "key expansion", seed, 2*(macLen+keyLen+ivLen)), nil
}

// NewWriteCipher builds the write cipher state for one side of a
// connection from a key block.
// key_block = client_write_MAC_key + server_write_MAC_key +
//
//	client_write_key + server_write_key + client_write_IV + server_write_IV
func NewWriteCipher(version, suite uint16, keyBlock []byte, isClient bool) (CipherState, error) {
	info, err := LookupCipherSuite(suite, version)
	if err != nil {
		return nil, err
	}
	if version >= VersionTLS13 {
		return nil, fmt.Errorf("use NewTLS13Cipher for %s", VersionName(version))
	}
	macLen, keyLen, ivLen := keyBlockLayout(version, info)
	if len(keyBlock) < 2*(macLen+keyLen+ivLen) {
		return nil, fmt.Errorf("key block too short: got %d, need %d", len(keyBlock), 2*(macLen+keyLen+ivLen))
	}

	offset := 0
	next := func(n int) []byte {
		b := keyBlock[offset : offset+n]
		offset += n
		return b
	}
	clientMAC, serverMAC := next(macLen), next(macLen)
	clientKey, serverKey := next(keyLen), next(keyLen)
	clientIV, serverIV := next(ivLen), next(ivLen)

	macKey, key, iv := serverMAC, serverKey, serverIV
	if isClient {
		macKey, key, iv = clientMAC, clientKey, clientIV
	}

	switch info.Kind {
	case CipherAEAD:
		return NewAEADCipher(suite, key, iv)
	case CipherBlock:
		return NewCBCCipher(version, suite, key, macKey, iv)
	default:
		return nil, fmt.Errorf("unsupported cipher suite: 0x%04x", suite)
	}
}
