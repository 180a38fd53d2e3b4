package minitls

import (
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"
	"strconv"
	"strings"
)

// CipherSuiteInfo contains metadata about a cipher suite
type CipherSuiteInfo struct {
	ID         uint16
	Name       string
	ShortName  string
	MinVersion uint16
	MaxVersion uint16
	Kind       CipherKind
	Algorithm  string // "AES-128-GCM", "AES-256-CBC", "ChaCha20-Poly1305"
	KeyLength  int    // Key length in bytes
	IVLength   int    // Fixed IV length in bytes; CBC suites use it only below TLS 1.1
	MACLength  int    // HMAC length in bytes, zero for AEAD suites
	Hash       func() hash.Hash
}

// AllCipherSuites lists every suite a write cipher can be built for
var AllCipherSuites = []CipherSuiteInfo{
	// TLS 1.3 cipher suites
	{
		ID:         TLS_AES_128_GCM_SHA256,
		Name:       "TLS_AES_128_GCM_SHA256",
		ShortName:  "AES_128_GCM",
		MinVersion: VersionTLS13,
		MaxVersion: VersionTLS13,
		Kind:       CipherAEAD,
		Algorithm:  "AES-128-GCM",
		KeyLength:  16,
		IVLength:   12,
		Hash:       sha256.New,
	},
	{
		ID:         TLS_AES_256_GCM_SHA384,
		Name:       "TLS_AES_256_GCM_SHA384",
		ShortName:  "AES_256_GCM",
		MinVersion: VersionTLS13,
		MaxVersion: VersionTLS13,
		Kind:       CipherAEAD,
		Algorithm:  "AES-256-GCM",
		KeyLength:  32,
		IVLength:   12,
		Hash:       sha512.New384,
	},
	{
		ID:         TLS_CHACHA20_POLY1305_SHA256,
		Name:       "TLS_CHACHA20_POLY1305_SHA256",
		ShortName:  "CHACHA20_POLY1305",
		MinVersion: VersionTLS13,
		MaxVersion: VersionTLS13,
		Kind:       CipherAEAD,
		Algorithm:  "ChaCha20-Poly1305",
		KeyLength:  32,
		IVLength:   12,
		Hash:       sha256.New,
	},
	// TLS 1.2 AEAD cipher suites
	{
		ID:         TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
		Name:       "TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256",
		ShortName:  "ECDHE-RSA-AES128-GCM-SHA256",
		MinVersion: VersionTLS12,
		MaxVersion: VersionTLS12,
		Kind:       CipherAEAD,
		Algorithm:  "AES-128-GCM",
		KeyLength:  16,
		IVLength:   4, // TLS 1.2 uses 4-byte implicit IV
		Hash:       sha256.New,
	},
	{
		ID:         TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
		Name:       "TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256",
		ShortName:  "ECDHE-ECDSA-AES128-GCM-SHA256",
		MinVersion: VersionTLS12,
		MaxVersion: VersionTLS12,
		Kind:       CipherAEAD,
		Algorithm:  "AES-128-GCM",
		KeyLength:  16,
		IVLength:   4,
		Hash:       sha256.New,
	},
	{
		ID:         TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
		Name:       "TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384",
		ShortName:  "ECDHE-RSA-AES256-GCM-SHA384",
		MinVersion: VersionTLS12,
		MaxVersion: VersionTLS12,
		Kind:       CipherAEAD,
		Algorithm:  "AES-256-GCM",
		KeyLength:  32,
		IVLength:   4,
		Hash:       sha512.New384,
	},
	{
		ID:         TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
		Name:       "TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384",
		ShortName:  "ECDHE-ECDSA-AES256-GCM-SHA384",
		MinVersion: VersionTLS12,
		MaxVersion: VersionTLS12,
		Kind:       CipherAEAD,
		Algorithm:  "AES-256-GCM",
		KeyLength:  32,
		IVLength:   4,
		Hash:       sha512.New384,
	},
	{
		ID:         TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305_SHA256,
		Name:       "TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305_SHA256",
		ShortName:  "ECDHE-RSA-CHACHA20-POLY1305",
		MinVersion: VersionTLS12,
		MaxVersion: VersionTLS12,
		Kind:       CipherAEAD,
		Algorithm:  "ChaCha20-Poly1305",
		KeyLength:  32,
		IVLength:   12, // TLS 1.2 ChaCha20 uses 12-byte IV (same as TLS 1.3)
		Hash:       sha256.New,
	},
	{
		ID:         TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305_SHA256,
		Name:       "TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305_SHA256",
		ShortName:  "ECDHE-ECDSA-CHACHA20-POLY1305",
		MinVersion: VersionTLS12,
		MaxVersion: VersionTLS12,
		Kind:       CipherAEAD,
		Algorithm:  "ChaCha20-Poly1305",
		KeyLength:  32,
		IVLength:   12,
		Hash:       sha256.New,
	},
	// CBC cipher suites
	{
		ID:         TLS_RSA_WITH_AES_128_CBC_SHA,
		Name:       "TLS_RSA_WITH_AES_128_CBC_SHA",
		ShortName:  "AES128-SHA",
		MinVersion: VersionTLS10,
		MaxVersion: VersionTLS12,
		Kind:       CipherBlock,
		Algorithm:  "AES-128-CBC",
		KeyLength:  16,
		IVLength:   16,
		MACLength:  sha1.Size,
		Hash:       sha256.New,
	},
	{
		ID:         TLS_RSA_WITH_AES_256_CBC_SHA,
		Name:       "TLS_RSA_WITH_AES_256_CBC_SHA",
		ShortName:  "AES256-SHA",
		MinVersion: VersionTLS10,
		MaxVersion: VersionTLS12,
		Kind:       CipherBlock,
		Algorithm:  "AES-256-CBC",
		KeyLength:  32,
		IVLength:   16,
		MACLength:  sha1.Size,
		Hash:       sha256.New,
	},
	{
		ID:         TLS_ECDHE_RSA_WITH_AES_128_CBC_SHA,
		Name:       "TLS_ECDHE_RSA_WITH_AES_128_CBC_SHA",
		ShortName:  "ECDHE-RSA-AES128-SHA",
		MinVersion: VersionTLS10,
		MaxVersion: VersionTLS12,
		Kind:       CipherBlock,
		Algorithm:  "AES-128-CBC",
		KeyLength:  16,
		IVLength:   16,
		MACLength:  sha1.Size,
		Hash:       sha256.New,
	},
	{
		ID:         TLS_ECDHE_RSA_WITH_AES_256_CBC_SHA,
		Name:       "TLS_ECDHE_RSA_WITH_AES_256_CBC_SHA",
		ShortName:  "ECDHE-RSA-AES256-SHA",
		MinVersion: VersionTLS10,
		MaxVersion: VersionTLS12,
		Kind:       CipherBlock,
		Algorithm:  "AES-256-CBC",
		KeyLength:  32,
		IVLength:   16,
		MACLength:  sha1.Size,
		Hash:       sha256.New,
	},
}

var (
	cipherSuiteByName = make(map[string]uint16)
	cipherSuiteByID   = make(map[uint16]*CipherSuiteInfo)
)

func init() {
	for i := range AllCipherSuites {
		info := &AllCipherSuites[i]
		cipherSuiteByID[info.ID] = info
		cipherSuiteByName[info.Name] = info.ID
		cipherSuiteByName[info.ShortName] = info.ID
	}
}

// ParseCipherSuite converts a cipher suite string (hex or name) to uint16 ID
func ParseCipherSuite(cipherSuite string) (uint16, error) {
	if cipherSuite == "" {
		return 0, fmt.Errorf("empty cipher suite")
	}

	// Handle hex format (0x1234)
	if strings.HasPrefix(cipherSuite, "0x") {
		val, err := strconv.ParseUint(cipherSuite[2:], 16, 16)
		if err != nil {
			return 0, fmt.Errorf("invalid hex cipher suite '%s': %v", cipherSuite, err)
		}
		return uint16(val), nil
	}

	if id, found := cipherSuiteByName[cipherSuite]; found {
		return id, nil
	}

	return 0, fmt.Errorf("unknown cipher suite '%s'", cipherSuite)
}

// CipherSuiteName returns the human-readable name for a cipher suite ID
func CipherSuiteName(id uint16) string {
	if info, found := cipherSuiteByID[id]; found {
		return info.Name
	}
	return fmt.Sprintf("0x%04x", id)
}

// LookupCipherSuite returns the suite's metadata, checking that it can be
// used with version.
func LookupCipherSuite(id, version uint16) (*CipherSuiteInfo, error) {
	info, found := cipherSuiteByID[id]
	if !found {
		return nil, fmt.Errorf("unknown cipher suite: 0x%04x", id)
	}
	if version < info.MinVersion || version > info.MaxVersion {
		return nil, fmt.Errorf("cipher suite %s is not compatible with %s", info.Name, VersionName(version))
	}
	return info, nil
}

// fixedIVLength is the IV material taken from the key block. CBC suites
// only have one in TLS 1.0, where the IV is chained between records.
func (info *CipherSuiteInfo) fixedIVLength(version uint16) int {
	if info.Kind == CipherBlock && version >= VersionTLS11 {
		return 0
	}
	return info.IVLength
}

// prfHash returns the PRF hash for TLS 1.2. Earlier versions always use the
// MD5/SHA-1 PRF.
func (info *CipherSuiteInfo) prfHash() func() hash.Hash {
	if info.Hash == nil {
		return sha256.New
	}
	return info.Hash
}
