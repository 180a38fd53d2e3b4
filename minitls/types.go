package minitls

import "fmt"

// TLS version constants (following Go's crypto/tls conventions)
const (
	VersionSSL30 = 0x0300
	VersionTLS10 = 0x0301
	VersionTLS11 = 0x0302
	VersionTLS12 = 0x0303
	VersionTLS13 = 0x0304
)

// VersionName returns the conventional name of a protocol version.
func VersionName(v uint16) string {
	switch v {
	case VersionSSL30:
		return "SSLv3"
	case VersionTLS10:
		return "TLS 1.0"
	case VersionTLS11:
		return "TLS 1.1"
	case VersionTLS12:
		return "TLS 1.2"
	case VersionTLS13:
		return "TLS 1.3"
	default:
		return fmt.Sprintf("0x%04x", v)
	}
}

// RecordType is the content type carried in a record header.
type RecordType uint8

const (
	RecordTypeChangeCipherSpec RecordType = 20
	RecordTypeAlert            RecordType = 21
	RecordTypeHandshake        RecordType = 22
	RecordTypeApplicationData  RecordType = 23
)

func (t RecordType) String() string {
	switch t {
	case RecordTypeChangeCipherSpec:
		return "change_cipher_spec"
	case RecordTypeAlert:
		return "alert"
	case RecordTypeHandshake:
		return "handshake"
	case RecordTypeApplicationData:
		return "application_data"
	default:
		return fmt.Sprintf("record_type(%d)", uint8(t))
	}
}

// Record layer sizes.
const (
	RecordHeaderLen = 5

	// MaxFragmentLength is the largest plaintext a record may carry (2^14).
	MaxFragmentLength = 1 << 14

	// DefaultFragmentLength fits one record in a single Ethernet frame:
	// 1500 MTU, minus 52 bytes of IPv4/TCP headers with timestamps, minus 50
	// bytes of worst-case record framing.
	DefaultFragmentLength = 1398

	// MaxRecordOverhead bounds the bytes protection adds to a fragment:
	// explicit IV, the largest MAC, a full block of CBC padding and its
	// length byte.
	MaxRecordOverhead = 16 + 48 + 16 + 1

	// MaxCiphertextLength is the largest fragment accepted on receive.
	MaxCiphertextLength = MaxFragmentLength + 2048
)

// RecordLength returns the wire size of a record whose plaintext fragment is
// at most fragment bytes.
func RecordLength(fragment int) int {
	return RecordHeaderLen + fragment + MaxRecordOverhead
}

// Alert levels
const (
	AlertLevelWarning uint8 = 1
	AlertLevelFatal   uint8 = 2
)

// Alert descriptions (RFC 5246 Section 7.2, RFC 8446 Section 6)
const (
	AlertCloseNotify                  uint8 = 0
	AlertUnexpectedMessage            uint8 = 10
	AlertBadRecordMAC                 uint8 = 20
	AlertDecryptionFailed             uint8 = 21
	AlertRecordOverflow               uint8 = 22
	AlertDecompressionFailure         uint8 = 30
	AlertHandshakeFailure             uint8 = 40
	AlertBadCertificate               uint8 = 42
	AlertUnsupportedCertificate       uint8 = 43
	AlertCertificateRevoked           uint8 = 44
	AlertCertificateExpired           uint8 = 45
	AlertCertificateUnknown           uint8 = 46
	AlertIllegalParameter             uint8 = 47
	AlertUnknownCA                    uint8 = 48
	AlertAccessDenied                 uint8 = 49
	AlertDecodeError                  uint8 = 50
	AlertDecryptError                 uint8 = 51
	AlertProtocolVersion              uint8 = 70
	AlertInsufficientSecurity         uint8 = 71
	AlertInternalError                uint8 = 80
	AlertInappropriateFallback        uint8 = 86
	AlertUserCanceled                 uint8 = 90
	AlertNoRenegotiation              uint8 = 100
	AlertMissingExtension             uint8 = 109
	AlertUnsupportedExtension         uint8 = 110
	AlertUnrecognizedName             uint8 = 112
	AlertUnknownPSKIdentity           uint8 = 115
	AlertCertificateRequired          uint8 = 116
	AlertNoApplicationProtocol        uint8 = 120
)

// AlertDescriptionString returns the RFC name of an alert description.
func AlertDescriptionString(d uint8) string {
	switch d {
	case AlertCloseNotify:
		return "close_notify"
	case AlertUnexpectedMessage:
		return "unexpected_message"
	case AlertBadRecordMAC:
		return "bad_record_mac"
	case AlertDecryptionFailed:
		return "decryption_failed"
	case AlertRecordOverflow:
		return "record_overflow"
	case AlertDecompressionFailure:
		return "decompression_failure"
	case AlertHandshakeFailure:
		return "handshake_failure"
	case AlertBadCertificate:
		return "bad_certificate"
	case AlertUnsupportedCertificate:
		return "unsupported_certificate"
	case AlertCertificateRevoked:
		return "certificate_revoked"
	case AlertCertificateExpired:
		return "certificate_expired"
	case AlertCertificateUnknown:
		return "certificate_unknown"
	case AlertIllegalParameter:
		return "illegal_parameter"
	case AlertUnknownCA:
		return "unknown_ca"
	case AlertAccessDenied:
		return "access_denied"
	case AlertDecodeError:
		return "decode_error"
	case AlertDecryptError:
		return "decrypt_error"
	case AlertProtocolVersion:
		return "protocol_version"
	case AlertInsufficientSecurity:
		return "insufficient_security"
	case AlertInternalError:
		return "internal_error"
	case AlertInappropriateFallback:
		return "inappropriate_fallback"
	case AlertUserCanceled:
		return "user_canceled"
	case AlertNoRenegotiation:
		return "no_renegotiation"
	case AlertMissingExtension:
		return "missing_extension"
	case AlertUnsupportedExtension:
		return "unsupported_extension"
	case AlertUnrecognizedName:
		return "unrecognized_name"
	case AlertUnknownPSKIdentity:
		return "unknown_psk_identity"
	case AlertCertificateRequired:
		return "certificate_required"
	case AlertNoApplicationProtocol:
		return "no_application_protocol"
	default:
		return "unknown"
	}
}

// TLS 1.3 Cipher Suites
const (
	TLS_AES_128_GCM_SHA256       = 0x1301
	TLS_AES_256_GCM_SHA384       = 0x1302
	TLS_CHACHA20_POLY1305_SHA256 = 0x1303
)

// TLS 1.2 AEAD Cipher Suites (following Go's crypto/tls constants)
const (
	TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256         = 0xc02f
	TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256       = 0xc02b
	TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384         = 0xc030
	TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384       = 0xc02c
	TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305_SHA256   = 0xcca8
	TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305_SHA256 = 0xcca9
)

// CBC-mode cipher suites. Usable with TLS 1.0 through 1.2.
const (
	TLS_RSA_WITH_AES_128_CBC_SHA       = 0x002f
	TLS_RSA_WITH_AES_256_CBC_SHA       = 0x0035
	TLS_ECDHE_RSA_WITH_AES_128_CBC_SHA = 0xc013
	TLS_ECDHE_RSA_WITH_AES_256_CBC_SHA = 0xc014
)

// TLS_NULL_WITH_NULL_NULL is the initial, unprotected state of a connection.
const TLS_NULL_WITH_NULL_NULL = 0x0000
