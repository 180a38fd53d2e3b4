package minitls

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Record layer framing (RFC 5246 Section 6.2, RFC 8446 Section 5.1)

// RecordEmitter serializes and protects one record into an OutputBuffer
// using the connection's negotiated version and cipher state.
type RecordEmitter interface {
	// WriteRecord appends one record carrying payload to out.
	WriteRecord(out *OutputBuffer, typ RecordType, payload []byte) error

	// MaxPayloadSize returns how many plaintext bytes one record may carry
	// when its fragment is limited to fragmentLen.
	MaxPayloadSize(fragmentLen uint16) int

	Version() uint16
	CipherKind() CipherKind
}

// RecordWriter is the RecordEmitter for a negotiated version and cipher.
type RecordWriter struct {
	version uint16
	cipher  CipherState
}

// NewRecordWriter creates a writer for version. A nil cipher sends records
// unprotected.
func NewRecordWriter(version uint16, cs CipherState) *RecordWriter {
	if cs == nil {
		cs = NullCipher{}
	}
	return &RecordWriter{version: version, cipher: cs}
}

// SetCipher switches to a new write cipher state, as after ChangeCipherSpec
// or a TLS 1.3 key update.
func (w *RecordWriter) SetCipher(cs CipherState) {
	if cs == nil {
		cs = NullCipher{}
	}
	w.cipher = cs
}

func (w *RecordWriter) Version() uint16 { return w.version }

func (w *RecordWriter) CipherKind() CipherKind { return w.cipher.Kind() }

// wireVersion is the version placed in record headers. TLS 1.3 freezes it
// at 0x0303.
func (w *RecordWriter) wireVersion() uint16 {
	if w.version >= VersionTLS13 {
		return VersionTLS12
	}
	return w.version
}

func (w *RecordWriter) MaxPayloadSize(fragmentLen uint16) int {
	return min(w.cipher.MaxPlaintext(int(fragmentLen)), MaxFragmentLength)
}

func (w *RecordWriter) WriteRecord(out *OutputBuffer, typ RecordType, payload []byte) error {
	if len(payload) > MaxFragmentLength {
		return fmt.Errorf("%s payload of %d bytes: %w", typ, len(payload), ErrRecordTooLarge)
	}
	size := RecordHeaderLen + w.cipher.SealedLen(len(payload))
	if err := out.Reserve(size); err != nil {
		return err
	}
	rec, err := w.cipher.SealRecord(out.Tail(), typ, w.wireVersion(), payload)
	if err != nil {
		return err
	}
	if len(rec) != size {
		return fmt.Errorf("sealed %s record is %d bytes, expected %d", typ, len(rec), size)
	}
	out.Commit(size)
	return nil
}

// Record is one framed record as read off the wire.
type Record struct {
	Type     RecordType
	Version  uint16
	Fragment []byte // plaintext or ciphertext, as sent
}

// RecordReader splits a byte stream into records. It does not decrypt.
type RecordReader struct {
	conn   io.Reader
	buffer []byte // Buffer for incomplete records
}

// NewRecordReader creates a new record reader
func NewRecordReader(conn io.Reader) *RecordReader {
	return &RecordReader{
		conn:   conn,
		buffer: make([]byte, 0, 8192),
	}
}

// ReadRecord reads one complete record. It returns io.EOF when the stream
// ends on a record boundary and io.ErrUnexpectedEOF when it ends inside one.
func (r *RecordReader) ReadRecord() (*Record, error) {
	if err := r.fill(RecordHeaderLen); err != nil {
		return nil, err
	}

	record := &Record{
		Type:    RecordType(r.buffer[0]),
		Version: binary.BigEndian.Uint16(r.buffer[1:3]),
	}
	length := int(binary.BigEndian.Uint16(r.buffer[3:5]))

	if record.Type < RecordTypeChangeCipherSpec || record.Type > RecordTypeApplicationData {
		return nil, fmt.Errorf("invalid TLS record type: %d", record.Type)
	}
	if record.Version < VersionSSL30 || record.Version > VersionTLS13 {
		return nil, fmt.Errorf("unsupported TLS version: 0x%04x", record.Version)
	}
	if length > MaxCiphertextLength {
		return nil, fmt.Errorf("record of %d bytes: %w", length, ErrRecordTooLarge)
	}

	total := RecordHeaderLen + length
	if err := r.fill(total); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("failed to read record fragment: %w", err)
	}

	record.Fragment = make([]byte, length)
	copy(record.Fragment, r.buffer[RecordHeaderLen:total])
	r.buffer = r.buffer[total:]

	return record, nil
}

// fill reads until at least n bytes are buffered.
func (r *RecordReader) fill(n int) error {
	for len(r.buffer) < n {
		readBuf := make([]byte, max(n-len(r.buffer), 4096))
		m, err := r.conn.Read(readBuf)
		r.buffer = append(r.buffer, readBuf[:m]...)
		if len(r.buffer) >= n {
			return nil
		}
		if err != nil {
			if errors.Is(err, io.EOF) && len(r.buffer) > 0 {
				return io.ErrUnexpectedEOF
			}
			return err
		}
	}
	return nil
}
