package minitls

import (
	"bytes"
	"io"
	"testing"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"tls-recsend/transport"
)

// testWriter collects written bytes. maxWrite caps a single Write to model
// short writes; budget caps the total accepted before the writer reports
// would-block (negative means unlimited).
type testWriter struct {
	bytes.Buffer
	maxWrite int
	budget   int
	fatal    error
	calls    int
}

func newTestWriter() *testWriter {
	return &testWriter{budget: -1}
}

func (w *testWriter) Write(p []byte) (int, error) {
	w.calls++
	if w.fatal != nil {
		return 0, w.fatal
	}
	n := len(p)
	if w.maxWrite > 0 && n > w.maxWrite {
		n = w.maxWrite
	}
	if w.budget >= 0 {
		n = min(n, w.budget)
		w.budget -= n
	}
	w.Buffer.Write(p[:n])
	if n < len(p) && w.budget == 0 {
		return n, transport.ErrWouldBlock
	}
	return n, nil
}

// countingWriter discards everything it is given.
type countingWriter struct {
	n int
}

func (w *countingWriter) Write(p []byte) (int, error) {
	w.n += len(p)
	return len(p), nil
}

// kindCipher frames records like NullCipher but reports another kind, so
// send-path behavior can be checked against plain-text fragments.
type kindCipher struct {
	NullCipher
	kind CipherKind
}

func (k kindCipher) Kind() CipherKind { return k.kind }

func newTestConn(t *testing.T, w transport.Writer, emitter RecordEmitter, cfg *Config, opts ...Option) *Conn {
	t.Helper()
	opts = append([]Option{WithLogger(zaptest.NewLogger(t)), WithClock(clock.NewMock())}, opts...)
	c, err := NewConn(w, emitter, cfg, opts...)
	require.NoError(t, err)
	return c
}

// readRecords splits a byte stream into records.
func readRecords(t *testing.T, stream []byte) []*Record {
	t.Helper()
	var records []*Record
	r := NewRecordReader(bytes.NewReader(stream))
	for {
		rec, err := r.ReadRecord()
		if err != nil {
			require.ErrorIs(t, err, io.EOF)
			return records
		}
		records = append(records, rec)
	}
}

func fragmentLengths(records []*Record) []int {
	lens := make([]int, len(records))
	for i, rec := range records {
		lens[i] = len(rec.Fragment)
	}
	return lens
}

func testPayload(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i % 251)
	}
	return b
}
