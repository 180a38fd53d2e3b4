package minitls

// Allocator returns zeroed storage of exactly size bytes.
type Allocator func(size int) ([]byte, error)

// DefaultAllocator refuses anything larger than a maximum-size record.
func DefaultAllocator(size int) ([]byte, error) {
	if size < 0 || size > RecordLength(MaxFragmentLength) {
		return nil, ErrBufferAlloc
	}
	return make([]byte, size), nil
}

// OutputBuffer holds serialized records waiting for the transport.
//
// Bytes in buf[r:w] are pending; buf[w:] is free for the next record.
type OutputBuffer struct {
	buf   []byte
	r, w  int
	alloc Allocator
}

// NewOutputBuffer allocates a buffer of the given capacity. A nil alloc means
// DefaultAllocator.
func NewOutputBuffer(size int, alloc Allocator) (*OutputBuffer, error) {
	if alloc == nil {
		alloc = DefaultAllocator
	}
	b := &OutputBuffer{alloc: alloc}
	if err := b.Resize(size); err != nil {
		return nil, err
	}
	return b, nil
}

// Cap returns the current capacity.
func (b *OutputBuffer) Cap() int { return len(b.buf) }

// Len returns the number of bytes not yet handed to the transport.
func (b *OutputBuffer) Len() int { return b.w - b.r }

// Available returns the free space after the write cursor.
func (b *OutputBuffer) Available() int { return len(b.buf) - b.w }

// Bytes returns the pending bytes. The slice aliases the buffer.
func (b *OutputBuffer) Bytes() []byte { return b.buf[b.r:b.w] }

// Skip marks n pending bytes as sent.
func (b *OutputBuffer) Skip(n int) {
	if n > b.Len() {
		n = b.Len()
	}
	b.r += n
}

// Rewrite empties the buffer and keeps its storage.
func (b *OutputBuffer) Rewrite() {
	b.r, b.w = 0, 0
}

// Resize changes the capacity to size, preserving pending bytes.
func (b *OutputBuffer) Resize(size int) error {
	if size == len(b.buf) {
		return nil
	}
	from := len(b.buf)
	if size <= 0 {
		return &ResizeError{Kind: ResizeInvalid, From: from, To: size}
	}
	if size < b.Len() {
		return &ResizeError{Kind: ResizeInUse, From: from, To: size}
	}
	nb, err := b.alloc(size)
	if err != nil {
		return &ResizeError{Kind: ResizeAlloc, From: from, To: size, Err: err}
	}
	if len(nb) != size {
		return &ResizeError{Kind: ResizeAlloc, From: from, To: size, Err: ErrBufferAlloc}
	}
	n := copy(nb, b.buf[b.r:b.w])
	b.buf, b.r, b.w = nb, 0, n
	return nil
}

// Reserve makes room for n more bytes after the write cursor, compacting
// first and growing only if that is not enough.
func (b *OutputBuffer) Reserve(n int) error {
	if b.Available() >= n {
		return nil
	}
	if b.r > 0 {
		b.w = copy(b.buf, b.buf[b.r:b.w])
		b.r = 0
		if b.Available() >= n {
			return nil
		}
	}
	return b.Resize(b.w + n)
}

// Tail returns the free region as a zero-length slice whose capacity ends at
// the buffer's end. Appending within that capacity writes into the buffer.
func (b *OutputBuffer) Tail() []byte {
	return b.buf[b.w:b.w:len(b.buf)]
}

// Commit advances the write cursor over n bytes written through Tail.
func (b *OutputBuffer) Commit(n int) {
	if n > b.Available() {
		panic("minitls: commit beyond output buffer capacity")
	}
	b.w += n
}

// Release drops the storage. A later Reserve or Resize reallocates.
func (b *OutputBuffer) Release() {
	b.buf = nil
	b.r, b.w = 0, 0
}
