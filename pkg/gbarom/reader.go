package gbarom

// Reader is a cursor over a shared, read-only ROM image. The same backing
// byte slice is safe to hand to multiple Readers at once: each holds its own
// cursor, never mutating the underlying data.
//
// Grounded on the hand-rolled little/big-endian scalar readers in
// pkg/stsound/ymload.go and ym-file-utils.go of the teacher repo, adapted
// from big-endian YM-file decoding to the little-endian layout GBA ROMs use.
type Reader struct {
	data []byte
	pos  int
}

// New wraps data for sequential or random-access reads starting at offset 0.
func New(data []byte) *Reader {
	return &Reader{data: data}
}

// Len returns the length of the underlying ROM image.
func (r *Reader) Len() int {
	return len(r.data)
}

// Bytes returns the full backing slice. Callers must not mutate it.
func (r *Reader) Bytes() []byte {
	return r.data
}

// Pos returns the current cursor offset.
func (r *Reader) Pos() int {
	return r.pos
}

// Seek moves the cursor to an absolute offset. Seeking past the end of the
// image (or to a negative offset) fails with ErrOutOfRange.
func (r *Reader) Seek(offset int) error {
	if offset < 0 || offset > len(r.data) {
		return ErrOutOfRange
	}
	r.pos = offset
	return nil
}

func (r *Reader) need(n int) error {
	if r.pos+n > len(r.data) {
		return ErrUnexpectedEOF
	}
	return nil
}

// U8 reads one byte at the cursor and advances it.
func (r *Reader) U8() (uint8, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	v := r.data[r.pos]
	r.pos++
	return v, nil
}

// I8 reads one signed byte at the cursor and advances it.
func (r *Reader) I8() (int8, error) {
	v, err := r.U8()
	return int8(v), err
}

// U16 reads a little-endian u16 at the cursor and advances it.
func (r *Reader) U16() (uint16, error) {
	if err := r.need(2); err != nil {
		return 0, err
	}
	v := uint16(r.data[r.pos]) | uint16(r.data[r.pos+1])<<8
	r.pos += 2
	return v, nil
}

// U32 reads a little-endian u32 at the cursor and advances it.
func (r *Reader) U32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := uint32(r.data[r.pos]) | uint32(r.data[r.pos+1])<<8 |
		uint32(r.data[r.pos+2])<<16 | uint32(r.data[r.pos+3])<<24
	r.pos += 4
	return v, nil
}

// I32 reads a little-endian i32 at the cursor and advances it.
func (r *Reader) I32() (int32, error) {
	v, err := r.U32()
	return int32(v), err
}

// PeekU8 reads the byte at the cursor without advancing it.
func (r *Reader) PeekU8() (uint8, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	return r.data[r.pos], nil
}

// U32At reads a little-endian u32 at an absolute offset without disturbing
// the cursor.
func (r *Reader) U32At(offset int) (uint32, error) {
	if offset < 0 || offset+4 > len(r.data) {
		return 0, ErrUnexpectedEOF
	}
	return uint32(r.data[offset]) | uint32(r.data[offset+1])<<8 |
		uint32(r.data[offset+2])<<16 | uint32(r.data[offset+3])<<24, nil
}

// GBAPointer reads a u32 at the cursor and masks it into a ROM file offset
// (bits 0..25), per spec §1 and §4.1.
func (r *Reader) GBAPointer() (int, error) {
	v, err := r.U32()
	if err != nil {
		return 0, err
	}
	return int(v & PointerMask), nil
}

// GBAPointerAt reads a u32 at an absolute offset and masks it the same way,
// leaving the cursor untouched.
func (r *Reader) GBAPointerAt(offset int) (int, error) {
	v, err := r.U32At(offset)
	if err != nil {
		return 0, err
	}
	return int(v & PointerMask), nil
}

// Slice returns length bytes starting at offset, or ErrUnexpectedEOF if that
// range falls outside the image.
func (r *Reader) Slice(offset, length int) ([]byte, error) {
	if offset < 0 || length < 0 || offset+length > len(r.data) {
		return nil, ErrUnexpectedEOF
	}
	return r.data[offset : offset+length], nil
}
