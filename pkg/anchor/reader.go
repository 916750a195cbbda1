package anchor

import (
	"encoding/binary"
	"math/big"

	"github.com/gagliardetto/solana-go"
)

// Reader reads little-endian Borsh primitives from a byte slice.
type Reader struct {
	data   []byte
	offset int
	target string
}

// NewReader creates a reader over data. target names the decoded item in errors.
func NewReader(data []byte, target string) *Reader {
	return &Reader{data: data, target: target}
}

// Offset returns the number of bytes consumed.
func (r *Reader) Offset() int { return r.offset }

// Remaining returns remaining bytes count
func (r *Reader) Remaining() int { return len(r.data) - r.offset }

func (r *Reader) fail(msg string) error {
	return &DecodeError{Target: r.target, Offset: r.offset, Msg: msg}
}

func (r *Reader) take(n int) ([]byte, error) {
	if n < 0 || r.Remaining() < n {
		return nil, r.fail("buffer underrun: not enough data")
	}
	out := r.data[r.offset : r.offset+n]
	r.offset += n
	return out, nil
}

// ReadU8 reads a u8 value
func (r *Reader) ReadU8() (uint8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadU16 reads a u16 value (little endian)
func (r *Reader) ReadU16() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// ReadU32 reads a u32 value (little endian)
func (r *Reader) ReadU32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// ReadU64 reads a u64 value (little endian)
func (r *Reader) ReadU64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// ReadU128 reads a 16-byte little endian integer. Signed values are two's complement.
func (r *Reader) ReadU128(signed bool) (*big.Int, error) {
	b, err := r.take(16)
	if err != nil {
		return nil, err
	}
	be := make([]byte, 16)
	for i := range b {
		be[15-i] = b[i]
	}
	v := new(big.Int).SetBytes(be)
	if signed && be[0]&0x80 != 0 {
		v.Sub(v, two128)
	}
	return v, nil
}

// ReadBool reads a bool value; anything other than 0 or 1 is rejected
func (r *Reader) ReadBool() (bool, error) {
	start := r.offset
	b, err := r.ReadU8()
	if err != nil {
		return false, err
	}
	switch b {
	case 0:
		return false, nil
	case 1:
		return true, nil
	}
	r.offset = start
	return false, r.fail("invalid bool byte")
}

// ReadBytes reads a u32 length-prefixed byte slice
func (r *Reader) ReadBytes() ([]byte, error) {
	n, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	b, err := r.take(int(n))
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

// ReadString reads a length-prefixed string
func (r *Reader) ReadString() (string, error) {
	b, err := r.ReadBytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ReadPublicKey reads 32 raw bytes as a public key
func (r *Reader) ReadPublicKey() (solana.PublicKey, error) {
	b, err := r.take(solana.PublicKeyLength)
	if err != nil {
		return solana.PublicKey{}, err
	}
	return solana.PublicKeyFromBytes(b), nil
}

var two128 = new(big.Int).Lsh(big.NewInt(1), 128)
