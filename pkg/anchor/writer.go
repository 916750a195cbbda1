package anchor

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/gagliardetto/solana-go"
)

// Writer appends little-endian Borsh primitives. Methods chain like the
// original instruction builder.
type Writer struct {
	data []byte
}

// NewWriter creates a writer, optionally starting with a discriminator.
func NewWriter(prefix ...byte) *Writer {
	return &Writer{data: append([]byte(nil), prefix...)}
}

// Bytes returns the written data
func (w *Writer) Bytes() []byte { return w.data }

// WriteU8 adds a u8 value
func (w *Writer) WriteU8(v uint8) *Writer {
	w.data = append(w.data, v)
	return w
}

// WriteU16 adds a u16 value (little endian)
func (w *Writer) WriteU16(v uint16) *Writer {
	w.data = binary.LittleEndian.AppendUint16(w.data, v)
	return w
}

// WriteU32 adds a u32 value (little endian)
func (w *Writer) WriteU32(v uint32) *Writer {
	w.data = binary.LittleEndian.AppendUint32(w.data, v)
	return w
}

// WriteU64 adds a u64 value (little endian)
func (w *Writer) WriteU64(v uint64) *Writer {
	w.data = binary.LittleEndian.AppendUint64(w.data, v)
	return w
}

// WriteU128 adds a 16-byte little endian integer, two's complement when signed.
func (w *Writer) WriteU128(v *big.Int, signed bool) error {
	x := new(big.Int).Set(v)
	if signed {
		if x.Cmp(minI128) < 0 || x.Cmp(maxI128) > 0 {
			return fmt.Errorf("value %s out of i128 range", v)
		}
		if x.Sign() < 0 {
			x.Add(x, two128)
		}
	} else if x.Sign() < 0 || x.Cmp(two128) >= 0 {
		return fmt.Errorf("value %s out of u128 range", v)
	}
	be := x.FillBytes(make([]byte, 16))
	for i := 15; i >= 0; i-- {
		w.data = append(w.data, be[i])
	}
	return nil
}

// WriteBool adds a bool value
func (w *Writer) WriteBool(v bool) *Writer {
	if v {
		return w.WriteU8(1)
	}
	return w.WriteU8(0)
}

// WriteBytes adds a u32 length-prefixed byte slice
func (w *Writer) WriteBytes(v []byte) *Writer {
	w.WriteU32(uint32(len(v)))
	w.data = append(w.data, v...)
	return w
}

// WriteString adds a length-prefixed string
func (w *Writer) WriteString(v string) *Writer {
	return w.WriteBytes([]byte(v))
}

// WritePublicKey adds 32 raw key bytes
func (w *Writer) WritePublicKey(v solana.PublicKey) *Writer {
	w.data = append(w.data, v[:]...)
	return w
}

var (
	maxI128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
	minI128 = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))
)
