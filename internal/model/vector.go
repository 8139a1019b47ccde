package model

import (
	"database/sql/driver"
	"encoding/binary"
	"fmt"
	"math"
)

// Vector is an embedding persisted as a little-endian float32 blob.
type Vector []float32

func (v Vector) Value() (driver.Value, error) {
	return EncodeVector(v), nil
}

func (v *Vector) Scan(src interface{}) error {
	var raw []byte
	switch data := src.(type) {
	case nil:
		*v = nil
		return nil
	case []byte:
		raw = data
	case string:
		raw = []byte(data)
	default:
		return fmt.Errorf("scan vector: unsupported type %T", src)
	}
	decoded, err := DecodeVector(raw)
	if err != nil {
		return err
	}
	*v = decoded
	return nil
}

func EncodeVector(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func DecodeVector(raw []byte) (Vector, error) {
	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("decode vector: blob length %d is not a multiple of 4", len(raw))
	}
	out := make(Vector, len(raw)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return out, nil
}
