package numbers

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
)

var (
	ErrOverflow     = errors.New("arithmetic overflow")
	ErrUnderflow    = errors.New("arithmetic underflow")
	ErrDivideByZero = errors.New("divide by zero")
)

// Uint256 is an exact, never negative 256-bit integer. Arithmetic never wraps:
// overflow, underflow and division by zero are returned as errors.
//
// The zero value is 0 and is ready to use. Values are immutable; every
// operation returns a new Uint256.
type Uint256 struct {
	v uint256.Int
}

func NewUint256(n uint64) Uint256 {
	var u Uint256
	u.v.SetUint64(n)
	return u
}

func Zero() Uint256 {
	return Uint256{}
}

func MaxUint256() Uint256 {
	var u Uint256
	u.v.SetAllOne()
	return u
}

// NewUint256FromDecimal parses a base-10 string.
func NewUint256FromDecimal(s string) (Uint256, error) {
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return Uint256{}, fmt.Errorf("invalid uint256 '%s': %w", s, err)
	}
	return Uint256{v: *v}, nil
}

func MustUint256FromDecimal(s string) Uint256 {
	u, err := NewUint256FromDecimal(s)
	if err != nil {
		panic(err)
	}
	return u
}

func NewUint256FromBig(b *big.Int) (Uint256, error) {
	if b.Sign() < 0 {
		return Uint256{}, ErrUnderflow
	}
	v, overflow := uint256.FromBig(b)
	if overflow {
		return Uint256{}, ErrOverflow
	}
	return Uint256{v: *v}, nil
}

func (a Uint256) Add(b Uint256) (Uint256, error) {
	var z Uint256
	if _, overflow := z.v.AddOverflow(&a.v, &b.v); overflow {
		return Uint256{}, ErrOverflow
	}
	return z, nil
}

func (a Uint256) Sub(b Uint256) (Uint256, error) {
	var z Uint256
	if _, underflow := z.v.SubOverflow(&a.v, &b.v); underflow {
		return Uint256{}, ErrUnderflow
	}
	return z, nil
}

func (a Uint256) Mul(b Uint256) (Uint256, error) {
	var z Uint256
	if _, overflow := z.v.MulOverflow(&a.v, &b.v); overflow {
		return Uint256{}, ErrOverflow
	}
	return z, nil
}

// Div is floor division.
func (a Uint256) Div(b Uint256) (Uint256, error) {
	if b.v.IsZero() {
		return Uint256{}, ErrDivideByZero
	}
	var z Uint256
	z.v.Div(&a.v, &b.v)
	return z, nil
}

// Sqrt returns floor(sqrt(a)).
func (a Uint256) Sqrt() Uint256 {
	var z Uint256
	z.v.Sqrt(&a.v)
	return z
}

func (a Uint256) Cmp(b Uint256) int {
	return a.v.Cmp(&b.v)
}

func (a Uint256) Eq(b Uint256) bool  { return a.v.Eq(&b.v) }
func (a Uint256) Lt(b Uint256) bool  { return a.v.Lt(&b.v) }
func (a Uint256) Gt(b Uint256) bool  { return a.v.Gt(&b.v) }
func (a Uint256) Lte(b Uint256) bool { return !a.v.Gt(&b.v) }
func (a Uint256) Gte(b Uint256) bool { return !a.v.Lt(&b.v) }
func (a Uint256) IsZero() bool       { return a.v.IsZero() }

func Min(a, b Uint256) Uint256 {
	if a.Lt(b) {
		return a
	}
	return b
}

func Max(a, b Uint256) Uint256 {
	if a.Gt(b) {
		return a
	}
	return b
}

// Truncate128 keeps the low 128 bits, the width used by emitted events.
func (a Uint256) Truncate128() Uint256 {
	z := a
	z.v[2], z.v[3] = 0, 0
	return z
}

func (a Uint256) IsUint64() bool {
	return a.v.IsUint64()
}

func (a Uint256) Uint64() uint64 {
	return a.v.Uint64()
}

func (a Uint256) ToBig() *big.Int {
	return a.v.ToBig()
}

func (a Uint256) String() string {
	return a.v.Dec()
}

// BytesBE returns the 32-byte big-endian representation.
func (a Uint256) BytesBE() [32]byte {
	return a.v.Bytes32()
}

// BytesLE returns the 32-byte little-endian representation.
func (a Uint256) BytesLE() [32]byte {
	be := a.v.Bytes32()
	var le [32]byte
	for i := range be {
		le[i] = be[31-i]
	}
	return le
}

func NewUint256FromBytesLE(b []byte) (Uint256, error) {
	if len(b) != 32 {
		return Uint256{}, fmt.Errorf("expected 32 bytes, got %d", len(b))
	}
	be := make([]byte, 32)
	for i := range b {
		be[i] = b[31-i]
	}
	var u Uint256
	u.v.SetBytes32(be)
	return u, nil
}

func (a Uint256) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

func (a *Uint256) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	u, err := NewUint256FromDecimal(s)
	if err != nil {
		return err
	}
	*a = u
	return nil
}

// MarshalCSV is used by gocsv when exporting balances.
func (a Uint256) MarshalCSV() (string, error) {
	return a.String(), nil
}

// Value stores the number as a decimal string so it survives drivers without a 256-bit type.
func (a Uint256) Value() (driver.Value, error) {
	return a.String(), nil
}

func (a *Uint256) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*a = Uint256{}
		return nil
	case string:
		u, err := NewUint256FromDecimal(v)
		if err != nil {
			return err
		}
		*a = u
		return nil
	case []byte:
		u, err := NewUint256FromDecimal(string(v))
		if err != nil {
			return err
		}
		*a = u
		return nil
	case int64:
		if v < 0 {
			return ErrUnderflow
		}
		*a = NewUint256(uint64(v))
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Uint256", src)
	}
}
