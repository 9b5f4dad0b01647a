// Package fixed implements signed Q16.16 fixed-point arithmetic.
//
// Every operator computes in int64 and saturates to [MinQ16, MaxQ16] when
// narrowing back to 32 bits. Nothing wraps.
package fixed

import (
	"errors"
	"fmt"
	"math"
	"sync/atomic"
)

// FracBits is the number of fractional bits in a Q16.
const FracBits = 16

// Q16 is a signed fixed-point number with 16 integer (incl. sign) and 16
// fractional bits.
type Q16 int32

const (
	One    Q16 = 1 << FracBits
	MaxQ16 Q16 = math.MaxInt32
	MinQ16 Q16 = math.MinInt32
)

var ErrDivideByZero = errors.New("fixed: divide by zero")

func saturate(v int64) Q16 {
	if v > math.MaxInt32 {
		return MaxQ16
	}
	if v < math.MinInt32 {
		return MinQ16
	}
	return Q16(v)
}

// FromInt converts an integer exactly. Integers outside [-32768, 32767]
// saturate.
func FromInt(i int) Q16 {
	return saturate(int64(i) << FracBits)
}

// Int truncates toward -inf (arithmetic shift), so integer-valued inputs
// round-trip exactly through FromInt.
func (q Q16) Int() int {
	return int(q >> FracBits)
}

// FromFloat rounds to the nearest representable value. NaN maps to zero.
func FromFloat(f float64) Q16 {
	if math.IsNaN(f) {
		return 0
	}
	v := math.Round(f * float64(One))
	if v >= math.MaxInt32 {
		return MaxQ16
	}
	if v <= math.MinInt32 {
		return MinQ16
	}
	return Q16(v)
}

func (q Q16) Float() float64 {
	return float64(q) / float64(One)
}

func Add(a, b Q16) Q16 { return saturate(int64(a) + int64(b)) }
func Sub(a, b Q16) Q16 { return saturate(int64(a) - int64(b)) }

// Mul computes (a*b)>>16 with a 64-bit intermediate. The shift is
// arithmetic, so negative products round toward -inf.
func Mul(a, b Q16) Q16 {
	return saturate((int64(a) * int64(b)) >> FracBits)
}

// Div computes (a<<16)/b, truncating toward zero. Division by zero
// saturates: a>0 gives MaxQ16, a<0 gives MinQ16 and 0/0 gives 0.
func Div(a, b Q16) Q16 {
	if b == 0 {
		switch {
		case a > 0:
			return MaxQ16
		case a < 0:
			return MinQ16
		default:
			return 0
		}
	}
	return saturate((int64(a) << FracBits) / int64(b))
}

// DivE is Div that reports division by zero instead of saturating.
func DivE(a, b Q16) (Q16, error) {
	if b == 0 {
		return 0, ErrDivideByZero
	}
	return Div(a, b), nil
}

// Shr is an arithmetic right shift: it divides by 2^n rounding toward -inf,
// including for negative values.
func (q Q16) Shr(n uint) Q16 {
	return q >> n
}

func (q Q16) Neg() Q16 {
	return saturate(-int64(q))
}

func (q Q16) Abs() Q16 {
	if q < 0 {
		return q.Neg()
	}
	return q
}

func (q Q16) Clamp(lo, hi Q16) Q16 {
	if q < lo {
		return lo
	}
	if q > hi {
		return hi
	}
	return q
}

func (q Q16) String() string {
	return fmt.Sprintf("%.4f", q.Float())
}

// Atomic holds a Q16 that one goroutine stores and any goroutine loads.
// A Q16 is a single 32-bit word, so readers never observe a torn value.
type Atomic struct {
	v atomic.Int32
}

func (a *Atomic) Load() Q16   { return Q16(a.v.Load()) }
func (a *Atomic) Store(q Q16) { a.v.Store(int32(q)) }
