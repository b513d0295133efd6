package folio

import "github.com/shopspring/decimal"

// number lists the types accepted by the M and Q factories.
type number interface {
	int | int32 | int64 | uint | uint32 | uint64 | float32 | float64 | decimal.Decimal
}

func toDecimal[T number](value T) decimal.Decimal {
	switch v := any(value).(type) {
	case decimal.Decimal:
		return v
	case float64:
		return decimal.NewFromFloat(v)
	case float32:
		return decimal.NewFromFloat32(v)
	case int:
		return decimal.NewFromInt(int64(v))
	case int64:
		return decimal.NewFromInt(v)
	case int32:
		return decimal.NewFromInt32(v)
	case uint:
		return decimal.NewFromUint64(uint64(v))
	case uint64:
		return decimal.NewFromUint64(v)
	case uint32:
		return decimal.NewFromUint64(uint64(v))
	}
	panic("folio: unsupported number type")
}

// Quantity is an exact number of units held: shares, bond nominal or fund
// parts. Quantities of a holding may be negative for short positions.
type Quantity struct {
	value decimal.Decimal
}

// Q returns the quantity of value units.
func Q[T number](value T) Quantity { return Quantity{value: toDecimal(value)} }

func (q Quantity) Add(p Quantity) Quantity  { return Quantity{value: q.value.Add(p.value)} }
func (q Quantity) Sub(p Quantity) Quantity  { return Quantity{value: q.value.Sub(p.value)} }
func (q Quantity) Neg() Quantity            { return Quantity{value: q.value.Neg()} }
func (q Quantity) Equal(p Quantity) bool    { return q.value.Equal(p.value) }
func (q Quantity) LessThan(p Quantity) bool { return q.value.LessThan(p.value) }
func (q Quantity) IsZero() bool             { return q.value.IsZero() }
func (q Quantity) IsPositive() bool         { return q.value.IsPositive() }
func (q Quantity) IsNegative() bool         { return q.value.IsNegative() }
func (q Quantity) Decimal() decimal.Decimal { return q.value }

// String returns the exact decimal, without trailing zeros: "15", "0.125".
func (q Quantity) String() string { return q.value.String() }

// MarshalJSON writes the quantity as a JSON string so that no precision is
// lost to float decoders.
func (q Quantity) MarshalJSON() ([]byte, error) { return q.value.MarshalJSON() }

func (q *Quantity) UnmarshalJSON(data []byte) error { return q.value.UnmarshalJSON(data) }
