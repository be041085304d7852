package resultset

import (
	"fmt"

	"github.com/aws/aws-sdk-go/service/rdsdataservice"
)

type (
	// Value is one decoded result cell. The set of implementations is closed:
	// Null, String, Long, Double, Boolean, Blob and Array.
	Value interface {
		isValue()
	}

	Null    struct{}
	String  string
	Long    int64
	Double  float64
	Boolean bool
	Blob    []byte
	Array   []Value
)

func (Null) isValue()    {}
func (String) isValue()  {}
func (Long) isValue()    {}
func (Double) isValue()  {}
func (Boolean) isValue() {}
func (Blob) isValue()    {}
func (Array) isValue()   {}

// Native converts a Value to the plain Go value that goes into a Record:
// nil, string, int64, float64, bool, []byte or []any.
func Native(v Value) any {
	switch t := v.(type) {
	case Null:
		return nil
	case String:
		return string(t)
	case Long:
		return int64(t)
	case Double:
		return float64(t)
	case Boolean:
		return bool(t)
	case Blob:
		return []byte(t)
	case Array:
		out := make([]any, len(t))
		for i, elem := range t {
			out[i] = Native(elem)
		}
		return out
	default:
		panic(fmt.Sprintf("resultset: unhandled value type %T", v))
	}
}

// Decode turns a single tagged cell into a Value. Exactly one recognized key
// must be set; isNull=false does not count as a key.
func Decode(field *rdsdataservice.Field) (Value, error) {
	if field == nil {
		return nil, fmt.Errorf("nil cell: %w", ErrMalformedCell)
	}

	var (
		v     Value
		count int
	)
	if field.IsNull != nil && *field.IsNull {
		v = Null{}
		count++
	}
	if field.StringValue != nil {
		v = String(*field.StringValue)
		count++
	}
	if field.LongValue != nil {
		v = Long(*field.LongValue)
		count++
	}
	if field.DoubleValue != nil {
		v = Double(*field.DoubleValue)
		count++
	}
	if field.BooleanValue != nil {
		v = Boolean(*field.BooleanValue)
		count++
	}
	if field.BlobValue != nil {
		v = Blob(field.BlobValue)
		count++
	}
	if field.ArrayValue != nil {
		arr, err := decodeArray(field.ArrayValue)
		if err != nil {
			return nil, err
		}
		v = arr
		count++
	}

	switch count {
	case 0:
		return nil, fmt.Errorf("no recognized key: %w", ErrMalformedCell)
	case 1:
		return v, nil
	default:
		return nil, fmt.Errorf("%d keys set: %w", count, ErrMalformedCell)
	}
}

func decodeArray(av *rdsdataservice.ArrayValue) (Array, error) {
	var (
		out   Array
		count int
	)
	if av.StringValues != nil {
		out = make(Array, len(av.StringValues))
		for i, s := range av.StringValues {
			if s == nil {
				out[i] = Null{}
				continue
			}
			out[i] = String(*s)
		}
		count++
	}
	if av.LongValues != nil {
		out = make(Array, len(av.LongValues))
		for i, l := range av.LongValues {
			if l == nil {
				out[i] = Null{}
				continue
			}
			out[i] = Long(*l)
		}
		count++
	}
	if av.DoubleValues != nil {
		out = make(Array, len(av.DoubleValues))
		for i, d := range av.DoubleValues {
			if d == nil {
				out[i] = Null{}
				continue
			}
			out[i] = Double(*d)
		}
		count++
	}
	if av.BooleanValues != nil {
		out = make(Array, len(av.BooleanValues))
		for i, b := range av.BooleanValues {
			if b == nil {
				out[i] = Null{}
				continue
			}
			out[i] = Boolean(*b)
		}
		count++
	}
	if av.ArrayValues != nil {
		out = make(Array, len(av.ArrayValues))
		for i, nested := range av.ArrayValues {
			if nested == nil {
				out[i] = Null{}
				continue
			}
			inner, err := decodeArray(nested)
			if err != nil {
				return nil, err
			}
			out[i] = inner
		}
		count++
	}

	if count > 1 {
		return nil, fmt.Errorf("array with %d element kinds: %w", count, ErrMalformedCell)
	}
	if out == nil {
		// the Data API omits the list entirely for empty arrays
		out = Array{}
	}
	return out, nil
}
