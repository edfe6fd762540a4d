package dynamic

import (
	"math"
	"reflect"

	"fortio.org/safecast"

	"github.com/teranos/mavgen/errors"
	"github.com/teranos/mavgen/model"
	"github.com/teranos/mavgen/wire"
)

func put(w *wire.Writer, f *model.Field, v any) error {
	t := f.Type
	if t.Kind == model.KindChar {
		return putChars(w, t, v)
	}
	if !t.IsArray() {
		if v == nil {
			return putScalar(w, t.Kind, 0)
		}
		return putScalar(w, t.Kind, v)
	}

	var elems []any
	if v != nil {
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			return errors.Wrapf(ErrInvalidValue, "%T for %s", v, t)
		}
		if rv.Len() > t.ArrayLen {
			return errors.Wrapf(ErrInvalidValue, "%d elements for %s", rv.Len(), t)
		}
		for i := 0; i < rv.Len(); i++ {
			elems = append(elems, rv.Index(i).Interface())
		}
	}
	for i := 0; i < t.ArrayLen; i++ {
		var e any = 0
		if i < len(elems) {
			e = elems[i]
		}
		if err := putScalar(w, t.Kind, e); err != nil {
			return errors.Wrapf(err, "element %d", i)
		}
	}
	return nil
}

func putChars(w *wire.Writer, t model.FieldType, v any) error {
	var s string
	switch x := v.(type) {
	case nil:
	case string:
		s = x
	case []byte:
		s = string(x)
	default:
		return errors.Wrapf(ErrInvalidValue, "%T for %s", v, t)
	}
	buf := make([]byte, t.Len())
	if !wire.SetCString(buf, s) {
		return errors.Wrapf(ErrInvalidValue, "%d bytes of text for %s", len(s), t)
	}
	w.Bytes(buf)
	return nil
}

func putScalar(w *wire.Writer, k model.Kind, v any) error {
	if k.IsFloat() {
		x, err := toFloat64(v)
		if err != nil {
			return err
		}
		if k == model.KindDouble {
			w.Float64(x)
			return nil
		}
		if !math.IsInf(x, 0) && !math.IsNaN(x) && math.Abs(x) > math.MaxFloat32 {
			return errors.Wrapf(ErrInvalidValue, "%v overflows float", x)
		}
		w.Float32(float32(x))
		return nil
	}

	if k.IsSigned() {
		x, err := toInt64(v)
		if err != nil {
			return err
		}
		return putSigned(w, k, x)
	}
	x, err := toUint64(v)
	if err != nil {
		return err
	}
	return putUnsigned(w, k, x)
}

func putSigned(w *wire.Writer, k model.Kind, x int64) error {
	var err error
	switch k {
	case model.KindInt8:
		var n int8
		if n, err = safecast.Conv[int8](x); err == nil {
			w.Int8(n)
		}
	case model.KindInt16:
		var n int16
		if n, err = safecast.Conv[int16](x); err == nil {
			w.Int16(n)
		}
	case model.KindInt32:
		var n int32
		if n, err = safecast.Conv[int32](x); err == nil {
			w.Int32(n)
		}
	default:
		w.Int64(x)
	}
	if err != nil {
		return errors.Wrapf(ErrInvalidValue, "%d out of range for %s", x, k)
	}
	return nil
}

func putUnsigned(w *wire.Writer, k model.Kind, x uint64) error {
	var err error
	switch k {
	case model.KindUint8:
		var n uint8
		if n, err = safecast.Conv[uint8](x); err == nil {
			w.Uint8(n)
		}
	case model.KindUint16:
		var n uint16
		if n, err = safecast.Conv[uint16](x); err == nil {
			w.Uint16(n)
		}
	case model.KindUint32:
		var n uint32
		if n, err = safecast.Conv[uint32](x); err == nil {
			w.Uint32(n)
		}
	default:
		w.Uint64(x)
	}
	if err != nil {
		return errors.Wrapf(ErrInvalidValue, "%d out of range for %s", x, k)
	}
	return nil
}

// toInt64 accepts any Go integer, or a float with no fractional part as
// JSON and YAML decoders produce.
func toInt64(v any) (int64, error) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		n, err := safecast.Conv[int64](rv.Uint())
		if err != nil {
			return 0, errors.Wrapf(ErrInvalidValue, "%d out of range", rv.Uint())
		}
		return n, nil
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
			return 0, errors.Wrapf(ErrInvalidValue, "%v is not an integer", f)
		}
		return int64(f), nil
	}
	return 0, errors.Wrapf(ErrInvalidValue, "%T is not a number", v)
}

func toUint64(v any) (uint64, error) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := safecast.Conv[uint64](rv.Int())
		if err != nil {
			return 0, errors.Wrapf(ErrInvalidValue, "%d is negative", rv.Int())
		}
		return n, nil
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if f != math.Trunc(f) || f < 0 || f >= math.MaxUint64 {
			return 0, errors.Wrapf(ErrInvalidValue, "%v is not an unsigned integer", f)
		}
		return uint64(f), nil
	}
	return 0, errors.Wrapf(ErrInvalidValue, "%T is not a number", v)
}

func toFloat64(v any) (float64, error) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), nil
	}
	return 0, errors.Wrapf(ErrInvalidValue, "%T is not a number", v)
}
