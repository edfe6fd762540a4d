package dynamic

import (
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/mavgen/errors"
	mavtest "github.com/teranos/mavgen/internal/testing"
	"github.com/teranos/mavgen/layout"
	"github.com/teranos/mavgen/model"
)

func registry(t *testing.T) *Registry {
	t.Helper()
	r, err := NewRegistry(mavtest.PlanAll(t)...)
	require.NoError(t, err)
	return r
}

func message(t *testing.T, r *Registry, tag string, id uint32) *layout.Message {
	t.Helper()
	msg, err := r.Message(tag, id)
	require.NoError(t, err)
	return msg
}

// randomFields fills every field of msg with a random in-range value.
func randomFields(rng *rand.Rand, msg *layout.Message) Fields {
	out := make(Fields, len(msg.Fields))
	for _, f := range msg.Fields {
		out[f.Name] = randomValue(rng, f.Type)
	}
	return out
}

func randomValue(rng *rand.Rand, t model.FieldType) any {
	if t.Kind == model.KindChar {
		const letters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789 _-"
		n := rng.IntN(t.Len() + 1)
		var b strings.Builder
		for i := 0; i < n; i++ {
			b.WriteByte(letters[rng.IntN(len(letters))])
		}
		return b.String()
	}
	if !t.IsArray() {
		return randomScalar(rng, t.Kind)
	}
	switch {
	case t.Kind.IsFloat():
		out := make([]float64, t.ArrayLen)
		for i := range out {
			out[i] = randomScalar(rng, t.Kind).(float64)
		}
		return out
	case t.Kind.IsSigned():
		out := make([]int64, t.ArrayLen)
		for i := range out {
			out[i] = randomScalar(rng, t.Kind).(int64)
		}
		return out
	default:
		out := make([]uint64, t.ArrayLen)
		for i := range out {
			out[i] = randomScalar(rng, t.Kind).(uint64)
		}
		return out
	}
}

func randomScalar(rng *rand.Rand, k model.Kind) any {
	shift := 64 - 8*k.Size()
	switch {
	case k == model.KindFloat:
		return float64(float32(rng.NormFloat64() * 1000))
	case k == model.KindDouble:
		return rng.NormFloat64() * 1e9
	case k.IsSigned():
		return int64(rng.Uint64()) >> shift
	default:
		return rng.Uint64() >> shift
	}
}

func TestEncodeKnownHeartbeat(t *testing.T) {
	r := registry(t)
	msg := message(t, r, "common", 0)
	assert.Equal(t, uint8(50), msg.CRCExtra)

	payload, err := Encode(msg, Fields{
		"type":            uint64(2),
		"autopilot":       uint64(3),
		"base_mode":       uint64(0x81),
		"custom_mode":     uint64(0x01020304),
		"system_status":   uint64(4),
		"mavlink_version": uint64(3),
	}, Options{})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x04, 0x03, 0x02, 0x01, 0x02, 0x03, 0x81, 0x04, 0x03}, payload)
}

func TestFixtureChecksums(t *testing.T) {
	r := registry(t)
	want := map[uint32]uint8{0: 50, 22: 220, 30: 39, 253: 83}
	for id, crc := range want {
		assert.Equal(t, crc, message(t, r, "common", id).CRCExtra, "id %d", id)
		assert.Equal(t, crc, message(t, r, "alpha", id).CRCExtra, "included messages keep their checksum")
	}
}

func TestRoundTrip(t *testing.T) {
	r := registry(t)
	rng := rand.New(rand.NewPCG(1, 2))

	for _, tag := range r.Dialects() {
		d, err := r.Dialect(tag)
		require.NoError(t, err)
		for _, msg := range d.Messages {
			for i := 0; i < 50; i++ {
				fields := randomFields(rng, msg)
				payload, err := Encode(msg, fields, Options{})
				require.NoError(t, err, "%s.%s", tag, msg.Name)
				require.Len(t, payload, msg.MaxLength)

				got, err := Decode(msg, payload)
				require.NoError(t, err)
				assert.Equal(t, fields, got, "%s.%s", tag, msg.Name)
			}
		}
	}
}

func TestTruncationCompatibility(t *testing.T) {
	r := registry(t)
	rng := rand.New(rand.NewPCG(3, 4))
	msg := message(t, r, "alpha", 43)
	require.Less(t, msg.MinLength, msg.MaxLength)

	for i := 0; i < 20; i++ {
		fields := randomFields(rng, msg)
		payload, err := Encode(msg, fields, Options{})
		require.NoError(t, err)

		for cut := msg.MinLength; cut <= msg.MaxLength; cut++ {
			got, err := Decode(msg, payload[:cut])
			require.NoError(t, err, "cut %d", cut)

			padded := append(append([]byte(nil), payload[:cut]...), make([]byte, msg.MaxLength-cut)...)
			want, err := Decode(msg, padded)
			require.NoError(t, err)
			assert.Equal(t, want, got, "cut %d decodes as the zero-padded payload", cut)

			for j, f := range msg.WireOrder {
				switch {
				case msg.Offsets[j]+f.Type.Size() <= cut:
					assert.Equal(t, fields[f.Name], got[f.Name], "cut %d field %s", cut, f.Name)
				case msg.Offsets[j] >= cut:
					assert.Equal(t, Zero(f.Type), got[f.Name], "cut %d field %s", cut, f.Name)
				}
			}
		}

		got, err := Decode(msg, payload[:msg.MinLength])
		require.NoError(t, err)
		for _, f := range msg.ExtensionFields() {
			assert.Equal(t, Zero(f.Type), got[f.Name], "extensions reset at the minimum length")
		}

		for cut := 0; cut < msg.MinLength; cut++ {
			_, err := Decode(msg, payload[:cut])
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrTruncatedPayload), "cut %d", cut)
		}
	}
}

func TestDecodeTrailingZeroBytesCut(t *testing.T) {
	r := registry(t)
	msg := message(t, r, "common", 253)

	payload, err := Encode(msg, Fields{"severity": uint64(6), "text": "armed", "id": uint64(5)}, Options{})
	require.NoError(t, err)
	require.Len(t, payload, msg.MaxLength)

	// A MAVLink 2 sender cuts every trailing zero byte, here the high byte
	// of id and all of chunk_seq.
	end := len(payload)
	for end > 0 && payload[end-1] == 0 {
		end--
	}
	require.Equal(t, msg.MinLength+1, end)

	got, err := Decode(msg, payload[:end])
	require.NoError(t, err)
	assert.Equal(t, uint64(5), got["id"])
	assert.Equal(t, uint64(0), got["chunk_seq"])
	assert.Equal(t, uint64(6), got["severity"])
}

func TestCharArrayKeepsBytesAfterNUL(t *testing.T) {
	r := registry(t)
	kinds := message(t, r, "alpha", 43)

	payload, err := Encode(kinds, Fields{"label": []byte("ab\x00cd")}, Options{})
	require.NoError(t, err)

	got, err := Decode(kinds, payload)
	require.NoError(t, err)
	assert.Equal(t, []byte("ab\x00cd\x00\x00\x00"), got["label"], "the whole array survives")

	again, err := Encode(kinds, got, Options{})
	require.NoError(t, err)
	assert.Equal(t, payload, again)

	payload, err = Encode(kinds, Fields{"label": "ab"}, Options{})
	require.NoError(t, err)
	got, err = Decode(kinds, payload)
	require.NoError(t, err)
	assert.Equal(t, "ab", got["label"], "zero padding alone decodes as text")
}

func TestTrimExtensions(t *testing.T) {
	r := registry(t)
	msg := message(t, r, "common", 253)

	payload, err := Encode(msg, Fields{"severity": uint64(6), "text": "armed"}, Options{TrimExtensions: true})
	require.NoError(t, err)
	assert.Len(t, payload, msg.MinLength)

	payload, err = Encode(msg, Fields{"severity": uint64(6), "text": "armed", "id": uint64(7)}, Options{TrimExtensions: true})
	require.NoError(t, err)
	assert.Len(t, payload, msg.MinLength+2, "chunk_seq is trimmed, id is kept")

	got, err := Decode(msg, payload)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), got["id"])
	assert.Equal(t, uint64(0), got["chunk_seq"])
	assert.Equal(t, "armed", got["text"])
}

func TestEncodeRejectsBadValues(t *testing.T) {
	r := registry(t)
	kinds := message(t, r, "alpha", 43)

	tests := []struct {
		name   string
		fields Fields
		want   error
	}{
		{"unknown field", Fields{"nope": 1}, ErrUnknownField},
		{"uint8 overflow", Fields{"u8": 256}, ErrInvalidValue},
		{"negative unsigned", Fields{"u16": -1}, ErrInvalidValue},
		{"int8 underflow", Fields{"i8": -129}, ErrInvalidValue},
		{"fractional integer", Fields{"i32": 1.5}, ErrInvalidValue},
		{"text too long", Fields{"label": "nine char"}, ErrInvalidValue},
		{"too many elements", Fields{"samples": []int64{1, 2, 3, 4}}, ErrInvalidValue},
		{"string for number", Fields{"f32": "1.0"}, ErrInvalidValue},
		{"scalar for array", Fields{"pair": 1.0}, ErrInvalidValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Encode(kinds, tt.fields, Options{})
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestEncodeAcceptsLooseNumbers(t *testing.T) {
	r := registry(t)
	kinds := message(t, r, "alpha", 43)

	payload, err := Encode(kinds, Fields{
		"i8":      float64(-5),
		"u32":     int(70000),
		"f64":     int64(3),
		"samples": []any{1, -2.0},
		"label":   []byte("abc"),
	}, Options{})
	require.NoError(t, err)

	got, err := Decode(kinds, payload)
	require.NoError(t, err)
	assert.Equal(t, int64(-5), got["i8"])
	assert.Equal(t, uint64(70000), got["u32"])
	assert.Equal(t, float64(3), got["f64"])
	assert.Equal(t, []int64{1, -2, 0}, got["samples"])
	assert.Equal(t, "abc", got["label"])
}

func TestDispatchScopedByDialect(t *testing.T) {
	r := registry(t)

	alpha, err := r.Encode("alpha", 42, Fields{"time_ms": uint64(1000), "mode": uint64(1), "state": uint64(9)}, Options{})
	require.NoError(t, err)
	charlie, err := r.Encode("charlie", 42, Fields{"x": 1.5, "raw": []int64{1, 2, 3, 4}, "flags": uint64(2)}, Options{})
	require.NoError(t, err)

	got, err := r.Dispatch("alpha", 42, alpha)
	require.NoError(t, err)
	assert.Equal(t, "alpha", got.Dialect)
	assert.Equal(t, "ALPHA_STATUS", got.Message.Name)
	assert.Equal(t, uint64(9), got.Fields["state"])

	got, err = r.Dispatch("charlie", 42, charlie)
	require.NoError(t, err)
	assert.Equal(t, "CHARLIE_VECTOR", got.Message.Name)
	assert.Equal(t, 1.5, got.Fields["x"])

	// The same id under a different tag is a different message.
	_, err = r.Dispatch("charlie", 42, alpha)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrTruncatedPayload), "alpha's 6 bytes are too short for charlie's layout")

	got, err = r.Dispatch("common", 0, make([]byte, 9))
	require.NoError(t, err)
	assert.Equal(t, "HEARTBEAT", got.Message.Name)
}

func TestDispatchErrors(t *testing.T) {
	r := registry(t)

	_, err := r.Dispatch("bravo", 42, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrUnknownDialect))

	_, err = r.Dispatch("common", 42, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrUnknownMessageID), "common does not define 42")

	_, err = r.Dispatch("", 0, nil)
	assert.True(t, errors.Is(err, errors.ErrUnknownDialect), "there is no untagged dispatch")
}

func TestNewRegistryRejectsDuplicates(t *testing.T) {
	dialects := mavtest.PlanAll(t)
	_, err := NewRegistry(append(dialects, dialects[0])...)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrDuplicateDialect))

	r, err := NewRegistry(dialects...)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "charlie", "common"}, r.Dialects())
}
