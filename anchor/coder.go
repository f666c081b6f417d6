package anchor

import (
	"bytes"
	"fmt"
	"math"
	"reflect"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"
)

// EncodeInstructionData returns the discriminator followed by the borsh encoded arguments.
func EncodeInstructionData(ix *IdlInstruction, args []interface{}) ([]byte, error) {
	if len(args) != len(ix.Args) {
		return nil, fmt.Errorf("instruction %v expects %v arguments, got %v", ix.Name, len(ix.Args), len(args))
	}

	buf := new(bytes.Buffer)
	disc := InstructionDiscriminator(ix.Name)
	buf.Write(disc[:])

	enc := bin.NewBorshEncoder(buf)
	for i, field := range ix.Args {
		if err := encodeValue(enc, field.Type, args[i]); err != nil {
			return nil, fmt.Errorf("instruction %v argument %v (%v): %w", ix.Name, field.Name, field.Type.String(), err)
		}
	}

	return buf.Bytes(), nil
}

func encodeValue(enc *bin.Encoder, t IdlType, value interface{}) error {
	switch {
	case t.Option != nil:
		if isNil(value) {
			return enc.WriteUint8(0)
		}
		if err := enc.WriteUint8(1); err != nil {
			return err
		}
		return encodeValue(enc, *t.Option, value)
	case t.Vec != nil:
		items := reflect.ValueOf(value)
		if items.Kind() != reflect.Slice {
			return fmt.Errorf("expected slice, got %T", value)
		}
		if err := enc.WriteUint32(uint32(items.Len()), bin.LE); err != nil {
			return err
		}
		for i := 0; i < items.Len(); i++ {
			if err := encodeValue(enc, *t.Vec, items.Index(i).Interface()); err != nil {
				return fmt.Errorf("item %v: %w", i, err)
			}
		}
		return nil
	case t.Array != nil, t.Defined != "":
		return fmt.Errorf("unsupported argument type %v", t.String())
	}

	switch t.Primitive {
	case "bool":
		b, ok := value.(bool)
		if !ok {
			return fmt.Errorf("expected bool, got %T", value)
		}
		return enc.WriteBool(b)
	case "u8", "u16", "u32", "u64":
		v, err := toUint64(value)
		if err != nil {
			return err
		}
		return writeUnsigned(enc, t.Primitive, v)
	case "i64":
		v, err := toInt64(value)
		if err != nil {
			return err
		}
		return enc.WriteInt64(v, bin.LE)
	case "u128":
		v, err := toUint256(value)
		if err != nil {
			return err
		}
		lo, hi, err := U128Limbs(v)
		if err != nil {
			return err
		}
		if err := enc.WriteUint64(lo, bin.LE); err != nil {
			return err
		}
		return enc.WriteUint64(hi, bin.LE)
	case "publicKey", "pubkey":
		pk, ok := value.(solana.PublicKey)
		if !ok {
			return fmt.Errorf("expected solana.PublicKey, got %T", value)
		}
		return enc.WriteBytes(pk[:], false)
	case "string":
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("expected string, got %T", value)
		}
		if err := enc.WriteUint32(uint32(len(s)), bin.LE); err != nil {
			return err
		}
		return enc.WriteBytes([]byte(s), false)
	}

	return fmt.Errorf("unsupported argument type %v", t.String())
}

func writeUnsigned(enc *bin.Encoder, kind string, v uint64) error {
	switch kind {
	case "u8":
		if v > math.MaxUint8 {
			return fmt.Errorf("value %v overflows u8", v)
		}
		return enc.WriteUint8(uint8(v))
	case "u16":
		if v > math.MaxUint16 {
			return fmt.Errorf("value %v overflows u16", v)
		}
		return enc.WriteUint16(uint16(v), bin.LE)
	case "u32":
		if v > math.MaxUint32 {
			return fmt.Errorf("value %v overflows u32", v)
		}
		return enc.WriteUint32(uint32(v), bin.LE)
	default:
		return enc.WriteUint64(v, bin.LE)
	}
}

func isNil(value interface{}) bool {
	if value == nil {
		return true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Slice, reflect.Map, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

func toUint64(value interface{}) (uint64, error) {
	switch v := value.(type) {
	case uint8:
		return uint64(v), nil
	case uint16:
		return uint64(v), nil
	case uint32:
		return uint64(v), nil
	case uint64:
		return v, nil
	case uint:
		return uint64(v), nil
	case int, int8, int16, int32, int64:
		i := reflect.ValueOf(v).Int()
		if i < 0 {
			return 0, fmt.Errorf("negative value %v for unsigned argument", i)
		}
		return uint64(i), nil
	}
	return 0, fmt.Errorf("expected unsigned integer, got %T", value)
}

func toInt64(value interface{}) (int64, error) {
	switch v := value.(type) {
	case int, int8, int16, int32, int64:
		return reflect.ValueOf(v).Int(), nil
	case uint8, uint16, uint32:
		return int64(reflect.ValueOf(v).Uint()), nil
	}
	return 0, fmt.Errorf("expected signed integer, got %T", value)
}

func toUint256(value interface{}) (*uint256.Int, error) {
	switch v := value.(type) {
	case *uint256.Int:
		if v == nil {
			return nil, fmt.Errorf("nil u128 value")
		}
		return v, nil
	case uint256.Int:
		return &v, nil
	}

	u, err := toUint64(value)
	if err != nil {
		return nil, fmt.Errorf("expected *uint256.Int or unsigned integer, got %T", value)
	}
	return uint256.NewInt(u), nil
}

// U128Limbs splits a value into its low and high 64 bit halves, failing if it does not fit 128 bits.
func U128Limbs(v *uint256.Int) (lo uint64, hi uint64, err error) {
	if v[2] != 0 || v[3] != 0 {
		return 0, 0, fmt.Errorf("value %v overflows u128", v.Dec())
	}
	return v[0], v[1], nil
}

// U128FromLimbs is the inverse of U128Limbs.
func U128FromLimbs(lo uint64, hi uint64) *uint256.Int {
	v := new(uint256.Int)
	v[0] = lo
	v[1] = hi
	return v
}
