package types

import (
	"bytes"
	"encoding/json"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// Optional holds a value that may be unknown. The zero value is unknown, so a
// field a provider never filled in stays unknown instead of becoming zero.
type Optional[T any] struct {
	value T
	known bool
}

// Float is an optional float64; used for every numeric market or financial field.
type Float = Optional[float64]

// String is an optional string.
type String = Optional[string]

func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, known: true}
}

func None[T any]() Optional[T] {
	return Optional[T]{}
}

// FromPtr converts a nil-able pointer into an Optional.
func FromPtr[T any](p *T) Optional[T] {
	if p == nil {
		return Optional[T]{}
	}
	return Some(*p)
}

func (o Optional[T]) Get() (T, bool) {
	return o.value, o.known
}

func (o Optional[T]) IsKnown() bool {
	return o.known
}

// OrElse returns the value, or d when unknown.
func (o Optional[T]) OrElse(d T) T {
	if !o.known {
		return d
	}
	return o.value
}

func (o Optional[T]) Ptr() *T {
	if !o.known {
		return nil
	}
	v := o.value
	return &v
}

func (o Optional[T]) String() string {
	if !o.known {
		return "unknown"
	}
	return fmt.Sprint(o.value)
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.known {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*o = Optional[T]{}
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}

func (o Optional[T]) MarshalBSONValue() (bsontype.Type, []byte, error) {
	if !o.known {
		return bsontype.Null, nil, nil
	}
	return bson.MarshalValue(o.value)
}

func (o *Optional[T]) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	if t == bsontype.Null || t == bsontype.Undefined {
		*o = Optional[T]{}
		return nil
	}
	var v T
	if err := (bson.RawValue{Type: t, Value: data}).Unmarshal(&v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}
