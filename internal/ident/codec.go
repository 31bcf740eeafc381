package ident

import (
	"encoding/json"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// IDs cross process boundaries as their canonical string form. The zero ID
// round-trips as the empty string so optional references stay optional.

// MarshalJSON implements json.Marshaler.
func (id ID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (id *ID) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return id.setFromString(raw)
}

// MarshalBSONValue implements bson.ValueMarshaler.
func (id ID) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(id.String())
}

// UnmarshalBSONValue implements bson.ValueUnmarshaler.
func (id *ID) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	var raw string
	if err := bson.UnmarshalValue(t, data, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return id.setFromString(raw)
}

func (id *ID) setFromString(raw string) error {
	if raw == "" {
		*id = ID{}
		return nil
	}
	parsed, err := ParseAny(raw)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
