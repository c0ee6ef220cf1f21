// Copyright 2025 Balance Lab, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package attribute provides a type-safe container of custom metadata,
// named Values, attached to resolved endpoints. A resolution engine can
// record where an endpoint came from, its record TTL, or anything else the
// consuming selection policy might act on, without the resolution core
// knowing the shape of that data.
//
// Attributes are declared with [NewKey], which creates a strongly-typed
// key, and read back with [GetValue]:
//
//	var Region = attribute.NewKey[string]()
//
//	endpoint := hostname.Endpoint{
//		Addr:       addr,
//		Attributes: attribute.NewValues(Region.Value("us-east1")),
//	}
//
//	region, ok := attribute.GetValue(endpoint.Attributes, Region)
package attribute

// Values is a collection of type-safe metadata values, mapping any number
// of keys to their values. The zero value is an empty collection.
type Values struct {
	data map[any]any
}

// NewValues creates a Values collection holding the provided values, which
// are built with [Key.Value].
func NewValues(values ...Value) Values {
	data := make(map[any]any, len(values))
	for _, value := range values {
		data[value.key] = value.value
	}
	return Values{data: data}
}

// Key is an attribute key whose values have type T. Keys are identified by
// their address: every call to [NewKey] yields a distinct key, even for the
// same T.
type Key[T any] struct {
	// can't be empty or else pointers won't be distinct
	_ bool
}

// NewKey returns a new, distinct key with values of type T.
func NewKey[T any]() *Key[T] {
	return new(Key[T])
}

// Value pairs the key with a value, for passing to [NewValues].
func (k *Key[T]) Value(value T) Value {
	return Value{key: k, value: value}
}

// Value is a single attribute: a key and its value.
type Value struct {
	key, value any
}

// GetValue retrieves the value for key from values. If the key is absent,
// the zero value of T and false are returned.
func GetValue[T any](values Values, key *Key[T]) (T, bool) {
	value, ok := values.data[key]
	if !ok {
		var zero T
		return zero, false
	}
	typed, ok := value.(T)
	return typed, ok
}
