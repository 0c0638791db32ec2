/*
 * EliasDB
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"devt.de/krotik/relgraph/graph/schema"
	"devt.de/krotik/relgraph/graph/util"
	"google.golang.org/protobuf/encoding/protowire"
)

/*
AppendValue appends the order preserving encoding of a sort key value to a
buffer. A nil value is encoded as null. Values of descending keys are
inverted so that the byte order of the result is reversed.
*/
func AppendValue(buf []byte, dt schema.DataType, v interface{}, order schema.Order) ([]byte, error) {
	var err error

	start := len(buf)

	if v == nil {
		buf = append(buf, markerNull)
	} else {
		buf = append(buf, markerPresent)
		if buf, err = AppendOrdered(buf, dt, v); err != nil {
			return nil, err
		}
	}

	if order == schema.Desc {
		invert(buf[start:])
	}

	return buf, nil
}

/*
AppendOrdered appends the order preserving encoding of a value without a null
marker. The encoding of each data type is prefix free.
*/
func AppendOrdered(buf []byte, dt schema.DataType, v interface{}) ([]byte, error) {
	cv, err := dt.Convert(v)
	if err != nil {
		return nil, util.WrapGraphError(ErrEncoding, err)
	}

	switch dt {
	case schema.TypeString:
		return appendString(buf, cv.(string)), nil

	case schema.TypeInt:
		return appendInt(buf, cv.(int64)), nil

	case schema.TypeFloat:
		return appendFloat(buf, cv.(float64)), nil

	case schema.TypeBool:
		return appendBool(buf, cv.(bool)), nil

	case schema.TypeVertex:
		return binary.BigEndian.AppendUint64(buf, cv.(uint64)), nil
	}

	// Untyped values are ordered by kind first

	switch tv := cv.(type) {
	case bool:
		return appendBool(append(buf, tagBool), tv), nil
	case int64:
		return appendInt(append(buf, tagInt), tv), nil
	case float64:
		return appendFloat(append(buf, tagFloat), tv), nil
	}

	return appendString(append(buf, tagString), cv.(string)), nil
}

/*
CompareValues compares two values of a data type in column order. Nil values
sort first.
*/
func CompareValues(dt schema.DataType, v1, v2 interface{}) int {
	if res, ok := schema.CompareValues(v1, v2); ok && dt != schema.TypeAny {
		return res
	}

	b1, err1 := AppendValue(nil, dt, v1, schema.Asc)
	b2, err2 := AppendValue(nil, dt, v2, schema.Asc)

	if err1 != nil || err2 != nil {
		return bytes.Compare([]byte(fmt.Sprint(v1)), []byte(fmt.Sprint(v2)))
	}

	return bytes.Compare(b1, b2)
}

func invert(b []byte) {
	for i := range b {
		b[i] = ^b[i]
	}
}

func appendString(buf []byte, s string) []byte {
	for i := 0; i < len(s); i++ {
		if s[i] == 0x00 {
			buf = append(buf, 0x00, 0xff)
		} else {
			buf = append(buf, s[i])
		}
	}
	return append(buf, 0x00, 0x01)
}

func appendInt(buf []byte, i int64) []byte {
	return binary.BigEndian.AppendUint64(buf, uint64(i)^(1<<63))
}

func appendFloat(buf []byte, f float64) []byte {
	bits := math.Float64bits(f)
	if bits&(1<<63) != 0 {
		bits = ^bits
	} else {
		bits |= 1 << 63
	}
	return binary.BigEndian.AppendUint64(buf, bits)
}

func appendBool(buf []byte, b bool) []byte {
	if b {
		return append(buf, 0x01)
	}
	return append(buf, 0x00)
}

/*
appendTyped appends a self describing value for the value section.
*/
func appendTyped(buf []byte, v interface{}) ([]byte, error) {
	switch tv := v.(type) {
	case bool:
		return appendBool(append(buf, tagBool), tv), nil
	case int64:
		return protowire.AppendVarint(append(buf, tagInt), protowire.EncodeZigZag(tv)), nil
	case float64:
		return protowire.AppendFixed64(append(buf, tagFloat), math.Float64bits(tv)), nil
	case string:
		return append(append(buf, tagString), tv...), nil
	case uint64:
		return protowire.AppendVarint(append(buf, tagVertex), tv), nil
	}

	// Values of other go types are normalised first

	cv, err := schema.TypeAny.Convert(v)
	if err != nil {
		return nil, util.WrapGraphError(ErrEncoding, err)
	}

	return appendTyped(buf, cv)
}

/*
consumeTyped decodes a self describing value of the value section.
*/
func consumeTyped(b []byte) (interface{}, error) {
	if len(b) == 0 {
		return nil, util.NewGraphError(ErrCorruptEntry, "Empty value")
	}

	tag, payload := b[0], b[1:]

	switch tag {
	case tagBool:
		if len(payload) == 1 {
			return payload[0] == 0x01, nil
		}

	case tagInt:
		if v, n := protowire.ConsumeVarint(payload); n == len(payload) {
			return protowire.DecodeZigZag(v), nil
		}

	case tagFloat:
		if v, n := protowire.ConsumeFixed64(payload); n == len(payload) {
			return math.Float64frombits(v), nil
		}

	case tagString:
		return string(payload), nil

	case tagVertex:
		if v, n := protowire.ConsumeVarint(payload); n == len(payload) {
			return v, nil
		}
	}

	return nil, util.NewGraphError(ErrCorruptEntry, "Invalid value with tag %v", tag)
}
