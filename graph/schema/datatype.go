/*
 * EliasDB
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package schema

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

/*
DataType is the data type of property values.
*/
type DataType int

/*
Known data types. Values are normalised to string, int64, float64 and bool.
*/
const (
	TypeAny DataType = iota
	TypeString
	TypeInt
	TypeFloat
	TypeBool
	TypeVertex // Vertex ids (system keys only)
)

/*
String returns a string representation of a data type.
*/
func (dt DataType) String() string {
	return [...]string{"any", "string", "int", "float", "bool", "vertex"}[dt]
}

/*
IsOrdered returns if values of this data type can be used in range constraints.
*/
func (dt DataType) IsOrdered() bool {
	return dt == TypeString || dt == TypeInt || dt == TypeFloat || dt == TypeVertex
}

/*
ParseDataType parses a data type string.
*/
func ParseDataType(s string) (DataType, error) {
	for dt := TypeAny; dt <= TypeVertex; dt++ {
		if strings.EqualFold(dt.String(), s) {
			return dt, nil
		}
	}
	if s == "" {
		return TypeAny, nil
	}
	return TypeAny, fmt.Errorf("Unknown data type: %v", s)
}

/*
Convert normalises a value into the representation of this data type.
Returns an error if the value is not compatible.
*/
func (dt DataType) Convert(v interface{}) (interface{}, error) {
	var ok bool
	var res interface{}

	switch dt {
	case TypeString:
		res, ok = v.(string)

	case TypeInt, TypeVertex:
		var i int64
		if i, ok = toInt64(v); ok {
			res = i
			if dt == TypeVertex {
				res = uint64(i)
				ok = i > 0
			}
		}

	case TypeFloat:
		var f float64
		if f, ok = toFloat64(v); ok {
			res = f
		}

	case TypeBool:
		res, ok = v.(bool)

	case TypeAny:
		switch tv := v.(type) {
		case string, bool:
			res, ok = tv, true
		case float32, float64:
			res, ok = toFloat64(tv)
		default:
			res, ok = toInt64(tv)
		}
	}

	if !ok {
		return nil, fmt.Errorf("Value %v (%T) is not compatible with data type %v", v, v, dt)
	}

	return res, nil
}

/*
Parse parses a string into a value of this data type.
*/
func (dt DataType) Parse(s string) (interface{}, error) {
	switch dt {
	case TypeString:
		return s, nil
	case TypeInt, TypeVertex:
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, err
		}
		return dt.Convert(i)
	case TypeFloat:
		return strconv.ParseFloat(s, 64)
	case TypeBool:
		return strconv.ParseBool(s)
	}

	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, nil
	} else if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f, nil
	} else if b, err := strconv.ParseBool(s); err == nil {
		return b, nil
	}

	return s, nil
}

/*
CompareValues compares two normalised values. Returns false as second result
if the values have no natural order relative to each other.
*/
func CompareValues(v1, v2 interface{}) (int, bool) {
	switch t1 := v1.(type) {
	case string:
		if t2, ok := v2.(string); ok {
			return strings.Compare(t1, t2), true
		}
	case int64:
		if t2, ok := v2.(int64); ok {
			return compareOrdered(t1, t2), true
		}
	case uint64:
		if t2, ok := v2.(uint64); ok {
			return compareOrdered(t1, t2), true
		}
	case float64:
		if t2, ok := v2.(float64); ok {
			return compareOrdered(t1, t2), true
		}
	case bool:
		if t2, ok := v2.(bool); ok {
			if t1 == t2 {
				return 0, true
			} else if !t1 {
				return -1, true
			}
			return 1, true
		}
	}

	return 0, false
}

func compareOrdered[T int64 | uint64 | float64](a, b T) int {
	if a < b {
		return -1
	} else if a > b {
		return 1
	}
	return 0
}

func toInt64(v interface{}) (int64, bool) {
	switch tv := v.(type) {
	case int:
		return int64(tv), true
	case int8:
		return int64(tv), true
	case int16:
		return int64(tv), true
	case int32:
		return int64(tv), true
	case int64:
		return tv, true
	case uint8:
		return int64(tv), true
	case uint16:
		return int64(tv), true
	case uint32:
		return int64(tv), true
	case uint:
		return int64(tv), tv <= math.MaxInt64
	case uint64:
		return int64(tv), tv <= math.MaxInt64
	case float64:
		return int64(tv), tv == math.Trunc(tv) && math.Abs(tv) < 1<<63
	case float32:
		return int64(tv), float64(tv) == math.Trunc(float64(tv))
	}
	return 0, false
}

func toFloat64(v interface{}) (float64, bool) {
	switch tv := v.(type) {
	case float64:
		return tv, true
	case float32:
		return float64(tv), true
	}
	if i, ok := toInt64(v); ok {
		return float64(i), true
	}
	return 0, false
}
