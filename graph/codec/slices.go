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
	"devt.de/krotik/relgraph/graph/schema"
	"devt.de/krotik/relgraph/graph/util"
	"devt.de/krotik/relgraph/storage"
)

/*
KeyRange is a range constraint on a single sort key column. A range never
contains null values.
*/
type KeyRange struct {
	Start          interface{} // Start value (nil if unbounded)
	StartInclusive bool        // Flag if the start value is part of the range
	End            interface{} // End value (nil if unbounded)
	EndInclusive   bool        // Flag if the end value is part of the range
}

/*
SliceConstraints describes which part of a type variant should be read. Points
are values of the leading sort key columns. Range constrains the next column
and Other is the adjacent vertex id or property value. Other can only be used
if all sort key columns are covered by points.
*/
type SliceConstraints struct {
	Points []interface{}
	Range  *KeyRange
	Other  interface{}
}

/*
IsEmpty returns if there are no constraints.
*/
func (sc *SliceConstraints) IsEmpty() bool {
	return sc == nil || (len(sc.Points) == 0 && sc.Range == nil && sc.Other == nil)
}

/*
CategorySlice returns the slice which contains all relations of a category.
*/
func CategorySlice(cat schema.RelationCategory) storage.SliceQuery {
	switch cat {
	case schema.CategoryProperty:
		return storage.NewSliceQuery([]byte{CategoryProperty}, []byte{CategoryEdge})
	case schema.CategoryEdge:
		return storage.NewSliceQuery([]byte{CategoryEdge}, []byte{CategoryIndex})
	}
	return storage.NewSliceQuery([]byte{CategoryProperty}, []byte{CategoryIndex})
}

/*
TypeSlice returns the slice which contains all relations of a type variant in
a given direction.
*/
func TypeSlice(variant schema.RelationType, dir schema.Direction) storage.SliceQuery {
	prefix := ColumnPrefix(variant, dir)
	return storage.NewSliceQuery(prefix, storage.PrefixEnd(prefix))
}

/*
Slice returns the slice which contains all relations of a type variant in a
single direction matching the given constraints. Constraints are ignored if
the type is unique in the given direction.
*/
func (es *EdgeSerializer) Slice(variant schema.RelationType, dir schema.Direction,
	sc *SliceConstraints) (storage.SliceQuery, error) {

	var err error

	if sc.IsEmpty() || schema.IsUnique(variant, dir) {
		return TypeSlice(variant, dir), nil
	}

	if dir == schema.Both {
		return storage.SliceQuery{}, util.NewGraphError(util.ErrInvalidQuery,
			"Constraints on %v need a single direction", variant.Name())
	}

	sortKey := variant.SortKey()
	order := variant.SortOrder()

	if len(sc.Points) > len(sortKey) || (sc.Range != nil && len(sc.Points) >= len(sortKey)) ||
		(sc.Other != nil && (sc.Range != nil || len(sc.Points) != len(sortKey))) {

		return storage.SliceQuery{}, util.NewGraphError(util.ErrInvalidQuery,
			"Constraints do not match the sort key of %v", variant.Name())
	}

	prefix := ColumnPrefix(variant, dir)

	for i, p := range sc.Points {
		if prefix, err = AppendValue(prefix, es.dataType(sortKey[i]), p, order); err != nil {
			return storage.SliceQuery{}, err
		}
	}

	if sc.Range != nil {
		return es.rangeSlice(prefix, es.dataType(sortKey[len(sc.Points)]), order, sc.Range)
	}

	if sc.Other != nil {
		base := variant.Base()

		if base.Category() == schema.CategoryEdge {
			id, err := schema.TypeVertex.Convert(sc.Other)
			if err != nil {
				return storage.SliceQuery{}, util.WrapGraphError(util.ErrInvalidQuery, err)
			}
			prefix = append(prefix, EncodeID(id.(uint64))...)

		} else if prefix, err = AppendOrdered(prefix, es.dataType(base.ID()), sc.Other); err != nil {
			return storage.SliceQuery{}, err
		}
	}

	return storage.NewSliceQuery(prefix, storage.PrefixEnd(prefix)), nil
}

/*
rangeSlice builds the slice of a range on the column which follows a prefix.
The bounds of a descending column are swapped since its values are inverted.
*/
func (es *EdgeSerializer) rangeSlice(prefix []byte, dt schema.DataType, order schema.Order,
	kr *KeyRange) (storage.SliceQuery, error) {

	lo, loIncl, hi, hiIncl := kr.Start, kr.StartInclusive, kr.End, kr.EndInclusive

	if order == schema.Desc {
		lo, loIncl, hi, hiIncl = hi, hiIncl, lo, loIncl
	}

	// Unbounded sides exclude nulls

	marker := markerPresent
	if order == schema.Desc {
		marker = ^markerPresent
	}

	start := append(append([]byte(nil), prefix...), marker)
	end := storage.PrefixEnd(start)

	if lo != nil {
		b, err := AppendValue(append([]byte(nil), prefix...), dt, lo, order)
		if err != nil {
			return storage.SliceQuery{}, err
		}

		start = b
		if !loIncl {
			start = storage.PrefixEnd(b)
		}
	}

	if hi != nil {
		b, err := AppendValue(append([]byte(nil), prefix...), dt, hi, order)
		if err != nil {
			return storage.SliceQuery{}, err
		}

		end = b
		if hiIncl {
			end = storage.PrefixEnd(b)
		}
	}

	return storage.NewSliceQuery(start, end), nil
}
