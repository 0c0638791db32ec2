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
	"fmt"

	"devt.de/krotik/relgraph/graph/data"
	"devt.de/krotik/relgraph/graph/schema"
	"devt.de/krotik/relgraph/graph/util"
	"devt.de/krotik/relgraph/storage"
	"google.golang.org/protobuf/encoding/protowire"
)

/*
TypeResolver looks up relation types by id.
*/
type TypeResolver interface {

	/*
		TypeByID returns a relation type by id or nil if the type is unknown.
	*/
	TypeByID(id uint64) schema.RelationType
}

/*
EdgeSerializer writes and parses relation entries.
*/
type EdgeSerializer struct {
	types TypeResolver // Lookup for relation types
}

/*
NewEdgeSerializer creates a new EdgeSerializer.
*/
func NewEdgeSerializer(types TypeResolver) *EdgeSerializer {
	return &EdgeSerializer{types}
}

/*
ColumnPrefix returns the column prefix of all entries of a type variant in a
given direction. The prefix of both directions omits the direction byte.
*/
func ColumnPrefix(variant schema.RelationType, dir schema.Direction) []byte {
	res := make([]byte, 0, 24)

	res = append(res, CategoryByte(variant))
	res = append(res, EncodeID(variant.ID())...)

	if dir != schema.Both {
		res = append(res, DirectionByte(dir))
	}

	return res
}

/*
IsRelationColumn returns if a column holds a relation entry.
*/
func IsRelationColumn(column []byte) bool {
	return len(column) >= 10 && column[0] >= CategoryProperty && column[0] <= CategoryIndex
}

/*
WriteRelation builds the entry of a relation for one of its vertex positions
and one variant of its type. The entry belongs to the row of the vertex at
the given position.
*/
func (es *EdgeSerializer) WriteRelation(r data.Relation, variant schema.RelationType, pos int) (storage.Entry, error) {
	var err error

	dir := schema.DirectionFromPosition(pos)
	base := variant.Base()
	vertexID := r.VertexID(pos)

	column := ColumnPrefix(variant, dir)

	if !schema.IsUnique(variant, dir) {

		for _, keyID := range variant.SortKey() {
			v, _ := r.Property(keyID)

			if column, err = AppendValue(column, es.dataType(keyID), v, variant.SortOrder()); err != nil {
				return storage.Entry{}, err
			}
		}

		if base.Category() == schema.CategoryEdge {
			column = append(column, EncodeID(r.(data.Edge).OtherVertexID(vertexID))...)

		} else if column, err = AppendOrdered(column, es.dataType(base.ID()),
			r.(data.VertexProperty).Value()); err != nil {

			return storage.Entry{}, err
		}

		if !variant.Multiplicity().IsConstrained() {
			column = append(column, EncodeID(r.ID())...)
		}
	}

	value, err := es.writeValue(r, vertexID)

	return storage.Entry{Column: column, Value: value}, err
}

/*
writeValue builds the value section of an entry.
*/
func (es *EdgeSerializer) writeValue(r data.Relation, vertexID uint64) ([]byte, error) {
	var err error

	value := protowire.AppendTag(nil, fieldRelationID, protowire.VarintType)
	value = protowire.AppendVarint(value, r.ID())

	switch rr := r.(type) {
	case data.Edge:
		value = protowire.AppendTag(value, fieldOtherID, protowire.VarintType)
		value = protowire.AppendVarint(value, rr.OtherVertexID(vertexID))

	case data.VertexProperty:
		var tv []byte

		if tv, err = appendTyped(nil, rr.Value()); err != nil {
			return nil, err
		}

		value = protowire.AppendTag(value, fieldValue, protowire.BytesType)
		value = protowire.AppendBytes(value, tv)
	}

	for _, keyID := range r.PropertyIDs() {
		var tv []byte

		v, _ := r.Property(keyID)

		prop := protowire.AppendTag(nil, fieldPropertyKey, protowire.VarintType)
		prop = protowire.AppendVarint(prop, keyID)

		if tv, err = appendTyped(nil, v); err != nil {
			return nil, err
		}

		prop = protowire.AppendTag(prop, fieldPropertyValue, protowire.BytesType)
		prop = protowire.AppendBytes(prop, tv)

		value = protowire.AppendTag(value, fieldProperty, protowire.BytesType)
		value = protowire.AppendBytes(value, prop)
	}

	return value, nil
}

/*
ParseHeader decodes direction, type, relation id and other value of an entry.
*/
func (es *EdgeSerializer) ParseHeader(entry storage.Entry) (*data.RelationCache, error) {
	return es.ParseRelation(entry, true)
}

/*
ParseRelation decodes an entry. The direct properties of the relation are
only decoded if headerOnly is false. Entries of index variants decode to
their base type.
*/
func (es *EdgeSerializer) ParseRelation(entry storage.Entry, headerOnly bool) (*data.RelationCache, error) {
	var relationID uint64
	var other interface{}
	var props map[uint64]interface{}

	col := entry.Column

	if !IsRelationColumn(col) {
		return nil, util.NewGraphError(ErrCorruptEntry, "Not a relation column: %x", col)
	}

	typeID := DecodeID(col[1:9])

	dir := schema.Out
	if col[9] == DirIn {
		dir = schema.In
	}

	if col[0] == CategoryIndex {
		variant := es.types.TypeByID(typeID)
		if variant == nil {
			return nil, util.NewGraphError(util.ErrUnknownType, "Index type %v", typeID)
		}
		typeID = variant.Base().ID()
	}

	if !headerOnly {
		props = make(map[uint64]interface{})
	}

	b := entry.Value

	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, es.corrupt(col, protowire.ParseError(n))
		}
		b = b[n:]

		switch {
		case (num == fieldRelationID || num == fieldOtherID) && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, es.corrupt(col, protowire.ParseError(n))
			}
			b = b[n:]

			if num == fieldRelationID {
				relationID = v
			} else {
				other = v
			}

		case (num == fieldValue || num == fieldProperty) && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, es.corrupt(col, protowire.ParseError(n))
			}
			b = b[n:]

			if num == fieldValue {
				tv, err := consumeTyped(v)
				if err != nil {
					return nil, err
				}
				other = tv

			} else if !headerOnly {
				keyID, pv, err := es.parseProperty(v)
				if err != nil {
					return nil, es.corrupt(col, err)
				}
				props[keyID] = pv
			}

		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, es.corrupt(col, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}

	if other == nil {
		return nil, util.NewGraphError(ErrCorruptEntry, "Entry %x has no other value", col)
	}

	return data.NewRelationCache(dir, typeID, relationID, other, props), nil
}

func (es *EdgeSerializer) parseProperty(b []byte) (uint64, interface{}, error) {
	var keyID uint64
	var value interface{}

	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return 0, nil, protowire.ParseError(n)
		}
		b = b[n:]

		if num == fieldPropertyKey && typ == protowire.VarintType {
			if keyID, n = protowire.ConsumeVarint(b); n < 0 {
				return 0, nil, protowire.ParseError(n)
			}

		} else if num == fieldPropertyValue && typ == protowire.BytesType {
			var v []byte
			var err error

			if v, n = protowire.ConsumeBytes(b); n < 0 {
				return 0, nil, protowire.ParseError(n)
			}
			if value, err = consumeTyped(v); err != nil {
				return 0, nil, err
			}

		} else if n = protowire.ConsumeFieldValue(num, typ, b); n < 0 {
			return 0, nil, protowire.ParseError(n)
		}

		b = b[n:]
	}

	if keyID == 0 || value == nil {
		return 0, nil, fmt.Errorf("Incomplete property")
	}

	return keyID, value, nil
}

func (es *EdgeSerializer) corrupt(column []byte, err error) error {
	return &util.GraphError{Type: ErrCorruptEntry,
		Detail: fmt.Sprintf("Entry %x: %v", column, err), Cause: err}
}

/*
dataType returns the data type of a property key. Unknown keys are untyped.
*/
func (es *EdgeSerializer) dataType(keyID uint64) schema.DataType {
	if t := es.types.TypeByID(keyID); t != nil {
		if dt, ok := schema.ValueType(t); ok {
			return dt
		}
	}
	return schema.TypeAny
}
