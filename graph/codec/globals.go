/*
 * EliasDB
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

/*
Package codec contains the entry format of relations.

Every vertex is stored as a row of the key-column-value store. The row key is
the 8 byte big endian vertex id. Each relation which is incident on a vertex
is stored as one entry in the row of that vertex (and one entry per index
variant). Columns are ordered so that a slice of a row returns relations in
the same order as the relation comparator of the query package.

Column layout:

	[category 1][type id 8][direction 1][sort key values][other][relation id 8]

category is one of CategorySystem, CategoryProperty, CategoryEdge or
CategoryIndex. The sort key values are encoded with a null marker and an order
preserving encoding. Values of a descending sort key are inverted. The other
part is the adjacent vertex id of an edge or the value of a property. It is
omitted together with the sort key if the type is unique in the direction of
the entry. The relation id is omitted if the type is constrained.

The value of an entry is encoded in protobuf wire format:

	1: relation id (varint)
	2: adjacent vertex id (varint, edges only)
	3: property value (bytes, properties only)
	4: direct property (bytes, repeated - 1: key id, 2: value)

Values inside the value section carry a type tag so they can be decoded
without schema information.
*/
package codec

import (
	"encoding/binary"
	"errors"

	"devt.de/krotik/relgraph/graph/schema"
)

/*
Column categories
*/
const (
	CategorySystem   byte = 0x00 // System entries (vertex existence)
	CategoryProperty byte = 0x10 // Vertex properties
	CategoryEdge     byte = 0x20 // Edges
	CategoryIndex    byte = 0x30 // Index variants of properties and edges
)

/*
Direction bytes
*/
const (
	DirOut byte = 0x00
	DirIn  byte = 0x01
)

/*
Null markers of sort key values
*/
const (
	markerNull    byte = 0x00
	markerPresent byte = 0x01
)

/*
Value section field numbers
*/
const (
	fieldRelationID = 1
	fieldOtherID    = 2
	fieldValue      = 3
	fieldProperty   = 4

	fieldPropertyKey   = 1
	fieldPropertyValue = 2
)

/*
Value type tags of the value section and of untyped column values
*/
const (
	tagBool   byte = 0x01
	tagInt    byte = 0x02
	tagFloat  byte = 0x03
	tagString byte = 0x04
	tagVertex byte = 0x05
)

/*
CounterRow is the row which holds the id counters.
*/
var CounterRow = []byte("~counters")

/*
Counter columns
*/
var (
	CounterVertex   = []byte("vertex")
	CounterRelation = []byte("relation")
)

/*
SchemaRow is the row which holds the type names and definitions.
*/
var SchemaRow = []byte("~schema")

/*
SchemaDefinitionColumn is the column of the schema row which holds the type
definitions. All other columns of the schema row hold type names.
*/
var SchemaDefinitionColumn = []byte("~definitions")

/*
ExistsColumn is the system column which marks a vertex as existing.
*/
var ExistsColumn = append([]byte{CategorySystem}, EncodeID(schema.LabelExists.ID())...)

/*
Codec related errors
*/
var (
	ErrCorruptEntry = errors.New("Corrupt entry")
	ErrEncoding     = errors.New("Cannot encode value")
)

/*
VertexKey returns the row key of a vertex.
*/
func VertexKey(id uint64) []byte {
	return EncodeID(id)
}

/*
VertexID returns the vertex id of a row key. Returns 0 if the key is not a
vertex key.
*/
func VertexID(key []byte) uint64 {
	if len(key) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(key)
}

/*
EncodeID encodes an id as 8 byte big endian number.
*/
func EncodeID(id uint64) []byte {
	res := make([]byte, 8)
	binary.BigEndian.PutUint64(res, id)
	return res
}

/*
DecodeID decodes an 8 byte big endian number.
*/
func DecodeID(b []byte) uint64 {
	if len(b) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(b)
}

/*
CategoryByte returns the column category of a relation type.
*/
func CategoryByte(rt schema.RelationType) byte {
	if rt != rt.Base() {
		return CategoryIndex
	}
	if rt.Category() == schema.CategoryEdge {
		return CategoryEdge
	}
	return CategoryProperty
}

/*
DirectionByte returns the column byte of a direction.
*/
func DirectionByte(dir schema.Direction) byte {
	if dir == schema.In {
		return DirIn
	}
	return DirOut
}
