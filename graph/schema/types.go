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
)

/*
RelationType is the type of a relation.
*/
type RelationType interface {

	/*
		ID returns the unique id of this type.
	*/
	ID() uint64

	/*
		Name returns the unique name of this type.
	*/
	Name() string

	/*
		Category returns the category of relations of this type.
	*/
	Category() RelationCategory

	/*
		IsSystem returns if this is an implicit system type.
	*/
	IsSystem() bool

	/*
		IsHidden returns if relations of this type are hidden from queries.
	*/
	IsHidden() bool

	/*
		SortKey returns the ids of the property keys which order relations
		of this type.
	*/
	SortKey() []uint64

	/*
		SortOrder returns the order of the sort key.
	*/
	SortOrder() Order

	/*
		Multiplicity returns the multiplicity of this type.
	*/
	Multiplicity() Multiplicity

	/*
		Consistency returns the consistency modifier of this type.
	*/
	Consistency() ConsistencyModifier

	/*
		Base returns the base type of an index variant (the type itself for
		all other types).
	*/
	Base() RelationType

	/*
		Indexes returns all index variants of this type including the type
		itself as first variant.
	*/
	Indexes() []RelationType

	/*
		IndexDirection returns the directions in which entries of this type
		are stored.
	*/
	IndexDirection() Direction
}

/*
typeDef holds the common attributes of relation types.
*/
type typeDef struct {
	id           uint64
	name         string
	category     RelationCategory
	sortKey      []uint64
	sortOrder    Order
	multiplicity Multiplicity
	consistency  ConsistencyModifier
	indexes      []*RelationIndex
}

func (t *typeDef) ID() uint64 { return t.id }
func (t *typeDef) Name() string { return t.name }
func (t *typeDef) Category() RelationCategory { return t.category }
func (t *typeDef) IsSystem() bool { return false }
func (t *typeDef) IsHidden() bool { return false }
func (t *typeDef) SortOrder() Order { return t.sortOrder }
func (t *typeDef) Multiplicity() Multiplicity { return t.multiplicity }
func (t *typeDef) Consistency() ConsistencyModifier { return t.consistency }
func (t *typeDef) IndexDirection() Direction { return Both }

func (t *typeDef) SortKey() []uint64 {
	return append([]uint64(nil), t.sortKey...)
}

/*
PropertyKey is the type of vertex properties and of properties of relations.
*/
type PropertyKey struct {
	typeDef
	dataType    DataType
	cardinality Cardinality
}

/*
DataType returns the data type of values of this key.
*/
func (pk *PropertyKey) DataType() DataType {
	return pk.dataType
}

/*
Cardinality returns the cardinality of this key.
*/
func (pk *PropertyKey) Cardinality() Cardinality {
	return pk.cardinality
}

/*
Base returns the key itself.
*/
func (pk *PropertyKey) Base() RelationType {
	return pk
}

/*
Indexes returns the key and all its index variants.
*/
func (pk *PropertyKey) Indexes() []RelationType {
	return variants(pk, pk.indexes)
}

/*
String returns a string representation of this key.
*/
func (pk *PropertyKey) String() string {
	return fmt.Sprintf("PropertyKey %v (%v %v)", pk.name, pk.dataType, pk.cardinality)
}

/*
EdgeLabel is the type of edges.
*/
type EdgeLabel struct {
	typeDef
}

/*
Base returns the label itself.
*/
func (el *EdgeLabel) Base() RelationType {
	return el
}

/*
Indexes returns the label and all its index variants.
*/
func (el *EdgeLabel) Indexes() []RelationType {
	return variants(el, el.indexes)
}

/*
String returns a string representation of this label.
*/
func (el *EdgeLabel) String() string {
	return fmt.Sprintf("EdgeLabel %v (%v)", el.name, el.multiplicity)
}

/*
RelationIndex is an index variant of a relation type. It stores the relations
of its base type under a different sort key.
*/
type RelationIndex struct {
	typeDef
	base      RelationType
	direction Direction
}

/*
Base returns the indexed type.
*/
func (ri *RelationIndex) Base() RelationType {
	return ri.base
}

/*
Indexes returns nil. Index variants have no variants.
*/
func (ri *RelationIndex) Indexes() []RelationType {
	return nil
}

/*
IndexDirection returns the directions in which entries of this index are stored.
*/
func (ri *RelationIndex) IndexDirection() Direction {
	return ri.direction
}

/*
String returns a string representation of this index.
*/
func (ri *RelationIndex) String() string {
	return fmt.Sprintf("RelationIndex %v on %v (%v)", ri.name, ri.base.Name(), ri.direction)
}

func variants(base RelationType, indexes []*RelationIndex) []RelationType {
	res := make([]RelationType, 0, len(indexes)+1)
	res = append(res, base)
	for _, idx := range indexes {
		res = append(res, idx)
	}
	return res
}

/*
SystemKey is an implicit key with a reserved id.
*/
type SystemKey struct {
	typeDef
	dataType DataType
}

/*
System keys
*/
var (
	KeyID       = newSystemKey(1, "~id", TypeVertex)       // Relation id
	KeyAdjacent = newSystemKey(2, "~adjacent", TypeVertex) // Adjacent vertex of an edge
	KeyValue    = newSystemKey(3, "~value", TypeAny)       // Value of a property
	KeyType     = newSystemKey(4, "~type", TypeString)     // Name of the relation type
	LabelExists = newSystemKey(5, "~exists", TypeBool)     // Hidden existence marker of vertices
)

var systemKeys = []*SystemKey{KeyID, KeyAdjacent, KeyValue, KeyType, LabelExists}

func newSystemKey(id uint64, name string, dt DataType) *SystemKey {
	return &SystemKey{typeDef{id: id, name: name, category: CategoryProperty,
		multiplicity: Many2One}, dt}
}

/*
IsSystem returns true.
*/
func (sk *SystemKey) IsSystem() bool {
	return true
}

/*
IsHidden returns if the key is hidden from queries.
*/
func (sk *SystemKey) IsHidden() bool {
	return sk == LabelExists
}

/*
DataType returns the data type of values of this key.
*/
func (sk *SystemKey) DataType() DataType {
	return sk.dataType
}

/*
Base returns the key itself.
*/
func (sk *SystemKey) Base() RelationType {
	return sk
}

/*
Indexes returns the key itself.
*/
func (sk *SystemKey) Indexes() []RelationType {
	return []RelationType{sk}
}

/*
String returns a string representation of this key.
*/
func (sk *SystemKey) String() string {
	return fmt.Sprintf("SystemKey %v", sk.name)
}

/*
ValueType returns the data type of a key which can be used in constraints.
Returns false if the type does not carry values.
*/
func ValueType(rt RelationType) (DataType, bool) {
	switch t := rt.(type) {
	case *PropertyKey:
		return t.dataType, true
	case *SystemKey:
		return t.dataType, true
	}
	return TypeAny, false
}

/*
IsUnique returns if at most one relation of a type can exist in a direction.
*/
func IsUnique(rt RelationType, d Direction) bool {
	return rt.Multiplicity().IsUnique(d)
}

/*
IsSortedLike returns if a variant orders its relations the same way as its
base type.
*/
func IsSortedLike(variant RelationType) bool {
	base := variant.Base()

	if variant == base {
		return true
	}

	vk, bk := variant.SortKey(), base.SortKey()

	if len(vk) != len(bk) || (len(vk) > 0 && variant.SortOrder() != base.SortOrder()) {
		return false
	}

	for i := range vk {
		if vk[i] != bk[i] {
			return false
		}
	}

	return true
}
