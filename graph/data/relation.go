/*
 * EliasDB
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package data

import (
	"fmt"
	"sync"

	"devt.de/krotik/common/sortutil"
	"devt.de/krotik/relgraph/graph/schema"
	"devt.de/krotik/relgraph/graph/util"
)

/*
Relation is an edge or a vertex property.
*/
type Relation interface {

	/*
		ID returns the id of this relation. An id is assigned on first access.
	*/
	ID() uint64

	/*
		HasID returns if an id was assigned to this relation.
	*/
	HasID() bool

	/*
		Type returns the type of this relation.
	*/
	Type() schema.RelationType

	/*
		Arity returns the number of vertex positions (2 for edges, 1 for properties).
	*/
	Arity() int

	/*
		VertexID returns the id of the vertex at a given position.
	*/
	VertexID(pos int) uint64

	/*
		Vertex returns the vertex at a given position.
	*/
	Vertex(pos int) Vertex

	/*
		Lifecycle returns the lifecycle state of this relation.
	*/
	Lifecycle() Lifecycle

	/*
		PreviousID returns the id of the relation which this relation replaced
		(0 if it did not replace a relation).
	*/
	PreviousID() uint64

	/*
		Property returns a direct property value of this relation.
	*/
	Property(keyID uint64) (interface{}, bool)

	/*
		PropertyIDs returns the ids of all direct properties in ascending order.
	*/
	PropertyIDs() []uint64

	/*
		SetProperty sets a direct property. Returns the relation which holds
		the change (a replacement if this relation is a read-only snapshot).
	*/
	SetProperty(key *schema.PropertyKey, value interface{}) (Relation, error)

	/*
		RemoveProperty removes a direct property. Returns the relation which
		holds the change.
	*/
	RemoveProperty(keyID uint64) (Relation, error)

	/*
		Remove removes this relation.
	*/
	Remove() error

	/*
		It returns the current version of this relation.
	*/
	It() Relation

	/*
		String returns a string representation of this relation.
	*/
	String() string
}

/*
Edge is a relation between two vertices.
*/
type Edge interface {
	Relation

	/*
		OtherVertexID returns the id of the vertex at the other end of the edge.
	*/
	OtherVertexID(vertexID uint64) uint64
}

/*
VertexProperty is a relation which attaches a value to a vertex.
*/
type VertexProperty interface {
	Relation

	/*
		Value returns the value of this property.
	*/
	Value() interface{}
}

/*
Category returns the category of a relation.
*/
func Category(r Relation) schema.RelationCategory {
	if r.Arity() == 2 {
		return schema.CategoryEdge
	}
	return schema.CategoryProperty
}

/*
DirectionOf returns the direction of a relation relative to a vertex. Loops
are reported as outgoing. Returns an error if the relation is not incident on
the vertex.
*/
func DirectionOf(r Relation, vertexID uint64) (schema.Direction, error) {
	for pos := 0; pos < r.Arity(); pos++ {
		if r.VertexID(pos) == vertexID {
			return schema.DirectionFromPosition(pos), nil
		}
	}

	return schema.Both, util.NewGraphError(util.ErrInvalidState,
		"Relation %v is not incident on vertex %v", r, vertexID)
}

/*
OtherValue returns the value which distinguishes relations of the same type
on a vertex: the adjacent vertex id for edges and the value for properties.
*/
func OtherValue(r Relation, vertexID uint64) interface{} {
	switch rr := r.(type) {
	case Edge:
		return rr.OtherVertexID(vertexID)
	case VertexProperty:
		return rr.Value()
	}
	return nil
}

/*
SameRelation returns if two relations are the same relation. Relations with
different ids are the same under a multiplicity constraint if they have the
same type and the same endpoints.
*/
func SameRelation(r1, r2 Relation) bool {
	if r1 == r2 {
		return true
	}

	t1, t2 := r1.Type().Base(), r2.Type().Base()

	if t1.ID() != t2.ID() || r1.Arity() != r2.Arity() {
		return false
	}

	if r1.HasID() && r2.HasID() && r1.ID() == r2.ID() {
		return true
	}

	if !t1.Multiplicity().IsConstrained() {
		return false
	}

	for pos := 0; pos < r1.Arity(); pos++ {
		if r1.VertexID(pos) != r2.VertexID(pos) {
			return false
		}
	}

	if p1, ok := r1.(VertexProperty); ok && t1.Multiplicity() == schema.Simple {
		c, comparable := schema.CompareValues(p1.Value(), r2.(VertexProperty).Value())
		return comparable && c == 0
	}

	return true
}

/*
RelationCache is the immutable decoded form of a stored relation entry.
*/
type RelationCache struct {
	direction  schema.Direction       // Direction relative to the row vertex
	typeID     uint64                 // Relation type id (base type of index entries)
	relationID uint64                 // Relation id
	other      interface{}            // Adjacent vertex id (edges) or value (properties)
	properties map[uint64]interface{} // Direct properties (nil if only the header was decoded)
}

/*
NewRelationCache creates a new RelationCache. The properties map must not be
modified after this call.
*/
func NewRelationCache(dir schema.Direction, typeID uint64, relationID uint64,
	other interface{}, properties map[uint64]interface{}) *RelationCache {
	return &RelationCache{dir, typeID, relationID, other, properties}
}

/*
Direction returns the direction of the relation relative to the row vertex.
*/
func (rc *RelationCache) Direction() schema.Direction {
	return rc.direction
}

/*
TypeID returns the relation type id.
*/
func (rc *RelationCache) TypeID() uint64 {
	return rc.typeID
}

/*
RelationID returns the relation id.
*/
func (rc *RelationCache) RelationID() uint64 {
	return rc.relationID
}

/*
Other returns the adjacent vertex id of an edge or the value of a property.
*/
func (rc *RelationCache) Other() interface{} {
	return rc.other
}

/*
HasProperties returns if the properties of the relation were decoded.
*/
func (rc *RelationCache) HasProperties() bool {
	return rc.properties != nil
}

/*
Property returns a property value.
*/
func (rc *RelationCache) Property(keyID uint64) (interface{}, bool) {
	v, ok := rc.properties[keyID]
	return v, ok
}

/*
PropertyIDs returns the ids of all properties in ascending order.
*/
func (rc *RelationCache) PropertyIDs() []uint64 {
	return sortedKeys(rc.properties)
}

/*
String returns a string representation of this cache.
*/
func (rc *RelationCache) String() string {
	return fmt.Sprintf("RelationCache %v type:%v id:%v other:%v properties:%v",
		rc.direction, rc.typeID, rc.relationID, rc.other, len(rc.properties))
}

/*
PropertyStorage holds the direct properties of a standard relation. It is
either empty or owns a mutable map which is allocated on the first write.
*/
type PropertyStorage struct {
	mutex *sync.Mutex            // Mutex to protect the map (nil if single threaded)
	owned map[uint64]interface{} // Owned map (nil means empty)
}

/*
NewPropertyStorage creates a new empty PropertyStorage.
*/
func NewPropertyStorage(singleThreaded bool) *PropertyStorage {
	ps := &PropertyStorage{}
	if !singleThreaded {
		ps.mutex = &sync.Mutex{}
	}
	return ps
}

func (ps *PropertyStorage) lock() {
	if ps.mutex != nil {
		ps.mutex.Lock()
	}
}

func (ps *PropertyStorage) unlock() {
	if ps.mutex != nil {
		ps.mutex.Unlock()
	}
}

/*
IsEmpty returns if no map was allocated yet.
*/
func (ps *PropertyStorage) IsEmpty() bool {
	ps.lock()
	defer ps.unlock()

	return ps.owned == nil
}

/*
Get returns a property value.
*/
func (ps *PropertyStorage) Get(keyID uint64) (interface{}, bool) {
	ps.lock()
	defer ps.unlock()

	v, ok := ps.owned[keyID]
	return v, ok
}

/*
Set sets a property value. The first write allocates the owned map.
*/
func (ps *PropertyStorage) Set(keyID uint64, value interface{}) {
	ps.lock()
	defer ps.unlock()

	if ps.owned == nil {
		ps.owned = make(map[uint64]interface{})
	}

	ps.owned[keyID] = value
}

/*
Remove removes a property value. Returns the removed value.
*/
func (ps *PropertyStorage) Remove(keyID uint64) (interface{}, bool) {
	ps.lock()
	defer ps.unlock()

	v, ok := ps.owned[keyID]
	delete(ps.owned, keyID)

	return v, ok
}

/*
Keys returns all property keys in ascending order.
*/
func (ps *PropertyStorage) Keys() []uint64 {
	ps.lock()
	defer ps.unlock()

	return sortedKeys(ps.owned)
}

func sortedKeys(m map[uint64]interface{}) []uint64 {
	res := make([]uint64, 0, len(m))
	for k := range m {
		res = append(res, k)
	}
	sortutil.UInt64s(res)
	return res
}
