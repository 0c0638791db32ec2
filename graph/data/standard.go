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

	"devt.de/krotik/common/errorutil"
	"devt.de/krotik/relgraph/graph/schema"
	"devt.de/krotik/relgraph/graph/util"
)

/*
standardRelation holds the state of a mutable relation.
*/
type standardRelation struct {
	tx         TxContext           // Owning transaction
	rtype      schema.RelationType // Type of the relation
	mutex      *sync.Mutex         // Mutex to protect id and lifecycle
	id         uint64              // Relation id (0 if not yet assigned)
	lifecycle  Lifecycle           // Lifecycle state
	previousID uint64              // Id of the replaced relation
	props      *PropertyStorage    // Direct properties
}

func newStandardRelation(tx TxContext, rtype schema.RelationType, id uint64, previousID uint64) standardRelation {
	return standardRelation{tx, rtype, &sync.Mutex{}, id, LifecycleNew, previousID,
		NewPropertyStorage(tx.IsSingleThreaded())}
}

/*
ID returns the id of this relation. An id is assigned on first access.
*/
func (r *standardRelation) ID() uint64 {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.id == 0 {
		r.id = r.tx.NextRelationID()
	}

	return r.id
}

/*
HasID returns if an id was assigned to this relation.
*/
func (r *standardRelation) HasID() bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	return r.id != 0
}

/*
Type returns the type of this relation.
*/
func (r *standardRelation) Type() schema.RelationType {
	return r.rtype
}

/*
Lifecycle returns the lifecycle state of this relation.
*/
func (r *standardRelation) Lifecycle() Lifecycle {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	return r.lifecycle
}

/*
MarkLoaded marks a new relation as loaded. Called when the owning
transaction was committed.
*/
func (r *standardRelation) MarkLoaded() {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.lifecycle == LifecycleNew {
		r.lifecycle = LifecycleLoaded
	}
}

/*
PreviousID returns the id of the relation which this relation replaced.
*/
func (r *standardRelation) PreviousID() uint64 {
	return r.previousID
}

/*
Property returns a direct property value of this relation.
*/
func (r *standardRelation) Property(keyID uint64) (interface{}, bool) {
	return r.props.Get(keyID)
}

/*
PropertyIDs returns the ids of all direct properties in ascending order.
*/
func (r *standardRelation) PropertyIDs() []uint64 {
	return r.props.Keys()
}

func (r *standardRelation) checkMutable() error {
	if l := r.Lifecycle(); l != LifecycleNew {
		return util.NewGraphError(util.ErrInvalidState,
			"Cannot modify %v relation of type %v", l, r.rtype.Name())
	}
	return nil
}

func (r *standardRelation) setProperty(key *schema.PropertyKey, value interface{}) error {
	if err := r.checkMutable(); err != nil {
		return err
	}

	v, err := key.DataType().Convert(value)
	if err != nil {
		return util.NewGraphError(util.ErrInvalidData, "Property %v: %v", key.Name(), err)
	}

	r.props.Set(key.ID(), v)

	return nil
}

func (r *standardRelation) removeProperty(keyID uint64) error {
	if err := r.checkMutable(); err != nil {
		return err
	}

	r.props.Remove(keyID)

	return nil
}

func (r *standardRelation) remove(self Relation) error {
	r.mutex.Lock()

	if r.lifecycle != LifecycleNew {
		l := r.lifecycle
		r.mutex.Unlock()
		return util.NewGraphError(util.ErrInvalidState, "Cannot remove %v relation", l)
	}

	r.lifecycle = LifecycleRemoved
	r.mutex.Unlock()

	return r.tx.RemoveRelation(self)
}

/*
StandardEdge is a mutable edge.
*/
type StandardEdge struct {
	standardRelation
	out Vertex // Out vertex (position 0)
	in  Vertex // In vertex (position 1)
}

/*
NewStandardEdge creates a new edge. The edge still needs to be registered
with the transaction.
*/
func NewStandardEdge(tx TxContext, label schema.RelationType, out Vertex, in Vertex) *StandardEdge {
	return &StandardEdge{newStandardRelation(tx, label, 0, 0), out, in}
}

/*
Arity returns 2.
*/
func (e *StandardEdge) Arity() int {
	return 2
}

/*
VertexID returns the id of the vertex at a given position.
*/
func (e *StandardEdge) VertexID(pos int) uint64 {
	return e.Vertex(pos).ID()
}

/*
Vertex returns the vertex at a given position.
*/
func (e *StandardEdge) Vertex(pos int) Vertex {
	errorutil.AssertTrue(pos == 0 || pos == 1, fmt.Sprint("Invalid edge position: ", pos))

	if pos == 0 {
		return e.out
	}
	return e.in
}

/*
OtherVertexID returns the id of the vertex at the other end of the edge.
*/
func (e *StandardEdge) OtherVertexID(vertexID uint64) uint64 {
	if e.out.ID() == vertexID {
		return e.in.ID()
	}
	return e.out.ID()
}

/*
SetProperty sets a direct property.
*/
func (e *StandardEdge) SetProperty(key *schema.PropertyKey, value interface{}) (Relation, error) {
	return e, e.setProperty(key, value)
}

/*
RemoveProperty removes a direct property.
*/
func (e *StandardEdge) RemoveProperty(keyID uint64) (Relation, error) {
	return e, e.removeProperty(keyID)
}

/*
Remove removes this edge.
*/
func (e *StandardEdge) Remove() error {
	return e.remove(e)
}

/*
It returns the edge itself.
*/
func (e *StandardEdge) It() Relation {
	return e
}

/*
String returns a string representation of this edge.
*/
func (e *StandardEdge) String() string {
	return fmt.Sprintf("StandardEdge %v(%v -> %v)", e.rtype.Name(), e.out.ID(), e.in.ID())
}

/*
StandardVertexProperty is a mutable vertex property.
*/
type StandardVertexProperty struct {
	standardRelation
	vertex Vertex      // Owning vertex
	value  interface{} // Property value
}

/*
NewStandardVertexProperty creates a new vertex property. The value must be
normalised by the data type of the key. The property still needs to be
registered with the transaction.
*/
func NewStandardVertexProperty(tx TxContext, key schema.RelationType, vertex Vertex, value interface{}) *StandardVertexProperty {
	return &StandardVertexProperty{newStandardRelation(tx, key, 0, 0), vertex, value}
}

/*
Arity returns 1.
*/
func (p *StandardVertexProperty) Arity() int {
	return 1
}

/*
VertexID returns the id of the owning vertex.
*/
func (p *StandardVertexProperty) VertexID(pos int) uint64 {
	return p.Vertex(pos).ID()
}

/*
Vertex returns the owning vertex.
*/
func (p *StandardVertexProperty) Vertex(pos int) Vertex {
	errorutil.AssertTrue(pos == 0, fmt.Sprint("Invalid property position: ", pos))
	return p.vertex
}

/*
Value returns the value of this property.
*/
func (p *StandardVertexProperty) Value() interface{} {
	return p.value
}

/*
SetProperty sets a direct (meta) property.
*/
func (p *StandardVertexProperty) SetProperty(key *schema.PropertyKey, value interface{}) (Relation, error) {
	return p, p.setProperty(key, value)
}

/*
RemoveProperty removes a direct (meta) property.
*/
func (p *StandardVertexProperty) RemoveProperty(keyID uint64) (Relation, error) {
	return p, p.removeProperty(keyID)
}

/*
Remove removes this property.
*/
func (p *StandardVertexProperty) Remove() error {
	return p.remove(p)
}

/*
It returns the property itself.
*/
func (p *StandardVertexProperty) It() Relation {
	return p
}

/*
String returns a string representation of this property.
*/
func (p *StandardVertexProperty) String() string {
	return fmt.Sprintf("StandardVertexProperty %v(%v) = %v", p.rtype.Name(), p.vertex.ID(), p.value)
}
