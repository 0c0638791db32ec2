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
	"devt.de/krotik/relgraph/storage"
)

/*
cacheRelation holds the state of a relation which was loaded from the store.
*/
type cacheRelation struct {
	tx       TxContext           // Owning transaction
	rtype    schema.RelationType // Type of the relation (base type)
	vertexID uint64              // Vertex whose row holds the entry
	entry    storage.Entry       // Raw entry
	header   *RelationCache      // Decoded header of the entry
	once     *sync.Once          // Guard for decoding the full entry
	full     *RelationCache      // Decoded entry including properties
}

func newCacheRelation(tx TxContext, vertexID uint64, entry storage.Entry, header *RelationCache) cacheRelation {
	rtype := tx.RelationType(header.TypeID())

	errorutil.AssertTrue(rtype != nil, fmt.Sprint("Unknown relation type: ", header.TypeID()))

	cr := cacheRelation{tx: tx, rtype: rtype, vertexID: vertexID, entry: entry,
		header: header, once: &sync.Once{}}

	if header.HasProperties() {
		cr.full = header
		cr.once.Do(func() {})
	}

	return cr
}

/*
ID returns the id of this relation.
*/
func (r *cacheRelation) ID() uint64 {
	return r.header.RelationID()
}

/*
HasID returns true. Loaded relations always have an id.
*/
func (r *cacheRelation) HasID() bool {
	return true
}

/*
Type returns the type of this relation.
*/
func (r *cacheRelation) Type() schema.RelationType {
	return r.rtype
}

/*
PreviousID returns 0. Loaded relations did not replace a relation.
*/
func (r *cacheRelation) PreviousID() uint64 {
	return 0
}

/*
Lifecycle returns the lifecycle state of this relation.
*/
func (r *cacheRelation) Lifecycle() Lifecycle {
	if r.tx.IsRemovedRelation(r.ID()) {
		return LifecycleLoadedRemoved
	}
	return LifecycleLoaded
}

/*
Entry returns the raw entry of this relation.
*/
func (r *cacheRelation) Entry() storage.Entry {
	return r.entry
}

/*
RowVertexID returns the id of the vertex from whose row this relation was loaded.
*/
func (r *cacheRelation) RowVertexID() uint64 {
	return r.vertexID
}

/*
Direction returns the direction of this relation relative to the row vertex.
*/
func (r *cacheRelation) Direction() schema.Direction {
	return r.header.Direction()
}

/*
relationCache returns the fully decoded entry. The entry is decoded once.
*/
func (r *cacheRelation) relationCache() *RelationCache {
	r.once.Do(func() {
		rc, err := r.tx.DecodeEntry(r.vertexID, r.entry, false)
		errorutil.AssertOk(err)
		r.full = rc
	})

	return r.full
}

/*
current returns the replacement of this relation if it was superseded.
*/
func (r *cacheRelation) current() Relation {
	if !r.tx.IsRemovedRelation(r.ID()) {
		return nil
	}

	if rep := r.tx.ReplacementOf(r.vertexID, r.ID()); rep != nil {
		return rep.It()
	}

	return nil
}

/*
copyProperties copies all non-implicit properties into a new relation.
*/
func (r *cacheRelation) copyProperties(target *standardRelation) {
	rc := r.relationCache()

	for _, keyID := range rc.PropertyIDs() {
		if t := r.tx.RelationType(keyID); t != nil && t.IsSystem() {
			continue
		}

		v, _ := rc.Property(keyID)
		target.props.Set(keyID, v)
	}
}

/*
replacementID returns the id of a copy of this relation. The id is kept
unless the type forks on updates.
*/
func (r *cacheRelation) replacementID() uint64 {
	if r.rtype.Consistency() == schema.ConsistencyFork {
		return r.tx.NextRelationID()
	}
	return r.ID()
}

/*
replace removes this relation and registers its replacement.
*/
func (r *cacheRelation) replace(self Relation, replacement Relation) error {
	if err := r.tx.RemoveRelation(self); err != nil {
		return err
	}
	return r.tx.AddRelation(replacement)
}

func (r *cacheRelation) checkNotRemoved() error {
	if r.tx.IsRemovedRelation(r.ID()) {
		return util.NewGraphError(util.ErrInvalidState,
			"Relation %v of type %v was removed", r.ID(), r.rtype.Name())
	}
	return nil
}

/*
CacheEdge is an edge which was loaded from the store.
*/
type CacheEdge struct {
	cacheRelation
}

/*
NewCacheEdge creates a new edge from a raw entry and its decoded header.
*/
func NewCacheEdge(tx TxContext, vertexID uint64, entry storage.Entry, header *RelationCache) *CacheEdge {
	return &CacheEdge{newCacheRelation(tx, vertexID, entry, header)}
}

/*
Arity returns 2.
*/
func (e *CacheEdge) Arity() int {
	return 2
}

/*
VertexID returns the id of the vertex at a given position.
*/
func (e *CacheEdge) VertexID(pos int) uint64 {
	errorutil.AssertTrue(pos == 0 || pos == 1, fmt.Sprint("Invalid edge position: ", pos))

	if e.header.Direction().Position() == pos {
		return e.vertexID
	}
	return e.header.Other().(uint64)
}

/*
Vertex returns the vertex at a given position.
*/
func (e *CacheEdge) Vertex(pos int) Vertex {
	return e.tx.Vertex(e.VertexID(pos))
}

/*
OtherVertexID returns the id of the vertex at the other end of the edge.
*/
func (e *CacheEdge) OtherVertexID(vertexID uint64) uint64 {
	if vertexID == e.vertexID {
		return e.header.Other().(uint64)
	}
	return e.vertexID
}

/*
Property returns a direct property value. Reads are redirected to the
replacement of this edge if it was superseded.
*/
func (e *CacheEdge) Property(keyID uint64) (interface{}, bool) {
	if cur := e.current(); cur != nil {
		return cur.Property(keyID)
	}
	return e.relationCache().Property(keyID)
}

/*
PropertyIDs returns the ids of all direct properties.
*/
func (e *CacheEdge) PropertyIDs() []uint64 {
	if cur := e.current(); cur != nil {
		return cur.PropertyIDs()
	}
	return e.relationCache().PropertyIDs()
}

/*
SetProperty sets a direct property on a copy of this edge.
*/
func (e *CacheEdge) SetProperty(key *schema.PropertyKey, value interface{}) (Relation, error) {
	if cur := e.current(); cur != nil {
		return cur.SetProperty(key, value)
	}

	cp, err := e.copyOnWrite()
	if err != nil {
		return nil, err
	}

	return cp.SetProperty(key, value)
}

/*
RemoveProperty removes a direct property from a copy of this edge.
*/
func (e *CacheEdge) RemoveProperty(keyID uint64) (Relation, error) {
	if cur := e.current(); cur != nil {
		return cur.RemoveProperty(keyID)
	}

	cp, err := e.copyOnWrite()
	if err != nil {
		return nil, err
	}

	return cp.RemoveProperty(keyID)
}

/*
copyOnWrite creates a mutable copy of this edge which replaces it.
*/
func (e *CacheEdge) copyOnWrite() (*StandardEdge, error) {
	if err := e.checkNotRemoved(); err != nil {
		return nil, err
	}

	cp := &StandardEdge{newStandardRelation(e.tx, e.rtype, e.replacementID(), e.ID()),
		e.Vertex(0), e.Vertex(1)}

	e.copyProperties(&cp.standardRelation)

	return cp, e.replace(e, cp)
}

/*
Remove removes this edge.
*/
func (e *CacheEdge) Remove() error {
	if err := e.checkNotRemoved(); err != nil {
		return err
	}
	return e.tx.RemoveRelation(e)
}

/*
It returns the current version of this edge.
*/
func (e *CacheEdge) It() Relation {
	if cur := e.current(); cur != nil {
		return cur
	}
	return e
}

/*
String returns a string representation of this edge.
*/
func (e *CacheEdge) String() string {
	return fmt.Sprintf("CacheEdge %v(%v -> %v) id:%v", e.rtype.Name(), e.VertexID(0), e.VertexID(1), e.ID())
}

/*
CacheVertexProperty is a vertex property which was loaded from the store.
*/
type CacheVertexProperty struct {
	cacheRelation
}

/*
NewCacheVertexProperty creates a new property from a raw entry and its
decoded header.
*/
func NewCacheVertexProperty(tx TxContext, vertexID uint64, entry storage.Entry, header *RelationCache) *CacheVertexProperty {
	return &CacheVertexProperty{newCacheRelation(tx, vertexID, entry, header)}
}

/*
Arity returns 1.
*/
func (p *CacheVertexProperty) Arity() int {
	return 1
}

/*
VertexID returns the id of the owning vertex.
*/
func (p *CacheVertexProperty) VertexID(pos int) uint64 {
	errorutil.AssertTrue(pos == 0, fmt.Sprint("Invalid property position: ", pos))
	return p.vertexID
}

/*
Vertex returns the owning vertex.
*/
func (p *CacheVertexProperty) Vertex(pos int) Vertex {
	return p.tx.Vertex(p.VertexID(pos))
}

/*
Value returns the value of this property.
*/
func (p *CacheVertexProperty) Value() interface{} {
	return p.header.Other()
}

/*
Property returns a direct (meta) property value. Reads are redirected to the
replacement of this property if it was superseded.
*/
func (p *CacheVertexProperty) Property(keyID uint64) (interface{}, bool) {
	if cur := p.current(); cur != nil {
		return cur.Property(keyID)
	}
	return p.relationCache().Property(keyID)
}

/*
PropertyIDs returns the ids of all direct (meta) properties.
*/
func (p *CacheVertexProperty) PropertyIDs() []uint64 {
	if cur := p.current(); cur != nil {
		return cur.PropertyIDs()
	}
	return p.relationCache().PropertyIDs()
}

/*
SetProperty sets a direct (meta) property on a copy of this property.
*/
func (p *CacheVertexProperty) SetProperty(key *schema.PropertyKey, value interface{}) (Relation, error) {
	if cur := p.current(); cur != nil {
		return cur.SetProperty(key, value)
	}

	cp, err := p.copyOnWrite()
	if err != nil {
		return nil, err
	}

	return cp.SetProperty(key, value)
}

/*
RemoveProperty removes a direct (meta) property from a copy of this property.
*/
func (p *CacheVertexProperty) RemoveProperty(keyID uint64) (Relation, error) {
	if cur := p.current(); cur != nil {
		return cur.RemoveProperty(keyID)
	}

	cp, err := p.copyOnWrite()
	if err != nil {
		return nil, err
	}

	return cp.RemoveProperty(keyID)
}

/*
copyOnWrite creates a mutable copy of this property which replaces it.
*/
func (p *CacheVertexProperty) copyOnWrite() (*StandardVertexProperty, error) {
	if err := p.checkNotRemoved(); err != nil {
		return nil, err
	}

	cp := &StandardVertexProperty{newStandardRelation(p.tx, p.rtype, p.replacementID(), p.ID()),
		p.Vertex(0), p.Value()}

	p.copyProperties(&cp.standardRelation)

	return cp, p.replace(p, cp)
}

/*
Remove removes this property.
*/
func (p *CacheVertexProperty) Remove() error {
	if err := p.checkNotRemoved(); err != nil {
		return err
	}
	return p.tx.RemoveRelation(p)
}

/*
It returns the current version of this property.
*/
func (p *CacheVertexProperty) It() Relation {
	if cur := p.current(); cur != nil {
		return cur
	}
	return p
}

/*
String returns a string representation of this property.
*/
func (p *CacheVertexProperty) String() string {
	return fmt.Sprintf("CacheVertexProperty %v(%v) = %v id:%v", p.rtype.Name(), p.vertexID, p.Value(), p.ID())
}

// Snapshots
// =========

/*
Snapshot returns a read-only view of the stored state of this edge. Reads
of the view are not redirected to a replacement.
*/
func (e *CacheEdge) Snapshot() Relation {
	return &edgeSnapshot{e}
}

type edgeSnapshot struct {
	*CacheEdge
}

func (s *edgeSnapshot) Property(keyID uint64) (interface{}, bool) {
	return s.relationCache().Property(keyID)
}

func (s *edgeSnapshot) PropertyIDs() []uint64 {
	return s.relationCache().PropertyIDs()
}

/*
Snapshot returns a read-only view of the stored state of this property.
*/
func (p *CacheVertexProperty) Snapshot() Relation {
	return &propertySnapshot{p}
}

type propertySnapshot struct {
	*CacheVertexProperty
}

func (s *propertySnapshot) Property(keyID uint64) (interface{}, bool) {
	return s.relationCache().Property(keyID)
}

func (s *propertySnapshot) PropertyIDs() []uint64 {
	return s.relationCache().PropertyIDs()
}
