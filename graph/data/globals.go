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
Package data contains the relation object model of the graph.

Relations are the edges and vertex properties which are incident on a vertex.
An edge has two vertex positions (0 is the out vertex, 1 is the in vertex), a
property has one. Relations which are created in a transaction are standard
relations. They are mutable until the transaction is committed. Relations
which are loaded from the store are cached relations. They wrap the raw store
entry and decode it lazily. Cached relations are read-only snapshots: any
mutation creates a standard copy of the relation (copy-on-write) and removes
the cached one. Reads of a superseded cached relation are redirected to its
replacement.

The package also contains the vertex lists which are returned by vertex
queries.
*/
package data

import (
	"fmt"

	"devt.de/krotik/relgraph/graph/schema"
	"devt.de/krotik/relgraph/storage"
)

/*
Lifecycle is the lifecycle state of a relation.
*/
type Lifecycle int

/*
Known lifecycle states
*/
const (
	LifecycleNew           Lifecycle = iota // Created in the current transaction
	LifecycleLoaded                         // Loaded from the store
	LifecycleRemoved                        // Created and removed in the current transaction
	LifecycleLoadedRemoved                  // Loaded from the store and removed
)

/*
IsNew returns if the relation was created in the current transaction.
*/
func (l Lifecycle) IsNew() bool {
	return l == LifecycleNew
}

/*
IsLoaded returns if the relation is a loaded and unmodified relation.
*/
func (l Lifecycle) IsLoaded() bool {
	return l == LifecycleLoaded
}

/*
IsRemoved returns if the relation was removed.
*/
func (l Lifecycle) IsRemoved() bool {
	return l == LifecycleRemoved || l == LifecycleLoadedRemoved
}

/*
String returns a string representation of a lifecycle state.
*/
func (l Lifecycle) String() string {
	switch l {
	case LifecycleNew:
		return "New"
	case LifecycleLoaded:
		return "Loaded"
	case LifecycleRemoved:
		return "Removed"
	case LifecycleLoadedRemoved:
		return "LoadedRemoved"
	}
	return fmt.Sprintf("Lifecycle(%d)", int(l))
}

/*
Vertex is a vertex of the graph.
*/
type Vertex interface {

	/*
		ID returns the id of the vertex.
	*/
	ID() uint64

	/*
		IsNew returns if the vertex was created in the current transaction.
	*/
	IsNew() bool

	/*
		IsRemoved returns if the vertex was removed.
	*/
	IsRemoved() bool
}

/*
TxContext is the transaction which owns relations.
*/
type TxContext interface {

	/*
		IsSingleThreaded returns if the transaction is only used by a single
		goroutine.
	*/
	IsSingleThreaded() bool

	/*
		NextRelationID returns a new unique relation id.
	*/
	NextRelationID() uint64

	/*
		AddRelation registers a new relation.
	*/
	AddRelation(r Relation) error

	/*
		RemoveRelation removes a relation.
	*/
	RemoveRelation(r Relation) error

	/*
		IsRemovedRelation returns if a loaded relation was removed.
	*/
	IsRemovedRelation(id uint64) bool

	/*
		HasModifications returns if the transaction has uncommitted changes.
	*/
	HasModifications() bool

	/*
		DecodeEntry decodes a raw entry of a vertex row. If headerOnly is set
		the properties of the relation are not decoded.
	*/
	DecodeEntry(vertexID uint64, entry storage.Entry, headerOnly bool) (*RelationCache, error)

	/*
		Vertex returns a vertex by id.
	*/
	Vertex(id uint64) Vertex

	/*
		RelationType returns a relation type by id.
	*/
	RelationType(id uint64) schema.RelationType

	/*
		ReplacementOf returns the relation which replaced a removed relation
		of a vertex or nil.
	*/
	ReplacementOf(vertexID uint64, relationID uint64) Relation
}
