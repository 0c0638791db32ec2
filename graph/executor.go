/*
 * EliasDB
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package graph

import (
	"context"

	"devt.de/krotik/relgraph/graph/codec"
	"devt.de/krotik/relgraph/graph/data"
	"devt.de/krotik/relgraph/graph/schema"
	"devt.de/krotik/relgraph/storage"
)

/*
vertexExecutor gives the query processor access to the row of a vertex.
Slices which were read for several vertices at once are served from the
prefetched map.
*/
type vertexExecutor struct {
	tx         *Trans                       // Owning transaction
	vertex     *Vertex                      // Queried vertex
	prefetched map[string]storage.EntryList // Prefetched slices by slice key
}

/*
newVertexExecutor creates a new executor for a vertex.
*/
func newVertexExecutor(tx *Trans, vertex *Vertex, prefetched map[string]storage.EntryList) *vertexExecutor {
	return &vertexExecutor{tx, vertex, prefetched}
}

func (ex *vertexExecutor) VertexID() uint64 {
	return ex.vertex.id
}

func (ex *vertexExecutor) IsNew() bool {
	return ex.vertex.IsNew()
}

func (ex *vertexExecutor) HasModifications() bool {
	return ex.tx.HasModifications()
}

/*
Slice reads a slice of the vertex row.
*/
func (ex *vertexExecutor) Slice(ctx context.Context, q storage.SliceQuery) (storage.EntryList, error) {
	if res, ok := ex.prefetched[q.Key()]; ok {
		return res, nil
	}

	// Take reader lock of the graph

	ex.tx.gm.mutex.RLock()
	defer ex.tx.gm.mutex.RUnlock()

	return ex.tx.gm.store.GetSlice(ctx, codec.VertexKey(ex.vertex.id), q)
}

func (ex *vertexExecutor) Header(entry storage.Entry) (*data.RelationCache, error) {
	return ex.tx.DecodeEntry(ex.vertex.id, entry, true)
}

/*
Relation returns the cached relation object of an entry.
*/
func (ex *vertexExecutor) Relation(entry storage.Entry, header *data.RelationCache) data.Relation {
	if t := ex.tx.RelationType(header.TypeID()); t != nil && t.Category() == schema.CategoryEdge {
		return data.NewCacheEdge(ex.tx, ex.vertex.id, entry, header)
	}

	return data.NewCacheVertexProperty(ex.tx, ex.vertex.id, entry, header)
}

func (ex *vertexExecutor) IsRemovedRelation(id uint64) bool {
	return ex.tx.IsRemovedRelation(id)
}

func (ex *vertexExecutor) AddedRelations() []data.Relation {
	return ex.tx.addedRelations(ex.vertex.id)
}
