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
	"fmt"

	"devt.de/krotik/relgraph/graph/util"
)

/*
Vertex is a vertex of the graph which is bound to a transaction.
*/
type Vertex struct {
	tx      *Trans // Transaction which owns this vertex object
	id      uint64 // Id of the vertex
	isNew   bool   // Flag if the vertex was created in the transaction
	removed bool   // Flag if the vertex was removed in the transaction
}

/*
ID returns the id of the vertex.
*/
func (v *Vertex) ID() uint64 {
	return v.id
}

/*
IsNew returns if the vertex was created in the current transaction.
*/
func (v *Vertex) IsNew() bool {
	v.tx.mutex.RLock()
	defer v.tx.mutex.RUnlock()

	return v.isNew
}

/*
IsRemoved returns if the vertex was removed.
*/
func (v *Vertex) IsRemoved() bool {
	v.tx.mutex.RLock()
	defer v.tx.mutex.RUnlock()

	return v.removed
}

/*
Query returns a new vertex-centric query on this vertex.
*/
func (v *Vertex) Query() *VertexCentricQueryBuilder {
	return newVertexCentricQueryBuilder(v.tx, v)
}

/*
String returns a string representation of this vertex.
*/
func (v *Vertex) String() string {
	return fmt.Sprint("Vertex ", v.id)
}

/*
checkWritable returns an error if the vertex cannot be changed.
*/
func (v *Vertex) checkWritable() error {
	if err := v.tx.checkOpen(); err != nil {
		return err
	}

	if v.IsRemoved() {
		return util.NewGraphError(util.ErrInvalidState, "%v was removed", v)
	}

	return nil
}

/*
Remove removes this vertex and all its relations.
*/
func (v *Vertex) Remove(ctx context.Context) error {
	if err := v.checkWritable(); err != nil {
		return err
	}

	// The system rule removes all edges and properties

	if err := v.tx.gm.gr.graphEvent(ctx, v.tx, EventVertexRemoved, v); err != nil && err != ErrEventHandled {
		return err
	}

	v.tx.mutex.Lock()
	defer v.tx.mutex.Unlock()

	v.removed = true

	if v.isNew {
		delete(v.tx.newVertices, v.id)
	} else {
		v.tx.removeVertices[v.id] = v
	}

	return nil
}

// Vertex lookup
// =============

/*
AddVertex creates a new vertex.
*/
func (gt *Trans) AddVertex(ctx context.Context) (*Vertex, error) {
	if err := gt.checkOpen(); err != nil {
		return nil, err
	}

	v := &Vertex{gt, gt.gm.vertexIDs.next(), true, false}

	gt.mutex.Lock()
	gt.vertices[v.id] = v
	gt.newVertices[v.id] = v
	gt.mutex.Unlock()

	if err := gt.gm.gr.graphEvent(ctx, gt, EventVertexCreated, v); err != nil && err != ErrEventHandled {
		return v, err
	}

	return v, nil
}

/*
GetVertex looks up a vertex. Returns nil if the vertex does not exist or if
it was removed in this transaction.
*/
func (gt *Trans) GetVertex(ctx context.Context, id uint64) (*Vertex, error) {
	if err := gt.checkOpen(); err != nil {
		return nil, err
	}

	gt.mutex.RLock()
	v, ok := gt.vertices[id]
	gt.mutex.RUnlock()

	if ok {
		if v.IsRemoved() {
			return nil, nil
		} else if v.IsNew() {
			return v, nil
		}
	}

	// Take reader lock of the graph

	gt.gm.mutex.RLock()
	exists, err := gt.gm.vertexExists(ctx, id)
	gt.gm.mutex.RUnlock()

	if err != nil || !exists {
		return nil, err
	}

	return gt.vertex(id), nil
}
