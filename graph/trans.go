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
	"sync"

	"devt.de/krotik/common/datautil"
	"devt.de/krotik/common/errorutil"
	"devt.de/krotik/relgraph/graph/codec"
	"devt.de/krotik/relgraph/graph/data"
	"devt.de/krotik/relgraph/graph/schema"
	"devt.de/krotik/relgraph/graph/util"
	"devt.de/krotik/relgraph/storage"
	"github.com/google/uuid"
)

/*
storedRelation is a relation which was loaded from the store.
*/
type storedRelation interface {
	data.Relation

	/*
		Snapshot returns the stored state of the relation.
	*/
	Snapshot() data.Relation
}

/*
loadedMarker is a relation which can be marked as loaded after a commit.
*/
type loadedMarker interface {
	MarkLoaded()
}

/*
Trans is a transaction object which should be used to group graph operations.
A transaction implements the transaction context of its relations.
*/
type Trans struct {
	id             string                                // Unique transaction ID
	gm             *Manager                              // Graph manager which created this transaction
	singleThreaded bool                                  // Flag if only a single goroutine uses this transaction
	mutex          *sync.RWMutex                         // Mutex to protect the transaction state
	closed         bool                                  // Flag if the transaction was committed or rolled back
	vertices       map[uint64]*Vertex                    // Vertices which were used in this transaction
	newVertices    map[uint64]*Vertex                    // Vertices which were created
	removeVertices map[uint64]*Vertex                    // Stored vertices which were removed
	added          []data.Relation                       // Relations which were added
	addedByVertex  map[uint64][]data.Relation            // Added relations per incident vertex
	removed        map[uint64]data.Relation              // Stored relations which were removed
	replacements   map[uint64]map[uint64]data.Relation   // Replacements per vertex and previous relation id
	entries        *datautil.MapCache                    // Cache of decoded entries
}

/*
NewGraphTrans creates a new graph transaction.
*/
func NewGraphTrans(gm *Manager) *Trans {
	size := gm.EntryCacheSize
	if size == 0 {
		size = DefaultEntryCacheSize
	}

	return &Trans{
		id:             uuid.NewString(),
		gm:             gm,
		singleThreaded: gm.SingleThreadedTransactions,
		mutex:          &sync.RWMutex{},
		vertices:       make(map[uint64]*Vertex),
		newVertices:    make(map[uint64]*Vertex),
		removeVertices: make(map[uint64]*Vertex),
		addedByVertex:  make(map[uint64][]data.Relation),
		removed:        make(map[uint64]data.Relation),
		replacements:   make(map[uint64]map[uint64]data.Relation),
		entries:        datautil.NewMapCache(size, 0),
	}
}

/*
ID returns a unique transaction ID.
*/
func (gt *Trans) ID() string {
	return gt.id
}

/*
Manager returns the graph manager of this transaction.
*/
func (gt *Trans) Manager() *Manager {
	return gt.gm
}

/*
IsEmpty returns if this transaction is empty.
*/
func (gt *Trans) IsEmpty() bool {
	return !gt.HasModifications()
}

/*
Counts returns the transaction size in terms of objects. Returned values
are vertices to create, relations to add, vertices to remove and relations
to remove.
*/
func (gt *Trans) Counts() (int, int, int, int) {
	gt.mutex.RLock()
	defer gt.mutex.RUnlock()

	return len(gt.newVertices), len(gt.added), len(gt.removeVertices), len(gt.removed)
}

/*
String returns a string representation of this transaction.
*/
func (gt *Trans) String() string {
	nv, ar, rv, rr := gt.Counts()

	return fmt.Sprintf("Transaction %v - Vertices: I:%v R:%v - Relations: I:%v R:%v",
		gt.id, nv, rv, ar, rr)
}

/*
checkOpen returns an error if the transaction was closed.
*/
func (gt *Trans) checkOpen() error {
	gt.mutex.RLock()
	defer gt.mutex.RUnlock()

	if gt.closed {
		return util.NewGraphError(util.ErrTransactionClosed, "Transaction %v", gt.id)
	}

	return nil
}

// Transaction context
// ===================

/*
IsSingleThreaded returns if the transaction is only used by a single
goroutine.
*/
func (gt *Trans) IsSingleThreaded() bool {
	return gt.singleThreaded
}

/*
NextRelationID returns a new unique relation id.
*/
func (gt *Trans) NextRelationID() uint64 {
	return gt.gm.relationIDs.next()
}

/*
AddRelation registers a new relation.
*/
func (gt *Trans) AddRelation(r data.Relation) error {
	if err := gt.checkOpen(); err != nil {
		return err
	}

	gt.mutex.Lock()
	defer gt.mutex.Unlock()

	if r.Type().Base().Multiplicity().IsConstrained() {
		for _, ar := range gt.addedByVertex[r.VertexID(0)] {
			if data.SameRelation(ar, r) {
				return util.NewGraphError(util.ErrInvalidData,
					"A relation %v of vertex %v was already added", r.Type().Name(), r.VertexID(0))
			}
		}
	}

	gt.added = append(gt.added, r)

	for pos := 0; pos < r.Arity(); pos++ {
		vid := r.VertexID(pos)

		if pos == 1 && vid == r.VertexID(0) {
			continue
		}

		gt.addedByVertex[vid] = append(gt.addedByVertex[vid], r)

		if prev := r.PreviousID(); prev != 0 {
			reps, ok := gt.replacements[vid]
			if !ok {
				reps = make(map[uint64]data.Relation)
				gt.replacements[vid] = reps
			}
			reps[prev] = r
		}
	}

	return nil
}

/*
RemoveRelation removes a relation. Stored relations are deleted on commit,
added relations are dropped.
*/
func (gt *Trans) RemoveRelation(r data.Relation) error {
	if err := gt.checkOpen(); err != nil {
		return err
	}

	gt.mutex.Lock()
	defer gt.mutex.Unlock()

	if _, ok := r.(storedRelation); ok {
		gt.removed[r.ID()] = r
		return nil
	}

	gt.added = removeRelation(gt.added, r)

	for pos := 0; pos < r.Arity(); pos++ {
		vid := r.VertexID(pos)
		gt.addedByVertex[vid] = removeRelation(gt.addedByVertex[vid], r)
	}

	return nil
}

/*
removeRelation removes a relation from a list.
*/
func removeRelation(list []data.Relation, r data.Relation) []data.Relation {
	for i, lr := range list {
		if lr == r {
			return append(list[:i:i], list[i+1:]...)
		}
	}
	return list
}

/*
IsRemovedRelation returns if a stored relation was removed.
*/
func (gt *Trans) IsRemovedRelation(id uint64) bool {
	gt.mutex.RLock()
	defer gt.mutex.RUnlock()

	_, ok := gt.removed[id]

	return ok
}

/*
HasModifications returns if the transaction has uncommitted changes.
*/
func (gt *Trans) HasModifications() bool {
	gt.mutex.RLock()
	defer gt.mutex.RUnlock()

	return len(gt.newVertices) > 0 || len(gt.removeVertices) > 0 ||
		len(gt.added) > 0 || len(gt.removed) > 0
}

/*
DecodeEntry decodes a raw entry of a vertex row. Fully decoded entries are
cached for the lifetime of the transaction.
*/
func (gt *Trans) DecodeEntry(vertexID uint64, entry storage.Entry, headerOnly bool) (*data.RelationCache, error) {
	key := string(codec.VertexKey(vertexID)) + string(entry.Column)

	if rc, ok := gt.entries.Get(key); ok {
		return rc.(*data.RelationCache), nil
	}

	rc, err := gt.gm.es.ParseRelation(entry, headerOnly)
	if err != nil {
		return nil, util.WrapGraphError(util.ErrReading, err)
	}

	if !headerOnly {
		gt.entries.Put(key, rc)
	}

	return rc, nil
}

/*
Vertex returns a vertex by id. The existence of the vertex is not checked.
*/
func (gt *Trans) Vertex(id uint64) data.Vertex {
	return gt.vertex(id)
}

/*
vertex returns the vertex object of an id.
*/
func (gt *Trans) vertex(id uint64) *Vertex {
	gt.mutex.Lock()
	defer gt.mutex.Unlock()

	v, ok := gt.vertices[id]
	if !ok {
		v = &Vertex{gt, id, false, false}
		gt.vertices[id] = v
	}

	return v
}

/*
RelationType returns a relation type by id.
*/
func (gt *Trans) RelationType(id uint64) schema.RelationType {
	return gt.gm.sm.TypeByID(id)
}

/*
ReplacementOf returns the relation which replaced a removed relation of a
vertex or nil.
*/
func (gt *Trans) ReplacementOf(vertexID uint64, relationID uint64) data.Relation {
	gt.mutex.RLock()
	defer gt.mutex.RUnlock()

	return gt.replacements[vertexID][relationID]
}

/*
addedRelations returns the relations which were added to a vertex.
*/
func (gt *Trans) addedRelations(vertexID uint64) []data.Relation {
	gt.mutex.RLock()
	defer gt.mutex.RUnlock()

	return append([]data.Relation(nil), gt.addedByVertex[vertexID]...)
}

// Commit and rollback
// ===================

/*
Commit writes the transaction to the graph database. An automatic rollback is
done if any error occurs. Failed transactions cannot be committed again.
*/
func (gt *Trans) Commit(ctx context.Context) error {
	if err := gt.checkOpen(); err != nil {
		return err
	}

	rows, err := gt.commit(ctx)

	if err == nil && rows > 0 {
		if err = gt.gm.gr.graphEvent(ctx, gt, EventCommitted, rows); err == ErrEventHandled {
			err = nil
		}
	}

	return err
}

/*
commit writes all changes as a single batch of store mutations. Returns the
number of written rows.
*/
func (gt *Trans) commit(ctx context.Context) (int, error) {

	// Take writer lock of the graph

	gt.gm.mutex.Lock()
	defer gt.gm.mutex.Unlock()

	gt.mutex.Lock()
	defer gt.mutex.Unlock()

	// Return if there is nothing to do

	if len(gt.newVertices) == 0 && len(gt.removeVertices) == 0 &&
		len(gt.added) == 0 && len(gt.removed) == 0 {

		gt.closed = true

		return 0, nil
	}

	mutations := make(map[string]*storage.KeyMutation)
	errors := errorutil.NewCompositeError()

	var firstErr error

	addError := func(err error) {
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			errors.Add(err)
		}
	}

	// Write vertex existence

	for id := range gt.newVertices {
		m := rowMutation(mutations, codec.VertexKey(id))
		m.Additions = append(m.Additions, storage.Entry{Column: codec.ExistsColumn, Value: []byte{1}})
	}

	for id := range gt.removeVertices {
		m := rowMutation(mutations, codec.VertexKey(id))
		m.Deletions = append(m.Deletions, codec.ExistsColumn)
	}

	// Delete stored relations with their stored values

	for _, r := range gt.removed {
		addError(gt.gm.relationEntries(r.(storedRelation).Snapshot(), func(key []byte, e storage.Entry) {
			m := rowMutation(mutations, key)
			m.Deletions = append(m.Deletions, e.Column)
		}))
	}

	// Write added relations

	for _, r := range gt.added {
		addError(gt.gm.relationEntries(r, func(key []byte, e storage.Entry) {
			m := rowMutation(mutations, key)
			m.Additions = append(m.Additions, e)
		}))
	}

	gt.gm.counterMutation(mutations)

	version, err := gt.gm.schemaMutation(mutations)
	addError(err)

	if !errors.HasErrors() {
		if err = gt.gm.store.MutateMany(ctx, mutations); err != nil {
			addError(util.WrapGraphError(util.ErrWriting, err))
		}
	}

	if errors.HasErrors() {
		gt.rollback()

		// Return a single error directly so its type can be checked

		if len(errors.Errors) == 1 {
			return 0, firstErr
		}

		return 0, errors
	}

	gt.gm.schemaVersion = version

	for _, r := range gt.added {
		if lm, ok := r.(loadedMarker); ok {
			lm.MarkLoaded()
		}
	}

	for _, v := range gt.newVertices {
		v.isNew = false
	}

	LogDebug("Committed ", gt.id, ": ", len(mutations), " rows")

	gt.closed = true

	return len(mutations), nil
}

/*
Rollback discards all changes of this transaction.
*/
func (gt *Trans) Rollback() error {
	if err := gt.checkOpen(); err != nil {
		return err
	}

	gt.mutex.Lock()
	defer gt.mutex.Unlock()

	gt.rollback()

	return nil
}

/*
rollback discards all changes and closes the transaction. Expects the
transaction lock to be held.
*/
func (gt *Trans) rollback() {
	gt.newVertices = make(map[uint64]*Vertex)
	gt.removeVertices = make(map[uint64]*Vertex)
	gt.added = nil
	gt.addedByVertex = make(map[uint64][]data.Relation)
	gt.removed = make(map[uint64]data.Relation)
	gt.replacements = make(map[uint64]map[uint64]data.Relation)
	gt.closed = true
}
