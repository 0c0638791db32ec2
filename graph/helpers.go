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
	"strconv"
	"sync"

	"devt.de/krotik/relgraph/graph/codec"
	"devt.de/krotik/relgraph/graph/data"
	"devt.de/krotik/relgraph/graph/schema"
	"devt.de/krotik/relgraph/graph/util"
	"devt.de/krotik/relgraph/storage"
)

// Helper functions for GraphManager
// =================================

/*
idCounter hands out ids. The counter value is written with every commit so
ids which were handed out but never committed can be reused.
*/
type idCounter struct {
	column []byte      // Column of the counter row
	mutex  *sync.Mutex // Mutex to protect the value
	value  uint64      // Last id which was handed out
}

/*
newIDCounter creates a new id counter from the stored counters.
*/
func newIDCounter(column []byte, counters storage.EntryList) *idCounter {
	c := &idCounter{column, &sync.Mutex{}, 0}

	for _, e := range counters {
		if string(e.Column) == string(column) {
			c.value = codec.DecodeID(e.Value)
		}
	}

	return c
}

/*
next returns a new id. Ids start at 1.
*/
func (c *idCounter) next() uint64 {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.value++

	return c.value
}

/*
current returns the last id which was handed out.
*/
func (c *idCounter) current() uint64 {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	return c.value
}

/*
entry returns the counter entry which should be written.
*/
func (c *idCounter) entry() storage.Entry {
	return storage.Entry{Column: c.column, Value: codec.EncodeID(c.current())}
}

/*
rowMutation returns the mutation of a row. A new mutation is created if
necessary.
*/
func rowMutation(mutations map[string]*storage.KeyMutation, key []byte) *storage.KeyMutation {
	m, ok := mutations[string(key)]
	if !ok {
		m = &storage.KeyMutation{}
		mutations[string(key)] = m
	}
	return m
}

/*
counterMutation adds the current id counters to a set of mutations.
*/
func (gm *Manager) counterMutation(mutations map[string]*storage.KeyMutation) {
	m := rowMutation(mutations, codec.CounterRow)
	m.Additions = append(m.Additions, gm.vertexIDs.entry(), gm.relationIDs.entry())
}

/*
schemaMutation adds the schema to a set of mutations if it has changed since
it was last written. Returns the version of the schema. Expects the write
lock to be held.
*/
func (gm *Manager) schemaMutation(mutations map[string]*storage.KeyMutation) (uint64, error) {
	version := gm.sm.Version()

	if version == gm.schemaVersion {
		return version, nil
	}

	defs, err := gm.sm.MarshalDefinitions()
	if err != nil {
		return 0, util.WrapGraphError(util.ErrWriting, err)
	}

	m := rowMutation(mutations, codec.SchemaRow)

	for k, v := range gm.sm.NameDB() {
		m.Additions = append(m.Additions, storage.Entry{Column: []byte(k), Value: []byte(v)})
	}

	m.Additions = append(m.Additions,
		storage.Entry{Column: codec.SchemaDefinitionColumn, Value: defs},
		storage.Entry{Column: versionColumn, Value: []byte(strconv.Itoa(VERSION))})

	return version, nil
}

/*
relationEntries calls a function for every entry of a relation. A relation
has one entry per incident vertex and stored variant of its type.
*/
func (gm *Manager) relationEntries(r data.Relation, f func(key []byte, e storage.Entry)) error {

	for pos := 0; pos < r.Arity(); pos++ {
		dir := schema.DirectionFromPosition(pos)
		key := codec.VertexKey(r.VertexID(pos))

		for _, variant := range r.Type().Indexes() {

			if !variant.IndexDirection().Contains(dir) {
				continue
			}

			e, err := gm.es.WriteRelation(r, variant, pos)
			if err != nil {
				return util.NewGraphError(util.ErrInvalidData, "Cannot write %v: %v", r, err)
			}

			f(key, e)
		}
	}

	return nil
}

/*
existsQuery is the slice query which reads the existence column of a vertex.
*/
var existsQuery = storage.SliceQuery{
	Start: codec.ExistsColumn,
	End:   append(append([]byte(nil), codec.ExistsColumn...), 0x00),
	Limit: 1,
}

/*
vertexExists checks if a vertex is stored.
*/
func (gm *Manager) vertexExists(ctx context.Context, id uint64) (bool, error) {
	res, err := gm.store.GetSlice(ctx, codec.VertexKey(id), existsQuery)
	if err != nil {
		return false, util.WrapGraphError(util.ErrReading, err)
	}

	return len(res) > 0, nil
}
