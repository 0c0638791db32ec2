/*
 * EliasDB
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package query

import (
	"context"

	"devt.de/krotik/relgraph/graph/codec"
	"devt.de/krotik/relgraph/graph/data"
	"devt.de/krotik/relgraph/graph/schema"
	"devt.de/krotik/relgraph/storage"
	"github.com/stretchr/testify/require"
)

const testDefinitions = `
properties:
  - name: age
    datatype: int
  - name: name
    datatype: string
  - name: nick
    datatype: string
    cardinality: list
  - name: score
    datatype: float
    cardinality: list
edges:
  - name: knows
    sortkey: [age, name]
  - name: father
    multiplicity: many2one
  - name: friend
    multiplicity: simple
indexes:
  - name: knowsByName
    base: knows
    direction: in
    sortkey: [name]
    sortorder: desc
`

type testVertex struct {
	id uint64
}

func (v *testVertex) ID() uint64      { return v.id }
func (v *testVertex) IsNew() bool     { return false }
func (v *testVertex) IsRemoved() bool { return false }

/*
testTx is a minimal transaction which decodes entries with the serializer.
*/
type testTx struct {
	sm      *schema.Manager
	es      *codec.EdgeSerializer
	nextID  uint64
	removed map[uint64]bool
}

func (tx *testTx) IsSingleThreaded() bool             { return true }
func (tx *testTx) AddRelation(r data.Relation) error    { return nil }
func (tx *testTx) RemoveRelation(r data.Relation) error { return nil }
func (tx *testTx) IsRemovedRelation(id uint64) bool     { return tx.removed[id] }
func (tx *testTx) HasModifications() bool               { return len(tx.removed) > 0 }
func (tx *testTx) Vertex(id uint64) data.Vertex         { return &testVertex{id} }

func (tx *testTx) NextRelationID() uint64 {
	tx.nextID++
	return tx.nextID
}

func (tx *testTx) DecodeEntry(vertexID uint64, entry storage.Entry, headerOnly bool) (*data.RelationCache, error) {
	return tx.es.ParseRelation(entry, headerOnly)
}

func (tx *testTx) RelationType(id uint64) schema.RelationType {
	return tx.sm.TypeByID(id)
}

func (tx *testTx) ReplacementOf(vertexID uint64, relationID uint64) data.Relation {
	return nil
}

/*
fixture holds a schema, a store and a transaction for query tests.
*/
type fixture struct {
	sm    *schema.Manager
	es    *codec.EdgeSerializer
	tx    *testTx
	store *storage.MemoryStore
}

func newFixture(t require.TestingT) *fixture {
	sm := schema.NewManager(make(map[string]string))
	require.NoError(t, sm.LoadDefinitions([]byte(testDefinitions)))

	es := codec.NewEdgeSerializer(sm)

	return &fixture{sm, es, &testTx{sm, es, 0, make(map[uint64]bool)},
		storage.NewMemoryStore("test")}
}

/*
edge creates a new knows-like edge with optional age and name.
*/
func (f *fixture) edge(label string, out, in uint64, age interface{}, name string) *data.StandardEdge {
	e := data.NewStandardEdge(f.tx, f.sm.Type(label), &testVertex{out}, &testVertex{in})
	if age != nil {
		e.SetProperty(f.sm.PropertyKey("age"), age)
	}
	if name != "" {
		e.SetProperty(f.sm.PropertyKey("name"), name)
	}
	return e
}

/*
property creates a new vertex property.
*/
func (f *fixture) property(key string, vertex uint64, value interface{}) *data.StandardVertexProperty {
	return data.NewStandardVertexProperty(f.tx, f.sm.Type(key), &testVertex{vertex}, value)
}

/*
write stores relations in every variant and at every position.
*/
func (f *fixture) write(t require.TestingT, rels ...data.Relation) {
	mutations := make(map[string]*storage.KeyMutation)

	for _, r := range rels {
		for pos := 0; pos < r.Arity(); pos++ {
			dir := schema.DirectionFromPosition(pos)

			for _, variant := range r.Type().Indexes() {
				if !variant.IndexDirection().Contains(dir) {
					continue
				}

				entry, err := f.es.WriteRelation(r, variant, pos)
				require.NoError(t, err)

				key := string(codec.VertexKey(r.VertexID(pos)))

				m, ok := mutations[key]
				if !ok {
					m = &storage.KeyMutation{}
					mutations[key] = m
				}
				m.Additions = append(m.Additions, entry)
			}
		}
	}

	require.NoError(t, f.store.MutateMany(context.Background(), mutations))
}

func (f *fixture) context() *CompileContext {
	return &CompileContext{Serializer: f.es, HasModifications: f.tx.HasModifications(),
		Settings: DefaultSettings()}
}

func (f *fixture) executor(vertexID uint64, added ...data.Relation) *testExecutor {
	return &testExecutor{f, vertexID, false, added}
}

func (f *fixture) processor() *Processor {
	return NewProcessor(DefaultSettings(), f.sm)
}

func (f *fixture) predicate(key string, cmp Cmp, value interface{}) *PredicateCondition {
	return NewPredicateCondition(f.sm.Type(key), cmp, value)
}

/*
testExecutor executes queries on the row of a single vertex.
*/
type testExecutor struct {
	f        *fixture
	vertexID uint64
	isNew    bool
	added    []data.Relation
}

func (ex *testExecutor) VertexID() uint64 { return ex.vertexID }
func (ex *testExecutor) IsNew() bool      { return ex.isNew }

func (ex *testExecutor) HasModifications() bool {
	return len(ex.added) > 0 || ex.f.tx.HasModifications()
}

func (ex *testExecutor) Slice(ctx context.Context, q storage.SliceQuery) (storage.EntryList, error) {
	return ex.f.store.GetSlice(ctx, codec.VertexKey(ex.vertexID), q)
}

func (ex *testExecutor) Header(entry storage.Entry) (*data.RelationCache, error) {
	return ex.f.es.ParseRelation(entry, true)
}

func (ex *testExecutor) Relation(entry storage.Entry, header *data.RelationCache) data.Relation {
	if ex.f.sm.TypeByID(header.TypeID()).Category() == schema.CategoryEdge {
		return data.NewCacheEdge(ex.f.tx, ex.vertexID, entry, header)
	}
	return data.NewCacheVertexProperty(ex.f.tx, ex.vertexID, entry, header)
}

func (ex *testExecutor) IsRemovedRelation(id uint64) bool {
	return ex.f.tx.IsRemovedRelation(id)
}

func (ex *testExecutor) AddedRelations() []data.Relation {
	return ex.added
}

/*
others returns the adjacent vertex ids of edge results.
*/
func others(vertexID uint64, res []*Candidate) []uint64 {
	var ids []uint64
	for _, c := range res {
		ids = append(ids, c.Relation.(data.Edge).OtherVertexID(vertexID))
	}
	return ids
}

/*
ids returns the relation ids of results.
*/
func ids(res []*Candidate) []uint64 {
	var ids []uint64
	for _, c := range res {
		ids = append(ids, c.Relation.ID())
	}
	return ids
}
