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
	"devt.de/krotik/relgraph/graph/query"
	"devt.de/krotik/relgraph/graph/schema"
	"devt.de/krotik/relgraph/graph/util"
	"devt.de/krotik/relgraph/storage"
)

/*
MultiVertexCentricQueryBuilder builds and runs the same query on the
relations of several vertices. The query is compiled once and every slice of
the compiled query is read for all stored vertices with a single multi-key
read.
*/
type MultiVertexCentricQueryBuilder struct {
	queryConfig
	vertices []*Vertex // Queried vertices (without duplicates)
}

/*
MultiQuery returns a new query on several vertices.
*/
func (gt *Trans) MultiQuery(vertices ...*Vertex) *MultiVertexCentricQueryBuilder {
	mb := &MultiVertexCentricQueryBuilder{queryConfig: newQueryConfig(gt)}

	seen := make(map[uint64]bool)

	for _, v := range vertices {
		if v.tx != gt {
			mb.fail(util.NewGraphError(util.ErrInvalidQuery, "%v is not part of transaction %v", v, gt.id))
		} else if !seen[v.id] {
			seen[v.id] = true
			mb.vertices = append(mb.vertices, v)
		}
	}

	return mb
}

/*
Has restricts the query to relations with a given key value.
*/
func (mb *MultiVertexCentricQueryBuilder) Has(key string, value interface{}) *MultiVertexCentricQueryBuilder {
	mb.has(key, query.Equal, value)
	return mb
}

/*
HasNot restricts the query to relations which do not have a given key value.
*/
func (mb *MultiVertexCentricQueryBuilder) HasNot(key string, value interface{}) *MultiVertexCentricQueryBuilder {
	mb.has(key, query.NotEqual, value)
	return mb
}

/*
HasCmp restricts the query to relations whose key value compares to a given
value.
*/
func (mb *MultiVertexCentricQueryBuilder) HasCmp(key string, cmp query.Cmp, value interface{}) *MultiVertexCentricQueryBuilder {
	mb.has(key, cmp, value)
	return mb
}

/*
Interval restricts the query to relations whose key value is in [start, end).
*/
func (mb *MultiVertexCentricQueryBuilder) Interval(key string, start interface{}, end interface{}) *MultiVertexCentricQueryBuilder {
	mb.has(key, query.GreaterThanEqual, start)
	mb.has(key, query.LessThan, end)
	return mb
}

/*
Types restricts the query to relations of the given types.
*/
func (mb *MultiVertexCentricQueryBuilder) Types(names ...string) *MultiVertexCentricQueryBuilder {
	mb.types(names, schema.CategoryRelation)
	return mb
}

/*
Labels restricts the query to edges with the given labels.
*/
func (mb *MultiVertexCentricQueryBuilder) Labels(names ...string) *MultiVertexCentricQueryBuilder {
	mb.types(names, schema.CategoryEdge)
	return mb
}

/*
Keys restricts the query to properties with the given keys.
*/
func (mb *MultiVertexCentricQueryBuilder) Keys(names ...string) *MultiVertexCentricQueryBuilder {
	mb.types(names, schema.CategoryProperty)
	return mb
}

/*
Direction sets the direction of the query.
*/
func (mb *MultiVertexCentricQueryBuilder) Direction(dir schema.Direction) *MultiVertexCentricQueryBuilder {
	mb.direction(dir)
	return mb
}

/*
Adjacent restricts the query to edges which connect to a given vertex.
*/
func (mb *MultiVertexCentricQueryBuilder) Adjacent(v *Vertex) *MultiVertexCentricQueryBuilder {
	mb.hasKey(schema.KeyAdjacent, query.Equal, v.ID())
	return mb
}

/*
OrderBy sets the order of the results of each vertex.
*/
func (mb *MultiVertexCentricQueryBuilder) OrderBy(key string, order schema.Order) *MultiVertexCentricQueryBuilder {
	mb.orderBy(key, order)
	return mb
}

/*
Limit sets the max number of results per vertex.
*/
func (mb *MultiVertexCentricQueryBuilder) Limit(n int) *MultiVertexCentricQueryBuilder {
	mb.limit(n)
	return mb
}

/*
Err returns the first configuration error of this query.
*/
func (mb *MultiVertexCentricQueryBuilder) Err() error {
	return mb.err
}

/*
execute runs the query on all vertices.
*/
func (mb *MultiVertexCentricQueryBuilder) execute(ctx context.Context,
	category schema.RelationCategory) (map[uint64][]*query.Candidate, error) {

	q, processor, err := mb.compile(category)
	if err != nil {
		return nil, err
	}

	prefetched, err := mb.prefetch(ctx, q)
	if err != nil {
		return nil, err
	}

	res := make(map[uint64][]*query.Candidate, len(mb.vertices))

	for _, v := range mb.vertices {

		if v.IsRemoved() {
			return nil, util.NewGraphError(util.ErrInvalidState, "%v was removed", v)
		}

		if res[v.id], err = processor.Execute(ctx, q, newVertexExecutor(mb.tx, v, prefetched[v.id])); err != nil {
			return nil, err
		}
	}

	return res, nil
}

/*
prefetch reads every slice of a compiled query for all stored vertices.
Returns the slices per vertex id keyed by slice key.
*/
func (mb *MultiVertexCentricQueryBuilder) prefetch(ctx context.Context,
	q *query.BaseVertexCentricQuery) (map[uint64]map[string]storage.EntryList, error) {

	var keys [][]byte

	res := make(map[uint64]map[string]storage.EntryList)
	ids := make(map[string]uint64)

	if q.IsEmpty() {
		return res, nil
	}

	for _, v := range mb.vertices {
		if !v.IsNew() {
			key := codec.VertexKey(v.id)
			keys = append(keys, key)
			ids[string(key)] = v.id
			res[v.id] = make(map[string]storage.EntryList)
		}
	}

	if len(keys) == 0 {
		return res, nil
	}

	// Take reader lock of the graph

	mb.tx.gm.mutex.RLock()
	defer mb.tx.gm.mutex.RUnlock()

	for _, h := range q.Holders() {

		rows, err := mb.tx.gm.store.GetMultiSlice(ctx, keys, h.Query)
		if err != nil {
			return nil, util.WrapGraphError(util.ErrStorage, err)
		}

		for key, entries := range rows {
			if id, ok := ids[key]; ok {
				res[id][h.Query.Key()] = entries
			}
		}

		// Rows without entries are not part of the result

		for _, id := range ids {
			if _, ok := res[id][h.Query.Key()]; !ok {
				res[id][h.Query.Key()] = storage.EntryList{}
			}
		}
	}

	LogDebug("Prefetched ", len(q.Holders()), " slices for ", len(keys), " vertices")

	return res, nil
}

// Terminal operations
// ===================

/*
Edges returns the matching edges per vertex id.
*/
func (mb *MultiVertexCentricQueryBuilder) Edges(ctx context.Context) (map[uint64][]data.Edge, error) {
	res, err := mb.execute(ctx, schema.CategoryEdge)
	if err != nil {
		return nil, err
	}

	ret := make(map[uint64][]data.Edge, len(res))
	for id, cands := range res {
		ret[id] = toEdges(cands)
	}

	return ret, nil
}

/*
Properties returns the matching properties per vertex id.
*/
func (mb *MultiVertexCentricQueryBuilder) Properties(ctx context.Context) (map[uint64][]data.VertexProperty, error) {
	res, err := mb.execute(ctx, schema.CategoryProperty)
	if err != nil {
		return nil, err
	}

	ret := make(map[uint64][]data.VertexProperty, len(res))
	for id, cands := range res {
		ret[id] = toProperties(cands)
	}

	return ret, nil
}

/*
Relations returns the matching edges and properties per vertex id.
*/
func (mb *MultiVertexCentricQueryBuilder) Relations(ctx context.Context) (map[uint64][]data.Relation, error) {
	res, err := mb.execute(ctx, schema.CategoryRelation)
	if err != nil {
		return nil, err
	}

	ret := make(map[uint64][]data.Relation, len(res))
	for id, cands := range res {
		ret[id] = toRelations(cands)
	}

	return ret, nil
}

/*
Vertices returns the adjacent vertices of the matching edges per vertex id.
*/
func (mb *MultiVertexCentricQueryBuilder) Vertices(ctx context.Context) (map[uint64]data.VertexList, error) {
	res, err := mb.execute(ctx, schema.CategoryEdge)
	if err != nil {
		return nil, err
	}

	ret := make(map[uint64]data.VertexList, len(res))
	for _, v := range mb.vertices {
		ret[v.id] = adjacentVertices(mb.tx, v, res[v.id])
	}

	return ret, nil
}

/*
Neighbors returns the adjacent vertices of the matching edges of all queried
vertices in id order. A vertex is contained once for every matching edge.
*/
func (mb *MultiVertexCentricQueryBuilder) Neighbors(ctx context.Context) (data.VertexList, error) {
	lists, err := mb.Vertices(ctx)
	if err != nil {
		return nil, err
	}

	var res data.VertexList = data.NewVertexLongList(mb.tx)

	for _, vl := range lists {
		if _, ok := vl.(*data.VertexArrayList); ok {
			res = data.NewVertexArrayList()
			break
		}
	}

	for _, v := range mb.vertices {
		vl := lists[v.id]
		vl.Sort()
		res.AddAll(vl)
	}

	return res, nil
}

/*
Count returns the number of matching relations per vertex id.
*/
func (mb *MultiVertexCentricQueryBuilder) Count(ctx context.Context) (map[uint64]int, error) {
	res, err := mb.execute(ctx, schema.CategoryRelation)
	if err != nil {
		return nil, err
	}

	ret := make(map[uint64]int, len(res))
	for id, cands := range res {
		ret[id] = len(cands)
	}

	return ret, nil
}
