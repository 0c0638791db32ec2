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

	"devt.de/krotik/relgraph/graph/data"
	"devt.de/krotik/relgraph/graph/query"
	"devt.de/krotik/relgraph/graph/schema"
	"devt.de/krotik/relgraph/graph/util"
)

/*
queryConfig holds the configuration of a vertex-centric query which is shared
by the single and the multi vertex query builders. The first configuration
error is latched and returned by all terminal operations.
*/
type queryConfig struct {
	tx    *Trans            // Owning transaction
	state *query.QueryState // Query state which is compiled by terminal operations
	err   error             // First configuration error
}

func newQueryConfig(tx *Trans) queryConfig {
	return queryConfig{tx: tx, state: query.NewQueryState()}
}

/*
fail latches a configuration error.
*/
func (qc *queryConfig) fail(err error) {
	if qc.err == nil {
		qc.err = err
	}
}

/*
resolve looks up a relation type by name. Returns nil if the type is unknown.
An unknown type is an error unless undefined query types are ignored.
*/
func (qc *queryConfig) resolve(name string) schema.RelationType {
	sm := qc.tx.gm.sm

	t := sm.Type(name)

	if t == nil && !sm.IgnoreUndefinedQueryTypes {
		qc.fail(util.NewGraphError(util.ErrUnknownType, "Relation type %v", name))
	}

	return t
}

/*
types restricts the query to relation types of a given category.
*/
func (qc *queryConfig) types(names []string, category schema.RelationCategory) {
	var resolved []schema.RelationType

	for _, name := range names {
		t := qc.resolve(name)

		if t == nil {
			continue
		} else if t.IsSystem() || !category.Includes(t.Category()) {
			qc.fail(util.NewGraphError(util.ErrInvalidQuery, "%v is not a %v type", name, category))
			continue
		}

		resolved = append(resolved, t)
	}

	qc.addTypes(len(names) > 0, resolved...)
}

/*
addTypes adds resolved types. The query cannot have results if types were
requested but none of them is known.
*/
func (qc *queryConfig) addTypes(requested bool, types ...schema.RelationType) {
	if requested && len(types) == 0 {
		qc.state.Unsatisfiable = true
	}

	qc.state.Types = append(qc.state.Types, types...)
}

/*
has adds a predicate on a key name.
*/
func (qc *queryConfig) has(name string, cmp query.Cmp, value interface{}) {
	key := qc.resolve(name)

	if key == nil {

		// Relations have no values for unknown keys. Only a test for absence
		// or for inequality to a value holds.

		if value == nil && cmp.IsRange() {
			qc.fail(util.NewGraphError(util.ErrInvalidQuery, "Cannot compare %v with nil", name))
		} else if (value == nil) == (cmp == query.NotEqual) {
			qc.state.Unsatisfiable = true
		}

		return
	}

	qc.hasKey(key, cmp, value)
}

/*
hasKey adds a predicate on a key. The value is converted to the data type of
the key. A nil value tests for the absence (Equal) or presence (NotEqual) of
a value.
*/
func (qc *queryConfig) hasKey(key schema.RelationType, cmp query.Cmp, value interface{}) {
	var cv interface{}

	dt, ok := schema.ValueType(key)
	if !ok {
		qc.fail(util.NewGraphError(util.ErrInvalidQuery, "%v cannot be used in a constraint", key.Name()))
		return
	}

	if value == nil {
		if cmp.IsRange() {
			qc.fail(util.NewGraphError(util.ErrInvalidQuery, "Cannot compare %v with nil", key.Name()))
			return
		}

	} else {
		var err error

		if cv, err = dt.Convert(value); err != nil {
			qc.fail(util.NewGraphError(util.ErrInvalidQuery, "Invalid value for %v: %v", key.Name(), err))
			return
		}
	}

	qc.state.Predicates = append(qc.state.Predicates, query.NewPredicateCondition(key, cmp, cv))
}

/*
orderBy adds an explicit result order.
*/
func (qc *queryConfig) orderBy(name string, order schema.Order) {
	if key := qc.resolve(name); key != nil {
		if err := qc.state.Orders.Add(key, order); err != nil {
			qc.fail(err)
		}
	}
}

/*
direction sets the direction of the query.
*/
func (qc *queryConfig) direction(dir schema.Direction) {
	qc.state.Direction = dir
}

/*
limit sets the max number of results.
*/
func (qc *queryConfig) limit(n int) {
	if n < 0 {
		qc.fail(util.NewGraphError(util.ErrInvalidQuery, "Invalid limit: %v", n))
		return
	}

	qc.state.Limit = n
}

/*
compile compiles the query for a result category.
*/
func (qc *queryConfig) compile(category schema.RelationCategory) (*query.BaseVertexCentricQuery, *query.Processor, error) {
	if qc.err != nil {
		return nil, nil, qc.err
	}

	if err := qc.tx.checkOpen(); err != nil {
		return nil, nil, err
	}

	settings, processor := qc.tx.gm.queryEngine()

	q, err := query.Compile(qc.state, category, &query.CompileContext{
		Serializer:       qc.tx.gm.es,
		HasModifications: qc.tx.HasModifications(),
		Settings:         settings,
	})

	return q, processor, err
}

// Single vertex queries
// =====================

/*
VertexCentricQueryBuilder builds and runs a query on the relations of a
single vertex.
*/
type VertexCentricQueryBuilder struct {
	queryConfig
	vertex *Vertex // Queried vertex
}

func newVertexCentricQueryBuilder(tx *Trans, v *Vertex) *VertexCentricQueryBuilder {
	return &VertexCentricQueryBuilder{newQueryConfig(tx), v}
}

/*
Has restricts the query to relations with a given key value.
*/
func (b *VertexCentricQueryBuilder) Has(key string, value interface{}) *VertexCentricQueryBuilder {
	b.queryConfig.has(key, query.Equal, value)
	return b
}

/*
HasNot restricts the query to relations which do not have a given key value.
*/
func (b *VertexCentricQueryBuilder) HasNot(key string, value interface{}) *VertexCentricQueryBuilder {
	b.queryConfig.has(key, query.NotEqual, value)
	return b
}

/*
HasCmp restricts the query to relations whose key value compares to a given
value.
*/
func (b *VertexCentricQueryBuilder) HasCmp(key string, cmp query.Cmp, value interface{}) *VertexCentricQueryBuilder {
	b.queryConfig.has(key, cmp, value)
	return b
}

/*
Interval restricts the query to relations whose key value is in [start, end).
*/
func (b *VertexCentricQueryBuilder) Interval(key string, start interface{}, end interface{}) *VertexCentricQueryBuilder {
	b.queryConfig.has(key, query.GreaterThanEqual, start)
	b.queryConfig.has(key, query.LessThan, end)
	return b
}

/*
Types restricts the query to relations of the given types.
*/
func (b *VertexCentricQueryBuilder) Types(names ...string) *VertexCentricQueryBuilder {
	b.queryConfig.types(names, schema.CategoryRelation)
	return b
}

/*
Labels restricts the query to edges with the given labels.
*/
func (b *VertexCentricQueryBuilder) Labels(names ...string) *VertexCentricQueryBuilder {
	b.queryConfig.types(names, schema.CategoryEdge)
	return b
}

/*
Keys restricts the query to properties with the given keys.
*/
func (b *VertexCentricQueryBuilder) Keys(names ...string) *VertexCentricQueryBuilder {
	b.queryConfig.types(names, schema.CategoryProperty)
	return b
}

/*
Direction sets the direction of the query.
*/
func (b *VertexCentricQueryBuilder) Direction(dir schema.Direction) *VertexCentricQueryBuilder {
	b.queryConfig.direction(dir)
	return b
}

/*
Adjacent restricts the query to edges which connect to a given vertex.
*/
func (b *VertexCentricQueryBuilder) Adjacent(v *Vertex) *VertexCentricQueryBuilder {
	b.queryConfig.hasKey(schema.KeyAdjacent, query.Equal, v.ID())
	return b
}

/*
OrderBy sets the order of the results. Only one single valued property key
can be used for ordering.
*/
func (b *VertexCentricQueryBuilder) OrderBy(key string, order schema.Order) *VertexCentricQueryBuilder {
	b.queryConfig.orderBy(key, order)
	return b
}

/*
Limit sets the max number of results.
*/
func (b *VertexCentricQueryBuilder) Limit(n int) *VertexCentricQueryBuilder {
	b.queryConfig.limit(n)
	return b
}

/*
Err returns the first configuration error of this query.
*/
func (b *VertexCentricQueryBuilder) Err() error {
	return b.err
}

func (b *VertexCentricQueryBuilder) labelType(el *schema.EdgeLabel) *VertexCentricQueryBuilder {
	b.queryConfig.addTypes(true, el)
	return b
}

func (b *VertexCentricQueryBuilder) keyType(pk *schema.PropertyKey) *VertexCentricQueryBuilder {
	b.queryConfig.addTypes(true, pk)
	return b
}

func (b *VertexCentricQueryBuilder) hasValue(key schema.RelationType, value interface{}) *VertexCentricQueryBuilder {
	b.queryConfig.hasKey(key, query.Equal, value)
	return b
}

/*
execute runs the query for a result category.
*/
func (b *VertexCentricQueryBuilder) execute(ctx context.Context, category schema.RelationCategory) ([]*query.Candidate, error) {
	q, processor, err := b.compile(category)
	if err != nil {
		return nil, err
	}

	if b.vertex.IsRemoved() {
		return nil, util.NewGraphError(util.ErrInvalidState, "%v was removed", b.vertex)
	}

	return processor.Execute(ctx, q, newVertexExecutor(b.tx, b.vertex, nil))
}

// Terminal operations
// ===================

/*
Edges returns the matching edges.
*/
func (b *VertexCentricQueryBuilder) Edges(ctx context.Context) ([]data.Edge, error) {
	res, err := b.execute(ctx, schema.CategoryEdge)
	return toEdges(res), err
}

/*
Properties returns the matching properties.
*/
func (b *VertexCentricQueryBuilder) Properties(ctx context.Context) ([]data.VertexProperty, error) {
	res, err := b.execute(ctx, schema.CategoryProperty)
	return toProperties(res), err
}

/*
Relations returns the matching edges and properties.
*/
func (b *VertexCentricQueryBuilder) Relations(ctx context.Context) ([]data.Relation, error) {
	res, err := b.execute(ctx, schema.CategoryRelation)
	return toRelations(res), err
}

/*
Vertices returns the adjacent vertices of the matching edges in result order.
The list holds vertex references if the queried vertex or one of the
adjacent vertices is new in the transaction, otherwise it holds vertex ids.
*/
func (b *VertexCentricQueryBuilder) Vertices(ctx context.Context) (data.VertexList, error) {
	res, err := b.execute(ctx, schema.CategoryEdge)
	if err != nil {
		return nil, err
	}

	return adjacentVertices(b.tx, b.vertex, res), nil
}

/*
VertexIDs returns the ids of the adjacent vertices of the matching edges.
*/
func (b *VertexCentricQueryBuilder) VertexIDs(ctx context.Context) ([]uint64, error) {
	res, err := b.execute(ctx, schema.CategoryEdge)
	return adjacentIDs(res, b.vertex.id), err
}

/*
Count returns the number of matching relations.
*/
func (b *VertexCentricQueryBuilder) Count(ctx context.Context) (int, error) {
	res, err := b.execute(ctx, schema.CategoryRelation)
	return len(res), err
}

/*
Explain returns a description of the compiled query for a result category.
*/
func (b *VertexCentricQueryBuilder) Explain(category schema.RelationCategory) (string, error) {
	q, _, err := b.compile(category)
	if err != nil {
		return "", err
	}

	return q.String(), nil
}

/*
String returns a description of the compiled query for all relations.
*/
func (b *VertexCentricQueryBuilder) String() string {
	res, err := b.Explain(schema.CategoryRelation)
	if err != nil {
		return err.Error()
	}
	return res
}

// Result conversion
// =================

func toRelations(res []*query.Candidate) []data.Relation {
	if res == nil {
		return nil
	}

	ret := make([]data.Relation, 0, len(res))
	for _, c := range res {
		ret = append(ret, c.Relation)
	}

	return ret
}

func toEdges(res []*query.Candidate) []data.Edge {
	if res == nil {
		return nil
	}

	ret := make([]data.Edge, 0, len(res))
	for _, c := range res {
		ret = append(ret, c.Relation.(data.Edge))
	}

	return ret
}

func toProperties(res []*query.Candidate) []data.VertexProperty {
	if res == nil {
		return nil
	}

	ret := make([]data.VertexProperty, 0, len(res))
	for _, c := range res {
		ret = append(ret, c.Relation.(data.VertexProperty))
	}

	return ret
}

/*
adjacentVertices returns the adjacent vertices of edge results as a vertex
list.
*/
func adjacentVertices(tx *Trans, vertex data.Vertex, res []*query.Candidate) data.VertexList {
	adjacent := make([]data.Vertex, 0, len(res))
	isNew := vertex.IsNew()

	for _, c := range res {
		e := c.Relation.(data.Edge)

		other := e.Vertex(1)
		if e.VertexID(1) == vertex.ID() {
			other = e.Vertex(0)
		}

		isNew = isNew || other.IsNew()
		adjacent = append(adjacent, other)
	}

	var vl data.VertexList = data.NewVertexLongList(tx)
	if isNew {
		vl = data.NewVertexArrayList()
	}

	for _, v := range adjacent {
		vl.Add(v)
	}

	return vl
}

func adjacentIDs(res []*query.Candidate, vertexID uint64) []uint64 {
	ret := make([]uint64, 0, len(res))

	for _, c := range res {
		ret = append(ret, c.Relation.(data.Edge).OtherVertexID(vertexID))
	}

	return ret
}
