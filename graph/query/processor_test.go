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
	"testing"

	"devt.de/krotik/relgraph/graph/codec"
	"devt.de/krotik/relgraph/graph/data"
	"devt.de/krotik/relgraph/graph/schema"
	"devt.de/krotik/relgraph/storage"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

/*
randomQuery holds a generated dataset around vertex 1 and a generated query.
*/
type randomQuery struct {
	f     *fixture
	edges []*data.StandardEdge
	state *QueryState
}

func drawRandomQuery(rt *rapid.T) *randomQuery {
	f := newFixture(rt)

	var edges []*data.StandardEdge

	// Simple edges are keyed by their endpoints, a second one between the
	// same pair would overwrite the first

	written := make(map[[2]uint64]bool)

	n := rapid.IntRange(0, 25).Draw(rt, "edges")

	for i := 0; i < n; i++ {
		label := rapid.SampledFrom([]string{"knows", "knows", "friend"}).Draw(rt, "label")
		other := rapid.Uint64Range(1, 6).Draw(rt, "other")

		var age interface{}
		if rapid.IntRange(0, 4).Draw(rt, "hasAge") > 0 {
			age = rapid.Int64Range(0, 3).Draw(rt, "age")
		}
		name := rapid.SampledFrom([]string{"", "a", "b"}).Draw(rt, "name")

		var e *data.StandardEdge
		if rapid.Bool().Draw(rt, "in") {
			e = f.edge(label, other, 1, age, name)
		} else {
			e = f.edge(label, 1, other, age, name)
		}

		if label == "friend" {
			pair := [2]uint64{e.VertexID(0), e.VertexID(1)}
			if written[pair] {
				continue
			}
			written[pair] = true
		}

		f.write(rt, e)
		edges = append(edges, e)
	}

	state := NewQueryState()

	switch rapid.IntRange(0, 3).Draw(rt, "types") {
	case 1:
		state.Types = []schema.RelationType{f.sm.Type("knows")}
	case 2:
		state.Types = []schema.RelationType{f.sm.Type("friend")}
	case 3:
		state.Types = []schema.RelationType{f.sm.Type("friend"), f.sm.Type("knows")}
	}

	state.Direction = schema.Direction(rapid.IntRange(0, 2).Draw(rt, "direction"))

	if rapid.Bool().Draw(rt, "limited") {
		state.Limit = rapid.IntRange(1, 30).Draw(rt, "limit")
	}

	np := rapid.IntRange(0, 3).Draw(rt, "predicates")

	for i := 0; i < np; i++ {
		var p *PredicateCondition

		switch rapid.IntRange(0, 5).Draw(rt, "predicate") {
		case 0:
			p = f.predicate("age", Equal, rapid.Int64Range(0, 3).Draw(rt, "value"))
		case 1:
			p = f.predicate("age", GreaterThanEqual, rapid.Int64Range(0, 3).Draw(rt, "value"))
		case 2:
			p = f.predicate("age", LessThan, rapid.Int64Range(0, 3).Draw(rt, "value"))
		case 3:
			p = f.predicate("age", NotEqual, rapid.Int64Range(0, 3).Draw(rt, "value"))
		case 4:
			p = f.predicate("name", Equal, rapid.SampledFrom([]string{"a", "b"}).Draw(rt, "value"))
		case 5:
			p = f.predicate("~adjacent", Equal, rapid.Uint64Range(1, 6).Draw(rt, "value"))
		}

		state.Predicates = append(state.Predicates, p)
	}

	return &randomQuery{f, edges, state}
}

/*
matches evaluates the query naively on a relation in a direction.
*/
func (rq *randomQuery) matches(r data.Relation, dir schema.Direction) bool {
	if !rq.state.Direction.Contains(dir) {
		return false
	}

	if len(rq.state.Types) > 0 {
		found := false
		for _, t := range rq.state.Types {
			found = found || t.ID() == r.Type().ID()
		}
		if !found {
			return false
		}
	}

	for _, p := range rq.state.Predicates {
		if !p.Cmp.Evaluate(KeyValue(r, p.Key, 1), p.Value) {
			return false
		}
	}

	return true
}

/*
expected returns the ids of all stored edges which match the query. Loops are
reported once if both directions are queried.
*/
func (rq *randomQuery) expected() map[uint64]bool {
	res := make(map[uint64]bool)

	for _, e := range rq.edges {
		for pos := 0; pos < 2; pos++ {
			if e.VertexID(pos) != 1 {
				continue
			}
			if rq.matches(e, schema.DirectionFromPosition(pos)) {
				res[e.ID()] = true
			}
		}
	}

	return res
}

func TestLimitExactness(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		rq := drawRandomQuery(rt)

		ctx := rq.f.context()
		ctx.Settings = Settings{rapid.IntRange(1, 40).Draw(rt, "hardMax"), rapid.IntRange(2, 3).Draw(rt, "growth")}

		q, err := Compile(rq.state, schema.CategoryEdge, ctx)
		require.NoError(rt, err)

		res, err := NewProcessor(ctx.Settings, rq.f.sm).Execute(context.Background(), q, rq.f.executor(1))
		require.NoError(rt, err)

		expected := rq.expected()

		size := len(expected)
		if rq.state.Limit < size {
			size = rq.state.Limit
		}

		if len(res) != size {
			rt.Fatalf("Unexpected result size %v (expected %v) for query:\n%v", len(res), size, q)
		}

		seen := make(map[uint64]bool)

		for _, c := range res {
			if !expected[c.Relation.ID()] || seen[c.Relation.ID()] {
				rt.Fatalf("Unexpected result %v for query:\n%v", c.Relation, q)
			}
			if !rq.matches(c.Relation, c.Direction) {
				rt.Fatalf("Result %v does not match in direction %v", c.Relation, c.Direction)
			}
			seen[c.Relation.ID()] = true
		}
	})
}

func TestFittedCompleteness(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		rq := drawRandomQuery(rt)

		q, err := Compile(rq.state, schema.CategoryEdge, rq.f.context())
		require.NoError(rt, err)

		ex := rq.f.executor(1)

		for _, h := range q.Holders() {
			if !h.Fitted {
				continue
			}

			entries, err := rq.f.store.GetSlice(context.Background(), codec.VertexKey(1),
				h.Query.WithLimit(storage.NoLimit))
			require.NoError(rt, err)

			for _, e := range entries {
				header, err := ex.Header(e)
				require.NoError(rt, err)

				if isLoopDuplicate(q.Direction(), header, 1) {
					continue
				}

				r := ex.Relation(e, header)

				if !rq.matches(r, header.Direction()) {
					rt.Fatalf("Fitted slice %v returned %v which does not match", h, r)
				}
			}
		}
	})
}

func TestLimitGrowth(t *testing.T) {
	f := newFixture(t)

	for i := uint64(0); i < 20; i++ {
		age := int64(1)
		if i >= 15 {
			age = 2
		}
		f.write(t, f.edge("knows", 1, 10+i, age, "a"))
	}

	state := NewQueryState()
	state.Direction = schema.Out
	state.Limit = 3
	state.Predicates = []*PredicateCondition{f.predicate("age", Equal, int64(2))}

	settings := Settings{HardMaxLimit: 100, GrowthFactor: 2}
	ctx := &CompileContext{Serializer: f.es, Settings: settings}

	q, err := Compile(state, schema.CategoryEdge, ctx)
	require.NoError(t, err)
	require.Equal(t, 12, q.Holders()[0].Query.Limit)

	calls := f.store.SliceCalls

	res, err := NewProcessor(settings, f.sm).Execute(context.Background(), q, f.executor(1))
	require.NoError(t, err)

	require.Equal(t, []uint64{25, 26, 27}, others(1, res))
	require.Equal(t, 2, f.store.SliceCalls-calls)
}

func TestSimpleEdgeOverwrite(t *testing.T) {
	f := newFixture(t)

	f.write(t, f.edge("friend", 1, 2, int64(1), "a"))
	f.write(t, f.edge("friend", 1, 2, int64(2), "b"))
	f.write(t, f.edge("friend", 2, 1, int64(3), "c"))

	state := NewQueryState()
	state.Types = []schema.RelationType{f.sm.Type("friend")}

	q, err := Compile(state, schema.CategoryEdge, f.context())
	require.NoError(t, err)

	res, err := f.processor().Execute(context.Background(), q, f.executor(1))
	require.NoError(t, err)

	// The second edge from 1 to 2 replaced the first

	require.Equal(t, []uint64{2, 2}, others(1, res))

	for _, c := range res {
		if c.Direction == schema.Out {
			name, _ := c.Relation.Property(f.sm.PropertyKey("name").ID())
			require.Equal(t, "b", name)
		}
	}
}
