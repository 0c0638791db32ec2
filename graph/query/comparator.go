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
	"sort"

	"devt.de/krotik/common/errorutil"
	"devt.de/krotik/relgraph/graph/codec"
	"devt.de/krotik/relgraph/graph/data"
	"devt.de/krotik/relgraph/graph/schema"
)

/*
Candidate is a relation in the result of a query together with its
direction relative to the query vertex.
*/
type Candidate struct {
	Relation  data.Relation    // Resulting relation
	Direction schema.Direction // Direction relative to the query vertex
}

/*
RelationComparator orders relations which are incident on a vertex. The
order agrees with the column order of the entries of a vertex row.
*/
type RelationComparator struct {
	vertexID uint64             // Vertex on which all relations are incident
	orders   *OrderList         // Explicit sort orders
	types    codec.TypeResolver // Lookup for the data types of sort keys
}

/*
NewRelationComparator creates a new RelationComparator.
*/
func NewRelationComparator(vertexID uint64, orders *OrderList, types codec.TypeResolver) *RelationComparator {
	return &RelationComparator{vertexID, orders, types}
}

/*
CompareRelations compares two relations. The direction of each relation is
derived from its position. Panics if a relation is not incident on the
vertex of this comparator.
*/
func (rc *RelationComparator) CompareRelations(r1, r2 data.Relation) int {
	d1, err := data.DirectionOf(r1, rc.vertexID)
	errorutil.AssertOk(err)

	d2, err := data.DirectionOf(r2, rc.vertexID)
	errorutil.AssertOk(err)

	return rc.Compare(&Candidate{r1, d1}, &Candidate{r2, d2})
}

/*
Compare compares two candidates. Returns a negative number if c1 is ordered
before c2, a positive number if c1 is ordered after c2 and 0 otherwise.
*/
func (rc *RelationComparator) Compare(c1, c2 *Candidate) int {
	r1, r2 := c1.Relation, c2.Relation

	if r1 == r2 && c1.Direction == c2.Direction {
		return 0
	}

	for _, e := range rc.orders.Entries() {
		v1, _ := r1.Property(e.Key.ID())
		v2, _ := r2.Property(e.Key.ID())

		if res := e.Order.Modulate(codec.CompareValues(e.Key.DataType(), v1, v2)); res != 0 {
			return res
		}
	}

	cat1, cat2 := data.Category(r1), data.Category(r2)
	if cat1 != cat2 {
		if cat1 == schema.CategoryProperty {
			return -1
		}
		return 1
	}

	t1, t2 := r1.Type().Base(), r2.Type().Base()
	if res := compareIDs(t1.ID(), t2.ID()); res != 0 {
		return res
	}

	if c1.Direction != c2.Direction {
		if c1.Direction == schema.Out {
			return -1
		}
		return 1
	}

	if schema.IsUnique(t1, c1.Direction) {
		return 0
	}

	for _, keyID := range t1.SortKey() {
		v1, _ := r1.Property(keyID)
		v2, _ := r2.Property(keyID)

		if res := t1.SortOrder().Modulate(codec.CompareValues(rc.dataType(keyID), v1, v2)); res != 0 {
			return res
		}
	}

	if cat1 == schema.CategoryProperty {
		v1 := r1.(data.VertexProperty).Value()
		v2 := r2.(data.VertexProperty).Value()

		if res := codec.CompareValues(rc.dataType(t1.ID()), v1, v2); res != 0 {
			return res
		}

	} else {
		o1 := r1.(data.Edge).OtherVertexID(rc.vertexID)
		o2 := r2.(data.Edge).OtherVertexID(rc.vertexID)

		if res := compareIDs(o1, o2); res != 0 {
			return res
		}
	}

	if t1.Multiplicity().IsConstrained() {
		return 0
	}

	return compareIDs(r1.ID(), r2.ID())
}

/*
Sort sorts a list of candidates. The sort is stable.
*/
func (rc *RelationComparator) Sort(candidates []*Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		return rc.Compare(candidates[i], candidates[j]) < 0
	})
}

/*
Merge merges lists of candidates which are each sorted into a single sorted
list. Candidates of earlier lists come first if they compare equal.
*/
func (rc *RelationComparator) Merge(runs ...[]*Candidate) []*Candidate {
	var total int

	for _, run := range runs {
		total += len(run)
	}

	res := make([]*Candidate, 0, total)
	pos := make([]int, len(runs))

	for len(res) < total {
		best := -1

		for i, run := range runs {
			if pos[i] < len(run) && (best == -1 || rc.Compare(run[pos[i]], runs[best][pos[best]]) < 0) {
				best = i
			}
		}

		res = append(res, runs[best][pos[best]])
		pos[best]++
	}

	return res
}

func (rc *RelationComparator) dataType(keyID uint64) schema.DataType {
	if rc.types != nil {
		if t := rc.types.TypeByID(keyID); t != nil {
			if dt, ok := schema.ValueType(t); ok {
				return dt
			}
		}
	}
	return schema.TypeAny
}

func compareIDs(id1, id2 uint64) int {
	if id1 < id2 {
		return -1
	} else if id1 > id2 {
		return 1
	}
	return 0
}
