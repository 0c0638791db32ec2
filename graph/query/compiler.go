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
	"devt.de/krotik/relgraph/graph/codec"
	"devt.de/krotik/relgraph/graph/schema"
	"devt.de/krotik/relgraph/graph/util"
	"devt.de/krotik/relgraph/storage"
)

/*
QueryState is the configuration of a vertex-centric query before compilation.
*/
type QueryState struct {
	Direction     schema.Direction      // Requested direction
	Types         []schema.RelationType // Requested types (empty for all types)
	Unsatisfiable bool                  // Flag if the query can never have results
	Predicates    []*PredicateCondition // Conjunction of atomic predicates
	Orders        *OrderList            // Explicit result order
	Limit         int                   // Max number of results
}

/*
NewQueryState creates a new query state for all relations in both directions
without a limit.
*/
func NewQueryState() *QueryState {
	return &QueryState{Direction: schema.Both, Orders: NewOrderList(), Limit: NoLimit}
}

/*
CompileContext holds the collaborators of the query compilation.
*/
type CompileContext struct {
	Serializer       *codec.EdgeSerializer // Serializer to build slices
	HasModifications bool                  // Flag if the transaction has uncommitted changes
	Settings         Settings              // Limit settings
}

/*
Compile compiles a query state into a BaseVertexCentricQuery for a given
result category.
*/
func Compile(state *QueryState, category schema.RelationCategory, ctx *CompileContext) (*BaseVertexCentricQuery, error) {
	res, err := compile(state, category, ctx)

	if err == nil {
		CompiledQueries.WithLabelValues(res.Shape()).Inc()
		LogDebug("Compiled ", res)
	}

	return res, err
}

func compile(state *QueryState, category schema.RelationCategory, ctx *CompileContext) (*BaseVertexCentricQuery, error) {

	if state.Limit <= 0 || state.Unsatisfiable {
		return EmptyQuery(category), nil
	}

	dir := state.Direction

	if category == schema.CategoryProperty {
		if dir == schema.In {
			return EmptyQuery(category), nil
		}
		dir = schema.Out
	}

	types, ok := filterTypes(state.Types, category)
	if !ok {
		return EmptyQuery(category), nil
	}

	intervals := CompileIntervals(state.Predicates)
	if intervals.Empty {
		return EmptyQuery(category), nil
	}

	condition := buildCondition(state, category, dir, types)

	var holders []*BackendQueryHolder

	if len(types) == 0 {
		holders = []*BackendQueryHolder{categoryHolder(state, category, dir, ctx)}

	} else {

		for _, t := range types {
			th, err := typeHolders(state, t, dir, intervals, ctx)
			if err != nil {
				return nil, err
			}
			holders = append(holders, th...)
		}
	}

	return NewBaseVertexCentricQuery(condition, dir, category, holders, state.Orders, state.Limit), nil
}

/*
filterTypes removes duplicate types, system types and types outside the
category. Returns false if types were requested but none is left.
*/
func filterTypes(types []schema.RelationType, category schema.RelationCategory) ([]schema.RelationType, bool) {
	var res []schema.RelationType

	if len(types) == 0 {
		return nil, true
	}

	seen := make(map[uint64]bool)

	for _, t := range types {
		base := t.Base()

		if base.IsSystem() || !category.Includes(base.Category()) || seen[base.ID()] {
			continue
		}

		seen[base.ID()] = true
		res = append(res, base)
	}

	return res, len(res) > 0
}

/*
buildCondition builds the condition which describes all results of a query.
*/
func buildCondition(state *QueryState, category schema.RelationCategory, dir schema.Direction,
	types []schema.RelationType) Condition {

	var parts []Condition

	if len(types) == 0 {
		if category != schema.CategoryRelation {
			parts = append(parts, &CategoryCondition{category})
		}
	} else {
		var tcs []Condition
		for _, t := range types {
			tcs = append(tcs, &TypeCondition{t})
		}
		parts = append(parts, NewOr(tcs...))
	}

	if dir != schema.Both {
		parts = append(parts, &DirectionCondition{dir})
	}

	parts = append(parts, &VisibilityCondition{})

	for _, p := range state.Predicates {
		parts = append(parts, p)
	}

	return NewAnd(parts...)
}

/*
categoryHolder builds the slice of all relations of a category. A single
direction is filtered in memory so the limit is doubled.
*/
func categoryHolder(state *QueryState, category schema.RelationCategory, dir schema.Direction,
	ctx *CompileContext) *BackendQueryHolder {

	directionCovered := dir == schema.Both || category == schema.CategoryProperty

	fitted := directionCovered && len(state.Predicates) == 0
	sorted := state.Orders.IsEmpty()

	limit := state.Limit

	if !directionCovered && limit < NoLimit/2 {
		limit *= 2
	}

	limit = holderLimit(limit, len(state.Predicates), sorted, state.Orders, ctx)

	return &BackendQueryHolder{codec.CategorySlice(category).WithLimit(limit), fitted, sorted, dir, nil}
}

/*
typeHolders builds the slices of a single type. Both directions are split if
the selected variant can use constraints.
*/
func typeHolders(state *QueryState, t schema.RelationType, dir schema.Direction,
	intervals *IntervalSet, ctx *CompileContext) ([]*BackendQueryHolder, error) {

	var res []*BackendQueryHolder

	dirs := []schema.Direction{dir}

	if t.Category() == schema.CategoryProperty && dir == schema.In {
		return nil, nil

	} else if dir == schema.Both {
		if t.Category() == schema.CategoryProperty {
			dirs = []schema.Direction{schema.Out}

		} else if sel := selectVariant(t, schema.Both, intervals); sel == nil || !sel.constraints.IsEmpty() {
			dirs = []schema.Direction{schema.Out, schema.In}
		}
	}

	for _, d := range dirs {
		sel := selectVariant(t, d, intervals)
		if sel == nil {
			return nil, util.NewGraphError(util.ErrInvalidState,
				"No variant of %v is stored in direction %v", t.Name(), d)
		}

		h, err := sel.holder(state, intervals, ctx)
		if err != nil {
			return nil, err
		}

		res = append(res, h)
	}

	return res, nil
}

/*
selection is the result of a variant selection.
*/
type selection struct {
	variant     schema.RelationType     // Selected variant
	dir         schema.Direction        // Direction of the slice
	constraints *codec.SliceConstraints // Constraints which can be expressed as slice
	consumed    map[uint64]bool         // Keys whose intervals are covered by the slice
	score       int                     // Score of the variant
	full        bool                    // Flag if the whole sort key is covered by points
}

/*
selectVariant selects the index variant of a type whose sort key is best
covered by the given intervals. Returns nil if no variant stores the type in
the given direction.
*/
func selectVariant(t schema.RelationType, dir schema.Direction, intervals *IntervalSet) *selection {
	var best *selection

	for _, variant := range t.Indexes() {

		if !variant.IndexDirection().Contains(dir) {
			continue
		}

		sel := scoreVariant(variant, dir, intervals)

		if best == nil || sel.score > best.score || (sel.score == best.score && sel.full && !best.full) {
			best = sel
		}
	}

	return best
}

/*
scoreVariant computes the constraints and the score of a single variant.
*/
func scoreVariant(variant schema.RelationType, dir schema.Direction, intervals *IntervalSet) *selection {
	sel := &selection{variant, dir, &codec.SliceConstraints{}, make(map[uint64]bool), 0, false}

	if schema.IsUnique(variant, dir) {
		return sel
	}

	sortKey := variant.SortKey()

	for _, keyID := range sortKey {
		iv := intervals.Interval(keyID)

		if iv == nil {
			break
		}

		if iv.IsPoint() {
			sel.constraints.Points = append(sel.constraints.Points, iv.Point())
			sel.consumed[keyID] = true
			sel.score += 2
			continue
		}

		sel.constraints.Range = iv.KeyRange()
		sel.consumed[keyID] = true
		sel.score++

		break
	}

	sel.full = len(sel.constraints.Points) == len(sortKey)

	if sel.full {
		other := schema.KeyValue
		if variant.Base().Category() == schema.CategoryEdge {
			other = schema.KeyAdjacent
		}

		if iv := intervals.Interval(other.ID()); iv != nil && iv.IsPoint() {
			sel.constraints.Other = iv.Point()
			sel.consumed[other.ID()] = true
			sel.score += 10
		}
	}

	return sel
}

/*
holder builds the slice query of a selection.
*/
func (sel *selection) holder(state *QueryState, intervals *IntervalSet, ctx *CompileContext) (*BackendQueryHolder, error) {

	sq, err := ctx.Serializer.Slice(sel.variant, sel.dir, sel.constraints)
	if err != nil {
		return nil, err
	}

	fitted := intervals.Fitted

	for keyID := range intervals.Intervals {
		if !sel.consumed[keyID] {
			fitted = false
			break
		}
	}

	sorted := schema.IsSortedLike(sel.variant) && (state.Orders.IsEmpty() ||
		(sel.dir != schema.Both && state.Orders.IsPrefixOf(sel.variant.SortKey(),
			len(sel.constraints.Points), sel.variant.SortOrder())))

	var uncovered int

	for _, p := range state.Predicates {
		if !sel.consumed[p.Key.ID()] || p.Cmp == NotEqual {
			uncovered++
		}
	}

	limit := holderLimit(state.Limit, uncovered, sorted, state.Orders, ctx)

	return &BackendQueryHolder{sq.WithLimit(limit), fitted, sorted, sel.dir, sel.variant}, nil
}

/*
holderLimit computes the limit of a slice query. Unsorted slices of ordered
queries must be read completely.
*/
func holderLimit(limit int, uncovered int, sorted bool, orders *OrderList, ctx *CompileContext) int {
	if !orders.IsEmpty() && !sorted {
		return storage.NoLimit
	}
	return ctx.Settings.AdjustLimit(limit, uncovered, ctx.HasModifications)
}
