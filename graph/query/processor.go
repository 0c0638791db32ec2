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
	"strconv"

	"devt.de/krotik/relgraph/graph/codec"
	"devt.de/krotik/relgraph/graph/data"
	"devt.de/krotik/relgraph/graph/schema"
	"devt.de/krotik/relgraph/graph/util"
	"devt.de/krotik/relgraph/storage"
)

/*
Executor gives the processor access to the row of a single vertex and to the
state of the owning transaction.
*/
type Executor interface {

	/*
		VertexID returns the id of the queried vertex.
	*/
	VertexID() uint64

	/*
		IsNew returns if the vertex has no stored row yet.
	*/
	IsNew() bool

	/*
		HasModifications returns if the transaction has uncommitted changes.
	*/
	HasModifications() bool

	/*
		Slice reads a slice of the vertex row.
	*/
	Slice(ctx context.Context, q storage.SliceQuery) (storage.EntryList, error)

	/*
		Header decodes the header of an entry without its properties.
	*/
	Header(entry storage.Entry) (*data.RelationCache, error)

	/*
		Relation returns the relation object of an entry.
	*/
	Relation(entry storage.Entry, header *data.RelationCache) data.Relation

	/*
		IsRemovedRelation returns if a stored relation was removed in the
		transaction.
	*/
	IsRemovedRelation(id uint64) bool

	/*
		AddedRelations returns the relations of the vertex which were added in
		the transaction.
	*/
	AddedRelations() []data.Relation
}

/*
Processor executes compiled queries.
*/
type Processor struct {
	settings Settings           // Limit settings
	types    codec.TypeResolver // Lookup for data types of sort keys
}

/*
NewProcessor creates a new Processor.
*/
func NewProcessor(settings Settings, types codec.TypeResolver) *Processor {
	return &Processor{settings, types}
}

/*
Execute runs a compiled query and returns at most limit results. Results are
in comparator order if every slice is sorted or if the query has an explicit
order.
*/
func (p *Processor) Execute(ctx context.Context, q *BaseVertexCentricQuery, ex Executor) ([]*Candidate, error) {
	var res []*Candidate

	if q.IsEmpty() {
		return nil, nil
	}

	if q.IsSimple() && !ex.IsNew() && !ex.HasModifications() {
		it := NewLimitAdjustingIterator(ctx, q, ex, p.settings)

		for it.HasNext() {
			res = append(res, it.Next())
		}

		if err := it.Error(); err != nil {
			return nil, err
		}

		return res, nil
	}

	var runs [][]*Candidate

	allSorted := true

	if !ex.IsNew() {

		for _, h := range q.Holders() {
			run, err := p.fetch(ctx, q, h, ex)
			if err != nil {
				return nil, err
			}

			runs = append(runs, run)
			allSorted = allSorted && h.Sorted
		}
	}

	local := p.localCandidates(q, ex)
	comp := NewRelationComparator(ex.VertexID(), q.Orders(), p.types)

	if allSorted {
		comp.Sort(local)
		res = comp.Merge(append([][]*Candidate{local}, runs...)...)

	} else {
		res = local
		for _, run := range runs {
			res = append(res, run...)
		}

		if !q.Orders().IsEmpty() {
			comp.Sort(res)
		}
	}

	res = dedup(res)

	if len(res) > q.Limit() {
		res = res[:q.Limit()]
	}

	return res, nil
}

/*
fetch reads the candidates of a single slice. The slice is issued again with
a larger limit as long as its limit was exhausted and not enough candidates
passed the condition.
*/
func (p *Processor) fetch(ctx context.Context, q *BaseVertexCentricQuery, h *BackendQueryHolder,
	ex Executor) ([]*Candidate, error) {

	var run []*Candidate

	vertexID := ex.VertexID()
	sq := h.Query

	need := q.Limit()
	if !q.Orders().IsEmpty() && !h.Sorted {
		need = NoLimit
	}

	for {
		entries, err := ex.Slice(ctx, sq)
		if err != nil {
			return nil, util.WrapGraphError(util.ErrStorage, err)
		}

		SliceQueries.WithLabelValues(strconv.FormatBool(h.Fitted)).Inc()

		run = run[:0]

		for _, e := range entries {
			header, err := ex.Header(e)
			if err != nil {
				return nil, err
			}

			if isLoopDuplicate(q.Direction(), header, vertexID) || ex.IsRemovedRelation(header.RelationID()) {
				continue
			}

			r := ex.Relation(e, header)

			if !h.Fitted && !q.Condition().Evaluate(r, vertexID, header.Direction()) {
				FilteredCandidates.Inc()
				continue
			}

			run = append(run, &Candidate{r, header.Direction()})

			if need != NoLimit && len(run) >= need {
				break
			}
		}

		if len(run) >= need || !sq.HasLimit() || len(entries) < sq.Limit {
			break
		}

		sq = sq.WithLimit(p.settings.Grow(sq.Limit))

		LimitGrowths.Inc()
		LogDebug("Growing slice limit of ", h, " to ", sq.Limit)
	}

	return run, nil
}

/*
localCandidates returns the relations added in the transaction which pass the
query condition.
*/
func (p *Processor) localCandidates(q *BaseVertexCentricQuery, ex Executor) []*Candidate {
	var res []*Candidate

	vertexID := ex.VertexID()

	for _, r := range ex.AddedRelations() {

		if r.Lifecycle().IsRemoved() {
			continue
		}

		for pos := 0; pos < r.Arity(); pos++ {

			if r.VertexID(pos) != vertexID || (pos == 1 && q.Direction() == schema.Both && r.VertexID(0) == vertexID) {
				continue
			}

			dir := schema.DirectionFromPosition(pos)

			if q.Direction().Contains(dir) && q.Condition().Evaluate(r, vertexID, dir) {
				res = append(res, &Candidate{r, dir})
			}
		}
	}

	return res
}

/*
isLoopDuplicate returns if an entry is the incoming entry of a loop edge which
is already reported by its outgoing entry.
*/
func isLoopDuplicate(dir schema.Direction, header *data.RelationCache, vertexID uint64) bool {
	if dir != schema.Both || header.Direction() != schema.In {
		return false
	}
	other, ok := header.Other().(uint64)
	return ok && other == vertexID
}

/*
dedup removes repeated relations from a candidate list. The first occurrence
is kept.
*/
func dedup(candidates []*Candidate) []*Candidate {
	res := candidates[:0]
	seen := make(map[interface{}]bool, len(candidates))

	for _, c := range candidates {
		var key interface{} = c.Relation

		if c.Relation.HasID() {
			key = c.Relation.ID()
		}

		if !seen[key] {
			seen[key] = true
			res = append(res, c)
		}
	}

	return res
}
