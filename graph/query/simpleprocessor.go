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

	"devt.de/krotik/relgraph/graph/util"
	"devt.de/krotik/relgraph/storage"
)

/*
LimitAdjustingIterator iterates the results of a simple query. The slice of
the query is issued again with a larger limit if it was exhausted before the
query limit was reached.
*/
type LimitAdjustingIterator struct {
	ctx       context.Context         // Context of the backend calls
	query     *BaseVertexCentricQuery // Simple query
	ex        Executor                // Executor of the query
	settings  Settings                // Limit settings
	slice     storage.SliceQuery      // Current slice query
	entries   storage.EntryList       // Entries of the current slice
	pos       int                     // Position of the next entry
	count     int                     // Number of returned results
	fetched   bool                    // Flag if the current slice was read
	next      *Candidate              // Next result
	LastError error                   // Last encountered error
}

/*
NewLimitAdjustingIterator creates a new iterator for a simple query.
*/
func NewLimitAdjustingIterator(ctx context.Context, q *BaseVertexCentricQuery, ex Executor,
	settings Settings) *LimitAdjustingIterator {

	return &LimitAdjustingIterator{ctx: ctx, query: q, ex: ex, settings: settings,
		slice: q.Holders()[0].Query}
}

/*
HasNext returns if there is a next result.
*/
func (it *LimitAdjustingIterator) HasNext() bool {
	if it.next != nil {
		return true
	}

	if it.LastError != nil || it.count >= it.query.Limit() {
		return false
	}

	it.next = it.advance()

	return it.next != nil
}

/*
Next returns the next result or nil if there is none. Sets the LastError
attribute if an error occurs.
*/
func (it *LimitAdjustingIterator) Next() *Candidate {
	if !it.HasNext() {
		return nil
	}

	res := it.next

	it.next = nil
	it.count++

	return res
}

/*
Error returns the last encountered error.
*/
func (it *LimitAdjustingIterator) Error() error {
	return it.LastError
}

/*
advance reads the next result from the current slice and grows the slice if
it was exhausted.
*/
func (it *LimitAdjustingIterator) advance() *Candidate {
	vertexID := it.ex.VertexID()

	for {
		if !it.fetched {
			entries, err := it.ex.Slice(it.ctx, it.slice)
			if err != nil {
				it.LastError = util.WrapGraphError(util.ErrStorage, err)
				return nil
			}

			SliceQueries.WithLabelValues("true").Inc()

			it.entries = entries
			it.fetched = true
		}

		for it.pos < len(it.entries) {
			e := it.entries[it.pos]
			it.pos++

			header, err := it.ex.Header(e)
			if err != nil {
				it.LastError = err
				return nil
			}

			if isLoopDuplicate(it.query.Direction(), header, vertexID) {
				continue
			}

			return &Candidate{it.ex.Relation(e, header), header.Direction()}
		}

		if !it.slice.HasLimit() || len(it.entries) < it.slice.Limit {
			return nil
		}

		// Entries which were already returned are a prefix of the larger slice

		it.slice = it.slice.WithLimit(it.settings.Grow(it.slice.Limit))
		it.fetched = false

		LimitGrowths.Inc()
		LogDebug("Growing slice limit of simple query to ", it.slice.Limit)
	}
}
