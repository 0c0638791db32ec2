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
RelationIterator can be used to iterate the results of a vertex-centric
query. Results of simple queries are read lazily from the store.
*/
type RelationIterator struct {
	it        *query.LimitAdjustingIterator // Lazy iterator for simple queries
	res       []*query.Candidate            // Results of all other queries
	LastError error                         // Last encountered error
}

/*
Iterator returns an iterator over the matching relations of a result
category.
*/
func (b *VertexCentricQueryBuilder) Iterator(ctx context.Context, category schema.RelationCategory) *RelationIterator {
	it := &RelationIterator{}

	q, processor, err := b.compile(category)

	if err != nil {
		it.LastError = err

	} else if b.vertex.IsRemoved() {
		it.LastError = util.NewGraphError(util.ErrInvalidState, "%v was removed", b.vertex)

	} else if q.IsSimple() && !b.vertex.IsNew() && !b.tx.HasModifications() {
		settings, _ := b.tx.gm.queryEngine()
		it.it = query.NewLimitAdjustingIterator(ctx, q, newVertexExecutor(b.tx, b.vertex, nil), settings)

	} else {
		it.res, it.LastError = processor.Execute(ctx, q, newVertexExecutor(b.tx, b.vertex, nil))
	}

	return it
}

/*
HasNext returns if there is a next relation.
*/
func (it *RelationIterator) HasNext() bool {
	if it.LastError != nil {
		return false
	} else if it.it != nil {
		return it.it.HasNext()
	}
	return len(it.res) > 0
}

/*
Next returns the next relation. Sets the LastError attribute if an error
occurs.
*/
func (it *RelationIterator) Next() data.Relation {
	var c *query.Candidate

	if !it.HasNext() {
		return nil
	}

	if it.it != nil {
		if c = it.it.Next(); c == nil {
			it.LastError = it.it.Error()
			return nil
		}
	} else {
		c, it.res = it.res[0], it.res[1:]
	}

	return c.Relation
}

/*
Error returns the last encountered error.
*/
func (it *RelationIterator) Error() error {
	if it.LastError == nil && it.it != nil {
		return it.it.Error()
	}
	return it.LastError
}
