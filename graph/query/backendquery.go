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
	"bytes"
	"fmt"

	"devt.de/krotik/relgraph/graph/schema"
	"devt.de/krotik/relgraph/storage"
)

/*
BackendQueryHolder holds a single slice query of a compiled query.
*/
type BackendQueryHolder struct {
	Query     storage.SliceQuery  // Slice of the vertex row
	Fitted    bool                // Flag if the result needs no filtering
	Sorted    bool                // Flag if the result is in comparator order
	Direction schema.Direction    // Direction of the slice
	Type      schema.RelationType // Type variant of the slice (nil for category slices)
}

/*
String returns a string representation of this holder.
*/
func (h *BackendQueryHolder) String() string {
	name := "*"
	if h.Type != nil {
		name = h.Type.Name()
	}
	return fmt.Sprintf("%v %v %v fitted:%v sorted:%v", name, h.Direction, h.Query, h.Fitted, h.Sorted)
}

/*
BaseVertexCentricQuery is a compiled vertex-centric query.
*/
type BaseVertexCentricQuery struct {
	condition Condition               // Condition which every result passes
	direction schema.Direction        // Direction of the query
	category  schema.RelationCategory // Category of the results
	holders   []*BackendQueryHolder   // Slice queries
	orders    *OrderList              // Explicit result order
	limit     int                     // Max number of results
}

/*
NewBaseVertexCentricQuery creates a new compiled query.
*/
func NewBaseVertexCentricQuery(condition Condition, direction schema.Direction,
	category schema.RelationCategory, holders []*BackendQueryHolder, orders *OrderList,
	limit int) *BaseVertexCentricQuery {

	if orders == nil {
		orders = NewOrderList()
	}

	return &BaseVertexCentricQuery{condition, direction, category, holders, orders, limit}
}

/*
EmptyQuery returns a query which has no results.
*/
func EmptyQuery(category schema.RelationCategory) *BaseVertexCentricQuery {
	return NewBaseVertexCentricQuery(&Or{}, schema.Both, category, nil, nil, 0)
}

/*
Condition returns the condition which every result of the query passes.
*/
func (q *BaseVertexCentricQuery) Condition() Condition {
	return q.condition
}

/*
Direction returns the direction of the query.
*/
func (q *BaseVertexCentricQuery) Direction() schema.Direction {
	return q.direction
}

/*
Category returns the category of the query results.
*/
func (q *BaseVertexCentricQuery) Category() schema.RelationCategory {
	return q.category
}

/*
Holders returns the slice queries of the query.
*/
func (q *BaseVertexCentricQuery) Holders() []*BackendQueryHolder {
	return q.holders
}

/*
Orders returns the explicit result order.
*/
func (q *BaseVertexCentricQuery) Orders() *OrderList {
	return q.orders
}

/*
Limit returns the max number of results.
*/
func (q *BaseVertexCentricQuery) Limit() int {
	return q.limit
}

/*
IsEmpty returns if the query can have no results.
*/
func (q *BaseVertexCentricQuery) IsEmpty() bool {
	return q.limit <= 0 || len(q.holders) == 0
}

/*
IsSimple returns if the query consists of a single fitted and sorted slice.
*/
func (q *BaseVertexCentricQuery) IsSimple() bool {
	return len(q.holders) == 1 && q.holders[0].Fitted && q.holders[0].Sorted
}

/*
Shape returns a short description of the query shape.
*/
func (q *BaseVertexCentricQuery) Shape() string {
	if q.IsEmpty() {
		return "empty"
	} else if q.IsSimple() {
		return "simple"
	}
	return "complex"
}

/*
String returns a string representation of this query.
*/
func (q *BaseVertexCentricQuery) String() string {
	var buf bytes.Buffer

	limit := "none"
	if q.limit != NoLimit {
		limit = fmt.Sprint(q.limit)
	}

	buf.WriteString(fmt.Sprintf("%v query %v %v limit:%v\n", q.Shape(), q.category, q.direction, limit))
	buf.WriteString(fmt.Sprintf("  condition: %v\n", q.condition))

	if !q.orders.IsEmpty() {
		buf.WriteString(fmt.Sprintf("  order: %v\n", q.orders))
	}

	for _, h := range q.holders {
		buf.WriteString(fmt.Sprintf("  slice: %v\n", h))
	}

	return buf.String()
}
