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
	"fmt"
	"strings"

	"devt.de/krotik/relgraph/graph/schema"
	"devt.de/krotik/relgraph/graph/util"
)

/*
OrderEntry is a single explicit sort order.
*/
type OrderEntry struct {
	Key   *schema.PropertyKey // Key to sort by
	Order schema.Order        // Sort order
}

/*
String returns a string representation of this entry.
*/
func (oe OrderEntry) String() string {
	return fmt.Sprintf("%v %v", oe.Key.Name(), oe.Order)
}

/*
OrderList is a list of explicit sort orders. Only a single order is supported.
*/
type OrderList struct {
	entries []OrderEntry
}

/*
NewOrderList creates a new empty order list.
*/
func NewOrderList() *OrderList {
	return &OrderList{}
}

/*
Add adds a sort order. Returns an error if the key cannot be used for sorting.
*/
func (ol *OrderList) Add(key schema.RelationType, order schema.Order) error {
	if key.IsSystem() {
		return util.NewGraphError(util.ErrInvalidQuery, "Cannot order by system key %v", key.Name())
	}

	pk, ok := key.(*schema.PropertyKey)
	if !ok {
		return util.NewGraphError(util.ErrInvalidQuery, "Cannot order by %v which is not a property key", key.Name())
	}

	if pk.Cardinality() != schema.Single {
		return util.NewGraphError(util.ErrInvalidQuery, "Cannot order by multi-valued key %v", key.Name())
	}

	if len(ol.entries) > 0 {
		return util.NewGraphError(util.ErrInvalidQuery, "Cannot order by %v - only one order key is supported", key.Name())
	}

	ol.entries = append(ol.entries, OrderEntry{pk, order})

	return nil
}

/*
IsEmpty returns if the list has no entries.
*/
func (ol *OrderList) IsEmpty() bool {
	return ol == nil || len(ol.entries) == 0
}

/*
Len returns the number of entries.
*/
func (ol *OrderList) Len() int {
	if ol == nil {
		return 0
	}
	return len(ol.entries)
}

/*
Entries returns all entries of this list.
*/
func (ol *OrderList) Entries() []OrderEntry {
	if ol == nil {
		return nil
	}
	return append([]OrderEntry(nil), ol.entries...)
}

/*
IsPrefixOf returns if this list orders like a sort key starting at a given
column with a given sort order.
*/
func (ol *OrderList) IsPrefixOf(sortKey []uint64, from int, order schema.Order) bool {
	if ol.Len() > len(sortKey)-from {
		return false
	}

	for i, e := range ol.Entries() {
		if e.Key.ID() != sortKey[from+i] || e.Order != order {
			return false
		}
	}

	return true
}

/*
String returns a string representation of this list.
*/
func (ol *OrderList) String() string {
	var parts []string
	for _, e := range ol.Entries() {
		parts = append(parts, e.String())
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
