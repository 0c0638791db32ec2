/*
 * EliasDB
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package dbfunc

import (
	"context"
	"fmt"
	"strconv"

	"devt.de/krotik/ecal/parser"
	"devt.de/krotik/relgraph/graph"
	"devt.de/krotik/relgraph/graph/data"
	"devt.de/krotik/relgraph/graph/query"
	"devt.de/krotik/relgraph/graph/schema"
)

/*
queryArgs builds a vertex-centric query from the parameters of a query
function: transaction, vertex id and an optional option map.

Known options:

	direction - "in", "out" or "both"
	labels    - edge labels
	keys      - property keys
	types     - edge labels or property keys
	has       - map of key values which must be equal
	where     - list of [key, operator, value] constraints
	adjacent  - id of an adjacent vertex
	orderby   - property key to order by
	order     - "asc" or "desc"
	limit     - max number of results
*/
func queryArgs(args []interface{}) (*graph.VertexCentricQueryBuilder, error) {
	var opts map[interface{}]interface{}

	if arglen := len(args); arglen != 2 && arglen != 3 {
		return nil, fmt.Errorf("Function requires 2 or 3 parameters: transaction, vertex id" +
			" and optionally a query option map")
	}

	if len(args) > 2 {
		var ok bool

		if opts, ok = args[2].(map[interface{}]interface{}); !ok {
			return nil, fmt.Errorf("Third parameter must be a map")
		}
	}

	trans, err := transArg(args, 0)
	if err != nil {
		return nil, err
	}

	v, err := vertexArg(trans, args, 1)
	if err != nil {
		return nil, err
	}

	b := v.Query()

	if dir, ok := opts["direction"]; ok {
		d, err := schema.ParseDirection(fmt.Sprint(dir))
		if err != nil {
			return nil, err
		}
		b.Direction(d)
	}

	if names, ok := opts["labels"]; ok {
		b.Labels(stringList(names)...)
	}

	if names, ok := opts["keys"]; ok {
		b.Keys(stringList(names)...)
	}

	if names, ok := opts["types"]; ok {
		b.Types(stringList(names)...)
	}

	if has, ok := opts["has"]; ok {
		hasMap, ok := has.(map[interface{}]interface{})
		if !ok {
			return nil, fmt.Errorf("Option has must be a map")
		}

		for k, val := range hasMap {
			b.Has(fmt.Sprint(k), val)
		}
	}

	if where, ok := opts["where"]; ok {
		if err := addConstraints(b, where); err != nil {
			return nil, err
		}
	}

	if adj, ok := opts["adjacent"]; ok {
		av, err := vertexArg(trans, []interface{}{adj}, 0)
		if err != nil {
			return nil, fmt.Errorf("Option adjacent: %v", err)
		}
		b.Adjacent(av)
	}

	if key, ok := opts["orderby"]; ok {
		o := schema.Asc

		if order, ok := opts["order"]; ok {
			var err error

			if o, err = schema.ParseOrder(fmt.Sprint(order)); err != nil {
				return nil, err
			}
		}

		b.OrderBy(fmt.Sprint(key), o)
	}

	if limit, ok := opts["limit"]; ok {
		l, err := strconv.Atoi(fmt.Sprint(limit))
		if err != nil {
			return nil, fmt.Errorf("Option limit must be a number not: %v", limit)
		}
		b.Limit(l)
	}

	return b, b.Err()
}

/*
addConstraints adds a list of [key, operator, value] constraints.
*/
func addConstraints(b *graph.VertexCentricQueryBuilder, where interface{}) error {
	list, ok := where.([]interface{})
	if !ok {
		return fmt.Errorf("Option where must be a list")
	}

	for _, c := range list {
		cl, ok := c.([]interface{})
		if !ok || len(cl) != 3 {
			return fmt.Errorf("Constraint must be a list of key, operator and value: %v", c)
		}

		cmp, err := query.ParseCmp(fmt.Sprint(cl[1]))
		if err != nil {
			return err
		}

		b.HasCmp(fmt.Sprint(cl[0]), cmp, cl[2])
	}

	return nil
}

/*
stringList converts an ECAL list or a single value into a list of strings.
*/
func stringList(v interface{}) []string {
	if l, ok := v.([]interface{}); ok {
		res := make([]string, len(l))
		for i, e := range l {
			res[i] = fmt.Sprint(e)
		}
		return res
	}
	return []string{fmt.Sprint(v)}
}

func relationList(gm *graph.Manager, rels []data.Relation) []interface{} {
	res := make([]interface{}, len(rels))
	for i, r := range rels {
		res[i] = RelationToECAL(gm.Schema(), r)
	}
	return res
}

/*
EdgesFunc returns the edges of a vertex which match a query.
*/
type EdgesFunc struct {
	GM *graph.Manager
}

/*
Run executes the ECAL function.
*/
func (f *EdgesFunc) Run(instanceID string, vs parser.Scope, is map[string]interface{}, tid uint64, args []interface{}) (interface{}, error) {
	var res interface{}

	b, err := queryArgs(args)

	if err == nil {
		var edges []data.Edge

		if edges, err = b.Edges(context.Background()); err == nil {
			rels := make([]data.Relation, len(edges))
			for i, e := range edges {
				rels[i] = e
			}
			res = relationList(f.GM, rels)
		}
	}

	return res, err
}

/*
DocString returns a descriptive string.
*/
func (f *EdgesFunc) DocString() (string, error) {
	return "Returns the edges of a vertex which match a query.", nil
}

/*
PropertiesFunc returns the properties of a vertex which match a query.
*/
type PropertiesFunc struct {
	GM *graph.Manager
}

/*
Run executes the ECAL function.
*/
func (f *PropertiesFunc) Run(instanceID string, vs parser.Scope, is map[string]interface{}, tid uint64, args []interface{}) (interface{}, error) {
	var res interface{}

	b, err := queryArgs(args)

	if err == nil {
		var props []data.VertexProperty

		if props, err = b.Properties(context.Background()); err == nil {
			rels := make([]data.Relation, len(props))
			for i, p := range props {
				rels[i] = p
			}
			res = relationList(f.GM, rels)
		}
	}

	return res, err
}

/*
DocString returns a descriptive string.
*/
func (f *PropertiesFunc) DocString() (string, error) {
	return "Returns the properties of a vertex which match a query.", nil
}

/*
NeighborsFunc returns the ids of the adjacent vertices of the edges which
match a query.
*/
type NeighborsFunc struct {
	GM *graph.Manager
}

/*
Run executes the ECAL function.
*/
func (f *NeighborsFunc) Run(instanceID string, vs parser.Scope, is map[string]interface{}, tid uint64, args []interface{}) (interface{}, error) {
	var res interface{}

	b, err := queryArgs(args)

	if err == nil {
		var ids []uint64

		if ids, err = b.VertexIDs(context.Background()); err == nil {
			ret := make([]interface{}, len(ids))
			for i, id := range ids {
				ret[i] = float64(id)
			}
			res = ret
		}
	}

	return res, err
}

/*
DocString returns a descriptive string.
*/
func (f *NeighborsFunc) DocString() (string, error) {
	return "Returns the ids of the adjacent vertices of the edges which match a query.", nil
}

/*
CountFunc counts the edges and properties of a vertex which match a query.
*/
type CountFunc struct {
	GM *graph.Manager
}

/*
Run executes the ECAL function.
*/
func (f *CountFunc) Run(instanceID string, vs parser.Scope, is map[string]interface{}, tid uint64, args []interface{}) (interface{}, error) {
	var res interface{}

	b, err := queryArgs(args)

	if err == nil {
		var c int

		if c, err = b.Count(context.Background()); err == nil {
			res = float64(c)
		}
	}

	return res, err
}

/*
DocString returns a descriptive string.
*/
func (f *CountFunc) DocString() (string, error) {
	return "Counts the edges and properties of a vertex which match a query.", nil
}

/*
ExplainFunc describes how a query is run against the store.
*/
type ExplainFunc struct {
	GM *graph.Manager
}

/*
Run executes the ECAL function.
*/
func (f *ExplainFunc) Run(instanceID string, vs parser.Scope, is map[string]interface{}, tid uint64, args []interface{}) (interface{}, error) {
	var res interface{}

	b, err := queryArgs(args)

	if err == nil {
		var s string

		if s, err = b.Explain(schema.CategoryRelation); err == nil {
			res = s
		}
	}

	return res, err
}

/*
DocString returns a descriptive string.
*/
func (f *ExplainFunc) DocString() (string, error) {
	return "Describes how a query on the edges and properties of a vertex is run.", nil
}
