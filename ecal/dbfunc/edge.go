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

	"devt.de/krotik/ecal/parser"
	"devt.de/krotik/relgraph/graph"
	"devt.de/krotik/relgraph/graph/data"
)

/*
AddEdgeFunc adds an edge between two vertices.
*/
type AddEdgeFunc struct {
	GM *graph.Manager
}

/*
Run executes the ECAL function.
*/
func (f *AddEdgeFunc) Run(instanceID string, vs parser.Scope, is map[string]interface{}, tid uint64, args []interface{}) (interface{}, error) {
	var err error

	if arglen := len(args); arglen != 4 && arglen != 5 {
		err = fmt.Errorf("Function requires 4 or 5 parameters: transaction, out vertex id," +
			" edge label, in vertex id and optionally a property map")
	}

	if err != nil {
		return nil, err
	}

	var props map[interface{}]interface{}

	if len(args) > 4 {
		var ok bool

		if props, ok = args[4].(map[interface{}]interface{}); !ok {
			return nil, fmt.Errorf("Fifth parameter must be a map")
		}
	}

	trans, err := transArg(args, 0)
	if err != nil {
		return nil, err
	}

	out, err := vertexArg(trans, args, 1)
	if err != nil {
		return nil, err
	}

	in, err := vertexArg(trans, args, 3)
	if err != nil {
		return nil, err
	}

	e, err := out.AddEdge(context.Background(), fmt.Sprint(args[2]), in)
	if err != nil {
		return nil, err
	}

	var r data.Relation = e

	for k, v := range props {
		pk, err := f.GM.Schema().GetOrCreatePropertyKey(fmt.Sprint(k))
		if err != nil {
			return nil, err
		}

		if r, err = r.SetProperty(pk, v); err != nil {
			return nil, err
		}
	}

	return RelationToECAL(f.GM.Schema(), r), nil
}

/*
DocString returns a descriptive string.
*/
func (f *AddEdgeFunc) DocString() (string, error) {
	return "Adds an edge between two vertices and returns it.", nil
}

/*
RemoveRelationFunc removes edges or properties which match a query.
*/
type RemoveRelationFunc struct {
	GM *graph.Manager
}

/*
Run executes the ECAL function.
*/
func (f *RemoveRelationFunc) Run(instanceID string, vs parser.Scope, is map[string]interface{}, tid uint64, args []interface{}) (interface{}, error) {
	var res interface{}

	b, err := queryArgs(args)

	if err == nil {
		var rels []data.Relation

		if rels, err = b.Relations(context.Background()); err == nil {

			for _, r := range rels {
				if err = r.It().Remove(); err != nil {
					break
				}
			}

			res = float64(len(rels))
		}
	}

	return res, err
}

/*
DocString returns a descriptive string.
*/
func (f *RemoveRelationFunc) DocString() (string, error) {
	return "Removes all edges and properties of a vertex which match a query. Returns the number of removed relations.", nil
}
