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
)

/*
AddVertexFunc adds a new vertex.
*/
type AddVertexFunc struct {
	GM *graph.Manager
}

/*
Run executes the ECAL function.
*/
func (f *AddVertexFunc) Run(instanceID string, vs parser.Scope, is map[string]interface{}, tid uint64, args []interface{}) (interface{}, error) {
	var res interface{}
	var err error

	if arglen := len(args); arglen != 1 {
		err = fmt.Errorf("Function requires 1 parameter: transaction")
	}

	if err == nil {
		var trans *graph.Trans
		var v *graph.Vertex

		if trans, err = transArg(args, 0); err == nil {
			if v, err = trans.AddVertex(context.Background()); err == nil {
				res = float64(v.ID())
			}
		}
	}

	return res, err
}

/*
DocString returns a descriptive string.
*/
func (f *AddVertexFunc) DocString() (string, error) {
	return "Adds a new vertex and returns its id.", nil
}

/*
RemoveVertexFunc removes a vertex with all its edges and properties.
*/
type RemoveVertexFunc struct {
	GM *graph.Manager
}

/*
Run executes the ECAL function.
*/
func (f *RemoveVertexFunc) Run(instanceID string, vs parser.Scope, is map[string]interface{}, tid uint64, args []interface{}) (interface{}, error) {
	var err error

	if arglen := len(args); arglen != 2 {
		err = fmt.Errorf("Function requires 2 parameters: transaction and vertex id")
	}

	if err == nil {
		var trans *graph.Trans
		var v *graph.Vertex

		if trans, err = transArg(args, 0); err == nil {
			if v, err = vertexArg(trans, args, 1); err == nil {
				err = v.Remove(context.Background())
			}
		}
	}

	return nil, err
}

/*
DocString returns a descriptive string.
*/
func (f *RemoveVertexFunc) DocString() (string, error) {
	return "Removes a vertex with all its edges and properties.", nil
}

/*
SetPropertyFunc sets a property of a vertex.
*/
type SetPropertyFunc struct {
	GM *graph.Manager
}

/*
Run executes the ECAL function.
*/
func (f *SetPropertyFunc) Run(instanceID string, vs parser.Scope, is map[string]interface{}, tid uint64, args []interface{}) (interface{}, error) {
	var res interface{}
	var err error

	if arglen := len(args); arglen != 4 {
		err = fmt.Errorf("Function requires 4 parameters: transaction, vertex id, property key and value")
	}

	if err == nil {
		var trans *graph.Trans
		var v *graph.Vertex

		if trans, err = transArg(args, 0); err == nil {
			if v, err = vertexArg(trans, args, 1); err == nil {

				p, err := v.SetProperty(context.Background(), fmt.Sprint(args[2]), args[3])
				if err != nil {
					return nil, err
				}

				res = RelationToECAL(f.GM.Schema(), p)
			}
		}
	}

	return res, err
}

/*
DocString returns a descriptive string.
*/
func (f *SetPropertyFunc) DocString() (string, error) {
	return "Sets a property of a vertex. Single valued keys are replaced.", nil
}

/*
ValuesFunc returns all values of a property key of a vertex.
*/
type ValuesFunc struct {
	GM *graph.Manager
}

/*
Run executes the ECAL function.
*/
func (f *ValuesFunc) Run(instanceID string, vs parser.Scope, is map[string]interface{}, tid uint64, args []interface{}) (interface{}, error) {
	var res interface{}
	var err error

	if arglen := len(args); arglen != 3 {
		err = fmt.Errorf("Function requires 3 parameters: transaction, vertex id and property key")
	}

	if err == nil {
		var trans *graph.Trans
		var v *graph.Vertex
		var vals []interface{}

		if trans, err = transArg(args, 0); err == nil {
			if v, err = vertexArg(trans, args, 1); err == nil {
				if vals, err = v.Values(context.Background(), fmt.Sprint(args[2])); err == nil {

					ret := make([]interface{}, len(vals))
					for i, val := range vals {
						ret[i] = toECALValue(val)
					}

					res = ret
				}
			}
		}
	}

	return res, err
}

/*
DocString returns a descriptive string.
*/
func (f *ValuesFunc) DocString() (string, error) {
	return "Returns all values of a property key of a vertex.", nil
}
