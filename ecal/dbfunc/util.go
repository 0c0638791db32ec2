/*
 * EliasDB
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

/*
Package dbfunc contains the graph related functions of the ECAL stdlib.

All functions operate on a transaction. Vertices are addressed by their id.
Numbers in ECAL are floats so ids and values are converted on the way in and
out.
*/
package dbfunc

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"devt.de/krotik/ecal/parser"
	"devt.de/krotik/relgraph/graph"
	"devt.de/krotik/relgraph/graph/data"
	"devt.de/krotik/relgraph/graph/schema"
)

/*
RaiseGraphEventHandledFunc returns the special graph.ErrEventHandled error which a sink,
handling graph events, can return to notify the GraphManager that no further
action is necessary.
*/
type RaiseGraphEventHandledFunc struct {
}

/*
Run executes the ECAL function.
*/
func (f *RaiseGraphEventHandledFunc) Run(instanceID string, vs parser.Scope, is map[string]interface{}, tid uint64, args []interface{}) (interface{}, error) {
	return nil, graph.ErrEventHandled
}

/*
DocString returns a descriptive string.
*/
func (f *RaiseGraphEventHandledFunc) DocString() (string, error) {
	return "When handling a graph event, notify the graph manager that no further action is necessary.", nil
}

// Argument helpers
// ================

/*
transArg reads a transaction parameter.
*/
func transArg(args []interface{}, pos int) (*graph.Trans, error) {
	trans, ok := args[pos].(*graph.Trans)
	if !ok {
		return nil, fmt.Errorf("Parameter %v must be a transaction", pos+1)
	}
	return trans, nil
}

/*
vertexArg reads a vertex id parameter and looks up the vertex in a
transaction.
*/
func vertexArg(trans *graph.Trans, args []interface{}, pos int) (*graph.Vertex, error) {
	id, err := ToVertexID(args[pos])
	if err != nil {
		return nil, fmt.Errorf("Parameter %v: %v", pos+1, err)
	}

	v, err := trans.GetVertex(context.Background(), id)
	if err == nil && v == nil {
		err = fmt.Errorf("Unknown vertex: %v", id)
	}

	return v, err
}

/*
ToVertexID converts an ECAL value into a vertex id.
*/
func ToVertexID(v interface{}) (uint64, error) {
	switch tv := v.(type) {
	case float64:
		if tv > 0 && tv == math.Trunc(tv) {
			return uint64(tv), nil
		}
	case uint64:
		return tv, nil
	default:
		if id, err := strconv.ParseUint(fmt.Sprint(v), 10, 64); err == nil && id > 0 {
			return id, nil
		}
	}

	return 0, fmt.Errorf("Invalid vertex id: %v", v)
}

/*
toECALValue converts a stored value into an ECAL value.
*/
func toECALValue(v interface{}) interface{} {
	switch tv := v.(type) {
	case int64:
		return float64(tv)
	case uint64:
		return float64(tv)
	}
	return v
}

/*
RelationToECAL converts an edge or a property into an ECAL map.

Edges:      {"id", "label", "out", "in", "properties"}
Properties: {"id", "key", "vertex", "value", "properties"}
*/
func RelationToECAL(sm *schema.Manager, r data.Relation) map[interface{}]interface{} {
	props := make(map[interface{}]interface{})

	for _, keyID := range r.PropertyIDs() {
		if t := sm.TypeByID(keyID); t != nil {
			v, _ := r.Property(keyID)
			props[t.Name()] = toECALValue(v)
		}
	}

	res := map[interface{}]interface{}{
		"id":         float64(r.ID()),
		"properties": props,
	}

	switch tr := r.(type) {
	case data.VertexProperty:
		res["key"] = r.Type().Name()
		res["vertex"] = float64(r.VertexID(0))
		res["value"] = toECALValue(tr.Value())

	default:
		res["label"] = r.Type().Name()
		res["out"] = float64(r.VertexID(0))
		res["in"] = float64(r.VertexID(1))
	}

	return res
}
