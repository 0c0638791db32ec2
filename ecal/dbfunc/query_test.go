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
	"strings"
	"testing"

	"devt.de/krotik/relgraph/graph"
)

func TestVertexAndEdgeFunctions(t *testing.T) {

	gm := newTestGraph(t)

	nt := &NewTransFunc{gm}
	av := &AddVertexFunc{gm}
	ae := &AddEdgeFunc{gm}
	sp := &SetPropertyFunc{gm}
	vl := &ValuesFunc{gm}
	ct := &CommitTransFunc{gm}

	for _, f := range []interface{ DocString() (string, error) }{nt, av, ae, sp, vl, ct,
		&RollbackTransFunc{gm}, &RemoveVertexFunc{gm}, &RemoveRelationFunc{gm}} {

		if _, err := f.DocString(); err != nil {
			t.Error(err)
			return
		}
	}

	if _, err := nt.Run("", nil, nil, 0, []interface{}{"foo"}); err == nil ||
		err.Error() != "Function does not require any parameters" {
		t.Error(err)
		return
	}

	trans, _ := nt.Run("", nil, nil, 0, nil)

	if _, err := av.Run("", nil, nil, 0, []interface{}{"foo"}); err == nil ||
		err.Error() != "Parameter 1 must be a transaction" {
		t.Error(err)
		return
	}

	v1, _ := av.Run("", nil, nil, 0, []interface{}{trans})
	v2, _ := av.Run("", nil, nil, 0, []interface{}{trans})

	if v1 != float64(1) || v2 != float64(2) {
		t.Error("Unexpected result:", v1, v2)
		return
	}

	// Properties

	p, err := sp.Run("", nil, nil, 0, []interface{}{trans, v1, "name", "Alice"})

	if err != nil || fmt.Sprint(p) != "map[id:1 key:name properties:map[] value:Alice vertex:1]" {
		t.Error("Unexpected result:", p, err)
		return
	}

	if _, err := sp.Run("", nil, nil, 0, []interface{}{trans, v1, "color", "red"}); err == nil {
		t.Error("Unknown keys should not be accepted")
		return
	}

	if _, err := sp.Run("", nil, nil, 0, []interface{}{trans, float64(99), "name", "Bob"}); err == nil ||
		err.Error() != "Unknown vertex: 99" {
		t.Error(err)
		return
	}

	if _, err := sp.Run("", nil, nil, 0, []interface{}{trans, "x", "name", "Bob"}); err == nil ||
		err.Error() != "Parameter 2: Invalid vertex id: x" {
		t.Error(err)
		return
	}

	// Edges

	if _, err := ae.Run("", nil, nil, 0, []interface{}{trans, v1, "knows"}); err == nil ||
		!strings.HasPrefix(err.Error(), "Function requires 4 or 5 parameters") {
		t.Error(err)
		return
	}

	if _, err := ae.Run("", nil, nil, 0, []interface{}{trans, v1, "knows", v2, "foo"}); err == nil ||
		err.Error() != "Fifth parameter must be a map" {
		t.Error(err)
		return
	}

	e, err := ae.Run("", nil, nil, 0, []interface{}{trans, v1, "knows", v2,
		map[interface{}]interface{}{"since": float64(2010)}})

	if err != nil || fmt.Sprint(e) != "map[id:2 in:2 label:knows out:1 properties:map[since:2010]]" {
		t.Error("Unexpected result:", e, err)
		return
	}

	if _, err := ae.Run("", nil, nil, 0, []interface{}{trans, v1, "friend", v2}); err != nil {
		t.Error(err)
		return
	}

	if _, err := ae.Run("", nil, nil, 0, []interface{}{trans, v1, "friend", v2}); err == nil {
		t.Error("Simple edges should not be duplicated")
		return
	}

	if _, err := ct.Run("", nil, nil, 0, []interface{}{trans}); err != nil {
		t.Error(err)
		return
	}

	if _, err := ct.Run("", nil, nil, 0, []interface{}{"foo"}); err == nil ||
		err.Error() != "Parameter 1 must be a transaction" {
		t.Error(err)
		return
	}

	// Read the committed values

	trans, _ = nt.Run("", nil, nil, 0, nil)

	if res, err := vl.Run("", nil, nil, 0, []interface{}{trans, v1, "name"}); err != nil || fmt.Sprint(res) != "[Alice]" {
		t.Error("Unexpected result:", res, err)
		return
	}

	// Remove relations and vertices

	rr := &RemoveRelationFunc{gm}

	if res, err := rr.Run("", nil, nil, 0, []interface{}{trans, v1,
		map[interface{}]interface{}{"labels": "friend"}}); err != nil || res != float64(1) {

		t.Error("Unexpected result:", res, err)
		return
	}

	rv := &RemoveVertexFunc{gm}

	if _, err := rv.Run("", nil, nil, 0, []interface{}{trans, v2}); err != nil {
		t.Error(err)
		return
	}

	if _, _, rvc, rrc := trans.(*graph.Trans).Counts(); rvc != 1 || rrc != 2 {
		t.Error("Unexpected counts:", rvc, rrc)
		return
	}

	if _, err := (&RollbackTransFunc{gm}).Run("", nil, nil, 0, []interface{}{trans}); err != nil {
		t.Error(err)
		return
	}
}

func TestQueryFunctions(t *testing.T) {

	gm := newTestGraph(t)

	trans := graph.NewGraphTrans(gm)

	av := &AddVertexFunc{gm}
	ae := &AddEdgeFunc{gm}

	v1, _ := av.Run("", nil, nil, 0, []interface{}{trans})

	for i := 0; i < 3; i++ {
		v, _ := av.Run("", nil, nil, 0, []interface{}{trans})
		ae.Run("", nil, nil, 0, []interface{}{trans, v1, "knows", v,
			map[interface{}]interface{}{"since": float64(2000 + i)}})
	}

	(&SetPropertyFunc{gm}).Run("", nil, nil, 0, []interface{}{trans, v1, "name", "Alice"})

	trans.Commit(context.Background())

	trans = graph.NewGraphTrans(gm)

	ef := &EdgesFunc{gm}
	pf := &PropertiesFunc{gm}
	nf := &NeighborsFunc{gm}
	cf := &CountFunc{gm}
	xf := &ExplainFunc{gm}

	for _, f := range []interface{ DocString() (string, error) }{ef, pf, nf, cf, xf} {
		if _, err := f.DocString(); err != nil {
			t.Error(err)
			return
		}
	}

	if res, err := cf.Run("", nil, nil, 0, []interface{}{trans, v1}); err != nil || res != float64(4) {
		t.Error("Unexpected result:", res, err)
		return
	}

	if res, err := nf.Run("", nil, nil, 0, []interface{}{trans, v1, map[interface{}]interface{}{
		"direction": "out",
		"labels":    []interface{}{"knows"},
		"orderby":   "since",
		"order":     "desc",
		"limit":     float64(2),
	}}); err != nil || fmt.Sprint(res) != "[4 3]" {
		t.Error("Unexpected result:", res, err)
		return
	}

	if res, err := nf.Run("", nil, nil, 0, []interface{}{trans, v1, map[interface{}]interface{}{
		"labels": "knows",
		"where":  []interface{}{[]interface{}{"since", ">=", float64(2001)}},
	}}); err != nil || fmt.Sprint(res) != "[3 4]" {
		t.Error("Unexpected result:", res, err)
		return
	}

	if res, err := ef.Run("", nil, nil, 0, []interface{}{trans, v1, map[interface{}]interface{}{
		"has": map[interface{}]interface{}{"since": float64(2000)},
	}}); err != nil || fmt.Sprint(res) != "[map[id:1 in:2 label:knows out:1 properties:map[since:2000]]]" {
		t.Error("Unexpected result:", res, err)
		return
	}

	if res, err := ef.Run("", nil, nil, 0, []interface{}{trans, float64(3), map[interface{}]interface{}{
		"adjacent": v1,
	}}); err != nil || len(res.([]interface{})) != 1 {
		t.Error("Unexpected result:", res, err)
		return
	}

	if res, err := pf.Run("", nil, nil, 0, []interface{}{trans, v1, map[interface{}]interface{}{
		"keys": "name",
	}}); err != nil || fmt.Sprint(res) != "[map[id:4 key:name properties:map[] value:Alice vertex:1]]" {
		t.Error("Unexpected result:", res, err)
		return
	}

	if res, err := xf.Run("", nil, nil, 0, []interface{}{trans, v1, map[interface{}]interface{}{
		"types": "knows",
	}}); err != nil || !strings.Contains(fmt.Sprint(res), "query RELATION") {
		t.Error("Unexpected result:", res, err)
		return
	}

	// Errors

	if _, err := cf.Run("", nil, nil, 0, []interface{}{trans}); err == nil ||
		err.Error() != "Function requires 2 or 3 parameters: transaction, vertex id and optionally a query option map" {
		t.Error(err)
		return
	}

	if _, err := cf.Run("", nil, nil, 0, []interface{}{trans, v1, "foo"}); err == nil ||
		err.Error() != "Third parameter must be a map" {
		t.Error(err)
		return
	}

	for expected, opts := range map[string]map[interface{}]interface{}{
		"Unknown direction: up":                {"direction": "up"},
		"Unknown sort order: up":               {"orderby": "since", "order": "up"},
		"Option limit must be a number not: x": {"limit": "x"},
		"Option has must be a map":             {"has": "x"},
		"Option where must be a list":          {"where": "x"},
		"Unknown comparison operator: ~":       {"where": []interface{}{[]interface{}{"since", "~", float64(1)}}},
		"Option adjacent: Unknown vertex: 99":  {"adjacent": float64(99)},
		"Constraint must be a list of key, operator and value: x": {"where": []interface{}{"x"}},
	} {
		if _, err := cf.Run("", nil, nil, 0, []interface{}{trans, v1, opts}); err == nil || err.Error() != expected {
			t.Error("Unexpected result:", err, "expected:", expected)
			return
		}
	}

	if _, err := cf.Run("", nil, nil, 0, []interface{}{trans, v1, map[interface{}]interface{}{
		"labels": "name",
	}}); err == nil {
		t.Error("Invalid queries should be reported")
		return
	}
}
