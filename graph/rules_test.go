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
	"errors"
	"fmt"
	"strings"
	"testing"

	"devt.de/krotik/relgraph/graph/util"
)

type TestRule struct {
	name    string
	handles []int
	events  map[int]int
	err     error
}

func (r *TestRule) Name() string {
	return r.name
}

func (r *TestRule) Handles() []int {
	return r.handles
}

func (r *TestRule) Handle(ctx context.Context, gm *Manager, trans *Trans, event int, ed ...interface{}) error {
	r.events[event]++
	return r.err
}

func TestRules(t *testing.T) {
	ctx := context.Background()

	gm, _ := newTestGraph(t)

	rule := &TestRule{"test.counter", []int{EventVertexCreated, EventRelationAdded, EventCommitted}, make(map[int]int), nil}

	gm.SetGraphRule(rule)

	if res := fmt.Sprint(gm.GraphRules()); res != "[system.removevertexrelations test.counter]" {
		t.Error("Unexpected result:", res)
		return
	}

	tx := NewGraphTrans(gm)

	v1, _ := tx.AddVertex(ctx)
	v2, _ := tx.AddVertex(ctx)

	v1.AddEdge(ctx, "knows", v2)
	v1.SetProperty(ctx, "name", "Alice")

	tx.Commit(ctx)

	if res := fmt.Sprint(rule.events); res != "map[1:2 3:2 4:1]" {
		t.Error("Unexpected result:", res)
		return
	}

	// Empty transactions do not fire a commit event

	NewGraphTrans(gm).Commit(ctx)

	if res := rule.events[EventCommitted]; res != 1 {
		t.Error("Unexpected result:", res)
		return
	}

	// Handled events are not errors

	rule.err = ErrEventHandled

	tx = NewGraphTrans(gm)

	if _, err := tx.AddVertex(ctx); err != nil {
		t.Error(err)
		return
	}

	// Rule errors are returned by the operation which fired the event

	gm.SetGraphRule(&TestRule{"test.error", []int{EventVertexCreated}, make(map[int]int), errors.New("Testerror")})

	if _, err := tx.AddVertex(ctx); !errors.Is(err, util.ErrRule) || !strings.Contains(err.Error(), "Testerror") {
		t.Error("Unexpected result:", err)
		return
	}
}

func TestRuleRemoveVertexRelations(t *testing.T) {
	ctx := context.Background()

	gm, ms := newTestGraph(t)

	tx := NewGraphTrans(gm)

	v1, _ := tx.AddVertex(ctx)
	v2, _ := tx.AddVertex(ctx)
	v3, _ := tx.AddVertex(ctx)

	v1.SetProperty(ctx, "name", "Alice")
	v1.AddEdge(ctx, "knows", v2)
	v3.AddEdge(ctx, "father", v1)
	v2.AddEdge(ctx, "friend", v3)

	tx.Commit(ctx)

	tx = NewGraphTrans(gm)

	rv1, _ := tx.GetVertex(ctx, v1.ID())

	if err := rv1.Remove(ctx); err != nil {
		t.Error(err)
		return
	}

	if _, _, rv, rr := tx.Counts(); rv != 1 || rr != 3 {
		t.Error("Unexpected counts:", rv, rr)
		return
	}

	if res, _ := tx.GetVertex(ctx, v1.ID()); res != nil {
		t.Error("Unexpected result:", res)
		return
	}

	if err := tx.Commit(ctx); err != nil {
		t.Error(err)
		return
	}

	// The edges are also removed from the rows of the other vertices

	tx = NewGraphTrans(gm)

	rv2, _ := tx.GetVertex(ctx, v2.ID())
	rv3, _ := tx.GetVertex(ctx, v3.ID())

	if res, _ := rv2.Query().Count(ctx); res != 1 {
		t.Error("Unexpected result:", res)
		return
	}

	if res, _ := rv3.Query().Labels("father").Count(ctx); res != 0 {
		t.Error("Unexpected result:", res)
		return
	}

	if res, _ := tx.GetVertex(ctx, v1.ID()); res != nil {
		t.Error("Unexpected result:", res)
		return
	}

	// Rows of v2 and v3 plus the counter and schema rows

	if res := ms.RowCount(); res != 4 {
		t.Error("Unexpected result:", res)
		return
	}
}
