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
	"sort"
	"strings"

	"devt.de/krotik/relgraph/graph/util"
)

/*
graphRulesManager data structure
*/
type graphRulesManager struct {
	gm       *Manager                // GraphManager which provides events
	rules    map[string]Rule         // Map of graph rules
	eventMap map[int]map[string]Rule // Map of events to graph rules
}

/*
Rule models a graph rule.
*/
type Rule interface {

	/*
	   Name returns the name of the rule.
	*/
	Name() string

	/*
		Handles returns a list of events which are handled by this rule.
	*/
	Handles() []int

	/*
		Handle handles an event. The function should write all changes to the
		given transaction.
	*/
	Handle(ctx context.Context, gm *Manager, trans *Trans, event int, data ...interface{}) error
}

/*
graphEvent main event handler which receives all graph related events.
*/
func (gr *graphRulesManager) graphEvent(ctx context.Context, trans *Trans, event int, data ...interface{}) error {
	var result error
	var errors []string

	rules, ok := gr.eventMap[event]

	handled := false // Flag to return a special handled error if no other error occurred

	if ok {

		// Rules are run in name order

		names := make([]string, 0, len(rules))
		for name := range rules {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {

			err := rules[name].Handle(ctx, gr.gm, trans, event, data...)

			if err != nil {
				if err == ErrEventHandled {
					handled = true
				} else {
					errors = append(errors, err.Error())
				}
			}
		}
	}

	if errors != nil {
		return &util.GraphError{Type: util.ErrRule, Detail: strings.Join(errors, ";")}
	}

	if handled {
		result = ErrEventHandled
	}

	return result
}

/*
SetGraphRule sets a GraphRule.
*/
func (gr *graphRulesManager) SetGraphRule(rule Rule) {
	gr.rules[rule.Name()] = rule

	for _, handledEvent := range rule.Handles() {

		rules, ok := gr.eventMap[handledEvent]
		if !ok {
			rules = make(map[string]Rule)
			gr.eventMap[handledEvent] = rules
		}

		rules[rule.Name()] = rule
	}
}

/*
GraphRules returns a list of all available graph rules.
*/
func (gr *graphRulesManager) GraphRules() []string {
	ret := make([]string, 0, len(gr.rules))

	for rule := range gr.rules {
		ret = append(ret, rule)
	}

	sort.StringSlice(ret).Sort()

	return ret
}

// System rule SystemRuleRemoveVertexRelations
// ===========================================

/*
SystemRuleRemoveVertexRelations is a system rule to remove all edges and
properties of a vertex when the vertex is removed.
*/
type SystemRuleRemoveVertexRelations struct {
}

/*
Name returns the name of the rule.
*/
func (r *SystemRuleRemoveVertexRelations) Name() string {
	return "system.removevertexrelations"
}

/*
Handles returns a list of events which are handled by this rule.
*/
func (r *SystemRuleRemoveVertexRelations) Handles() []int {
	return []int{EventVertexRemoved}
}

/*
Handle handles an event.
*/
func (r *SystemRuleRemoveVertexRelations) Handle(ctx context.Context, gm *Manager, trans *Trans,
	event int, ed ...interface{}) error {

	v := ed[0].(*Vertex)

	rels, err := v.Query().Relations(ctx)
	if err != nil {
		return err
	}

	for _, rel := range rels {
		if err := rel.It().Remove(); err != nil {
			return err
		}
	}

	return nil
}
