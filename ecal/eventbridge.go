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
Package ecal contains the main API for the event condition action language (ECAL).
*/
package ecal

import (
	"context"
	"fmt"
	"strings"

	"devt.de/krotik/common/errorutil"
	"devt.de/krotik/ecal/engine"
	"devt.de/krotik/ecal/util"
	"devt.de/krotik/relgraph/ecal/dbfunc"
	"devt.de/krotik/relgraph/graph"
	"devt.de/krotik/relgraph/graph/data"
)

/*
EventMapping is a mapping between graph event types and event kinds in ECAL.
*/
var EventMapping = map[int]string{

	/*
	   EventVertexCreated is thrown when a vertex was created.

	   Parameters: created vertex
	*/
	graph.EventVertexCreated: "db.vertex.created",

	/*
	   EventVertexRemoved is thrown before a vertex and its relations are removed.

	   Parameters: removed vertex
	*/
	graph.EventVertexRemoved: "db.vertex.removed",

	/*
	   EventRelationAdded is thrown when an edge or a property was added.

	   Parameters: added relation
	*/
	graph.EventRelationAdded: "db.relation.added",

	/*
	   EventCommitted is thrown after a transaction was written.

	   Parameters: number of written rows
	*/
	graph.EventCommitted: "db.trans.committed",
}

/*
EventBridge is a rule for a graph manager to forward all graph events to ECAL.
*/
type EventBridge struct {
	Processor engine.Processor
	Logger    util.Logger
}

/*
Name returns the name of the rule.
*/
func (eb *EventBridge) Name() string {
	return "ecal.eventbridge"
}

/*
Handles returns a list of events which are handled by this rule.
*/
func (eb *EventBridge) Handles() []int {
	return []int{
		graph.EventVertexCreated,
		graph.EventVertexRemoved,
		graph.EventRelationAdded,
		graph.EventCommitted,
	}
}

/*
Handle handles an event.
*/
func (eb *EventBridge) Handle(ctx context.Context, gm *graph.Manager, trans *graph.Trans, event int, ed ...interface{}) error {
	var err error

	if name, ok := EventMapping[event]; ok {
		eventName := fmt.Sprintf("relgraph: %v", name)
		eventKind := strings.Split(name, ".")

		// Construct an event which can be used to check if any rule will trigger.
		// This is to avoid the relative costly state construction below for events
		// which would not trigger any rules.

		triggerCheckEvent := engine.NewEvent(eventName, eventKind, nil)

		if !eb.Processor.IsTriggering(triggerCheckEvent) {
			return nil
		}

		// Build up state

		state := map[interface{}]interface{}{
			"trans": trans,
		}

		// Include the right arguments into the state

		switch event {
		case graph.EventVertexCreated, graph.EventVertexRemoved:
			state["vertex"] = float64(ed[0].(*graph.Vertex).ID())

		case graph.EventRelationAdded:
			r := ed[0].(data.Relation)
			state["relation"] = dbfunc.RelationToECAL(gm.Schema(), r)
			state["category"] = strings.ToLower(data.Category(r).String())

		case graph.EventCommitted:
			state["rows"] = float64(ed[0].(int))
		}

		// Try to inject the event

		event := engine.NewEvent(eventName, eventKind, state)

		var m engine.Monitor
		m, err = eb.Processor.AddEventAndWait(event, nil)

		if err == nil {

			// If there was no direct error adding the event then check if an error was
			// raised in a sink

			if errs := m.(*engine.RootMonitor).AllErrors(); len(errs) > 0 {
				var errList []error

				for _, e := range errs {

					addError := true

					for _, se := range e.ErrorMap {

						// Check if the sink returned a special graph.ErrEventHandled error

						if re, ok := se.(*util.RuntimeErrorWithDetail); ok && re.Detail == graph.ErrEventHandled.Error() {
							addError = false
						}
					}

					if addError {
						errList = append(errList, e)
					}
				}

				if len(errList) > 0 {
					ce := errorutil.NewCompositeError()
					for _, e := range errList {
						ce.Add(e)
					}
					err = ce
				} else {
					err = graph.ErrEventHandled
				}
			}
		}

		if err != nil {
			eb.Logger.LogDebug(fmt.Sprintf("Graph event %v was handled by ECAL and returned: %v", name, err))
		}
	}

	return err
}
