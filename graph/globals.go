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
Package graph contains the main API to the graph datastore.

Manager API

The main API is provided by a Manager object which can be created with the
NewGraphManager() constructor function. The manager owns the store, the
schema and the id counters of a graph. All reads and writes are done through
transactions.

Transactions

A transaction is used to build up changes of the graph. Vertices are created
with AddVertex(), edges and properties are added through the vertex objects.
Nothing is written to the store before calling Commit(). Relations which are
loaded from the store are read-only snapshots: modifying them creates a copy
which replaces the loaded relation inside the transaction. Queries of a
transaction see its own uncommitted changes.

Vertex-centric queries

Relations which are incident on a vertex are queried with a
VertexCentricQueryBuilder (Vertex.Query()). The builder compiles its state
into slice queries of the vertex row. The same query can be run for many
vertices with a MultiVertexCentricQueryBuilder which reads the rows of all
vertices with a single multi slice request.

Rules

Graph rules provide automatic operations which help to keep the graph
consistent. Rules trigger on graph events inside a transaction. The rule
SystemRuleRemoveVertexRelations is automatically loaded when a new Manager is
created.

Store layout

Each vertex has a row which is keyed by its 8 byte id. The row holds an
existence column and one column per incident relation and index variant:

	[category][type id][direction][sort key values][other][relation id]

The other part is the adjacent vertex id of an edge or the value of a
property. Parts are left out if the multiplicity of the type makes them
redundant. Two further rows hold the id counters and the schema.
*/
package graph

import (
	"errors"

	"github.com/sirupsen/logrus"
)

/*
VERSION of the GraphManager
*/
const VERSION = 1

// Logging
// =======

/*
Logger is a function which processes log messages of the graph
*/
type Logger func(v ...interface{})

/*
LogInfo is called if an info message is logged in the graph code
*/
var LogInfo = Logger(logrus.Info)

/*
LogDebug is called if a debug message is logged in the graph code
*/
var LogDebug = Logger(logrus.Debug)

/*
LogNull is a discarding logger to be used for disabling loggers
*/
var LogNull = func(v ...interface{}) {
}

// Transactions
// ============

/*
DefaultEntryCacheSize is the number of decoded entries which a transaction
keeps if no other size was configured.
*/
const DefaultEntryCacheSize = 10000

// Graph events
//=============

/*
EventVertexCreated is thrown when a vertex gets created.

Parameters: created vertex
*/
const EventVertexCreated = 0x01

/*
EventVertexRemoved is thrown when a vertex gets removed.

Parameters: removed vertex
*/
const EventVertexRemoved = 0x02

/*
EventRelationAdded is thrown when an edge or a property gets added.

Parameters: added relation
*/
const EventRelationAdded = 0x03

/*
EventCommitted is thrown after a transaction was written to the store.

Parameters: number of written rows
*/
const EventCommitted = 0x04

/*
ErrEventHandled is a special error which an event handler can return to
notify the Manager that no further action is necessary. No error will be
returned by the operation which triggered the event.
*/
var ErrEventHandled = errors.New("Event handled upstream")
