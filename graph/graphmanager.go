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
	"fmt"
	"os"
	"strconv"
	"sync"

	"devt.de/krotik/relgraph/config"
	"devt.de/krotik/relgraph/graph/codec"
	"devt.de/krotik/relgraph/graph/query"
	"devt.de/krotik/relgraph/graph/schema"
	"devt.de/krotik/relgraph/graph/util"
	"devt.de/krotik/relgraph/storage"
)

/*
versionColumn is the column of the schema row which holds the layout version
*/
var versionColumn = []byte("~version")

/*
Manager data structure
*/
type Manager struct {
	store         storage.Store         // Store which holds the graph
	sm            *schema.Manager       // Schema of the graph
	es            *codec.EdgeSerializer // Serializer for relation entries
	gr            *graphRulesManager    // Manager for graph rules
	settings      query.Settings        // Limit settings of queries
	processor     *query.Processor      // Processor for compiled queries
	vertexIDs     *idCounter            // Counter for vertex ids
	relationIDs   *idCounter            // Counter for relation ids
	schemaVersion uint64                // Schema version which was last written
	mutex         *sync.RWMutex         // Mutex to protect commits

	SingleThreadedTransactions bool   // Flag if transactions are used by a single goroutine
	EntryCacheSize             uint64 // Max number of decoded entries per transaction
}

/*
NewGraphManager returns a new GraphManager instance. The schema and the id
counters are loaded from the store.
*/
func NewGraphManager(ctx context.Context, store storage.Store) (*Manager, error) {
	gm, err := createGraphManager(ctx, store)

	if err == nil {
		gm.SetGraphRule(&SystemRuleRemoveVertexRelations{})
	}

	return gm, err
}

/*
NewGraphManagerFromConfig returns a new GraphManager instance which is
configured by the current configuration. The schema file of the
configuration is applied to the schema of the graph.
*/
func NewGraphManagerFromConfig(ctx context.Context, store storage.Store) (*Manager, error) {

	if config.Config == nil {
		config.LoadDefaultConfig()
	}

	policy, ignore, err := schema.ParseTypePolicy(config.Str(config.DefaultTypePolicy))
	if err != nil {
		return nil, util.WrapGraphError(util.ErrOpening, err)
	}

	gm, err := NewGraphManager(ctx, store)
	if err != nil {
		return nil, err
	}

	gm.settings = query.Settings{
		HardMaxLimit: int(config.Int(config.QueryHardMaxLimit)),
		GrowthFactor: int(config.Int(config.QueryLimitGrowthFactor)),
	}
	gm.processor = query.NewProcessor(gm.settings, gm.sm)

	gm.sm.Policy = policy
	gm.sm.IgnoreUndefinedQueryTypes = ignore || config.Bool(config.IgnoreUndefinedQueryTypes)

	gm.SingleThreadedTransactions = config.Bool(config.SingleThreadedTransactions)
	gm.EntryCacheSize = uint64(config.Int(config.EntryCacheMaxSize))

	if file := config.Str(config.SchemaFile); file != "" {

		defs, err := os.ReadFile(file)
		if err != nil {
			return nil, util.WrapGraphError(util.ErrOpening, err)
		}

		if err := gm.LoadDefinitions(ctx, defs); err != nil {
			return nil, err
		}
	}

	return gm, nil
}

/*
createGraphManager creates a new GraphManager instance.
*/
func createGraphManager(ctx context.Context, store storage.Store) (*Manager, error) {

	row, err := store.GetSlice(ctx, codec.SchemaRow, storage.NewSliceQuery(nil, nil))
	if err != nil {
		return nil, util.WrapGraphError(util.ErrOpening, err)
	}

	nameDB := make(map[string]string)

	var defs []byte
	var version string

	for _, e := range row {
		switch string(e.Column) {
		case string(codec.SchemaDefinitionColumn):
			defs = e.Value
		case string(versionColumn):
			version = string(e.Value)
		default:
			nameDB[string(e.Column)] = string(e.Value)
		}
	}

	// Check version

	if v, _ := strconv.Atoi(version); v > VERSION {
		return nil, util.NewGraphError(util.ErrOpening,
			"Cannot open graph storage of version: %v - max supported version: %v", version, VERSION)
	}

	sm := schema.NewManager(nameDB)

	if defs != nil {
		if err := sm.LoadDefinitions(defs); err != nil {
			return nil, err
		}
	}

	counters, err := store.GetSlice(ctx, codec.CounterRow, storage.NewSliceQuery(nil, nil))
	if err != nil {
		return nil, util.WrapGraphError(util.ErrOpening, err)
	}

	gm := &Manager{
		store:       store,
		sm:          sm,
		es:          codec.NewEdgeSerializer(sm),
		settings:    query.DefaultSettings(),
		vertexIDs:   newIDCounter(codec.CounterVertex, counters),
		relationIDs: newIDCounter(codec.CounterRelation, counters),
		mutex:       &sync.RWMutex{},

		EntryCacheSize: DefaultEntryCacheSize,
	}

	gm.processor = query.NewProcessor(gm.settings, sm)
	gm.gr = &graphRulesManager{gm, make(map[string]Rule), make(map[int]map[string]Rule)}

	// Only write the schema if it was not loaded completely

	if defs != nil && version != "" {
		gm.schemaVersion = sm.Version()
	}

	return gm, nil
}

/*
Name returns the name of this graph manager.
*/
func (gm *Manager) Name() string {
	return fmt.Sprint("Graph ", gm.store.Name())
}

/*
Store returns the store of this graph manager.
*/
func (gm *Manager) Store() storage.Store {
	return gm.store
}

/*
Schema returns the schema of this graph manager.
*/
func (gm *Manager) Schema() *schema.Manager {
	return gm.sm
}

/*
Serializer returns the serializer of relation entries.
*/
func (gm *Manager) Serializer() *codec.EdgeSerializer {
	return gm.es
}

/*
Settings returns the limit settings of queries.
*/
func (gm *Manager) Settings() query.Settings {
	return gm.settings
}

/*
SetSettings sets the limit settings of queries.
*/
func (gm *Manager) SetSettings(settings query.Settings) {
	gm.mutex.Lock()
	defer gm.mutex.Unlock()

	gm.settings = settings
	gm.processor = query.NewProcessor(settings, gm.sm)
}

/*
queryEngine returns the current settings and processor of queries.
*/
func (gm *Manager) queryEngine() (query.Settings, *query.Processor) {
	gm.mutex.RLock()
	defer gm.mutex.RUnlock()

	return gm.settings, gm.processor
}

/*
SetGraphRule sets a GraphRule.
*/
func (gm *Manager) SetGraphRule(rule Rule) {
	gm.gr.SetGraphRule(rule)
}

/*
GraphRules returns a list of all available graph rules.
*/
func (gm *Manager) GraphRules() []string {
	return gm.gr.GraphRules()
}

/*
LoadDefinitions applies YAML type definitions to the schema and writes the
schema to the store.
*/
func (gm *Manager) LoadDefinitions(ctx context.Context, defs []byte) error {
	if err := gm.sm.LoadDefinitions(defs); err != nil {
		return err
	}

	return gm.SaveSchema(ctx)
}

/*
SaveSchema writes the schema to the store if it has changed.
*/
func (gm *Manager) SaveSchema(ctx context.Context) error {
	gm.mutex.Lock()
	defer gm.mutex.Unlock()

	mutations := make(map[string]*storage.KeyMutation)

	version, err := gm.schemaMutation(mutations)

	if err == nil && len(mutations) > 0 {
		if err = gm.store.MutateMany(ctx, mutations); err != nil {
			err = util.WrapGraphError(util.ErrWriting, err)
		}
	}

	if err == nil {
		gm.schemaVersion = version
	}

	return err
}

/*
Close closes the store of this graph manager.
*/
func (gm *Manager) Close() error {
	gm.mutex.Lock()
	defer gm.mutex.Unlock()

	if err := gm.store.Close(); err != nil {
		return util.WrapGraphError(util.ErrClosing, err)
	}

	return nil
}

/*
String returns a string representation of this graph manager.
*/
func (gm *Manager) String() string {
	return fmt.Sprintf("%v (types:%v vertices:%v relations:%v)", gm.Name(),
		len(gm.sm.Types()), gm.vertexIDs.current(), gm.relationIDs.current())
}
