/*
 * EliasDB
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package schema

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"devt.de/krotik/relgraph/graph/util"
)

/*
TypePolicy defines how unknown relation types are handled on writes.
*/
type TypePolicy int

/*
Known type policies
*/
const (
	PolicyStrict TypePolicy = iota // Unknown types are an error
	PolicyCreate                   // Unknown types are created with default settings
)

/*
ParseTypePolicy parses a type policy string. The "ignore" policy is strict
for writes and ignores unknown types in queries.
*/
func ParseTypePolicy(s string) (TypePolicy, bool, error) {
	switch strings.ToLower(s) {
	case "strict", "":
		return PolicyStrict, false, nil
	case "ignore":
		return PolicyStrict, true, nil
	case "create":
		return PolicyCreate, false, nil
	}
	return PolicyStrict, false, fmt.Errorf("Unknown type policy: %v", s)
}

/*
Manager data structure
*/
type Manager struct {
	names   *util.NamesManager      // Names manager for type ids
	types   map[uint64]RelationType // Types by id
	byName  map[string]RelationType // Types by name
	mutex   *sync.RWMutex           // Mutex to protect the type maps
	version uint64                  // Version counter which changes with every new type

	Policy                    TypePolicy // Policy for unknown types on writes
	IgnoreUndefinedQueryTypes bool       // Flag if unknown types in queries are ignored
}

/*
NewManager creates a new schema manager. The given name database holds the
persisted type ids.
*/
func NewManager(nameDB map[string]string) *Manager {
	m := &Manager{util.NewNamesManager(nameDB), make(map[uint64]RelationType),
		make(map[string]RelationType), &sync.RWMutex{}, 0, PolicyStrict, false}

	for _, sk := range systemKeys {
		m.types[sk.id] = sk
		m.byName[sk.name] = sk
	}

	return m
}

/*
NameDB returns a copy of the name database.
*/
func (m *Manager) NameDB() map[string]string {
	return m.names.NameDB()
}

/*
Version returns a counter which changes with every schema change.
*/
func (m *Manager) Version() uint64 {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	return m.version
}

/*
Type returns a relation type by name or nil if the type is unknown.
*/
func (m *Manager) Type(name string) RelationType {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	return m.byName[name]
}

/*
TypeByID returns a relation type by id or nil if the type is unknown.
*/
func (m *Manager) TypeByID(id uint64) RelationType {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	return m.types[id]
}

/*
PropertyKey returns a property key by name or nil.
*/
func (m *Manager) PropertyKey(name string) *PropertyKey {
	pk, _ := m.Type(name).(*PropertyKey)
	return pk
}

/*
EdgeLabel returns an edge label by name or nil.
*/
func (m *Manager) EdgeLabel(name string) *EdgeLabel {
	el, _ := m.Type(name).(*EdgeLabel)
	return el
}

/*
Types returns all non-system types ordered by id.
*/
func (m *Manager) Types() []RelationType {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var res []RelationType

	for _, t := range m.types {
		if !t.IsSystem() {
			res = append(res, t)
		}
	}

	sort.Slice(res, func(i, j int) bool {
		return res[i].ID() < res[j].ID()
	})

	return res
}

/*
GetOrCreatePropertyKey returns a property key. Unknown keys are created with
default settings if the type policy allows it.
*/
func (m *Manager) GetOrCreatePropertyKey(name string) (*PropertyKey, error) {
	t := m.Type(name)

	if t == nil {
		if m.Policy != PolicyCreate {
			return nil, util.NewGraphError(util.ErrUnknownType, "Property key %v", name)
		}

		pk, err := m.MakePropertyKey(name).Make()
		if err == nil || m.PropertyKey(name) == nil {
			return pk, err
		}

		t = m.Type(name)
	}

	if pk, ok := t.(*PropertyKey); ok {
		return pk, nil
	}

	return nil, util.NewGraphError(util.ErrSchema, "%v is not a property key", name)
}

/*
GetOrCreateEdgeLabel returns an edge label. Unknown labels are created with
default settings if the type policy allows it.
*/
func (m *Manager) GetOrCreateEdgeLabel(name string) (*EdgeLabel, error) {
	t := m.Type(name)

	if t == nil {
		if m.Policy != PolicyCreate {
			return nil, util.NewGraphError(util.ErrUnknownType, "Edge label %v", name)
		}

		el, err := m.MakeEdgeLabel(name).Make()
		if err == nil || m.EdgeLabel(name) == nil {
			return el, err
		}

		t = m.Type(name)
	}

	if el, ok := t.(*EdgeLabel); ok {
		return el, nil
	}

	return nil, util.NewGraphError(util.ErrSchema, "%v is not an edge label", name)
}

/*
register adds a new type. Expects the write lock to be held.
*/
func (m *Manager) register(t RelationType) {
	m.types[t.ID()] = t
	m.byName[t.Name()] = t
	m.version++
}

/*
checkName checks that a name can be used for a new type. Expects a lock to
be held.
*/
func (m *Manager) checkName(name string) error {
	if name == "" || strings.HasPrefix(name, "~") {
		return util.NewGraphError(util.ErrSchema, "Invalid type name: %q", name)
	}
	if _, ok := m.byName[name]; ok {
		return util.NewGraphError(util.ErrSchema, "Type %v already exists", name)
	}
	return nil
}

/*
resolveSortKey resolves the names of sort key columns. Expects a lock to be
held.
*/
func (m *Manager) resolveSortKey(typeName string, names []string) ([]uint64, error) {
	var res []uint64

	seen := make(map[uint64]bool)

	for _, n := range names {
		pk, ok := m.byName[n].(*PropertyKey)

		if !ok {
			return nil, util.NewGraphError(util.ErrSchema,
				"Sort key %v of %v is not a property key", n, typeName)
		} else if pk.cardinality != Single {
			return nil, util.NewGraphError(util.ErrSchema,
				"Sort key %v of %v must have cardinality SINGLE", n, typeName)
		} else if seen[pk.id] {
			return nil, util.NewGraphError(util.ErrSchema,
				"Sort key %v of %v is used more than once", n, typeName)
		}

		seen[pk.id] = true
		res = append(res, pk.id)
	}

	return res, nil
}

/*
PropertyKeyMaker builds a new property key.
*/
type PropertyKeyMaker struct {
	m           *Manager
	name        string
	dataType    DataType
	cardinality Cardinality
	consistency ConsistencyModifier
	sortKey     []string
	sortOrder   Order
}

/*
MakePropertyKey returns a maker for a new property key.
*/
func (m *Manager) MakePropertyKey(name string) *PropertyKeyMaker {
	return &PropertyKeyMaker{m: m, name: name}
}

/*
DataType sets the data type of the new key.
*/
func (pm *PropertyKeyMaker) DataType(dt DataType) *PropertyKeyMaker {
	pm.dataType = dt
	return pm
}

/*
Cardinality sets the cardinality of the new key.
*/
func (pm *PropertyKeyMaker) Cardinality(c Cardinality) *PropertyKeyMaker {
	pm.cardinality = c
	return pm
}

/*
Consistency sets the consistency modifier of the new key.
*/
func (pm *PropertyKeyMaker) Consistency(c ConsistencyModifier) *PropertyKeyMaker {
	pm.consistency = c
	return pm
}

/*
SortKey sets the sort key of the new key (ordering of multiple values).
*/
func (pm *PropertyKeyMaker) SortKey(order Order, keys ...string) *PropertyKeyMaker {
	pm.sortOrder = order
	pm.sortKey = keys
	return pm
}

/*
Make creates the new key.
*/
func (pm *PropertyKeyMaker) Make() (*PropertyKey, error) {
	m := pm.m

	m.mutex.Lock()
	defer m.mutex.Unlock()

	if err := m.checkName(pm.name); err != nil {
		return nil, err
	}

	if pm.dataType == TypeVertex {
		return nil, util.NewGraphError(util.ErrSchema, "Invalid data type for %v", pm.name)
	}

	sortKey, err := m.resolveSortKey(pm.name, pm.sortKey)
	if err != nil {
		return nil, err
	}

	pk := &PropertyKey{typeDef{
		id:           m.names.Encode(pm.name, true),
		name:         pm.name,
		category:     CategoryProperty,
		sortKey:      sortKey,
		sortOrder:    pm.sortOrder,
		multiplicity: pm.cardinality.Multiplicity(),
		consistency:  pm.consistency,
	}, pm.dataType, pm.cardinality}

	m.register(pk)

	return pk, nil
}

/*
EdgeLabelMaker builds a new edge label.
*/
type EdgeLabelMaker struct {
	m            *Manager
	name         string
	multiplicity Multiplicity
	consistency  ConsistencyModifier
	sortKey      []string
	sortOrder    Order
}

/*
MakeEdgeLabel returns a maker for a new edge label.
*/
func (m *Manager) MakeEdgeLabel(name string) *EdgeLabelMaker {
	return &EdgeLabelMaker{m: m, name: name}
}

/*
Multiplicity sets the multiplicity of the new label.
*/
func (em *EdgeLabelMaker) Multiplicity(mult Multiplicity) *EdgeLabelMaker {
	em.multiplicity = mult
	return em
}

/*
Consistency sets the consistency modifier of the new label.
*/
func (em *EdgeLabelMaker) Consistency(c ConsistencyModifier) *EdgeLabelMaker {
	em.consistency = c
	return em
}

/*
SortKey sets the sort key of the new label.
*/
func (em *EdgeLabelMaker) SortKey(order Order, keys ...string) *EdgeLabelMaker {
	em.sortOrder = order
	em.sortKey = keys
	return em
}

/*
Make creates the new label.
*/
func (em *EdgeLabelMaker) Make() (*EdgeLabel, error) {
	m := em.m

	m.mutex.Lock()
	defer m.mutex.Unlock()

	if err := m.checkName(em.name); err != nil {
		return nil, err
	}

	sortKey, err := m.resolveSortKey(em.name, em.sortKey)
	if err != nil {
		return nil, err
	}

	el := &EdgeLabel{typeDef{
		id:           m.names.Encode(em.name, true),
		name:         em.name,
		category:     CategoryEdge,
		sortKey:      sortKey,
		sortOrder:    em.sortOrder,
		multiplicity: em.multiplicity,
		consistency:  em.consistency,
	}}

	m.register(el)

	return el, nil
}

/*
BuildIndex creates a new index variant of a property key or edge label. The
variant stores all relations of the base type in the given directions ordered
by the given sort key.
*/
func (m *Manager) BuildIndex(base RelationType, name string, dir Direction,
	order Order, sortKey ...string) (*RelationIndex, error) {

	m.mutex.Lock()
	defer m.mutex.Unlock()

	if err := m.checkName(name); err != nil {
		return nil, err
	}

	var indexes *[]*RelationIndex

	switch t := base.(type) {
	case *PropertyKey:
		indexes = &t.indexes
		dir = Out
	case *EdgeLabel:
		indexes = &t.indexes
	default:
		return nil, util.NewGraphError(util.ErrSchema, "Cannot index %v", base.Name())
	}

	if m.types[base.ID()] != base {
		return nil, util.NewGraphError(util.ErrSchema, "Unknown base type %v", base.Name())
	}

	if len(sortKey) == 0 {
		return nil, util.NewGraphError(util.ErrSchema, "Index %v needs a sort key", name)
	}

	ids, err := m.resolveSortKey(name, sortKey)
	if err != nil {
		return nil, err
	}

	for _, id := range ids {
		if id == base.ID() {
			return nil, util.NewGraphError(util.ErrSchema, "Index %v cannot be sorted by its own key", name)
		}
	}

	ri := &RelationIndex{typeDef{
		id:           m.names.Encode(name, true),
		name:         name,
		category:     base.Category(),
		sortKey:      ids,
		sortOrder:    order,
		multiplicity: base.Multiplicity(),
		consistency:  base.Consistency(),
	}, base, dir}

	*indexes = append(*indexes, ri)

	m.register(ri)

	return ri, nil
}
