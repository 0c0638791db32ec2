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
	"devt.de/krotik/relgraph/graph/util"
	"gopkg.in/yaml.v3"
)

/*
Definitions is the serialisable form of a schema.
*/
type Definitions struct {
	Properties []PropertyDefinition `yaml:"properties,omitempty"`
	Edges      []EdgeDefinition     `yaml:"edges,omitempty"`
	Indexes    []IndexDefinition    `yaml:"indexes,omitempty"`
}

/*
PropertyDefinition defines a property key.
*/
type PropertyDefinition struct {
	Name        string   `yaml:"name"`
	DataType    string   `yaml:"datatype,omitempty"`
	Cardinality string   `yaml:"cardinality,omitempty"`
	Consistency string   `yaml:"consistency,omitempty"`
	SortKey     []string `yaml:"sortkey,omitempty"`
	SortOrder   string   `yaml:"sortorder,omitempty"`
}

/*
EdgeDefinition defines an edge label.
*/
type EdgeDefinition struct {
	Name         string   `yaml:"name"`
	Multiplicity string   `yaml:"multiplicity,omitempty"`
	Consistency  string   `yaml:"consistency,omitempty"`
	SortKey      []string `yaml:"sortkey,omitempty"`
	SortOrder    string   `yaml:"sortorder,omitempty"`
}

/*
IndexDefinition defines an index variant.
*/
type IndexDefinition struct {
	Name      string   `yaml:"name"`
	Base      string   `yaml:"base"`
	Direction string   `yaml:"direction,omitempty"`
	SortKey   []string `yaml:"sortkey"`
	SortOrder string   `yaml:"sortorder,omitempty"`
}

/*
ParseDefinitions parses schema definitions from YAML.
*/
func ParseDefinitions(data []byte) (*Definitions, error) {
	defs := &Definitions{}

	if err := yaml.Unmarshal(data, defs); err != nil {
		return nil, util.WrapGraphError(util.ErrSchema, err)
	}

	return defs, nil
}

/*
LoadDefinitions parses schema definitions from YAML and applies them.
*/
func (m *Manager) LoadDefinitions(data []byte) error {
	defs, err := ParseDefinitions(data)
	if err == nil {
		err = m.Apply(defs)
	}
	return err
}

/*
Apply creates all types of the given definitions. Types which exist already
must match their definition.
*/
func (m *Manager) Apply(defs *Definitions) error {

	// Properties are created first since they are used in sort keys. Sort
	// keys can only refer to previously defined keys.

	for _, pd := range defs.Properties {
		dt, err := ParseDataType(pd.DataType)
		if err != nil {
			return util.WrapGraphError(util.ErrSchema, err)
		}
		card, err := ParseCardinality(pd.Cardinality)
		if err != nil {
			return util.WrapGraphError(util.ErrSchema, err)
		}
		cons, err := ParseConsistency(pd.Consistency)
		if err != nil {
			return util.WrapGraphError(util.ErrSchema, err)
		}
		order, err := ParseOrder(pd.SortOrder)
		if err != nil {
			return util.WrapGraphError(util.ErrSchema, err)
		}

		if existing := m.Type(pd.Name); existing != nil {
			pk, ok := existing.(*PropertyKey)
			if !ok || pk.dataType != dt || pk.cardinality != card || pk.consistency != cons {
				return util.NewGraphError(util.ErrSchema, "Conflicting definition of %v", pd.Name)
			}
			continue
		}

		if _, err := m.MakePropertyKey(pd.Name).DataType(dt).Cardinality(card).
			Consistency(cons).SortKey(order, pd.SortKey...).Make(); err != nil {
			return err
		}
	}

	for _, ed := range defs.Edges {
		mult, err := ParseMultiplicity(ed.Multiplicity)
		if err != nil {
			return util.WrapGraphError(util.ErrSchema, err)
		}
		cons, err := ParseConsistency(ed.Consistency)
		if err != nil {
			return util.WrapGraphError(util.ErrSchema, err)
		}
		order, err := ParseOrder(ed.SortOrder)
		if err != nil {
			return util.WrapGraphError(util.ErrSchema, err)
		}

		if existing := m.Type(ed.Name); existing != nil {
			el, ok := existing.(*EdgeLabel)
			if !ok || el.multiplicity != mult || el.consistency != cons {
				return util.NewGraphError(util.ErrSchema, "Conflicting definition of %v", ed.Name)
			}
			continue
		}

		if _, err := m.MakeEdgeLabel(ed.Name).Multiplicity(mult).Consistency(cons).
			SortKey(order, ed.SortKey...).Make(); err != nil {
			return err
		}
	}

	for _, id := range defs.Indexes {
		dir, err := ParseDirection(id.Direction)
		if err != nil {
			return util.WrapGraphError(util.ErrSchema, err)
		}
		order, err := ParseOrder(id.SortOrder)
		if err != nil {
			return util.WrapGraphError(util.ErrSchema, err)
		}

		if existing := m.Type(id.Name); existing != nil {
			if ri, ok := existing.(*RelationIndex); !ok || ri.base.Name() != id.Base {
				return util.NewGraphError(util.ErrSchema, "Conflicting definition of %v", id.Name)
			}
			continue
		}

		base := m.Type(id.Base)
		if base == nil {
			return util.NewGraphError(util.ErrSchema, "Unknown base type %v of index %v", id.Base, id.Name)
		}

		if _, err := m.BuildIndex(base, id.Name, dir, order, id.SortKey...); err != nil {
			return err
		}
	}

	return nil
}

/*
Definitions returns the definitions of all types of this schema.
*/
func (m *Manager) Definitions() *Definitions {
	defs := &Definitions{}

	names := func(ids []uint64) []string {
		var res []string
		for _, id := range ids {
			res = append(res, m.TypeByID(id).Name())
		}
		return res
	}

	order := func(sortKey []uint64, o Order) string {
		if len(sortKey) == 0 {
			return ""
		}
		return o.String()
	}

	for _, t := range m.Types() {
		switch tt := t.(type) {

		case *PropertyKey:
			defs.Properties = append(defs.Properties, PropertyDefinition{
				Name:        tt.name,
				DataType:    tt.dataType.String(),
				Cardinality: tt.cardinality.String(),
				Consistency: tt.consistency.String(),
				SortKey:     names(tt.sortKey),
				SortOrder:   order(tt.sortKey, tt.sortOrder),
			})

		case *EdgeLabel:
			defs.Edges = append(defs.Edges, EdgeDefinition{
				Name:         tt.name,
				Multiplicity: tt.multiplicity.String(),
				Consistency:  tt.consistency.String(),
				SortKey:      names(tt.sortKey),
				SortOrder:    order(tt.sortKey, tt.sortOrder),
			})

		case *RelationIndex:
			defs.Indexes = append(defs.Indexes, IndexDefinition{
				Name:      tt.name,
				Base:      tt.base.Name(),
				Direction: tt.direction.String(),
				SortKey:   names(tt.sortKey),
				SortOrder: tt.sortOrder.String(),
			})
		}
	}

	return defs
}

/*
MarshalDefinitions returns the definitions of all types as YAML.
*/
func (m *Manager) MarshalDefinitions() ([]byte, error) {
	return yaml.Marshal(m.Definitions())
}
