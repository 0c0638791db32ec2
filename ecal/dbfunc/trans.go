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
NewTransFunc creates a new transaction.
*/
type NewTransFunc struct {
	GM *graph.Manager
}

/*
Run executes the ECAL function.
*/
func (f *NewTransFunc) Run(instanceID string, vs parser.Scope, is map[string]interface{}, tid uint64, args []interface{}) (interface{}, error) {
	var err error

	if len(args) != 0 {
		err = fmt.Errorf("Function does not require any parameters")
	}

	return graph.NewGraphTrans(f.GM), err
}

/*
DocString returns a descriptive string.
*/
func (f *NewTransFunc) DocString() (string, error) {
	return "Creates a new transaction.", nil
}

/*
CommitTransFunc commits an existing transaction.
*/
type CommitTransFunc struct {
	GM *graph.Manager
}

/*
Run executes the ECAL function.
*/
func (f *CommitTransFunc) Run(instanceID string, vs parser.Scope, is map[string]interface{}, tid uint64, args []interface{}) (interface{}, error) {
	var err error

	if arglen := len(args); arglen != 1 {
		err = fmt.Errorf(
			"Function requires the transaction to commit as parameter")
	}

	if err == nil {
		var trans *graph.Trans

		if trans, err = transArg(args, 0); err == nil {
			err = trans.Commit(context.Background())
		}
	}

	return nil, err
}

/*
DocString returns a descriptive string.
*/
func (f *CommitTransFunc) DocString() (string, error) {
	return "Commits an existing transaction.", nil
}

/*
RollbackTransFunc discards all changes of an existing transaction.
*/
type RollbackTransFunc struct {
	GM *graph.Manager
}

/*
Run executes the ECAL function.
*/
func (f *RollbackTransFunc) Run(instanceID string, vs parser.Scope, is map[string]interface{}, tid uint64, args []interface{}) (interface{}, error) {
	var err error

	if arglen := len(args); arglen != 1 {
		err = fmt.Errorf(
			"Function requires the transaction to roll back as parameter")
	}

	if err == nil {
		var trans *graph.Trans

		if trans, err = transArg(args, 0); err == nil {
			err = trans.Rollback()
		}
	}

	return nil, err
}

/*
DocString returns a descriptive string.
*/
func (f *RollbackTransFunc) DocString() (string, error) {
	return "Discards all changes of an existing transaction.", nil
}
