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
Package util contains utility classes for the graph storage.

GraphError

Models a graph related error. Low-level errors should be wrapped in a GraphError
before they are returned to a client. Errors can be compared with errors.Is
against the Type sentinels below.

NamesManager

Manages the names of relation types. Each stored name gets a 64 bit number
assigned which is used as the type id inside entry columns. The manager
provides functions to lookup either the names or their numbers.
*/
package util

import (
	"errors"
	"fmt"
)

/*
GraphError is a graph related error
*/
type GraphError struct {
	Type   error  // Error type (to be used for equal checks)
	Detail string // Details of this error
	Cause  error  // Underlying error (optional)
}

/*
Error returns a human-readable string representation of this error.
*/
func (ge *GraphError) Error() string {
	if ge.Detail != "" {
		return fmt.Sprintf("GraphError: %v (%v)", ge.Type, ge.Detail)
	}

	return fmt.Sprintf("GraphError: %v", ge.Type)
}

/*
Is reports if the error has a given type.
*/
func (ge *GraphError) Is(target error) bool {
	return ge.Type == target
}

/*
Unwrap returns the underlying error.
*/
func (ge *GraphError) Unwrap() error {
	return ge.Cause
}

/*
NewGraphError creates a new GraphError with a formatted detail message.
*/
func NewGraphError(errType error, format string, args ...interface{}) *GraphError {
	return &GraphError{Type: errType, Detail: fmt.Sprintf(format, args...)}
}

/*
WrapGraphError wraps a lower level error into a GraphError.
*/
func WrapGraphError(errType error, cause error) *GraphError {
	return &GraphError{Type: errType, Detail: cause.Error(), Cause: cause}
}

/*
Graph storage related error types
*/
var (
	ErrOpening           = errors.New("Failed to open graph storage")
	ErrStorage           = errors.New("Graph storage access failed")
	ErrClosing           = errors.New("Failed to close graph storage")
	ErrTransactionClosed = errors.New("Transaction is closed")
)

/*
Graph related error types
*/
var (
	ErrInvalidData  = errors.New("Invalid data")
	ErrInvalidQuery = errors.New("Invalid query")
	ErrUnknownType  = errors.New("Unknown relation type")
	ErrSchema       = errors.New("Invalid schema definition")
	ErrInvalidState = errors.New("Invalid state")
	ErrReading      = errors.New("Could not read graph information")
	ErrWriting      = errors.New("Could not write graph information")
	ErrRule         = errors.New("Graph rule error")
)
