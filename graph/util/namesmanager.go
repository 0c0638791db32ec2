/*
 * EliasDB
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package util

import (
	"encoding/binary"
	"sync"
)

/*
PrefixCode is the prefix for entries storing codes
*/
const PrefixCode = "\x00"

/*
PrefixName is the prefix for entries storing names
*/
const PrefixName = "\x01"

/*
PrefixCounter is the prefix for counter entries
*/
const PrefixCounter = "\x02"

/*
FirstCode is the first code which is handed out. Lower codes are reserved
for system types.
*/
const FirstCode = 64

/*
NamesManager data structure
*/
type NamesManager struct {
	nameDB map[string]string // Database storing names
	mutex  *sync.Mutex       // Mutex to protect the name database
}

/*
NewNamesManager creates a new names manager instance.
*/
func NewNamesManager(nameDB map[string]string) *NamesManager {
	return &NamesManager{nameDB, &sync.Mutex{}}
}

/*
NameDB returns the underlying name database.
*/
func (nm *NamesManager) NameDB() map[string]string {
	nm.mutex.Lock()
	defer nm.mutex.Unlock()

	res := make(map[string]string, len(nm.nameDB))
	for k, v := range nm.nameDB {
		res[k] = v
	}

	return res
}

/*
Encode encodes a given name as a 64 bit code. If the create flag is set to
false then a new entry will not be created if it does not exist and 0 is
returned.
*/
func (nm *NamesManager) Encode(name string, create bool) uint64 {
	nm.mutex.Lock()
	defer nm.mutex.Unlock()

	codekey := PrefixCode + name

	code, ok := nm.nameDB[codekey]

	// If the code doesn't exist yet create it

	if !ok {
		if !create {
			return 0
		}

		code = nm.newCode()

		nm.nameDB[codekey] = code
		nm.nameDB[PrefixName+code] = name
	}

	return binary.BigEndian.Uint64([]byte(code))
}

/*
Decode decodes a name from a code. Returns an empty string if the code is
unknown.
*/
func (nm *NamesManager) Decode(code uint64) string {
	nm.mutex.Lock()
	defer nm.mutex.Unlock()

	return nm.nameDB[PrefixName+codeString(code)]
}

/*
newCode generates a new 64 bit number for the names map.
*/
func (nm *NamesManager) newCode() string {
	var resnum uint64

	val, ok := nm.nameDB[PrefixCounter]
	if !ok {
		resnum = FirstCode
	} else {
		resnum = binary.BigEndian.Uint64([]byte(val)) + 1
	}

	res := codeString(resnum)

	// Write back

	nm.nameDB[PrefixCounter] = res

	return res
}

func codeString(code uint64) string {
	res := make([]byte, 8)
	binary.BigEndian.PutUint64(res, code)
	return string(res)
}
