/*
 * EliasDB
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package graphstorage

import (
	"os"

	"devt.de/krotik/common/fileutil"
	"devt.de/krotik/relgraph/graph/util"
	"devt.de/krotik/relgraph/storage"
	"devt.de/krotik/relgraph/storage/badgerstore"
)

/*
SyncWrites controls if disk stores acknowledge writes only after they were
synced.
*/
var SyncWrites = false

/*
NewDiskStorage opens a disk store in a given directory. The directory is
created if it does not exist.
*/
func NewDiskStorage(name string, location string) (storage.Store, error) {

	// Create the storage directory if it does not exist yet

	if res, _ := fileutil.PathExists(location); !res {
		if err := os.MkdirAll(location, 0770); err != nil {
			return nil, util.WrapGraphError(util.ErrOpening, err)
		}

	} else if isDir, _ := fileutil.IsDir(location); !isDir {
		return nil, util.NewGraphError(util.ErrOpening, "%v is not a directory", location)
	}

	store, err := badgerstore.New(name, badgerstore.Config{Path: location, SyncWrites: SyncWrites})
	if err != nil {
		return nil, util.WrapGraphError(util.ErrOpening, err)
	}

	return store, nil
}
