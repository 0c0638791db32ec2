/*
 * EliasDB
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package ecal

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"devt.de/krotik/common/errorutil"
	"devt.de/krotik/common/fileutil"
	"devt.de/krotik/relgraph/config"
	"devt.de/krotik/relgraph/graph"
	"devt.de/krotik/relgraph/graph/util"
	"devt.de/krotik/relgraph/storage"
)

const testScriptDir = "testscripts"

const testDefinitions = `
properties:
  - name: name
    datatype: string
  - name: since
    datatype: int
edges:
  - name: knows
    multiplicity: multi
    sortkey: [since]
`

func TestMain(m *testing.M) {
	flag.Parse()

	defer func() {
		if res, _ := fileutil.PathExists(testScriptDir); res {
			if err := os.RemoveAll(testScriptDir); err != nil {
				fmt.Print("Could not remove test directory:", err.Error())
			}
		}
	}()

	if res, _ := fileutil.PathExists(testScriptDir); res {
		if err := os.RemoveAll(testScriptDir); err != nil {
			fmt.Print("Could not remove test directory:", err.Error())
		}
	}

	ensurePath(testScriptDir)

	config.LoadDefaultConfig()

	config.Config[config.EnableECALScripts] = true
	config.Config[config.ECALScriptFolder] = testScriptDir
	config.Config[config.ECALLogFile] = filepath.Join(testScriptDir, "interpreter.log")

	// Run the tests

	m.Run()
}

/*
ensurePath ensures that a given relative path exists.
*/
func ensurePath(path string) {
	if res, _ := fileutil.PathExists(path); !res {
		if err := os.Mkdir(path, 0770); err != nil {
			fmt.Print("Could not create directory:", err.Error())
			return
		}
	}
}

func newTestGraph(t *testing.T) *graph.Manager {
	gm, err := graph.NewGraphManager(context.Background(), storage.NewMemoryStore("test"))
	errorutil.AssertOk(err)
	errorutil.AssertOk(gm.LoadDefinitions(context.Background(), []byte(testDefinitions)))
	return gm
}

func writeScript(content string) {
	filename := filepath.Join(testScriptDir, config.Str(config.ECALEntryScript))
	err := os.WriteFile(
		filename,
		[]byte(content), 0600)
	errorutil.AssertOk(err)
	os.Remove(config.Str(config.ECALLogFile))
}

func readLog() string {
	content, err := os.ReadFile(config.Str(config.ECALLogFile))
	errorutil.AssertOk(err)
	return string(content)
}

func checkLog(expected string) error {
	var err error

	if logtext := readLog(); logtext != expected {
		err = fmt.Errorf("Unexpected log text:\n%v", logtext)
	}

	return err
}

func TestDebugInterpreter(t *testing.T) {

	config.Config[config.EnableECALDebugServer] = true
	defer func() {
		config.Config[config.EnableECALDebugServer] = false
		errorutil.AssertOk(os.Remove(config.Str(config.ECALLogFile)))

	}()

	gm := newTestGraph(t)

	ds := NewScriptingInterpreter(testScriptDir, gm)

	filename := filepath.Join(testScriptDir, config.Str(config.ECALEntryScript))
	os.Remove(filename)

	if err := ds.Run(); err != nil {
		t.Error("Unexpected result:", err)
		return
	}
}

func TestInterpreter(t *testing.T) {

	gm := newTestGraph(t)

	ds := NewScriptingInterpreter(testScriptDir, gm)

	// Test normal log output

	writeScript(`
log("test insert")
`)

	if err := ds.Run(); err != nil {
		t.Error("Unexpected result:", err)
		return
	}

	if err := checkLog(`test insert
`); err != nil {
		t.Error(err)
	}

	// Test stack trace

	writeScript(`
raise("some error")
`)

	if err := ds.Run(); err == nil || err.Error() != `ECAL error in relgraph-runtime (testscripts/main.ecal): some error () (Line:2 Pos:1)
  raise("some error") (testscripts/main.ecal:2)` {
		t.Error("Unexpected result:", err)
		return
	}

	// Test db functions

	writeScript(`
trans := db.newTrans()

v1 := db.addVertex(trans)
v2 := db.addVertex(trans)
v3 := db.addVertex(trans)

db.setProperty(trans, v1, "name", "Alice")
db.addEdge(trans, v1, "knows", v2, {"since" : 2010})
db.addEdge(trans, v1, "knows", v3, {"since" : 2005})

db.commit(trans)

trans := db.newTrans()

log("first: ", db.neighbors(trans, v1, {"labels" : ["knows"], "direction" : "out"})[0])
log("name: ", db.values(trans, v1, "name")[0])
log("count: ", db.count(trans, v1))
`)

	// The store statements should trigger the triggerCheck shortcut in the eventbridge
	// because no rules are defined to handle the events.

	if err := ds.Run(); err != nil {
		t.Error("Unexpected result:", err)
		return
	}

	if err := checkLog(`first: 3
name: Alice
count: 3
`); err != nil {
		t.Error(err)
	}
}

func TestEvents(t *testing.T) {
	ctx := context.Background()

	gm := newTestGraph(t)

	ds := NewScriptingInterpreter(testScriptDir, gm)

	writeScript(`
sink mysink
  kindmatch [ "db.*.*" ],
{
  log("Got event: ", event.kind)
  if event.kind == "db.relation.added" {
    if event.state.category == "property" {
      if event.state.relation.value == "Mallory" {
        raise("Forbidden name")
      }
    }
  }
  if event.kind == "db.vertex.removed" {
    db.raiseGraphEventHandled()
  }
}
`)

	if err := ds.Run(); err != nil {
		t.Error("Unexpected result:", err)
		return
	}

	tx := graph.NewGraphTrans(gm)

	v, err := tx.AddVertex(ctx)
	errorutil.AssertOk(err)

	if err := checkLog(`Got event: db.vertex.created
`); err != nil {
		t.Error(err)
	}

	if _, err := v.SetProperty(ctx, "name", "Alice"); err != nil {
		t.Error("Unexpected result:", err)
		return
	}

	// Raising an error in a sink fails the operation

	_, err = v.SetProperty(ctx, "name", "Mallory")

	if !errors.Is(err, util.ErrRule) || !strings.Contains(err.Error(), "Forbidden name") {
		t.Error("Unexpected result:", err)
		return
	}

	// Handled events are not errors

	if err := v.Remove(ctx); err != nil {
		t.Error("Unexpected result:", err)
		return
	}

	if res := readLog(); !strings.Contains(res, "Got event: db.vertex.removed") {
		t.Error("Unexpected log:", res)
		return
	}

	// Commit events carry the number of written rows

	tx = graph.NewGraphTrans(gm)

	tx.AddVertex(ctx)

	if err := tx.Commit(ctx); err != nil {
		t.Error("Unexpected result:", err)
		return
	}

	if res := readLog(); !strings.Contains(res, "Got event: db.trans.committed") {
		t.Error("Unexpected log:", res)
		return
	}
}
