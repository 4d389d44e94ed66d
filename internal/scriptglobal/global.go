// Package scriptglobal implements ScriptGlobal: the process-wide
// string-keyed mapping of top-level names to Values, plus the ambient YAML
// bootstrap loader and the optional sqlite audit journal.
package scriptglobal

import (
	"sync"

	"github.com/opsmonitor/scriptengine/internal/imports"
	"github.com/opsmonitor/scriptengine/internal/scriptvalue"
)

// Global is the process-wide top-level namespace table. There is exactly
// one live instance per process (see Default), but the type itself is not
// a singleton so tests can construct isolated instances.
type Global struct {
	mu      sync.RWMutex
	dict    *scriptvalue.Dictionary
	journal *Journal
}

func New() *Global {
	return &Global{dict: scriptvalue.NewDictionary()}
}

var defaultOnce sync.Once
var defaultGlobal *Global

// Default returns the process-wide Global, created on first use with the
// base namespaces System, Types, Deprecated already present, each also
// appended to the import chain.
func Default() *Global {
	defaultOnce.Do(func() {
		defaultGlobal = New()
		for _, ns := range []string{"System", "Types", "Deprecated"} {
			d := scriptvalue.NewDictionary()
			defaultGlobal.Set(ns, scriptvalue.FromObject(d))
			imports.Add(d)
		}
	})
	return defaultGlobal
}

// Has reports whether key is bound.
func (g *Global) Has(key string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.dict.Has(key)
}

// Get returns the Value bound to key.
func (g *Global) Get(key string) (scriptvalue.Value, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.dict.Get(key)
}

// Set assigns key := value, appending an audit row to the attached journal
// if any (reads are never journaled).
func (g *Global) Set(key string, value scriptvalue.Value) {
	g.mu.Lock()
	g.dict.Set(key, value)
	g.mu.Unlock()
	if j := g.Journal(); j != nil {
		j.Record(key, value)
	}
}

// AsValue returns the globals table itself wrapped as a Value, the object
// a bare ScriptFrame's self defaults to.
func (g *Global) AsValue() scriptvalue.Value {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return scriptvalue.FromObject(g.dict)
}

// AttachJournal installs (or removes, with nil) the audit journal.
func (g *Global) AttachJournal(j *Journal) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.journal = j
}

func (g *Global) Journal() *Journal {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.journal
}
