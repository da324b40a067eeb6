// Copyright 2025 go-highway Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package reg

import (
	"sort"

	"tlog.app/go/errors"
)

// Tracker errors.
var (
	ErrUnknownClass = errors.New("unknown register class")
	ErrDuplicate    = errors.New("duplicate")
	ErrExhausted    = errors.New("register pool exhausted")
	ErrBusy         = errors.New("register busy")
	ErrOutOfRange   = errors.New("out of range")
	ErrNotReserved  = errors.New("register not reserved")
)

type pool struct {
	max int

	withheld  Set
	used      Set
	clobbered Set

	alias map[string]int
	named map[int]string
}

// Tracker hands out register indices per class and records which registers an
// emission touches.
//
// Invariants, per class: used is a subset of clobbered, clobbered is a subset
// of [0, max), and every alias names a used index.
//
// A Tracker spans one emission and is not safe for concurrent use.
type Tracker struct {
	pools map[Class]*pool
	order []Class
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{pools: make(map[Class]*pool)}
}

// AddClass registers class c with indices [0, max).
func (t *Tracker) AddClass(c Class, max int) error {
	if _, ok := t.pools[c]; ok {
		return errors.Wrap(ErrDuplicate, "add class %v", c)
	}
	if max < 0 {
		return errors.Wrap(ErrOutOfRange, "add class %v: max %d", c, max)
	}

	t.pools[c] = &pool{
		max:   max,
		alias: make(map[string]int),
		named: make(map[int]string),
	}
	t.order = append(t.order, c)

	return nil
}

// Withhold removes indices from the ReserveAny pool without marking them used.
// Withheld registers (stack pointer, platform and scratch registers) can still
// be taken with ReserveSpecific.
func (t *Tracker) Withhold(c Class, idx ...int) error {
	p, err := t.pool(c)
	if err != nil {
		return err
	}

	for _, i := range idx {
		if i < 0 || i >= p.max {
			return errors.Wrap(ErrOutOfRange, "withhold %v%d", c, i)
		}
		p.withheld.Add(i)
	}

	return nil
}

// ReserveAny reserves the lowest free index of class c.
func (t *Tracker) ReserveAny(c Class) (Reg, error) {
	p, err := t.pool(c)
	if err != nil {
		return Reg{}, err
	}

	for i := 0; i < p.max; i++ {
		if p.used.Has(i) || p.withheld.Has(i) {
			continue
		}

		p.used.Add(i)
		p.clobbered.Add(i)

		return Reg{Class: c, Idx: i}, nil
	}

	return Reg{}, errors.Wrap(ErrExhausted, "reserve %v", c)
}

// ReserveSpecific reserves index idx of class c.
func (t *Tracker) ReserveSpecific(c Class, idx int) (Reg, error) {
	p, err := t.pool(c)
	if err != nil {
		return Reg{}, err
	}

	if idx < 0 || idx >= p.max {
		return Reg{}, errors.Wrap(ErrOutOfRange, "reserve %v%d: max %d", c, idx, p.max)
	}
	if p.used.Has(idx) {
		return Reg{}, errors.Wrap(ErrBusy, "reserve %v%d", c, idx)
	}

	p.used.Add(idx)
	p.clobbered.Add(idx)

	return Reg{Class: c, Idx: idx}, nil
}

// Clobber records that idx is overwritten without reserving it.
func (t *Tracker) Clobber(c Class, idx int) error {
	p, err := t.pool(c)
	if err != nil {
		return err
	}

	if idx < 0 || idx >= p.max {
		return errors.Wrap(ErrOutOfRange, "clobber %v%d", c, idx)
	}

	p.clobbered.Add(idx)

	return nil
}

// Alias names a reserved register.
func (t *Tracker) Alias(c Class, name string, idx int) error {
	p, err := t.pool(c)
	if err != nil {
		return err
	}

	if !p.used.Has(idx) {
		return errors.Wrap(ErrNotReserved, "alias %q to %v%d", name, c, idx)
	}
	if old, ok := p.alias[name]; ok {
		return errors.Wrap(ErrDuplicate, "alias %q: already names %v%d", name, c, old)
	}
	if old, ok := p.named[idx]; ok {
		return errors.Wrap(ErrDuplicate, "alias %q: %v%d is already %q", name, c, idx, old)
	}

	p.alias[name] = idx
	p.named[idx] = name

	return nil
}

// Lookup returns the register aliased as name.
func (t *Tracker) Lookup(c Class, name string) (Reg, bool) {
	p, ok := t.pools[c]
	if !ok {
		return Reg{}, false
	}

	idx, ok := p.alias[name]
	if !ok {
		return Reg{}, false
	}

	return Reg{Class: c, Idx: idx}, true
}

// Release returns r to its pool and drops its alias. Releasing a free
// register or a Param handle does nothing.
func (t *Tracker) Release(r Reg) {
	p, ok := t.pools[r.Class]
	if !ok {
		return
	}

	p.used.Remove(r.Idx)

	if name, ok := p.named[r.Idx]; ok {
		delete(p.named, r.Idx)
		delete(p.alias, name)
	}
}

// Reset clears used and clobbered registers and all aliases.
// Classes, their sizes and withheld registers are kept.
func (t *Tracker) Reset() {
	for _, p := range t.pools {
		p.used.Reset()
		p.clobbered.Reset()

		clear(p.alias)
		clear(p.named)
	}
}

// Used returns the reserved indices of c in increasing order.
func (t *Tracker) Used(c Class) []int {
	p, ok := t.pools[c]
	if !ok {
		return nil
	}
	return p.used.Slice()
}

// Clobbered returns every index of c touched since the last Reset, in
// increasing order.
func (t *Tracker) Clobbered(c Class) []int {
	p, ok := t.pools[c]
	if !ok {
		return nil
	}
	return p.clobbered.Slice()
}

// UsedSet returns a copy of the reserved set of c.
func (t *Tracker) UsedSet(c Class) Set {
	p, ok := t.pools[c]
	if !ok {
		return Set{}
	}
	return p.used.Copy()
}

// Aliases returns the alias names of c, sorted.
func (t *Tracker) Aliases(c Class) []string {
	p, ok := t.pools[c]
	if !ok {
		return nil
	}

	names := make([]string, 0, len(p.alias))
	for n := range p.alias {
		names = append(names, n)
	}
	sort.Strings(names)

	return names
}

// Max returns the size of class c, or 0 if c is not registered.
func (t *Tracker) Max(c Class) int {
	p, ok := t.pools[c]
	if !ok {
		return 0
	}
	return p.max
}

// Has reports whether c is registered.
func (t *Tracker) Has(c Class) bool {
	_, ok := t.pools[c]
	return ok
}

// Classes returns the registered classes in registration order.
func (t *Tracker) Classes() []Class {
	return append([]Class(nil), t.order...)
}

func (t *Tracker) pool(c Class) (*pool, error) {
	p, ok := t.pools[c]
	if !ok {
		return nil, errors.Wrap(ErrUnknownClass, "%v", c)
	}
	return p, nil
}
