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

package asm

import (
	"sort"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"tlog.app/go/errors"

	"github.com/ajroetker/hwyasm/asm/reg"
)

// ABI describes a calling convention. It is never modified after construction.
type ABI struct {
	Name        string
	PointerSize int
	// StackAlign is the granularity stack adjustments are rounded up to.
	StackAlign int
	// StackArgBase is the offset of the first stack-passed argument from the
	// stack pointer at function entry.
	StackArgBase int

	Params     map[reg.Class][]int
	CallerSave map[reg.Class][]int
	CalleeSave map[reg.Class][]int
}

// ParamSpec is a logical parameter: its register class and name.
type ParamSpec struct {
	Class reg.Class
	Name  string
}

// Location is where a parameter arrives: a register, or a stack slot at
// Offset bytes from the stack pointer at entry.
type Location struct {
	Name   string
	Class  reg.Class
	Reg    reg.Reg
	Stack  bool
	Offset int
}

func (l Location) String() string {
	if l.Stack {
		return l.Name + "@sp+" + strconv.Itoa(l.Offset)
	}
	return l.Name + "@" + l.Reg.String()
}

// Locate assigns locations to params in declaration order.
func (a *ABI) Locate(params []ParamSpec) []Location {
	next := make(map[reg.Class]int)
	off := a.StackArgBase

	out := make([]Location, 0, len(params))

	for _, p := range params {
		pool := a.Params[p.Class]

		i := next[p.Class]
		if i < len(pool) {
			next[p.Class] = i + 1
			out = append(out, Location{Name: p.Name, Class: p.Class, Reg: reg.Reg{Class: p.Class, Idx: pool[i]}})
			continue
		}

		out = append(out, Location{Name: p.Name, Class: p.Class, Stack: true, Offset: off})
		off += a.PointerSize
	}

	return out
}

// IsCallerSave reports whether r must be preserved by a caller across calls.
func (a *ABI) IsCallerSave(r reg.Reg) bool {
	return lo.Contains(a.CallerSave[r.Class], r.Idx)
}

// IsCalleeSave reports whether a function must preserve r for its caller.
func (a *ABI) IsCalleeSave(r reg.Reg) bool {
	return lo.Contains(a.CalleeSave[r.Class], r.Idx)
}

// RegSet is a set of register indices per class.
type RegSet map[reg.Class][]int

// UsedRegs returns the registers rt holds reserved.
func UsedRegs(rt *reg.Tracker) RegSet {
	s := make(RegSet)
	for _, c := range rt.Classes() {
		s[c] = rt.Used(c)
	}
	return s
}

// ClobberedRegs returns every register rt saw clobbered.
func ClobberedRegs(rt *reg.Tracker) RegSet {
	s := make(RegSet)
	for _, c := range rt.Classes() {
		s[c] = rt.Clobbered(c)
	}
	return s
}

type slot struct {
	r   reg.Reg
	off int
}

type frame struct {
	size  int
	slots []slot
}

// CallingConvention maps the parameters of one emission and brackets calls
// and returns with register saves.
type CallingConvention struct {
	abi *ABI
	f   Framer

	next     map[reg.Class]int
	stackOff int
	params   []Location

	growth int

	call []frame
	ret  []frame
}

// NewCallingConvention returns an empty parameter list for abi, emitting
// stack traffic through f.
func NewCallingConvention(abi *ABI, f Framer) *CallingConvention {
	return &CallingConvention{
		abi:      abi,
		f:        f,
		next:     make(map[reg.Class]int),
		stackOff: abi.StackArgBase,
	}
}

func (cc *CallingConvention) ABI() *ABI { return cc.abi }

// AddParam assigns the next location of class c to name. It agrees with Locate.
func (cc *CallingConvention) AddParam(c reg.Class, name string) Location {
	var l Location

	pool := cc.abi.Params[c]

	if i := cc.next[c]; i < len(pool) {
		cc.next[c] = i + 1
		l = Location{Name: name, Class: c, Reg: reg.Reg{Class: c, Idx: pool[i]}}
	} else {
		l = Location{Name: name, Class: c, Stack: true, Offset: cc.stackOff}
		cc.stackOff += cc.abi.PointerSize
	}

	cc.params = append(cc.params, l)

	return l
}

// Param returns the location of a parameter added earlier.
func (cc *CallingConvention) Param(name string) (Location, bool) {
	for _, l := range cc.params {
		if l.Name == name {
			return l, true
		}
	}
	return Location{}, false
}

// Params returns every parameter in declaration order.
func (cc *CallingConvention) Params() []Location {
	return append([]Location(nil), cc.params...)
}

// StackGrowth returns the bytes currently allocated by unmatched saves.
func (cc *CallingConvention) StackGrowth() int { return cc.growth }

// SaveBeforeCall stores the caller-save registers among used.
func (cc *CallingConvention) SaveBeforeCall(used RegSet) (string, error) {
	fr, s, err := cc.save(used, cc.abi.CallerSave)
	if err != nil {
		return "", errors.Wrap(err, "save before call")
	}

	cc.call = append(cc.call, fr)

	return s, nil
}

// RestoreAfterCall reverses the last SaveBeforeCall.
func (cc *CallingConvention) RestoreAfterCall() (string, error) {
	if len(cc.call) == 0 {
		return "", errors.Wrap(ErrUnbalanced, "restore after call")
	}

	fr := cc.call[len(cc.call)-1]
	cc.call = cc.call[:len(cc.call)-1]

	return cc.restore(fr)
}

// SaveInCall stores the callee-save registers among clobbered.
func (cc *CallingConvention) SaveInCall(clobbered RegSet) (string, error) {
	fr, s, err := cc.save(clobbered, cc.abi.CalleeSave)
	if err != nil {
		return "", errors.Wrap(err, "save in call")
	}

	cc.ret = append(cc.ret, fr)

	return s, nil
}

// RestoreBeforeRet reverses the last SaveInCall.
func (cc *CallingConvention) RestoreBeforeRet() (string, error) {
	if len(cc.ret) == 0 {
		return "", errors.Wrap(ErrUnbalanced, "restore before ret")
	}

	fr := cc.ret[len(cc.ret)-1]
	cc.ret = cc.ret[:len(cc.ret)-1]

	return cc.restore(fr)
}

func (cc *CallingConvention) save(regs RegSet, keep map[reg.Class][]int) (frame, string, error) {
	var fr frame

	for _, c := range sortedClasses(regs) {
		for _, i := range regs[c] {
			if !lo.Contains(keep[c], i) {
				continue
			}

			fr.slots = append(fr.slots, slot{r: reg.Reg{Class: c, Idx: i}, off: cc.abi.PointerSize * len(fr.slots)})
		}
	}

	if len(fr.slots) == 0 {
		return fr, "", nil
	}

	fr.size = roundUp(cc.abi.PointerSize*len(fr.slots), cc.abi.StackAlign)

	var b strings.Builder

	b.WriteString(cc.f.AdjustStack(-fr.size))

	for _, s := range fr.slots {
		l, err := cc.f.StoreStack(s.r, s.off)
		if err != nil {
			return frame{}, "", err
		}

		b.WriteString(l)
	}

	cc.growth += fr.size

	return fr, b.String(), nil
}

func (cc *CallingConvention) restore(fr frame) (string, error) {
	if len(fr.slots) == 0 {
		return "", nil
	}

	var b strings.Builder

	for i := len(fr.slots) - 1; i >= 0; i-- {
		s := fr.slots[i]

		l, err := cc.f.LoadStack(s.r, s.off)
		if err != nil {
			return "", err
		}

		b.WriteString(l)
	}

	b.WriteString(cc.f.AdjustStack(fr.size))

	cc.growth -= fr.size

	return b.String(), nil
}

func sortedClasses(s RegSet) []reg.Class {
	cs := make([]reg.Class, 0, len(s))
	for c := range s {
		cs = append(cs, c)
	}
	sort.Slice(cs, func(i, j int) bool { return cs[i] < cs[j] })
	return cs
}

func roundUp(n, align int) int {
	if align <= 1 {
		return n
	}
	return (n + align - 1) / align * align
}

// Span returns the indices [lo, hi].
func Span(lo, hi int) []int {
	out := make([]int, 0, hi-lo+1)
	for i := lo; i <= hi; i++ {
		out = append(out, i)
	}
	return out
}
