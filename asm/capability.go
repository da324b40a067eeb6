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
	"tlog.app/go/errors"

	"github.com/ajroetker/hwyasm/asm/adt"
	"github.com/ajroetker/hwyasm/asm/reg"
)

// Gatherer loads vector lanes from base plus a vector of offsets.
type Gatherer interface {
	LoadVectorGather(base, idx, v reg.Reg, dt adt.Type, it adt.IndexType) (string, error)
}

// Scatterer stores vector lanes to base plus a vector of offsets.
type Scatterer interface {
	StoreVectorScatter(base, idx, v reg.Reg, dt adt.Type, it adt.IndexType) (string, error)
}

// StridedLoader loads lanes spaced by a byte stride.
type StridedLoader interface {
	LoadVectorImmStride(base reg.Reg, stride int, v reg.Reg, dt adt.Type) (string, error)
	LoadVectorGregStride(base, stride, v reg.Reg, dt adt.Type) (string, error)
}

// StridedStorer stores lanes spaced by a byte stride.
type StridedStorer interface {
	StoreVectorImmStride(base reg.Reg, stride int, v reg.Reg, dt adt.Type) (string, error)
	StoreVectorGregStride(base, stride, v reg.Reg, dt adt.Type) (string, error)
}

// PostIncLoader broadcasts one element and advances base past it.
type PostIncLoader interface {
	LoadVectorDist1Inc(base, v reg.Reg, dt adt.Type) (string, error)
}

// VectorZeroBrancher branches when every lane of a vector is zero.
type VectorZeroBrancher interface {
	JVZero(v, f, vscratch, g reg.Reg, label string, dt adt.Type) (string, error)
}

// TileGenerator drives a matrix tile file.
type TileGenerator interface {
	MaxTregs(dt adt.Type) int
	ZeroTreg(t reg.Reg, dt adt.Type) (string, error)
	StoreTile(base, stride, t reg.Reg, dt adt.Type) (string, error)
	// PostQuirks closes what IsaQuirks opened.
	PostQuirks() string
}

func unsupported(g Generator, op string) error {
	return errors.Wrap(ErrUnsupported, "%v: %v", g.Name(), op)
}

func LoadVectorGather(g VectorGenerator, base, idx, v reg.Reg, dt adt.Type, it adt.IndexType) (string, error) {
	x, ok := g.(Gatherer)
	if !ok {
		return "", unsupported(g, "load_vector_gather")
	}
	return x.LoadVectorGather(base, idx, v, dt, it)
}

func StoreVectorScatter(g VectorGenerator, base, idx, v reg.Reg, dt adt.Type, it adt.IndexType) (string, error) {
	x, ok := g.(Scatterer)
	if !ok {
		return "", unsupported(g, "store_vector_scatter")
	}
	return x.StoreVectorScatter(base, idx, v, dt, it)
}

func LoadVectorImmStride(g VectorGenerator, base reg.Reg, stride int, v reg.Reg, dt adt.Type) (string, error) {
	x, ok := g.(StridedLoader)
	if !ok {
		return "", unsupported(g, "load_vector_immstride")
	}
	return x.LoadVectorImmStride(base, stride, v, dt)
}

func LoadVectorGregStride(g VectorGenerator, base, stride, v reg.Reg, dt adt.Type) (string, error) {
	x, ok := g.(StridedLoader)
	if !ok {
		return "", unsupported(g, "load_vector_gregstride")
	}
	return x.LoadVectorGregStride(base, stride, v, dt)
}

func StoreVectorImmStride(g VectorGenerator, base reg.Reg, stride int, v reg.Reg, dt adt.Type) (string, error) {
	x, ok := g.(StridedStorer)
	if !ok {
		return "", unsupported(g, "store_vector_immstride")
	}
	return x.StoreVectorImmStride(base, stride, v, dt)
}

func StoreVectorGregStride(g VectorGenerator, base, stride, v reg.Reg, dt adt.Type) (string, error) {
	x, ok := g.(StridedStorer)
	if !ok {
		return "", unsupported(g, "store_vector_gregstride")
	}
	return x.StoreVectorGregStride(base, stride, v, dt)
}

func LoadVectorDist1Inc(g VectorGenerator, base, v reg.Reg, dt adt.Type) (string, error) {
	x, ok := g.(PostIncLoader)
	if !ok {
		return "", unsupported(g, "load_vector_dist1_inc")
	}
	return x.LoadVectorDist1Inc(base, v, dt)
}

func JVZero(g VectorGenerator, v, f, vscratch, gr reg.Reg, label string, dt adt.Type) (string, error) {
	x, ok := g.(VectorZeroBrancher)
	if !ok {
		return "", unsupported(g, "jvzero")
	}
	return x.JVZero(v, f, vscratch, gr, label, dt)
}

func MaxTregs(g VectorGenerator, dt adt.Type) int {
	x, ok := g.(TileGenerator)
	if !ok {
		return 0
	}
	return x.MaxTregs(dt)
}

func ZeroTreg(g VectorGenerator, t reg.Reg, dt adt.Type) (string, error) {
	x, ok := g.(TileGenerator)
	if !ok {
		return "", unsupported(g, "zero_treg")
	}
	return x.ZeroTreg(t, dt)
}

func StoreTile(g VectorGenerator, base, stride, t reg.Reg, dt adt.Type) (string, error) {
	x, ok := g.(TileGenerator)
	if !ok {
		return "", unsupported(g, "store_tile")
	}
	return x.StoreTile(base, stride, t, dt)
}

// PostQuirks returns the epilogue matching IsaQuirks, if the backend has one.
func PostQuirks(g VectorGenerator) string {
	x, ok := g.(TileGenerator)
	if !ok {
		return ""
	}
	return x.PostQuirks()
}
