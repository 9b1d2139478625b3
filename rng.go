package aresgo

import "math/rand/v2"

// systemRand supplies both capabilities the internal packages need a
// source of randomness for: querytable.Table's id allocation
// (querytable.Rng) and serverpool.Pool's failover-probe roll
// (serverpool.RandSource). Satisfied structurally; neither package
// imports this one.
type systemRand struct{}

func (systemRand) Uint16() uint16   { return uint16(rand.N(uint32(1) << 16)) }
func (systemRand) Float64() float64 { return rand.Float64() }
