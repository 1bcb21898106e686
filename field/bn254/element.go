// Package bn254 implements field.Element over the scalar field of the BN254
// curve, backed by gnark-crypto's fr arithmetic.
package bn254

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// Element is a BN254 scalar field element. The zero value is 0.
type Element fr.Element

// NewElement returns the element representing v.
func NewElement(v uint64) Element {
	var e fr.Element
	e.SetUint64(v)
	return Element(e)
}

// NewElementFromBig reduces v modulo the field order.
func NewElementFromBig(v *big.Int) Element {
	var e fr.Element
	e.SetBigInt(v)
	return Element(e)
}

// Random returns a uniformly sampled element. It panics if the underlying
// entropy source fails.
func Random() Element {
	var e fr.Element
	if _, err := e.SetRandom(); err != nil {
		panic(err)
	}
	return Element(e)
}

// Modulus returns the field order as a new big.Int.
func Modulus() *big.Int {
	return fr.Modulus()
}

func (z Element) Add(o Element) Element {
	var r fr.Element
	r.Add((*fr.Element)(&z), (*fr.Element)(&o))
	return Element(r)
}

func (z Element) Sub(o Element) Element {
	var r fr.Element
	r.Sub((*fr.Element)(&z), (*fr.Element)(&o))
	return Element(r)
}

func (z Element) Mul(o Element) Element {
	var r fr.Element
	r.Mul((*fr.Element)(&z), (*fr.Element)(&o))
	return Element(r)
}

func (z Element) Neg() Element {
	var r fr.Element
	r.Neg((*fr.Element)(&z))
	return Element(r)
}

func (z Element) IsZero() bool {
	return (*fr.Element)(&z).IsZero()
}

func (z Element) Equal(o Element) bool {
	return (*fr.Element)(&z).Equal((*fr.Element)(&o))
}

func (z Element) FromUint64(v uint64) Element {
	return NewElement(v)
}

func (z Element) Uint64() (uint64, bool) {
	e := (*fr.Element)(&z)
	if !e.IsUint64() {
		return 0, false
	}
	return e.Uint64(), true
}

func (z Element) Bytes() []byte {
	b := (*fr.Element)(&z).Bytes()
	return b[:]
}

func (z Element) FromBytes(b []byte) Element {
	var e fr.Element
	e.SetBytes(b)
	return Element(e)
}

func (z Element) String() string {
	return (*fr.Element)(&z).String()
}
