package reader

import (
	"io"
	"math"

	"github.com/papapumpkin/hydrosource/internal/emitter"
)

// amptFields is the record width of a parton file:
//
//	pid px py pz mass x y z t
const amptFields = 9

// charges are the conserved quantum numbers carried by a particle species.
type charges struct {
	baryon, strange, electric float64
}

// pdgCharges maps PDG ids of particles to their quantum numbers.
// Antiparticles use the negated id and negated charges.
var pdgCharges = map[int]charges{
	1:    {1.0 / 3, 0, -1.0 / 3},  // d
	2:    {1.0 / 3, 0, 2.0 / 3},   // u
	3:    {1.0 / 3, -1, -1.0 / 3}, // s
	4:    {1.0 / 3, 0, 2.0 / 3},   // c
	5:    {1.0 / 3, 0, -1.0 / 3},  // b
	6:    {1.0 / 3, 0, 2.0 / 3},   // t
	21:   {0, 0, 0},               // g
	2212: {1, 0, 1},               // p
	2112: {1, 0, 0},               // n
	3122: {1, -1, 0},              // Λ
}

// chargesOf returns the quantum numbers for pid. Unknown species carry none.
func chargesOf(pid int) charges {
	if c, ok := pdgCharges[pid]; ok {
		return c
	}
	if c, ok := pdgCharges[-pid]; ok {
		return charges{-c.baryon, -c.strange, -c.electric}
	}
	return charges{}
}

// ReadPartons parses AMPT parton records from r and appends them to repo.
// name labels errors. It returns the number of partons read.
func ReadPartons(r io.Reader, name string, repo *emitter.Repository) (int, error) {
	n := 0
	err := eachRecord(r, name, amptFields, func(line int, v []float64) error {
		p, perr := buildParton(v)
		if perr != "" {
			return malformed(name, line, "%s", perr)
		}
		repo.AddParton(p)
		n++
		return nil
	})
	return n, err
}

func buildParton(v []float64) (emitter.Parton, string) {
	pid, px, py, pz, mass := v[0], v[1], v[2], v[3], v[4]
	x, y, z, t := v[5], v[6], v[7], v[8]

	if pid != math.Trunc(pid) {
		return emitter.Parton{}, "pid must be an integer"
	}
	if mass < 0 {
		return emitter.Parton{}, "mass must be non-negative"
	}
	if t <= math.Abs(z) {
		return emitter.Parton{}, "production point must lie inside the light cone (t > |z|)"
	}
	e := math.Sqrt(mass*mass + px*px + py*py + pz*pz)
	if e <= math.Abs(pz) {
		return emitter.Parton{}, "longitudinal momentum must be below the energy"
	}

	pt := math.Hypot(px, py)
	var yPerp float64
	if pt > 0 {
		yPerp = math.Atanh(pt / math.Sqrt(mass*mass+pt*pt))
	}
	c := chargesOf(int(pid))
	return emitter.Parton{
		Tau:            math.Sqrt(t*t - z*z),
		X:              x,
		Y:              y,
		EtaS:           0.5 * math.Log((t+z)/(t-z)),
		Rapidity:       0.5 * math.Log((e+pz)/(e-pz)),
		RapidityPerp:   yPerp,
		E:              e,
		Px:             px,
		Py:             py,
		Mass:           mass,
		BaryonNumber:   c.baryon,
		Strangeness:    c.strange,
		ElectricCharge: c.electric,
	}, ""
}
