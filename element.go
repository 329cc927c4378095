package xtal

import (
	"fmt"
	"strings"
)

// Element holds the per-species properties the generator needs:
// covalent and van der Waals radii for tolerances and volume
// estimation, and a metallic radius where one is tabulated.
type Element struct {
	Number   int
	Symbol   string
	Covalent float64
	Vdw      float64
	Metallic float64
}

// elements is indexed by atomic number minus one. Covalent radii are
// the Cordero 2008 set, vdW radii the Bondi/Alvarez set, metallic
// radii the usual 12-coordinate values (zero where not tabulated).
var elements = []Element{
	{1, "H", 0.31, 1.20, 0},
	{2, "He", 0.28, 1.40, 0},
	{3, "Li", 1.28, 1.82, 1.52},
	{4, "Be", 0.96, 1.53, 1.12},
	{5, "B", 0.84, 1.92, 0},
	{6, "C", 0.76, 1.70, 0},
	{7, "N", 0.71, 1.55, 0},
	{8, "O", 0.66, 1.52, 0},
	{9, "F", 0.57, 1.47, 0},
	{10, "Ne", 0.58, 1.54, 0},
	{11, "Na", 1.66, 2.27, 1.86},
	{12, "Mg", 1.41, 1.73, 1.60},
	{13, "Al", 1.21, 1.84, 1.43},
	{14, "Si", 1.11, 2.10, 0},
	{15, "P", 1.07, 1.80, 0},
	{16, "S", 1.05, 1.80, 0},
	{17, "Cl", 1.02, 1.75, 0},
	{18, "Ar", 1.06, 1.88, 0},
	{19, "K", 2.03, 2.75, 2.27},
	{20, "Ca", 1.76, 2.31, 1.97},
	{21, "Sc", 1.70, 2.11, 1.62},
	{22, "Ti", 1.60, 2.11, 1.47},
	{23, "V", 1.53, 2.07, 1.34},
	{24, "Cr", 1.39, 2.06, 1.28},
	{25, "Mn", 1.39, 2.05, 1.27},
	{26, "Fe", 1.32, 2.04, 1.26},
	{27, "Co", 1.26, 2.00, 1.25},
	{28, "Ni", 1.24, 1.97, 1.24},
	{29, "Cu", 1.32, 1.96, 1.28},
	{30, "Zn", 1.22, 2.01, 1.34},
	{31, "Ga", 1.22, 1.87, 1.35},
	{32, "Ge", 1.20, 2.11, 0},
	{33, "As", 1.19, 1.85, 0},
	{34, "Se", 1.20, 1.90, 0},
	{35, "Br", 1.20, 1.85, 0},
	{36, "Kr", 1.16, 2.02, 0},
	{37, "Rb", 2.20, 3.03, 2.48},
	{38, "Sr", 1.95, 2.49, 2.15},
	{39, "Y", 1.90, 2.32, 1.80},
	{40, "Zr", 1.75, 2.23, 1.60},
	{41, "Nb", 1.64, 2.18, 1.46},
	{42, "Mo", 1.54, 2.17, 1.39},
	{43, "Tc", 1.47, 2.16, 1.36},
	{44, "Ru", 1.46, 2.13, 1.34},
	{45, "Rh", 1.42, 2.10, 1.34},
	{46, "Pd", 1.39, 2.10, 1.37},
	{47, "Ag", 1.45, 2.11, 1.44},
	{48, "Cd", 1.44, 2.18, 1.51},
	{49, "In", 1.42, 1.93, 1.67},
	{50, "Sn", 1.39, 2.17, 0},
	{51, "Sb", 1.39, 2.06, 0},
	{52, "Te", 1.38, 2.06, 0},
	{53, "I", 1.39, 1.98, 0},
	{54, "Xe", 1.40, 2.16, 0},
	{55, "Cs", 2.44, 3.43, 2.65},
	{56, "Ba", 2.15, 2.68, 2.22},
	{57, "La", 2.07, 2.43, 1.87},
	{58, "Ce", 2.04, 2.42, 1.82},
	{59, "Pr", 2.03, 2.40, 1.82},
	{60, "Nd", 2.01, 2.39, 1.81},
	{61, "Pm", 1.99, 2.38, 1.83},
	{62, "Sm", 1.98, 2.36, 1.80},
	{63, "Eu", 1.98, 2.35, 2.04},
	{64, "Gd", 1.96, 2.34, 1.80},
	{65, "Tb", 1.94, 2.33, 1.78},
	{66, "Dy", 1.92, 2.31, 1.77},
	{67, "Ho", 1.92, 2.30, 1.76},
	{68, "Er", 1.89, 2.29, 1.76},
	{69, "Tm", 1.90, 2.27, 1.76},
	{70, "Yb", 1.87, 2.26, 1.94},
	{71, "Lu", 1.87, 2.24, 1.74},
	{72, "Hf", 1.75, 2.23, 1.59},
	{73, "Ta", 1.70, 2.22, 1.46},
	{74, "W", 1.62, 2.18, 1.39},
	{75, "Re", 1.51, 2.16, 1.37},
	{76, "Os", 1.44, 2.16, 1.35},
	{77, "Ir", 1.41, 2.13, 1.36},
	{78, "Pt", 1.36, 2.13, 1.39},
	{79, "Au", 1.36, 2.14, 1.44},
	{80, "Hg", 1.32, 2.23, 1.51},
	{81, "Tl", 1.45, 1.96, 1.70},
	{82, "Pb", 1.46, 2.02, 1.75},
	{83, "Bi", 1.48, 2.07, 1.82},
	{84, "Po", 1.40, 1.97, 0},
	{85, "At", 1.50, 2.02, 0},
	{86, "Rn", 1.50, 2.20, 0},
	{87, "Fr", 2.60, 3.48, 0},
	{88, "Ra", 2.21, 2.83, 0},
	{89, "Ac", 2.15, 2.47, 0},
	{90, "Th", 2.06, 2.45, 1.79},
	{91, "Pa", 2.00, 2.43, 1.63},
	{92, "U", 1.96, 2.41, 1.56},
	{93, "Np", 1.90, 2.39, 1.55},
	{94, "Pu", 1.87, 2.43, 1.59},
	{95, "Am", 1.80, 2.44, 1.73},
	{96, "Cm", 1.69, 2.45, 1.74},
}

var bySymbol = func() map[string]*Element {
	m := make(map[string]*Element, len(elements))
	for i := range elements {
		m[elements[i].Symbol] = &elements[i]
	}
	return m
}()

// LookupElement finds an element by symbol. The symbol is
// case-normalized, so "fe" and "FE" both find iron.
func LookupElement(symbol string) (*Element, error) {
	s := strings.TrimSpace(symbol)
	if len(s) > 0 {
		s = strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
	}
	e, ok := bySymbol[s]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSpecies, symbol)
	}
	return e, nil
}

// ElementByNumber finds an element by atomic number.
func ElementByNumber(z int) (*Element, error) {
	if z < 1 || z > len(elements) {
		return nil, fmt.Errorf("%w: Z=%d", ErrUnknownSpecies, z)
	}
	return &elements[z-1], nil
}

// MetallicRadius returns the metallic radius where one is tabulated
// and falls back to the covalent radius otherwise.
func (e *Element) MetallicRadius() float64 {
	if e.Metallic > 0 {
		return e.Metallic
	}
	return e.Covalent
}
