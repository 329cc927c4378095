package main

import (
	"fmt"
	"io"
	"math"

	"github.com/ntBre/xtal"
)

// WriteCIF writes a periodic structure as a minimal CIF in the P1
// setting: the symmetry is already baked into the coordinates.
func WriteCIF(w io.Writer, s *xtal.Structure) error {
	a, b, c, alpha, beta, gamma := xtal.MatrixToPara(s.Cell)
	deg := 180 / math.Pi
	if _, err := fmt.Fprintf(w, `data_xtal
_symmetry_space_group_name_H-M 'P 1'
_symmetry_Int_Tables_number 1
_cell_length_a %.6f
_cell_length_b %.6f
_cell_length_c %.6f
_cell_angle_alpha %.4f
_cell_angle_beta %.4f
_cell_angle_gamma %.4f
loop_
_atom_site_type_symbol
_atom_site_label
_atom_site_fract_x
_atom_site_fract_y
_atom_site_fract_z
`, a, b, c, alpha*deg, beta*deg, gamma*deg); err != nil {
		return err
	}
	for i, p := range s.Coords {
		sym := s.Species[i]
		if _, err := fmt.Fprintf(w, "%s %s%d %.6f %.6f %.6f\n",
			sym, sym, i+1, p[0], p[1], p[2]); err != nil {
			return err
		}
	}
	return nil
}

// WriteXYZ writes a cluster, whose coordinates are already absolute,
// in plain xyz format.
func WriteXYZ(w io.Writer, s *xtal.Structure) error {
	if _, err := fmt.Fprintf(w, "%d\n%s cluster, %d attempts\n",
		len(s.Coords), s.Group.Symbol, s.Attempts); err != nil {
		return err
	}
	for i, p := range s.Coords {
		if _, err := fmt.Fprintf(w, "%-2s %12.8f %12.8f %12.8f\n",
			s.Species[i], p[0], p[1], p[2]); err != nil {
			return err
		}
	}
	return nil
}
