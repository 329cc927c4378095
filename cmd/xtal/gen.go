package main

import (
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ntBre/xtal"
)

var genFlags = struct {
	group     int
	dim       int
	elements  string
	counts    []int
	factor    float64
	volume    float64
	thickness float64
	area      float64
	attempts  int
	seed      int64
	outdir    string
	tolerance string
	tolFactor float64
	config    string
}{}

var genCmd = &cobra.Command{
	Use:   "gen",
	Short: "generate random structures for a symmetry group and composition",
	RunE:  runGen,
}

func init() {
	f := genCmd.Flags()
	f.IntVarP(&genFlags.group, "group", "s", 36, "symmetry group number")
	f.IntVarP(&genFlags.dim, "dim", "d", 3,
		"dimension: 3 space, 2 layer, 1 rod, 0 point group")
	f.StringVarP(&genFlags.elements, "elements", "e", "C",
		"comma-separated element symbols")
	f.IntSliceVarP(&genFlags.counts, "numions", "n", []int{4},
		"atoms of each element per primitive cell")
	f.Float64VarP(&genFlags.factor, "factor", "f", 1.0, "volume factor")
	f.Float64Var(&genFlags.volume, "volume", 0, "explicit cell volume (0 = estimate)")
	f.Float64VarP(&genFlags.thickness, "thickness", "t", 0, "2D cell thickness")
	f.Float64Var(&genFlags.area, "area", 0, "1D cross-section area")
	f.IntVarP(&genFlags.attempts, "attempts", "a", 1, "number of structures to generate")
	f.Int64Var(&genFlags.seed, "seed", 0, "random seed (0 = random)")
	f.StringVarP(&genFlags.outdir, "outdir", "o", "out", "output directory")
	f.StringVar(&genFlags.tolerance, "tolerance", "atomic",
		"tolerance prototype: atomic, molecular, or metallic")
	f.Float64Var(&genFlags.tolFactor, "tol-factor", 1.0, "tolerance scale factor")
	f.StringVarP(&genFlags.config, "config", "c", "", "TOML job file")
	rootCmd.AddCommand(genCmd)
}

func jobFromFlags() *Job {
	return &Job{
		Group:     genFlags.group,
		Dim:       genFlags.dim,
		Elements:  strings.Split(genFlags.elements, ","),
		Counts:    genFlags.counts,
		Factor:    genFlags.factor,
		Volume:    genFlags.volume,
		Thickness: genFlags.thickness,
		Area:      genFlags.area,
		Attempts:  genFlags.attempts,
		Seed:      genFlags.seed,
		OutDir:    genFlags.outdir,
		Tolerance: genFlags.tolerance,
		TolFactor: genFlags.tolFactor,
	}
}

func protoFromName(name string) (xtal.Prototype, error) {
	switch name {
	case "", "atomic":
		return xtal.Atomic, nil
	case "molecular":
		return xtal.Molecular, nil
	case "metallic":
		return xtal.Metallic, nil
	}
	return 0, fmt.Errorf("unknown tolerance prototype %q", name)
}

func runGen(cmd *cobra.Command, args []string) error {
	job := jobFromFlags()
	if genFlags.config != "" {
		loaded, err := LoadJob(genFlags.config)
		if err != nil {
			return err
		}
		job = loaded
		if job.Attempts == 0 {
			job.Attempts = 1
		}
		if job.OutDir == "" {
			job.OutDir = genFlags.outdir
		}
	}

	group, err := xtal.NewGroup(job.Group, job.Dim)
	if err != nil {
		return err
	}
	proto, err := protoFromName(job.Tolerance)
	if err != nil {
		return err
	}
	tolFactor := job.TolFactor
	if tolFactor == 0 {
		tolFactor = 1.0
	}
	tm, err := xtal.NewTolMatrix(proto, tolFactor)
	if err != nil {
		return err
	}
	seed := job.Seed
	if seed == 0 {
		seed = rand.Int63()
	}
	rng := rand.New(rand.NewSource(seed))

	if err := os.MkdirAll(job.OutDir, 0o755); err != nil {
		return err
	}
	logger.Info().Stringer("group", group).Strs("elements", job.Elements).
		Ints("counts", job.Counts).Int64("seed", seed).Msg("starting generation")

	generated := 0
	for i := 0; i < job.Attempts; i++ {
		s, err := xtal.Generate(group, job.Elements, job.Counts, xtal.Config{
			Factor:    job.Factor,
			Volume:    job.Volume,
			Tol:       tm,
			Thickness: job.Thickness,
			Area:      job.Area,
			RNG:       rng,
			Logger:    logger,
		})
		switch {
		case errors.Is(err, xtal.ErrMaxAttempts):
			logger.Warn().Int("attempts", s.Attempts).Int("run", i).
				Msg("generation exhausted its attempt budget")
			continue
		case err != nil:
			return err
		}
		path, err := writeStructure(job.OutDir, i, s)
		if err != nil {
			return err
		}
		for _, site := range s.Sites {
			logger.Debug().Msg(site.String())
		}
		logger.Info().Str("file", path).Float64("volume", s.Volume).
			Msg("structure written")
		generated++
	}
	if generated == 0 {
		return fmt.Errorf("no valid structure in %d runs", job.Attempts)
	}
	return nil
}

// writeStructure writes clusters as xyz and periodic structures as
// cif, named by group symbol and run index.
func writeStructure(dir string, run int, s *xtal.Structure) (string, error) {
	ext := "cif"
	if s.Group.Dim == 0 {
		ext = "xyz"
	}
	path := filepath.Join(dir,
		fmt.Sprintf("%s-%d.%s", sanitize(s.Group.Symbol), run, ext))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if s.Group.Dim == 0 {
		err = WriteXYZ(f, s)
	} else {
		err = WriteCIF(f, s)
	}
	return path, err
}

func sanitize(symbol string) string {
	return strings.Map(func(r rune) rune {
		if r == '/' || r == ' ' {
			return '_'
		}
		return r
	}, symbol)
}
