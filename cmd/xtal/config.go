package main

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Job is the TOML job file format, an alternative to spelling the
// whole request out in flags:
//
//	group = 36
//	dim = 3
//	elements = ["Ti", "O"]
//	counts = [2, 4]
//	factor = 1.0
//	attempts = 5
//	tolerance = "atomic"
type Job struct {
	Group     int      `toml:"group"`
	Dim       int      `toml:"dim"`
	Elements  []string `toml:"elements"`
	Counts    []int    `toml:"counts"`
	Factor    float64  `toml:"factor"`
	Volume    float64  `toml:"volume"`
	Thickness float64  `toml:"thickness"`
	Area      float64  `toml:"area"`
	Attempts  int      `toml:"attempts"`
	Seed      int64    `toml:"seed"`
	OutDir    string   `toml:"outdir"`
	Tolerance string   `toml:"tolerance"`
	TolFactor float64  `toml:"tol_factor"`
}

// LoadJob reads and validates a TOML job file.
func LoadJob(path string) (*Job, error) {
	var job Job
	meta, err := toml.DecodeFile(path, &job)
	if err != nil {
		return nil, fmt.Errorf("job file %s: %w", path, err)
	}
	if undec := meta.Undecoded(); len(undec) > 0 {
		return nil, fmt.Errorf("job file %s: unknown keys %v", path, undec)
	}
	if len(job.Elements) != len(job.Counts) {
		return nil, fmt.Errorf("job file %s: %d elements for %d counts",
			path, len(job.Elements), len(job.Counts))
	}
	return &job, nil
}
