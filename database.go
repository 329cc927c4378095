package xtal

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed wyckoff.yaml
var wyckoffYAML []byte

type dbPosition struct {
	Letter string   `yaml:"letter"`
	Ops    []string `yaml:"ops"`
	Site   []string `yaml:"site"`
}

type dbGroup struct {
	Number    int          `yaml:"number"`
	Symbol    string       `yaml:"symbol"`
	Family    string       `yaml:"family"`
	Positions []dbPosition `yaml:"positions"`
}

type dbFile struct {
	Space []dbGroup `yaml:"space"`
	Layer []dbGroup `yaml:"layer"`
	Rod   []dbGroup `yaml:"rod"`
	Point []dbGroup `yaml:"point"`
}

var (
	dbOnce     sync.Once
	dbByNumber map[[2]int]*dbGroup
	dbBySymbol map[string]*dbGroup
	dbErr      error
)

// loadDB parses the embedded Wyckoff tables once and indexes them by
// (dimension, group number) and, for point groups, by symbol.
func loadDB() error {
	dbOnce.Do(func() {
		var f dbFile
		if err := yaml.Unmarshal(wyckoffYAML, &f); err != nil {
			dbErr = fmt.Errorf("symmetry database: %w", err)
			return
		}
		dbByNumber = make(map[[2]int]*dbGroup)
		dbBySymbol = make(map[string]*dbGroup)
		for dim, groups := range map[int][]dbGroup{
			3: f.Space, 2: f.Layer, 1: f.Rod, 0: f.Point,
		} {
			for i := range groups {
				g := &groups[i]
				dbByNumber[[2]int{dim, g.Number}] = g
				if dim == 0 {
					dbBySymbol[g.Symbol] = g
				}
			}
		}
	})
	return dbErr
}

func lookupGroup(number, dim int) (*dbGroup, error) {
	if err := loadDB(); err != nil {
		return nil, err
	}
	g, ok := dbByNumber[[2]int{dim, number}]
	if !ok {
		return nil, fmt.Errorf("%w: number %d, dimension %d",
			ErrGroupNotFound, number, dim)
	}
	return g, nil
}

func lookupPointGroup(symbol string) (*dbGroup, error) {
	if err := loadDB(); err != nil {
		return nil, err
	}
	g, ok := dbBySymbol[symbol]
	if !ok {
		return nil, fmt.Errorf("%w: point group %q", ErrGroupNotFound, symbol)
	}
	return g, nil
}
