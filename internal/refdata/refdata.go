// Package refdata loads the static reference data: the tariff catalog, the
// metro layout and the bus line catalog. The files are embedded and may be
// overridden from disk.
package refdata

import (
	"embed"
	"fmt"
	"os"
	"sync"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

//go:embed data/*.yaml
var files embed.FS

const (
	tariffsFile  = "data/tariffs.yaml"
	metroFile    = "data/metro.yaml"
	busLinesFile = "data/buslines.yaml"
)

// Rate is one entry of a tariff's rate table.
type Rate struct {
	Zone   string `yaml:"zone" validate:"required"`
	Type   string `yaml:"type" validate:"required"`
	Amount string `yaml:"amount" validate:"required,numeric"`
}

// Tariff is a raw tariff definition.
type Tariff struct {
	Code      string `yaml:"code" validate:"required"`
	Name      string `yaml:"name" validate:"required"`
	Category  string `yaml:"category" validate:"required"`
	TripLimit int    `yaml:"tripLimit" validate:"gte=0"`
	Rates     []Rate `yaml:"rates" validate:"dive"`
}

// TariffFile is the content of tariffs.yaml.
type TariffFile struct {
	DefaultWallet string            `yaml:"defaultWallet" validate:"required"`
	Aliases       map[string]string `yaml:"aliases"`
	Tariffs       []Tariff          `yaml:"tariffs" validate:"required,min=1,dive"`
}

// Line describes a transit line.
type Line struct {
	Code     string `yaml:"code" validate:"required"`
	Name     string `yaml:"name"`
	Operator string `yaml:"operator" validate:"required"`
	Order    int    `yaml:"order" validate:"gte=0"`
}

// Station is one row of the layout. Rows may repeat.
type Station struct {
	Code       string   `yaml:"code" validate:"required"`
	Name       string   `yaml:"name" validate:"required"`
	Line       string   `yaml:"line" validate:"required"`
	Zone       string   `yaml:"zone"`
	Weight     int      `yaml:"weight" validate:"gte=0"`
	Connection bool     `yaml:"connection"`
	Aliases    []string `yaml:"aliases"`
	X          float64  `yaml:"x"`
	Y          float64  `yaml:"y"`
}

// Connector is an explicit edge between two stations.
type Connector struct {
	From string `yaml:"from" validate:"required"`
	To   string `yaml:"to" validate:"required"`
}

// MetroFile is the content of metro.yaml.
type MetroFile struct {
	Trunk      string      `yaml:"trunk"`
	Merging    []string    `yaml:"merging"`
	Pivot      *Connector  `yaml:"pivot" validate:"omitempty"`
	Connectors []Connector `yaml:"connectors" validate:"dive"`
	Lines      []Line      `yaml:"lines" validate:"required,min=1,dive"`
	Stations   []Station   `yaml:"stations" validate:"required,min=1,dive"`
}

// BusLine is a bus line catalog entry.
type BusLine struct {
	Code        string `yaml:"code" validate:"required"`
	Description string `yaml:"description"`
}

// BusLineFile is the content of buslines.yaml.
type BusLineFile struct {
	IgnoredTokens []string  `yaml:"ignoredTokens"`
	Lines         []BusLine `yaml:"lines" validate:"dive"`
}

// Data bundles all reference data.
type Data struct {
	Tariffs  TariffFile
	Metro    MetroFile
	BusLines BusLineFile
}

// Overrides points at files on disk that replace the embedded ones.
// Empty fields keep the embedded file.
type Overrides struct {
	TariffsPath  string
	MetroPath    string
	BusLinesPath string
}

// Load reads and validates the reference data.
func Load(o Overrides) (*Data, error) {
	v := validator.New()
	var d Data

	if err := decode(tariffsFile, o.TariffsPath, &d.Tariffs); err != nil {
		return nil, err
	}
	if err := v.Struct(d.Tariffs); err != nil {
		return nil, fmt.Errorf("Load: invalid tariffs: %w", err)
	}

	if err := decode(metroFile, o.MetroPath, &d.Metro); err != nil {
		return nil, err
	}
	if err := v.Struct(d.Metro); err != nil {
		return nil, fmt.Errorf("Load: invalid metro layout: %w", err)
	}

	if err := decode(busLinesFile, o.BusLinesPath, &d.BusLines); err != nil {
		return nil, err
	}
	if err := v.Struct(d.BusLines); err != nil {
		return nil, fmt.Errorf("Load: invalid bus lines: %w", err)
	}

	return &d, nil
}

var (
	defaultOnce sync.Once
	defaultData *Data
)

// Default returns the embedded reference data. It panics if the embedded
// files are invalid, which can only happen on a broken build.
func Default() *Data {
	defaultOnce.Do(func() {
		d, err := Load(Overrides{})
		if err != nil {
			panic(err)
		}
		defaultData = d
	})
	return defaultData
}

func decode(embedded, override string, out interface{}) error {
	var (
		raw []byte
		err error
	)
	if override != "" {
		raw, err = os.ReadFile(override)
	} else {
		raw, err = files.ReadFile(embedded)
	}
	if err != nil {
		return fmt.Errorf("decode: reading %s: %w", sourceName(embedded, override), err)
	}
	if err := yaml.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode: parsing %s: %w", sourceName(embedded, override), err)
	}
	return nil
}

func sourceName(embedded, override string) string {
	if override != "" {
		return override
	}
	return embedded
}
