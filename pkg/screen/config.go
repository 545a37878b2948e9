package screen

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pelletier/go-toml/v2"
)

const (
	KB = 1024
	MB = 1024 * KB
	GB = 1024 * MB
)

// Config holds the tunables of a screening run. Thresholds of zero are
// disabled.
type Config struct {
	Workers     int     `toml:"workers"`
	QueueDepth  int     `toml:"queue_depth"` // queued items per worker
	BlockReport int     `toml:"block_report"`
	BreakFirst  bool    `toml:"break_first"`
	MinLen      float64 `toml:"minlen"`
	MinID       float64 `toml:"minid"`
	TrashMinLen float64 `toml:"trash_minalen"`

	ItemTimeout time.Duration `toml:"-"`

	TempDir          string `toml:"temp_dir"`
	CompressionLevel int    `toml:"compression_level"`

	availableMemory int64
}

// NewConfig returns a Config with defaults sized to the machine.
func NewConfig() *Config {
	_, available := detectSystemMemory()
	return &Config{
		Workers:          detectOptimalWorkers(),
		QueueDepth:       5000,
		BlockReport:      100000,
		BreakFirst:       true,
		TempDir:          os.TempDir(),
		CompressionLevel: 2,
		availableMemory:  available,
	}
}

// LoadFile overlays the settings present in a TOML file onto c. Keys missing
// from the file keep their current values. item_timeout is a duration
// string such as "30s".
func (c *Config) LoadFile(data []byte) error {
	if err := toml.Unmarshal(data, c); err != nil {
		return &ConfigError{Msg: "failed to parse config file", Err: err}
	}

	var extra struct {
		ItemTimeout string `toml:"item_timeout"`
	}
	if err := toml.Unmarshal(data, &extra); err != nil {
		return &ConfigError{Msg: "failed to parse config file", Err: err}
	}
	if extra.ItemTimeout != "" {
		d, err := time.ParseDuration(extra.ItemTimeout)
		if err != nil {
			return &ConfigError{Msg: "invalid item_timeout", Err: err}
		}
		c.ItemTimeout = d
	}
	return nil
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return configErrorf("workers must be >= 1")
	}
	if c.Workers > 64 {
		fmt.Fprintf(os.Stderr, "Warning: Workers > 64 may cause diminishing returns\n")
	}
	if c.QueueDepth < 1 {
		return configErrorf("queue depth must be >= 1")
	}
	if c.BlockReport < 1 {
		return configErrorf("block report interval must be >= 1")
	}
	for name, v := range map[string]float64{"minlen": c.MinLen, "minid": c.MinID, "trash-minalen": c.TrashMinLen} {
		if v < 0 {
			return configErrorf("%s must not be negative", name)
		}
	}
	if c.ItemTimeout < 0 {
		return configErrorf("item timeout must not be negative")
	}
	return nil
}

// QueueCapacity is the bound on outstanding work items.
func (c *Config) QueueCapacity() int { return c.Workers * c.QueueDepth }

// FitsMatrix reports whether a rows x refs flag matrix fits in the memory
// that was available when the config was built. Unknown memory always fits.
func (c *Config) FitsMatrix(rows, refs int) bool {
	if c.availableMemory <= 0 {
		return true
	}
	// One byte per cell plus one status byte per row.
	need := int64(rows)*int64(refs) + int64(rows)
	return need <= c.availableMemory
}

// ShowConfig prints the effective configuration.
func (c *Config) ShowConfig() {
	total, available := detectSystemMemory()

	fmt.Fprintf(os.Stderr, "System Information:\n")
	fmt.Fprintf(os.Stderr, "  Total RAM: %s\n", humanize.IBytes(uint64(total)))
	fmt.Fprintf(os.Stderr, "  Available RAM: %s\n", humanize.IBytes(uint64(available)))

	totalCores := runtime.NumCPU()
	optimalWorkers := detectOptimalWorkers()
	if optimalWorkers < totalCores {
		fmt.Fprintf(os.Stderr, "  CPU cores: %d total (%d performance, %d efficiency)\n",
			totalCores, optimalWorkers, totalCores-optimalWorkers)
	} else {
		fmt.Fprintf(os.Stderr, "  CPU cores: %d\n", totalCores)
	}
	fmt.Fprintf(os.Stderr, "\n")

	fmt.Fprintf(os.Stderr, "Configuration:\n")
	fmt.Fprintf(os.Stderr, "  Workers: %d\n", c.Workers)
	fmt.Fprintf(os.Stderr, "  Queue: %s items (%d per worker)\n", humanize.Comma(int64(c.QueueCapacity())), c.QueueDepth)
	fmt.Fprintf(os.Stderr, "  Progress every: %s reads\n", humanize.Comma(int64(c.BlockReport)))
	if c.BreakFirst {
		fmt.Fprintf(os.Stderr, "  Mode: break on first hit\n")
	} else {
		fmt.Fprintf(os.Stderr, "  Mode: survey all references\n")
	}
	fmt.Fprintf(os.Stderr, "  Min length: %s\n", thresholdString(c.MinLen))
	fmt.Fprintf(os.Stderr, "  Min identity: %s\n", thresholdString(c.MinID))
	fmt.Fprintf(os.Stderr, "  Trash min aligned length: %s\n", thresholdString(c.TrashMinLen))
	if c.ItemTimeout > 0 {
		fmt.Fprintf(os.Stderr, "  Item timeout: %s\n", c.ItemTimeout)
	} else {
		fmt.Fprintf(os.Stderr, "  Item timeout: none\n")
	}
	fmt.Fprintf(os.Stderr, "  Temp dir: %s\n", c.TempDir)
	fmt.Fprintf(os.Stderr, "\n")
}

func thresholdString(v float64) string {
	if v <= 0 {
		return "off"
	}
	return fmt.Sprintf("%g%%", v)
}
