package screen

import (
	"errors"
	"testing"
	"time"
)

func TestNewConfigDefaults(t *testing.T) {
	c := NewConfig()
	if c.Workers < 1 {
		t.Fatalf("workers = %d", c.Workers)
	}
	if c.QueueDepth != 5000 || c.BlockReport != 100000 || !c.BreakFirst {
		t.Fatalf("unexpected defaults %+v", c)
	}
	if c.QueueCapacity() != c.Workers*5000 {
		t.Fatalf("queue capacity %d", c.QueueCapacity())
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("defaults do not validate: %v", err)
	}
}

func TestConfigLoadFile(t *testing.T) {
	c := NewConfig()
	c.Workers = 2
	data := []byte(`
queue_depth = 10
break_first = false
minid = 95.5
item_timeout = "1m30s"
`)
	if err := c.LoadFile(data); err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Workers != 2 {
		t.Fatalf("unset key changed workers to %d", c.Workers)
	}
	if c.QueueDepth != 10 || c.BreakFirst || c.MinID != 95.5 || c.ItemTimeout != 90*time.Second {
		t.Fatalf("file not applied: %+v", c)
	}

	var cerr *ConfigError
	if err := c.LoadFile([]byte(`item_timeout = "soon"`)); !errors.As(err, &cerr) {
		t.Fatalf("expected a ConfigError, got %v", err)
	}
	if err := c.LoadFile([]byte(`workers = [`)); !errors.As(err, &cerr) {
		t.Fatalf("expected a ConfigError, got %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	for name, mutate := range map[string]func(*Config){
		"workers":     func(c *Config) { c.Workers = 0 },
		"queue depth": func(c *Config) { c.QueueDepth = 0 },
		"block":       func(c *Config) { c.BlockReport = 0 },
		"minlen":      func(c *Config) { c.MinLen = -1 },
		"timeout":     func(c *Config) { c.ItemTimeout = -time.Second },
	} {
		c := NewConfig()
		mutate(c)
		var cerr *ConfigError
		if err := c.Validate(); !errors.As(err, &cerr) {
			t.Errorf("%s: expected a ConfigError, got %v", name, err)
		}
	}
}

func TestFitsMatrix(t *testing.T) {
	c := &Config{availableMemory: 1 * MB}
	if !c.FitsMatrix(1000, 10) {
		t.Fatal("small matrix should fit")
	}
	if c.FitsMatrix(1*MB, 10) {
		t.Fatal("large matrix should not fit")
	}
	if !(&Config{}).FitsMatrix(1<<40, 10) {
		t.Fatal("unknown memory should not block a run")
	}
}
