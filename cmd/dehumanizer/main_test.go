package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/SamStudio8/dehumanizer/pkg/screen"
)

func TestExitCode(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, 0},
		{"no references", &screen.ConfigError{Msg: "empty preset", Err: screen.ErrNoReferences}, exDataErr},
		{"bad manifest", &screen.ConfigError{Msg: "manifest line 1 has 2 columns"}, exConfig},
		{"wrapped config", fmt.Errorf("screen: %w", &screen.ConfigError{Msg: "workers must be >= 1"}), exConfig},
		{"io", &screen.IOError{Op: "open input", Err: errors.New("gone")}, 1},
		{"worker", fmt.Errorf("%w: boom", screen.ErrWorkerFailed), 1},
	}
	for _, c := range cases {
		if got := exitCode(c.err); got != c.want {
			t.Errorf("%s: got %d, want %d", c.name, got, c.want)
		}
	}
}
