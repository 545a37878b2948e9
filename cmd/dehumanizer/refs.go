package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/SamStudio8/dehumanizer/pkg/screen"
	"github.com/SamStudio8/dehumanizer/pkg/storage"
)

var refsPreset string

var refsCmd = &cobra.Command{
	Use:   "refs <manifest>",
	Short: "List the references a manifest defines",
	Long: `List manifest references in screening order.

With --preset only the references that would be used for that preset are
shown, and an empty selection is an error.

Example:
  dehumanizer refs manifest.txt --preset sr`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := storage.ReadLocation(cmd.Context(), args[0])
		if err != nil {
			return &screen.ConfigError{Msg: "failed to read manifest " + args[0], Err: err}
		}
		entries, err := screen.ParseManifest(data)
		if err != nil {
			return err
		}
		if refsPreset != "" {
			entries = screen.ForPreset(entries, refsPreset)
			if len(entries) == 0 {
				return &screen.ConfigError{Msg: "manifest contains no references for preset=" + refsPreset, Err: screen.ErrNoReferences}
			}
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "#\tname\tpreset\tpath")
		for i, e := range entries {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", i+1, e.Name, e.Preset, e.Path)
		}
		return w.Flush()
	},
}

func init() {
	refsCmd.Flags().StringVar(&refsPreset, "preset", "",
		"Only list references for this aligner preset")
}
