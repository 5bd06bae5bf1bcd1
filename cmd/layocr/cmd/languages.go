package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/layocr/internal/recognition"
)

// languagesCmd lists the installed recognition languages.
var languagesCmd = &cobra.Command{
	Use:   "languages",
	Short: "List installed recognition languages",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		engCfg := cfg.EngineConfig()

		var langs []string
		eng, err := newEngine(engCfg)
		if err == nil {
			var adapter *recognition.Adapter
			if adapter, err = recognition.NewAdapter(eng, engCfg); err == nil {
				langs = adapter.Languages()
			}
		}
		if err != nil {
			if cfg.OCR.TessdataDir == "" {
				return err
			}
			// Without a working engine the tessdata directory is still readable.
			if langs, err = recognition.ListTessdata(cfg.OCR.TessdataDir); err != nil {
				return err
			}
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(langs)
		}
		for _, l := range langs {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), l)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(languagesCmd)
	languagesCmd.Flags().Bool("json", false, "print the list as JSON")
}
