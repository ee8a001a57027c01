package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/example/go-narration/internal/speech"
)

func newVoicesCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "voices",
		Short: "List prebuilt voices of the configured speech provider",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			voices := speech.Voices(cfg.Speech.Provider)
			if asJSON {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(voices)
			}

			def := speech.DefaultVoice(cfg.Speech.Provider)
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for _, v := range voices {
				mark := ""
				if v.ID == def {
					mark = "(default)"
				}
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", v.ID, v.Style, mark)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")

	return cmd
}
