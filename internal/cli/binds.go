package cli

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

// bindInfo is one row of `bindery binds` output.
type bindInfo struct {
	Bind string `json:"bind"`
	URI  string `json:"uri"`
}

// NewBindsCommand lists the configured binds.
func NewBindsCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "binds",
		Short: "List configured binds",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := opts.openDB()
			if err != nil {
				return err
			}
			cfg := db.Config()

			infos := []bindInfo{{Bind: "(default)", URI: cfg.URI}}
			keys := make([]string, 0, len(cfg.Binds))
			for k := range cfg.Binds {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				infos = append(infos, bindInfo{Bind: k, URI: cfg.Binds[k]})
			}

			if opts.Format == "json" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(infos)
			}
			for _, info := range infos {
				uri := info.URI
				if uri == "" {
					uri = "(unset)"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-16s %s\n", info.Bind, uri)
			}
			return nil
		},
	}
}
