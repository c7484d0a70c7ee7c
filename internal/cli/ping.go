package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/roach88/bindery/engine"
)

// pingResult is one row of `bindery ping` output.
type pingResult struct {
	Bind  string `json:"bind"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// NewPingCommand opens and pings every configured bind.
func NewPingCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Open and ping every configured bind",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := opts.openDB()
			if err != nil {
				return err
			}
			defer db.Close()
			cfg := db.Config()

			binds := []string{engine.DefaultBind}
			named := make([]string, 0, len(cfg.Binds))
			for k := range cfg.Binds {
				named = append(named, k)
			}
			sort.Strings(named)
			binds = append(binds, named...)

			ctx := context.Background()
			results := make([]pingResult, 0, len(binds))
			failed := 0
			for _, bind := range binds {
				res := pingResult{Bind: bind}
				if res.Bind == engine.DefaultBind {
					res.Bind = "(default)"
				}
				e, err := db.GetEngine(bind)
				switch {
				case err != nil:
					res.Error = err.Error()
					failed++
				case e == nil:
					res.Error = "no URI configured"
				default:
					if err := e.PingContext(ctx); err != nil {
						res.Error = err.Error()
						failed++
					} else {
						res.OK = true
					}
				}
				results = append(results, res)
			}

			if opts.Format == "json" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(results); err != nil {
					return err
				}
			} else {
				for _, res := range results {
					status := "ok"
					if !res.OK {
						status = res.Error
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%-16s %s\n", res.Bind, status)
				}
			}

			if failed > 0 {
				return fmt.Errorf("%d bind(s) unreachable", failed)
			}
			return nil
		},
	}
}
