package main

import (
	"encoding/json"
	"errors"

	"github.com/spf13/cobra"

	"procproxy/internal/client"
)

func newFetchCmd(opts *rootOptions) *cobra.Command {
	var id string
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Print the owned process list (or one process) as JSON",
		Example: "  procproxy fetch --token-file ~/.config/procproxy/token\n" +
			"  procproxy fetch --id p1",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := opts.fetcher()
			if err != nil {
				return err
			}
			raw, _ := opts.credentials().Token(cmd.Context())

			var out any
			if id != "" {
				out, err = f.FetchDetail(cmd.Context(), raw, client.ExtractID(id))
			} else {
				out, err = f.FetchOwned(cmd.Context(), raw)
			}
			if err != nil {
				return errors.New(client.Describe(err))
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "Fetch a single process by id or URL")
	return cmd
}
