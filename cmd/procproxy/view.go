package main

import (
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"procproxy/internal/client"
	"procproxy/internal/common/fsutil"
)

func newViewCmd(opts *rootOptions) *cobra.Command {
	var selectionFile string
	var altScreen bool
	cmd := &cobra.Command{
		Use:   "view",
		Short: "Browse owned processes in the terminal",
		Example: "  procproxy view --token-file ~/.config/procproxy/token\n" +
			"  PROCPROXY_PROXY_URL=http://localhost:8080 procproxy view",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := opts.fetcher()
			if err != nil {
				return err
			}
			restore := opts.cfg.RestoreSelection
			if restore == "" {
				restore = savedSelection(opts, selectionFile)
			}
			ctrl := client.New(client.Options{
				Fetcher:          f,
				Credentials:      opts.credentials(),
				Sink:             persistSelection(opts, selectionFile),
				RestoreSelection: restore,
				Logger:           opts.log,
			})
			defer ctrl.Teardown()

			progOpts := []tea.ProgramOption{tea.WithContext(cmd.Context()), tea.WithOutput(cmd.OutOrStdout())}
			if altScreen {
				progOpts = append(progOpts, tea.WithAltScreen())
			}
			_, err = tea.NewProgram(ctrl, progOpts...).Run()
			return err
		},
	}
	cmd.Flags().StringVar(&selectionFile, "selection-file", "", "Persist the selected process id here and restore it on start")
	cmd.Flags().BoolVar(&altScreen, "alt-screen", true, "Use the terminal's alternate screen")
	return cmd
}

// savedSelection returns the id stored at path by a previous session, or ""
// when there is none. A missing file is the normal first run.
func savedSelection(opts *rootOptions, path string) string {
	if path == "" {
		return ""
	}
	p, err := fsutil.ExpandHome(path)
	if err != nil || !fsutil.PathExists(p) {
		return ""
	}
	id, err := fsutil.ReadTrimmed(p)
	if err != nil {
		opts.log.Warn().Err(err).Str("path", path).Msg("read saved selection")
		return ""
	}
	return id
}

// persistSelection writes each selection to path. Write failures are logged
// and otherwise ignored.
func persistSelection(opts *rootOptions, path string) client.SelectionSink {
	if path == "" {
		return nil
	}
	return client.SelectionFunc(func(id string) {
		p, err := fsutil.ExpandHome(path)
		if err == nil {
			if err = os.MkdirAll(filepath.Dir(p), 0o755); err == nil {
				err = os.WriteFile(p, []byte(id+"\n"), 0o600)
			}
		}
		if err != nil {
			opts.log.Warn().Err(err).Str("path", path).Msg("persist selection")
		}
	})
}
