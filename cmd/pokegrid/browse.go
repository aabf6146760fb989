package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Sternrassler/pokegrid/internal/tui"
	"github.com/Sternrassler/pokegrid/pkg/pagination"
)

func newBrowseCmd(a *app) *cobra.Command {
	var baseURL string

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse the card grid in the terminal.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if baseURL == "" {
				baseURL = a.cfg.Server.BaseURL
			}
			client, err := pagination.NewClient(pagination.ClientConfig{
				BaseURL:   baseURL,
				PageSize:  a.cfg.Scroll.PageSize,
				Timeout:   a.cfg.Upstream.Timeout,
				UserAgent: a.cfg.Upstream.UserAgent,
			})
			if err != nil {
				return err
			}

			model := tui.New(cmd.Context(), tui.Options{
				Fetch:       client.FetchPage,
				InitialPage: a.cfg.Scroll.InitialPage,
				Visibility:  a.cfg.Visibility(),
			})
			defer model.Close()

			p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			log.Info().Str("base_url", baseURL).Msg("Starting TUI")
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("TUI error: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&baseURL, "base-url", "", "origin serving /api/sample (overrides server.base_url)")
	return cmd
}
