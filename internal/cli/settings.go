package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var errNoStore = errors.New("no local database configured, set DASHVIEW_DB")

func newSettingsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Manage local viewer settings",
	}
	cmd.AddCommand(newSaveFiltersCmd(app), newForgetCmd(app))
	return cmd
}

func newSaveFiltersCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:       "save-filters [on|off]",
		Short:     "Show or change whether applied filters are remembered",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Store == nil {
				return errNoStore
			}
			ctx := cmd.Context()

			if len(args) == 1 {
				var enabled bool
				switch args[0] {
				case "on":
					enabled = true
				case "off":
				default:
					return fmt.Errorf("expected on or off, got %q", args[0])
				}
				if err := app.Store.SetEnabled(ctx, enabled); err != nil {
					return err
				}
			}

			enabled, err := app.Store.Enabled(ctx)
			if err != nil {
				return err
			}
			state := "off"
			if enabled {
				state = "on"
			}
			fmt.Fprintf(app.Out, "save-filters: %s\n", styleBold.Render(state))
			return nil
		},
	}
}

func newForgetCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "forget <dashboard-key>",
		Short: "Remove the saved filters of a dashboard",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Store == nil {
				return errNoStore
			}
			if err := app.Store.Forget(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(app.Out, styleDim.Render("forgot filters for "+args[0]))
			return nil
		},
	}
}
