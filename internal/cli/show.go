package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go-dashboards/internal/viewer"
	"go-dashboards/pkg/filters"

	"github.com/spf13/cobra"
)

const clearScreen = "\033[H\033[2J"

func newShowCmd(app *App) *cobra.Command {
	var (
		filterArgs []string
		token      string
		watch      bool
	)

	cmd := &cobra.Command{
		Use:   "show [dashboard-key]",
		Short: "Render a dashboard",
		Long: "Render a dashboard once, or keep it on screen with --watch.\n" +
			"Filters are given as --filter NAME=VALUE; multiselect values are comma separated.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := ""
			if len(args) == 1 {
				key = args[0]
			}
			return runShow(cmd.Context(), app, key, token, filterArgs, watch)
		},
	}

	cmd.Flags().StringArrayVarP(&filterArgs, "filter", "f", nil, "Filter value as NAME=VALUE (repeatable)")
	cmd.Flags().StringVar(&token, "token", "", "Invitation token")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Keep rendering until interrupted")

	return cmd
}

func runShow(ctx context.Context, app *App, key, token string, filterArgs []string, watch bool) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if token != "" {
		invited, err := app.Invitations.ResolveInvitation(ctx, token)
		if err != nil {
			return err
		}
		if key != "" && key != invited {
			return fmt.Errorf("invitation is for dashboard %q, not %q", invited, key)
		}
		key = invited
	}
	if key == "" {
		return errors.New("a dashboard key or --token is required")
	}

	raw, err := parseFilterArgs(filterArgs)
	if err != nil {
		return err
	}

	updates := make(chan struct{}, 1)
	opts := viewer.Options{
		Token:                 token,
		MaxConcurrentSections: app.MaxConcurrentSections,
		Logger:                app.Logger,
		OnUpdate: func(viewer.Snapshot) {
			select {
			case updates <- struct{}{}:
			default:
			}
		},
	}
	if token == "" && app.Store != nil {
		opts.Store = app.Store
	}

	sess := viewer.NewSession(app.Access, opts)
	defer sess.Close()

	loadErr := sess.Open(ctx, key)
	st := sess.Structure()
	if st == nil {
		return loadErr
	}

	if len(raw) > 0 {
		for name, text := range raw {
			def, ok := findFilter(st.Filters, name)
			if !ok {
				return fmt.Errorf("unknown filter %q", name)
			}
			value, err := filters.Coerce(def, text)
			if err != nil {
				return err
			}
			if err := sess.SetFilter(def.VarName, value); err != nil {
				return err
			}
		}
		loadErr = sess.Apply(ctx)
	}

	var gating *viewer.GatingError
	if errors.As(loadErr, &gating) {
		// The banner shows what is missing.
		loadErr = nil
	}

	draw := func() {
		out := RenderDashboard(st, sess.Snapshot(), app.Width)
		if loadErr != nil {
			out += "\n" + renderLoadError(loadErr)
		}
		if watch {
			out = clearScreen + out
		}
		fmt.Fprint(app.Out, out)
	}

	draw()
	if !watch {
		return loadErr
	}

	// Drain the update from the initial load.
	select {
	case <-updates:
	default:
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-updates:
			loadErr = nil
			draw()
		case <-ticker.C:
			if sess.Scheduler().State() != viewer.Disabled {
				draw()
			}
		}
	}
}

// parseFilterArgs splits NAME=VALUE pairs. A later pair overrides an earlier
// one with the same name.
func parseFilterArgs(args []string) (map[string]string, error) {
	out := make(map[string]string, len(args))
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid filter %q, expected NAME=VALUE", arg)
		}
		out[name] = value
	}
	return out, nil
}

// findFilter matches a filter by variable name, then case-insensitively by
// variable or display name.
func findFilter(defs []filters.Definition, name string) (filters.Definition, bool) {
	for _, d := range defs {
		if d.VarName == name {
			return d, true
		}
	}
	for _, d := range defs {
		if strings.EqualFold(d.VarName, name) || strings.EqualFold(d.Name, name) {
			return d, true
		}
	}
	return filters.Definition{}, false
}

func renderLoadError(err error) string {
	var lines []string
	for _, e := range unwrapAll(err) {
		lines = append(lines, styleError.Render("! "+e.Error()))
	}
	return strings.Join(lines, "\n") + "\n"
}

func unwrapAll(err error) []error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err}
}
