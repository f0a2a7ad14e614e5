// Package cli is the terminal dashboard viewer.
package cli

import (
	"context"
	"io"

	"go-dashboards/internal/snapshot"
	"go-dashboards/internal/viewer"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// InvitationResolver resolves an invitation token to its dashboard key
// without counting a use.
type InvitationResolver interface {
	ResolveInvitation(ctx context.Context, token string) (string, error)
}

// App holds what the commands need. Store may be nil when no local database
// is configured.
type App struct {
	Access                viewer.DataAccess
	Invitations           InvitationResolver
	Store                 *snapshot.Store
	MaxConcurrentSections int
	Width                 int
	Out                   io.Writer
	Logger                *zap.Logger
}

// NewRootCmd creates the top-level "dashview" command.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "dashview",
		Short:         "View dashboards in the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newShowCmd(app),
		newSettingsCmd(app),
	)

	return root
}
