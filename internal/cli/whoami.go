package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shaiso/aap/internal/format"
)

// ErrNoCurrentUser — Gateway не вернул текущего пользователя.
var ErrNoCurrentUser = errors.New("unable to retrieve current user information")

var whoamiColumns = []format.Column{
	format.Field("ID", "id"),
	format.Field("Username", "username"),
	format.Field("Email", "email"),
	format.Field("First Name", "first_name"),
	format.Field("Last Name", "last_name"),
	format.Bool("Superuser", "is_superuser"),
	format.Bool("Platform Auditor", "is_platform_auditor"),
	format.Field("Organizations", "organizations"),
	format.Datetime("Last Login", "last_login"),
	format.Datetime("Created", "created"),
}

// NewWhoamiCmd создаёт команду, показывающую текущего пользователя.
func NewWhoamiCmd(clientFn ClientFunc, outputFn OutputFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the authenticated user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cs, err := clientFn()
			if err != nil {
				return err
			}

			page, err := cs.Gateway.List(cmd.Context(), "me/", nil)
			if err != nil {
				return fmt.Errorf("get current user: %w", err)
			}
			if len(page.Results) == 0 {
				return ErrNoCurrentUser
			}
			me := page.Results[0]

			var orgs []string
			related, _ := me.Lookup("summary_fields.organizations")
			for _, org := range records(related) {
				orgs = append(orgs, org.String("name"))
			}
			me["organizations"] = "None"
			if len(orgs) > 0 {
				me["organizations"] = strings.Join(orgs, ", ")
			}

			return outputFn().Show(whoamiColumns, me)
		},
	}
}
