package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/shaiso/aap/internal/domain"
	"github.com/shaiso/aap/internal/format"
)

var userResource = resource{
	kind: domain.User,
	list: format.Columns("id", "username", "email", "first_name", "last_name"),
	long: []format.Column{
		format.Field("ID", "id"),
		format.Field("Username", "username"),
		format.Field("Email", "email"),
		format.Field("First Name", "first_name"),
		format.Field("Last Name", "last_name"),
		format.Bool("Active", "is_active"),
		format.Bool("Superuser", "is_superuser"),
		format.Datetime("Date Joined", "date_joined"),
	},
	detail: []format.Column{
		format.Field("ID", "id"),
		format.Field("Username", "username"),
		format.Field("Email", "email"),
		format.Field("First Name", "first_name"),
		format.Field("Last Name", "last_name"),
		format.Bool("Active", "is_active"),
		format.Bool("Superuser", "is_superuser"),
		format.Bool("Platform Auditor", "is_platform_auditor"),
		format.Bool("Managed", "managed"),
		format.Datetime("Last Login", "last_login"),
		format.Datetime("Date Joined", "date_joined"),
		format.Datetime("Created", "created"),
		format.Datetime("Modified", "modified"),
	},
}

// NewUserCmd создаёт группу команд для управления пользователями Gateway.
func NewUserCmd(clientFn ClientFunc, outputFn OutputFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}

	cmd.AddCommand(
		newUserListCmd(clientFn, outputFn),
		newShowCmd(userResource, clientFn, outputFn),
		newUserCreateCmd(clientFn, outputFn),
		newUserSetCmd(clientFn, outputFn),
		newDeleteCmd(userResource, clientFn, outputFn),
	)

	return cmd
}

func newUserListCmd(clientFn ClientFunc, outputFn OutputFunc) *cobra.Command {
	var long, superuser, active, inactive bool
	var organization string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cs, err := clientFn()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			params := listParams(limit)
			if organization != "" {
				orgID, err := lookupRef(ctx, cs, domain.Organization, organization)
				if err != nil {
					return err
				}
				params.Set("organizations__id", strconv.Itoa(orgID))
			}
			if superuser {
				params.Set("is_superuser", "true")
			}
			switch {
			case active:
				params.Set("is_active", "true")
			case inactive:
				params.Set("is_active", "false")
			}

			users, err := fetchList(ctx, cs, domain.User, params)
			if err != nil {
				return err
			}
			return outputFn().List(userResource.columns(long), users)
		},
	}

	cmd.Flags().BoolVar(&long, "long", false, "Show additional columns")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of results")
	cmd.Flags().StringVar(&organization, "organization", "", "Filter by organization (name or ID)")
	cmd.Flags().BoolVar(&superuser, "superuser", false, "Only superusers")
	cmd.Flags().BoolVar(&active, "active", false, "Only active users")
	cmd.Flags().BoolVar(&inactive, "inactive", false, "Only inactive users")
	cmd.MarkFlagsMutuallyExclusive("active", "inactive")

	return cmd
}

func newUserCreateCmd(clientFn ClientFunc, outputFn OutputFunc) *cobra.Command {
	var email, firstName, lastName, password string
	var superuser, auditor bool

	cmd := &cobra.Command{
		Use:   "create USERNAME",
		Short: "Create a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cs, err := clientFn()
			if err != nil {
				return err
			}

			body := newFields(cmd).
				set("email", "email", email).
				set("first-name", "first_name", firstName).
				set("last-name", "last_name", lastName).
				set("password", "password", password).
				set("superuser", "is_superuser", superuser).
				set("system-auditor", "is_platform_auditor", auditor).
				body
			body["username"] = args[0]

			return runCreate(cmd.Context(), cs, userResource, body, outputFn())
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&firstName, "first-name", "", "First name")
	cmd.Flags().StringVar(&lastName, "last-name", "", "Last name")
	cmd.Flags().StringVar(&password, "password", "", "Password")
	cmd.Flags().BoolVar(&superuser, "superuser", false, "Grant superuser privileges")
	cmd.Flags().BoolVar(&auditor, "system-auditor", false, "Grant platform auditor privileges")

	return cmd
}

func newUserSetCmd(clientFn ClientFunc, outputFn OutputFunc) *cobra.Command {
	var tf targetFlags
	var username, email, firstName, lastName, password string

	cmd := &cobra.Command{
		Use:   "set [USERNAME|ID]",
		Short: "Update a user",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFields(cmd).
				set("username", "username", username).
				set("email", "email", email).
				set("first-name", "first_name", firstName).
				set("last-name", "last_name", lastName).
				set("password", "password", password)
			if err := f.toggle("active", "inactive", "is_active"); err != nil {
				return err
			}
			if err := f.toggle("superuser", "no-superuser", "is_superuser"); err != nil {
				return err
			}
			if err := f.toggle("system-auditor", "no-system-auditor", "is_platform_auditor"); err != nil {
				return err
			}
			if len(f.body) == 0 {
				return ErrNothingToUpdate
			}

			cs, err := clientFn()
			if err != nil {
				return err
			}
			return runSet(cmd, cs, userResource, &tf, args, f.body, outputFn())
		},
	}

	tf.register(cmd, "User", false)
	cmd.Flags().StringVar(&username, "username", "", "New username")
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&firstName, "first-name", "", "First name")
	cmd.Flags().StringVar(&lastName, "last-name", "", "Last name")
	cmd.Flags().StringVar(&password, "password", "", "Password")
	cmd.Flags().Bool("active", false, "Activate the user")
	cmd.Flags().Bool("inactive", false, "Deactivate the user")
	cmd.Flags().Bool("superuser", false, "Grant superuser privileges")
	cmd.Flags().Bool("no-superuser", false, "Revoke superuser privileges")
	cmd.Flags().Bool("system-auditor", false, "Grant platform auditor privileges")
	cmd.Flags().Bool("no-system-auditor", false, "Revoke platform auditor privileges")

	return cmd
}
