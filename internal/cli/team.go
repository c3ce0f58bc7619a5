package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/shaiso/aap/internal/domain"
	"github.com/shaiso/aap/internal/format"
)

var teamResource = resource{
	kind: domain.Team,
	list: format.Columns("id", "name", "description", "organization"),
	long: []format.Column{
		format.Field("ID", "id"),
		format.Field("Name", "name"),
		format.Field("Description", "description"),
		format.Field("Organization", "organization"),
		format.Datetime("Created", "created"),
		format.Datetime("Modified", "modified"),
	},
	detail: []format.Column{
		format.Field("ID", "id"),
		format.Field("Name", "name"),
		format.Field("Description", "description"),
		format.Field("Organization", "organization"),
		format.Datetime("Created", "created"),
		format.Datetime("Modified", "modified"),
	},
}

// NewTeamCmd создаёт группу команд для управления командами Gateway.
func NewTeamCmd(clientFn ClientFunc, outputFn OutputFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "team",
		Short: "Manage teams",
	}

	cmd.AddCommand(
		newTeamListCmd(clientFn, outputFn),
		newShowCmd(teamResource, clientFn, outputFn),
		newTeamCreateCmd(clientFn, outputFn),
		newTeamSetCmd(clientFn, outputFn),
		newDeleteCmd(teamResource, clientFn, outputFn),
	)

	return cmd
}

func newTeamListCmd(clientFn ClientFunc, outputFn OutputFunc) *cobra.Command {
	var long bool
	var organization string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List teams",
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
				params.Set("organization", strconv.Itoa(orgID))
			}

			teams, err := fetchList(ctx, cs, domain.Team, params)
			if err != nil {
				return err
			}
			return outputFn().List(teamResource.columns(long), teams)
		},
	}

	cmd.Flags().BoolVar(&long, "long", false, "Show additional columns")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of results")
	cmd.Flags().StringVar(&organization, "organization", "", "Filter by organization (name or ID)")

	return cmd
}

func newTeamCreateCmd(clientFn ClientFunc, outputFn OutputFunc) *cobra.Command {
	var description, organization string

	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a team",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cs, err := clientFn()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			f := newFields(cmd).set("description", "description", description)
			if err := f.ref(ctx, cs, "organization", "organization", domain.Organization, organization); err != nil {
				return err
			}
			f.body["name"] = args[0]

			return runCreate(ctx, cs, teamResource, f.body, outputFn())
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "Team description")
	cmd.Flags().StringVar(&organization, "organization", "", "Organization (name or ID)")
	cmd.MarkFlagRequired("organization")

	return cmd
}

func newTeamSetCmd(clientFn ClientFunc, outputFn OutputFunc) *cobra.Command {
	var tf targetFlags
	var name, description, organization string

	cmd := &cobra.Command{
		Use:   "set [NAME|ID]",
		Short: "Update a team",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cs, err := clientFn()
			if err != nil {
				return err
			}

			f := newFields(cmd).
				set("name", "name", name).
				set("description", "description", description)
			if err := f.ref(cmd.Context(), cs, "organization", "organization", domain.Organization, organization); err != nil {
				return err
			}
			return runSet(cmd, cs, teamResource, &tf, args, f.body, outputFn())
		},
	}

	tf.register(cmd, "Team", false)
	cmd.Flags().StringVar(&name, "name", "", "New team name")
	cmd.Flags().StringVar(&description, "description", "", "Team description")
	cmd.Flags().StringVar(&organization, "organization", "", "Organization (name or ID)")

	return cmd
}
