package cli

import (
	"context"
	"fmt"
	"maps"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/shaiso/aap/internal/api"
	"github.com/shaiso/aap/internal/domain"
	"github.com/shaiso/aap/internal/format"
	"github.com/shaiso/aap/internal/resolve"
	"github.com/shaiso/aap/internal/telemetry"
)

var organizationResource = resource{
	kind: domain.Organization,
	list: format.Columns("id", "name", "description"),
	long: []format.Column{
		format.Field("ID", "id"),
		format.Field("Name", "name"),
		format.Field("Description", "description"),
		format.Bool("Managed", "managed"),
		format.Datetime("Created", "created"),
		format.Datetime("Modified", "modified"),
	},
	detail: []format.Column{
		format.Field("ID", "id"),
		format.Field("Name", "name"),
		format.Field("Description", "description"),
		format.Field("Max Hosts", "max_hosts"),
		format.Bool("Managed", "managed"),
		format.Field("Users", "users"),
		format.Field("Teams", "teams"),
		format.Field("Projects", "projects"),
		format.Field("Job Templates", "job_templates"),
		format.Field("Inventories", "inventories"),
		format.Datetime("Created", "created"),
		format.Datetime("Modified", "modified"),
	},
}

// NewOrganizationCmd создаёт группу команд для управления организациями.
//
// Идентичность организации живёт в Gateway, операционные поля
// (max_hosts, счётчики ресурсов) — в Controller.
func NewOrganizationCmd(clientFn ClientFunc, outputFn OutputFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "organization",
		Aliases: []string{"org"},
		Short:   "Manage organizations",
	}

	cmd.AddCommand(
		newOrganizationListCmd(clientFn, outputFn),
		newOrganizationShowCmd(clientFn, outputFn),
		newOrganizationCreateCmd(clientFn, outputFn),
		newOrganizationSetCmd(clientFn, outputFn),
		newDeleteCmd(organizationResource, clientFn, outputFn),
	)

	return cmd
}

func newOrganizationListCmd(clientFn ClientFunc, outputFn OutputFunc) *cobra.Command {
	var long bool
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List organizations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cs, err := clientFn()
			if err != nil {
				return err
			}

			orgs, err := fetchList(cmd.Context(), cs, domain.Organization, listParams(limit))
			if err != nil {
				return err
			}
			return outputFn().List(organizationResource.columns(long), orgs)
		},
	}

	cmd.Flags().BoolVar(&long, "long", false, "Show additional columns")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of results")

	return cmd
}

func newOrganizationShowCmd(clientFn ClientFunc, outputFn OutputFunc) *cobra.Command {
	var tf targetFlags

	cmd := &cobra.Command{
		Use:   "show [NAME|ID]",
		Short: "Show organization details",
		Long: heredoc.Doc(`
			Show an organization with identity fields from the Gateway API and
			operational fields (max hosts, resource counts) from the Controller API.

			If the Controller API is unavailable, the Gateway data is still shown
			and the Controller-only fields are left empty.
		`),
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cs, err := clientFn()
			if err != nil {
				return err
			}

			org, err := resolveTarget(cmd, cs, domain.Organization, &tf, args)
			if err != nil {
				return err
			}

			merged := mergeOrganization(cmd.Context(), cs, org)
			return outputFn().Show(organizationResource.detail, merged)
		},
	}

	tf.register(cmd, "Organization", true)
	return cmd
}

// controllerOrganization находит организацию Controller по точному имени.
func controllerOrganization(ctx context.Context, cs *api.Clients, name string) (domain.Record, error) {
	t, err := resolve.ParseTarget(resolve.Input{Name: name})
	if err != nil {
		return nil, err
	}
	return newResolver(cs, domain.ControllerOrganization, false).Resolve(ctx, t)
}

// mergeOrganization дополняет запись Gateway полями Controller.
// Ошибка Controller не прерывает команду: поля Controller остаются пустыми,
// счётчики пользователей и команд берутся из Gateway.
func mergeOrganization(ctx context.Context, cs *api.Clients, org domain.Record) domain.Record {
	merged := maps.Clone(org)

	ctrl, err := controllerOrganization(ctx, cs, org.String("name"))
	if err != nil {
		telemetry.FromContext(ctx).Warn("could not fetch operational details from Controller API",
			"organization", org.String("name"), "error", err)
		for _, key := range []string{"users", "teams"} {
			if v, ok := org.Lookup("summary_fields.related_field_counts." + key); ok {
				merged[key] = v
			}
		}
		return merged
	}

	for _, key := range []string{"max_hosts", "custom_virtualenv", "default_environment"} {
		if v, ok := ctrl[key]; ok {
			merged[key] = v
		}
	}
	for _, key := range []string{"users", "teams", "projects", "job_templates", "inventories"} {
		v, ok := ctrl.Lookup("summary_fields.related_field_counts." + key)
		if !ok {
			v = 0
		}
		merged[key] = v
	}
	return merged
}

func newOrganizationCreateCmd(clientFn ClientFunc, outputFn OutputFunc) *cobra.Command {
	var description string
	var maxHosts int

	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create an organization",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cs, err := clientFn()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			out := outputFn()

			body := newFields(cmd).set("description", "description", description).body
			body["name"] = args[0]

			org, err := cs.Gateway.Post(ctx, domain.Organization.Path, body)
			if err != nil {
				return fmt.Errorf("create organization: %w", err)
			}
			if org == nil {
				org = domain.Record{"name": args[0]}
			}

			if cmd.Flags().Changed("max-hosts") {
				if err := setMaxHosts(ctx, cs, args[0], maxHosts); err != nil {
					out.Warn(fmt.Sprintf("organization created, but max hosts was not set: %v", err))
				} else {
					org["max_hosts"] = maxHosts
				}
			}

			return out.Show(organizationResource.detail, org)
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "Organization description")
	cmd.Flags().IntVar(&maxHosts, "max-hosts", 0, "Maximum number of hosts (0 means unlimited)")

	return cmd
}

// setMaxHosts обновляет max_hosts в Controller.
func setMaxHosts(ctx context.Context, cs *api.Clients, name string, maxHosts int) error {
	ctrl, err := controllerOrganization(ctx, cs, name)
	if err != nil {
		return err
	}
	id, err := recordID(domain.ControllerOrganization, ctrl)
	if err != nil {
		return err
	}
	_, err = cs.Controller.Patch(ctx, domain.ControllerOrganization.ItemPath(id), map[string]any{"max_hosts": maxHosts})
	return err
}

func newOrganizationSetCmd(clientFn ClientFunc, outputFn OutputFunc) *cobra.Command {
	var tf targetFlags
	var name, description string
	var maxHosts int

	cmd := &cobra.Command{
		Use:   "set [NAME|ID]",
		Short: "Update an organization",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := newFields(cmd).
				set("name", "name", name).
				set("description", "description", description).
				body
			if len(body) == 0 && !cmd.Flags().Changed("max-hosts") {
				return ErrNothingToUpdate
			}

			cs, err := clientFn()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			org, err := resolveTarget(cmd, cs, domain.Organization, &tf, args)
			if err != nil {
				return err
			}
			id, err := recordID(domain.Organization, org)
			if err != nil {
				return err
			}

			if len(body) > 0 {
				updated, err := cs.Gateway.Patch(ctx, domain.Organization.ItemPath(id), body)
				if err != nil {
					return fmt.Errorf("update organization: %w", err)
				}
				if updated != nil {
					org = updated
				}
			}
			if cmd.Flags().Changed("max-hosts") {
				if err := setMaxHosts(ctx, cs, org.String("name"), maxHosts); err != nil {
					return fmt.Errorf("update max hosts: %w", err)
				}
			}

			return outputFn().Show(organizationResource.detail, mergeOrganization(ctx, cs, org))
		},
	}

	tf.register(cmd, "Organization", false)
	cmd.Flags().StringVar(&name, "name", "", "New organization name")
	cmd.Flags().StringVar(&description, "description", "", "Organization description")
	cmd.Flags().IntVar(&maxHosts, "max-hosts", 0, "Maximum number of hosts (0 means unlimited)")

	return cmd
}
