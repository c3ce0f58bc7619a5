package cli

import (
	"fmt"
	"maps"
	"strconv"
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/shaiso/aap/internal/domain"
	"github.com/shaiso/aap/internal/format"
)

// Колонки credential не включают inputs: секреты не выводятся.
var credentialResource = resource{
	kind: domain.Credential,
	list: []format.Column{
		format.Field("ID", "id"),
		format.Field("Name", "name"),
		format.Field("Credential Type", "credential_type"),
		format.Field("Organization", "organization"),
	},
	long: []format.Column{
		format.Field("ID", "id"),
		format.Field("Name", "name"),
		format.Field("Credential Type", "credential_type"),
		format.Field("Organization", "organization"),
		format.Field("Description", "description"),
		format.Datetime("Created", "created"),
		format.Datetime("Modified", "modified"),
	},
	detail: []format.Column{
		format.Field("ID", "id"),
		format.Field("Name", "name"),
		format.Field("Description", "description"),
		format.Field("Credential Type", "credential_type"),
		format.Field("Organization", "organization"),
		format.Field("Kind", "kind"),
		format.Bool("Managed", "managed"),
		format.Datetime("Created", "created"),
		format.Datetime("Modified", "modified"),
	},
}

// secretMarkers — подстроки имён полей inputs, значения которых скрываются.
var secretMarkers = []string{"password", "secret", "token", "key", "passphrase", "unlock"}

// redactedValue заменяет секрет в структурированном выводе.
const redactedValue = "$encrypted$"

// NewCredentialCmd создаёт группу команд для управления credentials.
func NewCredentialCmd(clientFn ClientFunc, outputFn OutputFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credential",
		Short: "Manage credentials",
	}

	cmd.AddCommand(
		newCredentialListCmd(clientFn, outputFn),
		newCredentialShowCmd(clientFn, outputFn),
		newCredentialCreateCmd(clientFn, outputFn),
		newCredentialSetCmd(clientFn, outputFn),
		newDeleteCmd(credentialResource, clientFn, outputFn),
	)

	return cmd
}

func newCredentialListCmd(clientFn ClientFunc, outputFn OutputFunc) *cobra.Command {
	var long bool
	var organization, credentialType string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cs, err := clientFn()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			params := listParams(limit)
			if organization != "" {
				orgID, err := lookupRef(ctx, cs, domain.ControllerOrganization, organization)
				if err != nil {
					return err
				}
				params.Set("organization", strconv.Itoa(orgID))
			}
			if credentialType != "" {
				typeID, err := lookupRef(ctx, cs, domain.CredentialType, credentialType)
				if err != nil {
					return err
				}
				params.Set("credential_type", strconv.Itoa(typeID))
			}

			creds, err := fetchList(ctx, cs, domain.Credential, params)
			if err != nil {
				return err
			}
			for i, c := range creds {
				creds[i] = redactCredential(c)
			}
			return outputFn().List(credentialResource.columns(long), creds)
		},
	}

	cmd.Flags().BoolVar(&long, "long", false, "Show additional columns")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of results")
	cmd.Flags().StringVar(&organization, "organization", "", "Filter by organization (name or ID)")
	cmd.Flags().StringVar(&credentialType, "credential-type", "", "Filter by credential type (name or ID)")

	return cmd
}

func newCredentialShowCmd(clientFn ClientFunc, outputFn OutputFunc) *cobra.Command {
	var tf targetFlags

	cmd := &cobra.Command{
		Use:   "show [NAME|ID]",
		Short: "Show credential details (secrets are never shown)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cs, err := clientFn()
			if err != nil {
				return err
			}

			cred, err := resolveTarget(cmd, cs, domain.Credential, &tf, args)
			if err != nil {
				return err
			}
			return outputFn().Show(credentialResource.detail, redactCredential(cred))
		},
	}

	tf.register(cmd, "Credential", true)
	return cmd
}

func newCredentialCreateCmd(clientFn ClientFunc, outputFn OutputFunc) *cobra.Command {
	var description, organization, credentialType, inputs string

	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a credential",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cs, err := clientFn()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			f := newFields(cmd).set("description", "description", description)
			if err := f.ref(ctx, cs, "credential-type", "credential_type", domain.CredentialType, credentialType); err != nil {
				return err
			}
			if err := f.ref(ctx, cs, "organization", "organization", domain.ControllerOrganization, organization); err != nil {
				return err
			}
			if cmd.Flags().Changed("inputs") {
				vars, err := parseVarsArg(inputs, "--inputs")
				if err != nil {
					return err
				}
				f.body["inputs"] = vars
			}
			f.body["name"] = args[0]

			cred, err := cs.Controller.Post(ctx, domain.Credential.Path, f.body)
			if err != nil {
				return fmt.Errorf("create credential: %w", err)
			}
			return outputFn().Show(credentialResource.detail, redactCredential(cred))
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "Credential description")
	cmd.Flags().StringVar(&organization, "organization", "", "Organization (name or ID)")
	cmd.Flags().StringVar(&credentialType, "credential-type", "", "Credential type (name or ID)")
	cmd.Flags().StringVar(&inputs, "inputs", "", "Credential inputs as YAML/JSON, or @file")
	cmd.MarkFlagRequired("credential-type")

	return cmd
}

// credentialInputFlags — флаги, задающие отдельные поля inputs.
var credentialInputFlags = [][2]string{
	{"username", "username"},
	{"password", "password"},
	{"ssh-key-data", "ssh_key_data"},
	{"ssh-key-unlock", "ssh_key_unlock"},
	{"become-method", "become_method"},
	{"become-username", "become_username"},
	{"become-password", "become_password"},
}

func newCredentialSetCmd(clientFn ClientFunc, outputFn OutputFunc) *cobra.Command {
	var tf targetFlags
	var name, description, organization, inputs string

	cmd := &cobra.Command{
		Use:   "set [NAME|ID]",
		Short: "Update a credential",
		Long: heredoc.Doc(`
			Update a credential. Input flags (--username, --password, --inputs
			and so on) are merged into the current inputs: fields that are not
			given keep their stored values.
		`),
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFields(cmd).
				set("name", "name", name).
				set("description", "description", description)

			changed := map[string]any{}
			if cmd.Flags().Changed("inputs") {
				vars, err := parseVarsArg(inputs, "--inputs")
				if err != nil {
					return err
				}
				maps.Copy(changed, vars)
			}
			for _, fl := range credentialInputFlags {
				if cmd.Flags().Changed(fl[0]) {
					v, _ := cmd.Flags().GetString(fl[0])
					changed[fl[1]] = v
				}
			}
			if len(f.body) == 0 && len(changed) == 0 && !cmd.Flags().Changed("organization") {
				return ErrNothingToUpdate
			}

			cs, err := clientFn()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			if err := f.ref(ctx, cs, "organization", "organization", domain.ControllerOrganization, organization); err != nil {
				return err
			}

			cred, err := resolveTarget(cmd, cs, domain.Credential, &tf, args)
			if err != nil {
				return err
			}
			id, err := recordID(domain.Credential, cred)
			if err != nil {
				return err
			}

			if len(changed) > 0 {
				// Controller хранит непереданные секреты, если вернуть "$encrypted$".
				merged := map[string]any{}
				if current, ok := cred["inputs"].(map[string]any); ok {
					maps.Copy(merged, current)
				}
				maps.Copy(merged, changed)
				f.body["inputs"] = merged
			}

			updated, err := cs.Controller.Patch(ctx, domain.Credential.ItemPath(id), f.body)
			if err != nil {
				return fmt.Errorf("update credential %s: %w", displayName(domain.Credential, cred), err)
			}
			if updated == nil {
				if updated, err = cs.Controller.Get(ctx, domain.Credential.ItemPath(id), nil); err != nil {
					return err
				}
			}
			return outputFn().Show(credentialResource.detail, redactCredential(updated))
		},
	}

	tf.register(cmd, "Credential", false)
	cmd.Flags().StringVar(&name, "name", "", "New credential name")
	cmd.Flags().StringVar(&description, "description", "", "Credential description")
	cmd.Flags().StringVar(&organization, "organization", "", "Organization (name or ID)")
	cmd.Flags().StringVar(&inputs, "inputs", "", "Credential inputs as YAML/JSON, or @file")
	for _, fl := range credentialInputFlags {
		cmd.Flags().String(fl[0], "", "Input field "+fl[1])
	}

	return cmd
}

// redactCredential возвращает копию записи со скрытыми секретами в inputs.
// Controller обычно сам отдаёт "$encrypted$", но вывод не полагается на это.
func redactCredential(rec domain.Record) domain.Record {
	inputs, ok := rec["inputs"].(map[string]any)
	if !ok {
		return rec
	}
	out := maps.Clone(rec)
	redacted := make(map[string]any, len(inputs))
	for k, v := range inputs {
		if isSecretField(k) {
			v = redactedValue
		}
		redacted[k] = v
	}
	out["inputs"] = redacted
	return out
}

func isSecretField(name string) bool {
	name = strings.ToLower(name)
	for _, m := range secretMarkers {
		if strings.Contains(name, m) {
			return true
		}
	}
	return false
}
