package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Tiliavir/litt/internal/ledger"
)

func newAliasCmd(o *rootOptions) *cobra.Command {
	var key string
	cmd := &cobra.Command{
		Use:   "alias",
		Short: "List, create, replace or delete aliases",
		Long: `Without --key, list all aliases. With --key and at least one property,
create or replace that alias. With --key and no properties, delete it.`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.open(cmd)
			if err != nil {
				return err
			}
			in := ledger.AliasInput{
				Description:    optionalString(cmd, "description"),
				Detail:         optionalString(cmd, "detail"),
				StructuredData: optionalString(cmd, "structured-data"),
				Tags:           stringArray(cmd, "tag"),
			}
			return a.Alias(cmd.Context(), key, in, o.output(cmd))
		},
	}
	cmd.Flags().StringVarP(&key, "key", "k", "", "Alias key to create, replace or delete")
	addRecordFlags(cmd, propertyFlags)
	return cmd
}
