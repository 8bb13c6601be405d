/*
Package cmd
File: schema.go
Description: Emits the JSON schema of the save snapshot so the browser save
collaborator can validate documents before handing them to /api/load.
*/

package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"

	"github.com/everforgeworks/tradewinds-server/internal/save"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the save-snapshot JSON schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		reflector := jsonschema.Reflector{ExpandedStruct: true}
		schema := reflector.Reflect(&save.Snapshot{})

		out, err := json.MarshalIndent(schema, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}
