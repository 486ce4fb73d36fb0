package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sipocalypse/api/internal/server"
)

var setupCheckCmd = &cobra.Command{
	Use:   "setup-check",
	Short: "Report missing settings and verify store access",
	Args:  cobra.NoArgs,
	RunE:  runSetupCheck,
}

func init() {
	rootCmd.AddCommand(setupCheckCmd)
}

func runSetupCheck(cmd *cobra.Command, _ []string) error {
	e, err := loadEnv(cmd, false)
	if err != nil {
		return err
	}
	defer e.close()

	rep := server.CheckSetup(cmd.Context(), e.cfg, e.repo)

	out := cmd.OutOrStdout()
	if jsonOut {
		if err := printJSON(out, rep); err != nil {
			return err
		}
	} else {
		missing := "none"
		if len(rep.MissingEnvVars) > 0 {
			missing = strings.Join(rep.MissingEnvVars, ", ")
		}
		access := "ok"
		if !rep.SheetsAccess.OK {
			access = "failed: " + rep.SheetsAccess.Error
		}
		fmt.Fprintf(out, "Missing env vars:  %s\n", missing)
		fmt.Fprintf(out, "Sheets configured: %t\n", rep.SheetsConfigured)
		fmt.Fprintf(out, "Store access:      %s\n", access)
	}

	if !rep.OK {
		return errors.New("setup incomplete")
	}
	return nil
}
