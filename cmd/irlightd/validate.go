package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dokzlo13/irlightd/internal/app"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration file and list the configured lights",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s: ok (gateway %s)\n", configPath, cfg.Gateway.Type)
		for _, lc := range cfg.Lights {
			lcfg := app.LightConfig(lc)
			fmt.Fprintf(out, "  %s %q: %d levels, %d colors, effects %v\n",
				lcfg.ID, lcfg.Name, lcfg.Levels, len(lcfg.Colors), lcfg.Buttons.EffectList())
		}
		return nil
	},
}
