package main

import (
	"github.com/spf13/cobra"

	"github.com/dokzlo13/irlightd/internal/app"
)

var pressCmd = &cobra.Command{
	Use:   "press <light> <action|color>",
	Short: "Send a single button press through the configured gateway",
	Long: `Send one button press, for example "press bedroom bright_up" or "press bedroom red".
The light's stored state is not changed.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return app.Press(cmd.Context(), cfg, args[0], args[1])
	},
}
