package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gridloop/recap/app/plugins"
	"github.com/gridloop/recap/config"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the configuration and build every configured module",
	RunE:  check,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func check(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	opt, err := plugins.Optimizers.Create(cfg.Optimization)
	if err != nil {
		return fmt.Errorf("optimizer: %w", err)
	}
	cmd.Printf("optimizer %s: horizon %d, state dim %d, rewards %v\n",
		cfg.Optimization.Type, opt.Horizon(), opt.StateDim(), opt.RewardNames())
	for name, mc := range cfg.Reward {
		f, err := plugins.Forecasters.Create(mc)
		if err != nil {
			return fmt.Errorf("forecaster %q: %w", name, err)
		}
		cmd.Printf("forecaster %s (%s): horizon %d\n", name, mc.Type, f.Horizon())
	}
	cmd.Println("configuration ok")
	return nil
}
