package cmd

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	noColor bool

	green = color.New(color.FgGreen).SprintFunc()
	red   = color.New(color.FgRed).SprintFunc()
	cyan  = color.New(color.FgCyan).SprintFunc()
)

var rootCmd = &cobra.Command{
	Use:     "pajesim",
	Short:   "pajesim - replay and inspect Paje-style execution traces",
	Version: "0.1.0",
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	viper.BindPFlag("no-color", rootCmd.PersistentFlags().Lookup("no-color"))

	rootCmd.AddCommand(newRunCmd(), newServeCmd(), newInspectCmd())
}

func initConfig() {
	if noColor {
		color.NoColor = true
	}
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("PAJESIM")
	viper.AutomaticEnv()
	viper.ReadInConfig() // best-effort; absence of a config file is fine
}
