package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "facegate-server",
	Short: "Face-recognition access gateway",
	Long: `facegate-server identifies people in captured photos, opens or keeps
closed the door through the actuator board, and keeps a usage ledger
of the board's devices.

Configuration is read from FACEGATE_* environment variables; a .env
file in the working directory is loaded first when present.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
