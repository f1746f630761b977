package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "faceguard",
	Short: "Face-recognition attendance tracking",
	Long: `FaceGuard is an offline-first attendance system. Kiosk devices run
the agent loop (detect faces, mark attendance, sync), while a central
server keeps the merged snapshot that all devices converge on.`,
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
