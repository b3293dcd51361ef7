package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/gradfetch/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return json.NewEncoder(os.Stdout).Encode(version.Get())
		}
		if short, _ := cmd.Flags().GetBool("short"); short {
			fmt.Println(version.String())
			return nil
		}
		fmt.Println(version.Full())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().Bool("short", false, "print only the version")
	versionCmd.Flags().Bool("json", false, "print version information as JSON")
	rootCmd.Version = version.String()
}
