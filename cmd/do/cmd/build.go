package cmd

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"
)

func BuildCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the server binary (web client is embedded)",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("Building", output)
			return run("go", "build", "-trimpath", "-ldflags", "-s -w", "-o", output, "./cmd/server")
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "bin/server", "output path")
	return cmd
}

func run(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = append(os.Environ(), "CGO_ENABLED=0")
	return cmd.Run()
}
