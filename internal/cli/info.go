package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/portsweep/portsweep/internal/port"
	"github.com/portsweep/portsweep/internal/process"
)

var infoCmd = &cobra.Command{
	Use:   "info <pid>",
	Short: "Show detail for a process",
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

func runInfo(cmd *cobra.Command, args []string) error {
	pid, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid PID: %w", err)
	}

	fetcher := process.NewInfoFetcher(&port.RealCmdRunner{})
	info, err := fetcher.GetInfo(context.Background(), pid)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}

	fmt.Printf("PID:      %d\n", info.PID)
	if info.Name != "" {
		fmt.Printf("Name:     %s\n", info.Name)
	}
	if info.User != "" {
		fmt.Printf("User:     %s\n", info.User)
	}
	if info.PPID > 0 {
		fmt.Printf("Parent:   %d\n", info.PPID)
	}
	if !info.StartTime.IsZero() {
		fmt.Printf("Started:  %s\n", info.StartTime.Format("2006-01-02 15:04:05"))
	}
	if info.Command != "" {
		fmt.Printf("Command:  %s\n", info.Command)
	}
	return nil
}
