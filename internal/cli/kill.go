package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/portsweep/portsweep/internal/port"
	"github.com/portsweep/portsweep/internal/process"
)

var killPID int

var killCmd = &cobra.Command{
	Use:   "kill <port>",
	Short: "Kill the process bound to a port",
	Long: `Forcibly terminate the process bound to the given port. With --pid
the port argument is skipped and the PID is killed directly.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runKill,
}

func init() {
	killCmd.Flags().IntVar(&killPID, "pid", 0, "Kill this PID directly instead of looking up a port")
}

func runKill(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	runner := &port.RealCmdRunner{}
	terminator := process.NewTerminator(runner)

	if killPID > 0 {
		if err := terminator.Terminate(ctx, killPID); err != nil {
			return err
		}
		fmt.Printf("Kill issued for PID %d.\n", killPID)
		return nil
	}

	if len(args) != 1 {
		return fmt.Errorf("provide a port number or --pid")
	}
	portNum, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid port number: %w", err)
	}

	scanner := port.NewScanner(runner)
	var owners []port.Entry
	for _, e := range scanner.Snapshot(ctx) {
		if e.Port == portNum {
			owners = append(owners, e)
		}
	}
	if len(owners) == 0 {
		return fmt.Errorf("no process bound to port %d", portNum)
	}

	// Usually one owner; the OS utilities occasionally report more.
	for _, e := range owners {
		name := e.Process
		if name == "" {
			name = "unknown process"
		}
		if err := terminator.Terminate(ctx, e.PID); err != nil {
			return fmt.Errorf("killing %s on port %d: %w", name, portNum, err)
		}
		fmt.Printf("Kill issued for %s (PID %d) on port %d.\n", name, e.PID, e.Port)
	}
	return nil
}
