package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/portsweep/portsweep/internal/config"
	"github.com/portsweep/portsweep/internal/port"
)

var (
	filterQuery string
	filterProto string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all bound ports",
	Long:  "Display every port currently bound by a process, one row per (port, protocol, PID).",
	RunE:  runList,
}

func init() {
	listCmd.Flags().StringVar(&filterQuery, "filter", "", "Keep rows whose port, process or PID contains this substring")
	listCmd.Flags().StringVar(&filterProto, "protocol", "", "Filter by protocol (tcp/udp)")
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	scanner := port.NewScanner(&port.RealCmdRunner{})
	entries := scanner.Snapshot(context.Background())

	proto := filterProto
	if proto == "" {
		proto = cfg.Protocol
	}
	entries = selectEntries(entries, cfg, proto)
	entries = port.Match(entries, filterQuery)

	if jsonOutput {
		return printJSON(entries)
	}
	return printTable(entries)
}

// selectEntries applies the protocol filter and the configured process
// exclude list. The snapshot is already deduplicated and port-sorted.
func selectEntries(entries []port.Entry, cfg *config.Config, proto string) []port.Entry {
	var kept []port.Entry
	for _, e := range entries {
		if proto != "" && !strings.EqualFold(string(e.Protocol), proto) {
			continue
		}
		if cfg.Excluded(e.Process) {
			continue
		}
		kept = append(kept, e)
	}
	return kept
}

func printTable(entries []port.Entry) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PORT\tPROTO\tPID\tPROCESS")
	for _, e := range entries {
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\n", e.Port, e.Protocol, e.PID, e.Process)
	}
	return w.Flush()
}

func printJSON(entries []port.Entry) error {
	type jsonEntry struct {
		Port     int    `json:"port"`
		Protocol string `json:"protocol"`
		PID      int    `json:"pid"`
		Process  string `json:"process"`
	}

	out := make([]jsonEntry, len(entries))
	for i, e := range entries {
		out[i] = jsonEntry{
			Port:     e.Port,
			Protocol: string(e.Protocol),
			PID:      e.PID,
			Process:  e.Process,
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
