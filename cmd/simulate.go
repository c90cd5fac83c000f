package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/drt/app"
	"github.com/kilianp07/drt/infra/logger"
	"github.com/kilianp07/drt/internal/scenario"
)

var (
	scenarioPath string
	jsonOutput   bool
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Dispatch the requests of a scenario file",
	RunE:  simulate,
}

func init() {
	simulateCmd.Flags().StringVarP(&scenarioPath, "scenario", "s", "", "scenario file (YAML)")
	simulateCmd.Flags().BoolVar(&jsonOutput, "json", false, "print one JSON result per request")
	_ = simulateCmd.MarkFlagRequired("scenario")
	rootCmd.AddCommand(simulateCmd)
}

func simulate(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	sc, err := scenario.Load(scenarioPath)
	if err != nil {
		return err
	}
	net, err := sc.Network()
	if err != nil {
		return fmt.Errorf("network: %w", err)
	}
	vehicles, err := sc.Vehicles()
	if err != nil {
		return err
	}
	requests, err := sc.Requests()
	if err != nil {
		return err
	}

	svc, err := app.New(cfg, net, vehicles)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()
	sum, err := svc.Run(ctx, requests)
	if err != nil {
		return err
	}
	return printSummary(cmd.OutOrStdout(), sc.Name, sum)
}

func printSummary(w io.Writer, name string, sum app.Summary) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		for _, r := range sum.Results {
			if err := enc.Encode(r); err != nil {
				return err
			}
		}
		return enc.Encode(sum)
	}
	if name != "" {
		fmt.Fprintf(w, "scenario %s\n", name)
	}
	for _, r := range sum.Results {
		if r.Assigned {
			fmt.Fprintf(w, "%-12s -> %-10s pickup %8.1f dropoff %8.1f cost %8.1f\n",
				r.RequestID, r.VehicleID, r.PickupTime, r.DropoffTime, r.Cost)
			continue
		}
		fmt.Fprintf(w, "%-12s unassigned (%s)\n", r.RequestID, r.Reason)
	}
	fmt.Fprintf(w, "requests %d, assigned %d, stop visits %d, total cost %.1f, mean wait %.1f\n",
		sum.Requests, sum.Assigned, sum.Visits, sum.TotalCost, sum.MeanWaitTime)
	reasons := make([]string, 0, len(sum.Unassigned))
	for r := range sum.Unassigned {
		reasons = append(reasons, r)
	}
	sort.Strings(reasons)
	for _, r := range reasons {
		fmt.Fprintf(w, "unassigned %s: %d\n", r, sum.Unassigned[r])
	}
	return nil
}
