package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

var (
	serverURL string
)

var statusCmd = &cobra.Command{
	Use:   "status [run-id]",
	Short: "Query server status or specific run",
	Long: `Queries the server for run status information.
If no run-id is provided, lists all runs.
If run-id is provided, shows detailed status for that run.`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&serverURL, "server", "http://localhost:8080", "Server URL")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if len(args) == 0 {
		return listServerRuns(out, fmt.Sprintf("%s/api/v1/runs", serverURL))
	}

	runID := args[0]
	return getRunStatus(out, fmt.Sprintf("%s/api/v1/runs/%s/status", serverURL, runID), runID)
}

// serverRun is the subset of a server job the status command prints.
type serverRun struct {
	ID          string    `json:"id"`
	State       string    `json:"state"`
	Generation  int       `json:"generation"`
	BestFitness float64   `json:"bestFitness"`
	BestGenes   []float64 `json:"bestGenes"`
	Evaluations int       `json:"evaluations"`
	Elapsed     float64   `json:"elapsed"`
	EPS         float64   `json:"eps"`
	Error       string    `json:"error"`
	Config      struct {
		Objective    string  `json:"objective"`
		PopSize      int     `json:"popSize"`
		Generations  int     `json:"generations"`
		MutationRate float64 `json:"mutationRate"`
		Seed         int64   `json:"seed"`
		Bounds       []struct {
			Min float64 `json:"min"`
			Max float64 `json:"max"`
		} `json:"bounds"`
	} `json:"config"`
}

func fetchJSON(url string, v interface{}) (int, error) {
	resp, err := http.Get(url)
	if err != nil {
		return 0, fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return resp.StatusCode, fmt.Errorf("server returned error: %s", string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
	}
	return resp.StatusCode, nil
}

func listServerRuns(out io.Writer, url string) error {
	var runs []serverRun
	if _, err := fetchJSON(url, &runs); err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs found")
		return nil
	}

	fmt.Fprintf(out, "Found %d run(s):\n\n", len(runs))
	for _, run := range runs {
		fmt.Fprintf(out, "Run ID: %s\n", run.ID)
		fmt.Fprintf(out, "  State: %s\n", run.State)
		fmt.Fprintf(out, "  Objective: %s (D=%d)\n", run.Config.Objective, len(run.Config.Bounds))
		fmt.Fprintf(out, "  Generation: %d/%d\n", run.Generation, run.Config.Generations)
		if run.State != "pending" {
			fmt.Fprintf(out, "  Best: %.6f\n", run.BestFitness)
		}
		fmt.Fprintln(out)
	}

	return nil
}

func getRunStatus(out io.Writer, url, runID string) error {
	var status serverRun
	code, err := fetchJSON(url, &status)
	if code == http.StatusNotFound {
		return fmt.Errorf("run not found: %s", runID)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Run: %s\n", status.ID)
	fmt.Fprintf(out, "State: %s\n", status.State)
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Configuration:")
	fmt.Fprintf(out, "  Objective: %s\n", status.Config.Objective)
	for d, b := range status.Config.Bounds {
		fmt.Fprintf(out, "  x%d in [%g, %g]\n", d+1, b.Min, b.Max)
	}
	fmt.Fprintf(out, "  Population: %d\n", status.Config.PopSize)
	fmt.Fprintf(out, "  Generations: %d\n", status.Config.Generations)
	fmt.Fprintf(out, "  Mutation rate: %g\n", status.Config.MutationRate)
	fmt.Fprintf(out, "  Seed: %d\n", status.Config.Seed)
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Progress:")
	fmt.Fprintf(out, "  Generation: %d/%d\n", status.Generation, status.Config.Generations)
	if len(status.BestGenes) > 0 {
		fmt.Fprintf(out, "  Best: %.6f at %s\n", status.BestFitness, formatParams(status.BestGenes))
	}
	elapsed := time.Duration(status.Elapsed * float64(time.Second))
	fmt.Fprintf(out, "  Elapsed: %s\n", elapsed.Round(time.Millisecond))
	if status.EPS > 0 {
		fmt.Fprintf(out, "  Throughput: %.0f evaluations/sec (%d total)\n", status.EPS, status.Evaluations)
	}

	if status.Error != "" {
		fmt.Fprintf(out, "\nError: %s\n", status.Error)
	}

	return nil
}
