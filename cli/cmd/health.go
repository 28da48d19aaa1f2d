package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check service health",
	Long:  "Query the health endpoints of the poller and processor services.",
	RunE: func(cmd *cobra.Command, args []string) error {
		services := []struct {
			name string
			url  string
		}{
			{"poller", pollerURL(cmd)},
			{"processor", processorURL(cmd)},
		}

		client := &http.Client{Timeout: 5 * time.Second}
		failed := 0
		for _, svc := range services {
			status, detail := checkHealth(client, svc.url+"/healthz")
			if status != "healthy" {
				failed++
			}
			cmd.Printf("%-10s %-10s %s\n", svc.name, status, detail)
		}

		if failed > 0 {
			return fmt.Errorf("%d service(s) unhealthy", failed)
		}
		return nil
	},
}

func checkHealth(client *http.Client, url string) (status, detail string) {
	resp, err := client.Get(url)
	if err != nil {
		return "unreachable", err.Error()
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "unhealthy", fmt.Sprintf("status %d", resp.StatusCode)
	}

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
		if s, ok := body["status"].(string); ok {
			return s, url
		}
	}
	return "healthy", url
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
