package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Trigger a sync run",
	Long:  "Trigger the poller to sync one or more endpoints and print the per-endpoint results.",
	Example: `  possync sync
  possync sync --days-back 3
  possync sync --endpoints Checks,Payments`,
	RunE: func(cmd *cobra.Command, args []string) error {
		daysBack, _ := cmd.Flags().GetInt("days-back")
		endpoints, _ := cmd.Flags().GetStringSlice("endpoints")

		body := map[string]any{}
		if daysBack > 0 {
			body["days_back"] = daysBack
		}
		if len(endpoints) > 0 {
			body["endpoints"] = endpoints
		}
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}

		// Sync runs are synchronous and can take a while.
		client := &http.Client{Timeout: 15 * time.Minute}
		resp, err := client.Post(pollerURL(cmd)+"/sync", "application/json", bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("failed to reach poller: %w", err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}

		var pretty bytes.Buffer
		if err := json.Indent(&pretty, data, "", "  "); err != nil {
			cmd.Println(string(data))
		} else {
			cmd.Println(pretty.String())
		}

		if resp.StatusCode >= http.StatusBadRequest {
			return fmt.Errorf("sync request failed with status %d", resp.StatusCode)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.Flags().Int("days-back", 0, "look-back window in days (default: poller's configured value)")
	syncCmd.Flags().StringSlice("endpoints", nil, "endpoints to sync (default: all)")
}
