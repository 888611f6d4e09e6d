// Command housekeeping runs the retention jobs outside the HTTP server: once
// from a cron entry or CI, or in the foreground on a schedule.
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
