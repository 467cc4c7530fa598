/*
main.go - Application entry point

PURPOSE:
  Starts the hydration engine CLI. Subcommands run the HTTP server or answer
  one-off queries against the configured store.

COMMANDS:
  serve      Run the HTTP API (and the daily report scheduler)
  goal       Print the goal series for a date range
  intake     Print bucketed intake aggregates
  recommend  Print a recommended daily goal for a profile

CONFIGURATION:
  --config    TOML file (default hydration.toml, optional)
  --env-file  .env file (default .env, optional)
  HYDRATION_* environment variables override both.

EXAMPLES:
  # Run with an in-memory store
  HYDRATION_STORE_DRIVER=memory ./server serve

  # Monthly goal averages for the first quarter
  ./server goal --from 2025-01-01 --to 2025-04-01 --by-month

  # Daily intake with days starting at 04:00
  ./server intake --from 2025-01-01 --to 2025-01-08 --day-offset 4

SEE ALSO:
  - root.go: Shared flags, config and store setup
  - serve.go: Server startup and graceful shutdown
  - config/config.go: Configuration surface
*/
package main

func main() {
	Execute()
}
