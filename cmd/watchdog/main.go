package main

import (
	"context"

	"winamax-scraper/cmd/watchdog/commands"
	"winamax-scraper/lib/serviceutil"
	"winamax-scraper/lib/telemetry"
)

func main() {
	telemetry.SetupFromEnv(context.Background(), "watchdog")
	telemetry.InitSlog(false)
	commands.ExecuteContext(serviceutil.SignalContext())
}
