package main

import (
	"context"

	"winamax-scraper/cmd/scraper-cli/commands"
	"winamax-scraper/lib/telemetry"
)

func main() {
	telemetry.SetupFromEnv(context.Background(), "scraper-cli")
	telemetry.InitSlog(true)
	commands.ExecuteContext(context.Background())
}
