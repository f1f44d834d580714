package main

import (
	"context"
	"fmt"
	"os"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "tune":
		return runTune(ctx, args[1:])
	case "sessions":
		return runSessions(ctx, args[1:])
	case "session":
		return runSession(ctx, args[1:])
	case "profile":
		return runProfile(ctx, args[1:])
	case "latest":
		return runLatest(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: codextunerctl <tune|sessions|session|profile|latest> [flags]", msg)
}
