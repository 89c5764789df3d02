package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"gamerit/cmd"
	"gamerit/config"
	"gamerit/database"

	log "github.com/sirupsen/logrus"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		if err := migrateCommand(os.Args[2:]); err != nil {
			log.Fatal("Migration error: ", err)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx); err != nil {
		log.Fatal("Application error: ", err)
	}
}

// migrateCommand handles `gamerit migrate up|down [steps]|status`
func migrateCommand(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: gamerit migrate up|down [steps]|status")
	}
	databaseURL := config.Get().GetDatabaseURL()

	switch args[0] {
	case "up":
		return database.MigrateUp(databaseURL)
	case "down":
		steps := 1
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid steps %q: %w", args[1], err)
			}
			steps = n
		}
		return database.MigrateDown(databaseURL, steps)
	case "status":
		status, err := database.MigrateStatus(databaseURL)
		if err != nil {
			return err
		}
		if !status.Applied {
			fmt.Println("no migrations applied")
			return nil
		}
		fmt.Printf("version %d (dirty=%t)\n", status.Version, status.Dirty)
		return nil
	default:
		return fmt.Errorf("unknown migration command: %s", args[0])
	}
}
