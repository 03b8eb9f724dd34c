package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"tourdesk/internal/config"
	"tourdesk/internal/models"
	sandboxdb "tourdesk/internal/sandbox/db"
	"tourdesk/internal/sandbox/services"
	"tourdesk/internal/utils/logger"
)

// helper issues sandbox bearer tokens for scripting against the API with curl
func main() {
	var log = logger.New("helper")
	log.Info("🔑 Starting sandbox token helper CLI")

	if err := godotenv.Load(); err != nil {
		log.Warn("No .env file loaded: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Error("❌ Failed to load configuration", err)
		os.Exit(1)
	}
	db, err := sandboxdb.Connect(cfg.Sandbox.Database)
	if err != nil {
		log.Error("❌ Failed to connect to database", err)
		os.Exit(1)
	}
	defer sandboxdb.Close(db)

	auth := services.NewAuthService(db, cfg.Sandbox.JWT.Secret, cfg.Sandbox.JWT.TTL)
	reader := bufio.NewReader(os.Stdin)

	for {
		fmt.Print("Enter 't' to issue a token, 's' to list scopes, or 'q' to quit: ")
		choice, _ := reader.ReadString('\n')
		choice = strings.TrimSpace(choice)

		if choice == "q" || choice == "" {
			log.Info("👋 Exiting helper CLI")
			break
		}

		fmt.Print("Enter the user's email: ")
		email, _ := reader.ReadString('\n')
		email = strings.TrimSpace(email)

		user, err := models.GetUserByEmail(email, db)
		if err != nil {
			log.Error("❌ No such user", err)
			continue
		}

		switch choice {
		case "t":
			fmt.Print("Enter the user's password: ")
			password, _ := reader.ReadString('\n')
			issued, err := auth.Login(context.Background(), email, strings.TrimSpace(password), "127.0.0.1", "tourdesk-helper")
			if err != nil {
				log.Error("❌ Token could not be issued", err)
				continue
			}
			log.Success("✅ Token (expires %s): %s", issued.ExpiresAt.Format(time.RFC3339), issued.Token)
		case "s":
			log.Success("✅ %s has scopes %s", user.Email, strings.Join(models.ScopesForRole(user.Role, db), " "))
		default:
			log.Warn("⚠️ Invalid choice. Please enter 't', 's', or 'q'.")
		}
	}
}
