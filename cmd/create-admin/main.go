package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/studyhall/studyhall-backend/internal/config"
	"github.com/studyhall/studyhall-backend/internal/database"
	"github.com/studyhall/studyhall-backend/internal/logger"
	"github.com/studyhall/studyhall-backend/internal/model"
	"github.com/studyhall/studyhall-backend/internal/repository"
	"github.com/studyhall/studyhall-backend/internal/service"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"
)

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	userRepo := repository.NewUserRepository(pool)

	reader := bufio.NewReader(os.Stdin)

	fmt.Println("=== Create New Admin Account ===")

	fmt.Print("Enter Username: ")
	username, _ := reader.ReadString('\n')
	username = strings.TrimSpace(username)
	if username == "" {
		fmt.Println("Error: Username is required")
		return
	}

	if _, err := userRepo.GetByUsername(ctx, username); err == nil {
		fmt.Println("Error: Username is already taken")
		return
	}

	fmt.Print("Enter Display Name: ")
	name, _ := reader.ReadString('\n')
	name = strings.TrimSpace(name)
	if name == "" {
		fmt.Println("Error: Display name is required")
		return
	}

	fmt.Print("Enter Password: ")
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		fmt.Println("\nError reading password")
		return
	}
	password := string(bytePassword)
	fmt.Println()
	if len(password) < 8 {
		fmt.Println("Error: Password must be at least 8 characters")
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), cfg.BcryptCost)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to hash password")
	}

	admin := &model.User{
		ID:           uuid.New(),
		Username:     username,
		Name:         name,
		Avatar:       service.DefaultAvatar,
		PasswordHash: string(hashedPassword),
		CreationDate: time.Now().UnixMilli(),
		Admin:        true,
	}

	if err := userRepo.Create(ctx, admin); err != nil {
		log.Fatal().Err(err).Msg("Failed to create admin")
	}

	fmt.Printf("\nSuccess! Admin '%s' (%s) created with ID: %s\n", admin.Name, admin.Username, admin.ID)
}
