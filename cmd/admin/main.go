// Package main provides role management utilities for Muster.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"muster/internal/access"
	"muster/internal/config"
	"muster/internal/database"
	"muster/internal/models"
	"muster/internal/repository"
	"muster/internal/service"
)

func usage() {
	fmt.Println("Usage:")
	fmt.Println("  go run ./cmd/admin grant <email> <role>    - Grant a role to a user")
	fmt.Println("  go run ./cmd/admin revoke <email> <role>   - Revoke a role from a user")
	fmt.Println("  go run ./cmd/admin list                    - List users and their roles")
	fmt.Printf("Roles: %s\n", strings.Join(access.DefaultRegistry().Roles(), ", "))
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	ctx := context.Background()
	roles := service.NewRoleService(repository.NewUserRepository(db), access.DefaultRegistry())

	switch command := os.Args[1]; command {
	case "grant", "revoke":
		if len(os.Args) < 4 {
			usage()
			os.Exit(1)
		}
		email, role := os.Args[2], os.Args[3]
		if command == "grant" {
			err = roles.Grant(ctx, email, role)
		} else {
			err = roles.Revoke(ctx, email, role)
		}
		if err != nil {
			if models.IsCode(err, models.CodeNotFound) {
				fmt.Printf("User %s not found\n", email)
				os.Exit(1)
			}
			log.Fatalf("Failed to %s role: %v", command, err)
		}
		fmt.Printf("Done: %s %s for %s\n", command, role, email)

	case "list":
		users, err := roles.Users(ctx)
		if err != nil {
			log.Fatalf("Database error: %v", err)
		}
		for _, u := range users {
			fmt.Printf("%-5d %-35s %s\n", u.ID, u.Email, strings.Join(u.RoleNames(), ","))
		}

	default:
		fmt.Printf("Unknown command: %s\n", command)
		usage()
		os.Exit(1)
	}
}
