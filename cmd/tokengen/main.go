package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/zentra/emojimatch/config"
	"github.com/zentra/emojimatch/pkg/auth"
)

var (
	flagUsername string
	flagRole     string
	flagUserID   string
	flagTTL      time.Duration
	flagHelp     bool
)

func init() {
	flag.StringVar(&flagUsername, "username", "", "Name carried in the token")
	flag.StringVar(&flagRole, "role", auth.RolePlayer, "Token role (player or admin)")
	flag.StringVar(&flagUserID, "uid", "", "User ID, random when empty")
	flag.DurationVar(&flagTTL, "ttl", 0, "Token lifetime, defaults to JWT_ACCESS_TOKEN_EXPIRY")
	flag.BoolVar(&flagHelp, "help", false, "Print help message")
}

func main() {
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if flagHelp || flagUsername == "" {
		fmt.Println("Usage: tokengen -username name [-role admin] [-ttl 1h]")
		flag.PrintDefaults()
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	userID := uuid.New()
	if flagUserID != "" {
		userID, err = uuid.Parse(flagUserID)
		if err != nil {
			log.Fatal().Err(err).Str("uid", flagUserID).Msg("Invalid user ID")
		}
	}

	ttl := flagTTL
	if ttl <= 0 {
		ttl = cfg.JWT.AccessTTL
	}

	token, expiresAt, err := auth.GenerateAccessToken(userID, flagUsername, flagRole, cfg.JWT.Secret, ttl)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to generate token")
	}

	log.Info().
		Str("username", flagUsername).
		Str("role", flagRole).
		Time("expiresAt", expiresAt).
		Msg("Token generated")
	fmt.Println(token)
}
