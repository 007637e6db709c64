// Команда issue-token выпускает JWT для сотрудника (authority или lab).
//
//	go run ./cmd/issue-token --subject=officer-1 --role=authority
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/ignatzorin/water-alert-backend/internal/config"
	"github.com/ignatzorin/water-alert-backend/internal/service"
)

func main() {
	subject := flag.String("subject", "", "идентификатор сотрудника")
	role := flag.String("role", service.RoleAuthority, "роль: authority или lab")
	ttl := flag.Duration("ttl", 0, "время жизни токена, по умолчанию ACCESS_TOKEN_TTL")
	flag.Parse()

	if *subject == "" {
		fmt.Fprintln(os.Stderr, "issue-token: --subject обязателен")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "issue-token: %v\n", err)
		os.Exit(1)
	}

	lifetime := cfg.AccessTokenTTL
	if *ttl > 0 {
		lifetime = *ttl
	}

	token, expiresAt, err := service.NewTokenManager(cfg.JWTSecret, lifetime).GenerateAccess(*subject, *role)
	if err != nil {
		fmt.Fprintf(os.Stderr, "issue-token: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(token)
	fmt.Fprintf(os.Stderr, "действует до %s\n", expiresAt.Format(time.RFC3339))
}
