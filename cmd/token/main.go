package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ogurasousui/onboarding-engine/internal/adapters/grpc/interceptor"
	"github.com/ogurasousui/onboarding-engine/internal/core/access"
	"github.com/ogurasousui/onboarding-engine/internal/platform/config"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to config file (defaults to CONFIG_PATH env or assets/local.yaml)")
		subject    = flag.String("sub", "", "user id placed in the sub claim")
		roles      = flag.String("roles", "EMPLOYEE", "comma separated roles (EMPLOYEE, HR, ADMIN)")
		ttl        = flag.Duration("ttl", time.Hour, "token lifetime")
	)
	flag.Parse()

	cfgPath := *configPath
	if cfgPath == "" {
		cfgPath = os.Getenv("CONFIG_PATH")
	}
	if cfgPath == "" {
		cfgPath = "assets/local.yaml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	p := access.Principal{UserID: strings.TrimSpace(*subject)}
	if p.UserID == "" {
		log.Fatal("-sub is required")
	}
	for _, raw := range strings.Split(*roles, ",") {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		role, ok := access.ParseRole(raw)
		if !ok {
			log.Fatalf("unknown role %q", raw)
		}
		p.Roles = append(p.Roles, role)
	}

	now := time.Now()
	token, err := interceptor.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.Issuer).Issue(p, jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(*ttl)),
	})
	if err != nil {
		log.Fatalf("failed to sign token: %v", err)
	}
	fmt.Println(token)
}
