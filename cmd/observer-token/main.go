// Command observer-token mints a bearer token for the alert stream, signed
// with the same ALERT_STREAM_* settings the server reads.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	jwttoken "tourguard/internal/jwt_token"
	"tourguard/internal/platform/config"
)

func main() {
	observer := flag.String("observer", "", "observer id embedded in the token")
	ttl := flag.Duration("ttl", 12*time.Hour, "token lifetime")
	flag.Parse()

	token, err := mint(*observer, *ttl)
	if err != nil {
		fmt.Fprintln(os.Stderr, "observer-token:", err)
		os.Exit(1)
	}
	fmt.Println(token)
}

func mint(observer string, ttl time.Duration) (string, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return "", err
	}
	if cfg.Alerts.StreamSecret == "" {
		return "", errors.New("ALERT_STREAM_SECRET is not set")
	}
	svc := jwttoken.NewJWTService(cfg.Alerts.StreamSecret, cfg.Alerts.StreamIssuer, cfg.Alerts.StreamAudience)
	return svc.GenerateObserverToken(observer, ttl)
}
