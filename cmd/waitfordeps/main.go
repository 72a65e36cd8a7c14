package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"time"

	_ "github.com/lib/pq"

	"iotconsole/iot-ui/internal/apiclient"
	"iotconsole/iot-ui/internal/session"
)

type dependency struct {
	name string
	ping func(ctx context.Context) error
}

// waitfordeps blocks until the remote API and any configured session backends answer.
// API_BASE_URL is required; DATABASE_URL and REDIS_URL are checked when set.
func main() {
	baseURL := os.Getenv("API_BASE_URL")
	if baseURL == "" {
		fmt.Fprintln(os.Stderr, "API_BASE_URL is required")
		os.Exit(2)
	}

	timeout := 60 * time.Second
	if raw := os.Getenv("WAIT_FOR_DEPS_TIMEOUT_SEC"); raw != "" {
		secs, err := strconv.Atoi(raw)
		if err != nil || secs <= 0 {
			fmt.Fprintf(os.Stderr, "invalid WAIT_FOR_DEPS_TIMEOUT_SEC: %q\n", raw)
			os.Exit(2)
		}
		timeout = time.Duration(secs) * time.Second
	}

	probePath := os.Getenv("API_PROBE_PATH")
	if probePath == "" {
		probePath = "Dashboard"
	}
	api, err := apiclient.New(apiclient.Options{BaseURL: baseURL, Timeout: 2 * time.Second, ProbePath: probePath})
	if err != nil {
		fmt.Fprintf(os.Stderr, "create api client: %v\n", err)
		os.Exit(2)
	}

	checks := []dependency{{name: "api", ping: api.Probe}}

	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		db, err := sql.Open("postgres", dsn)
		if err != nil {
			fmt.Fprintf(os.Stderr, "open postgres: %v\n", err)
			os.Exit(1)
		}
		defer db.Close()
		checks = append(checks, dependency{name: "postgres", ping: db.PingContext})
	}

	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		client, err := session.Connect(context.Background(), redisURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "connect redis: %v\n", err)
			os.Exit(1)
		}
		defer client.Close()
		checks = append(checks, dependency{name: "redis", ping: func(ctx context.Context) error { return client.Ping(ctx).Err() }})
	}

	deadline := time.Now().Add(timeout)
	for _, check := range checks {
		for {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			err := check.ping(ctx)
			cancel()
			if err == nil {
				fmt.Printf("%s ready\n", check.name)
				break
			}
			if time.Now().After(deadline) {
				fmt.Fprintf(os.Stderr, "%s not ready within %s: %v\n", check.name, timeout, err)
				os.Exit(1)
			}
			time.Sleep(2 * time.Second)
		}
	}
}
