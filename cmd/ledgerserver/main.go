package main

import (
	"context"
	"crypto/rand"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/docvault/document-ledger-backend/common"
	"github.com/docvault/document-ledger-backend/confidential"
	"github.com/docvault/document-ledger-backend/httpserver"
	"github.com/docvault/document-ledger-backend/interfaces"
	"github.com/docvault/document-ledger-backend/ledger"
)

var flags []cli.Flag = []cli.Flag{
	&cli.StringFlag{
		Name:  "listen-addr",
		Value: "127.0.0.1:8080",
		Usage: "address to listen on for API",
	},
	&cli.StringFlag{
		Name:  "metrics-addr",
		Value: "127.0.0.1:8090",
		Usage: "address to listen on for Prometheus metrics",
	},
	&cli.StringFlag{
		Name:  "store-type",
		Value: "local",
		Usage: "confidential value store to use: 'local' or 'vault'",
	},
	&cli.StringFlag{
		Name:  "vault-addr",
		Value: "http://127.0.0.1:8200",
		Usage: "Vault server address (required if store-type is 'vault')",
	},
	&cli.StringFlag{
		Name:    "vault-token",
		Value:   "",
		Usage:   "Vault token (required if store-type is 'vault')",
		EnvVars: []string{"VAULT_TOKEN"},
	},
	&cli.StringFlag{
		Name:  "vault-mount",
		Value: "secret",
		Usage: "Vault KV v2 mount path",
	},
	&cli.StringFlag{
		Name:  "vault-path",
		Value: "document-ledger",
		Usage: "path within the Vault mount for confidential values",
	},
	&cli.StringFlag{
		Name:  "ledger-identity",
		Value: "",
		Usage: "hex identity the ledger acts under when talking to the store (random if empty)",
	},
	&cli.BoolFlag{
		Name:  "log-json",
		Value: false,
		Usage: "log in JSON format",
	},
	&cli.BoolFlag{
		Name:  "log-debug",
		Value: false,
		Usage: "log debug messages",
	},
	&cli.BoolFlag{
		Name:  "log-uid",
		Value: false,
		Usage: "generate a uuid and add to all log messages",
	},
	&cli.StringFlag{
		Name:  "log-service",
		Value: "document-ledger",
		Usage: "add 'service' tag to logs",
	},
	&cli.BoolFlag{
		Name:  "pprof",
		Value: false,
		Usage: "enable pprof debug endpoint",
	},
	&cli.Int64Flag{
		Name:  "drain-seconds",
		Value: 45,
		Usage: "seconds to wait in drain HTTP request",
	},
}

func main() {
	app := &cli.App{
		Name:  "ledger-server",
		Usage: "Serve the access-controlled document ledger API",
		Flags: flags,
		Action: func(cCtx *cli.Context) error {
			listenAddr := cCtx.String("listen-addr")
			metricsAddr := cCtx.String("metrics-addr")
			storeType := cCtx.String("store-type")
			logJSON := cCtx.Bool("log-json")
			logDebug := cCtx.Bool("log-debug")
			logUID := cCtx.Bool("log-uid")
			logService := cCtx.String("log-service")
			enablePprof := cCtx.Bool("pprof")
			drainDuration := time.Duration(cCtx.Int64("drain-seconds")) * time.Second

			logger := common.SetupLogger(&common.LoggingOpts{
				Debug:   logDebug,
				JSON:    logJSON,
				Service: logService,
				Version: common.Version,
			})

			if logUID {
				id := uuid.Must(uuid.NewRandom())
				logger = logger.With("uid", id.String())
			}

			// The ledger needs its own identity on the store so it can
			// keep decrypt rights over every secret it mints.
			self, err := ledgerIdentity(cCtx.String("ledger-identity"))
			if err != nil {
				logger.Error("Invalid ledger identity", "err", err)
				return err
			}

			var store interfaces.ConfidentialValueStore
			switch storeType {
			case "local":
				logger.Info("Using in-memory confidential value store")
				store = confidential.NewLocalStore()

			case "vault":
				vaultAddr := cCtx.String("vault-addr")
				vaultToken := cCtx.String("vault-token")
				if vaultToken == "" {
					logger.Error("vault-token is required when using the vault store")
					return fmt.Errorf("vault-token is required for store-type vault")
				}

				logger.Info("Using Vault confidential value store", "address", vaultAddr)
				vaultStore, err := confidential.NewVaultStore(
					vaultAddr, vaultToken,
					cCtx.String("vault-mount"), cCtx.String("vault-path"),
					logger,
				)
				if err != nil {
					logger.Error("Failed to create Vault store", "err", err)
					return err
				}

				if !vaultStore.Available(context.Background()) {
					logger.Error("Vault is not available", "address", vaultAddr)
					return fmt.Errorf("vault at %s is not available", vaultAddr)
				}
				store = vaultStore

			default:
				logger.Error("Invalid store-type", "type", storeType)
				return fmt.Errorf("invalid store-type: %s", storeType)
			}

			documentLedger := ledger.New(store, self, logger)
			handler := httpserver.NewHandler(documentLedger, logger)

			cfg := &httpserver.HTTPServerConfig{
				ListenAddr:               listenAddr,
				MetricsAddr:              metricsAddr,
				Log:                      logger,
				EnablePprof:              enablePprof,
				DrainDuration:            drainDuration,
				GracefulShutdownDuration: 30 * time.Second,
				ReadTimeout:              60 * time.Second,
				WriteTimeout:             30 * time.Second,
			}

			server, err := httpserver.New(cfg, handler)
			if err != nil {
				logger.Error("Failed to create server", "err", err)
				return err
			}

			logger.Info("Starting server", "ledgerIdentity", self.String())
			server.RunInBackground()

			exit := make(chan os.Signal, 1)
			signal.Notify(exit, os.Interrupt, syscall.SIGTERM)

			logger.Info("Server is running, press Ctrl+C to stop")
			<-exit
			logger.Info("Shutdown signal received")

			server.Shutdown()
			logger.Info("Server shutdown complete")

			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func ledgerIdentity(raw string) (interfaces.Identity, error) {
	if raw != "" {
		return interfaces.NewIdentityFromHex(raw)
	}

	var id interfaces.Identity
	if _, err := rand.Read(id[:]); err != nil {
		return interfaces.Identity{}, fmt.Errorf("failed to generate ledger identity: %w", err)
	}
	return id, nil
}
