// Command kyberium-demo exercises the session engine end to end: a
// one-shot handshake, a multi-message triple-ratchet exchange, and a
// Prometheus /metrics endpoint. Each subcommand runs as its own
// process, so the endpoint reports only the serve-metrics process's
// own metrics. It is a demonstration
// harness, not part of the core engine (spec §6 — "no CLI ... at the
// core layer").
package main

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/jaydenbeard/kyberium/internal/config"
	"github.com/jaydenbeard/kyberium/internal/kyberium"
	"github.com/jaydenbeard/kyberium/internal/kyberium/session"
)

func main() {
	root := &cobra.Command{
		Use:   "kyberium-demo",
		Short: "Demonstration harness for the Kyberium post-quantum session engine",
	}
	root.AddCommand(handshakeCmd())
	root.AddCommand(chatCmd())
	root.AddCommand(serveMetricsCmd())

	if err := root.Execute(); err != nil {
		log.Fatalf("FATAL: %v", err)
	}
}

func handshakeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "handshake",
		Short: "Run a one-shot basic-session handshake and a single encrypt/decrypt round trip",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			sessionCfg := cfg.Session
			sessionCfg.UseTripleRatchet = false

			alice, err := session.New(sessionCfg)
			if err != nil {
				return fmt.Errorf("alice: %w", err)
			}
			defer alice.Close()
			bob, err := session.New(sessionCfg)
			if err != nil {
				return fmt.Errorf("bob: %w", err)
			}
			defer bob.Close()

			bobPublic, _, err := bob.InitSession(nil)
			if err != nil {
				return fmt.Errorf("bob init_session: %w", err)
			}

			ciphertext, _, err := alice.InitSession(bobPublic)
			if err != nil {
				return fmt.Errorf("alice init_session: %w", err)
			}

			if err := bob.CompleteHandshake(ciphertext); err != nil {
				return fmt.Errorf("bob complete_handshake: %w", err)
			}

			plaintext := []byte("hello, post-quantum world")
			ct, nonce, err := alice.Encrypt(plaintext, nil)
			if err != nil {
				return fmt.Errorf("alice encrypt: %w", err)
			}
			recovered, err := bob.Decrypt(ct, nonce, nil)
			if err != nil {
				return fmt.Errorf("bob decrypt: %w", err)
			}

			fmt.Printf("handshake complete, kdf=%s aead=%s\n", sessionCfg.KDFType, sessionCfg.SymmetricType)
			fmt.Printf("alice sent:  %q\n", plaintext)
			fmt.Printf("bob received: %q\n", recovered)
			if string(recovered) != string(plaintext) {
				return kyberium.Corruption("round trip mismatch")
			}
			return nil
		},
	}
}

func chatCmd() *cobra.Command {
	var messageCount int
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Run a triple-ratchet handshake and exchange several messages one way",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			sessionCfg := cfg.Session
			sessionCfg.UseTripleRatchet = true

			alice, err := session.New(sessionCfg)
			if err != nil {
				return fmt.Errorf("alice: %w", err)
			}
			defer alice.Close()
			bob, err := session.New(sessionCfg)
			if err != nil {
				return fmt.Errorf("bob: %w", err)
			}
			defer bob.Close()

			init, err := alice.TripleRatchetInit(bob.KEMPublicKey(), bob.SignPublicKey())
			if err != nil {
				return fmt.Errorf("alice triple_ratchet_init: %w", err)
			}
			if err := bob.TripleRatchetCompleteHandshake(init.KEMCiphertext, init.KEMSignature, init.SignPublicKey); err != nil {
				return fmt.Errorf("bob triple_ratchet_complete_handshake: %w", err)
			}

			fmt.Printf("triple ratchet handshake complete, sending %d messages\n", messageCount)
			for i := 0; i < messageCount; i++ {
				plaintext := []byte(fmt.Sprintf("message %d", i))
				envelope, err := alice.TripleRatchetEncrypt(plaintext, nil)
				if err != nil {
					return fmt.Errorf("alice triple_ratchet_encrypt: %w", err)
				}
				recovered, err := bob.TripleRatchetDecrypt(envelope.SignPublicKey, envelope.Ciphertext, envelope.Nonce, envelope.Signature, envelope.MsgNum, nil)
				if err != nil {
					return fmt.Errorf("bob triple_ratchet_decrypt (msg %d): %w", i, err)
				}
				fmt.Printf("  msg_num=%d sent=%q received=%q\n", envelope.MsgNum, plaintext, recovered)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&messageCount, "messages", 5, "number of messages to exchange")
	return cmd
}

func serveMetricsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve-metrics",
		Short: "Expose the Prometheus /metrics endpoint for external scraping",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())

			log.Printf("🚀 Starting kyberium-demo metrics server on %s", cfg.MetricsAddr)
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				log.Printf("metrics server stopped: %v", err)
				os.Exit(1)
			}
			return nil
		},
	}
}
