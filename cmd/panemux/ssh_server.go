package main

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"log"
	"os"

	"github.com/gliderlabs/ssh"
	gossh "golang.org/x/crypto/ssh"

	"github.com/panemux/panemux/internal/config"
	"github.com/panemux/panemux/internal/encoding"
	"github.com/panemux/panemux/internal/session"
)

// startSSHServer configures and starts the SSH front end. Each session gets
// its own pane bridged to the SSH channel. Returns a shutdown function.
func startSSHServer(cfg config.Config, registry *encoding.SelectionRegistry, panes *session.Registry) (func(), error) {
	addr := fmt.Sprintf("%s:%d", cfg.ListenHost, cfg.ListenPort)
	log.Printf("INFO: Configuring SSH server on %s...", addr)

	signer, err := loadHostKey(cfg.HostKeyPath)
	if err != nil {
		return nil, err
	}

	server := &ssh.Server{
		Addr:        addr,
		Handler:     sessionHandler(cfg, registry, panes),
		HostSigners: []ssh.Signer{signer},
		Version:     "panemux",
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != ssh.ErrServerClosed {
			log.Printf("ERROR: SSH server error: %v", err)
		}
	}()

	log.Printf("INFO: SSH server ready - connect via: ssh -p %d %s", cfg.ListenPort, cfg.ListenHost)
	return func() { _ = server.Close() }, nil
}

// loadHostKey parses the configured host key, generating an ephemeral
// ed25519 key when the file does not exist.
func loadHostKey(path string) (ssh.Signer, error) {
	keyBytes, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		log.Printf("WARN: Host key %s not found, using an ephemeral key for this run", path)
		_, priv, genErr := ed25519.GenerateKey(rand.Reader)
		if genErr != nil {
			return nil, fmt.Errorf("generate ephemeral host key: %w", genErr)
		}
		signer, sigErr := gossh.NewSignerFromKey(priv)
		if sigErr != nil {
			return nil, fmt.Errorf("ephemeral host key signer: %w", sigErr)
		}
		return signer, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read host key %s: %w", path, err)
	}
	signer, err := gossh.ParsePrivateKey(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("parse host key %s: %w", path, err)
	}
	return signer, nil
}

// sessionHandler bridges one SSH session to a fresh pane. The remote command
// may name an encoding ("ssh -t host gbk") to override the default for this
// pane; the override is recorded as an explicit selection.
func sessionHandler(cfg config.Config, registry *encoding.SelectionRegistry, panes *session.Registry) ssh.Handler {
	return func(s ssh.Session) {
		ptyReq, winCh, isPty := s.Pty()
		if !isPty {
			fmt.Fprintln(s, "panemux requires a pty; connect with ssh -t")
			_ = s.Exit(1)
			return
		}

		enc := encoding.Encoding(defaultEncoding.Load())
		if args := s.Command(); len(args) > 0 {
			parsed, err := encoding.Parse(args[0])
			if err != nil {
				fmt.Fprintf(s, "%v\r\n", err)
				_ = s.Exit(1)
				return
			}
			enc = parsed
			registry.RecordSelection(parsed)
		}

		termEnv := ptyReq.Term
		if termEnv == "" {
			termEnv = "xterm-256color"
		}
		pane, err := session.NewPane(cfg.Shell, []string{"TERM=" + termEnv},
			uint16(ptyReq.Window.Height), uint16(ptyReq.Window.Width), enc, registry)
		if err != nil {
			log.Printf("ERROR: %s: %v", s.RemoteAddr(), err)
			fmt.Fprintf(s, "failed to start shell: %v\r\n", err)
			_ = s.Exit(1)
			return
		}
		panes.Add(pane)
		defer func() {
			panes.Remove(pane.ID)
			pane.Close()
		}()

		go func() {
			for win := range winCh {
				pane.Resize(uint16(win.Height), uint16(win.Width))
			}
		}()

		log.Printf("INFO: Session from %s on pane %s (%s)", s.RemoteAddr(), pane.ID, enc)
		pane.SetTriggerKey(cfg.TriggerByte())
		pane.Bridge(s)
	}
}
