// Command panemux bridges terminal sessions to a local shell while
// transcoding between the shell's legacy multi-byte encoding (GBK, GB18030,
// Big5, EUC-KR, Shift-JIS) and the UTF-8 spoken by modern clients. It serves
// panes over SSH by default, or attaches the local terminal with -local.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/panemux/panemux/internal/config"
	"github.com/panemux/panemux/internal/encoding"
	"github.com/panemux/panemux/internal/logging"
	"github.com/panemux/panemux/internal/menu"
	"github.com/panemux/panemux/internal/session"
)

// defaultEncoding holds the encoding new panes start in; the config watcher
// updates it on reload.
var defaultEncoding atomic.Int32

func main() {
	configPath := flag.String("config", "panemux.json", "path to the configuration file")
	debug := flag.Bool("debug", false, "enable debug logging")
	local := flag.Bool("local", false, "attach the local terminal instead of serving SSH")
	pick := flag.Bool("pick", false, "open the encoding picker before attaching (implies -local)")
	encName := flag.String("encoding", "", "override the configured pane encoding")
	flag.Parse()

	logging.DebugEnabled = *debug || os.Getenv("DEBUG") == "1"

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("ERROR: %v", err)
	}
	defaultEncoding.Store(int32(cfg.Encoding()))

	registry := encoding.NewSelectionRegistry()
	panes := session.NewRegistry()
	defer panes.Stop()

	if cfg.IdleSweepSchedule != "" && cfg.IdleLimitMinutes > 0 {
		limit := time.Duration(cfg.IdleLimitMinutes) * time.Minute
		if err := panes.StartIdleSweep(cfg.IdleSweepSchedule, limit); err != nil {
			log.Printf("WARN: Idle sweep disabled: %v", err)
		}
	}

	watcher, err := config.NewWatcher(*configPath, func(updated config.Config) {
		defaultEncoding.Store(int32(updated.Encoding()))
	})
	if err != nil {
		log.Printf("WARN: Config auto-reload disabled: %v", err)
	} else {
		defer watcher.Stop()
	}

	paneEnc := encoding.Encoding(defaultEncoding.Load())
	if *encName != "" {
		enc, err := encoding.Parse(*encName)
		if err != nil {
			log.Fatalf("ERROR: %v", err)
		}
		paneEnc = enc
		registry.RecordSelection(enc)
	}

	if *local || *pick {
		if err := runLocal(cfg, paneEnc, *pick, registry, panes); err != nil {
			log.Fatalf("ERROR: %v", err)
		}
		return
	}

	cleanup, err := startSSHServer(cfg, registry, panes)
	if err != nil {
		log.Fatalf("ERROR: %v", err)
	}
	defer cleanup()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	log.Printf("INFO: Shutting down")
}

// stdioPipe joins stdin and stdout into the io.ReadWriter a pane bridge
// expects.
type stdioPipe struct{}

func (stdioPipe) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdioPipe) Write(p []byte) (int, error) { return os.Stdout.Write(p) }

// runLocal attaches the calling terminal to a single pane.
func runLocal(cfg config.Config, enc encoding.Encoding, pick bool, registry *encoding.SelectionRegistry, panes *session.Registry) error {
	if pick {
		program := tea.NewProgram(menu.New(registry, enc))
		final, err := program.Run()
		if err != nil {
			return fmt.Errorf("encoding picker: %w", err)
		}
		if m, ok := final.(menu.Model); ok {
			if choice, chosen := m.Choice(); chosen {
				enc = choice
			}
		}
	}

	fd := int(os.Stdin.Fd())
	width, height, err := term.GetSize(fd)
	if err != nil {
		return fmt.Errorf("panemux -local needs a terminal: %w", err)
	}

	pane, err := session.NewPane(cfg.Shell, []string{"TERM=" + os.Getenv("TERM")}, uint16(height), uint16(width), enc, registry)
	if err != nil {
		return err
	}
	panes.Add(pane)
	defer func() {
		panes.Remove(pane.ID)
		pane.Close()
	}()

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("set raw mode: %w", err)
	}
	defer func() { _ = term.Restore(fd, oldState) }()

	winch := make(chan os.Signal, 1)
	signal.Notify(winch, syscall.SIGWINCH)
	defer signal.Stop(winch)
	go func() {
		for range winch {
			if w, h, err := term.GetSize(fd); err == nil {
				pane.Resize(uint16(h), uint16(w))
			}
		}
	}()

	pane.SetTriggerKey(cfg.TriggerByte())
	pane.Bridge(stdioPipe{})
	return nil
}

var _ io.ReadWriter = stdioPipe{}
