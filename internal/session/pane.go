// Package session manages panes: one pty-backed shell process per client
// connection, bridged through the encoding transcoder in both directions.
package session

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"github.com/creack/pty"
	"github.com/google/uuid"

	"github.com/panemux/panemux/internal/encoding"
	"github.com/panemux/panemux/internal/logging"
	"github.com/panemux/panemux/internal/terminalio"
)

// Pane is one pty-backed shell process bridged to a client connection.
// The pty read pump owns the output decoder and the client input pump owns
// the input encoder; the active encoding is read per chunk, so SetEncoding
// takes effect on the next write in either direction.
type Pane struct {
	ID        uuid.UUID
	StartTime time.Time

	cmd        *exec.Cmd
	ptmx       *os.File
	active     atomic.Int32
	registry   *encoding.SelectionRegistry
	lastUsed   atomic.Int64 // unix nanos of the most recent byte in either direction
	triggerKey byte         // input byte that cycles the encoding, 0 disables

	closeOnce sync.Once
}

// NewPane spawns command on a fresh pty sized rows x cols. The pane starts
// in enc; reg receives later explicit encoding changes for menu ordering.
func NewPane(command []string, env []string, rows, cols uint16, enc encoding.Encoding, reg *encoding.SelectionRegistry) (*Pane, error) {
	if len(command) == 0 {
		return nil, errors.New("empty pane command")
	}
	cmd := exec.Command(command[0], command[1:]...)
	cmd.Env = append(os.Environ(), env...)

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: rows, Cols: cols})
	if err != nil {
		return nil, fmt.Errorf("start pty for %q: %w", command[0], err)
	}

	p := &Pane{
		ID:        uuid.New(),
		StartTime: time.Now(),
		cmd:       cmd,
		ptmx:      ptmx,
		registry:  reg,
	}
	p.active.Store(int32(enc))
	p.touch()
	log.Printf("INFO: Pane %s: started %q (pid %d)", p.ID, command[0], cmd.Process.Pid)
	return p, nil
}

// Encoding returns the pane's active encoding.
func (p *Pane) Encoding() encoding.Encoding {
	return encoding.Encoding(p.active.Load())
}

// SetEncoding switches the pane's active encoding and records the explicit
// choice for menu ordering.
func (p *Pane) SetEncoding(enc encoding.Encoding) {
	p.active.Store(int32(enc))
	if p.registry != nil {
		p.registry.RecordSelection(enc)
	}
	log.Printf("INFO: Pane %s: encoding set to %s", p.ID, enc)
}

// SetTriggerKey sets the input byte that cycles the pane encoding
// mid-session. Zero disables the trigger. Call before Bridge.
func (p *Pane) SetTriggerKey(b byte) {
	p.triggerKey = b
}

// CycleEncoding advances the pane to the next encoding in canonical order,
// wrapping at the end, and returns the new encoding.
func (p *Pane) CycleEncoding() encoding.Encoding {
	current := p.Encoding()
	order := encoding.CanonicalOrder
	next := order[0]
	for i, enc := range order {
		if enc == current {
			next = order[(i+1)%len(order)]
			break
		}
	}
	p.SetEncoding(next)
	return next
}

// Resize adjusts the pty to the client's new window size.
func (p *Pane) Resize(rows, cols uint16) {
	if p.ptmx == nil {
		return
	}
	if err := pty.Setsize(p.ptmx, &pty.Winsize{Rows: rows, Cols: cols}); err != nil {
		log.Printf("WARN: Pane %s: resize to %dx%d failed: %v", p.ID, cols, rows, err)
	}
}

// IdleFor reports how long the pane has gone without traffic.
func (p *Pane) IdleFor() time.Duration {
	return time.Since(time.Unix(0, p.lastUsed.Load()))
}

func (p *Pane) touch() {
	p.lastUsed.Store(time.Now().UnixNano())
}

// Close tears the pane down: pty closed, process killed if still running.
func (p *Pane) Close() {
	p.closeOnce.Do(func() {
		if p.ptmx != nil {
			_ = p.ptmx.Close()
		}
		if p.cmd != nil && p.cmd.Process != nil {
			_ = p.cmd.Process.Kill()
		}
	})
}

// Bridge pumps bytes between the client and the pty, transcoding both
// directions, until the shell exits or the client disconnects. The client
// input pump runs detached: it cannot be unblocked while the client holds
// its read open, so Bridge only waits for the pty side and lets the input
// pump die with the connection.
func (p *Pane) Bridge(client io.ReadWriter) {
	toClient := terminalio.NewDecodingWriter(client, p.Encoding)
	var toPty io.Writer = terminalio.NewEncodingWriter(p.ptmx, p.Encoding)
	if p.triggerKey != 0 {
		toPty = &triggerWriter{next: toPty, notify: client, p: p}
	}

	go func() {
		_, err := io.Copy(&activityWriter{toPty, p}, client)
		if err != nil && err != io.EOF && !errors.Is(err, os.ErrClosed) {
			logging.Debug("Pane %s: client input pump: %v", p.ID, err)
		}
		// Client went away; wake the output pump.
		_ = p.ptmx.Close()
	}()

	_, err := io.Copy(&activityWriter{toClient, p}, p.ptmx)
	if err != nil && err != io.EOF && !errors.Is(err, os.ErrClosed) {
		logging.Debug("Pane %s: pty output pump: %v", p.ID, err)
	}

	p.Close()
	if p.cmd != nil {
		if err := p.cmd.Wait(); err != nil {
			logging.Debug("Pane %s: shell exited: %v", p.ID, err)
		}
	}
	log.Printf("INFO: Pane %s: closed after %s", p.ID, time.Since(p.StartTime).Round(time.Second))
}

// triggerWriter watches client input for the encoding trigger byte. The
// byte is swallowed, the pane cycles to the next encoding, and a short
// notice goes back to the client; everything else flows through to the pty.
type triggerWriter struct {
	next   io.Writer
	notify io.Writer
	p      *Pane
}

func (tw *triggerWriter) Write(b []byte) (int, error) {
	start := 0
	for i, c := range b {
		if c != tw.p.triggerKey {
			continue
		}
		if i > start {
			if _, err := tw.next.Write(b[start:i]); err != nil {
				return start, err
			}
		}
		enc := tw.p.CycleEncoding()
		fmt.Fprintf(tw.notify, "\r\n[panemux] encoding: %s\r\n", enc)
		start = i + 1
	}
	if start < len(b) {
		if _, err := tw.next.Write(b[start:]); err != nil {
			return start, err
		}
	}
	return len(b), nil
}

// activityWriter stamps the pane's last-activity time on every chunk so the
// idle sweep only reaps genuinely silent panes.
type activityWriter struct {
	w io.Writer
	p *Pane
}

func (aw *activityWriter) Write(b []byte) (int, error) {
	aw.p.touch()
	return aw.w.Write(b)
}
