// Package handlers provides the Telnet roll session: every line a client
// types is searched for dice formulas and the results are written back.
package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dnddice/internal/frontend/telnet"
	"github.com/cory-johannsen/dnddice/internal/processor"
)

// TextProcessor evaluates the formulas embedded in a line of text.
type TextProcessor interface {
	ProcessText(ctx context.Context, text string) []processor.Result
}

const welcomeBanner = "\r\n" + telnet.Bold + telnet.Cyan + "  dnddice" + telnet.Reset + "\r\n\r\n" +
	"  Type any text containing dice formulas, e.g. " + telnet.Green + "attack 1d20+5 for 2d6+3" + telnet.Reset + ".\r\n" +
	"  Type " + telnet.Green + "help" + telnet.Reset + " for syntax, " + telnet.Green + "quit" + telnet.Reset + " to disconnect.\r\n\r\n"

var helpLines = []string{
	"Formulas:",
	"  NdS              roll N dice with S sides (d20 means 1d20)",
	"  + - * /          arithmetic, integer division",
	"  A > B, A < B     compare:             1d20+5 > 15",
	"  (A)s>N           total against N:     (2d6+3)s>10",
	"  NdSc>N           count dice over N:   4d10c>5",
	"Modifiers after NdS:",
	"  khN klN kmN      keep highest, lowest, or N low/high pairs",
	"  dhN dlN dmN      drop highest, lowest, or N from each end",
	"  rN roN           reroll below N until it holds, or once",
	"  ! xN             explode on max, at most N times per die",
	"Prefixes:",
	"  s                spoiler: hide the result",
	"  f                show the full roll trace",
	"Parameters:",
	"  &name {&name}    substitute a stored parameter",
}

// RollHandler implements telnet.SessionHandler, running each input line
// through a TextProcessor.
type RollHandler struct {
	processor TextProcessor
	logger    *zap.Logger
}

// NewRollHandler creates a RollHandler.
//
// Precondition: proc and logger must be non-nil.
func NewRollHandler(proc TextProcessor, logger *zap.Logger) *RollHandler {
	return &RollHandler{processor: proc, logger: logger}
}

// HandleSession implements telnet.SessionHandler.
//
// Postcondition: Returns nil when the client quits, ctx.Err() on shutdown, or
// the read/write error that ended the session.
func (h *RollHandler) HandleSession(ctx context.Context, conn *telnet.Conn) error {
	if err := conn.Write([]byte(welcomeBanner)); err != nil {
		return fmt.Errorf("sending welcome: %w", err)
	}

	for {
		if ctx.Err() != nil {
			_ = conn.WriteLine(telnet.Colorize(telnet.Yellow, "Server shutting down. Goodbye!"))
			return ctx.Err()
		}

		if err := conn.WritePrompt(telnet.Colorize(telnet.Bold, "roll> ")); err != nil {
			return fmt.Errorf("writing prompt: %w", err)
		}
		line, err := conn.ReadLine()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("reading input: %w", err)
		}

		line = strings.TrimSpace(line)
		switch strings.ToLower(line) {
		case "":
			continue
		case "quit", "exit":
			return conn.WriteLine("Goodbye.")
		case "help":
			if err := conn.WriteLines(helpLines); err != nil {
				return err
			}
			continue
		}

		start := time.Now()
		results := h.processor.ProcessText(ctx, line)
		h.logger.Debug("line processed",
			zap.String("remote_addr", conn.RemoteAddr().String()),
			zap.Int("formulas", len(results)),
			zap.Duration("duration", time.Since(start)),
		)
		if err := conn.WriteLines(RenderResults(results)); err != nil {
			return err
		}
	}
}
