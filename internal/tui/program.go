// SPDX-License-Identifier: MIT
package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"shottimer/internal/detector"
	"shottimer/internal/pipeline"
)

// NewProgram creates the timer program on the alternate screen.
func NewProgram(ctx context.Context, ctrl Controller, opts ...tea.ProgramOption) *tea.Program {
	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	return tea.NewProgram(NewModel(ctx, ctrl), opts...)
}

// Sender is satisfied by *tea.Program.
type Sender interface {
	Send(msg tea.Msg)
}

// Listener forwards shots to the program, tagged with the session that produced them.
func Listener(s Sender, sessionID func() string) pipeline.Listener {
	return pipeline.ListenerFunc(func(_ detector.Detector, e detector.ShotEvent) {
		s.Send(ShotMsg{SessionID: sessionID(), Event: e})
	})
}

// FaultHandler forwards worker failures to the program.
func FaultHandler(s Sender) pipeline.FaultHandler {
	return pipeline.FaultHandlerFunc(func(err error) {
		s.Send(FaultMsg{Err: err})
	})
}
