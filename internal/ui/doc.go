// Package ui renders aesdctl output with Lipgloss and runs the live tail
// view with Bubble Tea.
//
// Printer covers the one-shot commands (send, discover): a header box, the
// returned log with timestamp records muted, and discovered servers. With
// Printer.Plain set the output is unstyled so it can be piped.
//
// TailModel is the interactive view used by "aesdctl tail". The caller runs
// the stream itself and feeds it to the program:
//
//	p := tea.NewProgram(ui.NewTailModel(url), tea.WithAltScreen())
//	go func() {
//	    err := client.Follow(ctx, url, func(b []byte) { p.Send(ui.LogChunkMsg(b)) })
//	    p.Send(ui.StreamEndedMsg{Err: err})
//	}()
//	_, err := p.Run()
package ui
