package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/muurk/aesdsocket/internal/discovery"
)

// Printer writes styled aesdctl output. With Plain set, everything is
// written without styling, for pipes and scripts.
type Printer struct {
	out   io.Writer
	width int
	Plain bool
}

// NewPrinter creates a new Printer that writes to the given writer.
// If w is nil, os.Stdout is used.
func NewPrinter(w io.Writer) *Printer {
	if w == nil {
		w = os.Stdout
	}
	return &Printer{
		out:   w,
		width: GetTerminalWidth(),
	}
}

// Print writes content to the output
func (p *Printer) Print(content string) {
	_, _ = fmt.Fprint(p.out, content)
}

// Println writes content with a newline
func (p *Printer) Println(content string) {
	_, _ = fmt.Fprintln(p.out, content)
}

// PrintHeader prints a command header box. Nothing is printed in plain mode.
func (p *Printer) PrintHeader(title, command string, params map[string]string) {
	if p.Plain {
		return
	}
	h := NewHeader(title, command, params)
	h.Width = p.width
	p.Println(h.Render())
}

// PrintLog prints a log, styled unless in plain mode, where the bytes are
// written unchanged.
func (p *Printer) PrintLog(log []byte) {
	if p.Plain {
		_, _ = p.out.Write(log)
		return
	}
	p.Print(RenderLog(log))

	client, stamps := CountRecords(log)
	p.Println(HeaderCommandStyle.Render(fmt.Sprintf("%s %d records, %d timestamps, %d bytes",
		SuccessMarker, client, stamps, len(log))))
}

// PrintServices prints the servers found by an mDNS scan
func (p *Printer) PrintServices(services []*discovery.Service) {
	if len(services) == 0 {
		if !p.Plain {
			p.Println(ErrorTitleStyle.Render(FailureMarker + " No aesdsocket servers found"))
		}
		return
	}

	for _, svc := range services {
		if p.Plain {
			p.Println(svc.Addr())
			continue
		}
		p.Println(ServiceNameStyle.Render(SuccessMarker + " " + svc.Instance))
		p.Println(ServiceDetailStyle.Render("Address:  " + svc.Addr()))
		if svc.Hostname != "" {
			p.Println(ServiceDetailStyle.Render("Host:     " + svc.Hostname))
		}
		if v := svc.GetMetadata(discovery.TxtVersion); v != "" {
			p.Println(ServiceDetailStyle.Render("Version:  " + v))
		}
		if url := svc.TailURL(); url != "" {
			p.Println(ServiceDetailStyle.Render("Tail:     " + url))
		}
	}
}

// PrintError prints an error line
func (p *Printer) PrintError(err error) {
	if p.Plain {
		p.Println("Error: " + err.Error())
		return
	}
	p.Println(ErrorTitleStyle.Render(FailureMarker+" Error: ") + err.Error())
}
