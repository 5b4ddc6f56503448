// Package commands implements the netsim CLI commands.
package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/timothychou/netsim/internal/stats"
)

// flowSummary aggregates every sample recorded against one flow entity.
type flowSummary struct {
	id            string
	bytesSent     float64
	bytesReceived float64
	lastRTT       float64
	haveRTT       bool
	lastWindow    float64
	haveWindow    bool
}

// linkSummary aggregates every sample recorded against one link entity.
type linkSummary struct {
	id          string
	bytesFlowed float64
	lostPackets float64
	peakBuffer  float64
}

// hostSummary aggregates every sample recorded against one host entity.
type hostSummary struct {
	id            string
	bytesSent     float64
	bytesReceived float64
}

// runSummary is the grouping of every recorded sample by EntityKind and
// EntityID, ready to render as the three tables run.go prints after a
// simulation finishes.
type runSummary struct {
	flows []flowSummary
	links []linkSummary
	hosts []hostSummary
}

// summarize groups recorder.All() by EntityKind/EntityID (spec.md §6.2),
// folding each entity's samples down to the running totals and last-seen
// values the summary tables report.
func summarize(samples []stats.Sample) runSummary {
	flows := make(map[string]*flowSummary)
	links := make(map[string]*linkSummary)
	hosts := make(map[string]*hostSummary)

	flowOrder := newIDOrder()
	linkOrder := newIDOrder()
	hostOrder := newIDOrder()

	for _, s := range samples {
		switch s.EntityKind {
		case stats.Flow:
			f, ok := flows[s.EntityID]
			if !ok {
				f = &flowSummary{id: s.EntityID}
				flows[s.EntityID] = f
				flowOrder.see(s.EntityID)
			}
			switch s.Kind {
			case stats.BytesSent:
				f.bytesSent += s.Value
			case stats.BytesReceived:
				f.bytesReceived += s.Value
			case stats.RTTSample:
				f.lastRTT, f.haveRTT = s.Value, true
			case stats.WindowSize:
				f.lastWindow, f.haveWindow = s.Value, true
			}

		case stats.Link:
			l, ok := links[s.EntityID]
			if !ok {
				l = &linkSummary{id: s.EntityID}
				links[s.EntityID] = l
				linkOrder.see(s.EntityID)
			}
			switch s.Kind {
			case stats.BytesFlowed:
				l.bytesFlowed += s.Value
			case stats.LostPackets:
				l.lostPackets += s.Value
			case stats.BufferOccupancy:
				if s.Value > l.peakBuffer {
					l.peakBuffer = s.Value
				}
			}

		case stats.Host:
			h, ok := hosts[s.EntityID]
			if !ok {
				h = &hostSummary{id: s.EntityID}
				hosts[s.EntityID] = h
				hostOrder.see(s.EntityID)
			}
			switch s.Kind {
			case stats.BytesSent:
				h.bytesSent += s.Value
			case stats.BytesReceived:
				h.bytesReceived += s.Value
			}
		}
	}

	out := runSummary{}
	for _, id := range flowOrder.order {
		out.flows = append(out.flows, *flows[id])
	}
	for _, id := range linkOrder.order {
		out.links = append(out.links, *links[id])
	}
	for _, id := range hostOrder.order {
		out.hosts = append(out.hosts, *hosts[id])
	}
	return out
}

// idOrder remembers the first-seen order of entity ids so the summary
// tables list entities deterministically without depending on map
// iteration order or resorting to an alphabetical sort that would scatter
// related flows/links apart.
type idOrder struct {
	order []string
	seen  map[string]bool
}

func newIDOrder() *idOrder {
	return &idOrder{seen: make(map[string]bool)}
}

func (o *idOrder) see(id string) {
	if o.seen[id] {
		return
	}
	o.seen[id] = true
	o.order = append(o.order, id)
}

// formatSummary renders the per-flow/per-link/per-host summary as three
// tabwriter-aligned tables, stacked in a fixed order so an entity kind
// with no samples still shows its (empty) section rather than silently
// omitting it.
func formatSummary(sum runSummary) string {
	var b strings.Builder
	b.WriteString(formatFlowTable(sum.flows))
	b.WriteString(formatLinkTable(sum.links))
	b.WriteString(formatHostTable(sum.hosts))
	return b.String()
}

func formatFlowTable(flows []flowSummary) string {
	var buf strings.Builder
	buf.WriteString("FLOWS\n")
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FLOW\tBYTES-SENT\tBYTES-RECEIVED\tLAST-RTT\tLAST-WINDOW")
	for _, f := range flows {
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%s\n",
			f.id,
			int64(f.bytesSent),
			int64(f.bytesReceived),
			optionalFloat(f.lastRTT, f.haveRTT),
			optionalFloat(f.lastWindow, f.haveWindow),
		)
	}
	_ = w.Flush()
	return buf.String()
}

func formatLinkTable(links []linkSummary) string {
	var buf strings.Builder
	buf.WriteString("LINKS\n")
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "LINK\tBYTES-FLOWED\tPACKETS-LOST\tPEAK-BUFFER")
	for _, l := range links {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\n",
			l.id,
			int64(l.bytesFlowed),
			int64(l.lostPackets),
			int64(l.peakBuffer),
		)
	}
	_ = w.Flush()
	return buf.String()
}

func formatHostTable(hosts []hostSummary) string {
	var buf strings.Builder
	buf.WriteString("HOSTS\n")
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "HOST\tBYTES-SENT\tBYTES-RECEIVED")
	for _, h := range hosts {
		fmt.Fprintf(w, "%s\t%d\t%d\n", h.id, int64(h.bytesSent), int64(h.bytesReceived))
	}
	_ = w.Flush()
	return buf.String()
}

func optionalFloat(v float64, have bool) string {
	if !have {
		return valueNA
	}
	return fmt.Sprintf("%.3f", v)
}

const valueNA = "N/A"
