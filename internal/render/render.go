// internal/render/render.go
package render

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/user/tickctl/internal/schema"
	"github.com/user/tickctl/internal/tickets"
)

func marker(s schema.Status) string {
	switch s {
	case schema.StatusResolved:
		return "✓"
	case schema.StatusInProgress:
		return "~"
	default:
		return "•"
	}
}

// Table writes one list window as a table plus a pager footer. An empty
// window renders its own message rather than a bare header.
func Table(w io.Writer, page tickets.Page) {
	if len(page.Tickets) == 0 {
		fmt.Fprintln(w, "No tickets found.")
	} else {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tTITLE\tSTATUS\tUPDATED")
		for _, t := range page.Tickets {
			fmt.Fprintf(tw, "%d\t%s\t%s %s\t%s\n",
				t.ID, t.Title, marker(t.Status), t.Status,
				t.UpdatedTime().Format("2006-01-02 15:04"))
		}
		tw.Flush()
	}

	fmt.Fprintf(w, "\noffset %d • limit %d", page.Offset, page.Limit)
	if page.HasPrev {
		fmt.Fprint(w, " • prev available")
	}
	if page.HasNext {
		fmt.Fprint(w, " • next available")
	}
	if page.Refreshing {
		fmt.Fprint(w, " • refreshing")
	}
	fmt.Fprintln(w)

	if page.RequestID != "" {
		fmt.Fprintf(w, "req: %s\n", page.RequestID)
	}
}

// Detail writes a single ticket view.
func Detail(w io.Writer, t schema.Ticket, requestID string) {
	fmt.Fprintf(w, "Ticket #%d: %s\n", t.ID, t.Title)
	fmt.Fprintf(w, "status:  %s %s\n", marker(t.Status), t.Status)
	fmt.Fprintf(w, "created: %s\n", t.CreatedAt)
	fmt.Fprintf(w, "updated: %s\n", t.UpdatedAt)
	fmt.Fprintln(w)
	if t.Description == "" {
		fmt.Fprintln(w, "No description.")
	} else {
		fmt.Fprintln(w, t.Description)
	}
	if requestID != "" {
		fmt.Fprintf(w, "\nreq: %s\n", requestID)
	}
}
