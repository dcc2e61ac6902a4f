package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/user/tickctl/internal/api"
	"github.com/user/tickctl/internal/cache"
	"github.com/user/tickctl/internal/refresh"
	"github.com/user/tickctl/internal/render"
	"github.com/user/tickctl/internal/schema"
	"github.com/user/tickctl/internal/tickets"
)

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().String("status", "", "initial status filter")
	watchCmd.Flags().Int("limit", api.DefaultLimit, "page size")
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Live ticket list: search, filter, page and mutate from one prompt",
	Long: `Watch keeps one list window on screen and refreshes it in the
background. Plain input feeds the (debounced) title search; lines
starting with ':' are commands:

  :status <open|in_progress|resolved|any>   set or clear the status filter
  :limit <n>                                set the page size
  :next, :prev                              page through results
  :open <id>                                show one ticket
  :set <id> <status>                        change a ticket's status
  :refresh                                  refetch the current window
  :quit                                     exit`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	e, err := newEnv()
	if err != nil {
		return err
	}

	status, _ := cmd.Flags().GetString("status")
	limit, _ := cmd.Flags().GetInt("limit")
	if status != "" {
		if _, err := schema.ParseStatus(status); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	e.cache.Start(ctx)
	defer e.cache.Stop()

	refresher := refresh.New(e.cfg.Watch.Refresh, e.cache)
	if err := refresher.Start(); err != nil {
		return err
	}
	defer refresher.Stop()

	w := &watch{
		env:     e,
		settler: cache.NewSettler(e.cfg.Debounce()),
		params: api.ListParams{
			Status: schema.Status(status),
			Limit:  limit,
		}.Normalize(),
	}
	defer w.settler.Stop()
	w.resubscribe()

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case snap := <-w.sub.Updates():
			w.last = tickets.PageFrom(snap, w.params)
			render.Table(os.Stdout, w.last)
			if snap.Err != nil {
				msg := snap.Err.Error()
				if snap.State == cache.StateSuccess {
					msg += " (showing cached data)"
				}
				fmt.Fprintln(os.Stdout, msg)
			}
		case q := <-w.settler.Settled():
			if q != w.params.Search {
				w.params.Search = q
				w.params.Offset = 0
				w.resubscribe()
			}
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if quit := w.handleLine(ctx, line); quit {
				return nil
			}
		case <-sigChan:
			return nil
		case <-ctx.Done():
			return nil
		}
	}
}

// watch is the state of one live list window.
type watch struct {
	env     *env
	settler *cache.Settler
	params  api.ListParams
	sub     *cache.Subscription
	last    tickets.Page
}

// resubscribe swaps the live subscription to the current parameters.
// The superseded subscription stops being consumed; its outstanding
// fetch, if any, completes into its own entry.
func (w *watch) resubscribe() {
	if w.sub != nil {
		w.sub.Cancel()
	}
	w.sub, w.params = w.env.service.SubscribeList(w.params)
}

// handleLine interprets one input line. Plain text feeds the search
// settler; ':'-prefixed lines are commands. Returns true to exit.
func (w *watch) handleLine(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, ":") {
		w.settler.Set(line)
		return false
	}

	fields := strings.Fields(line[1:])
	if len(fields) == 0 {
		return false
	}

	switch fields[0] {
	case "quit", "q":
		return true

	case "status":
		if len(fields) != 2 {
			fmt.Println("usage: :status <open|in_progress|resolved|any>")
			return false
		}
		next := fields[1]
		if next == "any" {
			next = ""
		}
		if next != "" {
			if _, err := schema.ParseStatus(next); err != nil {
				fmt.Println(err)
				return false
			}
		}
		w.params.Status = schema.Status(next)
		w.params.Offset = 0
		w.resubscribe()

	case "limit":
		if len(fields) != 2 {
			fmt.Println("usage: :limit <n>")
			return false
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil || n <= 0 {
			fmt.Println("limit must be a positive number")
			return false
		}
		w.params.Limit = n
		w.params.Offset = 0
		w.resubscribe()

	case "next":
		if !w.last.HasNext {
			fmt.Println("No next page.")
			return false
		}
		w.params.Offset += w.params.Limit
		w.resubscribe()

	case "prev":
		if w.params.Offset == 0 {
			fmt.Println("Already on the first page.")
			return false
		}
		w.params.Offset -= w.params.Limit
		if w.params.Offset < 0 {
			w.params.Offset = 0
		}
		w.resubscribe()

	case "open":
		if len(fields) != 2 {
			fmt.Println("usage: :open <id>")
			return false
		}
		id, err := parseTicketID(fields[1])
		if err != nil {
			fmt.Println(err)
			return false
		}
		t, requestID, err := w.env.service.Get(ctx, id)
		if err != nil {
			fmt.Println(err)
			return false
		}
		render.Detail(os.Stdout, t, requestID)

	case "set":
		if len(fields) != 3 {
			fmt.Println("usage: :set <id> <status>")
			return false
		}
		id, err := parseTicketID(fields[1])
		if err != nil {
			fmt.Println(err)
			return false
		}
		next, err := schema.ParseStatus(fields[2])
		if err != nil {
			fmt.Println(err)
			return false
		}
		if _, err := w.env.service.UpdateStatus(ctx, id, next); err != nil {
			fmt.Println(err)
			return false
		}
		fmt.Printf("Ticket #%d is now %s.\n", id, next)

	case "refresh":
		w.env.cache.Refetch(w.sub.Key())

	default:
		fmt.Printf("unknown command :%s\n", fields[0])
	}
	return false
}
