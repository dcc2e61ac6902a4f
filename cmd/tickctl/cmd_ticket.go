package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/user/tickctl/internal/api"
	"github.com/user/tickctl/internal/render"
	"github.com/user/tickctl/internal/schema"
)

func init() {
	rootCmd.AddCommand(listCmd, showCmd, statusCmd)

	listCmd.Flags().String("status", "", "filter by status (open|in_progress|resolved)")
	listCmd.Flags().String("q", "", "title search text")
	listCmd.Flags().Int("limit", api.DefaultLimit, "page size")
	listCmd.Flags().Int("offset", 0, "page offset")
}

func parseTicketID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid ticket id %q", arg)
	}
	return id, nil
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List tickets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv()
		if err != nil {
			return err
		}

		status, _ := cmd.Flags().GetString("status")
		search, _ := cmd.Flags().GetString("q")
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")

		if status != "" {
			if _, err := schema.ParseStatus(status); err != nil {
				return err
			}
		}

		page, err := e.service.List(cmd.Context(), api.ListParams{
			Status: schema.Status(status),
			Search: search,
			Limit:  limit,
			Offset: offset,
		})
		if err != nil {
			return err
		}
		render.Table(os.Stdout, page)
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one ticket",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv()
		if err != nil {
			return err
		}
		id, err := parseTicketID(args[0])
		if err != nil {
			return err
		}
		t, requestID, err := e.service.Get(cmd.Context(), id)
		if err != nil {
			return err
		}
		render.Detail(os.Stdout, t, requestID)
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status <id> <open|in_progress|resolved>",
	Short: "Change a ticket's status",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv()
		if err != nil {
			return err
		}
		id, err := parseTicketID(args[0])
		if err != nil {
			return err
		}
		next, err := schema.ParseStatus(args[1])
		if err != nil {
			return err
		}
		updated, err := e.service.UpdateStatus(cmd.Context(), id, next)
		if err != nil {
			return err
		}
		fmt.Printf("Ticket #%d is now %s.\n", updated.ID, updated.Status)
		return nil
	},
}
