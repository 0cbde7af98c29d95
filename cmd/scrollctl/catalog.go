package main

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/urfave/cli/v3"

	"scrollvite/internal/view"
)

func createCategoriesCommand(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "categories",
		Usage: "List template categories",
		Action: func(ctx context.Context, command *cli.Command) error {
			api, err := newClient(command)
			if err != nil {
				return err
			}
			categories, err := api.ListCategories(ctx)
			if err != nil {
				return fmt.Errorf("list categories: %w", err)
			}

			table := newTable(out, "ID", "NAME", "SLUG")
			for _, c := range categories {
				table.Append([]string{strconv.FormatInt(c.ID, 10), c.Name, c.Slug})
			}
			table.Render()
			return nil
		},
	}
}

func createTemplatesCommand(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "templates",
		Usage:     "List the templates of a category",
		ArgsUsage: "<category-slug>",
		Action: func(ctx context.Context, command *cli.Command) error {
			slug := command.Args().First()
			if slug == "" {
				return fmt.Errorf("a category slug is required")
			}
			api, err := newClient(command)
			if err != nil {
				return err
			}
			templates, err := api.ListTemplates(ctx, slug)
			if err != nil {
				return fmt.Errorf("list templates of %s: %w", slug, err)
			}

			table := newTable(out, "ID", "TITLE", "PRICE", "THEME")
			for _, t := range templates {
				table.Append([]string{strconv.FormatInt(t.ID, 10), t.Title, view.FormatINR(t.Price), t.TemplateComponent})
			}
			table.Render()
			return nil
		},
	}
}
