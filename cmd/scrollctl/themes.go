package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"scrollvite/internal/render"
	"scrollvite/internal/schema"
)

func createThemesCommand(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "themes",
		Usage: "List the invitation themes this build can render",
		Action: func(ctx context.Context, command *cli.Command) error {
			renderer, err := render.New()
			if err != nil {
				return err
			}
			table := newTable(out, "ID", "NAME", "DESCRIPTION")
			for _, t := range renderer.Themes() {
				table.Append([]string{t.ID, t.Name, t.Description})
			}
			table.Render()
			return nil
		},
	}
}

func createRenderCommand(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "render",
		Usage: "Render an invitation schema with a theme",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "theme",
				Value: render.DefaultTheme,
				Usage: "Theme id",
			},
			&cli.StringFlag{
				Name:  "schema",
				Usage: "Schema JSON file, - for stdin; the theme's sample when empty",
			},
			&cli.StringFlag{
				Name:  "out",
				Usage: "Output HTML file; stdout when empty",
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			renderer, err := render.New()
			if err != nil {
				return err
			}
			theme := command.String("theme")

			s, err := loadSchema(command.String("schema"))
			if err != nil {
				return err
			}
			if s == nil {
				sample, ok := renderer.Sample(renderer.Resolve(theme))
				if !ok {
					return fmt.Errorf("theme %s has no sample schema", theme)
				}
				s = &sample
			}

			w := out
			if path := command.String("out"); path != "" {
				f, err := os.Create(path)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			return renderer.Render(w, theme, *s)
		},
	}
}

// loadSchema reads a schema file; an empty path yields nil.
func loadSchema(path string) (*schema.Schema, error) {
	var (
		data []byte
		err  error
	)
	switch path {
	case "":
		return nil, nil
	case "-":
		data, err = io.ReadAll(os.Stdin)
	default:
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	s, err := schema.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse schema %s: %w", path, err)
	}
	return &s, nil
}
