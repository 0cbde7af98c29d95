package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"

	"scrollvite/internal/client"
	"scrollvite/pkg/logger"
)

// Version is set using ldflags at build time.
var Version = "dev"

const defaultAPIURL = "http://127.0.0.1:8000/api"

func main() {
	if err := newApp(os.Stdout).Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:    "scrollctl",
		Usage:   "inspects the ScrollVite catalog and renders invitation themes",
		Version: Version,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "debug",
				Value:   false,
				Usage:   "Enable debug logging",
				Sources: cli.EnvVars("SCROLLCTL_DEBUG"),
			},
			&cli.StringFlag{
				Name:    "api-url",
				Value:   defaultAPIURL,
				Usage:   "Backend API base URL",
				Sources: cli.EnvVars("API_URL"),
			},
			&cli.StringFlag{
				Name:    "token",
				Usage:   "Bearer token for authenticated endpoints",
				Sources: cli.EnvVars("SCROLLVITE_TOKEN"),
			},
		},
		Commands: []*cli.Command{
			createCategoriesCommand(out),
			createTemplatesCommand(out),
			createThemesCommand(out),
			createRenderCommand(out),
		},
	}
}

func newClient(command *cli.Command) (*client.Client, error) {
	if command.Bool("debug") {
		logger.Init("debug")
	}
	opts := []client.Option{client.WithLogger(logger.Sugar)}
	if token := command.String("token"); token != "" {
		opts = append(opts, client.WithBearerToken(token))
	}
	return client.New(command.String("api-url"), opts...)
}

func newTable(out io.Writer, headers ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(out)
	table.SetBorders(tablewriter.Border{
		Left:   true,
		Right:  true,
		Top:    false,
		Bottom: false,
	})
	table.SetAutoWrapText(false)
	table.SetHeader(headers)
	return table
}
