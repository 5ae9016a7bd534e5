// Command axisplot serves and renders multi-axis chart configurations.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/cactusdynamics/axisplot"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	presetPath string
	logLevel   string
	timeRange  int
	outputPath string
	title      string
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "axisplot",
		Short: "Multi-axis, multi-series chart configurator",
		Long: `axisplot edits a chart configuration (axes, series and a time range)
and renders it against synthetic time-series data.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := logrus.ParseLevel(logLevel)
			if err != nil {
				return fmt.Errorf("invalid log level: %w", err)
			}
			logrus.SetLevel(level)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&presetPath, "preset", "", "YAML chart configuration to start from (default: built-in preset)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().IntVar(&timeRange, "time-range", 0, "Override the preset time range in days (clamped to 1..365)")
	rootCmd.PersistentFlags().StringVar(&title, "title", "axisplot", "Chart title")

	rootCmd.AddCommand(newServeCommand(), newShowCommand(), newRenderCommand(), newExportCommand())

	return rootCmd
}

// loadConfig reads the preset and applies --time-range, clamped to
// 1..MaxTimeRangeDays.
func loadConfig(cmd *cobra.Command) (axisplot.ChartConfig, error) {
	config, err := axisplot.LoadPresetFile(presetPath)
	if err != nil {
		return axisplot.ChartConfig{}, err
	}

	if cmd.Flags().Changed("time-range") {
		config = axisplot.SetTimeRange(config, axisplot.ClampTimeRange(timeRange))
	}

	return config, nil
}

func renderModel(cmd *cobra.Command) (axisplot.RenderModel, error) {
	config, err := loadConfig(cmd)
	if err != nil {
		return axisplot.RenderModel{}, err
	}

	return axisplot.NewPipeline(axisplot.NewDataGenerator()).Render(config)
}

func newServeCommand() *cobra.Command {
	var (
		host        string
		port        uint16
		historySize int
		openOnStart bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the chart and its editing API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			server, err := newServer(ctx, config, historySize, host, port)
			if err != nil {
				return err
			}
			return server.Run(openOnStart)
		},
	}

	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "Host to listen on")
	cmd.Flags().Uint16VarP(&port, "port", "p", 5274, "Port to listen on")
	cmd.Flags().IntVar(&historySize, "history", axisplot.DefaultHistorySize, "Number of config revisions to keep")
	cmd.Flags().BoolVar(&openOnStart, "open", false, "Open the chart in a browser once the server is listening")

	return cmd
}

// newServer wires the store, the render broadcaster and the HTTP server. The
// broadcaster stops when ctx is done.
func newServer(ctx context.Context, config axisplot.ChartConfig, historySize int, host string, port uint16) (*axisplot.HttpServer, error) {
	store, err := axisplot.NewConfigStore(config, historySize)
	if err != nil {
		return nil, err
	}

	pipeline := axisplot.NewPipeline(axisplot.NewDataGenerator())
	broadcaster := axisplot.NewRenderBroadcaster(store.Watch(axisplot.DefaultWatchBufferSize), pipeline)
	broadcaster.Start(ctx)

	return axisplot.NewHttpServer(store, pipeline, broadcaster, host, port, title), nil
}

func newShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the configuration and a summary of its render",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			model, err := axisplot.NewPipeline(axisplot.NewDataGenerator()).Render(config)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			axisplot.WriteConfigTables(out, config)
			axisplot.WriteRenderSummary(out, model)
			return nil
		},
	}
}

func newRenderCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the chart as a standalone HTML page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			model, err := renderModel(cmd)
			if err != nil {
				return err
			}

			return writeOutput(cmd, func(w io.Writer) error {
				return axisplot.RenderECharts(w, model, title)
			})
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path (default: stdout)")

	return cmd
}

func newExportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the generated series as an xlsx workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			model, err := renderModel(cmd)
			if err != nil {
				return err
			}

			return writeOutput(cmd, func(w io.Writer) error {
				return axisplot.WriteXLSX(w, model)
			})
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path (required)")
	cmd.MarkFlagRequired("output")

	return cmd
}

func writeOutput(cmd *cobra.Command, write func(io.Writer) error) error {
	if outputPath == "" {
		return write(cmd.OutOrStdout())
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}

	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write output: %w", err)
	}

	return f.Close()
}
