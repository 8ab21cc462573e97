package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/hkloudou/confluence"
	"github.com/hkloudou/confluence/internal/trace"
)

func newMergeCommand() *cobra.Command {
	var (
		formatFlag   string
		outFlag      string
		manifestFlag string
		showProgress bool
		showTrace    bool
	)

	cmd := &cobra.Command{
		Use:   "merge [inputs...]",
		Short: "Merge chunk inputs (URLs or local files) into one output stream",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			format := formatFlag
			out := outFlag
			inputs := args

			if manifestFlag != "" {
				m, err := loadManifest(manifestFlag)
				if err != nil {
					return err
				}
				if format == "" {
					format = m.Format
				}
				if out == "" {
					out = m.Output
				}
				if len(inputs) == 0 {
					inputs = m.Inputs
				}
			}
			if format == "" {
				return fmt.Errorf("--format is required (CSV, JSON_ARRAY or ARROW_STREAM)")
			}
			if len(inputs) == 0 {
				return fmt.Errorf("no inputs given")
			}

			sources := buildSources(inputs)

			sink, sinkName, err := openOutput(out)
			if err != nil {
				return err
			}

			opts := confluence.Options{
				Inputs: sources,
				Output: sink,
			}
			if showProgress {
				bar := progressbar.DefaultBytes(-1, "merging")
				opts.OnProgress = func(s confluence.ProgressSnapshot) {
					bar.Set64(s.MergedBytes)
				}
			}

			if showTrace {
				ctx = trace.WithTrace(ctx)
			}
			err = confluence.Merge(ctx, confluence.Format(format), opts)
			if showTrace {
				fmt.Fprint(os.Stderr, trace.FromContext(ctx).Dump())
			}
			if err != nil {
				return err
			}
			if sinkName != "" {
				fmt.Fprintf(os.Stderr, "merged %d inputs into %s\n", len(inputs), sinkName)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&formatFlag, "format", "f", "", "Chunk format: CSV, JSON_ARRAY or ARROW_STREAM")
	cmd.Flags().StringVarP(&outFlag, "out", "o", "", "Output file (default stdout)")
	cmd.Flags().StringVarP(&manifestFlag, "manifest", "m", "", "TOML manifest describing the merge")
	cmd.Flags().BoolVar(&showProgress, "progress", false, "Render a progress bar on stderr")
	cmd.Flags().BoolVar(&showTrace, "trace", false, "Dump per-phase timing on stderr")

	return cmd
}

// buildSources maps each input to a lazy source: http(s) URLs become
// fetch-on-demand sources, anything else is opened as a local file when
// the merge reaches it. A ".gz" suffix gets transparent decompression.
func buildSources(inputs []string) []confluence.Source {
	sources := make([]confluence.Source, 0, len(inputs))
	for _, in := range inputs {
		var src confluence.Source
		if strings.HasPrefix(in, "http://") || strings.HasPrefix(in, "https://") {
			src = confluence.NewURLSource(nil, in)
		} else {
			path := in
			src = confluence.NewProducerSource(func() (io.ReadCloser, error) {
				return os.Open(path)
			})
		}
		if strings.HasSuffix(in, ".gz") {
			src = confluence.NewGzipSource(src)
		}
		sources = append(sources, src)
	}
	return sources
}

func openOutput(out string) (io.Writer, string, error) {
	if out == "" || out == "-" {
		return bufio.NewWriter(os.Stdout), "", nil
	}
	f, err := os.Create(out)
	if err != nil {
		return nil, "", fmt.Errorf("create %s: %w", out, err)
	}
	return f, out, nil
}
