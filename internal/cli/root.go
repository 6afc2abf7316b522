// Package cli implements canvasctl, the command line companion to the canvas
// engine: it inspects node types, emits seed graphs and checks, renders and
// projects saved snapshots without a browser.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/hyyve/flowcanvas/internal/engine"
	"github.com/hyyve/flowcanvas/internal/graph"
	"github.com/hyyve/flowcanvas/internal/logging"
	"github.com/hyyve/flowcanvas/internal/nodetype"
)

var version = "0.1.0"

type globals struct {
	typesFile string
	noColor   bool
	logLevel  string
}

// NewRootCmd builds the canvasctl command tree.
func NewRootCmd() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:           "canvasctl",
		Short:         "Inspect, check and render flow canvas graphs",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if g.noColor {
				color.NoColor = true
			}
		},
	}
	root.SetVersionTemplate("canvasctl {{ .Version }}\n")
	root.PersistentFlags().StringVar(&g.typesFile, "types", "", "TOML file with extra node types")
	root.PersistentFlags().BoolVar(&g.noColor, "no-color", false, "Disable colored output")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "warn", "Log level for engine warnings")

	root.AddCommand(
		typesCmd(g),
		seedCmd(),
		checkCmd(g),
		renderCmd(g),
		minimapCmd(g),
		tokenCmd(),
	)
	return root
}

// Execute runs canvasctl with the process arguments.
func Execute() error {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		Bad.Fprintf(os.Stderr, "canvasctl: %v\n", err)
		return err
	}
	return nil
}

func (g *globals) registry() (*nodetype.Registry, error) {
	reg := nodetype.NewBuiltinRegistry()
	if g.typesFile != "" {
		if _, err := reg.LoadTOMLFile(g.typesFile); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// newEngine builds an engine whose log output goes to w, normally stderr.
func (g *globals) newEngine(w io.Writer, opts ...engine.Option) (*engine.Engine, error) {
	reg, err := g.registry()
	if err != nil {
		return nil, err
	}
	logger := logging.New(g.logLevel, "text", w)
	all := append([]engine.Option{engine.WithRegistry(reg), engine.WithLogger(logger)}, opts...)
	return engine.New(all...), nil
}

func readSnapshot(path string) (graph.Snapshot, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return graph.Snapshot{}, fmt.Errorf("read snapshot: %w", err)
	}
	var s graph.Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return graph.Snapshot{}, fmt.Errorf("decode snapshot %s: %w", path, err)
	}
	return s, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
