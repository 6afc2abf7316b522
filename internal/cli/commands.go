package cli

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hyyve/flowcanvas/internal/auth"
	"github.com/hyyve/flowcanvas/internal/config"
	"github.com/hyyve/flowcanvas/internal/engine"
	"github.com/hyyve/flowcanvas/internal/geom"
	"github.com/hyyve/flowcanvas/internal/graph"
	"github.com/hyyve/flowcanvas/internal/seed"
)

// ErrCheckFailed is returned by check when the snapshot has problems.
var ErrCheckFailed = errors.New("snapshot has problems")

func typesCmd(g *globals) *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "types",
		Short: "List registered node types",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := g.registry()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			var rows [][]string
			for _, d := range reg.Descriptors() {
				if category != "" && d.Category != category {
					continue
				}
				var handles []string
				for _, h := range d.Handles {
					handles = append(handles, fmt.Sprintf("%s(%s,%s)", h.ID, h.Role, h.Side))
				}
				rows = append(rows, []string{
					d.Type,
					d.Category,
					fmt.Sprintf("%gx%g", d.DefaultSize.Width, d.DefaultSize.Height),
					d.Render,
					strings.Join(handles, " "),
				})
			}
			if len(rows) == 0 {
				fmt.Fprintln(w, "  No node types match.")
				return nil
			}
			table(w, []string{"Type", "Category", "Size", "Render", "Handles"}, rows)
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "Only show types in this category")
	return cmd
}

func seedCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:       "seed [module|chatbot|empty]",
		Short:     "Print a starter graph as a JSON snapshot",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{seed.TemplateModule, seed.TemplateChatbot, seed.TemplateEmpty},
		RunE: func(cmd *cobra.Command, args []string) error {
			name := seed.TemplateModule
			if len(args) == 1 {
				name = args[0]
			}
			s, err := seed.ByName(name)
			if err != nil {
				return err
			}
			if out == "" {
				return writeJSON(cmd.OutOrStdout(), s)
			}
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			defer f.Close()
			if err := writeJSON(f, s); err != nil {
				return err
			}
			Good.Fprintf(cmd.OutOrStdout(), "  wrote %s seed to %s\n", name, out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "Write to a file instead of stdout")
	return cmd
}

// problem is one finding of check.
type problem struct {
	id     string
	reason string
}

func checkCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "check <snapshot.json|->",
		Short: "Validate a snapshot against the node type registry",
		Long: "Adds every node and edge of a snapshot one at a time and reports\n" +
			"what the engine would refuse: duplicate ids, dangling edges, rejected\n" +
			"connections and node types with no registered descriptor.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := readSnapshot(args[0])
			if err != nil {
				return err
			}
			eng, err := g.newEngine(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()

			var problems []problem
			unknown := map[string]bool{}
			for _, n := range s.Nodes {
				if _, err := eng.AddNode(n); err != nil {
					problems = append(problems, problem{"node " + n.ID, err.Error()})
					continue
				}
				if _, err := eng.Registry().Resolve(n.Type); err != nil {
					unknown[n.Type] = true
				}
			}
			for _, e := range s.Edges {
				if _, err := eng.AddEdge(e); err != nil {
					reason := err.Error()
					if r, ok := graph.RejectionReason(err); ok {
						reason = string(r)
					}
					problems = append(problems, problem{"edge " + edgeName(e), reason})
				}
			}

			nodes, edges := len(eng.Nodes()), len(eng.Edges())
			fmt.Fprintf(w, "  %s %d/%d nodes, %d/%d edges accepted\n",
				statusIcon(len(problems) == 0), nodes, len(s.Nodes), edges, len(s.Edges))
			for _, t := range slices.Sorted(maps.Keys(unknown)) {
				Warn.Fprintf(w, "  ! node type %q is not registered; drawn as a generic box\n", t)
			}
			if len(problems) == 0 {
				return nil
			}
			rows := make([][]string, len(problems))
			for i, p := range problems {
				rows[i] = []string{p.id, p.reason}
			}
			table(w, []string{"Item", "Problem"}, rows)
			return fmt.Errorf("%w: %d", ErrCheckFailed, len(problems))
		},
	}
}

func edgeName(e graph.Edge) string {
	if e.ID != "" {
		return e.ID
	}
	return e.Source.String() + "->" + e.Target.String()
}

type viewFlags struct {
	width, height float64
	fit           bool
}

func (v *viewFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&v.width, "width", 1280, "Canvas width in pixels")
	cmd.Flags().Float64Var(&v.height, "height", 720, "Canvas height in pixels")
	cmd.Flags().BoolVar(&v.fit, "fit", true, "Fit the view to the graph before rendering")
}

func (g *globals) loadedEngine(cmd *cobra.Command, path string, v viewFlags) (*engine.Engine, error) {
	s, err := readSnapshot(path)
	if err != nil {
		return nil, err
	}
	if v.width <= 0 || v.height <= 0 {
		return nil, fmt.Errorf("canvas size must be positive, got %gx%g", v.width, v.height)
	}
	eng, err := g.newEngine(cmd.ErrOrStderr(), engine.WithScreenSize(geom.Sz(v.width, v.height)))
	if err != nil {
		return nil, err
	}
	if err := eng.Load(s); err != nil {
		return nil, err
	}
	if v.fit {
		eng.FitView()
	}
	return eng, nil
}

func renderCmd(g *globals) *cobra.Command {
	var v viewFlags
	cmd := &cobra.Command{
		Use:   "render <snapshot.json|->",
		Short: "Print the draw command buffer for a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := g.loadedEngine(cmd, args[0], v)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), eng.Render())
		},
	}
	v.register(cmd)
	return cmd
}

func minimapCmd(g *globals) *cobra.Command {
	var (
		v          viewFlags
		miniWidth  float64
		miniHeight float64
	)
	cmd := &cobra.Command{
		Use:   "minimap <snapshot.json|->",
		Short: "Print the minimap projection for a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := g.loadedEngine(cmd, args[0], v)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), eng.Minimap(geom.Sz(miniWidth, miniHeight)))
		},
	}
	v.register(cmd)
	cmd.Flags().Float64Var(&miniWidth, "mini-width", 200, "Minimap width in pixels")
	cmd.Flags().Float64Var(&miniHeight, "mini-height", 150, "Minimap height in pixels")
	return cmd
}

func tokenCmd() *cobra.Command {
	var (
		secret string
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token <subject>",
		Short: "Mint a development token for the canvas server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				cfg, err := config.Load(".env")
				if err != nil {
					return err
				}
				secret = cfg.JWTSecret
			}
			svc := auth.NewService(secret, auth.WithTTL(ttl))
			tok, err := svc.IssueToken(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&secret, "secret", "", "Signing secret (default: JWT_SECRET)")
	cmd.Flags().DurationVar(&ttl, "ttl", auth.DefaultTTL, "Token lifetime")
	return cmd
}
