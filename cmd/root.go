package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/cottand/typegraph/internal/log"
	"github.com/cottand/typegraph/loader"
	"github.com/cottand/typegraph/model"
	"github.com/cottand/typegraph/typerr"
	"github.com/spf13/cobra"
)

// NewRootCmd returns the typegraph command with every subcommand attached
func NewRootCmd() *cobra.Command {
	var logLevel int
	root := &cobra.Command{
		Use:          "typegraph [subcommand]",
		Short:        "typegraph queries a graph of declarations the way a type checker would",
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.SetLevel(slog.Level(logLevel))
		},
	}
	root.PersistentFlags().IntVarP(&logLevel, "log-level", "l", int(slog.LevelError), "log level")

	root.AddCommand(
		newCheckCmd(),
		newSubtypeCmd(),
		newUnionCmd(),
		newIntersectCmd(),
		newPrincipalCmd(),
		newSupertypeCmd(),
		newMemberCmd(),
		newCompleteCmd(),
	)
	return root
}

// graphFlags are shared by the commands that query a loaded graph
type graphFlags struct {
	pkg string
}

func (f *graphFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.pkg, "package", "p", "", "package the type expressions are written in (defaults to the first one described)")
}

// load reads the description at path and fails when it has errors
func load(path string) (*loader.Result, error) {
	res, err := loader.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not load graph description: %w", err)
	}
	if res.Errors.HasError() {
		return nil, describeErrors(res)
	}
	return res, nil
}

func describeErrors(res *loader.Result) error {
	sb := &strings.Builder{}
	for _, e := range res.Errors.Errors() {
		sb.WriteString("\n")
		sb.WriteString(typerr.FormatWithCodeAndSource(e, res.Source))
	}
	return fmt.Errorf("errors found in %s:%s", res.File, sb.String())
}

func (f *graphFlags) scope(res *loader.Result) (*model.Package, error) {
	if f.pkg == "" {
		return nil, nil
	}
	p := res.Package(f.pkg)
	if p == nil {
		return nil, fmt.Errorf("package '%s' is not described in %s", f.pkg, res.File)
	}
	return p, nil
}

// types loads path and resolves every expression in srcs
func (f *graphFlags) types(path string, srcs ...string) (*loader.Result, []*model.ProducedType, error) {
	res, err := load(path)
	if err != nil {
		return nil, nil, err
	}
	pkg, err := f.scope(res)
	if err != nil {
		return nil, nil, err
	}
	ts := make([]*model.ProducedType, len(srcs))
	for i, src := range srcs {
		ts[i], err = res.Type(pkg, src)
		if err != nil {
			return nil, nil, fmt.Errorf("could not resolve '%s': %w", src, err)
		}
	}
	return res, ts, nil
}
