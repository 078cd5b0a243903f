package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/cottand/typegraph/model"
	"github.com/spf13/cobra"
)

func newSubtypeCmd() *cobra.Command {
	var flags graphFlags
	cmd := &cobra.Command{
		Use:          "subtype file.yaml SUB SUPER",
		Short:        "Tell whether SUB is a subtype of SUPER",
		Args:         cobra.ExactArgs(3),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, ts, err := flags.types(args[0], args[1], args[2])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), ts[0].IsSubtypeOf(ts[1]))
			return err
		},
	}
	flags.register(cmd)
	return cmd
}

func newUnionCmd() *cobra.Command {
	var flags graphFlags
	cmd := &cobra.Command{
		Use:          "union file.yaml TYPE...",
		Short:        "Print the canonical union of the given types",
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, ts, err := flags.types(args[0], args[1:]...)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), res.Graph.Union(ts...))
			return err
		},
	}
	flags.register(cmd)
	return cmd
}

func newIntersectCmd() *cobra.Command {
	var flags graphFlags
	cmd := &cobra.Command{
		Use:          "intersect file.yaml TYPE...",
		Short:        "Print the canonical intersection of the given types",
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, ts, err := flags.types(args[0], args[1:]...)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), res.Graph.Intersection(ts...))
			return err
		},
	}
	flags.register(cmd)
	return cmd
}

func newPrincipalCmd() *cobra.Command {
	var flags graphFlags
	cmd := &cobra.Command{
		Use:          "principal file.yaml A B",
		Short:        "Print the principal instantiation of the declaration of A for A and B",
		Args:         cobra.ExactArgs(3),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, ts, err := flags.types(args[0], args[1], args[2])
			if err != nil {
				return err
			}
			dec := ts[0].Decl()
			b, outcome := ts[1].Supertype(dec)
			if outcome != model.SearchFound {
				return fmt.Errorf("%s does not inherit %s (%s)", ts[1], dec.Name(), outcome)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), model.PrincipalInstantiation(dec, ts[0], b))
			return err
		},
	}
	flags.register(cmd)
	return cmd
}

func newSupertypeCmd() *cobra.Command {
	var flags graphFlags
	cmd := &cobra.Command{
		Use:          "supertype file.yaml TYPE DECLARATION",
		Short:        "Print the instantiation of DECLARATION that TYPE inherits",
		Args:         cobra.ExactArgs(3),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, ts, err := flags.types(args[0], args[1], args[2])
			if err != nil {
				return err
			}
			st, outcome := ts[0].Supertype(ts[1].Decl())
			out := cmd.OutOrStdout()
			if outcome != model.SearchFound {
				_, err = fmt.Fprintln(out, outcome)
				return err
			}
			_, err = fmt.Fprintln(out, st)
			return err
		},
	}
	flags.register(cmd)
	return cmd
}

func newMemberCmd() *cobra.Command {
	var (
		flags     graphFlags
		arguments []string
		call      bool
		spread    bool
	)
	cmd := &cobra.Command{
		Use:   "member file.yaml TYPE NAME",
		Short: "Look NAME up on TYPE, optionally as a call with the given argument types",
		Long: "Look NAME up on TYPE. Without --arg nor --call NAME is a plain reference and an " +
			"overloaded name resolves to its overload set.",
		Args:         cobra.ExactArgs(3),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, ts, err := flags.types(args[0], append([]string{args[1]}, arguments...)...)
			if err != nil {
				return err
			}
			var argTypes []*model.ProducedType
			if call || cmd.Flags().Changed("arg") {
				argTypes = append([]*model.ProducedType{}, ts[1:]...)
			}
			d, on, r := ts[0].TypedMember(args[2], argTypes, spread)
			out := cmd.OutOrStdout()
			if d == nil {
				_, err = fmt.Fprintln(out, r)
				return err
			}
			_, err = fmt.Fprintf(out, "%s%s (%s) on %s\n", d, signature(d), r, on)
			return err
		},
	}
	flags.register(cmd)
	cmd.Flags().StringArrayVarP(&arguments, "arg", "a", nil, "argument type of the call, repeated once per argument")
	cmd.Flags().BoolVar(&call, "call", false, "look NAME up as a call, even without arguments")
	cmd.Flags().BoolVar(&spread, "spread", false, "the last argument is spread into a variadic parameter")
	return cmd
}

func newCompleteCmd() *cobra.Command {
	var (
		flags graphFlags
		in    string
	)
	cmd := &cobra.Command{
		Use:          "complete file.yaml PREFIX",
		Short:        "List the declarations visible from a scope whose name starts with PREFIX",
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := load(args[0])
			if err != nil {
				return err
			}
			pkg, err := flags.scope(res)
			if err != nil {
				return err
			}
			var scope model.Scope = res.Graph.LanguagePackage()
			switch {
			case pkg != nil:
				scope = pkg
			case len(res.Packages) > 0:
				scope = res.Packages[0]
			}
			if in != "" {
				t, err := res.Type(pkg, in)
				if err != nil {
					return fmt.Errorf("could not resolve '%s': %w", in, err)
				}
				scope = t.Decl()
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, m := range model.MatchingDeclarations(scope, args[1], 0) {
				_, _ = fmt.Fprintf(w, "%s\t%d\t%s\n", m.Decl.Name(), m.Proximity, m.Decl.Kind())
			}
			return w.Flush()
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&in, "in", "", "type whose body is the scope, instead of the package")
	return cmd
}

// signature renders the first parameter list of a function or class, if it has one
func signature(d model.Decl) string {
	f, ok := d.(model.Functional)
	if !ok || len(f.ParameterLists()) == 0 {
		return ""
	}
	params := f.ParameterLists()[0].Params
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = p.Type.String()
		switch {
		case p.Sequenced:
			parts[i] += "*"
		case p.Defaulted:
			parts[i] += "="
		}
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
