package commands

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-typeprovider-cache/protocol"
	"github.com/goliatone/go-typeprovider-cache/proxy"
)

func (c *CLI) newTypeCmd() *cobra.Command {
	var members bool

	cmd := &cobra.Command{
		Use:   "type <id>...",
		Short: "Print provided types by id",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			session, err := c.session(cmd)
			if err != nil {
				return err
			}
			defer session.Close()

			ctx := cmd.Context()
			types, err := session.Context.TypesByID(ctx, ids)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, t := range types {
				if err := printType(ctx, out, t, members); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&members, "members", false, "Also print nested types and members")
	return cmd
}

func (c *CLI) newAssemblyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "assembly <id>",
		Short: "Print a provided assembly by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			session, err := c.session(cmd)
			if err != nil {
				return err
			}
			defer session.Close()

			asm, err := session.Context.Assembly(cmd.Context(), ids[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "%s %s\n", asm.Key(), asm.LogName())
			if v := asm.Version(); v != "" {
				_, _ = fmt.Fprintf(out, "  version: %s\n", v)
			}
			return nil
		},
	}
}

func (c *CLI) newDumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump [id]...",
		Short: "Resolve the given types with their content and print every cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			session, err := c.session(cmd)
			if err != nil {
				return err
			}
			defer session.Close()

			if len(ids) > 0 {
				if err := session.Context.Prefetch(cmd.Context(), ids); err != nil {
					return err
				}
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), session.Context.Dump())
			return nil
		},
	}
}

func parseIDs(args []string) ([]protocol.EntityID, error) {
	ids := make([]protocol.EntityID, 0, len(args))
	for _, arg := range args {
		n, err := strconv.ParseInt(arg, 10, 64)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid entity id %q", arg)
		}
		ids = append(ids, protocol.EntityID(n))
	}
	return ids, nil
}

func printType(ctx context.Context, out io.Writer, t *proxy.Type, members bool) error {
	_, _ = fmt.Fprintf(out, "%s %s [%s]\n", t.Key(), t.FullName(), strings.Join(describe(t), " "))

	base, err := t.BaseType(ctx)
	if err != nil {
		return err
	}
	if base != nil {
		_, _ = fmt.Fprintf(out, "  base: %s\n", base.FullName())
	}
	asm, err := t.Assembly(ctx)
	if err != nil {
		return err
	}
	if asm != nil {
		_, _ = fmt.Fprintf(out, "  assembly: %s\n", asm.LogName())
	}
	if !members {
		return nil
	}

	nested, err := t.GetNestedTypes(ctx)
	if err != nil {
		return err
	}
	for _, n := range nested {
		_, _ = fmt.Fprintf(out, "  nested: %s\n", n.FullName())
	}
	ctors, err := t.GetConstructors(ctx)
	if err != nil {
		return err
	}
	for range ctors {
		_, _ = fmt.Fprintln(out, "  constructor: .ctor")
	}
	methods, err := t.GetMethods(ctx)
	if err != nil {
		return err
	}
	for _, m := range methods {
		_, _ = fmt.Fprintf(out, "  method: %s\n", m.Name())
	}
	props, err := t.GetProperties(ctx)
	if err != nil {
		return err
	}
	for _, p := range props {
		_, _ = fmt.Fprintf(out, "  property: %s\n", p.Name())
	}
	fields, err := t.GetFields(ctx)
	if err != nil {
		return err
	}
	for _, f := range fields {
		_, _ = fmt.Fprintf(out, "  field: %s\n", f.Name())
	}
	events, err := t.GetEvents(ctx)
	if err != nil {
		return err
	}
	for _, e := range events {
		_, _ = fmt.Fprintf(out, "  event: %s\n", e.Name())
	}
	return nil
}

func describe(t *proxy.Type) []string {
	var tags []string
	for _, f := range []struct {
		on  bool
		tag string
	}{
		{t.IsPublic() || t.IsNestedPublic(), "public"},
		{t.IsClass(), "class"},
		{t.IsInterface(), "interface"},
		{t.IsValueType(), "valuetype"},
		{t.IsEnum(), "enum"},
		{t.IsArray(), "array"},
		{t.IsGenericType(), "generic"},
		{t.IsAbstract(), "abstract"},
		{t.IsSealed(), "sealed"},
		{t.IsErased(), "erased"},
	} {
		if f.on {
			tags = append(tags, f.tag)
		}
	}
	return tags
}
