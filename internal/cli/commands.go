package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	settings "github.com/goliatone/go-settings"
	"github.com/goliatone/go-settings/schema/openapi"
)

func newShowCommand(cfg *Config) *cobra.Command {
	var showHidden bool
	cmd := &cobra.Command{
		Use:   "show [group]",
		Short: "List effective settings",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cfg, func(m *settings.Manager) error {
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "PATH\tVALUE\tKIND\tSCOPE\tDEFAULT")
				for _, c := range m.Collections() {
					if len(args) == 1 && c.Group() != args[0] {
						continue
					}
					for _, v := range c.Values() {
						if v.Hidden() && !showHidden {
							continue
						}
						raw, err := v.Format()
						if err != nil {
							return err
						}
						fmt.Fprintf(w, "%s.%s\t%s\t%s\t%s\t%t\n", c.Group(), v.Key(), raw, v.Kind(), v.Scope(), v.IsDefault())
					}
				}
				return w.Flush()
			})
		},
	}
	cmd.Flags().BoolVar(&showHidden, "hidden", false, "include hidden settings")
	return cmd
}

func newGetCommand(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "get <group> <key>",
		Short: "Print one effective value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cfg, func(m *settings.Manager) error {
				v, err := lookup(m, args[0], args[1])
				if err != nil {
					return err
				}
				raw, err := v.Format()
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), raw)
				return err
			})
		},
	}
}

func newSetCommand(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "set <group> <key> <value>",
		Short: "Change a value and save it to its scope",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cfg, func(m *settings.Manager) error {
				v, err := writable(m, args[0], args[1])
				if err != nil {
					return err
				}
				parsed, err := v.Serializer().Parse(args[2], v.Tag())
				if err != nil {
					return err
				}
				if err := v.Set(parsed); err != nil {
					return err
				}
				if err := m.Save(); err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s.%s saved to %s\n", args[0], args[1], v.Scope())
				return err
			})
		},
	}
}

func newResetCommand(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "reset <group> <key>",
		Short: "Restore a value to its default and save",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cfg, func(m *settings.Manager) error {
				v, err := writable(m, args[0], args[1])
				if err != nil {
					return err
				}
				if err := v.Reset(); err != nil {
					return err
				}
				return m.Save()
			})
		},
	}
}

func newMergeCommand(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "merge",
		Short: "Bring user and global storage in line with the defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cfg, func(m *settings.Manager) error {
				if err := m.Merge(); err != nil {
					return err
				}
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "merged")
				return err
			})
		},
	}
}

func newTraceCommand(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "trace <group> <key>",
		Short: "Show which scopes were consulted for a value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cfg, func(m *settings.Manager) error {
				trace, err := m.Trace(args[0], args[1])
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), trace)
			})
		},
	}
}

func newSchemaCommand(cfg *Config) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Describe the loaded settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var generator settings.SchemaGenerator
			switch format {
			case "descriptors", "":
			case "openapi":
				generator = openapi.NewGenerator()
			default:
				return fmt.Errorf("settingsctl: unknown schema format %q", format)
			}
			return withSession(cfg, func(m *settings.Manager) error {
				doc, err := m.SchemaDocument(generator)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), doc.Document)
			})
		},
	}
	cmd.Flags().StringVar(&format, "format", "descriptors", "descriptors or openapi")
	return cmd
}

func newEvalCommand(cfg *Config) *cobra.Command {
	var engine string
	cmd := &cobra.Command{
		Use:   "eval <expression>",
		Short: "Evaluate an expression against the effective settings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cfg, func(m *settings.Manager) error {
				ctx := settings.RuleContext{}
				var (
					resp settings.Response[any]
					err  error
				)
				switch engine {
				case "expr", "":
					resp, err = m.EvaluateWith(ctx, args[0])
				case "cel":
					resp, err = m.EvaluateUsing(settings.NewCELEvaluator(), ctx, args[0])
				default:
					return fmt.Errorf("settingsctl: unknown engine %q", engine)
				}
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), resp.Value)
			})
		},
	}
	cmd.Flags().StringVar(&engine, "engine", "expr", "expr or cel")
	return cmd
}

func lookup(m *settings.Manager, group, key string) (*settings.Value, error) {
	v, ok := m.Value(group, key)
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", settings.ErrNotFound, group, key)
	}
	return v, nil
}

func writable(m *settings.Manager, group, key string) (*settings.Value, error) {
	v, err := lookup(m, group, key)
	if err != nil {
		return nil, err
	}
	if !v.Scope().Writable() || m.Provider(v.Scope()) == nil {
		return nil, fmt.Errorf("settingsctl: %s.%s is owned by %s, which has no writable storage", group, key, v.Scope())
	}
	return v, nil
}
