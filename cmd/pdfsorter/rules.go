package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/local/pdfsorter/internal/mapping"
)

func newRulesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Edit the ordered phrase rules of a mapping",
	}
	cmd.AddCommand(
		newRulesListCmd(a),
		newRulesAddCmd(a),
		newRulesUpdateCmd(a),
		newRulesRemoveCmd(a),
		newRulesMoveCmd(a),
		newRulesSchemeCmd(a),
		newRulesAutobuildCmd(a),
		newRulesRenameFolderCmd(a),
	)
	return cmd
}

// loadForEdit loads the mapping to be modified. A missing file starts a new
// mapping; an unreadable one is an error so that it is never overwritten.
func (a *app) loadForEdit() (string, *mapping.Mapping, error) {
	path, err := a.mappingPath()
	if err != nil {
		return "", nil, err
	}
	m, err := mapping.Load(path)
	if err != nil {
		if _, statErr := os.Stat(path); errors.Is(statErr, fs.ErrNotExist) {
			return path, m, nil
		}
		return "", nil, err
	}
	return path, m, nil
}

// editMapping loads, applies fn and saves.
func (a *app) editMapping(fn func(path string, m *mapping.Mapping) error) error {
	path, m, err := a.loadForEdit()
	if err != nil {
		return err
	}
	if err := fn(path, m); err != nil {
		return err
	}
	if err := mapping.Save(path, m); err != nil {
		return err
	}
	_, err = mapping.EnsureTemplateDir(path)
	return err
}

func newRulesListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List rules in match order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, m, err := a.loadForEdit()
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "#\tPHRASE\tNAME\tDESTINATION")
			for i, r := range m.Rules {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", i+1, r.Phrase, r.Name, r.Destination)
			}
			if m.NamingScheme != "" {
				fmt.Fprintf(tw, "\tnaming scheme: %s\t\t\n", m.NamingScheme)
			}
			return tw.Flush()
		},
	}
}

func newRulesAddCmd(a *app) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "add phrase destination",
		Short: "Append a rule",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.editMapping(func(_ string, m *mapping.Mapping) error {
				return m.Add(mapping.Rule{Phrase: args[0], Name: name, Destination: args[1]})
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name (derived from the phrase if empty)")
	return cmd
}

func newRulesUpdateCmd(a *app) *cobra.Command {
	var phrase, name, dest string
	cmd := &cobra.Command{
		Use:   "update old-phrase",
		Short: "Change a rule in place",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.editMapping(func(_ string, m *mapping.Mapping) error {
				r, ok := m.Get(args[0])
				if !ok {
					return mapping.ErrRuleNotFound
				}
				if cmd.Flags().Changed("phrase") {
					r.Phrase = phrase
				}
				if cmd.Flags().Changed("name") {
					r.Name = name
				}
				if cmd.Flags().Changed("dest") {
					r.Destination = dest
				}
				return m.Update(args[0], r)
			})
		},
	}
	cmd.Flags().StringVar(&phrase, "phrase", "", "new phrase")
	cmd.Flags().StringVar(&name, "name", "", "new display name")
	cmd.Flags().StringVar(&dest, "dest", "", "new destination")
	return cmd
}

func newRulesRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove phrase",
		Short: "Delete a rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.editMapping(func(_ string, m *mapping.Mapping) error {
				if m.Index(args[0]) < 0 {
					return mapping.ErrRuleNotFound
				}
				m.Remove(args[0])
				return nil
			})
		},
	}
}

func newRulesMoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "move phrase up|down|<position>",
		Short: "Change a rule's priority",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.editMapping(func(_ string, m *mapping.Mapping) error {
				switch args[1] {
				case "up":
					return m.Move(args[0], mapping.Up)
				case "down":
					return m.Move(args[0], mapping.Down)
				}
				pos, err := strconv.Atoi(args[1])
				if err != nil {
					return fmt.Errorf("position must be up, down or a number: %q", args[1])
				}
				return m.MoveTo(args[0], pos-1)
			})
		},
	}
}

func newRulesSchemeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "scheme [pattern]",
		Short: "Set the file naming scheme; no pattern keeps original names",
		Long: "Placeholders: {rule_name} {phrase} {original_filename} {ext} {date} {time}.\n" +
			"Without {ext} the original extension is appended.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.editMapping(func(_ string, m *mapping.Mapping) error {
				m.NamingScheme = ""
				if len(args) == 1 {
					m.NamingScheme = args[0]
				}
				return nil
			})
		},
	}
}

func newRulesAutobuildCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "autobuild",
		Short: "Create a template folder for every destination",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, m, err := a.loadForEdit()
			if err != nil {
				return err
			}
			dir, err := mapping.EnsureTemplateDir(path)
			if err != nil {
				return err
			}
			n, err := mapping.AutobuildTemplateTree(dir, m)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %d folders in %s\n", n, dir)
			return nil
		},
	}
}

func newRulesRenameFolderCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rename-folder old/relative/path new-name",
		Short: "Rename a template folder and update the rules routing into it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, m, err := a.loadForEdit()
			if err != nil {
				return err
			}
			return mapping.RenameFolder(path, m, args[0], args[1])
		},
	}
}
