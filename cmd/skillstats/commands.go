package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/udisondev/skillstats/internal/charstats"
	"github.com/udisondev/skillstats/internal/skill"
	"github.com/udisondev/skillstats/internal/skillmodule"
)

func (c *cli) installCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "install",
		Short: "Create or upgrade the skills table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context(), c.cfg, true)
			if err != nil {
				return err
			}
			defer a.close()

			info := a.module.Info()
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s installed (table %q)\n",
				info.Name, info.Version, c.cfg.Database.SkillsTable)
			return nil
		},
	}
}

func (c *cli) uninstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "uninstall",
		Short: "Unregister the skills section; stored data is kept",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context(), c.cfg, false)
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.module.Uninstall(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "uninstalled; table %q kept\n", c.cfg.Database.SkillsTable)
			return nil
		},
	}
}

func (c *cli) statsCmd() *cobra.Command {
	var asHTML bool

	cmd := &cobra.Command{
		Use:   "stats <accountID>",
		Short: "Render the character-stats panel of an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			accountID, err := parseAccountID(args[0])
			if err != nil {
				return err
			}

			a, err := openApp(cmd.Context(), c.cfg, true)
			if err != nil {
				return err
			}
			defer a.close()

			panel := a.module.Render(cmd.Context(), charstats.Session{AccountID: accountID, LoggedIn: true})

			if !asHTML {
				return writePanel(cmd.OutOrStdout(), panel)
			}

			tmpl, err := newTemplates(c.cfg)
			if err != nil {
				return err
			}
			out, err := tmpl.RenderCharStats(accountID, panel)
			if err != nil {
				return err
			}
			_, err = io.WriteString(cmd.OutOrStdout(), out)
			return err
		},
	}
	cmd.Flags().BoolVar(&asHTML, "html", false, "render with the HTML template")
	return cmd
}

func (c *cli) accountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage host accounts",
	}

	var password string
	create := &cobra.Command{
		Use:   "create <login>",
		Short: "Create an account and its default skills row",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), c.cfg, true)
			if err != nil {
				return err
			}
			defer a.close()

			id, err := a.accounts.CreateAccount(cmd.Context(), args[0], password)
			if err != nil {
				return err
			}
			if err := a.module.OnAccountCreated(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "account %q created with id %d\n", args[0], id)
			return nil
		},
	}
	create.Flags().StringVar(&password, "password", "", "account password (bcrypt-hashed)")

	show := &cobra.Command{
		Use:   "show <login>",
		Short: "Show an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), c.cfg, false)
			if err != nil {
				return err
			}
			defer a.close()

			acc, err := a.accounts.GetAccount(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if acc == nil {
				return fmt.Errorf("account %q not found", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "id=%d login=%s created=%s\n",
				acc.ID, acc.Login, acc.CreatedAt.Format("2006-01-02 15:04:05"))
			return nil
		},
	}

	cmd.AddCommand(create, show)
	return cmd
}

func (c *cli) skillCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "skill",
		Short: "Operator access to stored skill progress",
	}

	set := &cobra.Command{
		Use:   "set <accountID> <skill> <level> <experience>",
		Short: "Store one skill's progress; values are clamped",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			accountID, err := parseAccountID(args[0])
			if err != nil {
				return err
			}
			level, err := parseProgressValue(args[2])
			if err != nil {
				return fmt.Errorf("parsing level %q: %w", args[2], err)
			}
			experience, err := parseProgressValue(args[3])
			if err != nil {
				return fmt.Errorf("parsing experience %q: %w", args[3], err)
			}

			a, err := openApp(cmd.Context(), c.cfg, true)
			if err != nil {
				return err
			}
			defer a.close()

			key := skill.Key(args[1])
			p := skill.Progress{Level: level, Experience: experience}
			if err := a.module.Store().SetProgress(cmd.Context(), accountID, key, p); err != nil {
				return err
			}

			stored, _ := a.module.Store().Load(cmd.Context(), accountID).Progress(key)
			fmt.Fprintf(cmd.OutOrStdout(), "%s: level %d, %d XP\n", key, stored.Level, stored.Experience)
			return nil
		},
	}

	cmd.AddCommand(set)
	return cmd
}

func (c *cli) settingsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "settings",
		Short: "Show module info and effective visibility settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg := skill.DefaultRegistry()
			return writeSettings(cmd.OutOrStdout(), skillmodule.Describe(reg), skill.NewVisibility(reg, c.cfg.Skills))
		},
	}
}

func parseAccountID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing account id %q: %w", s, err)
	}
	if id <= 0 {
		return 0, fmt.Errorf("account id %d: %w", id, skill.ErrInvalidAccount)
	}
	return id, nil
}

// parseProgressValue parses a decimal integer; out-of-range values saturate
// and are clamped by the store like any other value.
func parseProgressValue(s string) (int, error) {
	n, err := strconv.ParseInt(s, 10, 0)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, err
	}
	return int(n), nil
}

// writePanel prints panel lines as an aligned two-column table.
func writePanel(w io.Writer, panel *charstats.Panel) error {
	if panel.Len() == 0 {
		_, err := fmt.Fprintln(w, "(no stats)")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, line := range panel.Lines() {
		if line.Header {
			fmt.Fprintf(tw, "%s\t\n", line.Label)
			continue
		}
		fmt.Fprintf(tw, "  %s\t%s\n", line.Label, line.Value)
	}
	return tw.Flush()
}

// writeSettings prints module info and the settings schema with effective values.
func writeSettings(w io.Writer, info skillmodule.Info, vis skill.Visibility) error {
	fmt.Fprintf(w, "%s %s (%s)\n%s\n\n", info.Name, info.Version, info.Category, info.Description)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, def := range info.Settings {
		if def.Type == skill.SettingTitle {
			fmt.Fprintf(tw, "%s\t\t\n", def.Label)
			continue
		}
		fmt.Fprintf(tw, "  %s\t%s\t%t\n", def.Key, def.Label, vis.Enabled(def.Skill))
	}
	return tw.Flush()
}
