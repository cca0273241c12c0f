package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mmynk/bandpoints/internal/config"
	"github.com/mmynk/bandpoints/pkg/api"
	"github.com/mmynk/bandpoints/pkg/client"
)

// Client subcommands share these connection flags; empty values fall back to
// BANDPOINTS_SERVER, BANDPOINTS_EMAIL and BANDPOINTS_PASSWORD.
var (
	serverURL string
	email     string
	password  string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "server URL")
	rootCmd.PersistentFlags().StringVar(&email, "email", "", "sign-in email")
	rootCmd.PersistentFlags().StringVar(&password, "password", "", "sign-in password")

	assignCmd.Flags().BoolP("yes", "y", false, "skip the confirmation prompt")
	deleteCmd.Flags().String("confirm-name", "", "the member's exact name (prompted if omitted)")
	resetCmd.Flags().String("confirm", "", "the confirmation phrase (prompted if omitted)")

	rootCmd.AddCommand(standingsCmd, sectionCmd, joinCmd, membersCmd, awardCmd,
		assignCmd, setRoleCmd, deleteCmd, resetCmd, historyCmd, watchCmd)
}

// signIn opens a session. watch enables the live listener.
func signIn(ctx context.Context, watch bool) (*client.Session, error) {
	cfg := config.LoadClient()
	if serverURL != "" {
		cfg.ServerURL = serverURL
	}
	if email != "" {
		cfg.Email = email
	}
	if password != "" {
		cfg.Password = password
	}
	if cfg.Email == "" || cfg.Password == "" {
		return nil, fmt.Errorf("--email and --password (or BANDPOINTS_EMAIL and BANDPOINTS_PASSWORD) are required")
	}

	var opts []client.Option
	if !watch {
		opts = append(opts, client.WithoutWatch())
	}
	return client.SignIn(ctx, cfg.ServerURL, cfg.Email, cfg.Password, opts...)
}

// withSession runs fn with a short-lived session that is always closed.
func withSession(cmd *cobra.Command, fn func(ctx context.Context, s *client.Session) error) error {
	ctx := cmd.Context()
	s, err := signIn(ctx, false)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(ctx, s)
}

// resolveMember accepts a member ID or email.
func resolveMember(ctx context.Context, s *client.Session, ref string) (*api.Member, error) {
	members, err := s.ListMembers(ctx, "")
	if err != nil {
		return nil, err
	}
	for i := range members {
		if members[i].ID == ref || strings.EqualFold(members[i].Email, ref) {
			return &members[i], nil
		}
	}
	return nil, fmt.Errorf("no member matches %q", ref)
}

// prompt prints question and reads one line. It returns nil on EOF, which
// callers treat as cancellation.
func prompt(in io.Reader, out io.Writer, question string) *string {
	fmt.Fprint(out, question+" ")
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return nil
	}
	line = strings.TrimRight(line, "\r\n")
	return &line
}

func newTable(out io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
}

var standingsCmd = &cobra.Command{
	Use:   "standings",
	Short: "Show section standings",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, s *client.Session) error {
			resp, err := s.Standings(ctx)
			if err != nil {
				return err
			}
			w := newTable(cmd.OutOrStdout())
			fmt.Fprintln(w, "#\tSECTION\tPOINTS\tMEMBERS")
			for i, row := range resp.Standings {
				fmt.Fprintf(w, "%d\t%s %s\t%d\t%d\n", i+1, row.Section.Icon, row.Section.Name, row.TotalPoints, row.MemberCount)
			}
			fmt.Fprintf(w, "\tTOTAL\t%d\t%d\n", resp.TotalPoints, resp.TotalMembers)
			return w.Flush()
		})
	},
}

var sectionCmd = &cobra.Command{
	Use:   "section [section]",
	Short: "Show the member ranking of a section (default: your own)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var section string
		if len(args) == 1 {
			section = args[0]
		}
		return withSession(cmd, func(ctx context.Context, s *client.Session) error {
			resp, err := s.Ranking(ctx, section)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s\n", resp.Section.Icon, resp.Section.Name)
			if len(resp.Members) == 0 {
				fmt.Fprintln(out, "No members yet.")
				return nil
			}
			w := newTable(out)
			fmt.Fprintln(w, "RANK\tNAME\tPOINTS")
			for _, row := range resp.Members {
				fmt.Fprintf(w, "%d\t%s\t%d\n", row.Rank, row.Member.Name, row.Member.Points)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			if resp.ViewerRank > 0 {
				fmt.Fprintf(out, "You are #%d of %d.\n", resp.ViewerRank, len(resp.Members))
			}
			return nil
		})
	},
}

var joinCmd = &cobra.Command{
	Use:   "join <section>",
	Short: "Choose your section (only while unassigned)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, s *client.Session) error {
			m, err := s.ChooseSection(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Joined %s.\n", m.Section)
			return nil
		})
	},
}

var membersCmd = &cobra.Command{
	Use:   "members [search]",
	Short: "List members ordered by name (admin)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var search string
		if len(args) == 1 {
			search = args[0]
		}
		return withSession(cmd, func(ctx context.Context, s *client.Session) error {
			members, err := s.ListMembers(ctx, search)
			if err != nil {
				return err
			}
			w := newTable(cmd.OutOrStdout())
			fmt.Fprintln(w, "NAME\tEMAIL\tSECTION\tROLE\tPOINTS\tID")
			for _, m := range members {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n", m.Name, m.Email, m.Section, m.Role, m.Points, m.ID)
			}
			return w.Flush()
		})
	},
}

var awardCmd = &cobra.Command{
	Use:   "award <member> <points> [reason...]",
	Short: "Add (or with a negative number, remove) points (admin)",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		delta, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("points must be a whole number: %w", err)
		}
		reason := strings.Join(args[2:], " ")
		return withSession(cmd, func(ctx context.Context, s *client.Session) error {
			target, err := resolveMember(ctx, s, args[0])
			if err != nil {
				return err
			}
			resp, err := s.AdjustPoints(ctx, target.ID, delta, reason)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s now has %d points (%+d, %s).\n",
				resp.Member.Name, resp.Member.Points, resp.Transaction.Points, resp.Transaction.Reason)
			return nil
		})
	},
}

var assignCmd = &cobra.Command{
	Use:   "assign <member> <section>",
	Short: "Move a member to a section (admin)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		return withSession(cmd, func(ctx context.Context, s *client.Session) error {
			target, err := resolveMember(ctx, s, args[0])
			if err != nil {
				return err
			}
			resp, err := s.AssignSection(ctx, target.ID, args[1], func(question string) bool {
				if yes {
					return true
				}
				answer := prompt(cmd.InOrStdin(), cmd.OutOrStdout(), question+" [y/N]")
				return answer != nil && strings.EqualFold(strings.TrimSpace(*answer), "y")
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), resp.Outcome)
			return nil
		})
	},
}

var setRoleCmd = &cobra.Command{
	Use:   "set-role <member> <role>",
	Short: "Change a member's role (head admin)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, s *client.Session) error {
			target, err := resolveMember(ctx, s, args[0])
			if err != nil {
				return err
			}
			m, err := s.ChangeRole(ctx, target.ID, args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s.\n", m.Name, m.Role)
			return nil
		})
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <member>",
	Short: "Delete a member's record (head admin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, s *client.Session) error {
			target, err := resolveMember(ctx, s, args[0])
			if err != nil {
				return err
			}

			var confirm *string
			if cmd.Flags().Changed("confirm-name") {
				v, _ := cmd.Flags().GetString("confirm-name")
				confirm = &v
			} else {
				confirm = prompt(cmd.InOrStdin(), cmd.OutOrStdout(),
					fmt.Sprintf("Type %q to delete this member:", target.Name))
			}

			resp, err := s.DeleteMember(ctx, target.ID, confirm)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), resp.Outcome)
			return nil
		})
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset-points",
	Short: "Reset every member's points to zero (head admin)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, s *client.Session) error {
			var confirm *string
			if cmd.Flags().Changed("confirm") {
				v, _ := cmd.Flags().GetString("confirm")
				confirm = &v
			} else {
				confirm = prompt(cmd.InOrStdin(), cmd.OutOrStdout(),
					fmt.Sprintf("Type %q to reset all points:", api.ResetConfirmationPhrase))
			}

			resp, err := s.ResetAllPoints(ctx, confirm)
			if err != nil {
				return err
			}
			if resp.Applied {
				fmt.Fprintf(cmd.OutOrStdout(), "Reset %d members.\n", resp.MembersReset)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), resp.Outcome)
			return nil
		})
	},
}

var historyCmd = &cobra.Command{
	Use:   "history <member>",
	Short: "Show a member's point transactions (admin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, s *client.Session) error {
			// Deleted members keep their history, so raw IDs are accepted as-is.
			memberID := args[0]
			if target, err := resolveMember(ctx, s, args[0]); err == nil {
				memberID = target.ID
			}
			txns, err := s.Transactions(ctx, memberID)
			if err != nil {
				return err
			}
			w := newTable(cmd.OutOrStdout())
			fmt.Fprintln(w, "WHEN\tPOINTS\tBY\tREASON")
			for _, t := range txns {
				fmt.Fprintf(w, "%d\t%+d\t%s\t%s\n", t.CreatedAt, t.Points, t.AdminID, t.Reason)
			}
			return w.Flush()
		})
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print your member record whenever it changes",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		s, err := signIn(ctx, true)
		if err != nil {
			return err
		}
		defer s.Close()

		out := cmd.OutOrStdout()
		for {
			select {
			case <-ctx.Done():
				return nil
			case m, ok := <-s.Updates():
				if !ok {
					return nil
				}
				if m == nil {
					fmt.Fprintln(out, "Your member record was deleted.")
					return nil
				}
				fmt.Fprintf(out, "%s  section=%s  role=%s  points=%d\n", m.Name, m.Section, m.Role, m.Points)
			}
		}
	},
}
