package cmd

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/knowgraph/knowgraph/internal/signup"
	"github.com/knowgraph/knowgraph/internal/store"
)

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Manage beta-access signups",
}

var signupAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a signup from the command line",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		email, _ := cmd.Flags().GetString("email")
		role, _ := cmd.Flags().GetString("role")
		interest, _ := cmd.Flags().GetString("interest")
		plans, _ := cmd.Flags().GetStringSlice("plan")
		message, _ := cmd.Flags().GetString("message")
		notifyOn, _ := cmd.Flags().GetBool("notify")

		svcs, err := openServices(cmd.Context(), servicesOpts{notify: notifyOn}, logger)
		if err != nil {
			return err
		}
		defer svcs.Close()

		in := signup.Input{
			Name:     name,
			Email:    email,
			Role:     signup.Role(role),
			Interest: signup.Interest(interest),
			Message:  message,
		}
		for _, p := range plans {
			in.InterestedPlans = append(in.InterestedPlans, signup.Plan(p))
		}

		rec, err := svcs.signups.Submit(cmd.Context(), in)
		if err != nil {
			var inErr *signup.InputError
			if errors.As(err, &inErr) {
				for field, msg := range inErr.Fields() {
					fmt.Fprintf(os.Stderr, "  %s: %s\n", field, msg)
				}
			}
			return fmt.Errorf("%s: %w", signup.UserMessage(err), err)
		}
		fmt.Printf("%s: %s <%s> (%s)\n", signup.UserMessage(nil), rec.Name, rec.Email, rec.ID)
		return nil
	},
}

var signupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List signups, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := filterFromFlags(cmd)
		if err != nil {
			return err
		}
		svcs, err := openServices(cmd.Context(), servicesOpts{}, logger)
		if err != nil {
			return err
		}
		defer svcs.Close()

		items, err := svcs.signups.List(cmd.Context(), f)
		if err != nil {
			return fmt.Errorf("list signups: %w", err)
		}
		if len(items) == 0 {
			fmt.Println("No signups found.")
			return nil
		}

		fmt.Printf("%-24s  %-32s  %-12s  %-28s  %s\n", "Name", "Email", "Role", "Plans", "Signed Up")
		fmt.Println(strings.Repeat("─", 116))
		for _, s := range items {
			plans := make([]string, len(s.InterestedPlans))
			for i, p := range s.InterestedPlans {
				plans[i] = string(p)
			}
			fmt.Printf("%-24s  %-32s  %-12s  %-28s  %s\n",
				truncate(s.Name, 24),
				truncate(s.Email, 32),
				s.Role.Label(),
				truncate(strings.Join(plans, ","), 28),
				s.CreatedAt.Local().Format(signup.ExportTimeLayout),
			)
		}
		fmt.Printf("\n%d signups\n", len(items))
		return nil
	},
}

var signupStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show signup totals by role and plan",
	RunE: func(cmd *cobra.Command, args []string) error {
		svcs, err := openServices(cmd.Context(), servicesOpts{}, logger)
		if err != nil {
			return err
		}
		defer svcs.Close()

		st, err := svcs.signups.Stats(cmd.Context())
		if err != nil {
			return fmt.Errorf("signup stats: %w", err)
		}

		fmt.Printf("Total:      %d\n", st.Total)
		fmt.Printf("This week:  %d\n", st.ThisWeek)
		fmt.Println()
		printCounts("Role", st.ByRole)
		fmt.Println()
		printCounts("Plan", st.ByPlan)
		return nil
	},
}

var signupExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write signups to a CSV or XLSX file",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		out, _ := cmd.Flags().GetString("out")
		if !slices.Contains(signup.ExportFormats, format) {
			return signup.ErrExportFormat
		}
		f, err := filterFromFlags(cmd)
		if err != nil {
			return err
		}

		svcs, err := openServices(cmd.Context(), servicesOpts{}, logger)
		if err != nil {
			return err
		}
		defer svcs.Close()

		items, err := svcs.signups.List(cmd.Context(), f)
		if err != nil {
			return fmt.Errorf("list signups: %w", err)
		}

		if out == "" {
			out = signup.ExportFileName(time.Now(), format)
		}
		file, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("create %s: %w", out, err)
		}
		if err := signup.Export(file, format, items); err != nil {
			file.Close()
			return fmt.Errorf("export: %w", err)
		}
		if err := file.Close(); err != nil {
			return err
		}
		fmt.Printf("Wrote %d signups to %s\n", len(items), out)
		return nil
	},
}

var signupNotificationsCmd = &cobra.Command{
	Use:   "notifications",
	Short: "Show recent notification delivery attempts",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		s, err := openEventStore()
		if err != nil {
			return err
		}
		defer s.Close()

		events, err := s.EventRepo().Notifications(cmd.Context(), store.QueryOpts{})
		if err != nil {
			return fmt.Errorf("query notifications: %w", err)
		}
		if limit > 0 && len(events) > limit {
			events = events[len(events)-limit:]
		}
		if len(events) == 0 {
			fmt.Println("No notifications sent yet.")
			return nil
		}

		fmt.Printf("%-19s  %-36s  %-8s  %s\n", "Timestamp", "Signup", "Channel", "Result")
		fmt.Println(strings.Repeat("─", 90))
		for _, e := range events {
			result := "✓"
			if !e.Success {
				result = "✗ " + e.ErrorMessage
			}
			fmt.Printf("%-19s  %-36s  %-8s  %s\n",
				e.Timestamp.Local().Format("2006-01-02 15:04:05"), e.SignupID, e.Channel, result)
		}
		return nil
	},
}

func init() {
	af := signupAddCmd.Flags()
	af.String("name", "", "Full name")
	af.String("email", "", "Email address")
	af.String("role", "", "One of: "+joinValues(signup.Roles()))
	af.String("interest", "", "Optional; one of: "+joinValues(signup.Interests()))
	af.StringSlice("plan", nil, "Interested plan (repeatable); one of: "+joinValues(signup.Plans()))
	af.String("message", "", "Optional note")
	af.Bool("notify", true, "Send the welcome notification through the configured channels")

	for _, c := range []*cobra.Command{signupListCmd, signupExportCmd} {
		c.Flags().String("role", "", "Only this role")
		c.Flags().String("plan", "", "Only signups interested in this plan")
		c.Flags().String("search", "", "Case-insensitive match on name or email")
		c.Flags().Int("limit", 0, "Maximum number of rows (0 = all)")
	}
	signupExportCmd.Flags().String("format", "csv", "csv or xlsx")
	signupNotificationsCmd.Flags().Int("limit", 20, "Number of attempts to show")
	signupExportCmd.Flags().StringP("out", "o", "", "Output file (default beta-signups-<date>.<format>)")

	signupCmd.AddCommand(signupAddCmd)
	signupCmd.AddCommand(signupListCmd)
	signupCmd.AddCommand(signupStatsCmd)
	signupCmd.AddCommand(signupExportCmd)
	signupCmd.AddCommand(signupNotificationsCmd)
}

func filterFromFlags(cmd *cobra.Command) (signup.Filter, error) {
	role, _ := cmd.Flags().GetString("role")
	plan, _ := cmd.Flags().GetString("plan")
	search, _ := cmd.Flags().GetString("search")
	limit, _ := cmd.Flags().GetInt("limit")

	f := signup.Filter{Role: signup.Role(role), Plan: signup.Plan(plan), Search: search, Limit: limit}
	if f.Role != "" && !slices.Contains(signup.Roles(), f.Role) {
		return f, fmt.Errorf("unknown role %q (want %s)", role, joinValues(signup.Roles()))
	}
	if f.Plan != "" && !slices.Contains(signup.Plans(), f.Plan) {
		return f, fmt.Errorf("unknown plan %q (want %s)", plan, joinValues(signup.Plans()))
	}
	if f.Limit < 0 {
		return f, errors.New("limit must not be negative")
	}
	return f, nil
}

func printCounts(heading string, counts []signup.Count) {
	fmt.Printf("%-20s  %6s\n", heading, "Count")
	fmt.Println(strings.Repeat("─", 28))
	for _, c := range counts {
		fmt.Printf("%-20s  %6d\n", c.Label, c.Count)
	}
}

func joinValues[T ~string](vals []T) string {
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = string(v)
	}
	return strings.Join(out, ", ")
}
