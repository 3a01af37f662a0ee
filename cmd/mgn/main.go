package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	cl "magnate/internal/cli"
	"magnate/internal/config"
	"magnate/internal/corp"
	"magnate/internal/tui"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func main() {
	cfg := config.LoadCLIFromEnv()
	apiBase := cfg.APIBaseURL

	root := &cobra.Command{
		Use:          "mgn",
		Short:        "Magnate CLI game client",
		SilenceUsage: true,
	}

	root.AddCommand(
		newSignupCmd(&apiBase),
		newLoginCmd(&apiBase),
		newLogoutCmd(&apiBase),
		newDashCmd(&apiBase),
		newBoardCmd(&apiBase),
		newCompanyCmd(&apiBase),
		newHoldersCmd(&apiBase),
		newDealCmd(&apiBase),
		newAcquireCmd(&apiBase),
		newSubsCmd(&apiBase),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newClient(apiBase *string) *cl.Client {
	return cl.NewClient(strings.TrimRight(strings.TrimSpace(*apiBase), "/"))
}

func newSignupCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "signup",
		Short: "Create a Magnate account",
		RunE: func(cmd *cobra.Command, args []string) error {
			email, err := promptRequired("Email")
			if err != nil {
				return err
			}
			password, err := promptPassword("Password")
			if err != nil {
				return err
			}
			companyName, err := promptOptional("Company name (optional)")
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			client := newClient(apiBase)
			session, err := client.Signup(ctx, email, password, companyName)
			if err != nil {
				return err
			}
			if err := cl.SaveSession(cl.Session{
				Token:  session.Token,
				Email:  session.User.Email,
				UserID: session.User.ID,
			}); err != nil {
				return err
			}
			printSuccess("Signup complete. Your company is founded.")
			return nil
		},
	}
}

func newLoginCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Login to Magnate",
		RunE: func(cmd *cobra.Command, args []string) error {
			email, err := promptRequired("Email")
			if err != nil {
				return err
			}
			password, err := promptPassword("Password")
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			client := newClient(apiBase)
			session, err := client.Login(ctx, email, password)
			if err != nil {
				return err
			}
			if err := cl.SaveSession(cl.Session{
				Token:  session.Token,
				Email:  session.User.Email,
				UserID: session.User.ID,
			}); err != nil {
				return err
			}
			printSuccess("Login successful.")
			return nil
		},
	}
}

func newLogoutCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the server token and clear the local session",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cl.LoadSession()
			if err == nil {
				ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
				defer cancel()
				_ = newClient(apiBase).Logout(ctx, sess.Token)
			}
			if err := cl.ClearSession(); err != nil {
				return err
			}
			printSuccess("Logged out.")
			return nil
		},
	}
}

func newDashCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "dash",
		Short: "Show your dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cl.LoadSession()
			if err != nil {
				return fmt.Errorf("login required: %w", err)
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			out, err := newClient(apiBase).Dashboard(ctx, sess.Token)
			if err != nil {
				return err
			}
			return renderDashboard(out)
		},
	}
}

func newBoardCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "board",
		Short: "Live company board (interactive)",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cl.LoadSession()
			if err != nil {
				return fmt.Errorf("login required: %w", err)
			}
			return tui.Run(newClient(apiBase), sess.Token)
		},
	}
}

func newCompanyCmd(apiBase *string) *cobra.Command {
	company := &cobra.Command{
		Use:   "company",
		Short: "Company state and capital operations",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cl.LoadSession()
			if err != nil {
				return fmt.Errorf("login required: %w", err)
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			out, err := newClient(apiBase).Company(ctx, sess.Token)
			if err != nil {
				return err
			}
			return renderCompany(out)
		},
	}

	company.AddCommand(
		newCapitalPctCmd(apiBase, "dilute", "Issue new shares for capital",
			fmt.Sprintf("Dilution %% (%.0f-%.0f)", corp.DilutionMinPct, corp.DilutionMaxPct),
			func(ctx context.Context, c *cl.Client, token string, pct float64, idem string) (map[string]any, error) {
				return c.Dilute(ctx, token, pct, idem)
			}),
		newCapitalPctCmd(apiBase, "buyback", "Buy back shares from the open market",
			fmt.Sprintf("Buyback %% (%.1f-%.1f, steps of %.1f)", corp.BuybackMinPct, corp.BuybackMaxPct, corp.BuybackStepPct),
			func(ctx context.Context, c *cl.Client, token string, pct float64, idem string) (map[string]any, error) {
				return c.Buyback(ctx, token, pct, idem)
			}),
		newCapitalPctCmd(apiBase, "dividend", "Pay a dividend from company capital",
			fmt.Sprintf("Dividend %% (%.0f-%.0f)", corp.DividendMinPct, corp.DividendMaxPct),
			func(ctx context.Context, c *cl.Client, token string, pct float64, idem string) (map[string]any, error) {
				return c.Dividend(ctx, token, pct, idem)
			}),
		newSplitCmd(apiBase),
		newCreditCmd(apiBase),
	)
	return company
}

func newCapitalPctCmd(apiBase *string, use, short, label string,
	call func(context.Context, *cl.Client, string, float64, string) (map[string]any, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cl.LoadSession()
			if err != nil {
				return fmt.Errorf("login required: %w", err)
			}
			pct, err := promptFloat(label, 0)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			out, err := call(ctx, newClient(apiBase), sess.Token, pct, uuid.NewString())
			if err != nil {
				return err
			}
			return renderCapitalResult(out)
		},
	}
}

func newSplitCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "split",
		Short: "Split the stock 10-for-1",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cl.LoadSession()
			if err != nil {
				return fmt.Errorf("login required: %w", err)
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			out, err := newClient(apiBase).StockSplit(ctx, sess.Token, uuid.NewString())
			if err != nil {
				return err
			}
			return renderCapitalResult(out)
		},
	}
}

func newCreditCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "credit",
		Short: "Show the company's credit rating",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cl.LoadSession()
			if err != nil {
				return fmt.Errorf("login required: %w", err)
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			out, err := newClient(apiBase).Credit(ctx, sess.Token)
			if err != nil {
				return err
			}
			return renderCredit(out)
		},
	}
}

func newHoldersCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "holders",
		Short: "List shareholders",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cl.LoadSession()
			if err != nil {
				return fmt.Errorf("login required: %w", err)
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			out, err := newClient(apiBase).Shareholders(ctx, sess.Token)
			if err != nil {
				return err
			}
			return renderShareholders(out)
		},
	}
}

func newDealCmd(apiBase *string) *cobra.Command {
	deal := &cobra.Command{
		Use:   "deal",
		Short: "Negotiate share lots with a co-owner",
	}
	deal.AddCommand(
		newDealBuyCmd(apiBase),
		newDealSellCmd(apiBase),
		newDealStatusCmd(apiBase),
		newDealCancelCmd(apiBase),
	)
	return deal
}

func newDealBuyCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "buy",
		Short: "Offer to buy lots from a shareholder",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cl.LoadSession()
			if err != nil {
				return fmt.Errorf("login required: %w", err)
			}
			shID, err := promptRequired("Shareholder ID")
			if err != nil {
				return err
			}
			price, err := promptFloat("Price per lot", 0)
			if err != nil {
				return err
			}
			lots, err := promptInt("Lots (1 lot = 0.1%)", 1)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
			defer cancel()
			client := newClient(apiBase)
			out, err := client.ProposeBuy(ctx, sess.Token, shID, corp.CoinsToMicros(price), int(lots), uuid.NewString())
			if err != nil {
				return err
			}
			session, err := decodeInto[corp.ShareSession](out)
			if err != nil {
				return err
			}
			printInfo(fmt.Sprintf("Offer sent to %s, waiting for an answer...", session.ShareholderName))
			return pollNegotiation(ctx, client, sess.Token, session.ID.String())
		},
	}
}

func newDealSellCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "sell",
		Short: "Ask a shareholder to buy lots from you",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cl.LoadSession()
			if err != nil {
				return fmt.Errorf("login required: %w", err)
			}
			shID, err := promptRequired("Shareholder ID")
			if err != nil {
				return err
			}
			lots, err := promptInt("Lots (1 lot = 0.1%)", 1)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
			defer cancel()
			client := newClient(apiBase)
			out, err := client.ProposeSell(ctx, sess.Token, shID, int(lots), uuid.NewString())
			if err != nil {
				return err
			}
			session, err := decodeInto[corp.ShareSession](out)
			if err != nil {
				return err
			}
			if err := renderNegotiation(out); err != nil {
				return err
			}

			choice, err := promptChoice("Accept the quoted price", []string{"yes", "no"}, "no")
			if err != nil {
				return err
			}
			id := session.ID.String()
			if choice == "yes" {
				res, err := client.AcceptSell(ctx, sess.Token, id)
				if err != nil {
					return err
				}
				return renderNegotiation(res)
			}
			res, err := client.RejectSell(ctx, sess.Token, id)
			if err != nil {
				return err
			}
			return renderNegotiation(res)
		},
	}
}

func newDealStatusCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "status <session-id>",
		Short: "Show a negotiation session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cl.LoadSession()
			if err != nil {
				return fmt.Errorf("login required: %w", err)
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			out, err := newClient(apiBase).Negotiation(ctx, sess.Token, args[0])
			if err != nil {
				return err
			}
			return renderNegotiation(out)
		},
	}
}

func newDealCancelCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <session-id>",
		Short: "Walk away from a pending negotiation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cl.LoadSession()
			if err != nil {
				return fmt.Errorf("login required: %w", err)
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			if err := newClient(apiBase).CancelNegotiation(ctx, sess.Token, args[0]); err != nil {
				return err
			}
			printSuccess("Negotiation cancelled.")
			return nil
		},
	}
}

func newAcquireCmd(apiBase *string) *cobra.Command {
	acquire := &cobra.Command{
		Use:   "acquire",
		Short: "Acquire external companies",
	}
	acquire.AddCommand(
		newAcquireTargetsCmd(apiBase),
		newAcquireStartCmd(apiBase),
		newAcquireStatusCmd(apiBase),
		newAcquireRetryCmd(apiBase),
		newAcquireCancelCmd(apiBase),
	)
	return acquire
}

func newAcquireTargetsCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "targets",
		Short: "List companies on the market",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cl.LoadSession()
			if err != nil {
				return fmt.Errorf("login required: %w", err)
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			out, err := newClient(apiBase).Targets(ctx, sess.Token)
			if err != nil {
				return err
			}
			return renderTargets(out)
		},
	}
}

func newAcquireStartCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Open an acquisition attempt",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cl.LoadSession()
			if err != nil {
				return fmt.Errorf("login required: %w", err)
			}
			targetID, err := promptInt("Target ID", 1)
			if err != nil {
				return err
			}
			offer, err := promptFloat("Offer", 0)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 90*time.Second)
			defer cancel()
			client := newClient(apiBase)
			out, err := client.StartAcquisition(ctx, sess.Token, targetID, corp.CoinsToMicros(offer), uuid.NewString())
			if err != nil {
				return err
			}
			session, err := decodeInto[corp.AcquisitionSession](out)
			if err != nil {
				return err
			}
			printInfo("The board is voting on your proposal...")
			return pollAcquisition(ctx, client, sess.Token, session.ID.String())
		},
	}
}

func newAcquireStatusCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "status <session-id>",
		Short: "Show an acquisition attempt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cl.LoadSession()
			if err != nil {
				return fmt.Errorf("login required: %w", err)
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			out, err := newClient(apiBase).Acquisition(ctx, sess.Token, args[0])
			if err != nil {
				return err
			}
			return renderAcquisition(out)
		},
	}
}

func newAcquireRetryCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "retry <session-id>",
		Short: "Retry a rejected acquisition, optionally with a new offer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cl.LoadSession()
			if err != nil {
				return fmt.Errorf("login required: %w", err)
			}
			raw, err := promptOptional("New offer (blank keeps the old one)")
			if err != nil {
				return err
			}
			var offerMicros int64
			if raw != "" {
				offer, err := parsePositiveFloat(raw)
				if err != nil {
					return err
				}
				offerMicros = corp.CoinsToMicros(offer)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 90*time.Second)
			defer cancel()
			client := newClient(apiBase)
			if _, err := client.RetryAcquisition(ctx, sess.Token, args[0], offerMicros); err != nil {
				return err
			}
			printInfo("The board is voting again...")
			return pollAcquisition(ctx, client, sess.Token, args[0])
		},
	}
}

func newAcquireCancelCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <session-id>",
		Short: "Withdraw an acquisition attempt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cl.LoadSession()
			if err != nil {
				return fmt.Errorf("login required: %w", err)
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			if err := newClient(apiBase).CancelAcquisition(ctx, sess.Token, args[0]); err != nil {
				return err
			}
			printSuccess("Acquisition withdrawn.")
			return nil
		},
	}
}

func newSubsCmd(apiBase *string) *cobra.Command {
	subs := &cobra.Command{
		Use:   "subs",
		Short: "Manage your subsidiaries",
	}
	subs.AddCommand(
		newSubsListCmd(apiBase),
		newSubsActionCmd(apiBase, "invest", "Invest in a subsidiary's growth",
			func(ctx context.Context, c *cl.Client, token, id, idem string) (map[string]any, error) {
				return c.InvestSubsidiary(ctx, token, id, idem)
			}),
		newSubsActionCmd(apiBase, "restructure", "Restructure a loss-making subsidiary",
			func(ctx context.Context, c *cl.Client, token, id, idem string) (map[string]any, error) {
				return c.RestructureSubsidiary(ctx, token, id, idem)
			}),
		newSubsSellCmd(apiBase),
	)
	return subs
}

func newSubsListCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your subsidiaries",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cl.LoadSession()
			if err != nil {
				return fmt.Errorf("login required: %w", err)
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			out, err := newClient(apiBase).Subsidiaries(ctx, sess.Token)
			if err != nil {
				return err
			}
			return renderSubsidiaries(out)
		},
	}
}

func newSubsActionCmd(apiBase *string, use, short string,
	call func(context.Context, *cl.Client, string, string, string) (map[string]any, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <subsidiary-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cl.LoadSession()
			if err != nil {
				return fmt.Errorf("login required: %w", err)
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			out, err := call(ctx, newClient(apiBase), sess.Token, args[0], uuid.NewString())
			if err != nil {
				return err
			}
			return renderSubsidiaryAction(out)
		},
	}
}

func newSubsSellCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "sell <subsidiary-id>",
		Short: "Sell a subsidiary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cl.LoadSession()
			if err != nil {
				return fmt.Errorf("login required: %w", err)
			}
			mode, err := promptChoice("Sale mode", []string{"fire_sale", "market_price"}, "market_price")
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			out, err := newClient(apiBase).SellSubsidiary(ctx, sess.Token, args[0], mode, uuid.NewString())
			if err != nil {
				return err
			}
			return renderSubsidiaryAction(out)
		},
	}
}

func pollNegotiation(ctx context.Context, client *cl.Client, token, id string) error {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			out, err := client.Negotiation(ctx, token, id)
			if err != nil {
				return err
			}
			session, err := decodeInto[corp.ShareSession](out)
			if err != nil {
				return err
			}
			if session.State != corp.DealPending {
				return renderNegotiation(out)
			}
		}
	}
}

func pollAcquisition(ctx context.Context, client *cl.Client, token, id string) error {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	lastStage := corp.AcquisitionStage("")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			out, err := client.Acquisition(ctx, token, id)
			if err != nil {
				return err
			}
			session, err := decodeInto[corp.AcquisitionSession](out)
			if err != nil {
				return err
			}
			if session.Stage == corp.StageTargetNegotiating && lastStage != session.Stage {
				printInfo("Board approved. Negotiating with the target...")
			}
			lastStage = session.Stage
			if session.Stage == corp.StageAccepted || session.Stage == corp.StageRejected {
				return renderAcquisition(out)
			}
		}
	}
}

func parsePositiveFloat(raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid amount %q", raw)
	}
	return v, nil
}
