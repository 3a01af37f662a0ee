package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"

	"magnate/internal/corp"

	"github.com/fatih/color"
	"golang.org/x/term"
)

var (
	stdinReader = bufio.NewReader(os.Stdin)
	accent      = color.New(color.FgCyan, color.Bold)
	success     = color.New(color.FgGreen, color.Bold)
	warn        = color.New(color.FgYellow, color.Bold)
	danger      = color.New(color.FgRed, color.Bold)
	neutral     = color.New(color.FgHiWhite)
)

type shareholdersPayload struct {
	Shareholders []corp.Shareholder `json:"shareholders"`
}

type targetsPayload struct {
	Targets []corp.AcquisitionTarget `json:"targets"`
}

type subsidiariesPayload struct {
	Subsidiaries []corp.SubsidiaryView `json:"subsidiaries"`
}

func printSuccess(msg string) {
	success.Println(msg)
}

func printWarn(msg string) {
	warn.Println(msg)
}

func printInfo(msg string) {
	neutral.Println(msg)
}

func promptRequired(label string) (string, error) {
	for {
		fmt.Printf("%s: ", label)
		text, err := stdinReader.ReadString('\n')
		if err != nil {
			return "", err
		}
		text = strings.TrimSpace(text)
		if text != "" {
			return text, nil
		}
		printWarn(label + " is required.")
	}
}

func promptOptional(label string) (string, error) {
	fmt.Printf("%s: ", label)
	text, err := stdinReader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// promptPassword reads without echo when stdin is a terminal.
func promptPassword(label string) (string, error) {
	fd := int(syscall.Stdin)
	if !term.IsTerminal(fd) {
		return promptRequired(label)
	}
	for {
		fmt.Printf("%s: ", label)
		raw, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return "", err
		}
		text := strings.TrimSpace(string(raw))
		if text != "" {
			return text, nil
		}
		printWarn(label + " is required.")
	}
}

func promptChoice(label string, options []string, defaultValue string) (string, error) {
	normalized := make(map[string]struct{}, len(options))
	for _, opt := range options {
		normalized[strings.ToLower(strings.TrimSpace(opt))] = struct{}{}
	}
	for {
		fmt.Printf("%s (%s) [%s]: ", label, strings.Join(options, "/"), defaultValue)
		text, err := stdinReader.ReadString('\n')
		if err != nil {
			return "", err
		}
		text = strings.ToLower(strings.TrimSpace(text))
		if text == "" {
			text = strings.ToLower(strings.TrimSpace(defaultValue))
		}
		if _, ok := normalized[text]; ok {
			return text, nil
		}
		printWarn("Invalid option. Please pick one of the listed values.")
	}
}

func promptFloat(label string, min float64) (float64, error) {
	for {
		text, err := promptRequired(label)
		if err != nil {
			return 0, err
		}
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			printWarn("Enter a valid number.")
			continue
		}
		if v <= min {
			printWarn(fmt.Sprintf("Value must be > %.4f", min))
			continue
		}
		return v, nil
	}
}

func promptInt(label string, min int64) (int64, error) {
	for {
		text, err := promptRequired(label)
		if err != nil {
			return 0, err
		}
		v, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			printWarn("Enter a whole number.")
			continue
		}
		if v < min {
			printWarn(fmt.Sprintf("Value must be >= %d", min))
			continue
		}
		return v, nil
	}
}

func renderDashboard(raw map[string]any) error {
	d, err := decodeInto[corp.Dashboard](raw)
	if err != nil {
		return err
	}

	accent.Printf("\n== %s ==\n", strings.ToUpper(d.Company.Name))
	fmt.Printf("Personal Cash:    %s\n", formatMicros(d.CashMicros))
	fmt.Printf("Reputation:       %d\n", d.Reputation)
	fmt.Printf("Company Capital:  %s\n", formatMicros(d.Company.CapitalMicros))
	fmt.Printf("Valuation:        %s\n", formatMicros(d.Company.ValuationMicros))
	fmt.Printf("Share Price:      %s (%s)\n", formatMicros(d.Company.SharePriceMicros), colorizePercent(d.Company.DailyChangePct))
	fmt.Printf("Your Stake:       %.2f%%\n", d.Company.OwnershipPct)
	fmt.Printf("Debt:             %s\n", formatMicros(d.Company.DebtMicros))
	fmt.Printf("Annual Profit:    %s\n", colorizeMicros(d.Company.AnnualProfitMicros))
	fmt.Printf("Credit Rating:    %s (%.1f%%)\n", d.Credit.Rating.Label, d.Credit.Rating.RatePct)
	if d.Credit.BondRatePct != nil {
		fmt.Printf("Bond Rate:        %.1f%%\n", *d.Credit.BondRatePct)
	}

	fmt.Println()
	accent.Println("Shareholders")
	renderHolderTable(d.Shareholders)

	fmt.Println()
	accent.Println("Subsidiaries")
	if len(d.Subsidiaries) == 0 {
		printInfo("No subsidiaries yet.")
	} else {
		renderSubsidiaryTable(d.Subsidiaries)
	}
	fmt.Println()
	return nil
}

func renderCompany(raw map[string]any) error {
	c, err := decodeInto[corp.Company](raw)
	if err != nil {
		return err
	}
	accent.Printf("\n== %s ==\n", strings.ToUpper(c.Name))
	fmt.Printf("Capital:      %s\n", formatMicros(c.CapitalMicros))
	fmt.Printf("Valuation:    %s\n", formatMicros(c.ValuationMicros))
	fmt.Printf("Share Price:  %s (%s)\n", formatMicros(c.SharePriceMicros), colorizePercent(c.DailyChangePct))
	fmt.Printf("Your Stake:   %.2f%%\n", c.OwnershipPct)
	fmt.Printf("Debt:         %s\n", formatMicros(c.DebtMicros))
	fmt.Printf("Public:       %t\n", c.IsPublic)
	fmt.Println()
	return nil
}

func renderCredit(raw map[string]any) error {
	v, err := decodeInto[corp.CreditView](raw)
	if err != nil {
		return err
	}
	accent.Println("\n== CREDIT ==")
	fmt.Printf("Rating:     %s\n", v.Rating.Label)
	fmt.Printf("Loan Rate:  %.1f%%\n", v.Rating.RatePct)
	if v.BondRatePct != nil {
		fmt.Printf("Bond Rate:  %.1f%%\n", *v.BondRatePct)
	} else {
		printInfo("Bonds unavailable for private companies.")
	}
	fmt.Println()
	return nil
}

func renderShareholders(raw map[string]any) error {
	payload, err := decodeInto[shareholdersPayload](raw)
	if err != nil {
		return err
	}
	accent.Println("\n== SHAREHOLDERS ==")
	renderHolderTable(payload.Shareholders)
	fmt.Println()
	return nil
}

func renderHolderTable(holders []corp.Shareholder) {
	fmt.Printf("%-38s %-18s %-7s %9s %6s\n", "ID", "NAME", "KIND", "STAKE", "REL")
	for _, h := range holders {
		rel := "-"
		if h.Kind == corp.KindNPC && !h.IsFloat {
			rel = strconv.Itoa(h.Relationship)
		}
		fmt.Printf("%-38s %-18s %-7s %8.2f%% %6s\n",
			h.ID, truncate(h.Name, 18), string(h.Kind), h.Percentage, rel)
	}
}

func renderCapitalResult(raw map[string]any) error {
	res, err := decodeInto[corp.CapitalResult](raw)
	if err != nil {
		return err
	}
	accent.Printf("\n== %s ==\n", strings.ToUpper(res.Op))
	if res.CapitalRaisedMicros != 0 {
		fmt.Printf("Capital Raised:  %s\n", formatMicros(res.CapitalRaisedMicros))
	}
	if res.CostMicros != 0 {
		fmt.Printf("Cost:            %s\n", formatMicros(res.CostMicros))
	}
	if res.PoolMicros != 0 {
		fmt.Printf("Dividend Pool:   %s\n", formatMicros(res.PoolMicros))
		fmt.Printf("Your Payout:     %s\n", formatMicros(res.PlayerPayoutMicros))
	}
	if res.NewOwnershipPct != 0 {
		fmt.Printf("Your Stake:      %.2f%%\n", res.NewOwnershipPct)
	}
	if res.NewSharePriceMicros != 0 {
		fmt.Printf("Share Price:     %s\n", formatMicros(res.NewSharePriceMicros))
	}
	if res.MajorityLost {
		printWarn("You no longer hold a majority of the company.")
	}
	if res.ReserveRisk {
		printWarn("Capital reserve is running low after this payout.")
	}
	fmt.Println()
	return nil
}

func renderNegotiation(raw map[string]any) error {
	s, err := decodeInto[corp.ShareSession](raw)
	if err != nil {
		return err
	}
	accent.Printf("\n== NEGOTIATION %s ==\n", strings.ToUpper(string(s.Mode)))
	fmt.Printf("Session:      %s\n", s.ID)
	fmt.Printf("Counterparty: %s\n", s.ShareholderName)
	fmt.Printf("Price/lot:    %s\n", formatMicros(s.PriceMicros))
	fmt.Printf("Lots:         %d (%.1f%%)\n", s.Lots, float64(s.Lots)*corp.LotStakePct)
	fmt.Printf("State:        %s\n", renderDealState(s.State))
	if s.Outcome != "" {
		fmt.Printf("Outcome:      %s\n", s.Outcome)
	}
	if s.CashDeltaMicros != 0 {
		fmt.Printf("Cash Delta:   %s\n", colorizeMicros(s.CashDeltaMicros))
	}
	fmt.Println()
	return nil
}

func renderDealState(state corp.ShareDealState) string {
	switch state {
	case corp.DealSuccess:
		return success.Sprint(string(state))
	case corp.DealFail:
		return danger.Sprint(string(state))
	default:
		return warn.Sprint(string(state))
	}
}

func renderTargets(raw map[string]any) error {
	payload, err := decodeInto[targetsPayload](raw)
	if err != nil {
		return err
	}
	accent.Println("\n== ACQUISITION TARGETS ==")
	if len(payload.Targets) == 0 {
		printInfo("No targets on the market.")
		return nil
	}
	fmt.Printf("%-4s %-24s %-10s %14s %8s %8s %-10s %14s\n",
		"ID", "NAME", "CATEGORY", "MARKET CAP", "PREMIUM", "SYNERGY", "BOARD", "PROFIT")
	for _, t := range payload.Targets {
		fmt.Printf("%-4d %-24s %-10s %14s %7.2fx %8.0f %-10s %14s\n",
			t.ID,
			truncate(t.Name, 24),
			truncate(t.Category, 10),
			formatMicros(t.MarketCapMicros),
			t.Premium,
			t.Synergy,
			string(t.Sentiment),
			colorizeMicros(t.AnnualProfitMicros),
		)
	}
	fmt.Println()
	return nil
}

func renderAcquisition(raw map[string]any) error {
	s, err := decodeInto[corp.AcquisitionSession](raw)
	if err != nil {
		return err
	}
	accent.Println("\n== ACQUISITION ==")
	fmt.Printf("Session:  %s\n", s.ID)
	fmt.Printf("Target:   %s\n", s.TargetName)
	fmt.Printf("Offer:    %s\n", formatMicros(s.OfferMicros))
	fmt.Printf("Stage:    %s\n", renderStage(s.Stage))
	if s.Reason != "" {
		fmt.Printf("Reason:   %s\n", s.Reason)
	}
	fmt.Println()
	return nil
}

func renderStage(stage corp.AcquisitionStage) string {
	switch stage {
	case corp.StageAccepted:
		return success.Sprint(string(stage))
	case corp.StageRejected:
		return danger.Sprint(string(stage))
	default:
		return warn.Sprint(string(stage))
	}
}

func renderSubsidiaries(raw map[string]any) error {
	payload, err := decodeInto[subsidiariesPayload](raw)
	if err != nil {
		return err
	}
	accent.Println("\n== SUBSIDIARIES ==")
	if len(payload.Subsidiaries) == 0 {
		printInfo("No subsidiaries yet.")
		return nil
	}
	renderSubsidiaryTable(payload.Subsidiaries)
	fmt.Println()
	return nil
}

func renderSubsidiaryTable(subs []corp.SubsidiaryView) {
	fmt.Printf("%-38s %-22s %14s %14s %-9s\n", "ID", "NAME", "MARKET CAP", "PROFIT", "HEALTH")
	for _, s := range subs {
		health := s.Health
		if health == "critical" {
			health = danger.Sprint(health)
		} else {
			health = success.Sprint(health)
		}
		fmt.Printf("%-38s %-22s %14s %14s %-9s\n",
			s.ID,
			truncate(s.Name, 22),
			formatMicros(s.MarketCapMicros),
			colorizeMicros(s.CurrentProfitMicros),
			health,
		)
	}
}

func renderSubsidiaryAction(raw map[string]any) error {
	res, err := decodeInto[corp.SubsidiaryActionResult](raw)
	if err != nil {
		return err
	}
	accent.Printf("\n== %s ==\n", strings.ToUpper(res.Action))
	if res.CostMicros != 0 {
		fmt.Printf("Cost:      %s\n", formatMicros(res.CostMicros))
	}
	if res.ProceedsMicros != 0 {
		fmt.Printf("Proceeds:  %s\n", formatMicros(res.ProceedsMicros))
	}
	if res.Subsidiary != nil {
		fmt.Printf("Profit:    %s (%s)\n", colorizeMicros(res.Subsidiary.CurrentProfitMicros), res.Subsidiary.Health)
	}
	fmt.Println()
	return nil
}

func decodeInto[T any](in any) (T, error) {
	var out T
	raw, err := json.Marshal(in)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, err
	}
	return out, nil
}

func colorizeMicros(v int64) string {
	text := signedMicros(v)
	switch {
	case v > 0:
		return success.Sprint(text)
	case v < 0:
		return danger.Sprint(text)
	default:
		return neutral.Sprint(text)
	}
}

func colorizePercent(v float64) string {
	text := fmt.Sprintf("%+.2f%%", v)
	switch {
	case v > 0:
		return success.Sprint(text)
	case v < 0:
		return danger.Sprint(text)
	default:
		return neutral.Sprint(text)
	}
}

func formatMicros(v int64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	whole := v / corp.MicrosPerCoin
	frac := (v % corp.MicrosPerCoin) / 10_000
	return fmt.Sprintf("%s%s.%02d", sign, comma(whole), frac)
}

func signedMicros(v int64) string {
	if v > 0 {
		return "+" + formatMicros(v)
	}
	return formatMicros(v)
}

func comma(v int64) string {
	s := strconv.FormatInt(v, 10)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	pre := len(s) % 3
	if pre > 0 {
		b.WriteString(s[:pre])
		if len(s) > pre {
			b.WriteByte(',')
		}
	}
	for i := pre; i < len(s); i += 3 {
		b.WriteString(s[i : i+3])
		if i+3 < len(s) {
			b.WriteByte(',')
		}
	}
	return b.String()
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
