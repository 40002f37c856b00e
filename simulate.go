package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"fincentiva-api/domain"
	"fincentiva-api/service"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("4"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

func simulateCmd() *cobra.Command {
	var (
		amount     string
		rate       string
		frequency  string
		fee        string
		commission string
		strict     bool
		schedule   bool
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Print the candidate payment plans for a loan",
		Example: `  fincentiva-api simulate --amount 10000 --rate 60
  fincentiva-api simulate --amount 25000 --rate 45 --frequency biweekly --schedule`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			principal, err := decimal.NewFromString(amount)
			if err != nil {
				return fmt.Errorf("%w: monto %q", service.ErrInvalidInput, amount)
			}
			annual, err := decimal.NewFromString(rate)
			if err != nil {
				return fmt.Errorf("%w: tasa %q", service.ErrInvalidInput, rate)
			}
			extraFee, err := decimal.NewFromString(fee)
			if err != nil {
				return fmt.Errorf("%w: cargo %q", service.ErrInvalidInput, fee)
			}
			commissionRate, err := decimal.NewFromString(commission)
			if err != nil {
				return fmt.Errorf("%w: comisión %q", service.ErrInvalidInput, commission)
			}

			engine := newEngine(cfg)
			opts := engine.Options()
			opts.Strict = opts.Strict || strict
			opts.ExtraPeriodicFee = extraFee
			opts.CommissionRate = commissionRate
			engine = engine.WithOptions(opts)

			principal = principal.Round(2)
			results, err := engine.CalculatePayments(domain.LoanRequest{
				Principal:                 principal,
				AnnualInterestRatePercent: annual,
				PaymentFrequency:          domain.PaymentFrequency(frequency),
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printPlans(out, principal, annual, results)
			if schedule {
				first := results[0]
				profile, _ := service.ResolveFrequency(first.PaymentFrequency)
				rows := engine.Schedule(principal, service.PeriodicRate(annual, profile.PeriodsPerYear), first.Periods, first.PaymentPerPeriod.Sub(extraFee))
				printSchedule(out, first, rows)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&amount, "amount", "", "loan principal in MXN")
	cmd.Flags().StringVar(&rate, "rate", "", "annual interest rate in percent")
	cmd.Flags().StringVar(&frequency, "frequency", string(domain.Monthly), "payment frequency (weekly, biweekly, fortnightly, monthly)")
	cmd.Flags().StringVar(&fee, "fee", "0", "extra fee added to every payment")
	cmd.Flags().StringVar(&commission, "commission", "0", "opening commission as a fraction of the principal")
	cmd.Flags().BoolVar(&strict, "strict", false, "reject unknown payment frequencies")
	cmd.Flags().BoolVar(&schedule, "schedule", false, "print the amortization table of the longest plan")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("rate")

	return cmd
}

func printPlans(w io.Writer, principal, annual decimal.Decimal, results []domain.AmortizationResult) {
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("Préstamo de $%s al %s%% anual", principal.StringFixed(2), annual.String())))
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%-14s %12s %12s %12s %12s %8s", "Plazo", "Pago", "Interés", "IVA", "Total", "CAT")))

	for _, r := range results {
		term := fmt.Sprintf("%d %s", r.Periods, service.PeriodLabel(r.PaymentFrequency))
		fmt.Fprintf(w, "%-14s %12s %12s %12s %12s %7s%%\n",
			term,
			r.PaymentPerPeriod.StringFixed(2),
			r.TotalInterest.StringFixed(2),
			r.TotalTax.StringFixed(2),
			r.TotalPayment.StringFixed(2),
			r.AnnualizedCostRatePercent.StringFixed(2),
		)
		if !r.IRRConverged {
			fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf("  CAT aproximado: sin convergencia tras %d iteraciones", r.IRRIterations)))
		}
	}
	if c := results[0].Commission; c.IsPositive() {
		fmt.Fprintln(w, mutedStyle.Render("Comisión por apertura: $"+c.StringFixed(2)))
	}
}

func printSchedule(w io.Writer, plan domain.AmortizationResult, rows []domain.ScheduleEntry) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("Tabla de amortización, %d %s", plan.Periods, service.PeriodLabel(plan.PaymentFrequency))))
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%4s %12s %12s %10s %12s %12s", "#", "Pago", "Interés", "IVA", "Capital", "Saldo")))
	for _, row := range rows {
		fmt.Fprintf(w, "%4d %12s %12s %10s %12s %12s\n",
			row.Period,
			row.Payment.StringFixed(2),
			row.Interest.StringFixed(2),
			row.Tax.StringFixed(2),
			row.Principal.StringFixed(2),
			row.Balance.StringFixed(2),
		)
	}
	fmt.Fprintln(w, mutedStyle.Render(strings.Repeat("─", 67)))
}
