package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mmynk/tabsplit/internal/billfile"
	"github.com/mmynk/tabsplit/internal/calculator"
	"github.com/mmynk/tabsplit/internal/models"
	"github.com/mmynk/tabsplit/internal/session"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, errorStyle.Render("✖ "+err.Error()))
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "tabsplit",
		Short:         "Split a restaurant bill by what each person consumed",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newSettleCmd(), newCheckCmd())
	return root
}

func loadSession(path string) (*models.Session, error) {
	bill, err := billfile.Load(path)
	if err != nil {
		return nil, err
	}
	return bill.Build()
}

type settleOutput struct {
	Session              string             `json:"session"`
	OvercommittedItemIDs []string           `json:"overcommitted_item_ids,omitempty"`
	Settlement           *calculator.Report `json:"settlement"`
}

func newSettleCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "settle <bill.yaml>",
		Short: "Print what each person owes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSession(args[0])
			if err != nil {
				return err
			}
			report := calculator.ComputeSettlement(s)
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(settleOutput{
					Session:              s.Name,
					OvercommittedItemIDs: session.Overcommitted(s),
					Settlement:           report,
				})
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), renderSettlement(s, report))
			return err
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the settlement as JSON")
	return cmd
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <bill.yaml>",
		Short: "Report how much of the bill is still unassigned",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSession(args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), renderProgress(s, calculator.DistributionProgress(s)))
			return err
		},
	}
}
