package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/vogiaan1904/ticketbottle-reservation/internal/service"
	pkgErrors "github.com/vogiaan1904/ticketbottle-reservation/pkg/errors"
	"github.com/vogiaan1904/ticketbottle-reservation/pkg/response"
	"github.com/vogiaan1904/ticketbottle-reservation/pkg/util"
)

func newRootCmd(load appLoader) *cobra.Command {
	root := &cobra.Command{
		Use:           "reservationctl",
		Short:         "Operate the reservation service",
		Long:          "One-shot booking sweeps and manual payment administration against the reservation store.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newSweepCmd(load), newPaymentCmd(load))
	return root
}

func newSweepCmd(load appLoader) *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Expire stale reserved bookings once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now()
			if at != "" {
				parsed, err := util.ParseInstant(at)
				if err != nil {
					return printResult(cmd.OutOrStdout(), response.FromError(
						pkgErrors.InvalidInput("at must be an RFC3339 timestamp").Wrap(err)))
				}
				now = parsed
			}

			a, err := load(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			expired := a.bSvc.ExpireStaleBookings(cmd.Context(), now)
			return printResult(cmd.OutOrStdout(), response.OK(service.SweepOutput{Expired: expired, At: now.UTC()}))
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "sweep as of this RFC3339 time instead of now")
	return cmd
}

func newPaymentCmd(load appLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "payment",
		Short: "Manage manual payment intents",
	}

	var by string
	confirm := &cobra.Command{
		Use:   "confirm <payment-id>",
		Short: "Confirm a pending payment intent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := load(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			p, err := a.pSvc.Confirm(cmd.Context(), service.ConfirmPaymentInput{PaymentID: args[0], ConfirmedBy: by})
			return printResult(cmd.OutOrStdout(), response.Build(p, err, http.StatusOK))
		},
	}
	confirm.Flags().StringVar(&by, "by", "", "admin identity recorded as confirmed_by")

	cancel := &cobra.Command{
		Use:   "cancel <payment-id>",
		Short: "Cancel a pending payment intent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := load(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			p, err := a.pSvc.Cancel(cmd.Context(), args[0])
			return printResult(cmd.OutOrStdout(), response.Build(p, err, http.StatusOK))
		},
	}

	cmd.AddCommand(confirm, cancel)
	return cmd
}

// printResult writes the envelope as JSON. A failed envelope also becomes
// the command error so the exit code is non-zero.
func printResult(w io.Writer, res response.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return err
	}
	if !res.Success {
		return fmt.Errorf("%d: %s", res.Status, res.Error)
	}
	return nil
}
