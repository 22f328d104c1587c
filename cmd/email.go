package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/International-Combat-Archery-Alliance/email"
	"github.com/International-Combat-Archery-Alliance/email/awsses"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/tonatiuh19/intelivoucher-checkout/api"
	"github.com/tonatiuh19/intelivoucher-checkout/catalog"
	"github.com/tonatiuh19/intelivoucher-checkout/checkout"
	"github.com/tonatiuh19/intelivoucher-checkout/reservation"
)

const confirmationEmailTimeout = 10 * time.Second

var _ email.Sender = &EmailLogger{}

// email.Sender that logs out the email contents for local dev
type EmailLogger struct {
	logger *slog.Logger
}

func (el *EmailLogger) SendEmail(ctx context.Context, e email.Email) error {
	el.logger.Info("email that would be sent",
		slog.Any("to", e.ToAddresses),
		slog.String("subject", e.Subject),
		slog.String("body", e.TextBody),
	)

	return nil
}

func createProdAWSEmailSender(cfg aws.Config) *awsses.AWSSESSender {
	sesClient := sesv2.NewFromConfig(cfg)
	return awsses.NewAWSSESSender(sesClient)
}

func createEmailSender(cfg aws.Config, logger *slog.Logger, env api.Environment) email.Sender {
	if env == api.LOCAL {
		return &EmailLogger{logger: logger}
	}

	return createProdAWSEmailSender(cfg)
}

// confirmationEmailer sends the purchase confirmation after the reservation is
// recorded. A failed email is logged and never affects the checkout outcome.
func confirmationEmailer(sender email.Sender, fromAddress string, logger *slog.Logger) checkout.ConfirmedFunc {
	return func(ctx context.Context, event catalog.Event, req reservation.Request, res reservation.Reservation) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), confirmationEmailTimeout)
		defer cancel()

		err := reservation.SendPurchaseConfirmationEmail(ctx, sender, fromAddress, req, res, event)
		if err != nil {
			logger.Error(fmt.Sprintf("failed to send confirmation email for %s", req.PurchaseReference),
				slog.String("reservationId", res.ID),
				slog.String("error", err.Error()),
			)
		}
	}
}
