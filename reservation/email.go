package reservation

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"

	"github.com/International-Combat-Archery-Alliance/email"
	"github.com/Rhymond/go-money"
	"github.com/tonatiuh19/intelivoucher-checkout/catalog"
)

//go:embed templates
var templates embed.FS

func SendPurchaseConfirmationEmail(ctx context.Context, emailSender email.Sender, fromAddress string, req Request, res Reservation, event catalog.Event) error {
	data := map[string]any{
		"Event":       event,
		"Request":     req,
		"Reservation": res,
	}

	htmlBody, err := makeHtmlBody(req.Currency, data)
	if err != nil {
		return err
	}

	textOnlyBody, err := makeTextOnlyBody(req.Currency, data)
	if err != nil {
		return err
	}

	return emailSender.SendEmail(ctx, email.Email{
		FromAddress: fromAddress,
		ToAddresses: []string{req.Customer.Email},
		Subject:     fmt.Sprintf("Purchase confirmed - %q (%s)", event.Name, req.PurchaseReference),
		HTMLBody:    htmlBody,
		TextBody:    textOnlyBody,
	})
}

func templateFuncs(currency string) map[string]any {
	return map[string]any{
		"add": func(a, b int) int { return a + b },
		"money": func(v int64) string {
			return money.New(v, currency).Display()
		},
	}
}

func makeHtmlBody(currency string, data map[string]any) (string, error) {
	tmpl, err := htmltemplate.New("purchase-confirmation.tmpl").Funcs(templateFuncs(currency)).ParseFS(templates, "templates/purchase-confirmation.tmpl")
	if err != nil {
		return "", fmt.Errorf("failed to parse email template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute email template: %w", err)
	}

	return buf.String(), nil
}

func makeTextOnlyBody(currency string, data map[string]any) (string, error) {
	tmpl, err := texttemplate.New("purchase-confirmation-textonly.tmpl").Funcs(templateFuncs(currency)).ParseFS(templates, "templates/purchase-confirmation-textonly.tmpl")
	if err != nil {
		return "", fmt.Errorf("failed to parse email template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute email template: %w", err)
	}

	return buf.String(), nil
}
