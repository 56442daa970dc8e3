package utils

import (
	"bytes"
	"fmt"
	"html"
	"log"
	"os"

	"github.com/shopspring/decimal"
	"github.com/wneessen/go-mail"

	"velora_back_end/internal/models"
)

// SendOrderEmail envoie un e-mail HTML, avec facture PDF en pièce jointe si
// fournie. Best-effort côté appelant : un échec d'envoi ne doit jamais faire
// échouer la commande.
func SendOrderEmail(to, subject, htmlBody string, pdfAttachment []byte) error {
	msg := mail.NewMsg()

	if err := msg.From(os.Getenv("SMTP_FROM")); err != nil {
		return err
	}
	if err := msg.To(to); err != nil {
		return err
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)

	if pdfAttachment != nil {
		msg.AttachReader("facture_velora.pdf", bytes.NewReader(pdfAttachment))
	}

	client, err := mail.NewClient(os.Getenv("SMTP_HOST"),
		mail.WithPort(587),
		mail.WithSMTPAuth(mail.SMTPAuthLogin),
		mail.WithUsername(os.Getenv("SMTP_USERNAME")),
		mail.WithPassword(os.Getenv("SMTP_PASSWORD")),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return err
	}

	log.Println("📤 Envoi de l'e-mail à", to)
	return client.DialAndSend(msg)
}

// GenerateOrderConfirmationHTML génère le HTML de confirmation de commande
func GenerateOrderConfirmationHTML(order *models.Order) string {
	itemsHTML := ""
	for _, item := range order.Items {
		lineTotal := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		itemsHTML += fmt.Sprintf(`
			<tr>
				<td>%s</td>
				<td>%d</td>
				<td>%s€</td>
				<td>%s€</td>
			</tr>`, html.EscapeString(item.Name), item.Quantity, item.UnitPrice.StringFixed(2), lineTotal.StringFixed(2))
	}

	return fmt.Sprintf(`
<!DOCTYPE html>
<html lang="fr">
<head>
	<meta charset="UTF-8">
	<title>Confirmation de commande</title>
</head>
<body style="font-family: Arial, sans-serif; background-color: #f9f9f9; padding: 20px;">
	<div style="max-width: 600px; margin: auto; background-color: white; padding: 20px; border-radius: 10px;">
		<h2 style="color: #333;">Confirmation de votre commande</h2>
		<p>Bonjour,</p>
		<p>Merci pour votre commande <strong>%s</strong>. Voici le récapitulatif :</p>
		<table width="100%%" cellpadding="6" style="border-collapse: collapse;">
			<tr style="background-color: #f0f0f0;">
				<th align="left">Produit</th>
				<th align="left">Qté</th>
				<th align="left">Prix unitaire</th>
				<th align="left">Total</th>
			</tr>
			%s
		</table>
		<p style="margin-top: 16px;"><strong>Total : %s€</strong></p>
		<p>Livraison : %s, %s</p>
		<p style="color: #888; font-size: 12px;">Velora — ceci est un e-mail automatique.</p>
	</div>
</body>
</html>`,
		order.ID.String(), itemsHTML, order.TotalPrice.StringFixed(2),
		html.EscapeString(order.ShippingAddress.Address), html.EscapeString(order.ShippingAddress.City))
}
