package utils

import (
	"context"
	"encoding/base64"
	"fmt"
	"html"
	"os"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/shopspring/decimal"
	"github.com/skip2/go-qrcode"

	"velora_back_end/internal/models"
)

// GenerateOrderQR génère le QR de suivi d'une commande (PNG).
func GenerateOrderQR(orderID string) ([]byte, error) {
	baseURL := os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	return qrcode.Encode(baseURL+"/orders/"+orderID, qrcode.Medium, 256)
}

// GenerateInvoiceHTML construit la facture HTML autonome d'une commande,
// avec le QR de suivi embarqué en data-URL.
func GenerateInvoiceHTML(order *models.Order) (string, error) {
	qrPNG, err := GenerateOrderQR(order.ID.String())
	if err != nil {
		return "", err
	}
	qrDataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(qrPNG)

	itemsHTML := ""
	for _, item := range order.Items {
		lineTotal := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		itemsHTML += fmt.Sprintf(`
			<tr>
				<td>%s</td>
				<td align="center">%d</td>
				<td align="right">%s€</td>
				<td align="right">%s€</td>
			</tr>`, html.EscapeString(item.Name), item.Quantity, item.UnitPrice.StringFixed(2), lineTotal.StringFixed(2))
	}

	return fmt.Sprintf(`
<!DOCTYPE html>
<html lang="fr">
<head>
	<meta charset="UTF-8">
	<title>Facture %s</title>
	<style>
		body { font-family: Arial, sans-serif; margin: 40px; color: #222; }
		table { width: 100%%; border-collapse: collapse; margin-top: 20px; }
		th, td { border-bottom: 1px solid #ddd; padding: 8px; }
		th { background-color: #f5f5f5; text-align: left; }
		.totals { margin-top: 20px; text-align: right; }
		.qr { margin-top: 30px; }
	</style>
</head>
<body>
	<h1>Facture Velora</h1>
	<p>Commande <strong>%s</strong> — %s</p>
	<p>Livraison : %s, %s %s, %s</p>
	<table>
		<tr><th>Produit</th><th>Qté</th><th>Prix unitaire</th><th>Total</th></tr>
		%s
	</table>
	<div class="totals">
		<p>Sous-total : %s€</p>
		<p>Taxes : %s€ — Livraison : %s€</p>
		<p><strong>Total : %s€</strong></p>
	</div>
	<div class="qr">
		<p>Suivi de commande :</p>
		<img src="%s" width="128" height="128" alt="QR suivi">
	</div>
</body>
</html>`,
		order.ID.String(), order.ID.String(), order.CreatedAt.Format("02/01/2006"),
		html.EscapeString(order.ShippingAddress.Address), html.EscapeString(order.ShippingAddress.PostalCode),
		html.EscapeString(order.ShippingAddress.City), html.EscapeString(order.ShippingAddress.Country),
		itemsHTML,
		order.ItemsPrice.StringFixed(2), order.TaxPrice.StringFixed(2),
		order.ShippingPrice.StringFixed(2), order.TotalPrice.StringFixed(2),
		qrDataURL), nil
}

// RenderInvoicePDF imprime la facture HTML en PDF via Chrome headless.
func RenderInvoicePDF(html string) ([]byte, error) {
	ctx, cancel := chromedp.NewContext(context.Background())
	defer cancel()

	// timeout pour éviter de bloquer
	ctx, cancel = context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	dataURL := "data:text/html;base64," + base64.StdEncoding.EncodeToString([]byte(html))

	var pdfBuf []byte
	err := chromedp.Run(ctx,
		chromedp.Navigate(dataURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				Do(ctx)
			if err != nil {
				return err
			}
			pdfBuf = buf
			return nil
		}),
	)
	if err != nil {
		return nil, err
	}

	return pdfBuf, nil
}
