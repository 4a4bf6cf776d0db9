// internal/pkg/pdf/service.go
package pdf

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/SebastiaanKlippert/go-wkhtmltopdf"
	"github.com/your-org/marketplace-backend/internal/config"
	"github.com/your-org/marketplace-backend/internal/domain/order"
)

var receiptTmpl = template.Must(template.New("receipt").Parse(receiptTemplate))

// Service renders order receipts as PDF
type Service struct {
	storeName    string
	contactEmail string
}

// NewService creates a new PDF service
func NewService(cfg *config.Config) *Service {
	return &Service{
		storeName:    cfg.App.Name,
		contactEmail: cfg.Email.FromEmail,
	}
}

// ReceiptData is passed to the receipt template
type ReceiptData struct {
	StoreName    string
	ContactEmail string
	Order        *order.Order
}

// RenderReceipt converts the order receipt to a PDF document.
// Requires the wkhtmltopdf binary on PATH.
func (s *Service) RenderReceipt(o *order.Order) ([]byte, error) {
	html, err := s.receiptHTML(o)
	if err != nil {
		return nil, err
	}

	pdfg, err := wkhtmltopdf.NewPDFGenerator()
	if err != nil {
		return nil, fmt.Errorf("failed to create PDF generator: %w", err)
	}

	pdfg.Dpi.Set(300)
	pdfg.Orientation.Set(wkhtmltopdf.OrientationPortrait)

	page := wkhtmltopdf.NewPageReader(bytes.NewReader(html))
	page.FooterRight.Set("[page]")
	page.FooterFontSize.Set(9)
	pdfg.AddPage(page)

	if err := pdfg.Create(); err != nil {
		return nil, fmt.Errorf("failed to create PDF: %w", err)
	}
	return pdfg.Bytes(), nil
}

func (s *Service) receiptHTML(o *order.Order) ([]byte, error) {
	var buf bytes.Buffer
	data := ReceiptData{StoreName: s.storeName, ContactEmail: s.contactEmail, Order: o}
	if err := receiptTmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to execute receipt template: %w", err)
	}
	return buf.Bytes(), nil
}

const receiptTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Receipt {{.Order.Reference}}</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 0; padding: 20px; color: #333; }
        .header { border-bottom: 2px solid #eee; padding-bottom: 20px; margin-bottom: 30px; }
        .title { font-size: 28px; font-weight: bold; color: #2563eb; }
        .items { width: 100%; border-collapse: collapse; margin-bottom: 30px; }
        .items th, .items td { border: 1px solid #ddd; padding: 10px 8px; text-align: left; }
        .items th { background-color: #f8f9fa; }
        .num { text-align: right; width: 90px; }
        .totals { float: right; width: 300px; }
        .totals td { padding: 6px; border-bottom: 1px solid #eee; }
        .total-row { font-size: 18px; font-weight: bold; }
        .footer { clear: both; margin-top: 50px; text-align: center; color: #666; font-size: 12px; }
    </style>
</head>
<body>
    <div class="header">
        <h1>{{.StoreName}}</h1>
        <div class="title">RECEIPT</div>
        <p><strong>Order:</strong> {{.Order.Reference}}</p>
        <p><strong>Date:</strong> {{.Order.CreatedAt.Format "January 2, 2006"}}</p>
        <p><strong>Billed to:</strong> {{.Order.BuyerName}} &lt;{{.Order.Email}}&gt;</p>
        <p><strong>Status:</strong> {{.Order.Status}}</p>
    </div>

    <table class="items">
        <thead>
            <tr>
                <th>Item</th>
                <th class="num">Qty</th>
                <th class="num">Price</th>
                <th class="num">Total</th>
            </tr>
        </thead>
        <tbody>
            {{range .Order.Items}}
            <tr>
                <td>{{.Name}}</td>
                <td class="num">{{.Quantity}}</td>
                <td class="num">${{.UnitPrice.StringFixed 2}}</td>
                <td class="num">${{.LineTotal.StringFixed 2}}</td>
            </tr>
            {{end}}
        </tbody>
    </table>

    <table class="totals">
        <tr><td>Subtotal:</td><td class="num">${{.Order.Subtotal.StringFixed 2}}</td></tr>
        <tr><td>Shipping:</td><td class="num">${{.Order.Shipping.StringFixed 2}}</td></tr>
        <tr><td>Tax:</td><td class="num">${{.Order.Tax.StringFixed 2}}</td></tr>
        <tr class="total-row"><td>Total:</td><td class="num">${{.Order.Total.StringFixed 2}}</td></tr>
    </table>

    <div class="footer">
        <p>Thank you for shopping with {{.StoreName}}!</p>
        {{if .ContactEmail}}<p>Questions? Contact us at {{.ContactEmail}}</p>{{end}}
    </div>
</body>
</html>
`
