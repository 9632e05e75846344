package render

import (
	"bytes"
	"fmt"
	"html/template"
)

var emailTemplate = template.Must(template.New("invoice").Parse(`<!doctype html>
<html>
<body style="font-family:Helvetica,Arial,sans-serif;color:#222;max-width:600px;margin:0 auto">
  <h2 style="margin-bottom:4px">Invoice {{.Doc.Number}}</h2>
  <p style="margin-top:0;color:#666">from {{.Doc.Biller.Name}}{{if .Doc.DueDate}}, due {{.Doc.DueDate}}{{end}}</p>
  <p>Hello {{.Doc.Recipient.Name}},</p>
  <p>Please find invoice {{.Doc.Number}} attached. The amount due is <strong>{{.Doc.TotalText}}</strong>.</p>
  <table style="width:100%;border-collapse:collapse;margin:16px 0">
    <thead>
      <tr style="background:#f0f0f0">
        <th align="left" style="padding:6px">Item</th>
        <th align="right" style="padding:6px">Qty</th>
        <th align="right" style="padding:6px">Rate</th>
        <th align="right" style="padding:6px">Amount</th>
      </tr>
    </thead>
    <tbody>
    {{- range .Doc.Rows}}
      <tr>
        <td style="padding:6px">{{.Name}}{{if .Description}}<br><span style="color:#666">{{.Description}}</span>{{end}}</td>
        <td align="right" style="padding:6px">{{.Quantity}}</td>
        <td align="right" style="padding:6px">{{.Rate}}</td>
        <td align="right" style="padding:6px">{{.Amount}}</td>
      </tr>
    {{- end}}
    </tbody>
  </table>
  <table style="margin-left:auto">
  {{- range .Doc.Summary}}
    <tr>
      <td style="padding:2px 12px">{{if .Total}}<strong>{{.Label}}</strong>{{else}}{{.Label}}{{end}}</td>
      <td align="right" style="padding:2px 0">{{if .Total}}<strong>{{.Value}}</strong>{{else}}{{.Value}}{{end}}</td>
    </tr>
  {{- end}}
  </table>
  {{- if .PaymentURL}}
  <p style="margin:24px 0">
    <a href="{{.PaymentURL}}" style="background:#1450c8;color:#fff;padding:10px 18px;border-radius:4px;text-decoration:none">Pay {{.Doc.TotalText}} online</a>
  </p>
  {{- end}}
  {{- if .Doc.Notes}}
  <p style="color:#666;white-space:pre-line">{{.Doc.Notes}}</p>
  {{- end}}
</body>
</html>`))

// EmailHTML renders the delivery email for doc. paymentURL overrides the
// link stored on the document when set.
func EmailHTML(doc Document, paymentURL string) (subject, html string, err error) {
	if paymentURL == "" {
		paymentURL = doc.PaymentURL
	}
	var buf bytes.Buffer
	err = emailTemplate.Execute(&buf, struct {
		Doc        Document
		PaymentURL string
	}{Doc: doc, PaymentURL: paymentURL})
	if err != nil {
		return "", "", fmt.Errorf("render email: %w", err)
	}
	subject = fmt.Sprintf("Invoice %s for %s", doc.Number, doc.TotalText)
	if doc.Biller.Name != "" {
		subject = fmt.Sprintf("Invoice %s from %s", doc.Number, doc.Biller.Name)
	}
	return subject, buf.String(), nil
}
