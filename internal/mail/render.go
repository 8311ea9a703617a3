package mail

import (
	"bytes"
	"html/template"

	"github.com/go-faster/errors"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/xenking/wildgarden/internal/domain/order"
)

var clpPrinter = message.NewPrinter(language.MustParse("es-CL"))

// FormatCLP renders an amount of Chilean pesos with local digit grouping.
func FormatCLP(amount int64) string {
	return clpPrinter.Sprintf("$%d", amount)
}

// OrderSubject is the confirmation email subject line.
func OrderSubject(orderID string) string {
	return "Confirmación de pedido #" + orderID
}

var confirmationTmpl = template.Must(template.New("confirmation").
	Funcs(template.FuncMap{"clp": FormatCLP}).
	Parse(`<div style="font-family: Arial, sans-serif; line-height: 1.5; color: #253020;">
  <h2 style="margin: 0 0 10px; font-weight: 600;">Confirmación de pedido</h2>
  <p style="margin: 0 0 10px;">Hola{{with .Customer.Name}}, {{.}}{{end}}. Recibimos tu pedido.</p>
  <p style="margin: 0 0 12px;"><strong>N° Pedido:</strong> {{.ID}}</p>
  <table style="width: 100%; border-collapse: collapse; margin: 12px 0;">
    <thead>
      <tr>
        <th style="text-align: left; padding: 8px; border-bottom: 2px solid #253020;">Producto</th>
        <th style="text-align: center; padding: 8px; border-bottom: 2px solid #253020;">Cant.</th>
        <th style="text-align: right; padding: 8px; border-bottom: 2px solid #253020;">Precio</th>
      </tr>
    </thead>
    <tbody>
    {{- range .Items}}
      <tr>
        <td style="padding: 8px; border-bottom: 1px solid #e5e5e5;">{{or .Name "Producto"}}{{with .GiftMessage}}<br><em>{{.}}</em>{{end}}</td>
        <td style="padding: 8px; text-align: center; border-bottom: 1px solid #e5e5e5;">{{.Quantity}}</td>
        <td style="padding: 8px; text-align: right; border-bottom: 1px solid #e5e5e5;">{{clp .UnitPrice}}</td>
      </tr>
    {{- else}}
      <tr><td colspan="3" style="padding: 8px;">(Sin items)</td></tr>
    {{- end}}
    </tbody>
  </table>
  {{- if .Discount.Code}}
  <p style="margin: 0;"><strong>Descuento ({{.Discount.Code}}):</strong> -{{clp .Discount.Amount}}</p>
  {{- end}}
  <p style="margin: 0;"><strong>Total:</strong> {{clp .Total}}</p>
  {{- if .Shipping.Needed}}
  <p style="margin: 12px 0 0;"><strong>Envío:</strong> Sí ({{clp .Shipping.Cost}})</p>
  <p style="margin: 6px 0 0;"><strong>Dirección:</strong> {{.Customer.Address}}</p>
  <p style="margin: 6px 0 0;"><strong>Ciudad:</strong> {{.Customer.City}}</p>
  {{- with .Customer.DeliveryDate}}
  <p style="margin: 6px 0 0;"><strong>Fecha:</strong> {{.}}</p>
  {{- end}}
  {{- with .Customer.DeliveryTime}}
  <p style="margin: 6px 0 0;"><strong>Hora:</strong> {{.}}</p>
  {{- end}}
  {{- with .Customer.DeliveryNotes}}
  <p style="margin: 6px 0 0;"><strong>Notas:</strong> {{.}}</p>
  {{- end}}
  {{- else}}
  <p style="margin: 12px 0 0;"><strong>Envío:</strong> No</p>
  {{- end}}
  <p style="margin: 18px 0 0; font-size: 12px; color: #4C6443;">Si tienes dudas, responde este correo y te atenderemos.</p>
</div>
`))

// RenderOrderConfirmation returns the HTML body of the confirmation email.
// Customer-entered text is escaped.
func RenderOrderConfirmation(o *order.Order) (string, error) {
	var buf bytes.Buffer
	if err := confirmationTmpl.Execute(&buf, o); err != nil {
		return "", errors.Wrap(err, "render confirmation")
	}
	return buf.String(), nil
}
