package mail

import (
	"bytes"
	htmltemplate "html/template"
	"text/template"

	"github.com/iliyamo/event-ticketing/internal/model"
)

var lowStockText = template.Must(template.New("text").Parse(
	`Tickets are running out!

Only {{.TicketsAvailable}} tickets are left for an event you liked (event {{.EventID}}, tier {{.TierID}}).
Get yours before they are gone.
`))

var lowStockHTML = htmltemplate.Must(htmltemplate.New("html").Parse(
	`<!DOCTYPE html>
<html>
<body>
    <h2>Tickets are running out!</h2>
    <p>Only <strong>{{.TicketsAvailable}}</strong> tickets are left for an event you liked.</p>
    <p>Event: {{.EventID}}<br>Tier: {{.TierID}}</p>
</body>
</html>
`))

// RenderLowStock builds the subject and bodies of a low stock email.
func RenderLowStock(n model.LowStockNotice) (subject, text, html string, err error) {
	var tb, hb bytes.Buffer
	if err = lowStockText.Execute(&tb, n); err != nil {
		return "", "", "", err
	}
	if err = lowStockHTML.Execute(&hb, n); err != nil {
		return "", "", "", err
	}
	return "Only a few tickets left", tb.String(), hb.String(), nil
}
