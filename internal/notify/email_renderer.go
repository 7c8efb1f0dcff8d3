package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/amcodin/SmartScraper/internal/models"
)

// HTMLEmailRenderer renders price changes as HTML emails with a plain text fallback.
type HTMLEmailRenderer struct {
	tmpl *template.Template
}

// NewHTMLEmailRenderer creates a renderer with the default email template.
func NewHTMLEmailRenderer() *HTMLEmailRenderer {
	funcs := template.FuncMap{"money": money}
	t := template.Must(template.New("email").Funcs(funcs).Parse(emailHTMLTemplate))
	return &HTMLEmailRenderer{tmpl: t}
}

type emailData struct {
	Change    models.PriceChange
	Direction string
	Delta     string
	Promo     string
	Details   string
	Checked   string
}

// Render produces an HTML email with plain text alternative.
func (r *HTMLEmailRenderer) Render(change models.PriceChange) (*RenderedMessage, error) {
	data := newEmailData(change)
	subject := fmt.Sprintf("NBN price %s: %s %s (%s -> %s)",
		data.Direction, providerLabel(change.Plan), change.Plan.PlanName, money(change.OldPrice), money(change.NewPrice))

	var htmlBuf bytes.Buffer
	if err := r.tmpl.Execute(&htmlBuf, data); err != nil {
		return nil, fmt.Errorf("failed to render HTML template: %w", err)
	}

	return &RenderedMessage{
		Subject: subject,
		Text:    renderPlainText(data),
		HTML:    htmlBuf.String(),
	}, nil
}

func newEmailData(change models.PriceChange) emailData {
	data := emailData{Change: change, Direction: "increase"}
	if change.Delta() < 0 {
		data.Direction = "drop"
	}
	delta := change.Delta()
	sign := "+"
	if delta < 0 {
		sign, delta = "-", -delta
	}
	data.Delta = sign + money(delta)
	if v := change.Verification; v != nil {
		if v.PromoDetails != nil {
			data.Promo = *v.PromoDetails
		}
		data.Details = v.PlanDetails
		if !v.VerificationDate.IsZero() {
			data.Checked = v.VerificationDate.Format("02 Jan 2006 3:04 PM MST")
		}
	}
	return data
}

// renderPlainText produces a readable plain text version for email clients that don't support HTML.
func renderPlainText(data emailData) string {
	p := data.Change.Plan
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%s - %s\n", providerLabel(p), p.PlanName))
	sb.WriteString(strings.Repeat("=", 50) + "\n\n")
	sb.WriteString(fmt.Sprintf("Price: %s -> %s (%s)\n", money(data.Change.OldPrice), money(data.Change.NewPrice), data.Delta))
	sb.WriteString(fmt.Sprintf("Speed: %g/%g Mbps\n", p.DownloadSpeed, p.UploadSpeed))
	sb.WriteString(fmt.Sprintf("URL: %s\n", p.URL))
	if data.Checked != "" {
		sb.WriteString(fmt.Sprintf("Checked: %s\n", data.Checked))
	}
	if v := data.Change.Verification; v != nil {
		sb.WriteString(fmt.Sprintf("Confidence: %.2f\n", v.ConfidenceScore))
	}
	if data.Promo != "" {
		sb.WriteString(fmt.Sprintf("Promotion: %s\n", data.Promo))
	}
	if data.Details != "" {
		sb.WriteString(fmt.Sprintf("Details: %s\n", data.Details))
	}
	return sb.String()
}

func providerLabel(p models.Plan) string {
	if p.Provider != "" {
		return p.Provider
	}
	return p.URL
}

func money(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}
