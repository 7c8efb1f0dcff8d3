package notify

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amcodin/SmartScraper/internal/models"
)

func testChange() models.PriceChange {
	promo := "<b>Half</b> price for 6 months"
	return models.PriceChange{
		Plan: models.Plan{
			Provider:      "Example",
			URL:           "https://example.com/nbn",
			PlanName:      "NBN 100/20",
			DownloadSpeed: 100,
			UploadSpeed:   20,
		},
		OldPrice: 89,
		NewPrice: 79.5,
		Verification: &models.Verification{
			VerificationDate: time.Date(2026, 2, 3, 4, 5, 0, 0, time.UTC),
			ConfidenceScore:  0.93,
			PromoDetails:     &promo,
			PlanDetails:      "Unlimited data",
		},
	}
}

func TestRenderPriceDrop(t *testing.T) {
	msg, err := NewHTMLEmailRenderer().Render(testChange())
	require.NoError(t, err)

	assert.Equal(t, "NBN price drop: Example NBN 100/20 ($89.00 -> $79.50)", msg.Subject)
	assert.Contains(t, msg.Text, "Price: $89.00 -> $79.50 (-$9.50)")
	assert.Contains(t, msg.Text, "Speed: 100/20 Mbps")
	assert.Contains(t, msg.Text, "Checked: 03 Feb 2026 4:05 AM UTC")
	assert.Contains(t, msg.HTML, `class="drop"`)
	assert.Contains(t, msg.HTML, "0.93")
	assert.Contains(t, msg.HTML, "&lt;b&gt;Half&lt;/b&gt;", "promotion text is escaped")
}

func TestRenderPriceIncreaseWithoutVerification(t *testing.T) {
	c := testChange()
	c.NewPrice = 99
	c.Verification = nil
	c.Plan.Provider = ""

	msg, err := NewHTMLEmailRenderer().Render(c)
	require.NoError(t, err)
	assert.Contains(t, msg.Subject, "increase: https://example.com/nbn")
	assert.Contains(t, msg.Text, "(+$10.00)")
	assert.NotContains(t, msg.Text, "Confidence")
}

type captureSender struct{ got []*RenderedMessage }

func (c *captureSender) Send(msg *RenderedMessage) error {
	c.got = append(c.got, msg)
	return nil
}

func TestPriceChangeNotifierSends(t *testing.T) {
	s := &captureSender{}
	n := NewPriceChangeNotifier(s)

	require.NoError(t, n.NotifyPriceChange(context.Background(), testChange()))
	require.Len(t, s.got, 1)
	assert.NotEmpty(t, s.got[0].HTML)

	assert.Nil(t, NewPriceChangeNotifier(nil))
}

func TestBuildMessageHasAlternative(t *testing.T) {
	cfg := EmailConfig{FromEmail: "from@example.com", ToEmail: "to@example.com"}
	m := buildMessage(cfg, &RenderedMessage{Subject: "s", Text: "plain", HTML: "<p>html</p>"})

	var buf bytes.Buffer
	_, err := m.WriteTo(&buf)
	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "text/plain")
	assert.Contains(t, out, "text/html")
	assert.Contains(t, out, "To: to@example.com")
}

func TestEmailConfigFromEnv(t *testing.T) {
	t.Setenv("SMTP_SERVER", "smtp.example.com")
	t.Setenv("SMTP_USER", "bot@example.com")
	t.Setenv("SMTP_PASS", "x")
	t.Setenv("SMTP_TO", "")
	assert.False(t, EmailConfigFromEnv().Enabled)

	t.Setenv("SMTP_TO", "ops@example.com")
	cfg := EmailConfigFromEnv()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, "bot@example.com", cfg.FromEmail)
	assert.Equal(t, 587, cfg.SMTPPort)
}

func TestDisabledSenderIsNoop(t *testing.T) {
	require.NoError(t, NewEmailSender(EmailConfig{}).Send(&RenderedMessage{Subject: "s", Text: "t"}))
}
