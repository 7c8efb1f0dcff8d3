package notify

import (
	"context"

	"github.com/amcodin/SmartScraper/internal/models"
)

// Sender delivers a rendered message.
type Sender interface {
	Send(msg *RenderedMessage) error
}

// PriceChangeNotifier renders and sends price-change alerts.
type PriceChangeNotifier struct {
	renderer *HTMLEmailRenderer
	sender   Sender
}

// NewPriceChangeNotifier returns nil when sender is nil so callers can pass
// the result straight to the verifier.
func NewPriceChangeNotifier(sender Sender) *PriceChangeNotifier {
	if sender == nil {
		return nil
	}
	return &PriceChangeNotifier{renderer: NewHTMLEmailRenderer(), sender: sender}
}

func (n *PriceChangeNotifier) NotifyPriceChange(_ context.Context, change models.PriceChange) error {
	msg, err := n.renderer.Render(change)
	if err != nil {
		return err
	}
	return n.sender.Send(msg)
}
