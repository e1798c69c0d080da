package notify

import (
	"fmt"
	"sync"
	"time"

	"lounge-monitor/src/interfaces"
	"lounge-monitor/src/logger"
	"lounge-monitor/src/models"

	"github.com/go-resty/resty/v2"
)

// -----------------------------------------------------------------------------
// Discord Webhook Notifier
// -----------------------------------------------------------------------------

// Embed colors.
const (
	colorOrange = 0xff6900
	colorGreen  = 0x22c55e
	colorRed    = 0xf87171
)

type webhookPayload struct {
	Content string  `json:"content,omitempty"`
	Embeds  []embed `json:"embeds,omitempty"`
}

type embed struct {
	Title       string       `json:"title"`
	Color       int          `json:"color"`
	Description string       `json:"description,omitempty"`
	Fields      []embedField `json:"fields,omitempty"`
	Footer      *embedFooter `json:"footer,omitempty"`
	Timestamp   string       `json:"timestamp,omitempty"`
}

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type embedFooter struct {
	Text string `json:"text"`
}

// -----------------------------------------------------------------------------

// DiscordNotifier delivers alerts through a Discord webhook. Delivery is
// fire-and-forget: failures are logged and never retried or surfaced to the
// poll loop. A single flag dedups the credentials-expired alert so a failing
// token does not produce an alert storm every poll tick.
type DiscordNotifier struct {
	Config *models.MNotifyConfig
	Logger *logger.Logger

	http *resty.Client

	mu               sync.Mutex
	tokenExpiredSent bool
}

var _ interfaces.INotifier = (*DiscordNotifier)(nil)

// -----------------------------------------------------------------------------

func NewDiscordNotifier(cfg *models.MNotifyConfig, log *logger.Logger) *DiscordNotifier {
	return &DiscordNotifier{
		Config: cfg,
		Logger: log,
		http:   resty.New().SetTimeout(10 * time.Second),
	}
}

// -----------------------------------------------------------------------------

func (n *DiscordNotifier) send(payload webhookPayload) error {
	if n.Config.DiscordWebhook == "" {
		n.Logger.Info("Discord webhook not configured, dropping notification")
		return nil
	}

	resp, err := n.http.R().
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		Post(n.Config.DiscordWebhook)
	if err != nil {
		return fmt.Errorf("discord send: %w", err)
	}
	if resp.StatusCode() != 200 && resp.StatusCode() != 204 {
		return fmt.Errorf("discord error: %d", resp.StatusCode())
	}
	return nil
}

// -----------------------------------------------------------------------------
// Stock Alerts
// -----------------------------------------------------------------------------

// NotifyStock sends the alert for one transition. When a reservation
// succeeded the message switches to the "reserved" variant: calmer urgency,
// checkout link first, remaining hold time included.
func (n *DiscordNotifier) NotifyStock(info models.MProductInfo, event models.MTransitionEvent, reservation *models.MReservationResult) error {
	productURL := fmt.Sprintf("%s/campaigns/%s/articles/%s", n.Config.ProductURLBase, event.CampaignID, event.ArticleID)
	reserved := reservation != nil && reservation.Success

	fields := []embedField{
		{Name: "👕 Produit", Value: fmt.Sprintf("**%s - %s**", info.Brand, info.Title)},
		{Name: "🎨 Couleur", Value: orDash(info.Color), Inline: true},
		{Name: "📏 Taille", Value: fmt.Sprintf("**%s**", event.Size), Inline: true},
		{Name: "📦 Quantité", Value: fmt.Sprintf("%d dispo", event.Quantity), Inline: true},
		{Name: "💰 Prix", Value: fmt.Sprintf("%s (%s)", info.Price, info.Discount)},
	}

	var payload webhookPayload
	if reserved {
		fields = append(fields,
			embedField{Name: "🛒 Checkout", Value: fmt.Sprintf("[Finaliser la commande](%s)", n.Config.CheckoutURL), Inline: true},
			embedField{Name: "⏳ Réservation", Value: fmt.Sprintf("%ds restantes", reservation.RemainingSeconds), Inline: true},
		)
		payload = webhookPayload{
			Content: "@everyone 🛒 **ARTICLE RÉSERVÉ - FINALISE TA COMMANDE!**",
			Embeds: []embed{{
				Title:     "🛒 RÉSERVÉ AU PANIER!",
				Color:     colorGreen,
				Fields:    fields,
				Footer:    &embedFooter{Text: "SKU: " + event.SimpleSku},
				Timestamp: time.Now().UTC().Format(time.RFC3339),
			}},
		}
	} else {
		fields = append(fields,
			embedField{Name: "🔗 Lien produit", Value: fmt.Sprintf("[Voir le produit](%s)", productURL), Inline: true},
			embedField{Name: "🛒 Checkout", Value: fmt.Sprintf("[Aller au panier](%s)", n.Config.CheckoutURL), Inline: true},
		)
		payload = webhookPayload{
			Content: "@everyone 🚨 **NOUVEAU STOCK - AJOUTE VITE AU PANIER!**",
			Embeds: []embed{{
				Title:     "🚨 STOCK DISPONIBLE!",
				Color:     colorOrange,
				Fields:    fields,
				Footer:    &embedFooter{Text: "SKU: " + event.SimpleSku},
				Timestamp: time.Now().UTC().Format(time.RFC3339),
			}},
		}
	}

	return n.send(payload)
}

// -----------------------------------------------------------------------------
// Credentials-Expired Alert (deduplicated)
// -----------------------------------------------------------------------------

// NotifyTokenExpired fires at most once per expiry episode. Returns false
// when the dedup flag suppressed the alert.
func (n *DiscordNotifier) NotifyTokenExpired(errMsg string) bool {
	n.mu.Lock()
	if n.tokenExpiredSent {
		n.mu.Unlock()
		return false
	}
	n.tokenExpiredSent = true
	n.mu.Unlock()

	n.Logger.Warning("Credentials stale - sending expiry notification")

	payload := webhookPayload{
		Content: "@everyone ⚠️ **TOKEN EXPIRÉ - MISE À JOUR REQUISE!**",
		Embeds: []embed{{
			Title:       "⚠️ TOKEN EXPIRÉ",
			Color:       colorRed,
			Description: "Le token a expiré. Le monitoring est en pause jusqu'à la mise à jour du token.",
			Fields: []embedField{
				{Name: "🔧 Action requise", Value: "Mettez à jour le token via l'API de configuration"},
				{Name: "❌ Erreur", Value: fmt.Sprintf("`%s`", errMsg)},
			},
			Footer:    &embedFooter{Text: "Lounge Monitor"},
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}},
	}
	if err := n.send(payload); err != nil {
		n.Logger.Error("Failed to send expiry notification: %v", err)
	}
	return true
}

// -----------------------------------------------------------------------------

// ResetTokenExpired re-arms the expiry alert after a credential update or a
// successful refresh.
func (n *DiscordNotifier) ResetTokenExpired() {
	n.mu.Lock()
	n.tokenExpiredSent = false
	n.mu.Unlock()
}

// -----------------------------------------------------------------------------
// Token Lifecycle Notifications
// -----------------------------------------------------------------------------

func (n *DiscordNotifier) NotifyTokenRefreshed() error {
	return n.send(webhookPayload{
		Content: "✅ **Token rafraîchi automatiquement**",
		Embeds: []embed{{
			Title:       "✅ TOKEN RAFRAÎCHI",
			Color:       colorGreen,
			Description: "Le token a été automatiquement rafraîchi.",
			Fields: []embedField{
				{Name: "📊 Statut", Value: "Monitoring actif", Inline: true},
			},
			Footer:    &embedFooter{Text: "Lounge Monitor - Auto Refresh"},
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}},
	})
}

// -----------------------------------------------------------------------------

func (n *DiscordNotifier) NotifyTokenRefreshFailed(errMsg string) error {
	return n.send(webhookPayload{
		Content: "@everyone ❌ **ÉCHEC REFRESH TOKEN - MISE À JOUR MANUELLE REQUISE!**",
		Embeds: []embed{{
			Title:       "❌ ÉCHEC DU REFRESH TOKEN",
			Color:       colorRed,
			Description: "Impossible de rafraîchir le token automatiquement. Mise à jour manuelle requise.",
			Fields: []embedField{
				{Name: "❌ Erreur", Value: fmt.Sprintf("`%s`", errMsg)},
				{Name: "🔧 Action requise", Value: "Mettez à jour le refresh token via l'API de configuration"},
			},
			Footer:    &embedFooter{Text: "Lounge Monitor"},
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}},
	})
}

// -----------------------------------------------------------------------------

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// -----------------------------------------------------------------------------

// SetWebhookClientForTest swaps the HTTP client used for webhook delivery.
func (n *DiscordNotifier) SetWebhookClientForTest(client *resty.Client) {
	n.http = client
}
