// Package recipient manages report subscribers and their schedule settings.
package recipient

import (
	"fmt"

	"go.uber.org/zap"

	"SignalDesk/internal/model"
	"SignalDesk/pkg/logger"
)

// Defaults are the global settings a recipient falls back to.
type Defaults struct {
	ScanSymbols  []string
	TradeSymbols []string
	ReportTimes  []string
}

// Symbols returns the recipient's override list, else the scan universe.
func (d Defaults) Symbols(r model.Recipient) []string {
	if len(r.Symbols) > 0 {
		return r.Symbols
	}
	return d.ScanSymbols
}

// StrategySymbols returns the recipient's override list, else the trade universe.
func (d Defaults) StrategySymbols(r model.Recipient) []string {
	if len(r.Symbols) > 0 {
		return r.Symbols
	}
	return d.TradeSymbols
}

// Times returns the recipient's valid times, else the valid global report
// times, else FallbackTimes. Malformed entries are dropped silently.
func (d Defaults) Times(r model.Recipient) []string {
	if t := FilterTimes(r.Times); len(t) > 0 {
		return t
	}
	if t := FilterTimes(d.ReportTimes); len(t) > 0 {
		return t
	}
	return FallbackTimes
}

// Registry applies setting changes to recipients held in a Store.
type Registry struct {
	store        Store
	ownerID      string
	minFrequency int
}

// NewRegistry creates a Registry. ownerID marks the recipient that receives strategy sections.
func NewRegistry(store Store, ownerID string, minFrequency int) *Registry {
	if minFrequency <= 0 {
		minFrequency = DefaultMinFrequency
	}
	return &Registry{store: store, ownerID: ownerID, minFrequency: minFrequency}
}

// OwnerID returns the configured owner id.
func (g *Registry) OwnerID() string { return g.ownerID }

// List returns every recipient, subscribed or not.
func (g *Registry) List() ([]model.Recipient, error) {
	list, err := g.store.List()
	if err != nil {
		return nil, err
	}
	for i := range list {
		list[i] = g.withRole(list[i])
	}
	return list, nil
}

// Get returns the recipient with id.
func (g *Registry) Get(id string) (model.Recipient, bool, error) {
	r, ok, err := g.store.Get(id)
	if err != nil || !ok {
		return r, ok, err
	}
	return g.withRole(r), true, nil
}

func (g *Registry) withRole(r model.Recipient) model.Recipient {
	r.Role = model.RoleStandard
	if r.IsOwner(g.ownerID) {
		r.Role = model.RoleOwner
	}
	return r
}

// GetOrCreate loads id, creating a subscribed recipient on first interaction.
func (g *Registry) GetOrCreate(id, username string) (model.Recipient, error) {
	r, ok, err := g.store.Get(id)
	if err != nil {
		return model.Recipient{}, err
	}
	if ok {
		return g.withRole(r), nil
	}
	r = g.withRole(model.Recipient{ID: id, Username: username, Subscribed: true})
	if err := g.store.Upsert(r); err != nil {
		return model.Recipient{}, err
	}
	logger.Info("recipient registered", zap.String("id", id), zap.String("role", string(r.Role)))
	return r, nil
}

// Subscribe turns scheduled reports on for id.
func (g *Registry) Subscribe(id, username string) (model.Recipient, error) {
	return g.update(id, username, func(r *model.Recipient) error {
		r.Subscribed = true
		return nil
	})
}

// Unsubscribe turns scheduled reports off. The recipient is kept.
func (g *Registry) Unsubscribe(id string) (model.Recipient, error) {
	return g.update(id, "", func(r *model.Recipient) error {
		r.Subscribed = false
		return nil
	})
}

// SetSymbols replaces the symbol override with the parsed list.
func (g *Registry) SetSymbols(id, arg string) (model.Recipient, error) {
	symbols := ParseList(arg)
	if len(symbols) == 0 {
		return model.Recipient{}, fmt.Errorf("set symbols: no symbols given")
	}
	return g.update(id, "", func(r *model.Recipient) error {
		r.Symbols = symbols
		return nil
	})
}

// SetTimes replaces the delivery times and clears the frequency so times take precedence.
func (g *Registry) SetTimes(id string, times []string) (model.Recipient, error) {
	cleaned, err := NormalizeTimes(times)
	if err != nil {
		return model.Recipient{}, fmt.Errorf("set times: %w", err)
	}
	return g.update(id, "", func(r *model.Recipient) error {
		r.Times = cleaned
		r.FrequencyMinutes = 0
		return nil
	})
}

// SetFrequency sets the report interval. Existing times are kept.
func (g *Registry) SetFrequency(id string, minutes int) (model.Recipient, error) {
	if err := ValidateFrequency(minutes, g.minFrequency); err != nil {
		return model.Recipient{}, fmt.Errorf("set frequency: %w", err)
	}
	return g.update(id, "", func(r *model.Recipient) error {
		r.FrequencyMinutes = minutes
		return nil
	})
}

// SetContact sets the email and WhatsApp addresses. Empty values leave the field unchanged.
func (g *Registry) SetContact(id, email, whatsapp string) (model.Recipient, error) {
	return g.update(id, "", func(r *model.Recipient) error {
		if email != "" {
			r.Email = email
		}
		if whatsapp != "" {
			r.WhatsApp = whatsapp
		}
		return nil
	})
}

func (g *Registry) update(id, username string, fn func(r *model.Recipient) error) (model.Recipient, error) {
	r, err := g.GetOrCreate(id, username)
	if err != nil {
		return model.Recipient{}, err
	}
	if err := fn(&r); err != nil {
		return model.Recipient{}, err
	}
	if username != "" {
		r.Username = username
	}
	if err := g.store.Upsert(r); err != nil {
		return model.Recipient{}, fmt.Errorf("save recipient %s: %w", id, err)
	}
	logger.Info("recipient updated",
		zap.String("id", id),
		zap.Bool("subscribed", r.Subscribed),
		zap.Strings("symbols", r.Symbols),
		zap.Strings("times", r.Times),
		zap.Int("frequency_minutes", r.FrequencyMinutes),
	)
	return r, nil
}
