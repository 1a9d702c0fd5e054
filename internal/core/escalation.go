package core

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"chvcore/pkg/domain"
)

// Delivery is the outcome of notifying one tier.
type Delivery struct {
	Tier  domain.Tier `json:"tier"`
	Err   error       `json:"-"`
	Error string      `json:"error,omitempty"`
}

// Escalation summarises the routing of a single report.
type Escalation struct {
	Escalated  bool                   `json:"escalated"`
	Level      domain.EscalationLevel `json:"level,omitempty"`
	Deliveries []Delivery             `json:"deliveries"`
}

// Failed returns the deliveries that did not succeed.
func (e Escalation) Failed() []Delivery {
	var out []Delivery
	for _, d := range e.Deliveries {
		if d.Err != nil {
			out = append(out, d)
		}
	}
	return out
}

// TiersFor returns the tiers a disease case at level is delivered to, highest
// first. Unknown levels route to the facility only.
func TiersFor(level domain.EscalationLevel) []domain.Tier {
	switch level {
	case domain.EscalationNational:
		return []domain.Tier{domain.TierNational, domain.TierDistrict, domain.TierFacility}
	case domain.EscalationDistrict:
		return []domain.Tier{domain.TierDistrict, domain.TierFacility}
	default:
		return []domain.Tier{domain.TierFacility}
	}
}

// hazardTiers are notified for high-severity hazards.
var hazardTiers = []domain.Tier{domain.TierNational, domain.TierDistrict}

// DefaultDeliveryTimeout bounds a single tier's delivery attempt.
const DefaultDeliveryTimeout = 15 * time.Second

// Router fans reports out to notification tiers. Every tier is attempted even
// when an earlier one fails; there are no retries.
type Router struct {
	notifier domain.Notifier
	logger   *zap.Logger
	metrics  *Metrics
	timeout  time.Duration
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithTierTimeout sets the per-tier delivery deadline.
func WithTierTimeout(d time.Duration) RouterOption {
	return func(r *Router) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// NewRouter constructs a router. A nil notifier discards notifications.
func NewRouter(notifier domain.Notifier, logger *zap.Logger, metrics *Metrics, opts ...RouterOption) *Router {
	if notifier == nil {
		notifier = domain.NotifierFunc(func(context.Context, domain.Tier, domain.Notification) error { return nil })
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Router{notifier: notifier, logger: logger, metrics: metrics, timeout: DefaultDeliveryTimeout}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RouteDiseaseCase notifies every tier from the case's escalation level down
// to the facility.
func (r *Router) RouteDiseaseCase(ctx context.Context, c DiseaseCase) Escalation {
	n := domain.Notification{
		Kind:       domain.ReportDiseaseCase,
		ReportID:   c.ID,
		DisplayID:  c.CaseID,
		Level:      c.EscalationLevel,
		Severity:   string(c.Severity),
		Status:     string(c.Status),
		Summary:    fmt.Sprintf("%s case %s (%s)", c.Disease, c.CaseID, c.Status),
		ReportedBy: c.ReportedBy,
		ReportedAt: c.ReportedAt,
		Report:     c,
	}
	return r.fanOut(ctx, c.EscalationLevel, TiersFor(c.EscalationLevel), n)
}

// RouteHazard notifies the national and district tiers for high-severity
// hazards. Other severities are not escalated.
func (r *Router) RouteHazard(ctx context.Context, h Hazard) Escalation {
	if h.Severity != domain.HazardHigh {
		return Escalation{}
	}
	n := domain.Notification{
		Kind:       domain.ReportHazard,
		ReportID:   h.ID,
		Level:      domain.EscalationNational,
		Severity:   string(h.Severity),
		Status:     string(h.Status),
		Summary:    fmt.Sprintf("%s hazard at %s", h.Type, h.Location.Address),
		ReportedBy: h.ReportedBy,
		ReportedAt: h.ReportedAt,
		Report:     h,
	}
	return r.fanOut(ctx, domain.EscalationNational, hazardTiers, n)
}

// fanOut delivers to each tier in order. The report is already stored, so
// delivery is detached from the caller's cancellation and each tier gets its
// own deadline.
func (r *Router) fanOut(ctx context.Context, level domain.EscalationLevel, tiers []domain.Tier, n domain.Notification) Escalation {
	esc := Escalation{Escalated: true, Level: level, Deliveries: make([]Delivery, 0, len(tiers))}
	base := context.WithoutCancel(ctx)
	for _, tier := range tiers {
		err := r.deliver(base, tier, n)
		r.metrics.IncrementNotification(string(tier), err)
		d := Delivery{Tier: tier, Err: err}
		if err != nil {
			d.Error = err.Error()
			r.logger.Warn("escalation delivery failed",
				zap.String("kind", string(n.Kind)),
				zap.String("report_id", n.ReportID),
				zap.String("tier", string(tier)),
				zap.Error(err))
		} else {
			r.logger.Info("escalation delivered",
				zap.String("kind", string(n.Kind)),
				zap.String("report_id", n.ReportID),
				zap.String("tier", string(tier)))
		}
		esc.Deliveries = append(esc.Deliveries, d)
	}
	return esc
}

func (r *Router) deliver(ctx context.Context, tier domain.Tier, n domain.Notification) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.notifier.Notify(ctx, tier, n)
}
