package services

import (
	portsgw "github.com/SscSPs/usage_billing_app/internal/core/ports/gateways"
	portsrepo "github.com/SscSPs/usage_billing_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/usage_billing_app/internal/core/ports/services"
	"github.com/SscSPs/usage_billing_app/internal/platform/config"
)

// Gateways groups the outbound adapters the services call. Any of them may be nil when the
// corresponding feature is not configured.
type Gateways struct {
	Translators  []portsgw.Translator
	Transcribers []portsgw.Transcriber
	Synthesizers []portsgw.Synthesizer
	Pricer       portsgw.Pricer
	Relay        portsgw.Relay
	Storage      portsgw.ObjectStorage
	Analytics    portsgw.AnalyticsTracker
}

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, gw Gateways) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	// Ledger first since every paid operation settles through it
	container.Ledger = NewLedgerService(repos.LedgerRepo, WithLedgerAnalytics(gw.Analytics))
	container.EventGuard = NewEventGuardService(repos.EventRepo)
	container.Payment = NewPaymentService(container.EventGuard, container.Ledger)

	jobOpts := []JobServiceOption{}
	if gw.Storage != nil {
		jobOpts = append(jobOpts, WithJobStorage(gw.Storage))
	}
	container.Job = NewJobService(repos.JobRepo, jobOpts...)

	settlementOpts := []SettlementServiceOption{}
	if gw.Relay != nil {
		settlementOpts = append(settlementOpts, WithRelay(gw.Relay, cfg.PublicBaseURL+"/callbacks/relay"))
	}
	if gw.Storage != nil {
		settlementOpts = append(settlementOpts, WithUploadStorage(gw.Storage, cfg.JobUploadTTL))
	}
	container.Settlement = NewSettlementService(container.Job, container.Ledger, container.EventGuard, gw.Pricer, settlementOpts...)

	container.Usage = NewUsageService(container.Ledger, gw.Pricer,
		WithTranslators(gw.Translators...),
		WithTranscribers(gw.Transcribers...),
		WithSynthesizers(gw.Synthesizers...),
		WithAttemptTimeout(cfg.ProviderTimeout),
		WithSegmentConcurrency(cfg.SegmentConcurrency),
	)

	return container
}
