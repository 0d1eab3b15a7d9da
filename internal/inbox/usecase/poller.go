package usecase

import (
	"context"
	"errors"
	"log"
	"time"

	emaildomain "mailpilot-backend/internal/email/domain"
)

// Poller runs the ingestion pipeline on a fixed interval for every
// provider with connected accounts
type Poller struct {
	pipeline    *Pipeline
	credentials emaildomain.CredentialProvider
	providers   []emaildomain.EmailSource
	interval    time.Duration
	stopChan    chan struct{}
}

// NewPoller creates a new background poller. An interval of 0 disables
// it.
func NewPoller(pipeline *Pipeline, credentials emaildomain.CredentialProvider, providers []emaildomain.EmailSource, interval time.Duration) *Poller {
	return &Poller{
		pipeline:    pipeline,
		credentials: credentials,
		providers:   providers,
		interval:    interval,
		stopChan:    make(chan struct{}),
	}
}

// Start begins the poll loop
func (p *Poller) Start() {
	if p.interval <= 0 {
		log.Println("[Poller] Background polling disabled")
		return
	}

	log.Printf("[Poller] Starting background poller (interval: %s)", p.interval)

	go func() {
		// Run immediately on start
		p.pollAll()

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				p.pollAll()
			case <-p.stopChan:
				log.Println("[Poller] Poller stopped")
				return
			}
		}
	}()
}

// Stop gracefully stops the poller
func (p *Poller) Stop() {
	close(p.stopChan)
}

func (p *Poller) pollAll() {
	for _, provider := range p.providers {
		if !p.credentials.HasAccounts(provider) {
			continue
		}

		result, err := p.pipeline.Poll(context.Background(), provider)
		if err != nil {
			if !errors.Is(err, ErrNoAccounts) {
				log.Printf("[Poller] %s poll failed: %v", provider, err)
			}
			continue
		}
		for _, msg := range result.Errors {
			log.Printf("[Poller] %s account error: %s", provider, msg)
		}
	}
}
