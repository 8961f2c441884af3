package client

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/cenk/backoff"
	circuit "github.com/rubyist/circuitbreaker"
)

// ErrCircuitOpen is wrapped by calls rejected while a host's breaker is open.
var ErrCircuitOpen = errors.New("circuit breaker open")

// Breaker keeps one circuit breaker per API host. A breaker trips after
// 5 consecutive failed calls, each call being a full retried request.
type Breaker struct {
	breakers  map[string]*circuit.Breaker
	threshold int64
	mu        sync.RWMutex
}

// NewBreaker creates an empty set of per-host breakers.
func NewBreaker() *Breaker {
	return &Breaker{
		breakers:  make(map[string]*circuit.Breaker),
		threshold: 5,
	}
}

func (b *Breaker) get(host string) *circuit.Breaker {
	b.mu.RLock()
	breaker, exists := b.breakers[host]
	b.mu.RUnlock()

	if exists {
		return breaker
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if breaker, exists := b.breakers[host]; exists {
		return breaker
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = 30 * time.Second
	expBackoff.MaxInterval = 5 * time.Minute
	expBackoff.Multiplier = 2.0
	expBackoff.Reset()

	breaker = circuit.NewBreakerWithOptions(&circuit.Options{
		BackOff:    expBackoff,
		ShouldTrip: circuit.ThresholdTripFunc(b.threshold),
	})
	b.breakers[host] = breaker
	return breaker
}

// Do runs fn under the breaker for rawURL's host.
func (b *Breaker) Do(rawURL string, fn func() (*http.Response, error)) (*http.Response, error) {
	host := hostOf(rawURL)
	breaker := b.get(host)

	if !breaker.Ready() {
		return nil, fmt.Errorf("%w for %s", ErrCircuitOpen, host)
	}

	var resp *http.Response
	err := breaker.Call(func() error {
		var callErr error
		resp, callErr = fn()
		return callErr
	}, 0)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// State returns "open" or "closed" per host.
func (b *Breaker) State() map[string]string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	states := make(map[string]string, len(b.breakers))
	for host, breaker := range b.breakers {
		if breaker.Tripped() {
			states[host] = "open"
		} else {
			states[host] = "closed"
		}
	}
	return states
}

func hostOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		if len(rawURL) > 50 {
			return rawURL[:50]
		}
		return rawURL
	}
	return parsed.Host
}
