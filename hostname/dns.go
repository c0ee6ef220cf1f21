// Copyright 2025 Balance Lab, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package hostname

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/netip"
	"strings"
	"sync/atomic"
	"time"

	"github.com/balancelab/addrlb/resolvconf"
	"github.com/miekg/dns"
)

// DNSEngineConfig configures a [DNSEngine].
type DNSEngineConfig struct {
	// Servers are the nameservers to query, as host:port pairs, tried in
	// order until one answers. Required.
	Servers []string

	// Search lists the suffixes appended during suffix-search resolution of
	// names with fewer dots than the policy's NDots threshold.
	Search []string

	// Policy supplies the ndots and rotate options, typically from
	// [resolvconf.Load]. The zero value behaves like the documented
	// defaults except for NDots, which Load never leaves at zero.
	Policy resolvconf.Config

	// Timeout bounds each query exchange. Defaults to 5 seconds.
	Timeout time.Duration

	// Logger reports per-candidate lookup failures at debug level.
	// Defaults to [slog.Default].
	Logger *slog.Logger
}

// DNSEngine resolves hostnames by querying nameservers directly with the
// miekg/dns client. Unlike [NewNetEngine], it observes record TTLs and
// honors the resolver-configuration policy: names with fewer dots than
// ndots are qualified through the search suffixes first, and when rotate is
// set, successive lookups present the answer list in round-robin order.
type DNSEngine struct {
	client  *dns.Client
	servers []string
	search  []string
	policy  resolvconf.Config
	logger  *slog.Logger
	next    atomic.Uint64
}

// NewDNSEngine creates an engine that queries the configured nameservers.
func NewDNSEngine(cfg DNSEngineConfig) (*DNSEngine, error) {
	if len(cfg.Servers) == 0 {
		return nil, errors.New("dns engine: at least one nameserver is required")
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &DNSEngine{
		client:  &dns.Client{Timeout: timeout},
		servers: cfg.Servers,
		search:  cfg.Search,
		policy:  cfg.Policy,
		logger:  logger,
	}, nil
}

var _ Engine = (*DNSEngine)(nil)

// ResolveAll resolves host to its A and AAAA records, trying each candidate
// name produced by the qualification rule until one yields answers.
func (e *DNSEngine) ResolveAll(ctx context.Context, host string) ([]Record, error) {
	if addr, err := netip.ParseAddr(host); err == nil {
		return []Record{{Addr: addr.Unmap()}}, nil
	}
	var lastErr error
	for _, candidate := range e.qualified(host) {
		records, err := e.lookup(ctx, candidate)
		if err != nil {
			e.logger.Debug("dns lookup failed", "name", candidate, "error", err)
			lastErr = err
			continue
		}
		if len(records) > 0 {
			return e.rotated(records), nil
		}
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, &net.DNSError{Err: "no such host", Name: host, IsNotFound: true}
}

// Close releases nothing: the client holds no persistent connections.
func (e *DNSEngine) Close() error {
	return nil
}

// qualified returns the fully qualified candidate names to try, in order.
// A name already ending in a dot is used as-is. Otherwise, a name with at
// least ndots dots is tried absolute first and through the search suffixes
// after; a name with fewer dots is tried through the suffixes first.
func (e *DNSEngine) qualified(host string) []string {
	if strings.HasSuffix(host, ".") {
		return []string{host}
	}
	absolute := dns.Fqdn(host)
	if len(e.search) == 0 {
		return []string{absolute}
	}
	names := make([]string, 0, len(e.search)+1)
	qualifiedEnough := strings.Count(host, ".") >= e.policy.NDots
	if qualifiedEnough {
		names = append(names, absolute)
	}
	for _, suffix := range e.search {
		names = append(names, dns.Fqdn(host+"."+strings.TrimSuffix(suffix, ".")))
	}
	if !qualifiedEnough {
		names = append(names, absolute)
	}
	return names
}

func (e *DNSEngine) lookup(ctx context.Context, fqdn string) ([]Record, error) {
	var records []Record
	var firstErr error
	for _, qtype := range []uint16{dns.TypeA, dns.TypeAAAA} {
		found, err := e.query(ctx, fqdn, qtype)
		if err != nil {
			// Keep going: the other record type may still answer, but leave
			// a trace so a half-broken nameserver is observable.
			e.logger.Debug("dns query failed", "name", fqdn, "type", dns.TypeToString[qtype], "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		records = append(records, found...)
	}
	if len(records) == 0 && firstErr != nil {
		return nil, firstErr
	}
	return records, nil
}

func (e *DNSEngine) query(ctx context.Context, fqdn string, qtype uint16) ([]Record, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(fqdn, qtype)
	msg.RecursionDesired = true

	var lastErr error
	for _, server := range e.servers {
		response, _, err := e.client.ExchangeContext(ctx, msg, server)
		if err != nil {
			lastErr = err
			continue
		}
		if response.Rcode != dns.RcodeSuccess {
			lastErr = fmt.Errorf("dns query for %s: %s", fqdn, dns.RcodeToString[response.Rcode])
			continue
		}
		var records []Record
		for _, answer := range response.Answer {
			switch rr := answer.(type) {
			case *dns.A:
				if addr, ok := netip.AddrFromSlice(rr.A); ok {
					records = append(records, Record{
						Addr: addr.Unmap(),
						TTL:  time.Duration(rr.Hdr.Ttl) * time.Second,
					})
				}
			case *dns.AAAA:
				if addr, ok := netip.AddrFromSlice(rr.AAAA); ok {
					records = append(records, Record{
						Addr: addr,
						TTL:  time.Duration(rr.Hdr.Ttl) * time.Second,
					})
				}
			}
		}
		return records, nil
	}
	return nil, lastErr
}

// rotated applies the rotate policy: each successful resolution presents
// the answer list shifted one further than the last.
func (e *DNSEngine) rotated(records []Record) []Record {
	if !e.policy.Rotate || len(records) < 2 {
		return records
	}
	k := int((e.next.Add(1) - 1) % uint64(len(records)))
	if k == 0 {
		return records
	}
	result := make([]Record, 0, len(records))
	result = append(result, records[k:]...)
	result = append(result, records[:k]...)
	return result
}
