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
	"net"
	"net/netip"
	"time"
)

// Record is one concrete address resolved for a hostname.
type Record struct {
	Addr netip.Addr

	// TTL is the record's remaining time-to-live, or zero when the engine
	// cannot observe it.
	TTL time.Duration
}

// Engine performs the actual multi-record hostname lookup. Lookups must
// support returning multiple records per hostname; the order of the
// returned slice is the order endpoints are presented to callers.
//
// Engines do not retry and do not impose timeouts beyond honoring ctx;
// both are the caller's concern.
type Engine interface {
	ResolveAll(ctx context.Context, host string) ([]Record, error)
	Close() error
}

// NewNetEngine creates an engine backed by a [net.Resolver]. The network
// selects the address family and must be "ip", "ip4" or "ip6"; empty means
// "ip". Record TTLs are not available through [net.Resolver], so the
// returned records carry none.
func NewNetEngine(resolver *net.Resolver, network string) Engine {
	if network == "" {
		network = "ip"
	}
	return &netEngine{resolver: resolver, network: network}
}

type netEngine struct {
	resolver *net.Resolver
	network  string
}

func (e *netEngine) ResolveAll(ctx context.Context, host string) ([]Record, error) {
	addrs, err := e.resolver.LookupNetIP(ctx, e.network, host)
	if err != nil {
		return nil, err
	}
	records := make([]Record, len(addrs))
	for i, addr := range addrs {
		records[i] = Record{Addr: addr.Unmap()}
	}
	return records, nil
}

func (e *netEngine) Close() error {
	return nil
}
