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
	"encoding/binary"
	"errors"
	"io"
	"net"
	"net/netip"
	"testing"
	"time"

	"github.com/balancelab/addrlb"
	"github.com/balancelab/addrlb/attribute"
	"github.com/balancelab/addrlb/internal/clocktest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/dns/dnsmessage"
)

type fakeEngine struct {
	resolveAll func(ctx context.Context, host string) ([]Record, error)
	closed     bool
}

func (e *fakeEngine) ResolveAll(ctx context.Context, host string) ([]Record, error) {
	return e.resolveAll(ctx, host)
}

func (e *fakeEngine) Close() error {
	e.closed = true
	return nil
}

func mustAddr(t *testing.T, s string) netip.Addr {
	t.Helper()
	addr, err := netip.ParseAddr(s)
	require.NoError(t, err)
	return addr
}

func TestResolveWrapsRecordsInOrder(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{
		resolveAll: func(_ context.Context, host string) ([]Record, error) {
			assert.Equal(t, "foo.example.com", host)
			return []Record{
				{Addr: netip.MustParseAddr("1.2.3.4"), TTL: 30 * time.Second},
				{Addr: netip.MustParseAddr("5.6.7.8")},
			}, nil
		},
	}
	resolver := New[Endpoint](engine)

	identity := func(endpoint Endpoint) Endpoint { return endpoint }
	state, err := resolver.Resolve(
		context.Background(),
		identity,
		addrlb.SockAddr{Host: "foo.example.com", Port: 80},
	).Await(context.Background())
	require.NoError(t, err)

	endpoints := resolver.Endpoints(state)
	require.Len(t, endpoints, 2)
	assert.Equal(t, netip.MustParseAddrPort("1.2.3.4:80"), endpoints[0].Addr)
	assert.Equal(t, netip.MustParseAddrPort("5.6.7.8:80"), endpoints[1].Addr)

	// The first record carried a TTL, surfaced as an endpoint attribute.
	ttl, ok := attribute.GetValue(endpoints[0].Attributes, RecordTTL)
	require.True(t, ok)
	assert.Equal(t, 30*time.Second, ttl)
	_, ok = attribute.GetValue(endpoints[1].Attributes, RecordTTL)
	assert.False(t, ok)

	assert.True(t, resolver.IsValid(state))
}

func TestResolveFailurePropagates(t *testing.T) {
	t.Parallel()

	boom := errors.New("lookup exploded")
	engine := &fakeEngine{
		resolveAll: func(context.Context, string) ([]Record, error) {
			return nil, boom
		},
	}
	resolver := New[Endpoint](engine)

	_, err := resolver.Resolve(
		context.Background(),
		func(endpoint Endpoint) Endpoint { return endpoint },
		addrlb.SockAddr{Host: "foo.example.com", Port: 80},
	).Await(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestResolveRejectsOutOfRangePort(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{
		resolveAll: func(context.Context, string) ([]Record, error) {
			t.Error("engine consulted for an address with an invalid port")
			return nil, nil
		},
	}
	resolver := New[Endpoint](engine)
	identity := func(endpoint Endpoint) Endpoint { return endpoint }

	for _, port := range []int{-1, 65536} {
		_, err := resolver.Resolve(
			context.Background(),
			identity,
			addrlb.SockAddr{Host: "foo.example.com", Port: port},
		).Await(context.Background())
		require.Error(t, err)
		assert.ErrorContains(t, err, "out of range")
	}
}

func TestIsValidDefaultsToAlwaysValid(t *testing.T) {
	t.Parallel()

	resolver := New[Endpoint](&fakeEngine{
		resolveAll: func(context.Context, string) ([]Record, error) {
			return []Record{{Addr: mustAddr(t, "1.2.3.4")}}, nil
		},
	})
	state, err := resolver.Resolve(
		context.Background(),
		func(endpoint Endpoint) Endpoint { return endpoint },
		addrlb.SockAddr{Host: "foo.example.com", Port: 80},
	).Await(context.Background())
	require.NoError(t, err)

	assert.True(t, resolver.IsValid(state))
	assert.False(t, resolver.IsValid(nil))
}

func TestExpireAfter(t *testing.T) {
	t.Parallel()

	const ttl = time.Minute

	testClock := clocktest.NewFakeClock()
	resolver := New(
		&fakeEngine{
			resolveAll: func(context.Context, string) ([]Record, error) {
				return []Record{{Addr: mustAddr(t, "1.2.3.4")}}, nil
			},
		},
		ExpireAfter[Endpoint](ttl),
	)
	resolver.clock = testClock

	state, err := resolver.Resolve(
		context.Background(),
		func(endpoint Endpoint) Endpoint { return endpoint },
		addrlb.SockAddr{Host: "foo.example.com", Port: 80},
	).Await(context.Background())
	require.NoError(t, err)

	assert.True(t, resolver.IsValid(state))
	testClock.Advance(ttl - time.Nanosecond)
	assert.True(t, resolver.IsValid(state))
	testClock.Advance(time.Nanosecond)
	assert.False(t, resolver.IsValid(state))
}

func TestTryCast(t *testing.T) {
	t.Parallel()

	resolver := New[Endpoint](&fakeEngine{})
	address, ok := resolver.TryCast(addrlb.SockAddr{Host: "foo.example.com", Port: 80})
	require.True(t, ok)
	assert.Equal(t, "foo.example.com", address.Host)

	_, ok = resolver.TryCast(namedAddress("svc"))
	assert.False(t, ok)
}

type namedAddress string

func (a namedAddress) String() string { return string(a) }

func TestAddressOfEndpoint(t *testing.T) {
	t.Parallel()

	resolver := New[Endpoint](&fakeEngine{})
	endpoint := Endpoint{Addr: netip.MustParseAddrPort("1.2.3.4:443")}
	assert.Equal(t, addrlb.SockAddr{Host: "1.2.3.4", Port: 443}, resolver.AddressOfEndpoint(endpoint))
}

func TestCloseClosesEngine(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{}
	resolver := New[Endpoint](engine)
	require.NoError(t, resolver.Close())
	assert.True(t, engine.closed)
}

func TestNetEngineResolvesMultipleRecords(t *testing.T) {
	t.Parallel()

	ip4Header := dnsmessage.ResourceHeader{
		Name:  dnsmessage.MustNewName("example.com."),
		Type:  dnsmessage.TypeA,
		Class: dnsmessage.ClassINET,
	}
	netResolver := newFakeNetResolver(t, []dnsmessage.Resource{
		{
			Header: ip4Header,
			Body:   &dnsmessage.AResource{A: [4]byte{10, 0, 0, 100}},
		},
		{
			Header: ip4Header,
			Body:   &dnsmessage.AResource{A: [4]byte{10, 0, 0, 101}},
		},
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	t.Cleanup(cancel)

	engine := NewNetEngine(netResolver, "ip4")
	records, err := engine.ResolveAll(ctx, "example.com")
	require.NoError(t, err)

	addrs := make([]netip.Addr, len(records))
	for i, record := range records {
		addrs[i] = record.Addr
		assert.Zero(t, record.TTL)
	}
	assert.ElementsMatch(t, []netip.Addr{mustAddr(t, "10.0.0.100"), mustAddr(t, "10.0.0.101")}, addrs)

	require.NoError(t, engine.Close())
}

// fakeNetResolver answers DNS queries over an in-memory pipe so that a
// net.Resolver can be exercised without the network.
type fakeNetResolver struct {
	t       *testing.T
	answers []dnsmessage.Resource
}

func (r *fakeNetResolver) Dial(context.Context, string, string) (net.Conn, error) {
	clientConn, serverConn := net.Pipe()
	go func() {
		var requestLength uint16
		if err := binary.Read(serverConn, binary.BigEndian, &requestLength); err != nil {
			r.t.Errorf("error reading dns request length: %v", err)
			return
		}
		requestData := make([]byte, requestLength)
		if _, err := io.ReadFull(serverConn, requestData); err != nil {
			r.t.Errorf("error reading dns request: %v", err)
			return
		}
		request := &dnsmessage.Message{}
		if err := request.Unpack(requestData); err != nil {
			r.t.Errorf("error unpacking dns request: %v", err)
			return
		}
		answers := []dnsmessage.Resource{}
		for _, answer := range r.answers {
			if answer.Header.Type == request.Questions[0].Type {
				answers = append(answers, answer)
			}
		}
		response := &dnsmessage.Message{
			Header: dnsmessage.Header{
				ID:            request.ID,
				Response:      true,
				RCode:         dnsmessage.RCodeSuccess,
				Authoritative: true,
			},
			Questions: request.Questions,
			Answers:   answers,
		}
		responseData, err := response.Pack()
		if err != nil {
			r.t.Errorf("error packing dns response: %v", err)
			return
		}
		responseLength := uint16(len(responseData))
		if err := binary.Write(serverConn, binary.BigEndian, &responseLength); err != nil {
			r.t.Errorf("error writing dns response length: %v", err)
			return
		}
		if _, err := serverConn.Write(responseData); err != nil {
			r.t.Errorf("error writing dns response: %v", err)
			return
		}
		if err := serverConn.Close(); err != nil {
			r.t.Errorf("error closing dns server connection: %v", err)
			return
		}
	}()
	return clientConn, nil
}

func newFakeNetResolver(t *testing.T, answers []dnsmessage.Resource) *net.Resolver {
	t.Helper()

	dialer := fakeNetResolver{
		t:       t,
		answers: answers,
	}
	return &net.Resolver{
		PreferGo: true,
		Dial:     dialer.Dial,
	}
}
