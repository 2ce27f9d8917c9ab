// Copyright (C) 2021  Lukas Dietrich <lukas@lukasdietrich.com>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package dns

import (
	"context"

	"github.com/miekg/dns"
	"github.com/spf13/viper"
)

func init() {
	viper.SetDefault("dns.resolver.address", "1.1.1.1:53")
}

// Resolver answers raw dns queries. It is an interface to allow for fake
// resolvers in tests.
type Resolver interface {
	// QuerySRV returns all srv records of a name.
	QuerySRV(ctx context.Context, name string) ([]*dns.SRV, error)
	// QueryA returns all ipv4 addresses of a name.
	QueryA(ctx context.Context, name string) ([]string, error)
	// QueryAAAA returns all ipv6 addresses of a name.
	QueryAAAA(ctx context.Context, name string) ([]string, error)
}

// resolver queries a single upstream dns server over plain udp.
type resolver struct {
	addr string
}

// NewResolver creates a Resolver using the configuration from viper.
//
//	dns.resolver.address
func NewResolver() Resolver {
	return &resolver{
		addr: viper.GetString("dns.resolver.address"),
	}
}

func (r *resolver) query(ctx context.Context, name string, qtype uint16) (*dns.Msg, error) {
	msg := dns.Msg{
		Question: []dns.Question{{
			Name:   dns.Fqdn(name),
			Qtype:  qtype,
			Qclass: dns.ClassINET,
		}},
	}

	msg.RecursionDesired = true

	return dns.ExchangeContext(ctx, &msg, r.addr)
}

func (r *resolver) QuerySRV(ctx context.Context, name string) ([]*dns.SRV, error) {
	res, err := r.query(ctx, name, dns.TypeSRV)
	if err != nil {
		return nil, err
	}

	records := make([]*dns.SRV, 0, len(res.Answer))

	for _, rr := range res.Answer {
		if srv, ok := rr.(*dns.SRV); ok {
			records = append(records, srv)
		}
	}

	return records, nil
}

func (r *resolver) QueryA(ctx context.Context, name string) ([]string, error) {
	res, err := r.query(ctx, name, dns.TypeA)
	if err != nil {
		return nil, err
	}

	addrs := make([]string, 0, len(res.Answer))

	for _, rr := range res.Answer {
		if a, ok := rr.(*dns.A); ok {
			addrs = append(addrs, a.A.String())
		}
	}

	return addrs, nil
}

func (r *resolver) QueryAAAA(ctx context.Context, name string) ([]string, error) {
	res, err := r.query(ctx, name, dns.TypeAAAA)
	if err != nil {
		return nil, err
	}

	addrs := make([]string, 0, len(res.Answer))

	for _, rr := range res.Answer {
		if aaaa, ok := rr.(*dns.AAAA); ok {
			addrs = append(addrs, aaaa.AAAA.String())
		}
	}

	return addrs, nil
}
