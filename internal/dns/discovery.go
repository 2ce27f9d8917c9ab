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
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/miekg/dns"

	"github.com/lukasdietrich/sharpmail/internal/log"
)

const (
	// srvService is the service prefix of peer srv records.
	srvService = "_sharp._tcp."
	// fallbackHost is the host prefix tried when a domain publishes no
	// srv records.
	fallbackHost = "sharp."
	// fallbackPort is the port assumed for fallback hosts.
	fallbackPort = 5000

	cacheTTL = time.Minute
)

var (
	// ErrNoPeerFound is returned when a domain resolves to no usable peer
	// address at all.
	ErrNoPeerFound = errors.New("dns: no peer found")
	// ErrDomainMismatch is returned when a connection ip is not among the
	// addresses of the claimed domain.
	ErrDomainMismatch = errors.New("dns: sender ip does not match claimed domain")
)

// Target is a single resolved peer host of a domain.
type Target struct {
	// Name is the hostname of the target.
	Name string
	// Port is the tcp port of the wire protocol.
	Port uint16
	// Addrs are the resolved ipv4 and ipv6 addresses of Name.
	Addrs []string
}

// Peer is a connectable endpoint picked from the targets of a domain.
type Peer struct {
	// TargetName is the hostname the peer was resolved from.
	TargetName string
	// Addr is the first resolved address of the target.
	Addr string
	// Port is the tcp port of the wire protocol.
	Port uint16
	// HTTPPort is the port of the peers http api. It is derived as Port+1
	// and not independently resolved.
	HTTPPort uint16
}

// Discovery looks up the peers of remote domains and verifies inbound
// connections against them.
type Discovery interface {
	// ResolveTargets returns all peer targets of a domain ordered by
	// preference.
	ResolveTargets(ctx context.Context, domain string) ([]Target, error)
	// ResolvePeer returns the first target of a domain with at least one
	// resolved address.
	ResolvePeer(ctx context.Context, domain string) (*Peer, error)
	// VerifySenderDomain checks that addr belongs to the resolved peer set
	// of the claimed domain.
	VerifySenderDomain(ctx context.Context, domain, addr string) error
}

// discovery implements Discovery on top of a Resolver with a short lived
// cache in front of it.
type discovery struct {
	resolver Resolver
	cache    *targetCache
}

// NewDiscovery creates a Discovery.
func NewDiscovery(resolver Resolver) Discovery {
	return &discovery{
		resolver: resolver,
		cache:    newTargetCache(cacheTTL),
	}
}

func (d *discovery) ResolveTargets(ctx context.Context, domain string) ([]Target, error) {
	domain = strings.ToLower(domain)
	cacheKey := "srv:" + domain

	if targets, ok := d.cache.get(cacheKey); ok {
		return targets, nil
	}

	targets, err := d.lookupTargets(ctx, domain)
	if err != nil {
		return nil, err
	}

	d.cache.put(cacheKey, targets)
	return targets, nil
}

func (d *discovery) lookupTargets(ctx context.Context, domain string) ([]Target, error) {
	records, err := d.resolver.QuerySRV(ctx, srvService+domain)
	if err != nil || len(records) == 0 {
		log.DebugContext(ctx).
			Str("domain", domain).
			Err(err).
			Msg("no srv records, trying fallback host")

		return d.lookupFallback(ctx, domain)
	}

	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Priority != records[j].Priority {
			return records[i].Priority < records[j].Priority
		}

		return records[i].Weight > records[j].Weight
	})

	targets := make([]Target, 0, len(records))

	for _, record := range records {
		targets = append(targets, Target{
			Name:  strings.TrimSuffix(record.Target, "."),
			Port:  record.Port,
			Addrs: d.lookupAddrs(ctx, record.Target),
		})
	}

	return targets, nil
}

func (d *discovery) lookupFallback(ctx context.Context, domain string) ([]Target, error) {
	name := fallbackHost + domain

	addrs := d.lookupAddrs(ctx, dns.Fqdn(name))
	if len(addrs) == 0 {
		return nil, ErrNoPeerFound
	}

	return []Target{
		{
			Name:  name,
			Port:  fallbackPort,
			Addrs: addrs,
		},
	}, nil
}

// lookupAddrs resolves both address families of a name. A failure of one
// family is tolerated as long as the other yields addresses.
func (d *discovery) lookupAddrs(ctx context.Context, name string) []string {
	var addrs []string

	ipv4, err := d.resolver.QueryA(ctx, name)
	if err != nil {
		log.DebugContext(ctx).Str("name", name).Err(err).Msg("ipv4 lookup failed")
	}

	ipv6, err := d.resolver.QueryAAAA(ctx, name)
	if err != nil {
		log.DebugContext(ctx).Str("name", name).Err(err).Msg("ipv6 lookup failed")
	}

	addrs = append(addrs, ipv4...)
	addrs = append(addrs, ipv6...)

	return addrs
}

func (d *discovery) ResolvePeer(ctx context.Context, domain string) (*Peer, error) {
	targets, err := d.ResolveTargets(ctx, domain)
	if err != nil {
		return nil, err
	}

	for _, target := range targets {
		if len(target.Addrs) > 0 {
			return &Peer{
				TargetName: target.Name,
				Addr:       target.Addrs[0],
				Port:       target.Port,
				HTTPPort:   target.Port + 1,
			}, nil
		}
	}

	return nil, ErrNoPeerFound
}

func (d *discovery) VerifySenderDomain(ctx context.Context, domain, addr string) error {
	if addr == "" {
		return ErrDomainMismatch
	}

	addr = normalizeAddr(addr)

	targets, err := d.ResolveTargets(ctx, domain)
	if err != nil {
		return err
	}

	for _, target := range targets {
		for _, targetAddr := range target.Addrs {
			if normalizeAddr(targetAddr) == addr {
				return nil
			}
		}
	}

	log.WarnContext(ctx).
		Str("domain", domain).
		Str("addr", addr).
		Msg("sender ip is not an authorized peer of the claimed domain")

	return ErrDomainMismatch
}

// normalizeAddr strips the ipv4-mapped ipv6 prefix, so that both notations
// of the same address compare equal.
func normalizeAddr(addr string) string {
	return strings.TrimPrefix(addr, "::ffff:")
}
