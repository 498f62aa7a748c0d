package config

import (
	"nss-netns/ifaddrs"
	"nss-netns/namespace"
	"nss-netns/resolver"
)

// Identifier builds the namespace identifier for the configured run dirs.
func (c *Config) Identifier() *namespace.Identifier {
	return namespace.NewIdentifier(c.Netns.RunDirs...)
}

// Resolver wires a resolver with its own table cache.
func (c *Config) Resolver() *resolver.Resolver {
	opts := resolver.Options{
		Paths: resolver.Paths{
			System:   c.Hosts.System,
			NetnsDir: c.Hosts.NetnsDir,
		},
		Multi: c.Lookup.Multi,
	}
	if c.Netns.ResolveNames {
		opts.Names = ifaddrs.NewSource(c.Netns.RunDirs...)
	}
	return resolver.New(c.Identifier(), resolver.NewCache(c.Cache.Expiration), opts)
}
