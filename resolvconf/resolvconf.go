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

// Package resolvconf extracts hostname-resolution policy from the system
// resolver configuration. Only the options relevant to this layer are
// recognized: ndots, the qualification threshold for treating a name as
// fully qualified, and rotate, which asks for resolved address lists in
// round-robin order.
//
// The policy is intended to be computed once at process startup, via
// [Load], and treated as immutable afterwards. Failure to read or parse the
// configuration is never fatal: defaults are retained and the condition is
// reported at debug severity.
package resolvconf

import (
	"log/slog"
	"os"
	"regexp"
	"runtime"
	"strconv"
)

// Defaults applied when the system configuration is absent, unreadable, or
// silent on an option.
const (
	DefaultNDots  = 1
	DefaultRotate = false
)

// Path is the location of the resolver configuration on platforms known to
// expose one.
const Path = "/etc/resolv.conf"

// Config is the parsed hostname-resolution policy.
type Config struct {
	// NDots is the minimum number of dots a hostname must contain before it
	// is treated as fully qualified rather than subject to suffix-search
	// resolution.
	NDots int

	// Rotate requests resolved address lists in rotated, round-robin order.
	Rotate bool
}

// Options lines are matched case-sensitively, anywhere in the text. The
// original glibc syntax allows leading blanks and multiple options per line.
var (
	ndotsPattern  = regexp.MustCompile(`(?m)^[ \t\f]*options[^\n]+ndots:[ \t\f]*(\d+)(\s|$)`)
	rotatePattern = regexp.MustCompile(`(?m)^[ \t\f]*options[^\n]+rotate(\s|$)`)
)

// Default returns the policy with every option at its default.
func Default() Config {
	return Config{NDots: DefaultNDots, Rotate: DefaultRotate}
}

// Parse extracts the policy from resolver configuration text, substituting
// defaults for options the text does not set.
func Parse(text string) Config {
	cfg := Default()
	if n, ok := ParseNDots(text); ok {
		cfg.NDots = n
	}
	cfg.Rotate = ParseRotate(text)
	return cfg
}

// ParseNDots returns the value of the last ndots directive found inside an
// options line, or false if there is none.
func ParseNDots(text string) (int, bool) {
	matches := ndotsPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(matches[len(matches)-1][1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// ParseRotate reports whether any options line contains a rotate directive.
func ParseRotate(text string) bool {
	return rotatePattern.MatchString(text)
}

// Provider supplies resolver configuration text for a platform. Providers
// keep platform detection out of the parsing logic and let tests substitute
// configuration freely.
type Provider interface {
	ReadConfig() (string, error)
}

// FileProvider reads configuration text from a file.
func FileProvider(path string) Provider {
	return fileProvider(path)
}

type fileProvider string

func (p fileProvider) ReadConfig() (string, error) {
	data, err := os.ReadFile(string(p))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// NoConfig is a provider for platforms without a resolver configuration
// file; it yields empty text, so defaults apply unconditionally.
func NoConfig() Provider {
	return noConfig{}
}

type noConfig struct{}

func (noConfig) ReadConfig() (string, error) {
	return "", nil
}

// LoadOption adjusts how [Load] obtains and reports configuration.
type LoadOption func(*loadOptions)

type loadOptions struct {
	provider Provider
	logger   *slog.Logger
}

// WithProvider substitutes the configuration source. Without it, Load picks
// a provider by platform capability: the [Path] file on Linux, [NoConfig]
// elsewhere.
func WithProvider(provider Provider) LoadOption {
	return func(o *loadOptions) {
		o.provider = provider
	}
}

// WithLogger sets the logger used to report non-fatal load failures.
// Defaults to [slog.Default].
func WithLogger(logger *slog.Logger) LoadOption {
	return func(o *loadOptions) {
		o.logger = logger
	}
}

// Load reads and parses the platform resolver configuration. It never
// fails: when the configuration cannot be read, the defaults are returned
// and the condition is logged at debug level.
func Load(opts ...LoadOption) Config {
	options := loadOptions{
		provider: platformProvider(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	text, err := options.provider.ReadConfig()
	if err != nil {
		options.logger.Debug("failed to load resolver configuration, using defaults", "error", err)
		return Default()
	}
	return Parse(text)
}

func platformProvider() Provider {
	if runtime.GOOS == "linux" {
		return FileProvider(Path)
	}
	return NoConfig()
}
