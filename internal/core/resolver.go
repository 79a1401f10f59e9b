package core

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/auriga-audio/auriga/internal/ports"
	"github.com/auriga-audio/auriga/internal/zone"
	"github.com/auriga-audio/auriga/pkg/aw"
)

// Resolver resolves zone selectors to presence records.
type Resolver struct {
	Presence ports.Broker
	Config   Config
}

// ResolveZone resolves a selector to a zone ID. An empty selector
// falls back to the configured default zone, then to the only zone on
// the network. The selector "all" addresses every zone and skips
// discovery.
func (r Resolver) ResolveZone(ctx context.Context, selector string) (string, error) {
	selector = strings.TrimSpace(selector)
	if selector == "" {
		selector = r.Config.DefaultZone
	}
	if strings.EqualFold(selector, zone.AllZones) {
		return zone.AllZones, nil
	}

	presence, err := r.Presence.ListPresence(ctx)
	if err != nil {
		return "", WrapError(ExitRuntime, "list zones", err)
	}

	if selector == "" {
		if len(presence) == 1 {
			return presence[0].ZoneID, nil
		}
		return "", &CLIError{Code: ExitUsage, Msg: "zone selector required"}
	}
	match, err := resolveSelector(selector, presence, r.Config.Aliases)
	if err != nil {
		return "", err
	}
	return match.ZoneID, nil
}

func resolveSelector(selector string, presence []aw.Presence, aliases map[string]string) (aw.Presence, error) {
	if alias, ok := aliases[selector]; ok {
		selector = alias
	}

	matches := make([]aw.Presence, 0)
	for _, p := range presence {
		if strings.EqualFold(p.Name, selector) || strings.EqualFold(p.ZoneID, selector) {
			matches = append(matches, p)
		}
	}

	if len(matches) == 1 {
		return matches[0], nil
	}
	if len(matches) == 0 {
		return aw.Presence{}, &CLIError{Code: ExitNotFound, Msg: fmt.Sprintf("no zone matches %q", selector)}
	}
	return aw.Presence{}, &CLIError{Code: ExitUsage, Msg: fmt.Sprintf("ambiguous zone %q: %s", selector, suggestionList(matches))}
}

func suggestionList(matches []aw.Presence) string {
	names := make([]string, 0, len(matches))
	for _, p := range matches {
		names = append(names, fmt.Sprintf("%s (%s)", p.Name, p.ZoneID))
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
