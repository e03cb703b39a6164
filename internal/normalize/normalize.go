// Package normalize maps the upstream's heterogeneous JSON payloads into the
// canonical play history model. Every payload is classified into a known
// shape first and then converted by a total function for that shape.
package normalize

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"playdash/internal/core"
	"playdash/internal/log"
	"playdash/internal/observability"
)

// Endpoint paths, used to label errors, logs and metrics.
const (
	EndpointGames     = "/api/games"
	EndpointRecent    = "/api/recent_activities"
	EndpointHistory   = "/api/history"
	EndpointMonthly   = "/api/monthly_playtime"
	EndpointGameDaily = "/api/game/{id}/daily"
)

// Normalizer converts raw payloads into canonical records.
type Normalizer struct {
	origin *url.URL
	logger *log.Logger
}

// New creates a Normalizer qualifying relative image URLs against origin.
// An empty origin leaves relative URLs untouched.
func New(origin string, logger *log.Logger) (*Normalizer, error) {
	n := &Normalizer{logger: log.OrDiscard(logger)}
	if strings.TrimSpace(origin) != "" {
		u, err := url.Parse(origin)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("invalid image origin %q", origin)
		}
		n.origin = u
	}
	return n, nil
}

// Normalize builds a CanonicalDataset from the games and recent activity
// payloads. Both must parse; a malformed payload yields a ParseFailure and no
// partial dataset.
func (n *Normalizer) Normalize(games, recent []byte, now time.Time) (core.CanonicalDataset, error) {
	records, err := n.Games(games)
	if err != nil {
		return core.CanonicalDataset{}, err
	}
	groups, err := n.Recent(recent)
	if err != nil {
		return core.CanonicalDataset{}, err
	}
	return core.CanonicalDataset{
		PlayHistories:       records,
		RecentPlayHistories: groups,
		LastUpdatedAt:       now.UTC(),
	}, nil
}

// ResolveImage qualifies a relative image URL against the configured origin.
// Absolute URLs and empty strings are returned unchanged.
func (n *Normalizer) ResolveImage(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || n.origin == nil {
		return raw
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	if ref.IsAbs() {
		return raw
	}
	return n.origin.ResolveReference(ref).String()
}

func (n *Normalizer) mismatch(endpoint string, shape Shape, detail string) {
	observability.RecordShapeMismatch(endpoint)
	n.logger.Warn("Unrecognized payload shape, using fallback",
		log.FieldEndpoint, endpoint,
		log.FieldShape, shape.String(),
		"detail", detail)
}

func parseErr(endpoint string, err error) error {
	return core.NewParseError(endpoint, err)
}
