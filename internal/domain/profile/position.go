package profile

import "strings"

// SourcePosition is a position label tagged with the source that produced it.
// Only the variants declared in this package satisfy it.
type SourcePosition interface {
	Label() string
	Origin() Source
	priority() int
}

type StructuredPosition string

type ProfilePosition string

type StatsPosition string

func (p StructuredPosition) Label() string  { return strings.TrimSpace(string(p)) }
func (p StructuredPosition) Origin() Source { return SourceStructured }
func (StructuredPosition) priority() int    { return 0 }

func (p ProfilePosition) Label() string  { return strings.TrimSpace(string(p)) }
func (p ProfilePosition) Origin() Source { return SourcePage }
func (ProfilePosition) priority() int    { return 1 }

func (p StatsPosition) Label() string  { return strings.TrimSpace(string(p)) }
func (p StatsPosition) Origin() Source { return SourceStats }
func (StatsPosition) priority() int    { return 2 }

// ResolvePosition picks the label from the highest priority variant:
// structured, then profile page, then statistics table. Blank labels are
// skipped. It returns nil when nothing usable was supplied.
func ResolvePosition(candidates ...SourcePosition) SourcePosition {
	var best SourcePosition
	for _, item := range candidates {
		if item == nil || item.Label() == "" {
			continue
		}
		if best == nil || item.priority() < best.priority() {
			best = item
		}
	}
	return best
}
