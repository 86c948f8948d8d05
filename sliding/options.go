package sliding

import (
	"math/rand/v2"

	"github.com/keilerkonzept/ams"
)

type Option func(*Sketch)

func WithDepth(depth int) Option { return func(s *Sketch) { s.Depth = depth } }

func WithWidth(width int) Option { return func(s *Sketch) { s.Width = width } }

func WithHash(h ams.HashFunc) Option { return func(s *Sketch) { s.Hash = h } }

func WithRand(r *rand.Rand) Option { return func(s *Sketch) { s.rand = r } }

// WithHistoryLength sets the number of time slots each counter keeps.
func WithHistoryLength(n int) Option {
	return func(s *Sketch) { s.HistoryLength = n }
}
