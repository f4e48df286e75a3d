// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package fleet

import (
	"github.com/elliotchance/pie/v2"

	"github.com/AccelByte/extend-arena-backend/pkg/config"
	"github.com/AccelByte/extend-arena-backend/pkg/models"
)

// SelectRequest describes the server a match needs.
type SelectRequest struct {
	Region       string
	GameMode     string
	Seats        int
	RequireEmpty bool

	// SameRegionOnly disables the fallback to other regions, migrations stay in their region.
	SameRegionOnly bool
	Exclude        string
}

// Selector scores online nodes, the lowest score wins.
type Selector struct {
	weights config.SelectorWeights
}

func NewSelector(weights config.SelectorWeights) *Selector {
	return &Selector{weights: weights}
}

// Score is cpu, memory and network load plus the fill ratio of the node, with a penalty when the node
// is outside the requested region.
func (s *Selector) Score(node *models.ServerNode, region string) float64 {
	score := s.weights.CPU*node.Load.CPU + s.weights.Memory*node.Load.Memory + s.weights.Network*node.Load.Network
	if node.Capacity > 0 {
		score += s.weights.Capacity * (float64(node.CurrentPlayers) / float64(node.Capacity)) * s.weights.CapacityScale
	}
	if node.Region != region {
		score += s.weights.RegionPenalty
	}
	return score
}

// Select returns the best node for req. Nodes of the requested region are preferred, other regions
// are only considered when none of them qualifies.
func (s *Selector) Select(nodes []*models.ServerNode, req SelectRequest) (*models.ServerNode, bool) {
	candidates := pie.Filter(nodes, func(n *models.ServerNode) bool {
		return n.Region == req.Region && eligible(n, req)
	})
	if len(candidates) == 0 && !req.SameRegionOnly {
		candidates = pie.Filter(nodes, func(n *models.ServerNode) bool {
			return eligible(n, req)
		})
	}
	if len(candidates) == 0 {
		return nil, false
	}

	var best *models.ServerNode
	bestScore := 0.0
	for _, node := range candidates {
		score := s.Score(node, req.Region)
		if best == nil || score < bestScore || (score == bestScore && node.ServerID < best.ServerID) {
			best = node
			bestScore = score
		}
	}
	return best, true
}

func eligible(node *models.ServerNode, req SelectRequest) bool {
	if node.Status != models.ServerStatusOnline || node.ServerID == req.Exclude {
		return false
	}
	if req.RequireEmpty && (node.CurrentPlayers > 0 || len(node.HostedMatches) > 0) {
		return false
	}
	return node.FreeSeats() >= req.Seats
}
