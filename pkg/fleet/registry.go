// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package fleet

import (
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/AccelByte/extend-arena-backend/pkg/common"
	"github.com/AccelByte/extend-arena-backend/pkg/config"
	"github.com/AccelByte/extend-arena-backend/pkg/envelope"
	"github.com/AccelByte/extend-arena-backend/pkg/metrics"
	"github.com/AccelByte/extend-arena-backend/pkg/models"
)

// FailureHandler takes over the matches of a server that went away.
type FailureHandler interface {
	ServerFailed(scope *envelope.Scope, serverID string, matchIDs []string)
}

// SweepInfo reports one heartbeat sweep.
type SweepInfo struct {
	Timestamp        time.Time
	MarkedOffline    []string
	MatchesHandedOff int
	Evicted          []string
}

// Registry owns the server node table.
type Registry struct {
	cfg      *config.Config
	metrics  metrics.ArenaMetrics
	selector *Selector
	handler  FailureHandler
	now      func() time.Time

	mu    sync.Mutex
	nodes map[string]*models.ServerNode
}

func NewRegistry(cfg *config.Config, arenaMetrics metrics.ArenaMetrics) *Registry {
	return &Registry{
		cfg:      cfg,
		metrics:  arenaMetrics,
		selector: NewSelector(cfg.Tables.Selector),
		now:      common.Now,
		nodes:    make(map[string]*models.ServerNode),
	}
}

// SetFailureHandler wires the component that migrates or ends the matches of failed servers.
func (r *Registry) SetFailureHandler(handler FailureHandler) {
	r.handler = handler
}

func (r *Registry) SetClock(now func() time.Time) {
	r.now = now
}

// Register adds a node. A node that went offline may register again under the same id.
func (r *Registry) Register(rootScope *envelope.Scope, desc models.ServerDescriptor) (models.ServerNode, error) {
	scope := rootScope.NewChildScope("Registry.Register")
	defer scope.Finish()

	scope.SetAttributes(envelope.ServerIDTag, desc.ServerID)

	if desc.Capacity == 0 {
		desc.Capacity = r.cfg.MaxPlayersPerServer
	}
	if err := desc.Validate(); err != nil {
		return models.ServerNode{}, err
	}

	now := r.now()

	r.mu.Lock()
	if existing, ok := r.nodes[desc.ServerID]; ok && existing.Status == models.ServerStatusOnline {
		r.mu.Unlock()
		return models.ServerNode{}, models.ErrServerRegistered
	}
	node := &models.ServerNode{
		ServerID:      desc.ServerID,
		Name:          desc.Name,
		Address:       desc.Address,
		Port:          desc.Port,
		Region:        desc.Region,
		Capacity:      desc.Capacity,
		Status:        models.ServerStatusOnline,
		LastHeartbeat: now,
		Load:          models.LoadSample{Timestamp: now},
		HostedMatches: make(map[string]struct{}),
		RegisteredAt:  now,
	}
	r.nodes[desc.ServerID] = node
	snapshot := node.Copy()
	r.mu.Unlock()

	scope.Log.WithFields(logrus.Fields{
		"serverID": desc.ServerID,
		"region":   desc.Region,
		"capacity": desc.Capacity,
		"address":  desc.Address,
	}).Info("game server registered")
	r.reportOnline()

	return snapshot, nil
}

// Unregister removes a node and hands its matches to the failure handler, like a timeout would.
// It reports whether the node was known.
func (r *Registry) Unregister(rootScope *envelope.Scope, serverID string) bool {
	scope := rootScope.NewChildScope("Registry.Unregister")
	defer scope.Finish()

	scope.SetAttributes(envelope.ServerIDTag, serverID)

	r.mu.Lock()
	node, ok := r.nodes[serverID]
	if !ok {
		r.mu.Unlock()
		return false
	}
	delete(r.nodes, serverID)
	hosted := hostedMatchIDs(node)
	r.mu.Unlock()

	scope.Log.WithFields(logrus.Fields{
		"serverID":      serverID,
		"hostedMatches": len(hosted),
	}).Info("game server unregistered")

	r.handOff(scope, serverID, hosted)
	r.reportOnline()
	return true
}

// Heartbeat refreshes the liveness and load of a node.
func (r *Registry) Heartbeat(rootScope *envelope.Scope, serverID string, load models.LoadSample) error {
	scope := rootScope.NewChildScope("Registry.Heartbeat")
	defer scope.Finish()

	now := r.now()
	if load.Timestamp.IsZero() {
		load.Timestamp = now
	}

	r.mu.Lock()
	node, ok := r.nodes[serverID]
	if !ok {
		r.mu.Unlock()
		return models.ErrServerNotFound
	}
	revived := node.Status == models.ServerStatusOffline
	node.LastHeartbeat = now
	node.Status = models.ServerStatusOnline
	node.OfflineSince = time.Time{}
	node.Load = load
	r.mu.Unlock()

	if revived {
		scope.Log.WithField("serverID", serverID).Info("game server back online")
		r.reportOnline()
	}
	return nil
}

// Sweep marks nodes without a heartbeat for longer than the server timeout offline and hands their
// matches to the failure handler before returning. Nodes offline for longer than the eviction delay
// are removed.
func (r *Registry) Sweep(rootScope *envelope.Scope, now time.Time) SweepInfo {
	scope := rootScope.NewChildScope("Registry.Sweep")
	defer scope.Finish()

	info := SweepInfo{Timestamp: now}
	handOffs := make(map[string][]string)

	r.mu.Lock()
	for id, node := range r.nodes {
		if node.Status == models.ServerStatusOffline {
			if r.cfg.ServerEvictAfter > 0 && now.Sub(node.OfflineSince) > r.cfg.ServerEvictAfter {
				delete(r.nodes, id)
				info.Evicted = append(info.Evicted, id)
			}
			continue
		}
		if now.Sub(node.LastHeartbeat) <= r.cfg.ServerTimeout {
			continue
		}

		node.Status = models.ServerStatusOffline
		node.OfflineSince = now
		handOffs[id] = hostedMatchIDs(node)
		node.HostedMatches = make(map[string]struct{})
		node.CurrentPlayers = 0
		info.MarkedOffline = append(info.MarkedOffline, id)
	}
	r.mu.Unlock()

	sort.Strings(info.MarkedOffline)
	sort.Strings(info.Evicted)

	for _, id := range info.MarkedOffline {
		scope.Log.WithFields(logrus.Fields{
			"serverID":      id,
			"hostedMatches": len(handOffs[id]),
		}).Warn("game server missed its heartbeat, marked offline")

		r.handOff(scope, id, handOffs[id])
		info.MatchesHandedOff += len(handOffs[id])
	}

	if len(info.MarkedOffline) > 0 || len(info.Evicted) > 0 {
		r.reportOnline()
	}
	return info
}

// Allocate picks a node for matchID and reserves seats on it.
func (r *Registry) Allocate(rootScope *envelope.Scope, matchID string, req SelectRequest) (models.ServerEndpoint, error) {
	scope := rootScope.NewChildScope("Registry.Allocate")
	defer scope.Finish()

	scope.SetAttributes(envelope.MatchIDTag, matchID)
	scope.SetAttributes(envelope.RegionTag, req.Region)

	r.mu.Lock()
	node, ok := r.selector.Select(r.nodeList(), req)
	if !ok {
		r.mu.Unlock()
		scope.Log.WithFields(logrus.Fields{
			"region":       req.Region,
			"gameMode":     req.GameMode,
			"seats":        req.Seats,
			"requireEmpty": req.RequireEmpty,
		}).Info("no game server available")
		return models.ServerEndpoint{}, models.ErrCapacityExhausted
	}
	node.HostedMatches[matchID] = struct{}{}
	node.CurrentPlayers += req.Seats
	endpoint := node.Endpoint()
	r.mu.Unlock()

	scope.SetAttributes(envelope.ServerIDTag, endpoint.ServerID)
	return endpoint, nil
}

// Release frees the seats of matchID. Releasing a match the node does not host is a no-op.
func (r *Registry) Release(rootScope *envelope.Scope, serverID string, matchID string, seats int) {
	scope := rootScope.NewChildScope("Registry.Release")
	defer scope.Finish()

	r.mu.Lock()
	defer r.mu.Unlock()

	node, ok := r.nodes[serverID]
	if !ok {
		return
	}
	if _, hosted := node.HostedMatches[matchID]; !hosted {
		return
	}
	delete(node.HostedMatches, matchID)
	node.CurrentPlayers = max(0, node.CurrentPlayers-seats)
}

// Vacate frees seats of a match that keeps running on the node, after a player was removed from it.
func (r *Registry) Vacate(rootScope *envelope.Scope, serverID string, matchID string, seats int) {
	scope := rootScope.NewChildScope("Registry.Vacate")
	defer scope.Finish()

	r.mu.Lock()
	defer r.mu.Unlock()

	node, ok := r.nodes[serverID]
	if !ok {
		return
	}
	if _, hosted := node.HostedMatches[matchID]; hosted {
		node.CurrentPlayers = max(0, node.CurrentPlayers-seats)
	}
}

// Get returns a copy of the node.
func (r *Registry) Get(serverID string) (models.ServerNode, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	node, ok := r.nodes[serverID]
	if !ok {
		return models.ServerNode{}, false
	}
	return node.Copy(), true
}

// List returns copies of every node ordered by id.
func (r *Registry) List() []models.ServerNode {
	r.mu.Lock()
	defer r.mu.Unlock()

	nodes := make([]models.ServerNode, 0, len(r.nodes))
	for _, node := range r.nodeList() {
		nodes = append(nodes, node.Copy())
	}
	return nodes
}

func (r *Registry) Stats() models.FleetStats {
	r.mu.Lock()
	defer r.mu.Unlock()

	stats := models.FleetStats{
		Total:    len(r.nodes),
		ByRegion: make(map[string]int),
	}
	for _, node := range r.nodes {
		stats.ByRegion[node.Region]++
		if node.Status == models.ServerStatusOffline {
			stats.Offline++
			continue
		}
		stats.Online++
		stats.TotalPlayers += node.CurrentPlayers
		stats.Capacity += node.Capacity
		stats.ActiveMatch += len(node.HostedMatches)
	}
	return stats
}

// nodeList returns the nodes ordered by id, the caller holds the lock.
func (r *Registry) nodeList() []*models.ServerNode {
	nodes := make([]*models.ServerNode, 0, len(r.nodes))
	for _, node := range r.nodes {
		nodes = append(nodes, node)
	}
	sort.Slice(nodes, func(i, j int) bool {
		return nodes[i].ServerID < nodes[j].ServerID
	})
	return nodes
}

func (r *Registry) handOff(scope *envelope.Scope, serverID string, matchIDs []string) {
	if len(matchIDs) == 0 {
		return
	}
	if r.handler == nil {
		scope.Log.WithField("serverID", serverID).Warn("no failure handler configured, hosted matches dropped")
		return
	}
	r.handler.ServerFailed(scope, serverID, matchIDs)
}

func (r *Registry) reportOnline() {
	online := make(map[string]int)

	r.mu.Lock()
	for _, region := range r.cfg.Tables.Regions {
		online[region] = 0
	}
	for _, node := range r.nodes {
		if node.Status == models.ServerStatusOnline {
			online[node.Region]++
		}
	}
	r.mu.Unlock()

	for region, count := range online {
		r.metrics.ServersOnline(region, count)
	}
}

func hostedMatchIDs(node *models.ServerNode) []string {
	ids := make([]string, 0, len(node.HostedMatches))
	for id := range node.HostedMatches {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
