// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package matchmaker

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/AccelByte/extend-arena-backend/pkg/collaborator"
	"github.com/AccelByte/extend-arena-backend/pkg/common"
	"github.com/AccelByte/extend-arena-backend/pkg/config"
	"github.com/AccelByte/extend-arena-backend/pkg/constants"
	"github.com/AccelByte/extend-arena-backend/pkg/envelope"
	"github.com/AccelByte/extend-arena-backend/pkg/models"
	"github.com/AccelByte/extend-arena-backend/pkg/utils"
)

// PartyChangeHook is called after a party gained or lost members or was disbanded, outside the party lock.
type PartyChangeHook func(scope *envelope.Scope, partyID string)

// PartyManager owns parties and invites.
type PartyManager struct {
	cfg      *config.Config
	notifier collaborator.Notifier
	now      func() time.Time
	onChange PartyChangeHook

	mu       sync.Mutex
	parties  map[string]*models.Party
	memberOf map[string]string
	invites  map[string]*models.PartyInvite
}

func NewPartyManager(cfg *config.Config, notifier collaborator.Notifier) *PartyManager {
	return &PartyManager{
		cfg:      cfg,
		notifier: notifier,
		now:      common.Now,
		parties:  make(map[string]*models.Party),
		memberOf: make(map[string]string),
		invites:  make(map[string]*models.PartyInvite),
	}
}

func (m *PartyManager) setChangeHook(hook PartyChangeHook) {
	m.onChange = hook
}

// CreateParty makes userID the leader of a new party.
func (m *PartyManager) CreateParty(rootScope *envelope.Scope, leaderID string) (models.Party, error) {
	scope := rootScope.NewChildScope("PartyManager.CreateParty")
	defer scope.Finish()

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.memberOf[leaderID]; ok {
		return models.Party{}, models.ErrAlreadyInParty
	}

	party := &models.Party{
		PartyID:   utils.GenerateUUID(),
		LeaderID:  leaderID,
		Members:   []string{leaderID},
		CreatedAt: m.now(),
	}
	m.parties[party.PartyID] = party
	m.memberOf[leaderID] = party.PartyID

	scope.Log.WithFields(logrus.Fields{"partyID": party.PartyID, "leaderID": leaderID}).Debug("party created")

	return copyParty(party), nil
}

// Invite sends an invitation from the party leader to inviteeID.
func (m *PartyManager) Invite(rootScope *envelope.Scope, partyID string, inviterID string, inviteeID string) (models.PartyInvite, error) {
	scope := rootScope.NewChildScope("PartyManager.Invite")
	defer scope.Finish()

	m.mu.Lock()
	party, ok := m.parties[partyID]
	if !ok {
		m.mu.Unlock()
		return models.PartyInvite{}, models.ErrPartyNotFound
	}
	if party.LeaderID != inviterID {
		m.mu.Unlock()
		return models.PartyInvite{}, models.ErrNotPartyLeader
	}
	if _, inParty := m.memberOf[inviteeID]; inParty {
		m.mu.Unlock()
		return models.PartyInvite{}, models.ErrAlreadyInParty
	}
	if len(party.Members) >= m.cfg.MaxPartySize {
		m.mu.Unlock()
		return models.PartyInvite{}, models.ErrPartyFull
	}

	invite := &models.PartyInvite{
		InviteID:  utils.GenerateUUID(),
		PartyID:   partyID,
		InviterID: inviterID,
		InviteeID: inviteeID,
		ExpiresAt: m.now().Add(m.cfg.PartyInviteTimeout),
	}
	m.invites[invite.InviteID] = invite
	m.mu.Unlock()

	collaborator.Notify(scope, m.notifier, inviteeID, constants.EventPartyInvite, *invite)

	return *invite, nil
}

// AcceptInvite adds the invitee to the party.
func (m *PartyManager) AcceptInvite(rootScope *envelope.Scope, inviteID string, userID string) (models.Party, error) {
	scope := rootScope.NewChildScope("PartyManager.AcceptInvite")
	defer scope.Finish()

	m.mu.Lock()
	invite, ok := m.invites[inviteID]
	if !ok || invite.InviteeID != userID {
		m.mu.Unlock()
		return models.Party{}, models.ErrInviteNotFound
	}
	delete(m.invites, inviteID)

	if !m.now().Before(invite.ExpiresAt) {
		m.mu.Unlock()
		return models.Party{}, models.ErrInviteNotFound
	}
	party, ok := m.parties[invite.PartyID]
	if !ok {
		m.mu.Unlock()
		return models.Party{}, models.ErrPartyNotFound
	}
	if _, inParty := m.memberOf[userID]; inParty {
		m.mu.Unlock()
		return models.Party{}, models.ErrAlreadyInParty
	}
	if len(party.Members) >= m.cfg.MaxPartySize {
		m.mu.Unlock()
		return models.Party{}, models.ErrPartyFull
	}

	party.Members = append(party.Members, userID)
	m.memberOf[userID] = party.PartyID
	snapshot := copyParty(party)
	m.mu.Unlock()

	for _, member := range snapshot.Members {
		collaborator.Notify(scope, m.notifier, member, constants.EventPartyJoined, snapshot)
	}
	// queued members were sized for the old roster
	m.changed(scope, snapshot.PartyID)

	return snapshot, nil
}

// LeaveParty removes userID from their party. A leaving leader disbands the party.
func (m *PartyManager) LeaveParty(rootScope *envelope.Scope, userID string) error {
	scope := rootScope.NewChildScope("PartyManager.LeaveParty")
	defer scope.Finish()

	m.mu.Lock()
	partyID, ok := m.memberOf[userID]
	if !ok {
		m.mu.Unlock()
		return models.ErrNotInParty
	}
	party := m.parties[partyID]

	if party.LeaderID == userID {
		members := party.Members
		m.disbandLocked(party)
		m.mu.Unlock()

		for _, member := range members {
			collaborator.Notify(scope, m.notifier, member, constants.EventPartyDisbanded, map[string]string{"partyId": partyID})
		}
		m.changed(scope, partyID)
		return nil
	}

	m.removeMemberLocked(party, userID)
	remaining := append([]string(nil), party.Members...)
	m.mu.Unlock()

	for _, member := range remaining {
		collaborator.Notify(scope, m.notifier, member, constants.EventPartyLeft, map[string]string{"partyId": partyID, "userId": userID})
	}
	m.changed(scope, partyID)
	return nil
}

// Kick removes memberID from the party, only the leader may kick.
func (m *PartyManager) Kick(rootScope *envelope.Scope, partyID string, leaderID string, memberID string) error {
	scope := rootScope.NewChildScope("PartyManager.Kick")
	defer scope.Finish()

	m.mu.Lock()
	party, ok := m.parties[partyID]
	if !ok {
		m.mu.Unlock()
		return models.ErrPartyNotFound
	}
	if party.LeaderID != leaderID || memberID == leaderID {
		m.mu.Unlock()
		return models.ErrNotPartyLeader
	}
	if !party.HasMember(memberID) {
		m.mu.Unlock()
		return models.ErrNotInParty
	}

	m.removeMemberLocked(party, memberID)
	remaining := append([]string(nil), party.Members...)
	m.mu.Unlock()

	collaborator.Notify(scope, m.notifier, memberID, constants.EventPartyKicked, map[string]string{"partyId": partyID})
	for _, member := range remaining {
		collaborator.Notify(scope, m.notifier, member, constants.EventPartyLeft, map[string]string{"partyId": partyID, "userId": memberID})
	}
	m.changed(scope, partyID)
	return nil
}

// Get returns a copy of the party.
func (m *PartyManager) Get(partyID string) (models.Party, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	party, ok := m.parties[partyID]
	if !ok {
		return models.Party{}, false
	}
	return copyParty(party), true
}

// PartyOf returns the party userID belongs to.
func (m *PartyManager) PartyOf(userID string) (models.Party, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	partyID, ok := m.memberOf[userID]
	if !ok {
		return models.Party{}, false
	}
	return copyParty(m.parties[partyID]), true
}

// ExpireInvites drops invites whose deadline passed and returns how many were dropped.
func (m *PartyManager) ExpireInvites(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	expired := 0
	for id, invite := range m.invites {
		if !now.Before(invite.ExpiresAt) {
			delete(m.invites, id)
			expired++
		}
	}
	return expired
}

func (m *PartyManager) removeMemberLocked(party *models.Party, userID string) {
	members := party.Members[:0]
	for _, member := range party.Members {
		if member != userID {
			members = append(members, member)
		}
	}
	party.Members = members
	delete(m.memberOf, userID)

	if len(party.Members) == 0 {
		m.disbandLocked(party)
	}
}

func (m *PartyManager) disbandLocked(party *models.Party) {
	for _, member := range party.Members {
		delete(m.memberOf, member)
	}
	for id, invite := range m.invites {
		if invite.PartyID == party.PartyID {
			delete(m.invites, id)
		}
	}
	delete(m.parties, party.PartyID)
}

func (m *PartyManager) changed(scope *envelope.Scope, partyID string) {
	if m.onChange != nil {
		m.onChange(scope, partyID)
	}
}

func copyParty(party *models.Party) models.Party {
	cp := *party
	cp.Members = append([]string(nil), party.Members...)
	return cp
}
