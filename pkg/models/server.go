// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package models

import (
	"fmt"
	"time"

	validator "github.com/AccelByte/justice-input-validation-go"
	"github.com/mitchellh/copystructure"
	"github.com/sirupsen/logrus"
)

type ServerStatus string

const (
	ServerStatusOnline  ServerStatus = "online"
	ServerStatusOffline ServerStatus = "offline"
)

// ServerDescriptor is sent by a game server when it registers.
type ServerDescriptor struct {
	ServerID string `json:"serverId" valid:"required,stringlength(1|128)"`
	Name     string `json:"name"     optional:"true"`
	Address  string `json:"address"  valid:"required,stringlength(1|253)"`
	Port     int    `json:"port"     valid:"required,range(1|65535)"`
	Region   string `json:"region"   valid:"required,stringlength(1|64)"`
	Capacity int    `json:"capacity" valid:"range(0|1024)"`
}

func (d ServerDescriptor) Validate() error {
	if _, err := validator.ValidateStruct(d); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidServer, err.Error())
	}
	return nil
}

// LoadSample is the load reported with a heartbeat. Values are percentages.
type LoadSample struct {
	CPU       float64   `json:"cpu"`
	Memory    float64   `json:"memory"`
	Network   float64   `json:"network"`
	Timestamp time.Time `json:"timestamp"`
}

// ServerNode is the registry view of a game server.
type ServerNode struct {
	ServerID       string              `json:"serverId"`
	Name           string              `json:"name"`
	Address        string              `json:"address"`
	Port           int                 `json:"port"`
	Region         string              `json:"region"`
	Capacity       int                 `json:"capacity"`
	CurrentPlayers int                 `json:"currentPlayers"`
	Status         ServerStatus        `json:"status"`
	LastHeartbeat  time.Time           `json:"lastHeartbeat"`
	OfflineSince   time.Time           `json:"offlineSince,omitempty"`
	Load           LoadSample          `json:"load"`
	HostedMatches  map[string]struct{} `json:"hostedMatches"`
	RegisteredAt   time.Time           `json:"registeredAt"`
}

// Endpoint returns the connect info of the node.
func (n *ServerNode) Endpoint() ServerEndpoint {
	return ServerEndpoint{ServerID: n.ServerID, Name: n.Name, Address: n.Address, Port: n.Port}
}

func (n ServerNode) Copy() ServerNode {
	copied, err := copystructure.Copy(n)
	if err != nil {
		logrus.Warn("failed copy server node:", err)
	}
	node, _ := copied.(ServerNode)
	return node
}

// FreeSeats returns how many more players the node can take.
func (n *ServerNode) FreeSeats() int {
	return n.Capacity - n.CurrentPlayers
}

// FleetStats summarizes the registry.
type FleetStats struct {
	Total        int            `json:"total"`
	Online       int            `json:"online"`
	Offline      int            `json:"offline"`
	TotalPlayers int            `json:"totalPlayers"`
	Capacity     int            `json:"capacity"`
	ActiveMatch  int            `json:"activeMatches"`
	ByRegion     map[string]int `json:"byRegion"`
}
