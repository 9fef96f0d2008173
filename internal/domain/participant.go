// Package domain contains entity without logic, just meta-data
package domain

import "strings"

const MaxIdentityLen = 64

// Identity is a participant's stable identifier, unique within a session.
type Identity string

type ParticipantKind int

const (
	KindLocal ParticipantKind = iota
	KindRemote
)

type Role string

const (
	RoleHuman Role = "human"
	RoleAgent Role = "agent"
)

// Participant is one endpoint visible within a session.
// Publications are kept separately, keyed by (identity, source).
type Participant struct {
	Identity  Identity        `json:"identity"`
	Name      string          `json:"name"`
	Kind      ParticipantKind `json:"-"`
	Role      Role            `json:"role"`
	Speaking  bool            `json:"speaking"`
	Connected bool            `json:"connected"`
}

// NewParticipant avoids raw literals in adapters and keeps construction obvious.
func NewParticipant(id Identity, name string, kind ParticipantKind) *Participant {
	return &Participant{
		Identity:  id,
		Name:      name,
		Kind:      kind,
		Role:      DeriveRole(id, kind),
		Connected: true,
	}
}

// DeriveRole classifies a participant as agent or human.
// Remote identities published by an automated pipeline carry an
// "agent" marker in their identity string.
func DeriveRole(id Identity, kind ParticipantKind) Role {
	if kind == KindLocal {
		return RoleHuman
	}
	lower := strings.ToLower(string(id))
	if strings.Contains(lower, "agent") || strings.Contains(lower, "avatar") {
		return RoleAgent
	}
	return RoleHuman
}
