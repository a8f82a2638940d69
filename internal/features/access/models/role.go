package models

import (
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Role is a 32-byte role identifier in hex, as AccessControl contracts use.
type Role string

var (
	// RoleAdmin is DEFAULT_ADMIN_ROLE, the zero hash.
	RoleAdmin = Role(common.Hash{}.Hex())
	// RoleCampaignCreator is keccak256("CAMPAIGN_CREATOR_ROLE").
	RoleCampaignCreator = Role(crypto.Keccak256Hash([]byte("CAMPAIGN_CREATOR_ROLE")).Hex())
)

// Name returns the symbolic role name.
func (r Role) Name() string {
	switch r {
	case RoleAdmin:
		return "DEFAULT_ADMIN_ROLE"
	case RoleCampaignCreator:
		return "CAMPAIGN_CREATOR_ROLE"
	default:
		return string(r)
	}
}

// ParseRole accepts a hex role id or one of the symbolic names.
func ParseRole(s string) (Role, bool) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "admin", "default_admin_role":
		return RoleAdmin, true
	case "creator", "campaign_creator", "campaign_creator_role":
		return RoleCampaignCreator, true
	}
	if len(s) != 66 || !strings.HasPrefix(s, "0x") {
		return "", false
	}
	r := Role(common.HexToHash(s).Hex())
	if r == RoleAdmin || r == RoleCampaignCreator {
		return r, true
	}
	return "", false
}

// Operation names a mutating ledger operation for authorization.
type Operation string

const (
	OpCreateCampaign Operation = "create_campaign"
	OpDonate         Operation = "donate"
	OpWithdrawFunds  Operation = "withdraw_funds"
	OpDeleteCampaign Operation = "delete_campaign"
	OpGrantRole      Operation = "grant_role"
	OpRevokeRole     Operation = "revoke_role"
	OpTransferAdmin  Operation = "transfer_admin"
)

// RolesLockKey is the lock held while roles change. Campaign creation holds
// it too, so a create cannot commit after a revoke of its creator returned.
const RolesLockKey = "roles"

// Resource is the object an operation acts on. Owner is empty for
// operations that do not target a campaign.
type Resource struct {
	Owner string
}

// RoleAssignment is a row of the roles table.
// @Description Role membership of an address
type RoleAssignment struct {
	Address   string    `json:"address" gorm:"primaryKey;size:42"`
	Role      Role      `json:"role" gorm:"primaryKey;size:66"`
	GrantedBy string    `json:"granted_by" gorm:"size:42"`
	GrantedAt time.Time `json:"granted_at"`
}

func (RoleAssignment) TableName() string {
	return "roles"
}

// HasRoleResponse is returned by the hasRole query.
// @Description hasRole query result
type HasRoleResponse struct {
	Role     Role   `json:"role"`
	RoleName string `json:"role_name"`
	Address  string `json:"address"`
	HasRole  bool   `json:"has_role"`
}

// AddressRequest carries a target address.
// @Description Target account
type AddressRequest struct {
	Address string `json:"address" binding:"required" example:"0xC63Ee3b2ceF4857ba3EA8256F41d073C88696F99"`
}
