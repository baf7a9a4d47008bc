// Package policy provides authorization decisions for QuestForge operations.
//
// Each action is granted by a fixed set of facts about the caller; handlers
// resolve the facts through a Checker and never compare roles inline.
package policy

// Action represents a policy decision for an operation.
type Action int

const (
	// ActionViewCampaign covers reading a campaign and its dependent records.
	ActionViewCampaign Action = iota + 1
	// ActionManageCampaign covers updating, deleting and inviting to a campaign.
	ActionManageCampaign
	// ActionManageContent covers NPC, item, session and media writes.
	ActionManageContent
	// ActionRemoveMember removes a membership; members may remove themselves.
	ActionRemoveMember
	// ActionViewCharacter covers reading a character.
	ActionViewCharacter
	// ActionManageCharacter covers character writes and inventory.
	ActionManageCharacter
	// ActionRunConsole runs administrative console commands.
	ActionRunConsole
)

var actionNames = map[Action]string{
	ActionViewCampaign:    "view_campaign",
	ActionManageCampaign:  "manage_campaign",
	ActionManageContent:   "manage_content",
	ActionRemoveMember:    "remove_member",
	ActionViewCharacter:   "view_character",
	ActionManageCharacter: "manage_character",
	ActionRunConsole:      "run_console",
}

func (a Action) String() string {
	if n, ok := actionNames[a]; ok {
		return n
	}
	return "unknown"
}

// Facts describe the caller's relation to the target of an operation.
type Facts struct {
	OwnsCampaign bool // caller is the campaign's game master
	IsMember     bool // caller holds an accepted membership
	IsAdmin      bool
	IsSelf       bool // caller is the subject (character player or removed user)
}

type grant uint8

const (
	byOwner grant = 1 << iota
	byMember
	byAdmin
	bySelf
)

var rules = map[Action]grant{
	ActionViewCampaign:    byOwner | byMember | byAdmin,
	ActionManageCampaign:  byOwner | byAdmin,
	ActionManageContent:   byOwner | byAdmin,
	ActionRemoveMember:    byOwner | byAdmin | bySelf,
	ActionViewCharacter:   bySelf | byOwner | byMember | byAdmin,
	ActionManageCharacter: bySelf | byOwner | byAdmin,
	ActionRunConsole:      byAdmin,
}

// Can reports whether any of the facts grants the action. Unknown actions
// are never granted.
func Can(f Facts, action Action) bool {
	g := rules[action]
	return (f.OwnsCampaign && g&byOwner != 0) ||
		(f.IsMember && g&byMember != 0) ||
		(f.IsAdmin && g&byAdmin != 0) ||
		(f.IsSelf && g&bySelf != 0)
}
