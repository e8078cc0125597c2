package workspace

import (
	"unicode/utf8"

	"github.com/huddle-chat/huddle/internal/apperr"
	"github.com/huddle-chat/huddle/internal/models"
	"github.com/huddle-chat/huddle/internal/store"
)

// ChannelDetails is the member-facing view of one channel.
type ChannelDetails struct {
	Name    string           `json:"name"`
	Owners  []models.Profile `json:"owner_members"`
	Members []models.Profile `json:"all_members"`
}

func channelState(tx *store.Tx, channelID int64) (*models.ChannelState, error) {
	cs, ok := tx.ChannelState(channelID)
	if !ok {
		return nil, apperr.Validation(apperr.CodeInvalidInput, "channel %d does not exist", channelID)
	}
	return cs, nil
}

func knownUser(tx *store.Tx, userID int64) (*models.User, error) {
	u, ok := tx.User(userID)
	if !ok {
		return nil, apperr.Validation(apperr.CodeInvalidInput, "user %d does not exist", userID)
	}
	return u, nil
}

// CreateChannel creates a channel and joins the creator, who bootstraps
// ownership through the empty-channel rule.
func (w *Workspace) CreateChannel(actor int64, name string, isPublic bool) (int64, error) {
	if utf8.RuneCountInString(name) > MaxChannelNameLen {
		return 0, apperr.Validation(apperr.CodeTooLong, "channel name exceeds %d characters", MaxChannelNameLen)
	}

	var channelID int64
	err := w.store.Update(func(tx *store.Tx) error {
		if _, err := knownUser(tx, actor); err != nil {
			return err
		}
		ch := tx.CreateChannel(name, isPublic)
		channelID = ch.ID

		// First joiner of an empty channel always owns it.
		cs, _ := tx.ChannelState(ch.ID)
		cs.MemberIDs = append(cs.MemberIDs, actor)
		cs.OwnerIDs = append(cs.OwnerIDs, actor)
		return nil
	})
	return channelID, err
}

// Join adds the actor to the channel. Empty channels bootstrap the joiner
// to owner; global owners bypass privacy and gain channel ownership;
// everyone else may only join public channels.
func (w *Workspace) Join(actor, channelID int64) error {
	return w.store.Update(func(tx *store.Tx) error {
		cs, err := channelState(tx, channelID)
		if err != nil {
			return err
		}
		if containsID(cs.MemberIDs, actor) {
			return apperr.Validation(apperr.CodeAlreadyMember, "user %d is already a member of channel %d", actor, channelID)
		}

		switch {
		case len(cs.MemberIDs) == 0:
			cs.MemberIDs = append(cs.MemberIDs, actor)
			cs.OwnerIDs = append(cs.OwnerIDs, actor)
		case tx.IsGlobalOwner(actor):
			cs.MemberIDs = append(cs.MemberIDs, actor)
			cs.OwnerIDs = append(cs.OwnerIDs, actor)
		case cs.IsPublic:
			cs.MemberIDs = append(cs.MemberIDs, actor)
		default:
			return apperr.Permission(apperr.CodePrivateChannel, "channel %d is private", channelID)
		}
		return tx.PutChannelState(cs)
	})
}

// Invite adds target to the channel regardless of its visibility; only
// current members may invite. Global-owner targets gain channel ownership
// immediately, mirroring the join rule.
func (w *Workspace) Invite(actor, channelID, target int64) error {
	return w.store.Update(func(tx *store.Tx) error {
		cs, err := channelState(tx, channelID)
		if err != nil {
			return err
		}
		if _, err := knownUser(tx, target); err != nil {
			return err
		}
		if !containsID(cs.MemberIDs, actor) {
			return apperr.Permission(apperr.CodeNotAMember, "user %d is not a member of channel %d", actor, channelID)
		}
		if containsID(cs.MemberIDs, target) {
			return apperr.Validation(apperr.CodeAlreadyMember, "user %d is already a member of channel %d", target, channelID)
		}

		cs.MemberIDs = append(cs.MemberIDs, target)
		if tx.IsGlobalOwner(target) {
			cs.OwnerIDs = append(cs.OwnerIDs, target)
		}
		return tx.PutChannelState(cs)
	})
}

// Leave removes the actor from the member set and, when held, the owner
// set. A channel may be left with no members and no owners at all; the
// next joiner bootstraps ownership again.
func (w *Workspace) Leave(actor, channelID int64) error {
	return w.store.Update(func(tx *store.Tx) error {
		cs, err := channelState(tx, channelID)
		if err != nil {
			return err
		}
		if !containsID(cs.MemberIDs, actor) {
			return apperr.Permission(apperr.CodeNotAMember, "user %d is not a member of channel %d", actor, channelID)
		}
		cs.MemberIDs = removeID(cs.MemberIDs, actor)
		cs.OwnerIDs = removeID(cs.OwnerIDs, actor)
		return tx.PutChannelState(cs)
	})
}

// AddOwner promotes target to channel owner. The actor must be a global
// owner or a channel owner. A target who is not a member is rejected
// outright: owners must come from the member set.
func (w *Workspace) AddOwner(actor, channelID, target int64) error {
	return w.store.Update(func(tx *store.Tx) error {
		cs, err := channelState(tx, channelID)
		if err != nil {
			return err
		}
		if _, err := knownUser(tx, target); err != nil {
			return err
		}
		if containsID(cs.OwnerIDs, target) {
			return apperr.Validation(apperr.CodeAlreadyOwner, "user %d already owns channel %d", target, channelID)
		}
		if !containsID(cs.MemberIDs, target) {
			return apperr.Validation(apperr.CodeTargetNotMember, "user %d is not a member of channel %d", target, channelID)
		}
		if !tx.IsGlobalOwner(actor) && !containsID(cs.OwnerIDs, actor) {
			return apperr.Permission(apperr.CodeNotAuthorized, "user %d is not an owner of channel %d or of the workspace", actor, channelID)
		}
		cs.OwnerIDs = append(cs.OwnerIDs, target)
		return tx.PutChannelState(cs)
	})
}

// RemoveOwner strips target's channel ownership. Global owners cannot be
// stripped this way.
func (w *Workspace) RemoveOwner(actor, channelID, target int64) error {
	return w.store.Update(func(tx *store.Tx) error {
		return removeOwnerLocked(tx, actor, channelID, target)
	})
}

// removeOwnerLocked is shared with the admin cascade, which runs several
// removals inside one Update.
func removeOwnerLocked(tx *store.Tx, actor, channelID, target int64) error {
	cs, err := channelState(tx, channelID)
	if err != nil {
		return err
	}
	if _, err := knownUser(tx, target); err != nil {
		return err
	}
	if tx.IsGlobalOwner(target) {
		return apperr.Permission(apperr.CodeTargetIsGlobalOwner, "user %d is a workspace owner and cannot lose channel ownership", target)
	}
	if !containsID(cs.OwnerIDs, target) {
		return apperr.Validation(apperr.CodeTargetNotOwner, "user %d is not an owner of channel %d", target, channelID)
	}
	if !tx.IsGlobalOwner(actor) && !containsID(cs.OwnerIDs, actor) {
		return apperr.Permission(apperr.CodeNotAuthorized, "user %d is not an owner of channel %d or of the workspace", actor, channelID)
	}
	cs.OwnerIDs = removeID(cs.OwnerIDs, target)
	return tx.PutChannelState(cs)
}

// Details returns the channel's name and member/owner profiles. Members
// only.
func (w *Workspace) Details(actor, channelID int64) (*ChannelDetails, error) {
	var details *ChannelDetails
	err := w.store.View(func(tx *store.Tx) error {
		cs, err := channelState(tx, channelID)
		if err != nil {
			return err
		}
		if !containsID(cs.MemberIDs, actor) {
			return apperr.Permission(apperr.CodeNotAMember, "user %d is not a member of channel %d", actor, channelID)
		}
		ch, _ := tx.Channel(channelID)

		details = &ChannelDetails{
			Name:    ch.Name,
			Owners:  make([]models.Profile, 0, len(cs.OwnerIDs)),
			Members: make([]models.Profile, 0, len(cs.MemberIDs)),
		}
		for _, id := range cs.OwnerIDs {
			if u, ok := tx.User(id); ok {
				details.Owners = append(details.Owners, models.ProfileOf(u))
			}
		}
		for _, id := range cs.MemberIDs {
			if u, ok := tx.User(id); ok {
				details.Members = append(details.Members, models.ProfileOf(u))
			}
		}
		return nil
	})
	return details, err
}

// ListChannels returns the channels the actor belongs to, in creation
// order.
func (w *Workspace) ListChannels(actor int64) ([]models.Channel, error) {
	var out []models.Channel
	err := w.store.View(func(tx *store.Tx) error {
		out = make([]models.Channel, 0)
		for _, ch := range tx.Channels() {
			cs, ok := tx.ChannelState(ch.ID)
			if ok && containsID(cs.MemberIDs, actor) {
				out = append(out, *ch)
			}
		}
		return nil
	})
	return out, err
}

// ListAllChannels returns every channel, public or private, in creation
// order.
func (w *Workspace) ListAllChannels() ([]models.Channel, error) {
	var out []models.Channel
	err := w.store.View(func(tx *store.Tx) error {
		out = make([]models.Channel, 0)
		for _, ch := range tx.Channels() {
			out = append(out, *ch)
		}
		return nil
	})
	return out, err
}

// IsMember reports channel membership. Used by the websocket hub to
// scope fan-out.
func (w *Workspace) IsMember(channelID, userID int64) bool {
	member := false
	_ = w.store.View(func(tx *store.Tx) error {
		if cs, ok := tx.ChannelState(channelID); ok {
			member = containsID(cs.MemberIDs, userID)
		}
		return nil
	})
	return member
}
