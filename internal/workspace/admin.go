package workspace

import (
	"github.com/huddle-chat/huddle/internal/apperr"
	"github.com/huddle-chat/huddle/internal/models"
	"github.com/huddle-chat/huddle/internal/store"
)

// ChangePermission overwrites target's workspace-wide grade. Only global
// owners may change grades, TERMINATED is not grantable, and the last
// remaining owner cannot demote themself.
func (w *Workspace) ChangePermission(actor, target int64, level models.PermLevel) error {
	return w.store.Update(func(tx *store.Tx) error {
		if _, err := knownUser(tx, target); err != nil {
			return err
		}
		if !level.Grantable() {
			return apperr.Validation(apperr.CodeInvalidLevel, "%d does not refer to a grantable permission level", level)
		}
		if !tx.IsGlobalOwner(actor) {
			return apperr.Permission(apperr.CodeNotAuthorized, "user %d is not a workspace owner", actor)
		}
		if actor == target && level != models.PermOwner && tx.CountGlobalOwners() == 1 {
			return apperr.Permission(apperr.CodeSoleOwner, "the only workspace owner cannot demote themself")
		}
		tx.SetPermission(target, level)
		return nil
	})
}

// RemoveUser soft-removes target: permission becomes TERMINATED, every
// channel role is stripped, and the active session dies. The user record
// and all authored messages survive untouched — removed from the
// workspace is not erased from it.
func (w *Workspace) RemoveUser(actor, target int64) error {
	return w.store.Update(func(tx *store.Tx) error {
		if _, err := knownUser(tx, target); err != nil {
			return err
		}
		if !tx.IsGlobalOwner(actor) {
			return apperr.Permission(apperr.CodeNotAuthorized, "user %d is not a workspace owner", actor)
		}

		// Terminate first: removeOwnerLocked refuses to strip global
		// owners, and after this write the target no longer is one.
		tx.SetPermission(target, models.PermTerminated)

		for _, ch := range tx.Channels() {
			cs, ok := tx.ChannelState(ch.ID)
			if !ok {
				return apperr.NotFound("channel %d has no state", ch.ID)
			}
			if containsID(cs.OwnerIDs, target) {
				if err := removeOwnerLocked(tx, actor, ch.ID, target); err != nil {
					return err
				}
			}
			if containsID(cs.MemberIDs, target) {
				cs.MemberIDs = removeID(cs.MemberIDs, target)
				if err := tx.PutChannelState(cs); err != nil {
					return err
				}
			}
		}

		tx.DeleteSessionByUser(target)
		return nil
	})
}
