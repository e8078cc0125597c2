package workspace

import (
	"unicode/utf8"

	"github.com/huddle-chat/huddle/internal/apperr"
	"github.com/huddle-chat/huddle/internal/models"
	"github.com/huddle-chat/huddle/internal/store"
)

// Profile returns the user record behind uID. Any authenticated caller
// may look up any user.
func (w *Workspace) Profile(userID int64) (*models.User, error) {
	var out *models.User
	err := w.store.View(func(tx *store.Tx) error {
		u, err := knownUser(tx, userID)
		if err != nil {
			return err
		}
		cp := *u
		out = &cp
		return nil
	})
	return out, err
}

// SetName updates the actor's own first and last name.
func (w *Workspace) SetName(actor int64, firstName, lastName string) error {
	if err := validName("first", firstName); err != nil {
		return err
	}
	if err := validName("last", lastName); err != nil {
		return err
	}
	return w.store.Update(func(tx *store.Tx) error {
		u, err := knownUser(tx, actor)
		if err != nil {
			return err
		}
		u.FirstName = firstName
		u.LastName = lastName
		return nil
	})
}

// SetEmail updates the actor's email, keeping emails unique. The
// credential record moves with it so login keeps working.
func (w *Workspace) SetEmail(actor int64, email string) error {
	if err := validEmail(email); err != nil {
		return err
	}
	return w.store.Update(func(tx *store.Tx) error {
		if existing, taken := tx.UserByEmail(email); taken && existing.ID != actor {
			return apperr.Validation(apperr.CodeEmailTaken, "email %q is already taken", email)
		}
		u, err := knownUser(tx, actor)
		if err != nil {
			return err
		}
		if email == u.Email {
			return nil
		}
		if cred, ok := tx.Credential(u.Email); ok {
			tx.SetCredential(email, cred.PasswordHash)
			tx.DeleteCredential(u.Email)
		}
		u.Email = email
		return nil
	})
}

// SetHandle updates the actor's handle, keeping handles unique.
func (w *Workspace) SetHandle(actor int64, handle string) error {
	if n := utf8.RuneCountInString(handle); n < 2 || n > MaxHandleLen {
		return apperr.Validation(apperr.CodeInvalidInput, "handle must be between 2 and %d characters", MaxHandleLen)
	}
	return w.store.Update(func(tx *store.Tx) error {
		if existing, taken := tx.UserByHandle(handle); taken && existing.ID != actor {
			return apperr.Validation(apperr.CodeHandleTaken, "handle %q is already taken", handle)
		}
		u, err := knownUser(tx, actor)
		if err != nil {
			return err
		}
		u.Handle = handle
		return nil
	})
}

// UsersAll lists every user except terminated ones. Removed users stay
// in the table but disappear from the listing.
func (w *Workspace) UsersAll() ([]models.User, error) {
	var out []models.User
	err := w.store.View(func(tx *store.Tx) error {
		out = make([]models.User, 0)
		for _, u := range tx.Users() {
			if lvl, ok := tx.Permission(u.ID); ok && lvl == models.PermTerminated {
				continue
			}
			out = append(out, *u)
		}
		return nil
	})
	return out, err
}
