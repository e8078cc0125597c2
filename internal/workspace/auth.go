package workspace

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/huddle-chat/huddle/internal/apperr"
	"github.com/huddle-chat/huddle/internal/models"
	"github.com/huddle-chat/huddle/internal/store"
	"github.com/huddle-chat/huddle/internal/token"
)

const (
	minPasswordLen = 6
	maxNameLen     = 50
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9.!#$%&'*+/=?^_` + "`" + `{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)+$`)

// AuthResult is returned by Register and Login.
type AuthResult struct {
	UserID int64  `json:"u_id"`
	Token  string `json:"token"`
}

func validEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return apperr.Validation(apperr.CodeInvalidInput, "%q is not a valid email address", email)
	}
	return nil
}

// validName bounds a first or last name. Lengths throughout the engine
// count characters, not bytes.
func validName(field, name string) error {
	if n := utf8.RuneCountInString(name); n < 1 || n > maxNameLen {
		return apperr.Validation(apperr.CodeInvalidInput, "%s name must be between 1 and %d characters", field, maxNameLen)
	}
	return nil
}

// deriveHandle builds first+last lowercased, capped at MaxHandleLen, then
// resolves collisions by appending an incrementing numeric suffix,
// truncating the base to leave room for it. Truncation works on runes so
// multibyte names are never cut mid-sequence.
func deriveHandle(tx *store.Tx, firstName, lastName string) string {
	base := []rune(strings.ToLower(firstName) + strings.ToLower(lastName))
	if len(base) > MaxHandleLen {
		base = base[:MaxHandleLen]
	}

	handle := string(base)
	for n := 0; ; n++ {
		if _, taken := tx.UserByHandle(handle); !taken {
			return handle
		}
		suffix := fmt.Sprintf("%d", n)
		trimmed := base
		if len(trimmed)+len(suffix) > MaxHandleLen {
			trimmed = trimmed[:MaxHandleLen-len(suffix)]
		}
		handle = string(trimmed) + suffix
	}
}

// Register creates the user, its permission record and credential, and
// logs it straight in. The first human registrant becomes the global
// owner; system accounts in the reserved range do not count.
func (w *Workspace) Register(email, password, firstName, lastName string) (*AuthResult, error) {
	if err := validEmail(email); err != nil {
		return nil, err
	}
	if len(password) < minPasswordLen {
		return nil, apperr.Validation(apperr.CodeInvalidInput, "password must be at least %d characters", minPasswordLen)
	}
	if err := validName("first", firstName); err != nil {
		return nil, err
	}
	if err := validName("last", lastName); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	var userID int64
	err = w.store.Update(func(tx *store.Tx) error {
		if _, taken := tx.UserByEmail(email); taken {
			return apperr.Validation(apperr.CodeEmailTaken, "email %q is already registered", email)
		}

		firstHuman := true
		for _, u := range tx.Users() {
			if u.ID < models.SystemIDBase {
				firstHuman = false
				break
			}
		}

		userID = tx.GenerateUserID()
		tx.PutUser(&models.User{
			ID:        userID,
			Email:     email,
			FirstName: firstName,
			LastName:  lastName,
			Handle:    deriveHandle(tx, firstName, lastName),
		})
		if firstHuman {
			tx.SetPermission(userID, models.PermOwner)
		} else {
			tx.SetPermission(userID, models.PermMember)
		}
		tx.SetCredential(email, string(hash))
		return nil
	})
	if err != nil {
		return nil, err
	}

	return w.Login(email, password)
}

// Login checks the credentials and opens the user's single session. A
// terminated account fails with a permission error, never "unknown
// account": the credential record outlives the removal.
func (w *Workspace) Login(email, password string) (*AuthResult, error) {
	if err := validEmail(email); err != nil {
		return nil, err
	}

	var (
		userID int64
		hash   string
	)
	err := w.store.View(func(tx *store.Tx) error {
		cred, ok := tx.Credential(email)
		if !ok {
			return apperr.Validation(apperr.CodeBadCredentials, "the email you entered is incorrect")
		}
		u, ok := tx.UserByEmail(email)
		if !ok {
			return apperr.NotFound("credential for %q has no user record", email)
		}
		if lvl, ok := tx.Permission(u.ID); ok && lvl == models.PermTerminated {
			return apperr.Permission(apperr.CodeTerminated, "this account has been removed from the workspace")
		}
		if _, active := tx.SessionByUser(u.ID); active {
			return apperr.Permission(apperr.CodeAlreadyLoggedIn, "cannot login when already logged in")
		}
		userID = u.ID
		hash = cred.PasswordHash
		return nil
	})
	if err != nil {
		return nil, err
	}

	// bcrypt comparison stays outside the store lock.
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return nil, apperr.Validation(apperr.CodeBadCredentials, "the password you entered is incorrect")
	}

	tok, err := token.Mint(userID, w.jwtSecret, w.sessionTTL)
	if err != nil {
		return nil, err
	}

	err = w.store.Update(func(tx *store.Tx) error {
		// Re-check under the write lock: a concurrent login may have won.
		if _, active := tx.SessionByUser(userID); active {
			return apperr.Permission(apperr.CodeAlreadyLoggedIn, "cannot login when already logged in")
		}
		tx.PutSession(userID, tok)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &AuthResult{UserID: userID, Token: tok}, nil
}

// Logout destroys the session owning the token. Reports whether a
// session was actually destroyed.
func (w *Workspace) Logout(tok string) bool {
	removed := false
	_ = w.store.Update(func(tx *store.Tx) error {
		removed = tx.DeleteSessionByToken(tok)
		return nil
	})
	return removed
}

// ResolveToken maps a bearer token to a user id. The signature and
// expiry check weeds out forged and stale tokens before the session
// table, which stays the authority on live sessions, is consulted.
func (w *Workspace) ResolveToken(tok string) (int64, error) {
	claimedID, err := token.Verify(tok, w.jwtSecret)
	if err != nil {
		return 0, apperr.Permission(apperr.CodeBadToken, "token is invalid or expired")
	}

	var userID int64
	err = w.store.View(func(tx *store.Tx) error {
		sess, ok := tx.SessionByToken(tok)
		if !ok || sess.UserID != claimedID {
			return apperr.Permission(apperr.CodeBadToken, "token does not belong to an active session")
		}
		userID = sess.UserID
		return nil
	})
	return userID, err
}

// RequestPasswordReset generates and emails a reset code. Unknown emails
// are silently ignored so the endpoint leaks nothing about registration.
func (w *Workspace) RequestPasswordReset(email string) error {
	code := uuid.NewString()

	known := false
	err := w.store.Update(func(tx *store.Tx) error {
		if _, ok := tx.Credential(email); !ok {
			return nil
		}
		known = true
		tx.PutResetCode(email, code)
		return nil
	})
	if err != nil || !known {
		return err
	}

	if w.mailer == nil {
		w.log.Warn("no mailer configured; reset code not delivered", zap.String("email", email))
		return nil
	}
	if err := w.mailer.SendResetCode(email, code); err != nil {
		w.log.Error("send reset code", zap.String("email", email), zap.Error(err))
	}
	return nil
}

// ResetPassword redeems a reset code. Codes are single use.
func (w *Workspace) ResetPassword(code, newPassword string) error {
	if len(newPassword) < minPasswordLen {
		return apperr.Validation(apperr.CodeInvalidInput, "password must be at least %d characters", minPasswordLen)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return w.store.Update(func(tx *store.Tx) error {
		rc, ok := tx.ResetCode(code)
		if !ok {
			return apperr.Validation(apperr.CodeBadResetCode, "the reset code you entered is invalid")
		}
		tx.SetCredential(rc.Email, string(hash))
		tx.DeleteResetCode(code)
		return nil
	})
}
