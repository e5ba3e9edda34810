package handlers

import (
	"context"
	"fmt"
	"regexp"

	"github.com/chimchimster/balance-bot/auth"
	"github.com/chimchimster/balance-bot/keyboards"
	"github.com/chimchimster/balance-bot/mail"
	"github.com/chimchimster/balance-bot/session"
	"github.com/chimchimster/balance-bot/storage"
)

// Scratch keys of the registration and restore flows. All of them are pruned
// when the chat returns to the hub.
const (
	dataFirstName   = "first_name"
	dataLastName    = "last_name"
	dataEmail       = "email"
	dataPassword    = "password"
	dataRestoreCode = "restore_pwd_code"
	dataRestorePwd  = "restore_pwd"
)

// inviteRegistration greets an unregistered user and parks the chat at the
// registration gate.
func (d *Deps) inviteRegistration(_ context.Context, sc *session.Scope) error {
	sc.ReplyText("Welcome! You are not registered yet.", keyboards.Registration())
	sc.Transition(session.RootToRegistration)
	return nil
}

// startRegistration waits for the register button and opens the flow.
func (d *Deps) startRegistration(_ context.Context, sc *session.Scope) error {
	if sc.Event.Kind != session.KindCallback || sc.Event.CallbackKey != keyboards.KeyToRegistration {
		sc.ReplyText("Tap the button below to register.", keyboards.Registration())
		return nil
	}
	sc.ReplyText("Enter your first name:")
	sc.Transition(session.RegistrationInputFirstName)
	return nil
}

// inputField is the shared shape of the registration input steps: validate,
// store, advance; on failure re-prompt without advancing.
func inputField(sc *session.Scope, pattern *regexp.Regexp,
	key string, next session.State, okPrompt, errPrompt string) error {

	value := sc.Event.Input()
	if !pattern.MatchString(value) {
		sc.ReplyText(errPrompt)
		return nil
	}
	if err := sc.State.SetData(key, value); err != nil {
		return err
	}
	sc.ReplyText(okPrompt)
	sc.Transition(next)
	return nil
}

func (d *Deps) inputFirstName(_ context.Context, sc *session.Scope) error {
	return inputField(sc, nameRe, dataFirstName, session.RegistrationInputLastName,
		"Enter your last name:", "Please enter your real first name.")
}

func (d *Deps) inputLastName(_ context.Context, sc *session.Scope) error {
	return inputField(sc, nameRe, dataLastName, session.RegistrationInputEmail,
		"Enter a valid email. It will be used to restore access to the store.",
		"Please enter your real last name.")
}

func (d *Deps) inputEmail(_ context.Context, sc *session.Scope) error {
	return inputField(sc, emailRe, dataEmail, session.RegistrationInputPassword,
		"Choose a password. It will be used to sign in to the store.",
		"Please enter an existing email address.")
}

const passwordRules = "The password must be 8 to 16 characters long and may contain " +
	"latin letters, digits and special characters."

func (d *Deps) inputPassword(_ context.Context, sc *session.Scope) error {
	return inputField(sc, passwordRe, dataPassword, session.RegistrationInputPasswordConfirmation,
		"Repeat the password:", passwordRules)
}

func (d *Deps) inputPasswordConfirmation(_ context.Context, sc *session.Scope) error {
	value := sc.Event.Input()
	if !passwordRe.MatchString(value) {
		sc.ReplyText(passwordRules)
		return nil
	}
	if value != sc.State.GetString(dataPassword) {
		sc.ReplyText("The passwords do not match. Try the password again:")
		sc.Transition(session.RegistrationInputPassword)
		return nil
	}
	sc.ReplyText("Confirm the entered data?", keyboards.ConfirmChoice())
	sc.Transition(session.RegistrationConfirm)
	return nil
}

// confirmRegistration creates the user and credential in one transaction,
// marks the fresh login in the cache and lands the chat at the hub.
func (d *Deps) confirmRegistration(ctx context.Context, sc *session.Scope) error {
	switch sc.Event.Input() {
	case "yes":
	case "no":
		sc.ReplyText("Too bad... maybe /start another time?")
		sc.ResetToHub()
		return nil
	default:
		sc.ReplyText("Confirm the entered data?", keyboards.ConfirmChoice())
		return nil
	}

	_, err := d.Store.CreateUser(ctx, storage.NewUser{
		TgID:      sc.Event.UserID,
		FirstName: sc.State.GetString(dataFirstName),
		LastName:  sc.State.GetString(dataLastName),
		Email:     sc.State.GetString(dataEmail),
		Password:  sc.State.GetString(dataPassword),
	})
	if storage.IsConflict(err) {
		sc.ReplyText("Looks like you are already registered. Enter your password:", keyboards.RestorePassword())
		sc.Transition(session.RootToAuthentication)
		return nil
	}
	if err != nil {
		return err
	}

	if err := d.Resolver.MarkAuthenticated(ctx, sc.Event.UserID, auth.SynthesizeFingerprint()); err != nil {
		return err
	}

	sc.ReplyText("Registration complete!", keyboards.MainMenu(d.SupportURL))
	sc.ResetToHub()
	return nil
}

// askPassword is the NotAuthenticated guard redirect.
func (d *Deps) askPassword(_ context.Context, sc *session.Scope) error {
	sc.ReplyText("Hi! Enter your password to sign in:", keyboards.RestorePassword())
	sc.Transition(session.RootToAuthentication)
	return nil
}

// authenticate verifies the typed password. A wrong password re-prompts the
// same state; a correct one opens the freshness window and shows the hub.
func (d *Deps) authenticate(ctx context.Context, sc *session.Scope) error {
	pwd := sc.Event.Input()
	if !passwordRe.MatchString(pwd) {
		sc.ReplyText("That doesn't look like a valid password, maybe a typo? Try again!",
			keyboards.RestorePassword())
		return nil
	}

	userID, err := d.userID(ctx, sc)
	if err != nil {
		if storage.IsNotFound(err) {
			sc.ReplyText("No such user exists...", keyboards.Registration())
			return nil
		}
		return err
	}

	ok, err := d.Store.VerifyPassword(ctx, userID, pwd)
	if err != nil {
		return err
	}
	if !ok {
		sc.ReplyText("Wrong password. Try again!", keyboards.RestorePassword())
		return nil
	}

	if err := d.Resolver.MarkAuthenticated(ctx, sc.Event.UserID, auth.SynthesizeFingerprint()); err != nil {
		return err
	}
	sc.ReplyText("Welcome back!", keyboards.MainMenu(d.SupportURL))
	sc.ResetToHub()
	return nil
}

// beginRestore mails a one-time code and enters the restore flow. Legal from
// any state while unauthenticated.
func (d *Deps) beginRestore(ctx context.Context, sc *session.Scope) error {
	userID, err := d.userID(ctx, sc)
	if err != nil {
		if storage.IsNotFound(err) {
			sc.ReplyText("We could not find your account. Please contact support!")
			return nil
		}
		return err
	}
	user, err := d.Store.FetchUser(ctx, userID)
	if err != nil {
		return err
	}
	if !user.Email.Valid || user.Email.String == "" {
		sc.ReplyText("We could not find your email. Please contact support!",
			keyboards.RestorePassword())
		return nil
	}

	code := mail.GenerateRestoreCode()
	if err := sc.State.SetData(dataRestoreCode, code); err != nil {
		return err
	}
	d.sendRestoreMail(user.Email.String, code)

	sc.ReplyText("We sent a secret code to the email you registered with.\nEnter the code from the letter:",
		keyboards.RefuseRestore())
	sc.Transition(session.RestoreInit)
	return nil
}

// refuseRestore abandons restore and returns to the password prompt.
func (d *Deps) refuseRestore(_ context.Context, sc *session.Scope) error {
	sc.State.DeleteData(dataRestoreCode)
	sc.State.DeleteData(dataRestorePwd)
	sc.ReplyText("Enter your password to sign in:", keyboards.RestorePassword())
	sc.Transition(session.RootToAuthentication)
	return nil
}

func (d *Deps) validateRestoreCode(_ context.Context, sc *session.Scope) error {
	if sc.Event.Input() != sc.State.GetString(dataRestoreCode) {
		sc.ReplyText("That code is wrong! Want to try again?", keyboards.RefuseRestore())
		return nil
	}
	sc.ReplyText("Enter a new password:")
	sc.Transition(session.RestoreNewPassword)
	return nil
}

func (d *Deps) restoreNewPassword(_ context.Context, sc *session.Scope) error {
	value := sc.Event.Input()
	if !passwordRe.MatchString(value) {
		sc.ReplyText(passwordRules, keyboards.RefuseRestore())
		return nil
	}
	if err := sc.State.SetData(dataRestorePwd, value); err != nil {
		return err
	}
	sc.ReplyText("Repeat the new password:", keyboards.RefuseRestore())
	sc.Transition(session.RestoreNewPasswordConfirmation)
	return nil
}

// restoreConfirmPassword commits the new credential and sends the user back
// to the password prompt to sign in with it.
func (d *Deps) restoreConfirmPassword(ctx context.Context, sc *session.Scope) error {
	if sc.Event.Input() != sc.State.GetString(dataRestorePwd) {
		sc.ReplyText("The passwords do not match. Want to try again?", keyboards.RefuseRestore())
		return nil
	}

	userID, err := d.userID(ctx, sc)
	if err != nil {
		return err
	}
	if err := d.Store.SetCredential(ctx, userID, sc.State.GetString(dataRestorePwd)); err != nil {
		return err
	}

	sc.State.DeleteData(dataRestoreCode)
	sc.State.DeleteData(dataRestorePwd)
	sc.ReplyText("Password updated! Enter it to sign in:", keyboards.RestorePassword())
	sc.Transition(session.RootToAuthentication)
	return nil
}

// sendRestoreMail fires the restore letter off the handler goroutine;
// delivery failures are logged by the mail package, not surfaced here.
func (d *Deps) sendRestoreMail(recipient, code string) {
	body := fmt.Sprintf(
		"You are seeing this message because someone is trying to restore access to your account!\n\n"+
			"Your code: %s", code)
	mail.SendAsync(d.Mail, recipient, "Password restore (Balance bot)", body)
}
