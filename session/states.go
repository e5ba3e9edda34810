package session

import "strings"

// State identifies one step of a conversational flow. The empty state means
// the chat has no flow in progress and events fall through to the hub.
type State string

const StateIdle State = ""

// Flow prefixes. A state belongs to exactly one flow, encoded as "<flow>:<step>".
const (
	FlowRoot         = "root"
	FlowRegistration = "registration"
	FlowRestore      = "restore"
	FlowAddress      = "address"
	FlowPayment      = "payment"
)

const (
	RootToRegistration   State = "root:to_registration"
	RootToAuthentication State = "root:to_authentication"
	RootToApplication    State = "root:to_application"

	RegistrationInputFirstName            State = "registration:input_first_name"
	RegistrationInputLastName             State = "registration:input_last_name"
	RegistrationInputEmail                State = "registration:input_email"
	RegistrationInputPassword             State = "registration:input_password"
	RegistrationInputPasswordConfirmation State = "registration:input_password_confirmation"
	RegistrationConfirm                   State = "registration:confirm"

	RestoreInit                    State = "restore:init"
	RestoreNewPassword             State = "restore:new_password"
	RestoreNewPasswordConfirmation State = "restore:new_password_confirmation"

	AddressRegion    State = "address:region"
	AddressCity      State = "address:city"
	AddressStreet    State = "address:street"
	AddressApartment State = "address:apartment"
	AddressState     State = "address:state"
	AddressPostCode  State = "address:post_code"
	AddressPhone     State = "address:phone"

	PaymentStarted State = "payment:started"
)

// Flow returns the flow prefix of the state, or "" for StateIdle.
func (s State) Flow() string {
	raw := string(s)
	if i := strings.IndexByte(raw, ':'); i >= 0 {
		return raw[:i]
	}
	return raw
}

func (s State) InFlow(flow string) bool { return s.Flow() == flow }

// IsHub reports whether the state is the steady post-auth state (or no state
// at all), i.e. the chat is not inside a multi-step flow.
func (s State) IsHub() bool { return s == StateIdle || s == RootToApplication }
