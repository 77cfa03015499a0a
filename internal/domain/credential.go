package domain

// Credential is the proof a caller presented to obtain editor capability.
// It is a closed set: TelegramVerified and DevPinOverride.
type Credential interface {
	// Kind names the variant, also used as the "kind" token claim.
	Kind() string
	isCredential()
}

// Credential kinds.
const (
	CredentialTelegram = "telegram"
	CredentialDevPin   = "dev_pin"
)

// TelegramVerified is a principal whose Telegram initData signature was checked.
type TelegramVerified struct {
	UserID int64
}

// Kind implements Credential.
func (TelegramVerified) Kind() string { return CredentialTelegram }

func (TelegramVerified) isCredential() {}

// DevPinOverride is the development-only bypass. It carries no identity.
type DevPinOverride struct{}

// Kind implements Credential.
func (DevPinOverride) Kind() string { return CredentialDevPin }

func (DevPinOverride) isCredential() {}
