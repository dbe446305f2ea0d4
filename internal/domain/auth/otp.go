package auth

import (
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// Signup verification codes are time-based one-time passwords with a long
// window, delivered by email rather than an authenticator app.
var signupOTPOpts = totp.ValidateOpts{
	Period:    600,
	Skew:      1,
	Digits:    otp.DigitsSix,
	Algorithm: otp.AlgorithmSHA1,
}

func NewOTPSecret(accountEmail string) (string, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      "HRMS",
		AccountName: accountEmail,
		Period:      signupOTPOpts.Period,
		Digits:      signupOTPOpts.Digits,
	})
	if err != nil {
		return "", err
	}
	return key.Secret(), nil
}

func GenerateOTPCode(secret string, at time.Time) (string, error) {
	return totp.GenerateCodeCustom(secret, at, signupOTPOpts)
}

func ValidateOTPCode(code, secret string, at time.Time) bool {
	ok, err := totp.ValidateCustom(code, secret, at, signupOTPOpts)
	return err == nil && ok
}
