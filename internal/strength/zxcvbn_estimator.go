// Package strength adapts the zxcvbn estimator to the 0-4 password score
// contract used by the health analyzer.
package strength

import "github.com/nbutton23/zxcvbn-go"

// ZxcvbnEstimator scores passwords with zxcvbn, feeding the account email and
// username-derived tokens in as user inputs so passwords built from them
// score lower.
type ZxcvbnEstimator struct{}

// NewZxcvbnEstimator creates a new ZxcvbnEstimator.
func NewZxcvbnEstimator() *ZxcvbnEstimator {
	return &ZxcvbnEstimator{}
}

// Score returns the 0-4 strength score for a password.
func (e *ZxcvbnEstimator) Score(password, email string, userInputs []string) int {
	inputs := make([]string, 0, len(userInputs)+1)
	if email != "" {
		inputs = append(inputs, email)
	}
	inputs = append(inputs, userInputs...)

	return zxcvbn.PasswordStrength(password, inputs).Score
}
