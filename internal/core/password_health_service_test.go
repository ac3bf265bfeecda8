package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"vaultsight-backend-go/internal/batch"
	"vaultsight-backend-go/internal/models"
)

// stubEstimator returns canned scores per password; unknown passwords score 4.
type stubEstimator struct {
	scores map[string]int
}

func (s *stubEstimator) Score(password, _ string, _ []string) int {
	if score, ok := s.scores[password]; ok {
		return score
	}
	return 4
}

// stubOracle returns canned exposure counts and per-password failures.
type stubOracle struct {
	counts map[string]int
	fails  map[string]error
	calls  int
}

func (s *stubOracle) CheckPasswordExposure(_ context.Context, password string) (int, error) {
	s.calls++
	if err, ok := s.fails[password]; ok {
		return 0, err
	}
	return s.counts[password], nil
}

func loginItem(id, password string) models.VaultItem {
	return models.VaultItem{
		ID:           id,
		Type:         models.ItemTypeLogin,
		Password:     password,
		ViewPassword: true,
	}
}

func newHealthService(est StrengthEstimator, oracle BreachOracle) PasswordHealthService {
	return NewPasswordHealthService(est, oracle, 2, 10, 500, zap.NewNop())
}

// TestIsValidForHealthCheck covers each exclusion independently.
func TestIsValidForHealthCheck(t *testing.T) {
	svc := newHealthService(&stubEstimator{}, &stubOracle{})

	assert.True(t, svc.IsValidForHealthCheck(loginItem("a", "pw")))

	note := loginItem("b", "pw")
	note.Type = models.ItemTypeSecureNote
	assert.False(t, svc.IsValidForHealthCheck(note))

	empty := loginItem("c", "")
	assert.False(t, svc.IsValidForHealthCheck(empty))

	deleted := loginItem("d", "pw")
	deleted.Deleted = true
	assert.False(t, svc.IsValidForHealthCheck(deleted))

	hidden := loginItem("e", "pw")
	hidden.ViewPassword = false
	assert.False(t, svc.IsValidForHealthCheck(hidden))
}

// TestFindWeakPassword_ThresholdAndLabels verifies the score threshold and
// the qualitative labels.
func TestFindWeakPassword_ThresholdAndLabels(t *testing.T) {
	est := &stubEstimator{scores: map[string]int{
		"terrible": 0,
		"bad":      1,
		"meh":      2,
		"fine":     3,
		"great":    4,
	}}
	svc := newHealthService(est, &stubOracle{})

	weak := svc.FindWeakPassword(loginItem("a", "terrible"))
	require.NotNil(t, weak)
	assert.Equal(t, "veryWeak", weak.Label)

	weak = svc.FindWeakPassword(loginItem("b", "bad"))
	require.NotNil(t, weak)
	assert.Equal(t, "veryWeak", weak.Label)

	weak = svc.FindWeakPassword(loginItem("c", "meh"))
	require.NotNil(t, weak)
	assert.Equal(t, "weak", weak.Label)
	assert.Equal(t, 2, weak.Score)

	assert.Nil(t, svc.FindWeakPassword(loginItem("d", "fine")), "score above threshold is not weak")
	assert.Nil(t, svc.FindWeakPassword(loginItem("e", "great")))

	invalid := loginItem("f", "terrible")
	invalid.Deleted = true
	assert.Nil(t, svc.FindWeakPassword(invalid), "invalid items are skipped")
}

// TestUsernameTokens verifies the estimator input derivation: domain
// stripped, lowercased, split on non-alphanumeric boundaries.
func TestUsernameTokens(t *testing.T) {
	assert.Equal(t, []string{"jane", "doe"}, usernameTokens("Jane.Doe@example.com"))
	assert.Equal(t, []string{"jdoe42"}, usernameTokens("  jdoe42  "))
	assert.Equal(t, []string{"first", "last"}, usernameTokens("first_last"))
	assert.Nil(t, usernameTokens(""))
	assert.Empty(t, usernameTokens("@example.com"))
}

// TestFindReusedPasswords verifies only fingerprints shared by two or more
// valid items are flagged.
func TestFindReusedPasswords(t *testing.T) {
	svc := newHealthService(&stubEstimator{}, &stubOracle{})

	deletedDup := loginItem("d", "shared")
	deletedDup.Deleted = true

	items := []models.VaultItem{
		loginItem("a", "shared"),
		loginItem("b", "shared"),
		loginItem("c", "unique"),
		deletedDup,
	}

	reused := svc.FindReusedPasswords(items)
	assert.True(t, reused["a"])
	assert.True(t, reused["b"])
	assert.False(t, reused["c"])
	assert.False(t, reused["d"], "invalid items never count toward reuse")
}

// TestAuditExposedPasswords verifies only exposed items are reported and that
// a failing oracle call is isolated to its item.
func TestAuditExposedPasswords(t *testing.T) {
	oracle := &stubOracle{
		counts: map[string]int{"leaked": 12, "clean": 0},
		fails:  map[string]error{"flaky": errors.New("oracle timeout")},
	}
	svc := newHealthService(&stubEstimator{}, oracle)

	items := []models.VaultItem{
		loginItem("a", "leaked"),
		loginItem("b", "clean"),
		loginItem("c", "flaky"),
	}

	findings := svc.AuditExposedPasswords(context.Background(), items)
	require.Len(t, findings, 1)
	assert.Equal(t, "a", findings[0].ItemID)
	assert.Equal(t, 12, findings[0].ExposedCount)
}

// TestAuditExposedPasswordsProgressive verifies 600 items at a batch size of
// 500 produce at least two non-terminal emissions before the terminal
// complete record.
func TestAuditExposedPasswordsProgressive(t *testing.T) {
	oracle := &stubOracle{counts: map[string]int{"leaked": 3}}
	svc := newHealthService(&stubEstimator{}, oracle)

	items := make([]models.VaultItem, 600)
	for i := range items {
		password := "clean"
		if i == 0 {
			password = "leaked"
		}
		items[i] = loginItem(string(rune(i)), password)
	}

	var emissions []batch.Progress[models.ExposedPasswordFinding]
	for p := range svc.AuditExposedPasswordsProgressive(context.Background(), items, 500) {
		emissions = append(emissions, p)
	}

	require.Len(t, emissions, 3)
	assert.Equal(t, batch.StateRunning, emissions[0].State)
	assert.Equal(t, batch.StateRunning, emissions[1].State)

	final := emissions[2]
	assert.Equal(t, batch.StateComplete, final.State)
	assert.Equal(t, 600, final.ProcessedCount)
	require.Len(t, final.Partial, 1)
	assert.Equal(t, 3, final.Partial[0].ExposedCount)
}

// TestAnalyzeHealth verifies the three signals join into one finding per
// valid item.
func TestAnalyzeHealth(t *testing.T) {
	est := &stubEstimator{scores: map[string]int{"weakpw": 1}}
	oracle := &stubOracle{counts: map[string]int{"leaked": 7}}
	svc := newHealthService(est, oracle)

	deleted := loginItem("x", "whatever")
	deleted.Deleted = true

	items := []models.VaultItem{
		loginItem("a", "weakpw"),
		loginItem("b", "leaked"),
		loginItem("c", "dup"),
		loginItem("d", "dup"),
		loginItem("e", "solid-and-unique"),
		deleted,
	}

	findings, err := svc.AnalyzeHealth(context.Background(), items)
	require.NoError(t, err)
	require.Len(t, findings, 5, "invalid items yield no finding")

	byID := make(map[string]models.PasswordHealthFinding)
	for _, f := range findings {
		byID[f.ItemID] = f
	}

	require.NotNil(t, byID["a"].WeakPassword)
	assert.True(t, byID["a"].AtRisk())

	assert.Equal(t, 7, byID["b"].ExposedCount)
	assert.True(t, byID["b"].AtRisk())

	assert.True(t, byID["c"].ReusedPassword)
	assert.True(t, byID["d"].ReusedPassword)

	clean := byID["e"]
	assert.Nil(t, clean.WeakPassword)
	assert.False(t, clean.ReusedPassword)
	assert.Equal(t, 0, clean.ExposedCount)
	assert.False(t, clean.AtRisk())
}
