package core

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"vaultsight-backend-go/internal/batch"
	"vaultsight-backend-go/internal/models"
)

// passwordHealthService implements the PasswordHealthService interface.
type passwordHealthService struct {
	estimator         StrengthEstimator
	oracle            BreachOracle
	weakThreshold     int
	oracleConcurrency int64
	batchSize         int
	logger            *zap.Logger
}

// NewPasswordHealthService creates a new PasswordHealthService instance.
// weakThreshold is the highest 0-4 score still considered weak;
// oracleConcurrency bounds in-flight breach-oracle calls; batchSize chunks
// the exposure audit inside AnalyzeHealth.
func NewPasswordHealthService(
	estimator StrengthEstimator,
	oracle BreachOracle,
	weakThreshold int,
	oracleConcurrency int,
	batchSize int,
	logger *zap.Logger,
) PasswordHealthService {
	if oracleConcurrency <= 0 {
		oracleConcurrency = 1
	}
	return &passwordHealthService{
		estimator:         estimator,
		oracle:            oracle,
		weakThreshold:     weakThreshold,
		oracleConcurrency: int64(oracleConcurrency),
		batchSize:         batchSize,
		logger:            logger,
	}
}

// IsValidForHealthCheck reports whether an item participates in health
// analysis: a non-deleted login item with a non-empty password the caller may
// view. Every other health operation silently skips items failing this
// predicate.
func (s *passwordHealthService) IsValidForHealthCheck(item models.VaultItem) bool {
	return item.Type == models.ItemTypeLogin &&
		item.Password != "" &&
		!item.Deleted &&
		item.ViewPassword
}

// scoreLabel maps the 0-4 strength score to its qualitative label.
func scoreLabel(score int) string {
	switch {
	case score >= 4:
		return "strong"
	case score == 3:
		return "good"
	case score == 2:
		return "weak"
	default:
		return "veryWeak"
	}
}

// usernameTokens derives auxiliary estimator inputs from a username: any
// "@domain" suffix is stripped, the rest is trimmed, lowercased, and split on
// non-alphanumeric boundaries.
func usernameTokens(username string) []string {
	if username == "" {
		return nil
	}
	if at := strings.IndexByte(username, '@'); at >= 0 {
		username = username[:at]
	}
	username = strings.ToLower(strings.TrimSpace(username))

	tokens := strings.FieldsFunc(username, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	return tokens
}

// FindWeakPassword scores an item's password and returns a finding when the
// score is at or below the weak threshold, nil otherwise. Items failing the
// validity predicate are skipped.
func (s *passwordHealthService) FindWeakPassword(item models.VaultItem) *models.WeakPasswordFinding {
	if !s.IsValidForHealthCheck(item) {
		return nil
	}

	score := s.estimator.Score(item.Password, item.Username, usernameTokens(item.Username))
	if score > s.weakThreshold {
		return nil
	}
	return &models.WeakPasswordFinding{
		ItemID: item.ID,
		Score:  score,
		Label:  scoreLabel(score),
	}
}

// fingerprint returns a stable, non-reversible grouping key for a plaintext
// password: SHA-256 truncated to 16 bytes. This is an in-memory dedup key for
// the lifetime of one report run, not a credential-storage hash.
func fingerprint(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:16])
}

// FindReusedPasswords flags every valid item whose password fingerprint is
// shared by at least two valid items. The result maps item id to reused.
func (s *passwordHealthService) FindReusedPasswords(items []models.VaultItem) map[string]bool {
	byFingerprint := make(map[string][]string)
	for _, item := range items {
		if !s.IsValidForHealthCheck(item) {
			continue
		}
		fp := fingerprint(item.Password)
		byFingerprint[fp] = append(byFingerprint[fp], item.ID)
	}

	reused := make(map[string]bool)
	for _, itemIDs := range byFingerprint {
		if len(itemIDs) < 2 {
			continue
		}
		for _, id := range itemIDs {
			reused[id] = true
		}
	}
	return reused
}

// auditBatch checks one batch of items against the oracle with bounded
// concurrency. A failing oracle call is logged and isolated; it never aborts
// the batch. Result order matches input order with non-exposed items dropped.
func (s *passwordHealthService) auditBatch(ctx context.Context, items []models.VaultItem) ([]models.ExposedPasswordFinding, error) {
	sem := semaphore.NewWeighted(s.oracleConcurrency)
	results := make([]*models.ExposedPasswordFinding, len(items))

	var wg sync.WaitGroup
	for i := range items {
		item := items[i]
		if !s.IsValidForHealthCheck(item) {
			continue
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			// Context cancelled; surface after in-flight checks drain.
			wg.Wait()
			return nil, err
		}
		wg.Add(1)
		go func(i int, item models.VaultItem) {
			defer wg.Done()
			defer sem.Release(1)

			count, err := s.oracle.CheckPasswordExposure(ctx, item.Password)
			if err != nil {
				s.logger.Warn("Breach oracle check failed for item, skipping",
					zap.String("itemId", item.ID),
					zap.Error(err))
				return
			}
			if count > 0 {
				results[i] = &models.ExposedPasswordFinding{ItemID: item.ID, ExposedCount: count}
			}
		}(i, item)
	}
	wg.Wait()

	findings := make([]models.ExposedPasswordFinding, 0, len(items))
	for _, f := range results {
		if f != nil {
			findings = append(findings, *f)
		}
	}
	return findings, nil
}

// AuditExposedPasswords checks every valid item against the breach oracle and
// returns only items with an exposure count above zero.
func (s *passwordHealthService) AuditExposedPasswords(ctx context.Context, items []models.VaultItem) []models.ExposedPasswordFinding {
	findings, err := s.auditBatch(ctx, items)
	if err != nil {
		s.logger.Warn("Exposure audit aborted", zap.Error(err))
		return findings
	}
	return findings
}

// AuditExposedPasswordsProgressive is the batched variant: it emits
// cumulative progress after every batchSize completions and a terminal
// complete record. Empty input short-circuits to an immediate complete
// emission. Cancellation surfaces as a terminal error state preserving all
// previously emitted findings.
func (s *passwordHealthService) AuditExposedPasswordsProgressive(ctx context.Context, items []models.VaultItem, batchSize int) <-chan batch.Progress[models.ExposedPasswordFinding] {
	return batch.Run(ctx, items, batchSize, func(ctx context.Context, chunk []models.VaultItem) ([]models.ExposedPasswordFinding, error) {
		return s.auditBatch(ctx, chunk)
	})
}

// AnalyzeHealth combines weak, reuse, and exposure signals into one finding
// per valid item. Items with no signal at all still appear with a zero-value
// finding so callers can join on the full valid set.
func (s *passwordHealthService) AnalyzeHealth(ctx context.Context, items []models.VaultItem) ([]models.PasswordHealthFinding, error) {
	valid := make([]models.VaultItem, 0, len(items))
	for _, item := range items {
		if s.IsValidForHealthCheck(item) {
			valid = append(valid, item)
		}
	}

	reused := s.FindReusedPasswords(valid)

	exposedCounts := make(map[string]int)
	for p := range s.AuditExposedPasswordsProgressive(ctx, valid, s.batchSize) {
		if p.State == batch.StateError {
			return nil, p.Err
		}
		if p.State == batch.StateComplete {
			for _, f := range p.Partial {
				exposedCounts[f.ItemID] = f.ExposedCount
			}
		}
	}

	findings := make([]models.PasswordHealthFinding, 0, len(valid))
	for _, item := range valid {
		findings = append(findings, models.PasswordHealthFinding{
			ItemID:         item.ID,
			WeakPassword:   s.FindWeakPassword(item),
			ReusedPassword: reused[item.ID],
			ExposedCount:   exposedCounts[item.ID],
		})
	}
	return findings, nil
}
