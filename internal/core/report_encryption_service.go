package core

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"vaultsight-backend-go/internal/crypto"
	"vaultsight-backend-go/internal/models"
)

// Custom errors for the ReportEncryptionService.
var (
	// ErrReportValidation marks decrypted content that fails structural
	// validation. Unlike transient failures it is deliberately loud: it may
	// indicate data corruption or tampering and is never coerced into a
	// default value.
	ErrReportValidation = errors.New("report data validation failed: possible corruption or tampering")
	ErrKeyUnavailable   = errors.New("failed to obtain report content key")
)

// reportEncryptionService implements the ReportEncryptionService interface.
// Each report section is encrypted independently under one content key so a
// marker-only update never re-encrypts the large report section; the content
// key itself is wrapped by the per-organization key derived from the master
// key.
type reportEncryptionService struct {
	masterKey []byte
	logger    *zap.Logger
}

// NewReportEncryptionService creates a new ReportEncryptionService instance
// from the base64-encoded 32-byte master key.
func NewReportEncryptionService(masterKeyBase64 string, logger *zap.Logger) (ReportEncryptionService, error) {
	masterKey, err := base64.StdEncoding.DecodeString(masterKeyBase64)
	if err != nil {
		return nil, fmt.Errorf("failed to decode master encryption key: %w", err)
	}
	if len(masterKey) != 32 {
		return nil, fmt.Errorf("master encryption key must be 32 bytes, got %d", len(masterKey))
	}
	return &reportEncryptionService{masterKey: masterKey, logger: logger}, nil
}

func (s *reportEncryptionService) contentKey(orgID, wrappedKey string) (key []byte, wrapped string, err error) {
	orgKey, err := crypto.DeriveOrgKey(s.masterKey, orgID)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrKeyUnavailable, err)
	}

	if wrappedKey == "" {
		key, err = crypto.GenerateContentKey()
		if err != nil {
			return nil, "", fmt.Errorf("%w: %v", ErrKeyUnavailable, err)
		}
		wrapped, err = crypto.WrapKey(key, orgKey)
		if err != nil {
			return nil, "", fmt.Errorf("%w: %v", ErrKeyUnavailable, err)
		}
		return key, wrapped, nil
	}

	key, err = crypto.UnwrapKey(wrappedKey, orgKey)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrKeyUnavailable, err)
	}
	return key, wrappedKey, nil
}

// EncryptReportBundle encrypts all three sections. When wrappedKey is empty a
// fresh content key is generated; otherwise the existing key is unwrapped and
// reused.
func (s *reportEncryptionService) EncryptReportBundle(orgID string, bundle models.DecryptedReportBundle, wrappedKey string) (*EncryptedReportSections, error) {
	key, wrapped, err := s.contentKey(orgID, wrappedKey)
	if err != nil {
		return nil, err
	}

	encReport, err := encryptJSON(bundle.ReportData, key)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt report data: %w", err)
	}
	encSummary, err := encryptJSON(bundle.SummaryData, key)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt summary data: %w", err)
	}
	encApps, err := encryptJSON(bundle.ApplicationData, key)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt application data: %w", err)
	}

	return &EncryptedReportSections{
		WrappedKey:               wrapped,
		EncryptedReportData:      encReport,
		EncryptedSummaryData:     encSummary,
		EncryptedApplicationData: encApps,
	}, nil
}

// EncryptSection encrypts one section under an existing wrapped content key.
func (s *reportEncryptionService) EncryptSection(orgID string, wrappedKey string, section interface{}) (string, error) {
	if wrappedKey == "" {
		return "", fmt.Errorf("%w: no wrapped key for section update", ErrKeyUnavailable)
	}
	key, _, err := s.contentKey(orgID, wrappedKey)
	if err != nil {
		return "", err
	}
	return encryptJSON(section, key)
}

// DecryptReportBundle decrypts and validates all three sections of a
// persisted report. Empty sections decrypt to their zero defaults; content
// that decrypts but fails shape validation raises ErrReportValidation.
func (s *reportEncryptionService) DecryptReportBundle(orgID string, report *models.RiskInsightsReport) (models.DecryptedReportBundle, error) {
	var bundle models.DecryptedReportBundle
	if report == nil {
		return bundle, errors.New("report cannot be nil for DecryptReportBundle")
	}

	orgKey, err := crypto.DeriveOrgKey(s.masterKey, orgID)
	if err != nil {
		return bundle, fmt.Errorf("%w: %v", ErrKeyUnavailable, err)
	}
	key, err := crypto.UnwrapKey(report.ContentEncryptionKey, orgKey)
	if err != nil {
		return bundle, fmt.Errorf("%w: %v", ErrKeyUnavailable, err)
	}

	bundle.ReportData, err = s.decryptReportData(report.EncryptedReportData, key)
	if err != nil {
		return models.DecryptedReportBundle{}, err
	}
	bundle.SummaryData, err = s.decryptSummaryData(report.EncryptedSummaryData, key)
	if err != nil {
		return models.DecryptedReportBundle{}, err
	}
	bundle.ApplicationData, err = s.decryptApplicationData(report.EncryptedApplicationData, key)
	if err != nil {
		return models.DecryptedReportBundle{}, err
	}

	return bundle, nil
}

func (s *reportEncryptionService) decryptReportData(encrypted string, key []byte) ([]models.ApplicationHealthReportDetail, error) {
	if encrypted == "" {
		return []models.ApplicationHealthReportDetail{}, nil
	}

	var details []models.ApplicationHealthReportDetail
	if err := decryptJSON(encrypted, key, &details); err != nil {
		s.logger.Error("Failed to decrypt report data section", zap.Error(err))
		return nil, fmt.Errorf("%w: report data: %v", ErrReportValidation, err)
	}
	for i := range details {
		if err := validateApplicationDetail(&details[i]); err != nil {
			s.logger.Error("Report data section failed validation", zap.Error(err))
			return nil, fmt.Errorf("%w: %v", ErrReportValidation, err)
		}
	}
	return details, nil
}

func (s *reportEncryptionService) decryptSummaryData(encrypted string, key []byte) (models.OrganizationReportSummary, error) {
	var summary models.OrganizationReportSummary
	if encrypted == "" {
		return summary, nil
	}

	if err := decryptJSON(encrypted, key, &summary); err != nil {
		s.logger.Error("Failed to decrypt summary data section", zap.Error(err))
		return summary, fmt.Errorf("%w: summary data: %v", ErrReportValidation, err)
	}
	if err := validateSummary(&summary); err != nil {
		s.logger.Error("Summary data section failed validation", zap.Error(err))
		return models.OrganizationReportSummary{}, fmt.Errorf("%w: %v", ErrReportValidation, err)
	}
	return summary, nil
}

func (s *reportEncryptionService) decryptApplicationData(encrypted string, key []byte) ([]models.ReportApplication, error) {
	if encrypted == "" {
		return []models.ReportApplication{}, nil
	}

	var apps []models.ReportApplication
	if err := decryptJSON(encrypted, key, &apps); err != nil {
		s.logger.Error("Failed to decrypt application data section", zap.Error(err))
		return nil, fmt.Errorf("%w: application data: %v", ErrReportValidation, err)
	}
	for i := range apps {
		if apps[i].ApplicationName == "" {
			s.logger.Error("Application data section failed validation: empty application name")
			return nil, fmt.Errorf("%w: application with empty name", ErrReportValidation)
		}
	}
	return apps, nil
}

func validateApplicationDetail(d *models.ApplicationHealthReportDetail) error {
	if d.ApplicationName == "" {
		return errors.New("application detail with empty name")
	}
	if d.PasswordCount < 0 || d.AtRiskPasswordCount < 0 || d.MemberCount < 0 || d.AtRiskMemberCount < 0 {
		return fmt.Errorf("application detail '%s' has negative counts", d.ApplicationName)
	}
	if d.AtRiskPasswordCount > d.PasswordCount {
		return fmt.Errorf("application detail '%s' has more at-risk passwords than passwords", d.ApplicationName)
	}
	return nil
}

func validateSummary(sum *models.OrganizationReportSummary) error {
	if sum.TotalMemberCount < 0 || sum.TotalAtRiskMemberCount < 0 ||
		sum.TotalApplicationCount < 0 || sum.TotalAtRiskApplicationCount < 0 {
		return errors.New("summary has negative counts")
	}
	if sum.TotalAtRiskApplicationCount > sum.TotalApplicationCount {
		return errors.New("summary has more at-risk applications than applications")
	}
	return nil
}

func encryptJSON(v interface{}, key []byte) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal section: %w", err)
	}
	return crypto.Encrypt(string(raw), key)
}

func decryptJSON(encrypted string, key []byte, v interface{}) error {
	plain, err := crypto.Decrypt(encrypted, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(plain), v); err != nil {
		return fmt.Errorf("failed to unmarshal section: %w", err)
	}
	return nil
}
