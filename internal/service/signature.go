package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/logger"
)

const (
	// Decoded image size bounds. The minimum rejects near-empty
	// scribbles, the maximum oversized uploads.
	minSignatureImageBytes = 50
	maxSignatureImageBytes = 5 * 1024 * 1024

	// hashFieldDelimiter joins the canonical hash input fields. Fixed
	// order and delimiter keep the digest deterministic.
	hashFieldDelimiter = "|"
)

type signatureService struct {
	secret []byte
}

// NewSignatureService creates the signature and integrity service. The
// secret keys the signature HMAC and must stay stable across restarts
// or stored hashes become unverifiable.
func NewSignatureService(secret string) SignatureService {
	return &signatureService{secret: []byte(secret)}
}

// ValidateSignatureImage checks a data URI or raw base64 signature
// image. Rules are checked independently and errors accumulate, except
// that an undecodable payload prevents size computation.
func (s *signatureService) ValidateSignatureImage(image string) SignatureImageValidation {
	res := SignatureImageValidation{}

	trimmed := strings.TrimSpace(image)
	if trimmed == "" {
		res.Errors = append(res.Errors, "signature image is empty")
		return res
	}

	payload := trimmed
	declaredFormat := ""
	if strings.HasPrefix(trimmed, "data:") {
		mime, rest, ok := parseDataURI(trimmed)
		if !ok {
			res.Errors = append(res.Errors, "malformed data URI")
			return res
		}
		declaredFormat = mime
		payload = rest
		if mime != "image/png" && mime != "image/jpeg" {
			res.Errors = append(res.Errors, fmt.Sprintf("unsupported image format %q, only image/png and image/jpeg are accepted", mime))
		}
	}

	decoded, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		res.Errors = append(res.Errors, "invalid base64 encoding")
		res.IsValid = false
		return res
	}

	if declaredFormat == "" {
		declaredFormat = sniffImageFormat(decoded)
		if declaredFormat == "" {
			res.Errors = append(res.Errors, "unrecognized image format, only image/png and image/jpeg are accepted")
		}
	}
	res.ImageFormat = declaredFormat

	// Size from base64 length, padding discounted.
	size := int64(len(payload)) * 3 / 4
	for i := len(payload) - 1; i >= 0 && payload[i] == '='; i-- {
		size--
	}
	res.ImageSize = size

	if size < minSignatureImageBytes {
		res.Errors = append(res.Errors, fmt.Sprintf("signature image too small (%d bytes, minimum %d)", size, minSignatureImageBytes))
	}
	if size > maxSignatureImageBytes {
		res.Errors = append(res.Errors, fmt.Sprintf("signature image too large (%d bytes, maximum %d)", size, maxSignatureImageBytes))
	}

	res.IsValid = len(res.Errors) == 0
	return res
}

func parseDataURI(uri string) (mime, payload string, ok bool) {
	rest := strings.TrimPrefix(uri, "data:")
	semi := strings.Index(rest, ";base64,")
	if semi < 0 {
		return "", "", false
	}
	return rest[:semi], rest[semi+len(";base64,"):], true
}

func sniffImageFormat(data []byte) string {
	switch {
	case len(data) >= 8 && string(data[:8]) == "\x89PNG\r\n\x1a\n":
		return "image/png"
	case len(data) >= 3 && data[0] == 0xff && data[1] == 0xd8 && data[2] == 0xff:
		return "image/jpeg"
	default:
		return ""
	}
}

// GenerateSignatureHash computes the keyed digest binding a signature
// to its contract. Identical inputs always yield the identical digest;
// changing any single field changes it.
func (s *signatureService) GenerateSignatureHash(contractID, image string, signedAt time.Time, signerName string) string {
	canonical := strings.Join([]string{
		contractID,
		image,
		signedAt.UTC().Format(time.RFC3339),
		signerName,
	}, hashFieldDelimiter)

	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(canonical))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignatureIntegrity recomputes the hash from the stored metadata
// plus the caller-supplied original image and compares it to the stored
// hash in constant time.
func (s *signatureService) VerifySignatureIntegrity(sig *domain.ContractSignature, originalImage string) error {
	expected := s.GenerateSignatureHash(sig.ContractID, originalImage, sig.SignedAt, sig.SignerName)
	if !s.TimingSafeCompare(expected, sig.SignatureHash) {
		return &domain.IntegrityError{
			Subject:  "signature",
			Expected: expected,
			Actual:   sig.SignatureHash,
		}
	}
	return nil
}

// TimingSafeCompare runs in time independent of where two equal-length
// strings first differ and of whether the lengths differ. A length
// mismatch still burns a full-length comparison against a deliberately
// mismatching buffer before returning false, so the caller's timing
// leaks neither fact.
func (s *signatureService) TimingSafeCompare(a, b string) bool {
	ab := []byte(a)
	bb := []byte(b)
	if len(ab) != len(bb) {
		decoy := make([]byte, len(ab))
		for i := range ab {
			decoy[i] = ab[i] ^ 0xff
		}
		subtle.ConstantTimeCompare(ab, decoy)
		return false
	}
	return subtle.ConstantTimeCompare(ab, bb) == 1
}

// ValidateContractForSigning is a pure state check: signing is
// permitted only from PENDING_SIGNATURE with a generated document.
func (s *signatureService) ValidateContractForSigning(c *domain.Contract) (bool, string) {
	switch c.Status {
	case domain.ContractStatusPendingSignature:
		if c.PDFPath == "" {
			return false, "contract document has not been generated yet"
		}
		return true, ""
	case domain.ContractStatusDraft:
		return false, "contract is still a draft, generate the document first"
	case domain.ContractStatusSigned:
		return false, "contract is already signed"
	case domain.ContractStatusArchived:
		return false, "contract is archived and can no longer be signed"
	case domain.ContractStatusCancelled:
		return false, "contract is cancelled"
	case domain.ContractStatusCompleted:
		return false, "contract is completed"
	default:
		return false, fmt.Sprintf("contract status %s does not permit signing", c.Status)
	}
}

// RecordSignature re-validates contract state and, for digital
// signatures, the image, then returns the immutable signature record.
// Invalid input raises a validation error rather than being clamped.
func (s *signatureService) RecordSignature(ctx context.Context, c *domain.Contract, req SignatureRequest, signedAt time.Time) (*domain.ContractSignature, error) {
	if canSign, reason := s.ValidateContractForSigning(c); !canSign {
		if c.Status != domain.ContractStatusPendingSignature {
			return nil, domain.NewStateConflictError("sign contract", c.Status, domain.ContractStatusPendingSignature)
		}
		return nil, domain.NewValidationError(reason)
	}
	if c.Signature != nil {
		return nil, domain.NewValidationError("contract already has a signature")
	}
	if strings.TrimSpace(req.SignerName) == "" {
		return nil, domain.NewValidationError("signer name is required")
	}

	if req.Type == domain.SignatureTypeDigital {
		imgRes := s.ValidateSignatureImage(req.Image)
		if !imgRes.IsValid {
			return nil, &domain.ValidationError{Problems: imgRes.Errors}
		}
	}

	sig := &domain.ContractSignature{
		ID:            uuid.New().String(),
		ContractID:    c.ID,
		Type:          req.Type,
		ImageData:     req.Image,
		SignerName:    req.SignerName,
		SignerEmail:   req.SignerEmail,
		SignedAt:      signedAt,
		IPAddress:     req.IPAddress,
		UserAgent:     req.UserAgent,
		SignatureHash: s.GenerateSignatureHash(c.ID, req.Image, signedAt, req.SignerName),
	}

	logger.Info("Signature recorded", "contract_id", c.ID, "type", req.Type, "signer", req.SignerName)
	return sig, nil
}
