package domain

import "time"

type SignatureType string

const (
	SignatureTypeDigital    SignatureType = "DIGITAL"
	SignatureTypeScanned    SignatureType = "SCANNED"
	SignatureTypeESignature SignatureType = "E_SIGNATURE"
)

// ContractSignature binds a signer to a contract. Created exactly once,
// immutable thereafter; at most one signature per contract.
type ContractSignature struct {
	ID          string        `json:"id"`
	ContractID  string        `json:"contract_id"`
	Type        SignatureType `json:"type"`
	// ImageData is the base64 signature image payload, empty for
	// signature types that carry no image.
	ImageData   string    `json:"image_data,omitempty"`
	SignerName  string    `json:"signer_name"`
	SignerEmail string    `json:"signer_email"`
	SignedAt    time.Time `json:"signed_at"`
	IPAddress   string    `json:"ip_address,omitempty"`
	UserAgent   string    `json:"user_agent,omitempty"`
	// SignatureHash is a keyed digest over contract id, image, timestamp
	// and signer name. It proves the signature has not been altered.
	SignatureHash string `json:"signature_hash"`
}
