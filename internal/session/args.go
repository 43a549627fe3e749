package session

import (
	"github.com/tjfontaine/agent-stream-adapter/internal/domain"
)

// Operation discriminator values accepted in the inbound payload.
const (
	OperationChat           = "chat"
	OperationApprovalLetter = "generate_approval_letter"
)

// EndSessionMarker flags session termination when it appears anywhere in
// the user's message. A substring check, not a structured flag.
const EndSessionMarker = "end_session"

// Args is the merged argument object for one resolver invocation: the
// operation-specific fields from the request body plus the credentials
// lifted from the transport headers.
type Args struct {
	Opr string `json:"opr"`

	// chat
	ID        string            `json:"id,omitempty"`
	UserID    string            `json:"userID,omitempty"`
	Message   string            `json:"message,omitempty"`
	Documents []domain.Document `json:"documents,omitempty"`

	// generate_approval_letter. The attestation booleans are pointers:
	// absent means "use the default", which is true for all three.
	ApplicationName               string `json:"applicationName,omitempty"`
	Date                          string `json:"date,omitempty"`
	LoanAmount                    string `json:"loanAmount,omitempty"`
	LoanTerms                     string `json:"loanTerms,omitempty"`
	MailAddress                   string `json:"mailAddress,omitempty"`
	PropertyAddress               string `json:"propertyAddress,omitempty"`
	PropertyAddressSameAsMail     *bool  `json:"propertyAddressSameAsMail,omitempty"`
	PurchasePrice                 string `json:"purchasePrice,omitempty"`
	SatisfactoryPurchaseAgreement *bool  `json:"satisfactoryPurchaseAgreement,omitempty"`
	SufficientAppraisal           *bool  `json:"sufficientAppraisal,omitempty"`
	MarketableTitle               *bool  `json:"marketableTitle,omitempty"`

	// merged from transport headers
	Host      string `json:"host,omitempty"`
	AuthToken string `json:"auth_token,omitempty"`
	APIKey    string `json:"api_key,omitempty"`
}

// Result is the normalized outward result of one operation. For letter
// generation, Message carries the generated HTML on success and the
// human-readable error on failure; the chat path never exposes detail.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// letterInput is the structured form payload serialized into the
// <input> wrapper for the letter-generation prompt.
type letterInput struct {
	ApplicationName               string `json:"applicationName"`
	Date                          string `json:"date"`
	LoanAmount                    string `json:"loanAmount"`
	LoanTerms                     string `json:"loanTerms"`
	MailAddress                   string `json:"mailAddress"`
	PropertyAddress               string `json:"propertyAddress"`
	PropertyAddressSameAsMail     bool   `json:"propertyAddressSameAsMail"`
	PurchasePrice                 string `json:"purchasePrice"`
	SatisfactoryPurchaseAgreement bool   `json:"satisfactoryPurchaseAgreement"`
	SufficientAppraisal           bool   `json:"sufficientAppraisal"`
	MarketableTitle               bool   `json:"marketableTitle"`
}

func buildLetterInput(args *Args) letterInput {
	return letterInput{
		ApplicationName:               args.ApplicationName,
		Date:                          args.Date,
		LoanAmount:                    args.LoanAmount,
		LoanTerms:                     args.LoanTerms,
		MailAddress:                   args.MailAddress,
		PropertyAddress:               args.PropertyAddress,
		PropertyAddressSameAsMail:     boolDefault(args.PropertyAddressSameAsMail, false),
		PurchasePrice:                 args.PurchasePrice,
		SatisfactoryPurchaseAgreement: boolDefault(args.SatisfactoryPurchaseAgreement, true),
		SufficientAppraisal:           boolDefault(args.SufficientAppraisal, true),
		MarketableTitle:               boolDefault(args.MarketableTitle, true),
	}
}

func boolDefault(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
