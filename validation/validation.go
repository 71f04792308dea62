// Package validation provides typed validation for customer, window spec,
// measurement, quote submission and analytics payloads. Validators return
// results; they never panic through their public boundary.
package validation

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"windowquote-backend/pricing"
)

// Dimension and quantity bounds for window specs, in inches.
const (
	MinDimension = 6.0
	MaxDimension = 144.0
	MinQuantity  = 1
	MaxQuantity  = 50

	MaxQuoteWindows  = 20
	DefaultValidDays = 30
)

// Fallbacks applied when an unknown enum value is supplied.
const (
	DefaultWindowType = "double-hung"
	DefaultMaterial   = "vinyl"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
var nonDigits = regexp.MustCompile(`\D`)

var knownWindowTypes = map[string]bool{
	"single-hung": true, "double-hung": true, "casement": true,
	"awning": true, "sliding": true, "picture": true,
	"bay": true, "bow": true, "garden": true,
}

var knownMaterials = map[string]bool{
	"vinyl": true, "wood": true, "fiberglass": true,
	"aluminum-clad": true, "cellular-pvc": true, "composite": true,
}

// CustomerPayload is raw customer input. Unknown fields are dropped by the
// JSON decoder before this layer sees them.
type CustomerPayload struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
	Notes   string `json:"notes,omitempty"`
}

// CustomerResult carries the sanitized customer or the validation errors.
type CustomerResult struct {
	Valid     bool            `json:"isValid"`
	Sanitized CustomerPayload `json:"sanitized,omitempty"`
	Errors    []string        `json:"errors,omitempty"`
}

// ValidateCustomer checks and normalizes a customer payload. Email is
// lowercased and trimmed; phone is reduced to digits and must be 10 long.
func ValidateCustomer(in CustomerPayload) CustomerResult {
	var errs []string

	name := strings.TrimSpace(in.Name)
	if len(name) < 2 || len(name) > 100 {
		errs = append(errs, "name must be between 2 and 100 characters")
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))
	if !emailRegex.MatchString(email) {
		errs = append(errs, "email is not a valid address")
	}

	phone := nonDigits.ReplaceAllString(in.Phone, "")
	if len(phone) == 11 && strings.HasPrefix(phone, "1") {
		phone = phone[1:]
	}
	if in.Phone != "" && len(phone) != 10 {
		errs = append(errs, "phone must be a 10-digit US number")
	}

	address := strings.TrimSpace(in.Address)
	if len(address) > 500 {
		errs = append(errs, "address must be at most 500 characters")
	}

	notes := strings.TrimSpace(in.Notes)
	if len(notes) > 2000 {
		errs = append(errs, "notes must be at most 2000 characters")
	}

	if len(errs) > 0 {
		return CustomerResult{Valid: false, Errors: errs}
	}
	return CustomerResult{Valid: true, Sanitized: CustomerPayload{
		Name:    name,
		Email:   email,
		Phone:   phone,
		Address: address,
		Notes:   notes,
	}}
}

// WindowResult carries the sanitized window spec or the validation errors.
type WindowResult struct {
	Valid     bool         `json:"isValid"`
	Sanitized pricing.Spec `json:"sanitized,omitempty"`
	Errors    []string     `json:"errors,omitempty"`
}

// ValidateWindowSpec checks dimensions and quantity and resolves enum
// fallbacks. Unknown window types and materials fall back to defaults
// rather than failing.
func ValidateWindowSpec(in pricing.Spec) WindowResult {
	var errs []string

	for _, dim := range []struct {
		name  string
		value float64
	}{{"width", in.Width}, {"height", in.Height}} {
		if math.IsNaN(dim.value) || math.IsInf(dim.value, 0) || dim.value <= 0 {
			errs = append(errs, dim.name+" must be a positive number")
			continue
		}
		if dim.value < MinDimension || dim.value > MaxDimension {
			errs = append(errs, dim.name+" must be between 6 and 144 inches")
		}
	}

	if in.Quantity < MinQuantity || in.Quantity > MaxQuantity {
		errs = append(errs, "quantity must be between 1 and 50")
	}

	if len(errs) > 0 {
		return WindowResult{Valid: false, Errors: errs}
	}

	windowType := strings.ToLower(strings.TrimSpace(in.WindowType))
	if !knownWindowTypes[windowType] {
		windowType = DefaultWindowType
	}
	material := strings.ToLower(strings.TrimSpace(in.Material))
	if !knownMaterials[material] {
		material = DefaultMaterial
	}

	options := make([]string, 0, len(in.Options))
	for _, o := range in.Options {
		if trimmed := strings.ToLower(strings.TrimSpace(o)); trimmed != "" {
			options = append(options, trimmed)
		}
	}

	return WindowResult{Valid: true, Sanitized: pricing.Spec{
		Width:      in.Width,
		Height:     in.Height,
		Quantity:   in.Quantity,
		WindowType: windowType,
		Material:   material,
		Brand:      strings.TrimSpace(in.Brand),
		Options:    options,
		Notes:      strings.TrimSpace(in.Notes),
	}}
}

// MeasurementPayload is an AI-assisted measurement submitted for review.
type MeasurementPayload struct {
	SessionName    string   `json:"sessionName"`
	MeasuredWidth  float64  `json:"measuredWidth"`
	MeasuredHeight float64  `json:"measuredHeight"`
	Confidence     *float64 `json:"confidence,omitempty"`
}

// MeasurementResult carries the sanitized measurement or the errors.
type MeasurementResult struct {
	Valid     bool               `json:"isValid"`
	Sanitized MeasurementPayload `json:"sanitized,omitempty"`
	Errors    []string           `json:"errors,omitempty"`
}

// ValidateMeasurement checks an AI measurement payload.
func ValidateMeasurement(in MeasurementPayload) MeasurementResult {
	var errs []string

	session := strings.TrimSpace(in.SessionName)
	if len(session) < 10 || len(session) > 50 {
		errs = append(errs, "sessionName must be between 10 and 50 characters")
	}

	for _, dim := range []struct {
		name  string
		value float64
	}{{"measuredWidth", in.MeasuredWidth}, {"measuredHeight", in.MeasuredHeight}} {
		if dim.value < MinDimension || dim.value > MaxDimension {
			errs = append(errs, dim.name+" must be between 6 and 144 inches")
		}
	}

	if in.Confidence != nil && (*in.Confidence < 0 || *in.Confidence > 100) {
		errs = append(errs, "confidence must be between 0 and 100")
	}

	if len(errs) > 0 {
		return MeasurementResult{Valid: false, Errors: errs}
	}
	out := in
	out.SessionName = session
	return MeasurementResult{Valid: true, Sanitized: out}
}

// QuotePayload is a quote submission: a customer reference plus windows.
type QuotePayload struct {
	CustomerID string         `json:"customerId"`
	WindowData []pricing.Spec `json:"windowData"`
	ValidDays  int            `json:"validDays,omitempty"`
}

// QuoteSubmission is a validated quote submission with sanitized windows.
type QuoteSubmission struct {
	CustomerID string         `json:"customerId"`
	Windows    []pricing.Spec `json:"windows"`
	ValidUntil time.Time      `json:"validUntil"`
}

// QuoteResult carries the sanitized submission or the errors.
type QuoteResult struct {
	Valid     bool            `json:"isValid"`
	Sanitized QuoteSubmission `json:"sanitized,omitempty"`
	Errors    []string        `json:"errors,omitempty"`
}

// ValidateQuoteWindows bounds the window batch and checks each window,
// returning the sanitized specs or the indexed errors.
func ValidateQuoteWindows(windows []pricing.Spec) ([]pricing.Spec, []string) {
	var errs []string

	if len(windows) == 0 {
		errs = append(errs, "at least one window specification is required")
	}
	if len(windows) > MaxQuoteWindows {
		errs = append(errs, "at most 20 window specifications are allowed")
	}

	sanitized := make([]pricing.Spec, 0, len(windows))
	for i, w := range windows {
		res := ValidateWindowSpec(w)
		if !res.Valid {
			for _, e := range res.Errors {
				errs = append(errs, "window "+strconv.Itoa(i)+": "+e)
			}
			continue
		}
		sanitized = append(sanitized, res.Sanitized)
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return sanitized, nil
}

// ValidateQuoteSubmission checks the customer reference and the window
// batch.
func ValidateQuoteSubmission(in QuotePayload) QuoteResult {
	var errs []string

	if strings.TrimSpace(in.CustomerID) == "" {
		errs = append(errs, "customerId is required")
	}

	windows, windowErrs := ValidateQuoteWindows(in.WindowData)
	errs = append(errs, windowErrs...)

	if len(errs) > 0 {
		return QuoteResult{Valid: false, Errors: errs}
	}

	validDays := in.ValidDays
	if validDays <= 0 {
		validDays = DefaultValidDays
	}

	return QuoteResult{Valid: true, Sanitized: QuoteSubmission{
		CustomerID: strings.TrimSpace(in.CustomerID),
		Windows:    windows,
		ValidUntil: time.Now().UTC().AddDate(0, 0, validDays),
	}}
}

// EventPayload is an analytics event submission.
type EventPayload struct {
	Event     string         `json:"event"`
	Timestamp string         `json:"timestamp"`
	SessionID string         `json:"sessionId,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

// EventResult carries the sanitized event or the errors.
type EventResult struct {
	Valid     bool         `json:"isValid"`
	Sanitized EventPayload `json:"sanitized,omitempty"`
	Occurred  time.Time    `json:"-"`
	Errors    []string     `json:"errors,omitempty"`
}

// ValidateAnalyticsEvent checks the event name and ISO timestamp.
func ValidateAnalyticsEvent(in EventPayload) EventResult {
	var errs []string

	event := strings.TrimSpace(in.Event)
	if len(event) < 3 || len(event) > 50 {
		errs = append(errs, "event must be between 3 and 50 characters")
	}

	occurred, err := time.Parse(time.RFC3339, in.Timestamp)
	if err != nil {
		errs = append(errs, "timestamp must be a valid ISO-8601 datetime")
	}

	if len(errs) > 0 {
		return EventResult{Valid: false, Errors: errs}
	}
	out := in
	out.Event = event
	return EventResult{Valid: true, Sanitized: out, Occurred: occurred}
}
