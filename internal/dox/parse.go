package dox

import (
	"encoding/json"
	"fmt"
	"math"
)

// Result holds the fields parsed out of a completed extraction job.
type Result struct {
	InvoiceNumber   string
	VendorName      string
	ConfidenceScore float64
	RawJSON         string
}

type headerField struct {
	Name       string      `json:"name"`
	Value      interface{} `json:"value"`
	Confidence float64     `json:"confidence"`
}

type extractionResult struct {
	Extraction struct {
		HeaderFields []headerField `json:"headerFields"`
	} `json:"extraction"`
}

// ParseResult scans the header fields of a DONE extraction result for the
// invoice number and the sender (vendor) name, and averages the non-zero
// field confidences. The raw body is carried through verbatim for audit
// storage.
//
// The vendor sends at most one field per name in practice; if duplicates
// ever occur, the last non-empty occurrence wins. This is iteration-order
// behavior, not a contract.
// Parameters:
//   - raw: full DONE result body as returned by the polling endpoint.
// Returns:
//   - *Result: parsed fields with mean confidence rounded to two decimals.
//   - error: wraps ErrFieldMissing when invoiceNumber or senderName is absent.
func ParseResult(raw []byte) (*Result, error) {
	var parsed extractionResult
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse extraction results: %w", err)
	}

	var invoiceNumber, vendorName string
	var confidences []float64

	for _, field := range parsed.Extraction.HeaderFields {
		if field.Confidence != 0 {
			confidences = append(confidences, field.Confidence)
		}

		value := fieldValueString(field.Value)
		if value == "" {
			continue
		}

		switch field.Name {
		case "invoiceNumber":
			invoiceNumber = value
		case "senderName":
			vendorName = value
		}
	}

	if invoiceNumber == "" {
		return nil, fmt.Errorf("%w: invoiceNumber", ErrFieldMissing)
	}
	if vendorName == "" {
		return nil, fmt.Errorf("%w: senderName", ErrFieldMissing)
	}

	var confidence float64
	if len(confidences) > 0 {
		var sum float64
		for _, c := range confidences {
			sum += c
		}
		confidence = math.Round(sum/float64(len(confidences))*100) / 100
	}

	return &Result{
		InvoiceNumber:   invoiceNumber,
		VendorName:      vendorName,
		ConfidenceScore: confidence,
		RawJSON:         string(raw),
	}, nil
}

// fieldValueString renders a header field value as a string. Document AI
// usually sends strings but emits numbers for amount fields.
func fieldValueString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		// Trim the trailing .0 JSON decoding adds to integral numbers.
		if val == math.Trunc(val) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%v", val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
