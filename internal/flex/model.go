package flex

import "encoding/xml"

// statementResponse is the provider's XML status envelope, returned both by
// the generate-report request and by polls that cannot yet serve the CSV.
type statementResponse struct {
	XMLName       xml.Name `xml:"FlexStatementResponse"`
	Timestamp     string   `xml:"timestamp,attr"`
	Status        string   `xml:"Status"`
	ReferenceCode string   `xml:"ReferenceCode"`
	URL           string   `xml:"Url"`
	ErrorCode     *int     `xml:"ErrorCode"`
	ErrorMessage  *string  `xml:"ErrorMessage"`
}

// ErrorCodeTable maps provider error codes to messages and retry behavior.
// Injected at construction so tests can substitute alternate tables.
type ErrorCodeTable struct {
	Messages  map[int]string
	Retryable map[int]bool
}

// DefaultErrorCodes returns the provider's documented code table. Codes
// 1018 and 1019 mean the statement is still generating; 1021 means the
// poll was throttled. Everything else is terminal.
func DefaultErrorCodes() ErrorCodeTable {
	return ErrorCodeTable{
		Messages: map[int]string{
			1003: "statement is not available",
			1009: "flex service is under maintenance",
			1012: "token has expired",
			1015: "token is invalid",
			1018: "statement generation in progress",
			1019: "statement generation in progress",
			1021: "statement request rate limited",
		},
		Retryable: map[int]bool{
			1018: true,
			1019: true,
			1021: true,
		},
	}
}
