package enums

import "fmt"

// UploadMethod records the ingestion channel an artifact arrived through.
type UploadMethod string

const (
	UploadMethodGithubDirect UploadMethod = "github_direct"
	UploadMethodEmailUpload  UploadMethod = "email_upload"
	UploadMethodSimpleEmail  UploadMethod = "simple_email"
	UploadMethodWebUpload    UploadMethod = "web_upload"
	UploadMethodAPIUpload    UploadMethod = "api_upload"
	UploadMethodBatchImport  UploadMethod = "batch_import"
)

var validUploadMethods = []UploadMethod{
	UploadMethodGithubDirect,
	UploadMethodEmailUpload,
	UploadMethodSimpleEmail,
	UploadMethodWebUpload,
	UploadMethodAPIUpload,
	UploadMethodBatchImport,
}

// String returns the literal string for the method.
func (u UploadMethod) String() string {
	return string(u)
}

// IsValid reports whether the method is known.
func (u UploadMethod) IsValid() bool {
	for _, candidate := range validUploadMethods {
		if candidate == u {
			return true
		}
	}
	return false
}

// IsEmailSourced reports whether the artifact arrived over email. Email
// uploads carry a differently prefixed tracker id.
func (u UploadMethod) IsEmailSourced() bool {
	return u == UploadMethodEmailUpload || u == UploadMethodSimpleEmail
}

// ParseUploadMethod converts raw input into an UploadMethod.
func ParseUploadMethod(value string) (UploadMethod, error) {
	for _, candidate := range validUploadMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid upload method %q", value)
}
