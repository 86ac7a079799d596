package errors

import (
	"context"
	"errors"
	"strings"

	"github.com/louisbranch/diceroller/internal/platform/errors/i18n"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// LocaleMetadataKey is the incoming gRPC metadata key carrying the caller's
// language preference.
const LocaleMetadataKey = "accept-language"

// LocaleFromContext returns the accept-language preference sent with an
// incoming call, or "" when there is none.
func LocaleFromContext(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	return strings.Join(md.Get(LocaleMetadataKey), ",")
}

// HandleError converts domain errors to gRPC status for client responses.
// The user-facing message is rendered from the catalog that best matches
// locale.
func HandleError(err error, locale string) error {
	if err == nil {
		return nil
	}

	var appErr *Error
	if errors.As(err, &appErr) {
		catalog := i18n.GetCatalog(locale)
		userMsg := catalog.Format(string(appErr.Code), appErr.Metadata)
		return appErr.ToGRPCStatus(catalog.Locale(), userMsg)
	}

	// Unknown error - return internal with generic message
	return status.Error(codes.Internal, "an unexpected error occurred")
}

// Details is the decoded form of a status produced by HandleError.
type Details struct {
	Code             codes.Code
	Reason           Code
	Metadata         map[string]string
	Locale           string
	LocalizedMessage string
}

// FromStatus decodes the ErrorInfo and LocalizedMessage details of a gRPC
// error. ok is false when err carries no ErrorInfo from this domain.
func FromStatus(err error) (Details, bool) {
	st, isStatus := status.FromError(err)
	if !isStatus {
		return Details{}, false
	}
	details := Details{Code: st.Code()}
	found := false
	for _, detail := range st.Details() {
		switch d := detail.(type) {
		case *errdetails.ErrorInfo:
			if d.GetDomain() != Domain {
				continue
			}
			details.Reason = Code(d.GetReason())
			details.Metadata = d.GetMetadata()
			found = true
		case *errdetails.LocalizedMessage:
			details.Locale = d.GetLocale()
			details.LocalizedMessage = d.GetMessage()
		}
	}
	return details, found
}
