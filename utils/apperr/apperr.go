package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind groups error codes by how they are surfaced to users and operators.
type Kind int

const (
	KindUser Kind = iota
	KindConfiguration
	KindExternal
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindUser:
		return "user"
	case KindConfiguration:
		return "configuration"
	case KindExternal:
		return "external"
	case KindTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Code is a machine-readable error code.
type Code string

const (
	CodeMissingGuildContext      Code = "MISSING_GUILD_CONTEXT"
	CodeMissingPermission        Code = "MISSING_PERMISSION"
	CodeApplicationMisconfigured Code = "APPLICATION_MISCONFIGURED"
	CodeAppealDisabled           Code = "APPEAL_DISABLED"
	CodeNotAppealGuild           Code = "NOT_APPEAL_GUILD"
	CodeInvalidAppealData        Code = "INVALID_APPEAL_DATA"
	CodeExistingPendingCase      Code = "EXISTING_PENDING_CASE"
	CodeUserIsNotBanned          Code = "USER_IS_NOT_BANNED"
	CodeRobloxAccountNotVerified Code = "ROBLOX_ACCOUNT_NOT_VERIFIED"
	CodeAppealAlreadyCompleted   Code = "APPEAL_ALREADY_COMPLETED"
	CodeNotAppealChannel         Code = "NOT_APPEAL_CHANNEL"
	CodeCaseNotFound             Code = "CASE_NOT_FOUND"
	CodeCategoryAlreadySetup     Code = "CATEGORY_ALREADY_SETUP"
	CodeIncorrectServerSetup     Code = "INCORRECT_SERVER_SETUP"
	CodeUnbanFailed              Code = "UNBAN_FAILED"
	CodeExternalService          Code = "EXTERNAL_SERVICE"
	CodeTimeout                  Code = "TIMEOUT"
)

const (
	externalMessage   = "An external service failed. Please try again later."
	timeoutMessage    = "The request timed out. Please try again."
	unexpectedMessage = "An unexpected error occurred while processing your command."
)

// Error is the domain error type. Message is safe to show to a user.
type Error struct {
	Kind    Kind
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

func New(kind Kind, code Code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func Wrap(kind Kind, code Code, message string, cause error) *Error {
	return &Error{Kind: kind, Code: code, Message: message, Cause: cause}
}

// As extracts the domain error from an error chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code Code) bool {
	return errors.Is(err, &Error{Code: code})
}

// UserMessage returns the text shown to a chat user for err.
func UserMessage(err error) string {
	e, ok := As(err)
	if !ok {
		return unexpectedMessage
	}
	switch e.Kind {
	case KindUser, KindConfiguration:
		return e.Message
	case KindExternal:
		return externalMessage
	case KindTimeout:
		return timeoutMessage
	default:
		return unexpectedMessage
	}
}

func MissingGuildContext() *Error {
	return New(KindUser, CodeMissingGuildContext, "This command can only be used in a server context.")
}

func MissingPermission(roles ...string) *Error {
	switch len(roles) {
	case 0:
		return New(KindUser, CodeMissingPermission, "You do not have permission to use this command.")
	case 1:
		return New(KindUser, CodeMissingPermission, "Only users with the following role can use this command: "+roles[0])
	default:
		return New(KindUser, CodeMissingPermission, "Only users with the following roles can use this command: "+strings.Join(roles, ", "))
	}
}

func ApplicationMisconfigured(detail string) *Error {
	return Wrap(KindConfiguration, CodeApplicationMisconfigured, "Application is misconfigured.", errors.New(detail))
}

func AppealDisabled() *Error {
	return New(KindUser, CodeAppealDisabled, "We are currently not accepting new appeals right now.")
}

func NotAppealGuild(guildID string) *Error {
	return New(KindUser, CodeNotAppealGuild, fmt.Sprintf("Guild with ID %s is not configured for the appeal system.", guildID))
}

func InvalidAppealData(message string) *Error {
	return New(KindUser, CodeInvalidAppealData, message)
}

func ExistingPendingCase() *Error {
	return New(KindUser, CodeExistingPendingCase, "You already have a pending appeal for this game and punishment type.")
}

func UserIsNotDiscordBanned() *Error {
	return New(KindUser, CodeUserIsNotBanned, "You are not banned from the Discord Community server.")
}

func UserIsNotGameBanned(gameName string) *Error {
	return New(KindUser, CodeUserIsNotBanned, fmt.Sprintf("You are not banned from **%s** on Roblox.", gameName))
}

func RobloxAccountNotVerified() *Error {
	return New(KindUser, CodeRobloxAccountNotVerified, "Roblox account is not verified. Please verify your account with Rover to proceed.")
}

func AppealAlreadyCompleted() *Error {
	return New(KindUser, CodeAppealAlreadyCompleted, "This appeal has already been completed.")
}

func NotAppealChannel() *Error {
	return New(KindUser, CodeNotAppealChannel, "This command can only be used in an appeal channel.")
}

func CaseNotFound() *Error {
	return New(KindUser, CodeCaseNotFound, "Case does not exist or access code is invalid")
}

func CategoryAlreadySetup() *Error {
	return New(KindUser, CodeCategoryAlreadySetup, "Categories for open and/or closed appeals are already set up.")
}

func IncorrectServerSetup(detail string) *Error {
	return Wrap(KindConfiguration, CodeIncorrectServerSetup,
		"This server is not set up correctly. Please contact the server administrator to re-setup the server.",
		errors.New(detail))
}

func UnbanFailed(cause error) *Error {
	return Wrap(KindExternal, CodeUnbanFailed, "Failed to lift the punishment.", cause)
}

func ExternalService(message string, cause error) *Error {
	return Wrap(KindExternal, CodeExternalService, message, cause)
}

func Timeout(cause error) *Error {
	return Wrap(KindTimeout, CodeTimeout, timeoutMessage, cause)
}
