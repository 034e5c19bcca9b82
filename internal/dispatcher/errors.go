package dispatcher

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/bwmarrin/discordgo"
)

var (
	// ErrPermissionDenied means the bot lacks the capability for the request.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrNotFound means the target channel, member or user does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDirectMessagesClosed means the user does not accept direct messages.
	ErrDirectMessagesClosed = errors.New("direct messages closed")
)

// classify maps discordgo REST failures onto the error taxonomy.
// Unrecognized errors are returned unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, discordgo.ErrStateNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}

	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) {
		return err
	}

	if restErr.Message != nil {
		switch restErr.Message.Code {
		case discordgo.ErrCodeMissingPermissions, discordgo.ErrCodeMissingAccess:
			return fmt.Errorf("%w: %w", ErrPermissionDenied, err)
		case discordgo.ErrCodeCannotSendMessagesToThisUser:
			return fmt.Errorf("%w: %w", ErrDirectMessagesClosed, err)
		case discordgo.ErrCodeUnknownChannel, discordgo.ErrCodeUnknownMember, discordgo.ErrCodeUnknownUser:
			return fmt.Errorf("%w: %w", ErrNotFound, err)
		}
	}

	if restErr.Response != nil {
		switch restErr.Response.StatusCode {
		case http.StatusForbidden:
			return fmt.Errorf("%w: %w", ErrPermissionDenied, err)
		case http.StatusNotFound:
			return fmt.Errorf("%w: %w", ErrNotFound, err)
		}
	}

	return err
}

// IsPermissionDenied reports whether err is a permission failure
func IsPermissionDenied(err error) bool {
	return errors.Is(err, ErrPermissionDenied)
}

// IsNotFound reports whether err is a missing-resource failure
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
